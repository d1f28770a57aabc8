package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ghalamif/perftrace"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, events, closeEvents := perftrace.NewChannelStore("fanout", 32)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		fanoutWorker(ctx, "upload", events)
	}()

	cfg := &perftrace.Config{Journal: perftrace.JournalConfig{Dir: "../../data/journal"}}
	rt, err := perftrace.NewRuntime(ctx, cfg, perftrace.WithStore(store))
	if err != nil {
		log.Fatalf("runtime: %v", err)
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			_ = rt.Shutdown(context.Background())
			closeEvents()
			wg.Wait()
			return
		case <-ticker.C:
			bag, err := perftrace.NewBag(nil, []perftrace.NumericAttribute{{Name: "frame", Value: perftrace.Int(int64(i))}})
			if err != nil {
				log.Fatalf("bag: %v", err)
			}
			if _, err := rt.Record(ctx, "demo", bag); err != nil {
				log.Printf("record: %v", err)
			}
		}
	}
}

func fanoutWorker(ctx context.Context, name string, events <-chan perftrace.PerformanceEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-events:
			fmt.Printf("[%s] forwarding %s counters=%v\n", name, e.Created(), e.Counters())
		}
	}
}
