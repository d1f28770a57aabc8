package main

import (
	"context"
	"fmt"
	"log"

	"github.com/ghalamif/perftrace"
)

func main() {
	callback := func(e perftrace.PerformanceEvent) error {
		fmt.Printf("%s session=%s attributes=%v counters=%d\n",
			e.Created(),
			e.SessionID(),
			e.Attributes(),
			len(e.Counters()),
		)
		return nil
	}

	ctx := context.Background()
	cfg := &perftrace.Config{Journal: perftrace.JournalConfig{Dir: "../../data/journal"}}
	rt, err := perftrace.NewRuntime(ctx, cfg, perftrace.WithStore(perftrace.NewCallbackStore("stdout", callback)))
	if err != nil {
		log.Fatalf("runtime: %v", err)
	}
	defer rt.Shutdown(ctx)

	// entries left by runs without a store are printed first
	if _, err := rt.Replay(ctx); err != nil {
		log.Fatalf("replay: %v", err)
	}

	bag := perftrace.Bag{
		perftrace.KeyAttributes: `[{"name":"screen","value":"map"}]`,
		perftrace.KeyCounters:   `[{"name":"elapsed","value":873}]`,
	}
	if _, err := rt.Record(ctx, "sess-42", bag); err != nil {
		log.Fatalf("record: %v", err)
	}
}
