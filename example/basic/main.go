package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"

	"github.com/ghalamif/perftrace"
)

func main() {
	bag, err := perftrace.NewBag(
		[]perftrace.StringAttribute{{Name: "style_id", Value: "mapbox://styles/x"}},
		[]perftrace.NumericAttribute{
			{Name: "elapsed", Value: perftrace.Int(873)},
			{Name: "fps", Value: perftrace.Float(59.94)},
		},
	)
	if err != nil {
		log.Fatalf("build bag: %v", err)
	}

	e, err := perftrace.Construct("sess-42", bag)
	if err != nil {
		log.Fatalf("construct: %v", err)
	}

	data, err := perftrace.Encode(e)
	if err != nil {
		log.Fatalf("encode: %v", err)
	}
	fmt.Printf("transfer form: %s\n", base64.StdEncoding.EncodeToString(data))

	back, err := perftrace.Decode(data)
	if err != nil {
		log.Fatalf("decode: %v", err)
	}
	fmt.Printf("round trip equal: %v\n", back.Equal(e))

	cfg := &perftrace.Config{Store: perftrace.StoreConfig{Driver: "sqlite", DSN: "file:../../data/events.db"}}
	ctx := context.Background()
	rt, err := perftrace.NewRuntime(ctx, cfg)
	if err != nil {
		log.Fatalf("runtime: %v", err)
	}
	defer rt.Shutdown(ctx)

	if _, err := rt.Record(ctx, "sess-42", bag); err != nil {
		log.Fatalf("record: %v", err)
	}
	events, err := rt.Events(ctx, "sess-42")
	if err != nil {
		log.Fatalf("list: %v", err)
	}
	fmt.Printf("stored events for sess-42: %d\n", len(events))
}
