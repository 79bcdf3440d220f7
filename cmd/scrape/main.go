package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gamewrapped/internal/ingest"
	"gamewrapped/internal/scrape"
)

func main() {
	source := flag.String("source", "backloggd", "profile source: backloggd or steam")
	id := flag.String("id", "", "profile id (Backloggd username or 17-digit Steam id)")
	out := flag.String("o", "", "output file (default stdout)")
	flag.Parse()

	if *id == "" {
		log.Fatal("-id is required")
	}

	var src scrape.Source
	switch *source {
	case "backloggd":
		src = scrape.NewBackloggd()
	case "steam":
		src = scrape.NewSteam()
	default:
		log.Fatalf("unknown source %q", *source)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	engine := scrape.NewEngine()
	result, err := engine.Run(ctx, src, *id, func(page, total int) {
		log.Printf("[scrape] page %d (%d entries so far)", page, total)
	})
	if err != nil {
		log.Fatalf("scrape failed: %v", err)
	}

	csvText := ingest.EntriesToCSV(result.Entries, src.Columns(), src.Quote)

	if *out == "" {
		fmt.Println(csvText)
	} else {
		if err := os.WriteFile(*out, []byte(csvText+"\n"), 0o644); err != nil {
			log.Fatalf("write %s: %v", *out, err)
		}
		log.Printf("wrote %d entries to %s", len(result.Entries), *out)
	}
}
