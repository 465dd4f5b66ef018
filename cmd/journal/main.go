package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"bqclient/internal/persistence/indexdb"
)

// journal prints events recorded by the client's sqlite journal.
//
//	journal -db events.sqlite [recent|counts]
func main() {
	dbPath := flag.String("db", "", "sqlite journal path (required)")
	kind := flag.String("kind", "", "event kind filter for recent (lucky, chat, server_error, search_failure, damage)")
	limit := flag.Int("limit", 20, "result limit")
	flag.Parse()

	q := "recent"
	if flag.NArg() > 0 {
		q = strings.TrimSpace(flag.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		fmt.Fprintln(os.Stderr, "missing -db")
		os.Exit(2)
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}

	j, err := indexdb.OpenSQLite(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer j.Close()

	ctx := context.Background()
	switch q {
	case "recent":
		evs, err := j.Recent(ctx, indexdb.Kind(strings.TrimSpace(*kind)), *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		for _, ev := range evs {
			printJSON(ev)
		}

	case "counts":
		counts, err := j.Counts(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		printJSON(counts)

	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		os.Exit(2)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
