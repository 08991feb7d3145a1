// Command replay loads a persisted history.Snapshot (spec.md §6.4) from
// a JSON file holding the bare snapshot object, and prints the cells it
// builds into, one per record, without needing a live Engine or a real
// terminal session. cmd/tuichat's session file nests its snapshot under
// a "history" key and is not read by this command as is. Useful for inspecting a saved conversation or for
// demoing pkg/cell's factories end to end.
//
//	replay <snapshot.json>
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/relaycode/tuichat/pkg/cell"
	"github.com/relaycode/tuichat/pkg/history"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: replay <snapshot.json>")
		os.Exit(2)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading snapshot: %v\n", err)
		os.Exit(1)
	}

	var snap history.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		fmt.Fprintf(os.Stderr, "parsing snapshot: %v\n", err)
		os.Exit(1)
	}

	store := history.New(slog.Default())
	store.Restore(snap)

	for _, rec := range store.Records() {
		c := cell.Build(rec)
		if c.Header != "" {
			fmt.Printf("[%s] %s\n", c.Kind, c.Header)
		}
		for _, line := range c.Lines {
			var b strings.Builder
			for _, span := range line.Spans {
				b.WriteString(span.Text)
			}
			fmt.Println(b.String())
		}
		fmt.Println()
	}
}
