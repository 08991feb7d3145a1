// Command mockengine runs a scripted chatengine.Engine against stdin,
// printing the resulting history cells to stdout. It exercises the
// Engine boundary end to end (Submit -> Event stream -> Runtime ->
// history.Store -> cell.Build) without a real terminal session or
// model provider, the chatengine-domain analogue of cmd/mock-backend.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/relaycode/tuichat/pkg/cell"
	"github.com/relaycode/tuichat/pkg/chatengine"
	"github.com/relaycode/tuichat/pkg/chatengine/mockengine"
	"github.com/relaycode/tuichat/pkg/domain"
	"github.com/relaycode/tuichat/pkg/history"
)

func main() {
	model := os.Getenv("MOCKENGINE_MODEL")
	if model == "" {
		model = "mock-model"
	}

	store := history.New(slog.Default())
	applier := domain.New(store, slog.Default())
	runtime := chatengine.NewRuntime(store, applier, slog.Default())
	engine := mockengine.New(model)
	defer engine.Close()

	go printEvents(engine, runtime)

	fmt.Fprintln(os.Stderr, "mockengine ready; type a message and press enter (Ctrl+D to quit)")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if err := engine.Submit(context.Background(), chatengine.Submit{Text: text}); err != nil {
			fmt.Fprintf(os.Stderr, "submit error: %v\n", err)
		}
	}
}

func printEvents(engine *mockengine.Engine, runtime *chatengine.Runtime) {
	for ev := range engine.Events() {
		mutation := runtime.Apply(ev)
		if mutation.Kind == history.MutationNoop {
			continue
		}
		printMutation(runtime, mutation)
	}
}

func printMutation(runtime *chatengine.Runtime, mutation history.HistoryMutation) {
	rec, ok := runtimeRecordByID(runtime, mutation.ID)
	if !ok {
		return
	}
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
}

// runtimeRecordByID exposes the store record behind a mutation's id
// without widening Runtime's exported surface just for this dev tool.
func runtimeRecordByID(runtime *chatengine.Runtime, id history.HistoryId) (history.Record, bool) {
	return runtime.RecordByID(id)
}
