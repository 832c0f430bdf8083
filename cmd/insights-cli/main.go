// cmd/insights-cli/main.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"sales-insights/internal/common/config"
	"sales-insights/internal/common/logger"
	"sales-insights/internal/dataprep"
	"sales-insights/internal/engine/classifier"
	"sales-insights/internal/engine/dispatcher"
	"sales-insights/internal/engine/executor"
	"sales-insights/internal/engine/formatter"
	"sales-insights/internal/narration"
	"sales-insights/internal/session"
	"sales-insights/internal/store"
)

// The CLI runs the same pipeline as the server against a single in-process
// session. Caching is skipped: a terminal session rarely repeats itself.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New("warn", "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	loader := dataprep.NewLoader(cfg.Dataset.DateFormat, log)
	records, report, err := loader.LoadFile(cfg.Dataset.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dataset load failed: %v\n", err)
		os.Exit(1)
	}
	dataset, err := store.NewDataset(records)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dataset preparation failed: %v\n", err)
		os.Exit(1)
	}
	st := store.New(dataset)

	var narrator narration.Narrator
	if cfg.Narration.Enabled {
		narrator = narration.NewHTTPNarrator(&cfg.Narration, log)
	}

	cls := classifier.New(dataset.Vocabulary(), cfg.Engine.MinIntentScore)
	d := dispatcher.New(st, cls, executor.New(), formatter.New(), narrator, nil, nil, log, cfg.Engine)
	sess := session.New("", cfg.Engine.HistoryLimit)

	minYear, maxYear := dataset.Years()
	fmt.Printf("Loaded %d rows covering %d-%d. Ask a question, or 'quit' to exit.\n", report.Rows, minYear, maxYear)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		resp := d.Process(context.Background(), line, sess)
		fmt.Println(resp.Text)
		if resp.Error != nil && len(resp.Error.Suggestions) > 0 {
			fmt.Println("Try for example:")
			for _, s := range resp.Error.Suggestions {
				fmt.Printf("  - %s\n", s)
			}
		}
		fmt.Println()
	}
}
