// Command quire-bench generates load against a running quire server and
// reports latency percentiles per operation type.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quirelab/quire/pkg/bench"
)

func main() {
	configFile := flag.String("config", "", "Scenario file (YAML); omit for the built-in demo scenario")
	target := flag.String("target", "", "Target base URL (overrides the scenario file)")
	duration := flag.Duration("duration", 0, "Run duration (overrides the scenario file)")
	workers := flag.Int("workers", 0, "Concurrent workers (overrides the scenario file)")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	flag.Parse()

	if err := run(*configFile, *target, *duration, *workers, !*noColor); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile, target string, duration time.Duration, workers int, color bool) error {
	var cfg *bench.Config
	var err error

	if configFile != "" {
		cfg, err = bench.LoadConfig(configFile)
		if err != nil {
			return err
		}
	} else {
		cfg = bench.DefaultConfig()
	}

	if target != "" {
		cfg.Target = target
	}
	if duration > 0 {
		cfg.Duration = duration
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	runner, err := bench.NewRunner(cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	reporter := bench.NewConsoleReporter(os.Stdout, color)

	fmt.Printf("Target:   %s\n", cfg.Target)
	fmt.Printf("Duration: %s\n", cfg.Duration)
	fmt.Printf("Workers:  %d\n", cfg.Workers)
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resultChan := make(chan *bench.Result, 1)
	errChan := make(chan error, 1)
	go func() {
		result, err := runner.Run(ctx)
		if err != nil {
			errChan <- err
			return
		}
		resultChan <- result
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	start := time.Now()

	for {
		select {
		case result := <-resultChan:
			reporter.ReportProgress(time.Since(start), runner.Collector().Snapshot())
			fmt.Println()
			return reporter.ReportSummary(result)

		case err := <-errChan:
			return err

		case <-ticker.C:
			reporter.ReportProgress(time.Since(start), runner.Collector().Snapshot())
		}
	}
}
