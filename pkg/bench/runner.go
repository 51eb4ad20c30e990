package bench

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Runner drives a scenario with a pool of workers for the configured
// duration.
type Runner struct {
	cfg       *Config
	client    *Client
	scenario  *Scenario
	collector *Collector
}

// NewRunner builds the client, scenario and collector for one run.
func NewRunner(cfg *Config) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := NewClient(cfg.Target, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Runner{
		cfg:       cfg,
		client:    client,
		scenario:  NewScenario(cfg),
		collector: NewCollector(),
	}, nil
}

// Collector exposes the live collector for progress reporting.
func (r *Runner) Collector() *Collector {
	return r.collector
}

// Result is the outcome of one run.
type Result struct {
	Name      string
	StartTime time.Time
	EndTime   time.Time
	Elapsed   time.Duration

	Summary      *Metrics
	PerOperation map[string]*Metrics
}

// Run executes the scenario until the configured duration elapses or
// ctx is canceled, whichever comes first.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.cfg.Duration)
	defer cancel()

	start := time.Now()
	r.collector.Reset()

	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.work(runCtx)
		}()
	}
	wg.Wait()
	end := time.Now()

	return &Result{
		Name:         r.cfg.Name,
		StartTime:    start,
		EndTime:      end,
		Elapsed:      end.Sub(start),
		Summary:      r.collector.Snapshot(),
		PerOperation: r.collector.OperationSnapshot(),
	}, nil
}

// work is one worker loop: pick an operation, execute it, repeat.
// Operation failures are already recorded; the loop keeps the load
// coming for the remainder of the run.
func (r *Runner) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		op := r.scenario.Next()
		if err := op.Execute(ctx, r.client, r.collector); err != nil && ctx.Err() != nil {
			return
		}
	}
}

// Close releases client resources.
func (r *Runner) Close() {
	r.client.Close()
}
