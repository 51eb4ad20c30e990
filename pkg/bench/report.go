package bench

import (
	"fmt"
	"io"
	"sort"
	"time"
)

// ConsoleReporter renders progress lines and the final summary table.
type ConsoleReporter struct {
	w     io.Writer
	color bool
}

// NewConsoleReporter creates a reporter writing to w.
func NewConsoleReporter(w io.Writer, color bool) *ConsoleReporter {
	return &ConsoleReporter{w: w, color: color}
}

// ReportProgress renders one in-place progress line.
func (r *ConsoleReporter) ReportProgress(elapsed time.Duration, m *Metrics) {
	fmt.Fprintf(r.w, "\r[%3ds] %8d requests  %8.1f req/s  %5.1f%% ok  p95 %s   ",
		int(elapsed.Seconds()),
		m.TotalRequests,
		m.Throughput,
		m.SuccessRate,
		formatLatency(m.Latency.P95),
	)
}

// ReportSummary renders the final run report.
func (r *ConsoleReporter) ReportSummary(res *Result) error {
	s := res.Summary

	fmt.Fprintln(r.w)
	r.heading("=== %s ===", res.Name)
	fmt.Fprintf(r.w, "Duration:     %s\n", res.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(r.w, "Requests:     %d (%.1f req/s)\n", s.TotalRequests, s.Throughput)
	fmt.Fprintf(r.w, "Success rate: %.2f%%\n", s.SuccessRate)
	fmt.Fprintln(r.w)

	r.heading("Latency")
	r.latencyHeader()
	r.latencyRow("all", s.Latency, s.TotalRequests)

	ops := make([]string, 0, len(res.PerOperation))
	for op := range res.PerOperation {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	for _, op := range ops {
		r.latencyRow(op, res.PerOperation[op].Latency, res.PerOperation[op].TotalRequests)
	}

	if len(s.ErrorsByType) > 0 {
		fmt.Fprintln(r.w)
		r.heading("Errors")
		classes := make([]string, 0, len(s.ErrorsByType))
		for class := range s.ErrorsByType {
			classes = append(classes, class)
		}
		sort.Strings(classes)
		for _, class := range classes {
			fmt.Fprintf(r.w, "  %6d  %s\n", s.ErrorsByType[class], class)
		}
	}

	return nil
}

func (r *ConsoleReporter) heading(format string, args ...interface{}) {
	if r.color {
		fmt.Fprintf(r.w, "\x1b[1m"+format+"\x1b[0m\n", args...)
		return
	}
	fmt.Fprintf(r.w, format+"\n", args...)
}

func (r *ConsoleReporter) latencyHeader() {
	fmt.Fprintf(r.w, "  %-12s %9s %9s %9s %9s %9s %9s %9s %9s\n",
		"operation", "count", "min", "mean", "p50", "p90", "p95", "p99", "max")
}

func (r *ConsoleReporter) latencyRow(name string, l LatencyStats, count int64) {
	fmt.Fprintf(r.w, "  %-12s %9d %9s %9s %9s %9s %9s %9s %9s\n",
		name,
		count,
		formatLatency(l.Min),
		formatLatency(int64(l.Mean)),
		formatLatency(l.Median),
		formatLatency(l.P90),
		formatLatency(l.P95),
		formatLatency(l.P99),
		formatLatency(l.Max),
	)
}

// formatLatency renders microseconds in the most readable unit.
func formatLatency(us int64) string {
	switch {
	case us >= 1_000_000:
		return fmt.Sprintf("%.2fs", float64(us)/1_000_000)
	case us >= 1_000:
		return fmt.Sprintf("%.2fms", float64(us)/1_000)
	default:
		return fmt.Sprintf("%dµs", us)
	}
}
