package bench

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// Collector aggregates request outcomes across all workers. Latencies
// are tracked in microseconds; against a local target the interesting
// tail sits well below one millisecond.
type Collector struct {
	mu        sync.Mutex
	startTime time.Time

	totalReqs  int64
	failedReqs int64

	latencies    []int64 // microseconds
	totalLatency int64

	errorsByType map[string]int64
	perOperation map[string]*opStats
}

type opStats struct {
	count        int64
	failed       int64
	totalLatency int64
	latencies    []int64
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		startTime:    time.Now(),
		latencies:    make([]int64, 0, 10000),
		errorsByType: make(map[string]int64),
		perOperation: make(map[string]*opStats),
	}
}

// Record records the outcome of a single request.
func (c *Collector) Record(op string, d time.Duration, err error) {
	us := d.Microseconds()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalReqs++
	if err != nil {
		c.failedReqs++
		c.errorsByType[errorClass(err)]++
	}

	c.latencies = append(c.latencies, us)
	c.totalLatency += us

	stats := c.perOperation[op]
	if stats == nil {
		stats = &opStats{latencies: make([]int64, 0, 1000)}
		c.perOperation[op] = stats
	}
	stats.count++
	if err != nil {
		stats.failed++
	}
	stats.totalLatency += us
	stats.latencies = append(stats.latencies, us)
}

// Reset discards all recorded outcomes and restarts the clock. Used to
// drop warmup samples before the measured run.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.startTime = time.Now()
	c.totalReqs = 0
	c.failedReqs = 0
	c.latencies = c.latencies[:0]
	c.totalLatency = 0
	c.errorsByType = make(map[string]int64)
	c.perOperation = make(map[string]*opStats)
}

// Metrics is an aggregated view of recorded outcomes.
type Metrics struct {
	TotalRequests int64
	TotalErrors   int64
	SuccessRate   float64 // percent
	Throughput    float64 // requests per second
	Latency       LatencyStats
	ErrorsByType  map[string]int64
}

// LatencyStats summarizes a latency distribution in microseconds.
type LatencyStats struct {
	Min    int64
	Max    int64
	Mean   float64
	Median int64
	P90    int64
	P95    int64
	P99    int64
}

// Snapshot returns a consistent copy of the aggregate metrics.
func (c *Collector) Snapshot() *Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := &Metrics{
		TotalRequests: c.totalReqs,
		TotalErrors:   c.failedReqs,
		ErrorsByType:  make(map[string]int64, len(c.errorsByType)),
	}
	for class, count := range c.errorsByType {
		m.ErrorsByType[class] = count
	}
	if c.totalReqs > 0 {
		m.SuccessRate = float64(c.totalReqs-c.failedReqs) / float64(c.totalReqs) * 100
	}
	if elapsed := time.Since(c.startTime).Seconds(); elapsed > 0 {
		m.Throughput = float64(c.totalReqs) / elapsed
	}
	m.Latency = buildLatencyStats(c.latencies, c.totalLatency)
	return m
}

// OperationSnapshot returns per-operation metrics keyed by type.
func (c *Collector) OperationSnapshot() map[string]*Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	elapsed := time.Since(c.startTime).Seconds()
	out := make(map[string]*Metrics, len(c.perOperation))
	for op, stats := range c.perOperation {
		m := &Metrics{
			TotalRequests: stats.count,
			TotalErrors:   stats.failed,
		}
		if stats.count > 0 {
			m.SuccessRate = float64(stats.count-stats.failed) / float64(stats.count) * 100
		}
		if elapsed > 0 {
			m.Throughput = float64(stats.count) / elapsed
		}
		m.Latency = buildLatencyStats(stats.latencies, stats.totalLatency)
		out[op] = m
	}
	return out
}

func buildLatencyStats(latencies []int64, total int64) LatencyStats {
	if len(latencies) == 0 {
		return LatencyStats{}
	}

	sorted := append([]int64(nil), latencies...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return LatencyStats{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   float64(total) / float64(len(latencies)),
		Median: percentile(sorted, 0.50),
		P90:    percentile(sorted, 0.90),
		P95:    percentile(sorted, 0.95),
		P99:    percentile(sorted, 0.99),
	}
}

func percentile(sorted []int64, q float64) int64 {
	idx := int(float64(len(sorted)) * q)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// errorClass folds an error into a stable bucket key. Raw error strings
// embed cursors and page numbers, which would give every failure its
// own bucket.
func errorClass(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	msg := err.Error()
	if len(msg) > 80 {
		msg = msg[:80]
	}
	return msg
}
