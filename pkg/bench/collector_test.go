package bench

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordAndSnapshot(t *testing.T) {
	c := NewCollector()

	c.Record(OpFiltered, 10*time.Millisecond, nil)
	c.Record(OpFiltered, 20*time.Millisecond, nil)
	c.Record(OpFiltered, 30*time.Millisecond, nil)
	c.Record(OpFiltered, 40*time.Millisecond, errors.New("boom"))

	m := c.Snapshot()
	assert.Equal(t, int64(4), m.TotalRequests)
	assert.Equal(t, int64(1), m.TotalErrors)
	assert.Equal(t, 75.0, m.SuccessRate)
	assert.Greater(t, m.Throughput, 0.0)
	assert.Equal(t, map[string]int64{"boom": 1}, m.ErrorsByType)

	assert.Equal(t, int64(10_000), m.Latency.Min)
	assert.Equal(t, int64(40_000), m.Latency.Max)
	assert.Equal(t, 25_000.0, m.Latency.Mean)
}

func TestCollector_Percentiles(t *testing.T) {
	c := NewCollector()
	for i := 1; i <= 100; i++ {
		c.Record(OpCursorWalk, time.Duration(i)*time.Millisecond, nil)
	}

	l := c.Snapshot().Latency
	assert.Equal(t, int64(1_000), l.Min)
	assert.Equal(t, int64(100_000), l.Max)
	assert.Equal(t, 50_500.0, l.Mean)
	assert.Equal(t, int64(51_000), l.Median)
	assert.Equal(t, int64(91_000), l.P90)
	assert.Equal(t, int64(96_000), l.P95)
	assert.Equal(t, int64(100_000), l.P99)
}

func TestCollector_OperationSnapshot(t *testing.T) {
	c := NewCollector()
	c.Record(OpOffsetWalk, 5*time.Millisecond, nil)
	c.Record(OpOffsetWalk, 15*time.Millisecond, nil)
	c.Record(OpSearch, 2*time.Millisecond, errors.New("boom"))

	perOp := c.OperationSnapshot()
	require.Len(t, perOp, 2)

	walk := perOp[OpOffsetWalk]
	require.NotNil(t, walk)
	assert.Equal(t, int64(2), walk.TotalRequests)
	assert.Equal(t, int64(0), walk.TotalErrors)
	assert.Equal(t, 100.0, walk.SuccessRate)
	assert.Equal(t, int64(5_000), walk.Latency.Min)
	assert.Equal(t, int64(15_000), walk.Latency.Max)

	search := perOp[OpSearch]
	require.NotNil(t, search)
	assert.Equal(t, int64(1), search.TotalRequests)
	assert.Equal(t, int64(1), search.TotalErrors)
	assert.Equal(t, 0.0, search.SuccessRate)
}

func TestCollector_Reset(t *testing.T) {
	c := NewCollector()
	c.Record(OpFiltered, time.Millisecond, errors.New("boom"))
	c.Reset()

	m := c.Snapshot()
	assert.Equal(t, int64(0), m.TotalRequests)
	assert.Equal(t, int64(0), m.TotalErrors)
	assert.Empty(t, m.ErrorsByType)
	assert.Equal(t, LatencyStats{}, m.Latency)
	assert.Empty(t, c.OperationSnapshot())
}

func TestCollector_ErrorBuckets(t *testing.T) {
	c := NewCollector()

	// HTTP failures bucket by status, other errors by message.
	c.Record(OpFiltered, time.Millisecond, &HTTPError{StatusCode: 404, Status: "404 Not Found", Body: `{"error":{}}`})
	c.Record(OpFiltered, time.Millisecond, &HTTPError{StatusCode: 404, Status: "404 Not Found", Body: `{"different":"body"}`})
	c.Record(OpFiltered, time.Millisecond, fmt.Errorf("request failed: %w", errors.New("connection refused")))

	m := c.Snapshot()
	assert.Equal(t, int64(2), m.ErrorsByType["404 Not Found"])
	assert.Equal(t, int64(1), m.ErrorsByType["request failed: connection refused"])
}

func TestFormatLatency(t *testing.T) {
	assert.Equal(t, "850µs", formatLatency(850))
	assert.Equal(t, "1.50ms", formatLatency(1_500))
	assert.Equal(t, "2.25s", formatLatency(2_250_000))
}
