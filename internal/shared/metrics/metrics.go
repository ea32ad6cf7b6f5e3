package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	writesTotal          atomic.Uint64
	writeFailuresTotal   atomic.Uint64
	remoteEventsTotal    atomic.Uint64
	migratedTotal        atomic.Uint64
	migrationFailedTotal atomic.Uint64
	assetAppliedTotal    atomic.Uint64
	assetFailedTotal     atomic.Uint64
	creditRefusedTotal   atomic.Uint64

	writeDuration = newHistogram([]float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000})
)

// IncWrite counts a committed document merge write.
func IncWrite() {
	writesTotal.Add(1)
}

// IncWriteFailed counts a rejected merge write.
func IncWriteFailed() {
	writeFailuresTotal.Add(1)
}

// IncRemoteEvent counts a subscription snapshot applied to an editor session.
func IncRemoteEvent() {
	remoteEventsTotal.Add(1)
}

// IncMigrated counts a guest document promoted to an account.
func IncMigrated() {
	migratedTotal.Add(1)
}

// IncMigrationFailed counts a guest document left behind for retry.
func IncMigrationFailed() {
	migrationFailedTotal.Add(1)
}

// IncAssetApplied counts an image reference written to a document field.
func IncAssetApplied() {
	assetAppliedTotal.Add(1)
}

// IncAssetFailed counts an upload or generation failure.
func IncAssetFailed() {
	assetFailedTotal.Add(1)
}

// IncCreditRefused counts AI requests refused for lack of credit.
func IncCreditRefused() {
	creditRefusedTotal.Add(1)
}

// ObserveWriteDurationMs records a merge write duration in milliseconds.
func ObserveWriteDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	writeDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "portfolio_writes_total", "Total document merge writes committed", writesTotal.Load())
	writeCounter(&buf, "portfolio_write_failures_total", "Total document merge writes rejected", writeFailuresTotal.Load())
	writeCounter(&buf, "portfolio_remote_events_total", "Total subscription snapshots applied", remoteEventsTotal.Load())
	writeCounter(&buf, "guest_migrations_total", "Total guest documents migrated", migratedTotal.Load())
	writeCounter(&buf, "guest_migration_failures_total", "Total guest documents that failed to migrate", migrationFailedTotal.Load())
	writeCounter(&buf, "asset_applied_total", "Total image references written to documents", assetAppliedTotal.Load())
	writeCounter(&buf, "asset_failed_total", "Total asset uploads or generations that failed", assetFailedTotal.Load())
	writeCounter(&buf, "ai_credit_refused_total", "Total AI requests refused for lack of credit", creditRefusedTotal.Load())
	writeHistogram(&buf, "portfolio_write_duration_ms", "Merge write duration in milliseconds", writeDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	// counts are already cumulative: Observe bumps every bucket whose bound fits.
	for i, bound := range snap.buckets {
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), snap.counts[i])
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// SinceMs returns the elapsed time since start in milliseconds.
func SinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
