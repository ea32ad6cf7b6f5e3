package metrics

import (
	"strings"
	"testing"
)

func TestRenderIncludesCountersAndHistogram(t *testing.T) {
	IncWrite()
	IncWriteFailed()
	ObserveWriteDurationMs(42)
	ObserveWriteDurationMs(-1)

	out := Render()
	for _, want := range []string{
		"# TYPE portfolio_writes_total counter",
		"# TYPE portfolio_write_failures_total counter",
		"portfolio_write_duration_ms_bucket{le=\"50\"}",
		"portfolio_write_duration_ms_bucket{le=\"+Inf\"}",
		"ai_credit_refused_total",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in metrics output:\n%s", want, out)
		}
	}
}

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{1, 10})
	h.Observe(0.5)
	h.Observe(5)
	h.Observe(50)

	snap := h.Snapshot()
	if snap.count != 3 {
		t.Fatalf("expected 3 observations, got %d", snap.count)
	}
	if snap.counts[0] != 1 || snap.counts[1] != 2 {
		t.Fatalf("unexpected bucket counts %v", snap.counts)
	}
}
