package sessiongate

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledIsInert(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricAdmitAllowed)
	m.Observe(MetricAttemptLatency, time.Millisecond)

	if m.Value(MetricAdmitAllowed) != 0 {
		t.Fatal("disabled metrics must not count")
	}
	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("disabled snapshot must be empty, got %+v", snap)
	}
}

func TestMetricsCountersConcurrent(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 8
	const perGoroutine = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				m.Inc(MetricAdmitAllowed)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricAdmitAllowed); got != goroutines*perGoroutine {
		t.Fatalf("expected %d, got %d", goroutines*perGoroutine, got)
	}
}

func TestMetricsLatencyBuckets(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	m.Observe(MetricAttemptLatency, 2*time.Millisecond)
	m.Observe(MetricAttemptLatency, 20*time.Millisecond)
	m.Observe(MetricAttemptLatency, 30*time.Millisecond)
	m.Observe(MetricAttemptLatency, time.Second)

	snap := m.Snapshot()
	buckets, ok := snap.Histograms[MetricAttemptLatency]
	if !ok {
		t.Fatal("expected latency histogram in snapshot")
	}
	if buckets[0] != 1 {
		t.Fatalf("expected one sample in the 5ms bucket, got %d", buckets[0])
	}
	if buckets[2] != 1 {
		t.Fatalf("expected one sample in the 25ms bucket, got %d", buckets[2])
	}
	// 30ms is past the 25ms boundary and belongs to the 50ms bucket.
	if buckets[3] != 1 {
		t.Fatalf("expected one sample in the 50ms bucket, got %d", buckets[3])
	}
	if buckets[7] != 1 {
		t.Fatalf("expected one sample in the overflow bucket, got %d", buckets[7])
	}
}

func TestMetricsObserveIgnoresNonHistogramIDs(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	m.Observe(MetricAdmitAllowed, time.Millisecond)

	snap := m.Snapshot()
	if len(snap.Histograms[MetricAttemptLatency]) != histBucketCount {
		t.Fatal("expected histogram slot for the latency metric only")
	}
	for _, v := range snap.Histograms[MetricAttemptLatency] {
		if v != 0 {
			t.Fatalf("counter-ID observation must not land anywhere, got %v", snap.Histograms)
		}
	}
}

func TestBucketIndexBoundaries(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want int
	}{
		{0, 0},
		{5 * time.Millisecond, 0},
		{6 * time.Millisecond, 1},
		{10 * time.Millisecond, 1},
		{25 * time.Millisecond, 2},
		{50 * time.Millisecond, 3},
		{100 * time.Millisecond, 4},
		{250 * time.Millisecond, 5},
		{500 * time.Millisecond, 6},
		{501 * time.Millisecond, 7},
		{time.Minute, 7},
	}

	for _, tc := range cases {
		if got := bucketIndex(tc.d); got != tc.want {
			t.Fatalf("bucketIndex(%v) = %d, want %d", tc.d, got, tc.want)
		}
	}
}
