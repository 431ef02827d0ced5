package internaldefs

import (
	sessiongate "github.com/sessiongate/sessiongate"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   sessiongate.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for export.
type HistogramDef struct {
	ID   sessiongate.MetricID
	Name string
	Help string
}

// CounterDefs is the exported counter set, shared by all exporters.
var CounterDefs = []CounterDef{
	{ID: sessiongate.MetricAdmitAllowed, Name: "sessiongate_admit_allowed_total", Help: "Login attempts admitted under the session limit."},
	{ID: sessiongate.MetricAdmitRejected, Name: "sessiongate_admit_rejected_total", Help: "Login attempts rejected at the session limit."},
	{ID: sessiongate.MetricAdmitEvicted, Name: "sessiongate_admit_evicted_total", Help: "Admissions that displaced the principal's other sessions."},
	{ID: sessiongate.MetricAdmitBypassed, Name: "sessiongate_admit_bypassed_total", Help: "Admissions granted by a bypass hook."},
	{ID: sessiongate.MetricOverrideIssued, Name: "sessiongate_override_issued_total", Help: "One-time override tokens issued on rejection."},
	{ID: sessiongate.MetricOverrideRedeemed, Name: "sessiongate_override_redeemed_total", Help: "Override tokens successfully redeemed."},
	{ID: sessiongate.MetricSessionCreated, Name: "sessiongate_session_created_total", Help: "Sessions written to the store."},
	{ID: sessiongate.MetricSessionRevoked, Name: "sessiongate_session_revoked_total", Help: "Single-session revocations."},
	{ID: sessiongate.MetricRevokeAll, Name: "sessiongate_revoke_all_total", Help: "Bulk revocations for a principal."},
	{ID: sessiongate.MetricStoreFailure, Name: "sessiongate_store_failure_total", Help: "Session store errors surfaced to callers."},
}

// AttemptLatency is the engine's only histogram, the AttemptLogin latency.
var AttemptLatency = HistogramDef{
	ID:   sessiongate.MetricAttemptLatency,
	Name: "sessiongate_attempt_latency_seconds",
	Help: "AttemptLogin latency histogram.",
}

// HistogramDefs is the exported histogram set, shared by all exporters.
var HistogramDefs = []HistogramDef{AttemptLatency}

// BucketCount is the engine's fixed histogram bucket count, including the
// overflow bucket.
const BucketCount = 8

// HistogramBounds are the Prometheus le labels for the engine's fixed
// bucket layout.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix are instrument-name-safe forms of HistogramBounds.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to the cumulative form
// Prometheus histograms use.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
