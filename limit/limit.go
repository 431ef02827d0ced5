package limit

// Strategy selects the conflict-resolution behavior applied when a
// principal's session limit is reached.
type Strategy int

const (
	// StrategyEvictOldest admits the new login and destroys every other
	// session the principal holds. Eviction is total, not trimmed to
	// maximum-1: once the limit is hit the principal collapses to the
	// single new session.
	StrategyEvictOldest Strategy = iota
	// StrategyBlock rejects the new login outright.
	StrategyBlock
	// StrategySemiBlock rejects the new login unless a one-time override
	// credential accompanies the attempt.
	StrategySemiBlock
)

// String returns the configuration-facing name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyEvictOldest:
		return "evict_oldest"
	case StrategyBlock:
		return "block"
	case StrategySemiBlock:
		return "semi_block"
	default:
		return "unknown"
	}
}

// Valid reports whether the strategy is one of the three defined values.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyEvictOldest, StrategyBlock, StrategySemiBlock:
		return true
	}
	return false
}

// Decision is the evaluator's verdict for one admission attempt.
type Decision int

const (
	// Admit lets the new session in with no eviction.
	Admit Decision = iota
	// AdmitAndEvictOthers lets the new session in and destroys all other
	// sessions for the principal.
	AdmitAndEvictOthers
	// Reject refuses the new session; no store mutation follows.
	Reject
)

// String returns the audit-facing name of the decision.
func (d Decision) String() string {
	switch d {
	case Admit:
		return "admit"
	case AdmitAndEvictOthers:
		return "admit_evict_others"
	case Reject:
		return "reject"
	default:
		return "unknown"
	}
}

// Reached reports whether a principal holding count sessions is at or over
// the configured maximum.
func Reached(count, maximum int) bool {
	return count >= maximum
}

// Decide evaluates one admission attempt.
//
// Rule order: a bypassed principal is always admitted with no eviction,
// regardless of count. An attempt below the limit is admitted. At or over
// the limit, the strategy decides: EvictOldest admits and evicts all
// others, Block rejects, SemiBlock rejects unless overridePresent is true,
// in which case the session is admitted without eviction.
//
// The reached determination is an input rather than derived from a count
// so that the Engine can run registered reached-transformers first.
func Decide(reached bool, strategy Strategy, bypassed, overridePresent bool) Decision {
	if bypassed {
		return Admit
	}

	if !reached {
		return Admit
	}

	switch strategy {
	case StrategyEvictOldest:
		return AdmitAndEvictOthers
	case StrategySemiBlock:
		if overridePresent {
			return Admit
		}
		return Reject
	default:
		return Reject
	}
}
