package sessiongate

import "context"

// BypassFunc exempts a principal from limit enforcement for one attempt.
// Multiple registered funcs are OR-combined in registration order with
// short-circuit on the first true.
type BypassFunc func(ctx context.Context, principal string) bool

// ReachedFunc transforms the limit-reached verdict before the policy is
// evaluated. Multiple registered funcs are chained in registration order,
// each receiving the previous result.
type ReachedFunc func(reached bool, principal string, count int) bool

func combineBypass(funcs []BypassFunc) func(context.Context, string) bool {
	if len(funcs) == 0 {
		return nil
	}
	return func(ctx context.Context, principal string) bool {
		for _, fn := range funcs {
			if fn != nil && fn(ctx, principal) {
				return true
			}
		}
		return false
	}
}

func chainReached(funcs []ReachedFunc) func(bool, string, int) bool {
	if len(funcs) == 0 {
		return nil
	}
	return func(reached bool, principal string, count int) bool {
		for _, fn := range funcs {
			if fn != nil {
				reached = fn(reached, principal, count)
			}
		}
		return reached
	}
}
