// Package override issues and redeems the one-time opt-in credentials that
// let a caller pass a SemiBlock rejection on retry.
//
// Tokens are short-lived HS256 JWTs bound to a single principal. Each token
// carries a unique jti that is burned on first redemption (in Redis when a
// client is supplied, otherwise in process) so a token can never be
// replayed across retries.
//
// # Architecture boundaries
//
// This package owns override credential mechanics only. It does NOT decide
// when an override is consulted; the Engine redeems a token only when the
// SemiBlock strategy has reached the limit.
//
// # What this package must NOT do
//
//   - Import sessiongate or session (no upward imports).
//   - Manage cookies or any transport state.
package override
