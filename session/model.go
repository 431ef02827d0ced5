package session

// Session is one admitted login for a principal.
//
// Sessions are created only through [Store.Create] on the engine's admit
// path. The only field mutated after creation is LastActivityAt, which is
// monotonically non-decreasing. Timestamps are unix seconds; ExpiresAt of
// zero means the session never expires.
type Session struct {
	SessionID string
	Principal string

	CreatedAt      int64
	LastActivityAt int64
	ExpiresAt      int64
}

// Expired reports whether the session is past its expiry at nowUnix.
func (s *Session) Expired(nowUnix int64) bool {
	return s.ExpiresAt > 0 && nowUnix > s.ExpiresAt
}

// clone returns an independent copy so stores never hand out aliased records.
func (s *Session) clone() *Session {
	c := *s
	return &c
}
