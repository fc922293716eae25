// Package txn runs units of work inside storage transactions with
// bounded retry on write conflicts.
//
// The retry loop is storage-agnostic: each backend supplies a Provider
// whose IsWriteConflict predicate recognizes its own optimistic
// concurrency collision, so the executor never inspects driver error
// codes itself. The active session travels through the call chain as an
// explicit context value, never as hidden mutable state.
package txn

import "context"

// Session is one open storage transaction. Implementations must
// tolerate Abort after a failed Commit and Close after either; the
// executor releases every session on every exit path.
type Session interface {
	// Context returns a derived context carrying this session. Store
	// methods called with it join the transaction.
	Context(ctx context.Context) context.Context
	Commit(ctx context.Context) error
	Abort(ctx context.Context) error
	Close(ctx context.Context)
}

// Provider opens sessions and classifies conflict errors for one
// storage backend.
type Provider interface {
	Begin(ctx context.Context) (Session, error)
	// IsWriteConflict reports whether err is the backend's concurrent
	// modification signature. Only such errors are retried.
	IsWriteConflict(err error) bool
}

type sessionKey struct{}

// NewContext returns a copy of ctx carrying the session.
func NewContext(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// FromContext returns the session carried by ctx, if any. Stores use it
// to decide whether an operation joins an open transaction.
func FromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(Session)
	return sess, ok
}
