// Package driven defines the outbound ports of the fetch pipeline. The
// pipeline depends only on these interfaces, never on which session
// variant (browser or Graph API) sits behind them.
package driven

import (
	"context"

	"github.com/custodia-labs/outcal/internal/core/domain"
)

// Session is an authenticated handle onto the calendar provider. The
// underlying transport (browser page or access token) is guaranteed to
// remain valid long enough to complete one extraction.
type Session interface {
	// FetchEvents returns the events whose start time falls within the
	// window, sorted ascending by start time.
	FetchEvents(ctx context.Context, window domain.Window) (domain.EventBatch, error)

	// Close releases the session transport. Safe to call once after a
	// run, regardless of whether extraction succeeded.
	Close(ctx context.Context) error
}

// Authenticator establishes an authenticated session for a target
// profile. Implementations block on interactive steps (password entry,
// two-factor approval) with a bounded timeout; on timeout the run fails
// rather than retrying.
type Authenticator interface {
	Authenticate(ctx context.Context, profile domain.TargetProfile) (Session, error)
}

// Sink receives one formatted document. The document stays available to
// the caller even if delivery fails.
type Sink interface {
	Deliver(ctx context.Context, payload []byte) error
}
