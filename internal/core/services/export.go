package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/outcal/internal/core/domain"
	"github.com/custodia-labs/outcal/internal/core/ports/driven"
	"github.com/custodia-labs/outcal/internal/format"
	"github.com/custodia-labs/outcal/internal/logger"
)

// Exporter runs the end-to-end calendar export for one target:
// authenticate, fetch the upcoming window, render, deliver. Each stage
// failure is terminal; nothing is retried.
type Exporter struct {
	auth driven.Authenticator
	sink driven.Sink

	kind format.Kind
	days int

	// now is swappable for tests.
	now func() time.Time
}

// NewExporter creates an Exporter. days <= 0 selects the default
// 14-day horizon.
func NewExporter(auth driven.Authenticator, sink driven.Sink, kind format.Kind, days int) *Exporter {
	if days <= 0 {
		days = domain.DefaultHorizonDays
	}
	return &Exporter{
		auth: auth,
		sink: sink,
		kind: kind,
		days: days,
		now:  time.Now,
	}
}

// Run executes the export pipeline for the given target profile.
func (e *Exporter) Run(ctx context.Context, profile domain.TargetProfile) error {
	window := domain.NewWindow(e.now(), e.days)
	logger.Info("fetching events for %s (%d days)", profile.Name, e.days)

	session, err := e.auth.Authenticate(ctx, profile)
	if err != nil {
		return fmt.Errorf("authenticate %s: %w", profile.Name, err)
	}
	defer func() {
		if cerr := session.Close(context.Background()); cerr != nil {
			logger.Warn("close session: %v", cerr)
		}
	}()

	batch, err := session.FetchEvents(ctx, window)
	if err != nil {
		return fmt.Errorf("fetch events: %w", err)
	}
	logger.Info("fetched %d upcoming events", len(batch))

	doc, err := format.Render(batch, e.kind)
	if err != nil {
		return err
	}

	if err := e.sink.Deliver(ctx, []byte(doc)); err != nil {
		return fmt.Errorf("deliver output: %w", err)
	}
	return nil
}
