package explorer

import (
	"context"
	"time"

	"github.com/terrascout/terrascout/internal/constants"
)

// Pacer decides how long to wait before requesting the next page of a query.
type Pacer interface {
	// Pause blocks before the next page request. totalPages is the page count
	// reported by the page just received.
	Pause(ctx context.Context, totalPages int) error
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// PagePacer inserts a fixed pause between pages once a query is large enough
// to risk hitting the API request ceiling. It keeps no state between calls.
//
// The pause is (1000 / Ceiling + Buffer) milliseconds: one ceiling-th of a
// second plus a safety margin. With the defaults that is about 40.3ms.
type PagePacer struct {
	// Ceiling is the request ceiling per window. Queries with fewer total
	// pages are never paused.
	Ceiling int
	// Buffer is the safety margin in milliseconds.
	Buffer int
	// Sleep is called to wait. Defaults to a context-aware timer.
	Sleep SleepFunc
}

// DefaultPacer returns a PagePacer with the API's documented ceiling.
func DefaultPacer() *PagePacer {
	return &PagePacer{
		Ceiling: constants.RateLimit,
		Buffer:  constants.RateBuffer,
		Sleep:   Sleep,
	}
}

// Delay returns the pause inserted before the next page for a query with
// totalPages pages, or 0 when no pause is needed.
func (p *PagePacer) Delay(totalPages int) time.Duration {
	if p.Ceiling <= 0 || totalPages < p.Ceiling {
		return 0
	}

	ms := 1000.0/float64(p.Ceiling) + float64(p.Buffer)

	return time.Duration(ms * float64(time.Millisecond))
}

// Pause implements Pacer.
func (p *PagePacer) Pause(ctx context.Context, totalPages int) error {
	delay := p.Delay(totalPages)
	if delay == 0 {
		return nil
	}

	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	return sleep(ctx, delay)
}

// Sleep waits for d, returning early with ctx.Err() if ctx is cancelled.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoPacer never pauses.
type NoPacer struct{}

// Pause implements Pacer.
func (NoPacer) Pause(context.Context, int) error { return nil }
