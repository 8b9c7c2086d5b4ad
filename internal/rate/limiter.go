package rate

import (
	"context"
	"fmt"

	xrate "golang.org/x/time/rate"
)

// Limiter gates outbound API calls so we respect Gmail rate limits.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Bucket releases a fixed number of requests per second.
type Bucket struct {
	lim *xrate.Limiter
}

// New returns a limiter allowing rps requests per second, or nil when rps
// is not positive. Callers treat a nil Limiter as unlimited.
func New(rps int) Limiter {
	if rps <= 0 {
		return nil
	}
	return &Bucket{lim: xrate.NewLimiter(xrate.Limit(rps), 1)}
}

// Wait blocks until a request may proceed or the context is canceled.
func (b *Bucket) Wait(ctx context.Context) error {
	if err := b.lim.Wait(ctx); err != nil {
		return fmt.Errorf("rate wait canceled: %w", err)
	}
	return nil
}

var _ Limiter = (*Bucket)(nil)
