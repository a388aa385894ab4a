package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/example/bookingwatch/internal/premierinn"
)

// Fetcher is the upstream chain the coordinator polls.
type Fetcher interface {
	FetchBooking(ctx context.Context, q premierinn.Query) (*premierinn.Record, error)
}

// Snapshot is one complete fetch result. Snapshots are replaced wholesale;
// consumers never see a partially updated record.
type Snapshot struct {
	Record    *premierinn.Record
	FetchedAt time.Time
}

// Coordinator owns the refresh cycle for a single booking: it runs the
// fetch chain and keeps the last good snapshot across failed refreshes.
type Coordinator struct {
	fetcher Fetcher
	query   premierinn.Query

	mu       sync.Mutex
	snapshot *Snapshot
	lastErr  error
}

func NewCoordinator(f Fetcher, q premierinn.Query) *Coordinator {
	return &Coordinator{fetcher: f, query: q}
}

// Refresh runs one fetch cycle. On success the snapshot is replaced; on
// failure the previous snapshot is retained and the error recorded.
func (c *Coordinator) Refresh(ctx context.Context) error {
	rec, err := c.fetcher.FetchBooking(ctx, c.query)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.lastErr = err
		return err
	}
	c.snapshot = &Snapshot{Record: rec, FetchedAt: time.Now()}
	c.lastErr = nil
	return nil
}

// Data returns the last good snapshot, or nil if no refresh has succeeded.
func (c *Coordinator) Data() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// LastErr returns the error of the most recent refresh, nil after a
// successful one.
func (c *Coordinator) LastErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Expired reports whether a checkout instant has passed. The boundary is
// inclusive: a stay whose checkout equals now is expired.
func Expired(checkout, now time.Time) bool {
	return !checkout.After(now)
}
