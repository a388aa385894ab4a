package refresh

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/bookingwatch/internal/premierinn"
)

func TestCoordinatorRetainsLastGoodSnapshot(t *testing.T) {
	rec := stayRecord(t, time.UTC, time.Now().Add(48*time.Hour))
	f := &fakeFetcher{rec: rec}
	c := NewCoordinator(f, premierinn.Query{ResNo: "ABCD1234"})

	require.NoError(t, c.Refresh(context.Background()))
	first := c.Data()
	require.NotNil(t, first)
	assert.Same(t, rec, first.Record)
	assert.NoError(t, c.LastErr())

	f.mu.Lock()
	f.err = premierinn.ErrUnknown
	f.mu.Unlock()
	require.Error(t, c.Refresh(context.Background()))

	// failed refresh keeps the previous data visible
	assert.Same(t, first, c.Data())
	assert.ErrorIs(t, c.LastErr(), premierinn.ErrUnknown)

	f.mu.Lock()
	f.err = nil
	f.mu.Unlock()
	require.NoError(t, c.Refresh(context.Background()))
	assert.NoError(t, c.LastErr())
	assert.NotSame(t, first, c.Data())
}

func TestCoordinatorNoDataBeforeFirstSuccess(t *testing.T) {
	f := &fakeFetcher{err: premierinn.ErrAuthentication}
	c := NewCoordinator(f, premierinn.Query{ResNo: "ABCD1234"})

	require.Error(t, c.Refresh(context.Background()))
	assert.Nil(t, c.Data())
	assert.ErrorIs(t, c.LastErr(), premierinn.ErrAuthentication)
}

func TestExpired(t *testing.T) {
	now := time.Date(2025, 3, 3, 11, 0, 0, 0, time.UTC)

	assert.True(t, Expired(now, now), "checkout equal to now counts as expired")
	assert.True(t, Expired(now.Add(-time.Second), now))
	assert.False(t, Expired(now.Add(time.Second), now))
}
