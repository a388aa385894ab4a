package calendar_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/bookingwatch/internal/calendar"
)

func TestFileCalendarRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fc := calendar.NewFileCalendar(dir)
	ctx := context.Background()
	ev := sampleEvent()

	// empty target: no file, no events
	events, err := fc.Events(ctx, "family", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, events)

	// the file backend cannot confirm creations
	err = fc.CreateEvent(ctx, "family", ev, true)
	assert.ErrorIs(t, err, calendar.ErrUnsupportedResponse)

	require.NoError(t, fc.CreateEvent(ctx, "family", ev, false))

	events, err = fc.Events(ctx, "family", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ev.Summary, events[0].Summary)
	assert.Equal(t, ev.Description, events[0].Description)
	assert.Equal(t, ev.Location, events[0].Location)

	// appending keeps existing events
	ev2 := sampleEvent()
	ev2.Summary = "Premier Inn: Twin Room"
	require.NoError(t, fc.CreateEvent(ctx, "family", ev2, false))
	events, err = fc.Events(ctx, "family", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestFileCalendarSyncIdempotent(t *testing.T) {
	fc := calendar.NewFileCalendar(t.TempDir())
	ctx := context.Background()
	ev := sampleEvent()

	res, err := calendar.Sync(ctx, fc, "family", ev, nil)
	require.NoError(t, err)
	assert.True(t, res.Created)
	require.NotEmpty(t, res.UID)

	res2, err := calendar.Sync(ctx, fc, "family", ev, []string{res.UID})
	require.NoError(t, err)
	assert.False(t, res2.Created)

	events, err := fc.Events(ctx, "family", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestFileCalendarTargetSanitized(t *testing.T) {
	dir := t.TempDir()
	fc := calendar.NewFileCalendar(dir)

	require.NoError(t, fc.CreateEvent(context.Background(), "calendar.Family Trips", sampleEvent(), false))

	_, err := os.Stat(filepath.Join(dir, "calendar-family-trips.ics"))
	assert.NoError(t, err)
}
