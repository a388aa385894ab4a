package calendar_test

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/bookingwatch/internal/calendar"
)

// fakeService is an in-memory calendar with switches for the failure modes
// the adapter has to survive.
type fakeService struct {
	events      map[string][]calendar.Event
	createCalls int

	rejectResponse bool // CreateEvent(wantResponse=true) fails like a backend without replies
	dropWrites     bool // CreateEvent succeeds but events never become visible
	failCreate     error
	failEvents     error
}

func newFakeService() *fakeService {
	return &fakeService{events: map[string][]calendar.Event{}}
}

func (f *fakeService) Events(_ context.Context, target string, _, _ time.Time) ([]calendar.Event, error) {
	if f.failEvents != nil {
		return nil, f.failEvents
	}
	return f.events[target], nil
}

func (f *fakeService) CreateEvent(_ context.Context, target string, ev calendar.Event, wantResponse bool) error {
	if wantResponse && f.rejectResponse {
		return calendar.ErrUnsupportedResponse
	}
	if f.failCreate != nil {
		return f.failCreate
	}
	f.createCalls++
	if !f.dropWrites {
		f.events[target] = append(f.events[target], ev)
	}
	return nil
}

func TestSyncCreatesOnce(t *testing.T) {
	svc := newFakeService()
	ev := sampleEvent()

	res, err := calendar.Sync(context.Background(), svc, "family", ev, nil)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, calendar.Identifier("family", ev), res.UID)
	assert.Equal(t, 1, svc.createCalls)

	// Second invocation with the updated dedup set is a no-op.
	res2, err := calendar.Sync(context.Background(), svc, "family", ev, []string{res.UID})
	require.NoError(t, err)
	assert.False(t, res2.Created)
	assert.Equal(t, 1, svc.createCalls)
	assert.Len(t, svc.events["family"], 1)
}

func TestSyncRemoteMatchWithoutDedupEntry(t *testing.T) {
	// The event exists remotely but the dedup set was lost; Sync reports
	// the identifier without creating anything.
	svc := newFakeService()
	ev := sampleEvent()
	svc.events["family"] = []calendar.Event{ev}

	res, err := calendar.Sync(context.Background(), svc, "family", ev, nil)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, calendar.Identifier("family", ev), res.UID)
	assert.Equal(t, 0, svc.createCalls)
}

func TestSyncDedupSetCoversInvisibleWrites(t *testing.T) {
	// The backend acknowledged a create but its event list lags behind;
	// the recorded identifier must prevent a second create.
	svc := newFakeService()
	svc.dropWrites = true
	ev := sampleEvent()

	res, err := calendar.Sync(context.Background(), svc, "family", ev, nil)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Empty(t, res.UID) // nothing visible to confirm

	uid := calendar.Identifier("family", ev)
	res2, err := calendar.Sync(context.Background(), svc, "family", ev, []string{uid})
	require.NoError(t, err)
	assert.False(t, res2.Created)
	assert.Equal(t, 1, svc.createCalls)
}

func TestSyncFallsBackWithoutResponse(t *testing.T) {
	svc := newFakeService()
	svc.rejectResponse = true
	ev := sampleEvent()

	res, err := calendar.Sync(context.Background(), svc, "family", ev, nil)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, 1, svc.createCalls)
	assert.Len(t, svc.events["family"], 1)
}

func TestSyncCreateFailureLeavesDedupUntouched(t *testing.T) {
	svc := newFakeService()
	svc.failCreate = errors.New("calendar unavailable")
	ev := sampleEvent()

	res, err := calendar.Sync(context.Background(), svc, "family", ev, nil)
	assert.Error(t, err)
	assert.Empty(t, res.UID)
	assert.False(t, res.Created)
}

func TestSyncLookupFailure(t *testing.T) {
	svc := newFakeService()
	svc.failEvents = errors.New("calendar unavailable")

	_, err := calendar.Sync(context.Background(), svc, "family", sampleEvent(), nil)
	assert.Error(t, err)
	assert.Equal(t, 0, svc.createCalls)
}
