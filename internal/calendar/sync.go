package calendar

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

// Service is the calendar collaborator the sync adapter writes into.
type Service interface {
	// Events lists events on target. Zero from/to mean an unbounded window.
	Events(ctx context.Context, target string, from, to time.Time) ([]Event, error)
	// CreateEvent adds ev to target. wantResponse asks the backend to
	// confirm the created event in its reply; a backend that cannot honor
	// that must fail with ErrUnsupportedResponse so the caller can retry
	// without it.
	CreateEvent(ctx context.Context, target string, ev Event, wantResponse bool) error
}

// ErrUnsupportedResponse reports a create-event call that failed only
// because the backend cannot return the created event.
var ErrUnsupportedResponse = errors.New("calendar: backend cannot confirm created event")

// Result reports what Sync did. UID is non-empty when an identifier should
// be recorded in the dedup set; Created is true when an event was written.
type Result struct {
	UID     string
	Created bool
}

// Sync ensures exactly one event for ev exists on target. have is the dedup
// set of identifiers already recorded for this booking.
//
// Invoked twice with the same event and an up-to-date dedup set it creates
// at most one event. On any read or create failure the dedup set is left
// for the caller to retry on a later refresh.
func Sync(ctx context.Context, svc Service, target string, ev Event, have []string) (Result, error) {
	// An event matching on (summary, description, location) already on the
	// calendar means ours was created earlier; just report its id.
	uid, err := findEventUID(ctx, svc, target, ev)
	if err != nil {
		return Result{}, errors.Wrap(err, "lookup before create")
	}
	if uid != "" {
		return Result{UID: uid}, nil
	}

	// The remote lookup can miss a recent create (eventual consistency);
	// the recorded dedup set is authoritative.
	if contains(have, Identifier(target, ev)) {
		return Result{}, nil
	}

	if err := svc.CreateEvent(ctx, target, ev, true); err != nil {
		if !errors.Is(err, ErrUnsupportedResponse) {
			return Result{}, errors.Wrap(err, "create event")
		}
		if err := svc.CreateEvent(ctx, target, ev, false); err != nil {
			return Result{}, errors.Wrap(err, "create event without response")
		}
	}

	uid, err = findEventUID(ctx, svc, target, ev)
	if err != nil {
		return Result{Created: true}, errors.Wrap(err, "lookup after create")
	}
	if uid != "" && !contains(have, uid) {
		return Result{UID: uid, Created: true}, nil
	}
	return Result{Created: true}, nil
}

func findEventUID(ctx context.Context, svc Service, target string, ev Event) (string, error) {
	existing, err := svc.Events(ctx, target, time.Time{}, time.Time{})
	if err != nil {
		return "", err
	}
	for _, e := range existing {
		if e.Summary == ev.Summary && e.Description == ev.Description && e.Location == ev.Location {
			return Identifier(target, ev), nil
		}
	}
	return "", nil
}

func contains(have []string, uid string) bool {
	for _, h := range have {
		if h == uid {
			return true
		}
	}
	return false
}
