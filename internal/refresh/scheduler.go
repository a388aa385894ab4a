package refresh

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"

	"github.com/example/bookingwatch/internal/bookings"
	"github.com/example/bookingwatch/internal/calendar"
	"github.com/example/bookingwatch/internal/log"
	"github.com/example/bookingwatch/internal/notify"
	"github.com/example/bookingwatch/internal/premierinn"
)

// Scheduler drives the refresh cycles for every configured booking. Each
// tick it reconciles its coordinators against the store, refreshes the
// bookings whose poll interval has elapsed, and syncs refreshed bookings
// into their calendar targets. A cron job sweeps out bookings whose stay
// has fully elapsed.
type Scheduler struct {
	Store    bookings.Store
	Fetcher  Fetcher
	Calendar calendar.Service
	Notifier notify.Notifier
	Loc      *time.Location

	Interval     time.Duration // tick granularity
	RefreshEvery time.Duration // per-booking poll interval

	mu      sync.Mutex
	entries map[string]*entry
	wg      sync.WaitGroup
}

type entry struct {
	coord       *Coordinator
	booking     bookings.Booking
	lastRefresh time.Time
	inFlight    bool
	// authNotified keeps the reconfiguration prompt to one message per
	// failure streak.
	authNotified bool
}

func (s *Scheduler) Run(ctx context.Context) error {
	if s.Notifier == nil {
		s.Notifier = notify.Nop{}
	}

	cr := cron.New()
	if _, err := cr.AddFunc("@every 1h", func() { s.sweep(ctx) }); err != nil {
		return err
	}
	cr.Start()
	defer cr.Stop()

	t := time.NewTicker(s.Interval)
	defer t.Stop()

	// kick immediately
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	bs, err := s.Store.List(ctx)
	if err != nil {
		log.Error("scheduler: list bookings failed", err)
		return
	}

	now := time.Now()
	var due []*entry

	s.mu.Lock()
	if s.entries == nil {
		s.entries = make(map[string]*entry)
	}
	seen := make(map[string]bool, len(bs))
	for _, b := range bs {
		seen[b.ResNo] = true
		e, ok := s.entries[b.ResNo]
		if !ok {
			resNo, arrival, lastName, country := b.Query()
			e = &entry{coord: NewCoordinator(s.Fetcher, premierinn.Query{
				ResNo:       resNo,
				ArrivalDate: arrival,
				LastName:    lastName,
				Country:     country,
			})}
			s.entries[b.ResNo] = e
			log.Info("watching booking", "res_no", b.ResNo)
		}
		// pick up calendar-target and dedup-set changes
		e.booking = b

		if !e.inFlight && now.Sub(e.lastRefresh) >= s.RefreshEvery {
			e.inFlight = true
			e.lastRefresh = now
			due = append(due, e)
		}
	}
	for resNo := range s.entries {
		if !seen[resNo] {
			delete(s.entries, resNo)
			log.Info("stopped watching booking", "res_no", resNo)
		}
	}
	s.mu.Unlock()

	for _, e := range due {
		e := e
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.refreshOne(ctx, e)
		}()
	}
}

func (s *Scheduler) refreshOne(ctx context.Context, e *entry) {
	defer func() {
		s.mu.Lock()
		e.inFlight = false
		s.mu.Unlock()
	}()

	s.mu.Lock()
	b := e.booking
	s.mu.Unlock()

	if err := e.coord.Refresh(ctx); err != nil {
		log.Error("refresh failed", err, "res_no", b.ResNo)
		if errors.Is(err, premierinn.ErrAuthentication) {
			s.mu.Lock()
			notified := e.authNotified
			e.authNotified = true
			s.mu.Unlock()
			if !notified {
				s.notify(ctx, "Booking "+b.ResNo+" could not be looked up; please re-enter its details.")
			}
		}
		return
	}

	s.mu.Lock()
	e.authNotified = false
	s.mu.Unlock()

	snap := e.coord.Data()

	// A stay that has fully elapsed takes its configuration with it.
	if checkout, err := snap.Record.CheckoutAt(s.Loc); err == nil && Expired(checkout, time.Now()) {
		log.Info("booking expired", "res_no", b.ResNo, "checkout", checkout.Format(time.RFC3339))
		if err := s.Store.Remove(ctx, b.ResNo); err != nil {
			log.Error("remove expired booking failed", err, "res_no", b.ResNo)
		}
		s.notify(ctx, "Booking "+b.ResNo+" has checked out and was removed.")
		return
	}

	s.syncCalendars(ctx, b, snap.Record)
}

// syncCalendars runs the idempotent upsert for each calendar target.
// Calendar failures are logged and isolated; they never fail the refresh.
func (s *Scheduler) syncCalendars(ctx context.Context, b bookings.Booking, rec *premierinn.Record) {
	if len(b.Calendars) == 0 {
		return
	}

	ev, err := calendar.FromRecord(rec, s.Loc)
	if err != nil {
		log.Error("derive calendar event failed", err, "res_no", b.ResNo)
		return
	}

	have := b.EventUIDs
	for _, target := range b.Calendars {
		resolved := ResolveTarget(target, b.ResNo)
		res, err := calendar.Sync(ctx, s.Calendar, resolved, ev, have)
		if err != nil {
			log.Error("calendar sync failed", err, "res_no", b.ResNo, "target", resolved)
			continue
		}
		if res.Created {
			log.Info("calendar event created", "res_no", b.ResNo, "target", resolved)
		}
		if res.UID != "" {
			if err := s.Store.AppendEventUID(ctx, b.ResNo, res.UID); err != nil {
				log.Error("record event uid failed", err, "res_no", b.ResNo)
				continue
			}
			have = append(have, res.UID)
		}
	}
}

// sweep removes bookings whose last known checkout has passed. It covers
// the case where refreshes keep failing after the stay ended and the
// per-refresh expiry check no longer runs.
func (s *Scheduler) sweep(ctx context.Context) {
	now := time.Now()

	s.mu.Lock()
	type expired struct{ resNo string }
	var gone []expired
	for resNo, e := range s.entries {
		snap := e.coord.Data()
		if snap == nil {
			continue
		}
		if checkout, err := snap.Record.CheckoutAt(s.Loc); err == nil && Expired(checkout, now) {
			gone = append(gone, expired{resNo: resNo})
		}
	}
	s.mu.Unlock()

	for _, g := range gone {
		log.Info("sweep: removing expired booking", "res_no", g.resNo)
		if err := s.Store.Remove(ctx, g.resNo); err != nil {
			log.Error("sweep: remove failed", err, "res_no", g.resNo)
		}
	}
}

func (s *Scheduler) notify(ctx context.Context, msg string) {
	if err := s.Notifier.Notify(ctx, msg); err != nil {
		log.Error("notify failed", err)
	}
}

// ResolveTarget maps the "None" sentinel ("create a new calendar") to the
// booking's own calendar name.
func ResolveTarget(target, resNo string) string {
	if target == "None" {
		return "premierinn-" + strings.ToLower(resNo)
	}
	return target
}

// State is the read-only view of one watched booking for the web layer.
type State struct {
	Booking     bookings.Booking
	Snapshot    *Snapshot
	Err         error
	LastRefresh time.Time
}

func (s *Scheduler) States() []State {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]State, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, State{
			Booking:     e.booking,
			Snapshot:    e.coord.Data(),
			Err:         e.coord.LastErr(),
			LastRefresh: e.lastRefresh,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Booking.ResNo < out[j].Booking.ResNo })
	return out
}

func (s *Scheduler) State(resNo string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[resNo]
	if !ok {
		return State{}, false
	}
	return State{
		Booking:     e.booking,
		Snapshot:    e.coord.Data(),
		Err:         e.coord.LastErr(),
		LastRefresh: e.lastRefresh,
	}, true
}
