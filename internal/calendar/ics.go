package calendar

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/cockroachdb/errors"
)

// FileCalendar keeps one ICS file per target calendar under a base
// directory. It is the default sync backend: anything that subscribes to
// the file (or the directory is served) sees the booking events.
type FileCalendar struct {
	dir string
}

func NewFileCalendar(dir string) *FileCalendar {
	return &FileCalendar{dir: dir}
}

func (f *FileCalendar) Events(_ context.Context, target string, from, to time.Time) ([]Event, error) {
	body, err := os.ReadFile(f.path(target))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", f.path(target))
	}

	var out []Event
	for _, ve := range cal.Events() {
		ev := Event{}
		if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
			ev.Summary = p.Value
		}
		if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
			ev.Description = p.Value
		}
		if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
			ev.Location = p.Value
		}
		ev.Start, _ = ve.GetStartAt()
		ev.End, _ = ve.GetEndAt()

		if !from.IsZero() && ev.End.Before(from) {
			continue
		}
		if !to.IsZero() && ev.Start.After(to) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (f *FileCalendar) CreateEvent(_ context.Context, target string, ev Event, wantResponse bool) error {
	// The file backend writes blind; it has no created-event reply to give.
	if wantResponse {
		return ErrUnsupportedResponse
	}

	var cal *ical.Calendar
	body, err := os.ReadFile(f.path(target))
	switch {
	case err == nil:
		cal, err = ical.ParseCalendar(bytes.NewReader(body))
		if err != nil {
			return errors.Wrapf(err, "parse %s", f.path(target))
		}
	case os.IsNotExist(err):
		cal = ical.NewCalendar()
		cal.SetMethod(ical.MethodPublish)
		cal.SetProductId("-//bookingwatch//EN")
	default:
		return err
	}

	ve := cal.AddEvent(Identifier(target, ev))
	ve.SetDtStampTime(time.Now().UTC())
	ve.SetStartAt(ev.Start)
	ve.SetEndAt(ev.End)
	ve.SetSummary(ev.Summary)
	ve.SetDescription(ev.Description)
	ve.SetLocation(ev.Location)

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(f.path(target), []byte(cal.Serialize()), 0o644)
}

func (f *FileCalendar) path(target string) string {
	return filepath.Join(f.dir, sanitizeTarget(target)+".ics")
}

func sanitizeTarget(target string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(target) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	if b.Len() == 0 {
		return "calendar"
	}
	return b.String()
}
