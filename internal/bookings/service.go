package bookings

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/example/bookingwatch/internal/db"
	"github.com/example/bookingwatch/internal/premierinn"
)

var (
	ErrExists      = errors.New("booking already exists")
	ErrInvalidDate = errors.New("arrival date must be YYYY-MM-DD")
)

var validate = validator.New()

// AddParams mirrors the add-booking action input.
type AddParams struct {
	ResNo          string `validate:"required,alphanum,min=4,max=20"`
	ArrivalDate    string `validate:"required"`
	LastName       string `validate:"required"`
	Country        string
	CreateCalendar bool
	Calendars      []string
}

// Fetcher is the probe used to verify a booking exists upstream before it is
// accepted.
type Fetcher interface {
	FetchBooking(ctx context.Context, q premierinn.Query) (*premierinn.Record, error)
}

// Service implements the two named actions of the command surface on top of
// the store, probing the upstream API on add.
type Service struct {
	Store   Store
	Fetcher Fetcher
	Loc     *time.Location
}

// AddBooking validates the input, checks res-no uniqueness, probes the
// upstream API once and persists the configuration entry. A booking whose
// stay has already fully elapsed is rejected rather than stored.
func (s *Service) AddBooking(ctx context.Context, p AddParams) (Booking, error) {
	p.ResNo = strings.ToUpper(strings.TrimSpace(p.ResNo))
	p.LastName = strings.TrimSpace(p.LastName)

	if err := validate.Struct(p); err != nil {
		return Booking{}, err
	}
	arrival, err := time.Parse("2006-01-02", p.ArrivalDate)
	if err != nil {
		return Booking{}, ErrInvalidDate
	}

	if _, err := s.Store.GetByResNo(ctx, p.ResNo); err == nil {
		return Booking{}, errors.Wrapf(ErrExists, "booking %s", p.ResNo)
	} else if !errors.Is(err, db.ErrNotFound) {
		return Booking{}, err
	}

	country := premierinn.CountryCode(p.Country)

	rec, err := s.Fetcher.FetchBooking(ctx, premierinn.Query{
		ResNo:       p.ResNo,
		ArrivalDate: p.ArrivalDate,
		LastName:    p.LastName,
		Country:     country,
	})
	if err != nil {
		return Booking{}, err
	}

	if checkout, cerr := rec.CheckoutAt(s.Loc); cerr == nil && !checkout.After(time.Now()) {
		return Booking{}, errors.Newf("booking %s already checked out at %s", p.ResNo, checkout.Format(time.RFC3339))
	}

	calendars := p.Calendars
	if p.CreateCalendar {
		calendars = append([]string{"None"}, calendars...)
	}

	b := Booking{
		ResNo:          p.ResNo,
		ArrivalDate:    arrival,
		LastName:       p.LastName,
		Country:        country,
		CreateCalendar: p.CreateCalendar,
		Calendars:      calendars,
	}
	id, err := s.Store.Create(ctx, b)
	if err != nil {
		if errors.Is(err, db.ErrConflict) {
			return Booking{}, errors.Wrapf(ErrExists, "booking %s", p.ResNo)
		}
		return Booking{}, err
	}
	b.ID = id
	return b, nil
}

// RemoveBooking deletes the configuration entry for resNo. A missing entry
// is silently ignored.
func (s *Service) RemoveBooking(ctx context.Context, resNo string) error {
	return s.Store.Remove(ctx, strings.ToUpper(strings.TrimSpace(resNo)))
}
