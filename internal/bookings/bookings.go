package bookings

import (
	"context"
	"time"

	"github.com/example/bookingwatch/internal/db"
)

// Booking is one watched reservation: the immutable lookup query plus the
// calendar targets and the append-only dedup set of created event ids.
type Booking struct {
	ID             int64
	ResNo          string
	ArrivalDate    time.Time // date only
	LastName       string
	Country        string // "gb" or "de"
	CreateCalendar bool
	Calendars      []string
	EventUIDs      []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Query returns the upstream lookup key for this booking.
func (b Booking) Query() (resNo, arrivalDate, lastName, country string) {
	return b.ResNo, b.ArrivalDate.Format("2006-01-02"), b.LastName, b.Country
}

// Store is what the scheduler and the command surface need from the
// configuration store.
type Store interface {
	Create(ctx context.Context, b Booking) (int64, error)
	GetByResNo(ctx context.Context, resNo string) (Booking, error)
	List(ctx context.Context) ([]Booking, error)
	Remove(ctx context.Context, resNo string) error
	AppendEventUID(ctx context.Context, resNo, uid string) error
}

type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

const bookingColumns = `id,res_no,arrival_date,last_name,country,create_calendar,calendars,event_uids,created_at,updated_at`

func (r *Repo) Create(ctx context.Context, b Booking) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
INSERT INTO bookings(res_no,arrival_date,last_name,country,create_calendar,calendars)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id`,
		b.ResNo, b.ArrivalDate, b.LastName, b.Country, b.CreateCalendar, b.Calendars,
	).Scan(&id)
	return id, db.WrapErr(err)
}

func (r *Repo) GetByResNo(ctx context.Context, resNo string) (Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE res_no=$1`, resNo)
	b, err := scanBooking(row)
	if err != nil {
		return Booking{}, db.WrapErr(err)
	}
	return b, nil
}

func (r *Repo) List(ctx context.Context) ([]Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY created_at ASC`)
	if err != nil {
		return nil, db.WrapErr(err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, db.WrapErr(err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Remove deletes the configuration entry. Removing an unknown res-no is not
// an error.
func (r *Repo) Remove(ctx context.Context, resNo string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE res_no=$1`, resNo)
	return db.WrapErr(err)
}

// AppendEventUID appends uid to the dedup set. The set only ever grows, and
// an id already present is left alone.
func (r *Repo) AppendEventUID(ctx context.Context, resNo, uid string) error {
	_, err := r.db.Exec(ctx, `
UPDATE bookings
SET event_uids = array_append(event_uids, $2), updated_at = now()
WHERE res_no=$1 AND NOT ($2 = ANY(event_uids))`, resNo, uid)
	return db.WrapErr(err)
}

func scanBooking(row db.Row) (Booking, error) {
	var b Booking
	err := row.Scan(
		&b.ID, &b.ResNo, &b.ArrivalDate, &b.LastName, &b.Country,
		&b.CreateCalendar, &b.Calendars, &b.EventUIDs, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}
