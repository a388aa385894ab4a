package bookings_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/bookingwatch/internal/bookings"
	"github.com/example/bookingwatch/internal/db"
	"github.com/example/bookingwatch/internal/premierinn"
)

type fakeStore struct {
	byResNo map[string]bookings.Booking
	nextID  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{byResNo: map[string]bookings.Booking{}}
}

func (f *fakeStore) Create(_ context.Context, b bookings.Booking) (int64, error) {
	if _, ok := f.byResNo[b.ResNo]; ok {
		return 0, db.ErrConflict
	}
	f.nextID++
	b.ID = f.nextID
	f.byResNo[b.ResNo] = b
	return b.ID, nil
}

func (f *fakeStore) GetByResNo(_ context.Context, resNo string) (bookings.Booking, error) {
	b, ok := f.byResNo[resNo]
	if !ok {
		return bookings.Booking{}, db.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) List(_ context.Context) ([]bookings.Booking, error) {
	out := make([]bookings.Booking, 0, len(f.byResNo))
	for _, b := range f.byResNo {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeStore) Remove(_ context.Context, resNo string) error {
	delete(f.byResNo, resNo)
	return nil
}

func (f *fakeStore) AppendEventUID(_ context.Context, resNo, uid string) error {
	b, ok := f.byResNo[resNo]
	if !ok {
		return nil
	}
	for _, have := range b.EventUIDs {
		if have == uid {
			return nil
		}
	}
	b.EventUIDs = append(b.EventUIDs, uid)
	f.byResNo[resNo] = b
	return nil
}

type fakeFetcher struct {
	rec     *premierinn.Record
	err     error
	queries []premierinn.Query
}

func (f *fakeFetcher) FetchBooking(_ context.Context, q premierinn.Query) (*premierinn.Record, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.rec, nil
}

// stayRecord builds a record whose stay ends checkOut from now.
func stayRecord(t *testing.T, loc *time.Location, checkOut time.Time) *premierinn.Record {
	t.Helper()
	in := checkOut.AddDate(0, 0, -2)
	return &premierinn.Record{
		BookingConfirmation: premierinn.BookingConfirmation{
			ReservationByIDList: []premierinn.Reservation{{
				RoomStay: premierinn.RoomStay{
					ArrivalDate:   in.In(loc).Format("2006-01-02"),
					CheckInTime:   in.In(loc).Format("15:04"),
					DepartureDate: checkOut.In(loc).Format("2006-01-02"),
					CheckOutTime:  checkOut.In(loc).Format("15:04"),
					RoomExtraInfo: premierinn.RoomExtraInfo{RoomName: "Double Room"},
				},
			}},
			BookingReference: "AB12CD",
			HotelID:          "H100",
		},
		HotelInformation: premierinn.HotelInformation{Name: "Premier Inn Leeds"},
	}
}

func newService(t *testing.T, fetcher *fakeFetcher) (*bookings.Service, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	return &bookings.Service{Store: store, Fetcher: fetcher, Loc: time.UTC}, store
}

func TestAddBooking(t *testing.T) {
	future := time.Now().Add(48 * time.Hour).Truncate(time.Minute)
	fetcher := &fakeFetcher{rec: stayRecord(t, time.UTC, future)}
	svc, store := newService(t, fetcher)

	b, err := svc.AddBooking(context.Background(), bookings.AddParams{
		ResNo:          "ab12cd",
		ArrivalDate:    future.AddDate(0, 0, -2).Format("2006-01-02"),
		LastName:       "Smith",
		Country:        "Great Britain",
		CreateCalendar: true,
		Calendars:      []string{"family"},
	})
	require.NoError(t, err)

	assert.Equal(t, "AB12CD", b.ResNo)
	assert.Equal(t, "gb", b.Country)
	assert.Equal(t, []string{"None", "family"}, b.Calendars)
	require.Len(t, fetcher.queries, 1)
	assert.Equal(t, "AB12CD", fetcher.queries[0].ResNo)

	_, err = store.GetByResNo(context.Background(), "AB12CD")
	assert.NoError(t, err)
}

func TestAddBookingRejectsDuplicate(t *testing.T) {
	future := time.Now().Add(48 * time.Hour)
	fetcher := &fakeFetcher{rec: stayRecord(t, time.UTC, future)}
	svc, _ := newService(t, fetcher)

	params := bookings.AddParams{
		ResNo:       "AB12CD",
		ArrivalDate: "2031-03-01",
		LastName:    "Smith",
	}
	_, err := svc.AddBooking(context.Background(), params)
	require.NoError(t, err)

	_, err = svc.AddBooking(context.Background(), params)
	assert.ErrorIs(t, err, bookings.ErrExists)
	// the probe is not repeated for a known-duplicate res-no
	assert.Len(t, fetcher.queries, 1)
}

func TestAddBookingRejectsBadDate(t *testing.T) {
	svc, _ := newService(t, &fakeFetcher{})
	_, err := svc.AddBooking(context.Background(), bookings.AddParams{
		ResNo:       "AB12CD",
		ArrivalDate: "01/03/2031",
		LastName:    "Smith",
	})
	assert.ErrorIs(t, err, bookings.ErrInvalidDate)
}

func TestAddBookingPropagatesProbeFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: premierinn.ErrAuthentication}
	svc, store := newService(t, fetcher)

	_, err := svc.AddBooking(context.Background(), bookings.AddParams{
		ResNo:       "AB12CD",
		ArrivalDate: "2031-03-01",
		LastName:    "Smith",
	})
	assert.ErrorIs(t, err, premierinn.ErrAuthentication)
	assert.Empty(t, store.byResNo)
}

func TestAddBookingRejectsElapsedStay(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	fetcher := &fakeFetcher{rec: stayRecord(t, time.UTC, past)}
	svc, store := newService(t, fetcher)

	_, err := svc.AddBooking(context.Background(), bookings.AddParams{
		ResNo:       "AB12CD",
		ArrivalDate: past.AddDate(0, 0, -2).Format("2006-01-02"),
		LastName:    "Smith",
	})
	assert.Error(t, err)
	assert.Empty(t, store.byResNo)
}

func TestRemoveBookingSilentWhenAbsent(t *testing.T) {
	svc, _ := newService(t, &fakeFetcher{})
	assert.NoError(t, svc.RemoveBooking(context.Background(), "NOPE42"))
}
