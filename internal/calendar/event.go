package calendar

import (
	"strings"
	"time"

	"github.com/example/bookingwatch/internal/premierinn"
)

// Event is one stay rendered as a calendar entry.
type Event struct {
	Start       time.Time
	End         time.Time
	Summary     string
	Description string
	Location    string
}

// FromRecord derives the calendar event for a fetched booking: the check-in
// to check-out window in loc, the room name as summary, the booking
// reference tagged into the description and the formatted hotel address as
// location.
func FromRecord(rec *premierinn.Record, loc *time.Location) (Event, error) {
	rs, err := rec.RoomStay()
	if err != nil {
		return Event{}, err
	}
	start, err := rec.CheckinAt(loc)
	if err != nil {
		return Event{}, err
	}
	end, err := rec.CheckoutAt(loc)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Start:       start,
		End:         end,
		Summary:     "Premier Inn: " + rs.RoomExtraInfo.RoomName,
		Description: "PremierInn|" + rec.BookingConfirmation.BookingReference,
		Location:    FormatAddress(rec.HotelInformation.Address),
	}, nil
}

// FormatAddress joins the address lines with ", ", dropping empty and
// "None" values. The country field is excluded.
func FormatAddress(a premierinn.Address) string {
	parts := make([]string, 0, 5)
	for _, v := range []string{a.AddressLine1, a.AddressLine2, a.AddressLine3, a.AddressLine4, a.PostalCode} {
		if v == "" || v == "None" {
			continue
		}
		parts = append(parts, v)
	}
	return strings.Join(parts, ", ")
}
