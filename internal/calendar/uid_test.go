package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/example/bookingwatch/internal/calendar"
)

func sampleEvent() calendar.Event {
	loc := time.FixedZone("BST", 3600)
	return calendar.Event{
		Start:       time.Date(2025, 3, 1, 14, 0, 0, 0, loc),
		End:         time.Date(2025, 3, 3, 11, 0, 0, 0, loc),
		Summary:     "Premier Inn: Double Room",
		Description: "PremierInn|AB12CD",
		Location:    "1 High St, LS1 1AA",
	}
}

func TestIdentifierDeterministic(t *testing.T) {
	a := calendar.Identifier("calendar.family", sampleEvent())
	b := calendar.Identifier("calendar.family", sampleEvent())
	assert.Equal(t, a, b)

	// UUID-shaped token
	assert.Len(t, a, 36)
}

func TestIdentifierSensitiveToFields(t *testing.T) {
	base := calendar.Identifier("calendar.family", sampleEvent())

	ev := sampleEvent()
	ev.Location = "2 Low Rd"
	assert.NotEqual(t, base, calendar.Identifier("calendar.family", ev))

	ev = sampleEvent()
	ev.Start = ev.Start.Add(time.Minute)
	assert.NotEqual(t, base, calendar.Identifier("calendar.family", ev))

	assert.NotEqual(t, base, calendar.Identifier("calendar.other", sampleEvent()))
}

func TestIdentifierEmptyOptionalFieldsStable(t *testing.T) {
	ev := sampleEvent()
	ev.Description = ""
	ev.Location = ""
	a := calendar.Identifier("t", ev)
	b := calendar.Identifier("t", ev)
	assert.Equal(t, a, b)
}
