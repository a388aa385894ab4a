package calendar

import (
	"crypto/sha1"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Identifier computes the stable dedup id for an event on a target
// calendar: a canonical JSON form of the material fields (sorted keys,
// RFC 3339 times, absent optionals as empty strings) is hashed and the
// first 16 bytes shaped into a UUID. A pure function of its inputs, so the
// id survives process restarts.
func Identifier(target string, ev Event) string {
	payload := map[string]string{
		"entity_id":       target,
		"start_date_time": ev.Start.Format(time.RFC3339),
		"end_date_time":   ev.End.Format(time.RFC3339),
		"summary":         ev.Summary,
		"description":     ev.Description,
		"location":        ev.Location,
	}
	// json.Marshal writes map keys in sorted order.
	b, err := json.Marshal(payload)
	if err != nil {
		// map[string]string cannot fail to marshal
		panic(err)
	}
	sum := sha1.Sum(b)
	id, err := uuid.FromBytes(sum[:16])
	if err != nil {
		panic(err)
	}
	return id.String()
}
