package premierinn

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
)

const DefaultHost = "https://api.premierinn.com/graphql"

// Client talks to the Premier Inn GraphQL endpoint. One POST endpoint, three
// query documents; the header set mirrors what the endpoint expects from the
// booking site.
type Client struct {
	hc   *http.Client
	host string
}

func New(host string) *Client {
	if host == "" {
		host = DefaultHost
	}
	return &Client{
		hc:   &http.Client{Timeout: 15 * time.Second},
		host: host,
	}
}

// envelope is the fixed GraphQL request shape. A fresh one is built per
// call; request bodies are never shared or mutated between calls.
type envelope struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
	OperationName string         `json:"operationName,omitempty"`
}

// FetchBooking runs the three-step chain and returns the merged record.
//
// The calls are strictly sequential: booking confirmation needs the basket
// reference from find-booking, hotel information needs the hotel id from the
// confirmation. Any failure aborts the whole chain; no partial record is
// returned. Failure kind is reported via the package sentinels.
func (c *Client) FetchBooking(ctx context.Context, q Query) (*Record, error) {
	country := CountryCode(q.Country)

	// Step 1: find booking -> basket reference.
	status, body, err := c.do(ctx, envelope{
		Query: findBookingQuery,
		Variables: map[string]any{
			"findBookingCriteria": map[string]any{
				"arrivalDate": q.ArrivalDate,
				"lastName":    q.LastName,
				"resNo":       q.ResNo,
				"country":     country,
				"language":    "en",
			},
		},
	})
	if err != nil {
		return nil, errors.Mark(err, ErrUnknown)
	}
	if status == http.StatusTooManyRequests {
		return nil, errors.Wrapf(ErrRateLimit, "find booking: http %d", status)
	}
	if status != http.StatusOK {
		// The lookup is the credential check: the endpoint refuses unknown
		// reservation/surname/date combinations outright.
		return nil, errors.Wrapf(ErrAuthentication, "find booking: http %d", status)
	}
	var fb findBookingResponse
	if err := json.Unmarshal(body, &fb); err != nil {
		return nil, errors.Wrapf(ErrValidation, "find booking: %v", err)
	}
	if len(fb.Errors) > 0 {
		return nil, errors.Wrapf(ErrValidation, "find booking: %s", fb.Errors[0].Message)
	}
	if fb.Data.FindBooking == nil || fb.Data.FindBooking.BasketReference == "" {
		return nil, errors.Wrap(ErrValidation, "find booking: missing basketReference")
	}

	// Step 2: booking confirmation, keyed by the basket reference.
	status, body, err = c.do(ctx, envelope{
		Query: bookingConfirmationQuery,
		Variables: map[string]any{
			"basketReference": fb.Data.FindBooking.BasketReference,
			"language":        "en",
			"country":         country,
			"bookingChannel":  "PI",
		},
		OperationName: "bookingConfirmation",
	})
	if err != nil {
		return nil, errors.Mark(err, ErrUnknown)
	}
	if status == http.StatusTooManyRequests {
		return nil, errors.Wrapf(ErrRateLimit, "booking confirmation: http %d", status)
	}
	if status != http.StatusOK {
		return nil, errors.Wrapf(ErrUnknown, "booking confirmation: http %d", status)
	}
	var bc bookingConfirmationResponse
	if err := json.Unmarshal(body, &bc); err != nil {
		return nil, errors.Wrapf(ErrValidation, "booking confirmation: %v", err)
	}
	if len(bc.Errors) > 0 {
		return nil, errors.Wrapf(ErrValidation, "booking confirmation: %s", bc.Errors[0].Message)
	}
	if bc.Data.BookingConfirmation == nil || bc.Data.BookingConfirmation.HotelID == "" {
		return nil, errors.Wrap(ErrValidation, "booking confirmation: missing hotelId")
	}

	// Step 3: hotel information, keyed by the hotel id.
	status, body, err = c.do(ctx, envelope{
		Query: getHotelInformationQuery,
		Variables: map[string]any{
			"hotelId":  bc.Data.BookingConfirmation.HotelID,
			"language": "en",
			"country":  country,
		},
		OperationName: "GetHotelInformation",
	})
	if err != nil {
		return nil, errors.Mark(err, ErrUnknown)
	}
	if status == http.StatusTooManyRequests {
		return nil, errors.Wrapf(ErrRateLimit, "hotel information: http %d", status)
	}
	if status != http.StatusOK {
		return nil, errors.Wrapf(ErrUnknown, "hotel information: http %d", status)
	}
	var hi hotelInformationResponse
	if err := json.Unmarshal(body, &hi); err != nil {
		return nil, errors.Wrapf(ErrValidation, "hotel information: %v", err)
	}
	if len(hi.Errors) > 0 {
		return nil, errors.Wrapf(ErrValidation, "hotel information: %s", hi.Errors[0].Message)
	}
	if hi.Data.HotelInformation == nil {
		return nil, errors.Wrap(ErrValidation, "hotel information: missing payload")
	}

	return &Record{
		BookingConfirmation: *bc.Data.BookingConfirmation,
		HotelInformation:    *hi.Data.HotelInformation,
	}, nil
}

func (c *Client) do(ctx context.Context, env envelope) (int, []byte, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host, bytes.NewReader(b))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", "PostmanRuntime/7.41.2")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9,en-US;q=0.8")
	req.Header.Set("Cookie", "_abck=")

	res, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, err
	}
	return res.StatusCode, body, nil
}
