package premierinn

import (
	"time"

	"github.com/cockroachdb/errors"
)

// Query identifies one booking on the upstream API. Immutable once a fetch
// starts.
type Query struct {
	ResNo       string
	ArrivalDate string // YYYY-MM-DD
	LastName    string
	Country     string // "gb" or "de"
}

// CountryCode normalizes a configured country to the wire value. The API
// serves Great Britain and Germany; anything unrecognized falls back to gb.
func CountryCode(s string) string {
	switch s {
	case "Germany", "de":
		return "de"
	default:
		return "gb"
	}
}

type gqlError struct {
	Message string `json:"message"`
}

type findBookingResult struct {
	CookieName        string `json:"cookieName"`
	Token             string `json:"token"`
	MinutesTillExpiry int    `json:"minutesTillExpiry"`
	BasketReference   string `json:"basketReference"`
}

type findBookingResponse struct {
	Data struct {
		FindBooking *findBookingResult `json:"findBooking"`
	} `json:"data"`
	Errors []gqlError `json:"errors"`
}

type RoomExtraInfo struct {
	RoomName string `json:"roomName"`
}

type RoomStay struct {
	CheckInTime    string        `json:"checkInTime"`  // HH:MM
	CheckOutTime   string        `json:"checkOutTime"` // HH:MM
	RatePlanCode   string        `json:"ratePlanCode"`
	ArrivalDate    string        `json:"arrivalDate"`   // YYYY-MM-DD
	DepartureDate  string        `json:"departureDate"` // YYYY-MM-DD
	BookingChannel string        `json:"bookingChannel"`
	RoomPrice      float64       `json:"roomPrice"`
	Cot            bool          `json:"cot"`
	AdultsNumber   int           `json:"adultsNumber"`
	ChildrenNumber int           `json:"childrenNumber"`
	RoomExtraInfo  RoomExtraInfo `json:"roomExtraInfo"`
}

type ReservationGuest struct {
	GivenName string `json:"givenName"`
	SurName   string `json:"surName"`
}

type OverrideReason struct {
	ReasonCode  string `json:"reasonCode"`
	CallerName  string `json:"callerName"`
	ManagerName string `json:"managerName"`
	ReasonName  string `json:"reasonName"`
}

type Reservation struct {
	ReservationID         string             `json:"reservationId"`
	ReservationGuestList  []ReservationGuest `json:"reservationGuestList"`
	RoomStay              RoomStay           `json:"roomStay"`
	ReservationOverridden bool               `json:"reservationOverridden"`
	OverrideReasons       []OverrideReason   `json:"reservationOverrideReasons"`
	GuaranteeCode         string             `json:"guaranteeCode"`
	ReservationStatus     string             `json:"reservationStatus"`
	AdditionalGuestInfo   struct {
		PurposeOfStay string `json:"purposeOfStay"`
	} `json:"additionalGuestInfo"`
}

// BookingConfirmation is the step-2 payload: the reservation list plus
// pricing and the booking/basket references.
type BookingConfirmation struct {
	ReservationByIDList []Reservation `json:"reservationByIdList"`
	BalanceOutstanding  float64       `json:"balanceOutstanding"`
	CurrencyCode        string        `json:"currencyCode"`
	NewTotal            float64       `json:"newTotal"`
	PolicyCode          string        `json:"policyCode"`
	PreviousTotal       float64       `json:"previousTotal"`
	TotalCost           float64       `json:"totalCost"`
	HotelID             string        `json:"hotelId"`
	HotelName           string        `json:"hotelName"`
	RateMessage         string        `json:"rateMessage"`
	BookingReference    string        `json:"bookingReference"`
	BasketReference     string        `json:"basketReference"`
}

type bookingConfirmationResponse struct {
	Data struct {
		BookingConfirmation *BookingConfirmation `json:"bookingConfirmation"`
	} `json:"data"`
	Errors []gqlError `json:"errors"`
}

type Address struct {
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	AddressLine3 string `json:"addressLine3"`
	AddressLine4 string `json:"addressLine4"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
}

type ContactDetails struct {
	Phone             string `json:"phone"`
	HotelNationalPhone string `json:"hotelNationalPhone"`
	Email             string `json:"email"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type InfoItem struct {
	Text      string `json:"text"`
	Priority  int    `json:"priority"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type ImportantInfo struct {
	Title     string     `json:"title"`
	InfoItems []InfoItem `json:"infoItems"`
}

// HotelInformation is the step-3 payload: hotel address, coordinates,
// contact details and descriptive HTML fragments.
type HotelInformation struct {
	Address            Address        `json:"address"`
	HotelID            string         `json:"hotelId"`
	HotelOpeningDate   string         `json:"hotelOpeningDate"`
	Name               string         `json:"name"`
	Brand              string         `json:"brand"`
	ParkingDescription string         `json:"parkingDescription"` // HTML
	Directions         string         `json:"directions"`         // HTML
	County             string         `json:"county"`
	ContactDetails     ContactDetails `json:"contactDetails"`
	Coordinates        Coordinates    `json:"coordinates"`
	ImportantInfo      ImportantInfo  `json:"importantInfo"`
}

type hotelInformationResponse struct {
	Data struct {
		HotelInformation *HotelInformation `json:"hotelInformation"`
	} `json:"data"`
	Errors []gqlError `json:"errors"`
}

// Record is the merged result of one fetch chain. It carries the step-2 and
// step-3 payloads only; the find-booking result is used solely as the key
// for step 2 and never appears here.
type Record struct {
	BookingConfirmation BookingConfirmation `json:"bookingConfirmation"`
	HotelInformation    HotelInformation    `json:"hotelInformation"`
}

// RoomStay returns the room stay of the first reservation.
func (r *Record) RoomStay() (RoomStay, error) {
	if len(r.BookingConfirmation.ReservationByIDList) == 0 {
		return RoomStay{}, errors.Wrap(ErrValidation, "no reservations in confirmation")
	}
	return r.BookingConfirmation.ReservationByIDList[0].RoomStay, nil
}

const wallClockLayout = "2006-01-02T15:04:05"

// CheckinAt returns the check-in instant (arrival date + check-in time)
// interpreted in loc.
func (r *Record) CheckinAt(loc *time.Location) (time.Time, error) {
	rs, err := r.RoomStay()
	if err != nil {
		return time.Time{}, err
	}
	return parseWallClock(rs.ArrivalDate, rs.CheckInTime, loc)
}

// CheckoutAt returns the checkout instant (departure date + check-out time)
// interpreted in loc.
func (r *Record) CheckoutAt(loc *time.Location) (time.Time, error) {
	rs, err := r.RoomStay()
	if err != nil {
		return time.Time{}, err
	}
	return parseWallClock(rs.DepartureDate, rs.CheckOutTime, loc)
}

func parseWallClock(date, hhmm string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(wallClockLayout, date+"T"+hhmm+":00", loc)
	if err != nil {
		return time.Time{}, errors.Wrap(ErrValidation, err.Error())
	}
	return t, nil
}
