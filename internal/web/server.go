package web

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/example/bookingwatch/internal/auth"
	"github.com/example/bookingwatch/internal/bookings"
	"github.com/example/bookingwatch/internal/calendar"
	"github.com/example/bookingwatch/internal/htmltext"
	"github.com/example/bookingwatch/internal/log"
	"github.com/example/bookingwatch/internal/refresh"
)

//go:embed templates/*.html static/*
var fs embed.FS

type Server struct {
	Auth     *auth.Store
	Bookings *bookings.Service
	Sched    *refresh.Scheduler

	BaseURL string
	Loc     *time.Location
}

// bookingView flattens one watched booking and its latest snapshot for the
// templates.
type bookingView struct {
	ResNo       string
	LastName    string
	ArrivalDate string
	Calendars   []string

	HotelName   string
	RoomName    string
	Checkin     string
	Checkout    string
	TotalCost   float64
	Currency    string
	Address     string
	Phone       string
	Email       string
	Latitude    float64
	Longitude   float64
	Parking     string
	Directions  string
	LastRefresh string
	Err         string
}

type tmplData struct {
	Title string
	User  int64

	Flash    string
	Bookings []bookingView
	Booking  bookingView
	Form     bookings.AddParams
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/static/", http.FileServer(http.FS(fs)))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/logout", s.handleLogout)

	mux.Handle("/", s.Auth.RequireAuth(http.HandlerFunc(s.handleHome)))
	mux.Handle("/bookings/", s.Auth.RequireAuth(http.HandlerFunc(s.handleBookingDetail)))
	mux.Handle("/bookings/new", s.Auth.RequireAuth(http.HandlerFunc(s.handleBookingNew)))
	mux.Handle("/bookings/create", s.Auth.RequireAuth(http.HandlerFunc(s.handleBookingCreate)))
	mux.Handle("/bookings/remove", s.Auth.RequireAuth(http.HandlerFunc(s.handleBookingRemove)))
	mux.Handle("/api/bookings", s.Auth.RequireAuth(http.HandlerFunc(s.handleAPIBookings)))

	return mux
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	var views []bookingView
	for _, st := range s.Sched.States() {
		views = append(views, s.view(st))
	}
	s.render(w, "templates/bookings.html", tmplData{
		Title:    "Bookings",
		User:     uid,
		Bookings: views,
	})
}

func (s *Server) handleBookingDetail(w http.ResponseWriter, r *http.Request) {
	resNo := strings.TrimPrefix(r.URL.Path, "/bookings/")
	if resNo == "" || strings.Contains(resNo, "/") {
		http.NotFound(w, r)
		return
	}
	st, ok := s.Sched.State(strings.ToUpper(resNo))
	if !ok {
		http.NotFound(w, r)
		return
	}
	uid, _ := auth.UserIDFromContext(r.Context())
	s.render(w, "templates/booking.html", tmplData{
		Title:   "Booking " + st.Booking.ResNo,
		User:    uid,
		Booking: s.view(st),
	})
}

func (s *Server) handleBookingNew(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	s.render(w, "templates/new_booking.html", tmplData{
		Title: "Add Booking",
		User:  uid,
		Form:  bookings.AddParams{Country: "gb"},
	})
}

func (s *Server) handleBookingCreate(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p := bookings.AddParams{
		ResNo:          strings.TrimSpace(r.FormValue("res_no")),
		ArrivalDate:    strings.TrimSpace(r.FormValue("arrival_date")),
		LastName:       strings.TrimSpace(r.FormValue("last_name")),
		Country:        strings.TrimSpace(r.FormValue("country")),
		CreateCalendar: r.FormValue("create_calendar") == "on",
		Calendars:      splitCSV(r.FormValue("calendars")),
	}

	if _, err := s.Bookings.AddBooking(r.Context(), p); err != nil {
		log.Error("add booking failed", err, "res_no", p.ResNo)
		s.render(w, "templates/new_booking.html", tmplData{
			Title: "Add Booking",
			User:  uid,
			Flash: addFlash(err),
			Form:  p,
		})
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleBookingRemove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resNo := strings.TrimSpace(r.FormValue("res_no"))
	if err := s.Bookings.RemoveBooking(r.Context(), resNo); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// apiBooking is the JSON shape of one watched booking.
type apiBooking struct {
	ResNo       string   `json:"res_no"`
	LastName    string   `json:"last_name"`
	ArrivalDate string   `json:"arrival_date"`
	Calendars   []string `json:"calendars,omitempty"`
	HotelName   string   `json:"hotel_name,omitempty"`
	RoomName    string   `json:"room_name,omitempty"`
	Checkin     string   `json:"checkin,omitempty"`
	Checkout    string   `json:"checkout,omitempty"`
	TotalCost   float64  `json:"total_cost,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	Address     string   `json:"address,omitempty"`
	LastRefresh string   `json:"last_refresh,omitempty"`
	Error       string   `json:"error,omitempty"`
}

func (s *Server) handleAPIBookings(w http.ResponseWriter, r *http.Request) {
	var out []apiBooking
	for _, st := range s.Sched.States() {
		v := s.view(st)
		out = append(out, apiBooking{
			ResNo:       v.ResNo,
			LastName:    v.LastName,
			ArrivalDate: v.ArrivalDate,
			Calendars:   v.Calendars,
			HotelName:   v.HotelName,
			RoomName:    v.RoomName,
			Checkin:     v.Checkin,
			Checkout:    v.Checkout,
			TotalCost:   v.TotalCost,
			Currency:    v.Currency,
			Address:     v.Address,
			LastRefresh: v.LastRefresh,
			Error:       v.Err,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		log.Error("encode bookings failed", err)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, "templates/login.html", tmplData{Title: "Login"})
		return
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		username := strings.TrimSpace(r.FormValue("username"))
		password := r.FormValue("password")
		id, err := s.Auth.Authenticate(r.Context(), username, password)
		if err != nil {
			s.render(w, "templates/login.html", tmplData{Title: "Login", Flash: "Invalid username/password"})
			return
		}
		if err := s.Auth.SetSession(w, r, id); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/", http.StatusFound)
		return
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Auth.ClearSession(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) view(st refresh.State) bookingView {
	v := bookingView{
		ResNo:       st.Booking.ResNo,
		LastName:    st.Booking.LastName,
		ArrivalDate: st.Booking.ArrivalDate.Format("2006-01-02"),
		Calendars:   st.Booking.Calendars,
	}
	if st.Err != nil {
		v.Err = st.Err.Error()
	}
	if !st.LastRefresh.IsZero() {
		v.LastRefresh = st.LastRefresh.In(s.Loc).Format("2006-01-02 15:04")
	}
	if st.Snapshot == nil {
		return v
	}

	rec := st.Snapshot.Record
	v.HotelName = rec.BookingConfirmation.HotelName
	if v.HotelName == "" {
		v.HotelName = rec.HotelInformation.Name
	}
	v.TotalCost = rec.BookingConfirmation.TotalCost
	v.Currency = rec.BookingConfirmation.CurrencyCode
	v.Address = calendar.FormatAddress(rec.HotelInformation.Address)
	v.Phone = rec.HotelInformation.ContactDetails.Phone
	v.Email = rec.HotelInformation.ContactDetails.Email
	v.Latitude = rec.HotelInformation.Coordinates.Latitude
	v.Longitude = rec.HotelInformation.Coordinates.Longitude
	v.Parking = htmltext.Strip(rec.HotelInformation.ParkingDescription)
	v.Directions = htmltext.Strip(rec.HotelInformation.Directions)

	if rs, err := rec.RoomStay(); err == nil {
		v.RoomName = rs.RoomExtraInfo.RoomName
	}
	if in, err := rec.CheckinAt(s.Loc); err == nil {
		v.Checkin = in.Format("2006-01-02 15:04")
	}
	if out, err := rec.CheckoutAt(s.Loc); err == nil {
		v.Checkout = out.Format("2006-01-02 15:04")
	}
	return v
}

func addFlash(err error) string {
	switch {
	case errors.Is(err, bookings.ErrExists):
		return "That booking is already being watched"
	case errors.Is(err, bookings.ErrInvalidDate):
		return "Arrival date must be YYYY-MM-DD"
	default:
		return "Could not add booking: " + err.Error()
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *Server) render(w http.ResponseWriter, name string, data tmplData) {
	t, err := template.ParseFS(fs,
		"templates/base.html",
		name,
	)
	if err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		http.Error(w, "render error: "+err.Error(), http.StatusInternalServerError)
	}
}

func Start(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	fmt.Printf("listening on %s\n", addr)
	return srv.ListenAndServe()
}
