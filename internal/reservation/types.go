package reservation

import "time"

// Client is the restaurant the reservation is made with. Read-only here;
// the backend owns it.
type Client struct {
	ID          string `json:"id"`
	ClientName  string `json:"clientName"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
}

// Reservation is the server-owned booking record. This app only reads it and
// asks the backend for status transitions; it never computes them.
type Reservation struct {
	ID                   string `json:"id"`
	Status               Status `json:"status"`
	Name                 string `json:"name"`
	People               int    `json:"people"`
	Kid                  int    `json:"kid"`
	Note                 string `json:"note"`
	ReservationStartDate string `json:"reservationStartDate"`
	Client               Client `json:"client"`
}

// startLayouts covers the timestamp shapes the backend has been seen emitting.
var startLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02T15:04",
}

// Start parses ReservationStartDate. ok is false when the field is empty or
// in none of the known layouts.
func (r Reservation) Start() (t time.Time, ok bool) {
	for _, layout := range startLayouts {
		if t, err := time.Parse(layout, r.ReservationStartDate); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
