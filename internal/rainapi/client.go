// Package rainapi is the client for the Rain web-reservations API, the
// external service that owns table availability, bookings and the reservation
// state machine.
package rainapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rain-app/reservations-web/internal/reservation"
)

// DateLayout is the reservation timestamp format the backend expects,
// always with zeroed seconds.
const DateLayout = "2006-01-02T15:04:00"

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL string
	apiKey  string
	hc      *http.Client
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		hc:      &http.Client{Timeout: timeout, Transport: transport},
	}
}

// FetchReservation returns the reservation with the given id.
func (c *Client) FetchReservation(ctx context.Context, id string) (reservation.Reservation, error) {
	var r reservation.Reservation
	err := c.do(ctx, http.MethodGet, "/web-reservations/"+url.PathEscape(id), nil, &r)
	return r, err
}

// FetchClient returns the restaurant record reservations are made against.
func (c *Client) FetchClient(ctx context.Context, clientID string) (reservation.Client, error) {
	var cl reservation.Client
	err := c.do(ctx, http.MethodGet, "/web-reservations/clients/"+url.PathEscape(clientID), nil, &cl)
	return cl, err
}

type findTablesRequest struct {
	ReservationDate string `json:"reservationDate"`
	People          int    `json:"people"`
}

type findTablesResponse struct {
	Results []string `json:"results"`
}

// FindTables asks the backend for bookable table ids at the given date/time
// and party size. The result order is the backend's and may be empty.
func (c *Client) FindTables(ctx context.Context, clientID string, dateTime time.Time, people int) ([]string, error) {
	req := findTablesRequest{
		ReservationDate: dateTime.Format(DateLayout),
		People:          people,
	}
	var res findTablesResponse
	path := "/web-reservations/clients/" + url.PathEscape(clientID) + "/findTables"
	if err := c.do(ctx, http.MethodPost, path, req, &res); err != nil {
		return nil, err
	}
	return res.Results, nil
}

// CreateReservationRequest is the booking submission composed by the wizard.
type CreateReservationRequest struct {
	ReservationDate string   `json:"reservationDate"`
	People          int      `json:"people"`
	Name            string   `json:"name"`
	PhoneNumber     string   `json:"phoneNumber"`
	TableIDs        []string `json:"tableIds"`
}

// CreateReservation submits a booking and returns the created reservation.
func (c *Client) CreateReservation(ctx context.Context, clientID string, req CreateReservationRequest) (reservation.Reservation, error) {
	var r reservation.Reservation
	path := "/web-reservations/clients/" + url.PathEscape(clientID) + "/reservations"
	err := c.do(ctx, http.MethodPost, path, req, &r)
	return r, err
}

// ConfirmReservation requests the BOOKED -> CONFIRMED transition and returns
// the updated reservation.
func (c *Client) ConfirmReservation(ctx context.Context, id string) (reservation.Reservation, error) {
	var r reservation.Reservation
	err := c.do(ctx, http.MethodPost, "/web-reservations/"+url.PathEscape(id)+"/confirm", nil, &r)
	return r, err
}

// CancelReservation requests cancellation and returns the updated reservation.
func (c *Client) CancelReservation(ctx context.Context, id string) (reservation.Reservation, error) {
	var r reservation.Reservation
	err := c.do(ctx, http.MethodPost, "/web-reservations/"+url.PathEscape(id)+"/cancel", nil, &r)
	return r, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("rainapi: encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("rainapi: build request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("rainapi: %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("rainapi: read response: %w", err)
	}

	switch {
	case res.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case res.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case res.StatusCode >= 400:
		return &StatusError{Status: res.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("rainapi: decode response: %w", err)
	}
	return nil
}
