package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/rain-app/reservations-web/internal/rainapi"
	"github.com/rain-app/reservations-web/internal/reservation"
	"github.com/rain-app/reservations-web/internal/wizard"
)

var weekdays = [7]string{"星期日", "星期一", "星期二", "星期三", "星期四", "星期五", "星期六"}

type homeData struct {
	Title string
	Home  bool
}

func (s *Server) handleHome(w http.ResponseWriter, _ *http.Request) {
	s.render(w, http.StatusOK, "home.html", homeData{Title: "Rain Web App", Home: true})
}

type simpleData struct {
	Title    string
	Home     bool
	RetryURL string
}

// renderFetchError maps an API failure on a page load to the right terminal
// or recoverable page.
func (s *Server) renderFetchError(w http.ResponseWriter, err error, retryURL string) {
	switch {
	case errors.Is(err, rainapi.ErrUnauthorized):
		s.render(w, http.StatusUnauthorized, "unauthorized.html", simpleData{Title: "Rain App Reservation"})
	case errors.Is(err, rainapi.ErrNotFound):
		s.render(w, http.StatusNotFound, "notfound.html", simpleData{Title: "Rain App Reservation"})
	default:
		log.Error().Err(err).Msg("backend fetch failed")
		s.render(w, http.StatusBadGateway, "error.html", simpleData{Title: "Rain App Reservation", RetryURL: retryURL})
	}
}

type reservationData struct {
	Title string
	Home  bool
	Flash string

	R           reservation.Reservation
	StatusLabel string
	DateLine    string
	TimeLine    string
	MapURL      string

	CanConfirm bool
	CanCancel  bool

	// ShowCancelDialog is the open/closed state of the cancel confirmation
	// dialog, carried as ?confirm=cancel.
	ShowCancelDialog bool
}

func (s *Server) handleReservation(w http.ResponseWriter, r *http.Request) {
	showDialog := r.URL.Query().Get("confirm") == "cancel"
	s.renderReservationPage(w, r, chi.URLParam(r, "id"), "", showDialog)
}

func (s *Server) renderReservationPage(w http.ResponseWriter, r *http.Request, id, flash string, showDialog bool) {
	res, err := s.API.FetchReservation(r.Context(), id)
	if err != nil {
		s.renderFetchError(w, err, "/r/"+id)
		return
	}

	data := reservationData{
		Title:            "Rain App Reservation",
		Flash:            flash,
		R:                res,
		StatusLabel:      res.Status.Label(),
		DateLine:         res.ReservationStartDate,
		MapURL:           "https://www.google.com/maps/search/" + res.Client.Address,
		CanConfirm:       res.Status.CanConfirm(),
		CanCancel:        res.Status.CanCancel(),
		ShowCancelDialog: showDialog && res.Status.CanCancel(),
	}
	if start, ok := res.Start(); ok {
		data.DateLine = fmt.Sprintf("%s %s", start.Format("2006/01/02"), weekdays[start.Weekday()])
		data.TimeLine = start.Format("15:04")
	}
	s.render(w, http.StatusOK, "reservation.html", data)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.API.ConfirmReservation(r.Context(), id); err != nil {
		log.Error().Err(err).Str("reservation", id).Msg("confirm failed")
		s.renderReservationPage(w, r, id, "操作失敗，請稍後再試。", false)
		return
	}
	// Re-fetch rather than trusting a locally computed transition.
	http.Redirect(w, r, "/r/"+id, http.StatusFound)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.API.CancelReservation(r.Context(), id); err != nil {
		log.Error().Err(err).Str("reservation", id).Msg("cancel failed")
		s.renderReservationPage(w, r, id, "操作失敗，請稍後再試。", false)
		return
	}
	http.Redirect(w, r, "/r/"+id, http.StatusFound)
}

type wizardData struct {
	Title string
	Home  bool
	Flash string

	Client        reservation.Client
	State         wizard.State
	PeopleOptions []int
	ShareURL      string
}

func (s *Server) wizardPage(client reservation.Client, st wizard.State, flash string) wizardData {
	data := wizardData{
		Title:         "New Reservation",
		Flash:         flash,
		Client:        client,
		State:         st,
		PeopleOptions: []int{1, 2, 3, 4, 5, 6},
	}
	if st.ReservationID != "" {
		data.ShareURL = s.BaseURL + "/r/" + st.ReservationID
	}
	return data
}

// loadWizard fetches the restaurant and the visitor's wizard state, creating
// a fresh state with today's date/time defaults when none exists.
func (s *Server) loadWizard(r *http.Request, clientID string) (reservation.Client, wizard.State, error) {
	client, err := s.API.FetchClient(r.Context(), clientID)
	if err != nil {
		return reservation.Client{}, wizard.State{}, err
	}
	st, ok := s.Sessions.Get(r, clientID)
	if !ok {
		now := time.Now()
		st = wizard.NewState(now.Format("2006-01-02"), now.Format("15:04"))
	}
	return client, st, nil
}

func (s *Server) saveWizard(w http.ResponseWriter, clientID string, st wizard.State) {
	if err := s.Sessions.Set(w, clientID, st); err != nil {
		log.Error().Err(err).Msg("wizard session encode failed")
	}
}

func (s *Server) handleWizard(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	client, st, err := s.loadWizard(r, clientID)
	if err != nil {
		s.renderFetchError(w, err, "/reservations/clients/"+clientID)
		return
	}
	s.render(w, http.StatusOK, "wizard.html", s.wizardPage(client, st, ""))
}

func (s *Server) handleWizardSearch(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	client, st, err := s.loadWizard(r, clientID)
	if err != nil {
		s.renderFetchError(w, err, "/reservations/clients/"+clientID)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	people, _ := strconv.Atoi(r.FormValue("people"))
	st = wizard.Reduce(st, wizard.SetQuery{Query: wizard.Query{
		Date:   strings.TrimSpace(r.FormValue("date")),
		Time:   strings.TrimSpace(r.FormValue("time")),
		People: people,
	}})

	if !st.CanSearch() {
		s.saveWizard(w, clientID, st)
		s.render(w, http.StatusOK, "wizard.html", s.wizardPage(client, st, "請選擇人數。"))
		return
	}

	dateTime, err := parseWizardDateTime(st.Query)
	if err != nil {
		s.saveWizard(w, clientID, st)
		s.render(w, http.StatusOK, "wizard.html", s.wizardPage(client, st, "請輸入有效的日期與時間。"))
		return
	}

	issued := wizard.Reduce(st, wizard.SearchIssued{})
	tables, err := s.API.FindTables(r.Context(), clientID, dateTime, st.Query.People)
	if err != nil {
		// Search failed: keep the pre-search state so nothing is lost.
		log.Error().Err(err).Str("client", clientID).Msg("find tables failed")
		s.saveWizard(w, clientID, st)
		s.render(w, http.StatusOK, "wizard.html", s.wizardPage(client, st, "搜尋失敗，請稍後再試。"))
		return
	}

	issued = wizard.Reduce(issued, wizard.ResultsArrived{Seq: issued.Seq, Tables: tables})
	s.saveWizard(w, clientID, issued)
	http.Redirect(w, r, "/reservations/clients/"+clientID, http.StatusFound)
}

func (s *Server) handleWizardSelect(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	_, st, err := s.loadWizard(r, clientID)
	if err != nil {
		s.renderFetchError(w, err, "/reservations/clients/"+clientID)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	st = wizard.Reduce(st, wizard.SelectTable{Table: strings.TrimSpace(r.FormValue("table"))})
	s.saveWizard(w, clientID, st)
	http.Redirect(w, r, "/reservations/clients/"+clientID, http.StatusFound)
}

func (s *Server) handleWizardContact(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	client, st, err := s.loadWizard(r, clientID)
	if err != nil {
		s.renderFetchError(w, err, "/reservations/clients/"+clientID)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	st = wizard.Reduce(st, wizard.SetName{Name: strings.TrimSpace(r.FormValue("name"))})
	st = wizard.Reduce(st, wizard.SetPhone{Phone: strings.TrimSpace(r.FormValue("phone"))})

	if !st.CanSubmit() {
		// Field-level errors render from the stored validity state.
		s.saveWizard(w, clientID, st)
		http.Redirect(w, r, "/reservations/clients/"+clientID, http.StatusFound)
		return
	}

	dateTime, err := parseWizardDateTime(st.Query)
	if err != nil {
		s.saveWizard(w, clientID, st)
		s.render(w, http.StatusOK, "wizard.html", s.wizardPage(client, st, "請輸入有效的日期與時間。"))
		return
	}

	created, err := s.API.CreateReservation(r.Context(), clientID, rainapi.CreateReservationRequest{
		ReservationDate: dateTime.Format(rainapi.DateLayout),
		People:          st.Query.People,
		Name:            st.Name,
		PhoneNumber:     st.Phone,
		TableIDs:        []string{st.Selected},
	})
	if err != nil {
		log.Error().Err(err).Str("client", clientID).Msg("create reservation failed")
		st = wizard.Reduce(st, wizard.SubmitFailed{})
		s.saveWizard(w, clientID, st)
		s.render(w, http.StatusOK, "wizard.html", s.wizardPage(client, st, "訂位失敗，請稍後再試。"))
		return
	}

	st = wizard.Reduce(st, wizard.SubmitSucceeded{ID: created.ID})
	s.saveWizard(w, clientID, st)
	http.Redirect(w, r, "/reservations/clients/"+clientID, http.StatusFound)
}

// handleWizardReset discards the stored wizard so a visitor can book again
// after a completed reservation.
func (s *Server) handleWizardReset(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	s.Sessions.Clear(w)
	http.Redirect(w, r, "/reservations/clients/"+clientID, http.StatusFound)
}

func parseWizardDateTime(q wizard.Query) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", q.Date+" "+q.Time, time.Local)
}
