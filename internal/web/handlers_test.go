package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rain-app/reservations-web/internal/rainapi"
	"github.com/rain-app/reservations-web/internal/reservation"
)

// fakeBackend is an in-memory stand-in for the Rain reservations API.
type fakeBackend struct {
	mu           sync.Mutex
	reservations map[string]reservation.Reservation
	clients      map[string]reservation.Client
	tables       []string
	lastCreate   rainapi.CreateReservationRequest
	createCalls  int
	failCreate   bool
	unauthorized bool
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/web-reservations/clients/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		rest := strings.TrimPrefix(r.URL.Path, "/web-reservations/clients/")
		switch {
		case strings.HasSuffix(rest, "/findTables"):
			_ = json.NewEncoder(w).Encode(map[string]any{"results": f.tables})
		case strings.HasSuffix(rest, "/reservations"):
			if f.failCreate {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			f.createCalls++
			_ = json.NewDecoder(r.Body).Decode(&f.lastCreate)
			_ = json.NewEncoder(w).Encode(reservation.Reservation{ID: "r42", Status: reservation.StatusBooked})
		default:
			cl, ok := f.clients[rest]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(cl)
		}
	})
	mux.HandleFunc("/web-reservations/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.unauthorized {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		rest := strings.TrimPrefix(r.URL.Path, "/web-reservations/")
		id := strings.SplitN(rest, "/", 2)[0]
		res, ok := f.reservations[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch {
		case strings.HasSuffix(rest, "/confirm"):
			res.Status = reservation.StatusConfirmed
			f.reservations[id] = res
		case strings.HasSuffix(rest, "/cancel"):
			res.Status = reservation.StatusCancelled
			f.reservations[id] = res
		}
		_ = json.NewEncoder(w).Encode(res)
	})
	return mux
}

type testEnv struct {
	backend *fakeBackend
	site    *httptest.Server
	client  *http.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	backend := &fakeBackend{
		reservations: map[string]reservation.Reservation{},
		clients:      map[string]reservation.Client{},
	}
	api := httptest.NewServer(backend.handler())
	t.Cleanup(api.Close)

	srv := &Server{
		API:      rainapi.New(api.URL, "test-key", time.Second),
		Sessions: NewWizardSessions(make([]byte, 32), make([]byte, 32)),
		BaseURL:  "https://r.rain-app.example",
	}
	site := httptest.NewServer(srv.Routes())
	t.Cleanup(site.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &testEnv{backend: backend, site: site, client: &http.Client{Jar: jar}}
}

func (e *testEnv) get(t *testing.T, path string) (int, string) {
	t.Helper()
	res, err := e.client.Get(e.site.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	return res.StatusCode, string(body)
}

func (e *testEnv) post(t *testing.T, path string, form url.Values) (int, string) {
	t.Helper()
	res, err := e.client.PostForm(e.site.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	return res.StatusCode, string(body)
}

func TestHomePage(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.get(t, "/")
	if status != http.StatusOK {
		t.Fatalf("unexpected status %d", status)
	}
	if !strings.Contains(body, "Rain App 網路訂位") {
		t.Error("landing copy missing")
	}
}

func TestReservationViewActionsByStatus(t *testing.T) {
	cases := []struct {
		status      reservation.Status
		wantConfirm bool
		wantCancel  bool
	}{
		{reservation.StatusBooked, true, true},
		{reservation.StatusConfirmed, false, true},
		{reservation.StatusWaiting, false, false},
		{reservation.StatusCancelled, false, false},
	}
	for _, c := range cases {
		t.Run(string(c.status), func(t *testing.T) {
			env := newTestEnv(t)
			env.backend.reservations["r1"] = reservation.Reservation{
				ID: "r1", Status: c.status, Name: "Alice", People: 2,
				ReservationStartDate: "2024-06-01T18:00:00",
				Client:               reservation.Client{ClientName: "雨天餐廳"},
			}

			status, body := env.get(t, "/r/r1")
			if status != http.StatusOK {
				t.Fatalf("unexpected status %d", status)
			}
			if got := strings.Contains(body, "/r/r1/confirm"); got != c.wantConfirm {
				t.Errorf("confirm action rendered=%v, want %v", got, c.wantConfirm)
			}
			if got := strings.Contains(body, "confirm=cancel"); got != c.wantCancel {
				t.Errorf("cancel action rendered=%v, want %v", got, c.wantCancel)
			}
			if !strings.Contains(body, c.status.Label()) {
				t.Errorf("status label %q missing", c.status.Label())
			}
			if !strings.Contains(body, "2024/06/01 星期六") {
				t.Error("formatted date line missing")
			}
		})
	}
}

func TestReservationViewUnauthorizedIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	env.backend.unauthorized = true

	status, body := env.get(t, "/r/r1")
	if status != http.StatusUnauthorized {
		t.Fatalf("unexpected status %d", status)
	}
	if !strings.Contains(body, "Not authorized") {
		t.Error("unauthorized page missing")
	}
	if strings.Contains(body, "confirm") {
		t.Error("no action buttons may render on the unauthorized page")
	}
}

func TestReservationViewNotFound(t *testing.T) {
	env := newTestEnv(t)
	status, body := env.get(t, "/r/missing")
	if status != http.StatusNotFound {
		t.Fatalf("unexpected status %d", status)
	}
	if !strings.Contains(body, "找不到頁面") {
		t.Error("not-found page missing")
	}
}

func TestConfirmRefetchesInsteadOfComputing(t *testing.T) {
	env := newTestEnv(t)
	env.backend.reservations["r1"] = reservation.Reservation{
		ID: "r1", Status: reservation.StatusBooked,
	}

	status, body := env.post(t, "/r/r1/confirm", url.Values{})
	if status != http.StatusOK {
		t.Fatalf("unexpected status %d", status)
	}
	// The page after the redirect reflects what the backend now holds.
	if !strings.Contains(body, reservation.StatusConfirmed.Label()) {
		t.Error("page should show the re-fetched CONFIRMED status")
	}
}

func TestCancelViaDialog(t *testing.T) {
	env := newTestEnv(t)
	env.backend.reservations["r1"] = reservation.Reservation{
		ID: "r1", Status: reservation.StatusBooked,
	}

	_, body := env.get(t, "/r/r1?confirm=cancel")
	if !strings.Contains(body, "請問您是否確定取消這個訂位?") {
		t.Fatal("cancel confirmation dialog missing")
	}

	_, body = env.post(t, "/r/r1/cancel", url.Values{})
	if !strings.Contains(body, reservation.StatusCancelled.Label()) {
		t.Error("page should show CANCELLED after cancel")
	}
}

func TestOldReservationPathRedirects(t *testing.T) {
	env := newTestEnv(t)
	env.backend.reservations["r9"] = reservation.Reservation{ID: "r9", Status: reservation.StatusBooked}

	status, body := env.get(t, "/reservations/r9")
	if status != http.StatusOK {
		t.Fatalf("unexpected status %d", status)
	}
	if !strings.Contains(body, "訂位資訊") {
		t.Error("redirect should land on the reservation view")
	}
}

func TestWizardFullBookingFlow(t *testing.T) {
	env := newTestEnv(t)
	env.backend.clients["c1"] = reservation.Client{ID: "c1", ClientName: "雨天餐廳"}
	env.backend.tables = []string{"T1", "T2"}

	status, body := env.get(t, "/reservations/clients/c1")
	if status != http.StatusOK {
		t.Fatalf("unexpected status %d", status)
	}
	if !strings.Contains(body, "雨天餐廳 - 新增訂位") {
		t.Fatal("wizard heading missing")
	}

	_, body = env.post(t, "/reservations/clients/c1/search", url.Values{
		"date": {"2024-06-01"}, "time": {"18:00"}, "people": {"2"},
	})
	if !strings.Contains(body, `value="T1"`) || !strings.Contains(body, `value="T2"`) {
		t.Fatal("table options missing after search")
	}
	if strings.Contains(body, "訂位大名") {
		t.Fatal("contact form must not appear before a table is selected")
	}

	_, body = env.post(t, "/reservations/clients/c1/select", url.Values{"table": {"T2"}})
	if !strings.Contains(body, "已選") || !strings.Contains(body, "訂位大名") {
		t.Fatal("selection should reveal the contact form")
	}

	_, body = env.post(t, "/reservations/clients/c1/contact", url.Values{
		"name": {"Alice"}, "phone": {"0912345678"},
	})
	if !strings.Contains(body, "訂位成功") {
		t.Fatalf("expected success page, got: %s", body)
	}
	if !strings.Contains(body, "https://r.rain-app.example/r/r42") {
		t.Error("shareable link with the new reservation id missing")
	}

	env.backend.mu.Lock()
	got := env.backend.lastCreate
	env.backend.mu.Unlock()
	if len(got.TableIDs) != 1 || got.TableIDs[0] != "T2" {
		t.Errorf("unexpected tableIds %v", got.TableIDs)
	}
	if got.ReservationDate != "2024-06-01T18:00:00" {
		t.Errorf("unexpected reservationDate %q", got.ReservationDate)
	}
	if got.People != 2 || got.Name != "Alice" || got.PhoneNumber != "0912345678" {
		t.Errorf("unexpected create payload %+v", got)
	}
}

func TestWizardBookAgainAfterSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.backend.clients["c1"] = reservation.Client{ID: "c1", ClientName: "雨天餐廳"}
	env.backend.tables = []string{"T1"}

	env.post(t, "/reservations/clients/c1/search", url.Values{
		"date": {"2024-06-01"}, "time": {"18:00"}, "people": {"2"},
	})
	env.post(t, "/reservations/clients/c1/select", url.Values{"table": {"T1"}})
	env.post(t, "/reservations/clients/c1/contact", url.Values{
		"name": {"Alice"}, "phone": {"0912345678"},
	})

	// Revisiting the wizard keeps showing the success page, without a
	// search form.
	_, body := env.get(t, "/reservations/clients/c1")
	if !strings.Contains(body, "訂位成功") {
		t.Fatal("success page should persist across visits")
	}
	if strings.Contains(body, "尋找訂位") {
		t.Fatal("search form must not render on the success page")
	}

	// The book-again action discards the session and yields a fresh wizard.
	_, body = env.post(t, "/reservations/clients/c1/reset", url.Values{})
	if !strings.Contains(body, "尋找訂位") {
		t.Error("reset should render a fresh search form")
	}
	if strings.Contains(body, "訂位成功") || strings.Contains(body, "已選") {
		t.Error("reset must discard the completed wizard state")
	}
}

func TestWizardNoResults(t *testing.T) {
	env := newTestEnv(t)
	env.backend.clients["c1"] = reservation.Client{ID: "c1", ClientName: "雨天餐廳"}
	env.backend.tables = []string{}

	_, body := env.post(t, "/reservations/clients/c1/search", url.Values{
		"date": {"2024-06-01"}, "time": {"18:00"}, "people": {"4"},
	})
	if !strings.Contains(body, "找不到可訂的位子") {
		t.Error("empty-results message missing")
	}
	if strings.Contains(body, "訂位大名") {
		t.Error("contact form must never appear with no results")
	}
}

func TestWizardSearchRequiresPartySize(t *testing.T) {
	env := newTestEnv(t)
	env.backend.clients["c1"] = reservation.Client{ID: "c1", ClientName: "雨天餐廳"}

	_, body := env.post(t, "/reservations/clients/c1/search", url.Values{
		"date": {"2024-06-01"}, "time": {"18:00"}, "people": {"0"},
	})
	if !strings.Contains(body, "請選擇人數") {
		t.Error("party-size guard message missing")
	}
	if strings.Contains(body, "選擇時段") {
		t.Error("no results may render for a rejected search")
	}
}

func TestWizardInvalidContactBlocksSubmission(t *testing.T) {
	env := newTestEnv(t)
	env.backend.clients["c1"] = reservation.Client{ID: "c1", ClientName: "雨天餐廳"}
	env.backend.tables = []string{"T1"}

	env.post(t, "/reservations/clients/c1/search", url.Values{
		"date": {"2024-06-01"}, "time": {"18:00"}, "people": {"2"},
	})
	env.post(t, "/reservations/clients/c1/select", url.Values{"table": {"T1"}})

	_, body := env.post(t, "/reservations/clients/c1/contact", url.Values{
		"name": {"Alice"}, "phone": {"12345"},
	})
	if !strings.Contains(body, "請輸入10碼手機號碼") {
		t.Error("phone field error missing")
	}
	env.backend.mu.Lock()
	calls := env.backend.createCalls
	env.backend.mu.Unlock()
	if calls != 0 {
		t.Error("no server round-trip may happen while validation fails")
	}
}

func TestWizardSubmitFailureKeepsContactStep(t *testing.T) {
	env := newTestEnv(t)
	env.backend.clients["c1"] = reservation.Client{ID: "c1", ClientName: "雨天餐廳"}
	env.backend.tables = []string{"T1"}

	env.post(t, "/reservations/clients/c1/search", url.Values{
		"date": {"2024-06-01"}, "time": {"18:00"}, "people": {"2"},
	})
	env.post(t, "/reservations/clients/c1/select", url.Values{"table": {"T1"}})

	env.backend.mu.Lock()
	env.backend.failCreate = true
	env.backend.mu.Unlock()

	_, body := env.post(t, "/reservations/clients/c1/contact", url.Values{
		"name": {"Alice"}, "phone": {"0912345678"},
	})
	if !strings.Contains(body, "訂位失敗") {
		t.Error("failure flash missing")
	}
	if !strings.Contains(body, `value="Alice"`) || !strings.Contains(body, `value="0912345678"`) {
		t.Error("contact fields must keep their values after a failed submit")
	}
}

func TestWizardResearchClearsSelection(t *testing.T) {
	env := newTestEnv(t)
	env.backend.clients["c1"] = reservation.Client{ID: "c1", ClientName: "雨天餐廳"}
	env.backend.tables = []string{"T1", "T2"}

	env.post(t, "/reservations/clients/c1/search", url.Values{
		"date": {"2024-06-01"}, "time": {"18:00"}, "people": {"2"},
	})
	env.post(t, "/reservations/clients/c1/select", url.Values{"table": {"T1"}})

	_, body := env.post(t, "/reservations/clients/c1/search", url.Values{
		"date": {"2024-06-02"}, "time": {"19:00"}, "people": {"4"},
	})
	if strings.Contains(body, "已選") {
		t.Error("re-search must clear the prior selection")
	}
	if strings.Contains(body, "訂位大名") {
		t.Error("contact form must disappear after a re-search")
	}
}

func TestWizardClientNotFound(t *testing.T) {
	env := newTestEnv(t)
	status, _ := env.get(t, "/reservations/clients/nope")
	if status != http.StatusNotFound {
		t.Fatalf("unexpected status %d", status)
	}
}
