package web

import (
	"net/http"

	"github.com/gorilla/securecookie"

	"github.com/rain-app/reservations-web/internal/wizard"
)

const wizardCookie = "rain_wizard"

// wizardSession is what round-trips through the cookie: the in-progress
// wizard and the restaurant it belongs to, so a visitor switching restaurants
// starts fresh.
type wizardSession struct {
	ClientID string       `json:"clientId"`
	State    wizard.State `json:"state"`
}

// WizardSessions keeps per-visitor wizard state in an encrypted cookie; the
// server itself stays stateless.
type WizardSessions struct {
	sc *securecookie.SecureCookie
}

func NewWizardSessions(hashKey, blockKey []byte) *WizardSessions {
	sc := securecookie.New(hashKey, blockKey)
	sc.SetSerializer(securecookie.JSONEncoder{})
	return &WizardSessions{sc: sc}
}

// Get returns the stored wizard state for the given restaurant. ok is false
// when there is no usable state (no cookie, decode failure, other client).
func (s *WizardSessions) Get(r *http.Request, clientID string) (wizard.State, bool) {
	c, err := r.Cookie(wizardCookie)
	if err != nil {
		return wizard.State{}, false
	}
	var sess wizardSession
	if err := s.sc.Decode(wizardCookie, c.Value, &sess); err != nil {
		return wizard.State{}, false
	}
	if sess.ClientID != clientID {
		return wizard.State{}, false
	}
	return sess.State, true
}

func (s *WizardSessions) Set(w http.ResponseWriter, clientID string, st wizard.State) error {
	encoded, err := s.sc.Encode(wizardCookie, wizardSession{ClientID: clientID, State: st})
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     wizardCookie,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *WizardSessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     wizardCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
