// Package wizard holds the state machine behind the multi-step booking flow:
// pick a date/time/party size, search for tables, choose one, leave contact
// info, submit. It is pure data plus a reducer so the whole flow is testable
// without a browser or an HTTP server.
package wizard

// Step is the forward-only position in the flow. Re-running an earlier step
// (a new search) resets everything downstream.
type Step string

const (
	StepInput     Step = "input"
	StepSearching Step = "searching"
	StepResults   Step = "results"
	StepContact   Step = "contact"
	StepDone      Step = "done"
)

// Query is the search the visitor is composing.
type Query struct {
	Date   string `json:"date"` // 2006-01-02
	Time   string `json:"time"` // 15:04
	People int    `json:"people"`
}

// State is the whole wizard, a single tagged value. It round-trips through
// the session cookie between requests.
type State struct {
	Step  Step  `json:"step"`
	Query Query `json:"query"`

	// Seq is bumped on every issued search. Results carry the sequence of
	// the search that produced them; anything stale is discarded.
	Seq int `json:"seq"`

	// Results from the latest completed search. HaveResults distinguishes
	// "searched, nothing free" from "not searched yet".
	Results     []string `json:"results,omitempty"`
	HaveResults bool     `json:"haveResults"`
	Selected    string   `json:"selected,omitempty"`

	Name          string   `json:"name"`
	Phone         string   `json:"phone"`
	NameValidity  Validity `json:"nameValidity"`
	PhoneValidity Validity `json:"phoneValidity"`

	// ReservationID is set once the booking succeeded.
	ReservationID string `json:"reservationId,omitempty"`
}

// NewState returns the wizard at the input step with the given date/time
// defaults (callers pass today; this layer does not constrain past dates).
func NewState(date, timeOfDay string) State {
	return State{
		Step:  StepInput,
		Query: Query{Date: date, Time: timeOfDay},
	}
}

// Event is one visitor interaction or one network-response outcome.
type Event interface{ isEvent() }

// SetQuery replaces the search parameters without issuing a search.
type SetQuery struct{ Query Query }

// SearchIssued marks the start of a table search with the current Query.
// It invalidates previous results and any selection made against them.
type SearchIssued struct{}

// ResultsArrived delivers a completed search. Seq must match the latest
// issued search or the event is dropped (last-issued-wins).
type ResultsArrived struct {
	Seq    int
	Tables []string
}

// SelectTable picks one table from the current results; selection is
// exclusive and replaces any prior choice.
type SelectTable struct{ Table string }

// SetName and SetPhone update contact fields. Validity becomes tracked from
// the first edit so untouched fields never show errors.
type SetName struct{ Name string }
type SetPhone struct{ Phone string }

// SubmitSucceeded completes the flow with the created reservation id.
type SubmitSucceeded struct{ ID string }

// SubmitFailed leaves the contact step intact so the visitor can retry.
type SubmitFailed struct{}

func (SetQuery) isEvent()        {}
func (SearchIssued) isEvent()    {}
func (ResultsArrived) isEvent()  {}
func (SelectTable) isEvent()     {}
func (SetName) isEvent()         {}
func (SetPhone) isEvent()        {}
func (SubmitSucceeded) isEvent() {}
func (SubmitFailed) isEvent()    {}

// Reduce applies one event and returns the next state. It never mutates its
// input and never performs I/O.
func Reduce(s State, e Event) State {
	switch ev := e.(type) {
	case SetQuery:
		s.Query = ev.Query

	case SearchIssued:
		if !s.CanSearch() {
			return s
		}
		s.Seq++
		s.Step = StepSearching
		s.Results = nil
		s.HaveResults = false
		s.Selected = ""

	case ResultsArrived:
		if ev.Seq != s.Seq {
			// A superseded search finishing late. Ignore it.
			return s
		}
		s.Step = StepResults
		s.Results = ev.Tables
		s.HaveResults = true
		s.Selected = ""

	case SelectTable:
		if !s.hasResult(ev.Table) {
			return s
		}
		s.Selected = ev.Table
		s.Step = StepContact

	case SetName:
		s.Name = ev.Name
		s.NameValidity = validity(ValidName(ev.Name))

	case SetPhone:
		s.Phone = ev.Phone
		s.PhoneValidity = validity(ValidPhone(ev.Phone))

	case SubmitSucceeded:
		if s.Step != StepContact {
			return s
		}
		s.Step = StepDone
		s.ReservationID = ev.ID

	case SubmitFailed:
		// Stay in the contact step; every field keeps its value.
	}
	return s
}

// CanSearch reports whether the search action is available: a positive party
// size is the only requirement at this layer.
func (s State) CanSearch() bool {
	return s.Query.People >= 1
}

// CanSubmit reports whether the booking may be submitted: a table selected
// from the current results and both contact fields valid.
func (s State) CanSubmit() bool {
	return s.Step == StepContact &&
		s.Selected != "" && s.hasResult(s.Selected) &&
		s.NameValidity == Valid && s.PhoneValidity == Valid
}

// NameInvalid and PhoneInvalid are template-facing: they are false for
// untouched fields so error styling only appears after first input.
func (s State) NameInvalid() bool  { return s.NameValidity == Invalid }
func (s State) PhoneInvalid() bool { return s.PhoneValidity == Invalid }

func (s State) hasResult(table string) bool {
	for _, t := range s.Results {
		if t == table {
			return true
		}
	}
	return false
}
