package reservation

// Status is the backend-owned reservation lifecycle state.
type Status string

const (
	StatusBooked    Status = "BOOKED"
	StatusWaiting   Status = "WAITING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// CanConfirm reports whether the view should offer the confirm action.
// Only a freshly booked reservation can still be confirmed by the guest.
func (s Status) CanConfirm() bool {
	return s == StatusBooked
}

// CanCancel reports whether the view should offer the cancel action.
func (s Status) CanCancel() bool {
	return s == StatusBooked || s == StatusConfirmed
}

var statusLabels = map[Status]string{
	StatusBooked:    "已訂位",
	StatusWaiting:   "候位中",
	StatusConfirmed: "已確認",
	StatusCancelled: "已取消",
}

// Label returns the display text for the status, falling back to the raw
// value for anything the backend adds later.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}
