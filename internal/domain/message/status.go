package message

// Status is the per-message delivery state.
type Status string

const (
	StatusSending   Status = "sending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusFailed    Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusSending, StatusSent, StatusDelivered, StatusRead, StatusFailed:
		return true
	}
	return false
}

// CanTransitionTo encodes the delivery state machine:
// sending -> {sent, failed}, sent -> delivered, delivered -> read.
// There are no backward moves and failed is terminal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusSending:
		return next == StatusSent || next == StatusFailed
	case StatusSent:
		return next == StatusDelivered
	case StatusDelivered:
		return next == StatusRead
	}
	return false
}
