package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTicketConfirmed EventType = "ticket.confirmed"
	EventTicketCancelled EventType = "ticket.cancelled"
	EventCheckoutExpired EventType = "checkout.expired"
)

// TicketEvent is the message published for every ticket lifecycle change.
// Downstream consumers (email, SMS, analytics) subscribe to these; this
// service only produces them.
type TicketEvent struct {
	ID         uuid.UUID `json:"id"`
	Type       EventType `json:"type"`
	Code       string    `json:"code"`
	TripID     uuid.UUID `json:"trip_id"`
	UserID     uuid.UUID `json:"user_id"`
	SeatLabels []string  `json:"seat_labels,omitempty"`
	Amount     float64   `json:"amount,omitempty"`
	PaymentRef string    `json:"payment_ref,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e *TicketEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PartitionKey routes every event for one user to the same partition so
// consumers see a user's ticket history in order
func (e *TicketEvent) PartitionKey() string {
	return e.UserID.String()
}
