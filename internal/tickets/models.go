package tickets

import (
	"time"

	"github.com/google/uuid"
)

type AttemptStatus string

const (
	AttemptAwaitingPayment AttemptStatus = "AWAITING_PAYMENT"
	AttemptConfirmed       AttemptStatus = "CONFIRMED"
	AttemptExpired         AttemptStatus = "EXPIRED"
	AttemptCancelled       AttemptStatus = "CANCELLED"
)

type TicketStatus string

const (
	TicketPendingPayment TicketStatus = "PENDING_PAYMENT"
	TicketConfirmed      TicketStatus = "CONFIRMED"
	TicketCancelled      TicketStatus = "CANCELLED"
)

// BookingAttempt is one checkout of one hold. Its code appears in the bank
// transfer description and is the join key between a payment notification
// and the seats it pays for. The status column doubles as the idempotency
// gate for payment confirmation.
type BookingAttempt struct {
	ID         uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Code       string        `gorm:"type:varchar(30);not null;uniqueIndex" json:"code"`
	HoldID     uuid.UUID     `gorm:"type:uuid;not null;index;uniqueIndex:idx_pending_attempt_per_hold,where:status = 'AWAITING_PAYMENT'" json:"hold_id"`
	TripID     uuid.UUID     `gorm:"type:uuid;not null;index" json:"trip_id"`
	UserID     uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	Amount     float64       `gorm:"not null" json:"amount"`
	Currency   string        `gorm:"type:varchar(5);not null" json:"currency"`
	Status     AttemptStatus `gorm:"type:varchar(20);not null;default:'AWAITING_PAYMENT';check:status IN ('AWAITING_PAYMENT', 'CONFIRMED', 'EXPIRED', 'CANCELLED')" json:"status"`
	PaymentRef string        `gorm:"type:varchar(100);index" json:"payment_ref,omitempty"`
	ExpiresAt  time.Time     `gorm:"not null" json:"expires_at"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// TableName sets the table name for BookingAttempt
func (BookingAttempt) TableName() string {
	return "booking_attempts"
}

func (a *BookingAttempt) IsTerminal() bool {
	return a.Status != AttemptAwaitingPayment
}

// Ticket is one seat on one trip for one buyer. Created PENDING_PAYMENT at
// checkout and flipped by the payment outcome.
type Ticket struct {
	ID          uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TicketCode  string       `gorm:"type:varchar(40);not null;uniqueIndex" json:"ticket_code"`
	AttemptID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"attempt_id"`
	TripID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"trip_id"`
	UserID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"user_id"`
	SeatID      uuid.UUID    `gorm:"type:uuid;not null" json:"seat_id"`
	SeatLabel   string       `gorm:"type:varchar(10);not null" json:"seat_label"`
	Price       float64      `gorm:"not null" json:"price"`
	Status      TicketStatus `gorm:"type:varchar(20);not null;default:'PENDING_PAYMENT';check:status IN ('PENDING_PAYMENT', 'CONFIRMED', 'CANCELLED')" json:"status"`
	CancelledAt *time.Time   `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// TableName sets the table name for Ticket
func (Ticket) TableName() string {
	return "tickets"
}

// CheckoutRequest converts a live hold into a booking attempt
type CheckoutRequest struct {
	HoldID string `json:"hold_id" binding:"required,uuid"`
}

// CheckoutResponse tells the buyer what to pay and which code to put in the
// transfer description
type CheckoutResponse struct {
	Code      string           `json:"code"`
	Amount    float64          `json:"amount"`
	Currency  string           `json:"currency"`
	ExpiresAt time.Time        `json:"expires_at"`
	Status    string           `json:"status"`
	Tickets   []TicketResponse `json:"tickets"`
}

// TicketResponse is the API shape for a ticket
type TicketResponse struct {
	ID          string     `json:"id"`
	TicketCode  string     `json:"ticket_code"`
	TripID      string     `json:"trip_id"`
	SeatLabel   string     `json:"seat_label"`
	Price       float64    `json:"price"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

func (t *Ticket) ToResponse() TicketResponse {
	return TicketResponse{
		ID:          t.ID.String(),
		TicketCode:  t.TicketCode,
		TripID:      t.TripID.String(),
		SeatLabel:   t.SeatLabel,
		Price:       t.Price,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
		CancelledAt: t.CancelledAt,
	}
}

// PaymentStatusResponse reports where an attempt stands, for checkout polling
type PaymentStatusResponse struct {
	Code      string    `json:"code"`
	Status    string    `json:"status"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RebookRequest moves a confirmed ticket to a different trip or seat. The new
// seats are secured before the old ticket is given up.
type RebookRequest struct {
	TripID string   `json:"trip_id" binding:"required,uuid"`
	Seats  []string `json:"seats" binding:"required,min=1,dive,seat_label"`
}

// RebookResponse pairs the cancelled ticket with the replacement checkout
type RebookResponse struct {
	CancelledTicket TicketResponse   `json:"cancelled_ticket"`
	NewCheckout     CheckoutResponse `json:"new_checkout"`
}

// ConfirmStatus is the outcome of applying a payment notification
type ConfirmStatus string

const (
	// ConfirmAccepted means seats flipped to BOOKED and tickets confirmed
	ConfirmAccepted ConfirmStatus = "ACCEPTED"
	// ConfirmDuplicate means this payment was already applied; nothing changed
	ConfirmDuplicate ConfirmStatus = "DUPLICATE"
	// ConfirmRejected means the payment could not be matched to a payable
	// attempt; the money needs manual follow-up
	ConfirmRejected ConfirmStatus = "REJECTED"
)

// ConfirmResult reports the outcome of a payment notification
type ConfirmResult struct {
	Status ConfirmStatus
	Reason string
	Code   string
}
