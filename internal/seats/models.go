package seats

import (
	"time"

	"github.com/google/uuid"
)

type SeatStatus string

const (
	SeatFree   SeatStatus = "FREE"
	SeatHeld   SeatStatus = "HELD"
	SeatBooked SeatStatus = "BOOKED"
)

// TripSeat is one physical seat on one trip. Its status row is the single
// source of truth for availability; every transition goes through the ledger
// as a guarded UPDATE.
type TripSeat struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TripID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_trip_seat_label" json:"trip_id"`
	Label     string     `gorm:"type:varchar(10);not null;uniqueIndex:idx_trip_seat_label" json:"label"`
	Status    SeatStatus `gorm:"type:varchar(10);not null;default:'FREE';check:status IN ('FREE', 'HELD', 'BOOKED')" json:"status"`
	HoldID    *uuid.UUID `gorm:"type:uuid;index" json:"hold_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName sets the table name for TripSeat
func (TripSeat) TableName() string {
	return "trip_seats"
}

// SeatHold groups the seats a session is holding for one trip. The row is
// created before any seat flips to HELD so a crash mid-acquire leaves
// nothing the sweeper cannot find.
type SeatHold struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TripID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"trip_id"`
	SessionID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"session_id"`
	ExpiresAt  time.Time  `gorm:"not null;index" json:"expires_at"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName sets the table name for SeatHold
func (SeatHold) TableName() string {
	return "seat_holds"
}

func (h *SeatHold) IsExpired(now time.Time) bool {
	return now.After(h.ExpiresAt)
}

func (h *SeatHold) IsReleased() bool {
	return h.ReleasedAt != nil
}

// HoldRequest asks for a set of seats on a trip
type HoldRequest struct {
	TripID string   `json:"trip_id" binding:"required,uuid"`
	Seats  []string `json:"seats" binding:"required,min=1,dive,seat_label"`
}

// HoldResponse describes a successfully acquired hold
type HoldResponse struct {
	HoldID    string    `json:"hold_id"`
	TripID    string    `json:"trip_id"`
	Seats     []string  `json:"seats"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SeatView is the API shape for one seat on the availability map
type SeatView struct {
	Label  string `json:"label"`
	Status string `json:"status"`
}

// AvailabilityResponse is a snapshot of a trip's seat map. It may be served
// from cache and so can lag the ledger briefly; holds and bookings always
// re-check the ledger.
type AvailabilityResponse struct {
	TripID    string     `json:"trip_id"`
	Seats     []SeatView `json:"seats"`
	FreeCount int        `json:"free_count"`
	FetchedAt time.Time  `json:"fetched_at"`
}
