package trips

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusDeparted  Status = "DEPARTED"
	StatusCancelled Status = "CANCELLED"
)

// Trip is a scheduled bus departure. Immutable once scheduled; the booking
// core only ever reads it.
type Trip struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Origin      string    `gorm:"not null;index:idx_trip_route" json:"origin"`
	Destination string    `gorm:"not null;index:idx_trip_route" json:"destination"`
	DepartureAt time.Time `gorm:"not null;index" json:"departure_at"`
	ArrivalAt   time.Time `gorm:"not null" json:"arrival_at"`
	BasePrice   float64   `gorm:"not null" json:"base_price"`
	SeatCount   int       `gorm:"not null" json:"seat_count"`
	Status      Status    `gorm:"type:varchar(20);check:status IN ('SCHEDULED', 'DEPARTED', 'CANCELLED');default:'SCHEDULED'" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName sets the table name for Trip
func (Trip) TableName() string {
	return "trips"
}

func (t *Trip) IsScheduled() bool {
	return t.Status == StatusScheduled
}

// CreateTripRequest creates a trip with its seat map. Seat labels are derived
// from the layout (rows x seats per row); layout is configuration, not core
// booking logic.
type CreateTripRequest struct {
	Origin      string    `json:"origin" binding:"required,min=2,max=100"`
	Destination string    `json:"destination" binding:"required,min=2,max=100"`
	DepartureAt time.Time `json:"departure_at" binding:"required"`
	ArrivalAt   time.Time `json:"arrival_at" binding:"required"`
	BasePrice   float64   `json:"base_price" binding:"required,gt=0"`
	Rows        int       `json:"rows" binding:"required,min=1,max=26"`
	SeatsPerRow int       `json:"seats_per_row" binding:"required,min=1,max=9"`
}

// SearchQuery holds trip search filters
type SearchQuery struct {
	Origin      string `form:"origin"`
	Destination string `form:"destination"`
	Date        string `form:"date"` // YYYY-MM-DD
}

// TripResponse is the API shape for a trip
type TripResponse struct {
	ID          string    `json:"id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	DepartureAt time.Time `json:"departure_at"`
	ArrivalAt   time.Time `json:"arrival_at"`
	BasePrice   float64   `json:"base_price"`
	SeatCount   int       `json:"seat_count"`
	Status      string    `json:"status"`
}

func (t *Trip) ToResponse() TripResponse {
	return TripResponse{
		ID:          t.ID.String(),
		Origin:      t.Origin,
		Destination: t.Destination,
		DepartureAt: t.DepartureAt,
		ArrivalAt:   t.ArrivalAt,
		BasePrice:   t.BasePrice,
		SeatCount:   t.SeatCount,
		Status:      string(t.Status),
	}
}
