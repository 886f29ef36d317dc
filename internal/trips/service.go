package trips

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrTripNotFound = errors.New("trip not found")

// SeatSeeder creates the seat map for a new trip (implemented by the seats
// service; declared here to avoid a package cycle)
type SeatSeeder interface {
	CreateSeatsForTrip(ctx context.Context, tripID uuid.UUID, labels []string) error
}

type Service interface {
	CreateTrip(ctx context.Context, req CreateTripRequest) (*Trip, error)
	GetTrip(ctx context.Context, id string) (*Trip, error)
	ListTrips(ctx context.Context, limit, offset int) ([]TripResponse, error)
	SearchTrips(ctx context.Context, query SearchQuery) ([]TripResponse, error)
}

type service struct {
	repo       Repository
	seatSeeder SeatSeeder
}

func NewService(repo Repository, seatSeeder SeatSeeder) Service {
	return &service{
		repo:       repo,
		seatSeeder: seatSeeder,
	}
}

func (s *service) CreateTrip(ctx context.Context, req CreateTripRequest) (*Trip, error) {
	if !req.ArrivalAt.After(req.DepartureAt) {
		return nil, fmt.Errorf("arrival must be after departure")
	}
	if req.DepartureAt.Before(time.Now()) {
		return nil, fmt.Errorf("departure must be in the future")
	}

	labels := generateSeatLabels(req.Rows, req.SeatsPerRow)

	trip := &Trip{
		Origin:      req.Origin,
		Destination: req.Destination,
		DepartureAt: req.DepartureAt,
		ArrivalAt:   req.ArrivalAt,
		BasePrice:   req.BasePrice,
		SeatCount:   len(labels),
		Status:      StatusScheduled,
	}

	if err := s.repo.CreateTrip(ctx, trip); err != nil {
		return nil, fmt.Errorf("failed to create trip: %w", err)
	}

	// Seats are generated automatically when the trip is created
	if err := s.seatSeeder.CreateSeatsForTrip(ctx, trip.ID, labels); err != nil {
		return nil, fmt.Errorf("failed to create trip seats: %w", err)
	}

	return trip, nil
}

func (s *service) GetTrip(ctx context.Context, id string) (*Trip, error) {
	tripID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid trip ID: %w", err)
	}

	trip, err := s.repo.GetTripByID(ctx, tripID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}

	return trip, nil
}

func (s *service) ListTrips(ctx context.Context, limit, offset int) ([]TripResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	trips, err := s.repo.ListTrips(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}

	return toResponses(trips), nil
}

func (s *service) SearchTrips(ctx context.Context, query SearchQuery) ([]TripResponse, error) {
	var dayStart, dayEnd *time.Time
	if query.Date != "" {
		day, err := time.Parse("2006-01-02", query.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid date, expected YYYY-MM-DD: %w", err)
		}
		end := day.Add(24 * time.Hour)
		dayStart, dayEnd = &day, &end
	}

	trips, err := s.repo.SearchTrips(ctx, query.Origin, query.Destination, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to search trips: %w", err)
	}

	return toResponses(trips), nil
}

func toResponses(trips []Trip) []TripResponse {
	responses := make([]TripResponse, 0, len(trips))
	for i := range trips {
		responses = append(responses, trips[i].ToResponse())
	}
	return responses
}

// generateSeatLabels produces row-letter plus seat-number labels (A1..A4,
// B1..B4, ...), the common bus layout
func generateSeatLabels(rows, seatsPerRow int) []string {
	labels := make([]string, 0, rows*seatsPerRow)
	for row := 0; row < rows; row++ {
		for seat := 1; seat <= seatsPerRow; seat++ {
			labels = append(labels, fmt.Sprintf("%c%d", 'A'+row, seat))
		}
	}
	return labels
}
