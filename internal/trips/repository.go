package trips

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	CreateTrip(ctx context.Context, trip *Trip) error
	GetTripByID(ctx context.Context, id uuid.UUID) (*Trip, error)
	ListTrips(ctx context.Context, limit, offset int) ([]Trip, error)
	SearchTrips(ctx context.Context, origin, destination string, dayStart, dayEnd *time.Time) ([]Trip, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateTrip(ctx context.Context, trip *Trip) error {
	return r.db.WithContext(ctx).Create(trip).Error
}

func (r *repository) GetTripByID(ctx context.Context, id uuid.UUID) (*Trip, error) {
	var trip Trip
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&trip).Error
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

func (r *repository) ListTrips(ctx context.Context, limit, offset int) ([]Trip, error) {
	var trips []Trip
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusScheduled).
		Order("departure_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&trips).Error
	return trips, err
}

func (r *repository) SearchTrips(ctx context.Context, origin, destination string, dayStart, dayEnd *time.Time) ([]Trip, error) {
	query := r.db.WithContext(ctx).Model(&Trip{}).Where("status = ?", StatusScheduled)

	if origin != "" {
		query = query.Where("origin ILIKE ?", origin)
	}
	if destination != "" {
		query = query.Where("destination ILIKE ?", destination)
	}
	if dayStart != nil && dayEnd != nil {
		query = query.Where("departure_at >= ? AND departure_at < ?", *dayStart, *dayEnd)
	}

	var trips []Trip
	err := query.Order("departure_at ASC").Find(&trips).Error
	return trips, err
}
