package seats

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	CreateSeats(ctx context.Context, seats []TripSeat) error
	GetSeatsByTrip(ctx context.Context, tripID uuid.UUID) ([]TripSeat, error)
	GetSeatsByHold(ctx context.Context, holdID uuid.UUID) ([]TripSeat, error)

	CreateHold(ctx context.Context, hold *SeatHold) error
	GetHoldByID(ctx context.Context, holdID uuid.UUID) (*SeatHold, error)
	MarkHoldReleased(ctx context.Context, holdID uuid.UUID, releasedAt time.Time) error
	ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]SeatHold, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateSeats(ctx context.Context, seats []TripSeat) error {
	return r.db.WithContext(ctx).CreateInBatches(seats, 100).Error
}

func (r *repository) GetSeatsByTrip(ctx context.Context, tripID uuid.UUID) ([]TripSeat, error) {
	var seats []TripSeat
	err := r.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Order("label ASC").
		Find(&seats).Error
	return seats, err
}

func (r *repository) GetSeatsByHold(ctx context.Context, holdID uuid.UUID) ([]TripSeat, error) {
	var seats []TripSeat
	err := r.db.WithContext(ctx).
		Where("hold_id = ?", holdID).
		Order("label ASC").
		Find(&seats).Error
	return seats, err
}

func (r *repository) CreateHold(ctx context.Context, hold *SeatHold) error {
	return r.db.WithContext(ctx).Create(hold).Error
}

func (r *repository) GetHoldByID(ctx context.Context, holdID uuid.UUID) (*SeatHold, error) {
	var hold SeatHold
	err := r.db.WithContext(ctx).Where("id = ?", holdID).First(&hold).Error
	if err != nil {
		return nil, err
	}
	return &hold, nil
}

func (r *repository) MarkHoldReleased(ctx context.Context, holdID uuid.UUID, releasedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&SeatHold{}).
		Where("id = ? AND released_at IS NULL", holdID).
		Update("released_at", releasedAt).Error
}

func (r *repository) ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]SeatHold, error) {
	var holds []SeatHold
	err := r.db.WithContext(ctx).
		Where("expires_at <= ? AND released_at IS NULL", now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&holds).Error
	return holds, err
}
