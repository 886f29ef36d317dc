package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	CreateReview(ctx context.Context, review *Review) error
	UpdateReview(ctx context.Context, review *Review) error
	GetReviewByTicket(ctx context.Context, ticketID uuid.UUID) (*Review, error)
	ListReviewsByTrip(ctx context.Context, tripID uuid.UUID, limit, offset int) ([]Review, error)

	// GetTripRatingStats returns the review count and average rating for a trip
	GetTripRatingStats(ctx context.Context, tripID uuid.UUID) (int64, float64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateReview(ctx context.Context, review *Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *repository) UpdateReview(ctx context.Context, review *Review) error {
	return r.db.WithContext(ctx).Save(review).Error
}

func (r *repository) GetReviewByTicket(ctx context.Context, ticketID uuid.UUID) (*Review, error) {
	var review Review
	err := r.db.WithContext(ctx).Where("ticket_id = ?", ticketID).First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *repository) ListReviewsByTrip(ctx context.Context, tripID uuid.UUID, limit, offset int) ([]Review, error) {
	var reviews []Review
	err := r.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reviews).Error
	return reviews, err
}

func (r *repository) GetTripRatingStats(ctx context.Context, tripID uuid.UUID) (int64, float64, error) {
	var stats struct {
		Count   int64
		Average float64
	}
	err := r.db.WithContext(ctx).
		Model(&Review{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS average").
		Where("trip_id = ?", tripID).
		Scan(&stats).Error
	if err != nil {
		return 0, 0, err
	}
	return stats.Count, stats.Average, nil
}
