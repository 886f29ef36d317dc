package seats

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger owns seat status transitions. Every transition is a single guarded
// UPDATE; the row version check in the WHERE clause is the only
// synchronization between competing buyers, the sweeper and the payment
// webhook.
type Ledger interface {
	// Transition atomically moves one seat from expected to next. When
	// expected is HELD, holdID must match the seat's current hold. When next
	// is HELD, holdID is stamped onto the seat. Returns ErrSeatNotFound or
	// ErrSeatConflict on failure.
	Transition(ctx context.Context, tripID uuid.UUID, label string, expected, next SeatStatus, holdID *uuid.UUID) error
}

type ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) Ledger {
	return &ledger{db: db}
}

func (l *ledger) Transition(ctx context.Context, tripID uuid.UUID, label string, expected, next SeatStatus, holdID *uuid.UUID) error {
	updates := map[string]interface{}{"status": next}
	if next == SeatHeld {
		updates["hold_id"] = holdID
	} else {
		updates["hold_id"] = nil
	}

	query := l.db.WithContext(ctx).
		Model(&TripSeat{}).
		Where("trip_id = ? AND label = ? AND status = ?", tripID, label, expected)
	if expected == SeatHeld && holdID != nil {
		// Guard against releasing a seat that was re-held by someone else
		query = query.Where("hold_id = ?", *holdID)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("seat transition failed: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// Nothing matched. Distinguish a missing seat from a lost race.
	var seat TripSeat
	err := l.db.WithContext(ctx).
		Where("trip_id = ? AND label = ?", tripID, label).
		First(&seat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrSeatNotFound, label)
	}
	if err != nil {
		return fmt.Errorf("seat lookup failed: %w", err)
	}
	return fmt.Errorf("%w: %s is %s", ErrSeatConflict, label, seat.Status)
}
