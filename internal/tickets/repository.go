package tickets

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	CreateAttempt(ctx context.Context, attempt *BookingAttempt) error
	GetAttemptByID(ctx context.Context, id uuid.UUID) (*BookingAttempt, error)
	GetAttemptByCode(ctx context.Context, code string) (*BookingAttempt, error)
	GetPendingAttemptByHold(ctx context.Context, holdID uuid.UUID) (*BookingAttempt, error)

	// TransitionAttempt is the attempt-level compare and set. Returns true
	// when this call performed the transition.
	TransitionAttempt(ctx context.Context, id uuid.UUID, from, to AttemptStatus, paymentRef string) (bool, error)

	CreateTickets(ctx context.Context, tickets []Ticket) error
	GetTicketByID(ctx context.Context, id uuid.UUID) (*Ticket, error)
	GetTicketsByAttempt(ctx context.Context, attemptID uuid.UUID) ([]Ticket, error)
	GetTicketsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Ticket, error)
	UpdateTicketsStatusByAttempt(ctx context.Context, attemptID uuid.UUID, from, to TicketStatus) error
	CancelTicket(ctx context.Context, id uuid.UUID, cancelledAt time.Time) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateAttempt(ctx context.Context, attempt *BookingAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *repository) GetAttemptByID(ctx context.Context, id uuid.UUID) (*BookingAttempt, error) {
	var attempt BookingAttempt
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *repository) GetAttemptByCode(ctx context.Context, code string) (*BookingAttempt, error) {
	var attempt BookingAttempt
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *repository) GetPendingAttemptByHold(ctx context.Context, holdID uuid.UUID) (*BookingAttempt, error) {
	var attempt BookingAttempt
	err := r.db.WithContext(ctx).
		Where("hold_id = ? AND status = ?", holdID, AttemptAwaitingPayment).
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *repository) TransitionAttempt(ctx context.Context, id uuid.UUID, from, to AttemptStatus, paymentRef string) (bool, error) {
	updates := map[string]interface{}{"status": to}
	if paymentRef != "" {
		updates["payment_ref"] = paymentRef
	}

	result := r.db.WithContext(ctx).
		Model(&BookingAttempt{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) CreateTickets(ctx context.Context, tickets []Ticket) error {
	return r.db.WithContext(ctx).Create(&tickets).Error
}

func (r *repository) GetTicketByID(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	var ticket Ticket
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ticket).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *repository) GetTicketsByAttempt(ctx context.Context, attemptID uuid.UUID) ([]Ticket, error) {
	var tickets []Ticket
	err := r.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("seat_label ASC").
		Find(&tickets).Error
	return tickets, err
}

func (r *repository) GetTicketsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Ticket, error) {
	var tickets []Ticket
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&tickets).Error
	return tickets, err
}

func (r *repository) UpdateTicketsStatusByAttempt(ctx context.Context, attemptID uuid.UUID, from, to TicketStatus) error {
	return r.db.WithContext(ctx).
		Model(&Ticket{}).
		Where("attempt_id = ? AND status = ?", attemptID, from).
		Update("status", to).Error
}

func (r *repository) CancelTicket(ctx context.Context, id uuid.UUID, cancelledAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&Ticket{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       TicketCancelled,
			"cancelled_at": cancelledAt,
		}).Error
}
