package tickets

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"bustix/internal/seats"
	"bustix/internal/shared/config"
	"bustix/internal/trips"
	"bustix/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrAttemptNotFound          = errors.New("booking attempt not found")
	ErrTicketNotFound           = errors.New("ticket not found")
	ErrTicketNotConfirmed       = errors.New("ticket is not confirmed")
	ErrCancellationWindowClosed = errors.New("cancellation window closed")
)

// TripGetter provides trip details for pricing and the cancellation window.
// Satisfied by the trips repository.
type TripGetter interface {
	GetTripByID(ctx context.Context, id uuid.UUID) (*trips.Trip, error)
}

// EventPublisher pushes ticket lifecycle events to the message broker.
// Implemented by the notifications producer; a nil publisher disables events.
type EventPublisher interface {
	PublishTicketConfirmed(ctx context.Context, attempt *BookingAttempt, tickets []Ticket) error
	PublishTicketCancelled(ctx context.Context, ticket *Ticket) error
	PublishCheckoutExpired(ctx context.Context, attempt *BookingAttempt) error
}

type Service interface {
	StartCheckout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*CheckoutResponse, error)

	// ConfirmPayment applies a verified payment notification. Returns a result
	// rather than an error for business rejections; the caller answers the
	// gateway based on the result status.
	ConfirmPayment(ctx context.Context, code, paymentRef string, amount float64) (*ConfirmResult, error)

	// ExpireCheckoutByHold moves the pending attempt on a hold to EXPIRED.
	// Called by the hold sweeper before it frees the seats. Returns whether an
	// attempt was expired.
	ExpireCheckoutByHold(ctx context.Context, holdID uuid.UUID) (bool, error)

	CancelTicket(ctx context.Context, userID, ticketID uuid.UUID) (*TicketResponse, error)
	RebookTicket(ctx context.Context, userID, ticketID uuid.UUID, req RebookRequest) (*RebookResponse, error)

	ListMyTickets(ctx context.Context, userID uuid.UUID, limit, offset int) ([]TicketResponse, error)
	GetTicket(ctx context.Context, userID, ticketID uuid.UUID) (*TicketResponse, error)
	GetPaymentStatus(ctx context.Context, userID uuid.UUID, code string) (*PaymentStatusResponse, error)
}

type service struct {
	repo      Repository
	seatSvc   seats.Service
	tripSvc   TripGetter
	publisher EventPublisher
	cfg       *config.Config
	logger    *logger.Logger
}

func NewService(repo Repository, seatSvc seats.Service, tripSvc TripGetter, publisher EventPublisher, cfg *config.Config, log *logger.Logger) Service {
	return &service{
		repo:      repo,
		seatSvc:   seatSvc,
		tripSvc:   tripSvc,
		publisher: publisher,
		cfg:       cfg,
		logger:    log,
	}
}

func (s *service) StartCheckout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*CheckoutResponse, error) {
	holdID, err := uuid.Parse(req.HoldID)
	if err != nil {
		return nil, fmt.Errorf("invalid hold ID: %w", err)
	}

	hold, heldSeats, err := s.seatSvc.ValidateHold(ctx, holdID, userID)
	if err != nil {
		return nil, err
	}

	// Checking out the same hold twice returns the open attempt
	if existing, err := s.repo.GetPendingAttemptByHold(ctx, holdID); err == nil {
		return s.buildCheckoutResponse(ctx, existing)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up checkout: %w", err)
	}

	trip, err := s.tripSvc.GetTripByID(ctx, hold.TripID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trip: %w", err)
	}

	held := make([]seats.TripSeat, 0, len(heldSeats))
	for i := range heldSeats {
		if heldSeats[i].Status == seats.SeatHeld {
			held = append(held, heldSeats[i])
		}
	}
	if len(held) == 0 {
		return nil, seats.ErrHoldExpired
	}

	code, err := generateAttemptCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate booking code: %w", err)
	}

	attempt := &BookingAttempt{
		Code:      code,
		HoldID:    holdID,
		TripID:    hold.TripID,
		UserID:    userID,
		Amount:    trip.BasePrice * float64(len(held)),
		Currency:  s.cfg.Booking.Currency,
		Status:    AttemptAwaitingPayment,
		ExpiresAt: hold.ExpiresAt,
	}
	if err := s.repo.CreateAttempt(ctx, attempt); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent checkout on the same hold won the partial unique
			// index race; hand back its attempt instead of a second code
			existing, lookupErr := s.repo.GetPendingAttemptByHold(ctx, holdID)
			if lookupErr != nil {
				return nil, fmt.Errorf("failed to look up checkout: %w", lookupErr)
			}
			return s.buildCheckoutResponse(ctx, existing)
		}
		return nil, fmt.Errorf("failed to create booking attempt: %w", err)
	}

	ticketRows := make([]Ticket, 0, len(held))
	for i := range held {
		ticketRows = append(ticketRows, Ticket{
			TicketCode: fmt.Sprintf("%s-%s", code, held[i].Label),
			AttemptID:  attempt.ID,
			TripID:     hold.TripID,
			UserID:     userID,
			SeatID:     held[i].ID,
			SeatLabel:  held[i].Label,
			Price:      trip.BasePrice,
			Status:     TicketPendingPayment,
		})
	}
	if err := s.repo.CreateTickets(ctx, ticketRows); err != nil {
		return nil, fmt.Errorf("failed to create tickets: %w", err)
	}

	s.logger.LogCheckoutStarted(ctx, attempt.ID.String(), holdID.String(), userID.String())

	return &CheckoutResponse{
		Code:      attempt.Code,
		Amount:    attempt.Amount,
		Currency:  attempt.Currency,
		ExpiresAt: attempt.ExpiresAt,
		Status:    string(attempt.Status),
		Tickets:   toTicketResponses(ticketRows),
	}, nil
}

func (s *service) ConfirmPayment(ctx context.Context, code, paymentRef string, amount float64) (*ConfirmResult, error) {
	attempt, err := s.repo.GetAttemptByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.reject(ctx, code, paymentRef, "no booking attempt for code"), nil
		}
		return nil, fmt.Errorf("failed to look up attempt: %w", err)
	}

	if attempt.Status == AttemptConfirmed {
		if attempt.PaymentRef == paymentRef {
			// Gateway redelivery of a payment we already applied
			return &ConfirmResult{Status: ConfirmDuplicate, Code: code}, nil
		}
		return s.reject(ctx, code, paymentRef, "attempt already paid by another transfer"), nil
	}
	if attempt.IsTerminal() {
		return s.reject(ctx, code, paymentRef, fmt.Sprintf("attempt is %s", attempt.Status)), nil
	}
	if amount != attempt.Amount {
		return s.reject(ctx, code, paymentRef, fmt.Sprintf("amount mismatch: got %.0f want %.0f", amount, attempt.Amount)), nil
	}
	if time.Now().After(attempt.ExpiresAt) {
		// The sweeper has not caught this one yet; expire it now
		if _, err := s.expireAttempt(ctx, attempt); err != nil {
			return nil, err
		}
		return s.reject(ctx, code, paymentRef, "checkout expired before payment arrived"), nil
	}

	// The attempt row is the idempotency gate: exactly one caller wins this
	// transition for a given attempt
	won, err := s.repo.TransitionAttempt(ctx, attempt.ID, AttemptAwaitingPayment, AttemptConfirmed, paymentRef)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm attempt: %w", err)
	}
	if !won {
		current, err := s.repo.GetAttemptByID(ctx, attempt.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to re-read attempt: %w", err)
		}
		if current.Status == AttemptConfirmed && current.PaymentRef == paymentRef {
			return &ConfirmResult{Status: ConfirmDuplicate, Code: code}, nil
		}
		return s.reject(ctx, code, paymentRef, fmt.Sprintf("attempt moved to %s concurrently", current.Status)), nil
	}

	// Promote the seats. The sweeper may race us on each one; the ledger
	// decides per seat and a single loss aborts the whole booking.
	ticketRows, err := s.repo.GetTicketsByAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tickets: %w", err)
	}

	ledger := s.seatSvc.Ledger()
	booked := make([]string, 0, len(ticketRows))
	var lostSeat string
	for i := range ticketRows {
		err := ledger.Transition(ctx, attempt.TripID, ticketRows[i].SeatLabel, seats.SeatHeld, seats.SeatBooked, &attempt.HoldID)
		if err == nil {
			booked = append(booked, ticketRows[i].SeatLabel)
			continue
		}
		if errors.Is(err, seats.ErrSeatConflict) || errors.Is(err, seats.ErrSeatNotFound) {
			lostSeat = ticketRows[i].SeatLabel
			break
		}
		return nil, fmt.Errorf("failed to book seat %s: %w", ticketRows[i].SeatLabel, err)
	}

	if lostSeat != "" {
		// Hold was swept out from under us. Undo what we booked and fail the
		// attempt so the buyer gets refunded out of band.
		for _, label := range booked {
			if err := ledger.Transition(ctx, attempt.TripID, label, seats.SeatBooked, seats.SeatFree, nil); err != nil {
				s.logger.ErrorWithContext(ctx, "failed to revert booked seat", err, map[string]interface{}{
					"trip_id": attempt.TripID.String(),
					"label":   label,
				})
			}
		}
		if _, err := s.repo.TransitionAttempt(ctx, attempt.ID, AttemptConfirmed, AttemptExpired, ""); err != nil {
			return nil, fmt.Errorf("failed to expire attempt after lost seats: %w", err)
		}
		if err := s.repo.UpdateTicketsStatusByAttempt(ctx, attempt.ID, TicketPendingPayment, TicketCancelled); err != nil {
			return nil, fmt.Errorf("failed to cancel tickets after lost seats: %w", err)
		}
		s.seatSvc.InvalidateAvailability(ctx, attempt.TripID)
		return s.reject(ctx, code, paymentRef, fmt.Sprintf("seat %s was released before payment arrived", lostSeat)), nil
	}

	if err := s.repo.UpdateTicketsStatusByAttempt(ctx, attempt.ID, TicketPendingPayment, TicketConfirmed); err != nil {
		return nil, fmt.Errorf("failed to confirm tickets: %w", err)
	}

	// The hold is spent; this frees nothing (seats are BOOKED) but closes the
	// hold row so the sweeper ignores it
	if err := s.seatSvc.ReleaseHold(ctx, attempt.HoldID); err != nil {
		s.logger.WarnContext(ctx, "failed to close hold after confirmation", "hold_id", attempt.HoldID.String(), "error", err.Error())
	}
	s.seatSvc.InvalidateAvailability(ctx, attempt.TripID)

	s.logger.LogPaymentConfirmed(ctx, attempt.ID.String(), paymentRef, amount)
	if s.publisher != nil {
		attempt.Status = AttemptConfirmed
		attempt.PaymentRef = paymentRef
		if err := s.publisher.PublishTicketConfirmed(ctx, attempt, ticketRows); err != nil {
			s.logger.WarnContext(ctx, "failed to publish ticket confirmed event", "code", code, "error", err.Error())
		}
	}

	return &ConfirmResult{Status: ConfirmAccepted, Code: code}, nil
}

func (s *service) ExpireCheckoutByHold(ctx context.Context, holdID uuid.UUID) (bool, error) {
	attempt, err := s.repo.GetPendingAttemptByHold(ctx, holdID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to look up pending attempt: %w", err)
	}
	return s.expireAttempt(ctx, attempt)
}

func (s *service) expireAttempt(ctx context.Context, attempt *BookingAttempt) (bool, error) {
	won, err := s.repo.TransitionAttempt(ctx, attempt.ID, AttemptAwaitingPayment, AttemptExpired, "")
	if err != nil {
		return false, fmt.Errorf("failed to expire attempt: %w", err)
	}
	if !won {
		// Lost to a concurrent confirmation; the seats belong to the buyer now
		return false, nil
	}
	if err := s.repo.UpdateTicketsStatusByAttempt(ctx, attempt.ID, TicketPendingPayment, TicketCancelled); err != nil {
		return false, fmt.Errorf("failed to cancel tickets on expiry: %w", err)
	}
	if s.publisher != nil {
		if err := s.publisher.PublishCheckoutExpired(ctx, attempt); err != nil {
			s.logger.WarnContext(ctx, "failed to publish checkout expired event", "code", attempt.Code, "error", err.Error())
		}
	}
	return true, nil
}

func (s *service) CancelTicket(ctx context.Context, userID, ticketID uuid.UUID) (*TicketResponse, error) {
	ticket, err := s.loadOwnedTicket(ctx, userID, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != TicketConfirmed {
		return nil, ErrTicketNotConfirmed
	}

	trip, err := s.tripSvc.GetTripByID(ctx, ticket.TripID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trip: %w", err)
	}
	if time.Until(trip.DepartureAt) < s.cfg.Booking.CancellationCutoff {
		return nil, ErrCancellationWindowClosed
	}

	if err := s.seatSvc.Ledger().Transition(ctx, ticket.TripID, ticket.SeatLabel, seats.SeatBooked, seats.SeatFree, nil); err != nil {
		if !errors.Is(err, seats.ErrSeatConflict) && !errors.Is(err, seats.ErrSeatNotFound) {
			return nil, fmt.Errorf("failed to free seat: %w", err)
		}
		// Seat already moved on; the ticket still gets cancelled
		s.logger.WarnContext(ctx, "seat not in BOOKED state during cancellation", "ticket_id", ticketID.String(), "error", err.Error())
	}

	now := time.Now()
	if err := s.repo.CancelTicket(ctx, ticket.ID, now); err != nil {
		return nil, fmt.Errorf("failed to cancel ticket: %w", err)
	}
	ticket.Status = TicketCancelled
	ticket.CancelledAt = &now

	s.seatSvc.InvalidateAvailability(ctx, ticket.TripID)
	s.logger.LogTicketCancelled(ctx, ticket.ID.String(), userID.String())
	if s.publisher != nil {
		if err := s.publisher.PublishTicketCancelled(ctx, ticket); err != nil {
			s.logger.WarnContext(ctx, "failed to publish ticket cancelled event", "ticket_id", ticket.ID.String(), "error", err.Error())
		}
	}

	resp := ticket.ToResponse()
	return &resp, nil
}

func (s *service) RebookTicket(ctx context.Context, userID, ticketID uuid.UUID, req RebookRequest) (*RebookResponse, error) {
	ticket, err := s.loadOwnedTicket(ctx, userID, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != TicketConfirmed {
		return nil, ErrTicketNotConfirmed
	}

	trip, err := s.tripSvc.GetTripByID(ctx, ticket.TripID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trip: %w", err)
	}
	if time.Until(trip.DepartureAt) < s.cfg.Booking.CancellationCutoff {
		return nil, ErrCancellationWindowClosed
	}

	// Secure the replacement first. If the new seats are taken the old ticket
	// is untouched.
	hold, err := s.seatSvc.AcquireHold(ctx, userID, seats.HoldRequest{
		TripID: req.TripID,
		Seats:  req.Seats,
	})
	if err != nil {
		return nil, err
	}

	checkout, err := s.StartCheckout(ctx, userID, CheckoutRequest{HoldID: hold.HoldID})
	if err != nil {
		s.releaseHoldQuietly(ctx, hold.HoldID)
		return nil, err
	}

	cancelled, err := s.CancelTicket(ctx, userID, ticketID)
	if err != nil {
		s.releaseHoldQuietly(ctx, hold.HoldID)
		return nil, err
	}

	return &RebookResponse{
		CancelledTicket: *cancelled,
		NewCheckout:     *checkout,
	}, nil
}

func (s *service) ListMyTickets(ctx context.Context, userID uuid.UUID, limit, offset int) ([]TicketResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	ticketRows, err := s.repo.GetTicketsByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return toTicketResponses(ticketRows), nil
}

func (s *service) GetTicket(ctx context.Context, userID, ticketID uuid.UUID) (*TicketResponse, error) {
	ticket, err := s.loadOwnedTicket(ctx, userID, ticketID)
	if err != nil {
		return nil, err
	}
	resp := ticket.ToResponse()
	return &resp, nil
}

func (s *service) GetPaymentStatus(ctx context.Context, userID uuid.UUID, code string) (*PaymentStatusResponse, error) {
	attempt, err := s.repo.GetAttemptByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to look up attempt: %w", err)
	}
	if attempt.UserID != userID {
		return nil, ErrAttemptNotFound
	}
	return &PaymentStatusResponse{
		Code:      attempt.Code,
		Status:    string(attempt.Status),
		Amount:    attempt.Amount,
		Currency:  attempt.Currency,
		ExpiresAt: attempt.ExpiresAt,
	}, nil
}

func (s *service) buildCheckoutResponse(ctx context.Context, attempt *BookingAttempt) (*CheckoutResponse, error) {
	ticketRows, err := s.repo.GetTicketsByAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tickets: %w", err)
	}
	return &CheckoutResponse{
		Code:      attempt.Code,
		Amount:    attempt.Amount,
		Currency:  attempt.Currency,
		ExpiresAt: attempt.ExpiresAt,
		Status:    string(attempt.Status),
		Tickets:   toTicketResponses(ticketRows),
	}, nil
}

func (s *service) loadOwnedTicket(ctx context.Context, userID, ticketID uuid.UUID) (*Ticket, error) {
	ticket, err := s.repo.GetTicketByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to load ticket: %w", err)
	}
	if ticket.UserID != userID {
		return nil, ErrTicketNotFound
	}
	return ticket, nil
}

func (s *service) reject(ctx context.Context, code, paymentRef, reason string) *ConfirmResult {
	s.logger.LogPaymentRejected(ctx, paymentRef, reason)
	return &ConfirmResult{Status: ConfirmRejected, Reason: reason, Code: code}
}

func (s *service) releaseHoldQuietly(ctx context.Context, holdID string) {
	id, err := uuid.Parse(holdID)
	if err != nil {
		return
	}
	if err := s.seatSvc.ReleaseHold(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to release rebook hold", "hold_id", holdID, "error", err.Error())
	}
}

func toTicketResponses(ticketRows []Ticket) []TicketResponse {
	responses := make([]TicketResponse, 0, len(ticketRows))
	for i := range ticketRows {
		responses = append(responses, ticketRows[i].ToResponse())
	}
	return responses
}

// generateAttemptCode generates the code buyers put in the bank transfer
// description, e.g. BUS-20260830-KQWZPA
func generateAttemptCode() (string, error) {
	timestamp := time.Now().Format("20060102")

	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	randomPart := make([]byte, 6)
	for i := range randomPart {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		randomPart[i] = letters[num.Int64()]
	}

	return fmt.Sprintf("BUS-%s-%s", timestamp, string(randomPart)), nil
}
