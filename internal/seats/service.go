package seats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bustix/internal/shared/config"
	"bustix/internal/shared/constants"
	"bustix/pkg/cache"
	"bustix/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service interface {
	// CreateSeatsForTrip seeds the seat map for a freshly created trip
	CreateSeatsForTrip(ctx context.Context, tripID uuid.UUID, labels []string) error

	// AcquireHold holds every requested seat or none of them
	AcquireHold(ctx context.Context, sessionID uuid.UUID, req HoldRequest) (*HoldResponse, error)

	// ReleaseHold frees a hold's remaining HELD seats. Safe to call twice and
	// safe to call on an unknown hold.
	ReleaseHold(ctx context.Context, holdID uuid.UUID) error

	// ValidateHold returns the hold and its seats when the hold is live and
	// owned by sessionID
	ValidateHold(ctx context.Context, holdID, sessionID uuid.UUID) (*SeatHold, []TripSeat, error)

	// GetHold returns a hold regardless of state
	GetHold(ctx context.Context, holdID uuid.UUID) (*SeatHold, []TripSeat, error)

	// ListAvailability returns the seat map snapshot for a trip, served from
	// cache when fresh enough
	ListAvailability(ctx context.Context, tripID uuid.UUID) (*AvailabilityResponse, error)

	// InvalidateAvailability drops the cached snapshot after a booking or
	// cancellation mutates the ledger
	InvalidateAvailability(ctx context.Context, tripID uuid.UUID)

	// Ledger exposes the seat transition primitive to the booking workflow
	Ledger() Ledger

	// ReleaseExpiredHolds is the sweep body; returns how many holds it released
	ReleaseExpiredHolds(ctx context.Context, now time.Time) (int, error)
}

// CheckoutExpirer lets the sweeper expire a pending checkout attached to a
// hold before freeing the seats. Implemented by the tickets service; wired
// after construction to break the package cycle.
type CheckoutExpirer interface {
	ExpireCheckoutByHold(ctx context.Context, holdID uuid.UUID) (bool, error)
}

type service struct {
	repo            Repository
	ledger          Ledger
	cache           cache.Service
	cfg             *config.Config
	logger          *logger.Logger
	checkoutExpirer CheckoutExpirer
}

func NewService(repo Repository, ledger Ledger, cacheService cache.Service, cfg *config.Config, log *logger.Logger) *service {
	return &service{
		repo:   repo,
		ledger: ledger,
		cache:  cacheService,
		cfg:    cfg,
		logger: log,
	}
}

// SetCheckoutExpirer wires the tickets service in after both services exist
func (s *service) SetCheckoutExpirer(expirer CheckoutExpirer) {
	s.checkoutExpirer = expirer
}

func (s *service) Ledger() Ledger {
	return s.ledger
}

func (s *service) CreateSeatsForTrip(ctx context.Context, tripID uuid.UUID, labels []string) error {
	seats := make([]TripSeat, 0, len(labels))
	for _, label := range labels {
		seats = append(seats, TripSeat{
			TripID: tripID,
			Label:  label,
			Status: SeatFree,
		})
	}
	if err := s.repo.CreateSeats(ctx, seats); err != nil {
		return fmt.Errorf("failed to seed trip seats: %w", err)
	}
	return nil
}

func (s *service) AcquireHold(ctx context.Context, sessionID uuid.UUID, req HoldRequest) (*HoldResponse, error) {
	tripID, err := uuid.Parse(req.TripID)
	if err != nil {
		return nil, fmt.Errorf("invalid trip ID: %w", err)
	}

	labels := dedupeLabels(req.Seats)
	if len(labels) == 0 {
		return nil, fmt.Errorf("no seats requested")
	}
	if len(labels) > s.cfg.Booking.MaxSeatsPerHold {
		return nil, fmt.Errorf("%w: max %d per hold", ErrTooManySeats, s.cfg.Booking.MaxSeatsPerHold)
	}

	// The hold row exists before any seat flips so a crash mid-acquire still
	// leaves the sweeper something to clean up
	hold := &SeatHold{
		TripID:    tripID,
		SessionID: sessionID,
		ExpiresAt: time.Now().Add(s.cfg.Booking.HoldTTL),
	}
	if err := s.repo.CreateHold(ctx, hold); err != nil {
		return nil, fmt.Errorf("failed to create hold: %w", err)
	}

	acquired := make([]string, 0, len(labels))
	var conflicts []string
	var hardErr error
	for _, label := range labels {
		err := s.ledger.Transition(ctx, tripID, label, SeatFree, SeatHeld, &hold.ID)
		if err == nil {
			acquired = append(acquired, label)
			continue
		}
		if errors.Is(err, ErrSeatConflict) || errors.Is(err, ErrSeatNotFound) {
			conflicts = append(conflicts, label)
			continue
		}
		hardErr = err
		break
	}

	if len(conflicts) > 0 || hardErr != nil {
		// All or nothing: give back whatever we grabbed
		s.rollbackAcquired(ctx, tripID, hold.ID, acquired)
		s.markReleased(ctx, hold.ID)
		if hardErr != nil {
			return nil, fmt.Errorf("failed to acquire hold: %w", hardErr)
		}
		return nil, &HoldConflictError{Labels: conflicts}
	}

	s.InvalidateAvailability(ctx, tripID)
	s.logger.LogHoldAcquired(ctx, hold.ID.String(), tripID.String(), len(acquired), s.cfg.Booking.HoldTTL)

	return &HoldResponse{
		HoldID:    hold.ID.String(),
		TripID:    tripID.String(),
		Seats:     acquired,
		ExpiresAt: hold.ExpiresAt,
	}, nil
}

func (s *service) ReleaseHold(ctx context.Context, holdID uuid.UUID) error {
	hold, err := s.repo.GetHoldByID(ctx, holdID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Releasing an unknown hold is a no-op
			return nil
		}
		return fmt.Errorf("failed to load hold: %w", err)
	}
	if hold.IsReleased() {
		return nil
	}

	// Giving up a hold abandons any checkout on it. Expire the attempt first
	// so a late webhook sees a terminal attempt, same as the sweep path.
	if s.checkoutExpirer != nil {
		if _, err := s.checkoutExpirer.ExpireCheckoutByHold(ctx, hold.ID); err != nil {
			return fmt.Errorf("failed to expire checkout for hold: %w", err)
		}
	}

	released, err := s.releaseSeats(ctx, hold)
	if err != nil {
		return err
	}
	s.markReleased(ctx, hold.ID)
	s.InvalidateAvailability(ctx, hold.TripID)
	s.logger.LogHoldReleased(ctx, hold.ID.String(), released)
	return nil
}

// releaseSeats frees every seat still HELD under the hold. Seats already
// promoted to BOOKED stay put.
func (s *service) releaseSeats(ctx context.Context, hold *SeatHold) (int, error) {
	seats, err := s.repo.GetSeatsByHold(ctx, hold.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to list held seats: %w", err)
	}

	released := 0
	for i := range seats {
		if seats[i].Status != SeatHeld {
			continue
		}
		err := s.ledger.Transition(ctx, hold.TripID, seats[i].Label, SeatHeld, SeatFree, &hold.ID)
		if err == nil {
			released++
			continue
		}
		if errors.Is(err, ErrSeatConflict) || errors.Is(err, ErrSeatNotFound) {
			// Lost the race to a booking; that is fine
			continue
		}
		return released, fmt.Errorf("failed to release seat %s: %w", seats[i].Label, err)
	}
	return released, nil
}

func (s *service) ValidateHold(ctx context.Context, holdID, sessionID uuid.UUID) (*SeatHold, []TripSeat, error) {
	hold, err := s.repo.GetHoldByID(ctx, holdID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrHoldNotFound
		}
		return nil, nil, fmt.Errorf("failed to load hold: %w", err)
	}
	if hold.SessionID != sessionID {
		return nil, nil, ErrHoldNotFound
	}
	if hold.IsReleased() || hold.IsExpired(time.Now()) {
		return nil, nil, ErrHoldExpired
	}

	seats, err := s.repo.GetSeatsByHold(ctx, holdID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list held seats: %w", err)
	}
	return hold, seats, nil
}

func (s *service) GetHold(ctx context.Context, holdID uuid.UUID) (*SeatHold, []TripSeat, error) {
	hold, err := s.repo.GetHoldByID(ctx, holdID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrHoldNotFound
		}
		return nil, nil, fmt.Errorf("failed to load hold: %w", err)
	}
	seats, err := s.repo.GetSeatsByHold(ctx, holdID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list held seats: %w", err)
	}
	return hold, seats, nil
}

func (s *service) ListAvailability(ctx context.Context, tripID uuid.UUID) (*AvailabilityResponse, error) {
	key := constants.BuildTripAvailabilityKey(tripID.String())

	var snapshot AvailabilityResponse
	err := s.cache.GetOrSet(ctx, key, s.cfg.Redis.AvailabilityTTL, func() (interface{}, error) {
		return s.buildAvailability(ctx, tripID)
	}, &snapshot)
	if err != nil {
		// Cache trouble must not take browsing down
		fresh, buildErr := s.buildAvailability(ctx, tripID)
		if buildErr != nil {
			return nil, buildErr
		}
		return fresh, nil
	}
	return &snapshot, nil
}

func (s *service) buildAvailability(ctx context.Context, tripID uuid.UUID) (*AvailabilityResponse, error) {
	seats, err := s.repo.GetSeatsByTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trip seats: %w", err)
	}
	if len(seats) == 0 {
		return nil, ErrSeatNotFound
	}

	views := make([]SeatView, 0, len(seats))
	freeCount := 0
	for i := range seats {
		if seats[i].Status == SeatFree {
			freeCount++
		}
		views = append(views, SeatView{
			Label:  seats[i].Label,
			Status: string(seats[i].Status),
		})
	}
	return &AvailabilityResponse{
		TripID:    tripID.String(),
		Seats:     views,
		FreeCount: freeCount,
		FetchedAt: time.Now(),
	}, nil
}

func (s *service) InvalidateAvailability(ctx context.Context, tripID uuid.UUID) {
	key := constants.BuildTripAvailabilityKey(tripID.String())
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate availability cache", "trip_id", tripID.String(), "error", err.Error())
	}
}

func (s *service) ReleaseExpiredHolds(ctx context.Context, now time.Time) (int, error) {
	holds, err := s.repo.ListExpiredHolds(ctx, now, s.cfg.Booking.SweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired holds: %w", err)
	}

	released := 0
	for i := range holds {
		hold := &holds[i]

		// A pending checkout on this hold must lose first, so a webhook that
		// arrives after the sweep sees a terminal attempt and gets rejected
		if s.checkoutExpirer != nil {
			if _, err := s.checkoutExpirer.ExpireCheckoutByHold(ctx, hold.ID); err != nil {
				s.logger.ErrorWithContext(ctx, "failed to expire checkout for hold", err, map[string]interface{}{
					"hold_id": hold.ID.String(),
				})
				continue
			}
		}

		if _, err := s.releaseSeats(ctx, hold); err != nil {
			s.logger.ErrorWithContext(ctx, "failed to release expired hold", err, map[string]interface{}{
				"hold_id": hold.ID.String(),
			})
			continue
		}
		s.markReleased(ctx, hold.ID)
		s.InvalidateAvailability(ctx, hold.TripID)
		released++
	}
	return released, nil
}

func (s *service) rollbackAcquired(ctx context.Context, tripID, holdID uuid.UUID, labels []string) {
	for _, label := range labels {
		err := s.ledger.Transition(ctx, tripID, label, SeatHeld, SeatFree, &holdID)
		if err != nil && !errors.Is(err, ErrSeatConflict) && !errors.Is(err, ErrSeatNotFound) {
			s.logger.ErrorWithContext(ctx, "failed to roll back held seat", err, map[string]interface{}{
				"trip_id": tripID.String(),
				"label":   label,
			})
		}
	}
}

func (s *service) markReleased(ctx context.Context, holdID uuid.UUID) {
	if err := s.repo.MarkHoldReleased(ctx, holdID, time.Now()); err != nil {
		s.logger.WarnContext(ctx, "failed to mark hold released", "hold_id", holdID.String(), "error", err.Error())
	}
}

func dedupeLabels(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}
