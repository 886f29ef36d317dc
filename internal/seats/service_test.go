package seats

import (
	"context"
	"errors"
	"testing"
	"time"

	"bustix/internal/shared/config"
	"bustix/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// Mocks

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateSeats(ctx context.Context, seats []TripSeat) error {
	args := m.Called(ctx, seats)
	return args.Error(0)
}

func (m *MockRepository) GetSeatsByTrip(ctx context.Context, tripID uuid.UUID) ([]TripSeat, error) {
	args := m.Called(ctx, tripID)
	return args.Get(0).([]TripSeat), args.Error(1)
}

func (m *MockRepository) GetSeatsByHold(ctx context.Context, holdID uuid.UUID) ([]TripSeat, error) {
	args := m.Called(ctx, holdID)
	return args.Get(0).([]TripSeat), args.Error(1)
}

func (m *MockRepository) CreateHold(ctx context.Context, hold *SeatHold) error {
	args := m.Called(ctx, hold)
	if hold.ID == uuid.Nil {
		hold.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockRepository) GetHoldByID(ctx context.Context, holdID uuid.UUID) (*SeatHold, error) {
	args := m.Called(ctx, holdID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SeatHold), args.Error(1)
}

func (m *MockRepository) MarkHoldReleased(ctx context.Context, holdID uuid.UUID, releasedAt time.Time) error {
	args := m.Called(ctx, holdID, releasedAt)
	return args.Error(0)
}

func (m *MockRepository) ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]SeatHold, error) {
	args := m.Called(ctx, now, limit)
	return args.Get(0).([]SeatHold), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Transition(ctx context.Context, tripID uuid.UUID, label string, expected, next SeatStatus, holdID *uuid.UUID) error {
	args := m.Called(ctx, tripID, label, expected, next, holdID)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) DeletePattern(ctx context.Context, pattern string) error {
	args := m.Called(ctx, pattern)
	return args.Error(0)
}

func (m *MockCache) Exists(ctx context.Context, key string) bool {
	args := m.Called(ctx, key)
	return args.Bool(0)
}

func (m *MockCache) SetIfAbsent(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, fetcher func() (interface{}, error), dest interface{}) error {
	args := m.Called(ctx, key, ttl, fetcher, dest)
	return args.Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockCheckoutExpirer struct {
	mock.Mock
}

func (m *MockCheckoutExpirer) ExpireCheckoutByHold(ctx context.Context, holdID uuid.UUID) (bool, error) {
	args := m.Called(ctx, holdID)
	return args.Bool(0), args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		Booking: config.BookingConfig{
			HoldTTL:         5 * time.Minute,
			SweepInterval:   15 * time.Second,
			SweepBatchSize:  100,
			MaxSeatsPerHold: 6,
		},
		Redis: config.RedisConfig{
			AvailabilityTTL: 30 * time.Second,
		},
	}
}

func newTestService(repo Repository, ledger Ledger, c *MockCache) *service {
	return NewService(repo, ledger, c, testConfig(), logger.New())
}

// AcquireHold

func TestAcquireHold_Success(t *testing.T) {
	repo := new(MockRepository)
	ledger := new(MockLedger)
	cacheSvc := new(MockCache)
	svc := newTestService(repo, ledger, cacheSvc)

	tripID := uuid.New()
	sessionID := uuid.New()

	repo.On("CreateHold", mock.Anything, mock.AnythingOfType("*seats.SeatHold")).Return(nil)
	ledger.On("Transition", mock.Anything, tripID, "A1", SeatFree, SeatHeld, mock.Anything).Return(nil)
	ledger.On("Transition", mock.Anything, tripID, "A2", SeatFree, SeatHeld, mock.Anything).Return(nil)
	cacheSvc.On("Delete", mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.AcquireHold(context.Background(), sessionID, HoldRequest{
		TripID: tripID.String(),
		Seats:  []string{"A1", "A2"},
	})

	assert.NoError(t, err)
	assert.NotNil(t, resp)
	assert.Equal(t, []string{"A1", "A2"}, resp.Seats)
	assert.True(t, resp.ExpiresAt.After(time.Now()))
	repo.AssertExpectations(t)
	ledger.AssertExpectations(t)
}

func TestAcquireHold_ConflictRollsBackAcquiredSeats(t *testing.T) {
	repo := new(MockRepository)
	ledger := new(MockLedger)
	cacheSvc := new(MockCache)
	svc := newTestService(repo, ledger, cacheSvc)

	tripID := uuid.New()
	sessionID := uuid.New()

	repo.On("CreateHold", mock.Anything, mock.AnythingOfType("*seats.SeatHold")).Return(nil)
	repo.On("MarkHoldReleased", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ledger.On("Transition", mock.Anything, tripID, "A1", SeatFree, SeatHeld, mock.Anything).Return(nil)
	ledger.On("Transition", mock.Anything, tripID, "A2", SeatFree, SeatHeld, mock.Anything).Return(ErrSeatConflict)
	// A1 must go back to FREE
	ledger.On("Transition", mock.Anything, tripID, "A1", SeatHeld, SeatFree, mock.Anything).Return(nil)

	resp, err := svc.AcquireHold(context.Background(), sessionID, HoldRequest{
		TripID: tripID.String(),
		Seats:  []string{"A1", "A2"},
	})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrSeatConflict)

	var conflict *HoldConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"A2"}, conflict.Labels)
	ledger.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestAcquireHold_ConflictNamesAllUnavailableSeats(t *testing.T) {
	repo := new(MockRepository)
	ledger := new(MockLedger)
	cacheSvc := new(MockCache)
	svc := newTestService(repo, ledger, cacheSvc)

	tripID := uuid.New()

	repo.On("CreateHold", mock.Anything, mock.Anything).Return(nil)
	repo.On("MarkHoldReleased", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ledger.On("Transition", mock.Anything, tripID, "B1", SeatFree, SeatHeld, mock.Anything).Return(ErrSeatConflict)
	ledger.On("Transition", mock.Anything, tripID, "B2", SeatFree, SeatHeld, mock.Anything).Return(nil)
	ledger.On("Transition", mock.Anything, tripID, "B3", SeatFree, SeatHeld, mock.Anything).Return(ErrSeatConflict)
	ledger.On("Transition", mock.Anything, tripID, "B2", SeatHeld, SeatFree, mock.Anything).Return(nil)

	_, err := svc.AcquireHold(context.Background(), uuid.New(), HoldRequest{
		TripID: tripID.String(),
		Seats:  []string{"B1", "B2", "B3"},
	})

	var conflict *HoldConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.ElementsMatch(t, []string{"B1", "B3"}, conflict.Labels)
}

func TestAcquireHold_TooManySeats(t *testing.T) {
	repo := new(MockRepository)
	ledger := new(MockLedger)
	cacheSvc := new(MockCache)
	svc := newTestService(repo, ledger, cacheSvc)

	_, err := svc.AcquireHold(context.Background(), uuid.New(), HoldRequest{
		TripID: uuid.New().String(),
		Seats:  []string{"A1", "A2", "A3", "A4", "B1", "B2", "B3"},
	})

	assert.ErrorIs(t, err, ErrTooManySeats)
	repo.AssertNotCalled(t, "CreateHold", mock.Anything, mock.Anything)
}

func TestAcquireHold_DuplicateLabelsCollapse(t *testing.T) {
	repo := new(MockRepository)
	ledger := new(MockLedger)
	cacheSvc := new(MockCache)
	svc := newTestService(repo, ledger, cacheSvc)

	tripID := uuid.New()

	repo.On("CreateHold", mock.Anything, mock.Anything).Return(nil)
	ledger.On("Transition", mock.Anything, tripID, "A1", SeatFree, SeatHeld, mock.Anything).Return(nil).Once()
	cacheSvc.On("Delete", mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.AcquireHold(context.Background(), uuid.New(), HoldRequest{
		TripID: tripID.String(),
		Seats:  []string{"A1", "A1", "A1"},
	})

	assert.NoError(t, err)
	assert.Equal(t, []string{"A1"}, resp.Seats)
	ledger.AssertExpectations(t)
}

// ReleaseHold

func TestReleaseHold_UnknownHoldIsNoOp(t *testing.T) {
	repo := new(MockRepository)
	ledger := new(MockLedger)
	cacheSvc := new(MockCache)
	svc := newTestService(repo, ledger, cacheSvc)

	holdID := uuid.New()
	repo.On("GetHoldByID", mock.Anything, holdID).Return(nil, gorm.ErrRecordNotFound)

	err := svc.ReleaseHold(context.Background(), holdID)

	assert.NoError(t, err)
	ledger.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReleaseHold_AlreadyReleasedIsNoOp(t *testing.T) {
	repo := new(MockRepository)
	ledger := new(MockLedger)
	cacheSvc := new(MockCache)
	svc := newTestService(repo, ledger, cacheSvc)

	holdID := uuid.New()
	releasedAt := time.Now().Add(-time.Minute)
	repo.On("GetHoldByID", mock.Anything, holdID).Return(&SeatHold{
		ID:         holdID,
		ReleasedAt: &releasedAt,
	}, nil)

	err := svc.ReleaseHold(context.Background(), holdID)

	assert.NoError(t, err)
	ledger.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReleaseHold_SkipsBookedSeats(t *testing.T) {
	repo := new(MockRepository)
	ledger := new(MockLedger)
	cacheSvc := new(MockCache)
	svc := newTestService(repo, ledger, cacheSvc)

	holdID := uuid.New()
	tripID := uuid.New()

	repo.On("GetHoldByID", mock.Anything, holdID).Return(&SeatHold{
		ID:        holdID,
		TripID:    tripID,
		ExpiresAt: time.Now().Add(time.Minute),
	}, nil)
	repo.On("GetSeatsByHold", mock.Anything, holdID).Return([]TripSeat{
		{TripID: tripID, Label: "A1", Status: SeatHeld, HoldID: &holdID},
		{TripID: tripID, Label: "A2", Status: SeatBooked, HoldID: &holdID},
	}, nil)
	repo.On("MarkHoldReleased", mock.Anything, holdID, mock.Anything).Return(nil)
	ledger.On("Transition", mock.Anything, tripID, "A1", SeatHeld, SeatFree, &holdID).Return(nil)
	cacheSvc.On("Delete", mock.Anything, mock.Anything).Return(nil)

	err := svc.ReleaseHold(context.Background(), holdID)

	assert.NoError(t, err)
	ledger.AssertNumberOfCalls(t, "Transition", 1)
}

func TestReleaseHold_ExpiresPendingCheckoutBeforeFreeingSeats(t *testing.T) {
	repo := new(MockRepository)
	ledger := new(MockLedger)
	cacheSvc := new(MockCache)
	svc := newTestService(repo, ledger, cacheSvc)

	expirer := new(MockCheckoutExpirer)
	svc.SetCheckoutExpirer(expirer)

	holdID := uuid.New()
	tripID := uuid.New()

	repo.On("GetHoldByID", mock.Anything, holdID).Return(&SeatHold{
		ID:        holdID,
		TripID:    tripID,
		ExpiresAt: time.Now().Add(time.Minute),
	}, nil)
	expirer.On("ExpireCheckoutByHold", mock.Anything, holdID).Return(true, nil)
	repo.On("GetSeatsByHold", mock.Anything, holdID).Return([]TripSeat{
		{TripID: tripID, Label: "A1", Status: SeatHeld, HoldID: &holdID},
	}, nil)
	ledger.On("Transition", mock.Anything, tripID, "A1", SeatHeld, SeatFree, &holdID).Return(nil)
	repo.On("MarkHoldReleased", mock.Anything, holdID, mock.Anything).Return(nil)
	cacheSvc.On("Delete", mock.Anything, mock.Anything).Return(nil)

	err := svc.ReleaseHold(context.Background(), holdID)

	assert.NoError(t, err)
	expirer.AssertExpectations(t)
	ledger.AssertExpectations(t)
}

func TestReleaseHold_AbortsWhenCheckoutExpiryFails(t *testing.T) {
	repo := new(MockRepository)
	ledger := new(MockLedger)
	cacheSvc := new(MockCache)
	svc := newTestService(repo, ledger, cacheSvc)

	expirer := new(MockCheckoutExpirer)
	svc.SetCheckoutExpirer(expirer)

	holdID := uuid.New()

	repo.On("GetHoldByID", mock.Anything, holdID).Return(&SeatHold{
		ID:        holdID,
		ExpiresAt: time.Now().Add(time.Minute),
	}, nil)
	expirer.On("ExpireCheckoutByHold", mock.Anything, holdID).Return(false, errors.New("db down"))

	err := svc.ReleaseHold(context.Background(), holdID)

	assert.Error(t, err)
	// The hold stays live so a retry or the sweeper can still reach it
	repo.AssertNotCalled(t, "MarkHoldReleased", mock.Anything, mock.Anything, mock.Anything)
	ledger.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// ValidateHold

func TestValidateHold_WrongOwner(t *testing.T) {
	repo := new(MockRepository)
	ledger := new(MockLedger)
	cacheSvc := new(MockCache)
	svc := newTestService(repo, ledger, cacheSvc)

	holdID := uuid.New()
	repo.On("GetHoldByID", mock.Anything, holdID).Return(&SeatHold{
		ID:        holdID,
		SessionID: uuid.New(),
		ExpiresAt: time.Now().Add(time.Minute),
	}, nil)

	_, _, err := svc.ValidateHold(context.Background(), holdID, uuid.New())

	assert.ErrorIs(t, err, ErrHoldNotFound)
}

func TestValidateHold_Expired(t *testing.T) {
	repo := new(MockRepository)
	ledger := new(MockLedger)
	cacheSvc := new(MockCache)
	svc := newTestService(repo, ledger, cacheSvc)

	holdID := uuid.New()
	sessionID := uuid.New()
	repo.On("GetHoldByID", mock.Anything, holdID).Return(&SeatHold{
		ID:        holdID,
		SessionID: sessionID,
		ExpiresAt: time.Now().Add(-time.Second),
	}, nil)

	_, _, err := svc.ValidateHold(context.Background(), holdID, sessionID)

	assert.ErrorIs(t, err, ErrHoldExpired)
}

// Sweep

func TestReleaseExpiredHolds_ExpiresCheckoutBeforeFreeingSeats(t *testing.T) {
	repo := new(MockRepository)
	ledger := new(MockLedger)
	cacheSvc := new(MockCache)
	svc := newTestService(repo, ledger, cacheSvc)

	expirer := new(MockCheckoutExpirer)
	svc.SetCheckoutExpirer(expirer)

	holdID := uuid.New()
	tripID := uuid.New()
	now := time.Now()

	repo.On("ListExpiredHolds", mock.Anything, now, 100).Return([]SeatHold{
		{ID: holdID, TripID: tripID, ExpiresAt: now.Add(-time.Minute)},
	}, nil)
	expirer.On("ExpireCheckoutByHold", mock.Anything, holdID).Return(true, nil)
	repo.On("GetSeatsByHold", mock.Anything, holdID).Return([]TripSeat{
		{TripID: tripID, Label: "A1", Status: SeatHeld, HoldID: &holdID},
	}, nil)
	ledger.On("Transition", mock.Anything, tripID, "A1", SeatHeld, SeatFree, &holdID).Return(nil)
	repo.On("MarkHoldReleased", mock.Anything, holdID, mock.Anything).Return(nil)
	cacheSvc.On("Delete", mock.Anything, mock.Anything).Return(nil)

	released, err := svc.ReleaseExpiredHolds(context.Background(), now)

	assert.NoError(t, err)
	assert.Equal(t, 1, released)
	expirer.AssertExpectations(t)
	ledger.AssertExpectations(t)
}

func TestReleaseExpiredHolds_SkipsHoldWhenCheckoutExpiryFails(t *testing.T) {
	repo := new(MockRepository)
	ledger := new(MockLedger)
	cacheSvc := new(MockCache)
	svc := newTestService(repo, ledger, cacheSvc)

	expirer := new(MockCheckoutExpirer)
	svc.SetCheckoutExpirer(expirer)

	holdID := uuid.New()
	now := time.Now()

	repo.On("ListExpiredHolds", mock.Anything, now, 100).Return([]SeatHold{
		{ID: holdID, ExpiresAt: now.Add(-time.Minute)},
	}, nil)
	expirer.On("ExpireCheckoutByHold", mock.Anything, holdID).Return(false, errors.New("db down"))

	released, err := svc.ReleaseExpiredHolds(context.Background(), now)

	assert.NoError(t, err)
	assert.Equal(t, 0, released)
	ledger.AssertNotCalled(t, "Transition", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
