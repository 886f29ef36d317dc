package reviews

import (
	"context"
	"errors"
	"fmt"

	"bustix/internal/tickets"
	"bustix/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrTicketNotReviewable = errors.New("only confirmed tickets can be reviewed")

// TicketGetter resolves a ticket for the caller. Satisfied by the tickets
// service; ownership is enforced there.
type TicketGetter interface {
	GetTicket(ctx context.Context, userID, ticketID uuid.UUID) (*tickets.TicketResponse, error)
}

type Service interface {
	// SubmitReview creates the review for a confirmed ticket, or replaces the
	// existing one
	SubmitReview(ctx context.Context, userID, ticketID uuid.UUID, req ReviewRequest) (*ReviewResponse, error)

	ListTripReviews(ctx context.Context, tripID uuid.UUID, limit, offset int) (*TripReviewsResponse, error)
}

type service struct {
	repo      Repository
	ticketSvc TicketGetter
	logger    *logger.Logger
}

func NewService(repo Repository, ticketSvc TicketGetter, log *logger.Logger) Service {
	return &service{
		repo:      repo,
		ticketSvc: ticketSvc,
		logger:    log,
	}
}

func (s *service) SubmitReview(ctx context.Context, userID, ticketID uuid.UUID, req ReviewRequest) (*ReviewResponse, error) {
	ticket, err := s.ticketSvc.GetTicket(ctx, userID, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != string(tickets.TicketConfirmed) {
		return nil, ErrTicketNotReviewable
	}
	tripID, err := uuid.Parse(ticket.TripID)
	if err != nil {
		return nil, fmt.Errorf("invalid trip ID on ticket: %w", err)
	}

	existing, err := s.repo.GetReviewByTicket(ctx, ticketID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up review: %w", err)
	}
	if existing != nil {
		existing.Rating = req.Rating
		existing.Title = req.Title
		existing.Content = req.Content
		existing.ImageURL = req.ImageURL
		if err := s.repo.UpdateReview(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to update review: %w", err)
		}
		resp := existing.ToResponse()
		return &resp, nil
	}

	review := &Review{
		TicketID: ticketID,
		TripID:   tripID,
		UserID:   userID,
		Rating:   req.Rating,
		Title:    req.Title,
		Content:  req.Content,
		ImageURL: req.ImageURL,
	}
	if err := s.repo.CreateReview(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.logger.InfoContext(ctx, "review submitted",
		"ticket_id", ticketID.String(),
		"trip_id", tripID.String(),
		"rating", req.Rating,
	)
	resp := review.ToResponse()
	return &resp, nil
}

func (s *service) ListTripReviews(ctx context.Context, tripID uuid.UUID, limit, offset int) (*TripReviewsResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	reviews, err := s.repo.ListReviewsByTrip(ctx, tripID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	count, average, err := s.repo.GetTripRatingStats(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating stats: %w", err)
	}

	responses := make([]ReviewResponse, 0, len(reviews))
	for i := range reviews {
		responses = append(responses, reviews[i].ToResponse())
	}
	return &TripReviewsResponse{
		TripID:        tripID.String(),
		Reviews:       responses,
		ReviewCount:   count,
		AverageRating: average,
	}, nil
}
