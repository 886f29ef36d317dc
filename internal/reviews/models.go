package reviews

import (
	"time"

	"github.com/google/uuid"
)

// Review is one rider's verdict on one ticket. One review per ticket;
// resubmitting overwrites the previous one.
type Review struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TicketID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"ticket_id"`
	TripID    uuid.UUID `gorm:"type:uuid;not null;index" json:"trip_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Rating    int       `gorm:"not null;check:rating BETWEEN 1 AND 5" json:"rating"`
	Title     string    `gorm:"type:varchar(120);not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	ImageURL  string    `gorm:"type:varchar(500)" json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for Review
func (Review) TableName() string {
	return "ticket_reviews"
}

// ReviewRequest is the body for submitting or replacing a ticket's review
type ReviewRequest struct {
	Rating   int    `json:"rating" binding:"required,min=1,max=5"`
	Title    string `json:"title" binding:"required,max=120"`
	Content  string `json:"content" binding:"required,max=2000"`
	ImageURL string `json:"image_url" binding:"omitempty,url,max=500"`
}

// ReviewResponse is the API shape for a review
type ReviewResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	TripID    string    `json:"trip_id"`
	Rating    int       `json:"rating"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Review) ToResponse() ReviewResponse {
	return ReviewResponse{
		ID:        r.ID.String(),
		TicketID:  r.TicketID.String(),
		TripID:    r.TripID.String(),
		Rating:    r.Rating,
		Title:     r.Title,
		Content:   r.Content,
		ImageURL:  r.ImageURL,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// TripReviewsResponse is the paginated review feed for a trip with its
// aggregate rating
type TripReviewsResponse struct {
	TripID        string           `json:"trip_id"`
	Reviews       []ReviewResponse `json:"reviews"`
	ReviewCount   int64            `json:"review_count"`
	AverageRating float64          `json:"average_rating"`
}
