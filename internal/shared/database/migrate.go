package database

import (
	"bustix/internal/auth"
	"bustix/internal/reviews"
	"bustix/internal/seats"
	"bustix/internal/tickets"
	"bustix/internal/trips"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&auth.User{},
		&trips.Trip{},
		&seats.TripSeat{},
		&seats.SeatHold{},
		&tickets.BookingAttempt{},
		&tickets.Ticket{},
		&reviews.Review{},
	)
}
