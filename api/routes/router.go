// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"bustix/internal/auth"
	"bustix/internal/payments"
	"bustix/internal/reviews"
	"bustix/internal/seats"
	"bustix/internal/shared/config"
	"bustix/internal/shared/database"
	"bustix/internal/tickets"
	"bustix/internal/trips"
	"bustix/pkg/cache"
	"bustix/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config    *config.Config
	db        *database.DB
	publisher tickets.EventPublisher

	cacheService cache.Service
	seatService  seats.Service
	sweeper      *seats.Sweeper
}

// NewRouter creates a new router instance. The publisher may be nil when
// Kafka is disabled.
func NewRouter(cfg *config.Config, db *database.DB, publisher tickets.EventPublisher) *Router {
	return &Router{
		config:    cfg,
		db:        db,
		publisher: publisher,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.cacheService = cache.NewService(r.db.GetRedisClient())

	// Custom binding validators used by hold and rebook requests
	seats.RegisterValidators()

	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupAuthRoutes(api)
		r.setupBookingRoutes(api)
	}
}

// Sweeper returns the hold expiry sweeper so main can manage its lifecycle.
// Valid after SetupRoutes.
func (r *Router) Sweeper() *seats.Sweeper {
	return r.sweeper
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "bustix-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "bustix-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupAuthRoutes configures authentication routes
func (r *Router) setupAuthRoutes(rg *gin.RouterGroup) {
	authRepo := auth.NewRepository(r.db.GetPostgreSQL())
	authService := auth.NewService(authRepo, r.config)
	authController := auth.NewController(authService)

	auth.SetupAuthRoutes(rg, authController)
}

// setupBookingRoutes wires the booking core: seat ledger, hold manager,
// reservation workflow and the payment webhook, in dependency order
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	appLogger := logger.GetDefault()
	pg := r.db.GetPostgreSQL()

	// Seat ledger and hold manager
	seatRepo := seats.NewRepository(pg)
	seatLedger := seats.NewLedger(pg)
	seatService := seats.NewService(seatRepo, seatLedger, r.cacheService, r.config, appLogger)
	r.seatService = seatService

	// Trips, seeding the seat map through the seats service
	tripRepo := trips.NewRepository(pg)
	tripService := trips.NewService(tripRepo, seatService)
	tripController := trips.NewController(tripService)
	trips.SetupTripRoutes(rg, tripController)

	// Reservation workflow
	ticketRepo := tickets.NewRepository(pg)
	ticketService := tickets.NewService(ticketRepo, seatService, tripRepo, r.publisher, r.config, appLogger)
	ticketController := tickets.NewController(ticketService)
	tickets.SetupTicketRoutes(rg, ticketController)

	// The sweeper expires pending checkouts before it frees seats
	seatService.SetCheckoutExpirer(ticketService)
	seatController := seats.NewController(seatService)
	seats.SetupSeatRoutes(rg, seatController)

	r.sweeper = seats.NewSweeper(seatService, &seats.SweeperConfig{
		Interval:  r.config.Booking.SweepInterval,
		BatchSize: r.config.Booking.SweepBatchSize,
	}, appLogger)

	// Ticket reviews
	reviewRepo := reviews.NewRepository(pg)
	reviewService := reviews.NewService(reviewRepo, ticketService, appLogger)
	reviewController := reviews.NewController(reviewService)
	reviews.SetupReviewRoutes(rg, reviewController)

	// Payment gateway webhook
	paymentService := payments.NewService(ticketService, r.cacheService, r.config, appLogger)
	paymentController := payments.NewController(paymentService, appLogger)
	payments.SetupPaymentRoutes(rg, paymentController)
}
