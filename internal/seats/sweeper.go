package seats

import (
	"context"
	"time"

	"bustix/pkg/logger"
)

// Sweeper periodically releases expired holds so seats return to the pool
// even when buyers walk away without cancelling
type Sweeper struct {
	service Service
	config  *SweeperConfig
	logger  *logger.Logger
	done    chan struct{}
}

// SweeperConfig contains configuration for the expiry sweep
type SweeperConfig struct {
	Interval  time.Duration
	BatchSize int
}

// DefaultSweeperConfig returns default sweep configuration
func DefaultSweeperConfig() *SweeperConfig {
	return &SweeperConfig{
		Interval:  15 * time.Second,
		BatchSize: 100,
	}
}

// NewSweeper creates a new hold expiry sweeper
func NewSweeper(service Service, config *SweeperConfig, log *logger.Logger) *Sweeper {
	if config == nil {
		config = DefaultSweeperConfig()
	}
	return &Sweeper{
		service: service,
		config:  config,
		logger:  log,
		done:    make(chan struct{}),
	}
}

// Start starts the background sweep loop
func (sw *Sweeper) Start(ctx context.Context) {
	sw.logger.Info("Starting hold expiry sweeper", "interval", sw.config.Interval.String())
	go sw.run(ctx)
}

// Stop stops the sweep loop
func (sw *Sweeper) Stop() {
	sw.logger.Info("Stopping hold expiry sweeper")
	close(sw.done)
}

func (sw *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(sw.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sw.sweep(ctx)
		case <-sw.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (sw *Sweeper) sweep(ctx context.Context) {
	start := time.Now()
	released, err := sw.service.ReleaseExpiredHolds(ctx, start)
	if err != nil {
		sw.logger.ErrorWithContext(ctx, "hold expiry sweep failed", err, nil)
		return
	}
	sw.logger.LogSweepPass(ctx, released, time.Since(start))
}
