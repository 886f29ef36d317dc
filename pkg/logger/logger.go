package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger wraps slog.Logger with additional functionality
type Logger struct {
	*slog.Logger
}

// New creates a new logger instance
func New() *Logger {
	level := getLogLevel(os.Getenv("LOG_LEVEL"))

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	// Text handler for development, JSON for production
	var handler slog.Handler
	if gin.Mode() == gin.DebugMode {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// getLogLevel converts string to slog.Level
func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRequestID adds request ID to logger context
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("request_id", requestID)),
	}
}

// WithUserID adds user ID to logger context
func (l *Logger) WithUserID(userID string) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("user_id", userID)),
	}
}

// WithError adds error to logger context
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("error", err.Error())),
	}
}

// HTTP logging methods

// LogHTTPRequest logs an HTTP request
func (l *Logger) LogHTTPRequest(c *gin.Context, duration time.Duration) {
	l.Logger.InfoContext(c.Request.Context(),
		"HTTP Request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("query", c.Request.URL.RawQuery),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", duration),
		slog.String("ip", c.ClientIP()),
		slog.String("user_agent", c.Request.UserAgent()),
		slog.Int("size", c.Writer.Size()),
	)
}

// LogHTTPError logs an HTTP error
func (l *Logger) LogHTTPError(c *gin.Context, err error, statusCode int) {
	l.Logger.ErrorContext(c.Request.Context(),
		"HTTP Error",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.Int("status", statusCode),
		slog.String("error", err.Error()),
		slog.String("ip", c.ClientIP()),
	)
}

// Booking flow logging methods

// LogHoldAcquired logs a successful seat hold
func (l *Logger) LogHoldAcquired(ctx context.Context, holdID, tripID string, seatCount int, ttl time.Duration) {
	l.Logger.InfoContext(ctx,
		"Seat Hold Acquired",
		slog.String("hold_id", holdID),
		slog.String("trip_id", tripID),
		slog.Int("seat_count", seatCount),
		slog.Duration("ttl", ttl),
	)
}

// LogHoldReleased logs a hold release
func (l *Logger) LogHoldReleased(ctx context.Context, holdID string, seatCount int) {
	l.Logger.InfoContext(ctx,
		"Seat Hold Released",
		slog.String("hold_id", holdID),
		slog.Int("seats_released", seatCount),
	)
}

// LogCheckoutStarted logs the start of a booking attempt
func (l *Logger) LogCheckoutStarted(ctx context.Context, attemptID, holdID, userID string) {
	l.Logger.InfoContext(ctx,
		"Checkout Started",
		slog.String("attempt_id", attemptID),
		slog.String("hold_id", holdID),
		slog.String("user_id", userID),
	)
}

// LogPaymentConfirmed logs a confirmed payment
func (l *Logger) LogPaymentConfirmed(ctx context.Context, attemptID, paymentRef string, amount float64) {
	l.Logger.InfoContext(ctx,
		"Payment Confirmed",
		slog.String("attempt_id", attemptID),
		slog.String("payment_ref", paymentRef),
		slog.Float64("amount", amount),
	)
}

// LogPaymentRejected logs a rejected payment notification
func (l *Logger) LogPaymentRejected(ctx context.Context, paymentRef, reason string) {
	l.Logger.WarnContext(ctx,
		"Payment Rejected",
		slog.String("payment_ref", paymentRef),
		slog.String("reason", reason),
	)
}

// LogTicketCancelled logs a ticket cancellation
func (l *Logger) LogTicketCancelled(ctx context.Context, ticketID, userID string) {
	l.Logger.InfoContext(ctx,
		"Ticket Cancelled",
		slog.String("ticket_id", ticketID),
		slog.String("user_id", userID),
	)
}

// LogSweepPass logs a hold expiry sweep pass
func (l *Logger) LogSweepPass(ctx context.Context, released int, duration time.Duration) {
	l.Logger.DebugContext(ctx,
		"Hold Expiry Sweep",
		slog.Int("holds_released", released),
		slog.Duration("duration", duration),
	)
}

// Security logging methods

// LogAuthSuccess logs successful authentication
func (l *Logger) LogAuthSuccess(ctx context.Context, userID, method string) {
	l.Logger.InfoContext(ctx,
		"Authentication Success",
		slog.String("user_id", userID),
		slog.String("method", method),
	)
}

// LogAuthFailure logs failed authentication
func (l *Logger) LogAuthFailure(ctx context.Context, reason, ip string) {
	l.Logger.WarnContext(ctx,
		"Authentication Failure",
		slog.String("reason", reason),
		slog.String("ip", ip),
	)
}

// LogWebhookRejected logs an unauthenticated or malformed webhook delivery
func (l *Logger) LogWebhookRejected(ctx context.Context, reason, ip string) {
	l.Logger.WarnContext(ctx,
		"Webhook Rejected",
		slog.String("reason", reason),
		slog.String("ip", ip),
	)
}

// LogRateLimitExceeded logs rate limit exceeded
func (l *Logger) LogRateLimitExceeded(ctx context.Context, ip, endpoint string) {
	l.Logger.WarnContext(ctx,
		"Rate Limit Exceeded",
		slog.String("ip", ip),
		slog.String("endpoint", endpoint),
	)
}

// Helper methods for common patterns

// InfoWithContext logs an info message with context
func (l *Logger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.InfoContext(ctx, msg, args...)
}

// ErrorWithContext logs an error message with context
func (l *Logger) ErrorWithContext(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2+2)
	args = append(args, slog.String("error", err.Error()))
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.ErrorContext(ctx, msg, args...)
}

// Global logger instance (can be replaced with dependency injection)
var defaultLogger = New()

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger instance
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
