package constants

import "fmt"

// Redis key prefixes. Everything this service writes to Redis lives under
// the "bustix:" namespace so keys can be inspected and flushed per concern.
const (
	PrefixAvailability = "bustix:availability:"
	PrefixWebhookDedup = "bustix:payment_ref:"
	PrefixRateLimit    = "bustix:ratelimit:"
)

// BuildTripAvailabilityKey returns the cache key for a trip's seat snapshot
func BuildTripAvailabilityKey(tripID string) string {
	return fmt.Sprintf("%s%s", PrefixAvailability, tripID)
}

// BuildWebhookDedupKey returns the idempotency marker key for one external
// payment reference
func BuildWebhookDedupKey(paymentRef string) string {
	return fmt.Sprintf("%s%s", PrefixWebhookDedup, paymentRef)
}
