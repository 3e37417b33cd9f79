package constants

import "fmt"

// Redis key layout. Pattern: kreede:{module}:{identifier}:{params?}

const (
	// LockKeyPrefix namespaces cancellation locks
	LockKeyPrefix = "kreede:lock:"

	rateLimitKeyPrefix = "kreede:ratelimit"
)

// BookingLockKey guards every cancellation touching one booking. The locker
// adds LockKeyPrefix.
func BookingLockKey(bookingID string) string {
	return fmt.Sprintf("booking:%s", bookingID)
}

// RegistrationLockKey guards cancellation of one event registration.
func RegistrationLockKey(registrationID string) string {
	return fmt.Sprintf("registration:%s", registrationID)
}

// RateLimitKey is the sliding window set for one client and limit class.
func RateLimitKey(clientIP, limitType string) string {
	return fmt.Sprintf("%s:%s:%s", rateLimitKeyPrefix, clientIP, limitType)
}
