package shopping

import (
	"errors"
	"fmt"

	"mealshare_echo/internal/models"
)

var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrPlanNotFound           = errors.New("plan not found")
	ErrInvalidMentionKey      = errors.New("mention key is empty")
	ErrMalformedMention       = models.ErrMalformedMention
	ErrPersistence            = errors.New("persistence failure")
	ErrDeliveryFailure        = errors.New("delivery failure")
	ErrHubClosed              = errors.New("broadcast hub closed")
)

// persistenceError wraps both ErrPersistence and the underlying cause.
func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
