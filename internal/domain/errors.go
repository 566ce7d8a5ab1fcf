package domain

import "errors"

// Domain errors
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrProgressNotFound    = errors.New("game progress not found")
	ErrAchievementNotFound = errors.New("achievement not found")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrInvalidStars        = errors.New("star amount must not be negative")
	ErrInvalidPayload      = errors.New("invalid payload")
	ErrInternalError       = errors.New("internal server error")
)

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrProgressNotFound) ||
		errors.Is(err, ErrAchievementNotFound)
}

// IsValidationError checks if an error was caused by a rejected payload
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidPayload) || errors.Is(err, ErrInvalidStars)
}
