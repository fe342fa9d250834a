package service

import (
	"errors"
	"fmt"

	"healthloop/internal/loyalty"
	"healthloop/internal/repository"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrSameLevel             = errors.New("already on this membership level")
	ErrUnknownPlan           = errors.New("unknown membership plan")
	ErrDowngradeNotSupported = errors.New("membership downgrade is not supported")
	ErrEmailTaken            = errors.New("email already registered")
	ErrInvalidCredentials    = errors.New("invalid email or password")

	// ErrInvalidAmount covers non-positive credits and totals that would overflow.
	ErrInvalidAmount = loyalty.ErrInvalidAmount
	// ErrUnknownAction means an action has no configured point value.
	ErrUnknownAction = loyalty.ErrUnknownAction
	// ErrStoreUnavailable is retryable.
	ErrStoreUnavailable = repository.ErrUnavailable
)

// storeErr translates repository errors into service errors.
func storeErr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if errors.Is(err, repository.ErrOutOfRange) {
		return fmt.Errorf("%s: %w", op, ErrInvalidAmount)
	}
	return fmt.Errorf("%s: %w", op, err)
}
