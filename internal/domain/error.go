package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")

	// Storage errors. Transient from the caller's point of view.
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context")

	// Purchase flow
	ErrLabelConflict      = errors.New("payment label already in use")
	ErrPrivilegedUser     = errors.New("privileged user does not need to purchase")
	ErrPaymentsDisabled   = errors.New("payment gateway is not configured")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrRateLimited        = errors.New("too many requests")
	ErrLockHeld           = errors.New("lock is held by another worker")

	// Content delivery
	ErrAccessDenied = errors.New("access to video is missing or expired")
	ErrNoFileID     = errors.New("video has no file attached")
	ErrTransport    = errors.New("chat transport failure")
)

// IsStorage reports whether err is a store failure that a periodic driver may retry.
func IsStorage(err error) bool {
	return errors.Is(err, ErrOperationFailed) || errors.Is(err, ErrReadDatabaseRow)
}
