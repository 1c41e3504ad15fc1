package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrAlreadyOwned       = errors.New("user already owns this course")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrBadCustomID        = errors.New("malformed custom id")
	ErrBadInitData        = errors.New("telegram init data verification failed")
	ErrInitDataReplayed   = errors.New("telegram init data already used")
	ErrInitDataExpired    = errors.New("telegram init data expired")
)
