package models

import "errors"

var (
	ErrEmployeeNotFound         = errors.New("employee not found")
	ErrInsufficientBalance      = errors.New("insufficient ticket balance")
	ErrNoTicketsAvailable       = errors.New("no tickets available")
	ErrInvalidAmount            = errors.New("amount must be greater than zero")
	ErrInsufficientData         = errors.New("insufficient data for analysis")
	ErrInvalidBatch             = errors.New("invalid consumption batch")
	ErrSummarizationFailed      = errors.New("summarization failed")
	ErrConcurrentUpdateConflict = errors.New("concurrent update conflict")
	ErrTransientFailure         = errors.New("transient failure, please retry")
	ErrDuplicateScan            = errors.New("duplicate scan still in progress")
	ErrEmployeeExists           = errors.New("employee already exists")

	// Returned by scan capabilities and passed through unchanged.
	ErrNoMatch     = errors.New("no matching employee for scan")
	ErrDeviceError = errors.New("scan device error")
)
