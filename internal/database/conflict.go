package database

import (
	"errors"
	"strings"

	"github.com/lib/pq"

	"ms-canteen/internal/models"
)

// PostgreSQL SQLSTATE codes that mean "someone else touched the row, try again".
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqLockNotAvailable     = "55P03"
)

// IsConflict reports whether err is a retriable concurrent-update conflict.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, models.ErrConcurrentUpdateConflict) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqSerializationFailure, pqDeadlockDetected, pqLockNotAvailable:
			return true
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "sqlite_busy") ||
		strings.Contains(msg, "database table is locked")
}
