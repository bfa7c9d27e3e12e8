package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/kbukum/authkit/errors"
)

// IsConnectionError checks if a database error is a connection error
// that might be resolved by retrying.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(strings.ToLower(err.Error()),
		"connection refused",
		"connection reset",
		"broken pipe",
		"i/o timeout",
		"no route to host",
		"connection closed",
		"driver: bad connection",
	)
}

// IsNotFoundError checks if the error is a GORM record-not-found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports a unique-constraint violation. Drivers that do not
// translate their errors are matched on their message.
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return containsAny(strings.ToLower(err.Error()),
		"unique constraint failed",
		"duplicate key value",
		"sqlstate 23505",
	)
}

// FromError converts a database error to an AppError. Not-found errors are
// left to the caller since only it knows which resource was missing.
func FromError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	if IsNotFoundError(err) {
		return err
	}
	if IsDuplicateError(err) {
		return apperrors.Conflict("An existing " + resource + " already uses these details.").WithCause(err)
	}
	if IsConnectionError(err) {
		appErr := apperrors.DatabaseError(err)
		appErr.Message = "Database is temporarily unavailable. Please try again."
		return appErr
	}
	return apperrors.DatabaseError(err)
}

func containsAny(s string, patterns ...string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
