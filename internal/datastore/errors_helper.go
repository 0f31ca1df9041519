// Package datastore provides error handling helpers for database operations
package datastore

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tphakala/nutritive-go/internal/errors"
)

// dbError creates a properly categorized database error with context
func dbError(err error, operation string, context ...any) error {
	builder := errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation)

	for i := 0; i < len(context)-1; i += 2 {
		if key, ok := context[i].(string); ok {
			builder = builder.Context(key, context[i+1])
		}
	}

	return builder.Build()
}

// validationError creates a validation error for a rejected field value
func validationError(message, field string, value any) error {
	return errors.Newf("%s", message).
		Component("datastore").
		Category(errors.CategoryValidation).
		Context("field", field).
		Context("value", fmt.Sprintf("%v", value)).
		Build()
}

// notFoundError creates a not-found error for a missing record
func notFoundError(entity, id string) error {
	return errors.Newf("%s not found", entity).
		Component("datastore").
		Category(errors.CategoryNotFound).
		Priority(errors.PriorityLow).
		Context("id", id).
		Build()
}

// conflictError creates a conflict error for a uniqueness violation
func conflictError(message, field string) error {
	return errors.Newf("%s", message).
		Component("datastore").
		Category(errors.CategoryConflict).
		Priority(errors.PriorityLow).
		Context("field", field).
		Build()
}

// lookupError maps a gorm lookup failure to not-found or database errors
func lookupError(err error, entity, id, operation string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundError(entity, id)
	}
	return dbError(err, operation, "id", id)
}

// categorizeError returns a metrics label for a database error
func categorizeError(err error) string {
	if err == nil {
		return "none"
	}

	switch {
	case errors.IsCategory(err, errors.CategoryValidation):
		return "validation"
	case errors.IsCategory(err, errors.CategoryConflict):
		return "conflict"
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "unique constraint") || strings.Contains(errStr, "duplicate"):
		return "constraint_violation"
	case strings.Contains(errStr, "database is locked"):
		return "database_locked"
	case strings.Contains(errStr, "connection"):
		return "connection_error"
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline"):
		return "timeout"
	case strings.Contains(errStr, "syntax"):
		return "syntax_error"
	default:
		return "other"
	}
}

// isConstraintViolation reports whether err is a uniqueness violation
func isConstraintViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || categorizeError(err) == "constraint_violation"
}
