package errors

import (
	"github.com/cockroachdb/errors"
)

// Marker errors used to classify failures across the codebase. Errors are
// tagged with a marker via the builder's Mark and checked with errors.Is so
// wrapping never hides the classification.
var (
	ErrValidation       = errors.New("validation_error")
	ErrNotFound         = errors.New("not_found")
	ErrAlreadyExists    = errors.New("already_exists")
	ErrVersionConflict  = errors.New("version_conflict")
	ErrPermissionDenied = errors.New("permission_denied")
	ErrDatabase         = errors.New("database_error")
	ErrHTTPClient       = errors.New("http_client_error")
	ErrSystem           = errors.New("system_error")
	ErrInternal         = errors.New("internal_error")
)

// IsNotFound checks if an error indicates a resource was not found
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error indicates a uniqueness conflict
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsDatabase checks if an error came from the persistence layer
func IsDatabase(err error) bool {
	return errors.Is(err, ErrDatabase)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsPermissionDenied checks if an error is an authorization failure
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsSystem checks if an error indicates a misconfigured or unavailable system
func IsSystem(err error) bool {
	return errors.Is(err, ErrSystem)
}

// IsHTTPClient checks if an error came from an upstream HTTP call
func IsHTTPClient(err error) bool {
	return errors.Is(err, ErrHTTPClient)
}
