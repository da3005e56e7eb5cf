package errors

import (
	"net/http"
)

// ErrorDetail is the wire shape of a single error.
type ErrorDetail struct {
	Message string                 `json:"message"`
	Hint    string                 `json:"hint,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse is the JSON body returned for failed API requests.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// NewErrorResponse converts any error into the wire shape.
func NewErrorResponse(err error) *ErrorResponse {
	if err == nil {
		return nil
	}
	return &ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Message: err.Error(),
			Hint:    HintFromErr(err),
			Details: DetailsFromErr(err),
		},
	}
}

// HTTPStatusFromErr maps error markers to HTTP status codes. Unclassified
// errors are treated as internal.
func HTTPStatusFromErr(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case IsPermissionDenied(err):
		return http.StatusForbidden
	case IsNotFound(err):
		return http.StatusNotFound
	case IsAlreadyExists(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
