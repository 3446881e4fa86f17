package apiclient

import (
	"fmt"
	"net/http"
)

// APIError represents an error response from the hub. The message comes
// from the JSON body; the machine-readable code from the X-Error-Code
// header.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"-"`
	Message    string `json:"error"`

	// Quota admission failures carry the numbers needed to act on them.
	Namespace string `json:"namespace,omitempty"`
	Requested int64  `json:"requested,omitempty"`
	Available int64  `json:"available,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// IsAuthError returns true if the request lacked valid credentials or
// permission.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsNotFound returns true if the addressed resource does not exist.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsConflict returns true if the request clashed with existing state.
func (e *APIError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

// IsValidationError returns true if the request was malformed.
func (e *APIError) IsValidationError() bool {
	return e.Code == "validation-error"
}

// IsQuotaExceeded returns true if the request was refused by storage
// quota admission.
func (e *APIError) IsQuotaExceeded() bool {
	return e.Code == "quota-exceeded"
}
