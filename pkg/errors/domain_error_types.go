package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DomainErrorType is the category a DomainError belongs to; it decides the
// HTTP status
type DomainErrorType string

const (
	DomainValidationError   DomainErrorType = "VALIDATION_ERROR"
	DomainBusinessRuleError DomainErrorType = "BUSINESS_RULE_ERROR"
	DomainNotFoundError     DomainErrorType = "NOT_FOUND"
	DomainConflictError     DomainErrorType = "CONFLICT"

	// DomainExternalError marks a collaborating service that failed or
	// answered with something the engine cannot use
	DomainExternalError DomainErrorType = "EXTERNAL_ERROR"
)

var domainErrorStatus = map[DomainErrorType]int{
	DomainValidationError:   http.StatusBadRequest,
	DomainBusinessRuleError: http.StatusUnprocessableEntity,
	DomainNotFoundError:     http.StatusNotFound,
	DomainConflictError:     http.StatusConflict,
	DomainExternalError:     http.StatusBadGateway,
}

// DomainError is a taxonomy engine error. Two DomainErrors match under
// errors.Is when their type and code agree, whatever their details.
type DomainError struct {
	Type       DomainErrorType        `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StatusCode int                    `json:"status_code"`
}

// NewDomainError creates a domain error with the status of its type
func NewDomainError(errorType DomainErrorType, code string, message string) *DomainError {
	status, ok := domainErrorStatus[errorType]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &DomainError{
		Type:       errorType,
		Code:       code,
		Message:    message,
		Details:    make(map[string]interface{}),
		StatusCode: status,
	}
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Type, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// Clone returns a copy with its own details map. Sentinels are shared, so
// anything that attaches details or a cause must work on a clone.
func (e *DomainError) Clone() *DomainError {
	clone := *e
	clone.Details = make(map[string]interface{}, len(e.Details))
	for k, v := range e.Details {
		clone.Details[k] = v
	}
	return &clone
}

// WithCause sets the underlying error
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds one detail
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	e.Details[key] = value
	return e
}

func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// ValidationErrors collects field failures so a request reports all of
// them at once
type ValidationErrors struct {
	Errors []*DomainError `json:"errors"`
}

// NewValidationErrors creates an empty collection
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{}
}

// Add records a failure on field
func (v *ValidationErrors) Add(field string, message string) {
	v.Errors = append(v.Errors,
		NewDomainError(DomainValidationError, "FIELD_VALIDATION_ERROR", message).WithDetail("field", field))
}

// AddError records an already built domain error
func (v *ValidationErrors) AddError(err *DomainError) {
	v.Errors = append(v.Errors, err)
}

// HasErrors reports whether anything was recorded
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}
	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Message
	}
	return "validation failed: " + strings.Join(messages, "; ")
}

// ToMap groups messages by field; errors without one land under "general"
func (v *ValidationErrors) ToMap() map[string][]string {
	result := make(map[string][]string)
	for _, err := range v.Errors {
		field, ok := err.Details["field"].(string)
		if !ok {
			field = "general"
		}
		result[field] = append(result[field], err.Message)
	}
	return result
}

// DomainErrorResponse is the JSON envelope for a DomainError
type DomainErrorResponse struct {
	Error     bool                   `json:"error"`
	Type      DomainErrorType        `json:"type"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewDomainErrorResponse builds the envelope for err
func NewDomainErrorResponse(err *DomainError, requestID string) *DomainErrorResponse {
	return &DomainErrorResponse{
		Error:     true,
		Type:      err.Type,
		Code:      err.Code,
		Message:   err.Message,
		Details:   err.Details,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
	}
}
