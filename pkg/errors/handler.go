package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// traceHeader is set by API Gateway and the X-Ray middleware
const traceHeader = "X-Amzn-Trace-Id"

// ErrorResponse is the JSON envelope for everything that is not a
// DomainError
type ErrorResponse struct {
	Error     bool                   `json:"error"`
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
}

// ErrorHandler turns errors into JSON responses and logs them. In debug
// mode causes and stacks are included in the response details.
type ErrorHandler struct {
	logger *zap.Logger
	debug  bool
}

// NewErrorHandler creates an error handler
func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	return &ErrorHandler{logger: logger, debug: debug}
}

// Handle writes the response for err; a nil err writes nothing
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	requestID := chimiddleware.GetReqID(r.Context())
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", requestID),
	}

	if domainErr := GetDomainError(err); domainErr != nil {
		response := NewDomainErrorResponse(domainErr, requestID)
		if h.debug && domainErr.Cause != nil {
			response.Details = withDetail(domainErr.Details, "cause", domainErr.Cause.Error())
		}
		fields = append(fields, zap.String("error_code", domainErr.Code), zap.Any("details", domainErr.Details))
		if domainErr.Cause != nil {
			fields = append(fields, zap.NamedError("cause", domainErr.Cause))
		}
		h.log(domainErr.StatusCode, domainErr.Message, fields)
		h.sendJSON(w, domainErr.StatusCode, response)
		return
	}

	response := ErrorResponse{Error: true, RequestID: requestID, TraceID: r.Header.Get(traceHeader)}
	status := http.StatusInternalServerError

	var validationErrs *ValidationErrors
	switch appErr := GetAppError(err); {
	case errors.As(err, &validationErrs):
		status = http.StatusBadRequest
		response.Type = string(ErrorTypeValidation)
		response.Message = "Validation failed"
		response.Details = map[string]interface{}{"fields": validationErrs.ToMap()}
		fields = append(fields, zap.Int("count", len(validationErrs.Errors)))

	case appErr != nil:
		if appErr.HTTPStatus != 0 {
			status = appErr.HTTPStatus
		}
		response.Type = string(appErr.Type)
		response.Message = appErr.Message
		response.Code = appErr.Code
		response.Details = appErr.Details
		if h.debug && len(appErr.Stack) > 0 {
			response.Details = withDetail(appErr.Details, "stack", appErr.Stack)
		}
		fields = append(fields, zap.String("error_type", string(appErr.Type)))
		if appErr.Cause != nil {
			fields = append(fields, zap.NamedError("cause", appErr.Cause))
		}

	default:
		response.Type = string(ErrorTypeInternal)
		response.Message = "An internal error occurred"
		if h.debug {
			response.Message = err.Error()
		}
		fields = append(fields, zap.Error(err))
	}

	h.log(status, response.Message, fields)
	h.sendJSON(w, status, response)
}

// Recover answers a panicking handler with a 500 instead of dropping the
// connection
func (h *ErrorHandler) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.logger.Error("Handler panicked", zap.Any("panic", rec), zap.Stack("stack"))
				h.Handle(w, r, NewInternalError(fmt.Sprintf("panic: %v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *ErrorHandler) log(status int, message string, fields []zap.Field) {
	fields = append(fields, zap.Int("status", status))
	if status >= http.StatusInternalServerError {
		h.logger.Error(message, fields...)
		return
	}
	h.logger.Warn(message, fields...)
}

func (h *ErrorHandler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode error response", zap.Error(err))
	}
}

func withDetail(details map[string]interface{}, key string, value interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(details)+1)
	for k, v := range details {
		out[k] = v
	}
	out[key] = value
	return out
}
