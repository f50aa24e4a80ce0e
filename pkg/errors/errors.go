package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Category groups error codes by how a caller is expected to react.
type Category string

// Error categories exposed to API consumers.
const (
	CategoryNotFound          Category = "NOT_FOUND"
	CategoryUnauthorized      Category = "UNAUTHORIZED"
	CategoryStateConflict     Category = "STATE_CONFLICT"
	CategoryPolicyDenied      Category = "POLICY_DENIED"
	CategoryCredentialInvalid Category = "CREDENTIAL_INVALID"
	CategoryValidation        Category = "VALIDATION"
	CategoryInternal          Category = "INTERNAL"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code     string                 `json:"code"`
	Message  string                 `json:"message"`
	Status   int                    `json:"status"`
	Category Category               `json:"category"`
	Details  map[string]interface{} `json:"details,omitempty"`
	Err      error                  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target carries the same code, so clones and wrapped copies
// still match the predefined values.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, category Category, message string) *Error {
	return &Error{Code: code, Status: status, Category: category, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Category: categoryForStatus(status), Message: message, Err: err}
}

// Internal wraps an infrastructure failure.
func Internal(err error, message string) *Error {
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, message)
}

// Predefined errors for common scenarios.
var (
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, CategoryNotFound, "resource not found")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, CategoryUnauthorized, "forbidden")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, CategoryUnauthorized, "unauthorized")
	ErrConflict     = New("CONFLICT", http.StatusConflict, CategoryStateConflict, "conflict")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, CategoryValidation, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, CategoryInternal, "internal server error")
	ErrCacheMiss    = New("CACHE_MISS", http.StatusNotFound, CategoryNotFound, "cache miss")

	ErrStudentNotFound = New("STUDENT_NOT_FOUND", http.StatusNotFound, CategoryNotFound, "student not found")
	ErrMentorNotFound  = New("MENTOR_NOT_FOUND", http.StatusNotFound, CategoryNotFound, "mentor not found")
	ErrLeaveNotFound   = New("LEAVE_NOT_FOUND", http.StatusNotFound, CategoryNotFound, "leave request not found")
	ErrSectionNotFound = New("SECTION_NOT_FOUND", http.StatusNotFound, CategoryNotFound, "section not found")
	ErrSettingNotFound = New("SETTING_NOT_FOUND", http.StatusNotFound, CategoryNotFound, "setting not found")
	ErrNoActiveLeave   = New("NO_ACTIVE_LEAVE", http.StatusNotFound, CategoryNotFound, "no approved leave is active today")

	// ErrNotOwner covers update/delete by a non-owner and mentor actions by a
	// mentor who is not assigned to the student.
	ErrNotOwner = New("UNAUTHORIZED", http.StatusForbidden, CategoryUnauthorized, "not permitted to act on this request")

	ErrAlreadyProcessed           = New("ALREADY_PROCESSED", http.StatusConflict, CategoryStateConflict, "request already processed")
	ErrParentApprovalRequired     = New("PARENT_APPROVAL_REQUIRED", http.StatusConflict, CategoryStateConflict, "parent approval is required first")
	ErrOTPAlreadyIssued           = New("OTP_ALREADY_ISSUED", http.StatusConflict, CategoryStateConflict, "an unexpired approval code is already outstanding")
	ErrInvalidSecurityTransition  = New("INVALID_SECURITY_TRANSITION", http.StatusConflict, CategoryStateConflict, "gate action not allowed in current state")
	ErrAlreadyEnrolled            = New("ALREADY_ENROLLED", http.StatusConflict, CategoryStateConflict, "student already enrolled in this section")
	ErrChangeLimitExceeded        = New("CHANGE_LIMIT_EXCEEDED", http.StatusUnprocessableEntity, CategoryPolicyDenied, "maximum section changes reached")
	ErrChangeFrozen               = New("CHANGE_FROZEN", http.StatusTooManyRequests, CategoryPolicyDenied, "section selection is frozen")
	ErrFeatureDisabled            = New("FEATURE_DISABLED", http.StatusForbidden, CategoryPolicyDenied, "feature disabled by administrator")
	ErrTokenInvalidOrConsumed     = New("TOKEN_INVALID_OR_CONSUMED", http.StatusGone, CategoryCredentialInvalid, "invalid or already used token")
	ErrOTPInvalidOrExpired        = New("OTP_INVALID_OR_EXPIRED", http.StatusUnauthorized, CategoryCredentialInvalid, "invalid or expired approval code")
	ErrPassLinkInvalid            = New("PASS_LINK_INVALID", http.StatusGone, CategoryCredentialInvalid, "gate pass link is invalid or expired")
	ErrNotificationDeliveryFailed = New("NOTIFICATION_FAILED", http.StatusBadGateway, CategoryInternal, "notification delivery failed")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	if err.Details != nil {
		clone.Details = make(map[string]interface{}, len(err.Details))
		for k, v := range err.Details {
			clone.Details[k] = v
		}
	}
	return &clone
}

// WithDetails returns a copy carrying extra key/value pairs for the caller.
func WithDetails(err *Error, message string, details map[string]interface{}) *Error {
	clone := Clone(err, message)
	if clone == nil {
		return nil
	}
	if clone.Details == nil {
		clone.Details = make(map[string]interface{}, len(details))
	}
	for k, v := range details {
		clone.Details[k] = v
	}
	return clone
}

func categoryForStatus(status int) Category {
	switch status {
	case http.StatusNotFound:
		return CategoryNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return CategoryUnauthorized
	case http.StatusConflict:
		return CategoryStateConflict
	case http.StatusBadRequest:
		return CategoryValidation
	default:
		return CategoryInternal
	}
}
