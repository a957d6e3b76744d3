package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target carries the same error code, so callers can match
// on the exported sentinels with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Error codes exposed to callers. They are stable across releases.
const (
	CodeValidation            = "VALIDATION_FAILED"
	CodePasswordMismatch      = "PASSWORD_MISMATCH"
	CodeEmailFormat           = "EMAIL_FORMAT"
	CodePasswordFormat        = "PASSWORD_FORMAT"
	CodeNameLength            = "NAME_LENGTH"
	CodeNameCharacters        = "NAME_CHARACTERS"
	CodeNameSpacing           = "NAME_SPACING"
	CodeQuantityRange         = "QUANTITY_RANGE"
	CodePriceRange            = "PRICE_RANGE"
	CodeDateFormat            = "DATE_FORMAT"
	CodeBlankCredentials      = "BLANK_CREDENTIALS"
	CodeCredentialFormat      = "CREDENTIAL_FORMAT"
	CodeDuplicateEmail        = "DUPLICATE_EMAIL"
	CodeDuplicateListing      = "DUPLICATE_LISTING"
	CodeAuthentication        = "AUTHENTICATION_FAILED"
	CodeTicketNotFound        = "TICKET_NOT_FOUND"
	CodeInsufficientInventory = "INSUFFICIENT_INVENTORY"
	CodeInsufficientFunds     = "INSUFFICIENT_FUNDS"
	CodeOwnership             = "NOT_TICKET_OWNER"
	CodePersistence           = "PERSISTENCE_ERROR"
	CodeNotFound              = "NOT_FOUND"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeForbidden             = "FORBIDDEN"
	CodeConflict              = "CONFLICT"
	CodeInternal              = "INTERNAL_ERROR"
)

// Sentinels for errors.Is matching. Never return these directly: they are
// shared values, use the constructors below.
var (
	ErrPasswordMismatch      = &DomainError{Code: CodePasswordMismatch}
	ErrEmailFormat           = &DomainError{Code: CodeEmailFormat}
	ErrPasswordFormat        = &DomainError{Code: CodePasswordFormat}
	ErrNameLength            = &DomainError{Code: CodeNameLength}
	ErrNameCharacters        = &DomainError{Code: CodeNameCharacters}
	ErrNameSpacing           = &DomainError{Code: CodeNameSpacing}
	ErrQuantityRange         = &DomainError{Code: CodeQuantityRange}
	ErrPriceRange            = &DomainError{Code: CodePriceRange}
	ErrDateFormat            = &DomainError{Code: CodeDateFormat}
	ErrBlankCredentials      = &DomainError{Code: CodeBlankCredentials}
	ErrCredentialFormat      = &DomainError{Code: CodeCredentialFormat}
	ErrDuplicateEmail        = &DomainError{Code: CodeDuplicateEmail}
	ErrDuplicateListing      = &DomainError{Code: CodeDuplicateListing}
	ErrAuthentication        = &DomainError{Code: CodeAuthentication}
	ErrTicketNotFound        = &DomainError{Code: CodeTicketNotFound}
	ErrInsufficientInventory = &DomainError{Code: CodeInsufficientInventory}
	ErrInsufficientFunds     = &DomainError{Code: CodeInsufficientFunds}
	ErrOwnership             = &DomainError{Code: CodeOwnership}
	ErrPersistence           = &DomainError{Code: CodePersistence}
)

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

// NewFieldError reports a field-level validation failure with its specific code.
func NewFieldError(code, field, message string) error {
	return NewDomainError(code, message, http.StatusBadRequest, map[string]any{"field": field})
}

func NewPasswordMismatch() error {
	return NewDomainError(CodePasswordMismatch, "The passwords do not match", http.StatusBadRequest, nil)
}

func NewBlankCredentials() error {
	return NewDomainError(CodeBlankCredentials, "Email/password cant be blank", http.StatusBadRequest, nil)
}

func NewCredentialFormat() error {
	return NewDomainError(CodeCredentialFormat, "Email/Password format is incorrect", http.StatusBadRequest, nil)
}

func NewDuplicateEmail() error {
	return NewDomainError(CodeDuplicateEmail, "This email has already been used", http.StatusConflict, nil)
}

func NewDuplicateListing(name string) error {
	return NewDomainError(CodeDuplicateListing, "A ticket with this name is already listed", http.StatusConflict,
		map[string]any{"name": name})
}

// NewAuthenticationFailed never says which credential was wrong.
func NewAuthenticationFailed() error {
	return NewDomainError(CodeAuthentication, "login failed", http.StatusUnauthorized, nil)
}

func NewTicketNotFound(name string) error {
	return NewDomainError(CodeTicketNotFound, "Ticket not found in database.", http.StatusNotFound,
		map[string]any{"name": name})
}

func NewInsufficientInventory(requested, available int) error {
	return NewDomainError(CodeInsufficientInventory, "Requested quantity larger than available tickets", http.StatusConflict,
		map[string]any{"requested": requested, "available": available})
}

func NewInsufficientFunds(balance int64, cost string) error {
	return NewDomainError(CodeInsufficientFunds, "User balance not enough for purchase", http.StatusConflict,
		map[string]any{"balance": balance, "cost": cost})
}

func NewOwnershipError() error {
	return NewDomainError(CodeOwnership, "Only the ticket owner can update it", http.StatusForbidden, nil)
}

// NewPersistenceError wraps a storage failure. The cause stays in Err for logs.
func NewPersistenceError(err error) error {
	return &DomainError{
		Code:       CodePersistence,
		Message:    "storage unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError. Unknown errors
// become INTERNAL_ERROR with the cause kept for logs.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

func MapError(err error) error {
	return ToDomainError(err)
}
