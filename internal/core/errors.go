// KaungMyatLinn | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrDuplicateKey       = errors.New("duplicate key")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrAccountInactive    = errors.New("account inactive")
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrTenantInactive     = errors.New("tenant inactive")
	ErrTenantForbidden    = errors.New("tenant forbidden")
	ErrAlreadySetup       = errors.New("already setup")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AppError is an error that maps onto a stable machine-readable code and an
// HTTP status. Authorization failures are always reported with their precise
// code, never collapsed into a generic 500.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Code       string
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(err error, message string, statusCode int, code string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
		Code:       code,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func AuthRequiredError(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return NewAppError(ErrUnauthorized, message, http.StatusUnauthorized, "AUTH_REQUIRED")
}

func TokenExpiredError() *AppError {
	return NewAppError(
		ErrTokenExpired,
		"access token has expired",
		http.StatusUnauthorized,
		"TOKEN_EXPIRED",
	)
}

func TokenInvalidError() *AppError {
	return NewAppError(
		ErrTokenInvalid,
		"token is invalid or has been revoked",
		http.StatusUnauthorized,
		"TOKEN_INVALID",
	)
}

func TokenRevokedError() *AppError {
	return NewAppError(
		ErrTokenRevoked,
		"token has been revoked",
		http.StatusUnauthorized,
		"TOKEN_INVALID",
	)
}

func UserNotFoundError() *AppError {
	return NewAppError(
		ErrNotFound,
		"user no longer exists",
		http.StatusUnauthorized,
		"USER_NOT_FOUND",
	)
}

func AccountInactiveError() *AppError {
	return NewAppError(
		ErrAccountInactive,
		"account is not active",
		http.StatusForbidden,
		"ACCOUNT_INACTIVE",
	)
}

func TenantNotFoundError() *AppError {
	return NewAppError(
		ErrTenantNotFound,
		"tenant not found",
		http.StatusNotFound,
		"TENANT_NOT_FOUND",
	)
}

func TenantInactiveError() *AppError {
	return NewAppError(
		ErrTenantInactive,
		"tenant is not active",
		http.StatusForbidden,
		"TENANT_INACTIVE",
	)
}

func TenantForbiddenError() *AppError {
	return NewAppError(
		ErrTenantForbidden,
		"access to this tenant is not permitted",
		http.StatusForbidden,
		"TENANT_FORBIDDEN",
	)
}

func ForbiddenError(message string) *AppError {
	if message == "" {
		message = "insufficient permissions"
	}
	return NewAppError(ErrForbidden, message, http.StatusForbidden, "FORBIDDEN")
}

// PermissionError reports a missing fine-grained staff capability, e.g.
// PermissionError("REFUND") yields code NO_REFUND_PERMISSION.
func PermissionError(capability string) *AppError {
	code := "NO_" + strings.ToUpper(capability) + "_PERMISSION"
	return NewAppError(
		ErrForbidden,
		fmt.Sprintf("missing %s permission", strings.ToLower(capability)),
		http.StatusForbidden,
		code,
	)
}

// InvalidCredentialsError is deliberately identical for unknown email and
// wrong password so the login endpoint cannot be used for user enumeration.
func InvalidCredentialsError() *AppError {
	return NewAppError(
		ErrInvalidCredentials,
		"invalid email or password",
		http.StatusUnauthorized,
		"INVALID_CREDENTIALS",
	)
}

func AlreadySetupError() *AppError {
	return NewAppError(
		ErrAlreadySetup,
		"a super admin already exists",
		http.StatusConflict,
		"ALREADY_SETUP",
	)
}

func UnauthorizedError(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return NewAppError(ErrUnauthorized, message, http.StatusUnauthorized, "UNAUTHORIZED")
}

func DuplicateError(field string) *AppError {
	return NewAppError(
		ErrDuplicateKey,
		fmt.Sprintf("%s already exists", field),
		http.StatusConflict,
		"DUPLICATE",
	)
}

func NotFoundError(resource string) *AppError {
	return NewAppError(
		ErrNotFound,
		fmt.Sprintf("%s not found", resource),
		http.StatusNotFound,
		"NOT_FOUND",
	)
}

func ValidationError(message string) *AppError {
	return NewAppError(nil, message, http.StatusBadRequest, "VALIDATION_ERROR")
}
