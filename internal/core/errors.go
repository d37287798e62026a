// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound      = errors.New("resource not found")
	ErrDuplicateKey  = errors.New("duplicate key")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenRevoked  = errors.New("token revoked")
	ErrTokenInvalid  = errors.New("token invalid")
	ErrPaymentFailed = errors.New("payment failed")

	ErrInvalidTransition = errors.New("invalid transition")
	ErrQuotaExceeded     = errors.New("quota exceeded")
	ErrCouponExpired     = errors.New("coupon expired")
)

// Narrower kinds wrap a broader sentinel so errors.Is matches both.
var (
	ErrCouponNotFound        = fmt.Errorf("coupon not found: %w", ErrNotFound)
	ErrForbiddenSelfVote     = fmt.Errorf("cannot upvote own product: %w", ErrForbidden)
	ErrSelfDemotionForbidden = fmt.Errorf("cannot remove own admin role: %w", ErrForbidden)
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Code       string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
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

func UnauthorizedError(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return NewAppError(ErrUnauthorized, message, http.StatusUnauthorized, "UNAUTHORIZED")
}

func ForbiddenError(message string) *AppError {
	if message == "" {
		message = "insufficient permissions"
	}
	return NewAppError(ErrForbidden, message, http.StatusForbidden, "FORBIDDEN")
}

func NotFoundError(resource string) *AppError {
	return NewAppError(
		ErrNotFound,
		resource+" not found",
		http.StatusNotFound,
		"NOT_FOUND",
	)
}

func DuplicateError(field string) *AppError {
	return NewAppError(
		ErrDuplicateKey,
		field+" already exists",
		http.StatusConflict,
		"DUPLICATE",
	)
}

func TokenExpiredError() *AppError {
	return NewAppError(ErrTokenExpired, "token has expired", http.StatusUnauthorized, "TOKEN_EXPIRED")
}

func TokenRevokedError() *AppError {
	return NewAppError(ErrTokenRevoked, "token has been revoked", http.StatusUnauthorized, "TOKEN_REVOKED")
}

func TokenInvalidError() *AppError {
	return NewAppError(ErrTokenInvalid, "token is invalid", http.StatusUnauthorized, "TOKEN_INVALID")
}

// ToAppError maps a domain error onto its HTTP representation. The most
// specific sentinel is checked first.
func ToAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrCouponNotFound):
		return NewAppError(err, "coupon not found", http.StatusNotFound, "COUPON_NOT_FOUND")
	case errors.Is(err, ErrCouponExpired):
		return NewAppError(err, "coupon has expired", http.StatusUnprocessableEntity, "COUPON_EXPIRED")
	case errors.Is(err, ErrForbiddenSelfVote):
		return NewAppError(err, "you cannot upvote your own product", http.StatusForbidden, "FORBIDDEN_SELF_VOTE")
	case errors.Is(err, ErrSelfDemotionForbidden):
		return NewAppError(err, "you cannot remove your own admin role", http.StatusForbidden, "SELF_DEMOTION_FORBIDDEN")
	case errors.Is(err, ErrNotFound):
		return NewAppError(err, "resource not found", http.StatusNotFound, "NOT_FOUND")
	case errors.Is(err, ErrForbidden):
		return NewAppError(err, "insufficient permissions", http.StatusForbidden, "FORBIDDEN")
	case errors.Is(err, ErrUnauthorized):
		return UnauthorizedError("")
	case errors.Is(err, ErrInvalidTransition):
		return NewAppError(err, "invalid state transition", http.StatusConflict, "INVALID_TRANSITION")
	case errors.Is(err, ErrQuotaExceeded):
		return NewAppError(err, "product quota exceeded for free membership", http.StatusForbidden, "QUOTA_EXCEEDED")
	case errors.Is(err, ErrConflict):
		return NewAppError(err, "concurrent update detected, retry the request", http.StatusConflict, "CONFLICT")
	case errors.Is(err, ErrDuplicateKey):
		return NewAppError(err, "resource already exists", http.StatusConflict, "DUPLICATE")
	case errors.Is(err, ErrInvalidInput):
		return NewAppError(err, "invalid input", http.StatusBadRequest, "INVALID_INPUT")
	case errors.Is(err, ErrPaymentFailed):
		return NewAppError(err, "payment was not completed", http.StatusPaymentRequired, "PAYMENT_FAILED")
	case errors.Is(err, ErrTokenExpired):
		return TokenExpiredError()
	case errors.Is(err, ErrTokenRevoked):
		return TokenRevokedError()
	case errors.Is(err, ErrTokenInvalid):
		return TokenInvalidError()
	}

	return NewAppError(err, "internal server error", http.StatusInternalServerError, "INTERNAL_ERROR")
}
