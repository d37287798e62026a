// AngelaMos | 2026
// errors_test.go

package core

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNarrowSentinelsMatchBroaderKinds(t *testing.T) {
	assert.True(t, errors.Is(ErrCouponNotFound, ErrNotFound))
	assert.True(t, errors.Is(ErrForbiddenSelfVote, ErrForbidden))
	assert.True(t, errors.Is(ErrSelfDemotionForbidden, ErrForbidden))
	assert.False(t, errors.Is(ErrForbidden, ErrSelfDemotionForbidden))
}

func TestToAppErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("get product: %w", ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{fmt.Errorf("validate: %w", ErrCouponNotFound), http.StatusNotFound, "COUPON_NOT_FOUND"},
		{fmt.Errorf("validate: %w", ErrCouponExpired), http.StatusUnprocessableEntity, "COUPON_EXPIRED"},
		{fmt.Errorf("toggle: %w", ErrForbiddenSelfVote), http.StatusForbidden, "FORBIDDEN_SELF_VOTE"},
		{fmt.Errorf("change role: %w", ErrSelfDemotionForbidden), http.StatusForbidden, "SELF_DEMOTION_FORBIDDEN"},
		{fmt.Errorf("feature: %w", ErrInvalidTransition), http.StatusConflict, "INVALID_TRANSITION"},
		{fmt.Errorf("submit: %w", ErrQuotaExceeded), http.StatusForbidden, "QUOTA_EXCEEDED"},
		{fmt.Errorf("toggle: %w", ErrConflict), http.StatusConflict, "CONFLICT"},
		{fmt.Errorf("confirm: %w", ErrPaymentFailed), http.StatusPaymentRequired, "PAYMENT_FAILED"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		appErr := ToAppError(tt.err)
		assert.Equal(t, tt.status, appErr.StatusCode, tt.err.Error())
		assert.Equal(t, tt.code, appErr.Code, tt.err.Error())
	}
}

func TestJSONErrorWritesEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, fmt.Errorf("get: %w", ErrNotFound))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t,
		`{"success":false,"error":{"code":"NOT_FOUND","message":"resource not found"}}`,
		rec.Body.String(),
	)
}
