package derrors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	base := New(CodePolicyNotActive, "policy is terminal")
	wrapped := Wrap(base, CodeInternal, "evaluate failed")

	assert.True(t, HasCode(base, CodePolicyNotActive))
	assert.True(t, HasCode(wrapped, CodeInternal))
	assert.True(t, HasCode(wrapped, CodePolicyNotActive), "wrapped cause code should be visible")
	assert.False(t, HasCode(base, CodePolicyNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeIncorrectPremium, CodeOf(New(CodeIncorrectPremium, "paid 1999, want 2000")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeSettlementFailure, "payout failed")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "settlement_failure")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeInvalidSchedule:   http.StatusBadRequest,
		CodeIncorrectPremium:  http.StatusBadRequest,
		CodePolicyNotFound:    http.StatusNotFound,
		CodePolicyNotActive:   http.StatusConflict,
		CodeUnauthorized:      http.StatusUnauthorized,
		CodeForbidden:         http.StatusForbidden,
		CodeSettlementFailure: http.StatusBadGateway,
		CodeInternal:          http.StatusInternalServerError,
		Code("unknown"):       http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
