package captcha

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			"backend with message",
			backendErr("2captcha", ErrSubmission, nil, "wrong user key"),
			"captcha: 2captcha: submission rejected: wrong user key",
		},
		{
			"solver level",
			&Error{Kind: ErrNoValidServices},
			"captcha: no valid services configured",
		},
		{
			"with cause",
			backendErr("anti-captcha", ErrBalance, errors.New("connection refused"), ""),
			"captcha: anti-captcha: balance query failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorUnwrapChain(t *testing.T) {
	inner := backendErr("deathbycaptcha", ErrTransport, errors.New("dial tcp: refused"), "")
	outer := backendErr("deathbycaptcha", ErrBalance, inner, "")

	// Both the outer and the inner kind are visible through the chain.
	assert.ErrorIs(t, outer, ErrBalance)
	assert.ErrorIs(t, outer, ErrTransport)
	assert.NotErrorIs(t, outer, ErrSubmission)

	var solverErr *Error
	require.ErrorAs(t, outer, &solverErr)
	assert.Equal(t, "deathbycaptcha", solverErr.Backend)
}

func TestAllBackendsFailedCarriesLastError(t *testing.T) {
	last := backendErr("deathbycaptcha", ErrPollTimeout, nil, "no solution after 2m0s")
	err := backendErr("", ErrAllBackendsFailed, last, "%d services tried", 3)

	assert.ErrorIs(t, err, ErrAllBackendsFailed)
	assert.ErrorIs(t, err, ErrPollTimeout)
	assert.Contains(t, err.Error(), "no solution after 2m0s")
}
