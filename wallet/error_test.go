package wallet

import (
	"context"
	stderr "errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/stretchr/testify/assert"

	"github.com/oasislabs/quorum-functions/errors"
)

func responseError(status int) *azcore.ResponseError {
	rec := httptest.NewRecorder()
	rec.WriteHeader(status)
	res := rec.Result()
	res.Request = httptest.NewRequest(http.MethodPost, "https://vault.vault.azure.net/keys/signer/sign", nil)
	return &azcore.ResponseError{StatusCode: status, RawResponse: res}
}

func TestClassifyStatus(t *testing.T) {
	for status, code := range map[int]errors.ErrorCode{
		http.StatusUnauthorized:        errors.ErrAuthorization,
		http.StatusForbidden:           errors.ErrAuthorization,
		http.StatusNotFound:            errors.ErrAuthorization,
		http.StatusRequestTimeout:      errors.ErrTransientUnavailable,
		http.StatusTooManyRequests:     errors.ErrTransientUnavailable,
		http.StatusInternalServerError: errors.ErrTransientUnavailable,
		http.StatusBadGateway:          errors.ErrTransientUnavailable,
	} {
		err := classify(responseError(status))
		assert.Equal(t, code, err.Code(), "status %d", status)
	}
}

func TestClassifyTimeout(t *testing.T) {
	err := classify(context.DeadlineExceeded)

	assert.Equal(t, errors.ErrTransientUnavailable, err.Code())
}

func TestClassifyNetworkError(t *testing.T) {
	err := classify(&net.OpError{Op: "dial", Err: stderr.New("connection refused")})

	assert.Equal(t, errors.ErrTransientUnavailable, err.Code())
}

func TestClassifyUnknown(t *testing.T) {
	err := classify(stderr.New("unexpected response"))

	assert.Equal(t, errors.ErrInternalError, err.Code())
}

func TestClassifyAuthenticationFailed(t *testing.T) {
	err := classify(&azidentity.AuthenticationFailedError{})

	assert.Equal(t, errors.ErrAuthorization, err.Code())
}
