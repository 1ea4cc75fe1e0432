package wallet

import (
	"context"
	stderr "errors"
	"net"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/oasislabs/quorum-functions/errors"
)

// classify maps an error returned by the key service client to an
// AuthorizationError or a TransientUnavailable error. Only the latter
// is retried. Errors that are neither are internal errors
func classify(err error) errors.Err {
	var respErr *azcore.ResponseError
	if stderr.As(err, &respErr) {
		return classifyStatus(respErr.StatusCode, err)
	}

	var authErr *azidentity.AuthenticationFailedError
	if stderr.As(err, &authErr) {
		if authErr.RawResponse != nil {
			return classifyStatus(authErr.RawResponse.StatusCode, err)
		}
		return errors.New(errors.ErrAuthorization, err)
	}

	if stderr.Is(err, context.DeadlineExceeded) || stderr.Is(err, context.Canceled) {
		return errors.New(errors.ErrTransientUnavailable, err)
	}

	var netErr net.Error
	if stderr.As(err, &netErr) {
		return errors.New(errors.ErrTransientUnavailable, err)
	}

	return errors.New(errors.ErrInternalError, err)
}

func classifyStatus(status int, err error) errors.Err {
	switch {
	case status == http.StatusTooManyRequests,
		status == http.StatusRequestTimeout,
		status >= http.StatusInternalServerError:
		return errors.New(errors.ErrTransientUnavailable, err)
	default:
		return errors.New(errors.ErrAuthorization, err)
	}
}
