package wallettest

import (
	"context"
	"crypto/ecdsa"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azkeys"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/mock"
)

// SignFunc computes the response of Sign from its parameters
type SignFunc func(params azkeys.SignParameters) azkeys.SignResponse

type MockKeyClient struct {
	mock.Mock
}

func (c *MockKeyClient) GetKey(
	ctx context.Context,
	name string,
	version string,
	options *azkeys.GetKeyOptions,
) (azkeys.GetKeyResponse, error) {
	args := c.Called(ctx, name, version, options)
	return args.Get(0).(azkeys.GetKeyResponse), args.Error(1)
}

func (c *MockKeyClient) Sign(
	ctx context.Context,
	name string,
	version string,
	parameters azkeys.SignParameters,
	options *azkeys.SignOptions,
) (azkeys.SignResponse, error) {
	args := c.Called(ctx, name, version, parameters, options)
	if fn, ok := args.Get(0).(SignFunc); ok {
		return fn(parameters), args.Error(1)
	}

	return args.Get(0).(azkeys.SignResponse), args.Error(1)
}

// KeyResponse builds the response of the key service for the
// public part of key
func KeyResponse(key *ecdsa.PrivateKey, kid string) azkeys.GetKeyResponse {
	id := azkeys.ID(kid)
	return azkeys.GetKeyResponse{
		KeyBundle: azkeys.KeyBundle{
			Key: &azkeys.JSONWebKey{
				KID: &id,
				Kty: to.Ptr(azkeys.KeyTypeEC),
				Crv: to.Ptr(azkeys.CurveNameP256K),
				X:   math.PaddedBigBytes(key.PublicKey.X, 32),
				Y:   math.PaddedBigBytes(key.PublicKey.Y, 32),
			},
		},
	}
}

// SignResponse signs digest with key and returns the [R || S]
// signature the way the key service does
func SignResponse(key *ecdsa.PrivateKey, digest []byte) azkeys.SignResponse {
	sig, err := crypto.Sign(digest, key)
	if err != nil {
		panic(err)
	}

	return azkeys.SignResponse{
		KeyOperationResult: azkeys.KeyOperationResult{
			Result: sig[:64],
		},
	}
}

// ImplementSigner sets up client to behave as a key service that
// holds key
func ImplementSigner(client *MockKeyClient, key *ecdsa.PrivateKey, kid string) {
	client.On("GetKey", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(KeyResponse(key, kid), nil)
	client.On("Sign", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(SignFunc(func(params azkeys.SignParameters) azkeys.SignResponse {
			return SignResponse(key, params.Value)
		}), nil)
}

// ResponseError builds the error returned by the key service when
// it responds with status
func ResponseError(status int) *azcore.ResponseError {
	req := httptest.NewRequest(http.MethodGet, "https://vault.vault.azure.net/keys/signer", nil)
	return &azcore.ResponseError{
		StatusCode: status,
		RawResponse: &http.Response{
			StatusCode: status,
			Status:     http.StatusText(status),
			Header:     http.Header{},
			Body:       ioutil.NopCloser(strings.NewReader("")),
			Request:    req,
		},
	}
}
