package config

import (
	stderr "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oasislabs/quorum-functions/errors"
)

func TestErrInvalidValue(t *testing.T) {
	assert.Equal(t, "configuration key server.mode set to invalid value grpc",
		ErrInvalidValue{Key: "server.mode", InvalidValue: "grpc"}.Error())
	assert.Equal(t, "configuration key server.mode set to invalid value grpc. Accepted values are: http, lambda",
		ErrInvalidValue{Key: "server.mode", InvalidValue: "grpc", Values: []string{"http", "lambda"}}.Error())
}

func TestAsErr(t *testing.T) {
	err := AsErr(ErrKeyNotSet{Key: "eth.url"})

	assert.Equal(t, errors.ConfigurationError, err.Code().Category())
	assert.True(t, stderr.As(err, &ErrKeyNotSet{}))
}
