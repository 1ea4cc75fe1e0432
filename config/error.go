package config

import (
	stderr "errors"
	"fmt"
	"strings"

	"github.com/oasislabs/quorum-functions/errors"
)

// ErrKeyNotSet is returned when a required key has no value
type ErrKeyNotSet struct {
	Key string
}

func (e ErrKeyNotSet) Error() string {
	return fmt.Sprintf("configuration key %s must be set", e.Key)
}

// ErrInvalidValue is returned when a key is set to a value that
// is not accepted. Values lists the accepted values if they are
// enumerable
type ErrInvalidValue struct {
	Key          string
	InvalidValue string
	Values       []string
}

func (e ErrInvalidValue) Error() string {
	msg := fmt.Sprintf("configuration key %s set to invalid value %s", e.Key, e.InvalidValue)
	if len(e.Values) == 0 {
		return msg
	}

	return msg + ". Accepted values are: " + strings.Join(e.Values, ", ")
}

type ErrParseFlags struct {
	Cause error
}

func (e ErrParseFlags) Error() string {
	return "failed to parse flags " + e.Cause.Error()
}

func (e ErrParseFlags) Unwrap() error {
	return e.Cause
}

var ErrAlreadyParsed = stderr.New("arguments already parsed")

// AsErr wraps a failure to configure the service so that it is
// reported as a ConfigurationError
func AsErr(err error) errors.Err {
	return errors.New(errors.ErrConfiguration, err)
}
