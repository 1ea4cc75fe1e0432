package errors

import (
	stderr "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type mapFields map[string]interface{}

func (m mapFields) Add(key string, value interface{}) {
	m[key] = value
}

func TestErrorNoCause(t *testing.T) {
	err := New(ErrSubmission, nil)

	assert.Equal(t, "[7001] error code ChainError with desc There was an issue submitting the transaction", err.Error())
}

func TestErrorWithCause(t *testing.T) {
	err := New(ErrArtifactFetch, stderr.New("connection refused"))

	assert.Equal(t, "[4001] error code ArtifactError with desc Failed to retrieve "+
		"the contract artifact. with cause connection refused", err.Error())
}

func TestErrorUnwrap(t *testing.T) {
	cause := stderr.New("denied")
	var err error = New(ErrAuthorization, cause)

	assert.True(t, stderr.Is(err, cause))
}

func TestErrorLog(t *testing.T) {
	fields := mapFields{}
	New(ErrTransientUnavailable, stderr.New("timeout")).Log(fields)

	assert.Equal(t, mapFields{
		"err":       ErrTransientUnavailable.Desc(),
		"errorCode": 6001,
		"cause":     "timeout",
	}, fields)
}

func TestIsCategory(t *testing.T) {
	assert.True(t, IsCategory(New(ErrAuthorization, nil), AuthorizationError))
	assert.False(t, IsCategory(New(ErrAuthorization, nil), TransientError))
	assert.False(t, IsCategory(stderr.New("plain"), AuthorizationError))
}

func TestIsCategoryWrapped(t *testing.T) {
	err := fmt.Errorf("sign: %w", New(ErrTransientUnavailable, nil))

	assert.True(t, IsCategory(err, TransientError))
}
