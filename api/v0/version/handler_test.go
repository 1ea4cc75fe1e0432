package version

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersion(t *testing.T) {
	h := NewHandler(&Deps{Build: "v1.0.0"})

	res, err := h.GetVersion(context.TODO(), nil)

	assert.Nil(t, err)
	assert.Equal(t, &GetVersionResponse{
		Version: 0,
		Build:   "v1.0.0",
	}, res)
}

func TestGetVersionNoBuild(t *testing.T) {
	h := NewHandler(&Deps{})

	res, err := h.GetVersion(context.TODO(), nil)

	assert.Nil(t, err)
	assert.Equal(t, &GetVersionResponse{Version: 0}, res)
}
