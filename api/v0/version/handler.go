package version

import (
	"context"

	"github.com/oasislabs/quorum-functions/rpc"
)

// APIVersion is the version of the http api
const APIVersion = 0

// Deps are the dependencies expected by the VersionHandler
type Deps struct {
	// Build identifies the binary, set at link time
	Build string
}

// Handler is the handler to satisfy version related requests
type Handler struct {
	build string
}

// NewHandler creates a new instance of a version handler
func NewHandler(deps *Deps) Handler {
	return Handler{build: deps.Build}
}

// GetVersion returns the version of the component
func (h Handler) GetVersion(ctx context.Context, v interface{}) (interface{}, error) {
	return &GetVersionResponse{
		Version: APIVersion,
		Build:   h.build,
	}, nil
}

// BindHandler binds the version handler to the handler binder
func BindHandler(deps *Deps, binder rpc.HandlerBinder) {
	handler := NewHandler(deps)

	binder.Bind("GET", "/v0/api/version", rpc.HandlerFunc(handler.GetVersion),
		rpc.EntityFactoryFunc(func() interface{} { return nil }))
}
