package health

import (
	"context"
	"sort"

	"github.com/oasislabs/quorum-functions/log"
	"github.com/oasislabs/quorum-functions/rpc"
)

// Checker verifies that a dependency of the service is reachable
type Checker interface {
	Health(ctx context.Context) error
}

// CheckerFunc allows functions to act as a Checker
type CheckerFunc func(ctx context.Context) error

// Health is the implementation of Checker for CheckerFunc
func (f CheckerFunc) Health(ctx context.Context) error {
	return f(ctx)
}

type Services struct {
	Logger log.Logger

	// Checkers by dependency name. Optional
	Checkers map[string]Checker
}

type HealthHandler struct {
	logger   log.Logger
	checkers map[string]Checker
	names    []string
}

func NewHealthHandler(services Services) HealthHandler {
	names := make([]string, 0, len(services.Checkers))
	for name := range services.Checkers {
		names = append(names, name)
	}
	sort.Strings(names)

	return HealthHandler{
		logger:   services.Logger.ForClass("health", "HealthHandler"),
		checkers: services.Checkers,
		names:    names,
	}
}

func (h HealthHandler) GetHealth(ctx context.Context, v interface{}) (interface{}, error) {
	res := &GetHealthResponse{Health: Healthy}
	for _, name := range h.names {
		if err := h.checkers[name].Health(ctx); err != nil {
			h.logger.Warn(ctx, "dependency health check failed", log.MapFields{
				"call_type":  "GetHealthFailure",
				"dependency": name,
				"err":        err.Error(),
			})

			if res.Dependencies == nil {
				res.Dependencies = make(map[string]string)
			}
			res.Health = Unhealthy
			res.Dependencies[name] = err.Error()
		}
	}

	return res, nil
}

func BindHandler(services Services, binder rpc.HandlerBinder) {
	handler := NewHealthHandler(services)

	binder.Bind("GET", "/v0/api/health", rpc.HandlerFunc(handler.GetHealth),
		rpc.EntityFactoryFunc(func() interface{} { return nil }))
}
