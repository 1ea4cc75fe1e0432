package rpc

import (
	"github.com/oasislabs/quorum-functions/log"
	"github.com/oasislabs/quorum-functions/metrics"
)

// HttpBinder collects the routes of the service. Routers are only
// created through Build, so a router cannot change once it serves
type HttpBinder struct {
	props         HttpBinderProperties
	routes        map[string]MethodHandlers
	preProcessors []HttpPreProcessor
}

// HttpBinderProperties are the properties of a new HttpBinder
type HttpBinderProperties struct {
	Encoder        Encoder
	Logger         log.Logger
	HandlerFactory HttpHandlerFactory

	// Metrics is optional. When set routes report the requests served
	// and their latency
	Metrics *metrics.ServiceMetrics
}

// NewHttpBinder creates an HttpBinder. It panics when a required
// property is missing
func NewHttpBinder(props HttpBinderProperties) *HttpBinder {
	switch {
	case props.Encoder == nil:
		panic("Encoder must be set")
	case props.Logger == nil:
		panic("Logger must be set")
	case props.HandlerFactory == nil:
		panic("HandlerFactory must be set")
	}

	return &HttpBinder{props: props, routes: make(map[string]MethodHandlers)}
}

func (b *HttpBinder) Bind(method string, uri string, handler Handler, factory EntityFactory) {
	if _, ok := b.routes[uri]; !ok {
		b.routes[uri] = make(MethodHandlers)
	}

	b.routes[uri].Add(method, b.props.HandlerFactory.Make(factory, handler))
}

// AddPreProcessor adds a preprocessor that runs on every route
// before its handler
func (b *HttpBinder) AddPreProcessor(preProcessor HttpPreProcessor) {
	b.preProcessors = append(b.preProcessors, preProcessor)
}

// Build creates an HttpRouter with the routes bound so far and
// resets the binder
func (b *HttpBinder) Build() *HttpRouter {
	logger := b.props.Logger.ForClass("rpc", "HttpRouter")
	router := &HttpRouter{
		responder: responder{logger: logger, encoder: b.props.Encoder},
		mux:       make(map[string]*HttpRoute, len(b.routes)),
	}

	for path, handlers := range b.routes {
		router.mux[path] = NewHttpRoute(HttpRouteProps{
			Logger:        logger,
			Encoder:       b.props.Encoder,
			Handlers:      handlers,
			PreProcessors: b.preProcessors,
			Metrics:       b.props.Metrics,
		})
	}

	b.routes = make(map[string]MethodHandlers)
	return router
}
