package rpc

import (
	"mime"
	"net/http"

	"github.com/oasislabs/quorum-functions/errors"
	"github.com/oasislabs/quorum-functions/log"
	"github.com/oasislabs/quorum-functions/rw"
)

const defaultJsonBodyLimit = 1 << 14

// HttpJsonHandler decodes the JSON body of a request into the entity
// created by its factory and passes it to the wrapped Handler
type HttpJsonHandler struct {
	limit   uint
	decoder JsonDecoder
	handler Handler
	logger  log.Logger
	factory EntityFactory
}

// HttpJsonHandlerProperties are the properties of a new HttpJsonHandler
type HttpJsonHandlerProperties struct {
	// Limit is the maximum size of a body in bytes. Defaults to 16KB
	Limit uint

	Handler Handler
	Logger  log.Logger

	// Factory creates the entity a body is decoded into. Handlers
	// that take no body use a factory that returns nil
	Factory EntityFactory
}

func NewHttpJsonHandler(props HttpJsonHandlerProperties) *HttpJsonHandler {
	switch {
	case props.Handler == nil:
		panic("handler must be set")
	case props.Logger == nil:
		panic("logger must be set")
	case props.Factory == nil:
		panic("factory must be set")
	}

	limit := props.Limit
	if limit == 0 {
		limit = defaultJsonBodyLimit
	}

	return &HttpJsonHandler{
		limit:   limit,
		handler: props.Handler,
		logger:  props.Logger.ForClass("rpc", "HttpJsonHandler"),
		factory: props.Factory,
	}
}

func isJsonContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}

// check validates the headers of req against the entity the handler
// expects. It returns a message to log along with the error
func (h *HttpJsonHandler) check(req *http.Request, body interface{}) (string, errors.Err) {
	switch {
	case req.ContentLength < 0:
		return "Content-length header missing from request", errors.New(errors.ErrHttpContentLengthMissing, nil)
	case uint64(req.ContentLength) > uint64(h.limit):
		return "Content-length exceeds request limit", errors.New(errors.ErrHttpContentLengthLimit, nil)
	case req.ContentLength > 0 && !isJsonContentType(req.Header.Get("Content-type")):
		return "Content-type is not for json", errors.New(errors.ErrHttpContentTypeApplicationJson, nil)
	case body == nil && req.ContentLength > 0:
		return "handler does not expect a request body", errors.New(errors.ErrDeserializeJSON, nil)
	case body != nil && req.ContentLength == 0:
		return "handler expects a request body", errors.New(errors.ErrDeserializeJSON, nil)
	default:
		return "", nil
	}
}

func (h *HttpJsonHandler) ServeHTTP(req *http.Request) (interface{}, error) {
	fields := log.MapFields{
		"path":           req.URL.EscapedPath(),
		"method":         req.Method,
		"content_length": req.ContentLength,
		"limit":          h.limit,
		"call_type":      "HttpJsonRequestHandleFailure",
	}

	body := h.factory.Create()
	if msg, err := h.check(req, body); err != nil {
		h.logger.Debug(req.Context(), msg, fields)
		return nil, err
	}

	if body != nil {
		props := rw.ReadLimitProps{Limit: req.ContentLength, FailOnExceed: true}
		if err := h.decoder.DecodeWithLimit(req.Body, body, props); err != nil {
			h.logger.Debug(req.Context(), "failed to decode json", fields, log.MapFields{"err": err.Error()})
			return nil, errors.New(errors.ErrDeserializeJSON, err)
		}
	}

	return h.handler.Handle(req.Context(), body)
}

// HttpHandlerFactory turns a Handler into the HttpMiddleware a
// route serves
type HttpHandlerFactory interface {
	Make(factory EntityFactory, handler Handler) HttpMiddleware
}

// HttpHandlerFactoryFunc allows functions to act as an HttpHandlerFactory
type HttpHandlerFactoryFunc func(factory EntityFactory, handler Handler) HttpMiddleware

func (f HttpHandlerFactoryFunc) Make(factory EntityFactory, handler Handler) HttpMiddleware {
	return f(factory, handler)
}

// JsonHandlerFactory wraps every bound handler with an HttpJsonHandler
// that accepts bodies of up to limit bytes
func JsonHandlerFactory(logger log.Logger, limit uint) HttpHandlerFactory {
	return HttpHandlerFactoryFunc(func(factory EntityFactory, handler Handler) HttpMiddleware {
		return NewHttpJsonHandler(HttpJsonHandlerProperties{
			Limit:   limit,
			Handler: handler,
			Logger:  logger,
			Factory: factory,
		})
	})
}
