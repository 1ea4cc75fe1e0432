package rpc

import (
	stderr "errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"

	"github.com/oasislabs/quorum-functions/errors"
	"github.com/oasislabs/quorum-functions/log"
	"github.com/oasislabs/quorum-functions/metrics"
)

// HttpHeaderTraceID carries the trace id of a request. It is echoed
// back on every response
const HttpHeaderTraceID = "X-Request-ID"

// HttpPreProcessor runs before the handler of a route. When it returns
// false it has already written the response and the request is not
// processed further. The returned request replaces the original one
type HttpPreProcessor interface {
	ServeHTTP(w http.ResponseWriter, req *http.Request) (bool, *http.Request)
}

// HttpMiddleware handles a request and returns the value that the
// router encodes as the response body
type HttpMiddleware interface {
	ServeHTTP(req *http.Request) (interface{}, error)
}

// HttpError is an error together with the HTTP status that
// is returned to the client for it
type HttpError struct {
	Cause      errors.Err
	StatusCode int
}

func (e HttpError) Log(fields log.Fields) {
	fields.Add("status_code", e.StatusCode)
	if e.Cause != nil {
		e.Cause.Log(fields)
	}
}

func (e HttpError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("http error with status code %d", e.StatusCode)
	}

	return fmt.Sprintf("%s with status code %d", e.Cause.Error(), e.StatusCode)
}

// statusFor returns the status code for an error category. The
// caller can act upon the 4xx categories
func statusFor(category errors.Category) int {
	switch category {
	case errors.InputError, errors.ArtifactError, errors.ChainError:
		return http.StatusBadRequest
	case errors.TransientError:
		return http.StatusServiceUnavailable
	case errors.NotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func toHttpError(err error) *HttpError {
	switch err := err.(type) {
	case HttpError:
		return &err
	case *HttpError:
		return err
	case errors.Err:
		return &HttpError{Cause: err, StatusCode: statusFor(err.Code().Category())}
	default:
		return &HttpError{
			Cause:      errors.New(errors.ErrInternalError, err),
			StatusCode: http.StatusInternalServerError,
		}
	}
}

// responder writes the outcome of a request and logs it
type responder struct {
	logger  log.Logger
	encoder Encoder
}

func requestFields(req *http.Request, callType string) log.MapFields {
	return log.MapFields{
		"path":      req.URL.EscapedPath(),
		"method":    req.Method,
		"call_type": callType,
	}
}

// success writes body with a 200, or a 204 when there is no body
func (r responder) success(res http.ResponseWriter, req *http.Request, body interface{}) int {
	res.Header().Set(HttpHeaderTraceID, log.GetTraceID(req.Context()))
	fields := requestFields(req, "HttpRequestHandleSuccess")

	if body == nil {
		res.WriteHeader(http.StatusNoContent)
		r.logger.Info(req.Context(), "", fields, log.MapFields{"status_code": http.StatusNoContent})
		return http.StatusNoContent
	}

	res.Header().Set("Content-Type", r.encoder.ContentType(body))
	res.WriteHeader(http.StatusOK)
	if err := r.encoder.Encode(res, body); err != nil {
		// headers are already out, the client gets a truncated body
		r.logger.Warn(req.Context(), "failed to encode response", requestFields(req, "HttpRequestHandleFailure"),
			log.MapFields{"status_code": http.StatusOK, "err": err.Error()})
		return http.StatusOK
	}

	r.logger.Info(req.Context(), "", fields, log.MapFields{"status_code": http.StatusOK})
	return http.StatusOK
}

// failure writes err and returns its status code together with the
// category of its cause, if any
func (r responder) failure(res http.ResponseWriter, req *http.Request, err *HttpError) (int, string) {
	res.Header().Set(HttpHeaderTraceID, log.GetTraceID(req.Context()))
	fields := requestFields(req, "HttpRequestHandleFailure")
	defer r.logger.Info(req.Context(), "", fields, err)

	if err.Cause == nil {
		res.WriteHeader(err.StatusCode)
		return err.StatusCode, ""
	}

	body := NewError(err.Cause)
	res.Header().Set("Content-Type", r.encoder.ContentType(body))
	res.WriteHeader(err.StatusCode)
	if eerr := r.encoder.Encode(res, body); eerr != nil {
		r.logger.Debug(req.Context(), "failed to encode error response", fields,
			log.MapFields{"err": eerr.Error()})
	}

	return err.StatusCode, string(err.Cause.Code().Category())
}

// MethodHandlers maps HTTP methods to the middleware serving them
type MethodHandlers map[string]HttpMiddleware

func (h MethodHandlers) Add(method string, middleware HttpMiddleware) {
	h[method] = middleware
}

// HttpRoute serves a single path, dispatching on the request method
type HttpRoute struct {
	responder
	handlers      MethodHandlers
	preProcessors []HttpPreProcessor
	metrics       *metrics.ServiceMetrics
}

// HttpRouteProps are the properties of a new HttpRoute
type HttpRouteProps struct {
	Logger        log.Logger
	Encoder       Encoder
	Handlers      MethodHandlers
	PreProcessors []HttpPreProcessor

	// Metrics is optional
	Metrics *metrics.ServiceMetrics
}

func NewHttpRoute(props HttpRouteProps) *HttpRoute {
	return &HttpRoute{
		responder:     responder{logger: props.Logger, encoder: props.Encoder},
		handlers:      props.Handlers,
		preProcessors: props.PreProcessors,
		metrics:       props.Metrics,
	}
}

// HasHandler returns whether the route serves method
func (h *HttpRoute) HasHandler(method string) bool {
	_, ok := h.handlers[method]
	return ok
}

func (h *HttpRoute) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	path := req.URL.EscapedPath()
	if h.metrics != nil {
		defer h.metrics.RequestTimer(path).ObserveDuration()
	}

	var ok bool
	for _, preProcessor := range h.preProcessors {
		if ok, req = preProcessor.ServeHTTP(res, req); !ok {
			h.count(path, "preprocessor", "")
			return
		}
	}

	status, cause := h.dispatch(res, req)
	h.count(path, strconv.Itoa(status), cause)
}

func (h *HttpRoute) count(path, status, cause string) {
	if h.metrics != nil {
		h.metrics.RequestCounter(path, status, cause).Inc()
	}
}

func (h *HttpRoute) dispatch(res http.ResponseWriter, req *http.Request) (int, string) {
	handler, ok := h.handlers[req.Method]
	if !ok {
		return h.failure(res, req, &HttpError{StatusCode: http.StatusMethodNotAllowed})
	}

	v, err := handler.ServeHTTP(req)
	if err != nil {
		return h.failure(res, req, toHttpError(err))
	}

	return h.success(res, req, v), ""
}

// HttpRouter is the http.Handler of the service. It assigns a trace
// id to each request and routes it by path. Handler panics are
// reported as internal errors
type HttpRouter struct {
	responder
	mux map[string]*HttpRoute
}

// HasRoute returns whether the router serves path
func (h *HttpRouter) HasRoute(path string) bool {
	_, ok := h.mux[path]
	return ok
}

// HasHandler returns whether the router serves method on path
func (h *HttpRouter) HasHandler(path, method string) bool {
	route, ok := h.mux[path]
	return ok && route.HasHandler(method)
}

func (h *HttpRouter) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	traceID := ParseTraceID(req.Header.Get(HttpHeaderTraceID))
	req = req.WithContext(log.PutTraceID(req.Context(), traceID))

	h.logger.Debug(req.Context(), "", requestFields(req, "HttpRequestHandleAttempt"))
	defer h.recoverPanic(res, req)

	route, ok := h.mux[req.URL.EscapedPath()]
	if !ok {
		h.failure(res, req, &HttpError{StatusCode: http.StatusNotFound})
		return
	}

	route.ServeHTTP(res, req)
}

func (h *HttpRouter) recoverPanic(res http.ResponseWriter, req *http.Request) {
	r := recover()
	if r == nil {
		return
	}

	var err error
	switch x := r.(type) {
	case string:
		err = stderr.New(x)
	case error:
		err = x
	default:
		err = fmt.Errorf("unknown panic %+v", r)
	}

	h.logger.Warn(req.Context(), "unexpected panic caught", requestFields(req, "HttpRequestHandleFailure"),
		log.MapFields{"err": err.Error(), "stacktrace": string(debug.Stack())})

	// the panic value is not exposed to the client
	h.failure(res, req, &HttpError{
		Cause:      errors.New(errors.ErrInternalError, nil),
		StatusCode: http.StatusInternalServerError,
	})
}
