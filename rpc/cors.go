package rpc

import (
	"net/http"

	"github.com/rs/cors"
)

// HttpCorsPreProcessorProps configure the cross origin policy. Empty
// lists take the defaults of github.com/rs/cors
type HttpCorsPreProcessorProps struct {
	// Enabled is false to let every request through unchecked
	Enabled bool

	// AllowedOrigins may contain "*" to allow any origin
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string

	// MaxAge in seconds a preflight response may be cached
	MaxAge int
}

// HttpCorsPreProcessor answers preflight requests and sets the
// CORS headers of the requests it lets through
type HttpCorsPreProcessor struct {
	cors    *cors.Cors
	enabled bool
}

func NewHttpCorsPreProcessor(props HttpCorsPreProcessorProps) *HttpCorsPreProcessor {
	return &HttpCorsPreProcessor{
		cors: cors.New(cors.Options{
			AllowedOrigins: props.AllowedOrigins,
			AllowedMethods: props.AllowedMethods,
			AllowedHeaders: props.AllowedHeaders,
			ExposedHeaders: props.ExposedHeaders,
			MaxAge:         props.MaxAge,
		}),
		enabled: props.Enabled,
	}
}

// ServeHTTP is the implementation of HttpPreProcessor. Preflight
// requests are answered here and not handled any further
func (h *HttpCorsPreProcessor) ServeHTTP(w http.ResponseWriter, req *http.Request) (bool, *http.Request) {
	if !h.enabled {
		return true, req
	}

	next := req
	passed := false
	h.cors.ServeHTTP(w, req, func(_ http.ResponseWriter, r *http.Request) {
		passed = true
		next = r
	})

	return passed, next
}
