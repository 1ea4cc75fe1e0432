package contract

import (
	"context"
	"fmt"
	"net/http"
	"time"

	stderr "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oasislabs/quorum-functions/concurrent"
	"github.com/oasislabs/quorum-functions/errors"
	"github.com/oasislabs/quorum-functions/log"
	"github.com/oasislabs/quorum-functions/metrics"
	"github.com/oasislabs/quorum-functions/rw"
)

const (
	dependencyName = "artifact_store"

	defaultMaxArtifactBytes = 4 << 20
	defaultFetchTimeout     = 10 * time.Second
)

// HttpClient is the subset of *http.Client used to fetch artifacts
type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher retrieves the raw artifact document stored at a URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, errors.Err)
}

// HttpFetcherServices are the collaborators of an HttpFetcher
type HttpFetcherServices struct {
	Logger  log.Logger
	Client  HttpClient
	Metrics *metrics.DependencyMetrics
}

// HttpFetcherProps configure an HttpFetcher
type HttpFetcherProps struct {
	// Timeout bounds each attempt to fetch the document
	Timeout time.Duration

	// MaxBytes is the maximum size of the artifact document
	MaxBytes int64

	// RetryConfig bounds the retries on network failures and
	// server errors
	RetryConfig concurrent.RetryConfig
}

// HttpFetcher fetches artifacts with HTTP GET requests
type HttpFetcher struct {
	client      HttpClient
	logger      log.Logger
	metrics     *metrics.DependencyMetrics
	timeout     time.Duration
	maxBytes    int64
	retryConfig concurrent.RetryConfig
}

// NewHttpFetcher creates a new HttpFetcher
func NewHttpFetcher(services *HttpFetcherServices, props *HttpFetcherProps) *HttpFetcher {
	client := services.Client
	if client == nil {
		client = http.DefaultClient
	}

	maxBytes := props.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxArtifactBytes
	}

	timeout := props.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	return &HttpFetcher{
		client:      client,
		logger:      services.Logger.ForClass("contract", "HttpFetcher"),
		metrics:     services.Metrics,
		timeout:     timeout,
		maxBytes:    maxBytes,
		retryConfig: props.RetryConfig,
	}
}

// Fetch implementation of Fetcher for HttpFetcher. A response
// with a non 2xx status fails with ErrArtifactFetch. Server
// errors and network failures are retried
func (f *HttpFetcher) Fetch(ctx context.Context, url string) ([]byte, errors.Err) {
	v, err := concurrent.RetryWithConfig(ctx, concurrent.SupplierFunc(func() (interface{}, error) {
		var timer *prometheus.Timer
		if f.metrics != nil {
			timer = f.metrics.DependencyTimer(dependencyName, "fetch")
		}

		p, err := f.fetch(ctx, url)
		if timer != nil {
			f.metrics.Observe(timer, dependencyName, "fetch", err)
		}

		return p, err
	}), f.retryConfig)
	if err != nil {
		e := errors.New(errors.ErrArtifactFetch, err)
		f.logger.Debug(ctx, "failed to fetch artifact", log.MapFields{
			"call_type": "FetchArtifactFailure",
			"url":       url,
		}, e)
		return nil, e
	}

	return v.([]byte), nil
}

func (f *HttpFetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, concurrent.ErrCannotRecover{Cause: stderr.Wrap(err, "failed to build artifact request")}
	}

	res, err := f.client.Do(req)
	if err != nil {
		return nil, stderr.Wrap(err, "failed to request artifact")
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("artifact store responded with status %d", res.StatusCode)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, concurrent.ErrCannotRecover{
			Cause: fmt.Errorf("artifact store responded with status %d", res.StatusCode),
		}
	}

	p, err := rw.ReadAllWithLimit(res.Body, rw.ReadLimitProps{
		FailOnExceed: true,
		Limit:        f.maxBytes,
	})
	if err == rw.ErrLimitExceeded {
		return nil, concurrent.ErrCannotRecover{
			Cause: fmt.Errorf("artifact document exceeds %d bytes", f.maxBytes),
		}
	}
	if err != nil {
		return nil, stderr.Wrap(err, "failed to read artifact")
	}

	return p, nil
}
