package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/oasislabs/quorum-functions/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Exporter makes the gathered metrics available to Prometheus,
// either by serving them or by pushing them to a gateway
type Exporter interface {
	Start()
	Stop()

	// Flush pushes the current values right away in push mode. Lambda
	// invocations call it since the process is frozen between them
	Flush()
}

// New creates the Exporter selected by config.Mode
func New(config *MetricsConfig, gatherer prometheus.Gatherer, logger log.Logger) (Exporter, error) {
	logger = logger.ForClass("metrics", "Exporter")

	switch mode := strings.ToLower(config.Mode); mode {
	case metricsModeNone, "":
		return noopExporter{}, nil
	case metricsModePull:
		return &pullExporter{
			logger: logger,
			server: &http.Server{
				Addr:              net.JoinHostPort(config.PullAddr, config.PullPort),
				Handler:           promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
				ReadHeaderTimeout: 10 * time.Second,
				WriteTimeout:      10 * time.Second,
			},
		}, nil
	case metricsModePush:
		if len(config.PushAddr) == 0 || len(config.PushJobName) == 0 {
			return nil, fmt.Errorf("metrics: push mode requires %s and %s", cfgMetricsPushAddr, cfgMetricsPushJobName)
		}

		interval := config.PushInterval
		if interval <= 0 {
			interval = defaultPushInterval * time.Second
		}

		return &pushExporter{
			logger:   logger,
			interval: interval,
			done:     make(chan struct{}),
			pusher: push.New(config.PushAddr, config.PushJobName).
				Grouping("instance", config.PushInstanceLabel).
				Gatherer(gatherer),
		}, nil
	default:
		return nil, fmt.Errorf("metrics: unsupported mode: '%v'", mode)
	}
}

type noopExporter struct{}

func (noopExporter) Start() {}
func (noopExporter) Stop()  {}
func (noopExporter) Flush() {}

// pullExporter serves the metrics on their own listener so that they
// are not exposed through the service routes
type pullExporter struct {
	logger log.Logger
	server *http.Server
}

func (e *pullExporter) Start() {
	go func() {
		err := e.server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			e.logger.Error(context.Background(), "metrics server stopped", log.MapFields{
				"addr": e.server.Addr,
				"err":  err.Error(),
			})
		}
	}()
}

func (e *pullExporter) Flush() {}

func (e *pullExporter) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = e.server.Shutdown(ctx)
}

// pushExporter pushes to a gateway every interval, and once more on
// Stop so that short lived invocations are not lost
type pushExporter struct {
	logger   log.Logger
	interval time.Duration
	pusher   *push.Pusher
	done     chan struct{}
}

func (e *pushExporter) Start() {
	go func() {
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()

		for {
			select {
			case <-e.done:
				return
			case <-ticker.C:
				e.push()
			}
		}
	}()
}

func (e *pushExporter) Stop() {
	close(e.done)
	e.push()
}

func (e *pushExporter) Flush() {
	e.push()
}

func (e *pushExporter) push() {
	if err := e.pusher.Push(); err != nil {
		e.logger.Warn(context.Background(), "failed to push metrics", log.MapFields{
			"err": err.Error(),
		})
	}
}
