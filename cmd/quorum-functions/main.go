package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"

	"github.com/oasislabs/quorum-functions/config"
	"github.com/oasislabs/quorum-functions/functions"
	"github.com/oasislabs/quorum-functions/log"
	"github.com/oasislabs/quorum-functions/metrics"
)

const shutdownTimeout = 30 * time.Second

func parseConfig(ctx context.Context) *functions.Config {
	c := &functions.Config{}
	parser, err := config.Generate(c)
	if err != nil {
		fmt.Println("failed to generate configuration parser: ", err.Error())
		os.Exit(1)
	}

	if err := parser.Parse(); err != nil {
		// the configured logger is not available yet
		log.New(&log.Config{}).Error(ctx, "failed to parse configuration", config.AsErr(err))
		_ = parser.Usage()
		os.Exit(1)
	}

	return c
}

// serveHttp serves router until ctx is done and then waits for the
// inflight requests to complete
func serveHttp(ctx context.Context, logger log.Logger, c *functions.BindConfig, router http.Handler) {
	s := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", c.HttpInterface, c.HttpPort),
		Handler:        router,
		ReadTimeout:    time.Duration(c.HttpReadTimeoutMs) * time.Millisecond,
		WriteTimeout:   time.Duration(c.HttpWriteTimeoutMs) * time.Millisecond,
		MaxHeaderBytes: int(c.HttpMaxHeaderBytes),
	}

	errCh := make(chan error, 1)
	go func() {
		if c.HttpsEnabled {
			errCh <- s.ListenAndServeTLS(c.TlsCertificatePath, c.TlsPrivateKeyPath)
		} else {
			errCh <- s.ListenAndServe()
		}
	}()

	logger.Info(ctx, "http server listening", log.MapFields{
		"addr": s.Addr,
	})

	select {
	case err := <-errCh:
		logger.Fatal(ctx, "http server failed to listen", log.MapFields{
			"err": err.Error(),
		})
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		logger.Warn(shutdownCtx, "http server failed to shut down gracefully", log.MapFields{
			"err": err.Error(),
		})
	}
}

// serveLambda serves router behind API Gateway proxy events. It
// does not return, so metrics are flushed after every invocation
func serveLambda(logger log.Logger, router http.Handler, exporter metrics.Exporter) {
	adapter := httpadapter.New(router)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		logger.Debug(ctx, "received lambda request", log.MapFields{
			"call_type": "LambdaRequestAttempt",
			"path":      req.Path,
			"method":    req.HTTPMethod,
		})

		defer exporter.Flush()
		return adapter.ProxyWithContext(ctx, req)
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := parseConfig(ctx)
	logger := log.New(&c.LoggingConfig)

	logger.Info(ctx, "starting quorum functions", c)

	services, err := functions.NewServices(ctx, logger, c, functions.DefaultFactories)
	if err != nil {
		logger.Fatal(ctx, "failed to create services", log.MapFields{
			"err": err.Error(),
		})
		os.Exit(1)
	}
	defer services.Close()

	router := functions.NewRouter(services, functions.RouterProps{
		MaxBodyBytes:   uint(c.BindConfig.HttpMaxBodyBytes),
		AllowedOrigins: c.CorsConfig.AllowedOrigins,
	})

	metricsService, err := metrics.New(&c.MetricsConfig, services.Registry, logger)
	if err != nil {
		logger.Fatal(ctx, "failed to create metrics service", log.MapFields{
			"err": err.Error(),
		})
		os.Exit(1)
	}
	metricsService.Start()
	defer metricsService.Stop()

	switch c.ServerConfig.Mode {
	case functions.ServerModeLambda:
		serveLambda(logger, router, metricsService)
	default:
		serveHttp(ctx, logger, &c.BindConfig, router)
	}
}
