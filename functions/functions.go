package functions

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	apicontract "github.com/oasislabs/quorum-functions/api/v0/contract"
	"github.com/oasislabs/quorum-functions/api/v0/health"
	"github.com/oasislabs/quorum-functions/api/v0/version"
	"github.com/oasislabs/quorum-functions/concurrent"
	"github.com/oasislabs/quorum-functions/contract"
	"github.com/oasislabs/quorum-functions/eth"
	"github.com/oasislabs/quorum-functions/log"
	"github.com/oasislabs/quorum-functions/metrics"
	"github.com/oasislabs/quorum-functions/rpc"
	"github.com/oasislabs/quorum-functions/tx"
	"github.com/oasislabs/quorum-functions/wallet"
)

const serviceName = "quorum_functions"

// Build identifies the binary. It is set at link time
var Build = ""

// Services are the ready to use collaborators of the request
// handlers. They are built once and shared by every request
type Services struct {
	Logger   log.Logger
	Executor apicontract.Executor

	// Checkers verify the dependencies on a health request
	Checkers map[string]health.Checker

	// Registry gathers the metrics of the service. Optional
	Registry *prometheus.Registry

	// Close releases the connections held by the services
	Close func()
}

// Factories create the clients to the remote dependencies. They
// can be replaced to run the service against fakes
type Factories struct {
	EthClientFactory EthClientFactoryFunc
	KeyClientFactory KeyClientFactoryFunc
}

type EthClientFactoryFunc func(ctx context.Context, config *EthConfig) (eth.Client, error)

type KeyClientFactoryFunc func(config *KmsConfig) (wallet.KeyClient, error)

// DefaultFactories connect to the configured node and key vault
var DefaultFactories = Factories{
	EthClientFactory: NewEthClient,
	KeyClientFactory: NewKeyClient,
}

// NewEthClient dials the node configured in config
func NewEthClient(ctx context.Context, config *EthConfig) (eth.Client, error) {
	client, err := eth.DialContext(ctx, config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize eth client with error %s", err.Error())
	}

	return client, nil
}

// NewKeyClient creates the key vault client with the identity
// variant selected in config
func NewKeyClient(config *KmsConfig) (wallet.KeyClient, error) {
	cred, err := wallet.NewCredential(wallet.CredentialProps{
		Identity:  config.Identity,
		TenantID:  config.TenantID,
		AppID:     config.AppID,
		AppSecret: config.AppSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create key service credential %s", err.Error())
	}

	client, err := wallet.NewKeyClient(config.KeyURI, cred)
	if err != nil {
		return nil, fmt.Errorf("failed to create key service client %s", err.Error())
	}

	return client, nil
}

// NewArtifactCache creates the cache selected in config
func NewArtifactCache(config *ContractConfig) (contract.Cache, error) {
	switch config.CacheProvider {
	case contract.CacheProviderNone:
		return contract.NoCache{}, nil
	case contract.CacheProviderMem:
		return contract.NewMemCache(0), nil
	case contract.CacheProviderRedis:
		return contract.NewRedisCache(config.CacheRedisAddr), nil
	default:
		return nil, fmt.Errorf("unknown artifact cache provider %s", config.CacheProvider)
	}
}

func NewResolver(logger log.Logger, m *metrics.DependencyMetrics, config *ContractConfig) (contract.Resolver, error) {
	cache, err := NewArtifactCache(config)
	if err != nil {
		return nil, err
	}

	fetcher := contract.NewHttpFetcher(&contract.HttpFetcherServices{
		Logger:  logger,
		Client:  http.DefaultClient,
		Metrics: m,
	}, &contract.HttpFetcherProps{
		Timeout:     ms(config.FetchTimeoutMs),
		RetryConfig: concurrent.RandomConfigWithAttempts(config.FetchAttempts),
	})

	return contract.NewCachedResolver(&contract.CachedResolverServices{
		Logger:  logger,
		Fetcher: fetcher,
		Cache:   cache,
	}, &contract.CachedResolverProps{
		URL: config.BlobURL,
		TTL: ms(config.CacheTTLMs),
	}), nil
}

func NewTransactor(logger log.Logger, m *metrics.DependencyMetrics, client eth.Client, config *EthConfig) *eth.Transactor {
	var private eth.PrivacyManager
	if len(config.PrivateURL) > 0 {
		private = eth.NewTesseraClient(http.DefaultClient, &eth.TesseraProps{
			URL:     config.PrivateURL,
			From:    config.PrivateFrom,
			Timeout: ms(config.TimeoutMs),
		})
	}

	return eth.NewTransactor(&eth.TransactorServices{
		Logger:         logger,
		Client:         client,
		Metrics:        m,
		PrivacyManager: private,
	}, &eth.TransactorProps{
		CallTimeout:    ms(config.TimeoutMs),
		ReceiptTimeout: ms(config.ReceiptTimeoutMs),
	})
}

// NewServices builds the collaborators of the request handlers.
// Only the node is contacted, the key service and the artifact
// store are first reached when a request is served
func NewServices(ctx context.Context, logger log.Logger, config *Config, factories Factories) (Services, error) {
	registry := prometheus.NewRegistry()
	m := metrics.NewDependencyMetrics(registry, serviceName)

	keyClient, err := factories.KeyClientFactory(&config.KmsConfig)
	if err != nil {
		return Services{}, err
	}

	provider, err := wallet.NewKeyVaultProvider(&wallet.KeyVaultServices{
		Logger:  logger,
		Client:  keyClient,
		Metrics: m,
	}, &wallet.KeyVaultProps{
		KeyURI:      config.KmsConfig.KeyURI,
		Timeout:     ms(config.KmsConfig.TimeoutMs),
		RetryConfig: concurrent.RandomConfigWithAttempts(config.KmsConfig.Attempts),
	})
	if err != nil {
		return Services{}, err
	}

	resolver, err := NewResolver(logger, m, &config.ContractConfig)
	if err != nil {
		return Services{}, err
	}

	client, err := factories.EthClientFactory(ctx, &config.EthConfig)
	if err != nil {
		return Services{}, err
	}

	transactor := NewTransactor(logger, m, client, &config.EthConfig)

	return Services{
		Logger: logger,
		Executor: tx.NewExecutor(&tx.ExecutorServices{
			Logger:     logger,
			Resolver:   resolver,
			Wallets:    provider,
			Transactor: transactor,
		}),
		Checkers: map[string]health.Checker{
			"chain": transactor,
			"kms": health.CheckerFunc(func(ctx context.Context) error {
				_, err := provider.ResolveAddress(ctx)
				if err != nil {
					return err
				}
				return nil
			}),
		},
		Registry: registry,
		Close:    client.Close,
	}, nil
}

// RouterProps configure the http router
type RouterProps struct {
	MaxBodyBytes   uint
	AllowedOrigins []string
}

// NewRouter binds all the handlers of the service to an http
// router
func NewRouter(services Services, props RouterProps) *rpc.HttpRouter {
	var m *metrics.ServiceMetrics
	if services.Registry != nil {
		m = metrics.NewServiceMetrics(services.Registry, serviceName)
	}

	binder := rpc.NewHttpBinder(rpc.HttpBinderProperties{
		Encoder:        rpc.TextEncoder{},
		Logger:         services.Logger,
		HandlerFactory: rpc.JsonHandlerFactory(services.Logger, props.MaxBodyBytes),
		Metrics:        m,
	})

	if len(props.AllowedOrigins) > 0 {
		binder.AddPreProcessor(rpc.NewHttpCorsPreProcessor(rpc.HttpCorsPreProcessorProps{
			Enabled:        true,
			AllowedOrigins: props.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Content-Type", rpc.HttpHeaderTraceID},
			ExposedHeaders: []string{rpc.HttpHeaderTraceID},
		}))
	}

	apicontract.BindHandler(apicontract.Services{
		Logger:   services.Logger,
		Executor: services.Executor,
	}, binder)
	health.BindHandler(health.Services{
		Logger:   services.Logger,
		Checkers: services.Checkers,
	}, binder)
	version.BindHandler(&version.Deps{Build: Build}, binder)

	return binder.Build()
}
