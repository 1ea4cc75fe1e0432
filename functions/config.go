package functions

import (
	"errors"
	"math"
	"net/url"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oasislabs/quorum-functions/config"
	"github.com/oasislabs/quorum-functions/contract"
	"github.com/oasislabs/quorum-functions/log"
	"github.com/oasislabs/quorum-functions/metrics"
	"github.com/oasislabs/quorum-functions/wallet"
)

const (
	ServerModeHttp   = "http"
	ServerModeLambda = "lambda"
)

// ServerConfig selects how the service is hosted
type ServerConfig struct {
	Mode string
}

func (c *ServerConfig) Log(fields log.Fields) {
	fields.Add("server.mode", c.Mode)
}

func (c *ServerConfig) Configure(v *viper.Viper) error {
	c.Mode = v.GetString("server.mode")
	switch c.Mode {
	case ServerModeHttp, ServerModeLambda:
		return nil
	default:
		return config.ErrInvalidValue{Key: "server.mode", InvalidValue: c.Mode,
			Values: []string{ServerModeHttp, ServerModeLambda}}
	}
}

func (c *ServerConfig) Bind(v *viper.Viper, cmd *cobra.Command) error {
	cmd.PersistentFlags().String("server.mode", ServerModeHttp,
		"hosting mode of the service. Must be one of http, lambda")
	return nil
}

// BindConfig is the configuration for binding the exposed APIs
// to the computer network interface
type BindConfig struct {
	HttpInterface      string
	HttpPort           int32
	HttpReadTimeoutMs  int32
	HttpWriteTimeoutMs int32
	HttpMaxHeaderBytes int32
	HttpMaxBodyBytes   int32
	HttpsEnabled       bool
	TlsCertificatePath string
	TlsPrivateKeyPath  string
}

func (c *BindConfig) Log(fields log.Fields) {
	fields.Add("bind.http_interface", c.HttpInterface)
	fields.Add("bind.http_port", c.HttpPort)
	fields.Add("bind.http_read_timeout_ms", c.HttpReadTimeoutMs)
	fields.Add("bind.http_write_timeout_ms", c.HttpWriteTimeoutMs)
	fields.Add("bind.http_max_header_bytes", c.HttpMaxHeaderBytes)
	fields.Add("bind.http_max_body_bytes", c.HttpMaxBodyBytes)
	fields.Add("bind.https_enabled", c.HttpsEnabled)
	fields.Add("bind.tls_certificate_path", c.TlsCertificatePath)
	fields.Add("bind.tls_private_key_path", c.TlsPrivateKeyPath)
}

func (c *BindConfig) Configure(v *viper.Viper) error {
	c.HttpInterface = v.GetString("bind.http_interface")
	if len(c.HttpInterface) == 0 {
		return errors.New("bind.http_interface must be set")
	}

	c.HttpPort = v.GetInt32("bind.http_port")
	if c.HttpPort > 65535 || c.HttpPort < 0 {
		return errors.New("bind.http_port must be an integer between 0 and 65535")
	}

	c.HttpReadTimeoutMs = v.GetInt32("bind.http_read_timeout_ms")
	if c.HttpReadTimeoutMs < 0 {
		return errors.New("bind.http_read_timeout_ms cannot be negative")
	}

	c.HttpWriteTimeoutMs = v.GetInt32("bind.http_write_timeout_ms")
	if c.HttpWriteTimeoutMs < 0 {
		return errors.New("bind.http_write_timeout_ms cannot be negative")
	}

	c.HttpMaxHeaderBytes = v.GetInt32("bind.http_max_header_bytes")
	if c.HttpMaxHeaderBytes < 0 {
		return errors.New("bind.http_max_header_bytes cannot be negative")
	}

	c.HttpMaxBodyBytes = v.GetInt32("bind.http_max_body_bytes")
	if c.HttpMaxBodyBytes <= 0 {
		return errors.New("bind.http_max_body_bytes must be positive")
	}

	c.HttpsEnabled = v.GetBool("bind.https_enabled")
	c.TlsCertificatePath = v.GetString("bind.tls_certificate_path")
	c.TlsPrivateKeyPath = v.GetString("bind.tls_private_key_path")

	if c.HttpsEnabled {
		if len(c.TlsCertificatePath) == 0 || len(c.TlsPrivateKeyPath) == 0 {
			return errors.New("bind.tls_certificate_path and bind.tls_private_key_path " +
				"must be set if bind.https_enabled is set")
		}
	}

	return nil
}

func (c *BindConfig) Bind(v *viper.Viper, cmd *cobra.Command) error {
	cmd.PersistentFlags().String("bind.http_interface", "127.0.0.1",
		"interface to bind for http")
	cmd.PersistentFlags().Int32("bind.http_port", 1234,
		"port to listen to for http")
	cmd.PersistentFlags().Int32("bind.http_read_timeout_ms",
		10000, "http read timeout for http interface")
	cmd.PersistentFlags().Int32("bind.http_write_timeout_ms",
		90000, "http write timeout for http interface")
	cmd.PersistentFlags().Int32("bind.http_max_header_bytes",
		10000, "http max header bytes for http")
	cmd.PersistentFlags().Int32("bind.http_max_body_bytes",
		1<<20, "maximum size of a request body")
	cmd.PersistentFlags().Bool("bind.https_enabled",
		false, "if set the interface will listen with https. If this option is "+
			"set, then bind.tls_certificate_path and bind.tls_private_key_path "+
			"must be set as well")
	cmd.PersistentFlags().String("bind.tls_certificate_path",
		"", "path to the tls certificate for https")
	cmd.PersistentFlags().String("bind.tls_private_key_path",
		"", "path to the private key for https")

	return nil
}

// CorsConfig sets the origins allowed to make cross domain
// requests
type CorsConfig struct {
	AllowedOrigins []string
}

func (c *CorsConfig) Log(fields log.Fields) {
	fields.Add("cors.allowed_origins", c.AllowedOrigins)
}

func (c *CorsConfig) Configure(v *viper.Viper) error {
	c.AllowedOrigins = v.GetStringSlice("cors.allowed_origins")
	return nil
}

func (c *CorsConfig) Bind(v *viper.Viper, cmd *cobra.Command) error {
	cmd.PersistentFlags().StringSlice("cors.allowed_origins", []string{"*"},
		"origins allowed to make cross domain requests")
	return nil
}

// EthConfig is the configuration for the chain node and its
// privacy manager
type EthConfig struct {
	URL              string
	TimeoutMs        int32
	ReceiptTimeoutMs int32
	PrivateURL       string
	PrivateFrom      string
}

func (c *EthConfig) Log(fields log.Fields) {
	fields.Add("eth.url", c.URL)
	fields.Add("eth.timeout_ms", c.TimeoutMs)
	fields.Add("eth.receipt_timeout_ms", c.ReceiptTimeoutMs)
	fields.Add("eth.private_url", c.PrivateURL)
	fields.Add("eth.private_from", c.PrivateFrom)
}

func (c *EthConfig) Configure(v *viper.Viper) error {
	c.URL = v.GetString("eth.url")
	if len(c.URL) == 0 {
		return config.ErrKeyNotSet{Key: "eth.url"}
	}

	u, err := url.Parse(c.URL)
	if err != nil {
		return config.ErrInvalidValue{Key: "eth.url", InvalidValue: c.URL}
	}

	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return config.ErrInvalidValue{Key: "eth.url", InvalidValue: c.URL,
			Values: []string{"http://", "https://", "ws://", "wss://"}}
	}

	c.TimeoutMs = v.GetInt32("eth.timeout_ms")
	if c.TimeoutMs <= 0 {
		return errors.New("eth.timeout_ms must be positive")
	}

	c.ReceiptTimeoutMs = v.GetInt32("eth.receipt_timeout_ms")
	if c.ReceiptTimeoutMs <= 0 {
		return errors.New("eth.receipt_timeout_ms must be positive")
	}

	c.PrivateURL = v.GetString("eth.private_url")
	c.PrivateFrom = v.GetString("eth.private_from")
	return nil
}

func (c *EthConfig) Bind(v *viper.Viper, cmd *cobra.Command) error {
	cmd.PersistentFlags().String("eth.url", "", "url for the chain rpc endpoint")
	cmd.PersistentFlags().Int32("eth.timeout_ms", 30000, "timeout of each call to the node")
	cmd.PersistentFlags().Int32("eth.receipt_timeout_ms", 60000,
		"maximum time to wait for the receipt of a transaction")
	cmd.PersistentFlags().String("eth.private_url", "",
		"url of the privacy manager third party api. Required for private transactions")
	cmd.PersistentFlags().String("eth.private_from", "",
		"public key of the privacy manager used as sender of private transactions")
	return nil
}

func (c *EthConfig) EnvAliases() map[string]string {
	return map[string]string{"eth.url": "RPC"}
}

// ContractConfig is the configuration of the contract artifact
// and of its cache
type ContractConfig struct {
	BlobURL        string
	FetchTimeoutMs int32
	FetchAttempts  uint8
	CacheProvider  string
	CacheTTLMs     int32
	CacheRedisAddr string
}

func (c *ContractConfig) Log(fields log.Fields) {
	fields.Add("contract.blob_url", c.BlobURL)
	fields.Add("contract.fetch_timeout_ms", c.FetchTimeoutMs)
	fields.Add("contract.fetch_attempts", c.FetchAttempts)
	fields.Add("contract.cache.provider", c.CacheProvider)
	fields.Add("contract.cache.ttl_ms", c.CacheTTLMs)
	fields.Add("contract.cache.redis_addr", c.CacheRedisAddr)
}

func (c *ContractConfig) Configure(v *viper.Viper) error {
	c.BlobURL = v.GetString("contract.blob_url")
	if len(c.BlobURL) == 0 {
		return config.ErrKeyNotSet{Key: "contract.blob_url"}
	}

	if _, err := url.ParseRequestURI(c.BlobURL); err != nil {
		return config.ErrInvalidValue{Key: "contract.blob_url", InvalidValue: c.BlobURL}
	}

	c.FetchTimeoutMs = v.GetInt32("contract.fetch_timeout_ms")
	if c.FetchTimeoutMs <= 0 {
		return errors.New("contract.fetch_timeout_ms must be positive")
	}

	attempts, err := getAttempts(v, "contract.fetch_attempts")
	if err != nil {
		return err
	}
	c.FetchAttempts = attempts

	c.CacheTTLMs = v.GetInt32("contract.cache.ttl_ms")
	if c.CacheTTLMs < 0 {
		return errors.New("contract.cache.ttl_ms cannot be negative")
	}

	c.CacheRedisAddr = v.GetString("contract.cache.redis_addr")
	c.CacheProvider = v.GetString("contract.cache.provider")
	switch c.CacheProvider {
	case contract.CacheProviderNone, contract.CacheProviderMem:
		return nil
	case contract.CacheProviderRedis:
		if len(c.CacheRedisAddr) == 0 {
			return config.ErrKeyNotSet{Key: "contract.cache.redis_addr"}
		}
		return nil
	default:
		return config.ErrInvalidValue{Key: "contract.cache.provider", InvalidValue: c.CacheProvider,
			Values: []string{contract.CacheProviderNone, contract.CacheProviderMem, contract.CacheProviderRedis}}
	}
}

func (c *ContractConfig) Bind(v *viper.Viper, cmd *cobra.Command) error {
	cmd.PersistentFlags().String("contract.blob_url", "", "url of the contract artifact document")
	cmd.PersistentFlags().Int32("contract.fetch_timeout_ms", 10000, "timeout of each artifact fetch")
	cmd.PersistentFlags().Uint32("contract.fetch_attempts", 3, "attempts to fetch the artifact")
	cmd.PersistentFlags().String("contract.cache.provider", contract.CacheProviderMem,
		"cache for the artifact document. Must be one of none, mem, redis")
	cmd.PersistentFlags().Int32("contract.cache.ttl_ms", 300000, "time to live of the cached artifact")
	cmd.PersistentFlags().String("contract.cache.redis_addr", "", "address of the redis cache")
	return nil
}

func (c *ContractConfig) EnvAliases() map[string]string {
	return map[string]string{"contract.blob_url": "CONTRACT_JSON_BLOB_URL"}
}

// KmsConfig is the configuration of the key service that holds
// the signing key
type KmsConfig struct {
	KeyURI    string
	Identity  string
	AppID     string
	AppSecret string
	TenantID  string
	TimeoutMs int32
	Attempts  uint8
}

func (c *KmsConfig) Log(fields log.Fields) {
	fields.Add("kms.key_uri", c.KeyURI)
	fields.Add("kms.identity", c.Identity)
	fields.Add("kms.app_id", c.AppID)
	// do not log the secret itself
	fields.Add("kms.app_secret_set", len(c.AppSecret) > 0)
	fields.Add("kms.tenant_id", c.TenantID)
	fields.Add("kms.timeout_ms", c.TimeoutMs)
	fields.Add("kms.attempts", c.Attempts)
}

func (c *KmsConfig) Configure(v *viper.Viper) error {
	c.KeyURI = v.GetString("kms.key_uri")
	if len(c.KeyURI) == 0 {
		return config.ErrKeyNotSet{Key: "kms.key_uri"}
	}

	if _, err := wallet.ParseKeyURI(c.KeyURI); err != nil {
		return config.ErrInvalidValue{Key: "kms.key_uri", InvalidValue: c.KeyURI}
	}

	c.AppID = v.GetString("kms.app_id")
	if len(c.AppID) == 0 {
		return config.ErrKeyNotSet{Key: "kms.app_id"}
	}

	c.AppSecret = v.GetString("kms.app_secret")
	if len(c.AppSecret) == 0 {
		return config.ErrKeyNotSet{Key: "kms.app_secret"}
	}

	c.TenantID = v.GetString("kms.tenant_id")
	c.Identity = v.GetString("kms.identity")
	switch c.Identity {
	case wallet.IdentityManaged:
	case wallet.IdentitySecret:
		if len(c.TenantID) == 0 {
			return config.ErrKeyNotSet{Key: "kms.tenant_id"}
		}
	default:
		return config.ErrInvalidValue{Key: "kms.identity", InvalidValue: c.Identity,
			Values: []string{wallet.IdentityManaged, wallet.IdentitySecret}}
	}

	c.TimeoutMs = v.GetInt32("kms.timeout_ms")
	if c.TimeoutMs <= 0 {
		return errors.New("kms.timeout_ms must be positive")
	}

	attempts, err := getAttempts(v, "kms.attempts")
	if err != nil {
		return err
	}
	c.Attempts = attempts

	return nil
}

func (c *KmsConfig) Bind(v *viper.Viper, cmd *cobra.Command) error {
	cmd.PersistentFlags().String("kms.key_uri", "",
		"identifier of the signing key, https://<vault>/keys/<name>[/<version>]")
	cmd.PersistentFlags().String("kms.identity", wallet.IdentityManaged,
		"identity used to access the key. Must be one of managed, secret")
	cmd.PersistentFlags().String("kms.app_id", "", "application identifier")
	cmd.PersistentFlags().String("kms.app_secret", "", "application secret")
	cmd.PersistentFlags().String("kms.tenant_id", "", "directory tenant of the application")
	cmd.PersistentFlags().Int32("kms.timeout_ms", 10000, "timeout of each call to the key service")
	cmd.PersistentFlags().Uint32("kms.attempts", 3, "attempts of each call to the key service")
	return nil
}

func (c *KmsConfig) EnvAliases() map[string]string {
	return map[string]string{
		"kms.key_uri":    "KEYVAULT_PRIVATEKEY_URI",
		"kms.app_id":     "APP_ID",
		"kms.app_secret": "APP_SECRET",
	}
}

// Config is the general application's configuration
type Config struct {
	ServerConfig   ServerConfig
	BindConfig     BindConfig
	CorsConfig     CorsConfig
	EthConfig      EthConfig
	ContractConfig ContractConfig
	KmsConfig      KmsConfig
	MetricsConfig  metrics.MetricsConfig
	LoggingConfig  log.Config
}

func (c *Config) Use() string {
	return "quorum-functions"
}

func (c *Config) EnvPrefix() string {
	return "QUORUM_FN"
}

func (c *Config) Binders() []config.Binder {
	return []config.Binder{
		&c.ServerConfig,
		&c.BindConfig,
		&c.CorsConfig,
		&c.EthConfig,
		&c.ContractConfig,
		&c.KmsConfig,
		&c.MetricsConfig,
		&c.LoggingConfig,
	}
}

func (c *Config) Log(fields log.Fields) {
	c.ServerConfig.Log(fields)
	c.BindConfig.Log(fields)
	c.CorsConfig.Log(fields)
	c.EthConfig.Log(fields)
	c.ContractConfig.Log(fields)
	c.KmsConfig.Log(fields)
	c.MetricsConfig.Log(fields)
	c.LoggingConfig.Log(fields)
}

func ms(v int32) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// getAttempts reads a number of attempts, which must be between
// 1 and 255
func getAttempts(v *viper.Viper, key string) (uint8, error) {
	attempts := v.GetInt64(key)
	if attempts < 1 || attempts > math.MaxUint8 {
		return 0, config.ErrInvalidValue{Key: key, InvalidValue: v.GetString(key),
			Values: []string{"1-255"}}
	}

	return uint8(attempts), nil
}
