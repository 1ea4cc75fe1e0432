package wallet

import (
	"context"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azkeys"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	stderr "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oasislabs/quorum-functions/concurrent"
	"github.com/oasislabs/quorum-functions/errors"
	"github.com/oasislabs/quorum-functions/log"
	"github.com/oasislabs/quorum-functions/metrics"
)

const (
	dependencyName = "kms"

	defaultTimeout = 10 * time.Second
)

var (
	secp256k1N     = crypto.S256().Params().N
	secp256k1HalfN = new(big.Int).Rsh(secp256k1N, 1)
)

// KeyClient is the subset of the key vault client used to sign
// with a key. *azkeys.Client implements it
type KeyClient interface {
	GetKey(ctx context.Context, name string, version string, options *azkeys.GetKeyOptions) (azkeys.GetKeyResponse, error)
	Sign(ctx context.Context, name string, version string, parameters azkeys.SignParameters, options *azkeys.SignOptions) (azkeys.SignResponse, error)
}

// KeyReference identifies a key in a key vault
type KeyReference struct {
	VaultURL string
	Name     string
	Version  string
}

// ParseKeyURI parses a key identifier of the form
// https://{vault}/keys/{name}[/{version}]
func ParseKeyURI(uri string) (KeyReference, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return KeyReference{}, stderr.Wrap(err, "failed to parse key uri")
	}

	if u.Scheme != "https" || len(u.Host) == 0 {
		return KeyReference{}, fmt.Errorf("key uri %s must be an https url", uri)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] != "keys" || len(parts[1]) == 0 {
		return KeyReference{}, fmt.Errorf("key uri %s must have the form https://{vault}/keys/{name}[/{version}]", uri)
	}

	ref := KeyReference{
		VaultURL: u.Scheme + "://" + u.Host,
		Name:     parts[1],
	}
	if len(parts) == 3 {
		ref.Version = parts[2]
	}

	return ref, nil
}

// KeyVaultServices are the collaborators of a KeyVaultProvider
type KeyVaultServices struct {
	Logger  log.Logger
	Client  KeyClient
	Metrics *metrics.DependencyMetrics
}

// KeyVaultProps configure a KeyVaultProvider
type KeyVaultProps struct {
	// KeyURI is the identifier of the secp256k1 key
	KeyURI string

	// Timeout bounds every call to the key service
	Timeout time.Duration

	// RetryConfig bounds the retries of calls that fail with
	// a transient error
	RetryConfig concurrent.RetryConfig
}

// KeyVaultProvider provides wallets backed by a key vault
// secp256k1 key
type KeyVaultProvider struct {
	client      KeyClient
	key         KeyReference
	timeout     time.Duration
	retryConfig concurrent.RetryConfig
	logger      log.Logger
	metrics     *metrics.DependencyMetrics
}

// NewKeyVaultProvider creates a new KeyVaultProvider. No call to
// the key service is made until a wallet is acquired
func NewKeyVaultProvider(services *KeyVaultServices, props *KeyVaultProps) (*KeyVaultProvider, error) {
	key, err := ParseKeyURI(props.KeyURI)
	if err != nil {
		return nil, err
	}

	if services.Client == nil {
		return nil, stderr.New("key client must be set")
	}

	timeout := props.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &KeyVaultProvider{
		client:      services.Client,
		key:         key,
		timeout:     timeout,
		retryConfig: props.RetryConfig,
		logger:      services.Logger.ForClass("wallet", "KeyVaultProvider"),
		metrics:     services.Metrics,
	}, nil
}

// ResolveAddress implementation of Provider for KeyVaultProvider
func (p *KeyVaultProvider) ResolveAddress(ctx context.Context) (common.Address, errors.Err) {
	address, _, err := p.fetchKey(ctx)
	return address, err
}

// Acquire implementation of Provider for KeyVaultProvider. The
// wallet returned signs with the key version resolved at
// acquisition
func (p *KeyVaultProvider) Acquire(ctx context.Context) (Wallet, errors.Err) {
	address, version, err := p.fetchKey(ctx)
	if err != nil {
		return nil, err
	}

	return &KeyVaultWallet{
		provider: p,
		address:  address,
		version:  version,
	}, nil
}

func (p *KeyVaultProvider) fetchKey(ctx context.Context) (common.Address, string, errors.Err) {
	fields := log.MapFields{"call_type": "GetKeyAttempt", "key": p.key.Name}
	p.logger.Debug(ctx, "", fields)

	v, err := p.call(ctx, "get_key", func(ctx context.Context) (interface{}, error) {
		return p.client.GetKey(ctx, p.key.Name, p.key.Version, nil)
	})
	if err != nil {
		p.logger.Debug(ctx, "failed to get key", log.MapFields{
			"call_type": "GetKeyFailure",
			"key":       p.key.Name,
		}, err)
		return common.Address{}, "", err
	}

	res := v.(azkeys.GetKeyResponse)
	address, version, perr := keyAddress(res.Key)
	if perr != nil {
		// the key uri names a key that cannot sign for an account
		err := errors.New(errors.ErrConfiguration, perr)
		p.logger.Debug(ctx, "key is not a secp256k1 key", log.MapFields{
			"call_type": "GetKeyFailure",
			"key":       p.key.Name,
		}, err)
		return common.Address{}, "", err
	}

	if len(version) == 0 {
		version = p.key.Version
	}

	p.logger.Debug(ctx, "", log.MapFields{
		"call_type": "GetKeySuccess",
		"key":       p.key.Name,
		"version":   version,
		"address":   address.Hex(),
	})

	return address, version, nil
}

// call executes fn with a timeout for each attempt, retrying
// transient failures
func (p *KeyVaultProvider) call(
	ctx context.Context,
	operation string,
	fn func(ctx context.Context) (interface{}, error),
) (interface{}, errors.Err) {
	v, err := concurrent.RetryWithConfig(ctx, concurrent.SupplierFunc(func() (interface{}, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		timer := p.startTimer(operation)
		v, err := fn(attemptCtx)
		p.observe(timer, operation, err)
		if err == nil {
			return v, nil
		}

		e := classify(err)
		if e.Code().Category() != errors.TransientError {
			return nil, concurrent.ErrCannotRecover{Cause: e}
		}

		return nil, e
	}), p.retryConfig)
	if err == nil {
		return v, nil
	}

	// a cancelled context or exhausted attempts leave the key
	// service unavailable for this request
	if e, ok := err.(errors.Err); ok {
		return nil, e
	}

	return nil, errors.New(errors.ErrTransientUnavailable, err)
}

func (p *KeyVaultProvider) startTimer(operation string) *prometheus.Timer {
	if p.metrics == nil {
		return nil
	}

	return p.metrics.DependencyTimer(dependencyName, operation)
}

func (p *KeyVaultProvider) observe(timer *prometheus.Timer, operation string, err error) {
	if timer != nil {
		p.metrics.Observe(timer, dependencyName, operation, err)
	}
}

// KeyVaultWallet is a Wallet whose signatures are computed by
// the key vault
type KeyVaultWallet struct {
	provider *KeyVaultProvider
	address  common.Address
	version  string
}

// Address implementation of Wallet for KeyVaultWallet
func (w *KeyVaultWallet) Address() common.Address {
	return w.address
}

// SignHash implementation of Wallet for KeyVaultWallet
func (w *KeyVaultWallet) SignHash(ctx context.Context, hash common.Hash) ([]byte, errors.Err) {
	p := w.provider
	p.logger.Debug(ctx, "", log.MapFields{
		"call_type": "SignAttempt",
		"key":       p.key.Name,
		"hash":      hash.Hex(),
	})

	v, err := p.call(ctx, "sign", func(ctx context.Context) (interface{}, error) {
		return p.client.Sign(ctx, p.key.Name, w.version, azkeys.SignParameters{
			Algorithm: to.Ptr(azkeys.SignatureAlgorithmES256K),
			Value:     hash.Bytes(),
		}, nil)
	})
	if err != nil {
		p.logger.Debug(ctx, "failed to sign", log.MapFields{
			"call_type": "SignFailure",
			"key":       p.key.Name,
		}, err)
		return nil, err
	}

	sig, rerr := recoverableSignature(hash, v.(azkeys.SignResponse).Result, w.address)
	if rerr != nil {
		err := errors.New(errors.ErrSignatureRecovery, rerr)
		p.logger.Debug(ctx, "failed to recover signature", log.MapFields{
			"call_type": "SignFailure",
			"key":       p.key.Name,
		}, err)
		return nil, err
	}

	p.logger.Debug(ctx, "", log.MapFields{
		"call_type": "SignSuccess",
		"key":       p.key.Name,
	})

	return sig, nil
}

// keyAddress derives the account address from a JSON web key. It
// also returns the version of the key if present in its identifier
func keyAddress(key *azkeys.JSONWebKey) (common.Address, string, error) {
	if key == nil {
		return common.Address{}, "", stderr.New("key service returned no key")
	}

	if key.Crv != nil && *key.Crv != azkeys.CurveNameP256K {
		return common.Address{}, "", fmt.Errorf("key curve %s is not P-256K", *key.Crv)
	}

	if len(key.X) == 0 || len(key.X) > 32 || len(key.Y) == 0 || len(key.Y) > 32 {
		return common.Address{}, "", stderr.New("key has invalid coordinates")
	}

	raw := make([]byte, 65)
	raw[0] = 4
	copy(raw[33-len(key.X):33], key.X)
	copy(raw[65-len(key.Y):], key.Y)

	pub, err := crypto.UnmarshalPubkey(raw)
	if err != nil {
		return common.Address{}, "", stderr.Wrap(err, "failed to unmarshal public key")
	}

	var version string
	if key.KID != nil {
		if ref, err := ParseKeyURI(string(*key.KID)); err == nil {
			version = ref.Version
		}
	}

	return crypto.PubkeyToAddress(*pub), version, nil
}

// recoverableSignature converts the [R || S] signature returned by the
// key service into the [R || S || V] form expected by go-ethereum. S is
// normalized to the lower half of the curve order and V is found by
// recovering the public key
func recoverableSignature(hash common.Hash, rs []byte, address common.Address) ([]byte, error) {
	if len(rs) != 64 {
		return nil, fmt.Errorf("signature has length %d, expected 64", len(rs))
	}

	r := new(big.Int).SetBytes(rs[:32])
	s := new(big.Int).SetBytes(rs[32:])
	if s.Cmp(secp256k1HalfN) > 0 {
		s.Sub(secp256k1N, s)
	}

	sig := make([]byte, 65)
	copy(sig[:32], math.PaddedBigBytes(r, 32))
	copy(sig[32:64], math.PaddedBigBytes(s, 32))

	for v := byte(0); v < 2; v++ {
		sig[64] = v
		pub, err := crypto.SigToPub(hash.Bytes(), sig)
		if err != nil {
			continue
		}

		if crypto.PubkeyToAddress(*pub) == address {
			return sig, nil
		}
	}

	return nil, stderr.New("signature does not recover to the key address")
}
