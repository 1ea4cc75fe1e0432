package wallettest

import (
	"context"
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/mock"

	"github.com/oasislabs/quorum-functions/errors"
	"github.com/oasislabs/quorum-functions/wallet"
)

// PrivateKeyWallet is a wallet.Wallet that signs in process
type PrivateKeyWallet struct {
	Key *ecdsa.PrivateKey
}

// NewPrivateKeyWallet creates a wallet with a freshly generated key
func NewPrivateKeyWallet() *PrivateKeyWallet {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}

	return &PrivateKeyWallet{Key: key}
}

func (w *PrivateKeyWallet) Address() common.Address {
	return crypto.PubkeyToAddress(w.Key.PublicKey)
}

func (w *PrivateKeyWallet) SignHash(ctx context.Context, hash common.Hash) ([]byte, errors.Err) {
	sig, err := crypto.Sign(hash.Bytes(), w.Key)
	if err != nil {
		return nil, errors.New(errors.ErrInternalError, err)
	}

	return sig, nil
}

type MockProvider struct {
	mock.Mock
}

func (p *MockProvider) ResolveAddress(ctx context.Context) (common.Address, errors.Err) {
	args := p.Called(ctx)
	return args.Get(0).(common.Address), toErr(args.Get(1))
}

func (p *MockProvider) Acquire(ctx context.Context) (wallet.Wallet, errors.Err) {
	args := p.Called(ctx)
	if err := toErr(args.Get(1)); err != nil {
		return nil, err
	}

	return args.Get(0).(wallet.Wallet), nil
}

// ImplementProvider sets up provider to hand out w
func ImplementProvider(provider *MockProvider, w wallet.Wallet) {
	provider.On("ResolveAddress", mock.Anything).Return(w.Address(), nil)
	provider.On("Acquire", mock.Anything).Return(w, nil)
}

func toErr(v interface{}) errors.Err {
	if v == nil {
		return nil
	}

	return v.(errors.Err)
}
