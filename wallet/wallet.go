package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/oasislabs/quorum-functions/errors"
)

// Wallet is a signing capability bound to an account whose private
// key is held by a key service and never enters the process
type Wallet interface {
	// Address of the account
	Address() common.Address

	// SignHash returns the 65 byte [R || S || V] signature of hash,
	// with V being 0 or 1
	SignHash(ctx context.Context, hash common.Hash) ([]byte, errors.Err)
}

// Provider gives access to the account configured for the service
type Provider interface {
	// ResolveAddress returns the address of the account. It does not
	// require permission to sign with the key
	ResolveAddress(ctx context.Context) (common.Address, errors.Err)

	// Acquire returns a Wallet able to sign with the key. It fails
	// with an AuthorizationError if the key service denies access to the
	// key, with a TransientError if the key service is unreachable and
	// with a ConfigurationError if the key is not a secp256k1 key
	Acquire(ctx context.Context) (Wallet, errors.Err)
}
