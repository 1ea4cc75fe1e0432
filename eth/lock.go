package eth

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// addressLocks serializes the submissions of each sender address so
// that two transactions of the same sender are not assigned the
// same nonce
type addressLocks struct {
	mu    sync.Mutex
	locks map[common.Address]chan struct{}
}

func newAddressLocks() *addressLocks {
	return &addressLocks{locks: make(map[common.Address]chan struct{})}
}

// Lock blocks until the lock for address is acquired or ctx is
// done. The returned function releases the lock
func (l *addressLocks) Lock(ctx context.Context, address common.Address) (func(), error) {
	l.mu.Lock()
	c, ok := l.locks[address]
	if !ok {
		c = make(chan struct{}, 1)
		l.locks[address] = c
	}
	l.mu.Unlock()

	select {
	case c <- struct{}{}:
		return func() { <-c }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
