package contract_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/oasislabs/quorum-functions/contract"
	"github.com/oasislabs/quorum-functions/contract/contracttest"
	qerrors "github.com/oasislabs/quorum-functions/errors"
)

type mockFetcher struct {
	mock.Mock
}

func (f *mockFetcher) Fetch(ctx context.Context, url string) ([]byte, qerrors.Err) {
	args := f.Called(ctx, url)
	if args.Get(1) != nil {
		return nil, args.Get(1).(qerrors.Err)
	}

	return args.Get(0).([]byte), nil
}

func newTestResolver(fetcher contract.Fetcher, cache contract.Cache) *contract.CachedResolver {
	return contract.NewCachedResolver(&contract.CachedResolverServices{
		Logger:  testLogger,
		Fetcher: fetcher,
		Cache:   cache,
	}, &contract.CachedResolverProps{
		URL: "https://blob/artifact.json",
		TTL: time.Minute,
	})
}

func TestCachedResolverFetchesOnce(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("Fetch", mock.Anything, "https://blob/artifact.json").
		Return([]byte(contracttest.StorageArtifact), nil)
	resolver := newTestResolver(fetcher, contract.NewMemCache(0))

	for i := 0; i < 3; i++ {
		artifact, err := resolver.Resolve(context.Background())
		assert.Nil(t, err)
		assert.Equal(t, contracttest.StorageABI, artifact.ABI)
	}

	fetcher.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestCachedResolverWithoutCache(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("Fetch", mock.Anything, mock.Anything).
		Return([]byte(contracttest.StorageArtifact), nil)
	resolver := newTestResolver(fetcher, nil)

	_, _ = resolver.Resolve(context.Background())
	_, _ = resolver.Resolve(context.Background())

	fetcher.AssertNumberOfCalls(t, "Fetch", 2)
}

func TestCachedResolverFetchError(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("Fetch", mock.Anything, mock.Anything).
		Return(nil, qerrors.New(qerrors.ErrArtifactFetch, nil))
	resolver := newTestResolver(fetcher, contract.NewMemCache(0))

	_, err := resolver.Resolve(context.Background())

	assert.Equal(t, qerrors.ErrArtifactFetch, err.Code())
}

func TestCachedResolverMalformedIsNotCached(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("Fetch", mock.Anything, mock.Anything).Return([]byte(`{"abi":1}`), nil)
	resolver := newTestResolver(fetcher, contract.NewMemCache(0))

	_, err := resolver.Resolve(context.Background())
	assert.Equal(t, qerrors.ErrArtifactFormat, err.Code())

	_, _ = resolver.Resolve(context.Background())
	fetcher.AssertNumberOfCalls(t, "Fetch", 2)
}
