package contracttest

import (
	"context"
	"net/http"

	"github.com/stretchr/testify/mock"

	"github.com/oasislabs/quorum-functions/contract"
	"github.com/oasislabs/quorum-functions/errors"
)

// StorageABI is the interface description of a contract that
// stores a single integer
const StorageABI = `[` +
	`{"inputs":[{"name":"initial","type":"uint256"}],"stateMutability":"nonpayable","type":"constructor"},` +
	`{"inputs":[],"name":"getValue","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},` +
	`{"inputs":[{"name":"value","type":"uint256"}],"name":"setValue","outputs":[],"stateMutability":"nonpayable","type":"function"},` +
	`{"inputs":[],"name":"getOwner","outputs":[{"name":"owner","type":"address"},{"name":"since","type":"uint64"}],"stateMutability":"view","type":"function"}` +
	`]`

// StorageBytecode is the deployment payload used along StorageABI
const StorageBytecode = "0x608060405234801561001057600080fd5b50"

// StorageArtifact is a truffle style artifact document
const StorageArtifact = `{"contractName":"Storage","abi":` + StorageABI + `,"bytecode":"` + StorageBytecode + `"}`

// NewStorageArtifact returns the parsed StorageArtifact
func NewStorageArtifact() *contract.Artifact {
	artifact, err := contract.ParseArtifact([]byte(StorageArtifact))
	if err != nil {
		panic(err)
	}

	return artifact
}

type MockResolver struct {
	mock.Mock
}

func (r *MockResolver) Resolve(ctx context.Context) (*contract.Artifact, errors.Err) {
	args := r.Called(ctx)
	if args.Get(1) != nil {
		return nil, args.Get(1).(errors.Err)
	}

	return args.Get(0).(*contract.Artifact), nil
}

// ImplementMock sets up resolver to return the storage artifact
func ImplementMock(resolver *MockResolver) {
	resolver.On("Resolve", mock.Anything).Return(NewStorageArtifact(), nil)
}

type MockHttpClient struct {
	mock.Mock
}

func (c *MockHttpClient) Do(req *http.Request) (*http.Response, error) {
	args := c.Called(req)
	if args.Get(1) != nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*http.Response), nil
}
