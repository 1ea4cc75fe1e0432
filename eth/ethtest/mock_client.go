package ethtest

import (
	"context"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/mock"
)

// ContractAddress is the address of the contracts deployed with the
// default mock methods
var ContractAddress = common.HexToAddress("0x6f6704e5a10332af6672e50b3d9754dc460dfa4d")

// BlockHash is the hash of the block of the receipts returned by the
// default mock methods
var BlockHash = common.HexToHash("0x9a1b1c0e0b4d8d5e6b1e7f4e2c2b35a8e8c3b2a1f0e9d8c7b6a5948372615040")

type MockMethod struct {
	Arguments []interface{}
	Return    []interface{}
	Run       func(mock.Arguments)
}

type MockMethods map[string]MockMethod

var DefaultMockMethods = map[string]MockMethod{
	"ChainID": {
		Arguments: []interface{}{mock.Anything},
		Return:    []interface{}{big.NewInt(10), nil},
	},
	"PendingNonceAt": {
		Arguments: []interface{}{mock.Anything, mock.Anything},
		Return:    []interface{}{uint64(1), nil},
	},
	"SuggestGasPrice": {
		Arguments: []interface{}{mock.Anything},
		Return:    []interface{}{big.NewInt(0), nil},
	},
	"EstimateGas": {
		Arguments: []interface{}{mock.Anything, mock.Anything},
		Return:    []interface{}{uint64(21000), nil},
	},
	"CodeAt": {
		Arguments: []interface{}{mock.Anything, mock.Anything, mock.Anything},
		Return:    []interface{}{[]byte{0x60, 0x80}, nil},
	},
	"CallContract": {
		Arguments: []interface{}{mock.Anything, mock.Anything, mock.Anything},
		Return:    []interface{}{common.LeftPadBytes([]byte{42}, 32), nil},
	},
	"SendTransaction": {
		Arguments: []interface{}{mock.Anything, mock.Anything},
		Return:    []interface{}{nil},
	},
	"SendRawPrivateTransaction": {
		Arguments: []interface{}{mock.Anything, mock.Anything, mock.Anything},
		Return: []interface{}{
			common.HexToHash("0x00000000000000000000000000000000000000000000000000000000000000aa"), nil,
		},
	},
	"TransactionReceipt": {
		Arguments: []interface{}{mock.Anything, mock.Anything},
		Return: []interface{}{
			&types.Receipt{
				Status:          1,
				BlockHash:       BlockHash,
				BlockNumber:     big.NewInt(7),
				ContractAddress: ContractAddress,
			}, nil,
		},
	},
	"Close": {},
}

func OverwriteDefaults(overwrite MockMethods) MockMethods {
	methods := make(MockMethods)

	for key, value := range DefaultMockMethods {
		if o, ok := overwrite[key]; ok {
			methods[key] = o
		} else {
			methods[key] = value
		}
	}

	return methods
}

func ImplementMockWithOverwrite(client *MockClient, overwrite MockMethods) {
	ImplementMockWithMethods(client, OverwriteDefaults(overwrite))
}

func ImplementMockWithMethods(client *MockClient, methods MockMethods) {
	for key, method := range methods {
		call := client.On(key, method.Arguments...)
		if len(method.Return) > 0 {
			call = call.Return(method.Return...)
		}
		if method.Run != nil {
			call.Run(method.Run)
		}
	}
}

func ImplementMock(client *MockClient) {
	ImplementMockWithMethods(client, DefaultMockMethods)
}

type MockClient struct {
	mock.Mock
}

func (c *MockClient) ChainID(ctx context.Context) (*big.Int, error) {
	args := c.Called(ctx)
	if args.Get(1) != nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*big.Int), nil
}

func (c *MockClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	args := c.Called(ctx, account)
	return args.Get(0).(uint64), args.Error(1)
}

func (c *MockClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	args := c.Called(ctx)
	if args.Get(1) != nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*big.Int), nil
}

func (c *MockClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	args := c.Called(ctx, msg)
	return args.Get(0).(uint64), args.Error(1)
}

func (c *MockClient) CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	args := c.Called(ctx, msg, block)
	if args.Get(1) != nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]byte), nil
}

func (c *MockClient) CodeAt(ctx context.Context, account common.Address, block *big.Int) ([]byte, error) {
	args := c.Called(ctx, account, block)
	if args.Get(1) != nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]byte), nil
}

func (c *MockClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	args := c.Called(ctx, tx)
	return args.Error(0)
}

func (c *MockClient) SendRawPrivateTransaction(
	ctx context.Context,
	raw []byte,
	privateFor []string,
) (common.Hash, error) {
	args := c.Called(ctx, raw, privateFor)
	return args.Get(0).(common.Hash), args.Error(1)
}

func (c *MockClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	args := c.Called(ctx, txHash)
	if args.Get(1) != nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*types.Receipt), nil
}

func (c *MockClient) Close() {
	c.Called()
}

type MockPrivacyManager struct {
	mock.Mock
}

func (m *MockPrivacyManager) StoreRaw(ctx context.Context, payload []byte) ([]byte, error) {
	args := m.Called(ctx, payload)
	if args.Get(1) != nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]byte), nil
}
