package tx

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/oasislabs/quorum-functions/contract/contracttest"
	"github.com/oasislabs/quorum-functions/errors"
	"github.com/oasislabs/quorum-functions/eth/ethtest"
	"github.com/oasislabs/quorum-functions/wallet/wallettest"
)

func assertNoCollaboratorCalls(t *testing.T, mocks *executorMocks) {
	mocks.resolver.AssertNotCalled(t, "Resolve", mock.Anything)
	mocks.wallets.AssertNotCalled(t, "Acquire", mock.Anything)
	mocks.wallets.AssertNotCalled(t, "ResolveAddress", mock.Anything)
	assert.Empty(t, mocks.client.Calls)
}

func TestSendTransactionMissingFields(t *testing.T) {
	for _, req := range []SendTransactionRequest{
		{FunctionName: "setValue"},
		{ContractAddress: ContractAddress},
		{},
	} {
		executor, mocks := newTestExecutor()
		mocks.implementDefaults()

		_, err := executor.SendTransaction(context.Background(), req)

		assert.Equal(t, errors.ErrMissingContractOrFunction, err.Code())
		assertNoCollaboratorCalls(t, mocks)
	}
}

func TestCallFunctionMissingFields(t *testing.T) {
	for _, req := range []CallFunctionRequest{
		{FunctionName: "getValue"},
		{ContractAddress: ContractAddress},
	} {
		executor, mocks := newTestExecutor()
		mocks.implementDefaults()

		_, err := executor.CallFunction(context.Background(), req)

		assert.Equal(t, errors.ErrMissingContractOrFunction, err.Code())
		assertNoCollaboratorCalls(t, mocks)
	}
}

func TestSendTransactionInvalidAddress(t *testing.T) {
	executor, mocks := newTestExecutor()
	mocks.implementDefaults()

	_, err := executor.SendTransaction(context.Background(), SendTransactionRequest{
		ContractAddress: "0x1234",
		FunctionName:    "setValue",
	})

	assert.Equal(t, errors.ErrInvalidAddress, err.Code())
	assertNoCollaboratorCalls(t, mocks)
}

func TestDeployContract(t *testing.T) {
	executor, mocks := newTestExecutor()
	mocks.implementDefaults()

	res, err := executor.DeployContract(context.Background(), DeployContractRequest{
		InputParams: []interface{}{"5"},
	})

	assert.Nil(t, err)
	assert.Equal(t, ethtest.ContractAddress, *res.ContractAddress)
	assert.Equal(t, ethtest.BlockHash, res.BlockHash)
	assert.Equal(t, big.NewInt(7), res.BlockNumber)

	mocks.client.AssertNumberOfCalls(t, "SendTransaction", 1)
	tx := sentTransaction(mocks.client)
	expected := append(common.FromHex(contracttest.StorageBytecode), common.LeftPadBytes([]byte{5}, 32)...)
	assert.Equal(t, expected, tx.Data())
	assert.Nil(t, tx.To())
}

func TestDeployContractArtifactFetchFailure(t *testing.T) {
	executor, mocks := newTestExecutor()
	mocks.resolver.On("Resolve", mock.Anything).Return(nil, errors.New(errors.ErrArtifactFetch, nil))
	wallettest.ImplementProvider(mocks.wallets, mocks.wallet)
	ethtest.ImplementMock(mocks.client)

	_, err := executor.DeployContract(context.Background(), DeployContractRequest{})

	assert.Equal(t, errors.ErrArtifactFetch, err.Code())
	mocks.wallets.AssertNotCalled(t, "Acquire", mock.Anything)
	assert.Empty(t, mocks.client.Calls)
}

func TestDeployContractInvalidArguments(t *testing.T) {
	executor, mocks := newTestExecutor()
	mocks.implementDefaults()

	_, err := executor.DeployContract(context.Background(), DeployContractRequest{})

	assert.Equal(t, errors.ErrInvalidArguments, err.Code())
	mocks.wallets.AssertNotCalled(t, "Acquire", mock.Anything)
}

func TestSendTransactionAuthorizationFailure(t *testing.T) {
	executor, mocks := newTestExecutor()
	contracttest.ImplementMock(mocks.resolver)
	mocks.wallets.On("Acquire", mock.Anything).Return(nil, errors.New(errors.ErrAuthorization, nil))
	ethtest.ImplementMock(mocks.client)

	_, err := executor.SendTransaction(context.Background(), SendTransactionRequest{
		ContractAddress: ContractAddress,
		FunctionName:    "setValue",
		InputParams:     []interface{}{"1"},
	})

	assert.Equal(t, errors.ErrAuthorization, err.Code())
	assert.Empty(t, mocks.client.Calls)
}

func TestSendTransactionPublic(t *testing.T) {
	executor, mocks := newTestExecutor()
	mocks.implementDefaults()

	res, err := executor.SendTransaction(context.Background(), SendTransactionRequest{
		ContractAddress: ContractAddress,
		FunctionName:    "setValue",
		InputParams:     []interface{}{"9"},
	})

	assert.Nil(t, err)
	assert.Nil(t, res.ContractAddress)

	tx := sentTransaction(mocks.client)
	assert.Equal(t, common.HexToAddress(ContractAddress), *tx.To())
	assert.Equal(t, append(contracttest.NewStorageArtifact().Interface.Methods["setValue"].ID,
		common.LeftPadBytes([]byte{9}, 32)...), tx.Data())
	mocks.client.AssertCalled(t, "TransactionReceipt", mock.Anything, tx.Hash())
}

func TestSendTransactionForwardsPrivateFor(t *testing.T) {
	executor, mocks := newTestExecutor()
	mocks.implementDefaults()
	mocks.private.On("StoreRaw", mock.Anything, mock.Anything).Return(make([]byte, 64), nil)
	privateFor := []string{
		"ROAZBWtSacxXQrOe3FGAqJDyJjFePR5ce4TSIzmJ0Bc=",
		"QfeDAys9MPDs2XHExtc84jKGHxZg/aj52DTh0vtA3Xc=",
		"1iTZde/ndBHvzhcl7V68x44Vx7pl8nwx9LqnM/AfJUg=",
	}

	_, err := executor.SendTransaction(context.Background(), SendTransactionRequest{
		ContractAddress: ContractAddress,
		FunctionName:    "setValue",
		PrivateFor:      privateFor,
		InputParams:     []interface{}{"1"},
	})

	assert.Nil(t, err)
	mocks.client.AssertCalled(t, "SendRawPrivateTransaction", mock.Anything, mock.Anything, privateFor)
	mocks.client.AssertNotCalled(t, "SendTransaction", mock.Anything, mock.Anything)
}

func TestSendTransactionUnknownFunction(t *testing.T) {
	executor, mocks := newTestExecutor()
	mocks.implementDefaults()

	_, err := executor.SendTransaction(context.Background(), SendTransactionRequest{
		ContractAddress: ContractAddress,
		FunctionName:    "transfer",
	})

	assert.Equal(t, errors.ErrUnknownFunction, err.Code())
	mocks.wallets.AssertNotCalled(t, "Acquire", mock.Anything)
	assert.Empty(t, mocks.client.Calls)
}

func TestCallFunction(t *testing.T) {
	executor, mocks := newTestExecutor()
	mocks.implementDefaults()

	res, err := executor.CallFunction(context.Background(), CallFunctionRequest{
		ContractAddress: ContractAddress,
		FunctionName:    "getValue",
		InputParams:     []interface{}{},
	})

	assert.Nil(t, err)
	assert.Equal(t, "42", res.Result)
	mocks.wallets.AssertNotCalled(t, "Acquire", mock.Anything)
	mocks.wallets.AssertNumberOfCalls(t, "ResolveAddress", 1)
	mocks.client.AssertNumberOfCalls(t, "SendTransaction", 0)
}

func TestCallFunctionMultipleOutputs(t *testing.T) {
	executor, mocks := newTestExecutor()
	owner := common.HexToAddress("0x6f6704e5a10332af6672e50b3d9754dc460dfa4d")
	ethtest.ImplementMockWithOverwrite(mocks.client, ethtest.MockMethods{
		"CallContract": {
			Arguments: []interface{}{mock.Anything, mock.Anything, mock.Anything},
			Return: []interface{}{
				append(common.LeftPadBytes(owner.Bytes(), 32), common.LeftPadBytes([]byte{3}, 32)...), nil,
			},
		},
	})
	contracttest.ImplementMock(mocks.resolver)
	wallettest.ImplementProvider(mocks.wallets, mocks.wallet)

	res, err := executor.CallFunction(context.Background(), CallFunctionRequest{
		ContractAddress: ContractAddress,
		FunctionName:    "getOwner",
	})

	assert.Nil(t, err)
	assert.Equal(t, `["`+owner.Hex()+`",3]`, res.Result)
}

func TestCallFunctionEmptyOutput(t *testing.T) {
	executor, mocks := newTestExecutor()
	ethtest.ImplementMockWithOverwrite(mocks.client, ethtest.MockMethods{
		"CallContract": {
			Arguments: []interface{}{mock.Anything, mock.Anything, mock.Anything},
			Return:    []interface{}{[]byte{}, nil},
		},
	})
	contracttest.ImplementMock(mocks.resolver)
	wallettest.ImplementProvider(mocks.wallets, mocks.wallet)

	_, err := executor.CallFunction(context.Background(), CallFunctionRequest{
		ContractAddress: ContractAddress,
		FunctionName:    "getValue",
	})

	assert.Equal(t, errors.ErrDecodeOutput, err.Code())
}

func sentTransaction(client *ethtest.MockClient) *types.Transaction {
	for _, call := range client.Calls {
		if call.Method == "SendTransaction" {
			return call.Arguments.Get(1).(*types.Transaction)
		}
	}

	return nil
}
