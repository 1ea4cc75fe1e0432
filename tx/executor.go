package tx

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/oasislabs/quorum-functions/contract"
	"github.com/oasislabs/quorum-functions/errors"
	"github.com/oasislabs/quorum-functions/eth"
	"github.com/oasislabs/quorum-functions/log"
	"github.com/oasislabs/quorum-functions/wallet"
)

// Transactor submits operations to the chain
type Transactor interface {
	Deploy(ctx context.Context, w wallet.Wallet, code []byte, opts eth.TxOpts) (*types.Receipt, errors.Err)
	Transact(ctx context.Context, w wallet.Wallet, address common.Address, data []byte, opts eth.TxOpts) (*types.Receipt, errors.Err)
	Call(ctx context.Context, from common.Address, address common.Address, data []byte) ([]byte, errors.Err)
}

type ExecutorServices struct {
	Logger     log.Logger
	Resolver   contract.Resolver
	Wallets    wallet.Provider
	Transactor Transactor
}

// Executor runs the deployment, submission and call flows. Each
// flow validates its input, resolves the contract artifact, acquires
// the signer and only then submits to the chain. A failure at any
// stage stops the flow
type Executor struct {
	logger     log.Logger
	resolver   contract.Resolver
	wallets    wallet.Provider
	transactor Transactor
}

func NewExecutor(services *ExecutorServices) *Executor {
	return &Executor{
		logger:     services.Logger.ForClass("tx", "Executor"),
		resolver:   services.Resolver,
		wallets:    services.Wallets,
		transactor: services.Transactor,
	}
}

// DeployContract deploys the artifact bytecode with the provided
// constructor arguments
func (e *Executor) DeployContract(ctx context.Context, req DeployContractRequest) (*TransactionReceipt, errors.Err) {
	e.logger.Debug(ctx, "", log.MapFields{
		"call_type": "DeployContractAttempt",
		"private":   len(req.PrivateFor) > 0,
	})

	artifact, err := e.resolver.Resolve(ctx)
	if err != nil {
		return nil, e.fail(ctx, "DeployContractFailure", "failed to resolve artifact", err)
	}

	code, err := artifact.DeployCode()
	if err != nil {
		return nil, e.fail(ctx, "DeployContractFailure", "artifact has no bytecode", err)
	}

	args, err := contract.ConvertArguments(artifact.Interface.Constructor.Inputs, req.InputParams)
	if err != nil {
		return nil, e.fail(ctx, "DeployContractFailure", "invalid constructor arguments", err)
	}

	packed, perr := artifact.Interface.Pack("", args...)
	if perr != nil {
		return nil, e.fail(ctx, "DeployContractFailure", "failed to encode constructor arguments",
			errors.New(errors.ErrEncodeArguments, perr))
	}

	w, err := e.wallets.Acquire(ctx)
	if err != nil {
		return nil, e.fail(ctx, "DeployContractFailure", "failed to acquire signer", err)
	}

	data := append(append([]byte{}, code...), packed...)
	receipt, err := e.transactor.Deploy(ctx, w, data, eth.TxOpts{PrivateFor: req.PrivateFor})
	if err != nil {
		return nil, e.fail(ctx, "DeployContractFailure", "failed to deploy contract", err)
	}

	address := receipt.ContractAddress
	e.logger.Debug(ctx, "", log.MapFields{
		"call_type":       "DeployContractSuccess",
		"hash":            receipt.TxHash.Hex(),
		"contractAddress": address.Hex(),
	})

	res := newTransactionReceipt(receipt)
	res.ContractAddress = &address
	return res, nil
}

// SendTransaction submits a call to a function of the contract
// deployed at the request address
func (e *Executor) SendTransaction(ctx context.Context, req SendTransactionRequest) (*TransactionReceipt, errors.Err) {
	address, err := validateTarget(req.ContractAddress, req.FunctionName)
	if err != nil {
		return nil, err
	}

	e.logger.Debug(ctx, "", log.MapFields{
		"call_type": "SendTransactionAttempt",
		"address":   address.Hex(),
		"function":  req.FunctionName,
		"private":   len(req.PrivateFor) > 0,
	})

	data, err := e.encodeCall(ctx, req.FunctionName, req.InputParams)
	if err != nil {
		return nil, e.fail(ctx, "SendTransactionFailure", "failed to encode call", err)
	}

	w, err := e.wallets.Acquire(ctx)
	if err != nil {
		return nil, e.fail(ctx, "SendTransactionFailure", "failed to acquire signer", err)
	}

	receipt, err := e.transactor.Transact(ctx, w, address, data, eth.TxOpts{PrivateFor: req.PrivateFor})
	if err != nil {
		return nil, e.fail(ctx, "SendTransactionFailure", "failed to send transaction", err)
	}

	e.logger.Debug(ctx, "", log.MapFields{
		"call_type": "SendTransactionSuccess",
		"hash":      receipt.TxHash.Hex(),
	})

	return newTransactionReceipt(receipt), nil
}

// CallFunction executes a read only call of a function of the
// contract deployed at the request address. The call is made on
// behalf of the signer address without requiring permission to sign
func (e *Executor) CallFunction(ctx context.Context, req CallFunctionRequest) (*CallFunctionResponse, errors.Err) {
	address, err := validateTarget(req.ContractAddress, req.FunctionName)
	if err != nil {
		return nil, err
	}

	e.logger.Debug(ctx, "", log.MapFields{
		"call_type": "CallFunctionAttempt",
		"address":   address.Hex(),
		"function":  req.FunctionName,
	})

	artifact, err := e.resolver.Resolve(ctx)
	if err != nil {
		return nil, e.fail(ctx, "CallFunctionFailure", "failed to resolve artifact", err)
	}

	method, err := artifact.Method(req.FunctionName)
	if err != nil {
		return nil, e.fail(ctx, "CallFunctionFailure", "unknown function", err)
	}

	data, err := pack(artifact, method.Name, method.Inputs, req.InputParams)
	if err != nil {
		return nil, e.fail(ctx, "CallFunctionFailure", "failed to encode call", err)
	}

	from, err := e.wallets.ResolveAddress(ctx)
	if err != nil {
		return nil, e.fail(ctx, "CallFunctionFailure", "failed to resolve signer address", err)
	}

	out, err := e.transactor.Call(ctx, from, address, data)
	if err != nil {
		return nil, e.fail(ctx, "CallFunctionFailure", "call failed", err)
	}

	values, uerr := method.Outputs.Unpack(out)
	if uerr != nil {
		return nil, e.fail(ctx, "CallFunctionFailure", "failed to decode output",
			errors.New(errors.ErrDecodeOutput, uerr))
	}

	result, err := contract.RenderOutputs(values)
	if err != nil {
		return nil, e.fail(ctx, "CallFunctionFailure", "failed to render output", err)
	}

	e.logger.Debug(ctx, "", log.MapFields{
		"call_type": "CallFunctionSuccess",
		"address":   address.Hex(),
		"function":  req.FunctionName,
	})

	return &CallFunctionResponse{
		ContractAddress: req.ContractAddress,
		FunctionName:    req.FunctionName,
		InputParams:     req.InputParams,
		Result:          result,
	}, nil
}

func (e *Executor) encodeCall(ctx context.Context, name string, params []interface{}) ([]byte, errors.Err) {
	artifact, err := e.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	method, err := artifact.Method(name)
	if err != nil {
		return nil, err
	}

	return pack(artifact, method.Name, method.Inputs, params)
}

func (e *Executor) fail(ctx context.Context, callType, msg string, err errors.Err) errors.Err {
	e.logger.Debug(ctx, msg, log.MapFields{
		"call_type": callType,
	}, err)

	return err
}

func pack(artifact *contract.Artifact, name string, inputs abi.Arguments, params []interface{}) ([]byte, errors.Err) {
	args, err := contract.ConvertArguments(inputs, params)
	if err != nil {
		return nil, err
	}

	data, perr := artifact.Interface.Pack(name, args...)
	if perr != nil {
		return nil, errors.New(errors.ErrEncodeArguments, perr)
	}

	return data, nil
}

// validateTarget checks that a request names both the contract and
// the function before any remote call is made
func validateTarget(address, function string) (common.Address, errors.Err) {
	if len(address) == 0 || len(function) == 0 {
		return common.Address{}, errors.New(errors.ErrMissingContractOrFunction, nil)
	}

	if !common.IsHexAddress(address) {
		return common.Address{}, errors.New(errors.ErrInvalidAddress, nil)
	}

	return common.HexToAddress(address), nil
}

func newTransactionReceipt(receipt *types.Receipt) *TransactionReceipt {
	return &TransactionReceipt{
		TransactionHash: receipt.TxHash,
		BlockHash:       receipt.BlockHash,
		BlockNumber:     receipt.BlockNumber,
	}
}
