package contract

import (
	"context"

	"github.com/oasislabs/quorum-functions/errors"
	"github.com/oasislabs/quorum-functions/log"
	"github.com/oasislabs/quorum-functions/rpc"
	"github.com/oasislabs/quorum-functions/tx"
)

// Executor runs the contract flows
type Executor interface {
	DeployContract(ctx context.Context, req tx.DeployContractRequest) (*tx.TransactionReceipt, errors.Err)
	SendTransaction(ctx context.Context, req tx.SendTransactionRequest) (*tx.TransactionReceipt, errors.Err)
	CallFunction(ctx context.Context, req tx.CallFunctionRequest) (*tx.CallFunctionResponse, errors.Err)
}

type Services struct {
	Logger   log.Logger
	Executor Executor
}

// ContractHandler implements the handlers for the contract endpoints
type ContractHandler struct {
	logger   log.Logger
	executor Executor
}

// NewContractHandler creates a new instance of a contract handler
func NewContractHandler(services Services) ContractHandler {
	if services.Logger == nil {
		panic("Logger must be set")
	}
	if services.Executor == nil {
		panic("Executor must be set")
	}

	return ContractHandler{
		logger:   services.Logger.ForClass("contract", "ContractHandler"),
		executor: services.Executor,
	}
}

// CreateContract deploys the configured contract artifact
func (h ContractHandler) CreateContract(ctx context.Context, v interface{}) (interface{}, error) {
	req := v.(*CreateContractRequest)

	receipt, err := h.executor.DeployContract(ctx, tx.DeployContractRequest{
		PrivateFor:  req.PrivateFor,
		InputParams: req.InputParams,
	})
	if err != nil {
		h.logger.Debug(ctx, "failed to create contract", log.MapFields{
			"call_type": "CreateContractFailure",
		}, err)
		return nil, err
	}

	return newTransactionResponse(receipt), nil
}

// SendTransaction submits a transaction to a contract function
func (h ContractHandler) SendTransaction(ctx context.Context, v interface{}) (interface{}, error) {
	req := v.(*SendTransactionRequest)

	receipt, err := h.executor.SendTransaction(ctx, tx.SendTransactionRequest{
		ContractAddress: req.ContractAddress,
		FunctionName:    req.FunctionName,
		PrivateFor:      req.PrivateFor,
		InputParams:     req.InputParams,
	})
	if err != nil {
		h.logger.Debug(ctx, "failed to send transaction", log.MapFields{
			"call_type": "SendTransactionFailure",
			"address":   req.ContractAddress,
			"function":  req.FunctionName,
		}, err)
		return nil, err
	}

	return newTransactionResponse(receipt), nil
}

// CallFunction calls a read only contract function
func (h ContractHandler) CallFunction(ctx context.Context, v interface{}) (interface{}, error) {
	req := v.(*CallFunctionRequest)

	res, err := h.executor.CallFunction(ctx, tx.CallFunctionRequest{
		ContractAddress: req.ContractAddress,
		FunctionName:    req.FunctionName,
		InputParams:     req.InputParams,
	})
	if err != nil {
		h.logger.Debug(ctx, "failed to call function", log.MapFields{
			"call_type": "CallFunctionFailure",
			"address":   req.ContractAddress,
			"function":  req.FunctionName,
		}, err)
		return nil, err
	}

	return CallFunctionResponse{
		ContractAddress: res.ContractAddress,
		FunctionName:    res.FunctionName,
		InputParams:     res.InputParams,
		Result:          res.Result,
	}, nil
}

func newTransactionResponse(receipt *tx.TransactionReceipt) TransactionResponse {
	res := TransactionResponse{
		TransactionHash: receipt.TransactionHash.Hex(),
		BlockHash:       receipt.BlockHash.Hex(),
	}

	if receipt.BlockNumber != nil {
		res.BlockNumber = receipt.BlockNumber.String()
	}
	if receipt.ContractAddress != nil {
		res.ContractAddress = receipt.ContractAddress.Hex()
	}

	return res
}

// BindHandler binds the contract handler to the provided
// HandlerBinder
func BindHandler(services Services, binder rpc.HandlerBinder) {
	handler := NewContractHandler(services)

	binder.Bind("POST", "/api/create-contract", rpc.HandlerFunc(handler.CreateContract),
		rpc.EntityFactoryFunc(func() interface{} { return &CreateContractRequest{} }))
	binder.Bind("POST", "/api/send-transaction", rpc.HandlerFunc(handler.SendTransaction),
		rpc.EntityFactoryFunc(func() interface{} { return &SendTransactionRequest{} }))
	binder.Bind("POST", "/api/call-function", rpc.HandlerFunc(handler.CallFunction),
		rpc.EntityFactoryFunc(func() interface{} { return &CallFunctionRequest{} }))
}
