package tx

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// DeployContractRequest is the request to deploy the contract of
// the configured artifact
type DeployContractRequest struct {
	// PrivateFor lists the participants of a private deployment
	PrivateFor []string

	// InputParams are the constructor arguments
	InputParams []interface{}
}

// SendTransactionRequest is the request to submit a state changing
// call to a contract function
type SendTransactionRequest struct {
	ContractAddress string
	FunctionName    string
	PrivateFor      []string
	InputParams     []interface{}
}

// CallFunctionRequest is the request to execute a read only call
// of a contract function
type CallFunctionRequest struct {
	ContractAddress string
	FunctionName    string
	InputParams     []interface{}
}

// TransactionReceipt is the confirmation of a transaction included
// in a block
type TransactionReceipt struct {
	TransactionHash common.Hash
	BlockHash       common.Hash
	BlockNumber     *big.Int

	// ContractAddress is only set for deployments
	ContractAddress *common.Address
}

// CallFunctionResponse is the result of a read only call
type CallFunctionResponse struct {
	ContractAddress string
	FunctionName    string
	InputParams     []interface{}

	// Result is the rendered return value of the function
	Result string
}
