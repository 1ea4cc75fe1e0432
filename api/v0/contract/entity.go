package contract

import (
	"encoding/json"
	"fmt"
)

// CreateContractRequest is the request to deploy the configured
// contract artifact
type CreateContractRequest struct {
	// PrivateFor lists the public keys of the participants of a
	// private deployment. Empty for a public deployment
	PrivateFor []string `json:"privateFor"`

	// InputParams are the constructor arguments
	InputParams []interface{} `json:"inputParams"`
}

// SendTransactionRequest is the request to submit a transaction to
// a function of a deployed contract
type SendTransactionRequest struct {
	ContractAddress string        `json:"contractAddress"`
	FunctionName    string        `json:"functionName"`
	PrivateFor      []string      `json:"privateFor"`
	InputParams     []interface{} `json:"inputParams"`
}

// CallFunctionRequest is the request to call a read only function
// of a deployed contract
type CallFunctionRequest struct {
	ContractAddress string        `json:"contractAddress"`
	FunctionName    string        `json:"functionName"`
	InputParams     []interface{} `json:"inputParams"`
}

// TransactionResponse is the receipt of a transaction once it has
// been included in a block
type TransactionResponse struct {
	TransactionHash string `json:"transactionHash"`
	BlockHash       string `json:"blockHash"`
	BlockNumber     string `json:"blockNumber"`
	ContractAddress string `json:"contractAddress"`
}

// String renders the receipt as the plain text response body
func (r TransactionResponse) String() string {
	return fmt.Sprintf("TXHash: %s \nBlockHash: %s \nBlockNumber: %s \nContractAddress: %s",
		r.TransactionHash, r.BlockHash, r.BlockNumber, r.ContractAddress)
}

// CallFunctionResponse is the result of a read only call
type CallFunctionResponse struct {
	ContractAddress string        `json:"contractAddress"`
	FunctionName    string        `json:"functionName"`
	InputParams     []interface{} `json:"inputParams"`
	Result          string        `json:"result"`
}

// String renders the call and its result as the plain text
// response body
func (r CallFunctionResponse) String() string {
	inputs := "[]"
	if len(r.InputParams) > 0 {
		if p, err := json.Marshal(r.InputParams); err == nil {
			inputs = string(p)
		}
	}

	return fmt.Sprintf("Called Contract at address: %s \nWith Function: %s \nWith input: %s \nResult: %s",
		r.ContractAddress, r.FunctionName, inputs, r.Result)
}
