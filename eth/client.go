package eth

import (
	"context"
	"fmt"
	"math/big"
	"net/url"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	stderr "github.com/pkg/errors"
)

// Client is the interface of a node of a quorum chain
type Client interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error

	// SendRawPrivateTransaction submits a signed private transaction
	// whose payload was previously stored with the privacy manager.
	// Only the nodes of privateFor receive the payload
	SendRawPrivateTransaction(ctx context.Context, raw []byte, privateFor []string) (common.Hash, error)

	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}

// RpcClient is the subset of *rpc.Client used for the methods
// not exposed by ethclient
type RpcClient interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
	Close()
}

// NodeClient implements Client on top of ethclient and the quorum
// json rpc extensions
type NodeClient struct {
	*ethclient.Client
	rclient RpcClient
}

// NewNodeClient creates a NodeClient from an rpc connection
func NewNodeClient(rclient *rpc.Client) *NodeClient {
	return &NodeClient{
		Client:  ethclient.NewClient(rclient),
		rclient: rclient,
	}
}

type privateArgs struct {
	PrivateFor []string `json:"privateFor"`
}

// SendRawPrivateTransaction implementation of Client for NodeClient
func (c *NodeClient) SendRawPrivateTransaction(
	ctx context.Context,
	raw []byte,
	privateFor []string,
) (common.Hash, error) {
	var hash common.Hash
	if err := c.rclient.CallContext(ctx, &hash, "eth_sendRawPrivateTransaction",
		hexutil.Encode(raw), privateArgs{PrivateFor: privateFor}); err != nil {
		return common.Hash{}, err
	}

	return hash, nil
}

// Close implementation of Client for NodeClient
func (c *NodeClient) Close() {
	c.Client.Close()
}

// DialContext connects to the node at rawURL. Supported schemes are
// http, https, ws and wss
func DialContext(ctx context.Context, rawURL string) (*NodeClient, error) {
	if len(rawURL) == 0 {
		return nil, stderr.New("no url provided for eth client")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, stderr.Wrap(err, "failed to parse url")
	}

	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return nil, fmt.Errorf("scheme %s not supported, supported schemes are http, https, ws and wss", u.Scheme)
	}

	rclient, err := rpc.DialContext(ctx, rawURL)
	if err != nil {
		return nil, stderr.Wrap(err, "failed to dial eth node")
	}

	return NewNodeClient(rclient), nil
}
