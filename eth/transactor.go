package eth

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/big"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	stderr "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oasislabs/quorum-functions/errors"
	"github.com/oasislabs/quorum-functions/log"
	"github.com/oasislabs/quorum-functions/metrics"
	"github.com/oasislabs/quorum-functions/wallet"
)

// StatusOK defined by ethereum is the value of status
// for a transaction that succeeds
const StatusOK = 1

const dependencyName = "chain"

const (
	defaultCallTimeout    = 30 * time.Second
	defaultReceiptTimeout = 60 * time.Second
	defaultPollInterval   = 250 * time.Millisecond
)

// privateTxV is the offset of the recovery id in the v value of
// the signature of a private transaction
const privateTxV = 37

// TxOpts are the options of a state changing submission
type TxOpts struct {
	// PrivateFor lists the privacy manager public keys of the
	// participants of a private transaction. When empty the
	// transaction is public
	PrivateFor []string
}

// IsPrivate returns true if the transaction must be private
func (o TxOpts) IsPrivate() bool {
	return len(o.PrivateFor) > 0
}

// TransactorServices are the collaborators of a Transactor
type TransactorServices struct {
	Logger  log.Logger
	Client  Client
	Metrics *metrics.DependencyMetrics

	// PrivacyManager is required to submit private transactions
	PrivacyManager PrivacyManager
}

// TransactorProps configure a Transactor
type TransactorProps struct {
	// CallTimeout bounds each call to the node
	CallTimeout time.Duration

	// ReceiptTimeout bounds the time waiting for a transaction
	// to be included in a block
	ReceiptTimeout time.Duration

	// PollInterval is the initial interval between receipt polls
	PollInterval time.Duration
}

// Transactor deploys contracts, submits transactions and calls
// contract functions
type Transactor struct {
	client         Client
	private        PrivacyManager
	logger         log.Logger
	metrics        *metrics.DependencyMetrics
	locks          *addressLocks
	callTimeout    time.Duration
	receiptTimeout time.Duration
	pollInterval   time.Duration

	chainIDLock sync.Mutex
	chainID     *big.Int
}

// NewTransactor creates a new Transactor
func NewTransactor(services *TransactorServices, props *TransactorProps) *Transactor {
	callTimeout := props.CallTimeout
	if callTimeout == 0 {
		callTimeout = defaultCallTimeout
	}

	receiptTimeout := props.ReceiptTimeout
	if receiptTimeout == 0 {
		receiptTimeout = defaultReceiptTimeout
	}

	pollInterval := props.PollInterval
	if pollInterval == 0 {
		pollInterval = defaultPollInterval
	}

	return &Transactor{
		client:         services.Client,
		private:        services.PrivacyManager,
		logger:         services.Logger.ForClass("eth", "Transactor"),
		metrics:        services.Metrics,
		locks:          newAddressLocks(),
		callTimeout:    callTimeout,
		receiptTimeout: receiptTimeout,
		pollInterval:   pollInterval,
	}
}

// Deploy submits the deployment of code and waits for its receipt.
// The receipt is only returned if the contract code was stored
func (t *Transactor) Deploy(ctx context.Context, w wallet.Wallet, code []byte, opts TxOpts) (*types.Receipt, errors.Err) {
	receipt, err := t.submit(ctx, w, nil, code, opts)
	if err != nil {
		return nil, err
	}

	// private contracts only have code on the nodes of the participants,
	// which the node the service is connected to is one of
	deployed, cerr := t.codeAt(ctx, receipt.ContractAddress)
	if cerr != nil {
		return nil, cerr
	}

	if len(deployed) == 0 {
		err := errors.New(errors.ErrTransactionReverted,
			fmt.Errorf("no code stored at %s by transaction %s", receipt.ContractAddress.Hex(), receipt.TxHash.Hex()))
		t.logger.Debug(ctx, "contract code not deployed", log.MapFields{
			"call_type": "DeployFailure",
			"hash":      receipt.TxHash.Hex(),
		}, err)
		return nil, err
	}

	return receipt, nil
}

// Transact submits a call to the contract at address with the
// encoded data and waits for its receipt
func (t *Transactor) Transact(
	ctx context.Context,
	w wallet.Wallet,
	address common.Address,
	data []byte,
	opts TxOpts,
) (*types.Receipt, errors.Err) {
	return t.submit(ctx, w, &address, data, opts)
}

// Call executes a read only call of the contract at address on
// behalf of from
func (t *Transactor) Call(ctx context.Context, from common.Address, address common.Address, data []byte) ([]byte, errors.Err) {
	t.logger.Debug(ctx, "", log.MapFields{
		"call_type": "CallAttempt",
		"address":   address.Hex(),
	})

	var out []byte
	err := t.rpc(ctx, "call", func(ctx context.Context) error {
		var err error
		out, err = t.client.CallContract(ctx, ethereum.CallMsg{
			From: from,
			To:   &address,
			Data: data,
		}, nil)
		return err
	})
	if err != nil {
		e := classify(err, errors.ErrCallReverted)
		t.logger.Debug(ctx, "call failed", log.MapFields{
			"call_type": "CallFailure",
			"address":   address.Hex(),
		}, e)
		return nil, e
	}

	t.logger.Debug(ctx, "", log.MapFields{
		"call_type": "CallSuccess",
		"address":   address.Hex(),
	})

	return out, nil
}

func (t *Transactor) submit(
	ctx context.Context,
	w wallet.Wallet,
	to *common.Address,
	data []byte,
	opts TxOpts,
) (*types.Receipt, errors.Err) {
	fields := log.MapFields{
		"call_type": "SubmitAttempt",
		"from":      w.Address().Hex(),
		"private":   opts.IsPrivate(),
	}
	if to != nil {
		fields["address"] = to.Hex()
	}
	t.logger.Debug(ctx, "", fields)

	if opts.IsPrivate() && t.private == nil {
		return nil, errors.New(errors.ErrPrivateForNotSupported, nil)
	}

	gas, err := t.estimateGas(ctx, w.Address(), to, data)
	if err != nil {
		return nil, err
	}

	if opts.IsPrivate() {
		var serr error
		data, serr = t.private.StoreRaw(ctx, data)
		if serr != nil {
			e := classify(serr, errors.ErrSubmission)
			t.logger.Debug(ctx, "failed to store private payload", log.MapFields{
				"call_type": "SubmitFailure",
			}, e)
			return nil, e
		}
	}

	hash, err := t.send(ctx, w, to, data, gas, opts)
	if err != nil {
		t.logger.Debug(ctx, "failed to send transaction", log.MapFields{
			"call_type": "SubmitFailure",
		}, err)
		return nil, err
	}

	receipt, err := t.waitReceipt(ctx, hash)
	if err != nil {
		t.logger.Debug(ctx, "failed to retrieve transaction receipt", log.MapFields{
			"call_type": "SubmitFailure",
			"hash":      hash.Hex(),
		}, err)
		return nil, err
	}

	if receipt.Status != StatusOK {
		err := errors.New(errors.ErrTransactionReverted,
			fmt.Errorf("transaction %s has status %d", hash.Hex(), receipt.Status))
		t.logger.Debug(ctx, "transaction execution failed", log.MapFields{
			"call_type": "SubmitFailure",
			"hash":      hash.Hex(),
		}, err)
		return nil, err
	}

	t.logger.Debug(ctx, "", log.MapFields{
		"call_type":   "SubmitSuccess",
		"hash":        hash.Hex(),
		"blockNumber": receipt.BlockNumber,
	})

	return receipt, nil
}

func (t *Transactor) estimateGas(ctx context.Context, from common.Address, to *common.Address, data []byte) (uint64, errors.Err) {
	var gas uint64
	err := t.rpc(ctx, "estimate_gas", func(ctx context.Context) error {
		var err error
		gas, err = t.client.EstimateGas(ctx, ethereum.CallMsg{
			From: from,
			To:   to,
			Data: data,
		})
		return err
	})
	if err != nil {
		e := classify(err, errors.ErrSubmission)
		t.logger.Debug(ctx, "", log.MapFields{
			"call_type": "EstimateGasFailure",
		}, e)
		return 0, e
	}

	return gas, nil
}

// send assigns the nonce of the transaction, signs it and
// broadcasts it while holding the lock of the sender address
func (t *Transactor) send(
	ctx context.Context,
	w wallet.Wallet,
	to *common.Address,
	data []byte,
	gas uint64,
	opts TxOpts,
) (common.Hash, errors.Err) {
	unlock, lerr := t.locks.Lock(ctx, w.Address())
	if lerr != nil {
		return common.Hash{}, errors.New(errors.ErrTransientUnavailable, lerr)
	}
	defer unlock()

	var nonce uint64
	if err := t.rpc(ctx, "pending_nonce", func(ctx context.Context) error {
		var err error
		nonce, err = t.client.PendingNonceAt(ctx, w.Address())
		return err
	}); err != nil {
		return common.Hash{}, classify(err, errors.ErrSubmission)
	}

	var gasPrice *big.Int
	if err := t.rpc(ctx, "gas_price", func(ctx context.Context) error {
		var err error
		gasPrice, err = t.client.SuggestGasPrice(ctx)
		return err
	}); err != nil {
		return common.Hash{}, classify(err, errors.ErrSubmission)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       to,
		Value:    new(big.Int),
		Data:     data,
	})

	if opts.IsPrivate() {
		return t.sendPrivate(ctx, w, tx, opts.PrivateFor)
	}

	return t.sendPublic(ctx, w, tx)
}

func (t *Transactor) sendPublic(ctx context.Context, w wallet.Wallet, tx *types.Transaction) (common.Hash, errors.Err) {
	chainID, err := t.getChainID(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	signer := types.LatestSignerForChainID(chainID)
	sig, err := w.SignHash(ctx, signer.Hash(tx))
	if err != nil {
		return common.Hash{}, err
	}

	signed, serr := tx.WithSignature(signer, sig)
	if serr != nil {
		return common.Hash{}, errors.New(errors.ErrSignatureRecovery, serr)
	}

	if err := t.rpc(ctx, "send_transaction", func(ctx context.Context) error {
		return t.client.SendTransaction(ctx, signed)
	}); err != nil {
		// the transaction may have been broadcast, so the failure is
		// never reported as transient
		return common.Hash{}, errors.New(errors.ErrSubmission, err)
	}

	return signed.Hash(), nil
}

// privateTransaction is the wire form of a signed private
// transaction, which differs from a homestead transaction in the
// v value of the signature
type privateTransaction struct {
	Nonce    uint64
	GasPrice *big.Int
	Gas      uint64
	To       *common.Address `rlp:"nil"`
	Value    *big.Int
	Data     []byte
	V, R, S  *big.Int
}

func (t *Transactor) sendPrivate(
	ctx context.Context,
	w wallet.Wallet,
	tx *types.Transaction,
	privateFor []string,
) (common.Hash, errors.Err) {
	sig, err := w.SignHash(ctx, types.HomesteadSigner{}.Hash(tx))
	if err != nil {
		return common.Hash{}, err
	}

	raw, rerr := encodePrivateTransaction(tx, sig)
	if rerr != nil {
		return common.Hash{}, errors.New(errors.ErrInternalError, rerr)
	}

	var hash common.Hash
	if err := t.rpc(ctx, "send_private_transaction", func(ctx context.Context) error {
		var err error
		hash, err = t.client.SendRawPrivateTransaction(ctx, raw, privateFor)
		return err
	}); err != nil {
		return common.Hash{}, errors.New(errors.ErrSubmission, err)
	}

	if hash == (common.Hash{}) {
		hash = crypto.Keccak256Hash(raw)
	}

	return hash, nil
}

func encodePrivateTransaction(tx *types.Transaction, sig []byte) ([]byte, error) {
	if len(sig) != crypto.SignatureLength {
		return nil, fmt.Errorf("signature has length %d, expected %d", len(sig), crypto.SignatureLength)
	}

	return rlp.EncodeToBytes(&privateTransaction{
		Nonce:    tx.Nonce(),
		GasPrice: tx.GasPrice(),
		Gas:      tx.Gas(),
		To:       tx.To(),
		Value:    tx.Value(),
		Data:     tx.Data(),
		V:        big.NewInt(int64(sig[64]) + privateTxV),
		R:        new(big.Int).SetBytes(sig[:32]),
		S:        new(big.Int).SetBytes(sig[32:64]),
	})
}

func (t *Transactor) getChainID(ctx context.Context) (*big.Int, errors.Err) {
	t.chainIDLock.Lock()
	defer t.chainIDLock.Unlock()

	if t.chainID != nil {
		return t.chainID, nil
	}

	var chainID *big.Int
	if err := t.rpc(ctx, "chain_id", func(ctx context.Context) error {
		var err error
		chainID, err = t.client.ChainID(ctx)
		return err
	}); err != nil {
		return nil, classify(err, errors.ErrSubmission)
	}

	t.chainID = chainID
	return chainID, nil
}

// waitReceipt polls the node for the receipt of the transaction
// until it is available or the receipt timeout expires
func (t *Transactor) waitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, errors.Err) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.pollInterval
	b.MaxInterval = 4 * t.pollInterval
	b.MaxElapsedTime = t.receiptTimeout

	var receipt *types.Receipt
	err := backoff.Retry(func() error {
		err := t.rpc(ctx, "receipt", func(ctx context.Context) error {
			var err error
			receipt, err = t.client.TransactionReceipt(ctx, hash)
			return err
		})
		if err == nil {
			return nil
		}

		if stderrors.Is(err, ethereum.NotFound) || isTransient(err) {
			return err
		}

		return backoff.Permanent(err)
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return nil, errors.New(errors.ErrSubmission,
			stderr.Wrapf(err, "failed to retrieve receipt of transaction %s", hash.Hex()))
	}

	return receipt, nil
}

func (t *Transactor) codeAt(ctx context.Context, address common.Address) ([]byte, errors.Err) {
	var code []byte
	if err := t.rpc(ctx, "code_at", func(ctx context.Context) error {
		var err error
		code, err = t.client.CodeAt(ctx, address, nil)
		return err
	}); err != nil {
		return nil, classify(err, errors.ErrSubmission)
	}

	return code, nil
}

// rpc executes a call to the node bounded by the call timeout
func (t *Transactor) rpc(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	var timer *prometheus.Timer
	if t.metrics != nil {
		timer = t.metrics.DependencyTimer(dependencyName, operation)
	}

	callCtx, cancel := context.WithTimeout(ctx, t.callTimeout)
	defer cancel()

	err := fn(callCtx)
	if timer != nil {
		t.metrics.Observe(timer, dependencyName, operation, err)
	}

	return err
}

func isTransient(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return true
	}

	var netErr net.Error
	return stderrors.As(err, &netErr)
}

// classify maps a failure of the node to a transient error when the
// node could not be reached and to code otherwise
func classify(err error, code errors.ErrorCode) errors.Err {
	if isTransient(err) {
		return errors.New(errors.ErrTransientUnavailable, err)
	}

	return errors.New(code, err)
}

// Health verifies that the node answers requests
func (t *Transactor) Health(ctx context.Context) error {
	return t.rpc(ctx, "health", func(ctx context.Context) error {
		_, err := t.client.ChainID(ctx)
		return err
	})
}
