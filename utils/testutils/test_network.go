package testutils

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	ethereum "github.com/crytic/medusa-geth"
	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/core/types"
	"github.com/crytic/medusa-geth/crypto"
	"github.com/crytic/medusa-geth/params"
)

// ErrNetworkUnreachable is returned by every TestNetwork call while the network is marked unreachable.
var ErrNetworkUnreachable = errors.New("connection refused")

// ErrResponseLost is returned by SendTransaction when LoseSendRequests or LoseSendResponses is set.
var ErrResponseLost = context.DeadlineExceeded

// txPoolErrorCode is the JSON-RPC error code nodes answer with when declining a transaction.
const txPoolErrorCode = -32000

// RPCError is a JSON-RPC error response, returned when the network declines a request.
type RPCError struct {
	Code    int
	Message string
}

// Error returns the message of the error response.
func (e *RPCError) Error() string {
	return e.Message
}

// ErrorCode returns the JSON-RPC error code of the error response.
func (e *RPCError) ErrorCode() int {
	return e.Code
}

// declined creates the error response for a transaction the network refused to accept.
func declined(format string, args ...any) error {
	return &RPCError{Code: txPoolErrorCode, Message: fmt.Sprintf(format, args...)}
}

// TestNetwork is an in-memory stand-in for an EVM JSON-RPC endpoint, implementing the calls used to publish contracts.
// Submitted transactions must be validly signed for the network's chain, use the sender's next nonce, and carry at
// least the intrinsic gas of their payload. Accepted contract creations are mined after ConfirmationDelay receipt
// queries, failing if their gas limit is below the network's deployment cost.
type TestNetwork struct {
	// ChainIDValue is the chain id reported by the network.
	ChainIDValue *big.Int

	// GasPrice is the gas price suggested by the network.
	GasPrice *big.Int

	// ConfirmationDelay is the number of receipt queries answered with ethereum.NotFound before a transaction is
	// mined. A negative value means transactions are never mined.
	ConfirmationDelay int

	// CodeDepositGas is the gas charged per byte of submitted payload, on top of the intrinsic gas, when executing a
	// contract creation.
	CodeDepositGas uint64

	// Unreachable makes every call fail with ErrNetworkUnreachable.
	Unreachable bool

	// LoseSendRequests makes SendTransaction fail with ErrResponseLost without the transaction reaching the network.
	LoseSendRequests bool

	// LoseSendResponses makes SendTransaction accept the transaction and then fail with ErrResponseLost, as if the
	// connection dropped before the response arrived.
	LoseSendResponses bool

	nonces       map[common.Address]uint64
	transactions map[common.Hash]*testTransaction
	closeCount   int
	lock         sync.Mutex
}

// testTransaction tracks a submitted transaction until it is mined.
type testTransaction struct {
	tx           *types.Transaction
	sender       common.Address
	pendingPolls int
	receipt      *types.Receipt
}

// NewTestNetwork creates a reachable TestNetwork for the provided chain id which confirms transactions on the second
// receipt query.
func NewTestNetwork(chainID int64) *TestNetwork {
	return &TestNetwork{
		ChainIDValue:      big.NewInt(chainID),
		GasPrice:          big.NewInt(params.GWei),
		ConfirmationDelay: 1,
		CodeDepositGas:    params.CreateDataGas,
		nonces:            make(map[common.Address]uint64),
		transactions:      make(map[common.Hash]*testTransaction),
	}
}

// IntrinsicGas returns the gas a contract creation with the provided payload must carry to be accepted.
func IntrinsicGas(data []byte) uint64 {
	gas := params.TxGasContractCreation
	for _, b := range data {
		if b == 0 {
			gas += params.TxDataZeroGas
		} else {
			gas += params.TxDataNonZeroGasEIP2028
		}
	}
	return gas
}

// DeploymentGas returns the total gas a contract creation with the provided payload consumes on this network.
func (n *TestNetwork) DeploymentGas(data []byte) uint64 {
	return IntrinsicGas(data) + n.CodeDepositGas*uint64(len(data))
}

// checkReachable returns an error if the network is unreachable. The lock must be held.
func (n *TestNetwork) checkReachable() error {
	if n.Unreachable {
		return ErrNetworkUnreachable
	}
	return nil
}

// ChainID returns the chain id of the network.
func (n *TestNetwork) ChainID(ctx context.Context) (*big.Int, error) {
	n.lock.Lock()
	defer n.lock.Unlock()
	if err := n.checkReachable(); err != nil {
		return nil, err
	}
	return new(big.Int).Set(n.ChainIDValue), nil
}

// PendingNonceAt returns the next nonce the network expects from the provided account.
func (n *TestNetwork) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	n.lock.Lock()
	defer n.lock.Unlock()
	if err := n.checkReachable(); err != nil {
		return 0, err
	}
	return n.nonces[account], nil
}

// SuggestGasPrice returns the gas price suggested by the network.
func (n *TestNetwork) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	n.lock.Lock()
	defer n.lock.Unlock()
	if err := n.checkReachable(); err != nil {
		return nil, err
	}
	return new(big.Int).Set(n.GasPrice), nil
}

// SendTransaction validates and accepts a transaction into the network's pool.
func (n *TestNetwork) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	n.lock.Lock()
	defer n.lock.Unlock()
	if err := n.checkReachable(); err != nil {
		return err
	}
	if n.LoseSendRequests {
		return ErrResponseLost
	}

	if tx.ChainId().Cmp(n.ChainIDValue) != 0 {
		return declined("invalid chain id: have %v want %v", tx.ChainId(), n.ChainIDValue)
	}
	sender, err := types.Sender(types.LatestSignerForChainID(n.ChainIDValue), tx)
	if err != nil {
		return declined("invalid sender: %v", err)
	}
	if tx.Nonce() != n.nonces[sender] {
		return declined("invalid nonce: have %d want %d", tx.Nonce(), n.nonces[sender])
	}
	if intrinsic := IntrinsicGas(tx.Data()); tx.Gas() < intrinsic {
		return declined("intrinsic gas too low: have %d, want %d", tx.Gas(), intrinsic)
	}
	if _, exists := n.transactions[tx.Hash()]; exists {
		return declined("already known")
	}

	n.nonces[sender]++
	n.transactions[tx.Hash()] = &testTransaction{
		tx:           tx,
		sender:       sender,
		pendingPolls: n.ConfirmationDelay,
	}
	if n.LoseSendResponses {
		return ErrResponseLost
	}
	return nil
}

// TransactionReceipt returns the receipt of a mined transaction, or ethereum.NotFound while it is pending.
func (n *TestNetwork) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	n.lock.Lock()
	defer n.lock.Unlock()
	if err := n.checkReachable(); err != nil {
		return nil, err
	}

	pending, exists := n.transactions[txHash]
	if !exists {
		return nil, ethereum.NotFound
	}
	if pending.receipt == nil {
		if pending.pendingPolls < 0 {
			return nil, ethereum.NotFound
		}
		if pending.pendingPolls > 0 {
			pending.pendingPolls--
			return nil, ethereum.NotFound
		}
		pending.receipt = n.mine(pending)
	}
	return pending.receipt, nil
}

// mine executes a pending transaction and produces its receipt. The lock must be held.
func (n *TestNetwork) mine(pending *testTransaction) *types.Receipt {
	tx := pending.tx
	receipt := &types.Receipt{
		Type:              tx.Type(),
		TxHash:            tx.Hash(),
		BlockNumber:       big.NewInt(int64(len(n.transactions))),
		EffectiveGasPrice: tx.GasPrice(),
		Logs:              []*types.Log{},
	}

	required := n.DeploymentGas(tx.Data())
	if tx.To() != nil || tx.Gas() < required {
		// Out of gas consumes the entire limit
		receipt.Status = types.ReceiptStatusFailed
		receipt.GasUsed = tx.Gas()
	} else {
		receipt.Status = types.ReceiptStatusSuccessful
		receipt.GasUsed = required
		receipt.ContractAddress = crypto.CreateAddress(pending.sender, tx.Nonce())
	}
	receipt.CumulativeGasUsed = receipt.GasUsed
	return receipt
}

// Close records that a client of the network was closed. The network stays usable so it can be dialed again.
func (n *TestNetwork) Close() {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.closeCount++
}

// CloseCount returns how many times Close was called.
func (n *TestNetwork) CloseCount() int {
	n.lock.Lock()
	defer n.lock.Unlock()
	return n.closeCount
}

// Transactions returns every transaction submitted to the network, in no particular order.
func (n *TestNetwork) Transactions() []*types.Transaction {
	n.lock.Lock()
	defer n.lock.Unlock()
	txs := make([]*types.Transaction, 0, len(n.transactions))
	for _, pending := range n.transactions {
		txs = append(txs, pending.tx)
	}
	return txs
}

// ConfirmAll mines every pending transaction regardless of ConfirmationDelay.
func (n *TestNetwork) ConfirmAll() {
	n.lock.Lock()
	defer n.lock.Unlock()
	for _, pending := range n.transactions {
		if pending.receipt == nil {
			pending.receipt = n.mine(pending)
		}
	}
}
