package provider

import (
	"context"
	"fmt"
	"math/big"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/core/types"
)

// Backend describes the network calls needed to publish contracts. *ethclient.Client satisfies it.
type Backend interface {
	// ChainID returns the chain id of the network.
	ChainID(ctx context.Context) (*big.Int, error)

	// PendingNonceAt returns the next nonce to use for the account.
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)

	// SuggestGasPrice returns a gas price for timely inclusion.
	SuggestGasPrice(ctx context.Context) (*big.Int, error)

	// SendTransaction submits a signed transaction.
	SendTransaction(ctx context.Context, tx *types.Transaction) error

	// TransactionReceipt returns the receipt of a mined transaction, or ethereum.NotFound while it is pending.
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)

	// Close releases the connection.
	Close()
}

// AccessContext is a resolved, ready-to-use handle for submitting transactions to a network on behalf of the accounts
// derived from a credential. It lives for a single deployment and must be closed afterwards.
type AccessContext struct {
	// backend is the connection to the network.
	backend Backend

	// endpoint is the URL the backend was dialed with.
	endpoint string

	// chainID is the chain id reported by the network when it was resolved.
	chainID *big.Int

	// accounts are the derived accounts, in derivation index order.
	accounts []Account
}

// NewAccessContext creates an AccessContext over an established backend.
func NewAccessContext(backend Backend, endpoint string, chainID *big.Int, accounts []Account) *AccessContext {
	return &AccessContext{
		backend:  backend,
		endpoint: endpoint,
		chainID:  new(big.Int).Set(chainID),
		accounts: accounts,
	}
}

// Backend returns the connection to the network.
func (a *AccessContext) Backend() Backend {
	return a.backend
}

// Endpoint returns the URL of the network.
func (a *AccessContext) Endpoint() string {
	return a.endpoint
}

// ChainID returns the chain id of the network.
func (a *AccessContext) ChainID() *big.Int {
	return new(big.Int).Set(a.chainID)
}

// Accounts returns the derived accounts, in derivation index order.
func (a *AccessContext) Accounts() []Account {
	return append([]Account(nil), a.accounts...)
}

// Account returns the derived account with the provided address.
func (a *AccessContext) Account(address common.Address) (*Account, error) {
	for i := range a.accounts {
		if a.accounts[i].Address == address {
			account := a.accounts[i]
			return &account, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, address.Hex())
}

// Signer returns the transaction signer for the network.
func (a *AccessContext) Signer() types.Signer {
	return types.LatestSignerForChainID(a.chainID)
}

// SignTransaction signs the transaction with the account's key for the network.
func (a *AccessContext) SignTransaction(account Account, tx *types.Transaction) (*types.Transaction, error) {
	return types.SignTx(tx, a.Signer(), account.PrivateKey)
}

// Close releases the connection to the network.
func (a *AccessContext) Close() {
	a.backend.Close()
}
