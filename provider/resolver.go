package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/crytic/medusa-geth/accounts"
	"github.com/crytic/medusa-geth/ethclient"
	"github.com/crytic/solship/logging"
	"github.com/crytic/solship/logging/colors"
)

// DefaultDerivationPath is the path of the first account derived from a credential. Further accounts increment the
// last component.
var DefaultDerivationPath = accounts.DefaultBaseDerivationPath.String()

// Dialer connects to the network at the provided endpoint.
type Dialer func(ctx context.Context, endpoint string) (Backend, error)

// DialEthClient connects to a JSON-RPC endpoint using go-ethereum's client.
func DialEthClient(ctx context.Context, endpoint string) (Backend, error) {
	client, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// ResolverConfig describes how accounts are derived from a credential.
type ResolverConfig struct {
	// AccountCount is the number of accounts to derive. At least one account is always derived.
	AccountCount int `json:"accountCount"`

	// DerivationPath is the derivation path of the first account, e.g. "m/44'/60'/0'/0/0".
	DerivationPath string `json:"derivationPath"`
}

// Resolver resolves a credential and endpoint into an AccessContext.
type Resolver struct {
	// accountCount is the number of accounts to derive.
	accountCount int

	// basePath is the derivation path of the first account.
	basePath accounts.DerivationPath

	// dialer connects to the network.
	dialer Dialer

	// logger describes the Resolver's log object that can be used to log important events
	logger *logging.Logger
}

// NewResolver creates a Resolver from the provided config. If dialer is nil, DialEthClient is used.
func NewResolver(config ResolverConfig, dialer Dialer) (*Resolver, error) {
	accountCount := config.AccountCount
	if accountCount < 1 {
		accountCount = 1
	}

	derivationPath := config.DerivationPath
	if derivationPath == "" {
		derivationPath = DefaultDerivationPath
	}
	basePath, err := accounts.ParseDerivationPath(derivationPath)
	if err != nil {
		return nil, fmt.Errorf("invalid derivation path '%s': %v", derivationPath, err)
	}
	if len(basePath) == 0 {
		return nil, fmt.Errorf("invalid derivation path '%s': no components", derivationPath)
	}

	if dialer == nil {
		dialer = DialEthClient
	}
	return &Resolver{
		accountCount: accountCount,
		basePath:     basePath,
		dialer:       dialer,
		logger:       logging.GlobalLogger.NewSubLogger(logging.SERVICE_KEY, logging.PROVIDER_SERVICE),
	}, nil
}

// Resolve derives the accounts of the credential and connects to the endpoint. It fails with ErrInvalidCredential if
// the credential cannot derive an account, and ErrProviderUnreachable if the endpoint cannot be reached or does not
// report its chain id. The credential is checked before any connection is attempted.
func (r *Resolver) Resolve(ctx context.Context, credential string, endpoint string) (*AccessContext, error) {
	derived, err := DeriveAccounts(credential, r.basePath, r.accountCount)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("%w: no endpoint was provided", ErrProviderUnreachable)
	}
	backend, err := r.dialer(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: could not dial '%s': %w", ErrProviderUnreachable, endpoint, err)
	}

	// Dialing may be lazy, so only a successful call proves the endpoint is reachable
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("%w: could not query chain id from '%s': %w", ErrProviderUnreachable, endpoint, err)
	}

	r.logger.Info("Connected to chain ", colors.Bold, chainID, colors.Reset, " with ", len(derived), " account(s), first ",
		colors.Bold, derived[0].Address.Hex(), logging.StructuredLogInfo{"derivationPath": derived[0].Path.String()})
	return NewAccessContext(backend, endpoint, chainID, derived), nil
}
