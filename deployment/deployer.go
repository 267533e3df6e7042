package deployment

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	ethereum "github.com/crytic/medusa-geth"
	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/core/types"
	"github.com/crytic/medusa-geth/rpc"
	"github.com/crytic/solship/artifacts"
	"github.com/crytic/solship/events"
	"github.com/crytic/solship/ledger"
	"github.com/crytic/solship/logging"
	"github.com/crytic/solship/logging/colors"
	"github.com/crytic/solship/provider"
	"github.com/crytic/solship/utils"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// rpcTimeoutErrorCode is the JSON-RPC error code of a request the server timed out while handling.
const rpcTimeoutErrorCode = -32002

// Request describes one contract deployment.
type Request struct {
	// ArtifactName is the name of the stored artifact to deploy.
	ArtifactName string

	// ConstructorArgs holds one JSON-decoded value per constructor input.
	ConstructorArgs []any

	// Sender is the account to deploy from. If nil, the first derived account is used.
	Sender *common.Address

	// GasCeiling is the gas limit of the deployment transaction.
	GasCeiling uint64

	// GasPrice is the gas price to pay. If nil, the deployer's configured or suggested price is used.
	GasPrice *big.Int
}

// Result describes a confirmed deployment.
type Result struct {
	// Address is the address of the created contract.
	Address common.Address

	// TransactionHash is the hash of the deployment transaction.
	TransactionHash common.Hash

	// Sender is the account which deployed the contract.
	Sender common.Address

	// GasUsed is the gas consumed by the deployment transaction.
	GasUsed uint64

	// Cost is the fee paid for the deployment transaction, in wei.
	Cost *big.Int

	// Elapsed is the wall-clock time from just before submission until confirmation was observed.
	Elapsed time.Duration

	// JournalID is the id of the journal entry recording the deployment, if a journal is in use.
	JournalID string
}

// CostInEther returns the fee paid for the deployment transaction, in ether.
func (r *Result) CostInEther() decimal.Decimal {
	return weiToEther(r.Cost)
}

// weiToEther converts an amount of wei to ether.
func weiToEther(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -18)
}

// Deployer publishes stored artifacts to a network through a resolved provider.AccessContext, recording the address
// of each confirmed deployment in an AddressLedger.
type Deployer struct {
	// accessContext is the network connection and accounts used to submit transactions.
	accessContext *provider.AccessContext

	// store holds the artifacts which can be deployed.
	store *artifacts.Store

	// addressLedger records the address of each confirmed deployment.
	addressLedger *ledger.AddressLedger

	// journal records every submitted transaction. It may be nil, in which case nothing is journaled.
	journal *ledger.Journal

	// config describes how transactions are submitted and awaited.
	config DeployerConfig

	// logger describes the Deployer's log object that can be used to log important events
	logger *logging.Logger

	// TransactionSubmitted emits events after a deployment transaction is accepted by the network.
	TransactionSubmitted events.EventEmitter[TransactionSubmittedEvent]

	// ContractDeployed emits events after a deployment is confirmed and its address recorded.
	ContractDeployed events.EventEmitter[ContractDeployedEvent]
}

// NewDeployer creates a Deployer. The journal is optional.
func NewDeployer(accessContext *provider.AccessContext, store *artifacts.Store, addressLedger *ledger.AddressLedger, journal *ledger.Journal, config DeployerConfig) *Deployer {
	return &Deployer{
		accessContext: accessContext,
		store:         store,
		addressLedger: addressLedger,
		journal:       journal,
		config:        config.withDefaults(),
		logger:        logging.GlobalLogger.NewSubLogger(logging.SERVICE_KEY, logging.DEPLOYMENT_SERVICE),
	}
}

// Deploy publishes the requested artifact, waits for the network to confirm it, and records the created contract's
// address. The transaction is submitted at most once. If confirmation is not observed within the configured timeout,
// ErrConfirmationTimeout is returned and the journal keeps the transaction so its outcome can be resolved later with
// ResolvePending. If the context is cancelled while waiting, its error is returned and the transaction stays pending.
func (d *Deployer) Deploy(ctx context.Context, request Request) (*Result, error) {
	if request.GasCeiling == 0 {
		return nil, fmt.Errorf("a gas ceiling must be provided to deploy '%s'", request.ArtifactName)
	}

	// Build the deployment payload: bytecode followed by the encoded constructor arguments
	artifact, err := d.store.Get(request.ArtifactName)
	if err != nil {
		return nil, err
	}
	contractAbi, err := artifact.ParseABI()
	if err != nil {
		return nil, err
	}
	args, err := DecodeConstructorArguments(contractAbi, request.ConstructorArgs)
	if err != nil {
		return nil, fmt.Errorf("could not deploy '%s': %v", request.ArtifactName, err)
	}
	data, err := artifact.GetDeploymentMessageData(contractAbi, args)
	if err != nil {
		return nil, err
	}

	account, err := d.selectAccount(request.Sender)
	if err != nil {
		return nil, err
	}

	chainID := d.accessContext.ChainID()
	if err = d.checkNoUnresolvedDeployment(request.ArtifactName, chainID); err != nil {
		return nil, err
	}

	backend := d.accessContext.Backend()
	nonce, err := backend.PendingNonceAt(ctx, account.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: could not fetch nonce for %s: %w", provider.ErrProviderUnreachable, account.Address.Hex(), err)
	}
	gasPrice, err := d.gasPrice(ctx, request.GasPrice)
	if err != nil {
		return nil, err
	}
	maxCost, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(request.GasCeiling), gasPrice)
	if overflow {
		return nil, fmt.Errorf("gas ceiling %d at gas price %s overflows the maximum transaction cost", request.GasCeiling, gasPrice.Dec())
	}

	tx, err := d.accessContext.SignTransaction(*account, types.NewContractCreation(nonce, big.NewInt(0), request.GasCeiling, gasPrice.ToBig(), data))
	if err != nil {
		return nil, err
	}

	d.logger.Info("Deploying ", colors.Bold, request.ArtifactName, colors.Reset, " from ", account.Address.Hex(),
		" (gas ceiling ", request.GasCeiling, ", max cost ", weiToEther(maxCost.ToBig()).String(), " ETH)",
		logging.StructuredLogInfo{"nonce": nonce, "chainId": chainID.String(), "payloadSize": len(data)})

	// The entry must exist before anything can reach the network
	entry := &ledger.JournalEntry{
		Artifact: request.ArtifactName,
		ChainID:  chainID,
		Sender:   account.Address.Hex(),
		Nonce:    nonce,
		TxHash:   tx.Hash().Hex(),
		Status:   ledger.StatusPending,
	}
	if d.journal != nil {
		if err = d.journal.Add(entry); err != nil {
			return nil, fmt.Errorf("could not journal transaction %s deploying '%s', nothing was submitted: %w", tx.Hash().Hex(), request.ArtifactName, err)
		}
	}

	// The timing bracket starts right before submission and ends once confirmation is observed
	start := time.Now()
	if err = backend.SendTransaction(ctx, tx); err != nil {
		if isDeclined(err) {
			d.resolveEntry(entry, ledger.StatusRejected, "", err.Error())
			return nil, fmt.Errorf("%w: the network declined the deployment of '%s': %v", ErrSubmissionRejected, request.ArtifactName, err)
		}
		return nil, fmt.Errorf("%w: submitting transaction %s deploying '%s' failed and it may still be mined (run 'deployments --resolve'): %v",
			ErrSubmissionUnknown, tx.Hash().Hex(), request.ArtifactName, err)
	}

	d.logger.Info("Submitted transaction ", colors.Bold, tx.Hash().Hex(), colors.Reset, ", awaiting confirmation")
	err = d.TransactionSubmitted.Publish(TransactionSubmittedEvent{
		Artifact: request.ArtifactName,
		TxHash:   tx.Hash(),
		Sender:   account.Address,
		Nonce:    nonce,
	})
	if err != nil {
		return nil, err
	}

	receipt, err := d.waitForReceipt(ctx, tx.Hash())
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, ErrConfirmationTimeout) {
			d.resolveEntry(entry, ledger.StatusTimeout, "", err.Error())
		}
		return nil, fmt.Errorf("deployment of '%s' (transaction %s): %w", request.ArtifactName, tx.Hash().Hex(), err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		reason := fmt.Sprintf("transaction failed during execution (gas used %d of %d)", receipt.GasUsed, request.GasCeiling)
		d.resolveEntry(entry, ledger.StatusRejected, "", reason)
		return nil, fmt.Errorf("%w: deployment of '%s' (transaction %s): %s", ErrSubmissionRejected, request.ArtifactName, tx.Hash().Hex(), reason)
	}

	result := &Result{
		Address:         receipt.ContractAddress,
		TransactionHash: tx.Hash(),
		Sender:          account.Address,
		GasUsed:         receipt.GasUsed,
		Cost:            receiptCost(receipt, gasPrice),
		Elapsed:         elapsed,
		JournalID:       entry.ID,
	}
	if err = d.addressLedger.Record(result.Address.Hex()); err != nil {
		return nil, fmt.Errorf("deployed '%s' at %s but could not record the address: %w", request.ArtifactName, result.Address.Hex(), err)
	}
	d.resolveEntry(entry, ledger.StatusConfirmed, result.Address.Hex(), "")

	d.logger.Info("Deployed ", colors.Bold, request.ArtifactName, colors.Reset, " at ", colors.GreenBold, result.Address.Hex(),
		colors.Reset, " in ", elapsed.Round(time.Millisecond), " (gas used ", result.GasUsed, ", cost ",
		result.CostInEther().String(), " ETH)")
	err = d.ContractDeployed.Publish(ContractDeployedEvent{Artifact: request.ArtifactName, Result: result})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ResolvePending queries the receipt of every unresolved journaled transaction on the current chain once, and
// records the outcome of those which were mined. A transaction which is not mined and whose nonce the network does not
// hold is marked rejected, since it never reached the network or was replaced. The address of a confirmed deployment is
// recorded in the address ledger unless a deployment submitted after it was already confirmed. Returns the entries
// whose outcome was resolved.
func (d *Deployer) ResolvePending(ctx context.Context) ([]*ledger.JournalEntry, error) {
	if d.journal == nil {
		return nil, errors.New("no deployment journal is configured")
	}
	entries, err := d.journal.List()
	if err != nil {
		return nil, err
	}
	var latestConfirmed time.Time
	for _, entry := range entries {
		if entry.Status == ledger.StatusConfirmed && entry.SubmittedAt.After(latestConfirmed) {
			latestConfirmed = entry.SubmittedAt
		}
	}

	chainID := d.accessContext.ChainID()
	backend := d.accessContext.Backend()
	resolved := make([]*ledger.JournalEntry, 0)
	for _, entry := range entries {
		if !entry.Status.Unresolved() || entry.ChainID == nil || entry.ChainID.Cmp(chainID) != 0 {
			continue
		}

		receipt, err := backend.TransactionReceipt(ctx, common.HexToHash(entry.TxHash))
		if errors.Is(err, ethereum.NotFound) {
			dropped, err := d.isDropped(ctx, entry)
			if err != nil {
				return resolved, err
			}
			if !dropped {
				d.logger.Info("Transaction ", colors.Bold, entry.TxHash, colors.Reset, " deploying ", entry.Artifact, " is still pending")
				continue
			}
			if err = d.journal.Resolve(entry, ledger.StatusRejected, "", "transaction is not known to the network"); err != nil {
				return resolved, err
			}
			d.logger.Warn("Transaction ", colors.Bold, entry.TxHash, colors.Reset, " deploying ", entry.Artifact, " is not known to the network")
			resolved = append(resolved, entry)
			continue
		} else if err != nil {
			return resolved, fmt.Errorf("%w: could not query transaction %s: %w", provider.ErrProviderUnreachable, entry.TxHash, err)
		}

		if receipt.Status != types.ReceiptStatusSuccessful {
			if err = d.journal.Resolve(entry, ledger.StatusRejected, "", "transaction failed during execution"); err != nil {
				return resolved, err
			}
			d.logger.Warn("Transaction ", colors.Bold, entry.TxHash, colors.Reset, " deploying ", entry.Artifact, " failed")
		} else {
			address := receipt.ContractAddress.Hex()
			if entry.SubmittedAt.Before(latestConfirmed) {
				d.logger.Info("Not recording ", address, " in the address ledger, a later deployment was already confirmed")
			} else {
				if err = d.addressLedger.Record(address); err != nil {
					return resolved, err
				}
				latestConfirmed = entry.SubmittedAt
			}
			if err = d.journal.Resolve(entry, ledger.StatusConfirmed, address, ""); err != nil {
				return resolved, err
			}
			d.logger.Info("Transaction ", colors.Bold, entry.TxHash, colors.Reset, " deployed ", entry.Artifact, " at ", colors.GreenBold, address)
		}
		resolved = append(resolved, entry)
	}
	return resolved, nil
}

// isDropped reports whether an unmined transaction can no longer be mined: the network holds no transaction from its
// sender at its nonce.
func (d *Deployer) isDropped(ctx context.Context, entry *ledger.JournalEntry) (bool, error) {
	sender, err := utils.HexStringToAddress(entry.Sender)
	if err != nil {
		return false, fmt.Errorf("invalid sender in journal entry '%s': %v", entry.ID, err)
	}
	nonce, err := d.accessContext.Backend().PendingNonceAt(ctx, *sender)
	if err != nil {
		return false, fmt.Errorf("%w: could not fetch nonce for %s: %w", provider.ErrProviderUnreachable, entry.Sender, err)
	}
	return nonce <= entry.Nonce, nil
}

// isDeclined reports whether a submission error is an error response from the network, as opposed to a failure to
// get any answer. A server-side request timeout leaves the outcome unknown.
func isDeclined(err error) bool {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode() != rpcTimeoutErrorCode
	}
	var dataErr rpc.DataError
	return errors.As(err, &dataErr)
}

// selectAccount returns the requested sender, or the first derived account if none was requested.
func (d *Deployer) selectAccount(sender *common.Address) (*provider.Account, error) {
	if sender != nil {
		return d.accessContext.Account(*sender)
	}
	accounts := d.accessContext.Accounts()
	if len(accounts) == 0 {
		return nil, provider.ErrInvalidCredential
	}
	return &accounts[0], nil
}

// checkNoUnresolvedDeployment fails if the journal holds a transaction for the artifact on the chain whose outcome is
// unknown.
func (d *Deployer) checkNoUnresolvedDeployment(artifactName string, chainID *big.Int) error {
	if d.journal == nil {
		return nil
	}
	pending, err := d.journal.Pending(artifactName, chainID)
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		return fmt.Errorf("%w: transaction %s deploying '%s' was submitted at %s and its outcome is unknown (run 'deployments --resolve')",
			ErrUnresolvedDeployment, pending[0].TxHash, artifactName, pending[0].SubmittedAt.Format(time.RFC3339))
	}
	return nil
}

// gasPrice returns the gas price to pay: the requested one, else the configured one, else the network's suggestion.
func (d *Deployer) gasPrice(ctx context.Context, requested *big.Int) (*uint256.Int, error) {
	price := requested
	if price == nil {
		price = d.config.GasPrice
	}
	if price == nil {
		var err error
		if price, err = d.accessContext.Backend().SuggestGasPrice(ctx); err != nil {
			return nil, fmt.Errorf("%w: could not fetch gas price: %w", provider.ErrProviderUnreachable, err)
		}
	}

	if price.Sign() < 0 {
		return nil, fmt.Errorf("gas price %s is negative", price.String())
	}
	gasPrice, overflow := uint256.FromBig(price)
	if overflow {
		return nil, fmt.Errorf("gas price %s exceeds 256 bits", price.String())
	}
	return gasPrice, nil
}

// waitForReceipt polls for the receipt of a transaction until it is available or the confirmation timeout elapses.
// Transient query failures are retried until then.
func (d *Deployer) waitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, d.config.ConfirmationTimeout)
	defer cancel()

	var lastErr error
	for {
		receipt, err := d.accessContext.Backend().TransactionReceipt(waitCtx, txHash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			lastErr = err
			d.logger.Debug("Failed to query receipt of ", txHash.Hex(), err)
		}

		if err = utils.SleepWithContext(waitCtx, d.config.PollInterval); err != nil {
			// Only our own deadline is a confirmation timeout, a cancelled caller abandons the wait
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if lastErr != nil {
				return nil, fmt.Errorf("%w: not confirmed within %s (last error: %v)", ErrConfirmationTimeout, d.config.ConfirmationTimeout, lastErr)
			}
			return nil, fmt.Errorf("%w: not confirmed within %s", ErrConfirmationTimeout, d.config.ConfirmationTimeout)
		}
	}
}

// resolveEntry records the outcome of a journaled transaction, logging any failure to do so.
func (d *Deployer) resolveEntry(entry *ledger.JournalEntry, status ledger.DeploymentStatus, address string, reason string) {
	if d.journal == nil || entry.ID == "" {
		return
	}
	if err := d.journal.Resolve(entry, status, address, reason); err != nil {
		d.logger.Error("Failed to update journal entry for transaction ", entry.TxHash, err)
	}
}

// receiptCost returns the fee paid for a mined transaction.
func receiptCost(receipt *types.Receipt, gasPrice *uint256.Int) *big.Int {
	price := gasPrice
	if receipt.EffectiveGasPrice != nil {
		if effective, overflow := uint256.FromBig(receipt.EffectiveGasPrice); !overflow {
			price = effective
		}
	}
	cost, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(receipt.GasUsed), price)
	if overflow {
		return new(big.Int).Mul(new(big.Int).SetUint64(receipt.GasUsed), price.ToBig())
	}
	return cost.ToBig()
}
