package deployment

import (
	"github.com/crytic/medusa-geth/common"
)

// TransactionSubmittedEvent describes an event where a deployment transaction was accepted by the network.
type TransactionSubmittedEvent struct {
	// Artifact is the name of the artifact being deployed.
	Artifact string

	// TxHash is the hash of the submitted transaction.
	TxHash common.Hash

	// Sender is the account which submitted the transaction.
	Sender common.Address

	// Nonce is the nonce of the submitted transaction.
	Nonce uint64
}

// ContractDeployedEvent describes an event where a deployment transaction was confirmed and its address recorded.
type ContractDeployedEvent struct {
	// Artifact is the name of the deployed artifact.
	Artifact string

	// Result describes the confirmed deployment.
	Result *Result
}
