package deployment

import (
	"math/big"
	"time"
)

const (
	// DefaultConfirmationTimeout is how long a deployment waits for confirmation when no timeout is configured.
	DefaultConfirmationTimeout = 5 * time.Minute

	// DefaultPollInterval is how often the receipt of a submitted deployment is queried when no interval is
	// configured.
	DefaultPollInterval = 2 * time.Second
)

// DeployerConfig describes how a Deployer submits and awaits transactions.
type DeployerConfig struct {
	// ConfirmationTimeout is how long to wait for a submitted transaction to be confirmed.
	ConfirmationTimeout time.Duration

	// PollInterval is how often the receipt of a submitted transaction is queried.
	PollInterval time.Duration

	// GasPrice is the gas price to pay when a request does not specify one. If nil, the network's suggestion is used.
	GasPrice *big.Int
}

// withDefaults returns a copy of the config with unset durations replaced by their defaults.
func (c DeployerConfig) withDefaults() DeployerConfig {
	if c.ConfirmationTimeout <= 0 {
		c.ConfirmationTimeout = DefaultConfirmationTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	return c
}
