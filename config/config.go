package config

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/crytic/medusa-geth/accounts"
	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/solship/compilation"
	"github.com/crytic/solship/deployment"
	"github.com/crytic/solship/provider"
	"github.com/crytic/solship/utils"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// MnemonicEnvironmentVariable is the environment variable which, when set, overrides the configured mnemonic so it
// need not be stored in the project configuration file.
const MnemonicEnvironmentVariable = "SOLSHIP_MNEMONIC"

// ProjectConfig describes the configuration of a project: how its sources are compiled, how its artifacts are
// deployed, and how the tool logs.
type ProjectConfig struct {
	// Compilation describes the configuration used to compile the underlying project.
	Compilation *compilation.CompilationConfig `json:"compilation"`

	// Deployment describes the configuration used to deploy compiled artifacts.
	Deployment DeploymentConfig `json:"deployment"`

	// Logging describes the configuration used for logging
	Logging LoggingConfig `json:"logging"`
}

// DeploymentConfig describes the configuration options used by the deployment.Deployer.
type DeploymentConfig struct {
	// Endpoint is the URL of the network's JSON-RPC endpoint.
	Endpoint string `json:"endpoint"`

	// Mnemonic is the seed phrase the deploying accounts are derived from. It is overridden by the SOLSHIP_MNEMONIC
	// environment variable when that is set.
	Mnemonic string `json:"mnemonic"`

	// Artifact is the name of the artifact to deploy.
	Artifact string `json:"artifact"`

	// ConstructorArgs holds the constructor arguments as JSON: a list with one value per constructor input, or a
	// single value for a constructor with one input.
	ConstructorArgs json.RawMessage `json:"constructorArgs,omitempty"`

	// GasCeiling is the gas limit of deployment transactions.
	GasCeiling uint64 `json:"gasCeiling"`

	// GasPrice is the gas price to pay in gwei, as a decimal string. If empty, the network's suggestion is used.
	GasPrice string `json:"gasPrice"`

	// Sender is the address of the derived account to deploy from. If empty, the first derived account is used.
	Sender string `json:"sender"`

	// ConfirmationTimeout is the number of seconds to wait for a deployment to be confirmed.
	ConfirmationTimeout int `json:"confirmationTimeout"`

	// PollInterval is the number of seconds between receipt queries while waiting for confirmation.
	PollInterval int `json:"pollInterval"`

	// AccountCount is the number of accounts derived from the mnemonic.
	AccountCount int `json:"accountCount"`

	// DerivationPath is the derivation path of the first account.
	DerivationPath string `json:"derivationPath"`

	// AddressFile is the path of the file the address of the latest confirmed deployment is recorded in.
	AddressFile string `json:"addressFile"`

	// JournalFile is the path of the database recording every submitted deployment transaction. If empty, nothing is
	// journaled.
	JournalFile string `json:"journalFile"`
}

// LoggingConfig describes the configuration options used for logging
type LoggingConfig struct {
	// Level describes whether logs of certain severity levels (eg info, warning, etc.) will be emitted or discarded.
	// Increasing level values represent more severe logs
	Level zerolog.Level `json:"level"`

	// LogDirectory describes the directory where structured log _files_ will be outputted. If the string is empty, then
	// no log files are kept
	LogDirectory string `json:"logDirectory"`

	// NoColor indicates whether or not console output should be colorized.
	NoColor bool `json:"noColor"`
}

// ReadProjectConfigFromFile reads a JSON-serialized ProjectConfig from a provided file path. Fields missing from the
// file keep their default values, with the default compilation config built for the provided platform.
// Returns the ProjectConfig if it succeeds, or an error if one occurs.
func ReadProjectConfigFromFile(path string, platform string) (*ProjectConfig, error) {
	// Read our project configuration file data
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Parse the project configuration over the defaults
	projectConfig, err := GetDefaultProjectConfig(platform)
	if err != nil {
		return nil, err
	}
	err = json.Unmarshal(b, projectConfig)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse project configuration '%s'", path)
	}

	return projectConfig, nil
}

// WriteToFile writes the ProjectConfig to a provided file path in a JSON-serialized format.
// Returns an error if one occurs.
func (p *ProjectConfig) WriteToFile(path string) error {
	// Serialize the configuration
	b, err := json.MarshalIndent(p, "", "\t")
	if err != nil {
		return errors.WithStack(err)
	}

	// Save it to the provided output path and return the result
	return utils.WriteFileAtomic(path, b, 0644)
}

// ApplyEnvironment overrides configuration values with those set in the environment.
func (p *ProjectConfig) ApplyEnvironment() {
	if mnemonic, ok := os.LookupEnv(MnemonicEnvironmentVariable); ok && mnemonic != "" {
		p.Deployment.Mnemonic = mnemonic
	}
}

// Validate validates that the ProjectConfig meets certain requirements.
// Returns an error if one occurs.
func (p *ProjectConfig) Validate() error {
	// Verify the compilation config
	if p.Compilation == nil {
		return errors.New("project configuration must specify a compilation configuration")
	}
	if err := p.Compilation.Validate(); err != nil {
		return err
	}

	return p.Deployment.Validate()
}

// Validate validates that the DeploymentConfig meets certain requirements. The endpoint and mnemonic are checked when
// they are used, so a project can be compiled without them.
// Returns an error if one occurs.
func (d *DeploymentConfig) Validate() error {
	if d.GasCeiling == 0 {
		return errors.New("deployment gas ceiling must be a positive number")
	}
	if d.AccountCount <= 0 {
		return errors.New("deployment account count must be a positive number")
	}
	if d.ConfirmationTimeout < 0 || d.PollInterval < 0 {
		return errors.New("deployment confirmation timeout and poll interval must not be negative")
	}
	if d.AddressFile == "" {
		return errors.New("deployment address file must be set")
	}
	if d.DerivationPath != "" {
		if _, err := accounts.ParseDerivationPath(d.DerivationPath); err != nil {
			return fmt.Errorf("invalid derivation path '%s': %v", d.DerivationPath, err)
		}
	}
	if _, err := d.SenderAddress(); err != nil {
		return err
	}
	if _, err := d.GasPriceWei(); err != nil {
		return err
	}
	if _, err := d.ConstructorArguments(); err != nil {
		return err
	}
	return nil
}

// ConstructorArguments returns the configured constructor arguments, decoded from JSON.
func (d *DeploymentConfig) ConstructorArguments() ([]any, error) {
	return deployment.ParseConstructorArguments(string(d.ConstructorArgs))
}

// SenderAddress returns the configured sender, or nil if none is configured.
func (d *DeploymentConfig) SenderAddress() (*common.Address, error) {
	if d.Sender == "" {
		return nil, nil
	}
	address, err := utils.HexStringToAddress(d.Sender)
	if err != nil {
		return nil, fmt.Errorf("invalid deployment sender: %v", err)
	}
	return address, nil
}

// GasPriceWei returns the configured gas price converted from gwei to wei, or nil if none is configured.
func (d *DeploymentConfig) GasPriceWei() (*big.Int, error) {
	if d.GasPrice == "" {
		return nil, nil
	}
	gwei, err := decimal.NewFromString(d.GasPrice)
	if err != nil {
		return nil, fmt.Errorf("invalid deployment gas price '%s': %v", d.GasPrice, err)
	}
	wei := gwei.Shift(9)
	if wei.IsNegative() || !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("invalid deployment gas price '%s': must be a non-negative whole number of wei", d.GasPrice)
	}
	return wei.BigInt(), nil
}

// DeployerConfig returns the deployment.DeployerConfig described by this config.
func (d *DeploymentConfig) DeployerConfig() (deployment.DeployerConfig, error) {
	gasPrice, err := d.GasPriceWei()
	if err != nil {
		return deployment.DeployerConfig{}, err
	}
	return deployment.DeployerConfig{
		ConfirmationTimeout: time.Duration(d.ConfirmationTimeout) * time.Second,
		PollInterval:        time.Duration(d.PollInterval) * time.Second,
		GasPrice:            gasPrice,
	}, nil
}

// ResolverConfig returns the provider.ResolverConfig described by this config.
func (d *DeploymentConfig) ResolverConfig() provider.ResolverConfig {
	return provider.ResolverConfig{
		AccountCount:   d.AccountCount,
		DerivationPath: d.DerivationPath,
	}
}
