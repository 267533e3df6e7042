package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/crytic/medusa-geth/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultProjectConfigValid ensures the default configuration passes validation for every platform.
func TestDefaultProjectConfigValid(t *testing.T) {
	for _, platform := range []string{"solc", "solc-combined"} {
		projectConfig, err := GetDefaultProjectConfig(platform)
		require.NoError(t, err)
		assert.NoError(t, projectConfig.Validate(), platform)
		assert.EqualValues(t, 1000000, projectConfig.Deployment.GasCeiling)
		assert.Equal(t, "address.json", projectConfig.Deployment.AddressFile)
	}

	_, err := GetDefaultProjectConfig("truffle")
	assert.Error(t, err)

	projectConfig, err := GetDefaultProjectConfig("")
	require.NoError(t, err)
	assert.Nil(t, projectConfig.Compilation)
	assert.Error(t, projectConfig.Validate())
}

// TestProjectConfigRoundTrip ensures a written configuration is read back unchanged, and that fields missing from a
// file keep their defaults.
func TestProjectConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "solship.json")

	projectConfig, err := GetDefaultProjectConfig("solc")
	require.NoError(t, err)
	projectConfig.Deployment.Artifact = "A"
	projectConfig.Deployment.ConstructorArgs = []byte(`["AUDI"]`)
	projectConfig.Logging.Level = zerolog.DebugLevel
	require.NoError(t, projectConfig.WriteToFile(path))

	read, err := ReadProjectConfigFromFile(path, "solc")
	require.NoError(t, err)
	assert.Equal(t, "A", read.Deployment.Artifact)
	assert.Equal(t, zerolog.DebugLevel, read.Logging.Level)
	assert.Equal(t, projectConfig.Compilation, read.Compilation)
	args, err := read.Deployment.ConstructorArguments()
	require.NoError(t, err)
	assert.Equal(t, []any{"AUDI"}, args)

	partialPath := filepath.Join(dir, "partial.json")
	require.NoError(t, os.WriteFile(partialPath, []byte(`{"deployment": {"artifact": "B", "gasCeiling": 500000}}`), 0644))
	read, err = ReadProjectConfigFromFile(partialPath, "solc")
	require.NoError(t, err)
	assert.Equal(t, "B", read.Deployment.Artifact)
	assert.EqualValues(t, 500000, read.Deployment.GasCeiling)
	assert.Equal(t, "contracts", read.Compilation.SourceDirectory)
	assert.Equal(t, 1, read.Deployment.AccountCount)

	_, err = ReadProjectConfigFromFile(filepath.Join(dir, "missing.json"), "solc")
	assert.Error(t, err)
	require.NoError(t, os.WriteFile(partialPath, []byte(`{`), 0644))
	_, err = ReadProjectConfigFromFile(partialPath, "solc")
	assert.Error(t, err)
}

// TestApplyEnvironment ensures the mnemonic environment variable overrides the configured one.
func TestApplyEnvironment(t *testing.T) {
	projectConfig, err := GetDefaultProjectConfig("solc")
	require.NoError(t, err)
	projectConfig.Deployment.Mnemonic = "from file"

	t.Setenv(MnemonicEnvironmentVariable, "")
	projectConfig.ApplyEnvironment()
	assert.Equal(t, "from file", projectConfig.Deployment.Mnemonic)

	t.Setenv(MnemonicEnvironmentVariable, "from environment")
	projectConfig.ApplyEnvironment()
	assert.Equal(t, "from environment", projectConfig.Deployment.Mnemonic)
}

// TestDeploymentConfigConversions ensures deployment settings are converted to the values the deployer and resolver
// expect.
func TestDeploymentConfigConversions(t *testing.T) {
	projectConfig, err := GetDefaultProjectConfig("solc")
	require.NoError(t, err)
	deploymentConfig := projectConfig.Deployment

	gasPrice, err := deploymentConfig.GasPriceWei()
	require.NoError(t, err)
	assert.Nil(t, gasPrice)

	deploymentConfig.GasPrice = "1.5"
	gasPrice, err = deploymentConfig.GasPriceWei()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1500000000), gasPrice)

	deploymentConfig.ConfirmationTimeout = 30
	deploymentConfig.PollInterval = 1
	deployerConfig, err := deploymentConfig.DeployerConfig()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, deployerConfig.ConfirmationTimeout)
	assert.Equal(t, time.Second, deployerConfig.PollInterval)
	assert.Equal(t, big.NewInt(1500000000), deployerConfig.GasPrice)

	deploymentConfig.Sender = "0x70997970C51812dc3A010C7d01b50e79d17dc79C"
	sender, err := deploymentConfig.SenderAddress()
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x70997970C51812dc3A010C7d01b50e79d17dc79C"), *sender)

	deploymentConfig.AccountCount = 3
	assert.Equal(t, 3, deploymentConfig.ResolverConfig().AccountCount)
	assert.NoError(t, deploymentConfig.Validate())
}

// TestDeploymentConfigValidate ensures invalid deployment settings are refused.
func TestDeploymentConfigValidate(t *testing.T) {
	mutations := map[string]func(*DeploymentConfig){
		"zero gas":         func(d *DeploymentConfig) { d.GasCeiling = 0 },
		"no accounts":      func(d *DeploymentConfig) { d.AccountCount = 0 },
		"negative timeout": func(d *DeploymentConfig) { d.ConfirmationTimeout = -1 },
		"no address file":  func(d *DeploymentConfig) { d.AddressFile = "" },
		"bad path":         func(d *DeploymentConfig) { d.DerivationPath = "m/not/a/path" },
		"bad sender":       func(d *DeploymentConfig) { d.Sender = "0x1234" },
		"bad gas price":    func(d *DeploymentConfig) { d.GasPrice = "cheap" },
		"negative price":   func(d *DeploymentConfig) { d.GasPrice = "-1" },
		"fractional wei":   func(d *DeploymentConfig) { d.GasPrice = "0.0000000001" },
		"bad args":         func(d *DeploymentConfig) { d.ConstructorArgs = []byte(`["AUDI"`) },
	}
	for name, mutate := range mutations {
		projectConfig, err := GetDefaultProjectConfig("solc")
		require.NoError(t, err)
		mutate(&projectConfig.Deployment)
		assert.Error(t, projectConfig.Validate(), name)
	}
}
