package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/crytic/solship/config"
	"github.com/spf13/cobra"
)

// addDeployFlags adds the various flags for the deploy command
func addDeployFlags() error {
	// Get the default project config and throw an error if we cant
	defaultConfig, err := config.GetDefaultProjectConfig(DefaultCompilationPlatform)
	if err != nil {
		return err
	}

	// Prevent alphabetical sorting of usage message
	deployCmd.Flags().SortFlags = false

	// Config file
	deployCmd.Flags().String("config", "", "path to config file")

	// Artifact
	deployCmd.Flags().String("artifact", "", "name of the artifact to deploy")

	// Constructor arguments
	deployCmd.Flags().String("args", "", "constructor arguments as JSON, either a list or a single value")

	// Gas ceiling
	deployCmd.Flags().Uint64("gas", 0,
		fmt.Sprintf("gas ceiling of the deployment transaction (unless a config file is provided, default is %d)", defaultConfig.Deployment.GasCeiling))

	// Gas price
	deployCmd.Flags().String("gas-price", "", "gas price in gwei (unless a config file is provided, the network's suggestion is used)")

	// Endpoint
	deployCmd.Flags().String("endpoint", "",
		fmt.Sprintf("JSON-RPC endpoint of the network (unless a config file is provided, default is %q)", defaultConfig.Deployment.Endpoint))

	// Sender
	deployCmd.Flags().String("sender", "", "address of the derived account to deploy from")

	// Confirmation timeout
	deployCmd.Flags().Int("timeout", 0,
		fmt.Sprintf("number of seconds to wait for confirmation (unless a config file is provided, default is %d)", defaultConfig.Deployment.ConfirmationTimeout))

	// Artifact directory
	deployCmd.Flags().String("out-dir", "",
		fmt.Sprintf("directory artifacts are read from (unless a config file is provided, default is %q)", defaultConfig.Compilation.OutputDirectory))

	// Address file
	deployCmd.Flags().String("address-file", "",
		fmt.Sprintf("file the deployed address is recorded in (unless a config file is provided, default is %q)", defaultConfig.Deployment.AddressFile))
	return nil
}

// updateProjectConfigWithDeployFlags will update the given projectConfig with any CLI arguments that were provided to
// the deploy command
func updateProjectConfigWithDeployFlags(cmd *cobra.Command, projectConfig *config.ProjectConfig) error {
	var err error

	// Update the artifact directory if necessary
	err = updateCompilationConfig(cmd, projectConfig)
	if err != nil {
		return err
	}

	// If --artifact was used
	if cmd.Flags().Changed("artifact") {
		projectConfig.Deployment.Artifact, err = cmd.Flags().GetString("artifact")
		if err != nil {
			return err
		}
	}

	// If --args was used
	if cmd.Flags().Changed("args") {
		args, err := cmd.Flags().GetString("args")
		if err != nil {
			return err
		}
		projectConfig.Deployment.ConstructorArgs = json.RawMessage(args)
	}

	// If --gas was used
	if cmd.Flags().Changed("gas") {
		projectConfig.Deployment.GasCeiling, err = cmd.Flags().GetUint64("gas")
		if err != nil {
			return err
		}
	}

	// If --gas-price was used
	if cmd.Flags().Changed("gas-price") {
		projectConfig.Deployment.GasPrice, err = cmd.Flags().GetString("gas-price")
		if err != nil {
			return err
		}
	}

	// If --endpoint was used
	if cmd.Flags().Changed("endpoint") {
		projectConfig.Deployment.Endpoint, err = cmd.Flags().GetString("endpoint")
		if err != nil {
			return err
		}
	}

	// If --sender was used
	if cmd.Flags().Changed("sender") {
		projectConfig.Deployment.Sender, err = cmd.Flags().GetString("sender")
		if err != nil {
			return err
		}
	}

	// If --timeout was used
	if cmd.Flags().Changed("timeout") {
		projectConfig.Deployment.ConfirmationTimeout, err = cmd.Flags().GetInt("timeout")
		if err != nil {
			return err
		}
	}

	// If --address-file was used
	if cmd.Flags().Changed("address-file") {
		projectConfig.Deployment.AddressFile, err = cmd.Flags().GetString("address-file")
		if err != nil {
			return err
		}
	}
	return nil
}
