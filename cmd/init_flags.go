package cmd

import (
	"github.com/crytic/solship/config"
	"github.com/spf13/cobra"
)

// addInitFlags adds the various flags for the init command
func addInitFlags() error {
	// Output path for configuration
	initCmd.Flags().String("out", "", "output path for the new project configuration file")

	// Overwrite without prompting
	initCmd.Flags().Bool("force", false, "overwrite an existing configuration file without prompting")

	// Source and output directories
	initCmd.Flags().String("source-dir", "", "directory of source units to compile")
	initCmd.Flags().String("out-dir", "", "directory artifacts are written to")

	// Endpoint
	initCmd.Flags().String("endpoint", "", "JSON-RPC endpoint of the network")
	return nil
}

// updateProjectConfigWithInitFlags will update the given projectConfig with any CLI arguments that were provided to the init command
func updateProjectConfigWithInitFlags(cmd *cobra.Command, projectConfig *config.ProjectConfig) error {
	// Update the source and output directories if necessary
	err := updateCompilationConfig(cmd, projectConfig)
	if err != nil {
		return err
	}

	// If --endpoint was used
	if cmd.Flags().Changed("endpoint") {
		projectConfig.Deployment.Endpoint, err = cmd.Flags().GetString("endpoint")
		if err != nil {
			return err
		}
	}
	return nil
}
