package cmd

import (
	"fmt"

	"github.com/crytic/solship/ledger"
	"github.com/spf13/cobra"
)

// addressCmd represents the command provider for reading the recorded address
var addressCmd = &cobra.Command{
	Use:               "address",
	Short:             "Prints the address of the latest confirmed deployment",
	Long:              `Prints the address recorded by the latest confirmed deployment.`,
	Args:              cmdValidateNoArgs,
	ValidArgsFunction: cmdValidFlagArgs,
	RunE:              cmdRunAddress,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	// Config file
	addressCmd.Flags().String("config", "", "path to config file")

	// Address file
	addressCmd.Flags().String("address-file", "", "file the deployed address is recorded in")

	// Add the address command and its associated flags to the root command
	rootCmd.AddCommand(addressCmd)
}

// cmdRunAddress executes the CLI address command
func cmdRunAddress(cmd *cobra.Command, args []string) error {
	projectConfig, projectDirectory, err := loadProjectConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("address-file") {
		projectConfig.Deployment.AddressFile, err = cmd.Flags().GetString("address-file")
		if err != nil {
			return err
		}
	}
	if err = enterProjectDirectory(projectDirectory); err != nil {
		return err
	}

	address, err := ledger.NewAddressLedger(projectConfig.Deployment.AddressFile).Read()
	if err != nil {
		return err
	}
	fmt.Println(address)
	return nil
}
