package cmd

import (
	"os"

	"github.com/crytic/solship/logging"
	"github.com/crytic/solship/version"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// rootCmd represents the root CLI command object which all other commands stem from.
var rootCmd = &cobra.Command{
	Use:     "solship",
	Short:   "A Solidity build and deployment tool",
	Long:    "solship compiles a directory of Solidity sources into artifacts and deploys them to an EVM network",
	Version: version.GetInfo().Short(),
}

// cmdLogger is the logger that will be used for the cmd package. It is replaced once a command has loaded its
// project configuration.
var cmdLogger = newCmdLogger(zerolog.InfoLevel, false)

// newCmdLogger creates a console logger for the cmd package.
func newCmdLogger(level zerolog.Level, noColor bool) *logging.Logger {
	logger := logging.NewLogger(level).NewSubLogger(logging.SERVICE_KEY, logging.CLI_SERVICE)
	logger.EnableConsole(os.Stdout, noColor)
	return logger
}

// Execute provides an exportable function to invoke the CLI. Returns an error if one was encountered.
func Execute() error {
	return rootCmd.Execute()
}
