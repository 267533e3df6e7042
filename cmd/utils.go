package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/crytic/solship/cmd/exitcodes"
	"github.com/crytic/solship/config"
	"github.com/crytic/solship/logging"
	"github.com/crytic/solship/logging/colors"
	"github.com/crytic/solship/utils"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// cmdValidFlagArgs will return which flags are valid for dynamic completion for a command that takes no positional
// arguments
func cmdValidFlagArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	// Gather a list of flags that are available to be used in the current command but have not been used yet
	var unusedFlags []string

	// Examine all the flags, and add any flags that have not been set in the current command line
	// to a list of unused flags
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		if !flag.Changed {
			// Include the "--" prefix to indicate that it is a flag and not a positional argument
			unusedFlags = append(unusedFlags, "--"+flag.Name)
		}
	})
	return unusedFlags, cobra.ShellCompDirectiveNoFileComp
}

// cmdValidateNoArgs makes sure that there are no positional arguments provided to a command
func cmdValidateNoArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return fmt.Errorf("%s does not accept any positional arguments, only flags and their associated values", cmd.Name())
	}
	return nil
}

// loadProjectConfig obtains the project configuration for a command and navigates through the following possibilities:
// #1: We will search for either a custom config file (via --config) or the default (solship.json).
// If we find it, read it. If we can't read it, throw an error.
// #2: If a custom file was provided (--config was used), and we can't find the file, throw an error.
// #3: If solship.json can't be found, use the default project configuration.
// Values from the environment are applied on top. Returns the project configuration and the path of the directory
// relative paths in it are resolved against.
func loadProjectConfig(cmd *cobra.Command) (*config.ProjectConfig, string, error) {
	var projectConfig *config.ProjectConfig

	// Check to see if --config flag was used and store the value of --config flag
	configFlagUsed := cmd.Flags().Changed("config")
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, "", err
	}

	// If --config was not used, look for `solship.json` in the current work directory
	if !configFlagUsed {
		workingDirectory, err := os.Getwd()
		if err != nil {
			return nil, "", errors.WithStack(err)
		}
		configPath = filepath.Join(workingDirectory, DefaultProjectConfigFilename)
	}

	// Check to see if the file exists at configPath
	_, existenceError := os.Stat(configPath)

	// Possibility #1: File was found
	if existenceError == nil {
		cmdLogger.Info("Reading the configuration file at: ", colors.Bold, configPath, colors.Reset)
		projectConfig, err = config.ReadProjectConfigFromFile(configPath, DefaultCompilationPlatform)
		if err != nil {
			return nil, "", err
		}
	}

	// Possibility #2: If the --config flag was used, and we couldn't find the file, we'll throw an error
	if configFlagUsed && existenceError != nil {
		return nil, "", fmt.Errorf("could not find the config file at %s: %v", configPath, existenceError)
	}

	// Possibility #3: --config flag was not used and solship.json was not found, so use the default project config
	if !configFlagUsed && existenceError != nil {
		cmdLogger.Warn(fmt.Sprintf("Unable to find the config file at %v, will use the default project configuration for the "+
			"%v compilation platform instead", configPath, DefaultCompilationPlatform))

		projectConfig, err = config.GetDefaultProjectConfig(DefaultCompilationPlatform)
		if err != nil {
			return nil, "", err
		}
	}

	projectConfig.ApplyEnvironment()
	return projectConfig, filepath.Dir(configPath), nil
}

// enterProjectDirectory changes the working directory to the directory of the project configuration file, since the
// paths in it are relative to wherever the configuration is supplied from.
func enterProjectDirectory(projectDirectory string) error {
	return errors.WithStack(os.Chdir(projectDirectory))
}

// setupLogging replaces the global logger with one configured by the project configuration, writing to the console
// and, if a log directory is configured, to a structured log file. Returns a function which closes the log file.
func setupLogging(projectConfig *config.ProjectConfig) (func(), error) {
	logging.GlobalLogger = logging.NewLogger(projectConfig.Logging.Level)
	logging.GlobalLogger.EnableConsole(os.Stdout, projectConfig.Logging.NoColor)
	cmdLogger = logging.GlobalLogger.NewSubLogger(logging.SERVICE_KEY, logging.CLI_SERVICE)

	if projectConfig.Logging.LogDirectory == "" {
		return func() {}, nil
	}
	if err := utils.MakeDirectory(projectConfig.Logging.LogDirectory); err != nil {
		return nil, err
	}
	fileName := fmt.Sprintf("solship-%s.log", time.Now().Format("20060102-150405"))
	file, err := os.Create(filepath.Join(projectConfig.Logging.LogDirectory, fileName))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	logging.GlobalLogger.AddWriter(file, logging.STRUCTURED)
	cmdLogger = logging.GlobalLogger.NewSubLogger(logging.SERVICE_KEY, logging.CLI_SERVICE)
	return func() {
		_ = file.Close()
	}, nil
}

// interruptibleContext returns a context which is cancelled on keyboard interrupts.
func interruptibleContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// stageError wraps an error with the name of the stage it occurred in and the exit code the application should exit
// with.
func stageError(stage string, exitCode int, err error) error {
	return exitcodes.NewErrorWithExitCode(fmt.Errorf("%s stage failed: %w", stage, err), exitCode)
}
