package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/crytic/solship/compilation"
	"github.com/crytic/solship/config"
	"github.com/spf13/cobra"
)

// errNoCompilationConfig is returned when a project configuration file does not describe how to compile.
var errNoCompilationConfig = errors.New("the project configuration does not specify a compilation configuration")

// addCompileFlags adds the various flags for the compile command
func addCompileFlags() error {
	// Get the default project config and throw an error if we cant
	defaultConfig, err := config.GetDefaultProjectConfig(DefaultCompilationPlatform)
	if err != nil {
		return err
	}

	// Prevent alphabetical sorting of usage message
	compileCmd.Flags().SortFlags = false

	// Config file
	compileCmd.Flags().String("config", "", "path to config file")

	// Compilation flags shared with other commands
	addCompilationFlags(compileCmd, defaultConfig)
	return nil
}

// addCompilationFlags adds the flags which override the compilation configuration to the provided command
func addCompilationFlags(cmd *cobra.Command, defaultConfig *config.ProjectConfig) {
	// Source directory
	cmd.Flags().String("source-dir", "",
		fmt.Sprintf("directory of source units to compile (unless a config file is provided, default is %q)", defaultConfig.Compilation.SourceDirectory))

	// Output directory
	cmd.Flags().String("out-dir", "",
		fmt.Sprintf("directory artifacts are written to and read from (unless a config file is provided, default is %q)", defaultConfig.Compilation.OutputDirectory))

	// Platform
	cmd.Flags().String("platform", "",
		fmt.Sprintf("compilation platform, one of %s (unless a config file is provided, default is %q)",
			strings.Join(compilation.GetSupportedCompilationPlatforms(), ", "), defaultConfig.Compilation.Platform))

	// Optimizer
	cmd.Flags().Bool("optimize", false,
		fmt.Sprintf("enable the compiler optimizer (unless a config file is provided, default is %t)", defaultConfig.Compilation.Optimize))

	// Compiler binary
	cmd.Flags().String("compiler", "", "path of the compiler executable")
}

// updateProjectConfigWithCompileFlags will update the given projectConfig with any CLI arguments that were provided to
// the compile command
func updateProjectConfigWithCompileFlags(cmd *cobra.Command, projectConfig *config.ProjectConfig) error {
	return updateCompilationConfig(cmd, projectConfig)
}

// updateCompilationConfig will update the compilation configuration in the projectConfig with any compilation flags
// that were used in the command
func updateCompilationConfig(cmd *cobra.Command, projectConfig *config.ProjectConfig) error {
	if projectConfig.Compilation == nil {
		return nil
	}
	var err error

	// If --source-dir was used
	if cmd.Flags().Changed("source-dir") {
		projectConfig.Compilation.SourceDirectory, err = cmd.Flags().GetString("source-dir")
		if err != nil {
			return err
		}
	}

	// If --out-dir was used
	if cmd.Flags().Changed("out-dir") {
		projectConfig.Compilation.OutputDirectory, err = cmd.Flags().GetString("out-dir")
		if err != nil {
			return err
		}
	}

	// If --platform was used
	if cmd.Flags().Changed("platform") {
		projectConfig.Compilation.Platform, err = cmd.Flags().GetString("platform")
		if err != nil {
			return err
		}
	}

	// If --optimize was used
	if cmd.Flags().Changed("optimize") {
		projectConfig.Compilation.Optimize, err = cmd.Flags().GetBool("optimize")
		if err != nil {
			return err
		}
	}

	// If --compiler was used
	if cmd.Flags().Changed("compiler") {
		projectConfig.Compilation.CompilerBinary, err = cmd.Flags().GetString("compiler")
		if err != nil {
			return err
		}
	}
	return nil
}
