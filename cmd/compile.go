package cmd

import (
	"github.com/crytic/solship/cmd/exitcodes"
	"github.com/crytic/solship/compilation"
	"github.com/crytic/solship/logging/colors"
	"github.com/spf13/cobra"
)

// compileCmd represents the command provider for compilation
var compileCmd = &cobra.Command{
	Use:               "compile",
	Short:             "Compiles every source unit of the project into artifacts",
	Long:              `Compiles every source unit of the project's source directory, in order, replacing the contents of the output directory with one artifact per contract. Compilation stops at the first unit which fails to compile.`,
	Args:              cmdValidateNoArgs,
	ValidArgsFunction: cmdValidFlagArgs,
	RunE:              cmdRunCompile,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	// Add all the flags allowed for the compile command
	err := addCompileFlags()
	if err != nil {
		cmdLogger.Panic("Failed to initialize the compile command", err)
	}

	// Add the compile command and its associated flags to the root command
	rootCmd.AddCommand(compileCmd)
}

// cmdRunCompile executes the CLI compile command
func cmdRunCompile(cmd *cobra.Command, args []string) error {
	projectConfig, projectDirectory, err := loadProjectConfig(cmd)
	if err != nil {
		return err
	}

	// Update the project configuration given whatever flags were set using the CLI
	err = updateProjectConfigWithCompileFlags(cmd, projectConfig)
	if err != nil {
		return err
	}
	if projectConfig.Compilation == nil {
		return stageError("compile", exitcodes.ExitCodeCompileError, errNoCompilationConfig)
	}
	if err = projectConfig.Compilation.Validate(); err != nil {
		return err
	}

	if err = enterProjectDirectory(projectDirectory); err != nil {
		return err
	}
	closeLogs, err := setupLogging(projectConfig)
	if err != nil {
		return err
	}
	defer closeLogs()

	ctx, cancel := interruptibleContext()
	defer cancel()

	orchestrator, err := compilation.NewOrchestrator(projectConfig.Compilation, nil, nil)
	if err != nil {
		return stageError("compile", exitcodes.ExitCodeCompileError, err)
	}
	compiled, err := orchestrator.Run(ctx)
	if err != nil {
		return stageError("compile", exitcodes.ExitCodeCompileError, err)
	}

	cmdLogger.Info("Wrote ", colors.Bold, len(compiled), colors.Reset, " artifact(s) to ", colors.Bold, orchestrator.Store().Directory())
	return nil
}
