package cmd

import (
	"fmt"
	"time"

	"github.com/crytic/solship/cmd/exitcodes"
	"github.com/crytic/solship/ledger"
	"github.com/crytic/solship/logging"
	"github.com/crytic/solship/logging/colors"
	"github.com/crytic/solship/utils"
	"github.com/spf13/cobra"
)

// deploymentsCmd represents the command provider for inspecting the deployment journal
var deploymentsCmd = &cobra.Command{
	Use:               "deployments",
	Short:             "Lists journaled deployment transactions",
	Long:              `Lists every deployment transaction recorded in the deployment journal. With --resolve, the receipt of every transaction whose outcome is unknown is queried once and its outcome recorded.`,
	Args:              cmdValidateNoArgs,
	ValidArgsFunction: cmdValidFlagArgs,
	RunE:              cmdRunDeployments,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	// Prevent alphabetical sorting of usage message
	deploymentsCmd.Flags().SortFlags = false

	// Config file
	deploymentsCmd.Flags().String("config", "", "path to config file")

	// Resolve
	deploymentsCmd.Flags().Bool("resolve", false, "query the network for the outcome of unresolved deployments")

	// Unresolved only
	deploymentsCmd.Flags().Bool("unresolved", false, "only list deployments whose outcome is unknown")

	// Endpoint
	deploymentsCmd.Flags().String("endpoint", "", "JSON-RPC endpoint of the network, used with --resolve")

	// Add the deployments command and its associated flags to the root command
	rootCmd.AddCommand(deploymentsCmd)
}

// cmdRunDeployments executes the CLI deployments command
func cmdRunDeployments(cmd *cobra.Command, args []string) error {
	projectConfig, projectDirectory, err := loadProjectConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("endpoint") {
		projectConfig.Deployment.Endpoint, err = cmd.Flags().GetString("endpoint")
		if err != nil {
			return err
		}
	}
	resolve, err := cmd.Flags().GetBool("resolve")
	if err != nil {
		return err
	}
	unresolvedOnly, err := cmd.Flags().GetBool("unresolved")
	if err != nil {
		return err
	}
	if projectConfig.Deployment.JournalFile == "" {
		return fmt.Errorf("no deployment journal is configured")
	}
	if err = projectConfig.Validate(); err != nil {
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

	if resolve {
		ctx, cancel := interruptibleContext()
		defer cancel()

		deployer, closeDeployer, err := newDeployer(ctx, projectConfig)
		if err != nil {
			return stageError("resolve", exitcodes.ExitCodeDeployError, err)
		}
		resolved, err := deployer.ResolvePending(ctx)
		closeDeployer()
		if err != nil {
			return stageError("resolve", exitcodes.ExitCodeDeployError, err)
		}
		cmdLogger.Info("Resolved ", colors.Bold, len(resolved), colors.Reset, " deployment(s)")
	}

	journal, err := ledger.OpenJournal(projectConfig.Deployment.JournalFile)
	if err != nil {
		return err
	}
	defer journal.Close()
	entries, err := journal.List()
	if err != nil {
		return err
	}
	if unresolvedOnly {
		entries = utils.SliceWhere(entries, func(entry *ledger.JournalEntry) bool {
			return entry.Status.Unresolved()
		})
	}

	if len(entries) == 0 {
		cmdLogger.Info("No deployments have been journaled")
		return nil
	}
	for _, entry := range entries {
		logDeploymentEntry(entry)
	}
	return nil
}

// logDeploymentEntry logs a single journal entry.
func logDeploymentEntry(entry *ledger.JournalEntry) {
	statusColor := colors.YellowBold
	switch entry.Status {
	case ledger.StatusConfirmed:
		statusColor = colors.GreenBold
	case ledger.StatusRejected:
		statusColor = colors.RedBold
	}

	buffer := logging.NewLogBuffer()
	buffer.Append(statusColor, fmt.Sprintf("[%s]", entry.Status), colors.Reset, " ", colors.Bold, entry.Artifact, colors.Reset,
		" chain ", entry.ChainID, " tx ", entry.TxHash, " submitted ", entry.SubmittedAt.Format(time.RFC3339))
	if entry.Address != "" {
		buffer.Append(" at ", colors.Bold, entry.Address, colors.Reset)
	}
	if entry.Reason != "" {
		buffer.Append(" (", entry.Reason, ")")
	}
	cmdLogger.Info(buffer.Args()...)
}
