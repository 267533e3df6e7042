package cmd

import (
	"context"
	"errors"

	"github.com/crytic/solship/artifacts"
	"github.com/crytic/solship/cmd/exitcodes"
	"github.com/crytic/solship/config"
	"github.com/crytic/solship/deployment"
	"github.com/crytic/solship/ledger"
	"github.com/crytic/solship/logging/colors"
	"github.com/crytic/solship/provider"
	"github.com/spf13/cobra"
)

// deployCmd represents the command provider for deployment
var deployCmd = &cobra.Command{
	Use:               "deploy",
	Short:             "Deploys a compiled artifact to a network",
	Long:              `Deploys a compiled artifact to a network from an account derived from a mnemonic, waits for the network to confirm it, and records the address of the created contract.`,
	Args:              cmdValidateNoArgs,
	ValidArgsFunction: cmdValidFlagArgs,
	RunE:              cmdRunDeploy,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	// Add all the flags allowed for the deploy command
	err := addDeployFlags()
	if err != nil {
		cmdLogger.Panic("Failed to initialize the deploy command", err)
	}

	// Add the deploy command and its associated flags to the root command
	rootCmd.AddCommand(deployCmd)
}

// cmdRunDeploy executes the CLI deploy command
func cmdRunDeploy(cmd *cobra.Command, args []string) error {
	projectConfig, projectDirectory, err := loadProjectConfig(cmd)
	if err != nil {
		return err
	}

	// Update the project configuration given whatever flags were set using the CLI
	err = updateProjectConfigWithDeployFlags(cmd, projectConfig)
	if err != nil {
		return err
	}
	if err = projectConfig.Validate(); err != nil {
		return err
	}
	if projectConfig.Deployment.Artifact == "" {
		return errors.New("no artifact to deploy was provided (use --artifact or set deployment.artifact)")
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

	deployer, closeDeployer, err := newDeployer(ctx, projectConfig)
	if err != nil {
		return stageError("deploy", exitcodes.ExitCodeDeployError, err)
	}
	defer closeDeployer()

	// Validation above guarantees these parse
	constructorArgs, _ := projectConfig.Deployment.ConstructorArguments()
	sender, _ := projectConfig.Deployment.SenderAddress()

	result, err := deployer.Deploy(ctx, deployment.Request{
		ArtifactName:    projectConfig.Deployment.Artifact,
		ConstructorArgs: constructorArgs,
		Sender:          sender,
		GasCeiling:      projectConfig.Deployment.GasCeiling,
	})
	if err != nil {
		return stageError("deploy", exitcodes.ExitCodeDeployError, err)
	}

	cmdLogger.Info("Recorded address ", colors.Bold, result.Address.Hex(), colors.Reset, " in ", colors.Bold, projectConfig.Deployment.AddressFile)
	return nil
}

// newDeployer resolves the configured credential and endpoint and creates a deployment.Deployer over the project's
// artifacts. Returns a function which releases the network connection and the journal.
func newDeployer(ctx context.Context, projectConfig *config.ProjectConfig) (*deployment.Deployer, func(), error) {
	deployerConfig, err := projectConfig.Deployment.DeployerConfig()
	if err != nil {
		return nil, nil, err
	}
	resolver, err := provider.NewResolver(projectConfig.Deployment.ResolverConfig(), nil)
	if err != nil {
		return nil, nil, err
	}
	accessContext, err := resolver.Resolve(ctx, projectConfig.Deployment.Mnemonic, projectConfig.Deployment.Endpoint)
	if err != nil {
		return nil, nil, err
	}

	var journal *ledger.Journal
	if projectConfig.Deployment.JournalFile != "" {
		journal, err = ledger.OpenJournal(projectConfig.Deployment.JournalFile)
		if err != nil {
			accessContext.Close()
			return nil, nil, err
		}
	}

	deployer := deployment.NewDeployer(
		accessContext,
		artifacts.NewStore(projectConfig.Compilation.OutputDirectory),
		ledger.NewAddressLedger(projectConfig.Deployment.AddressFile),
		journal,
		deployerConfig,
	)
	closeDeployer := func() {
		if journal != nil {
			if err := journal.Close(); err != nil {
				cmdLogger.Warn("Failed to close the deployment journal", err)
			}
		}
		accessContext.Close()
	}
	return deployer, closeDeployer, nil
}
