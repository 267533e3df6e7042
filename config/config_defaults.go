package config

import (
	"github.com/crytic/solship/compilation"
	"github.com/crytic/solship/deployment"
	"github.com/crytic/solship/ledger"
	"github.com/crytic/solship/provider"
	"github.com/rs/zerolog"
)

// GetDefaultProjectConfig obtains a default configuration for a project. It populates a default compilation config
// based on the provided platform, or a nil one if an empty string is provided.
func GetDefaultProjectConfig(platform string) (*ProjectConfig, error) {
	var (
		compilationConfig *compilation.CompilationConfig
		err               error
	)
	if platform != "" {
		compilationConfig, err = compilation.NewCompilationConfig(platform)
		if err != nil {
			return nil, err
		}
	}

	// Create a project configuration
	projectConfig := &ProjectConfig{
		Compilation: compilationConfig,
		Deployment: DeploymentConfig{
			Endpoint:            "http://127.0.0.1:8545",
			GasCeiling:          1000000,
			ConfirmationTimeout: int(deployment.DefaultConfirmationTimeout.Seconds()),
			PollInterval:        int(deployment.DefaultPollInterval.Seconds()),
			AccountCount:        1,
			DerivationPath:      provider.DefaultDerivationPath,
			AddressFile:         ledger.DefaultAddressLedgerPath,
			JournalFile:         ledger.DefaultJournalPath,
		},
		Logging: LoggingConfig{
			Level:        zerolog.InfoLevel,
			LogDirectory: "",
			NoColor:      false,
		},
	}

	// Return the project configuration
	return projectConfig, nil
}
