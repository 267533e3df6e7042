package compilation

import (
	"context"
	"os"
	"path/filepath"

	"github.com/crytic/solship/artifacts"
	"github.com/crytic/solship/compilation/platforms"
	"github.com/crytic/solship/compilation/types"
	"github.com/crytic/solship/events"
	"github.com/crytic/solship/logging"
	"github.com/crytic/solship/logging/colors"
	"github.com/crytic/solship/utils"
	"github.com/pkg/errors"
)

// Orchestrator compiles every source unit of a directory, in order, and persists the resulting artifacts to an
// artifacts.Store.
type Orchestrator struct {
	// config describes the source and output locations as well as compiler options.
	config *CompilationConfig

	// compiler is the platform used to compile each source unit.
	compiler platforms.Compiler

	// store is the artifact store which is reset and written to on every run.
	store *artifacts.Store

	// logger describes the Orchestrator's log object that can be used to log important events
	logger *logging.Logger

	// UnitCompiled emits events after each source unit is compiled, before its result is validated.
	UnitCompiled events.EventEmitter[UnitCompiledEvent]

	// ArtifactPersisted emits events after each artifact is written to the store.
	ArtifactPersisted events.EventEmitter[ArtifactPersistedEvent]
}

// NewOrchestrator creates an Orchestrator for the provided config. If compiler is nil, the platform named in the
// config is used. If store is nil, a store over the configured output directory is used.
func NewOrchestrator(config *CompilationConfig, compiler platforms.Compiler, store *artifacts.Store) (*Orchestrator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if compiler == nil {
		var err error
		if compiler, err = config.NewCompiler(); err != nil {
			return nil, err
		}
	}
	if store == nil {
		store = artifacts.NewStore(config.OutputDirectory)
	} else if contains, err := directoryContains(store.Directory(), config.SourceDirectory); err != nil {
		return nil, err
	} else if contains {
		return nil, errors.Errorf("artifact store directory '%s' must not be or contain the source directory '%s'", store.Directory(), config.SourceDirectory)
	}

	return &Orchestrator{
		config:   config,
		compiler: compiler,
		store:    store,
		logger:   logging.GlobalLogger.NewSubLogger(logging.SERVICE_KEY, logging.COMPILATION_SERVICE),
	}, nil
}

// Store returns the artifact store the Orchestrator writes to.
func (o *Orchestrator) Store() *artifacts.Store {
	return o.store
}

// DiscoverSourceUnits returns the paths of every source unit in the provided directory with the provided extension,
// sorted by file name.
func DiscoverSourceUnits(directory string, extension string) ([]string, error) {
	fileNames, err := utils.ListFilesWithExtension(directory, extension)
	if err != nil {
		return nil, err
	}
	return utils.SliceSelect(fileNames, func(fileName string) string {
		return filepath.Join(directory, fileName)
	}), nil
}

// Run resets the artifact store and compiles every discovered source unit in order, persisting each contract as an
// artifact as soon as its unit compiles. The first unit the compiler rejects aborts the run with a *CompileError;
// artifacts persisted before it are kept. Returns the artifacts persisted during the run, with later artifacts of the
// same name replacing earlier ones.
func (o *Orchestrator) Run(ctx context.Context) ([]types.CompiledArtifact, error) {
	// Take exclusive ownership of the output directory for the full run
	if err := o.store.Lock(); err != nil {
		return nil, err
	}
	defer func() {
		if err := o.store.Unlock(); err != nil {
			o.logger.Warn("Failed to release the artifact store lock", err)
		}
	}()

	if err := o.store.Reset(); err != nil {
		return nil, err
	}

	unitPaths, err := DiscoverSourceUnits(o.config.SourceDirectory, o.config.SourceExtension)
	if err != nil {
		return nil, err
	}
	o.logger.Info("Compiling ", colors.Bold, len(unitPaths), colors.Reset, " source unit(s) from ", colors.Bold,
		o.config.SourceDirectory, colors.Reset, " using ", colors.Bold, o.compiler.Platform())

	// Track persisted artifacts by name so later writes replace earlier ones
	persisted := make([]types.CompiledArtifact, 0)
	persistedIndex := make(map[string]int)

	for _, unitPath := range unitPaths {
		if utils.CheckContextDone(ctx) {
			return nil, ctx.Err()
		}

		source, err := os.ReadFile(unitPath)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		unit := types.SourceUnit{Path: unitPath, Source: string(source)}

		result, err := o.compiler.Compile(ctx, unit, o.config.Optimize)
		if err != nil {
			return nil, errors.Wrapf(err, "could not compile '%s'", unit.Name())
		}
		if err = o.UnitCompiled.Publish(UnitCompiledEvent{Unit: unit, Result: result}); err != nil {
			return nil, err
		}

		if result.HasErrors() {
			o.logger.Error("Failed to compile ", colors.Bold, unit.Name())
			return nil, &CompileError{Unit: unit.Name(), Message: result.FirstError()}
		}
		o.logger.Info("Compiled ", colors.Bold, unit.Name(), colors.Reset, " (", len(result.Contracts), " contract(s))")

		for _, contract := range result.Contracts {
			artifact := contract.Artifact()
			if err = o.store.Put(artifact.Name, artifact); err != nil {
				return nil, err
			}

			if idx, exists := persistedIndex[artifact.Name]; exists {
				o.logger.Warn("Artifact ", colors.Bold, artifact.Name, colors.Reset, " was overwritten by ", colors.Bold, unit.Name())
				persisted[idx] = artifact
			} else {
				persistedIndex[artifact.Name] = len(persisted)
				persisted = append(persisted, artifact)
			}
			o.logArtifact(artifact)

			if err = o.ArtifactPersisted.Publish(ArtifactPersistedEvent{Unit: unit, Artifact: artifact}); err != nil {
				return nil, err
			}
		}
	}

	// Report whether the artifact set changed since the previous run
	if o.config.CacheDirectory != "" {
		NotifyArtifactHashStatus(persisted, o.config.CacheDirectory, o.logger)
	}
	return persisted, nil
}

// logArtifact logs a persisted artifact along with the compiler version embedded in its bytecode, if any.
func (o *Orchestrator) logArtifact(artifact types.CompiledArtifact) {
	info := logging.StructuredLogInfo{"artifact": artifact.Name, "bytecodeSize": len(artifact.Bytecode)}
	if metadata := types.ExtractContractMetadata(artifact.Bytecode); metadata != nil {
		if version := metadata.CompilerVersion(); version != "" {
			info["compilerVersion"] = version
		}
	}
	o.logger.Debug("Persisted artifact ", colors.Bold, artifact.Name, colors.Reset, " to ", o.store.Directory(), info)
}
