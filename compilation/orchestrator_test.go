package compilation

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/crytic/solship/artifacts"
	"github.com/crytic/solship/utils/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestOrchestrator creates an Orchestrator using a FakeCompiler over the provided source directory, writing to an
// output directory next to it.
func newTestOrchestrator(t *testing.T, sourceDirectory string) (*Orchestrator, *testutils.FakeCompiler) {
	config, err := NewCompilationConfig("solc")
	require.NoError(t, err)
	config.SourceDirectory = sourceDirectory
	config.OutputDirectory = filepath.Join(filepath.Dir(sourceDirectory), "compiled")
	config.CacheDirectory = filepath.Join(filepath.Dir(sourceDirectory), ".solship")

	compiler := &testutils.FakeCompiler{}
	orchestrator, err := NewOrchestrator(config, compiler, nil)
	require.NoError(t, err)
	return orchestrator, compiler
}

// TestRunCompilesAllUnits compiles two defect-free units and expects exactly one record for each.
func TestRunCompilesAllUnits(t *testing.T) {
	sourceDirectory := testutils.WriteTestSources(t, map[string]string{
		"B.sol":     "contract B { constructor(uint256 wheels) {} }",
		"A.sol":     "contract A { constructor(string memory _brand) {} }",
		"notes.txt": "contract Ignored {}",
	})
	orchestrator, compiler := newTestOrchestrator(t, sourceDirectory)

	compiled, err := orchestrator.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, compiled, 2)
	assert.Equal(t, "A", compiled[0].Name)
	assert.Equal(t, "B", compiled[1].Name)
	assert.Equal(t, []string{"A.sol", "B.sol"}, compiler.Compiled())

	names, err := orchestrator.Store().List()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, names)

	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(orchestrator.Store().Directory(), name+".json"))
		require.NoError(t, err)

		var record map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(b, &record))
		assert.Len(t, record, 2)

		var iface []any
		require.NoError(t, json.Unmarshal(record["interface"], &iface))
		assert.NotEmpty(t, iface)

		var bytecode string
		require.NoError(t, json.Unmarshal(record["bytecode"], &bytecode))
		assert.NotEmpty(t, bytecode)
	}
}

// TestNewOrchestratorProtectsSources checks an output location overlapping the source directory is refused before
// anything is reset.
func TestNewOrchestratorProtectsSources(t *testing.T) {
	sourceDirectory := testutils.WriteTestSources(t, map[string]string{
		"A.sol": "contract A {}",
	})

	config, err := NewCompilationConfig("solc")
	require.NoError(t, err)
	config.SourceDirectory = sourceDirectory
	config.OutputDirectory = sourceDirectory
	_, err = NewOrchestrator(config, &testutils.FakeCompiler{}, nil)
	assert.Error(t, err)

	config.OutputDirectory = filepath.Join(filepath.Dir(sourceDirectory), "compiled")
	_, err = NewOrchestrator(config, &testutils.FakeCompiler{}, artifacts.NewStore(filepath.Dir(sourceDirectory)))
	assert.Error(t, err)

	assert.FileExists(t, filepath.Join(sourceDirectory, "A.sol"))
}

// TestRunIsDeterministic runs compilation twice over unchanged sources and expects byte-identical records.
func TestRunIsDeterministic(t *testing.T) {
	sourceDirectory := testutils.WriteTestSources(t, map[string]string{
		"A.sol": "contract A { constructor(string memory _brand) {} }",
		"B.sol": "contract B {} contract C {}",
	})
	orchestrator, _ := newTestOrchestrator(t, sourceDirectory)

	readRecords := func() map[string][]byte {
		records := make(map[string][]byte)
		names, err := orchestrator.Store().List()
		require.NoError(t, err)
		for _, name := range names {
			b, err := os.ReadFile(filepath.Join(orchestrator.Store().Directory(), name+".json"))
			require.NoError(t, err)
			records[name] = b
		}
		return records
	}

	_, err := orchestrator.Run(context.Background())
	require.NoError(t, err)
	first := readRecords()

	_, err = orchestrator.Run(context.Background())
	require.NoError(t, err)
	second := readRecords()

	assert.Len(t, first, 3)
	assert.Equal(t, first, second)

	// The second run is reported as an unchanged artifact set
	cache := LoadArtifactHashCache(orchestrator.config.CacheDirectory)
	require.NotNil(t, cache)
	assert.Equal(t, 3, cache.ArtifactCount)
}

// TestRunResetsOutput checks artifacts of a removed source unit do not survive the next run.
func TestRunResetsOutput(t *testing.T) {
	sourceDirectory := testutils.WriteTestSources(t, map[string]string{
		"A.sol":    "contract A {}",
		"Gone.sol": "contract Gone {}",
	})
	orchestrator, _ := newTestOrchestrator(t, sourceDirectory)

	_, err := orchestrator.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(sourceDirectory, "Gone.sol")))

	// Observe the output directory as the first unit of the second run is compiled
	orchestrator.UnitCompiled.Subscribe(func(event UnitCompiledEvent) error {
		names, err := orchestrator.Store().List()
		require.NoError(t, err)
		assert.Empty(t, names)
		return nil
	})

	_, err = orchestrator.Run(context.Background())
	require.NoError(t, err)
	names, err := orchestrator.Store().List()
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, names)
}

// TestRunStopsAtFirstError checks a syntax defect aborts the run with the first compiler error, keeping the artifacts
// of earlier units and never compiling later ones.
func TestRunStopsAtFirstError(t *testing.T) {
	sourceDirectory := testutils.WriteTestSources(t, map[string]string{
		"A.sol": "contract A {}",
		"B.sol": "contract B {\n  uint x @@\n}",
		"C.sol": "contract C {}",
	})
	orchestrator, compiler := newTestOrchestrator(t, sourceDirectory)

	compiled, err := orchestrator.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, compiled)

	var compileErr *CompileError
	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, "B.sol", compileErr.Unit)
	assert.Equal(t, "B.sol:2: ParserError: Expected ';' but got '@@'", compileErr.Message)
	assert.Contains(t, err.Error(), "B.sol")

	assert.Equal(t, []string{"A.sol", "B.sol"}, compiler.Compiled())
	names, err := orchestrator.Store().List()
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, names)
}

// TestRunStripsNamespace checks artifacts are named after the unit identifier without its prefix, and that a later
// unit declaring the same contract overwrites the earlier artifact.
func TestRunStripsNamespace(t *testing.T) {
	sourceDirectory := testutils.WriteTestSources(t, map[string]string{
		"A.sol": "contract Shared {}",
		"B.sol": "contract Shared { constructor(bool flag) {} }",
	})
	orchestrator, _ := newTestOrchestrator(t, sourceDirectory)

	var persisted []string
	orchestrator.ArtifactPersisted.Subscribe(func(event ArtifactPersistedEvent) error {
		persisted = append(persisted, event.Unit.Name()+"/"+event.Artifact.Name)
		return nil
	})

	compiled, err := orchestrator.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, compiled, 1)
	assert.Equal(t, []string{"A.sol/Shared", "B.sol/Shared"}, persisted)

	artifact, err := orchestrator.Store().Get("Shared")
	require.NoError(t, err)
	assert.Contains(t, string(artifact.Interface), "flag")
	assert.Equal(t, compiled[0].Bytecode, artifact.Bytecode)
}

// TestRunStoreBusy checks a run fails fast while another run holds the output directory.
func TestRunStoreBusy(t *testing.T) {
	sourceDirectory := testutils.WriteTestSources(t, map[string]string{"A.sol": "contract A {}"})
	orchestrator, compiler := newTestOrchestrator(t, sourceDirectory)

	other := artifacts.NewStore(orchestrator.Store().Directory())
	require.NoError(t, other.Lock())
	defer other.Unlock()

	_, err := orchestrator.Run(context.Background())
	assert.ErrorIs(t, err, artifacts.ErrStoreBusy)
	assert.Empty(t, compiler.Compiled())
}

// TestRunCancelled checks a cancelled context stops the run before any unit is compiled.
func TestRunCancelled(t *testing.T) {
	sourceDirectory := testutils.WriteTestSources(t, map[string]string{"A.sol": "contract A {}"})
	orchestrator, compiler := newTestOrchestrator(t, sourceDirectory)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := orchestrator.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, compiler.Compiled())
}

// TestCompilationConfigValidate checks invalid configurations are rejected.
func TestCompilationConfigValidate(t *testing.T) {
	_, err := NewCompilationConfig("unknown")
	assert.Error(t, err)

	config, err := NewCompilationConfig("solc-combined")
	require.NoError(t, err)
	require.NoError(t, config.Validate())

	compiler, err := config.NewCompiler()
	require.NoError(t, err)
	assert.Equal(t, "solc-combined", compiler.Platform())

	config.SourceExtension = "sol"
	assert.Error(t, config.Validate())

	config.SourceExtension = ".sol"
	config.OutputDirectory = ""
	assert.Error(t, config.Validate())

	config.OutputDirectory = "compiled"
	config.Platform = "truffle"
	assert.Error(t, config.Validate())

	// Resetting the output directory must never reach the source units
	config.Platform = "solc"
	config.SourceDirectory = "contracts"
	for _, outputDirectory := range []string{"contracts", "./contracts/", ".", "..", filepath.Join("contracts", "..")} {
		config.OutputDirectory = outputDirectory
		assert.Error(t, config.Validate(), outputDirectory)
	}
	for _, outputDirectory := range []string{"build", filepath.Join("contracts", "build"), "contracts-build"} {
		config.OutputDirectory = outputDirectory
		assert.NoError(t, config.Validate(), outputDirectory)
	}
}

// TestSupportedPlatforms checks the registered platforms are listed in order.
func TestSupportedPlatforms(t *testing.T) {
	assert.Equal(t, []string{"solc", "solc-combined"}, GetSupportedCompilationPlatforms())
	assert.True(t, IsSupportedCompilationPlatform("solc"))
	assert.False(t, IsSupportedCompilationPlatform("hardhat"))
}
