package platforms

import (
	"context"
	"os/exec"
	"testing"

	"github.com/crytic/solship/compilation/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const simpleContractSource = `// SPDX-License-Identifier: MIT
pragma solidity >=0.5.0;

contract Car {
    string public brand;

    constructor(string memory _brand) public {
        brand = _brand;
    }

    function setBrand(string memory _brand) public {
        brand = _brand;
    }
}`

// requireSolc skips the calling test if solc is not installed.
func requireSolc(t *testing.T) {
	if _, err := exec.LookPath(DefaultSolcBinary); err != nil {
		t.Skip("solc is not installed")
	}
}

// TestParseStandardJSONOutput checks contracts are extracted in a deterministic order when there are no errors.
func TestParseStandardJSONOutput(t *testing.T) {
	output := `{
		"errors": [{"severity": "warning", "message": "unused variable", "formattedMessage": "Warning: unused variable"}],
		"contracts": {
			"Car.sol": {
				"Wheel": {"abi": [], "evm": {"bytecode": {"object": "6001"}}},
				"Car": {"abi": [{"type": "constructor", "inputs": []}], "evm": {"bytecode": {"object": "6080"}}}
			}
		}
	}`

	result, err := ParseStandardJSONOutput([]byte(output))
	require.NoError(t, err)
	assert.False(t, result.HasErrors())
	require.Len(t, result.Contracts, 2)
	assert.Equal(t, "Car.sol:Car", result.Contracts[0].UnitIdentifier)
	assert.Equal(t, []byte{0x60, 0x80}, result.Contracts[0].Bytecode)
	assert.Equal(t, "Car.sol:Wheel", result.Contracts[1].UnitIdentifier)
}

// TestParseStandardJSONOutputErrors checks that errors are reported in order and suppress contract output.
func TestParseStandardJSONOutputErrors(t *testing.T) {
	output := `{
		"errors": [
			{"severity": "warning", "message": "w", "formattedMessage": "Warning: w"},
			{"severity": "error", "message": "Expected ';'", "formattedMessage": "ParserError: Expected ';' but got '}'\n"},
			{"severity": "error", "message": "second"}
		],
		"contracts": {}
	}`

	result, err := ParseStandardJSONOutput([]byte(output))
	require.NoError(t, err)
	assert.Equal(t, []string{"ParserError: Expected ';' but got '}'", "second"}, result.Errors)
	assert.Empty(t, result.Contracts)

	_, err = ParseStandardJSONOutput([]byte("not json"))
	assert.Error(t, err)
}

// TestParseStandardJSONOutputUnlinked checks bytecode needing library linking is reported as an error.
func TestParseStandardJSONOutputUnlinked(t *testing.T) {
	output := `{"contracts": {"Car.sol": {"Car": {"abi": [], "evm": {"bytecode": {"object": "6080__$abcdef$__6040"}}}}}}`

	result, err := ParseStandardJSONOutput([]byte(output))
	require.NoError(t, err)
	require.True(t, result.HasErrors())
	assert.Contains(t, result.FirstError(), "Car.sol:Car")
	assert.Contains(t, result.FirstError(), "abcdef")
}

// TestParseSolcDiagnostics checks human-readable solc stderr is split into error diagnostics.
func TestParseSolcDiagnostics(t *testing.T) {
	stderr := "Warning: This is a pre-release compiler version.\n" +
		"Car.sol:4:1: ParserError: Expected pragma, import directive or contract/interface/library definition.\n" +
		"contrat Car {\n^-----^\n" +
		"Car.sol:9:5: TypeError: Undeclared identifier.\n"

	diagnostics := ParseSolcDiagnostics(stderr)
	require.Len(t, diagnostics, 2)
	assert.Contains(t, diagnostics[0], "ParserError: Expected pragma")
	assert.Contains(t, diagnostics[0], "contrat Car {")
	assert.Equal(t, "Car.sol:9:5: TypeError: Undeclared identifier.", diagnostics[1])
}

// TestSolcCompilation compiles a real contract with both solc platforms if solc is installed.
func TestSolcCompilation(t *testing.T) {
	requireSolc(t)
	unit := types.SourceUnit{Path: "Car.sol", Source: simpleContractSource}

	for _, compiler := range []Compiler{NewSolcCompiler(""), NewSolcCombinedCompiler("")} {
		result, err := compiler.Compile(context.Background(), unit, true)
		require.NoError(t, err, compiler.Platform())
		require.False(t, result.HasErrors(), result.FirstError())
		require.Len(t, result.Contracts, 1)

		artifact := result.Contracts[0].Artifact()
		assert.Equal(t, "Car", artifact.Name)
		assert.NotEmpty(t, artifact.Bytecode)
		_, err = artifact.ParseABI()
		assert.NoError(t, err)
	}
}

// TestSolcCompilationError ensures a syntax defect is reported as a compiler error rather than an execution failure.
func TestSolcCompilationError(t *testing.T) {
	requireSolc(t)
	unit := types.SourceUnit{Path: "Broken.sol", Source: "contrat Broken {}"}

	for _, compiler := range []Compiler{NewSolcCompiler(""), NewSolcCombinedCompiler("")} {
		result, err := compiler.Compile(context.Background(), unit, false)
		require.NoError(t, err, compiler.Platform())
		assert.True(t, result.HasErrors(), compiler.Platform())
		assert.Contains(t, result.FirstError(), "Error")
	}
}
