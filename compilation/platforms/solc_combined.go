package platforms

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/crytic/medusa-geth/common/compiler"
	"github.com/crytic/solship/compilation/types"
	"github.com/crytic/solship/utils"
)

// solcDiagnosticExp matches the start of a diagnostic in solc's human-readable stderr output, e.g.
// "Error: ...", "ParserError: ..." or "Car.sol:3:5: TypeError: ...".
var solcDiagnosticExp = regexp.MustCompile(`(?m)^(?:[^\s:]+:\d+:\d+: )?(\w*Error|Warning|Info): `)

// SolcCombinedCompiler compiles source units through solc's --combined-json output, parsing the result the same way
// go-ethereum's abigen does.
type SolcCombinedCompiler struct {
	// solc shares version detection with the standard JSON compiler.
	solc *SolcCompiler
}

// NewSolcCombinedCompiler returns a SolcCombinedCompiler invoking the provided binary, or DefaultSolcBinary if it is
// empty.
func NewSolcCombinedCompiler(binary string) *SolcCombinedCompiler {
	return &SolcCombinedCompiler{solc: NewSolcCompiler(binary)}
}

// Platform returns the identifier of the platform.
func (s *SolcCombinedCompiler) Platform() string {
	return "solc-combined"
}

// Compile compiles the provided source unit with `solc --combined-json abi,bin`. solc reads sources from disk in this
// mode, so the unit is written to a temporary directory first, keeping compilation independent of the unit's location.
func (s *SolcCombinedCompiler) Compile(ctx context.Context, unit types.SourceUnit, optimize bool) (*types.CompilationResult, error) {
	version, err := s.solc.Version(ctx)
	if err != nil {
		return nil, err
	}

	tempDir, err := os.MkdirTemp("", "solship-solc-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tempDir)
	sourcePath := filepath.Join(tempDir, unit.Name())
	if err = os.WriteFile(sourcePath, []byte(unit.Source), 0644); err != nil {
		return nil, err
	}

	args := []string{"--combined-json", "abi,bin"}
	if optimize {
		args = append(args, "--optimize")
	}
	args = append(args, unit.Name())
	cmd := exec.CommandContext(ctx, s.solc.Binary, args...)
	cmd.Dir = tempDir
	cmdStdout, cmdStderr, cmdCombined, err := utils.RunCommandWithOutputAndError(cmd, nil)
	if err != nil {
		// A failed run with diagnostics means the source was rejected, anything else is an execution failure.
		if diagnostics := ParseSolcDiagnostics(string(cmdStderr)); len(diagnostics) > 0 {
			return &types.CompilationResult{Errors: diagnostics}, nil
		}
		return nil, fmt.Errorf("error while executing solc:\n%s\n\nCommand Output:\n%s", err.Error(), string(cmdCombined))
	}

	// Parse our contracts from solc output
	contracts, err := compiler.ParseCombinedJSON(cmdStdout, unit.Source, version.String(), version.String(), strings.Join(args, " "))
	if err != nil {
		return nil, err
	}

	unitIdentifiers := make([]string, 0, len(contracts))
	for unitIdentifier := range contracts {
		unitIdentifiers = append(unitIdentifiers, unitIdentifier)
	}
	sort.Strings(unitIdentifiers)

	result := &types.CompilationResult{}
	for _, unitIdentifier := range unitIdentifiers {
		contract := contracts[unitIdentifier]

		// Re-serialize the parsed ABI so it is stored as a list, whichever form this solc version emitted.
		abiJSON, err := json.Marshal(contract.Info.AbiDefinition)
		if err != nil {
			return nil, fmt.Errorf("could not encode interface for '%s': %v", unitIdentifier, err)
		}

		bytecode, err := decodeBytecode(unitIdentifier, contract.Code)
		if err != nil {
			return &types.CompilationResult{Errors: []string{err.Error()}}, nil
		}
		result.Contracts = append(result.Contracts, types.CompiledUnitContract{
			UnitIdentifier: unitIdentifier,
			Interface:      abiJSON,
			Bytecode:       bytecode,
		})
	}
	return result, nil
}

// ParseSolcDiagnostics splits solc's human-readable stderr output into individual error diagnostics, in the order
// they were reported. Warnings are dropped.
func ParseSolcDiagnostics(stderr string) []string {
	locations := solcDiagnosticExp.FindAllStringSubmatchIndex(stderr, -1)
	diagnostics := make([]string, 0, len(locations))
	for i, location := range locations {
		end := len(stderr)
		if i+1 < len(locations) {
			end = locations[i+1][0]
		}
		kind := stderr[location[2]:location[3]]
		if !strings.HasSuffix(kind, "Error") {
			continue
		}
		diagnostics = append(diagnostics, strings.TrimSpace(stderr[location[0]:end]))
	}
	return diagnostics
}
