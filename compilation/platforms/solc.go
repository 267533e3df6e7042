package platforms

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver"
	"github.com/crytic/solship/compilation/types"
	"github.com/crytic/solship/utils"
)

// DefaultSolcBinary is the solc executable used when no explicit path is configured.
const DefaultSolcBinary = "solc"

// minimumStandardJSONVersion is the first solc release that accepts --standard-json.
const minimumStandardJSONVersion = ">= 0.4.11"

// solcVersionExp extracts a semantic version from `solc --version` output.
var solcVersionExp = regexp.MustCompile(`\d+\.\d+\.\d+`)

// GetSolcVersion runs `<binary> --version` and parses the reported compiler version.
func GetSolcVersion(ctx context.Context, binary string) (*semver.Version, error) {
	out, err := exec.CommandContext(ctx, binary, "--version").CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("error while executing %s:\nOUTPUT:\n%s\nERROR: %s", binary, string(out), err.Error())
	}

	versionStr := solcVersionExp.FindString(string(out))
	if versionStr == "" {
		return nil, fmt.Errorf("could not parse solc version using '%s --version'", binary)
	}
	return semver.NewVersion(versionStr)
}

// SolcCompiler compiles source units by feeding solc's standard JSON interface over stdin.
type SolcCompiler struct {
	// Binary is the solc executable to invoke.
	Binary string

	// versionOnce guards version detection, which only needs to happen once per compiler instance.
	versionOnce sync.Once
	version     *semver.Version
	versionErr  error
}

// NewSolcCompiler returns a SolcCompiler invoking the provided binary, or DefaultSolcBinary if it is empty.
func NewSolcCompiler(binary string) *SolcCompiler {
	if binary == "" {
		binary = DefaultSolcBinary
	}
	return &SolcCompiler{Binary: binary}
}

// Platform returns the identifier of the platform.
func (s *SolcCompiler) Platform() string {
	return "solc"
}

// Version returns the version of the configured solc binary. The binary is only queried once.
func (s *SolcCompiler) Version(ctx context.Context) (*semver.Version, error) {
	s.versionOnce.Do(func() {
		s.version, s.versionErr = GetSolcVersion(ctx, s.Binary)
	})
	return s.version, s.versionErr
}

// standardJSONInput is the subset of solc's standard JSON input we populate.
type standardJSONInput struct {
	Language string                        `json:"language"`
	Sources  map[string]standardJSONSource `json:"sources"`
	Settings standardJSONSettings          `json:"settings"`
}

type standardJSONSource struct {
	Content string `json:"content"`
}

type standardJSONSettings struct {
	Optimizer       standardJSONOptimizer          `json:"optimizer"`
	OutputSelection map[string]map[string][]string `json:"outputSelection"`
}

type standardJSONOptimizer struct {
	Enabled bool `json:"enabled"`
	Runs    int  `json:"runs"`
}

// standardJSONOutput is the subset of solc's standard JSON output we consume.
type standardJSONOutput struct {
	Errors []struct {
		Severity         string `json:"severity"`
		Message          string `json:"message"`
		FormattedMessage string `json:"formattedMessage"`
	} `json:"errors"`
	Contracts map[string]map[string]struct {
		Abi json.RawMessage `json:"abi"`
		Evm struct {
			Bytecode struct {
				Object string `json:"object"`
			} `json:"bytecode"`
		} `json:"evm"`
	} `json:"contracts"`
}

// Compile compiles the provided source unit with solc's standard JSON interface.
func (s *SolcCompiler) Compile(ctx context.Context, unit types.SourceUnit, optimize bool) (*types.CompilationResult, error) {
	// Verify the installed compiler understands --standard-json
	version, err := s.Version(ctx)
	if err != nil {
		return nil, err
	}
	constraint, err := semver.NewConstraint(minimumStandardJSONVersion)
	if err != nil {
		return nil, err
	}
	if !constraint.Check(version) {
		return nil, fmt.Errorf("solc %s does not support --standard-json (requires %s)", version, minimumStandardJSONVersion)
	}

	input, err := json.Marshal(standardJSONInput{
		Language: "Solidity",
		Sources:  map[string]standardJSONSource{unit.Name(): {Content: unit.Source}},
		Settings: standardJSONSettings{
			Optimizer: standardJSONOptimizer{Enabled: optimize, Runs: 200},
			OutputSelection: map[string]map[string][]string{
				"*": {"*": {"abi", "evm.bytecode.object"}},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	// solc exits successfully even when the source has errors, those are reported in the output.
	cmd := exec.CommandContext(ctx, s.Binary, "--standard-json")
	cmdStdout, _, cmdCombined, err := utils.RunCommandWithOutputAndError(cmd, input)
	if err != nil {
		return nil, fmt.Errorf("error while executing solc:\n%s\n\nCommand Output:\n%s", err.Error(), string(cmdCombined))
	}
	return ParseStandardJSONOutput(cmdStdout)
}

// ParseStandardJSONOutput converts solc standard JSON output into a CompilationResult. Only diagnostics with "error"
// severity are reported as errors; warnings and informational messages are dropped. Contracts are ordered by source
// path, then contract name.
func ParseStandardJSONOutput(output []byte) (*types.CompilationResult, error) {
	var parsed standardJSONOutput
	if err := json.Unmarshal(output, &parsed); err != nil {
		return nil, fmt.Errorf("could not parse solc output: %v", err)
	}

	result := &types.CompilationResult{}
	for _, diagnostic := range parsed.Errors {
		if !strings.EqualFold(diagnostic.Severity, "error") {
			continue
		}
		message := strings.TrimSpace(diagnostic.FormattedMessage)
		if message == "" {
			message = diagnostic.Message
		}
		result.Errors = append(result.Errors, message)
	}
	if result.HasErrors() {
		return result, nil
	}

	sourcePaths := make([]string, 0, len(parsed.Contracts))
	for sourcePath := range parsed.Contracts {
		sourcePaths = append(sourcePaths, sourcePath)
	}
	sort.Strings(sourcePaths)

	for _, sourcePath := range sourcePaths {
		contracts := parsed.Contracts[sourcePath]
		contractNames := make([]string, 0, len(contracts))
		for contractName := range contracts {
			contractNames = append(contractNames, contractName)
		}
		sort.Strings(contractNames)

		for _, contractName := range contractNames {
			contract := contracts[contractName]
			unitIdentifier := sourcePath + ":" + contractName

			bytecode, err := decodeBytecode(unitIdentifier, contract.Evm.Bytecode.Object)
			if err != nil {
				result.Errors = append(result.Errors, err.Error())
				return result, nil
			}
			result.Contracts = append(result.Contracts, types.CompiledUnitContract{
				UnitIdentifier: unitIdentifier,
				Interface:      contract.Abi,
				Bytecode:       bytecode,
			})
		}
	}
	return result, nil
}

// decodeBytecode decodes compiler hex bytecode. Bytecode which still references unlinked libraries cannot be deployed
// on its own and is reported as an error.
func decodeBytecode(unitIdentifier string, object string) ([]byte, error) {
	if placeholders := types.ParseBytecodeForPlaceholders(object); len(placeholders) > 0 {
		return nil, fmt.Errorf("%s: bytecode requires linking against libraries (%s)", unitIdentifier, strings.Join(placeholders, ", "))
	}
	bytecode, err := hex.DecodeString(strings.TrimPrefix(object, "0x"))
	if err != nil {
		return nil, errors.New(unitIdentifier + ": unable to parse bytecode: " + err.Error())
	}
	return bytecode, nil
}
