package testutils

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/crytic/solship/compilation/types"
)

// FakeSyntaxDefect is the marker FakeCompiler treats as a syntax error when it appears in a source unit.
const FakeSyntaxDefect = "@@"

var (
	fakeContractExp    = regexp.MustCompile(`contract\s+(\w+)`)
	fakeConstructorExp = regexp.MustCompile(`constructor\s*\(([^)]*)\)`)
)

// FakeCompiler is a deterministic stand-in for solc. It reports one contract per `contract <Name>` declaration, with
// an interface holding the constructor declared in the unit (if any), and rejects any unit containing
// FakeSyntaxDefect.
type FakeCompiler struct {
	// compiled records the file names of every unit compiled, in order.
	compiled []string

	// compiledLock provides thread synchronization when accessing compiled.
	compiledLock sync.Mutex
}

// Platform returns the identifier of the platform.
func (f *FakeCompiler) Platform() string {
	return "fake"
}

// Compiled returns the file names of every unit compiled so far, in the order they were compiled.
func (f *FakeCompiler) Compiled() []string {
	f.compiledLock.Lock()
	defer f.compiledLock.Unlock()
	return append([]string(nil), f.compiled...)
}

// Compile compiles the provided source unit.
func (f *FakeCompiler) Compile(ctx context.Context, unit types.SourceUnit, optimize bool) (*types.CompilationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.compiledLock.Lock()
	f.compiled = append(f.compiled, unit.Name())
	f.compiledLock.Unlock()

	// Report two errors so callers can verify only the first is surfaced
	if idx := strings.Index(unit.Source, FakeSyntaxDefect); idx >= 0 {
		line := strings.Count(unit.Source[:idx], "\n") + 1
		return &types.CompilationResult{Errors: []string{
			fmt.Sprintf("%s:%d: ParserError: Expected ';' but got '%s'", unit.Name(), line, FakeSyntaxDefect),
			fmt.Sprintf("%s: Error: compilation aborted", unit.Name()),
		}}, nil
	}

	iface, err := fakeInterface(unit.Source)
	if err != nil {
		return &types.CompilationResult{Errors: []string{fmt.Sprintf("%s: TypeError: %v", unit.Name(), err)}}, nil
	}

	result := &types.CompilationResult{}
	for _, match := range fakeContractExp.FindAllStringSubmatch(unit.Source, -1) {
		result.Contracts = append(result.Contracts, types.CompiledUnitContract{
			UnitIdentifier: ":" + match[1],
			Interface:      iface,
			Bytecode:       FakeBytecode(match[1], unit.Source, optimize),
		})
	}
	return result, nil
}

// FakeBytecode returns the deterministic bytecode FakeCompiler emits for a contract.
func FakeBytecode(contractName string, source string, optimize bool) []byte {
	digest := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%t", contractName, source, optimize)))
	return append([]byte{0x60, 0x80, 0x60, 0x40, 0x52}, digest[:]...)
}

// fakeInterface builds an interface list holding the constructor declared in source, e.g.
// `constructor(string memory _brand, uint256 wheels)`. Sources without a constructor get an empty list.
func fakeInterface(source string) (json.RawMessage, error) {
	type abiArgument struct {
		InternalType string `json:"internalType"`
		Name         string `json:"name"`
		Type         string `json:"type"`
	}
	type abiConstructor struct {
		Inputs          []abiArgument `json:"inputs"`
		StateMutability string        `json:"stateMutability"`
		Type            string        `json:"type"`
	}

	match := fakeConstructorExp.FindStringSubmatch(source)
	if match == nil {
		return json.RawMessage(`[]`), nil
	}

	constructor := abiConstructor{Inputs: []abiArgument{}, StateMutability: "nonpayable", Type: "constructor"}
	for _, param := range strings.Split(match[1], ",") {
		fields := strings.Fields(param)
		if len(fields) == 0 {
			continue
		}
		argument := abiArgument{InternalType: fields[0], Type: fields[0]}
		if len(fields) > 1 {
			argument.Name = fields[len(fields)-1]
		}
		if argument.Name == "memory" || argument.Name == "calldata" {
			return nil, fmt.Errorf("constructor parameter '%s' is missing a name", strings.TrimSpace(param))
		}
		constructor.Inputs = append(constructor.Inputs, argument)
	}

	b, err := json.Marshal([]abiConstructor{constructor})
	if err != nil {
		return nil, err
	}
	return b, nil
}
