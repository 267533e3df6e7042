package types

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/crytic/medusa-geth/accounts/abi"
	"golang.org/x/exp/slices"
)

// CompiledArtifact represents a compiled contract ready to be persisted and deployed.
type CompiledArtifact struct {
	// Name describes the artifact name, which is the compiler's unit identifier without its namespace prefix.
	Name string

	// Interface describes the contract's application binary interface: an ordered list of constructor, function,
	// event and error descriptors, kept as raw JSON so compiler ordering is preserved.
	Interface json.RawMessage

	// Bytecode describes the bytecode used to deploy the contract.
	Bytecode []byte
}

// artifactFile is the persisted layout of a CompiledArtifact.
type artifactFile struct {
	Interface json.RawMessage `json:"interface"`
	Bytecode  string          `json:"bytecode"`
}

// MarshalJSON encodes the artifact into its persisted layout: the interface list and the hex-encoded bytecode.
// Equal artifacts always produce identical bytes.
func (a CompiledArtifact) MarshalJSON() ([]byte, error) {
	// Compact the interface so whitespace differences in compiler output do not leak into the record.
	var compacted bytes.Buffer
	if len(a.Interface) == 0 {
		compacted.WriteString("[]")
	} else if err := json.Compact(&compacted, a.Interface); err != nil {
		return nil, fmt.Errorf("invalid interface for artifact '%s': %v", a.Name, err)
	}

	return json.Marshal(artifactFile{
		Interface: compacted.Bytes(),
		Bytecode:  hex.EncodeToString(a.Bytecode),
	})
}

// UnmarshalJSON decodes the persisted layout. For compatibility with older toolchains, an interface stored as a JSON
// string containing the ABI, and bytecode with a "0x" prefix, are also accepted. The artifact name is not part of the
// record and is left untouched.
func (a *CompiledArtifact) UnmarshalJSON(b []byte) error {
	var file artifactFile
	if err := json.Unmarshal(b, &file); err != nil {
		return err
	}

	// Unwrap an interface which was stored as a string
	iface := file.Interface
	if trimmed := bytes.TrimSpace(iface); len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		iface = json.RawMessage(s)
	}

	bytecode, err := hex.DecodeString(strings.TrimPrefix(file.Bytecode, "0x"))
	if err != nil {
		return fmt.Errorf("could not decode artifact bytecode: %v", err)
	}

	a.Interface = slices.Clone(iface)
	a.Bytecode = bytecode
	return nil
}

// ParseABI parses the artifact interface into an abi.ABI.
func (a *CompiledArtifact) ParseABI() (*abi.ABI, error) {
	parsed, err := abi.JSON(bytes.NewReader(a.Interface))
	if err != nil {
		return nil, fmt.Errorf("could not parse interface of artifact '%s': %v", a.Name, err)
	}
	return &parsed, nil
}

// GetDeploymentMessageData creates contract deployment message data for the artifact: its bytecode followed by the
// ABI-encoded constructor arguments. This data is set in a transaction's "data" field.
func (a *CompiledArtifact) GetDeploymentMessageData(contractAbi *abi.ABI, args []any) ([]byte, error) {
	initBytecodeWithArgs := slices.Clone(a.Bytecode)
	if len(contractAbi.Constructor.Inputs) == 0 && len(args) == 0 {
		return initBytecodeWithArgs, nil
	}

	// abi.Pack with an empty method name packs constructor arguments.
	data, err := contractAbi.Pack("", args...)
	if err != nil {
		return nil, fmt.Errorf("could not encode constructor arguments for '%s': %v", a.Name, err)
	}
	return append(initBytecodeWithArgs, data...), nil
}
