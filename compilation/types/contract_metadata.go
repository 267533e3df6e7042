package types

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor"
)

// ContractMetadata is a CBOR-encoded structure describing contract information which is embedded within smart contract
// bytecode by the Solidity compiler (unless explicitly directed not to).
// Reference: https://docs.soliditylang.org/en/v0.8.16/metadata.html
type ContractMetadata map[string]any

// metadataHashPrefixes defines patterns to use in search for CBOR-encoded contract metadata appended to the end of
// bytecode.
var metadataHashPrefixes = [][]byte{
	{0xa1, 0x65, 98, 122, 122, 114, 48, 0x58, 0x20},  // a1 65 "bzzr0" 0x58 0x20 (solc <= 0.5.8)
	{0xa2, 0x65, 98, 122, 122, 114, 48, 0x58, 0x20},  // a2 65 "bzzr0" 0x58 0x20 (solc >= 0.5.9)
	{0xa2, 0x65, 98, 122, 122, 114, 49, 0x58, 0x20},  // a2 65 "bzzr1" 0x58 0x20 (solc >= 0.5.11)
	{0xa2, 0x64, 0x69, 0x70, 0x66, 0x73, 0x58, 0x22}, // a2 64 "ipfs" 0x58 0x22 (solc >= 0.6.0)
}

// ExtractContractMetadata extracts contract metadata from provided bytecode and returns it. If contract metadata
// could not be extracted, nil is returned.
func ExtractContractMetadata(bytecode []byte) *ContractMetadata {
	// Metadata is appended to the end of the runtime code, so search from the end.
	for _, metadataHashPrefix := range metadataHashPrefixes {
		metadataOffset := bytes.LastIndex(bytecode, metadataHashPrefix)
		if metadataOffset == -1 {
			continue
		}

		// The two bytes following the CBOR map encode its length. Decoding the whole tail would fail on them.
		var metadata ContractMetadata
		if err := cbor.Unmarshal(metadataWithoutLength(bytecode[metadataOffset:]), &metadata); err != nil {
			continue
		}
		return &metadata
	}
	return nil
}

// metadataWithoutLength trims the big-endian length suffix solc appends after the CBOR map, if present.
func metadataWithoutLength(tail []byte) []byte {
	if len(tail) < 2 {
		return tail
	}
	length := int(tail[len(tail)-2])<<8 | int(tail[len(tail)-1])
	if length == len(tail)-2 {
		return tail[:length]
	}
	return tail
}

// CompilerVersion returns the solc version recorded in the metadata (e.g. "0.8.19"), or an empty string if the
// metadata does not carry one.
func (m ContractMetadata) CompilerVersion() string {
	version, ok := m["solc"].([]byte)
	if !ok || len(version) != 3 {
		return ""
	}
	return fmt.Sprintf("%d.%d.%d", version[0], version[1], version[2])
}
