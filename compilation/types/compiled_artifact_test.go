package types

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/crytic/medusa-geth/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const carInterface = `[
  {"inputs":[{"internalType":"string","name":"_brand","type":"string"}],"stateMutability":"nonpayable","type":"constructor"},
  {"inputs":[],"name":"brand","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},
  {"anonymous":false,"inputs":[{"indexed":false,"internalType":"string","name":"brand","type":"string"}],"name":"BrandChanged","type":"event"}
]`

// TestArtifactPersistedLayout verifies the record contains exactly the interface list and hex bytecode, preserving
// the order of interface entries.
func TestArtifactPersistedLayout(t *testing.T) {
	artifact := CompiledArtifact{
		Name:      "Car",
		Interface: json.RawMessage(carInterface),
		Bytecode:  []byte{0x60, 0x80, 0x60, 0x40, 0x52},
	}

	b, err := json.Marshal(artifact)
	require.NoError(t, err)

	var record map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &record))
	assert.Len(t, record, 2)
	assert.JSONEq(t, `"6080604052"`, string(record["bytecode"]))

	var entries []map[string]any
	require.NoError(t, json.Unmarshal(record["interface"], &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, "constructor", entries[0]["type"])
	assert.Equal(t, "function", entries[1]["type"])
	assert.Equal(t, "event", entries[2]["type"])

	// Encoding is deterministic, regardless of interface whitespace.
	compact := artifact
	var compacted []any
	require.NoError(t, json.Unmarshal([]byte(carInterface), &compacted))
	compact.Interface, err = json.Marshal(compacted)
	require.NoError(t, err)
	b2, err := json.Marshal(compact)
	require.NoError(t, err)
	assert.Equal(t, b, b2)

	var decoded CompiledArtifact
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, artifact.Bytecode, decoded.Bytecode)
	assert.JSONEq(t, carInterface, string(decoded.Interface))
}

// TestArtifactLegacyLayout verifies an interface stored as a JSON string and 0x-prefixed bytecode are accepted.
func TestArtifactLegacyLayout(t *testing.T) {
	legacy, err := json.Marshal(map[string]string{
		"interface": carInterface,
		"bytecode":  "0x6080",
	})
	require.NoError(t, err)

	var decoded CompiledArtifact
	require.NoError(t, json.Unmarshal(legacy, &decoded))
	assert.Equal(t, []byte{0x60, 0x80}, decoded.Bytecode)
	assert.JSONEq(t, carInterface, string(decoded.Interface))

	_, err = decoded.ParseABI()
	assert.NoError(t, err)
}

// TestGetDeploymentMessageData ensures constructor arguments are ABI-encoded and appended to the bytecode.
func TestGetDeploymentMessageData(t *testing.T) {
	artifact := CompiledArtifact{Name: "Car", Interface: json.RawMessage(carInterface), Bytecode: []byte{0x60, 0x80}}
	contractAbi, err := artifact.ParseABI()
	require.NoError(t, err)

	data, err := artifact.GetDeploymentMessageData(contractAbi, []any{"AUDI"})
	require.NoError(t, err)

	// bytecode ++ offset word ++ length word ++ padded string
	require.Len(t, data, 2+32*3)
	assert.Equal(t, []byte{0x60, 0x80}, data[:2])
	assert.Equal(t, big.NewInt(32), new(big.Int).SetBytes(data[2:34]))
	assert.Equal(t, big.NewInt(4), new(big.Int).SetBytes(data[34:66]))
	assert.Equal(t, common.RightPadBytes([]byte("AUDI"), 32), data[66:])

	// The artifact's own bytecode must not be modified by appending arguments.
	assert.Equal(t, []byte{0x60, 0x80}, artifact.Bytecode)

	// Wrong argument types are rejected.
	_, err = artifact.GetDeploymentMessageData(contractAbi, []any{42})
	assert.Error(t, err)
}

func TestArtifactNameFromUnitIdentifier(t *testing.T) {
	assert.Equal(t, "Car", ArtifactNameFromUnitIdentifier(":Car"))
	assert.Equal(t, "Car", ArtifactNameFromUnitIdentifier("contracts/Car.sol:Car"))
	assert.Equal(t, "Car", ArtifactNameFromUnitIdentifier("Car"))
}

func TestParseBytecodeForPlaceholders(t *testing.T) {
	bytecode := "6080__$1a2b3c$__6040__$1a2b3c$__73__$ffee$__"
	assert.Equal(t, []string{"1a2b3c", "ffee"}, ParseBytecodeForPlaceholders(bytecode))
	assert.Empty(t, ParseBytecodeForPlaceholders("60806040"))
}
