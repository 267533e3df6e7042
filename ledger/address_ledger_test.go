package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressLedgerRoundTrip(t *testing.T) {
	addressLedger := NewAddressLedger(filepath.Join(t.TempDir(), "address.json"))

	_, err := addressLedger.Read()
	assert.ErrorIs(t, err, ErrNoRecordedAddress)

	// Addresses are recorded exactly as given, without case normalization
	address := "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	require.NoError(t, addressLedger.Record(address))

	b, err := os.ReadFile(addressLedger.Path())
	require.NoError(t, err)
	assert.Equal(t, `"`+address+`"`, string(b))

	read, err := addressLedger.Read()
	require.NoError(t, err)
	assert.Equal(t, address, read)
}

func TestAddressLedgerOverwrites(t *testing.T) {
	addressLedger := NewAddressLedger(filepath.Join(t.TempDir(), "nested", "address.json"))

	require.NoError(t, addressLedger.Record("0x0000000000000000000000000000000000000001"))
	require.NoError(t, addressLedger.Record("0x0000000000000000000000000000000000000002"))

	read, err := addressLedger.Read()
	require.NoError(t, err)
	assert.Equal(t, "0x0000000000000000000000000000000000000002", read)
}

func TestAddressLedgerMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "address.json")
	addressLedger := NewAddressLedger(path)

	require.NoError(t, os.WriteFile(path, []byte("0x1234"), 0644))
	_, err := addressLedger.Read()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoRecordedAddress)

	require.NoError(t, os.WriteFile(path, []byte(`""`), 0644))
	_, err = addressLedger.Read()
	assert.ErrorIs(t, err, ErrNoRecordedAddress)
}

func TestAddressLedgerDefaultPath(t *testing.T) {
	assert.Equal(t, DefaultAddressLedgerPath, NewAddressLedger("").Path())
}
