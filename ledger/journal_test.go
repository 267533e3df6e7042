package ledger

import (
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestJournal opens a journal in a temporary directory and closes it when the test ends.
func openTestJournal(t *testing.T) *Journal {
	journal, err := OpenJournal(filepath.Join(t.TempDir(), ".solship", "deployments.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = journal.Close()
	})
	return journal
}

func TestJournalAddGet(t *testing.T) {
	journal := openTestJournal(t)

	entry := &JournalEntry{
		Artifact: "Car",
		ChainID:  big.NewInt(31337),
		Sender:   "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
		Nonce:    7,
		TxHash:   "0xabc",
	}
	require.NoError(t, journal.Add(entry))
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, StatusPending, entry.Status)
	assert.False(t, entry.SubmittedAt.IsZero())

	read, err := journal.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.Artifact, read.Artifact)
	assert.Equal(t, 0, entry.ChainID.Cmp(read.ChainID))
	assert.Equal(t, entry.Sender, read.Sender)
	assert.Equal(t, entry.Nonce, read.Nonce)
	assert.Equal(t, entry.TxHash, read.TxHash)
	assert.Equal(t, StatusPending, read.Status)
	assert.True(t, entry.SubmittedAt.Equal(read.SubmittedAt))
	assert.True(t, read.ResolvedAt.IsZero())

	// Duplicate ids are rejected
	assert.Error(t, journal.Add(&JournalEntry{ID: entry.ID}))

	_, err = journal.Get("missing")
	assert.ErrorIs(t, err, ErrJournalEntryNotFound)
}

func TestJournalResolve(t *testing.T) {
	journal := openTestJournal(t)

	entry := &JournalEntry{Artifact: "Car", ChainID: big.NewInt(1)}
	require.NoError(t, journal.Add(entry))
	require.NoError(t, journal.Resolve(entry, StatusConfirmed, "0x5FbDB2315678afecb367f032d93F642f64180aa3", ""))

	read, err := journal.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, read.Status)
	assert.Equal(t, "0x5FbDB2315678afecb367f032d93F642f64180aa3", read.Address)
	assert.False(t, read.ResolvedAt.IsZero())

	assert.ErrorIs(t, journal.Update(&JournalEntry{ID: "missing"}), ErrJournalEntryNotFound)
}

func TestJournalPending(t *testing.T) {
	journal := openTestJournal(t)
	now := time.Now()

	entries := []*JournalEntry{
		{Artifact: "Car", ChainID: big.NewInt(1), Status: StatusPending, SubmittedAt: now.Add(-3 * time.Minute)},
		{Artifact: "Car", ChainID: big.NewInt(1), Status: StatusConfirmed, SubmittedAt: now.Add(-2 * time.Minute)},
		{Artifact: "Car", ChainID: big.NewInt(5), Status: StatusTimeout, SubmittedAt: now.Add(-1 * time.Minute)},
		{Artifact: "Bike", ChainID: big.NewInt(1), Status: StatusTimeout, SubmittedAt: now},
	}
	for _, entry := range entries {
		require.NoError(t, journal.Add(entry))
	}

	pending, err := journal.Pending("Car", big.NewInt(1))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, entries[0].ID, pending[0].ID)

	pending, err = journal.Pending("Car", big.NewInt(5))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, entries[2].ID, pending[0].ID)

	unresolved, err := journal.Unresolved()
	require.NoError(t, err)
	assert.Len(t, unresolved, 3)

	all, err := journal.List()
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i, entry := range entries {
		assert.Equal(t, entry.ID, all[i].ID, "entries should be ordered by submission time")
	}
}

func TestJournalReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deployments.db")
	journal, err := OpenJournal(path)
	require.NoError(t, err)
	entry := &JournalEntry{Artifact: "Car", ChainID: big.NewInt(1)}
	require.NoError(t, journal.Add(entry))
	require.NoError(t, journal.Close())

	journal, err = OpenJournal(path)
	require.NoError(t, err)
	defer journal.Close()
	read, err := journal.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Car", read.Artifact)
}
