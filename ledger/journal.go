package ledger

import (
	"errors"
	"fmt"
	"math/big"
	"path/filepath"
	"sort"
	"time"

	"github.com/crytic/solship/utils"
	"github.com/fxamacker/cbor"
	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

// DefaultJournalPath is the path of the deployment journal when none is configured.
const DefaultJournalPath = ".solship/deployments.db"

// journalBucket is the bbolt bucket holding journal entries, keyed by entry id.
var journalBucket = []byte("deployments")

// ErrJournalEntryNotFound indicates a journal entry with the requested id does not exist.
var ErrJournalEntryNotFound = errors.New("journal entry not found")

// DeploymentStatus describes the state of a submitted deployment transaction.
type DeploymentStatus string

const (
	// StatusPending indicates the transaction was submitted and its outcome is not yet known.
	StatusPending DeploymentStatus = "pending"
	// StatusConfirmed indicates the transaction was mined successfully and created a contract.
	StatusConfirmed DeploymentStatus = "confirmed"
	// StatusRejected indicates the network declined the transaction or it failed during execution.
	StatusRejected DeploymentStatus = "rejected"
	// StatusTimeout indicates confirmation was not observed in time. The transaction may still be mined.
	StatusTimeout DeploymentStatus = "timeout"
)

// Unresolved indicates whether the final state of the transaction is still unknown.
func (s DeploymentStatus) Unresolved() bool {
	return s == StatusPending || s == StatusTimeout
}

// JournalEntry records one submitted deployment transaction.
type JournalEntry struct {
	// ID uniquely identifies the entry.
	ID string
	// Artifact is the name of the deployed artifact.
	Artifact string
	// ChainID is the chain the transaction was submitted to.
	ChainID *big.Int
	// Sender is the hex address of the submitting account.
	Sender string
	// Nonce is the nonce of the transaction.
	Nonce uint64
	// TxHash is the hex hash of the transaction.
	TxHash string
	// Status is the last known state of the transaction.
	Status DeploymentStatus
	// Address is the created contract address, once confirmed.
	Address string
	// Reason describes why the transaction was rejected, if it was.
	Reason string
	// SubmittedAt is when the transaction was submitted.
	SubmittedAt time.Time
	// ResolvedAt is when the final state of the transaction was observed, if it was.
	ResolvedAt time.Time
}

// journalRecord is the CBOR layout of a JournalEntry.
type journalRecord struct {
	ID          string `cbor:"id"`
	Artifact    string `cbor:"artifact"`
	ChainID     string `cbor:"chainId"`
	Sender      string `cbor:"sender"`
	Nonce       uint64 `cbor:"nonce"`
	TxHash      string `cbor:"txHash"`
	Status      string `cbor:"status"`
	Address     string `cbor:"address,omitempty"`
	Reason      string `cbor:"reason,omitempty"`
	SubmittedAt int64  `cbor:"submittedAt"`
	ResolvedAt  int64  `cbor:"resolvedAt,omitempty"`
}

// encodeJournalEntry serializes an entry to canonical CBOR.
func encodeJournalEntry(entry *JournalEntry) ([]byte, error) {
	record := journalRecord{
		ID:          entry.ID,
		Artifact:    entry.Artifact,
		Sender:      entry.Sender,
		Nonce:       entry.Nonce,
		TxHash:      entry.TxHash,
		Status:      string(entry.Status),
		Address:     entry.Address,
		Reason:      entry.Reason,
		SubmittedAt: entry.SubmittedAt.UnixNano(),
	}
	if entry.ChainID != nil {
		record.ChainID = entry.ChainID.String()
	}
	if !entry.ResolvedAt.IsZero() {
		record.ResolvedAt = entry.ResolvedAt.UnixNano()
	}
	return cbor.Marshal(record, cbor.EncOptions{Canonical: true})
}

// decodeJournalEntry deserializes an entry written by encodeJournalEntry.
func decodeJournalEntry(b []byte) (*JournalEntry, error) {
	var record journalRecord
	if err := cbor.Unmarshal(b, &record); err != nil {
		return nil, err
	}

	entry := &JournalEntry{
		ID:          record.ID,
		Artifact:    record.Artifact,
		Sender:      record.Sender,
		Nonce:       record.Nonce,
		TxHash:      record.TxHash,
		Status:      DeploymentStatus(record.Status),
		Address:     record.Address,
		Reason:      record.Reason,
		SubmittedAt: time.Unix(0, record.SubmittedAt),
	}
	if record.ChainID != "" {
		chainID, ok := new(big.Int).SetString(record.ChainID, 10)
		if !ok {
			return nil, fmt.Errorf("invalid chain id '%s' in journal entry '%s'", record.ChainID, record.ID)
		}
		entry.ChainID = chainID
	}
	if record.ResolvedAt != 0 {
		entry.ResolvedAt = time.Unix(0, record.ResolvedAt)
	}
	return entry, nil
}

// Journal is a durable history of submitted deployment transactions, used to avoid submitting a deployment again
// while an earlier submission of it has an unknown outcome.
type Journal struct {
	// db is the underlying database. bbolt holds a file lock on it while open.
	db *bbolt.DB
}

// OpenJournal opens (creating if needed) the journal database at the provided path.
func OpenJournal(path string) (*Journal, error) {
	if err := utils.MakeDirectory(filepath.Dir(path)); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open deployment journal '%s': %v", path, err)
	}

	// create the bucket if it doesn't exist
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(journalBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Add inserts a new entry. If the entry has no ID, a random one is assigned, and if it has no submission time, the
// current time is used.
func (j *Journal) Add(entry *JournalEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.SubmittedAt.IsZero() {
		entry.SubmittedAt = time.Now()
	}
	if entry.Status == "" {
		entry.Status = StatusPending
	}

	value, err := encodeJournalEntry(entry)
	if err != nil {
		return err
	}
	return j.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(journalBucket)
		if bucket.Get([]byte(entry.ID)) != nil {
			return fmt.Errorf("journal entry '%s' already exists", entry.ID)
		}
		return bucket.Put([]byte(entry.ID), value)
	})
}

// Update replaces an existing entry. ErrJournalEntryNotFound is returned if no entry has its ID.
func (j *Journal) Update(entry *JournalEntry) error {
	value, err := encodeJournalEntry(entry)
	if err != nil {
		return err
	}
	return j.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(journalBucket)
		if bucket.Get([]byte(entry.ID)) == nil {
			return fmt.Errorf("%w: '%s'", ErrJournalEntryNotFound, entry.ID)
		}
		return bucket.Put([]byte(entry.ID), value)
	})
}

// Resolve marks an entry with a final (or timed out) status and stamps its resolution time.
func (j *Journal) Resolve(entry *JournalEntry, status DeploymentStatus, address string, reason string) error {
	entry.Status = status
	entry.Address = address
	entry.Reason = reason
	entry.ResolvedAt = time.Now()
	return j.Update(entry)
}

// Get returns the entry with the provided ID, or ErrJournalEntryNotFound.
func (j *Journal) Get(id string) (*JournalEntry, error) {
	var entry *JournalEntry
	err := j.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(journalBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: '%s'", ErrJournalEntryNotFound, id)
		}
		var err error
		entry, err = decodeJournalEntry(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns every entry, ordered by submission time.
func (j *Journal) List() ([]*JournalEntry, error) {
	return j.filter(func(*JournalEntry) bool { return true })
}

// Unresolved returns every entry whose outcome is still unknown, ordered by submission time.
func (j *Journal) Unresolved() ([]*JournalEntry, error) {
	return j.filter(func(entry *JournalEntry) bool { return entry.Status.Unresolved() })
}

// Pending returns the entries for the provided artifact and chain whose outcome is still unknown, ordered by
// submission time.
func (j *Journal) Pending(artifact string, chainID *big.Int) ([]*JournalEntry, error) {
	return j.filter(func(entry *JournalEntry) bool {
		return entry.Status.Unresolved() && entry.Artifact == artifact &&
			entry.ChainID != nil && chainID != nil && entry.ChainID.Cmp(chainID) == 0
	})
}

// filter returns the entries matching the predicate, ordered by submission time.
func (j *Journal) filter(predicate func(*JournalEntry) bool) ([]*JournalEntry, error) {
	entries := make([]*JournalEntry, 0)
	err := j.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(journalBucket).ForEach(func(key []byte, value []byte) error {
			entry, err := decodeJournalEntry(value)
			if err != nil {
				return fmt.Errorf("could not decode journal entry '%s': %v", string(key), err)
			}
			if predicate(entry) {
				entries = append(entries, entry)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, k int) bool {
		if entries[i].SubmittedAt.Equal(entries[k].SubmittedAt) {
			return entries[i].ID < entries[k].ID
		}
		return entries[i].SubmittedAt.Before(entries[k].SubmittedAt)
	})
	return entries, nil
}
