package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/crytic/solship/utils"
	pkgerrors "github.com/pkg/errors"
)

// DefaultAddressLedgerPath is the path of the address record when none is configured.
const DefaultAddressLedgerPath = "address.json"

// ErrNoRecordedAddress indicates no deployment has recorded an address yet.
var ErrNoRecordedAddress = errors.New("no deployed address has been recorded")

// AddressLedger persists the address of the most recent successful deployment as a single JSON string.
type AddressLedger struct {
	// path is the location of the address record.
	path string
}

// NewAddressLedger returns an AddressLedger backed by the file at the provided path, or DefaultAddressLedgerPath if
// it is empty.
func NewAddressLedger(path string) *AddressLedger {
	if path == "" {
		path = DefaultAddressLedgerPath
	}
	return &AddressLedger{path: path}
}

// Path returns the location of the address record.
func (l *AddressLedger) Path() string {
	return l.path
}

// Record overwrites the address record with the provided address, exactly as given. The record is replaced
// atomically, so a failed write leaves the previous address in place.
func (l *AddressLedger) Record(address string) error {
	b, err := json.Marshal(address)
	if err != nil {
		return err
	}
	return utils.WriteFileAtomic(l.path, b, 0644)
}

// Read returns the last recorded address, or ErrNoRecordedAddress if none exists.
func (l *AddressLedger) Read() (string, error) {
	b, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoRecordedAddress
		}
		return "", pkgerrors.WithStack(err)
	}

	var address string
	if err = json.Unmarshal(b, &address); err != nil {
		return "", fmt.Errorf("address record '%s' is malformed: %v", l.path, err)
	}
	if address == "" {
		return "", ErrNoRecordedAddress
	}
	return address, nil
}
