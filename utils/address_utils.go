package utils

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/crytic/medusa-geth/common"
)

// HexStringToAddress converts a hex string (with or without the "0x" prefix) to a common.Address. Unlike
// common.HexToAddress, input of the wrong length or containing non-hex characters is rejected.
func HexStringToAddress(s string) (*common.Address, error) {
	// Remove the 0x prefix and decode the hex string into a byte array
	b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"))
	if err != nil {
		return nil, fmt.Errorf("invalid address '%s': %v", s, err)
	}
	if len(b) != common.AddressLength {
		return nil, fmt.Errorf("invalid address '%s': expected %d bytes, got %d", s, common.AddressLength, len(b))
	}

	// Parse the bytes as an address and return them.
	address := common.BytesToAddress(b)
	return &address, nil
}
