package provider

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/crytic/medusa-geth/accounts"
	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/crypto"
	"github.com/crytic/solship/utils"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/exp/slices"
)

// Account describes an account derived from a seed phrase.
type Account struct {
	// Address is the address of the account.
	Address common.Address

	// PrivateKey is the key used to sign transactions for the account.
	PrivateKey *ecdsa.PrivateKey

	// Path is the derivation path the account was derived at.
	Path accounts.DerivationPath
}

// NormalizeMnemonic collapses any run of whitespace in a seed phrase into a single space.
func NormalizeMnemonic(mnemonic string) string {
	return strings.Join(strings.Fields(mnemonic), " ")
}

// DeriveAccounts derives count accounts from the provided seed phrase, incrementing the last component of basePath
// for each account. The phrase must be a valid BIP-39 mnemonic, including its checksum.
func DeriveAccounts(mnemonic string, basePath accounts.DerivationPath, count int) ([]Account, error) {
	if count < 1 {
		return nil, fmt.Errorf("at least one account must be derived, got %d", count)
	}

	seed, err := bip39.NewSeedWithErrorChecking(NormalizeMnemonic(mnemonic), "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	// The network parameters only affect serialization of extended keys, which is never done here
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	derived := make([]Account, 0, count)
	next := accounts.DefaultIterator(basePath)
	for i := 0; i < count; i++ {
		// The iterator reuses its slice between calls
		path := slices.Clone(next())
		account, err := deriveAccount(master, path)
		if err != nil {
			return nil, fmt.Errorf("%w: could not derive account at %s: %v", ErrInvalidCredential, path, err)
		}
		derived = append(derived, *account)
	}
	return derived, nil
}

// deriveAccount derives the account at the provided path from a master key.
func deriveAccount(master *hdkeychain.ExtendedKey, path accounts.DerivationPath) (*Account, error) {
	key := master
	for _, index := range path {
		var err error
		if key, err = key.Derive(index); err != nil {
			return nil, err
		}
	}

	ecKey, err := key.ECPrivKey()
	if err != nil {
		return nil, err
	}
	privateKey, err := utils.GetPrivateKey(ecKey.Serialize())
	if err != nil {
		return nil, err
	}
	return &Account{
		Address:    crypto.PubkeyToAddress(privateKey.PublicKey),
		PrivateKey: privateKey,
		Path:       path,
	}, nil
}
