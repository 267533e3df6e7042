package provider

import "errors"

// ErrInvalidCredential indicates the seed phrase cannot derive any account.
var ErrInvalidCredential = errors.New("invalid credential")

// ErrProviderUnreachable indicates the network endpoint could not be reached or did not answer.
var ErrProviderUnreachable = errors.New("provider unreachable")

// ErrUnknownAccount indicates an account was requested which the credential does not derive.
var ErrUnknownAccount = errors.New("account is not derived from the credential")
