package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/crytic/medusa-geth/common"
	"github.com/crytic/medusa-geth/crypto"
	"github.com/crytic/solship/utils/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testMnemonic is the well-known development seed phrase used by local test networks.
const testMnemonic = "test test test test test test test test test test test junk"

// testNetworkDialer returns a Dialer which always connects to the provided network.
func testNetworkDialer(network *testutils.TestNetwork) Dialer {
	return func(ctx context.Context, endpoint string) (Backend, error) {
		return network, nil
	}
}

func TestDeriveAccounts(t *testing.T) {
	basePath, err := NewResolver(ResolverConfig{}, nil)
	require.NoError(t, err)

	derived, err := DeriveAccounts(testMnemonic, basePath.basePath, 3)
	require.NoError(t, err)
	require.Len(t, derived, 3)

	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), derived[0].Address)
	assert.Equal(t, common.HexToAddress("0x70997970C51812dc3A010C7d01b50e79d17dc79C"), derived[1].Address)
	assert.Equal(t, common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"), derived[2].Address)
	assert.Equal(t, "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
		common.Bytes2Hex(crypto.FromECDSA(derived[0].PrivateKey)))

	assert.Equal(t, "m/44'/60'/0'/0/0", derived[0].Path.String())
	assert.Equal(t, "m/44'/60'/0'/0/2", derived[2].Path.String())
}

func TestDeriveAccountsWhitespace(t *testing.T) {
	basePath, err := NewResolver(ResolverConfig{}, nil)
	require.NoError(t, err)

	derived, err := DeriveAccounts("  test test test test test test\n test test test test test\tjunk ", basePath.basePath, 1)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), derived[0].Address)
}

func TestResolveInvalidCredential(t *testing.T) {
	network := testutils.NewTestNetwork(31337)
	dialed := false
	resolver, err := NewResolver(ResolverConfig{}, func(ctx context.Context, endpoint string) (Backend, error) {
		dialed = true
		return network, nil
	})
	require.NoError(t, err)

	for _, credential := range []string{
		"",
		"not a seed phrase",
		// Valid words with a bad checksum
		"abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon",
	} {
		_, err = resolver.Resolve(context.Background(), credential, "http://localhost:8545")
		assert.ErrorIs(t, err, ErrInvalidCredential, credential)
	}
	assert.False(t, dialed, "the endpoint should not be dialed with an invalid credential")
}

func TestResolveUnreachable(t *testing.T) {
	network := testutils.NewTestNetwork(31337)
	network.Unreachable = true
	resolver, err := NewResolver(ResolverConfig{}, testNetworkDialer(network))
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), testMnemonic, "http://localhost:8545")
	assert.ErrorIs(t, err, ErrProviderUnreachable)
	assert.ErrorIs(t, err, testutils.ErrNetworkUnreachable)
	assert.Equal(t, 1, network.CloseCount())

	_, err = resolver.Resolve(context.Background(), testMnemonic, " ")
	assert.ErrorIs(t, err, ErrProviderUnreachable)

	failingDialer := func(ctx context.Context, endpoint string) (Backend, error) {
		return nil, errors.New("no such host")
	}
	resolver, err = NewResolver(ResolverConfig{}, failingDialer)
	require.NoError(t, err)
	_, err = resolver.Resolve(context.Background(), testMnemonic, "http://unknown.invalid")
	assert.ErrorIs(t, err, ErrProviderUnreachable)
}

func TestResolveAccessContext(t *testing.T) {
	network := testutils.NewTestNetwork(31337)
	resolver, err := NewResolver(ResolverConfig{AccountCount: 2}, testNetworkDialer(network))
	require.NoError(t, err)

	accessContext, err := resolver.Resolve(context.Background(), testMnemonic, "http://localhost:8545")
	require.NoError(t, err)
	defer accessContext.Close()

	assert.Equal(t, int64(31337), accessContext.ChainID().Int64())
	assert.Equal(t, "http://localhost:8545", accessContext.Endpoint())
	require.Len(t, accessContext.Accounts(), 2)

	// Resolving the same credential again yields the same accounts in the same order
	again, err := resolver.Resolve(context.Background(), testMnemonic, "http://localhost:8545")
	require.NoError(t, err)
	defer again.Close()
	for i, account := range accessContext.Accounts() {
		assert.Equal(t, account.Address, again.Accounts()[i].Address)
	}

	second := accessContext.Accounts()[1]
	account, err := accessContext.Account(second.Address)
	require.NoError(t, err)
	assert.Equal(t, second.Path, account.Path)

	_, err = accessContext.Account(common.HexToAddress("0x0000000000000000000000000000000000000001"))
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

func TestNewResolverDefaults(t *testing.T) {
	resolver, err := NewResolver(ResolverConfig{AccountCount: -3}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, resolver.accountCount)
	assert.Equal(t, "m/44'/60'/0'/0/0", resolver.basePath.String())

	_, err = NewResolver(ResolverConfig{DerivationPath: "not/a/path"}, nil)
	assert.Error(t, err)

	resolver, err = NewResolver(ResolverConfig{DerivationPath: "m/44'/60'/1'/0/0"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "m/44'/60'/1'/0/0", resolver.basePath.String())
}
