package testing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cgc-labs/marketd/internal/core/entry"
	"github.com/cgc-labs/marketd/internal/core/tx"
)

// RequireTxSuccess fails the test unless the transaction applied with
// tesSUCCESS.
func RequireTxSuccess(t *testing.T, res tx.ApplyResult) {
	t.Helper()
	require.True(t, res.Result.IsSuccess(),
		"expected tesSUCCESS, got %s: %s", res.Result, res.Message)
	require.True(t, res.Applied, "transaction should have been applied")
}

// RequireTxResult fails the test unless the transaction produced the
// expected result code.
func RequireTxResult(t *testing.T, res tx.ApplyResult, want tx.Result) {
	t.Helper()
	require.Equal(t, want, res.Result,
		"expected %s, got %s: %s", want, res.Result, res.Message)
}

// RequireBalance checks an account's wallet balance for a mint.
func RequireBalance(t *testing.T, env *TestEnv, acc *Account, mint entry.MintID, want uint64) {
	t.Helper()
	require.Equal(t, want, env.Balance(acc, mint),
		"balance of %s", acc.Name)
}

// RequireNativeBalance checks an account's native balance.
func RequireNativeBalance(t *testing.T, env *TestEnv, acc *Account, want uint64) {
	t.Helper()
	require.Equal(t, want, env.NativeBalance(acc),
		"native balance of %s", acc.Name)
}

// RequireVaultBalance checks a payment vault balance.
func RequireVaultBalance(t *testing.T, env *TestEnv, tag byte, want uint64) {
	t.Helper()
	require.Equal(t, want, env.VaultBalance(tag), "vault balance for tag %d", tag)
}

// RequireFeeAccrued checks the accumulated fee on a token config.
func RequireFeeAccrued(t *testing.T, env *TestEnv, tag byte, want uint64) {
	t.Helper()
	tc := env.TokenConfig(tag)
	require.NotNil(t, tc, "token config for tag %d", tag)
	require.Equal(t, want, tc.FeeAccrued, "fee accrued for tag %d", tag)
}

// RequireNFTHolder checks that the account holds the NFT in its wallet.
func RequireNFTHolder(t *testing.T, env *TestEnv, acc *Account, mint entry.MintID) {
	t.Helper()
	require.Equal(t, uint64(1), env.Balance(acc, mint),
		"%s should hold the NFT", acc.Name)
	require.Equal(t, uint64(0), env.NFTVaultBalance(mint),
		"custody vault should be empty")
}

// RequireNFTInCustody checks that the NFT sits in the custody vault.
func RequireNFTInCustody(t *testing.T, env *TestEnv, mint entry.MintID) {
	t.Helper()
	require.Equal(t, uint64(1), env.NFTVaultBalance(mint),
		"custody vault should hold the NFT")
}
