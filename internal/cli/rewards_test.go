package cli_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/greenledger/internal/cli"
	"github.com/rshade/greenledger/internal/rewards"
)

type accountJSON struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
	Earned  int64  `json:"earned"`
	Tier    string `json:"tier"`
}

func TestRewards_EarnRedeemBalance(t *testing.T) {
	isolateCLI(t)

	earned := decodeJSON[accountJSON](t,
		mustRunCLI(t, "rewards", "earn", "--user", "alice", "--amount", "150", "-o", "json"))
	assert.Equal(t, accountJSON{UserID: "alice", Balance: 150, Earned: 150, Tier: "seedling"}, earned)

	out := mustRunCLI(t, "rewards", "redeem", "--user", "alice", "--item", "tree-plant")
	assert.Contains(t, out, "Redeemed tree-plant for 100 tokens")

	balance := decodeJSON[accountJSON](t, mustRunCLI(t, "rewards", "balance", "--user", "alice", "-o", "json"))
	assert.Equal(t, int64(50), balance.Balance)
	assert.Equal(t, int64(150), balance.Earned)
}

func TestRewards_BalanceTable(t *testing.T) {
	isolateCLI(t)
	mustRunCLI(t, "rewards", "earn", "--user", "alice", "--amount", "600")

	out := mustRunCLI(t, "rewards", "balance", "--user", "alice")

	assert.Contains(t, out, "REWARDS")
	assert.Contains(t, out, "Balance: 600 tokens")
	assert.Contains(t, out, "sapling")
}

func TestRewards_History(t *testing.T) {
	isolateCLI(t)

	assert.Contains(t, mustRunCLI(t, "rewards", "history", "--user", "alice"), "No transactions.")

	mustRunCLI(t, "rewards", "earn", "--user", "alice", "--amount", "200", "--reason", "bike week")
	mustRunCLI(t, "rewards", "redeem", "--user", "alice", "--item", "tree-plant", "--yes")

	txs := decodeJSON[[]rewards.Transaction](t, mustRunCLI(t, "rewards", "history", "--user", "alice", "-o", "json"))
	require.Len(t, txs, 2)
	assert.Equal(t, int64(200), txs[0].Delta)
	assert.Equal(t, "bike week", txs[0].Reason)
	assert.Equal(t, int64(-100), txs[1].Delta)
	assert.Equal(t, "tree-plant", txs[1].ItemID)
	assert.Equal(t, int64(100), txs[1].BalanceAfter)

	out := mustRunCLI(t, "rewards", "history", "--user", "alice")
	assert.Contains(t, out, "+200")
	assert.Contains(t, out, "-100")
}

func TestRewards_Catalog(t *testing.T) {
	isolateCLI(t)

	items := decodeJSON[[]rewards.Item](t, mustRunCLI(t, "rewards", "catalog", "-o", "json"))
	assert.Equal(t, rewards.DefaultCatalog().Items(), items)

	out := mustRunCLI(t, "rewards", "catalog", "--user", "alice")
	assert.Contains(t, out, "tree-plant")
	assert.Contains(t, out, "(locked)")
}

func TestRewards_CatalogEligibleOnly(t *testing.T) {
	isolateCLI(t)

	items := decodeJSON[[]rewards.Item](t, mustRunCLI(t, "rewards", "catalog", "-u", "alice", "--eligible", "-o", "json"))
	require.NotEmpty(t, items)
	for _, it := range items {
		assert.Equal(t, rewards.TierSeedling, it.MinTier, "new users only see seedling items")
	}
	assert.Less(t, len(items), len(rewards.DefaultCatalog().Items()))

	mustRunCLI(t, "rewards", "earn", "-u", "alice", "--amount", "5000")
	items = decodeJSON[[]rewards.Item](t, mustRunCLI(t, "rewards", "catalog", "-u", "alice", "--eligible", "-o", "json"))
	assert.Len(t, items, len(rewards.DefaultCatalog().Items()))

	out := mustRunCLI(t, "rewards", "catalog", "-u", "alice", "--eligible")
	assert.NotContains(t, out, "(locked)")

	_, _, err := runCLI(t, "rewards", "catalog", "--eligible")
	require.Error(t, err)
	assert.Equal(t, cli.ExitInvalid, cli.ExitCode(err))
}

func TestRewards_CustomCatalog(t *testing.T) {
	home := isolateCLI(t)
	catalog := writeFile(t, t.TempDir(), "catalog.yaml", `items:
  - id: seed-pack
    name: Seed pack
    cost: 10
`)
	writeFile(t, home, "config.yaml", "rewards:\n  catalog_file: "+catalog+"\n  tiers:\n    sapling: 500\n    grove: 2000\n    forest: 5000\n")

	items := decodeJSON[[]rewards.Item](t, mustRunCLI(t, "rewards", "catalog", "-o", "json"))

	require.Len(t, items, 1)
	assert.Equal(t, "seed-pack", items[0].ID)
}

func TestRewards_RejectedOperations(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"insufficient funds", []string{"rewards", "redeem", "-u", "alice", "--item", "reusable-bottle"}, rewards.ErrInsufficientFunds},
		{"tier locked", []string{"rewards", "redeem", "-u", "alice", "--item", "transit-pass"}, rewards.ErrNotEligible},
		{"unknown item", []string{"rewards", "redeem", "-u", "alice", "--item", "yacht"}, rewards.ErrUnknownItem},
		{"zero amount", []string{"rewards", "earn", "-u", "alice", "--amount", "0"}, rewards.ErrInvalidAmount},
		{"negative amount", []string{"rewards", "earn", "-u", "alice", "--amount", "-5"}, rewards.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateCLI(t)
			mustRunCLI(t, "rewards", "earn", "--user", "alice", "--amount", "120")

			_, _, err := runCLI(t, tt.args...)

			require.Error(t, err)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, cli.ExitInvalid, cli.ExitCode(err))

			balance := decodeJSON[accountJSON](t, mustRunCLI(t, "rewards", "balance", "-u", "alice", "-o", "json"))
			assert.Equal(t, int64(120), balance.Balance, "rejected operations leave the balance unchanged")
		})
	}
}

func TestRewards_MissingFlags(t *testing.T) {
	isolateCLI(t)

	for _, args := range [][]string{
		{"rewards", "earn", "--amount", "5"},
		{"rewards", "redeem", "--user", "alice"},
		{"rewards", "balance"},
		{"rewards", "history"},
	} {
		_, _, err := runCLI(t, args...)
		require.Error(t, err, "args %v", args)
		assert.Equal(t, cli.ExitInvalid, cli.ExitCode(err), "args %v", args)
	}
}
