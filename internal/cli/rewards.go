package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/greenledger/internal/config"
	"github.com/rshade/greenledger/internal/rewards"
)

func newRewardsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "rewards", Short: "Reward ledger commands"}
	cmd.AddCommand(
		NewRewardsCatalogCmd(), NewRewardsEarnCmd(), NewRewardsRedeemCmd(),
		NewRewardsHistoryCmd(), NewRewardsBalanceCmd(),
	)
	return cmd
}

// accountView is the JSON shape of an account summary.
type accountView struct {
	UserID  string       `json:"user_id"`
	Balance int64        `json:"balance"`
	Earned  int64        `json:"earned"`
	Tier    rewards.Tier `json:"tier"`
}

func newAccountView(a rewards.Account, tier rewards.Tier) accountView {
	return accountView{UserID: a.UserID, Balance: a.Balance, Earned: a.Earned, Tier: tier}
}

// NewRewardsCatalogCmd creates the rewards catalog command.
func NewRewardsCatalogCmd() *cobra.Command {
	var (
		userID       string
		eligibleOnly bool
	)

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List redeemable items",
		Long: `Lists the reward catalog ordered by cost. With --user, items above the
user's tier are marked as locked; --eligible hides them instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			a, err := appFromCmd(cmd, appOptions{noCache: true})
			if err != nil {
				return err
			}

			if eligibleOnly && userID == "" {
				return newUsageError("--eligible requires --user")
			}

			var tier *rewards.Tier
			if userID != "" {
				t := a.engine.Tier(userID)
				tier = &t
			}
			items := a.engine.Catalog().Items()
			if eligibleOnly {
				items = a.engine.Catalog().Eligible(*tier)
				if items == nil {
					items = []rewards.Item{}
				}
			}
			if format == config.FormatJSON {
				return writeJSON(cmd.OutOrStdout(), items)
			}
			return newRenderer(cmd.OutOrStdout()).catalog(items, tier)
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "mark items the user cannot redeem yet")
	cmd.Flags().BoolVar(&eligibleOnly, "eligible", false, "list only items the user's tier can redeem")
	addOutputFlag(cmd)
	return cmd
}

// NewRewardsEarnCmd creates the rewards earn command.
func NewRewardsEarnCmd() *cobra.Command {
	var (
		userID string
		amount int64
		reason string
	)

	cmd := &cobra.Command{
		Use:     "earn",
		Short:   "Credit tokens to a user",
		Example: `  greenledger rewards earn --user alice --amount 100 --reason "biked to work"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" {
				return newUsageError("--user is required")
			}
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			a, err := appFromCmd(cmd, appOptions{noCache: true})
			if err != nil {
				return err
			}

			acct, err := a.engine.Earn(cmd.Context(), userID, amount, reason)
			if err != nil {
				return err
			}
			if err := a.save(); err != nil {
				return err
			}
			return writeAccount(cmd, format, acct, a.engine.Tier(userID))
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user to credit")
	cmd.Flags().Int64Var(&amount, "amount", 0, "tokens to credit (must be positive)")
	cmd.Flags().StringVar(&reason, "reason", "manual credit", "ledger reason")
	addOutputFlag(cmd)
	return cmd
}

// NewRewardsRedeemCmd creates the rewards redeem command.
func NewRewardsRedeemCmd() *cobra.Command {
	var (
		userID string
		itemID string
		yes    bool
	)

	cmd := &cobra.Command{
		Use:     "redeem",
		Short:   "Spend tokens on a catalog item",
		Example: `  greenledger rewards redeem --user alice --item tree-plant`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" || itemID == "" {
				return newUsageError("--user and --item are required")
			}
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			a, err := appFromCmd(cmd, appOptions{noCache: true})
			if err != nil {
				return err
			}

			if !yes && stdinIsTerminal(cmd) {
				item, err := a.engine.Catalog().Get(itemID)
				if err != nil {
					return err
				}
				question := fmt.Sprintf("Redeem %s for %d tokens?", item.Name, item.Cost)
				if res := Confirm(cmd.ErrOrStderr(), cmd.InOrStdin(), question); !res.Accepted {
					cmd.PrintErrln("Redemption cancelled")
					return nil
				}
			}

			acct, err := a.engine.Redeem(cmd.Context(), userID, itemID)
			if err != nil {
				return err
			}
			if err := a.save(); err != nil {
				return err
			}
			if format == config.FormatTable {
				if last, ok := acct.Last(); ok {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Redeemed %s for %d tokens\n", itemID, -last.Delta)
				}
			}
			return writeAccount(cmd, format, acct, a.engine.Tier(userID))
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user spending tokens")
	cmd.Flags().StringVar(&itemID, "item", "", "catalog item id")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	addOutputFlag(cmd)
	return cmd
}

// NewRewardsBalanceCmd creates the rewards balance command.
func NewRewardsBalanceCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show a user's balance and tier",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" {
				return newUsageError("--user is required")
			}
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			a, err := appFromCmd(cmd, appOptions{noCache: true})
			if err != nil {
				return err
			}
			return writeAccount(cmd, format, a.engine.Account(userID), a.engine.Tier(userID))
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user to show")
	addOutputFlag(cmd)
	return cmd
}

// NewRewardsHistoryCmd creates the rewards history command.
func NewRewardsHistoryCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show a user's ledger transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" {
				return newUsageError("--user is required")
			}
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			a, err := appFromCmd(cmd, appOptions{noCache: true})
			if err != nil {
				return err
			}

			acct := a.engine.Account(userID)
			if format == config.FormatJSON {
				txs := make([]rewards.Transaction, 0, acct.Len())
				for tx := range acct.History() {
					txs = append(txs, tx)
				}
				return writeJSON(cmd.OutOrStdout(), txs)
			}
			if acct.Len() == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No transactions.")
				return err
			}
			return newRenderer(cmd.OutOrStdout()).history(acct)
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user to show")
	addOutputFlag(cmd)
	return cmd
}

func writeAccount(cmd *cobra.Command, format string, a rewards.Account, tier rewards.Tier) error {
	if format == config.FormatJSON {
		return writeJSON(cmd.OutOrStdout(), newAccountView(a, tier))
	}
	newRenderer(cmd.OutOrStdout()).balance(a, tier)
	return nil
}
