package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/greenledger/internal/config"
)

// NewTrendCmd creates the trend command.
func NewTrendCmd() *cobra.Command {
	var (
		userID   string
		peerSeed uint64
	)

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Compare the latest footprint with history and peers",
		Long: `Compares the user's latest recorded footprint with the one before it,
category by category, and with a peer benchmark when trend.peer_enabled is set.
The benchmark is drawn from a seeded generator so runs are reproducible.
Peer means come from trend.peer_means_file when set.`,
		Example: `  greenledger trend --user alice
  greenledger trend --user alice --unit lb
  greenledger trend --user alice --peer-seed 7 --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" {
				return newUsageError("--user is required")
			}
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			unit, err := unitFlag(cmd)
			if err != nil {
				return err
			}

			opts := appOptions{noCache: true}
			if cmd.Flags().Changed("peer-seed") {
				opts.peerSeed = &peerSeed
			}
			a, err := appFromCmd(cmd, opts)
			if err != nil {
				return err
			}

			rep, err := a.engine.Trend(cmd.Context(), userID)
			if err != nil {
				return err
			}
			if format == config.FormatJSON {
				return writeJSON(cmd.OutOrStdout(), rep)
			}
			return newRenderer(cmd.OutOrStdout()).withUnit(unit).trend(rep)
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "user to report on")
	cmd.Flags().Uint64Var(&peerSeed, "peer-seed", 0, "seed for the peer benchmark (default from config)")
	addUnitFlag(cmd)
	addOutputFlag(cmd)
	return cmd
}
