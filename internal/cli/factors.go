package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/greenledger/internal/config"
	"github.com/rshade/greenledger/internal/factors"
)

func newFactorsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "factors", Short: "Emission factor table commands"}
	cmd.AddCommand(NewFactorsListCmd())
	return cmd
}

// NewFactorsListCmd creates the factors list command.
func NewFactorsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered emission factor tables",
		Long: `Lists the built-in factor table and every table configured under
factors.tables, oldest first. The latest version is used unless a
calculation pins another with --factors or factors.version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			registry, err := loadRegistry(config.GetGlobalConfig().Factors.Tables)
			if err != nil {
				return err
			}

			versions := registry.Versions()
			tables := make([]factors.Table, 0, len(versions))
			for _, v := range versions {
				t, resolveErr := registry.Resolve(v)
				if resolveErr != nil {
					return resolveErr
				}
				tables = append(tables, t)
			}

			if format == config.FormatJSON {
				return writeJSON(cmd.OutOrStdout(), tables)
			}
			return newRenderer(cmd.OutOrStdout()).factorTables(tables, versions[len(versions)-1])
		},
	}
	addOutputFlag(cmd)
	return cmd
}
