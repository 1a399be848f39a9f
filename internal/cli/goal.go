package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/greenledger/internal/config"
	"github.com/rshade/greenledger/internal/engine"
	"github.com/rshade/greenledger/internal/goals"
)

func newGoalCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "goal", Short: "Reduction goal commands"}
	cmd.AddCommand(NewGoalCreateCmd(), NewGoalListCmd(), NewGoalEvaluateCmd())
	return cmd
}

// NewGoalCreateCmd creates the goal create command.
func NewGoalCreateCmd() *cobra.Command {
	var spec goals.Spec
	var timeframe, difficulty string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a reduction goal against the latest footprint",
		Long: `Creates a goal to reduce emissions by a percentage within a timeframe.
The user's latest recorded footprint becomes the baseline, so record one with
"footprint calc --user" first. --category limits the goal to one category.`,
		Example: `  greenledger goal create --user alice --target 20 --timeframe month --difficulty medium
  greenledger goal create --user alice --target 10 --category transport --title "Drive less"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if spec.UserID == "" {
				return newUsageError("--user is required")
			}
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			spec.Timeframe = goals.Timeframe(strings.ToLower(timeframe))
			spec.Difficulty = goals.Difficulty(strings.ToLower(difficulty))

			a, err := appFromCmd(cmd, appOptions{noCache: true})
			if err != nil {
				return err
			}
			g, err := a.engine.CreateGoal(cmd.Context(), spec)
			if err != nil {
				return err
			}
			if err := a.save(); err != nil {
				return err
			}

			if format == config.FormatJSON {
				return writeJSON(cmd.OutOrStdout(), g)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created goal %s: reduce %s by %g%% by %s\n",
				g.ID, g.Category, g.TargetReductionPct, g.Deadline.Format("2006-01-02"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&spec.UserID, "user", "u", "", "goal owner")
	cmd.Flags().StringVar(&spec.Title, "title", "", "short description")
	cmd.Flags().StringVar(&spec.Category, "category", "all", "category to reduce, or all")
	cmd.Flags().Float64Var(&spec.TargetReductionPct, "target", 0, "target reduction in percent")
	cmd.Flags().StringVar(&timeframe, "timeframe", string(goals.Month), "week, month, quarter or year")
	cmd.Flags().StringVar(&difficulty, "difficulty", string(goals.Medium), "easy, medium or hard")
	addOutputFlag(cmd)
	return cmd
}

// NewGoalListCmd creates the goal list command.
func NewGoalListCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's goals",
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

			gs := a.engine.Goals(userID)
			if format == config.FormatJSON {
				if gs == nil {
					gs = []goals.Goal{}
				}
				return writeJSON(cmd.OutOrStdout(), gs)
			}
			return newRenderer(cmd.OutOrStdout()).goals(gs, a.engine.Remaining)
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "goal owner")
	addOutputFlag(cmd)
	return cmd
}

// NewGoalEvaluateCmd creates the goal evaluate command.
func NewGoalEvaluateCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Update goal progress from the latest footprint",
		Long: `Measures every active goal against the user's latest footprint. Goals that
reach their target complete and credit the milestone reward for their
difficulty; goals past their deadline expire.`,
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

			updates, evalErr := a.engine.EvaluateGoals(cmd.Context(), userID)
			// Completed goals and their rewards are persisted even when a
			// later goal failed.
			if err := a.save(); err != nil {
				return err
			}
			if evalErr != nil {
				return evalErr
			}

			if format == config.FormatJSON {
				if updates == nil {
					updates = []engine.GoalUpdate{}
				}
				return writeJSON(cmd.OutOrStdout(), updates)
			}
			return renderGoalUpdates(cmd, updates, a.engine.Remaining)
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "goal owner")
	addOutputFlag(cmd)
	return cmd
}

func renderGoalUpdates(cmd *cobra.Command, updates []engine.GoalUpdate, remaining func(goals.Goal) time.Duration) error {
	r := newRenderer(cmd.OutOrStdout())
	gs := make([]goals.Goal, 0, len(updates))
	for _, u := range updates {
		gs = append(gs, u.Goal)
	}
	if err := r.goals(gs, remaining); err != nil {
		return err
	}
	for _, u := range updates {
		switch {
		case u.Completed:
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Goal %s completed, earned %d tokens\n", goalName(u.Goal), u.Reward)
		case u.Previous == goals.StateActive && u.Goal.State == goals.StateExpired:
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Goal %s expired at %.1f%%\n", goalName(u.Goal), u.Goal.Progress)
		}
	}
	return nil
}

func goalName(g goals.Goal) string {
	if g.Title != "" {
		return fmt.Sprintf("%q", g.Title)
	}
	return g.ID
}
