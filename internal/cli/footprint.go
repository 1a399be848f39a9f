package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rshade/greenledger/internal/activity"
	"github.com/rshade/greenledger/internal/advisor"
	"github.com/rshade/greenledger/internal/config"
	"github.com/rshade/greenledger/internal/engine"
	"github.com/rshade/greenledger/internal/footprint"
	"github.com/rshade/greenledger/internal/logging"
)

const defaultMaxTips = 3

func newFootprintCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "footprint", Short: "Footprint calculation commands"}
	cmd.AddCommand(NewFootprintCalcCmd(), NewFootprintTipsCmd())
	return cmd
}

// NewFootprintCalcCmd creates the footprint calc command.
func NewFootprintCalcCmd() *cobra.Command {
	var (
		inputs        []string
		sets          []string
		userID        string
		factorVersion string
		noCache       bool
	)

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate a carbon footprint from activity data",
		Long: `Calculates a footprint from a YAML or JSON activity file.

Activity files map categories to fields, for example:

  transport:
    car_distance: 500
    flight_hours: 2
  home:
    electricity_kwh: 300
    renewable_pct: 50

With --user the result is recorded in that user's history and becomes the
baseline for new goals. Several --input files are calculated concurrently.`,
		Example: `  # Calculate from a file
  greenledger footprint calc --input activity.yaml

  # Record the result for a user, as JSON
  greenledger footprint calc --input activity.yaml --user alice --output json

  # Inline values, shown in tonnes
  greenledger footprint calc --set transport.car_distance=100 --set home.renewable_pct=50 --unit t`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(inputs) == 0 && len(sets) == 0 {
				return newUsageError("either --input or --set is required")
			}
			if len(inputs) > 1 && len(sets) > 0 {
				return newUsageError("--set cannot be combined with multiple --input files")
			}
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			unit, err := unitFlag(cmd)
			if err != nil {
				return err
			}
			if factorVersion == "" {
				factorVersion = config.GetFactorVersion()
			}

			reqs, err := buildCalculateRequests(cmd.InOrStdin(), inputs, sets, userID, factorVersion)
			if err != nil {
				return err
			}

			a, err := appFromCmd(cmd, appOptions{noCache: noCache})
			if err != nil {
				return err
			}

			var results []footprint.Result
			if len(reqs) == 1 {
				res, calcErr := a.engine.Calculate(cmd.Context(), reqs[0])
				if calcErr != nil {
					return calcErr
				}
				results = []footprint.Result{res}
			} else if results, err = a.engine.CalculateBatch(cmd.Context(), reqs); err != nil {
				return err
			}

			if userID != "" {
				if err := a.save(); err != nil {
					return err
				}
			}
			return writeFootprints(cmd.OutOrStdout(), format, unit, results)
		},
	}

	cmd.Flags().StringSliceVarP(&inputs, "input", "i", nil, "activity file (YAML or JSON, - for stdin); repeatable")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "inline activity value category.field=value; repeatable")
	cmd.Flags().StringVarP(&userID, "user", "u", "", "record the result for this user")
	cmd.Flags().StringVar(&factorVersion, "factors", "", "factor table version or constraint (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the result cache")
	addUnitFlag(cmd)
	addOutputFlag(cmd)

	return cmd
}

// writeFootprints renders results. JSON always carries kg; unit applies to
// the table only.
func writeFootprints(w io.Writer, format, unit string, results []footprint.Result) error {
	if format == config.FormatJSON {
		if len(results) == 1 {
			return writeJSON(w, results[0])
		}
		return writeJSON(w, results)
	}
	r := newRenderer(w).withUnit(unit)
	for i, res := range results {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		if err := r.footprint(res); err != nil {
			return err
		}
	}
	return nil
}

// buildCalculateRequests loads every input file and applies --set values.
// With no files the --set values form the whole input.
func buildCalculateRequests(
	stdin io.Reader,
	inputs, sets []string,
	userID, factorVersion string,
) ([]engine.CalculateRequest, error) {
	if len(inputs) == 0 {
		in, err := applySets(activity.Input{}, sets)
		if err != nil {
			return nil, err
		}
		return []engine.CalculateRequest{{UserID: userID, Input: in, FactorVersion: factorVersion}}, nil
	}

	reqs := make([]engine.CalculateRequest, 0, len(inputs))
	for _, path := range inputs {
		in, err := loadActivityInput(stdin, path)
		if err != nil {
			return nil, err
		}
		if in, err = applySets(in, sets); err != nil {
			return nil, err
		}
		reqs = append(reqs, engine.CalculateRequest{UserID: userID, Input: in, FactorVersion: factorVersion})
	}
	return reqs, nil
}

// loadActivityInput reads an activity document. YAML is a superset of JSON,
// so both formats decode here.
func loadActivityInput(stdin io.Reader, path string) (activity.Input, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading activity input %s: %w", path, err)
	}

	var in activity.Input
	if err := yaml.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parsing activity input %s: %w", path, err)
	}
	if in == nil {
		in = activity.Input{}
	}
	return in, nil
}

func applySets(in activity.Input, sets []string) (activity.Input, error) {
	for _, kv := range sets {
		key, value, ok := strings.Cut(kv, "=")
		category, field, okKey := strings.Cut(key, ".")
		if !ok || !okKey || category == "" || field == "" {
			return nil, newUsageError("invalid --set %q, expected category.field=value", kv)
		}
		category = strings.TrimSpace(category)
		if in[category] == nil {
			in[category] = map[string]any{}
		}
		in[category][strings.TrimSpace(field)] = strings.TrimSpace(value)
	}
	return in, nil
}

// NewFootprintTipsCmd creates the footprint tips command.
func NewFootprintTipsCmd() *cobra.Command {
	var (
		userID  string
		maxTips int
	)

	cmd := &cobra.Command{
		Use:   "tips",
		Short: "Suggest reductions for the user's largest emission sources",
		Example: `  greenledger footprint tips --user alice
  greenledger footprint tips --user alice --max 5`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" {
				return newUsageError("--user is required")
			}
			a, err := appFromCmd(cmd, appOptions{noCache: true})
			if err != nil {
				return err
			}
			latest, ok := a.store.LatestFootprint(userID)
			if !ok {
				return fmt.Errorf("user %s: %w", userID, engine.ErrNoFootprint)
			}

			var gen advisor.TextGenerator = advisor.TemplateGenerator{}
			text, err := gen.Generate(cmd.Context(), advisor.Prompt{Footprint: latest, MaxTips: maxTips})
			if err != nil {
				var genErr *advisor.GenerationError
				if errors.As(err, &genErr) {
					logging.FromContext(cmd.Context()).Warn().
						Ctx(cmd.Context()).
						Str("generator", genErr.Generator).
						Err(genErr.Err).
						Msg("tip generation failed")
				}
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "user whose latest footprint is used")
	cmd.Flags().IntVar(&maxTips, "max", defaultMaxTips, "maximum number of tips")
	return cmd
}
