package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rshade/greenledger/internal/config"
	"github.com/rshade/greenledger/internal/engine/cache"
	"github.com/rshade/greenledger/internal/factors"
	"github.com/rshade/greenledger/internal/footprint"
	"github.com/rshade/greenledger/internal/goals"
	"github.com/rshade/greenledger/internal/greenops"
	"github.com/rshade/greenledger/internal/rewards"
	"github.com/rshade/greenledger/internal/trend"
)

// Rendering constants.
const (
	tabPadding         = 2
	shareBarWidth      = 20
	progressBarWidth   = 20
	progressFilledChar = "█"
	progressEmptyChar  = "░"
	maxPercentForBar   = 100
)

func titleColor() lipgloss.Color  { return lipgloss.Color("39") }
func mutedColor() lipgloss.Color  { return lipgloss.Color("240") }
func goodColor() lipgloss.Color   { return lipgloss.Color("42") }
func warnColor() lipgloss.Color   { return lipgloss.Color("214") }
func badColor() lipgloss.Color    { return lipgloss.Color("196") }
func accentColor() lipgloss.Color { return lipgloss.Color("33") }

// isWriterTerminal reports whether w is a terminal. Buffers used in tests
// are never terminals.
func isWriterTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isTerminal(f)
	}
	return false
}

// outputFormat returns --output when set, otherwise the configured default.
func outputFormat(cmd *cobra.Command) (string, error) {
	format := config.GetDefaultOutputFormat()
	if cmd.Flags().Changed("output") {
		format, _ = cmd.Flags().GetString("output")
	}
	format = strings.ToLower(format)
	switch format {
	case config.FormatTable, config.FormatJSON:
		return format, nil
	default:
		return "", newUsageError("unsupported output format %q (use %s or %s)", format, config.FormatTable, config.FormatJSON)
	}
}

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "output format: table or json (default from config)")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderer writes human-readable output, styled when writing to a terminal.
// Masses are stored in kg and shown in unit.
type renderer struct {
	w         io.Writer
	styled    bool
	precision int
	unit      string
}

func newRenderer(w io.Writer) *renderer {
	return &renderer{w: w, styled: isWriterTerminal(w), precision: config.GetOutputPrecision(), unit: defaultUnit}
}

// withUnit shows masses in unit, which must already be validated.
func (r *renderer) withUnit(unit string) *renderer {
	r.unit = unit
	return r
}

const defaultUnit = "kg"

func addUnitFlag(cmd *cobra.Command) {
	cmd.Flags().String("unit", defaultUnit, "display unit for emissions: g, kg, t or lb")
}

// unitFlag returns the --unit value in its short form, e.g. "tCO2e" becomes "t".
func unitFlag(cmd *cobra.Command) (string, error) {
	unit, _ := cmd.Flags().GetString("unit")
	unit = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(unit)), "co2e")
	if unit == "" {
		return defaultUnit, nil
	}
	if !greenops.IsRecognizedUnit(unit) {
		return "", newUsageError("unsupported unit %q (use g, kg, t or lb)", unit)
	}
	return unit, nil
}

func (r *renderer) title(s string) {
	if r.styled {
		_, _ = fmt.Fprintln(r.w, lipgloss.NewStyle().Bold(true).Foreground(titleColor()).Render(s))
		return
	}
	_, _ = fmt.Fprintln(r.w, s)
}

// mass formats kg in the renderer's unit with its label.
func (r *renderer) mass(kg float64) string {
	return r.amount(kg) + " " + r.unit + " CO2e"
}

// amount formats kg in the renderer's unit without a label.
func (r *renderer) amount(kg float64) string {
	v, err := greenops.ConvertFromKg(kg, r.unit)
	if err != nil {
		v = kg
	}
	return greenops.FormatFloat(v, r.precision)
}

func (r *renderer) colored(s string, c lipgloss.Color) string {
	if !r.styled {
		return s
	}
	return lipgloss.NewStyle().Foreground(c).Render(s)
}

func (r *renderer) bar(percent float64, width int, c lipgloss.Color) string {
	if !r.styled {
		return ""
	}
	p := min(max(percent, 0), maxPercentForBar)
	filled := int(p / maxPercentForBar * float64(width))
	return lipgloss.NewStyle().Foreground(c).Render(strings.Repeat(progressFilledChar, filled)) +
		lipgloss.NewStyle().Foreground(mutedColor()).Render(strings.Repeat(progressEmptyChar, width-filled))
}

func (r *renderer) table() *tabwriter.Writer {
	return tabwriter.NewWriter(r.w, 0, 0, tabPadding, ' ', 0)
}

// footprint renders a breakdown with its total and equivalencies.
func (r *renderer) footprint(res footprint.Result) error {
	r.title("CARBON FOOTPRINT")

	tw := r.table()
	_, _ = fmt.Fprintln(tw, "CATEGORY\tEMISSIONS\tSHARE\t")
	for _, s := range res.Breakdown {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s%%\t%s\n",
			s.Category, r.mass(s.Emissions), greenops.FormatFloat(s.Percentage, 1),
			r.bar(s.Percentage, shareBarWidth, accentColor()))
	}
	_, _ = fmt.Fprintf(tw, "TOTAL\t%s\t\t\n", r.mass(res.Total))
	if err := tw.Flush(); err != nil {
		return err
	}

	if eq, err := greenops.ForResult(res); err == nil && !eq.IsEmpty {
		_, _ = fmt.Fprintln(r.w, r.colored(eq.DisplayText, mutedColor()))
	}
	if trees := greenops.Offset(res.Total); trees > 0 {
		_, _ = fmt.Fprintf(r.w, "Offset: %s tree seedlings grown for 10 years\n", greenops.FormatNumber(trees))
	}
	_, _ = fmt.Fprintf(r.w, "Factor table %s, id %s\n", res.FactorVersion, res.ID)
	return nil
}

// trend renders a trend report.
func (r *renderer) trend(rep trend.Report) error {
	r.title("TREND")
	_, _ = fmt.Fprintf(r.w, "Current:  %s\n", r.mass(rep.CurrentTotal))
	if !rep.HasPrevious {
		_, _ = fmt.Fprintln(r.w, "No earlier footprint to compare against.")
	} else {
		_, _ = fmt.Fprintf(r.w, "Previous: %s\n", r.mass(rep.PreviousTotal))
		_, _ = fmt.Fprintf(r.w, "Change:   %s (%s%%) %s\n",
			signed(r.mass(rep.AbsoluteChange), rep.AbsoluteChange),
			signed(greenops.FormatFloat(rep.PercentChange, 1), rep.PercentChange),
			r.colored(string(rep.Direction), directionColor(rep.Direction)))

		tw := r.table()
		_, _ = fmt.Fprintf(tw, "CATEGORY\tPREVIOUS (%s)\tCURRENT (%s)\tCHANGE\n", r.unit, r.unit)
		for _, d := range rep.Categories {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s%%\n", d.Category,
				r.amount(d.Previous),
				r.amount(d.Current),
				signed(greenops.FormatFloat(d.PercentChange, 1), d.PercentChange))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if rep.Peer != nil {
		_, _ = fmt.Fprintf(r.w, "Peers:    %s (%s, %s)\n",
			r.mass(rep.Peer.PeerTotal),
			signed(r.mass(rep.Peer.Delta), rep.Peer.Delta),
			r.colored(string(rep.Peer.Standing), standingColor(rep.Peer.Standing)))
	}
	return nil
}

func signed(s string, v float64) string {
	if v > 0 {
		return "+" + s
	}
	return s
}

func directionColor(d trend.Direction) lipgloss.Color {
	switch d {
	case trend.DirectionDown:
		return goodColor()
	case trend.DirectionUp:
		return badColor()
	default:
		return mutedColor()
	}
}

func standingColor(s trend.Standing) lipgloss.Color {
	switch s {
	case trend.StandingBetter:
		return goodColor()
	case trend.StandingWorse:
		return badColor()
	default:
		return mutedColor()
	}
}

// balance renders an account summary.
func (r *renderer) balance(a rewards.Account, tier rewards.Tier) {
	r.title("REWARDS")
	_, _ = fmt.Fprintf(r.w, "User:    %s\n", a.UserID)
	_, _ = fmt.Fprintf(r.w, "Balance: %s tokens\n", greenops.FormatNumber(a.Balance))
	_, _ = fmt.Fprintf(r.w, "Earned:  %s tokens\n", greenops.FormatNumber(a.Earned))
	_, _ = fmt.Fprintf(r.w, "Tier:    %s\n", r.colored(tier.String(), goodColor()))
}

// history renders ledger transactions, oldest first.
func (r *renderer) history(a rewards.Account) error {
	tw := r.table()
	_, _ = fmt.Fprintln(tw, "TIME\tDELTA\tBALANCE\tREASON")
	for tx := range a.History() {
		_, _ = fmt.Fprintf(tw, "%s\t%+d\t%d\t%s\n",
			tx.At.Format("2006-01-02 15:04:05"), tx.Delta, tx.BalanceAfter, tx.Reason)
	}
	return tw.Flush()
}

// catalog renders catalog items, marking those the tier cannot redeem.
func (r *renderer) catalog(items []rewards.Item, tier *rewards.Tier) error {
	tw := r.table()
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tCOST\tMIN TIER")
	for _, it := range items {
		minTier := it.MinTier.String()
		if tier != nil && it.MinTier > *tier {
			minTier = r.colored(minTier+" (locked)", mutedColor())
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.ID, it.Name, greenops.FormatNumber(it.Cost), minTier)
	}
	return tw.Flush()
}

// goals renders goals with their progress. remaining gives the time left
// on an active goal.
func (r *renderer) goals(gs []goals.Goal, remaining func(goals.Goal) time.Duration) error {
	if len(gs) == 0 {
		_, _ = fmt.Fprintln(r.w, "No goals.")
		return nil
	}
	tw := r.table()
	_, _ = fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tTARGET\tPROGRESS\tSTATE\tDEADLINE\tLEFT")
	for _, g := range gs {
		left := "-"
		if g.State == goals.StateActive {
			left = cache.FormatDuration(remaining(g))
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s%%\t%s%% %s\t%s\t%s\t%s\n",
			g.ID, g.Title, g.Category,
			greenops.FormatFloat(g.TargetReductionPct, 1),
			greenops.FormatFloat(g.Progress, 1), r.bar(g.Progress, progressBarWidth, progressColor(g.Progress)),
			r.colored(string(g.State), stateColor(g.State)),
			g.Deadline.Format("2006-01-02"),
			left)
	}
	return tw.Flush()
}

func progressColor(p float64) lipgloss.Color {
	if p >= maxPercentForBar {
		return goodColor()
	}
	return warnColor()
}

func stateColor(s goals.State) lipgloss.Color {
	switch s {
	case goals.StateCompleted:
		return goodColor()
	case goals.StateExpired:
		return badColor()
	default:
		return accentColor()
	}
}

// factorTables renders registered factor tables.
func (r *renderer) factorTables(tables []factors.Table, latest string) error {
	tw := r.table()
	_, _ = fmt.Fprintln(tw, "VERSION\tCAR/MI\tFLIGHT/H\tTRANSIT/MI\tKWH\tGAS\tEXTENSIONS")
	for _, t := range tables {
		version := t.Version
		if version == latest {
			version += " (latest)"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%g\t%g\t%g\t%g\t%g\t%d\n", version,
			t.Transport.CarPerMile, t.Transport.FlightPerHour, t.Transport.TransitPerMile,
			t.Home.ElectricityPerKWh, t.Home.GasPerUnit, len(t.Linear))
	}
	return tw.Flush()
}
