package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"text/tabwriter"
	"time"

	"github.com/nfrund/exerbeasts/internal/autopilot"
	"github.com/nfrund/exerbeasts/internal/script"
	"github.com/spf13/cobra"
)

func newSimulateCmd() *cobra.Command {
	var (
		strategy   string
		catalog    string
		seed       int64
		maxTurns   int
		confidence float64
		format     string
		showLog    bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play a headless battle with a scripted strategy",
		Long: `simulate runs one battle without a camera. A tengo script picks every move
and each pick is confirmed with a matching pose sample. Without --strategy the
built-in strategy plays.

The script sees player_hp, enemy_hp, max_hp, enemy_confused, defense_turns and
turn, and must set result to a move id.

Examples:
  exerbeasts-cli simulate --seed 42
  exerbeasts-cli simulate --strategy ./aggressive.tengo --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog(catalog)
			if err != nil {
				return err
			}

			engine := script.NewTengoEngine(script.DefaultSecurityLimits(), nil)
			var pilot *autopilot.Pilot
			if strategy == "" {
				pilot, err = autopilot.New(engine, c, "", "")
			} else {
				pilot, err = autopilot.Load(engine, c, appFs, strategy)
			}
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("seed") {
				seed = time.Now().UnixNano()
			}
			res, err := autopilot.Simulate(cmd.Context(), pilot, autopilot.Options{
				Catalog:    c,
				RNG:        rand.New(rand.NewSource(seed)),
				MaxTurns:   maxTurns,
				Confidence: confidence,
			})
			if err != nil && !errors.Is(err, autopilot.ErrTurnLimit) {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(res); encErr != nil {
					return encErr
				}
			case "table":
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "TURN\tMOVE\tPLAYER HP\tENEMY HP")
				for _, t := range res.Turns {
					fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n", t.Number, t.Move, t.PlayerHP, t.EnemyHP)
				}
				if flushErr := tw.Flush(); flushErr != nil {
					return flushErr
				}
				if showLog {
					fmt.Fprintln(out)
					for _, line := range res.Log {
						fmt.Fprintln(out, line)
					}
				}
				fmt.Fprintf(out, "\nOutcome: %s after %d turns (seed %d)\n", res.Outcome, len(res.Turns), seed)
			default:
				return fmt.Errorf("unsupported output format '%s'. Use 'table' or 'json'", format)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&strategy, "strategy", "", "Tengo strategy file (default: built-in)")
	cmd.Flags().StringVar(&catalog, "catalog", "", "Catalog file (default: embedded catalog)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (default: current time)")
	cmd.Flags().IntVar(&maxTurns, "max-turns", 100, "Give up after this many turns")
	cmd.Flags().Float64Var(&confidence, "confidence", 0.95, "Confidence reported with every pose sample")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json)")
	cmd.Flags().BoolVar(&showLog, "log", false, "Print the battle messages")
	return cmd
}
