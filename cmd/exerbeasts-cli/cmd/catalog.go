package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/nfrund/exerbeasts/internal/battle"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Show or validate a move catalog",
		Long: `A move catalog binds each menu move to the pose that confirms it and the
effect it has. The server embeds a default catalog; BATTLE_CATALOG points it at
a YAML file instead.

Examples:
  exerbeasts-cli catalog show
  exerbeasts-cli catalog show --file ./catalog.yaml --format yaml
  exerbeasts-cli catalog validate ./catalog.yaml`,
	}
	cmd.AddCommand(newCatalogShowCmd(), newCatalogValidateCmd())
	return cmd
}

// loadCatalog reads path from appFs, or returns the embedded catalog for "".
func loadCatalog(path string) (*battle.Catalog, error) {
	if path == "" {
		return battle.DefaultCatalog(), nil
	}
	return battle.LoadCatalog(appFs, path)
}

func newCatalogShowCmd() *cobra.Command {
	var file, format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the moves of a catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog(file)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch format {
			case "table":
				return printCatalogTable(out, c)
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(c.Moves())
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(map[string]any{"moves": c.Moves()}); err != nil {
					return err
				}
				return enc.Close()
			default:
				return fmt.Errorf("unsupported output format '%s'. Use 'table', 'json' or 'yaml'", format)
			}
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Catalog file (default: embedded catalog)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json, yaml)")
	return cmd
}

func printCatalogTable(w io.Writer, c *battle.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPOSE\tEFFECT\tDETAIL")
	for _, m := range c.Moves() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", m.ID, m.Name, m.Pose, m.Effect, effectDetail(m))
	}
	dmg := c.EnemyDamage()
	fmt.Fprintf(tw, "enemy\t%v\t-\tdamage\t%d-%d\n", c.EnemyMoves(), dmg.Min, dmg.Max)
	return tw.Flush()
}

func effectDetail(m battle.Move) string {
	switch {
	case m.Damage != nil && m.Damage.Min == m.Damage.Max:
		return fmt.Sprintf("%d", m.Damage.Min)
	case m.Damage != nil:
		return fmt.Sprintf("%d-%d", m.Damage.Min, m.Damage.Max)
	case m.Boost != nil:
		return fmt.Sprintf("x%.2g for %d turns", m.Boost.Multiplier, m.Boost.Turns)
	default:
		return "-"
	}
}

func newCatalogValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <path>",
		Short: "Check that a catalog file loads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCatalog(args[0])
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "❌ Catalog validation failed: %v\n", err)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Catalog '%s' is valid (%d moves, %d enemy moves)\n", args[0], len(c.Moves()), len(c.EnemyMoves()))
			return nil
		},
	}
}
