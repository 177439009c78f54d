package cmd

import (
	"fmt"
	"strings"

	"github.com/nfrund/exerbeasts/cmd/exerbeasts-cli/internal/topics"
	"github.com/nfrund/exerbeasts/internal/topicmgr"
	"github.com/spf13/cobra"
)

func newTopicsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "Explore the registered bus topics",
		Long: `The topics command lists the topics the server registers on its message bus.
Framework topics carry websocket traffic; module topics carry battle events and
client commands.

Examples:
  # List all topics
  exerbeasts-cli topics list

  # List the battle module topics as JSON
  exerbeasts-cli topics list --module battle --format json

  # Show one topic
  exerbeasts-cli topics get battle.event.text`,
	}
	cmd.AddCommand(newTopicsListCmd(), newTopicsGetCmd())
	return cmd
}

func newTopicsListCmd() *cobra.Command {
	var format, module, scope string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all registered topics",
		Long: `List all topics currently registered, sorted by name.

Output formats:
  table - Human-readable table format (default)
  json  - Machine-readable JSON format with metadata`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := topics.Initialize()
			if err != nil {
				return fmt.Errorf("failed to initialize topics: %w", err)
			}

			var wantScope topicmgr.TopicScope
			if scope != "" {
				if wantScope = parseScope(scope); wantScope == "" {
					return fmt.Errorf("invalid scope '%s'. Valid scopes: framework, module", scope)
				}
			}

			var list []topicmgr.Topic
			for _, topic := range manager.List() {
				if module != "" && topic.Module() != module {
					continue
				}
				if wantScope != "" && topic.Scope() != wantScope {
					continue
				}
				list = append(list, topic)
			}
			topics.SortByName(list)

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				return topics.DisplayTopicsJSON(out, list)
			case "table":
				if len(list) == 0 {
					fmt.Fprintln(out, noTopicsMessage(module, scope))
					return nil
				}
				return topics.DisplayTopicsTable(out, list)
			default:
				return fmt.Errorf("unsupported output format '%s'. Use 'table' or 'json'", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json)")
	cmd.Flags().StringVarP(&module, "module", "m", "", "Filter topics by module name")
	cmd.Flags().StringVarP(&scope, "scope", "s", "", "Filter topics by scope (framework, module)")
	return cmd
}

func newTopicsGetCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "get <topic-name>",
		Short: "Get detailed information about a specific topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := topics.Initialize()
			if err != nil {
				return fmt.Errorf("failed to initialize topics: %w", err)
			}
			topic, err := manager.Require(args[0])
			if err != nil {
				return fmt.Errorf("%w\n\nUse 'exerbeasts-cli topics list' to see all available topics", err)
			}
			return topics.DisplayTopicDetails(cmd.OutOrStdout(), topic, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json)")
	return cmd
}

func noTopicsMessage(module, scope string) string {
	var filters []string
	if module != "" {
		filters = append(filters, fmt.Sprintf("module '%s'", module))
	}
	if scope != "" {
		filters = append(filters, fmt.Sprintf("scope '%s'", scope))
	}
	if len(filters) == 0 {
		return "No topics found"
	}
	return "No topics found matching: " + strings.Join(filters, ", ")
}

// parseScope converts string scope to topicmgr.TopicScope
func parseScope(scope string) topicmgr.TopicScope {
	switch strings.ToLower(scope) {
	case "framework":
		return topicmgr.ScopeFramework
	case "module":
		return topicmgr.ScopeModule
	default:
		return ""
	}
}
