package topics

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/nfrund/exerbeasts/internal/topicmgr"
)

// TopicDisplay represents a topic for display purposes
type TopicDisplay struct {
	Name        string                 `json:"name"`
	Scope       string                 `json:"scope"`
	Module      string                 `json:"module"`
	Description string                 `json:"description"`
	Pattern     string                 `json:"pattern"`
	Example     string                 `json:"example"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

func toDisplay(topic topicmgr.Topic) TopicDisplay {
	return TopicDisplay{
		Name:        topic.Name(),
		Scope:       string(topic.Scope()),
		Module:      topic.Module(),
		Description: topic.Description(),
		Pattern:     topic.Pattern(),
		Example:     topic.Example(),
		Metadata:    topic.Metadata(),
	}
}

// SortByName orders topics alphabetically in place.
func SortByName(topics []topicmgr.Topic) {
	sort.Slice(topics, func(i, j int) bool { return topics[i].Name() < topics[j].Name() })
}

// DisplayTopicsTable writes topics as an aligned table.
func DisplayTopicsTable(w io.Writer, topics []topicmgr.Topic) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "NAME\tSCOPE\tMODULE\tDESCRIPTION\tEXAMPLE")
	fmt.Fprintln(tw, "----\t-----\t------\t-----------\t-------")
	for _, topic := range topics {
		module := topic.Module()
		if module == "" {
			module = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			topic.Name(),
			topic.Scope(),
			module,
			truncateString(topic.Description(), 40),
			truncateString(topic.Example(), 30))
	}
	return tw.Flush()
}

// DisplayTopicsJSON writes topics with a count as indented JSON.
func DisplayTopicsJSON(w io.Writer, topics []topicmgr.Topic) error {
	out := struct {
		Topics []TopicDisplay `json:"topics"`
		Count  int            `json:"count"`
	}{
		Topics: make([]TopicDisplay, 0, len(topics)),
		Count:  len(topics),
	}
	for _, topic := range topics {
		out.Topics = append(out.Topics, toDisplay(topic))
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// DisplayTopicDetails writes everything known about one topic.
func DisplayTopicDetails(w io.Writer, topic topicmgr.Topic, format string) error {
	if format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(toDisplay(topic))
	}

	module := topic.Module()
	if module == "" {
		module = "(framework)"
	}
	fmt.Fprintf(w, "Name:        %s\n", topic.Name())
	fmt.Fprintf(w, "Scope:       %s\n", topic.Scope())
	fmt.Fprintf(w, "Module:      %s\n", module)
	fmt.Fprintf(w, "Description: %s\n", topic.Description())
	fmt.Fprintf(w, "Pattern:     %s\n", topic.Pattern())
	if topic.Example() != "" {
		fmt.Fprintf(w, "Example:     %s\n", topic.Example())
	}

	metadata := topic.Metadata()
	if len(metadata) > 0 {
		keys := make([]string, 0, len(metadata))
		for k := range metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(w, "Metadata:")
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %v\n", k, metadata[k])
		}
	}
	return nil
}

// truncateString truncates a string to maxLen characters, adding "..." if truncated
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
