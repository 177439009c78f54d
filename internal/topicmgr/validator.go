package topicmgr

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	topicNamePattern  = regexp.MustCompile(`^[a-z][a-z0-9]*(\.[a-z][a-z0-9]*)*$`)
	moduleNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

	reservedPrefixes  = []string{"system.", "internal.", "debug."}
	frameworkPrefixes = []string{"ws.", "server."}
)

// Validator checks topic declarations.
type Validator struct{}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateDefinition checks the name, description and scope rules of a topic.
func (v *Validator) ValidateDefinition(topic Topic) error {
	if topic == nil {
		return fmt.Errorf("topic cannot be nil")
	}
	if err := v.ValidateName(topic.Name()); err != nil {
		return fmt.Errorf("invalid topic name: %w", err)
	}
	if strings.TrimSpace(topic.Description()) == "" {
		return fmt.Errorf("topic description cannot be empty")
	}

	switch topic.Scope() {
	case ScopeFramework:
		if topic.Module() != "" {
			return fmt.Errorf("framework topics should not have a module")
		}
		if !hasAnyPrefix(topic.Name(), frameworkPrefixes) {
			return fmt.Errorf("framework topic must start with one of %v", frameworkPrefixes)
		}
	case ScopeModule:
		module := topic.Module()
		if len(module) > 50 || !moduleNamePattern.MatchString(module) {
			return fmt.Errorf("invalid module name %q", module)
		}
	default:
		return fmt.Errorf("invalid topic scope: %s", topic.Scope())
	}
	return nil
}

// ValidateName checks the dotted lowercase naming convention.
func (v *Validator) ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("name cannot be empty")
	case len(name) > 100:
		return fmt.Errorf("name too long (max 100 characters)")
	case !topicNamePattern.MatchString(name):
		return fmt.Errorf("name must be lowercase dot-separated segments")
	case hasAnyPrefix(name, reservedPrefixes):
		return fmt.Errorf("name uses a reserved prefix")
	}
	return nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
