package topicmgr

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Manager validates topics and keeps them in a Registry.
type Manager struct {
	registry  *Registry
	validator *Validator
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{registry: NewRegistry(), validator: NewValidator()}
}

// DefineFramework declares a framework topic.
func DefineFramework(cfg TopicConfig) Topic {
	cfg.Scope = ScopeFramework
	cfg.Module = ""
	return newTopic(cfg)
}

// DefineModule declares a topic owned by cfg.Module.
func DefineModule(cfg TopicConfig) Topic {
	cfg.Scope = ScopeModule
	return newTopic(cfg)
}

// Register validates and stores topic.
func (m *Manager) Register(topic Topic) error {
	if err := m.validator.ValidateDefinition(topic); err != nil {
		te := &TopicError{Type: ErrorValidationFailed, Message: "topic validation failed", Cause: err}
		if topic != nil {
			te.Topic, te.Module = topic.Name(), topic.Module()
		}
		return te
	}
	return m.registry.Register(topic)
}

// MustRegister registers topics and panics on the first error.
func (m *Manager) MustRegister(topics ...Topic) {
	for _, topic := range topics {
		if err := m.Register(topic); err != nil {
			panic(fmt.Sprintf("failed to register topic %s: %v", topic.Name(), err))
		}
	}
}

// Get looks a topic up by name.
func (m *Manager) Get(name string) (Topic, bool) {
	return m.registry.Get(name)
}

// Require returns the named topic or a TopicError.
func (m *Manager) Require(name string) (Topic, error) {
	topic, ok := m.registry.Get(name)
	if !ok {
		return nil, &TopicError{Type: ErrorTopicNotFound, Topic: name, Message: fmt.Sprintf("topic not found: %s", name)}
	}
	return topic, nil
}

// List returns every topic sorted by name.
func (m *Manager) List() []Topic {
	return m.registry.Filter(nil)
}

// ListByModule returns the topics owned by module.
func (m *Manager) ListByModule(module string) []Topic {
	return m.registry.Filter(func(t Topic) bool { return t.Module() == module })
}

// ListByScope returns the topics of one scope.
func (m *Manager) ListByScope(scope TopicScope) []Topic {
	return m.registry.Filter(func(t Topic) bool { return t.Scope() == scope })
}

// FindTopics matches names against pattern. A trailing "*" matches any suffix.
func (m *Manager) FindTopics(pattern string) []Topic {
	return m.registry.Filter(func(t Topic) bool { return matchesPattern(t.Name(), pattern) })
}

// ListModules returns the names of modules that own topics.
func (m *Manager) ListModules() []string {
	seen := make(map[string]bool)
	for _, t := range m.ListByScope(ScopeModule) {
		seen[t.Module()] = true
	}
	modules := make([]string, 0, len(seen))
	for name := range seen {
		modules = append(modules, name)
	}
	sort.Strings(modules)
	return modules
}

// Stats summarises the registered topics.
func (m *Manager) Stats() RegistryStats {
	return m.registry.Stats()
}

// Reset drops every topic. Tests only.
func (m *Manager) Reset() {
	m.registry.Reset()
}

func matchesPattern(name, pattern string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(name, prefix)
	}
	return name == pattern
}

var defaultManager = sync.OnceValue(NewManager)

// Default returns the process-wide manager that package-level topics register with.
func Default() *Manager {
	return defaultManager()
}
