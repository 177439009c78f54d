package topicmgr

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// RegistryEntry is a registered topic.
type RegistryEntry struct {
	Topic        Topic     `json:"topic"`
	RegisteredAt time.Time `json:"registered_at"`
}

// RegistryStats summarises the registry.
type RegistryStats struct {
	TotalTopics     int            `json:"total_topics"`
	FrameworkTopics int            `json:"framework_topics"`
	ModuleTopics    int            `json:"module_topics"`
	ModuleBreakdown map[string]int `json:"module_breakdown"`
}

// Registry stores topics by name.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]RegistryEntry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]RegistryEntry)}
}

// Register adds topic. Names are unique.
func (r *Registry) Register(topic Topic) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := topic.Name()
	if _, exists := r.entries[name]; exists {
		return &TopicError{
			Type:    ErrorDuplicateRegistration,
			Topic:   name,
			Module:  topic.Module(),
			Message: fmt.Sprintf("topic already registered: %s", name),
		}
	}
	r.entries[name] = RegistryEntry{Topic: topic, RegisteredAt: time.Now()}
	return nil
}

// Get looks a topic up by name.
func (r *Registry) Get(name string) (Topic, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	return entry.Topic, ok
}

// Filter returns the topics keep accepts, sorted by name.
func (r *Registry) Filter(keep func(Topic) bool) []Topic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]Topic, 0, len(r.entries))
	for _, entry := range r.entries {
		if keep == nil || keep(entry.Topic) {
			topics = append(topics, entry.Topic)
		}
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Name() < topics[j].Name() })
	return topics
}

// Count returns the number of topics.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Reset drops every topic.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]RegistryEntry)
}

// Stats counts topics per scope and module.
func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RegistryStats{TotalTopics: len(r.entries), ModuleBreakdown: make(map[string]int)}
	for _, entry := range r.entries {
		switch entry.Topic.Scope() {
		case ScopeFramework:
			stats.FrameworkTopics++
		case ScopeModule:
			stats.ModuleTopics++
			stats.ModuleBreakdown[entry.Topic.Module()]++
		}
	}
	return stats
}
