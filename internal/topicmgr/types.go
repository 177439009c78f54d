package topicmgr

import "maps"

// Topic describes one bus topic.
type Topic interface {
	Name() string
	// Module is empty for framework topics.
	Module() string
	Description() string
	Pattern() string
	Example() string
	Metadata() map[string]interface{}
	Scope() TopicScope
}

// TopicScope separates framework topics from module topics.
type TopicScope string

const (
	ScopeFramework TopicScope = "framework"
	ScopeModule    TopicScope = "module"
)

// TopicConfig is the declaration of a topic.
type TopicConfig struct {
	Name        string                 `json:"name"`
	Module      string                 `json:"module"`
	Scope       TopicScope             `json:"scope"`
	Description string                 `json:"description"`
	Pattern     string                 `json:"pattern"`
	Example     string                 `json:"example"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// TypedTopic is the Topic built from a TopicConfig.
type TypedTopic struct {
	cfg TopicConfig
}

var _ Topic = (*TypedTopic)(nil)

func newTopic(cfg TopicConfig) *TypedTopic {
	if cfg.Pattern == "" {
		cfg.Pattern = cfg.Name
	}
	return &TypedTopic{cfg: cfg}
}

func (t *TypedTopic) Name() string        { return t.cfg.Name }
func (t *TypedTopic) Module() string      { return t.cfg.Module }
func (t *TypedTopic) Description() string { return t.cfg.Description }
func (t *TypedTopic) Pattern() string     { return t.cfg.Pattern }
func (t *TypedTopic) Example() string     { return t.cfg.Example }
func (t *TypedTopic) Scope() TopicScope   { return t.cfg.Scope }
func (t *TypedTopic) String() string      { return t.cfg.Name }

// Metadata returns a copy of the topic metadata.
func (t *TypedTopic) Metadata() map[string]interface{} {
	out := make(map[string]interface{}, len(t.cfg.Metadata))
	maps.Copy(out, t.cfg.Metadata)
	return out
}

// ErrorType classifies a TopicError.
type ErrorType string

const (
	ErrorTopicNotFound         ErrorType = "topic_not_found"
	ErrorDuplicateRegistration ErrorType = "duplicate_registration"
	ErrorValidationFailed      ErrorType = "validation_failed"
)

// TopicError is returned by registry operations.
type TopicError struct {
	Type    ErrorType `json:"type"`
	Topic   string    `json:"topic"`
	Module  string    `json:"module"`
	Message string    `json:"message"`
	Cause   error     `json:"cause,omitempty"`
}

func (e *TopicError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *TopicError) Unwrap() error {
	return e.Cause
}
