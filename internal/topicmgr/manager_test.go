package topicmgr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Register(t *testing.T) {
	m := NewManager()

	ready := DefineFramework(TopicConfig{Name: "ws.client.ready", Module: "ignored", Description: "client ready"})
	hp := DefineModule(TopicConfig{Name: "battle.event.hp", Module: "battle", Description: "hp changed"})
	require.NoError(t, m.Register(ready))
	require.NoError(t, m.Register(hp))

	assert.Empty(t, ready.Module())
	assert.Equal(t, "battle.event.hp", hp.Pattern())

	err := m.Register(hp)
	var te *TopicError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, ErrorDuplicateRegistration, te.Type)

	got, ok := m.Get("battle.event.hp")
	require.True(t, ok)
	assert.Equal(t, ScopeModule, got.Scope())

	_, err = m.Require("battle.event.missing")
	require.True(t, errors.As(err, &te))
	assert.Equal(t, ErrorTopicNotFound, te.Type)
}

func TestManager_Validation(t *testing.T) {
	m := NewManager()
	tests := []struct {
		name  string
		topic Topic
	}{
		{"uppercase", DefineModule(TopicConfig{Name: "Battle.Event", Module: "battle", Description: "x"})},
		{"reserved", DefineModule(TopicConfig{Name: "debug.battle", Module: "battle", Description: "x"})},
		{"no description", DefineModule(TopicConfig{Name: "battle.event.x", Module: "battle"})},
		{"framework prefix", DefineFramework(TopicConfig{Name: "battle.event.x", Description: "x"})},
		{"module name", DefineModule(TopicConfig{Name: "battle.event.x", Module: "Battle", Description: "x"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.Register(tt.topic)
			var te *TopicError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, ErrorValidationFailed, te.Type)
		})
	}
	assert.Zero(t, m.Stats().TotalTopics)
}

func TestManager_Discovery(t *testing.T) {
	m := NewManager()
	m.MustRegister(
		DefineFramework(TopicConfig{Name: "ws.client.ready", Description: "ready"}),
		DefineModule(TopicConfig{Name: "battle.event.text", Module: "battle", Description: "text"}),
		DefineModule(TopicConfig{Name: "battle.client.select", Module: "battle", Description: "select"}),
		DefineModule(TopicConfig{Name: "voice.command", Module: "voice", Description: "voice"}),
	)

	names := func(ts []Topic) []string {
		out := make([]string, 0, len(ts))
		for _, t := range ts {
			out = append(out, t.Name())
		}
		return out
	}

	assert.Equal(t, []string{"battle.client.select", "battle.event.text", "voice.command", "ws.client.ready"}, names(m.List()))
	assert.Equal(t, []string{"battle.client.select", "battle.event.text"}, names(m.ListByModule("battle")))
	assert.Equal(t, []string{"ws.client.ready"}, names(m.ListByScope(ScopeFramework)))
	assert.Equal(t, []string{"battle.event.text"}, names(m.FindTopics("battle.event.*")))
	assert.Equal(t, []string{"battle", "voice"}, m.ListModules())

	stats := m.Stats()
	assert.Equal(t, 4, stats.TotalTopics)
	assert.Equal(t, 1, stats.FrameworkTopics)
	assert.Equal(t, 2, stats.ModuleBreakdown["battle"])

	assert.Panics(t, func() {
		m.MustRegister(DefineModule(TopicConfig{Name: "battle.event.text", Module: "battle", Description: "dup"}))
	})
}
