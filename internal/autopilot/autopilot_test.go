package autopilot

import (
	"context"
	"errors"
	"testing"

	"github.com/nfrund/exerbeasts/internal/battle"
	"github.com/nfrund/exerbeasts/internal/script"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// topRNG always rolls the maximum.
type topRNG struct{}

func (topRNG) Intn(n int) int { return n - 1 }

func newEngine() *script.TengoEngine {
	return script.NewTengoEngine(script.DefaultSecurityLimits(), nil)
}

func TestPilot_Decide(t *testing.T) {
	p, err := New(newEngine(), nil, "", "")
	require.NoError(t, err)

	tests := []struct {
		name string
		snap battle.Snapshot
		want battle.MoveID
	}{
		{
			name: "finisher",
			snap: battle.Snapshot{Player: battle.Combatant{HP: 10, MaxHP: 100}, Enemy: battle.Combatant{HP: 20, MaxHP: 100}},
			want: battle.MoveSquat,
		},
		{
			name: "defend when low",
			snap: battle.Snapshot{Player: battle.Combatant{HP: 30, MaxHP: 100}, Enemy: battle.Combatant{HP: 90, MaxHP: 100}},
			want: battle.MovePlank,
		},
		{
			name: "boost already active",
			snap: battle.Snapshot{Player: battle.Combatant{HP: 30, MaxHP: 100, DefenseBoostTurns: 1}, Enemy: battle.Combatant{HP: 90, MaxHP: 100}},
			want: battle.MoveLunge,
		},
		{
			name: "intimidate on odd turns",
			snap: battle.Snapshot{Player: battle.Combatant{HP: 50, MaxHP: 100}, Enemy: battle.Combatant{HP: 90, MaxHP: 100}, TurnCount: 3},
			want: battle.MoveTPose,
		},
		{
			name: "no intimidate while confused",
			snap: battle.Snapshot{Player: battle.Combatant{HP: 50, MaxHP: 100}, Enemy: battle.Combatant{HP: 90, MaxHP: 100, Confused: true}, TurnCount: 3},
			want: battle.MoveLunge,
		},
		{
			name: "healthy",
			snap: battle.Snapshot{Player: battle.Combatant{HP: 100, MaxHP: 100}, Enemy: battle.Combatant{HP: 100, MaxHP: 100}},
			want: battle.MoveLunge,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mv, err := p.Decide(context.Background(), tt.snap)
			require.NoError(t, err)
			assert.Equal(t, tt.want, mv.ID)
		})
	}
}

func TestPilot_BadResult(t *testing.T) {
	tests := []struct {
		name   string
		source string
		cause  error
	}{
		{"unknown move", `result := "burpee"`, battle.ErrUnknownMove},
		{"not a string", `result := 5`, nil},
		{"unset", `x := 1`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(newEngine(), nil, "bad", tt.source)
			require.NoError(t, err)

			_, err = p.Decide(context.Background(), battle.Snapshot{})
			var se *script.ScriptError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, script.ErrorTypeResult, se.Type)
			if tt.cause != nil {
				assert.ErrorIs(t, err, tt.cause)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/strategies/plank.tengo", []byte(`result := "plank"`), 0o644))

	p, err := Load(newEngine(), nil, fs, "/strategies/plank.tengo")
	require.NoError(t, err)
	mv, err := p.Decide(context.Background(), battle.Snapshot{})
	require.NoError(t, err)
	assert.Equal(t, battle.MovePlank, mv.ID)

	_, err = Load(newEngine(), nil, fs, "/strategies/missing.tengo")
	assert.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "/strategies/broken.tengo", []byte(`result := (`), 0o644))
	_, err = Load(newEngine(), nil, fs, "/strategies/broken.tengo")
	var se *script.ScriptError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, script.ErrorTypeCompilation, se.Type)
}

func TestSimulate(t *testing.T) {
	t.Run("squats to victory", func(t *testing.T) {
		p, err := New(newEngine(), nil, "squat", `result := "squat"`)
		require.NoError(t, err)

		res, err := Simulate(context.Background(), p, Options{RNG: topRNG{}})
		require.NoError(t, err)
		assert.Equal(t, battle.PhaseVictory, res.Outcome)
		require.Len(t, res.Turns, 5)
		assert.Equal(t, Turn{Number: 1, Move: battle.MoveSquat, PlayerHP: 76, EnemyHP: 80}, res.Turns[0])
		assert.Equal(t, Turn{Number: 5, Move: battle.MoveSquat, PlayerHP: 4, EnemyHP: 0}, res.Turns[4])
		assert.Equal(t, "Enemy fainted! You win!", res.Log[len(res.Log)-1])
	})

	t.Run("turn limit", func(t *testing.T) {
		p, err := New(newEngine(), nil, "stall", `result := "tpose"`)
		require.NoError(t, err)

		res, err := Simulate(context.Background(), p, Options{RNG: topRNG{}, MaxTurns: 3})
		assert.ErrorIs(t, err, ErrTurnLimit)
		require.NotNil(t, res)
		assert.Len(t, res.Turns, 3)
		assert.Equal(t, battle.PhaseMenuSelection, res.Outcome)
		assert.Equal(t, 100, res.Turns[2].PlayerHP)
	})

	t.Run("default strategy finishes", func(t *testing.T) {
		p, err := New(newEngine(), nil, "", "")
		require.NoError(t, err)

		res, err := Simulate(context.Background(), p, Options{RNG: topRNG{}})
		require.NoError(t, err)
		assert.True(t, res.Outcome.Terminal())
		assert.NotEmpty(t, res.Turns)
	})

	t.Run("cancelled", func(t *testing.T) {
		p, err := New(newEngine(), nil, "", "")
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = Simulate(ctx, p, Options{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
