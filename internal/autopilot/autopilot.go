// Package autopilot plays battles headlessly with a scripted strategy.
package autopilot

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/nfrund/exerbeasts/internal/battle"
	"github.com/nfrund/exerbeasts/internal/script"
	"github.com/spf13/afero"
)

//go:embed strategy.tengo
var defaultStrategy string

// Pilot picks moves by running a tengo strategy against the battle snapshot.
type Pilot struct {
	engine  *script.TengoEngine
	program *script.Program
	catalog *battle.Catalog
}

func inputs(s battle.Snapshot) map[string]interface{} {
	return map[string]interface{}{
		"player_hp":      s.Player.HP,
		"enemy_hp":       s.Enemy.HP,
		"max_hp":         s.Player.MaxHP,
		"enemy_confused": s.Enemy.Confused,
		"defense_turns":  s.Player.DefenseBoostTurns,
		"turn":           s.TurnCount,
	}
}

// New compiles a strategy. An empty source uses the embedded default.
func New(engine *script.TengoEngine, catalog *battle.Catalog, name, source string) (*Pilot, error) {
	if source == "" {
		name, source = "default", defaultStrategy
	}
	if catalog == nil {
		catalog = battle.DefaultCatalog()
	}
	zero := battle.Snapshot{Player: battle.Combatant{MaxHP: battle.DefaultMaxHP}}
	program, err := engine.Compile(script.Script{Name: name, Content: source}, inputs(zero))
	if err != nil {
		return nil, err
	}
	return &Pilot{engine: engine, program: program, catalog: catalog}, nil
}

// Load compiles the strategy stored at path on fs.
func Load(engine *script.TengoEngine, catalog *battle.Catalog, fs afero.Fs, path string) (*Pilot, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read strategy: %w", err)
	}
	return New(engine, catalog, path, string(data))
}

// Decide returns the strategy's move for s.
func (p *Pilot) Decide(ctx context.Context, s battle.Snapshot) (battle.Move, error) {
	out, err := p.engine.Run(ctx, p.program, inputs(s))
	if err != nil {
		return battle.Move{}, err
	}
	id, ok := out.Result.(string)
	if !ok {
		return battle.Move{}, script.NewScriptError(script.ErrorTypeResult, p.program.Name(), fmt.Sprintf("result must be a move id string, got %T", out.Result), nil)
	}
	mv, ok := p.catalog.Lookup(battle.MoveID(id))
	if !ok {
		return battle.Move{}, script.NewScriptError(script.ErrorTypeResult, p.program.Name(), fmt.Sprintf("unknown move %q", id), battle.ErrUnknownMove)
	}
	return mv, nil
}
