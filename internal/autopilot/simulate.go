package autopilot

import (
	"context"
	"errors"
	"math/rand"

	"github.com/nfrund/exerbeasts/internal/battle"
)

// Turn is one player move of a simulated battle.
type Turn struct {
	Number   int           `json:"number"`
	Move     battle.MoveID `json:"move"`
	PlayerHP int           `json:"player_hp"`
	EnemyHP  int           `json:"enemy_hp"`
}

// Result summarizes a simulated battle.
type Result struct {
	Outcome battle.Phase `json:"outcome"`
	Turns   []Turn       `json:"turns"`
	Log     []string     `json:"log"`
}

// Options configures Simulate.
type Options struct {
	Catalog  *battle.Catalog
	RNG      battle.RNG
	MaxTurns int
	// Confidence is reported with every pose sample.
	Confidence float64
}

// ErrTurnLimit is returned when neither side fainted within MaxTurns.
var ErrTurnLimit = errors.New("turn limit reached")

// Simulate plays one battle to the end. Every selected move is confirmed by a
// matching pose sample and all delays collapse to zero.
func Simulate(ctx context.Context, pilot *Pilot, opts Options) (*Result, error) {
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = 100
	}
	if opts.Confidence == 0 {
		opts.Confidence = 0.95
	}
	if opts.RNG == nil {
		opts.RNG = rand.New(rand.NewSource(rand.Int63()))
	}

	rec := &battle.Recorder{}
	sched := battle.NewManualScheduler()
	e := battle.NewEngine(battle.Config{MaxHP: battle.DefaultMaxHP}, battle.Dependencies{
		Catalog:   opts.Catalog,
		Scheduler: sched,
		RNG:       opts.RNG,
		Presenter: rec,
	})
	defer e.Close()

	res := &Result{}
	for n := 1; n <= opts.MaxTurns; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snap := e.Snapshot()
		if snap.Phase.Terminal() {
			break
		}

		mv, err := pilot.Decide(ctx, snap)
		if err != nil {
			return nil, err
		}
		if err := e.SelectMove(mv.ID); err != nil {
			return nil, err
		}
		if !e.OnPoseSample(mv.Pose, opts.Confidence) {
			return nil, errors.New("pose sample was not accepted")
		}
		sched.RunAll(16)

		after := e.Snapshot()
		res.Turns = append(res.Turns, Turn{Number: n, Move: mv.ID, PlayerHP: after.Player.HP, EnemyHP: after.Enemy.HP})
	}

	res.Outcome = e.Phase()
	res.Log = rec.Texts()
	if !res.Outcome.Terminal() {
		return res, ErrTurnLimit
	}
	return res, nil
}
