package battle

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

// DefaultMaxHP is the starting and maximum hp of both combatants.
const DefaultMaxHP = 100

const (
	textTurnStart   = "What will you do?"
	textPoseTimeout = "No pose detected in time. What will you do?"
)

// RNG is the randomness the engine needs. *rand.Rand satisfies it.
type RNG interface {
	Intn(n int) int
}

// Config holds the presentation delays between automatic transitions.
// A zero delay runs the next step immediately. A zero PoseTimeout waits forever.
type Config struct {
	ConfirmDelay time.Duration
	EnemyDelay   time.Duration
	TurnEndDelay time.Duration
	PoseTimeout  time.Duration
	MaxHP        int
}

// DefaultConfig returns the timings the browser client is tuned for.
func DefaultConfig() Config {
	return Config{
		ConfirmDelay: time.Second,
		EnemyDelay:   2 * time.Second,
		TurnEndDelay: 2 * time.Second,
		PoseTimeout:  30 * time.Second,
		MaxHP:        DefaultMaxHP,
	}
}

// Dependencies are the collaborators of an Engine. Nil fields get defaults.
type Dependencies struct {
	Catalog   *Catalog
	Scheduler Scheduler
	RNG       RNG
	Presenter Presenter
	Logger    *slog.Logger
}

// Snapshot is a read-only copy of the battle aggregate.
type Snapshot struct {
	Phase        Phase     `json:"phase"`
	Player       Combatant `json:"player"`
	Enemy        Combatant `json:"enemy"`
	PendingMove  MoveID    `json:"pending_move,omitempty"`
	RequiredPose string    `json:"required_pose,omitempty"`
	TurnCount    int       `json:"turn_count"`
	InputEnabled bool      `json:"input_enabled"`
	Text         string    `json:"text"`
}

type battleState struct {
	phase        Phase
	player       Combatant
	enemy        Combatant
	pending      *Move
	resolving    *Move
	requiredPose string
	turn         int
	text         string
}

// Engine owns one battle. All operations are serialized; events produced by an
// operation reach the presenter in order once the state lock is released.
type Engine struct {
	mu     sync.Mutex
	emitMu sync.Mutex

	cfg       Config
	catalog   *Catalog
	sched     Scheduler
	rng       RNG
	presenter Presenter
	logger    *slog.Logger

	st     battleState
	epoch  uint64
	seq    uint64
	outbox []Event

	timers    map[uint64]Timer
	nextTimer uint64
	poseTimer uint64
}

// NewEngine creates an engine with a fresh battle in MenuSelection.
func NewEngine(cfg Config, deps Dependencies) *Engine {
	if cfg.MaxHP <= 0 {
		cfg.MaxHP = DefaultMaxHP
	}
	e := &Engine{
		cfg:       cfg,
		catalog:   deps.Catalog,
		sched:     deps.Scheduler,
		rng:       deps.RNG,
		presenter: deps.Presenter,
		logger:    deps.Logger,
		timers:    make(map[uint64]Timer),
	}
	if e.catalog == nil {
		e.catalog = DefaultCatalog()
	}
	if e.sched == nil {
		e.sched = ClockScheduler{}
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.presenter == nil {
		e.presenter = discardPresenter{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.st = e.freshState()
	return e
}

func (e *Engine) freshState() battleState {
	return battleState{
		phase:  PhaseMenuSelection,
		player: newCombatant(e.cfg.MaxHP),
		enemy:  newCombatant(e.cfg.MaxHP),
		text:   textTurnStart,
	}
}

// Catalog returns the move table the engine resolves against.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// SelectMove starts waiting for the pose bound to id. It is only legal in
// MenuSelection; any other phase returns ErrRejectedTransition without changing state.
func (e *Engine) SelectMove(id MoveID) error {
	e.mu.Lock()
	if e.st.phase != PhaseMenuSelection {
		err := e.reject("select", id, ErrRejectedTransition)
		e.mu.Unlock()
		return err
	}
	mv, ok := e.catalog.Lookup(id)
	if !ok {
		err := e.reject("select", id, ErrUnknownMove)
		e.mu.Unlock()
		return err
	}

	e.st.pending = &mv
	e.st.requiredPose = mv.Pose
	e.setPhase(PhaseAwaitingPose)
	e.say(mv.Instruction())
	if e.cfg.PoseTimeout > 0 {
		e.poseTimer = e.schedule(e.cfg.PoseTimeout, PhaseAwaitingPose, e.poseTimedOut)
	}
	e.commit()
	return nil
}

// OnPoseSample feeds one classifier sample. It reports whether the sample
// confirmed the pending move. Samples outside AwaitingPose are ignored.
func (e *Engine) OnPoseSample(label string, confidence float64) bool {
	e.mu.Lock()
	if e.st.phase != PhaseAwaitingPose || !PoseAccepted(e.st.requiredPose, label, confidence) {
		e.mu.Unlock()
		return false
	}

	// Latch before anything else so later samples in the same tick are ignored.
	e.st.resolving = e.st.pending
	e.st.pending = nil
	e.st.requiredPose = ""
	e.setPhase(PhaseResolvingPlayer)
	e.stopTimer(e.poseTimer)
	e.poseTimer = 0

	e.say(fmt.Sprintf("Perfect %s! Executing attack...", label))
	e.after(e.cfg.ConfirmDelay, PhaseResolvingPlayer, e.executePendingMove)
	e.commit()
	return true
}

// Reset starts a new battle from any phase and cancels every scheduled transition.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.stopAll()
	e.st = e.freshState()
	e.advance()

	e.emit(Event{Kind: EventPhase, Phase: e.st.phase})
	e.emit(Event{Kind: EventInput, InputEnabled: e.st.phase.InputEnabled()})
	e.reportHP(SidePlayer)
	e.reportHP(SideEnemy)
	e.say(textTurnStart)
	e.commit()
}

// Close cancels scheduled transitions. The engine must not be used afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopAll()
	e.advance()
}

// Snapshot returns a copy of the current battle.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Snapshot{
		Phase:        e.st.phase,
		Player:       e.st.player,
		Enemy:        e.st.enemy,
		RequiredPose: e.st.requiredPose,
		TurnCount:    e.st.turn,
		InputEnabled: e.st.phase.InputEnabled(),
		Text:         e.st.text,
	}
	if e.st.pending != nil {
		s.PendingMove = e.st.pending.ID
	}
	return s
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.phase
}

func (e *Engine) executePendingMove() {
	mv := e.st.resolving
	e.st.resolving = nil
	if mv == nil {
		return
	}

	switch mv.Effect {
	case EffectDamage:
		dmg := mv.Damage.roll(e.rng)
		e.st.enemy.takeDamage(dmg)
		e.say(fmt.Sprintf("You used %s! Enemy took %d damage!", mv.Name, dmg))
		e.reportHP(SideEnemy)
	case EffectDefenseBoost:
		e.st.player.DefenseBoostTurns = mv.Boost.Turns
		e.st.player.DefenseMultiplier = mv.Boost.Multiplier
		e.say(fmt.Sprintf("You used %s! Defense increased!", mv.Name))
	case EffectConfuse:
		e.st.enemy.Confused = true
		e.say(fmt.Sprintf("You used %s! Enemy is confused!", mv.Name))
	}

	if e.st.enemy.Fainted() {
		e.setPhase(PhaseVictory)
		e.say("Enemy fainted! You win!")
		return
	}
	e.setPhase(PhaseEnemyTurn)
	e.after(e.cfg.EnemyDelay, PhaseEnemyTurn, e.enemyTurnStep)
}

func (e *Engine) enemyTurnStep() {
	// The enemy acts once per EnemyTurn; a repeated callback sees a newer epoch.
	e.advance()

	if e.st.enemy.Confused {
		e.st.enemy.Confused = false
		e.say("Enemy's attack missed due to confusion!")
	} else {
		moves := e.catalog.enemyMoves
		name := moves[e.rng.Intn(len(moves))]
		dmg := e.st.player.mitigate(e.catalog.enemyDamage.roll(e.rng))
		e.st.player.takeDamage(dmg)
		e.say(fmt.Sprintf("Enemy used %s! You took %d damage!", name, dmg))
		e.reportHP(SidePlayer)

		if e.st.player.Fainted() {
			e.setPhase(PhaseDefeat)
			e.say("You fainted! Enemy wins!")
			return
		}
	}
	e.after(e.cfg.TurnEndDelay, PhaseEnemyTurn, e.turnEnd)
}

func (e *Engine) turnEnd() {
	e.st.turn++
	e.setPhase(PhaseMenuSelection)
	e.say(textTurnStart)
}

func (e *Engine) poseTimedOut() {
	e.poseTimer = 0
	e.st.pending = nil
	e.st.requiredPose = ""
	e.setPhase(PhaseMenuSelection)
	e.say(textPoseTimeout)
}

// setPhase records a transition and emits the derived input state when it flips.
func (e *Engine) setPhase(p Phase) {
	wasEnabled := e.st.phase.InputEnabled()
	e.st.phase = p
	e.advance()
	e.logger.Debug("battle phase changed", "phase", p, "turn", e.st.turn)

	e.emit(Event{Kind: EventPhase, Phase: p})
	if enabled := p.InputEnabled(); enabled != wasEnabled {
		e.emit(Event{Kind: EventInput, InputEnabled: enabled})
	}
}

// advance invalidates every callback scheduled before it.
func (e *Engine) advance() {
	e.epoch++
}

func (e *Engine) say(text string) {
	e.st.text = text
	e.emit(Event{Kind: EventText, Text: text})
}

func (e *Engine) reportHP(side Side) {
	c := e.st.player
	if side == SideEnemy {
		c = e.st.enemy
	}
	e.emit(Event{Kind: EventHP, Who: side, HP: c.HP, MaxHP: c.MaxHP})
}

func (e *Engine) emit(ev Event) {
	e.seq++
	ev.Seq = e.seq
	e.outbox = append(e.outbox, ev)
}

// commit releases the state lock and delivers the events of the finished operation.
// emitMu is taken before mu is released so streams from consecutive operations never interleave.
func (e *Engine) commit() {
	events := e.outbox
	e.outbox = nil
	e.emitMu.Lock()
	e.mu.Unlock()
	defer e.emitMu.Unlock()

	for _, ev := range events {
		e.presenter.Present(ev)
	}
}

func (e *Engine) reject(op string, id MoveID, cause error) error {
	err := &RejectionError{Op: op, Phase: e.st.phase, Move: id, Err: cause}
	e.logger.Debug("battle operation rejected", "op", op, "move", id, "phase", e.st.phase, "error", cause)
	return err
}

// after runs step now when d is zero, otherwise schedules it.
func (e *Engine) after(d time.Duration, expect Phase, step func()) {
	if d <= 0 {
		step()
		return
	}
	e.schedule(d, expect, step)
}

func (e *Engine) schedule(d time.Duration, expect Phase, step func()) uint64 {
	e.nextTimer++
	id := e.nextTimer
	epoch := e.epoch
	e.timers[id] = e.sched.AfterFunc(d, func() {
		e.fire(id, epoch, expect, step)
	})
	return id
}

// fire runs a scheduled step only if nothing happened to the battle since it was scheduled.
func (e *Engine) fire(id, epoch uint64, expect Phase, step func()) {
	e.mu.Lock()
	delete(e.timers, id)
	if e.epoch != epoch || e.st.phase != expect {
		e.mu.Unlock()
		return
	}
	step()
	e.commit()
}

func (e *Engine) stopTimer(id uint64) {
	if t, ok := e.timers[id]; ok {
		t.Stop()
		delete(e.timers, id)
	}
}

func (e *Engine) stopAll() {
	for id, t := range e.timers {
		t.Stop()
		delete(e.timers, id)
	}
	e.poseTimer = 0
}
