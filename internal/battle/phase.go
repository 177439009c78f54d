package battle

// Phase is a named state of the battle state machine.
type Phase string

const (
	PhaseMenuSelection   Phase = "menu-selection"
	PhaseAwaitingPose    Phase = "awaiting-pose"
	PhaseResolvingPlayer Phase = "resolving-player-move"
	PhaseEnemyTurn       Phase = "enemy-turn"
	PhaseVictory         Phase = "victory"
	PhaseDefeat          Phase = "defeat"
)

// Terminal reports whether the phase is absorbing.
func (p Phase) Terminal() bool {
	return p == PhaseVictory || p == PhaseDefeat
}

// InputEnabled is derived from the phase and is never toggled on its own.
func (p Phase) InputEnabled() bool {
	return p == PhaseMenuSelection
}

// Side identifies one of the two combatants.
type Side string

const (
	SidePlayer Side = "player"
	SideEnemy  Side = "enemy"
)

// Combatant holds the mutable stats of one side of the battle.
type Combatant struct {
	HP                int     `json:"hp"`
	MaxHP             int     `json:"max_hp"`
	DefenseMultiplier float64 `json:"defense_multiplier"`
	DefenseBoostTurns int     `json:"defense_boost_turns"`
	Confused          bool    `json:"confused"`
}

func newCombatant(maxHP int) Combatant {
	return Combatant{
		HP:                maxHP,
		MaxHP:             maxHP,
		DefenseMultiplier: 1.0,
	}
}

// Fainted reports whether the combatant has no hp left.
func (c Combatant) Fainted() bool {
	return c.HP <= 0
}

// HealthTier buckets remaining hp for display.
type HealthTier string

const (
	HealthHigh HealthTier = "high"
	HealthMid  HealthTier = "mid"
	HealthLow  HealthTier = "low"
)

// Tier returns high above 60% of max hp, mid above 30%, low otherwise.
func (c Combatant) Tier() HealthTier {
	if c.MaxHP <= 0 {
		return HealthLow
	}
	pct := float64(c.HP) / float64(c.MaxHP)
	switch {
	case pct > 0.6:
		return HealthHigh
	case pct > 0.3:
		return HealthMid
	default:
		return HealthLow
	}
}

// takeDamage subtracts n from hp, clamped at zero.
func (c *Combatant) takeDamage(n int) {
	if n < 0 {
		n = 0
	}
	c.HP -= n
	if c.HP < 0 {
		c.HP = 0
	}
}

// mitigate applies an active defense boost to incoming damage and ticks it down.
// The multiplier returns to 1.0 on the tick that reaches zero.
func (c *Combatant) mitigate(damage int) int {
	if c.DefenseBoostTurns <= 0 {
		return damage
	}
	damage = int(float64(damage) * c.DefenseMultiplier)
	c.DefenseBoostTurns--
	if c.DefenseBoostTurns == 0 {
		c.DefenseMultiplier = 1.0
	}
	return damage
}
