package battle

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// MoveID is the catalog key of a player move.
type MoveID string

const (
	MoveSquat MoveID = "squat"
	MoveLunge MoveID = "lunge"
	MovePlank MoveID = "plank"
	MoveTPose MoveID = "tpose"
)

// requiredMoves is the fixed set of keys every catalog must define, in menu order.
var requiredMoves = []MoveID{MoveSquat, MoveLunge, MovePlank, MoveTPose}

// EffectKind selects how a move resolves.
type EffectKind string

const (
	EffectDamage       EffectKind = "damage"
	EffectDefenseBoost EffectKind = "defense_boost"
	EffectConfuse      EffectKind = "confuse"
)

// DamageRange is an inclusive integer range.
type DamageRange struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// roll draws uniformly from the range.
func (r DamageRange) roll(rng RNG) int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Intn(r.Max-r.Min+1)
}

// Boost configures a defense boost effect.
type Boost struct {
	Turns      int     `yaml:"turns" json:"turns"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
}

// Move is an immutable catalog entry.
type Move struct {
	ID     MoveID       `yaml:"id" json:"id"`
	Name   string       `yaml:"name" json:"name"`
	Pose   string       `yaml:"pose" json:"pose"`
	Effect EffectKind   `yaml:"effect" json:"effect"`
	Damage *DamageRange `yaml:"damage,omitempty" json:"damage,omitempty"`
	Boost  *Boost       `yaml:"boost,omitempty" json:"boost,omitempty"`
}

// Instruction is the prompt shown while the move waits for its pose.
func (m Move) Instruction() string {
	return fmt.Sprintf("Perform a %s to execute %s!", strings.ToUpper(m.Pose), m.Name)
}

type catalogFile struct {
	Moves []Move `yaml:"moves"`
	Enemy struct {
		Moves  []string    `yaml:"moves"`
		Damage DamageRange `yaml:"damage"`
	} `yaml:"enemy"`
}

// Catalog is the static move table. It is never mutated after loading.
type Catalog struct {
	moves       map[MoveID]Move
	enemyMoves  []string
	enemyDamage DamageRange
}

// ErrInvalidCatalog is returned when a catalog document fails validation.
var ErrInvalidCatalog = errors.New("invalid move catalog")

// ParseCatalog decodes and validates a YAML catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc catalogFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse move catalog: %w", err)
	}

	c := &Catalog{
		moves:       make(map[MoveID]Move, len(doc.Moves)),
		enemyMoves:  doc.Enemy.Moves,
		enemyDamage: doc.Enemy.Damage,
	}
	for _, m := range doc.Moves {
		if _, dup := c.moves[m.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate move %q", ErrInvalidCatalog, m.ID)
		}
		if err := validateMove(m); err != nil {
			return nil, err
		}
		c.moves[m.ID] = m
	}
	if len(c.moves) != len(requiredMoves) {
		return nil, fmt.Errorf("%w: expected %d moves, got %d", ErrInvalidCatalog, len(requiredMoves), len(c.moves))
	}
	for _, id := range requiredMoves {
		if _, ok := c.moves[id]; !ok {
			return nil, fmt.Errorf("%w: missing move %q", ErrInvalidCatalog, id)
		}
	}
	if len(c.enemyMoves) == 0 {
		return nil, fmt.Errorf("%w: enemy needs at least one move", ErrInvalidCatalog)
	}
	if c.enemyDamage.Min < 0 || c.enemyDamage.Min > c.enemyDamage.Max {
		return nil, fmt.Errorf("%w: bad enemy damage range %d..%d", ErrInvalidCatalog, c.enemyDamage.Min, c.enemyDamage.Max)
	}
	return c, nil
}

func validateMove(m Move) error {
	if m.Name == "" || m.Pose == "" {
		return fmt.Errorf("%w: move %q needs a name and a pose", ErrInvalidCatalog, m.ID)
	}
	switch m.Effect {
	case EffectDamage:
		if m.Damage == nil || m.Damage.Min < 0 || m.Damage.Min > m.Damage.Max {
			return fmt.Errorf("%w: damage move %q needs a valid damage range", ErrInvalidCatalog, m.ID)
		}
	case EffectDefenseBoost:
		if m.Damage != nil {
			return fmt.Errorf("%w: status move %q cannot deal damage", ErrInvalidCatalog, m.ID)
		}
		if m.Boost == nil || m.Boost.Turns <= 0 || m.Boost.Multiplier <= 0 || m.Boost.Multiplier >= 1 {
			return fmt.Errorf("%w: defense move %q needs turns > 0 and a multiplier in (0,1)", ErrInvalidCatalog, m.ID)
		}
	case EffectConfuse:
		if m.Damage != nil {
			return fmt.Errorf("%w: status move %q cannot deal damage", ErrInvalidCatalog, m.ID)
		}
	default:
		return fmt.Errorf("%w: move %q has unknown effect %q", ErrInvalidCatalog, m.ID, m.Effect)
	}
	return nil
}

// LoadCatalog reads a catalog file from fs.
func LoadCatalog(fs afero.Fs, path string) (*Catalog, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read move catalog: %w", err)
	}
	return ParseCatalog(data)
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(err)
	}
	return c
})

// DefaultCatalog returns the embedded catalog. It panics if the embedded document is broken.
func DefaultCatalog() *Catalog {
	return defaultCatalog()
}

// Lookup finds a move by id.
func (c *Catalog) Lookup(id MoveID) (Move, bool) {
	m, ok := c.moves[id]
	return m, ok
}

// Moves lists the player moves in menu order.
func (c *Catalog) Moves() []Move {
	out := make([]Move, 0, len(requiredMoves))
	for _, id := range requiredMoves {
		out = append(out, c.moves[id])
	}
	return out
}

// EnemyMoves returns the cosmetic enemy move labels.
func (c *Catalog) EnemyMoves() []string {
	return append([]string(nil), c.enemyMoves...)
}

// EnemyDamage returns the shared enemy base damage range.
func (c *Catalog) EnemyDamage() DamageRange {
	return c.enemyDamage
}
