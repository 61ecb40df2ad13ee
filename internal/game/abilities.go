package game

import "fmt"

// Targeting is the closed set of ways an ability picks its target.
type Targeting string

const (
	TargetSelf   Targeting = "self"
	TargetAlly   Targeting = "ally"
	TargetParty  Targeting = "party"
	TargetEnemy  Targeting = "enemy"
	TargetArea   Targeting = "area"
	TargetRandom Targeting = "random"
)

// ParseTargeting validates a raw targeting mode.
func ParseTargeting(s string) (Targeting, error) {
	switch t := Targeting(s); t {
	case TargetSelf, TargetAlly, TargetParty, TargetEnemy, TargetArea, TargetRandom:
		return t, nil
	}
	return "", fmt.Errorf("unknown targeting %q", s)
}

// Ability is static data describing an attack or ability. It is read-only
// to the combat core.
type Ability struct {
	ID         string      `json:"id" yaml:"id"`
	Name       string      `json:"name" yaml:"name"`
	Damage     int         `json:"damage,omitempty" yaml:"damage"`
	DamageType string      `json:"damage_type,omitempty" yaml:"damage_type"`
	Heal       int         `json:"heal,omitempty" yaml:"heal"`
	Effect     *EffectSpec `json:"effect,omitempty" yaml:"effect"`
	Cooldown   int         `json:"cooldown,omitempty" yaml:"cooldown"`
	// Uses limits how many times the ability can be used per combat; zero
	// means unlimited.
	Uses       int       `json:"uses,omitempty" yaml:"uses"`
	Targeting  Targeting `json:"targeting" yaml:"targeting"`
	Stat       string    `json:"stat,omitempty" yaml:"stat"`
	Difficulty string    `json:"difficulty,omitempty" yaml:"difficulty"`
}

// DealsDamage reports whether the ability carries base damage.
func (a Ability) DealsDamage() bool { return a.Damage > 0 }

// Label returns the display name, falling back to the id.
func (a Ability) Label() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

// TriggerKind enumerates special-ability triggers.
type TriggerKind string

const TriggerHealthBelow TriggerKind = "health_below"

// Trigger fires a special once its condition is met.
type Trigger struct {
	Kind TriggerKind `json:"kind" yaml:"kind"`
	// Threshold is a fraction of max health in (0,1].
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

// SpecialKind enumerates what a threshold special does.
type SpecialKind string

const (
	SpecialDamageReduction SpecialKind = "damage_reduction"
	SpecialTransform       SpecialKind = "transform"
)

// Special is an enemy ability fired by a trigger at most once per combat.
type Special struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Trigger     Trigger     `json:"trigger" yaml:"trigger"`
	Kind        SpecialKind `json:"kind" yaml:"kind"`
	Reduction   int         `json:"reduction,omitempty" yaml:"reduction"`
	Duration    int         `json:"duration,omitempty" yaml:"duration"`
	MaxHealthUp int         `json:"max_health_up,omitempty" yaml:"max_health_up"`
	HealAmount  int         `json:"heal,omitempty" yaml:"heal"`
	Announce    string      `json:"announce,omitempty" yaml:"announce"`
}

// CompanionDescriptor defines an enemy's companion unit.
type CompanionDescriptor struct {
	ID        string         `json:"id" yaml:"id"`
	Name      string         `json:"name" yaml:"name"`
	MaxHealth int            `json:"max_health" yaml:"max_health"`
	Stats     map[string]int `json:"stats" yaml:"stats"`
	Attacks   []Ability      `json:"attacks" yaml:"attacks"`
}

// EnemyDescriptor is static content for an encounter's enemy.
type EnemyDescriptor struct {
	ID              string               `json:"id" yaml:"id"`
	Name            string               `json:"name" yaml:"name"`
	MaxHealth       int                  `json:"max_health" yaml:"max_health"`
	Stats           map[string]int       `json:"stats" yaml:"stats"`
	InitiativeBonus int                  `json:"initiative_bonus" yaml:"initiative_bonus"`
	Attacks         []Ability            `json:"attacks" yaml:"attacks"`
	OpeningMove     string               `json:"opening_move,omitempty" yaml:"opening_move"`
	Specials        []Special            `json:"specials,omitempty" yaml:"specials"`
	Companion       *CompanionDescriptor `json:"companion,omitempty" yaml:"companion"`
	Hints           []string             `json:"hints,omitempty" yaml:"hints"`
}

// NewEnemy instantiates the enemy combatant at full health.
func (d EnemyDescriptor) NewEnemy() *Combatant {
	c := &Combatant{
		ID:            d.ID,
		Name:          d.Name,
		Kind:          KindEnemy,
		Stats:         copyStats(d.Stats),
		CurrentHealth: d.MaxHealth,
		MaxHealth:     d.MaxHealth,
		Abilities:     append([]Ability(nil), d.Attacks...),
	}
	c.RefreshStatus()
	return c
}

// NewCompanion instantiates the companion, or nil when none is defined.
func (d EnemyDescriptor) NewCompanion() *Combatant {
	if d.Companion == nil {
		return nil
	}
	cd := d.Companion
	c := &Combatant{
		ID:            cd.ID,
		Name:          cd.Name,
		Kind:          KindCompanion,
		Stats:         copyStats(cd.Stats),
		CurrentHealth: cd.MaxHealth,
		MaxHealth:     cd.MaxHealth,
		Abilities:     append([]Ability(nil), cd.Attacks...),
	}
	c.RefreshStatus()
	return c
}

func copyStats(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
