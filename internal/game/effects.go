package game

import "fmt"

// EffectType is the closed set of timed status modifiers.
type EffectType string

const (
	EffectRestrain        EffectType = "restrain"
	EffectMark            EffectType = "mark"
	EffectShield          EffectType = "shield"
	EffectConcealment     EffectType = "concealment"
	EffectSlow            EffectType = "slow"
	EffectDamageReduction EffectType = "damage_reduction"
	EffectAccuracyBoost   EffectType = "accuracy_boost"
	EffectVulnerable      EffectType = "vulnerable"
	EffectHaste           EffectType = "haste"
	EffectStun            EffectType = "stun"
	EffectTaunt           EffectType = "taunt"
	EffectStaticShield    EffectType = "static_shield"
)

var effectTypes = map[EffectType]struct{}{
	EffectRestrain: {}, EffectMark: {}, EffectShield: {}, EffectConcealment: {},
	EffectSlow: {}, EffectDamageReduction: {}, EffectAccuracyBoost: {},
	EffectVulnerable: {}, EffectHaste: {}, EffectStun: {}, EffectTaunt: {},
	EffectStaticShield: {},
}

// ParseEffectType validates a raw effect name.
func ParseEffectType(s string) (EffectType, error) {
	t := EffectType(s)
	if _, ok := effectTypes[t]; !ok {
		return "", fmt.Errorf("unknown effect type %q", s)
	}
	return t, nil
}

// Effect is a timed modifier attached to a combatant or to the whole party.
type Effect struct {
	Type EffectType `json:"type"`
	// Magnitude is the reduction, bonus or mark damage carried by the
	// effect. Zero means a unit effect.
	Magnitude      int    `json:"magnitude,omitempty"`
	TurnsRemaining int    `json:"turns_remaining"`
	Source         string `json:"source,omitempty"`
}

// Amount returns the magnitude used when summing modifiers.
func (e Effect) Amount() int {
	if e.Magnitude == 0 {
		return 1
	}
	return e.Magnitude
}

// EffectSpec describes an effect an ability or special applies. Duration
// defaults to one round. OnSelf attaches the effect to the user instead of
// the ability's targets.
type EffectSpec struct {
	Type      EffectType `json:"type" yaml:"type"`
	Magnitude int        `json:"magnitude,omitempty" yaml:"magnitude"`
	Duration  int        `json:"duration,omitempty" yaml:"duration"`
	OnSelf    bool       `json:"on_self,omitempty" yaml:"on_self"`
}

// Instantiate builds a live effect from the spec.
func (s EffectSpec) Instantiate(source string) Effect {
	turns := s.Duration
	if turns <= 0 {
		turns = 1
	}
	return Effect{Type: s.Type, Magnitude: s.Magnitude, TurnsRemaining: turns, Source: source}
}
