// Package effects is the ledger of timed status effects. Effects live on
// each combatant and on the party as a whole; all mutation goes through the
// functions in this package.
package effects

import "github.com/ericogr/saga-combat/internal/game"

// ApplyTo attaches an effect built from spec to target. A nil target is a
// no-op so callers can pass unresolved targets through.
func ApplyTo(target *game.Combatant, spec game.EffectSpec, source string) *game.Effect {
	if target == nil {
		return nil
	}
	target.Effects = append(target.Effects, spec.Instantiate(source))
	return &target.Effects[len(target.Effects)-1]
}

// ApplyToParty attaches a party-wide effect.
func ApplyToParty(state *game.CombatState, spec game.EffectSpec, source string) game.Effect {
	e := spec.Instantiate(source)
	state.PartyEffects = append(state.PartyEffects, e)
	return e
}

// Tick runs the round boundary: every effect loses one turn and expired ones
// are dropped, then every running cooldown decreases by one.
func Tick(state *game.CombatState) {
	for _, c := range state.Party {
		c.Effects = tickList(c.Effects)
	}
	if state.Enemy != nil {
		state.Enemy.Effects = tickList(state.Enemy.Effects)
	}
	if state.Companion != nil {
		state.Companion.Effects = tickList(state.Companion.Effects)
	}
	state.PartyEffects = tickList(state.PartyEffects)

	for id, cd := range state.Cooldowns {
		if cd <= 1 {
			delete(state.Cooldowns, id)
			continue
		}
		state.Cooldowns[id] = cd - 1
	}
}

func tickList(list []game.Effect) []game.Effect {
	out := list[:0]
	for _, e := range list {
		e.TurnsRemaining--
		if e.TurnsRemaining > 0 {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// HasEffect reports whether target carries an active effect of type t.
func HasEffect(target *game.Combatant, t game.EffectType) bool {
	if target == nil {
		return false
	}
	return has(target.Effects, t)
}

// HasPartyEffect reports whether a party-wide effect of type t is active.
func HasPartyEffect(state *game.CombatState, t game.EffectType) bool {
	return has(state.PartyEffects, t)
}

func has(list []game.Effect, t game.EffectType) bool {
	for _, e := range list {
		if e.Type == t && e.TurnsRemaining > 0 {
			return true
		}
	}
	return false
}

// Remove drops every effect of type t from target and reports whether any
// was removed.
func Remove(target *game.Combatant, t game.EffectType) bool {
	return len(Take(target, t)) > 0
}

// Take drops every effect of type t from target and returns the dropped
// entries.
func Take(target *game.Combatant, t game.EffectType) []game.Effect {
	if target == nil {
		return nil
	}
	var taken []game.Effect
	out := target.Effects[:0]
	for _, e := range target.Effects {
		if e.Type == t {
			taken = append(taken, e)
			continue
		}
		out = append(out, e)
	}
	target.Effects = out
	return taken
}

// ConsumeMark removes the first mark on the enemy and returns its bonus
// damage, or 0 when the enemy is unmarked.
func ConsumeMark(state *game.CombatState) int {
	if state.Enemy == nil {
		return 0
	}
	for i, e := range state.Enemy.Effects {
		if e.Type != game.EffectMark {
			continue
		}
		state.Enemy.Effects = append(state.Enemy.Effects[:i], state.Enemy.Effects[i+1:]...)
		return e.Magnitude
	}
	return 0
}

func sum(list []game.Effect, t game.EffectType) int {
	total := 0
	for _, e := range list {
		if e.Type == t && e.TurnsRemaining > 0 {
			total += e.Amount()
		}
	}
	return total
}

// AccuracyBonus sums party-wide and character accuracy boosts.
func AccuracyBonus(state *game.CombatState, characterID string) int {
	total := sum(state.PartyEffects, game.EffectAccuracyBoost)
	if c := state.Combatant(characterID); c != nil {
		total += sum(c.Effects, game.EffectAccuracyBoost)
	}
	return total
}

// HasteBonus sums party-wide and character haste.
func HasteBonus(state *game.CombatState, characterID string) int {
	total := sum(state.PartyEffects, game.EffectHaste)
	if c := state.Combatant(characterID); c != nil {
		total += sum(c.Effects, game.EffectHaste)
	}
	return total
}

// Taunter returns the first active party member carrying taunt.
func Taunter(state *game.CombatState) *game.Combatant {
	for _, c := range state.ActiveParty() {
		if has(c.Effects, game.EffectTaunt) {
			return c
		}
	}
	return nil
}
