package rules

import "github.com/ericogr/saga-combat/internal/game"

// --- Damage modifiers --------------------------------------------------

func sumEffects(list []game.Effect, types ...game.EffectType) int {
	total := 0
	for _, e := range list {
		if e.TurnsRemaining <= 0 {
			continue
		}
		for _, t := range types {
			if e.Type == t {
				total += e.Amount()
			}
		}
	}
	return total
}

// DamageModifier returns the additive modifier for a hit on targetID.
//
// When a party member attacks, the defender's damage_reduction lowers and
// its vulnerable raises the damage. When the enemy side attacks, party-wide
// concealment and shield, the enemy's own slow, the target's personal shields
// and the target's innate reduction all lower it.
func DamageModifier(state *game.CombatState, targetID string, attackerIsPlayer bool) int {
	if attackerIsPlayer {
		defender := state.Combatant(targetID)
		if defender == nil {
			defender = state.Enemy
		}
		if defender == nil {
			return 0
		}
		return sumEffects(defender.Effects, game.EffectVulnerable) -
			sumEffects(defender.Effects, game.EffectDamageReduction)
	}

	mod := -sumEffects(state.PartyEffects, game.EffectConcealment, game.EffectShield)
	if state.Enemy != nil {
		mod -= sumEffects(state.Enemy.Effects, game.EffectSlow)
	}
	if target := state.Combatant(targetID); target != nil && target.IsParty() {
		mod -= sumEffects(target.Effects, game.EffectShield, game.EffectStaticShield)
	}
	mod -= state.InnateReduction[targetID]
	return mod
}

// CalculateFinalDamage returns max(0, base+modifier).
func CalculateFinalDamage(base, modifier int) int {
	if d := base + modifier; d > 0 {
		return d
	}
	return 0
}
