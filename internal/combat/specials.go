package combat

import (
	"github.com/ericogr/saga-combat/internal/constants"
	"github.com/ericogr/saga-combat/internal/game"
	"github.com/ericogr/saga-combat/internal/logging"
)

// checkSpecials fires the first unused health_below special whose threshold
// the enemy has dropped under while still standing. Each special fires at
// most once per combat.
func (o *Orchestrator) checkSpecials() {
	enemy := o.state.Enemy
	if enemy == nil || enemy.CurrentHealth <= 0 {
		return
	}
	for _, sp := range o.desc.Specials {
		if o.state.UsedSpecials[sp.ID] || sp.Trigger.Kind != game.TriggerHealthBelow {
			continue
		}
		if enemy.HealthRatio() >= sp.Trigger.Threshold {
			continue
		}
		o.state.UsedSpecials[sp.ID] = true
		o.fireSpecial(enemy, sp)
		return
	}
}

func (o *Orchestrator) fireSpecial(enemy *game.Combatant, sp game.Special) {
	switch sp.Kind {
	case game.SpecialDamageReduction:
		o.applyEffect(enemy.ID, enemy, game.EffectSpec{Type: game.EffectDamageReduction, Magnitude: sp.Reduction, Duration: sp.Duration})
	case game.SpecialTransform:
		before := enemy.Status
		enemy.Transform(sp.MaxHealthUp, sp.HealAmount)
		o.emitHealth(EventHealReceived, enemy.ID, enemy, sp.HealAmount)
		if enemy.Status != before {
			o.emitStatus(enemy)
		}
	}

	msg := sp.Announce
	if msg == "" {
		msg = enemy.Name + " unleashes " + sp.Name
	}
	o.logf("%s", msg)
	o.emit(Event{Type: EventSpecialTriggered, ActorID: enemy.ID, AbilityID: sp.ID, Message: msg})

	f := o.fields(enemy.ID)
	f[constants.LogFieldSpecialID] = sp.ID
	logging.Info("special triggered", f)
}
