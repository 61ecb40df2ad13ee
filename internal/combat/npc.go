package combat

import (
	"context"
	"fmt"

	"github.com/ericogr/saga-combat/internal/constants"
	"github.com/ericogr/saga-combat/internal/decision"
	"github.com/ericogr/saga-combat/internal/effects"
	"github.com/ericogr/saga-combat/internal/game"
	"github.com/ericogr/saga-combat/internal/rules"
	"github.com/ericogr/saga-combat/internal/targeting"
)

// npcTurn runs the enemy's or the companion's turn. Nothing is mutated
// before the decision arrives, so a failed decision leaves state untouched.
func (o *Orchestrator) npcTurn(ctx context.Context, actor *game.Combatant, openingMove string) error {
	if err := o.flow.Transition(game.PhaseEnemyDeciding); err != nil {
		return err
	}
	o.emit(Event{Type: EventTurnChanged, ActorID: actor.ID})
	if effects.HasEffect(actor, game.EffectStun) {
		o.skipTurn(actor, "is stunned")
		return nil
	}
	if o.cfg.Decider == nil {
		return ErrNoDecider
	}

	var hints []string
	if actor.Kind == game.KindEnemy {
		hints = o.desc.Hints
	}
	dc := decision.BuildContext(o.state, actor, openingMove, hints, o.cfg.RecentLogExcerpt)
	d, err := o.cfg.Decider.Decide(ctx, dc)
	if err != nil {
		return fmt.Errorf("decide for %s: %w", actor.ID, err)
	}
	ability, ok := actor.Ability(d.ActionID)
	if !ok {
		return fmt.Errorf("%w: %s has no %q", ErrAbilityUnavailable, actor.ID, d.ActionID)
	}

	if err := o.flow.Transition(game.PhaseEnemyNarration); err != nil {
		return err
	}
	msg := d.Narration
	if msg == "" {
		msg = fmt.Sprintf("%s readies %s", actor.Name, ability.Label())
	}
	o.emit(Event{Type: EventNarration, ActorID: actor.ID, AbilityID: ability.ID, Message: msg})

	if err := o.flow.Transition(game.PhaseEnemyResolution); err != nil {
		return err
	}
	o.resolveNPCAbility(actor, ability, d.Target)
	o.state.StartCooldown(ability)

	if err := o.awaitAck(ctx, actor.ID); err != nil {
		return err
	}
	if o.flow.CheckDefeat() {
		return o.finish(ctx, game.OutcomeDefeat)
	}
	return nil
}

func (o *Orchestrator) resolveNPCAbility(actor *game.Combatant, ability game.Ability, target string) {
	msg := fmt.Sprintf("%s uses %s", actor.Name, ability.Label())

	switch ability.Targeting {
	case game.TargetSelf, game.TargetAlly:
		if ability.Effect != nil {
			o.applyEffect(actor.ID, actor, *ability.Effect)
		}
	default:
		token := targeting.TokenFor(ability.Targeting, target)
		if ability.Targeting == game.TargetEnemy || ability.Targeting == game.TargetRandom {
			if t := effects.Taunter(o.state); t != nil {
				token = t.ID
				msg += fmt.Sprintf(", drawn by %s's taunt", t.Name)
			}
		}
		res := o.resolver.Resolve(token, actor, o.state.Party, o.state.ActiveParty())
		if res.Empty() {
			msg += " but finds no target"
			break
		}
		for _, tgt := range res.Targets() {
			if ability.DealsDamage() {
				dmg := rules.CalculateFinalDamage(ability.Damage, rules.DamageModifier(o.state, tgt.ID, false))
				dealt := o.damage(actor.ID, tgt, dmg)
				msg += fmt.Sprintf(", %d damage to %s", dealt, tgt.Name)
			}
			if ability.Effect != nil && !ability.Effect.OnSelf && tgt.IsActive() {
				o.applyEffect(actor.ID, tgt, *ability.Effect)
				msg += fmt.Sprintf(", %s on %s", ability.Effect.Type, tgt.Name)
			}
		}
	}
	if ability.Effect != nil && ability.Effect.OnSelf && ability.Targeting != game.TargetSelf && ability.Targeting != game.TargetAlly {
		o.applyEffect(actor.ID, actor, *ability.Effect)
	}
	if ability.Heal > 0 {
		healed := o.heal(actor.ID, actor, ability.Heal)
		msg += fmt.Sprintf(", recovers %d", healed)
	}

	o.logf("%s", msg)
	o.emit(Event{Type: EventActionExecuted, ActorID: actor.ID, AbilityID: ability.ID, Message: msg})
}

func (o *Orchestrator) skipTurn(actor *game.Combatant, reason string) {
	msg := fmt.Sprintf("%s %s", actor.Name, reason)
	o.logf("%s", msg)
	o.emit(Event{Type: EventTurnSkipped, ActorID: actor.ID, Message: msg})
}

// --- Mutation helpers ---------------------------------------------------

func (o *Orchestrator) damage(actorID string, tgt *game.Combatant, amount int) int {
	before := tgt.Status
	dealt := tgt.ApplyDamage(amount)
	o.emitHealth(EventDamageTaken, actorID, tgt, dealt)
	if tgt.Status != before {
		o.emitStatus(tgt)
		if tgt.Status.Terminal() {
			o.logf("%s is %s", tgt.Name, tgt.Status)
		}
	}
	return dealt
}

func (o *Orchestrator) heal(actorID string, tgt *game.Combatant, amount int) int {
	before := tgt.Status
	healed := tgt.Heal(amount)
	if healed > 0 {
		o.emitHealth(EventHealReceived, actorID, tgt, healed)
	}
	if tgt.Status != before {
		o.emitStatus(tgt)
	}
	return healed
}

func (o *Orchestrator) applyEffect(actorID string, tgt *game.Combatant, spec game.EffectSpec) {
	if tgt == nil {
		return
	}
	e := effects.ApplyTo(tgt, spec, actorID)
	o.emit(Event{Type: EventEffectApplied, ActorID: actorID, TargetID: tgt.ID, Effect: e.Type, Amount: e.Magnitude})
}

func (o *Orchestrator) applyPartyEffect(actorID string, spec game.EffectSpec) {
	e := effects.ApplyToParty(o.state, spec, actorID)
	o.emit(Event{Type: EventEffectApplied, ActorID: actorID, TargetID: constants.TargetTokenParty, Effect: e.Type, Amount: e.Magnitude})
}
