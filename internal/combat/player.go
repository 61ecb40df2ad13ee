package combat

import (
	"context"
	"fmt"

	"github.com/ericogr/saga-combat/internal/constants"
	"github.com/ericogr/saga-combat/internal/dice"
	"github.com/ericogr/saga-combat/internal/effects"
	"github.com/ericogr/saga-combat/internal/game"
	"github.com/ericogr/saga-combat/internal/logging"
	"github.com/ericogr/saga-combat/internal/rules"
)

// playerTurn runs a party member's turn. Usage is recorded when the ability
// is chosen; it and a broken restraint are restored if the turn fails before
// resolution completes.
func (o *Orchestrator) playerTurn(ctx context.Context, actor *game.Combatant) error {
	if err := o.flow.Transition(game.PhasePlayerCharSelect); err != nil {
		return err
	}
	o.emit(Event{Type: EventTurnChanged, ActorID: actor.ID})
	if effects.HasEffect(actor, game.EffectStun) {
		o.skipTurn(actor, "is stunned")
		return nil
	}
	var (
		committed  bool
		restraints []game.Effect
		used       string
	)
	defer func() {
		if committed {
			return
		}
		if len(restraints) > 0 {
			actor.Effects = append(actor.Effects, restraints...)
			logging.Info("restraint restored for retry", o.fields(actor.ID))
		}
		if used != "" {
			o.state.RevertUsage(actor.ID, used)
			logging.Info("ability usage rolled back", o.abilityFields(actor.ID, used))
		}
	}()

	if effects.HasEffect(actor, game.EffectRestrain) {
		bf := rules.AttemptBreakFree(o.cfg.Roller, actor.Stat(constants.StatBrawn), o.cfg.BreakFreeDC)
		msg := fmt.Sprintf("%s tries to break free: %d%+d=%d vs %d", actor.Name, bf.Roll, bf.Bonus, bf.Total, bf.DC)
		o.emit(Event{Type: EventBreakFree, ActorID: actor.ID, Amount: bf.Total, Message: msg})
		if !bf.Success {
			committed = true
			o.skipTurn(actor, "is still restrained")
			return nil
		}
		restraints = effects.Take(actor, game.EffectRestrain)
		o.logf("%s breaks free", actor.Name)
	}
	if o.cfg.Player == nil {
		return ErrNoPlayerInput
	}

	if err := o.flow.Transition(game.PhasePlayerAbilitySelect); err != nil {
		return err
	}
	available := o.state.AvailableAbilities(actor)
	if len(available) == 0 {
		committed = true
		o.skipTurn(actor, "has no usable ability")
		return nil
	}
	action, err := o.cfg.Player.ChooseAction(ctx, ActionRequest{
		CombatID:  o.state.CombatID,
		Round:     o.state.Round,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Available: available,
	})
	if err != nil {
		return fmt.Errorf("choose action for %s: %w", actor.ID, err)
	}
	ability, ok := actor.Ability(action.AbilityID)
	if !ok || !o.state.Available(actor.ID, ability) {
		return fmt.Errorf("%w: %s cannot use %q", ErrAbilityUnavailable, actor.ID, action.AbilityID)
	}

	o.state.RecordUsage(actor.ID, ability.ID)
	used = ability.ID

	if err := o.flow.Transition(game.PhasePlayerRolling); err != nil {
		return err
	}
	difficulty, err := dice.ParseDifficulty(ability.Difficulty)
	if err != nil {
		difficulty = dice.Normal
	}
	bonus := actor.Stat(ability.Stat) + effects.AccuracyBonus(o.state, actor.ID) + effects.HasteBonus(o.state, actor.ID)
	reported, err := o.cfg.Dice.Roll(ctx, RollRequest{ActorID: actor.ID, AbilityID: ability.ID, Bonus: bonus, Difficulty: difficulty})
	if err != nil {
		return fmt.Errorf("roll for %s: %w", actor.ID, err)
	}
	result, err := o.cfg.Roller.Table().Verify(reported, bonus, difficulty)
	if err != nil {
		return err
	}

	if err := o.flow.Transition(game.PhasePlayerResolution); err != nil {
		return err
	}
	o.resolvePlayerAbility(actor, ability, action.Target, result)
	o.state.StartCooldown(ability)
	committed = true

	if err := o.awaitAck(ctx, actor.ID); err != nil {
		return err
	}
	return o.checkEnd(ctx)
}

func (o *Orchestrator) abilityFields(actorID, abilityID string) logging.Fields {
	f := o.fields(actorID)
	f[constants.LogFieldAbilityID] = abilityID
	return f
}

// defenders returns who a hostile player ability hits: both enemy units for
// area abilities, the companion when named, otherwise the enemy.
func (o *Orchestrator) defenders(ability game.Ability, target string) []*game.Combatant {
	enemy, companion := o.state.Enemy, o.state.Companion
	if ability.Targeting == game.TargetArea {
		out := make([]*game.Combatant, 0, 2)
		for _, c := range []*game.Combatant{enemy, companion} {
			if c.IsActive() {
				out = append(out, c)
			}
		}
		return out
	}
	if companion.IsActive() && target == companion.ID {
		return []*game.Combatant{companion}
	}
	if enemy.IsActive() {
		return []*game.Combatant{enemy}
	}
	if companion.IsActive() {
		return []*game.Combatant{companion}
	}
	return nil
}

func (o *Orchestrator) resolvePlayerAbility(actor *game.Combatant, ability game.Ability, target string, res dice.Result) {
	msg := fmt.Sprintf("%s uses %s (%s, %d%+d=%d)", actor.Name, ability.Label(), res.Tier, res.Roll, res.Bonus, res.Total)
	landed := res.Tier != dice.TierFailure

	switch {
	case ability.DealsDamage():
		for _, def := range o.defenders(ability, target) {
			base := rules.AbilityDamage(ability, res.Tier)
			if base > 0 && def == o.state.Enemy {
				if mark := effects.ConsumeMark(o.state); mark > 0 {
					base += mark
					msg += fmt.Sprintf(", mark adds %d", mark)
				}
			}
			dmg := 0
			if base > 0 {
				dmg = rules.CalculateFinalDamage(base, rules.DamageModifier(o.state, def.ID, true))
			}
			dealt := o.damage(actor.ID, def, dmg)
			msg += fmt.Sprintf(", %d damage to %s", dealt, def.Name)
			if def == o.state.Enemy && dealt > 0 {
				o.checkSpecials()
			}
			if landed && ability.Effect != nil && !ability.Effect.OnSelf && def.IsActive() {
				o.applyEffect(actor.ID, def, *ability.Effect)
			}
		}
	case !landed:
		msg += ", but it fails"
	default:
		o.resolveSupport(actor, ability, target, res.Tier, &msg)
	}
	if landed && ability.Effect != nil && ability.Effect.OnSelf {
		o.applyEffect(actor.ID, actor, *ability.Effect)
	}

	o.logf("%s", msg)
	o.emit(Event{Type: EventActionExecuted, ActorID: actor.ID, AbilityID: ability.ID, Tier: res.Tier, Message: msg})
}

// resolveSupport applies heal and effect semantics of non-damaging abilities.
func (o *Orchestrator) resolveSupport(actor *game.Combatant, ability game.Ability, target string, tier dice.Tier, msg *string) {
	heal := rules.AbilityHeal(ability, tier)
	var effect *game.EffectSpec
	if ability.Effect != nil && !ability.Effect.OnSelf {
		effect = ability.Effect
	}

	switch ability.Targeting {
	case game.TargetSelf:
		if heal > 0 {
			*msg += fmt.Sprintf(", recovers %d", o.heal(actor.ID, actor, heal))
		}
		if effect != nil {
			o.applyEffect(actor.ID, actor, *effect)
		}
	case game.TargetParty, game.TargetArea:
		for _, c := range o.state.ActiveParty() {
			if heal > 0 {
				*msg += fmt.Sprintf(", %s recovers %d", c.Name, o.heal(actor.ID, c, heal))
			}
		}
		if effect != nil {
			o.applyPartyEffect(actor.ID, *effect)
			*msg += fmt.Sprintf(", party gains %s", effect.Type)
		}
	case game.TargetAlly:
		res := o.resolver.Resolve(target, actor, o.state.Party, o.state.ActiveParty())
		if res.Empty() {
			*msg += ", but there is no valid ally"
			return
		}
		for _, c := range res.Targets() {
			if heal > 0 {
				*msg += fmt.Sprintf(", %s recovers %d", c.Name, o.heal(actor.ID, c, heal))
			}
			if effect != nil {
				o.applyEffect(actor.ID, c, *effect)
			}
		}
	default:
		if effect == nil {
			return
		}
		for _, def := range o.defenders(ability, target) {
			o.applyEffect(actor.ID, def, *effect)
			*msg += fmt.Sprintf(", %s on %s", effect.Type, def.Name)
		}
	}
}
