package combat

import (
	"context"
	"errors"
	"testing"

	"github.com/ericogr/saga-combat/internal/decision"
	"github.com/ericogr/saga-combat/internal/dice"
	"github.com/ericogr/saga-combat/internal/effects"
	"github.com/ericogr/saga-combat/internal/game"
)

func TestThresholdSpecialsFireOnceInOrder(t *testing.T) {
	desc := goblin(100, 0)
	desc.Specials = []game.Special{
		{ID: "harden", Name: "Harden", Trigger: game.Trigger{Kind: game.TriggerHealthBelow, Threshold: 0.5}, Kind: game.SpecialDamageReduction, Reduction: 5, Duration: 3},
		{ID: "rage", Name: "Rage", Trigger: game.Trigger{Kind: game.TriggerHealthBelow, Threshold: 0.5}, Kind: game.SpecialTransform, MaxHealthUp: 20, HealAmount: 30},
	}
	o := newOrchestrator([]*game.Combatant{hero(20, 0)}, desc, Config{})
	enemy := o.State().Enemy

	enemy.ApplyDamage(50)
	o.checkSpecials()
	if len(o.State().UsedSpecials) != 0 {
		t.Fatalf("exactly half health is not below the threshold")
	}

	enemy.ApplyDamage(10)
	o.checkSpecials()
	if !o.State().UsedSpecials["harden"] || o.State().UsedSpecials["rage"] {
		t.Fatalf("only the first satisfied special should fire, got %v", o.State().UsedSpecials)
	}
	if !effects.HasEffect(enemy, game.EffectDamageReduction) {
		t.Fatalf("harden should grant damage reduction")
	}

	o.checkSpecials()
	if !o.State().UsedSpecials["rage"] {
		t.Fatalf("rage should fire on the next check")
	}
	if enemy.MaxHealth != 120 || enemy.CurrentHealth != 70 {
		t.Fatalf("transform should raise health, got %d/%d", enemy.CurrentHealth, enemy.MaxHealth)
	}
	if enemy.Status != game.StatusHealthy {
		t.Fatalf("status should be re-derived, got %s", enemy.Status)
	}

	reductions := 0
	o.checkSpecials()
	for _, e := range enemy.Effects {
		if e.Type == game.EffectDamageReduction {
			reductions++
		}
	}
	if reductions != 1 {
		t.Fatalf("specials must not fire twice, found %d reductions", reductions)
	}
}

func TestSpecialsIgnoreDefeatedEnemy(t *testing.T) {
	desc := goblin(10, 0)
	desc.Specials = []game.Special{{ID: "last", Trigger: game.Trigger{Kind: game.TriggerHealthBelow, Threshold: 0.9}, Kind: game.SpecialTransform, HealAmount: 5}}
	o := newOrchestrator([]*game.Combatant{hero(20, 0)}, desc, Config{})
	o.State().Enemy.ApplyDamage(10)
	o.checkSpecials()
	if o.State().UsedSpecials["last"] {
		t.Fatalf("special must not fire at zero health")
	}
}

func TestRestrainedCharacterMustBreakFree(t *testing.T) {
	src := &seqSource{values: []int{0}}
	called := 0
	player := playerFunc(func(context.Context, ActionRequest) (PlayerAction, error) {
		called++
		return PlayerAction{}, errors.New("stop here")
	})
	h := hero(20, 0)
	h.Stats["brawn"] = 2
	o := newOrchestrator([]*game.Combatant{h}, goblin(10, 0), Config{Roller: dice.NewRoller(src), Player: player})
	effects.ApplyTo(h, game.EffectSpec{Type: game.EffectRestrain, Duration: 2}, "goblin")

	// d6 rolls 1: 1+2 < 4
	if err := o.playerTurn(context.Background(), h); err != nil {
		t.Fatalf("failed break free should consume the turn, got %v", err)
	}
	if called != 0 || !effects.HasEffect(h, game.EffectRestrain) {
		t.Fatalf("restrained character must not act")
	}

	// d6 rolls 2: 2+2 meets dc 4, but the turn fails afterwards
	src.values = []int{1}
	if err := o.playerTurn(context.Background(), h); err == nil {
		t.Fatalf("expected the scripted player error")
	}
	if called != 1 {
		t.Fatalf("freed character should choose an ability, called=%d", called)
	}
	if !effects.HasEffect(h, game.EffectRestrain) {
		t.Fatalf("a failed turn must restore the restraint so the retry rolls again")
	}

	o.cfg.Player = slasher()
	if err := o.playerTurn(context.Background(), h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if effects.HasEffect(h, game.EffectRestrain) {
		t.Fatalf("restraint should be gone after a completed turn")
	}
	if got := o.State().Usage("hero", "slash"); got != 1 {
		t.Fatalf("freed character should have acted once, usage %d", got)
	}
}

func TestStunnedEnemySkipsTurn(t *testing.T) {
	decided := false
	decider := deciderFunc(func(context.Context, decision.Context) (decision.Decision, error) {
		decided = true
		return decision.Decision{}, nil
	})
	o := newOrchestrator([]*game.Combatant{hero(20, 0)}, goblin(10, 0), Config{Decider: decider})
	effects.ApplyTo(o.State().Enemy, game.EffectSpec{Type: game.EffectStun}, "hero")
	if err := o.npcTurn(context.Background(), o.State().Enemy, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decided {
		t.Fatalf("stunned enemy must not decide")
	}
	if o.State().Party[0].CurrentHealth != 20 {
		t.Fatalf("stunned enemy must not attack")
	}
}

func TestTauntRedirectsSingleTargetAttacks(t *testing.T) {
	rogue := &game.Combatant{ID: "rogue", Name: "Rogue", Kind: game.KindParty, CurrentHealth: 15, MaxHealth: 15}
	h := hero(20, 0)
	desc := goblin(10, 0)
	desc.Attacks[0].Damage = 4
	o := newOrchestrator([]*game.Combatant{h, rogue}, desc, Config{})
	effects.ApplyTo(rogue, game.EffectSpec{Type: game.EffectTaunt, Duration: 2}, "rogue")

	o.resolveNPCAbility(o.State().Enemy, desc.Attacks[0], "hero")
	if h.CurrentHealth != 20 || rogue.CurrentHealth != 11 {
		t.Fatalf("taunt should redirect the hit, hero=%d rogue=%d", h.CurrentHealth, rogue.CurrentHealth)
	}
}

func TestAreaAttackAppliesPerTargetModifiers(t *testing.T) {
	rogue := &game.Combatant{ID: "rogue", Name: "Rogue", Kind: game.KindParty, CurrentHealth: 15, MaxHealth: 15}
	h := hero(20, 0)
	desc := goblin(10, 0)
	stomp := game.Ability{ID: "stomp", Damage: 6, Targeting: game.TargetArea, Effect: &game.EffectSpec{Type: game.EffectSlow, OnSelf: true}}
	desc.Attacks = append(desc.Attacks, stomp)
	o := New("c", game.NewGameState([]*game.Combatant{h, rogue}, map[string]int{"rogue": 2}), desc, Config{Roller: dice.NewRoller(&seqSource{values: []int{0}}), After: instant})
	effects.ApplyTo(h, game.EffectSpec{Type: game.EffectStaticShield, Magnitude: 3}, "hero")

	o.resolveNPCAbility(o.State().Enemy, stomp, "")
	if h.CurrentHealth != 17 || rogue.CurrentHealth != 11 {
		t.Fatalf("unexpected health hero=%d rogue=%d", h.CurrentHealth, rogue.CurrentHealth)
	}
	if !effects.HasEffect(o.State().Enemy, game.EffectSlow) {
		t.Fatalf("self effect should land on the enemy")
	}
}

func TestPlayerHitConsumesMarkAndAppliesModifiers(t *testing.T) {
	h := hero(20, 0)
	o := newOrchestrator([]*game.Combatant{h}, goblin(60, 0), Config{})
	enemy := o.State().Enemy
	effects.ApplyTo(enemy, game.EffectSpec{Type: game.EffectMark, Magnitude: 4, Duration: 3}, "hero")
	effects.ApplyTo(enemy, game.EffectSpec{Type: game.EffectVulnerable, Magnitude: 2, Duration: 2}, "hero")

	slash, _ := h.Ability("slash")
	o.resolvePlayerAbility(h, slash, "enemy", dice.Result{Roll: 15, Total: 15, Tier: dice.TierSuccess})
	if enemy.CurrentHealth != 34 {
		t.Fatalf("expected 20+4+2 damage, enemy at %d", enemy.CurrentHealth)
	}
	if effects.HasEffect(enemy, game.EffectMark) {
		t.Fatalf("mark should be consumed")
	}

	o.resolvePlayerAbility(h, slash, "enemy", dice.Result{Roll: 2, Total: 2, Tier: dice.TierFailure})
	if enemy.CurrentHealth != 34 {
		t.Fatalf("failure should deal no damage, enemy at %d", enemy.CurrentHealth)
	}
}

func TestSupportAbilities(t *testing.T) {
	h := hero(20, 0)
	h.CurrentHealth = 5
	mage := &game.Combatant{ID: "mage", Name: "Mage", Kind: game.KindParty, CurrentHealth: 4, MaxHealth: 12}
	o := newOrchestrator([]*game.Combatant{h, mage}, goblin(60, 0), Config{})

	mend := game.Ability{ID: "mend", Heal: 4, Targeting: game.TargetAlly}
	o.resolvePlayerAbility(h, mend, "mage", dice.Result{Roll: 20, Total: 20, Tier: dice.TierCritical})
	if mage.CurrentHealth != 10 {
		t.Fatalf("critical heal should restore 6, mage at %d", mage.CurrentHealth)
	}

	ward := game.Ability{ID: "ward", Targeting: game.TargetParty, Effect: &game.EffectSpec{Type: game.EffectShield, Magnitude: 2, Duration: 2}}
	o.resolvePlayerAbility(h, ward, "", dice.Result{Roll: 12, Total: 12, Tier: dice.TierSuccess})
	if !effects.HasPartyEffect(o.State(), game.EffectShield) {
		t.Fatalf("party ability should add a party-wide effect")
	}

	expose := game.Ability{ID: "expose", Targeting: game.TargetEnemy, Effect: &game.EffectSpec{Type: game.EffectVulnerable, Duration: 2}}
	o.resolvePlayerAbility(h, expose, "", dice.Result{Roll: 12, Total: 12, Tier: dice.TierSuccess})
	if !effects.HasEffect(o.State().Enemy, game.EffectVulnerable) {
		t.Fatalf("enemy-targeted support should debuff the enemy")
	}
}

func TestForgedTierIsRecomputed(t *testing.T) {
	forged := diceFunc(func(_ context.Context, req RollRequest) (dice.Result, error) {
		return dice.Result{Roll: 2, Bonus: req.Bonus, Total: 30, Tier: dice.TierCritical}, nil
	})
	h := hero(20, 0)
	o := newOrchestrator([]*game.Combatant{h}, goblin(40, 0), Config{Player: slasher(), Dice: forged})
	if err := o.playerTurn(context.Background(), h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.State().Enemy.CurrentHealth != 40 {
		t.Fatalf("forged critical must resolve as failure, enemy at %d", o.State().Enemy.CurrentHealth)
	}
}
