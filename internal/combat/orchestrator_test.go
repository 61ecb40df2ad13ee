package combat

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ericogr/saga-combat/internal/decision"
	"github.com/ericogr/saga-combat/internal/dice"
	"github.com/ericogr/saga-combat/internal/game"
	"github.com/ericogr/saga-combat/internal/logging"
)

func TestMain(m *testing.M) {
	logging.SetLogger(zap.NewNop())
	os.Exit(m.Run())
}

type seqSource struct {
	values []int
	i      int
}

func (s *seqSource) IntN(n int) int {
	v := s.values[s.i%len(s.values)]
	s.i++
	return v % n
}

type deciderFunc func(ctx context.Context, dc decision.Context) (decision.Decision, error)

func (f deciderFunc) Decide(ctx context.Context, dc decision.Context) (decision.Decision, error) {
	return f(ctx, dc)
}

type playerFunc func(ctx context.Context, req ActionRequest) (PlayerAction, error)

func (f playerFunc) ChooseAction(ctx context.Context, req ActionRequest) (PlayerAction, error) {
	return f(ctx, req)
}

type diceFunc func(ctx context.Context, req RollRequest) (dice.Result, error)

func (f diceFunc) Roll(ctx context.Context, req RollRequest) (dice.Result, error) {
	return f(ctx, req)
}

func instant(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func never(time.Duration) <-chan time.Time { return nil }

func fixedRoll(roll int) DiceUI {
	return diceFunc(func(_ context.Context, req RollRequest) (dice.Result, error) {
		return dice.Result{Roll: roll, Bonus: req.Bonus}, nil
	})
}

func slasher() PlayerInput {
	return playerFunc(func(_ context.Context, req ActionRequest) (PlayerAction, error) {
		return PlayerAction{AbilityID: "slash", Target: "enemy"}, nil
	})
}

func hero(health, agility int) *game.Combatant {
	return &game.Combatant{
		ID: "hero", Name: "Hero", Kind: game.KindParty,
		Stats:         map[string]int{"agility": agility},
		CurrentHealth: health, MaxHealth: health, Status: game.StatusHealthy,
		Abilities: []game.Ability{
			{ID: "slash", Name: "Slash", Damage: 20, Targeting: game.TargetEnemy},
			{ID: "fireball", Name: "Fireball", Damage: 50, Uses: 1, Targeting: game.TargetEnemy},
		},
	}
}

func goblin(health, initiative int) game.EnemyDescriptor {
	return game.EnemyDescriptor{
		ID: "goblin", Name: "Goblin", MaxHealth: health, InitiativeBonus: initiative,
		Attacks: []game.Ability{{ID: "scratch", Name: "Scratch", Damage: 1, Targeting: game.TargetEnemy}},
	}
}

func newOrchestrator(party []*game.Combatant, desc game.EnemyDescriptor, cfg Config) *Orchestrator {
	if cfg.Roller == nil {
		cfg.Roller = dice.NewRoller(&seqSource{values: []int{19}})
	}
	if cfg.After == nil {
		cfg.After = instant
	}
	if cfg.Decider == nil {
		cfg.Decider = decision.FallbackDecider{}
	}
	return New("combat-test", game.NewGameState(party, nil), desc, cfg)
}

func collect(o *Orchestrator) []Event {
	var out []Event
	for e := range o.Events() {
		out = append(out, e)
	}
	return out
}

func hasEvent(events []Event, t EventType) bool {
	for _, e := range events {
		if e.Type == t {
			return true
		}
	}
	return false
}

func TestPlayerWinsAndVictoryMomentIsAwaited(t *testing.T) {
	o := newOrchestrator([]*game.Combatant{hero(20, 5)}, goblin(10, 0), Config{Player: slasher(), Dice: fixedRoll(15)})

	outcome, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != game.OutcomeVictory {
		t.Fatalf("expected victory, got %s", outcome)
	}
	events := collect(o)
	if !hasEvent(events, EventVictoryMoment) || !hasEvent(events, EventCombatEnded) {
		t.Fatalf("expected victory moment and combat end events")
	}
	if o.State().Phase != game.PhaseCombatEnd {
		t.Fatalf("expected combat_end phase, got %s", o.State().Phase)
	}
	if o.State().Enemy.Status != game.StatusDefeated {
		t.Fatalf("goblin should be defeated, got %s", o.State().Enemy.Status)
	}
}

func TestEnemyFallbackDefeatsParty(t *testing.T) {
	desc := goblin(10, 5)
	desc.Attacks[0].Damage = 5
	o := newOrchestrator([]*game.Combatant{hero(3, 0)}, desc, Config{Player: slasher(), Dice: fixedRoll(15)})

	outcome, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != game.OutcomeDefeat {
		t.Fatalf("expected defeat, got %s", outcome)
	}
	if hasEvent(collect(o), EventVictoryMoment) {
		t.Fatalf("defeat must not wait for a victory moment")
	}
	if got := o.State().Party[0].Status; got != game.StatusDown {
		t.Fatalf("hero should be down, got %s", got)
	}
}

func TestDecisionExhaustionLeavesStateUntouched(t *testing.T) {
	calls := 0
	decider := deciderFunc(func(_ context.Context, dc decision.Context) (decision.Decision, error) {
		calls++
		if calls == 1 {
			return decision.Decision{}, decision.ErrDecisionExhausted
		}
		return decision.Decision{ActionID: "scratch", Target: "random"}, nil
	})
	var turnErrs []*TurnError
	var o *Orchestrator
	o = newOrchestrator([]*game.Combatant{hero(20, 0)}, goblin(10, 5), Config{
		Decider: decider,
		Player:  slasher(),
		Dice:    fixedRoll(15),
		OnTurnError: func(te *TurnError) {
			turnErrs = append(turnErrs, te)
			s := o.State()
			if s.Party[0].CurrentHealth != 20 || len(s.Cooldowns) != 0 || len(s.Log.Entries()) != 1 {
				t.Errorf("state changed by failed turn: health=%d log=%v", s.Party[0].CurrentHealth, s.Log.Entries())
			}
			te.Retry()
		},
	})

	outcome, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != game.OutcomeVictory {
		t.Fatalf("expected victory after retry, got %s", outcome)
	}
	if len(turnErrs) != 1 || !errors.Is(turnErrs[0], decision.ErrDecisionExhausted) || turnErrs[0].ActorID != "goblin" {
		t.Fatalf("expected one goblin turn error, got %v", turnErrs)
	}
	if calls != 2 {
		t.Fatalf("expected the turn to be retried once, got %d decisions", calls)
	}
	if o.State().Party[0].CurrentHealth != 19 {
		t.Fatalf("retried attack should land once, hero health %d", o.State().Party[0].CurrentHealth)
	}
	if !hasEvent(collect(o), EventTurnError) {
		t.Fatalf("expected a turn_error event")
	}
}

func TestDiceFailureRollsBackLimitedUse(t *testing.T) {
	rolls := 0
	failingOnce := diceFunc(func(_ context.Context, req RollRequest) (dice.Result, error) {
		rolls++
		if rolls == 1 {
			return dice.Result{}, errors.New("dice tray disconnected")
		}
		return dice.Result{Roll: 15, Bonus: req.Bonus}, nil
	})
	player := playerFunc(func(_ context.Context, req ActionRequest) (PlayerAction, error) {
		return PlayerAction{AbilityID: "fireball", Target: "enemy"}, nil
	})
	var o *Orchestrator
	usageAtFailure := -1
	o = newOrchestrator([]*game.Combatant{hero(20, 5)}, goblin(40, 0), Config{
		Player: player,
		Dice:   failingOnce,
		OnTurnError: func(te *TurnError) {
			usageAtFailure = o.State().Usage("hero", "fireball")
			te.Retry()
		},
	})

	outcome, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usageAtFailure != 0 {
		t.Fatalf("usage should be rolled back before retry, got %d", usageAtFailure)
	}
	if outcome != game.OutcomeVictory {
		t.Fatalf("expected victory, got %s", outcome)
	}
	if got := o.State().Usage("hero", "fireball"); got != 1 {
		t.Fatalf("expected fireball used once, got %d", got)
	}
}

func TestTurnErrorWithoutCallbackIsReturned(t *testing.T) {
	broken := diceFunc(func(context.Context, RollRequest) (dice.Result, error) {
		return dice.Result{}, errors.New("no dice")
	})
	player := playerFunc(func(context.Context, ActionRequest) (PlayerAction, error) {
		return PlayerAction{AbilityID: "fireball"}, nil
	})
	o := newOrchestrator([]*game.Combatant{hero(20, 5)}, goblin(40, 0), Config{Player: player, Dice: broken})

	outcome, err := o.Run(context.Background())
	var te *TurnError
	if !errors.As(err, &te) || te.ActorID != "hero" {
		t.Fatalf("expected hero turn error, got %v", err)
	}
	if outcome != game.OutcomeAborted {
		t.Fatalf("expected aborted, got %s", outcome)
	}
	if got := o.State().Usage("hero", "fireball"); got != 0 {
		t.Fatalf("usage should be rolled back, got %d", got)
	}
}

func TestPanicInTurnIsContained(t *testing.T) {
	calls := 0
	player := playerFunc(func(context.Context, ActionRequest) (PlayerAction, error) {
		calls++
		if calls == 1 {
			panic("renderer exploded")
		}
		return PlayerAction{AbilityID: "slash"}, nil
	})
	var got error
	o := newOrchestrator([]*game.Combatant{hero(20, 5)}, goblin(10, 0), Config{
		Player: player,
		Dice:   fixedRoll(15),
		OnTurnError: func(te *TurnError) {
			got = te
			te.Retry()
		},
	})
	outcome, err := o.Run(context.Background())
	if err != nil || outcome != game.OutcomeVictory {
		t.Fatalf("expected victory, got %s %v", outcome, err)
	}
	if !errors.Is(got, ErrTurnPanicked) {
		t.Fatalf("expected panic to surface as turn error, got %v", got)
	}
}

func TestAcknowledgementsDriveProgress(t *testing.T) {
	o := newOrchestrator([]*game.Combatant{hero(20, 5)}, goblin(10, 0), Config{
		Player: slasher(),
		Dice:   fixedRoll(15),
		After:  never,
	})
	acked := make(chan []Event, 1)
	go func() {
		var seen []Event
		for e := range o.Events() {
			seen = append(seen, e)
			switch e.Type {
			case EventActionExecuted:
				o.Acknowledge(e.ActorID)
			case EventVictoryMoment:
				o.Acknowledge(VictoryActor)
			}
		}
		acked <- seen
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	outcome, err := o.Run(ctx)
	if err != nil || outcome != game.OutcomeVictory {
		t.Fatalf("expected victory, got %s %v", outcome, err)
	}
	if !hasEvent(<-acked, EventCombatEnded) {
		t.Fatalf("expected combat_ended event")
	}
}

func TestMissingAcknowledgementBlocksUntilCancelled(t *testing.T) {
	o := newOrchestrator([]*game.Combatant{hero(20, 5)}, goblin(10, 0), Config{
		Player: slasher(),
		Dice:   fixedRoll(15),
		After:  never,
	})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for e := range o.Events() {
			if e.Type == EventActionExecuted {
				cancel()
			}
		}
	}()
	outcome, err := o.Run(ctx)
	if !errors.Is(err, context.Canceled) || outcome != game.OutcomeAborted {
		t.Fatalf("expected cancellation, got %s %v", outcome, err)
	}
}

func TestCompanionActsAfterEnemy(t *testing.T) {
	desc := goblin(10, 5)
	desc.Companion = &game.CompanionDescriptor{
		ID: "wolf", Name: "Wolf", MaxHealth: 6,
		Attacks: []game.Ability{{ID: "bite", Damage: 2, Targeting: game.TargetEnemy}},
	}
	o := newOrchestrator([]*game.Combatant{hero(30, 0)}, desc, Config{Player: slasher(), Dice: fixedRoll(15)})

	outcome, err := o.Run(context.Background())
	if err != nil || outcome != game.OutcomeVictory {
		t.Fatalf("expected victory, got %s %v", outcome, err)
	}
	var turns []string
	for _, e := range collect(o) {
		if e.Type == EventTurnChanged {
			turns = append(turns, e.ActorID)
		}
	}
	if len(turns) != 3 || turns[0] != "goblin" || turns[1] != "wolf" || turns[2] != "hero" {
		t.Fatalf("unexpected turn order %v", turns)
	}
	if got := o.State().Party[0].CurrentHealth; got != 27 {
		t.Fatalf("expected hero at 27 after scratch and bite, got %d", got)
	}
}

func TestRoundsAdvanceUntilVictory(t *testing.T) {
	desc := goblin(50, 0)
	o := newOrchestrator([]*game.Combatant{hero(30, 5)}, desc, Config{Player: slasher(), Dice: fixedRoll(15)})
	outcome, err := o.Run(context.Background())
	if err != nil || outcome != game.OutcomeVictory {
		t.Fatalf("expected victory, got %s %v", outcome, err)
	}
	if o.State().Round != 3 {
		t.Fatalf("expected the third round to finish the goblin, got round %d", o.State().Round)
	}
	if len(o.State().Log.Entries()) != game.LogCapacity {
		t.Fatalf("log should be capped at %d entries", game.LogCapacity)
	}
}

func TestSecondRunKeepsFirstOutcome(t *testing.T) {
	o := newOrchestrator([]*game.Combatant{hero(20, 5)}, goblin(10, 0), Config{Player: slasher(), Dice: fixedRoll(15)})
	if outcome, err := o.Run(context.Background()); err != nil || outcome != game.OutcomeVictory {
		t.Fatalf("expected victory, got %s %v", outcome, err)
	}
	outcome, err := o.Run(context.Background())
	if !errors.Is(err, ErrAlreadyRan) {
		t.Fatalf("expected ErrAlreadyRan, got %v", err)
	}
	if outcome != game.OutcomeVictory || o.Outcome() != game.OutcomeVictory {
		t.Fatalf("second run must not change the outcome, got %s / %s", outcome, o.Outcome())
	}
}

func TestSmallEventBufferDeliversEveryEvent(t *testing.T) {
	run := func(buffer int) []EventType {
		o := newOrchestrator([]*game.Combatant{hero(30, 5)}, goblin(50, 0), Config{
			Player:      slasher(),
			Dice:        fixedRoll(15),
			EventBuffer: buffer,
		})
		got := make(chan []Event, 1)
		go func() { got <- collect(o) }()
		if outcome, err := o.Run(context.Background()); err != nil || outcome != game.OutcomeVictory {
			t.Fatalf("expected victory, got %s %v", outcome, err)
		}
		var types []EventType
		for _, e := range <-got {
			types = append(types, e.Type)
		}
		return types
	}

	want := run(0)
	got := run(1)
	if len(got) != len(want) {
		t.Fatalf("slow consumer saw %d events, expected %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: got %s, expected %s", i, got[i], want[i])
		}
	}
}

func TestCancelledRunDoesNotWaitForConsumer(t *testing.T) {
	o := newOrchestrator([]*game.Combatant{hero(20, 5)}, goblin(10, 0), Config{
		Player:      slasher(),
		Dice:        fixedRoll(15),
		EventBuffer: 1,
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcome, err := o.Run(ctx)
	if !errors.Is(err, context.Canceled) || outcome != game.OutcomeAborted {
		t.Fatalf("expected cancellation, got %s %v", outcome, err)
	}
}
