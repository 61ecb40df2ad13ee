// Package combat drives one encounter end to end: initiative, turn
// dispatch, action resolution, threshold specials and the end conditions.
// All state mutation happens on the goroutine running Run.
package combat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ericogr/saga-combat/internal/constants"
	"github.com/ericogr/saga-combat/internal/decision"
	"github.com/ericogr/saga-combat/internal/dice"
	"github.com/ericogr/saga-combat/internal/flow"
	"github.com/ericogr/saga-combat/internal/game"
	"github.com/ericogr/saga-combat/internal/logging"
	"github.com/ericogr/saga-combat/internal/targeting"
)

var (
	ErrAbilityUnavailable = errors.New("ability unavailable")
	ErrNoDecider          = errors.New("no decider configured")
	ErrNoPlayerInput      = errors.New("no player input configured")
	ErrTurnPanicked       = errors.New("turn handler panicked")
	ErrAlreadyRan         = errors.New("combat already ran")
)

// ActionRequest asks the player which ability the acting character uses.
type ActionRequest struct {
	CombatID  string         `json:"combat_id"`
	Round     int            `json:"round"`
	ActorID   string         `json:"actor_id"`
	ActorName string         `json:"actor_name"`
	Available []game.Ability `json:"available"`
}

// PlayerAction is the player's answer to an ActionRequest.
type PlayerAction struct {
	AbilityID string `json:"ability_id"`
	Target    string `json:"target"`
}

// PlayerInput supplies ability selections for party members.
type PlayerInput interface {
	ChooseAction(ctx context.Context, req ActionRequest) (PlayerAction, error)
}

// RollRequest asks the dice UI for a check.
type RollRequest struct {
	ActorID    string          `json:"actor_id"`
	AbilityID  string          `json:"ability_id"`
	Bonus      int             `json:"bonus"`
	Difficulty dice.Difficulty `json:"difficulty"`
}

// DiceUI relays d20 checks. The reported tier is never trusted.
type DiceUI interface {
	Roll(ctx context.Context, req RollRequest) (dice.Result, error)
}

// TurnError is a turn-scoped failure. Calling Retry re-runs the same turn
// from scratch; state is as it was before the failed attempt.
type TurnError struct {
	Err     error
	ActorID string
	Round   int
	Retry   func()
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("turn of %s in round %d failed: %v", e.ActorID, e.Round, e.Err)
}

func (e *TurnError) Unwrap() error { return e.Err }

// Config wires the orchestrator's collaborators. Roller draws initiative,
// break-free checks and random targets, and its table verifies dice UI
// results. Without OnTurnError, Run returns the first turn failure.
type Config struct {
	Decider          decision.Decider
	Player           PlayerInput
	Dice             DiceUI
	Roller           *dice.Roller
	BreakFreeDC      int
	AnimationTimeout time.Duration
	After            func(time.Duration) <-chan time.Time
	OnTurnError      func(*TurnError)
	EventBuffer      int
	RecentLogExcerpt int
}

// Orchestrator runs a single combat.
type Orchestrator struct {
	cfg      Config
	desc     game.EnemyDescriptor
	state    *game.CombatState
	flow     *flow.Flow
	resolver *targeting.Resolver

	events chan Event
	acks   chan string

	runOnce sync.Once
	stop    <-chan struct{}
	outcome game.Outcome
}

// New prepares a combat between gs's party and the enemy described by desc.
func New(combatID string, gs *game.GameState, desc game.EnemyDescriptor, cfg Config) *Orchestrator {
	if cfg.Roller == nil {
		cfg.Roller = dice.NewRoller(nil)
	}
	if cfg.Dice == nil {
		cfg.Dice = LocalDice{Roller: cfg.Roller}
	}
	if cfg.BreakFreeDC <= 0 {
		cfg.BreakFreeDC = constants.DefaultBreakFreeDC
	}
	if cfg.AnimationTimeout <= 0 {
		cfg.AnimationTimeout = constants.DefaultAnimationTimeout
	}
	if cfg.After == nil {
		cfg.After = time.After
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = constants.DefaultEventBuffer
	}
	if cfg.RecentLogExcerpt <= 0 {
		cfg.RecentLogExcerpt = constants.DefaultRecentLogExcerpt
	}
	state := game.NewCombatState(combatID, gs, desc.NewEnemy(), desc.NewCompanion())
	return &Orchestrator{
		cfg:      cfg,
		desc:     desc,
		state:    state,
		flow:     flow.New(state, cfg.Roller),
		resolver: targeting.New(cfg.Roller),
		events:   make(chan Event, cfg.EventBuffer),
		acks:     make(chan string, 16),
	}
}

// Events streams presentation notifications. It is closed when Run returns.
// Run waits for the consumer whenever the buffer is full.
func (o *Orchestrator) Events() <-chan Event { return o.events }

// State returns the combat aggregate. Read it only after Run returned.
func (o *Orchestrator) State() *game.CombatState { return o.state }

// Outcome returns how the combat ended; empty while running.
func (o *Orchestrator) Outcome() game.Outcome { return o.outcome }

// Acknowledge signals that the animation for actorID finished. It never
// blocks; surplus acknowledgments are dropped.
func (o *Orchestrator) Acknowledge(actorID string) {
	select {
	case o.acks <- actorID:
	default:
	}
}

func (o *Orchestrator) fields(actorID string) logging.Fields {
	return logging.Fields{
		constants.LogFieldCombatID: o.state.CombatID,
		constants.LogFieldRound:    o.state.Round,
		constants.LogFieldActorID:  actorID,
	}
}

func (o *Orchestrator) logf(format string, args ...interface{}) {
	o.state.Log.Add(fmt.Sprintf(format, args...))
}

// Run drives the combat until victory, defeat or ctx cancellation. Later
// calls return the first run's outcome with ErrAlreadyRan.
func (o *Orchestrator) Run(ctx context.Context) (game.Outcome, error) {
	err := ErrAlreadyRan
	o.runOnce.Do(func() {
		defer close(o.events)
		o.stop = ctx.Done()
		err = o.run(ctx)
		if err != nil {
			o.outcome = game.OutcomeAborted
		}
	})
	return o.outcome, err
}

func (o *Orchestrator) run(ctx context.Context) error {
	o.start()
	if o.flow.CheckDefeat() {
		return o.finish(ctx, game.OutcomeDefeat)
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if o.flow.IsRoundComplete() {
			if err := o.closeRound(); err != nil {
				return err
			}
			continue
		}
		actor := o.flow.CurrentCombatant()
		if !actor.IsActive() {
			o.flow.AdvanceTurn()
			continue
		}

		var err error
		if actor.Kind == game.KindEnemy {
			err = o.turnUnit(ctx, actor, func(ctx context.Context) error {
				return o.npcTurn(ctx, actor, o.desc.OpeningMove)
			})
			if err == nil && o.outcome == game.OutcomeNone && o.state.Companion.IsActive() {
				companion := o.state.Companion
				err = o.turnUnit(ctx, companion, func(ctx context.Context) error {
					return o.npcTurn(ctx, companion, "")
				})
			}
		} else {
			err = o.turnUnit(ctx, actor, func(ctx context.Context) error {
				return o.playerTurn(ctx, actor)
			})
		}
		if err != nil {
			return err
		}
		if o.outcome != game.OutcomeNone {
			return nil
		}
		o.flow.AdvanceTurn()
	}
}

func (o *Orchestrator) start() {
	for _, c := range []*game.Combatant{o.state.Enemy, o.state.Companion} {
		if c != nil {
			o.emit(Event{Type: EventCombatantSpawned, ActorID: c.ID, Combatant: c.Clone()})
		}
	}
	order := o.flow.RollAllInitiative(o.state.ActiveParty(), o.desc)
	o.emit(Event{Type: EventInitiative, Order: append([]game.InitiativeEntry(nil), order...)})
	o.logf("%s appears", o.state.Enemy.Name)
	logging.Info("combat started", logging.Fields{
		constants.LogFieldCombatID: o.state.CombatID,
		"enemy":                    o.desc.ID,
		"party_size":               len(o.state.Party),
	})
}

func (o *Orchestrator) closeRound() error {
	if err := o.flow.Transition(game.PhaseRoundEnd); err != nil {
		return err
	}
	if err := o.flow.StartNewRound(); err != nil {
		return err
	}
	o.emit(Event{Type: EventRoundStarted})
	return nil
}

// turnUnit runs handler and contains its failures. A failed attempt is
// reported through OnTurnError and re-run when its Retry is called.
func (o *Orchestrator) turnUnit(ctx context.Context, actor *game.Combatant, handler func(context.Context) error) error {
	for {
		o.drainAcks()
		err := o.safely(ctx, handler)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.Error("turn failed", err, o.fields(actor.ID))
		if o.cfg.OnTurnError == nil {
			return &TurnError{Err: err, ActorID: actor.ID, Round: o.state.Round}
		}

		retry := make(chan struct{}, 1)
		var once sync.Once
		te := &TurnError{Err: err, ActorID: actor.ID, Round: o.state.Round, Retry: func() {
			once.Do(func() { retry <- struct{}{} })
		}}
		o.emit(Event{Type: EventTurnError, ActorID: actor.ID, Message: err.Error()})
		o.cfg.OnTurnError(te)

		select {
		case <-retry:
			logging.Info("retrying turn", o.fields(actor.ID))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (o *Orchestrator) safely(ctx context.Context, handler func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTurnPanicked, r)
		}
	}()
	return handler(ctx)
}

func (o *Orchestrator) drainAcks() {
	for {
		select {
		case <-o.acks:
		default:
			return
		}
	}
}

// awaitAck blocks until actorID is acknowledged or the watchdog expires. An
// expired watchdog counts as an acknowledgment.
func (o *Orchestrator) awaitAck(ctx context.Context, actorID string) error {
	watchdog := o.cfg.After(o.cfg.AnimationTimeout)
	for {
		select {
		case id := <-o.acks:
			if id == actorID {
				return nil
			}
		case <-watchdog:
			logging.Info("animation watchdog expired", o.fields(actorID))
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// checkEnd polls the end conditions after a resolution.
func (o *Orchestrator) checkEnd(ctx context.Context) error {
	switch {
	case o.flow.CheckVictory():
		return o.finish(ctx, game.OutcomeVictory)
	case o.flow.CheckDefeat():
		return o.finish(ctx, game.OutcomeDefeat)
	}
	return nil
}

// finish ends the combat. Victory is finalized only once the victory moment
// is acknowledged (or its watchdog expires); defeat has no gate.
func (o *Orchestrator) finish(ctx context.Context, outcome game.Outcome) error {
	if outcome == game.OutcomeVictory {
		o.emit(Event{Type: EventVictoryMoment, ActorID: VictoryActor})
		if err := o.awaitAck(ctx, VictoryActor); err != nil {
			return err
		}
	}
	if err := o.flow.EndCombat(); err != nil {
		return err
	}
	o.outcome = outcome
	o.logf("combat ends in %s", outcome)
	o.emit(Event{Type: EventCombatEnded, Outcome: outcome})
	fields := o.fields("")
	fields[constants.LogFieldOutcome] = string(outcome)
	logging.Info("combat ended", fields)
	return nil
}
