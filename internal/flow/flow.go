// Package flow is the combat phase state machine. It tracks the current
// phase, the initiative order and the turn pointer; the orchestrator decides
// when to move.
package flow

import (
	"errors"
	"fmt"

	"github.com/ericogr/saga-combat/internal/constants"
	"github.com/ericogr/saga-combat/internal/dice"
	"github.com/ericogr/saga-combat/internal/effects"
	"github.com/ericogr/saga-combat/internal/game"
	"github.com/ericogr/saga-combat/internal/rules"
)

var (
	ErrCombatEnded       = errors.New("combat has ended")
	ErrInvalidTransition = errors.New("invalid phase transition")
)

// forward lists the in-turn steps allowed from each phase. Every
// non-terminal phase may additionally start a new turn, close the round,
// end the combat or stay where it is (a retried turn).
var forward = map[game.Phase][]game.Phase{
	game.PhaseEnemyDeciding:       {game.PhaseEnemyNarration, game.PhaseEnemyResolution},
	game.PhaseEnemyNarration:      {game.PhaseEnemyResolution},
	game.PhasePlayerCharSelect:    {game.PhasePlayerAbilitySelect},
	game.PhasePlayerAbilitySelect: {game.PhasePlayerRolling},
	game.PhasePlayerRolling:       {game.PhasePlayerResolution, game.PhasePlayerAbilitySelect},
}

// Flow drives a CombatState through its phases.
type Flow struct {
	state  *game.CombatState
	roller *dice.Roller
	ended  bool
}

// New wraps state. A nil roller uses the runtime generator.
func New(state *game.CombatState, roller *dice.Roller) *Flow {
	if roller == nil {
		roller = dice.NewRoller(nil)
	}
	return &Flow{state: state, roller: roller}
}

// State exposes the aggregate.
func (f *Flow) State() *game.CombatState { return f.state }

// Phase returns the current phase.
func (f *Flow) Phase() game.Phase { return f.state.Phase }

// Ended reports whether EndCombat was called.
func (f *Flow) Ended() bool { return f.ended }

func allowed(from, to game.Phase) bool {
	if from == to && from != game.PhaseInitializing {
		return true
	}
	switch to {
	case game.PhaseEnemyDeciding, game.PhasePlayerCharSelect, game.PhaseRoundEnd, game.PhaseCombatEnd:
		return true
	case game.PhaseInitializing:
		return false
	}
	for _, p := range forward[from] {
		if p == to {
			return true
		}
	}
	return false
}

// Transition moves to phase to.
func (f *Flow) Transition(to game.Phase) error {
	if f.ended {
		return ErrCombatEnded
	}
	from := f.state.Phase
	if !allowed(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if to == game.PhaseCombatEnd {
		f.ended = true
	}
	f.state.Phase = to
	return nil
}

// RollAllInitiative rolls for every party member and the enemy, stores the
// sorted order and resets the turn pointer. Party members use their agility
// stat as bonus; the enemy uses its descriptor bonus.
func (f *Flow) RollAllInitiative(party []*game.Combatant, enemy game.EnemyDescriptor) []game.InitiativeEntry {
	entries := make([]game.InitiativeEntry, 0, len(party)+1)
	for _, c := range party {
		r := rules.RollInitiative(f.roller, c.Stat(constants.StatAgility))
		entries = append(entries, game.InitiativeEntry{CombatantID: c.ID, Rolled: r.Roll, Bonus: r.Bonus, Total: r.Total})
	}
	r := rules.RollInitiative(f.roller, enemy.InitiativeBonus)
	entries = append(entries, game.InitiativeEntry{CombatantID: enemy.ID, Rolled: r.Roll, Bonus: r.Bonus, Total: r.Total})

	f.state.InitiativeOrder = rules.SortByInitiative(entries, f.roller)
	f.state.CurrentTurnIndex = 0
	return f.state.InitiativeOrder
}

// CurrentEntry returns the initiative slot under the pointer.
func (f *Flow) CurrentEntry() (game.InitiativeEntry, bool) {
	i := f.state.CurrentTurnIndex
	if i < 0 || i >= len(f.state.InitiativeOrder) {
		return game.InitiativeEntry{}, false
	}
	return f.state.InitiativeOrder[i], true
}

// CurrentCombatant returns the combatant whose turn it is, or nil once the
// round is complete.
func (f *Flow) CurrentCombatant() *game.Combatant {
	e, ok := f.CurrentEntry()
	if !ok {
		return nil
	}
	return f.state.Combatant(e.CombatantID)
}

// IsEnemyTurn reports whether the pointer is on the enemy.
func (f *Flow) IsEnemyTurn() bool {
	c := f.CurrentCombatant()
	return c != nil && c.Kind == game.KindEnemy
}

// AdvanceTurn moves the pointer forward.
func (f *Flow) AdvanceTurn() {
	f.state.CurrentTurnIndex++
}

// IsRoundComplete reports whether every slot has acted.
func (f *Flow) IsRoundComplete() bool {
	return f.state.CurrentTurnIndex >= len(f.state.InitiativeOrder)
}

// StartNewRound ticks effects and cooldowns, bumps the round counter and
// rewinds the pointer.
func (f *Flow) StartNewRound() error {
	if f.ended {
		return ErrCombatEnded
	}
	effects.Tick(f.state)
	f.state.Round++
	f.state.CurrentTurnIndex = 0
	return nil
}

// CheckVictory reports whether the enemy is defeated.
func (f *Flow) CheckVictory() bool {
	e := f.state.Enemy
	return e != nil && (e.Status == game.StatusDefeated || e.CurrentHealth <= 0)
}

// CheckDefeat reports whether no party member can still act.
func (f *Flow) CheckDefeat() bool {
	return len(f.state.ActiveParty()) == 0
}

// EndCombat moves to the terminal phase. It is final.
func (f *Flow) EndCombat() error {
	return f.Transition(game.PhaseCombatEnd)
}
