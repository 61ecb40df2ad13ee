package combat

import (
	"context"

	"github.com/ericogr/saga-combat/internal/constants"
	"github.com/ericogr/saga-combat/internal/dice"
)

// LocalDice performs checks with a Roller, standing in for the dice UI.
type LocalDice struct {
	Roller *dice.Roller
}

// Roll performs the pure roll for req.
func (l LocalDice) Roll(_ context.Context, req RollRequest) (dice.Result, error) {
	r := l.Roller
	if r == nil {
		r = dice.NewRoller(nil)
	}
	return r.PerformRoll(req.Bonus, req.Difficulty), nil
}

// AutoPlayer picks the first available damaging ability, else the first
// available one. It drives headless simulations.
type AutoPlayer struct{}

// ChooseAction implements PlayerInput.
func (AutoPlayer) ChooseAction(_ context.Context, req ActionRequest) (PlayerAction, error) {
	for _, a := range req.Available {
		if a.DealsDamage() {
			return PlayerAction{AbilityID: a.ID, Target: constants.TargetTokenEnemy}, nil
		}
	}
	if len(req.Available) == 0 {
		return PlayerAction{}, ErrAbilityUnavailable
	}
	return PlayerAction{AbilityID: req.Available[0].ID, Target: req.ActorID}, nil
}

// ConsumeEvents reads o's events until Run closes the stream, acknowledging
// every executed action and the victory moment as soon as it is seen. each,
// when non-nil, observes every event first.
func ConsumeEvents(o *Orchestrator, each func(Event)) {
	for e := range o.Events() {
		if each != nil {
			each(e)
		}
		switch e.Type {
		case EventActionExecuted, EventVictoryMoment:
			o.Acknowledge(e.ActorID)
		}
	}
}
