package decision

import (
	"context"

	"github.com/ericogr/saga-combat/internal/constants"
	"github.com/ericogr/saga-combat/internal/game"
)

// Fallback picks a move without the collaborator: the opening move on round
// one when usable, else the first usable damaging ability, else the first
// usable ability, else the first defined ability regardless of cooldown.
func Fallback(dc Context) Decision {
	pick := func(a game.Ability) Decision {
		return Decision{ActionID: a.ID, Target: constants.TargetTokenRandom, Source: SourceFallback}
	}
	if dc.Round == 1 && dc.OpeningMove != "" {
		if a, ok := dc.usable(dc.OpeningMove); ok {
			return pick(a)
		}
	}
	for _, a := range dc.Usable {
		if a.DealsDamage() {
			return pick(a)
		}
	}
	if len(dc.Usable) > 0 {
		return pick(dc.Usable[0])
	}
	if len(dc.Abilities) > 0 {
		return pick(dc.Abilities[0])
	}
	return Decision{Source: SourceFallback}
}

// FallbackDecider is a Collaborator-free decider used by the simulator and
// when no API key is configured.
type FallbackDecider struct{}

// Decide returns Fallback(dc).
func (FallbackDecider) Decide(_ context.Context, dc Context) (Decision, error) {
	if len(dc.Abilities) == 0 {
		return Decision{}, ErrNoAbilities
	}
	return Fallback(dc), nil
}
