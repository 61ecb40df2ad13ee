// Package targeting maps symbolic target tokens to concrete combatants.
package targeting

import (
	"strings"

	"github.com/ericogr/saga-combat/internal/constants"
	"github.com/ericogr/saga-combat/internal/dice"
	"github.com/ericogr/saga-combat/internal/game"
)

// Result is either a single combatant, a group (area) or nothing.
type Result struct {
	Single *game.Combatant
	Group  []*game.Combatant
}

// IsAOE reports whether the resolution is a group.
func (r Result) IsAOE() bool { return r.Group != nil }

// Empty reports whether no valid target was found.
func (r Result) Empty() bool { return r.Single == nil && len(r.Group) == 0 }

// Targets flattens the result.
func (r Result) Targets() []*game.Combatant {
	if r.Group != nil {
		return r.Group
	}
	if r.Single != nil {
		return []*game.Combatant{r.Single}
	}
	return nil
}

// IsAOE reports whether r resolved to a list of combatants.
func IsAOE(r Result) bool { return r.IsAOE() }

// Resolver resolves tokens. Random picks draw from src.
type Resolver struct {
	src dice.Source
}

// New returns a Resolver; a nil src uses the runtime generator.
func New(src dice.Source) *Resolver {
	if src == nil {
		src = dice.NewRoller(nil)
	}
	return &Resolver{src: src}
}

// Resolve maps token to targets. self and acting return actor; random picks
// an active member uniformly; party, all and area return every active
// member; anything else is treated as a combatant id and only resolves
// while that member is still active.
func (r *Resolver) Resolve(token string, actor *game.Combatant, fullParty, activeParty []*game.Combatant) Result {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case constants.TargetTokenSelf, constants.TargetTokenActing:
		if actor == nil {
			return Result{}
		}
		return Result{Single: actor}
	case constants.TargetTokenRandom:
		if len(activeParty) == 0 {
			return Result{}
		}
		return Result{Single: activeParty[r.src.IntN(len(activeParty))]}
	case constants.TargetTokenParty, constants.TargetTokenAll, constants.TargetTokenArea:
		group := make([]*game.Combatant, len(activeParty))
		copy(group, activeParty)
		return Result{Group: group}
	}
	for _, c := range fullParty {
		if c.ID == token {
			if c.IsActive() {
				return Result{Single: c}
			}
			return Result{}
		}
	}
	return Result{}
}

// TokenFor returns the token an ability's targeting mode implies. Single
// target modes keep the requested token.
func TokenFor(mode game.Targeting, requested string) string {
	switch mode {
	case game.TargetSelf:
		return constants.TargetTokenSelf
	case game.TargetParty:
		return constants.TargetTokenParty
	case game.TargetArea:
		return constants.TargetTokenArea
	case game.TargetRandom:
		return constants.TargetTokenRandom
	}
	if requested == "" {
		return constants.TargetTokenRandom
	}
	return requested
}
