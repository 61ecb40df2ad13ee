package decision

import (
	"github.com/ericogr/saga-combat/internal/game"
)

// CombatantView is the health summary sent to the collaborator.
type CombatantView struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Health    int               `json:"health"`
	MaxHealth int               `json:"max_health"`
	Status    game.HealthStatus `json:"status"`
}

// AbilityView describes an ability the actor may pick.
type AbilityView struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Damage    int            `json:"damage,omitempty"`
	Targeting game.Targeting `json:"targeting"`
}

// Context is the serialized combat context for one decision. Fields tagged
// "-" stay local and drive validation and the fallback.
type Context struct {
	CombatID  string          `json:"combat_id"`
	Round     int             `json:"round"`
	ActorID   string          `json:"actor_id"`
	ActorName string          `json:"actor_name"`
	Enemy     CombatantView   `json:"enemy"`
	Party     []CombatantView `json:"party"`
	Available []AbilityView   `json:"available_abilities"`
	RecentLog []string        `json:"recent_log"`
	Hints     []string        `json:"tactical_hints,omitempty"`

	Abilities   []game.Ability `json:"-"`
	Usable      []game.Ability `json:"-"`
	OpeningMove string         `json:"-"`
}

func view(c *game.Combatant) CombatantView {
	return CombatantView{ID: c.ID, Name: c.Name, Health: c.CurrentHealth, MaxHealth: c.MaxHealth, Status: c.Status}
}

// BuildContext snapshots state for actor. excerpt bounds how many recent log
// lines are included.
func BuildContext(state *game.CombatState, actor *game.Combatant, openingMove string, hints []string, excerpt int) Context {
	dc := Context{
		CombatID:    state.CombatID,
		Round:       state.Round,
		ActorID:     actor.ID,
		ActorName:   actor.Name,
		Abilities:   actor.Abilities,
		Usable:      state.AvailableAbilities(actor),
		OpeningMove: openingMove,
		Hints:       hints,
	}
	if state.Enemy != nil {
		dc.Enemy = view(state.Enemy)
	}
	for _, c := range state.Party {
		dc.Party = append(dc.Party, view(c))
	}
	for _, a := range dc.Usable {
		dc.Available = append(dc.Available, AbilityView{ID: a.ID, Name: a.Label(), Damage: a.Damage, Targeting: a.Targeting})
	}
	log := state.Log.Entries()
	if excerpt > 0 && len(log) > excerpt {
		log = log[len(log)-excerpt:]
	}
	dc.RecentLog = log
	return dc
}

// usable returns the available ability with the given id.
func (c Context) usable(id string) (game.Ability, bool) {
	for _, a := range c.Usable {
		if a.ID == id {
			return a, true
		}
	}
	return game.Ability{}, false
}

// activeMember reports whether id names a party member still standing.
func (c Context) activeMember(id string) bool {
	for _, p := range c.Party {
		if p.ID == id {
			return !p.Status.Terminal() && p.Health > 0
		}
	}
	return false
}
