package storage

import (
	"sort"
	"time"

	"github.com/ericogr/saga-combat/internal/game"
)

// CharacterRecord is the persisted state of one party member. Stats and
// abilities live in the content file; the record keeps only what a combat
// changes.
type CharacterRecord struct {
	ID            uint          `gorm:"primaryKey" json:"-"`
	CharacterID   string        `gorm:"uniqueIndex;not null" json:"character_id"`
	Name          string        `json:"name"`
	CurrentHealth int           `json:"current_health"`
	MaxHealth     int           `json:"max_health"`
	Status        string        `json:"status"`
	Effects       []game.Effect `gorm:"serializer:json" json:"effects"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// EncounterReport summarizes a finished combat.
type EncounterReport struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	CombatID  string       `gorm:"uniqueIndex;not null" json:"combat_id"`
	EnemyID   string       `gorm:"index" json:"enemy_id"`
	Outcome   game.Outcome `json:"outcome"`
	Rounds    int          `json:"rounds"`
	Party     []string     `gorm:"serializer:json" json:"party"`
	Log       []string     `gorm:"serializer:json" json:"log"`
	CreatedAt time.Time    `json:"created_at"`
}

func recordFromCombatant(c *game.Combatant) CharacterRecord {
	return CharacterRecord{
		CharacterID:   c.ID,
		Name:          c.Name,
		CurrentHealth: c.CurrentHealth,
		MaxHealth:     c.MaxHealth,
		Status:        string(c.Status),
		Effects:       append([]game.Effect(nil), c.Effects...),
	}
}

// NewEncounterReport summarizes a finished combat.
func NewEncounterReport(state *game.CombatState, outcome game.Outcome) *EncounterReport {
	rep := &EncounterReport{
		CombatID: state.CombatID,
		Outcome:  outcome,
		Rounds:   state.Round,
		Log:      state.Log.Entries(),
	}
	if state.Enemy != nil {
		rep.EnemyID = state.Enemy.ID
	}
	rep.Party = make([]string, 0, len(state.Party))
	for _, c := range state.Party {
		rep.Party = append(rep.Party, c.ID)
	}
	sort.Strings(rep.Party)
	return rep
}
