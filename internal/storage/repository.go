package storage

import (
	"errors"

	"github.com/ericogr/saga-combat/internal/game"
)

var ErrCharacterNotFound = errors.New("character not found")

// Repository is the persistent game state. Party records are loaded fresh
// for every combat and written back after it.
type Repository interface {
	// ListCharacters returns every stored party member ordered by id.
	ListCharacters() ([]*game.Combatant, error)
	// GetParty returns the members with the given ids in the same order.
	GetParty(ids []string) ([]*game.Combatant, error)
	// SaveParty writes health, status and effects back.
	SaveParty(party []*game.Combatant) error
	// SeedCharacters inserts characters that are not stored yet.
	SeedCharacters(characters []game.Combatant) error
	SaveEncounterReport(r *EncounterReport) error
	// ListEncounterReports returns the newest reports first.
	ListEncounterReports(limit int) ([]EncounterReport, error)
}
