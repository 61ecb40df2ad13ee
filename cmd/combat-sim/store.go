package main

import (
	"github.com/ericogr/saga-combat/internal/game"
	"github.com/ericogr/saga-combat/internal/storage"
)

// simStore hands every encounter a fresh copy of the configured party so
// concurrent runs never share records. Reports go to reports when set.
type simStore struct {
	characters []game.Combatant
	reports    storage.Repository
}

func (s *simStore) ListCharacters() ([]*game.Combatant, error) {
	out := make([]*game.Combatant, 0, len(s.characters))
	for i := range s.characters {
		out = append(out, s.characters[i].Clone())
	}
	return out, nil
}

func (s *simStore) GetParty(ids []string) ([]*game.Combatant, error) {
	all, _ := s.ListCharacters()
	byID := make(map[string]*game.Combatant, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}
	out := make([]*game.Combatant, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return nil, storage.ErrCharacterNotFound
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *simStore) SaveParty([]*game.Combatant) error { return nil }

func (s *simStore) SaveEncounterReport(r *storage.EncounterReport) error {
	if s.reports == nil {
		return nil
	}
	return s.reports.SaveEncounterReport(r)
}
