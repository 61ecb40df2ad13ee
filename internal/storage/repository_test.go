package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ericogr/saga-combat/internal/game"
)

func testCharacters() []game.Combatant {
	mk := func(id string, hp int) game.Combatant {
		c := game.Combatant{
			ID:            id,
			Name:          "Name " + id,
			Kind:          game.KindParty,
			Stats:         map[string]int{"brawn": 2},
			CurrentHealth: hp,
			MaxHealth:     hp,
			Abilities:     []game.Ability{{ID: "strike", Damage: 4, Targeting: game.TargetEnemy}},
		}
		c.RefreshStatus()
		return c
	}
	return []game.Combatant{mk("b", 20), mk("a", 10)}
}

func openTestRepo(t *testing.T) Repository {
	t.Helper()
	chars := testCharacters()
	db, err := OpenAndMigrate(filepath.Join(t.TempDir(), "data", "test.db"), chars)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return NewSQLiteRepository(db, chars)
}

func TestGetPartyKeepsRequestedOrder(t *testing.T) {
	repo := openTestRepo(t)
	party, err := repo.GetParty([]string{"b", "a"})
	if err != nil {
		t.Fatalf("get party: %v", err)
	}
	if len(party) != 2 || party[0].ID != "b" || party[1].ID != "a" {
		t.Fatalf("unexpected order: %+v", party)
	}
	if party[0].Stat("brawn") != 2 || len(party[0].Abilities) != 1 {
		t.Fatalf("content fields not merged: %+v", party[0])
	}
	if party[0].Kind != game.KindParty || party[0].Status != game.StatusHealthy {
		t.Fatalf("unexpected kind/status: %+v", party[0])
	}
}

func TestGetPartyMissing(t *testing.T) {
	repo := openTestRepo(t)
	_, err := repo.GetParty([]string{"a", "ghost"})
	if !errors.Is(err, ErrCharacterNotFound) {
		t.Fatalf("expected ErrCharacterNotFound, got %v", err)
	}
}

func TestSavePartyRoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	party, err := repo.GetParty([]string{"a"})
	if err != nil {
		t.Fatalf("get party: %v", err)
	}
	a := party[0]
	a.ApplyDamage(10)
	a.Effects = append(a.Effects, game.Effect{Type: game.EffectShield, Magnitude: 2, TurnsRemaining: 1})
	if err := repo.SaveParty(party); err != nil {
		t.Fatalf("save party: %v", err)
	}

	again, err := repo.GetParty([]string{"a"})
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := again[0]
	if got.CurrentHealth != 0 || got.Status != game.StatusDown {
		t.Fatalf("health/status not persisted: %+v", got)
	}
	if len(got.Effects) != 1 || got.Effects[0].Type != game.EffectShield {
		t.Fatalf("effects not persisted: %+v", got.Effects)
	}

	ghost := &game.Combatant{ID: "ghost"}
	if err := repo.SaveParty([]*game.Combatant{ghost}); !errors.Is(err, ErrCharacterNotFound) {
		t.Fatalf("expected ErrCharacterNotFound for unknown member, got %v", err)
	}
}

func TestSeedDoesNotOverwrite(t *testing.T) {
	repo := openTestRepo(t)
	party, _ := repo.GetParty([]string{"b"})
	party[0].ApplyDamage(5)
	if err := repo.SaveParty(party); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.SeedCharacters(testCharacters()); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	all, err := repo.ListCharacters()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].ID != "a" {
		t.Fatalf("unexpected list: %+v", all)
	}
	if all[1].CurrentHealth != 15 {
		t.Fatalf("seed overwrote stored health: %d", all[1].CurrentHealth)
	}
}

func TestEncounterReportsNewestFirst(t *testing.T) {
	repo := openTestRepo(t)
	for _, id := range []string{"c1", "c2", "c3"} {
		rep := &EncounterReport{CombatID: id, EnemyID: "ogre", Outcome: game.OutcomeVictory, Rounds: 2, Log: []string{"x"}}
		if err := repo.SaveEncounterReport(rep); err != nil {
			t.Fatalf("save report: %v", err)
		}
	}
	reps, err := repo.ListEncounterReports(2)
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	if len(reps) != 2 || reps[0].CombatID != "c3" || reps[1].CombatID != "c2" {
		t.Fatalf("unexpected reports: %+v", reps)
	}
	if len(reps[0].Log) != 1 {
		t.Fatalf("log not decoded: %+v", reps[0])
	}
}

func TestNewEncounterReport(t *testing.T) {
	chars := testCharacters()
	party := []*game.Combatant{&chars[0], &chars[1]}
	gs := game.NewGameState(party, nil)
	state := game.NewCombatState("cid", gs, &game.Combatant{ID: "ogre"}, nil)
	state.Round = 4
	state.Log.Add("opening")

	rep := NewEncounterReport(state, game.OutcomeDefeat)
	if rep.EnemyID != "ogre" || rep.Rounds != 4 || rep.Outcome != game.OutcomeDefeat {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if rep.Party[0] != "a" || rep.Party[1] != "b" {
		t.Fatalf("party ids not sorted: %v", rep.Party)
	}
	if len(rep.Log) != 1 || rep.Log[0] != "opening" {
		t.Fatalf("log not copied: %v", rep.Log)
	}
}
