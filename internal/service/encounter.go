package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ericogr/saga-combat/internal/combat"
	"github.com/ericogr/saga-combat/internal/config"
	"github.com/ericogr/saga-combat/internal/constants"
	"github.com/ericogr/saga-combat/internal/decision"
	"github.com/ericogr/saga-combat/internal/dice"
	"github.com/ericogr/saga-combat/internal/game"
	"github.com/ericogr/saga-combat/internal/logging"
	"github.com/ericogr/saga-combat/internal/storage"
)

var (
	ErrUnknownEnemy    = errors.New("unknown enemy")
	ErrEmptyParty      = errors.New("party is empty")
	ErrDuplicateMember = errors.New("party lists a character more than once")
)

// Store is the subset of storage.Repository an encounter needs.
type Store interface {
	ListCharacters() ([]*game.Combatant, error)
	GetParty(ids []string) ([]*game.Combatant, error)
	SaveParty(party []*game.Combatant) error
	SaveEncounterReport(r *storage.EncounterReport) error
}

// Encounter is a prepared, not yet started combat.
type Encounter struct {
	CombatID string
	Enemy    game.EnemyDescriptor
	State    *game.GameState
}

// EncounterService prepares combats from stored party records and content,
// and writes their results back.
type EncounterService struct {
	store   Store
	content *config.Content
}

func NewEncounterService(store Store, content *config.Content) *EncounterService {
	return &EncounterService{store: store, content: content}
}

// Enemies lists the configured enemies.
func (s *EncounterService) Enemies() []game.EnemyDescriptor {
	return append([]game.EnemyDescriptor(nil), s.content.Enemies...)
}

// Prepare loads the party and instantiates the enemy. An empty partyIDs
// selects every stored character; a repeated id is rejected.
func (s *EncounterService) Prepare(enemyID string, partyIDs []string) (*Encounter, error) {
	desc, ok := s.content.Enemy(enemyID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEnemy, enemyID)
	}
	var (
		party []*game.Combatant
		err   error
	)
	seen := make(map[string]struct{}, len(partyIDs))
	for _, id := range partyIDs {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMember, id)
		}
		seen[id] = struct{}{}
	}
	if len(partyIDs) == 0 {
		party, err = s.store.ListCharacters()
	} else {
		party, err = s.store.GetParty(partyIDs)
	}
	if err != nil {
		return nil, err
	}
	if len(party) == 0 {
		return nil, ErrEmptyParty
	}

	innate := make(map[string]int, len(party))
	for _, c := range party {
		if v := s.content.InnateReduction[c.ID]; v > 0 {
			innate[c.ID] = v
		}
	}
	return &Encounter{
		CombatID: uuid.NewString(),
		Enemy:    desc,
		State:    game.NewGameState(party, innate),
	}, nil
}

// Roller returns a runtime roller classifying with the content's
// difficulty table.
func (s *EncounterService) Roller() *dice.Roller {
	return dice.NewRoller(nil).WithTable(s.content.Table)
}

// NewOrchestrator builds the orchestrator for enc. A nil cfg.Roller gets
// one from Roller.
func (s *EncounterService) NewOrchestrator(enc *Encounter, cfg combat.Config) *combat.Orchestrator {
	if cfg.Roller == nil {
		cfg.Roller = s.Roller()
	}
	return combat.New(enc.CombatID, enc.State, enc.Enemy, cfg)
}

// Finish persists the party's health, status and effects and records an
// encounter report.
func (s *EncounterService) Finish(state *game.CombatState, outcome game.Outcome) (*storage.EncounterReport, error) {
	fields := logging.Fields{
		constants.LogFieldCombatID: state.CombatID,
		constants.LogFieldOutcome:  string(outcome),
		constants.LogFieldRound:    state.Round,
	}
	if err := s.store.SaveParty(state.Party); err != nil {
		logging.Error("failed to persist party", err, fields)
		return nil, err
	}
	rep := storage.NewEncounterReport(state, outcome)
	if err := s.store.SaveEncounterReport(rep); err != nil {
		logging.Error("failed to save encounter report", err, fields)
		return nil, err
	}
	logging.Info("encounter recorded", fields)
	return rep, nil
}

// Run plays a whole encounter without a presentation layer: every action
// is acknowledged as soon as it is announced. Missing deciders default to
// the fallback decider and the auto player. A run error is returned after
// the result has been recorded.
func (s *EncounterService) Run(ctx context.Context, enemyID string, partyIDs []string, cfg combat.Config) (*storage.EncounterReport, error) {
	if cfg.Decider == nil {
		cfg.Decider = decision.FallbackDecider{}
	}
	if cfg.Player == nil {
		cfg.Player = combat.AutoPlayer{}
	}
	enc, err := s.Prepare(enemyID, partyIDs)
	if err != nil {
		return nil, err
	}
	o := s.NewOrchestrator(enc, cfg)
	done := make(chan struct{})
	go func() {
		defer close(done)
		combat.ConsumeEvents(o, nil)
	}()
	outcome, runErr := o.Run(ctx)
	<-done

	rep, err := s.Finish(o.State(), outcome)
	if runErr != nil {
		return rep, runErr
	}
	return rep, err
}
