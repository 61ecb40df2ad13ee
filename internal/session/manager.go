package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ericogr/saga-combat/internal/combat"
	"github.com/ericogr/saga-combat/internal/constants"
	"github.com/ericogr/saga-combat/internal/game"
	"github.com/ericogr/saga-combat/internal/logging"
	"github.com/ericogr/saga-combat/internal/service"
)

// Manager owns the live sessions.
type Manager struct {
	svc  *service.EncounterService
	base combat.Config

	mu       sync.RWMutex
	sessions map[string]*Session
	wg       sync.WaitGroup
}

// NewManager builds a manager. base supplies the decider and tuning shared
// by every session; the player, dice and turn error hooks are replaced per
// session.
func NewManager(svc *service.EncounterService, base combat.Config) *Manager {
	if base.Roller == nil {
		base.Roller = svc.Roller()
	}
	return &Manager{svc: svc, base: base, sessions: map[string]*Session{}}
}

// Start prepares an encounter and runs it in the background.
func (m *Manager) Start(enemyID string, partyIDs []string) (*Session, error) {
	enc, err := m.svc.Prepare(enemyID, partyIDs)
	if err != nil {
		return nil, err
	}
	party := make([]*game.Combatant, 0, len(enc.State.Party))
	for _, c := range enc.State.Party {
		party = append(party, c.Clone())
	}
	s := newSession(uuid.NewString(), encounter{combatID: enc.CombatID, enemyID: enc.Enemy.ID, party: party}, m.base.Roller)

	cfg := m.base
	cfg.Player = s
	cfg.Dice = s
	cfg.OnTurnError = s.onTurnError
	s.orch = m.svc.NewOrchestrator(enc, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	fields := logging.Fields{constants.LogFieldSessionID: s.ID, constants.LogFieldCombatID: s.CombatID}
	logging.Info("session started", fields)

	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		s.consume()
	}()
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()
		outcome, runErr := s.orch.Run(ctx)
		<-consumed
		rep, err := m.svc.Finish(s.orch.State(), outcome)
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			logging.Error("session combat failed", runErr, fields)
			err = runErr
		}
		s.finish(outcome, rep, err)
		logging.Info("session finished", logging.Fields{
			constants.LogFieldSessionID: s.ID,
			constants.LogFieldOutcome:   string(outcome),
		})
	}()
	return s, nil
}

// Get returns a live or finished session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Stop aborts a session and forgets it once its result is recorded.
func (m *Manager) Stop(ctx context.Context, id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	s.cancel()
	select {
	case <-s.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Shutdown aborts every session and waits for their results to be recorded.
func (m *Manager) Shutdown() {
	m.mu.RLock()
	for _, s := range m.sessions {
		s.cancel()
	}
	m.mu.RUnlock()
	m.wg.Wait()
}
