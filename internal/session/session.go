// Package session bridges a running combat to a request/response
// presentation layer. A Session answers the orchestrator's player and dice
// prompts from pending slots filled by API calls, and folds the event
// stream into a roster view clients can poll.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ericogr/saga-combat/internal/combat"
	"github.com/ericogr/saga-combat/internal/dice"
	"github.com/ericogr/saga-combat/internal/game"
	"github.com/ericogr/saga-combat/internal/storage"
)

var (
	ErrNoPendingInput  = errors.New("no ability selection is pending")
	ErrNoPendingRoll   = errors.New("no roll is pending")
	ErrNoPendingRetry  = errors.New("no failed turn to retry")
	ErrSessionNotFound = errors.New("session not found")
)

// RosterEntry is the last known health of one combatant.
type RosterEntry struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Kind      game.Kind         `json:"kind"`
	Health    int               `json:"health"`
	MaxHealth int               `json:"max_health"`
	Status    game.HealthStatus `json:"status"`
}

// View is a point-in-time snapshot of a session.
type View struct {
	ID            string                   `json:"id"`
	CombatID      string                   `json:"combat_id"`
	EnemyID       string                   `json:"enemy_id"`
	Round         int                      `json:"round"`
	Phase         game.Phase               `json:"phase"`
	Roster        []RosterEntry            `json:"roster"`
	Initiative    []game.InitiativeEntry   `json:"initiative,omitempty"`
	PendingAction *combat.ActionRequest    `json:"pending_action,omitempty"`
	PendingRoll   *combat.RollRequest      `json:"pending_roll,omitempty"`
	LastError     string                   `json:"last_error,omitempty"`
	Outcome       game.Outcome             `json:"outcome,omitempty"`
	Done          bool                     `json:"done"`
	EventCount    int                      `json:"event_count"`
	Report        *storage.EncounterReport `json:"report,omitempty"`
}

type pendingAction struct {
	req   combat.ActionRequest
	reply chan combat.PlayerAction
}

type pendingRoll struct {
	req   combat.RollRequest
	reply chan dice.Result
}

// Session is one live combat.
type Session struct {
	ID       string
	CombatID string
	EnemyID  string

	orch   *combat.Orchestrator
	roller *dice.Roller
	cancel context.CancelFunc
	done   chan struct{}
	notify chan struct{}

	mu         sync.Mutex
	events     []combat.Event
	roster     []RosterEntry
	initiative []game.InitiativeEntry
	round      int
	phase      game.Phase
	action     *pendingAction
	roll       *pendingRoll
	lastErr    *combat.TurnError
	outcome    game.Outcome
	report     *storage.EncounterReport
	runErr     error
}

func newSession(id string, enc encounter, roller *dice.Roller) *Session {
	s := &Session{
		ID:       id,
		CombatID: enc.combatID,
		EnemyID:  enc.enemyID,
		roller:   roller,
		done:     make(chan struct{}),
		notify:   make(chan struct{}, 1),
		round:    1,
		phase:    game.PhaseInitializing,
	}
	for _, c := range enc.party {
		s.roster = append(s.roster, rosterEntry(c))
	}
	return s
}

// encounter carries the parts of a prepared combat a session displays.
type encounter struct {
	combatID string
	enemyID  string
	party    []*game.Combatant
}

func rosterEntry(c *game.Combatant) RosterEntry {
	return RosterEntry{
		ID:        c.ID,
		Name:      c.Name,
		Kind:      c.Kind,
		Health:    c.CurrentHealth,
		MaxHealth: c.MaxHealth,
		Status:    c.Status,
	}
}

// Updates signals after every state change. Signals coalesce.
func (s *Session) Updates() <-chan struct{} { return s.notify }

// Done is closed once the combat ended and its result was recorded.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) changed() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// ChooseAction implements combat.PlayerInput. It parks the request until
// SubmitAction answers it.
func (s *Session) ChooseAction(ctx context.Context, req combat.ActionRequest) (combat.PlayerAction, error) {
	p := &pendingAction{req: req, reply: make(chan combat.PlayerAction, 1)}
	s.mu.Lock()
	s.action = p
	s.mu.Unlock()
	s.changed()

	defer func() {
		s.mu.Lock()
		if s.action == p {
			s.action = nil
		}
		s.mu.Unlock()
	}()
	select {
	case a := <-p.reply:
		return a, nil
	case <-ctx.Done():
		return combat.PlayerAction{}, ctx.Err()
	}
}

// SubmitAction answers the pending ability prompt. An ability that is not
// among the offered ones is rejected and the prompt stays pending.
func (s *Session) SubmitAction(a combat.PlayerAction) error {
	s.mu.Lock()
	p := s.action
	if p == nil {
		s.mu.Unlock()
		return ErrNoPendingInput
	}
	if !offered(p.req, a.AbilityID) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", combat.ErrAbilityUnavailable, a.AbilityID)
	}
	s.action = nil
	s.mu.Unlock()
	p.reply <- a
	s.changed()
	return nil
}

func offered(req combat.ActionRequest, abilityID string) bool {
	for _, ab := range req.Available {
		if ab.ID == abilityID {
			return true
		}
	}
	return false
}

// Roll implements combat.DiceUI. It parks the request until PerformRoll.
func (s *Session) Roll(ctx context.Context, req combat.RollRequest) (dice.Result, error) {
	p := &pendingRoll{req: req, reply: make(chan dice.Result, 1)}
	s.mu.Lock()
	s.roll = p
	s.mu.Unlock()
	s.changed()

	defer func() {
		s.mu.Lock()
		if s.roll == p {
			s.roll = nil
		}
		s.mu.Unlock()
	}()
	select {
	case r := <-p.reply:
		return r, nil
	case <-ctx.Done():
		return dice.Result{}, ctx.Err()
	}
}

// PerformRoll rolls for the pending request and relays the result.
func (s *Session) PerformRoll() (dice.Result, error) {
	s.mu.Lock()
	p := s.roll
	s.roll = nil
	s.mu.Unlock()
	if p == nil {
		return dice.Result{}, ErrNoPendingRoll
	}
	res := s.roller.PerformRoll(p.req.Bonus, p.req.Difficulty)
	p.reply <- res
	s.changed()
	return res, nil
}

// Acknowledge forwards an animation-complete signal.
func (s *Session) Acknowledge(actorID string) {
	s.orch.Acknowledge(actorID)
}

// Retry re-runs the last failed turn.
func (s *Session) Retry() error {
	s.mu.Lock()
	te := s.lastErr
	s.lastErr = nil
	s.mu.Unlock()
	if te == nil || te.Retry == nil {
		return ErrNoPendingRetry
	}
	te.Retry()
	s.changed()
	return nil
}

func (s *Session) onTurnError(te *combat.TurnError) {
	s.mu.Lock()
	s.lastErr = te
	s.mu.Unlock()
	s.changed()
}

// EventsSince returns the events with index >= after and the next index.
func (s *Session) EventsSince(after int) ([]combat.Event, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if after < 0 {
		after = 0
	}
	if after >= len(s.events) {
		return []combat.Event{}, len(s.events)
	}
	return append([]combat.Event(nil), s.events[after:]...), len(s.events)
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		ID:         s.ID,
		CombatID:   s.CombatID,
		EnemyID:    s.EnemyID,
		Round:      s.round,
		Phase:      s.phase,
		Roster:     append([]RosterEntry(nil), s.roster...),
		Initiative: append([]game.InitiativeEntry(nil), s.initiative...),
		Outcome:    s.outcome,
		EventCount: len(s.events),
		Report:     s.report,
	}
	if s.action != nil {
		req := s.action.req
		v.PendingAction = &req
	}
	if s.roll != nil {
		req := s.roll.req
		v.PendingRoll = &req
	}
	if s.lastErr != nil {
		v.LastError = s.lastErr.Error()
	}
	select {
	case <-s.done:
		v.Done = true
		if s.runErr != nil && v.LastError == "" {
			v.LastError = s.runErr.Error()
		}
	default:
	}
	return v
}

// consume folds the orchestrator's events into the session until the
// stream closes.
func (s *Session) consume() {
	for e := range s.orch.Events() {
		s.mu.Lock()
		s.events = append(s.events, e)
		s.apply(e)
		s.mu.Unlock()
		s.changed()
	}
}

func (s *Session) apply(e combat.Event) {
	if e.Round > 0 {
		s.round = e.Round
	}
	if e.Phase != "" {
		s.phase = e.Phase
	}
	switch e.Type {
	case combat.EventCombatantSpawned:
		if e.Combatant != nil {
			s.roster = append(s.roster, rosterEntry(e.Combatant))
		}
	case combat.EventInitiative:
		s.initiative = e.Order
	case combat.EventDamageTaken, combat.EventHealReceived, combat.EventStatusUpdated:
		for i := range s.roster {
			if s.roster[i].ID == e.TargetID {
				s.roster[i].Health = e.Health
				s.roster[i].MaxHealth = e.MaxHealth
				s.roster[i].Status = e.Status
			}
		}
	case combat.EventCombatEnded:
		s.outcome = e.Outcome
	}
}

func (s *Session) finish(outcome game.Outcome, rep *storage.EncounterReport, err error) {
	s.mu.Lock()
	s.outcome = outcome
	s.report = rep
	s.runErr = err
	s.lastErr = nil
	s.mu.Unlock()
	close(s.done)
	s.changed()
}
