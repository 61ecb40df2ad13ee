package combat

import (
	"github.com/ericogr/saga-combat/internal/constants"
	"github.com/ericogr/saga-combat/internal/dice"
	"github.com/ericogr/saga-combat/internal/game"
	"github.com/ericogr/saga-combat/internal/logging"
)

// EventType names a presentation notification.
type EventType string

const (
	EventCombatantSpawned EventType = "combatant_spawned"
	EventInitiative       EventType = "initiative_rolled"
	EventRoundStarted     EventType = "round_started"
	EventTurnChanged      EventType = "turn_changed"
	EventTurnSkipped      EventType = "turn_skipped"
	EventBreakFree        EventType = "break_free"
	EventNarration        EventType = "narration"
	EventActionExecuted   EventType = "action_executed"
	EventDamageTaken      EventType = "damage_taken"
	EventHealReceived     EventType = "heal_received"
	EventStatusUpdated    EventType = "status_updated"
	EventEffectApplied    EventType = "effect_applied"
	EventSpecialTriggered EventType = "special_triggered"
	EventTurnError        EventType = "turn_error"
	EventVictoryMoment    EventType = "victory_moment"
	EventCombatEnded      EventType = "combat_ended"
)

// VictoryActor is the id acknowledged when the victory moment finishes.
const VictoryActor = "victory"

// Event is one core to presentation notification. Target fields carry the
// target's health after the change so consumers never read live state.
type Event struct {
	Type      EventType              `json:"type"`
	Round     int                    `json:"round"`
	ActorID   string                 `json:"actor_id,omitempty"`
	TargetID  string                 `json:"target_id,omitempty"`
	AbilityID string                 `json:"ability_id,omitempty"`
	Amount    int                    `json:"amount,omitempty"`
	Health    int                    `json:"health,omitempty"`
	MaxHealth int                    `json:"max_health,omitempty"`
	Status    game.HealthStatus      `json:"status,omitempty"`
	Effect    game.EffectType        `json:"effect,omitempty"`
	Tier      dice.Tier              `json:"tier,omitempty"`
	Phase     game.Phase             `json:"phase,omitempty"`
	Outcome   game.Outcome           `json:"outcome,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Combatant *game.Combatant        `json:"combatant,omitempty"`
	Order     []game.InitiativeEntry `json:"order,omitempty"`
}

// emit delivers e, blocking while the buffer is full. Events are dropped only
// once the run context is done.
func (o *Orchestrator) emit(e Event) {
	e.Round = o.state.Round
	if e.Phase == "" {
		e.Phase = o.state.Phase
	}
	select {
	case o.events <- e:
		return
	default:
	}
	select {
	case o.events <- e:
	case <-o.stop:
		logging.Warn("combat stopped, dropping event", logging.Fields{
			constants.LogFieldCombatID: o.state.CombatID,
			constants.LogFieldEvent:    string(e.Type),
		})
	}
}

func (o *Orchestrator) emitHealth(t EventType, actor string, target *game.Combatant, amount int) {
	o.emit(Event{
		Type:      t,
		ActorID:   actor,
		TargetID:  target.ID,
		Amount:    amount,
		Health:    target.CurrentHealth,
		MaxHealth: target.MaxHealth,
		Status:    target.Status,
	})
}

func (o *Orchestrator) emitStatus(target *game.Combatant) {
	o.emit(Event{
		Type:      EventStatusUpdated,
		TargetID:  target.ID,
		Health:    target.CurrentHealth,
		MaxHealth: target.MaxHealth,
		Status:    target.Status,
	})
}
