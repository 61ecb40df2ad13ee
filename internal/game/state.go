package game

// Phase is a CombatFlow state.
type Phase string

const (
	PhaseInitializing        Phase = "initializing"
	PhaseEnemyDeciding       Phase = "enemy_deciding"
	PhaseEnemyNarration      Phase = "enemy_narration"
	PhaseEnemyResolution     Phase = "enemy_resolution"
	PhasePlayerCharSelect    Phase = "player_char_select"
	PhasePlayerAbilitySelect Phase = "player_ability_select"
	PhasePlayerRolling       Phase = "player_rolling"
	PhasePlayerResolution    Phase = "player_resolution"
	PhaseRoundEnd            Phase = "round_end"
	PhaseCombatEnd           Phase = "combat_end"
)

// InitiativeEntry is one combatant's slot in the turn order.
type InitiativeEntry struct {
	CombatantID string `json:"combatant_id"`
	Rolled      int    `json:"rolled"`
	Bonus       int    `json:"bonus"`
	Total       int    `json:"total"`
}

// LogCapacity bounds the combat log ring buffer.
const LogCapacity = 5

// CombatLog keeps the most recent LogCapacity entries.
type CombatLog struct {
	entries [LogCapacity]string
	next    int
	size    int
}

// Add appends an entry, evicting the oldest when full.
func (l *CombatLog) Add(entry string) {
	l.entries[l.next] = entry
	l.next = (l.next + 1) % LogCapacity
	if l.size < LogCapacity {
		l.size++
	}
}

// Entries returns the retained entries oldest first.
func (l *CombatLog) Entries() []string {
	out := make([]string, 0, l.size)
	start := (l.next - l.size + LogCapacity) % LogCapacity
	for i := 0; i < l.size; i++ {
		out = append(out, l.entries[(start+i)%LogCapacity])
	}
	return out
}

// GameState is the persistent party state handed to a combat. It is
// constructed explicitly by the caller; there is no ambient instance.
type GameState struct {
	Party []*Combatant
	// InnateReduction is a per-character flat reduction applied whenever
	// an enemy hits that character.
	InnateReduction map[string]int
}

// NewGameState builds a GameState for the given party.
func NewGameState(party []*Combatant, innate map[string]int) *GameState {
	if innate == nil {
		innate = map[string]int{}
	}
	return &GameState{Party: party, InnateReduction: innate}
}

// Member returns the party member with the given id.
func (g *GameState) Member(id string) *Combatant {
	for _, c := range g.Party {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// CombatState is the aggregate root for a single encounter. It is created
// at combat start and discarded at combat end.
type CombatState struct {
	CombatID         string                    `json:"combat_id"`
	Round            int                       `json:"round"`
	Phase            Phase                     `json:"phase"`
	InitiativeOrder  []InitiativeEntry         `json:"initiative_order"`
	CurrentTurnIndex int                       `json:"current_turn_index"`
	AbilityUsage     map[string]map[string]int `json:"ability_usage"`
	Cooldowns        map[string]int            `json:"cooldowns"`
	Log              CombatLog                 `json:"-"`

	Party        []*Combatant `json:"party"`
	Enemy        *Combatant   `json:"enemy"`
	Companion    *Combatant   `json:"companion,omitempty"`
	PartyEffects []Effect     `json:"party_effects"`

	InnateReduction map[string]int  `json:"-"`
	UsedSpecials    map[string]bool `json:"used_specials"`
}

// NewCombatState builds the initial state for an encounter.
func NewCombatState(combatID string, gs *GameState, enemy, companion *Combatant) *CombatState {
	return &CombatState{
		CombatID:        combatID,
		Round:           1,
		Phase:           PhaseInitializing,
		AbilityUsage:    map[string]map[string]int{},
		Cooldowns:       map[string]int{},
		Party:           gs.Party,
		Enemy:           enemy,
		Companion:       companion,
		InnateReduction: gs.InnateReduction,
		UsedSpecials:    map[string]bool{},
	}
}

// ActiveParty returns party members that are not down.
func (s *CombatState) ActiveParty() []*Combatant {
	out := make([]*Combatant, 0, len(s.Party))
	for _, c := range s.Party {
		if c.IsActive() {
			out = append(out, c)
		}
	}
	return out
}

// Combatant looks up any participant by id.
func (s *CombatState) Combatant(id string) *Combatant {
	if s.Enemy != nil && s.Enemy.ID == id {
		return s.Enemy
	}
	if s.Companion != nil && s.Companion.ID == id {
		return s.Companion
	}
	for _, c := range s.Party {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Usage returns how many times combatantID used abilityID this combat.
func (s *CombatState) Usage(combatantID, abilityID string) int {
	return s.AbilityUsage[combatantID][abilityID]
}

// RecordUsage increments the usage counter.
func (s *CombatState) RecordUsage(combatantID, abilityID string) {
	m := s.AbilityUsage[combatantID]
	if m == nil {
		m = map[string]int{}
		s.AbilityUsage[combatantID] = m
	}
	m[abilityID]++
}

// RevertUsage decrements a usage counter previously recorded.
func (s *CombatState) RevertUsage(combatantID, abilityID string) {
	m := s.AbilityUsage[combatantID]
	if m == nil || m[abilityID] <= 0 {
		return
	}
	m[abilityID]--
	if m[abilityID] == 0 {
		delete(m, abilityID)
	}
}

// Available reports whether the ability is off cooldown and has uses left
// for the combatant.
func (s *CombatState) Available(combatantID string, a Ability) bool {
	if s.Cooldowns[a.ID] > 0 {
		return false
	}
	if a.Uses > 0 && s.Usage(combatantID, a.ID) >= a.Uses {
		return false
	}
	return true
}

// AvailableAbilities filters c's abilities down to the usable ones.
func (s *CombatState) AvailableAbilities(c *Combatant) []Ability {
	out := make([]Ability, 0, len(c.Abilities))
	for _, a := range c.Abilities {
		if s.Available(c.ID, a) {
			out = append(out, a)
		}
	}
	return out
}

// StartCooldown puts the ability on cooldown when it defines one.
func (s *CombatState) StartCooldown(a Ability) {
	if a.Cooldown > 0 {
		s.Cooldowns[a.ID] = a.Cooldown
	}
}

// Outcome is how a combat ended.
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeVictory Outcome = "victory"
	OutcomeDefeat  Outcome = "defeat"
	OutcomeAborted Outcome = "aborted"
)
