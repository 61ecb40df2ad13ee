package game

// Kind distinguishes which side a combatant fights on.
type Kind string

const (
	KindParty     Kind = "party"
	KindEnemy     Kind = "enemy"
	KindCompanion Kind = "companion"
)

// HealthStatus is the coarse health bucket shown to players and to the
// decision provider. Down and Defeated are terminal for the duration of a
// combat: once health reaches zero the status is sticky.
type HealthStatus string

const (
	StatusHealthy  HealthStatus = "healthy"
	StatusWounded  HealthStatus = "wounded"
	StatusCritical HealthStatus = "critical"
	StatusDown     HealthStatus = "down"
	StatusDefeated HealthStatus = "defeated"
)

// Terminal reports whether the status can only be cleared by an explicit revive.
func (s HealthStatus) Terminal() bool {
	return s == StatusDown || s == StatusDefeated
}

// ClassifyHealth maps current/max health to a status bucket. Thresholds are
// inclusive: exactly 25% is critical and exactly 50% is wounded.
func ClassifyHealth(current, max int) HealthStatus {
	if current <= 0 {
		return StatusDefeated
	}
	if max <= 0 {
		return StatusHealthy
	}
	ratio := float64(current) / float64(max)
	switch {
	case ratio <= 0.25:
		return StatusCritical
	case ratio <= 0.5:
		return StatusWounded
	default:
		return StatusHealthy
	}
}

// Combatant is a party member, an enemy or an enemy companion. Records for
// party members are owned by the persisted game state; combat code only
// touches health and status through the methods below.
type Combatant struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Kind          Kind           `json:"kind"`
	Stats         map[string]int `json:"stats"`
	CurrentHealth int            `json:"current_health"`
	MaxHealth     int            `json:"max_health"`
	Status        HealthStatus   `json:"status"`
	// Effects holds the timed effects attached to this unit (character
	// effects for party members, active effects for enemies).
	Effects   []Effect  `json:"effects"`
	Abilities []Ability `json:"abilities"`
}

// Stat returns the named stat bonus, zero when absent.
func (c *Combatant) Stat(name string) int {
	if c == nil || c.Stats == nil {
		return 0
	}
	return c.Stats[name]
}

// IsActive reports whether the combatant can still act and be targeted.
func (c *Combatant) IsActive() bool {
	return c != nil && !c.Status.Terminal() && c.CurrentHealth > 0
}

// IsParty reports whether the combatant belongs to the player's party.
func (c *Combatant) IsParty() bool { return c != nil && c.Kind == KindParty }

// HealthRatio returns current/max, or 0 for a zero max.
func (c *Combatant) HealthRatio() float64 {
	if c.MaxHealth <= 0 {
		return 0
	}
	return float64(c.CurrentHealth) / float64(c.MaxHealth)
}

// RefreshStatus re-derives Status from health, keeping terminal states.
func (c *Combatant) RefreshStatus() {
	if c.Status.Terminal() {
		return
	}
	st := ClassifyHealth(c.CurrentHealth, c.MaxHealth)
	if st == StatusDefeated && c.Kind == KindParty {
		st = StatusDown
	}
	c.Status = st
}

// ApplyDamage lowers health, flooring at zero, and returns the amount
// actually removed.
func (c *Combatant) ApplyDamage(amount int) int {
	if amount <= 0 || !c.IsActive() {
		return 0
	}
	if amount > c.CurrentHealth {
		amount = c.CurrentHealth
	}
	c.CurrentHealth -= amount
	c.RefreshStatus()
	return amount
}

// Heal raises health up to MaxHealth and returns the amount restored. Down
// or defeated combatants are not healed.
func (c *Combatant) Heal(amount int) int {
	if amount <= 0 || !c.IsActive() {
		return 0
	}
	if c.CurrentHealth+amount > c.MaxHealth {
		amount = c.MaxHealth - c.CurrentHealth
	}
	c.CurrentHealth += amount
	c.RefreshStatus()
	return amount
}

// Transform grows max health by maxBonus and restores heal points,
// re-deriving status afterwards.
func (c *Combatant) Transform(maxBonus, heal int) {
	if !c.IsActive() {
		return
	}
	if maxBonus > 0 {
		c.MaxHealth += maxBonus
	}
	c.CurrentHealth += heal
	if c.CurrentHealth > c.MaxHealth {
		c.CurrentHealth = c.MaxHealth
	}
	c.RefreshStatus()
}

// Ability returns the ability with the given id.
func (c *Combatant) Ability(id string) (Ability, bool) {
	for _, a := range c.Abilities {
		if a.ID == id {
			return a, true
		}
	}
	return Ability{}, false
}

// Clone returns a deep copy of the combatant.
func (c *Combatant) Clone() *Combatant {
	cp := *c
	if c.Stats != nil {
		cp.Stats = make(map[string]int, len(c.Stats))
		for k, v := range c.Stats {
			cp.Stats[k] = v
		}
	}
	cp.Effects = append([]Effect(nil), c.Effects...)
	cp.Abilities = append([]Ability(nil), c.Abilities...)
	return &cp
}
