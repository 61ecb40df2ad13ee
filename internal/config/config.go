package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ericogr/saga-combat/internal/dice"
	"github.com/ericogr/saga-combat/internal/game"
)

// ErrInvalidContent wraps every validation failure of a content file.
var ErrInvalidContent = errors.New("invalid content")

type characterEntry struct {
	ID        string         `yaml:"id"`
	Name      string         `yaml:"name"`
	MaxHealth int            `yaml:"max_health"`
	Stats     map[string]int `yaml:"stats"`
	Abilities []game.Ability `yaml:"abilities"`
	// InnateReduction is subtracted from every enemy hit on this character.
	InnateReduction int `yaml:"innate_reduction"`
}

type rawContent struct {
	Characters []characterEntry       `yaml:"characters"`
	Enemies    []game.EnemyDescriptor `yaml:"enemies"`
	// Difficulty overrides the built-in threshold presets.
	Difficulty dice.Table `yaml:"difficulty"`
	// DecisionPrompt is an optional template for the decision collaborator.
	// The token {{context}} is replaced with the serialized combat context.
	DecisionPrompt string `yaml:"decision_prompt"`
}

// Content is the validated game data: the roster seeded into storage and
// the enemies encounters can be started against.
type Content struct {
	Characters      []game.Combatant
	Enemies         []game.EnemyDescriptor
	InnateReduction map[string]int
	Table           dice.Table
	// Optional decision prompt template loaded from content
	DecisionPromptTemplate string
}

// Enemy returns the descriptor with the given id.
func (c *Content) Enemy(id string) (game.EnemyDescriptor, bool) {
	for _, e := range c.Enemies {
		if e.ID == id {
			return e, true
		}
	}
	return game.EnemyDescriptor{}, false
}

// LoadContent reads and validates the YAML content file at path.
func LoadContent(path string) (*Content, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content file %s: %w", path, err)
	}
	c, err := ParseContent(b)
	if err != nil {
		return nil, fmt.Errorf("content file %s: %w", path, err)
	}
	return c, nil
}

// ParseContent decodes and validates YAML content. Party abilities without
// a targeting mode target the enemy; enemy attacks without one pick a
// random party member.
func ParseContent(b []byte) (*Content, error) {
	var rc rawContent
	if err := yaml.Unmarshal(b, &rc); err != nil {
		return nil, fmt.Errorf("failed to parse content: %w", err)
	}
	if len(rc.Characters) == 0 {
		return nil, invalid("characters is empty (provide a 'characters' list)")
	}
	if len(rc.Enemies) == 0 {
		return nil, invalid("enemies is empty (provide an 'enemies' list)")
	}

	out := &Content{
		Characters:             make([]game.Combatant, 0, len(rc.Characters)),
		Enemies:                make([]game.EnemyDescriptor, 0, len(rc.Enemies)),
		InnateReduction:        map[string]int{},
		DecisionPromptTemplate: strings.TrimSpace(rc.DecisionPrompt),
	}

	// Ids are shared between characters, enemies and companions because
	// combat events and targets address them in one namespace.
	ids := make(map[string]struct{})
	claim := func(id string) error {
		if strings.TrimSpace(id) == "" {
			return invalid("entry missing 'id'")
		}
		if _, exists := ids[id]; exists {
			return invalid("duplicate id '%s'", id)
		}
		ids[id] = struct{}{}
		return nil
	}

	// Cooldowns are keyed by ability id within a combat, so an id may not
	// repeat among the characters, an enemy and its companion.
	partyAbilities := make(map[string]string)

	for _, ce := range rc.Characters {
		if err := claim(ce.ID); err != nil {
			return nil, err
		}
		if ce.MaxHealth <= 0 {
			return nil, invalid("character '%s' needs a positive max_health", ce.ID)
		}
		if ce.InnateReduction < 0 {
			return nil, invalid("character '%s' has a negative innate_reduction", ce.ID)
		}
		abilities, err := validateAbilities(ce.ID, ce.Abilities, game.TargetEnemy)
		if err != nil {
			return nil, err
		}
		if len(abilities) == 0 {
			return nil, invalid("character '%s' has no abilities", ce.ID)
		}
		if err := claimAbilities(partyAbilities, ce.ID, abilities); err != nil {
			return nil, err
		}
		c := game.Combatant{
			ID:            ce.ID,
			Name:          ce.Name,
			Kind:          game.KindParty,
			Stats:         ce.Stats,
			CurrentHealth: ce.MaxHealth,
			MaxHealth:     ce.MaxHealth,
			Abilities:     abilities,
		}
		c.RefreshStatus()
		out.Characters = append(out.Characters, c)
		if ce.InnateReduction > 0 {
			out.InnateReduction[ce.ID] = ce.InnateReduction
		}
	}

	for _, e := range rc.Enemies {
		if err := claim(e.ID); err != nil {
			return nil, err
		}
		desc, err := validateEnemy(e)
		if err != nil {
			return nil, err
		}
		if err := checkEncounterAbilities(partyAbilities, desc); err != nil {
			return nil, err
		}
		if desc.Companion != nil {
			if err := claim(desc.Companion.ID); err != nil {
				return nil, err
			}
		}
		out.Enemies = append(out.Enemies, desc)
	}

	table, err := validateTable(rc.Difficulty)
	if err != nil {
		return nil, err
	}
	out.Table = table
	return out, nil
}

func validateEnemy(e game.EnemyDescriptor) (game.EnemyDescriptor, error) {
	if e.MaxHealth <= 0 {
		return e, invalid("enemy '%s' needs a positive max_health", e.ID)
	}
	attacks, err := validateAbilities(e.ID, e.Attacks, game.TargetRandom)
	if err != nil {
		return e, err
	}
	if len(attacks) == 0 {
		return e, invalid("enemy '%s' has no attacks", e.ID)
	}
	e.Attacks = attacks
	if e.OpeningMove != "" && !hasAbility(attacks, e.OpeningMove) {
		return e, invalid("enemy '%s' opening_move '%s' is not one of its attacks", e.ID, e.OpeningMove)
	}

	specials := make(map[string]struct{}, len(e.Specials))
	for _, sp := range e.Specials {
		if sp.ID == "" {
			return e, invalid("enemy '%s' has a special without 'id'", e.ID)
		}
		if _, dup := specials[sp.ID]; dup {
			return e, invalid("enemy '%s' has duplicate special '%s'", e.ID, sp.ID)
		}
		specials[sp.ID] = struct{}{}
		if sp.Trigger.Kind != game.TriggerHealthBelow {
			return e, invalid("special '%s' has unknown trigger kind '%s'", sp.ID, sp.Trigger.Kind)
		}
		if sp.Trigger.Threshold <= 0 || sp.Trigger.Threshold > 1 {
			return e, invalid("special '%s' threshold %v is outside (0,1]", sp.ID, sp.Trigger.Threshold)
		}
		switch sp.Kind {
		case game.SpecialDamageReduction:
			if sp.Reduction <= 0 {
				return e, invalid("special '%s' needs a positive reduction", sp.ID)
			}
		case game.SpecialTransform:
		default:
			return e, invalid("special '%s' has unknown kind '%s'", sp.ID, sp.Kind)
		}
	}

	if cd := e.Companion; cd != nil {
		if cd.MaxHealth <= 0 {
			return e, invalid("companion '%s' needs a positive max_health", cd.ID)
		}
		attacks, err := validateAbilities(cd.ID, cd.Attacks, game.TargetRandom)
		if err != nil {
			return e, err
		}
		comp := *cd
		comp.Attacks = attacks
		e.Companion = &comp
	}
	return e, nil
}

func claimAbilities(owners map[string]string, owner string, list []game.Ability) error {
	for _, a := range list {
		if other, dup := owners[a.ID]; dup {
			return invalid("ability '%s' is defined by both '%s' and '%s'", a.ID, other, owner)
		}
		owners[a.ID] = owner
	}
	return nil
}

// checkEncounterAbilities rejects an enemy whose attacks, or whose
// companion's attacks, reuse an ability id already taken in its combat.
func checkEncounterAbilities(party map[string]string, e game.EnemyDescriptor) error {
	owners := make(map[string]string, len(party))
	for id, owner := range party {
		owners[id] = owner
	}
	if err := claimAbilities(owners, e.ID, e.Attacks); err != nil {
		return err
	}
	if e.Companion != nil {
		return claimAbilities(owners, e.Companion.ID, e.Companion.Attacks)
	}
	return nil
}

// validateAbilities checks one owner's ability list and returns a copy with
// default targeting filled in.
func validateAbilities(owner string, in []game.Ability, defaultTargeting game.Targeting) ([]game.Ability, error) {
	out := make([]game.Ability, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, a := range in {
		if strings.TrimSpace(a.ID) == "" {
			return nil, invalid("'%s' has an ability without 'id'", owner)
		}
		if _, dup := seen[a.ID]; dup {
			return nil, invalid("'%s' has duplicate ability '%s'", owner, a.ID)
		}
		seen[a.ID] = struct{}{}
		if a.Damage < 0 || a.Heal < 0 || a.Cooldown < 0 || a.Uses < 0 {
			return nil, invalid("ability '%s' of '%s' has a negative value", a.ID, owner)
		}
		if a.Targeting == "" {
			a.Targeting = defaultTargeting
		}
		if _, err := game.ParseTargeting(string(a.Targeting)); err != nil {
			return nil, invalid("ability '%s' of '%s': %v", a.ID, owner, err)
		}
		if _, err := dice.ParseDifficulty(a.Difficulty); err != nil {
			return nil, invalid("ability '%s' of '%s': %v", a.ID, owner, err)
		}
		if a.Effect != nil {
			if _, err := game.ParseEffectType(string(a.Effect.Type)); err != nil {
				return nil, invalid("ability '%s' of '%s': %v", a.ID, owner, err)
			}
			if a.Effect.Duration < 0 {
				return nil, invalid("ability '%s' of '%s' has a negative effect duration", a.ID, owner)
			}
		}
		out = append(out, a)
	}
	return out, nil
}

func validateTable(overrides dice.Table) (dice.Table, error) {
	for d, th := range overrides {
		if _, err := dice.ParseDifficulty(string(d)); err != nil || d == "" {
			return nil, invalid("difficulty: unknown preset '%s'", d)
		}
		if err := th.Validate(); err != nil {
			return nil, invalid("difficulty '%s': %v", d, err)
		}
	}
	return dice.DefaultTable().Merge(overrides), nil
}

func hasAbility(list []game.Ability, id string) bool {
	for _, a := range list {
		if a.ID == id {
			return true
		}
	}
	return false
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidContent, fmt.Sprintf(format, args...))
}
