package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ericogr/saga-combat/internal/dice"
	"github.com/ericogr/saga-combat/internal/game"
)

const minimalContent = `
characters:
  - id: hero
    name: Hero
    max_health: 20
    innate_reduction: 2
    stats: { brawn: 2 }
    abilities:
      - { id: strike, damage: 5 }
enemies:
  - id: ogre
    name: Ogre
    max_health: 40
    opening_move: smash
    attacks:
      - { id: smash, damage: 6 }
    specials:
      - id: rage
        trigger: { kind: health_below, threshold: 0.5 }
        kind: damage_reduction
        reduction: 2
    companion:
      id: goblin
      max_health: 5
      attacks:
        - { id: stab, damage: 1 }
difficulty:
  hard: { failure: 1, partial: 11, success: 16, critical: 24 }
`

func TestParseContentDefaults(t *testing.T) {
	c, err := ParseContent([]byte(minimalContent))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(c.Characters) != 1 || c.Characters[0].Kind != game.KindParty {
		t.Fatalf("unexpected characters: %+v", c.Characters)
	}
	hero := c.Characters[0]
	if hero.CurrentHealth != 20 || hero.Status != game.StatusHealthy {
		t.Fatalf("character not at full health: %+v", hero)
	}
	if hero.Abilities[0].Targeting != game.TargetEnemy {
		t.Fatalf("party ability default targeting = %q", hero.Abilities[0].Targeting)
	}
	if c.InnateReduction["hero"] != 2 {
		t.Fatalf("innate reduction = %v", c.InnateReduction)
	}
	ogre, ok := c.Enemy("ogre")
	if !ok {
		t.Fatalf("enemy not found")
	}
	if ogre.Attacks[0].Targeting != game.TargetRandom {
		t.Fatalf("enemy attack default targeting = %q", ogre.Attacks[0].Targeting)
	}
	if ogre.Companion == nil || ogre.Companion.Attacks[0].Targeting != game.TargetRandom {
		t.Fatalf("companion not normalized: %+v", ogre.Companion)
	}
	if got := c.Table[dice.Hard].Partial; got != 11 {
		t.Fatalf("hard override not applied, partial=%d", got)
	}
	if got := c.Table[dice.Normal]; got != dice.DefaultTable()[dice.Normal] {
		t.Fatalf("normal preset changed: %+v", got)
	}
}

func TestParseContentRejects(t *testing.T) {
	cases := map[string]string{
		"no characters": `
enemies: [{ id: e, max_health: 1, attacks: [{ id: b }] }]`,
		"duplicate id": `
characters: [{ id: x, max_health: 5, abilities: [{ id: a }] }]
enemies: [{ id: x, max_health: 1, attacks: [{ id: b }] }]`,
		"companion shares id": `
characters: [{ id: h, max_health: 5, abilities: [{ id: a }] }]
enemies: [{ id: e, max_health: 1, attacks: [{ id: b }], companion: { id: h, max_health: 1 } }]`,
		"unknown targeting": `
characters: [{ id: h, max_health: 5, abilities: [{ id: a, targeting: sideways }] }]
enemies: [{ id: e, max_health: 1, attacks: [{ id: b }] }]`,
		"unknown effect": `
characters: [{ id: h, max_health: 5, abilities: [{ id: a, effect: { type: burn } }] }]
enemies: [{ id: e, max_health: 1, attacks: [{ id: b }] }]`,
		"opening move missing": `
characters: [{ id: h, max_health: 5, abilities: [{ id: a }] }]
enemies: [{ id: e, max_health: 1, opening_move: nope, attacks: [{ id: b }] }]`,
		"threshold above one": `
characters: [{ id: h, max_health: 5, abilities: [{ id: a }] }]
enemies: [{ id: e, max_health: 1, attacks: [{ id: b }], specials: [{ id: s, kind: transform, trigger: { kind: health_below, threshold: 1.5 } }] }]`,
		"threshold zero": `
characters: [{ id: h, max_health: 5, abilities: [{ id: a }] }]
enemies: [{ id: e, max_health: 1, attacks: [{ id: b }], specials: [{ id: s, kind: transform, trigger: { kind: health_below, threshold: 0 } }] }]`,
		"non monotonic thresholds": `
characters: [{ id: h, max_health: 5, abilities: [{ id: a }] }]
enemies: [{ id: e, max_health: 1, attacks: [{ id: b }] }]
difficulty: { easy: { failure: 1, partial: 9, success: 8, critical: 20 } }`,
		"unknown preset": `
characters: [{ id: h, max_health: 5, abilities: [{ id: a }] }]
enemies: [{ id: e, max_health: 1, attacks: [{ id: b }] }]
difficulty: { brutal: { failure: 1, partial: 2, success: 3, critical: 4 } }`,
		"characters share ability": `
characters: [{ id: h, max_health: 5, abilities: [{ id: a }] }, { id: k, max_health: 5, abilities: [{ id: a }] }]
enemies: [{ id: e, max_health: 1, attacks: [{ id: b }] }]`,
		"enemy shares character ability": `
characters: [{ id: h, max_health: 5, abilities: [{ id: a }] }]
enemies: [{ id: e, max_health: 1, attacks: [{ id: a }] }]`,
		"companion shares enemy attack": `
characters: [{ id: h, max_health: 5, abilities: [{ id: a }] }]
enemies: [{ id: e, max_health: 1, attacks: [{ id: bite }], companion: { id: w, max_health: 1, attacks: [{ id: bite }] } }]`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseContent([]byte(doc))
			if !errors.Is(err, ErrInvalidContent) {
				t.Fatalf("expected ErrInvalidContent, got %v", err)
			}
		})
	}
}

func TestParseContentAllowsAttackSharedAcrossEncounters(t *testing.T) {
	doc := `
characters: [{ id: h, max_health: 5, abilities: [{ id: a }] }]
enemies:
  - { id: e1, max_health: 1, attacks: [{ id: bite }] }
  - { id: e2, max_health: 1, attacks: [{ id: bite }] }`
	if _, err := ParseContent([]byte(doc)); err != nil {
		t.Fatalf("enemies never meet in one combat, got %v", err)
	}
}

func TestLoadContentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.yaml")
	if err := os.WriteFile(path, []byte(minimalContent), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := LoadContent(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Enemies) != 1 {
		t.Fatalf("expected one enemy, got %d", len(c.Enemies))
	}

	_, err = LoadContent(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to read content file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestShippedContentLoads(t *testing.T) {
	c, err := LoadContent(filepath.Join("..", "..", "content.yaml"))
	if err != nil {
		t.Fatalf("shipped content: %v", err)
	}
	if _, ok := c.Enemy("mire_wyrm"); !ok {
		t.Fatalf("mire_wyrm missing from shipped content")
	}
}

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if s.DecisionRetries != 3 || s.BreakFreeDC != 4 {
		t.Fatalf("unexpected defaults: %+v", s)
	}
}

func TestLoadSettingsOverrides(t *testing.T) {
	t.Setenv("SAGA_DECISION_TIMEOUT", "250ms")
	t.Setenv("SAGA_DECISION_RETRIES", "5")
	t.Setenv("SAGA_ADDR", "127.0.0.1:9000")
	s, err := LoadSettings()
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if s.DecisionTimeout != 250*time.Millisecond || s.DecisionRetries != 5 || s.Addr != "127.0.0.1:9000" {
		t.Fatalf("overrides not applied: %+v", s)
	}
}

func TestLoadSettingsErrors(t *testing.T) {
	t.Setenv("SAGA_DECISION_RETRIES", "not-an-int")
	if _, err := LoadSettings(); err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}

	t.Setenv("SAGA_DECISION_RETRIES", "0")
	if _, err := LoadSettings(); err == nil || !strings.Contains(err.Error(), "SAGA_DECISION_RETRIES") {
		t.Fatalf("expected validation error, got %v", err)
	}
}
