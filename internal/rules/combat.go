// Package rules holds the pure combat formulas: tier scaling, initiative,
// break-free checks and the damage modifier aggregation.
package rules

import (
	"math"
	"sort"

	"github.com/ericogr/saga-combat/internal/dice"
	"github.com/ericogr/saga-combat/internal/game"
)

// ScaleByTier applies the tier multiplier to a base amount: critical is
// ceil(base*1.5), success is base, partial is ceil(base*0.5), failure is 0.
func ScaleByTier(base int, tier dice.Tier) int {
	if base <= 0 {
		return 0
	}
	switch tier {
	case dice.TierCritical:
		return int(math.Ceil(float64(base) * 1.5))
	case dice.TierSuccess:
		return base
	case dice.TierPartial:
		return int(math.Ceil(float64(base) * 0.5))
	default:
		return 0
	}
}

// AbilityDamage returns the tier-scaled damage of an ability.
func AbilityDamage(a game.Ability, tier dice.Tier) int {
	return ScaleByTier(a.Damage, tier)
}

// AbilityHeal returns the tier-scaled heal of an ability.
func AbilityHeal(a game.Ability, tier dice.Tier) int {
	return ScaleByTier(a.Heal, tier)
}

// InitiativeRoll is a d20 plus bonus.
type InitiativeRoll struct {
	Roll  int
	Bonus int
	Total int
}

// RollInitiative rolls d20 + bonus.
func RollInitiative(r *dice.Roller, bonus int) InitiativeRoll {
	roll := r.D20()
	return InitiativeRoll{Roll: roll, Bonus: bonus, Total: roll + bonus}
}

// SortByInitiative returns a new slice ordered by total then bonus, both
// descending. Remaining ties are broken by a random key drawn once per entry
// for this call, so repeated calls may order tied entries differently.
func SortByInitiative(entries []game.InitiativeEntry, src dice.Source) []game.InitiativeEntry {
	type keyed struct {
		entry game.InitiativeEntry
		key   int
	}
	ks := make([]keyed, len(entries))
	for i, e := range entries {
		ks[i] = keyed{entry: e, key: src.IntN(math.MaxInt32)}
	}
	sort.Slice(ks, func(i, j int) bool {
		a, b := ks[i], ks[j]
		if a.entry.Total != b.entry.Total {
			return a.entry.Total > b.entry.Total
		}
		if a.entry.Bonus != b.entry.Bonus {
			return a.entry.Bonus > b.entry.Bonus
		}
		return a.key > b.key
	})
	out := make([]game.InitiativeEntry, len(ks))
	for i := range ks {
		out[i] = ks[i].entry
	}
	return out
}

// BreakFree is the outcome of a restrained character's escape attempt.
type BreakFree struct {
	Roll    int  `json:"roll"`
	Bonus   int  `json:"bonus"`
	Total   int  `json:"total"`
	DC      int  `json:"dc"`
	Success bool `json:"success"`
}

// CheckBreakFree evaluates an already rolled d6. The DC is inclusive.
func CheckBreakFree(roll, bonus, dc int) BreakFree {
	total := roll + bonus
	return BreakFree{Roll: roll, Bonus: bonus, Total: total, DC: dc, Success: total >= dc}
}

// AttemptBreakFree rolls d6 + bonus against dc.
func AttemptBreakFree(r *dice.Roller, bonus, dc int) BreakFree {
	return CheckBreakFree(r.D6(), bonus, dc)
}

// HealthStatus classifies current/max health.
func HealthStatus(current, max int) game.HealthStatus {
	return game.ClassifyHealth(current, max)
}
