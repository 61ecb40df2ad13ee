// Package dice implements the d20 check and d6 rules used by combat.
//
// Rolls draw from an injectable Source. The default source is the runtime
// generator from math/rand/v2, which is seeded per process and safe for
// concurrent use, so parallel tests never observe order-dependent rolls.
package dice

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrInvalidRoll is returned when a reported roll does not match the
// request it answers.
var ErrInvalidRoll = errors.New("invalid roll")

// Source is the subset of a random generator the rules need.
type Source interface {
	IntN(n int) int
}

type runtimeSource struct{}

func (runtimeSource) IntN(n int) int { return rand.IntN(n) }

// Roller rolls dice from a Source.
type Roller struct {
	src   Source
	table Table
}

// NewRoller returns a Roller over src using the default difficulty table.
// A nil src uses the runtime generator.
func NewRoller(src Source) *Roller {
	if src == nil {
		src = runtimeSource{}
	}
	return &Roller{src: src, table: DefaultTable()}
}

// WithTable returns a copy of the roller that classifies with t.
func (r *Roller) WithTable(t Table) *Roller {
	cp := *r
	cp.table = t
	return &cp
}

// Table returns the difficulty table in use.
func (r *Roller) Table() Table { return r.table }

// IntN exposes the underlying source for tie-breaks and random picks.
func (r *Roller) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return r.src.IntN(n)
}

// D20 rolls a twenty-sided die.
func (r *Roller) D20() int { return r.src.IntN(20) + 1 }

// D6 rolls a six-sided die.
func (r *Roller) D6() int { return r.src.IntN(6) + 1 }

// Result is the outcome of a d20 check.
type Result struct {
	Roll       int        `json:"roll"`
	Bonus      int        `json:"bonus"`
	Total      int        `json:"total"`
	Tier       Tier       `json:"tier"`
	Difficulty Difficulty `json:"difficulty"`
	IsNat20    bool       `json:"is_nat20"`
	IsNat1     bool       `json:"is_nat1"`
}

// PerformRoll rolls a d20, adds bonus and classifies the total.
func (r *Roller) PerformRoll(bonus int, difficulty Difficulty) Result {
	return r.table.Evaluate(r.D20(), bonus, difficulty)
}

// Evaluate classifies an already rolled d20. A natural 20 never resolves
// below success; a natural 1 has no automatic floor.
func (t Table) Evaluate(roll, bonus int, difficulty Difficulty) Result {
	total := roll + bonus
	tier := t.Classify(total, difficulty)
	if roll == 20 && (tier == TierPartial || tier == TierFailure) {
		tier = TierSuccess
	}
	return Result{
		Roll:       roll,
		Bonus:      bonus,
		Total:      total,
		Tier:       tier,
		Difficulty: difficulty,
		IsNat20:    roll == 20,
		IsNat1:     roll == 1,
	}
}

// Verify recomputes a result reported by an external dice UI. Only the raw
// roll is trusted; bonus and difficulty must match the request and the
// tier is always derived locally.
func (t Table) Verify(reported Result, bonus int, difficulty Difficulty) (Result, error) {
	if reported.Roll < 1 || reported.Roll > 20 {
		return Result{}, fmt.Errorf("%w: roll %d out of range", ErrInvalidRoll, reported.Roll)
	}
	if reported.Bonus != bonus {
		return Result{}, fmt.Errorf("%w: bonus %d, expected %d", ErrInvalidRoll, reported.Bonus, bonus)
	}
	return t.Evaluate(reported.Roll, bonus, difficulty), nil
}

var std = NewRoller(nil)

// RollD20 rolls a d20 from the runtime generator.
func RollD20() int { return std.D20() }

// RollD6 rolls a d6 from the runtime generator.
func RollD6() int { return std.D6() }

// PerformRoll rolls a check from the runtime generator with the default table.
func PerformRoll(bonus int, difficulty Difficulty) Result {
	return std.PerformRoll(bonus, difficulty)
}
