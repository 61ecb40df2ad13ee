package dice

import "fmt"

// Tier is the outcome bucket of a d20 check.
type Tier string

const (
	TierFailure  Tier = "failure"
	TierPartial  Tier = "partial"
	TierSuccess  Tier = "success"
	TierCritical Tier = "critical"
)

// Rank orders tiers from failure (0) to critical (3).
func (t Tier) Rank() int {
	switch t {
	case TierPartial:
		return 1
	case TierSuccess:
		return 2
	case TierCritical:
		return 3
	default:
		return 0
	}
}

// Difficulty names a threshold preset.
type Difficulty string

const (
	Easy     Difficulty = "easy"
	Normal   Difficulty = "normal"
	Hard     Difficulty = "hard"
	VeryHard Difficulty = "very_hard"
)

// ParseDifficulty validates a preset name; empty means normal.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(s); d {
	case "":
		return Normal, nil
	case Easy, Normal, Hard, VeryHard:
		return d, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Thresholds are the minimum totals for each tier, strictly increasing.
type Thresholds struct {
	Failure  int `yaml:"failure" json:"failure"`
	Partial  int `yaml:"partial" json:"partial"`
	Success  int `yaml:"success" json:"success"`
	Critical int `yaml:"critical" json:"critical"`
}

// Validate checks that thresholds increase monotonically.
func (th Thresholds) Validate() error {
	if !(th.Failure < th.Partial && th.Partial < th.Success && th.Success < th.Critical) {
		return fmt.Errorf("thresholds must increase: %d < %d < %d < %d", th.Failure, th.Partial, th.Success, th.Critical)
	}
	return nil
}

// Table maps presets to thresholds.
type Table map[Difficulty]Thresholds

// DefaultTable returns the built-in presets.
func DefaultTable() Table {
	return Table{
		Easy:     {Failure: 1, Partial: 5, Success: 10, Critical: 18},
		Normal:   {Failure: 1, Partial: 8, Success: 12, Critical: 20},
		Hard:     {Failure: 1, Partial: 10, Success: 15, Critical: 23},
		VeryHard: {Failure: 1, Partial: 12, Success: 18, Critical: 26},
	}
}

// Merge returns a copy of t with overrides applied.
func (t Table) Merge(overrides Table) Table {
	out := make(Table, len(t)+len(overrides))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Classify returns the highest tier whose threshold does not exceed total.
// Unknown presets fall back to normal; totals below every threshold are
// failures.
func (t Table) Classify(total int, difficulty Difficulty) Tier {
	th, ok := t[difficulty]
	if !ok {
		th = DefaultTable()[Normal]
	}
	switch {
	case total >= th.Critical:
		return TierCritical
	case total >= th.Success:
		return TierSuccess
	case total >= th.Partial:
		return TierPartial
	default:
		return TierFailure
	}
}

// ClassifyOutcome classifies total against the default presets.
func ClassifyOutcome(total int, difficulty Difficulty) Tier {
	return DefaultTable().Classify(total, difficulty)
}
