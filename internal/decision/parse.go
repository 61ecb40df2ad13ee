package decision

import (
	"encoding/json"
	"strings"

	"github.com/ericogr/saga-combat/internal/constants"
	"github.com/ericogr/saga-combat/internal/game"
)

type rawDecision struct {
	ActionID    string `json:"action_id"`
	ActionIDAlt string `json:"actionId"`
	Target      string `json:"target"`
}

// ParseResponse extracts {action_id, target} from the collaborator's text,
// tolerating surrounding markdown fences and prose. It reports false when
// the text carries no move.
func ParseResponse(raw string) (Decision, bool) {
	s := stripFences(raw)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return Decision{}, false
	}
	var rd rawDecision
	if err := json.Unmarshal([]byte(s[start:end+1]), &rd); err != nil {
		return Decision{}, false
	}
	id := strings.TrimSpace(rd.ActionID)
	if id == "" {
		id = strings.TrimSpace(rd.ActionIDAlt)
	}
	if id == "" {
		return Decision{}, false
	}
	return Decision{ActionID: id, Target: strings.TrimSpace(rd.Target)}, true
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "```") {
			continue
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}

// normalizeTarget keeps symbolic tokens and living member ids; anything
// else becomes a random pick for single-target moves.
func normalizeTarget(dc Context, mode game.Targeting, target string) string {
	switch mode {
	case game.TargetSelf, game.TargetParty, game.TargetArea, game.TargetRandom:
		return target
	}
	switch strings.ToLower(target) {
	case constants.TargetTokenRandom, constants.TargetTokenSelf, constants.TargetTokenActing,
		constants.TargetTokenParty, constants.TargetTokenAll, constants.TargetTokenArea:
		return strings.ToLower(target)
	}
	if dc.activeMember(target) {
		return target
	}
	return constants.TargetTokenRandom
}
