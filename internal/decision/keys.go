package decision

import (
	"strconv"
	"strings"
)

// TurnKey produces a canonical key for one decision request. Parts are
// trimmed, lower-cased and spaces become underscores.
func TurnKey(combatID string, round int, actorID string) string {
	parts := []string{combatID, strconv.Itoa(round), actorID}
	for i, p := range parts {
		p = strings.TrimSpace(p)
		parts[i] = strings.ToLower(strings.ReplaceAll(p, " ", "_"))
	}
	return strings.Join(parts, ":")
}

func attemptKey(turnKey string, attempt int) string {
	return turnKey + "#" + strconv.Itoa(attempt)
}
