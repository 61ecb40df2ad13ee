package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ericogr/saga-combat/internal/constants"
)

// encounterSummary is the public shape of a configured enemy.
type encounterSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MaxHealth int    `json:"max_health"`
	Companion string `json:"companion,omitempty"`
}

// ListEncounters returns the enemies a session can be started against.
func (h *CombatHandler) ListEncounters(c *gin.Context) {
	enemies := h.encounters.Enemies()
	out := make([]encounterSummary, 0, len(enemies))
	for _, e := range enemies {
		s := encounterSummary{ID: e.ID, Name: e.Name, MaxHealth: e.MaxHealth}
		if e.Companion != nil {
			s.Companion = e.Companion.Name
		}
		out = append(out, s)
	}
	c.JSON(http.StatusOK, out)
}

// ListCharacters returns the stored party members.
func (h *CombatHandler) ListCharacters(c *gin.Context) {
	chars, err := h.repo.ListCharacters()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchCharacters})
		return
	}
	c.JSON(http.StatusOK, chars)
}

// ListReports returns the most recent encounter reports, 20 by default.
func (h *CombatHandler) ListReports(c *gin.Context) {
	limit := boundedQueryInt(c, "limit", constants.DefaultReportsLimit, constants.MaxReportsLimit)
	reports, err := h.repo.ListEncounterReports(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedFetchReports})
		return
	}
	c.JSON(http.StatusOK, reports)
}
