package api

import (
	"github.com/ericogr/saga-combat/internal/service"
	"github.com/ericogr/saga-combat/internal/session"
	"github.com/ericogr/saga-combat/internal/storage"
)

// CombatHandler groups all combat-related HTTP handlers.
type CombatHandler struct {
	sessions   *session.Manager
	encounters *service.EncounterService
	repo       storage.Repository
}

// NewCombatHandler creates a handler over the session manager, the
// encounter service and the repository used for read-only listings.
func NewCombatHandler(sessions *session.Manager, encounters *service.EncounterService, repo storage.Repository) *CombatHandler {
	return &CombatHandler{sessions: sessions, encounters: encounters, repo: repo}
}
