package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ericogr/saga-combat/internal/combat"
	"github.com/ericogr/saga-combat/internal/constants"
	"github.com/ericogr/saga-combat/internal/logging"
	"github.com/ericogr/saga-combat/internal/service"
	"github.com/ericogr/saga-combat/internal/session"
	"github.com/ericogr/saga-combat/internal/storage"
)

type StartSessionRequest struct {
	EnemyID string   `json:"enemy_id" binding:"required"`
	Party   []string `json:"party"`
}

type ActionRequest struct {
	AbilityID string `json:"ability_id" binding:"required"`
	Target    string `json:"target"`
}

type AckRequest struct {
	ActorID string `json:"actor_id"`
}

// StartSession prepares an encounter and starts its combat.
func (h *CombatHandler) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	s, err := h.sessions.Start(req.EnemyID, req.Party)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownEnemy):
			c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrUnknownEncounter})
		case errors.Is(err, storage.ErrCharacterNotFound):
			c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrUnknownCharacter, constants.JSONKeyDetails: err.Error()})
		case errors.Is(err, service.ErrEmptyParty):
			c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrEmptyParty})
		case errors.Is(err, service.ErrDuplicateMember):
			c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrDuplicateMember, constants.JSONKeyDetails: err.Error()})
		default:
			logging.Error("failed to start session", err, logging.Fields{"enemy": req.EnemyID})
			c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedStartSession})
		}
		return
	}
	c.JSON(http.StatusCreated, s.View())
}

// GetSession returns the session snapshot.
func (h *CombatHandler) GetSession(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.View())
}

// StopSession aborts the combat and returns its final snapshot.
func (h *CombatHandler) StopSession(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}
	if err := h.sessions.Stop(c.Request.Context(), s.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: constants.ErrFailedStopSession})
		return
	}
	c.JSON(http.StatusOK, s.View())
}

// ListEvents returns events from index ?after=N on, plus the next index.
func (h *CombatHandler) ListEvents(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}
	after := 0
	if raw := c.Query("after"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidAfterParameter})
			return
		}
		after = n
	}
	events, next := s.EventsSince(after)
	c.JSON(http.StatusOK, gin.H{"events": events, "next": next})
}

// SubmitAction answers the pending ability selection.
func (h *CombatHandler) SubmitAction(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	err := s.SubmitAction(combat.PlayerAction{AbilityID: req.AbilityID, Target: req.Target})
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, s.View())
	case errors.Is(err, session.ErrNoPendingInput):
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrNoPendingAction})
	case errors.Is(err, combat.ErrAbilityUnavailable):
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrAbilityUnavailable, constants.JSONKeyDetails: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: err.Error()})
	}
}

// Roll performs the pending d20 check. The server rolls; the client only
// relays the request and shows the result.
func (h *CombatHandler) Roll(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}
	res, err := s.PerformRoll()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrNoPendingRoll})
		return
	}
	c.JSON(http.StatusOK, res)
}

// Acknowledge reports that the animation for actor_id finished.
func (h *CombatHandler) Acknowledge(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}
	var req AckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrInvalidRequest})
		return
	}
	if req.ActorID == "" {
		c.JSON(http.StatusBadRequest, gin.H{constants.JSONKeyError: constants.ErrMissingActorID})
		return
	}
	s.Acknowledge(req.ActorID)
	c.Status(http.StatusAccepted)
}

// Retry re-runs the turn that last failed.
func (h *CombatHandler) Retry(c *gin.Context) {
	s, ok := h.lookupSession(c)
	if !ok {
		return
	}
	if err := s.Retry(); err != nil {
		c.JSON(http.StatusConflict, gin.H{constants.JSONKeyError: constants.ErrNoPendingRetry})
		return
	}
	c.JSON(http.StatusAccepted, s.View())
}
