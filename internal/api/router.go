package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ericogr/saga-combat/internal/constants"
)

// NewRouter registers every route on a fresh gin engine.
func NewRouter(h *CombatHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET(constants.RouteHealthz, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{constants.JSONKeyStatus: "ok"})
	})

	apiRoutes := router.Group(constants.RouteAPIPrefix)
	{
		apiRoutes.GET(constants.RouteVersion, Version)
		apiRoutes.GET(constants.RouteEncounters, h.ListEncounters)
		apiRoutes.GET(constants.RouteCharacters, h.ListCharacters)
		apiRoutes.GET(constants.RouteReports, h.ListReports)

		apiRoutes.POST(constants.RouteSessions, h.StartSession)
		apiRoutes.GET(constants.RouteSessionByID, h.GetSession)
		apiRoutes.DELETE(constants.RouteSessionByID, h.StopSession)
		apiRoutes.GET(constants.RouteSessionEvents, h.ListEvents)
		apiRoutes.POST(constants.RouteSessionAction, h.SubmitAction)
		apiRoutes.POST(constants.RouteSessionRoll, h.Roll)
		apiRoutes.POST(constants.RouteSessionAck, h.Acknowledge)
		apiRoutes.POST(constants.RouteSessionRetry, h.Retry)
	}
	return router
}
