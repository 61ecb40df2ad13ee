package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/ericogr/saga-combat/internal/api"
	"github.com/ericogr/saga-combat/internal/logging"
	"github.com/ericogr/saga-combat/internal/service"
	"github.com/ericogr/saga-combat/internal/session"
	"github.com/ericogr/saga-combat/internal/version"
)

func main() {
	defer logging.Sync()
	v := version.Current()
	logging.Info("saga-combat starting", logging.Fields{"version": v.Version, "commit": v.Commit})
	settings := loadSettingsOrExit()
	content := loadContentOrExit(settings.ContentPath)
	repo := createRepositoryOrExit(settings.DBPath, content.Characters)

	svc := service.NewEncounterService(repo, content)
	sessions := session.NewManager(svc, combatConfig(settings, newDecider(settings, content)))
	handler := api.NewCombatHandler(sessions, svc, repo)

	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(handler)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := serve(ctx, settings.Addr, router, sessions); err != nil {
		logging.Fatal("Failed to start server", err, nil)
	}
}
