package main

import (
	"github.com/ericogr/saga-combat/internal/combat"
	"github.com/ericogr/saga-combat/internal/config"
	"github.com/ericogr/saga-combat/internal/constants"
	"github.com/ericogr/saga-combat/internal/decision"
	"github.com/ericogr/saga-combat/internal/game"
	"github.com/ericogr/saga-combat/internal/logging"
	"github.com/ericogr/saga-combat/internal/storage"
)

func loadSettingsOrExit() config.Settings {
	s, err := config.LoadSettings()
	if err != nil {
		logging.Fatal("Invalid settings", err, nil)
	}
	return s
}

func loadContentOrExit(path string) *config.Content {
	c, err := config.LoadContent(path)
	if err != nil {
		logging.Fatal("Missing or invalid content file", err, logging.Fields{constants.LogFieldPath: path, "hint": "create a content.yaml with 'characters' and 'enemies' lists or point " + constants.EnvContent + " at one"})
	}
	return c
}

func createRepositoryOrExit(dbPath string, characters []game.Combatant) storage.Repository {
	db, err := storage.OpenAndMigrate(dbPath, characters)
	if err != nil {
		logging.Fatal("Failed to initialize database", err, logging.Fields{constants.LogFieldPath: dbPath})
	}
	return storage.NewSQLiteRepository(db, characters)
}

// newDecider wires the OpenAI collaborator behind the failure-tolerant
// adapter. Without an API key enemies use the deterministic fallback.
func newDecider(s config.Settings, content *config.Content) decision.Decider {
	if s.OpenAIAPIKey == "" {
		logging.Warn("no OpenAI key configured, enemies use the fallback decider", logging.Fields{"var": constants.EnvOpenAIAPIKey})
		return decision.FallbackDecider{}
	}
	prompt := s.DecisionPrompt
	if prompt == "" {
		prompt = content.DecisionPromptTemplate
	}
	collab := decision.NewOpenAICollaborator(s.OpenAIAPIKey, s.OpenAIModel, prompt)
	return decision.NewAdapter(collab, decision.Options{
		MaxRetries: s.DecisionRetries,
		Timeout:    s.DecisionTimeout,
		RetryDelay: s.DecisionRetryDelay,
		OnNarration: func(actorID, text string) {
			logging.Info("enemy narration", logging.Fields{constants.LogFieldActorID: actorID, "text": text})
		},
	})
}

func combatConfig(s config.Settings, decider decision.Decider) combat.Config {
	return combat.Config{
		Decider:          decider,
		BreakFreeDC:      s.BreakFreeDC,
		AnimationTimeout: s.AnimationTimeout,
	}
}
