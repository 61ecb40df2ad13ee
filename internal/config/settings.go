package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ericogr/saga-combat/internal/constants"
)

// Settings are the process-level knobs read from the environment. Unset
// variables keep the defaults from constants.
type Settings struct {
	Addr               string        `env:"SAGA_ADDR"`
	ContentPath        string        `env:"SAGA_CONTENT"`
	DBPath             string        `env:"SAGA_DB"`
	OpenAIAPIKey       string        `env:"OPENAI_API_KEY"`
	OpenAIModel        string        `env:"SAGA_OPENAI_MODEL"`
	DecisionTimeout    time.Duration `env:"SAGA_DECISION_TIMEOUT"`
	DecisionRetries    int           `env:"SAGA_DECISION_RETRIES"`
	DecisionRetryDelay time.Duration `env:"SAGA_DECISION_RETRY_DELAY"`
	AnimationTimeout   time.Duration `env:"SAGA_ANIMATION_TIMEOUT"`
	BreakFreeDC        int           `env:"SAGA_BREAK_FREE_DC"`
	DecisionPrompt     string        `env:"SAGA_DECISION_PROMPT"`
}

// DefaultSettings returns the settings used when no variable is set.
func DefaultSettings() Settings {
	return Settings{
		Addr:               constants.DefaultListenAddress,
		ContentPath:        constants.DefaultContentPath,
		DBPath:             constants.DefaultDBPath,
		OpenAIModel:        constants.OpenAIChatModel,
		DecisionTimeout:    constants.DefaultDecisionTimeout,
		DecisionRetries:    constants.DefaultDecisionRetries,
		DecisionRetryDelay: constants.DefaultDecisionRetryDelay,
		AnimationTimeout:   constants.DefaultAnimationTimeout,
		BreakFreeDC:        constants.DefaultBreakFreeDC,
	}
}

// LoadSettings overlays environment variables on DefaultSettings.
func LoadSettings() (Settings, error) {
	s := DefaultSettings()
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate rejects values the combat core cannot run with.
func (s Settings) Validate() error {
	if s.DecisionRetries < 1 {
		return fmt.Errorf("settings: %s must be at least 1, got %d", constants.EnvDecisionRetries, s.DecisionRetries)
	}
	if s.DecisionTimeout <= 0 {
		return fmt.Errorf("settings: %s must be positive", constants.EnvDecisionTimeout)
	}
	if s.DecisionRetryDelay < 0 {
		return fmt.Errorf("settings: %s must not be negative", constants.EnvDecisionRetryDelay)
	}
	if s.AnimationTimeout <= 0 {
		return fmt.Errorf("settings: %s must be positive", constants.EnvAnimationTimeout)
	}
	if s.BreakFreeDC < 1 {
		return fmt.Errorf("settings: %s must be at least 1, got %d", constants.EnvBreakFreeDC, s.BreakFreeDC)
	}
	return nil
}
