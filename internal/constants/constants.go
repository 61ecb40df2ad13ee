package constants

import "time"

// Centralized constants for env keys, OpenAI integration and combat tuning.
const (
	// Environment variable keys
	EnvAddr                = "SAGA_ADDR"
	EnvContent             = "SAGA_CONTENT"
	EnvDB                  = "SAGA_DB"
	EnvOpenAIAPIKey        = "OPENAI_API_KEY"
	EnvOpenAIModel         = "SAGA_OPENAI_MODEL"
	EnvDecisionTimeout     = "SAGA_DECISION_TIMEOUT"
	EnvDecisionRetries     = "SAGA_DECISION_RETRIES"
	EnvDecisionRetryDelay  = "SAGA_DECISION_RETRY_DELAY"
	EnvAnimationTimeout    = "SAGA_ANIMATION_TIMEOUT"
	EnvBreakFreeDC         = "SAGA_BREAK_FREE_DC"
	EnvDecisionPromptTempl = "SAGA_DECISION_PROMPT"

	// HTTP headers and content types
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"

	ContentTypeJSON = "application/json"

	// Authorization prefix
	BearerPrefix = "Bearer "

	// OpenAI API endpoints and base URL
	OpenAIBaseURL             = "https://api.openai.com"
	OpenAIChatCompletionsPath = "/v1/chat/completions"

	// OpenAI model names
	OpenAIChatModel = "gpt-5-nano"
)

// Combat tuning defaults. All of them can be overridden through settings.
const (
	DefaultDecisionRetries    = 3
	DefaultDecisionTimeout    = 10 * time.Second
	DefaultDecisionRetryDelay = 500 * time.Millisecond
	DefaultAnimationTimeout   = 3 * time.Second
	DefaultBreakFreeDC        = 4
	DefaultEventBuffer        = 256
	DefaultRecentLogExcerpt   = 3

	// Stat used for break-free checks when a character is restrained.
	StatBrawn = "brawn"
	// Stat used for initiative when a combatant defines no explicit bonus.
	StatAgility = "agility"
)

// Symbolic target tokens accepted in decisions and player actions.
const (
	TargetTokenSelf   = "self"
	TargetTokenActing = "acting"
	TargetTokenRandom = "random"
	TargetTokenParty  = "party"
	TargetTokenAll    = "all"
	TargetTokenArea   = "area"
	TargetTokenEnemy  = "enemy"
)

// Routes used by the backend router
const (
	RouteAPIPrefix       = "/api"
	RouteEncounters      = "/encounters"
	RouteCharacters      = "/characters"
	RouteSessions        = "/sessions"
	RouteSessionByID     = "/sessions/:sessionID"
	RouteSessionEvents   = "/sessions/:sessionID/events"
	RouteSessionAction   = "/sessions/:sessionID/action"
	RouteSessionRoll     = "/sessions/:sessionID/roll"
	RouteSessionAck      = "/sessions/:sessionID/ack"
	RouteSessionRetry    = "/sessions/:sessionID/retry"
	RouteReports         = "/reports"
	RouteVersion         = "/version"
	RouteHealthz         = "/healthz"
	DefaultReportsLimit  = 20
	MaxReportsLimit      = 200
	DefaultListenAddress = ":8080"
)

// Default file locations
const (
	DefaultContentPath = "./content.yaml"
	DefaultDBPath      = "./data/saga.db"
)

// Common JSON response keys
const (
	JSONKeyError   = "error"
	JSONKeyDetails = "details"
	JSONKeyStatus  = "status"
)

// Common error messages used across API handlers
const (
	ErrInvalidRequest        = "Invalid request"
	ErrSessionNotFound       = "Session not found"
	ErrUnknownEncounter      = "Unknown encounter"
	ErrFailedStartSession    = "Failed to start session"
	ErrNoPendingAction       = "No ability selection is pending"
	ErrNoPendingRoll         = "No roll is pending"
	ErrNoPendingRetry        = "No failed turn to retry"
	ErrFailedFetchReports    = "Failed to fetch reports"
	ErrInvalidAfterParameter = "after must be a non-negative integer"
	ErrUnknownCharacter      = "Unknown character"
	ErrEmptyParty            = "Party is empty"
	ErrDuplicateMember       = "Party lists a character more than once"
	ErrAbilityUnavailable    = "Ability unavailable"
	ErrMissingActorID        = "actor_id is required"
	ErrFailedFetchCharacters = "Failed to fetch characters"
	ErrFailedStopSession     = "Failed to stop session"
)

// Logging field names
const (
	LogFieldCombatID  = "combat_id"
	LogFieldSessionID = "session_id"
	LogFieldActorID   = "actor_id"
	LogFieldAbilityID = "ability_id"
	LogFieldSpecialID = "special_id"
	LogFieldRound     = "round"
	LogFieldAttempt   = "attempt"
	LogFieldEvent     = "event"
	LogFieldOutcome   = "outcome"
	LogFieldAddr      = "addr"
	LogFieldPath      = "path"
)
