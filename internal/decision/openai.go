package decision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ericogr/saga-combat/internal/constants"
	"github.com/ericogr/saga-combat/internal/logging"
)

// DefaultPromptTemplate is used when no template is configured. The token
// {{context}} is replaced by the JSON combat context.
const DefaultPromptTemplate = "You control the enemy in a turn-based fight. Combat state: {{context}}. " +
	"Pick one ability from available_abilities and a target (a party member id, \"random\" or \"party\"). " +
	"Answer only with JSON: {\"action_id\": \"...\", \"target\": \"...\"}."

// OpenAICollaborator asks the OpenAI chat completions API for a move.
type OpenAICollaborator struct {
	APIKey         string
	Model          string
	BaseURL        string
	PromptTemplate string
	Client         *http.Client
}

// NewOpenAICollaborator returns a collaborator with defaults filled in.
func NewOpenAICollaborator(apiKey, model, promptTemplate string) *OpenAICollaborator {
	return &OpenAICollaborator{
		APIKey:         apiKey,
		Model:          model,
		PromptTemplate: promptTemplate,
	}
}

func (o *OpenAICollaborator) prompt(dc Context) (string, error) {
	b, err := json.Marshal(dc)
	if err != nil {
		return "", err
	}
	tmpl := strings.TrimSpace(o.PromptTemplate)
	if tmpl == "" {
		tmpl = DefaultPromptTemplate
	}
	return strings.ReplaceAll(tmpl, "{{context}}", string(b)), nil
}

// Complete returns the raw message content of the first choice.
func (o *OpenAICollaborator) Complete(ctx context.Context, dc Context) (string, error) {
	if o.APIKey == "" {
		return "", fmt.Errorf("%s not set", constants.EnvOpenAIAPIKey)
	}
	prompt, err := o.prompt(dc)
	if err != nil {
		return "", fmt.Errorf("encode context: %w", err)
	}
	logging.Debug("decision openai prompt", logging.Fields{constants.LogFieldActorID: dc.ActorID, "prompt": prompt})

	model := o.Model
	if model == "" {
		model = constants.OpenAIChatModel
	}
	payload := map[string]interface{}{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": "You are the tactical mind of a fantasy monster."},
			{"role": "user", "content": prompt},
		},
	}
	b, _ := json.Marshal(payload)

	base := o.BaseURL
	if base == "" {
		base = constants.OpenAIBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+constants.OpenAIChatCompletionsPath, bytes.NewBuffer(b))
	if err != nil {
		return "", err
	}
	req.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+o.APIKey)
	req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)

	client := o.Client
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("openai error: %d %s", resp.StatusCode, string(body))
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
