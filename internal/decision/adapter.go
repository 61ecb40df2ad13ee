// Package decision obtains enemy moves from an external collaborator. Calls
// are bounded by a per-attempt timeout and retried with linear backoff; an
// unusable answer is replaced by a deterministic fallback.
package decision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ericogr/saga-combat/internal/constants"
	"github.com/ericogr/saga-combat/internal/logging"
)

var (
	// ErrDecisionExhausted is returned when every attempt failed or timed out.
	ErrDecisionExhausted = errors.New("decision provider exhausted")
	// ErrDecisionTimeout marks a single abandoned attempt.
	ErrDecisionTimeout = errors.New("decision attempt timed out")
	// ErrNoAbilities is returned when the actor defines no ability at all.
	ErrNoAbilities = errors.New("actor has no abilities")
)

// Collaborator answers a decision request with raw text: a JSON move or
// free narration.
type Collaborator interface {
	Complete(ctx context.Context, dc Context) (string, error)
}

// CollaboratorFunc adapts a function to Collaborator.
type CollaboratorFunc func(ctx context.Context, dc Context) (string, error)

func (f CollaboratorFunc) Complete(ctx context.Context, dc Context) (string, error) {
	return f(ctx, dc)
}

// Decider chooses a move for a non-player combatant.
type Decider interface {
	Decide(ctx context.Context, dc Context) (Decision, error)
}

// Source says where a decision came from.
type Source string

const (
	SourceCollaborator Source = "collaborator"
	SourceFallback     Source = "fallback"
)

// Decision is the move chosen for a non-player combatant.
type Decision struct {
	ActionID  string `json:"action_id"`
	Target    string `json:"target"`
	Source    Source `json:"source"`
	Narration string `json:"narration,omitempty"`
}

// Options tune the adapter. Zero values fall back to the defaults in
// constants.
type Options struct {
	MaxRetries int
	Timeout    time.Duration
	RetryDelay time.Duration
	// After is the timer used for timeouts and backoff.
	After func(time.Duration) <-chan time.Time
	// OnNarration receives free text the collaborator returned instead of a move.
	OnNarration func(actorID, text string)
}

// Adapter wraps a Collaborator.
type Adapter struct {
	collab Collaborator
	opts   Options
	group  singleflight.Group
}

// NewAdapter builds an adapter around collab.
func NewAdapter(collab Collaborator, opts Options) *Adapter {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = constants.DefaultDecisionRetries
	}
	if opts.Timeout <= 0 {
		opts.Timeout = constants.DefaultDecisionTimeout
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	if opts.After == nil {
		opts.After = time.After
	}
	return &Adapter{collab: collab, opts: opts}
}

// Decide returns a validated move for the actor described by dc. Transport
// failures and timeouts are retried; an invalid answer is never retried and
// falls back instead. When every attempt fails the error wraps
// ErrDecisionExhausted.
func (a *Adapter) Decide(ctx context.Context, dc Context) (Decision, error) {
	if len(dc.Abilities) == 0 {
		return Decision{}, ErrNoAbilities
	}
	turnKey := TurnKey(dc.CombatID, dc.Round, dc.ActorID)
	fields := logging.Fields{constants.LogFieldCombatID: dc.CombatID, constants.LogFieldActorID: dc.ActorID, constants.LogFieldRound: dc.Round}

	var lastErr error
	for attempt := 1; attempt <= a.opts.MaxRetries; attempt++ {
		raw, err := a.attempt(ctx, dc, attemptKey(turnKey, attempt))
		if err == nil {
			return a.interpret(dc, raw), nil
		}
		if ctx.Err() != nil {
			return Decision{}, ctx.Err()
		}
		lastErr = err
		logging.Warn("decision attempt failed", withAttempt(fields, attempt, err))

		if attempt == a.opts.MaxRetries {
			break
		}
		select {
		case <-a.opts.After(a.opts.RetryDelay * time.Duration(attempt)):
		case <-ctx.Done():
			return Decision{}, ctx.Err()
		}
	}
	logging.Error("decision provider exhausted", lastErr, fields)
	return Decision{}, fmt.Errorf("%w after %d attempts: %v", ErrDecisionExhausted, a.opts.MaxRetries, lastErr)
}

func (a *Adapter) attempt(ctx context.Context, dc Context, key string) (string, error) {
	actx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := a.group.DoChan(key, func() (interface{}, error) {
		return a.collab.Complete(actx, dc)
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return "", r.Err
		}
		s, ok := r.Val.(string)
		if !ok {
			return "", fmt.Errorf("unexpected result type from collaborator")
		}
		return s, nil
	case <-a.opts.After(a.opts.Timeout):
		a.group.Forget(key)
		return "", ErrDecisionTimeout
	case <-ctx.Done():
		a.group.Forget(key)
		return "", ctx.Err()
	}
}

// interpret validates the raw answer, substituting the fallback when the
// move is missing or illegal.
func (a *Adapter) interpret(dc Context, raw string) Decision {
	fields := logging.Fields{constants.LogFieldCombatID: dc.CombatID, constants.LogFieldActorID: dc.ActorID}
	d, ok := ParseResponse(raw)
	if !ok {
		if a.opts.OnNarration != nil && raw != "" {
			a.opts.OnNarration(dc.ActorID, raw)
		}
		logging.Info("decision was narration, using fallback", fields)
		fb := Fallback(dc)
		fb.Narration = strings.TrimSpace(raw)
		return fb
	}
	ability, ok := dc.usable(d.ActionID)
	if !ok {
		fields[constants.LogFieldAbilityID] = d.ActionID
		logging.Warn("decision names unavailable ability, using fallback", fields)
		return Fallback(dc)
	}
	d.Source = SourceCollaborator
	d.Target = normalizeTarget(dc, ability.Targeting, d.Target)
	return d
}

func withAttempt(f logging.Fields, attempt int, err error) logging.Fields {
	out := make(logging.Fields, len(f)+2)
	for k, v := range f {
		out[k] = v
	}
	out[constants.LogFieldAttempt] = attempt
	out["error"] = err.Error()
	return out
}
