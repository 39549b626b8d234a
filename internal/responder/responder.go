// Package responder turns a user utterance into a SaferStep assistant reply.
//
// Replies come from an ordered keyword rule table. When remote generation is
// enabled for a turn, a Generator is tried first and any failure falls back
// to the local rules without surfacing an error.
package responder

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ppiankov/saferstep/internal/model"
)

// Generator produces reply text from a remote service.
type Generator interface {
	Generate(ctx context.Context, utterance string) (string, error)
}

// Scheduler runs an emergency callback asynchronously.
// Schedule must return without waiting for the callback.
type Scheduler interface {
	Schedule(fn func())
}

// Context is the per-turn state the responder needs from its session.
type Context struct {
	// Location is the session's geolocation sample, nil when unavailable.
	Location *model.Location

	// ExternalGeneration enables the remote Generator for this turn.
	ExternalGeneration bool

	// OnEmergency is scheduled when the local emergency rule fires.
	OnEmergency func()
}

// HasLocation reports whether a geolocation sample is present.
func (c Context) HasLocation() bool {
	return c.Location != nil
}

// Options configures a Responder. Zero values select defaults.
type Options struct {
	Random    Random
	Generator Generator
	Scheduler Scheduler
	Logger    zerolog.Logger
	Now       func() time.Time
}

// Responder is safe for concurrent use when its Random is.
type Responder struct {
	rng       Random
	generator Generator
	scheduler Scheduler
	log       zerolog.Logger
	now       func() time.Time
}

// New creates a responder
func New(opts Options) *Responder {
	r := &Responder{
		rng:       opts.Random,
		generator: opts.Generator,
		scheduler: opts.Scheduler,
		log:       opts.Logger.With().Str("component", "responder").Logger(),
		now:       opts.Now,
	}
	if r.rng == nil {
		r.rng = globalRandom{}
	}
	if r.scheduler == nil {
		r.scheduler = goScheduler{}
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Respond produces the reply for one utterance. The only error it returns is
// model.ErrEmptyInput for blank input; every other fault degrades to text.
func (r *Responder) Respond(ctx context.Context, utterance string, rc Context) (model.Response, error) {
	if strings.TrimSpace(utterance) == "" {
		return model.Response{}, model.ErrEmptyInput
	}

	if rc.ExternalGeneration {
		if text, ok := r.delegate(ctx, utterance); ok {
			return r.newResponse(model.IntentDelegated, text, model.SourceRemote), nil
		}
	}

	return r.respondLocally(utterance, rc), nil
}

func (r *Responder) respondLocally(utterance string, rc Context) model.Response {
	selected := selectRule(strings.ToLower(utterance))
	text := selected.build(r, rc)

	if selected.intent == model.IntentEmergency && rc.OnEmergency != nil {
		r.scheduler.Schedule(rc.OnEmergency)
		r.log.Warn().Msg("emergency rule fired, alert scheduled")
	}

	return r.newResponse(selected.intent, text, model.SourceLocal)
}

// delegate asks the remote generator for a reply. ok is false on any failure.
func (r *Responder) delegate(ctx context.Context, utterance string) (string, bool) {
	if r.generator == nil {
		return "", false
	}

	text, err := r.generator.Generate(ctx, utterance)
	switch {
	case errors.Is(err, model.ErrNoCredential):
		r.log.Debug().Msg("remote generation not configured, using local rules")
		return "", false
	case err != nil:
		r.log.Warn().Err(err).Msg("remote generation failed, using local rules")
		return "", false
	}

	text = strings.TrimSpace(text)
	if text == "" {
		r.log.Warn().Msg("remote generation returned empty text, using local rules")
		return "", false
	}
	return text, true
}

func (r *Responder) newResponse(intent model.Intent, text string, source model.Source) model.Response {
	return model.Response{
		ID:        uuid.NewString(),
		Intent:    intent,
		Content:   text,
		Category:  Categorize(text),
		Source:    source,
		CreatedAt: r.now().UTC(),
	}
}

func (r *Responder) score() int {
	return between(r.rng, 70, 100)
}

// goScheduler runs the callback on its own goroutine after the default delay.
type goScheduler struct{}

func (goScheduler) Schedule(fn func()) {
	time.AfterFunc(time.Second, fn)
}
