// Package session holds the per-conversation state of the assistant: the
// transcript, the one-shot geolocation sample, and the emergency wiring.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ppiankov/saferstep/internal/emergency"
	"github.com/ppiankov/saferstep/internal/geo"
	"github.com/ppiankov/saferstep/internal/model"
	"github.com/ppiankov/saferstep/internal/responder"
)

const (
	defaultLocateTimeout = 5 * time.Second
	notifyTimeout        = 15 * time.Second
)

// Responder produces one reply per utterance.
type Responder interface {
	Respond(ctx context.Context, utterance string, rc responder.Context) (model.Response, error)
}

// Options configures new sessions.
type Options struct {
	Responder Responder

	// Locator is asked once, in the background, for a location sample.
	// Nil means the host offers no geolocation.
	Locator       geo.Provider
	LocateTimeout time.Duration

	// Location seeds the session with a sample supplied by the host.
	// When set, Locator is not consulted.
	Location *model.Location

	Notifier emergency.Notifier
	Contacts []model.Contact

	ExternalGeneration bool
	Greeting           bool
	MaxUtteranceLen    int

	// OnResponseReady receives every assistant message in transcript order.
	OnResponseReady func(model.Response)

	Logger zerolog.Logger
	Now    func() time.Time
}

// Session is one conversation. Turns are processed one at a time.
type Session struct {
	ID        string
	CreatedAt time.Time

	opts     Options
	log      zerolog.Logger
	now      func() time.Time
	location atomic.Pointer[model.Location]
	located  chan struct{}
	cancel   context.CancelFunc

	turnMu sync.Mutex // serializes Submit

	mu         sync.RWMutex
	transcript []model.Turn
}

// Info is a point-in-time summary of a session.
type Info struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Turns     int             `json:"turns"`
	Location  *model.Location `json:"location,omitempty"`
}

// New starts a session. Geolocation is requested in the background and
// never delays message handling.
func New(opts Options) (*Session, error) {
	if opts.Responder == nil {
		return nil, errors.New("session: responder is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.LocateTimeout <= 0 {
		opts.LocateTimeout = defaultLocateTimeout
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		ID:         id,
		CreatedAt:  opts.Now().UTC(),
		opts:       opts,
		log:        opts.Logger.With().Str("component", "session").Str("session_id", id).Logger(),
		now:        opts.Now,
		located:    make(chan struct{}),
		cancel:     cancel,
		transcript: make([]model.Turn, 0, 16),
	}

	switch {
	case opts.Location != nil && opts.Location.Valid():
		loc := *opts.Location
		s.location.Store(&loc)
		close(s.located)
	case opts.Locator != nil:
		go s.locate(ctx)
	default:
		close(s.located)
	}

	if opts.Greeting {
		s.appendTurn(model.Turn{Response: s.welcome()})
	}

	return s, nil
}

func (s *Session) welcome() model.Response {
	return model.Response{
		ID:        uuid.NewString(),
		Intent:    model.IntentGreeting,
		Content:   responder.WelcomeText,
		Category:  responder.Categorize(responder.WelcomeText),
		Source:    model.SourceLocal,
		CreatedAt: s.now().UTC(),
	}
}

// locate acquires the session's single location sample. Failure leaves the
// session without a location; there is no retry.
func (s *Session) locate(ctx context.Context) {
	defer close(s.located)

	ctx, cancel := context.WithTimeout(ctx, s.opts.LocateTimeout)
	defer cancel()

	loc, err := s.opts.Locator.Locate(ctx)
	if err != nil {
		s.log.Debug().Err(err).Msg("location unavailable")
		return
	}
	if !loc.Valid() {
		s.log.Debug().Str("location", loc.String()).Msg("discarding invalid location sample")
		return
	}

	s.location.Store(&loc)
	s.log.Debug().Str("location", loc.String()).Msg("location acquired")
}

// Submit answers one utterance and appends the turn to the transcript.
// Blank input returns model.ErrEmptyInput and leaves the session untouched.
func (s *Session) Submit(ctx context.Context, utterance string) (model.Response, error) {
	if strings.TrimSpace(utterance) == "" {
		return model.Response{}, model.ErrEmptyInput
	}
	if s.opts.MaxUtteranceLen > 0 && utf8.RuneCountInString(utterance) > s.opts.MaxUtteranceLen {
		return model.Response{}, fmt.Errorf("%w: limit is %d characters", model.ErrUtteranceTooLong, s.opts.MaxUtteranceLen)
	}

	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	received := s.now().UTC()
	resp, err := s.opts.Responder.Respond(ctx, utterance, responder.Context{
		Location:           s.Location(),
		ExternalGeneration: s.opts.ExternalGeneration,
		OnEmergency:        s.raiseAlert,
	})
	if err != nil {
		return model.Response{}, err
	}

	s.appendTurn(model.Turn{
		Utterance: model.Utterance{ID: uuid.NewString(), Content: utterance, ReceivedAt: received},
		Response:  resp,
	})

	s.log.Debug().
		Str("intent", string(resp.Intent)).
		Str("category", string(resp.Category)).
		Str("source", string(resp.Source)).
		Msg("turn completed")

	return resp, nil
}

func (s *Session) appendTurn(turn model.Turn) {
	s.mu.Lock()
	s.transcript = append(s.transcript, turn)
	s.mu.Unlock()

	if s.opts.OnResponseReady != nil {
		s.opts.OnResponseReady(turn.Response)
	}
}

// raiseAlert is the session's emergency callback. It runs after the
// scheduler delay, detached from any request context.
func (s *Session) raiseAlert() {
	alert := emergency.Alert{
		SessionID:   s.ID,
		Location:    s.Location(),
		Contacts:    s.opts.Contacts,
		TriggeredAt: s.now().UTC(),
	}

	if s.opts.Notifier == nil {
		s.log.Error().Msg("SOS raised but no notifier is configured")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	if err := s.opts.Notifier.Notify(ctx, alert); err != nil {
		s.log.Error().Err(err).Msg("emergency notification failed")
	}
}

// Location returns the session's location sample, or nil if none exists yet.
func (s *Session) Location() *model.Location {
	loc := s.location.Load()
	if loc == nil {
		return nil
	}
	cp := *loc
	return &cp
}

// Located is closed once the geolocation attempt has finished.
func (s *Session) Located() <-chan struct{} {
	return s.located
}

// Transcript returns a copy of the turns so far.
func (s *Session) Transcript() []model.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]model.Turn, len(s.transcript))
	copy(copied, s.transcript)
	return copied
}

// Info summarizes the session.
func (s *Session) Info() Info {
	s.mu.RLock()
	turns := len(s.transcript)
	s.mu.RUnlock()

	return Info{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		Turns:     turns,
		Location:  s.Location(),
	}
}

// Close abandons a pending geolocation request. Already scheduled
// emergency alerts still run.
func (s *Session) Close() {
	s.cancel()
}
