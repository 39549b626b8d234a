package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ppiankov/saferstep/internal/cache"
	"github.com/ppiankov/saferstep/internal/emergency"
	"github.com/ppiankov/saferstep/internal/geo"
	"github.com/ppiankov/saferstep/internal/llm"
	"github.com/ppiankov/saferstep/internal/logging"
	"github.com/ppiankov/saferstep/internal/model"
	"github.com/ppiankov/saferstep/internal/responder"
	"github.com/ppiankov/saferstep/internal/session"
	"github.com/ppiankov/saferstep/internal/util"
	"github.com/ppiankov/saferstep/internal/worker"
)

// app holds the collaborators shared by every session of one process.
type app struct {
	cfg       *model.Config
	base      zerolog.Logger // handed to other packages, which add their own component
	log       zerolog.Logger
	scheduler *emergency.Scheduler
	delegator *llm.Delegator
	responder *responder.Responder
	locator   geo.Provider
	notifier  emergency.Notifier
}

const remoteCheckTimeout = 3 * time.Second

// newApp configures global logging and wires the assistant from configuration.
func newApp(cfg *model.Config) (*app, error) {
	logging.Init(cfg.Log.Level, cfg.Log.Pretty)
	return buildApp(cfg, log.Logger)
}

// buildApp wires the assistant on top of base.
func buildApp(cfg *model.Config, base zerolog.Logger) (*app, error) {
	logger := base.With().Str("component", "cli").Logger()

	delegator, err := newDelegator(cfg, base, logger)
	if err != nil {
		return nil, err
	}

	client := util.NewHTTPClient(int(cfg.Chat.LocateTimeout.Seconds()), cfg.Proxy.HTTPProxy, cfg.Proxy.HTTPSProxy, cfg.Proxy.NoProxy)
	locator, err := geo.FromConfig(cfg.Location, client)
	if err != nil {
		return nil, fmt.Errorf("location provider: %w", err)
	}

	notifiers := emergency.MultiNotifier{emergency.NewLogNotifier(base)}
	if cfg.Emergency.WebhookURL != "" {
		webhookClient := util.NewHTTPClient(15, cfg.Proxy.HTTPProxy, cfg.Proxy.HTTPSProxy, cfg.Proxy.NoProxy)
		notifiers = append(notifiers, emergency.NewWebhookNotifier(cfg.Emergency.WebhookURL, webhookClient))
	}

	scheduler := emergency.NewScheduler(cfg.Emergency.Delay, base)

	a := &app{
		cfg:       cfg,
		base:      base,
		log:       logger,
		scheduler: scheduler,
		delegator: delegator,
		locator:   locator,
		notifier:  notifiers,
	}

	opts := responder.Options{
		Scheduler: scheduler,
		Logger:    base,
	}
	if delegator.IsEnabled() {
		opts.Generator = delegator
	}
	a.responder = responder.New(opts)

	return a, nil
}

// newDelegator builds remote generation. A missing credential is logged
// and leaves delegation disabled.
func newDelegator(cfg *model.Config, base, logger zerolog.Logger) (*llm.Delegator, error) {
	opts := llm.DelegatorOptions{
		Limiter:  worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		CacheTTL: cfg.Cache.DiskTTL,
		Logger:   base,
	}

	if cfg.Cache.Enabled {
		dir := cfg.Cache.Directory
		if dir == "" {
			if base, err := configDir(); err == nil {
				dir = filepath.Join(base, "cache")
			}
		}
		opts.Cache = cache.New(dir, cfg.Cache.MemoryTTL, cfg.Cache.DiskTTL)
	}

	delegator, err := llm.NewDelegator(llm.ConfigFromModel(cfg.LLM, cfg.Proxy), opts)
	switch {
	case errors.Is(err, model.ErrNoCredential):
		logger.Warn().Str("provider", cfg.LLM.Provider).Msg("no API key configured, remote generation disabled")
	case err != nil:
		return nil, fmt.Errorf("remote provider: %w", err)
	}

	if delegator.IsEnabled() {
		logger.Info().Str("provider", delegator.ProviderName()).Str("model", cfg.LLM.Model).Msg("remote generation enabled")
	}
	return delegator, nil
}

// sessionOptions returns the options every new session starts from.
func (a *app) sessionOptions() session.Options {
	return session.Options{
		Responder:          a.responder,
		Locator:            a.locator,
		LocateTimeout:      a.cfg.Chat.LocateTimeout,
		Notifier:           a.notifier,
		Contacts:           a.cfg.Emergency.Contacts,
		ExternalGeneration: a.delegator.IsEnabled(),
		Greeting:           a.cfg.Chat.Greeting,
		MaxUtteranceLen:    a.cfg.Chat.MaxUtteranceLen,
		Logger:             a.base,
	}
}

// Ask answers one utterance in a fresh session without a greeting. It
// implements worker.Asker for batch mode.
func (a *app) Ask(ctx context.Context, utterance string) (model.Response, error) {
	opts := a.sessionOptions()
	opts.Greeting = false

	s, err := session.New(opts)
	if err != nil {
		return model.Response{}, err
	}
	defer s.Close()

	// A one-message session has nothing else to do while the location
	// lookup runs.
	select {
	case <-s.Located():
	case <-ctx.Done():
		return model.Response{}, ctx.Err()
	}

	return s.Submit(ctx, utterance)
}

// checkRemote warns at startup when the configured remote provider cannot
// be reached.
func (a *app) checkRemote() {
	if !a.delegator.IsEnabled() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), remoteCheckTimeout)
	defer cancel()

	if a.delegator.CheckAvailable(ctx) {
		a.log.Debug().Str("provider", a.delegator.ProviderName()).Msg("remote provider reachable")
	}
}

// close drains scheduled emergency alerts. They are never dropped on exit.
func (a *app) close() {
	if n := a.scheduler.Pending(); n > 0 {
		a.log.Info().Int64("pending", n).Msg("waiting for emergency alerts to be delivered")
	}
	a.scheduler.Wait()
}
