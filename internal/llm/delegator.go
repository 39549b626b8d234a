package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/saferstep/internal/cache"
	"github.com/ppiankov/saferstep/internal/model"
	"github.com/ppiankov/saferstep/internal/worker"
)

// Delegator sends utterances to a remote provider on behalf of the responder.
// A nil provider means delegation is not configured.
type Delegator struct {
	provider Provider
	config   Config
	limiter  *worker.Limiter
	cache    cache.Cache
	cacheTTL time.Duration
	log      zerolog.Logger
}

// DelegatorOptions holds the optional collaborators of a Delegator.
type DelegatorOptions struct {
	Limiter  *worker.Limiter
	Cache    cache.Cache
	CacheTTL time.Duration
	Logger   zerolog.Logger
}

// NewDelegator builds the provider from config. A missing provider name
// yields a disabled delegator; a missing credential is reported as
// model.ErrNoCredential alongside a usable disabled delegator.
func NewDelegator(config Config, opts DelegatorOptions) (*Delegator, error) {
	d := &Delegator{
		config:   config,
		limiter:  opts.Limiter,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		log:      opts.Logger.With().Str("component", "delegator").Logger(),
	}

	provider, err := NewProvider(config)
	if err != nil {
		return d, err
	}
	d.provider = provider

	// Local models are not rate limited.
	if provider != nil && provider.Name() == "ollama" && d.limiter != nil {
		if err := d.limiter.Unlimit(provider.Endpoint()); err != nil {
			d.log.Warn().Err(err).Msg("could not lift rate limit for local model")
		}
	}
	return d, nil
}

// NewDelegatorWithProvider wraps an existing provider.
func NewDelegatorWithProvider(provider Provider, config Config, opts DelegatorOptions) *Delegator {
	return &Delegator{
		provider: provider,
		config:   config,
		limiter:  opts.Limiter,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		log:      opts.Logger.With().Str("component", "delegator").Logger(),
	}
}

// IsEnabled returns true if a provider is configured
func (d *Delegator) IsEnabled() bool {
	return d != nil && d.provider != nil
}

// ProviderName returns the name of the configured provider
func (d *Delegator) ProviderName() string {
	if !d.IsEnabled() {
		return ""
	}
	return d.provider.Name()
}

// CheckAvailable reports whether the provider answers a lightweight call.
// An unreachable provider stays enabled: each turn still tries it first
// and falls back to the local rules on failure.
func (d *Delegator) CheckAvailable(ctx context.Context) bool {
	if !d.IsEnabled() {
		return false
	}

	if !d.provider.IsAvailable(ctx) {
		d.log.Warn().
			Str("provider", d.provider.Name()).
			Str("endpoint", d.provider.Endpoint()).
			Msg("remote provider unreachable, replies will use local rules until it recovers")
		return false
	}
	return true
}

// Generate asks the provider for a reply to utterance. It makes exactly one
// attempt; every failure wraps model.ErrRemoteCallFailed.
func (d *Delegator) Generate(ctx context.Context, utterance string) (string, error) {
	if !d.IsEnabled() {
		return "", model.ErrNoCredential
	}

	key := d.cacheKey(utterance)
	if d.cache != nil {
		if cached, ok := d.cache.Get(key); ok {
			d.log.Debug().Str("provider", d.provider.Name()).Msg("remote reply served from cache")
			return string(cached), nil
		}
	}

	timeout := time.Duration(d.config.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx, d.provider.Endpoint()); err != nil {
			return "", fmt.Errorf("%w: rate limit: %v", model.ErrRemoteCallFailed, err)
		}
	}

	start := time.Now()
	resp, err := d.provider.Complete(ctx, CompletionRequest{
		Utterance: utterance,
		Model:     d.config.Model,
		MaxTokens: d.config.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", model.ErrRemoteCallFailed, d.provider.Name(), err)
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return "", fmt.Errorf("%w: %s: empty reply", model.ErrRemoteCallFailed, d.provider.Name())
	}

	d.log.Debug().
		Str("provider", d.provider.Name()).
		Str("model", resp.Model).
		Int("tokens", resp.TokensUsed).
		Dur("took", time.Since(start)).
		Msg("remote reply generated")

	if d.cache != nil {
		if err := d.cache.Set(key, []byte(resp.Text), d.cacheTTL); err != nil {
			d.log.Warn().Err(err).Msg("cache remote reply")
		}
	}

	return resp.Text, nil
}

func (d *Delegator) cacheKey(utterance string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(utterance)), " ")
	return cache.CacheKey(d.provider.Name() + "|" + d.config.Model + "|" + normalized)
}
