package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/courierhq/courier/internal/config"
	"github.com/courierhq/courier/internal/logger"
	mdomain "github.com/courierhq/courier/internal/messaging/domain"
	"github.com/courierhq/courier/internal/metrics"
)

var _ mdomain.Dispatcher = (*Router)(nil)

// Router holds the provider registry and tries primary then fallback. Cost
// is capped at exactly two attempts; sends run inside the HTTP request, so
// bounded latency matters more than resilience depth.
type Router struct {
	registry map[string]mdomain.Provider
	primary  string
	fallback string
	log      zerolog.Logger
}

// NewRouter builds the provider registry once from config. Provider
// configuration is captured here and never re-evaluated.
func NewRouter(cfg config.Config, log zerolog.Logger) *Router {
	l := logger.Component(log, "dispatch")
	registry := map[string]mdomain.Provider{}
	for _, p := range []mdomain.Provider{
		NewResend(cfg, l),
		NewSendgrid(cfg, l),
		NewSMTP(cfg, l),
	} {
		registry[p.Name()] = p
		l.Debug().Str("provider", p.Name()).Bool("configured", p.Configured()).Msg("provider registered")
	}
	return &Router{
		registry: registry,
		primary:  cfg.EmailPrimaryProvider,
		fallback: cfg.EmailFallbackProvider,
		log:      l,
	}
}

// Send attempts the primary provider, then the fallback when it is distinct
// and configured. Unconfigured providers are never attempted. When both
// routes are exhausted the result is the terminal failure; per-provider
// errors stay in the logs.
func (r *Router) Send(ctx context.Context, msg mdomain.Email) mdomain.Result {
	if res, attempted := r.attempt(ctx, r.primary, msg); attempted && res.Success {
		return res
	}
	if r.fallback != r.primary {
		if res, attempted := r.attempt(ctx, r.fallback, msg); attempted && res.Success {
			return res
		}
	}
	r.log.Error().
		Str("primary", r.primary).
		Str("fallback", r.fallback).
		Msg("all providers failed or are not configured")
	metrics.IncDispatchExhausted()
	return mdomain.Result{Err: mdomain.ErrAllProvidersFailed}
}

func (r *Router) attempt(ctx context.Context, name string, msg mdomain.Email) (mdomain.Result, bool) {
	p, ok := r.registry[name]
	if !ok {
		if name != "" {
			r.log.Warn().Str("provider", name).Msg("unknown provider name")
		}
		return mdomain.Result{}, false
	}
	if !p.Configured() {
		r.log.Debug().Str("provider", name).Msg("provider unconfigured, skipping")
		return mdomain.Result{}, false
	}
	r.log.Info().Str("provider", name).Str("to", msg.To).Msg("attempting send")
	res := p.Send(ctx, msg)
	if res.Success {
		metrics.IncDispatchAttempt("email", name, "success")
		r.log.Info().Str("provider", name).Str("message_id", res.MessageID).Msg("send succeeded")
	} else {
		metrics.IncDispatchAttempt("email", name, "failure")
		r.log.Error().Err(res.Err).Str("provider", name).Msg("send failed")
	}
	return res, true
}

// DefaultFrom resolves the sender address of the first configured provider
// in primary, fallback, registry order.
func (r *Router) DefaultFrom() string {
	if p, ok := r.registry[r.primary]; ok && p.Configured() && p.From() != "" {
		return p.From()
	}
	if p, ok := r.registry[r.fallback]; ok && p.Configured() && p.From() != "" {
		return p.From()
	}
	for _, p := range r.registry {
		if p.Configured() && p.From() != "" {
			return p.From()
		}
	}
	return ""
}
