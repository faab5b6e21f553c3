package captcha

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Service names accepted in ServiceConfig.
const (
	ServiceTwoCaptcha     = "2captcha"
	ServiceAntiCaptcha    = "anti-captcha"
	ServiceDeathByCaptcha = "deathbycaptcha"
)

// ServiceConfig selects one solving service and its credential. The
// deathbycaptcha credential is a combined "username:password" pair; the
// other services take a plain API key.
type ServiceConfig struct {
	Service string `yaml:"service"`
	APIKey  string `yaml:"api_key"`
}

// Config holds all configuration for a Solver.
type Config struct {
	// Services are tried in order; the first one to solve wins.
	Services []ServiceConfig

	// Timeout bounds the wait for a single service's solution.
	Timeout time.Duration

	// PollInterval is the pause between result checks.
	PollInterval time.Duration
}

// defaults fills in zero-value config fields.
func (cfg *Config) defaults() {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
}

// Solver submits challenges to the configured services in order until one
// solves them. A Solver is immutable after construction and safe for
// concurrent use.
type Solver struct {
	backends []Backend
	timeout  time.Duration
	interval time.Duration
}

// New builds a Solver from cfg. Unrecognized service names are skipped
// with a warning; a deathbycaptcha credential that is not
// "username:password" fails construction. At least one recognized service
// is required, otherwise New fails with ErrNoValidServices.
func New(cfg Config) (*Solver, error) {
	cfg.defaults()

	api := newAPIClient()
	var backends []Backend
	for _, sc := range cfg.Services {
		switch strings.ToLower(sc.Service) {
		case ServiceTwoCaptcha:
			backends = append(backends, newTwoCaptcha(sc.APIKey, api))
		case ServiceAntiCaptcha:
			backends = append(backends, newAntiCaptcha(sc.APIKey, api))
		case ServiceDeathByCaptcha:
			b, err := newDeathByCaptcha(sc.APIKey, api)
			if err != nil {
				return nil, err
			}
			backends = append(backends, b)
		default:
			slog.Warn("skipping unknown captcha service", slog.String("service", sc.Service))
		}
	}
	if len(backends) == 0 {
		return nil, &Error{Kind: ErrNoValidServices}
	}

	return &Solver{
		backends: backends,
		timeout:  cfg.Timeout,
		interval: cfg.PollInterval,
	}, nil
}

// Backends returns the configured backends in fallback order.
func (s *Solver) Backends() []Backend {
	out := make([]Backend, len(s.backends))
	copy(out, s.backends)
	return out
}

// Solve submits the challenge to each configured service in turn and
// returns the first solution. Every per-service failure is recorded and
// the next service is tried; when all fail, the returned error wraps
// ErrAllBackendsFailed together with the last service's error. A canceled
// ctx aborts the chain instead of counting as a service failure.
func (s *Solver) Solve(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for _, b := range s.backends {
		solution, err := s.solveWith(ctx, b, req)
		if err == nil {
			return solution, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		slog.Warn("captcha service failed, falling back",
			slog.String("service", b.Name()), slog.Any("error", err))
		lastErr = err
	}
	return "", backendErr("", ErrAllBackendsFailed, lastErr, "%d services tried", len(s.backends))
}

func (s *Solver) solveWith(ctx context.Context, b Backend, req Request) (string, error) {
	handle, err := b.Submit(ctx, req)
	if err != nil {
		return "", err
	}
	slog.Info("captcha task submitted",
		slog.String("service", b.Name()), slog.String("task", string(handle)))

	solution, err := awaitSolution(ctx, b, handle, s.timeout, s.interval)
	if err != nil {
		return "", err
	}
	slog.Info("captcha solved", slog.String("service", b.Name()))
	return solution, nil
}

// BalanceResult is one service's answer to a balance query.
type BalanceResult struct {
	Amount float64
	Err    error
}

// Balances queries every configured service for its account balance,
// keyed by service name. A failing service gets its error recorded under
// its key; the other services still report numbers.
func (s *Solver) Balances(ctx context.Context) map[string]BalanceResult {
	out := make(map[string]BalanceResult, len(s.backends))
	for _, b := range s.backends {
		amount, err := b.Balance(ctx)
		if err != nil {
			slog.Warn("balance query failed",
				slog.String("service", b.Name()), slog.Any("error", err))
			out[b.Name()] = BalanceResult{Err: err}
			continue
		}
		out[b.Name()] = BalanceResult{Amount: amount}
	}
	return out
}
