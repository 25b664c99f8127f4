// Package executor runs backoffice actions: it validates configuration,
// logs in once and hands the session to the action.
package executor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/devicelab-dev/backoffice-runner/pkg/backoffice"
	"github.com/devicelab-dev/backoffice-runner/pkg/config"
	"github.com/devicelab-dev/backoffice-runner/pkg/core"
	"github.com/devicelab-dev/backoffice-runner/pkg/logger"
	"github.com/devicelab-dev/backoffice-runner/pkg/metrics"
)

// Action is one authenticated backoffice operation.
type Action interface {
	// Name labels logs and metrics, e.g. "delete-product".
	Name() string

	// Require lists the action's own required settings as
	// (display name, value) pairs.
	Require(cfg config.Config) [][2]string

	// Run performs the action with an authenticated session.
	Run(ctx context.Context, s *backoffice.Session) (*core.Result, error)

	// Annotate adds action context to a failure record.
	Annotate(r *core.Result)
}

// Defaulter is implemented by actions that substitute defaults for
// missing settings before validation.
type Defaulter interface {
	ApplyDefaults(cfg config.Config) config.Config
}

// Outcome labels used for action metrics besides error categories.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Runner executes actions against the configured backoffice.
type Runner struct {
	config  config.Config
	client  *backoffice.Client
	metrics *metrics.Recorder
}

// New creates a new Runner. rec may be nil.
func New(cfg config.Config, client *backoffice.Client, rec *metrics.Recorder) *Runner {
	return &Runner{
		config:  cfg,
		client:  client,
		metrics: rec,
	}
}

// Run validates, logs in and runs the action. The returned record is never
// nil: on error it is a failure record carrying the action context.
func (r *Runner) Run(ctx context.Context, action Action) (*core.Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := logger.WithFields(logrus.Fields{"run": runID, "action": action.Name()})
	log.Info("Starting action")

	result, err := r.run(ctx, action)
	if err != nil {
		log.WithField("category", core.CategoryOf(err).String()).Errorf("Action failed: %v", err)
		result = core.FailedResult(err)
		action.Annotate(result)
	}
	result.RunID = runID

	outcome := Outcome(result, err)
	r.metrics.ObserveAction(action.Name(), outcome, time.Since(start))
	log.WithField("outcome", outcome).Infof("Action finished in %v", time.Since(start).Round(time.Millisecond))

	return result, err
}

func (r *Runner) run(ctx context.Context, action Action) (*core.Result, error) {
	cfg := r.config
	if d, ok := action.(Defaulter); ok {
		cfg = d.ApplyDefaults(cfg)
	}

	if err := r.validate(cfg, action); err != nil {
		return nil, err
	}

	baseURL := ResolveBaseURL(cfg)
	session, err := r.client.Login(ctx, baseURL, cfg.Email, cfg.Password)
	if err != nil {
		return nil, err
	}

	return action.Run(ctx, session)
}

// validate reports every missing setting at once: the action's own first,
// then the target tenant and credentials.
func (r *Runner) validate(cfg config.Config, action Action) error {
	fields := action.Require(cfg)
	if cfg.BaseURL == "" {
		fields = append(fields, [2]string{"myAccount", cfg.Tenant})
	}
	fields = append(fields,
		[2]string{"myEmail", cfg.Email},
		[2]string{"myPassword", cfg.Password},
	)
	return config.Require(fields...)
}

// ResolveBaseURL returns the explicit base URL when set, otherwise the one
// derived from tenant and tier.
func ResolveBaseURL(cfg config.Config) string {
	if cfg.BaseURL != "" {
		u := backoffice.NormalizeBaseURL(cfg.BaseURL)
		logger.Info("Using base URL: %s", u)
		return u
	}
	return backoffice.BaseURL(cfg.Tenant, cfg.Tier)
}

// Outcome is the metrics label of a finished action.
func Outcome(result *core.Result, err error) string {
	switch {
	case err != nil:
		return core.CategoryOf(err).String()
	case result == nil || !result.Success:
		return OutcomeFailed
	default:
		return OutcomeSuccess
	}
}
