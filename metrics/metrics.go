// Package metrics defines the authentication instruments: use-case
// outcomes, session lifecycle events and OAuth2 callbacks.
package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/kbukum/authkit/errors"
)

// Operations recorded by Auth.
const (
	OpSignUp         = "sign_up"
	OpSignIn         = "sign_in"
	OpRefresh        = "refresh"
	OpSignOut        = "sign_out"
	OpOAuth2Init     = "oauth2_init"
	OpOAuth2Callback = "oauth2_callback"
)

// Session lifecycle events.
const (
	SessionCreated = "created"
	SessionRotated = "rotated"
	SessionEnded   = "ended"
	SessionRevoked = "revoked"
	SessionExpired = "expired"
)

// OutcomeOK labels a successful operation.
const OutcomeOK = "ok"

// Auth records authentication outcomes.
type Auth struct {
	operations metric.Int64Counter
	duration   metric.Float64Histogram
	sessions   metric.Int64Counter
	oauth2     metric.Int64Counter
}

// New creates the instruments on meter.
func New(meter metric.Meter) (*Auth, error) {
	operations, err := meter.Int64Counter("auth.operations",
		metric.WithDescription("Authentication use cases by operation and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.operations counter: %w", err)
	}

	duration, err := meter.Float64Histogram("auth.operation.duration",
		metric.WithDescription("Duration of authentication use cases in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.operation.duration histogram: %w", err)
	}

	sessions, err := meter.Int64Counter("auth.sessions",
		metric.WithDescription("Session lifecycle events"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.sessions counter: %w", err)
	}

	oauth2, err := meter.Int64Counter("auth.oauth2.callbacks",
		metric.WithDescription("OAuth2 callbacks by provider and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.oauth2.callbacks counter: %w", err)
	}

	return &Auth{operations: operations, duration: duration, sessions: sessions, oauth2: oauth2}, nil
}

// NewNop returns instruments that record nothing.
func NewNop() *Auth {
	a, _ := New(noop.NewMeterProvider().Meter("nop"))
	return a
}

// Outcome labels err by its error code, or "ok".
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	return string(errors.ErrCodeInternal)
}

// Operation records one use-case invocation that started at start.
func (a *Auth) Operation(ctx context.Context, op string, start time.Time, err error) {
	a.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", Outcome(err)),
	))
	a.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("operation", op),
	))
}

// Session records n session lifecycle events.
func (a *Auth) Session(ctx context.Context, event string, n int64) {
	if n <= 0 {
		return
	}
	a.sessions.Add(ctx, n, metric.WithAttributes(attribute.String("event", event)))
}

// OAuth2Callback records a callback outcome for provider.
func (a *Auth) OAuth2Callback(ctx context.Context, provider string, err error) {
	if provider == "" {
		provider = "unknown"
	}
	a.oauth2.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", Outcome(err)),
	))
}
