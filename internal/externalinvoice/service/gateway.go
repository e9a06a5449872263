package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/supplierspend/internal/clock"
	"github.com/smallbiznis/supplierspend/internal/config"
	"github.com/smallbiznis/supplierspend/internal/externalinvoice/domain"
	"github.com/smallbiznis/supplierspend/internal/observability/metrics"
	"github.com/smallbiznis/supplierspend/internal/resilience"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Clock    clock.Clock
	Remote   domain.RemoteClient
	Failover domain.FailoverProvider
	Config   *config.GatewayConfigHolder
	Metrics  *metrics.GatewayMetrics `optional:"true"`
}

// Gateway wraps the remote client in retry and circuit breaker policies and
// serves the failover snapshot whenever the remote call fails.
type Gateway struct {
	log      *zap.Logger
	clock    clock.Clock
	remote   domain.RemoteClient
	failover domain.FailoverProvider
	metrics  *metrics.GatewayMetrics
	tracer   trace.Tracer

	breaker *resilience.CircuitBreaker
	retry   atomic.Pointer[resilience.Retry]
}

func New(p Params) *Gateway {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	c := p.Clock
	if c == nil {
		c = clock.New()
	}
	holder := p.Config
	if holder == nil {
		holder = config.NewStaticGatewayConfigHolder(config.DefaultGatewayConfig())
	}
	cfg := holder.Get()

	g := &Gateway{
		log:      log.Named("externalinvoice.gateway"),
		clock:    c,
		remote:   p.Remote,
		failover: p.Failover,
		metrics:  p.Metrics,
		tracer:   otel.Tracer("supplierspend/externalinvoice"),
	}
	g.breaker = resilience.NewCircuitBreaker(resilience.BreakerConfig{
		Name:             "externalinvoice",
		FailureThreshold: cfg.FailureThreshold,
		BreakDuration:    cfg.BreakDuration,
		OnStateChange:    g.onStateChange,
	})
	g.retry.Store(g.newRetry(cfg.MaxRetries))

	holder.OnChange(g.apply)
	return g
}

func (g *Gateway) GetInvoices(ctx context.Context, supplierID snowflake.ID) ([]domain.ExternalInvoice, error) {
	ctx, span := g.tracer.Start(ctx, "externalinvoice.GetInvoices",
		trace.WithAttributes(attribute.String("supplier_id", supplierID.String())),
	)
	defer span.End()

	var live []domain.ExternalInvoice
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.retry.Load().Do(ctx, func(ctx context.Context) error {
			invoices, err := g.remote.GetInvoices(ctx, supplierID.String())
			g.metrics.RecordRemoteAttempt(err)
			if err != nil {
				return err
			}
			live = invoices
			return nil
		})
	})
	if err == nil {
		g.metrics.RecordCall(metrics.GatewayOutcomeLive)
		span.SetAttributes(attribute.String("gateway.source", "live"))
		return live, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		span.SetStatus(codes.Error, ctxErr.Error())
		return nil, ctxErr
	}

	invoices, err := g.fromFailover(ctx, supplierID, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.String("gateway.source", "failover"))
	return invoices, nil
}

func (g *Gateway) fromFailover(ctx context.Context, supplierID snowflake.ID, remoteErr error) ([]domain.ExternalInvoice, error) {
	reason := metrics.GatewayReasonRemoteFailure
	if errors.Is(remoteErr, resilience.ErrCircuitOpen) {
		reason = metrics.GatewayReasonShortCircuit
	}
	g.metrics.RecordFailover(reason)

	log := g.log.With(
		zap.String("supplier_id", supplierID.String()),
		zap.String("reason", reason),
	)

	snapshot, err := g.failover.GetInvoices(ctx, supplierID)
	if err != nil {
		g.metrics.RecordCall(metrics.GatewayOutcomeFailoverUnavailable)
		log.Error("failover snapshot unavailable", zap.Error(err), zap.NamedError("remote_error", remoteErr))
		return nil, fmt.Errorf("%w: %w", domain.ErrFailoverUnavailable, errors.Join(err, remoteErr))
	}

	if domain.IsStale(snapshot.Timestamp, g.clock.Now()) {
		g.metrics.RecordCall(metrics.GatewayOutcomeFailoverStale)
		log.Error("failover snapshot out of date",
			zap.Time("snapshot_timestamp", snapshot.Timestamp),
			zap.NamedError("remote_error", remoteErr),
		)
		return nil, &domain.FailoverOutOfDateError{Timestamp: snapshot.Timestamp, Cause: remoteErr}
	}

	g.metrics.RecordCall(metrics.GatewayOutcomeFailover)
	log.Warn("serving failover invoices",
		zap.Time("snapshot_timestamp", snapshot.Timestamp),
		zap.Int("invoices", len(snapshot.Invoices)),
		zap.NamedError("remote_error", remoteErr),
	)

	invoices := make([]domain.ExternalInvoice, len(snapshot.Invoices))
	copy(invoices, snapshot.Invoices)
	return invoices, nil
}

// BreakerState exposes the breaker state for health reporting.
func (g *Gateway) BreakerState() resilience.State {
	return g.breaker.State()
}

func (g *Gateway) apply(cfg config.GatewayConfig) {
	g.breaker.Reconfigure(cfg.FailureThreshold, cfg.BreakDuration)
	g.retry.Store(g.newRetry(cfg.MaxRetries))
	g.log.Info("gateway config applied",
		zap.Duration("break_duration", cfg.BreakDuration),
		zap.Int("failure_threshold", cfg.FailureThreshold),
		zap.Int("max_retries", cfg.MaxRetries),
	)
}

func (g *Gateway) newRetry(maxRetries int) *resilience.Retry {
	r := resilience.NewRetry(maxRetries)
	r.OnRetry = func(attempt int, err error) {
		g.log.Debug("retrying remote invoice call", zap.Int("attempt", attempt), zap.Error(err))
	}
	return r
}

func (g *Gateway) onStateChange(from, to resilience.State) {
	g.metrics.RecordTransition(string(from), string(to))
	g.log.Warn("circuit breaker state changed",
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.Duration("break_duration", g.breaker.BreakDuration()),
	)
}
