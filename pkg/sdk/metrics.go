package sdk

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/Pachada/ReactBase/pkg/sdk"

// ClientMetrics holds the instruments recorded by Client.
// Without a configured MeterProvider the global no-op meter is used.
type ClientMetrics struct {
	RequestCounter  metric.Int64Counter // requests by method and status
	RefreshCounter  metric.Int64Counter // refresh flights by outcome
	ExpiredCounter  metric.Int64Counter // sessions forced out after a failed refresh
	RetriedRequests metric.Int64Counter // requests replayed with a refreshed token
}

// NewClientMetrics creates the client instruments from meter. A nil meter
// selects otel.Meter for this package.
func NewClientMetrics(meter metric.Meter) (*ClientMetrics, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}

	requests, err := meter.Int64Counter(
		"reactbase.client.request.count",
		metric.WithDescription("Total number of API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	refreshes, err := meter.Int64Counter(
		"reactbase.client.refresh.count",
		metric.WithDescription("Access token refresh attempts"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return nil, err
	}

	expired, err := meter.Int64Counter(
		"reactbase.client.session_expired.count",
		metric.WithDescription("Sessions ended because a refresh failed"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	retried, err := meter.Int64Counter(
		"reactbase.client.retry.count",
		metric.WithDescription("Requests replayed after a successful refresh"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &ClientMetrics{
		RequestCounter:  requests,
		RefreshCounter:  refreshes,
		ExpiredCounter:  expired,
		RetriedRequests: retried,
	}, nil
}

func (m *ClientMetrics) recordRequest(ctx context.Context, method string, status int) {
	if m == nil {
		return
	}
	m.RequestCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.Int("http.status_code", status),
	))
}

func (m *ClientMetrics) recordRefresh(ctx context.Context, ok bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.RefreshCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *ClientMetrics) recordExpired(ctx context.Context) {
	if m == nil {
		return
	}
	m.ExpiredCounter.Add(ctx, 1)
}

func (m *ClientMetrics) recordRetry(ctx context.Context) {
	if m == nil {
		return
	}
	m.RetriedRequests.Add(ctx, 1)
}
