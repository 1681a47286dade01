package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDisabledProvider(t *testing.T) {
	p, err := NewProvider(Config{Enabled: false, SampleRate: 5})
	require.NoError(t, err)
	require.NoError(t, p.HealthCheck())

	ctx, op := p.StartOperation(context.Background(), "deposit", "alice")
	require.NotNil(t, ctx)
	p.EndOperation(ctx, op, nil)
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNilProvider(t *testing.T) {
	var p *Provider
	require.NoError(t, p.HealthCheck())

	ctx, op := p.StartOperation(context.Background(), "slash", "ciro_authority")
	p.EndOperation(ctx, op, errors.New("boom"))
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled ignores fields", Config{SampleRate: 2}, false},
		{"valid", Config{Enabled: true, OTLPEndpoint: "localhost:4318", SampleRate: 0.5}, false},
		{"missing endpoint", Config{Enabled: true, SampleRate: 0.5}, true},
		{"sample rate too high", Config{Enabled: true, OTLPEndpoint: "localhost:4318", SampleRate: 1.5}, true},
		{"negative sample rate", Config{Enabled: true, OTLPEndpoint: "localhost:4318", SampleRate: -0.1}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestEnabledProviderWithoutPrometheus(t *testing.T) {
	p, err := NewProvider(Config{
		Enabled:      true,
		OTLPEndpoint: "http://localhost:4318",
		SampleRate:   1,
		Environment:  "test",
		NodeID:       "ciro-test-1",
	})
	require.NoError(t, err)
	require.NoError(t, p.HealthCheck())
	require.NotNil(t, p.Tracer())
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestOperationSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := tracesdk.NewTracerProvider(tracesdk.WithSyncer(exporter))
	p := &Provider{tracer: tp.Tracer(instrumentationName)}

	ctx, op := p.StartOperation(context.Background(), "register_worker", "alice")
	p.EndOperation(ctx, op, nil)
	ctx, op = p.StartOperation(context.Background(), "slash", "mallory")
	p.EndOperation(ctx, op, errors.New("unauthorized"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	require.Equal(t, "workerpool.register_worker", spans[0].Name)
	require.Equal(t, codes.Ok, spans[0].Status.Code)
	require.Contains(t, spans[0].Attributes, attribute.String("workerpool.caller", "alice"))

	require.Equal(t, "workerpool.slash", spans[1].Name)
	require.Equal(t, codes.Error, spans[1].Status.Code)
	require.Equal(t, "unauthorized", spans[1].Status.Description)
	require.Len(t, spans[1].Events, 1)
}
