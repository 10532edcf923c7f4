package instrumentation

import (
	"context"
	"testing"
	"time"
)

func testProviderConfig(metricsExporter, tracingExporter string) Config {
	return Config{
		ServiceName:     "inboxpulse-test",
		ServiceVersion:  "0.0.1",
		Enabled:         true,
		MetricsExporter: metricsExporter,
		TracingExporter: tracingExporter,
	}
}

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		ServiceName:    "inboxpulse-test",
		ServiceVersion: "0.0.1",
		Enabled:        false,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if provider.Enabled() {
		t.Error("expected provider to be disabled")
	}

	// Disabled providers still hand out a usable no-op recorder and
	// tracer, and shut down cleanly.
	if provider.Metrics() == nil {
		t.Error("expected metrics to be non-nil even when disabled")
	}
	if provider.Tracer("inbox") == nil {
		t.Error("expected no-op tracer to be non-nil")
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("expected no error on shutdown, got %v", err)
	}
}

func TestNewProvider_PrometheusExporter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, testProviderConfig("prometheus", "none"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	if !provider.Enabled() {
		t.Error("expected provider to be enabled")
	}
	if provider.Metrics() == nil {
		t.Error("expected metrics to be non-nil")
	}
	if provider.PrometheusHandler() == nil {
		t.Error("expected PrometheusHandler to be non-nil for prometheus exporter")
	}
	if provider.Tracer("inbox") == nil {
		t.Error("expected tracer to be non-nil")
	}
}

func TestNewProvider_StdoutExporter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, testProviderConfig("stdout", "stdout"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	if !provider.Enabled() {
		t.Error("expected provider to be enabled")
	}
	if provider.PrometheusHandler() != nil {
		t.Error("expected PrometheusHandler to be nil for stdout exporter")
	}
}

func TestNewProvider_ConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{
			name:   "unknown metrics exporter",
			config: testProviderConfig("invalid", "none"),
		},
		{
			name:   "unknown tracing exporter",
			config: testProviderConfig("prometheus", "invalid"),
		},
		{
			name:   "otlp metrics without endpoint",
			config: testProviderConfig("otlp", "none"),
		},
		{
			name:   "otlp tracing without endpoint",
			config: testProviderConfig("prometheus", "otlp"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if _, err := NewProvider(ctx, tt.config); err == nil {
				t.Error("expected configuration error")
			}
		})
	}
}

func TestProvider_Shutdown(t *testing.T) {
	ctx := context.Background()
	provider, err := NewProvider(ctx, testProviderConfig("prometheus", "none"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := provider.Shutdown(ctx); err != nil {
		t.Errorf("expected no error on shutdown, got %v", err)
	}
}
