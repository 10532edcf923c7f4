package instrumentation

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config controls OpenTelemetry instrumentation. DefaultConfig fills
// it from environment variables; flags may override afterwards.
type Config struct {
	// ServiceName is the reported service name (default: inboxpulse).
	ServiceName string

	// ServiceVersion is the build version.
	ServiceVersion string

	// ServiceInstanceID uniquely identifies this instance. Defaults to
	// the hostname, which is the pod name on Kubernetes.
	ServiceInstanceID string

	// K8sNamespace and K8sPodName attach Kubernetes metadata to the
	// telemetry resource when set.
	K8sNamespace string
	K8sPodName   string

	// Enabled turns instrumentation on (default: true). Set
	// INSTRUMENTATION_ENABLED=false to disable metrics and tracing.
	Enabled bool

	// MetricsExporter is one of "prometheus", "otlp", "stdout"
	// (default: "prometheus").
	MetricsExporter string

	// TracingExporter is one of "otlp", "stdout", "none"
	// (default: "none").
	TracingExporter string

	// OTLPEndpoint is the collector endpoint without protocol prefix,
	// for example "localhost:4318". Required for the otlp exporters.
	OTLPEndpoint string

	// OTLPInsecure sends OTLP over plain HTTP instead of TLS. Traces
	// carry query metadata; leave this off outside local development.
	OTLPInsecure bool

	// TraceSamplingRate is the trace sampling ratio in [0, 1]
	// (default: 0.1).
	TraceSamplingRate float64

	// PrometheusEndpoint is the metrics HTTP path (default: "/metrics").
	PrometheusEndpoint string

	// DetailedLabels opts in to high-cardinality metric labels such as
	// user accounts. Keep disabled in production.
	DetailedLabels bool

	// AuditLogging configures the audit trail for tool invocations.
	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig controls the tool invocation audit trail.
type AuditLoggingConfig struct {
	// Enabled turns audit logging on (default: true).
	Enabled bool

	// IncludePII logs full email addresses instead of anonymized
	// identifiers. Only enable when the log sink has access controls
	// suitable for PII.
	IncludePII bool

	// LogLevel is the slog level for audit messages (default: info).
	LogLevel string
}

// DefaultConfig builds a Config from environment variables, falling
// back to defaults suitable for a local prometheus setup.
func DefaultConfig() Config {
	return Config{
		ServiceName:        getEnvOrDefault("OTEL_SERVICE_NAME", "inboxpulse"),
		ServiceVersion:     "unknown",
		ServiceInstanceID:  getEnvOrDefault("OTEL_SERVICE_INSTANCE_ID", ""),
		K8sNamespace:       getEnvOrDefault("K8S_NAMESPACE", getEnvOrDefault("POD_NAMESPACE", "")),
		K8sPodName:         getEnvOrDefault("K8S_POD_NAME", getEnvOrDefault("HOSTNAME", "")),
		Enabled:            getEnvBoolOrDefault("INSTRUMENTATION_ENABLED", true),
		MetricsExporter:    getEnvOrDefault("METRICS_EXPORTER", ExporterPrometheus),
		TracingExporter:    getEnvOrDefault("TRACING_EXPORTER", ExporterNone),
		OTLPEndpoint:       getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure:       getEnvBoolOrDefault("OTEL_EXPORTER_OTLP_INSECURE", false),
		TraceSamplingRate:  getEnvFloatOrDefault("OTEL_TRACES_SAMPLER_ARG", 0.1),
		PrometheusEndpoint: getEnvOrDefault("PROMETHEUS_ENDPOINT", "/metrics"),
		DetailedLabels:     getEnvBoolOrDefault("METRICS_DETAILED_LABELS", false),
		AuditLogging: AuditLoggingConfig{
			Enabled:    getEnvBoolOrDefault("AUDIT_LOGGING_ENABLED", true),
			IncludePII: getEnvBoolOrDefault("AUDIT_LOGGING_INCLUDE_PII", false),
			LogLevel:   getEnvOrDefault("AUDIT_LOGGING_LEVEL", "info"),
		},
	}
}

// Validate reports configuration errors before the provider is built.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}

	switch c.MetricsExporter {
	case "", ExporterPrometheus, ExporterOTLP, ExporterStdout:
	default:
		return fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter)
	}

	switch c.TracingExporter {
	case "", ExporterOTLP, ExporterStdout, ExporterNone:
	default:
		return fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter)
	}

	if c.TracingExporter == ExporterOTLP && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTLP endpoint is required when using OTLP tracing exporter")
	}
	if c.MetricsExporter == ExporterOTLP && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTLP endpoint is required when using OTLP metrics exporter")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

// Metric label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusUnknown = "unknown"

	OAuthResultSuccess = "success"
	OAuthResultFailure = "failure"
	OAuthResultExpired = "expired"

	SSOInjectionResultSuccess     = "success"
	SSOInjectionResultStored      = "stored"
	SSOInjectionResultNoUser      = "no_user"
	SSOInjectionResultNoToken     = "no_token"
	SSOInjectionResultStoreFailed = "store_failed"

	ServiceGmail = "gmail"

	// Insight operation names, one per engine operation.
	OperationUnread        = "unread"
	OperationMissed        = "missed"
	OperationSenderSummary = "sender_summary"
	OperationSearch        = "search"
	OperationWeekly        = "weekly"

	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"

	DefaultMetricInterval = 10 * time.Second
)
