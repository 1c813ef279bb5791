// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gitlab.com/yelinaung/invoiceflow/internal/logger"
)

// Exporter names accepted by OTEL_TRACES_EXPORTER and OTEL_METRICS_EXPORTER.
const (
	ExporterNone     = "none"
	ExporterStdout   = "stdout"
	ExporterOTLPGRPC = "otlp-grpc"
	ExporterOTLPHTTP = "otlp-http"
)

var exporters = []string{ExporterNone, ExporterStdout, ExporterOTLPGRPC, ExporterOTLPHTTP}

// Defaults.
const (
	DefaultInvoiceDueDays        = 30
	DefaultQuoteValidityDays     = 30
	DefaultStatusRefreshInterval = time.Hour
	DefaultReportCacheTTL        = time.Minute
	DefaultHealthAddr            = ":8081"
	DefaultServiceName           = "invoiceflow"
)

// Config holds all configuration for the application.
type Config struct {
	DatabaseURL           string
	LogLevel              string
	LogFormat             string
	LogHashSalt           string
	GeminiAPIKey          string
	InvoiceDueDays        int
	QuoteValidityDays     int
	StatusRefreshEnabled  bool
	StatusRefreshInterval time.Duration
	ReportCacheTTL        time.Duration
	HealthAddr            string
	ServiceName           string
	TracesExporter        string
	MetricsExporter       string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		LogLevel:              os.Getenv("LOG_LEVEL"),
		LogFormat:             os.Getenv("LOG_FORMAT"),
		LogHashSalt:           os.Getenv("LOG_HASH_SALT"),
		GeminiAPIKey:          os.Getenv("GEMINI_API_KEY"),
		InvoiceDueDays:        DefaultInvoiceDueDays,
		QuoteValidityDays:     DefaultQuoteValidityDays,
		StatusRefreshEnabled:  os.Getenv("STATUS_REFRESH_ENABLED") == "true",
		StatusRefreshInterval: DefaultStatusRefreshInterval,
		ReportCacheTTL:        DefaultReportCacheTTL,
		HealthAddr:            DefaultHealthAddr,
		ServiceName:           DefaultServiceName,
		TracesExporter:        ExporterNone,
		MetricsExporter:       ExporterNone,
	}

	var errs []string

	if v := os.Getenv("INVOICE_DUE_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 1 || days > 365 {
			errs = append(errs, "INVOICE_DUE_DAYS must be a number of days between 1 and 365")
		} else {
			cfg.InvoiceDueDays = days
		}
	}
	if v := os.Getenv("QUOTE_VALIDITY_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 1 || days > 365 {
			errs = append(errs, "QUOTE_VALIDITY_DAYS must be a number of days between 1 and 365")
		} else {
			cfg.QuoteValidityDays = days
		}
	}
	if v := os.Getenv("STATUS_REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < time.Minute {
			errs = append(errs, "STATUS_REFRESH_INTERVAL must be a duration of at least 1m")
		} else {
			cfg.StatusRefreshInterval = d
		}
	}
	if v := os.Getenv("REPORT_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			errs = append(errs, "REPORT_CACHE_TTL must be a non-negative duration")
		} else {
			cfg.ReportCacheTTL = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("HEALTH_ADDR")); v != "" {
		cfg.HealthAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("OTEL_SERVICE_NAME")); v != "" {
		cfg.ServiceName = v
	}
	if v := strings.TrimSpace(os.Getenv("OTEL_TRACES_EXPORTER")); v != "" {
		cfg.TracesExporter = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("OTEL_METRICS_EXPORTER")); v != "" {
		cfg.MetricsExporter = strings.ToLower(v)
	}

	if err := cfg.validate(errs); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that all required configuration is present and appends
// any problems to the parse errors collected by Load.
func (c *Config) validate(errs []string) error {
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if len(c.LogHashSalt) < logger.MinHashSaltLength {
		errs = append(errs, fmt.Sprintf("LOG_HASH_SALT must be at least %d characters", logger.MinHashSaltLength))
	}

	if c.LogFormat != "" && c.LogFormat != "json" && c.LogFormat != "console" {
		errs = append(errs, "LOG_FORMAT must be json or console")
	}

	if !slices.Contains(exporters, c.TracesExporter) {
		errs = append(errs, "OTEL_TRACES_EXPORTER must be one of "+strings.Join(exporters, ", "))
	}
	if !slices.Contains(exporters, c.MetricsExporter) {
		errs = append(errs, "OTEL_METRICS_EXPORTER must be one of "+strings.Join(exporters, ", "))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// GeminiEnabled reports whether expense category suggestions are available.
func (c *Config) GeminiEnabled() bool {
	return c.GeminiAPIKey != ""
}
