package service

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/yourconsultingltd/ycl-backend/internal/config"
)

// Report values. "mongodb" is the key existing uptime monitors read; it
// describes the document store whatever backs it.
const (
	StatusOK       = "OK"
	StatusDegraded = "DEGRADED"

	Connected    = "connected"
	Disconnected = "disconnected"

	MailConfigured    = "configured"
	MailNotConfigured = "not configured"

	checkHealthy   = "healthy"
	checkUnhealthy = "unhealthy"
)

// Pinger checks one dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// StoreProbe is the document store as seen by the health report.
type StoreProbe interface {
	Pinger
	Connected() bool
}

// MailProbe reports whether outbound mail is set up.
type MailProbe interface {
	Configured() bool
}

// CheckResult is one dependency check.
type CheckResult struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

// HealthReport is the body of GET /api/health.
type HealthReport struct {
	Status      string                 `json:"status"`
	Message     string                 `json:"message"`
	MongoDB     string                 `json:"mongodb"`
	Email       string                 `json:"email"`
	Timestamp   time.Time              `json:"timestamp"`
	Environment string                 `json:"environment"`
	Checks      map[string]CheckResult `json:"checks"`
}

// HealthDeps are the dependencies the health report looks at. Nil probes
// are skipped.
type HealthDeps struct {
	Store       StoreProbe
	Redis       Pinger
	Mail        MailProbe
	Checks      config.HealthChecksConfig
	Environment string
	NewRelic    *newrelic.Application
	Logger      *zerolog.Logger
}

type HealthService struct {
	deps HealthDeps
	now  func() time.Time
}

func NewHealthService(d HealthDeps) *HealthService {
	return &HealthService{deps: d, now: time.Now}
}

// Check builds the health report. It only reads state and pings; nothing is
// written, and the report is produced even when every dependency is down.
func (s *HealthService) Check(ctx context.Context) *HealthReport {
	start := time.Now()
	log := notifier{logger: s.deps.Logger}.log(ctx).With().Str("operation", "health_check").Logger()

	report := &HealthReport{
		Status:      StatusOK,
		Message:     "Backend is running",
		MongoDB:     Disconnected,
		Email:       MailNotConfigured,
		Timestamp:   s.now().UTC(),
		Environment: s.deps.Environment,
		Checks:      map[string]CheckResult{},
	}

	d := s.deps

	storeUp := d.Store != nil && d.Store.Connected()
	if d.Store != nil && d.Checks.Has("database") {
		res := s.probe(ctx, &log, "database", d.Store)
		report.Checks["database"] = res
		storeUp = storeUp && res.Status == checkHealthy
	}
	if storeUp {
		report.MongoDB = Connected
	} else {
		report.Status = StatusDegraded
	}

	if d.Redis != nil && d.Checks.Has("redis") {
		res := s.probe(ctx, &log, "redis", d.Redis)
		report.Checks["redis"] = res
		if res.Status != checkHealthy {
			report.Status = StatusDegraded
		}
	}

	if d.Mail != nil && d.Mail.Configured() {
		report.Email = MailConfigured
	}

	if report.Status != StatusOK {
		log.Warn().Dur("total_duration", time.Since(start)).Msg("health check degraded")
		s.recordEvent(map[string]any{
			"check_type":        "overall",
			"operation":         "health_check",
			"error_type":        "overall_degraded",
			"total_duration_ms": time.Since(start).Milliseconds(),
		})
	} else {
		log.Debug().Dur("total_duration", time.Since(start)).Msg("health check passed")
	}

	return report
}

func (s *HealthService) probe(ctx context.Context, log *zerolog.Logger, name string, p Pinger) CheckResult {
	timeout := s.deps.Checks.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().Err(err).Dur("response_time", elapsed).Msgf("%s health check failed", name)
		s.recordEvent(map[string]any{
			"check_type":       name,
			"operation":        "health_check",
			"error_type":       name + "_unhealthy",
			"response_time_ms": elapsed.Milliseconds(),
			"error_message":    err.Error(),
		})
		return CheckResult{Status: checkUnhealthy, ResponseTime: elapsed.String(), Error: err.Error()}
	}

	return CheckResult{Status: checkHealthy, ResponseTime: elapsed.String()}
}

func (s *HealthService) recordEvent(params map[string]any) {
	if s.deps.NewRelic != nil {
		s.deps.NewRelic.RecordCustomEvent("HealthCheckError", params)
	}
}
