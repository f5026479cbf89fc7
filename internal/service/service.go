package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rplog/internal/config"
	"rplog/internal/harness"
	"rplog/internal/report"
	"rplog/internal/scenario"
	"rplog/pkg/logger"
)

// Service runs the logging examples as one launch
type Service struct {
	config    *config.Config
	logger    *logger.Logger
	transport report.Transport
	reporter  *report.Reporter
	examples  *scenario.LoggingTest
	runner    *harness.Runner

	metricsServer *http.Server

	running    bool
	runningMux sync.Mutex
}

// New creates a new service from the config file at configPath
func New(configPath, logFile string) (*Service, error) {
	// Load configuration
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create logger
	log, err := logger.NewLogger(logFile, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	transport, err := newTransport(cfg, log)
	if err != nil {
		log.Close()
		return nil, err
	}

	reporter := report.NewReporter(transport, log)

	return &Service{
		config:    cfg,
		logger:    log,
		transport: transport,
		reporter:  reporter,
		examples:  scenario.NewLoggingTest(cfg.FilesDir, reporter, log),
		runner:    harness.NewRunner(reporter, log),
	}, nil
}

// newTransport picks the transport for cfg
func newTransport(cfg *config.Config, log *logger.Logger) (report.Transport, error) {
	if cfg.DryRun {
		return report.NewRecorder(), nil
	}

	grpcTransport := report.NewGRPCTransport(cfg.Endpoint, cfg.APIKey, log)
	grpcTransport.SetProject(cfg.Project)
	grpcTransport.SetTimeout(cfg.CallTimeout())
	if cfg.UseTLS != nil {
		grpcTransport.SetTLS(*cfg.UseTLS)
	}
	if cfg.Compression != "none" {
		if err := grpcTransport.SetCompression(cfg.Compression); err != nil {
			return nil, fmt.Errorf("failed to configure compression: %w", err)
		}
	}
	return grpcTransport, nil
}

// Run starts a launch, runs every example as an item and finishes the launch.
// A cancelled ctx finishes it as INTERRUPTED, a failed example as FAILED.
func (s *Service) Run(ctx context.Context) ([]harness.Result, error) {
	s.runningMux.Lock()
	if s.running {
		s.runningMux.Unlock()
		return nil, errors.New("service is already running")
	}
	s.running = true
	s.runningMux.Unlock()

	defer func() {
		s.runningMux.Lock()
		s.running = false
		s.runningMux.Unlock()
	}()

	s.logger.Info("🚀 Starting rplog launch")
	s.logger.Debugf("📋 Configuration Details:")
	if s.config.DryRun {
		s.logger.Debugf("   🧪 Dry run: events are recorded in memory")
	} else {
		s.logger.Debugf("   📡 Endpoint: %s", s.config.Endpoint)
		s.logger.Debugf("   🗜️  Compression: %s", s.config.Compression)
		if t, ok := s.transport.(*report.GRPCTransport); ok {
			info := t.GetSecurityInfo()
			s.logger.Debugf("   🔒 Security: %v (%v)", info["security_level"], info["recommendation"])
		}
	}
	s.logger.Debugf("   📁 Project: %s", s.config.Project)
	s.logger.Debugf("   📂 Files: %s", s.config.FilesDir)
	s.logger.Debugf("   📊 Log Level: %s", s.config.LogLevel)

	if s.config.MetricsAddr != "" {
		s.startMetrics()
	}

	if err := s.reporter.StartLaunch(ctx, s.config.Launch, s.config.Description); err != nil {
		return nil, fmt.Errorf("failed to start launch: %w", err)
	}

	results := s.runner.Run(ctx, s.examples.Cases())

	status := launchStatus(ctx, results)
	switch status {
	case report.StatusInterrupted:
		s.logger.Warnf("⚠️  Run interrupted, %d of %d cases skipped",
			harness.Count(results, report.StatusSkipped), len(results))
	case report.StatusFailed:
		s.logger.Warnf("⚠️  %d of %d cases failed", harness.Failed(results), len(results))
	}

	if err := s.reporter.FinishLaunch(context.WithoutCancel(ctx), status); err != nil {
		return results, fmt.Errorf("failed to finish launch: %w", err)
	}

	s.logger.Infof("🏁 Launch finished with status %s", status)
	return results, nil
}

// launchStatus is INTERRUPTED when ctx was cancelled, FAILED when any case
// failed and PASSED otherwise
func launchStatus(ctx context.Context, results []harness.Result) report.Status {
	if ctx.Err() != nil {
		return report.StatusInterrupted
	}
	if harness.Failed(results) > 0 {
		return report.StatusFailed
	}
	return report.StatusPassed
}

// startMetrics serves the reporter's registry on the configured address
func (s *Service) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.reporter.Registry(), promhttp.HandlerOpts{}))

	s.metricsServer = &http.Server{
		Addr:              s.config.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func(srv *http.Server) {
		s.logger.Infof("📈 Serving metrics on %s/metrics", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("❌ Metrics server failed: %v", err)
		}
	}(s.metricsServer)
}

// Reporter returns the service's reporter
func (s *Service) Reporter() *report.Reporter {
	return s.reporter
}

// Close closes the service and cleans up resources
func (s *Service) Close() {
	if s.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := s.metricsServer.Shutdown(ctx); err != nil {
			s.logger.Errorf("Failed to stop metrics server: %v", err)
		}
		cancel()
	}

	if err := s.reporter.Close(); err != nil {
		s.logger.Errorf("Failed to close transport: %v", err)
	}

	if s.logger != nil {
		s.logger.Close()
	}
}
