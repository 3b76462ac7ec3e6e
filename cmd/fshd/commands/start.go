package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/NTD-LAB/FSH/internal/adminapi"
	"github.com/NTD-LAB/FSH/internal/config"
	"github.com/NTD-LAB/FSH/internal/logger"
	"github.com/NTD-LAB/FSH/internal/metrics"
	"github.com/NTD-LAB/FSH/internal/security/audit"
	"github.com/NTD-LAB/FSH/internal/security/audit/archive"
	"github.com/NTD-LAB/FSH/internal/security/auth"
	"github.com/NTD-LAB/FSH/internal/security/ratelimit"
	"github.com/NTD-LAB/FSH/internal/server"
	"github.com/NTD-LAB/FSH/internal/telemetry"
)

var (
	foreground bool
	pidFile    string
	logFile    string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the fshd server",
	Long: `Start fshd with the specified configuration.

By default, the server runs in the background (daemon mode). Use
--foreground to run in the foreground for debugging or when managed by a
process supervisor.

Examples:
  fshd start
  fshd start --foreground
  fshd start --config /etc/fsh/config.yaml`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&foreground, "foreground", "f", false, "run in foreground (default: background/daemon mode)")
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "path to PID file (default: $XDG_STATE_HOME/fsh/fshd.pid)")
	startCmd.Flags().StringVar(&logFile, "log-file", "", "path to log file for daemon mode (default: $XDG_STATE_HOME/fsh/fshd.log)")
}

func runStart(cmd *cobra.Command, args []string) error {
	if !foreground {
		return startDaemon()
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "fshd",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:      cfg.Telemetry.Profiling.Enabled,
		ServiceName:  "fshd",
		Endpoint:     cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes: cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	fmt.Println("fshd - Folder Shell server")
	logger.Info("log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	if telemetry.IsEnabled() {
		logger.Info("telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	} else {
		logger.Info("profiling disabled")
	}

	var serverMetrics *metrics.ServerMetrics
	var metricsHTTP *http.Server
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		serverMetrics = metrics.NewServerMetrics()
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsHTTP = &http.Server{Addr: fmt.Sprintf(":%d", cfg.Metrics.Port), Handler: mux}
		go func() {
			if err := metricsHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server error", "error", err)
			}
		}()
		logger.Info("metrics enabled", "port", cfg.Metrics.Port)
	} else {
		logger.Info("metrics collection disabled")
	}

	authn, err := auth.New(cfg.Security)
	if err != nil {
		return fmt.Errorf("initialize authenticator: %w", err)
	}

	limiter, err := ratelimit.New(cfg.Security)
	if err != nil {
		return fmt.Errorf("initialize rate limiter: %w", err)
	}
	if limiter != nil {
		defer func() {
			if err := limiter.Close(); err != nil {
				logger.Error("rate limiter close error", "error", err)
			}
		}()
	}

	auditSink, err := audit.New(cfg.Security.Audit)
	if err != nil {
		return fmt.Errorf("initialize audit sink: %w", err)
	}

	var archiver *archive.Archiver
	if gormStore, ok := auditSink.(*audit.GORMStore); ok {
		archiver, err = archive.New(ctx, cfg.Security.Audit.Archive, gormStore)
		if err != nil {
			return fmt.Errorf("initialize audit archiver: %w", err)
		}
		if archiver != nil {
			retention := 24 * time.Hour
			go archiver.Run(ctx, time.Hour, retention)
			logger.Info("audit archival enabled", "bucket", cfg.Security.Audit.Archive.Bucket)
		}
	}

	srv := server.New(cfg, authn, auditSink, limiter)
	srv.SetMetrics(serverMetrics)

	var adminHTTP *http.Server
	if cfg.AdminAPI.Enabled {
		router := adminapi.NewRouter(cfg, srv, limiter, auditSink)
		adminHTTP = &http.Server{
			Addr:         cfg.AdminAPI.Address,
			Handler:      router,
			ReadTimeout:  cfg.AdminAPI.ReadTimeout,
			WriteTimeout: cfg.AdminAPI.WriteTimeout,
		}
		go func() {
			if err := adminHTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("admin API server error", "error", err)
			}
		}()
		logger.Info("admin API listening", "address", cfg.AdminAPI.Address)
	}

	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("fshd is running, press Ctrl+C to stop")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, initiating graceful shutdown")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("server shutdown error", "error", err)
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if adminHTTP != nil {
			_ = adminHTTP.Shutdown(shutdownCtx)
		}
		if metricsHTTP != nil {
			_ = metricsHTTP.Shutdown(shutdownCtx)
		}

		logger.Info("fshd stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
		logger.Info("fshd stopped")
	}

	return nil
}

// startDaemon re-execs the current binary in foreground mode, detached
// into a new session, with stdout/stderr redirected to a log file.
func startDaemon() error {
	stateDir := GetDefaultStateDir()
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	pidPath := pidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile()
	}

	if _, err := os.Stat(pidPath); err == nil {
		pidData, err := os.ReadFile(pidPath)
		if err == nil {
			var pid int
			if _, err := fmt.Sscanf(string(pidData), "%d", &pid); err == nil {
				if process, err := os.FindProcess(pid); err == nil {
					if err := process.Signal(syscall.Signal(0)); err == nil {
						return fmt.Errorf("fshd is already running (PID %d)", pid)
					}
				}
			}
		}
		_ = os.Remove(pidPath)
	}

	logPath := logFile
	if logPath == "" {
		logPath = GetDefaultLogFile()
	}

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("get executable path: %w", err)
	}

	daemonArgs := []string{"start", "--foreground", "--pid-file", pidPath}
	if GetConfigFile() != "" {
		daemonArgs = append(daemonArgs, "--config", GetConfigFile())
	}

	daemon := exec.Command(executable, daemonArgs...)

	logFileHandle, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	daemon.Stdout = logFileHandle
	daemon.Stderr = logFileHandle
	daemon.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := daemon.Start(); err != nil {
		_ = logFileHandle.Close()
		return fmt.Errorf("start daemon: %w", err)
	}
	_ = logFileHandle.Close()

	fmt.Printf("fshd started in background (PID %d)\n", daemon.Process.Pid)
	fmt.Printf("  PID file: %s\n", pidPath)
	fmt.Printf("  Log file: %s\n", logPath)
	fmt.Println("\nUse 'kill $(cat " + pidPath + ")' to stop the server")

	_ = filepath.Base(executable)
	return nil
}
