package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dagu-org/scenewatcher/internal/admin"
	"github.com/dagu-org/scenewatcher/internal/config"
	"github.com/dagu-org/scenewatcher/internal/logger"
	"github.com/dagu-org/scenewatcher/internal/metrics"
	"github.com/dagu-org/scenewatcher/internal/orchestrator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	flagBatchConfigs      []string
	flagCookieSessionPath string
	flagAPIURL            string
	flagWatchInterval     time.Duration
	flagDebug             bool
	flagLogFormat         string
	flagAdminAddr         string

	version = "0.0.0"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenewatcher",
		Short: "Polls an orchestrator for upstream scene readiness and triggers downstream DagRuns.",
		Long:  `scenewatcher --batch-config=<glob> --cookie-session-path=<path> [--api-url=http://127.0.0.1:8080]`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}

	cmd.Flags().StringSliceVar(&flagBatchConfigs, "batch-config", nil, "batch-config file path or glob pattern (repeatable)")
	cmd.Flags().StringVar(&flagCookieSessionPath, "cookie-session-path", "", "path to the file holding the session cookie value")
	cmd.Flags().StringVar(&flagAPIURL, "api-url", "http://127.0.0.1:8080", "base URL of the orchestrator REST API")
	cmd.Flags().DurationVar(&flagWatchInterval, "watch-interval", 0, "override every watcher's watch_interval")
	cmd.Flags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	cmd.Flags().StringVar(&flagLogFormat, "log-format", "text", "log format: text or json")
	cmd.Flags().StringVar(&flagAdminAddr, "admin-addr", ":9090", "listen address for the admin HTTP surface")

	_ = cmd.MarkFlagRequired("batch-config")
	_ = cmd.MarkFlagRequired("cookie-session-path")

	cmd.AddCommand(newVersionCommand())
	return cmd
}

// Execute builds and runs the root command, returning the process exit
// code: 0 on normal termination after SIGTERM, non-zero on an unhandled
// startup error (spec.md §6).
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	cmd.SetContext(ctx)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func run(ctx context.Context) error {
	log := logger.NewLogger(loggerOptions()...)

	sessionCookie, err := readSessionCookie(flagCookieSessionPath)
	if err != nil {
		return fmt.Errorf("read cookie-session-path: %w", err)
	}

	paths, err := config.ExpandBatchConfigGlobs(flagBatchConfigs)
	if err != nil {
		return fmt.Errorf("expand --batch-config: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("--batch-config matched no files")
	}

	client := orchestrator.New(flagAPIURL, sessionCookie, log)
	reg := metrics.NewRegistry(prometheus.DefaultRegisterer)
	board := admin.NewStatusBoard()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	total := 0
	for _, path := range paths {
		f, batchID, err := config.Load(path)
		if err != nil {
			return err
		}

		runner := newBatchRunner(path, client, log, reg, board, flagWatchInterval)
		if err := runner.reload(runCtx, f, batchID); err != nil {
			return err
		}
		total += len(f.Watchers)

		if err := config.Watch(runCtx, path, log, func(f *config.File, batchID string) {
			if err := runner.reload(runCtx, f, batchID); err != nil {
				log.Error("reloaded batch-config rejected, previous watchers kept running", "path", runner.path, "error", err)
			}
		}); err != nil {
			log.Warn("batch-config hot-reload watch failed to start", "path", path, "error", err)
		}
	}
	if total == 0 {
		return fmt.Errorf("no watchers declared across %d batch-config file(s)", len(paths))
	}

	httpLog := admin.NewHTTPLogger(flagDebug)
	adminSrv := &http.Server{Addr: flagAdminAddr, Handler: admin.NewRouter(board, httpLog)}
	go func() {
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("admin server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = adminSrv.Shutdown(shutdownCtx)
	return nil
}

func loggerOptions() []logger.Option {
	opts := []logger.Option{logger.WithFormat(flagLogFormat)}
	if flagDebug {
		opts = append(opts, logger.WithDebug())
	}
	return opts
}

func readSessionCookie(path string) (string, error) {
	resolved := config.DefaultCookieSessionPath(path)
	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
