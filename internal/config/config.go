// Package config defines the CLI surface and top-level wiring between the
// USB/Bluetooth supervisor and the web server, the Go equivalent of the
// teacher's internal/cmd package.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brodyfreeman/nintendo-pi-go/internal/log"
	"github.com/brodyfreeman/nintendo-pi-go/internal/supervisor"
	"github.com/brodyfreeman/nintendo-pi-go/internal/web"
)

const shutdownTimeout = 5 * time.Second

// LogConfig is the ambient logging flag group.
type LogConfig struct {
	Level   string `help:"Log level: trace, debug, info, warn, error." default:"info" env:"NINTENDOPI_LOG_LEVEL"`
	File    string `help:"Write logs to this file instead of stdout/stderr." env:"NINTENDOPI_LOG_FILE"`
	RawFile string `name:"raw-log-file" help:"Write raw USB/Bluetooth hex traces to this file." env:"NINTENDOPI_RAW_LOG_FILE"`
}

// CLI is the root Kong command: the whole bridge runs as a single
// long-lived process, so there is no subcommand tree.
type CLI struct {
	MacrosDir string    `help:"Directory holding recorded macros and their index." default:"/root/macros" env:"NINTENDOPI_MACROS_DIR"`
	Port      int       `help:"Web UI / API listen port." default:"8080" env:"NINTENDOPI_PORT"`
	Verbose   bool      `short:"v" help:"Shorthand for --log.level=debug."`
	Log       LogConfig `embed:"" prefix:"log."`
	Config    string    `help:"Path to a JSON/YAML/TOML config file." env:"NINTENDOPI_CONFIG"`
}

// Run is invoked by Kong once flags, environment variables, and config
// files have all been resolved. It starts the supervisor and the web
// server and blocks until either fails or the process is interrupted.
func (c *CLI) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := supervisor.NewHub(c.MacrosDir, rawLogger)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", c.Port),
		Handler: web.NewServer(hub).Routes(),
	}

	webErrCh := make(chan error, 1)
	go func() {
		logger.Info("web server listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			webErrCh <- err
		}
	}()

	supErrCh := make(chan error, 1)
	go func() {
		supErrCh <- hub.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
		<-supErrCh
		return nil
	case err := <-webErrCh:
		return fmt.Errorf("web server: %w", err)
	case err := <-supErrCh:
		if err != nil && err != context.Canceled {
			return fmt.Errorf("supervisor: %w", err)
		}
		return nil
	}
}
