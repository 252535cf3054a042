// ABOUTME: HTTP server command for the record registry
// ABOUTME: Wires config, store, vault, registry, metrics, and the web server together

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/2389/warden/internal/auth"
	"github.com/2389/warden/internal/capability"
	"github.com/2389/warden/internal/config"
	"github.com/2389/warden/internal/metrics"
	"github.com/2389/warden/internal/registry"
	"github.com/2389/warden/internal/store"
	"github.com/2389/warden/internal/vault"
	"github.com/2389/warden/internal/web"
)

const banner = `
                         _
 __      ____ _ _ __ __| | ___ _ __
 \ \ /\ / / _' | '__/ _' |/ _ \ '_ \
  \ V  V / (_| | | | (_| |  __/ | | |
   \_/\_/ \__,_|_|  \__,_|\___|_| |_|
`

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the registry HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)
	if cfg.Metrics.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Metrics:   %s\n", cfg.Metrics.Path)
	}
	fmt.Println()

	logger.Info("starting warden",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
	)

	root, err := cfg.RootAddress()
	if err != nil {
		return fmt.Errorf("parsing root identity: %w", err)
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	minter := capability.NewMinter([]byte(cfg.Auth.CapabilitySecret))
	v, err := vault.Open(ctx, s, minter)
	if err != nil {
		if errors.Is(err, vault.ErrNotBootstrapped) {
			return fmt.Errorf("deployment not bootstrapped; run 'warden bootstrap' first")
		}
		return err
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector())
	promReg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	reg, err := registry.New(ctx, s, v, minter, cfg.Namespace.Name, metrics.New(promReg))
	if err != nil {
		return fmt.Errorf("creating registry: %w", err)
	}

	verifier := auth.NewJWTVerifier([]byte(cfg.Auth.CapabilitySecret))
	handler := web.New(reg, s, root, verifier, web.Config{
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
	}, promReg)

	httpServer := &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
