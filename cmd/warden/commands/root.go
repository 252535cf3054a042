// ABOUTME: Root cobra command and shared wiring for the warden CLI
// ABOUTME: Loads config and opens the store, vault, and registry for subcommands

package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/warden/internal/capability"
	"github.com/2389/warden/internal/config"
	"github.com/2389/warden/internal/registry"
	"github.com/2389/warden/internal/store"
	"github.com/2389/warden/internal/vault"
)

var version string

var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "warden",
	Short: "Warden - capability-scoped record registry",
	Long: `Warden manages at-most-one record per owning principal, addressed by
deterministic derivation instead of a lookup table and mutated only through
capability handles.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	err := rootCmd.Execute()
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "path to warden config file")
}

// defaultConfigPath resolves the config location.
// Priority: WARDEN_CONFIG env var > XDG_CONFIG_HOME/warden/warden.yaml > ./warden.yaml
func defaultConfigPath() string {
	if envPath := os.Getenv("WARDEN_CONFIG"); envPath != "" {
		return envPath
	}
	if configDir := os.Getenv("XDG_CONFIG_HOME"); configDir != "" {
		return configDir + "/warden/warden.yaml"
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return homeDir + "/.config/warden/warden.yaml"
	}
	return "warden.yaml"
}

// env bundles everything an opened deployment offers to a subcommand.
type env struct {
	cfg      *config.Config
	store    store.Store
	vault    *vault.Vault
	minter   *capability.Minter
	registry *registry.Registry
}

// openEnv loads config and opens an already bootstrapped deployment.
func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	minter := capability.NewMinter([]byte(cfg.Auth.CapabilitySecret))
	v, err := vault.Open(ctx, s, minter)
	if err != nil {
		s.Close()
		return nil, err
	}

	reg, err := registry.New(ctx, s, v, minter, cfg.Namespace.Name, nil)
	if err != nil {
		s.Close()
		return nil, err
	}

	return &env{cfg: cfg, store: s, vault: v, minter: minter, registry: reg}, nil
}

func (e *env) close() {
	if err := e.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "closing store: %v\n", err)
	}
}
