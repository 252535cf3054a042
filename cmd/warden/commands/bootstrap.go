// ABOUTME: One-time deployment bootstrap command
// ABOUTME: Creates the vault state and the namespace, printing the derived addresses

package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/warden/internal/address"
	"github.com/2389/warden/internal/capability"
	"github.com/2389/warden/internal/config"
	"github.com/2389/warden/internal/store"
	"github.com/2389/warden/internal/vault"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Initialize the vault and namespace for a new deployment",
	Long: `Bootstrap runs exactly once per deployment. It derives the proxy address
from the configured root identity, mints the vault's extend handle, and
creates the namespace. A second bootstrap against the same database fails.`,
	RunE: runBootstrap,
}

func init() {
	rootCmd.AddCommand(bootstrapCmd)
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

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

	v, err := vault.Bootstrap(ctx, s, minter, vault.BootstrapParams{
		Root:                 root,
		NamespaceName:        cfg.Namespace.Name,
		NamespaceDescription: cfg.Namespace.Description,
		NamespaceDisplayURI:  cfg.Namespace.DisplayURI,
	})
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Println("✓ Deployment bootstrapped")
	fmt.Printf("  Proxy address:     %s\n", v.ProxyAddress())
	fmt.Printf("  Namespace:         %s\n", cfg.Namespace.Name)
	fmt.Printf("  Namespace address: %s\n", address.Namespace(root, cfg.Namespace.Name))
	return nil
}
