// ABOUTME: Address derivation commands
// ABOUTME: Pure computation over the configured root identity; no record needs to exist

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2389/warden/internal/address"
	"github.com/2389/warden/internal/config"
)

var addrCmd = &cobra.Command{
	Use:   "addr",
	Short: "Derive deterministic addresses",
}

var addrRecordCmd = &cobra.Command{
	Use:   "record <owner-id>",
	Short: "Derive the address an owner's record lives at",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, root, err := loadRoot()
		if err != nil {
			return err
		}
		proxy := address.Proxy(root)
		fmt.Println(address.Record(proxy, cfg.Namespace.Name, args[0]))
		return nil
	},
}

var addrNamespaceCmd = &cobra.Command{
	Use:   "namespace",
	Short: "Derive the configured namespace's address",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, root, err := loadRoot()
		if err != nil {
			return err
		}
		fmt.Println(address.Namespace(root, cfg.Namespace.Name))
		return nil
	},
}

var addrPrincipalCmd = &cobra.Command{
	Use:   "principal <principal-id>",
	Short: "Derive a principal's address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, root, err := loadRoot()
		if err != nil {
			return err
		}
		fmt.Println(address.Principal(root, args[0]))
		return nil
	},
}

func init() {
	addrCmd.AddCommand(addrRecordCmd, addrNamespaceCmd, addrPrincipalCmd)
	rootCmd.AddCommand(addrCmd)
}

func loadRoot() (*config.Config, address.Address, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, address.Address{}, fmt.Errorf("loading config: %w", err)
	}
	root, err := cfg.RootAddress()
	if err != nil {
		return nil, address.Address{}, err
	}
	return cfg, root, nil
}
