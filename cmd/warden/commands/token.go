// ABOUTME: Bearer token minting command for principals
// ABOUTME: Tokens authenticate against the serve command's mutating endpoints

package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/2389/warden/internal/auth"
	"github.com/2389/warden/internal/config"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <principal-id>",
	Short: "Mint a bearer token for a principal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		verifier := auth.NewJWTVerifier([]byte(cfg.Auth.CapabilitySecret))
		token, err := verifier.Generate(args[0], tokenTTL)
		if err != nil {
			return fmt.Errorf("generating token: %w", err)
		}

		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
