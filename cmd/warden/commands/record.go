// ABOUTME: Record lifecycle commands operating directly against the local store
// ABOUTME: create, rename, and status act as a named principal without going through HTTP

package commands

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/warden/internal/address"
	"github.com/2389/warden/internal/registry"
)

var (
	recordOwner string
	recordName  string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a principal's single record",
	RunE:  runCreate,
}

var renameCmd = &cobra.Command{
	Use:   "rename",
	Short: "Change the display name of a principal's record",
	RunE:  runRename,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a principal's record, or whether one exists",
	RunE:  runStatus,
}

func init() {
	for _, c := range []*cobra.Command{createCmd, renameCmd, statusCmd} {
		c.Flags().StringVar(&recordOwner, "owner", "", "owning principal identifier")
		c.MarkFlagRequired("owner")
		rootCmd.AddCommand(c)
	}
	createCmd.Flags().StringVar(&recordName, "name", "", "display name for the record")
	createCmd.MarkFlagRequired("name")
	renameCmd.Flags().StringVar(&recordName, "name", "", "new display name")
	renameCmd.MarkFlagRequired("name")
}

func principalFor(e *env, id string) registry.Principal {
	return registry.Principal{
		ID:      id,
		Address: address.Principal(e.vault.RootAddress(), id),
	}
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.registry.Create(ctx, principalFor(e, recordOwner), recordName); err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Println("✓ Record created")
	fmt.Printf("  Owner:   %s\n", recordOwner)
	fmt.Printf("  Address: %s\n", e.registry.RecordAddress(recordOwner))
	return nil
}

func runRename(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.registry.Rename(ctx, principalFor(e, recordOwner), recordName); err != nil {
		return err
	}

	color.New(color.FgGreen).Println("✓ Record renamed")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	rec, err := e.registry.Lookup(ctx, recordOwner)
	if err != nil {
		if errors.Is(err, registry.ErrUnavailable) {
			color.New(color.FgYellow).Printf("no record for %s\n", recordOwner)
			fmt.Printf("  Would live at: %s\n", e.registry.RecordAddress(recordOwner))
			return nil
		}
		return err
	}

	fmt.Printf("Owner:         %s\n", rec.OwnerID)
	fmt.Printf("Display name:  %s\n", rec.DisplayName)
	fmt.Printf("Address:       %s\n", rec.Address)
	fmt.Printf("Owner address: %s\n", rec.OwnerAddress)
	fmt.Printf("Created:       %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}
