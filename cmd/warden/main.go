// ABOUTME: Entry point for the warden record registry
// ABOUTME: Delegates to the cobra command tree in commands

package main

import (
	"os"

	"github.com/2389/warden/cmd/warden/commands"
)

// Version information - set during build
var version = "dev"

func main() {
	commands.SetVersionInfo(version)

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
