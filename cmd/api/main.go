package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/motelhub/directory/cmd/api/commands"
)

// @title MotelHub API
// @version 1.0
// @description Venue directory with rooms, price tiers, site settings, administrator accounts, image uploads and CSV/XLSX import and export.

// @contact.name MotelHub Support
// @contact.url https://github.com/motelhub/directory

// @license.name MIT

// @host localhost:3001
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	rootCmd := &cobra.Command{
		Use:           "motelhub",
		Short:         "MotelHub directory server and client",
		Long:          `MotelHub serves a directory of venues and their rooms over a REST API, and ships client commands that keep working from a local mirror while the server is unreachable.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("api-url", "", "API base URL for client commands (default from MOTELHUB_API_URL)")
	rootCmd.PersistentFlags().String("mirror", "", "Local mirror file for client commands (default from MOTELHUB_MIRROR)")

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewVenuesCommand())
	rootCmd.AddCommand(commands.NewSyncCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
