package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/capitalhub-dev/capitalhub/internal/cli/commands"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the command tree around app
func NewRootCmd(app *commands.App) *cobra.Command {
	// Run the root hooks as well as the guard hooks of the command groups.
	cobra.EnableTraverseRunHooks = true

	rootCmd := &cobra.Command{
		Use:   "capitalhub",
		Short: "CapitalHub - hire and get hired for remote sales roles",
		Long: `CapitalHub CLI - the marketplace for setters, closers and cold callers.

Sales reps browse offers, apply and track their hiring processes. Companies
publish offers, review candidates and rate the reps they worked with.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.LogMetrics()
		},
	}

	app.BindFlags(rootCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "capitalhub version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewLoginCmd(app))
	rootCmd.AddCommand(commands.NewRegisterCmd(app))
	rootCmd.AddCommand(commands.NewLogoutCmd(app))
	rootCmd.AddCommand(commands.NewWhoamiCmd(app))
	rootCmd.AddCommand(commands.NewForgotPasswordCmd(app))
	rootCmd.AddCommand(commands.NewResetPasswordCmd(app))
	rootCmd.AddCommand(commands.NewUploadCmd(app))
	rootCmd.AddCommand(commands.NewRepCmd(app))
	rootCmd.AddCommand(commands.NewCompanyCmd(app))
	rootCmd.AddCommand(commands.NewTrainingCmd(app))

	return rootCmd
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd(commands.NewApp())
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
