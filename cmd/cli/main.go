package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/hut-allocator/cmd/cli/commands"
	"github.com/jakechorley/hut-allocator/internal/config"
	"github.com/jakechorley/hut-allocator/pkg/utils/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &commands.AppContext{Ctx: ctx}
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "hut-allocator",
		Short:         "Allocate hut reservation requests",
		Long:          `A CLI tool that assigns hut stays to requesters by preference, within nightly hut capacity, and suggests alternatives to anyone left out.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp(app, verbose)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Close()
			if app.Logger != nil {
				_ = app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&app.Env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs on the console")
	_ = rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.AllocateCmd(app))
	rootCmd.AddCommand(commands.ValidateRequestsCmd(app))
	rootCmd.AddCommand(commands.ListRunsCmd(app))
	rootCmd.AddCommand(commands.GenerateSampleCmd(app))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if app.Logger != nil {
			app.Logger.Error("Command failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// initApp sets up the logger and configuration; clients and the database open on demand
func initApp(app *commands.AppContext, verbose bool) error {
	var err error

	app.Logger, err = logging.InitLogger(app.Env, verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger.Info("Starting application", zap.String("environment", app.Env))

	app.Cfg, err = config.LoadWithEnv(app.Env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded",
		zap.Int("huts", len(app.Cfg.Huts)),
		zap.String("season_start", app.Cfg.Season.Start),
		zap.String("season_end", app.Cfg.Season.End))

	return nil
}
