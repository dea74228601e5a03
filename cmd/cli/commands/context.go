package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/hut-allocator/internal/config"
	"github.com/jakechorley/hut-allocator/pkg/clients/gmailclient"
	"github.com/jakechorley/hut-allocator/pkg/clients/sheetsclient"
	"github.com/jakechorley/hut-allocator/pkg/postgres"
)

// AppContext holds the application dependencies shared across all commands.
// Google clients and the database are opened on first use so that purely local
// commands need neither credentials nor a connection.
type AppContext struct {
	Env    string
	Cfg    *config.Config
	Logger *zap.Logger
	Ctx    context.Context

	oauthCfg     *config.OAuthClientConfig
	sheetsClient *sheetsclient.Client
	gmailClient  *gmailclient.Client
	database     *postgres.DB
}

// Sheets returns the sheets client, running the OAuth flow on first use
func (app *AppContext) Sheets() (*sheetsclient.Client, error) {
	if app.sheetsClient != nil {
		return app.sheetsClient, nil
	}

	oauthCfg, err := app.oauthClient()
	if err != nil {
		return nil, err
	}

	app.Logger.Info("Initializing sheets client")
	app.sheetsClient, err = sheetsclient.NewClient(app.Ctx, oauthCfg, app.Env, app.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return app.sheetsClient, nil
}

// Gmail returns the gmail client; it shares the sheets client's token
func (app *AppContext) Gmail() (*gmailclient.Client, error) {
	if app.gmailClient != nil {
		return app.gmailClient, nil
	}

	sheets, err := app.Sheets()
	if err != nil {
		return nil, err
	}

	app.Logger.Info("Initializing gmail client")
	app.gmailClient, err = gmailclient.NewClient(app.Ctx, app.oauthCfg, sheets.Token(), app.Cfg.Gmail)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail client: %w", err)
	}
	return app.gmailClient, nil
}

// Database returns the run history store, or nil when no database is configured
func (app *AppContext) Database() (*postgres.DB, error) {
	if app.database != nil || app.Cfg.Database.URL == "" {
		return app.database, nil
	}

	app.Logger.Info("Connecting to database")
	database, err := postgres.NewDB(app.Ctx, app.Cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.RunMigrations(app.Ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	app.database = database
	return database, nil
}

// Close releases whatever was opened
func (app *AppContext) Close() {
	if app.database != nil {
		app.database.Close()
	}
}

func (app *AppContext) oauthClient() (*config.OAuthClientConfig, error) {
	if app.oauthCfg != nil {
		return app.oauthCfg, nil
	}

	oauthCfg, err := config.LoadOAuthClientWithEnv(app.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to load OAuth client config: %w", err)
	}
	app.oauthCfg = oauthCfg
	return oauthCfg, nil
}
