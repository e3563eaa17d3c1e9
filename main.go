package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/wfunc/battleship/config"
	"github.com/wfunc/battleship/logger"
	"github.com/wfunc/battleship/monitor"
	"github.com/wfunc/battleship/persistence"
	"github.com/wfunc/battleship/server"
	"github.com/wfunc/battleship/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:          "battleship",
		Short:        "Battleship game server",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "Directory holding config.yaml")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the websocket game endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	rootCmd.AddCommand(serveCmd)
	return rootCmd
}

func serve(ctx context.Context, configPath string) (err error) {
	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { err = multierr.Append(err, st.Close()) }()

	archive, err := openArchive(cfg.Archive)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer func() { err = multierr.Append(err, archive.Close()) }()

	mon := monitor.NewMonitor(cfg.Monitor.Namespace)
	gameServer := server.NewGameServer(cfg, st, archive, mon)

	logger.Log.Infow("Starting game server", "http", cfg.Server.HTTPAddress, "rpc", cfg.Server.RPCAddress,
		"store", cfg.Store.Backend, "archive", cfg.Archive.Enabled)
	return gameServer.Run(ctx)
}

func openStore(ctx context.Context, cfg config.StoreConfig) (*store.Store, error) {
	if cfg.Backend == config.BackendRedis {
		st, err := store.NewRedisStore(ctx, store.RedisConfig{URL: cfg.Redis.URL, Prefix: cfg.Redis.Prefix})
		if err != nil {
			return nil, err
		}
		logger.Log.Infof("Redis store ready at %s", cfg.Redis.URL)
		return st, nil
	}
	return store.NewMemoryStore(), nil
}

func openArchive(cfg config.ArchiveConfig) (persistence.Archive, error) {
	if !cfg.Enabled {
		return persistence.NewMemoryArchive(), nil
	}
	archive, err := persistence.NewGormArchive(cfg.Postgres)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("Database connection successful.")
	return archive, nil
}
