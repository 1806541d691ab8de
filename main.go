package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gig-market/internal/app"
	"gig-market/internal/config"
	"gig-market/internal/identity"
	market "gig-market/internal/marketService"
	"gig-market/internal/repository/sqlite"
	"gig-market/internal/server"
	"gig-market/utils"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:   "gigmarket",
		Short: "Gig marketplace transaction server",
		Long: `gigmarket serves the gig/bid core over HTTP: owners post gigs, freelancers bid,
and an owner hires exactly one bidder per gig.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed).Sprint("error: ")+err.Error())
		os.Exit(1)
	}
}

// loadConfig layers defaults, the optional file, the environment and explicit flags
func loadConfig(cmd *cobra.Command, path string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Store.Driver, _ = flags.GetString("store")
	}
	if flags.Changed("dsn") {
		cfg.Store.DSN, _ = flags.GetString("dsn")
	}
	if flags.Changed("addr") {
		cfg.Server.Address, _ = flags.GetString("addr")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func serveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, configPath)
			if err != nil {
				return err
			}
			if err := utils.SetLevel(cfg.Log.Level); err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	cmd.Flags().String("store", config.DriverMemory, "store driver: memory or sqlite")
	cmd.Flags().String("dsn", "", "sqlite database path")
	cmd.Flags().String("addr", ":8080", "listen address")
	return cmd
}

func serve(cfg config.Config) error {
	backend, closeStore, err := app.OpenBackend(cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			utils.Error("failed to close store", map[string]any{"error": err.Error()})
		}
	}()

	if err := app.SeedUsers(context.Background(), backend, cfg.Users); err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	marketSvc := market.NewService(backend, backend)
	router := server.SetupRouter(marketSvc, identity.NewHeaderProvider(backend), cfg.OperationTimeout)

	httpServer := server.NewHTTPServer(router, cfg.Server.Address)
	utils.Info("server started", map[string]any{
		"address": cfg.Server.Address,
		"store":   cfg.Store.Driver,
	})

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	select {
	case s := <-interrupt:
		utils.Info("shutting down", map[string]any{"signal": s.String()})
	case err := <-httpServer.Notify():
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	}

	if err := httpServer.Shutdown(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	utils.Info("server stopped", nil)
	return nil
}

func migrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQLite schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, configPath)
			if err != nil {
				return err
			}
			// the memory store has no schema; migrate always targets a sqlite file
			if cfg.Store.DSN == "" {
				return errors.New("migrate needs --dsn or store.dsn")
			}

			db, err := sqlite.Open(cfg.Store.DSN)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(); err != nil {
				fmt.Printf("%s %s\n", color.New(color.FgRed).Sprint("FAILED"), cfg.Store.DSN)
				return err
			}

			version, dirty, err := db.SchemaVersion()
			if err != nil {
				return err
			}
			state := color.New(color.FgGreen).Sprint("OK")
			if dirty {
				state = color.New(color.FgYellow).Sprint("DIRTY")
			}
			fmt.Printf("%s %s at schema version %d\n", state, cfg.Store.DSN, version)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	cmd.Flags().String("dsn", "", "sqlite database path")
	return cmd
}
