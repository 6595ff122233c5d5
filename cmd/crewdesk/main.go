// Command crewdesk runs the Discord CRM bot: slash commands in front, Google
// Sheets as the system of record, and a reconciliation loop that projects
// clients, jobs, tasks, and invoices onto channels, threads, and boards.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/crewdesk/crewdesk/internal/board"
	"github.com/crewdesk/crewdesk/internal/bot"
	"github.com/crewdesk/crewdesk/internal/cache"
	"github.com/crewdesk/crewdesk/internal/config"
	"github.com/crewdesk/crewdesk/internal/dates"
	"github.com/crewdesk/crewdesk/internal/observability"
	"github.com/crewdesk/crewdesk/internal/ops"
	"github.com/crewdesk/crewdesk/internal/permission"
	"github.com/crewdesk/crewdesk/internal/platform"
	"github.com/crewdesk/crewdesk/internal/reconcile"
	"github.com/crewdesk/crewdesk/internal/state"
	"github.com/crewdesk/crewdesk/internal/store"
	"github.com/crewdesk/crewdesk/internal/sync"
	"github.com/crewdesk/crewdesk/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:          "crewdesk",
	Short:        "Discord CRM bot backed by Google Sheets",
	Version:      version,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Missing .env is fine; the environment may be set directly.
		_ = godotenv.Load()
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bot, the sync loop, and the ops server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg)
	},
}

var deployCmd = &cobra.Command{
	Use:   "deploy-commands",
	Short: "Register the guild slash commands and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.DiscordAppID == "" {
			return errors.New("DISCORD_APP_ID must be set to register commands")
		}
		session, err := discordgo.New("Bot " + cfg.DiscordToken)
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		if err := bot.DeployCommands(session, cfg.DiscordAppID, cfg.DiscordGuildID); err != nil {
			return err
		}
		fmt.Println("commands registered")
		return nil
	},
}

var initSheetsCmd = &cobra.Command{
	Use:   "init-sheets",
	Short: "Write header rows to the spreadsheet and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		sheets, err := store.NewSheets(ctx, cfg.SpreadsheetID, cfg.CredentialsFile)
		if err != nil {
			return err
		}
		if err := sheets.InitHeaders(ctx); err != nil {
			return err
		}
		fmt.Println("sheet headers initialized")
		return nil
	},
}

func main() {
	rootCmd.AddCommand(runCmd, deployCmd, initSheetsCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(parent context.Context, cfg config.Config) error {
	sysutil.SetupLogging(cfg.LogLevel, cfg.LogPretty)
	logger := log.With().Str("service", "crewdesk").Logger()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.Setup(ctx, cfg.OTEL, version)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutCtx); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	// Record store: Sheets behind the read cache.
	sheets, err := store.NewSheets(ctx, cfg.SpreadsheetID, cfg.CredentialsFile)
	if err != nil {
		return fmt.Errorf("sheets: %w", err)
	}
	cached := cache.New(sheets, cfg.CacheTTL, cfg.InvoiceCacheTTL)

	// Local state for board message bookkeeping.
	db, err := state.OpenSQLite(cfg.StateDBPath)
	if err != nil {
		return fmt.Errorf("state db: %w", err)
	}
	if err := state.AutoMigrate(db); err != nil {
		return fmt.Errorf("state db migrate: %w", err)
	}

	oracle, err := permission.LoadOracle(cfg.RolesFile)
	if err != nil {
		return fmt.Errorf("roles: %w", err)
	}

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("discord session: %w", err)
	}
	pf := platform.NewDiscord(session, cfg.DiscordGuildID, cfg.RateRPS, cfg.RateBurst)

	// Reconciliation pipeline.
	resolver := reconcile.NewResolver(pf, logger)
	threads := reconcile.NewJobThreads(cached, pf, logger)
	cards := reconcile.NewClientCards(cached, pf, resolver, threads, cfg.DiscordGuildID, logger)
	boards := board.NewRefresher(db, pf, resolver, cfg.DiscordGuildID, logger)

	orch := &sync.Orchestrator{
		Store:       cached,
		Cache:       cached,
		Resolver:    resolver,
		Cards:       cards,
		Threads:     threads,
		Boards:      boards,
		GuildID:     cfg.DiscordGuildID,
		Log:         logger,
		SettleDelay: cfg.SettleDelay,
	}
	recorder := ops.NewRecorder(orch)
	queue := sync.NewQueue(recorder, cfg.SyncDebounce, logger)
	scheduler := sync.NewScheduler(queue, cfg.SyncInterval, logger)

	b := bot.New(session, cached, queue, oracle, dates.NewParser(), cfg.DiscordGuildID, logger)
	if err := b.Start(); err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Warn().Err(err).Msg("gateway close")
		}
	}()

	queue.Start(ctx)
	scheduler.Start(ctx)

	// Startup repair pass: ensure category, boards, channels, and cards
	// before the first scheduled sync.
	queue.EnqueueNow("startup")

	var opsServer *ops.Server
	if cfg.OpsPort != "" {
		router := ops.NewRouter(ops.Options{
			ServiceName: cfg.OTEL.ServiceName,
			CORSOrigins: cfg.OpsCORSOrigins,
		}, recorder, cached)
		opsServer = ops.New(ops.Options{Addr: ":" + cfg.OpsPort}, router)
		go func() {
			logger.Info().Str("port", cfg.OpsPort).Msg("ops server listening")
			if err := opsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("ops server failed")
				stop()
			}
		}()
	}

	logger.Info().Str("guild", cfg.DiscordGuildID).Msg("crewdesk running")
	<-ctx.Done()
	logger.Info().Msg("shutting down")

	if opsServer != nil {
		drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := opsServer.Shutdown(drainCtx); err != nil {
			logger.Warn().Err(err).Msg("ops server shutdown")
		}
	}
	return nil
}
