// Command spacegirl is the main entry point for the Spacegirl TTS bot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/spacegirl-bot/spacegirl/internal/config"
	discordbot "github.com/spacegirl-bot/spacegirl/internal/discord"
	"github.com/spacegirl-bot/spacegirl/internal/discord/commands"
	"github.com/spacegirl-bot/spacegirl/internal/health"
	"github.com/spacegirl-bot/spacegirl/internal/observe"
	"github.com/spacegirl-bot/spacegirl/internal/playback"
	"github.com/spacegirl-bot/spacegirl/internal/pronounce"
	"github.com/spacegirl-bot/spacegirl/internal/resilience"
	"github.com/spacegirl-bot/spacegirl/internal/synth"
	"github.com/spacegirl-bot/spacegirl/internal/voicemgr"
	"github.com/spacegirl-bot/spacegirl/internal/voices"
	"github.com/spacegirl-bot/spacegirl/pkg/provider/tts/ttsvibes"
	"github.com/spacegirl-bot/spacegirl/pkg/store/postgres"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "spacegirl: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "spacegirl: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("spacegirl starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Database ──────────────────────────────────────────────────────────────
	pool, err := pgxpool.New(ctx, cfg.Database.PostgresDSN)
	if err != nil {
		slog.Error("failed to create database pool", "err", err)
		return 1
	}
	defer pool.Close()

	st := postgres.New(pool)
	if err := st.Migrate(ctx); err != nil {
		slog.Error("failed to migrate database", "err", err)
		return 1
	}
	slog.Info("database ready")

	// ── Synthesis pipeline ────────────────────────────────────────────────────
	var providerOpts []ttsvibes.Option
	if cfg.TTS.BaseURL != "" {
		providerOpts = append(providerOpts, ttsvibes.WithBaseURL(cfg.TTS.BaseURL))
	}
	providerOpts = append(providerOpts, ttsvibes.WithTimeout(cfg.TTS.Timeout))
	provider := resilience.NewProvider(
		ttsvibes.New(providerOpts...),
		resilience.NewBreaker("ttsvibes", resilience.WithLogger(logger)),
	)

	synthClient, err := synth.NewClient(provider, cfg.TTS.DownloadsDir,
		synth.WithMaxChars(cfg.TTS.MaxChars),
		synth.WithRepeatLimit(cfg.TTS.RepeatLimit),
		synth.WithMetrics(metrics),
	)
	if err != nil {
		slog.Error("failed to create synthesis client", "err", err)
		return 1
	}
	// Clear artifacts orphaned by a previous run.
	if err := synthClient.Sweep(); err != nil {
		slog.Warn("downloads sweep failed", "err", err)
	}

	resolver := pronounce.NewResolver(st, logger)

	// ── Playback & voice lifecycle ────────────────────────────────────────────
	state := playback.NewState(voices.Names(), playback.WithMetrics(metrics))
	scheduler := playback.NewScheduler(state, logger,
		playback.WithTickInterval(cfg.Playback.TickInterval),
		playback.WithSchedulerMetrics(metrics),
	)

	// ── Discord bot ───────────────────────────────────────────────────────────
	bot, err := discordbot.New(cfg.Discord.Token)
	if err != nil {
		slog.Error("failed to create Discord bot", "err", err)
		return 1
	}

	mgr := voicemgr.New(state, bot.Platform(), logger, voicemgr.WithMetrics(metrics))

	commands.NewTTSCommands(state, mgr, resolver, synthClient, st).Register(bot.Router())
	commands.NewVoiceCommands(state, mgr).Register(bot.Router())
	commands.NewPronunciationCommands(st).Register(bot.Router())
	commands.NewSettingsCommands(st).Register(bot.Router())

	bot.Session().AddHandler(func(s *discordgo.Session, vsu *discordgo.VoiceStateUpdate) {
		mgr.HandleVoiceStateUpdate(s, vsu)
	})
	bot.Session().AddHandler(func(_ *discordgo.Session, g *discordgo.GuildCreate) {
		state.InitGuild(g.ID)
	})

	// ── HTTP server (metrics + health probes) ─────────────────────────────────
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	health.New().
		AddCheck("database", health.Database(pool)).
		AddCheck("downloads", health.DirWritable(synthClient.Dir())).
		Register(mux)

	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	printStartupSummary(cfg)

	// ── Run ───────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.Run(gctx)
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	slog.Info("spacegirl ready — press Ctrl+C to shut down")

	err = g.Wait()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	slog.Info("shutting down…")
	if closeErr := bot.Close(); closeErr != nil {
		slog.Warn("discord bot close error", "err", closeErr)
	}
	if sweepErr := synthClient.Sweep(); sweepErr != nil {
		slog.Warn("downloads sweep failed", "err", sweepErr)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║        Spacegirl — startup summary    ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	fmt.Printf("║  Voices          : %-19d ║\n", len(voices.Names()))
	fmt.Printf("║  Downloads dir   : %-19s ║\n", trunc(cfg.TTS.DownloadsDir))
	fmt.Printf("║  Tick interval   : %-19s ║\n", cfg.Playback.TickInterval)
	fmt.Printf("║  Listen addr     : %-19s ║\n", cfg.Server.ListenAddr)
	fmt.Println("╚═══════════════════════════════════════╝")
}

func trunc(s string) string {
	if len(s) > 19 {
		return s[:16] + "…"
	}
	return s
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
