package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hexforge/sim/internal/config"
	"github.com/hexforge/sim/internal/entity"
	"github.com/hexforge/sim/internal/logsink"
	"github.com/hexforge/sim/internal/metrics"
	"github.com/hexforge/sim/internal/persist"
	"github.com/hexforge/sim/internal/simerr"
	"github.com/hexforge/sim/internal/simulation"
	"github.com/hexforge/sim/internal/worldgen"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner() {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            hexsimd  v0.1.0                \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m   deterministic hex-grid script engine     \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main process logic ──────────────────────────────────────────────

func run() error {
	cfgPath := "config/hexsimd.toml"
	if p := os.Getenv("HEXSIMD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner()

	runID := uuid.New()

	var db *persist.DB
	var snapshots *persist.SnapshotRepo
	var errorLog *persist.ErrorLogRepo
	if cfg.Persistence.Enabled {
		printSection("persistence")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err = persist.NewDB(ctx, cfg.Persistence, log)
		cancel()
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("postgres connected")

		ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
		err = persist.RunMigrations(ctx, db.Pool)
		cancel()
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")
		snapshots = persist.NewSnapshotRepo(db, runID)
		errorLog = persist.NewErrorLogRepo(db, runID)
		fmt.Println()
	}

	printSection("world generation")
	worldSpec, err := worldgen.LoadWorldSpec(cfg.Simulation.WorldSpec)
	if err != nil {
		return fmt.Errorf("load world spec: %w", err)
	}
	grid := worldSpec.BuildGrid()
	printStat("tiles", grid.Len())

	mgr := entity.NewManager()
	ids, err := worldSpec.SeedEntities(mgr, cfg.Simulation.ScriptsDir)
	if err != nil {
		return fmt.Errorf("seed entities: %w", err)
	}
	printStat("entities seeded", len(ids))
	fmt.Println()

	sink := logsink.NewZap(log)
	runner := simulation.New(cfg.Simulation.TickRate, grid, mgr, sink)
	defer runner.Engine.Close()

	if errorLog != nil {
		runner.OnScriptError = func(id entity.ID, se *simerr.Error) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := errorLog.WriteError(ctx, persist.ErrorLogEntry{
				Tick:     runner.Scheduler.CurrentTick(),
				EntityID: uint64(id),
				Kind:     se.Kind.String(),
				Message:  se.Message,
			}); err != nil {
				log.Warn("error log write failed", zap.Error(err))
			}
		}
	}

	reg := prometheus.NewRegistry()
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(reg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go http.ListenAndServe(cfg.Metrics.BindAddress, mux)
		printReady(fmt.Sprintf("metrics listening on %s", cfg.Metrics.BindAddress))

		mirror := runner.OnScriptError
		runner.OnScriptError = func(id entity.ID, se *simerr.Error) {
			m.ObserveScriptError(se.Kind.String())
			if mirror != nil {
				mirror(id, se)
			}
		}
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	tickInterval := time.Duration(float64(time.Second) / cfg.Simulation.TickRate)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	printSection("ready")
	printReady(fmt.Sprintf("tick loop started (rate: %.1f/s)", cfg.Simulation.TickRate))
	fmt.Println()

	lastTick := time.Now()
	var snapshotTicker *time.Ticker
	if snapshots != nil {
		snapshotTicker = time.NewTicker(cfg.Persistence.SnapshotInterval)
		defer snapshotTicker.Stop()
	}
	for {
		select {
		case now := <-ticker.C:
			elapsed := now.Sub(lastTick).Seconds()
			lastTick = now
			start := time.Now()
			n := runner.RunTicks(elapsed)
			if m != nil && n > 0 {
				perTick := time.Since(start).Seconds() / float64(n)
				alive := countAlive(mgr)
				for i := 0; i < n; i++ {
					m.ObserveTick(perTick, alive)
				}
			}
		case <-tickerChan(snapshotTicker):
			if snapshots != nil {
				rows := buildSnapshotRows(mgr, runner.Scheduler.CurrentTick())
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				if err := snapshots.WriteSnapshot(ctx, rows); err != nil {
					log.Warn("snapshot write failed", zap.Error(err))
				}
				cancel()
			}
		case sig := <-shutdownCh:
			log.Info("received shutdown signal", zap.String("signal", sig.String()))
			return nil
		}
	}
}

func buildSnapshotRows(mgr *entity.Manager, tick uint64) []persist.SnapshotRow {
	var rows []persist.SnapshotRow
	mgr.Each(func(e *entity.Entity) bool {
		rows = append(rows, persist.SnapshotRow{
			Tick:     tick,
			EntityID: e.ID,
			Q:        e.Position.Q,
			R:        e.Position.R,
			Role:     e.Role.String(),
			Energy:   e.Energy,
			Alive:    e.Alive,
		})
		return true
	})
	return rows
}

func countAlive(mgr *entity.Manager) int {
	n := 0
	mgr.Each(func(*entity.Entity) bool {
		n++
		return true
	})
	return n
}

func tickerChan(t *time.Ticker) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
