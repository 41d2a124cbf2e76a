package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/l1jgo/followctl/internal/config"
	"github.com/l1jgo/followctl/internal/core/event"
	coresys "github.com/l1jgo/followctl/internal/core/system"
	"github.com/l1jgo/followctl/internal/data"
	"github.com/l1jgo/followctl/internal/handler"
	"github.com/l1jgo/followctl/internal/metrics"
	"github.com/l1jgo/followctl/internal/movement"
	"github.com/l1jgo/followctl/internal/persist"
	"github.com/l1jgo/followctl/internal/scripting"
	"github.com/l1jgo/followctl/internal/selection"
	"github.com/l1jgo/followctl/internal/system"
	"github.com/l1jgo/followctl/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              followctl  v0.1.0            \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mgame:\033[0m %s\n\n", name)
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

// ── Main loop ─────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/followctl.toml"
	if p := os.Getenv("FOLLOWCTL_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Game.Name)

	// 3. Load data tables
	printSection("data")
	maps, err := data.LoadMapData(cfg.Data.Maps, cfg.Data.TileDir)
	if err != nil {
		return fmt.Errorf("load maps: %w", err)
	}
	printStat("maps", maps.Count())
	actors, err := data.LoadActorTable(cfg.Data.Actors)
	if err != nil {
		return fmt.Errorf("load actors: %w", err)
	}
	printStat("actors", actors.Count())
	scenario, err := data.LoadScenario(cfg.Data.Scenario)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	printStat("threads", len(scenario.Threads))
	printStat("common events", len(scenario.CommonEvents))

	// 4. Build the map state and party
	ws := world.NewState(maps, cfg)
	ws.LoadActors(actors)
	if ws.MapInfo(cfg.Game.StartMapID) == nil {
		return fmt.Errorf("start map %d does not exist", cfg.Game.StartMapID)
	}
	for _, id := range cfg.Game.StartParty {
		if !ws.Party.AddActor(id) {
			log.Warn("start party actor skipped", zap.Int32("actor", id))
		}
	}
	ws.TransferParty(cfg.Game.StartMapID, cfg.Game.StartX, cfg.Game.StartY, world.Direction(cfg.Game.StartDir))
	ws.RefreshParty()

	resolver := selection.NewResolver(ws, log)
	ws.SetChasePolicy(resolver.EffectiveChase)

	// 5. Metrics
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg, time.Unix(cfg.Game.StartTime, 0))

	planner := movement.NewPlanner(ws, resolver.CharacterAt, log)
	planner.SetObserver(m)

	// 6. Lua move-route engine
	printSection("scripting")
	engine, err := scripting.NewEngine(cfg.Data.Scripts, planner, ws, log)
	if err != nil {
		return fmt.Errorf("init scripting: %w", err)
	}
	defer engine.Close()
	printOK("route library loaded")

	// 7. Party store
	printSection("storage")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := persist.Open(ctx, cfg, log)
	cancel()
	if err != nil {
		return fmt.Errorf("open party store: %w", err)
	}
	defer store.Close()
	printOK(fmt.Sprintf("party store (%s)", cfg.Storage.Driver))

	// 8. Commands and systems
	bus := event.NewBus()
	routes := system.NewMoveRouteSystem(engine, bus, log)
	routes.SetGauge(m)
	party := system.NewPartySystem(store, ws, bus, log)

	cmdReg := handler.NewRegistry(log)
	cmdReg.SetObserver(m)
	handler.RegisterAll(cmdReg, &handler.Deps{
		Config:    cfg,
		Log:       log,
		World:     ws,
		Selection: resolver,
		Scripting: engine,
		Bus:       bus,
		Party:     party,
		Routes:    routes,
	})
	printStat("commands", len(cmdReg.Codes()))

	interp := system.NewInterpreterSystem(scenario, cmdReg, resolver, routes, log)
	interp.SetGauge(m)

	runner := coresys.NewRunner()
	runner.Register(interp)
	runner.Register(system.NewDispatchSystem(bus))
	runner.Register(routes)
	runner.Register(system.NewFollowerSystem(ws, bus, log))
	var autosave *system.PersistenceSystem
	if cfg.Storage.AutosaveSlot > 0 {
		autosave = system.NewPersistenceSystem(store, ws, bus, cfg.Storage.AutosaveSlot,
			cfg.Storage.AutosaveTicks, cfg.Storage.Timeout, log)
		runner.Register(autosave)
	}

	// 9. Metrics endpoint
	var srv *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler(reg))
		srv = &http.Server{Addr: cfg.Metrics.BindAddress, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics listener stopped", zap.Error(err))
			}
		}()
		printReady(fmt.Sprintf("metrics on %s", cfg.Metrics.BindAddress))
	}

	// 10. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Game.TickRate)
	defer ticker.Stop()

	printReady(fmt.Sprintf("game loop started (tick: %s)", cfg.Game.TickRate))
	fmt.Println()

	stop := func() {
		if autosave != nil {
			autosave.SaveNow()
		}
		if srv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}
	}

	for {
		select {
		case <-ticker.C:
			start := time.Now()
			runner.Tick(cfg.Game.TickRate)
			m.ObserveTick(time.Since(start))

			if err := interp.Err(); err != nil {
				stop()
				return fmt.Errorf("scenario: %w", err)
			}
			if cfg.Game.MaxTicks > 0 && runner.Ticks() >= uint64(cfg.Game.MaxTicks) {
				log.Info("tick limit reached", zap.Uint64("ticks", runner.Ticks()))
				stop()
				return nil
			}
			if cfg.Game.MaxTicks == 0 && interp.Done() && routes.Len() == 0 && !cfg.Metrics.Enabled {
				log.Info("scenario finished",
					zap.Uint64("ticks", runner.Ticks()),
					zap.Int16("map", ws.MapID),
					zap.Int32("x", ws.Player.X),
					zap.Int32("y", ws.Player.Y),
				)
				stop()
				return nil
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			stop()
			return nil
		}
	}
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
