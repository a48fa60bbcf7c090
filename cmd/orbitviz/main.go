package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/orrery/orbitviz/internal/config"
	"github.com/orrery/orbitviz/internal/core/event"
	coresys "github.com/orrery/orbitviz/internal/core/system"
	"github.com/orrery/orbitviz/internal/data"
	"github.com/orrery/orbitviz/internal/line"
	"github.com/orrery/orbitviz/internal/metrics"
	"github.com/orrery/orbitviz/internal/nbody"
	"github.com/orrery/orbitviz/internal/orbits"
	"github.com/orrery/orbitviz/internal/render/term"
	"github.com/orrery/orbitviz/internal/scene"
	"github.com/orrery/orbitviz/internal/scripting"
	"github.com/orrery/orbitviz/internal/system"
	"github.com/orrery/orbitviz/internal/world"
)

const (
	reportEvery = 300                  // frames between status log lines
	inputPoll   = 5 * time.Millisecond // key queue drain between frames
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := "config/orbitviz.toml"
	if p := os.Getenv("ORBITVIZ_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// The terminal owns stdout/stderr while it runs.
	if cfg.Render.Terminal && cfg.Logging.File == "" {
		cfg.Logging.File = "orbitviz.log"
	}
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	scenario, err := data.LoadScenario(cfg.Simulation.Scenario)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}

	simOpts := nbody.Options{
		G:          nbody.G,
		Theta:      cfg.Prediction.Theta,
		OctreeSize: cfg.Prediction.OctreeSize,
		MaxDepth:   cfg.Prediction.MaxDepth,
		Scale:      1,
	}
	ws := world.NewState(cfg.Simulation.RenderScale, simOpts, log)
	for _, b := range scenario.Bodies {
		if err := ws.AddBody(world.Body{
			ID:       b.ID,
			Name:     b.Name,
			ParentID: b.ParentID,
			Radius:   b.RadiusM,
			Orbit:    b.Orbit,
		}, b.State); err != nil {
			return fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
	}
	log.Info("scenario loaded", zap.String("name", scenario.Name), zap.Int("bodies", scenario.Count()))

	materials, highlight, closeScripts, err := newMaterials(cfg, log)
	if err != nil {
		return err
	}
	defer closeScripts()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var obs orbits.Observer
	if cfg.Metrics.Enabled {
		collector := metrics.NewCollector()
		collector.SetMode(orbits.ModeForEngine(cfg.Visualization.Mode))
		obs = collector
		go func() {
			if err := collector.Serve(ctx, cfg.Metrics.Addr, log); err != nil {
				log.Error("metrics server", zap.Error(err))
			}
		}()
	}

	predOpts := simOpts
	predOpts.Scale = cfg.Simulation.RenderScale

	graph := scene.NewGraph()
	builder := line.NewBuilder(line.NewPool(cfg.Pool.MaxCacheable), line.PolylineFactory{})
	manager := orbits.NewManager(orbits.Config{
		Mode:                  orbits.ModeForEngine(cfg.Visualization.Mode),
		Visible:               cfg.Visualization.Visible,
		TrailLengthMultiplier: cfg.Visualization.TrailLengthMultiplier,
		HighlightColor:        highlight,
		Scale:                 cfg.Simulation.RenderScale,
		TrailEvery:            cfg.Visualization.TrailEvery,
		PredictionEvery:       cfg.Visualization.PredictionEvery,
		TrimEvery:             cfg.Visualization.TrimEvery,
		Trail: orbits.TrailOptions{
			Smooth:       cfg.Visualization.SmoothTrails,
			Subdivisions: cfg.Visualization.Subdivisions,
		},
		Prediction: orbits.PredictionOptions{
			Duration: cfg.Prediction.Duration.Seconds(),
			Steps:    cfg.Prediction.Steps,
			NBody:    predOpts,
		},
	}, ws, graph, builder, materials, obs, log)
	defer manager.Dispose()

	bus := event.NewBus()
	quit := false
	event.Subscribe(bus, func(event.QuitRequested) { quit = true })

	runner := coresys.NewRunner()
	runner.Register(system.NewDispatchSystem(bus, log))
	runner.Register(system.NewPhysicsSystem(ws, cfg.Simulation.TimeStep, cfg.Simulation.Substeps, log))
	runner.Register(system.NewSceneSyncSystem(ws, graph))
	runner.Register(system.NewVisualizationSystem(manager, bus, log))
	runner.Register(system.NewReportSystem(ws, manager, reportEvery, log))

	var inputC <-chan time.Time // nil when headless
	if cfg.Render.Terminal {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("create screen: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("init screen: %w", err)
		}
		defer screen.Fini()

		t := term.New(screen, bus, cfg.Render.Zoom, log)
		go t.Listen()
		runner.Register(system.NewTerminalInputSystem(t))
		runner.Register(system.NewRenderSystem(t, graph, manager, ws))

		inputTicker := time.NewTicker(inputPoll)
		defer inputTicker.Stop()
		inputC = inputTicker.C
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Simulation.TickRate)
	defer ticker.Stop()

	log.Info("frame loop started",
		zap.Duration("tick", cfg.Simulation.TickRate),
		zap.Stringer("mode", manager.Mode()),
		zap.Bool("terminal", cfg.Render.Terminal))

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Simulation.TickRate)
			if quit {
				log.Info("quit requested")
				return nil
			}
			if cfg.Simulation.Frames > 0 && runner.Frames() >= uint64(cfg.Simulation.Frames) {
				log.Info("frame limit reached", zap.Uint64("frames", runner.Frames()))
				return nil
			}
		case <-inputC:
			runner.TickPhase(coresys.PhaseInput, inputPoll)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			return nil
		}
	}
}

// newMaterials builds the line palette from configured colours, layered under
// the Lua palette when scripting is enabled.
func newMaterials(cfg *config.Config, log *zap.Logger) (line.MaterialFactory, colorful.Color, func(), error) {
	noop := func() {}
	base, err := line.NewPalette(line.PaletteColors{
		Orbit:      cfg.Visualization.OrbitColor,
		Trail:      cfg.Visualization.TrailColor,
		Prediction: cfg.Visualization.PredictionColor,
	})
	if err != nil {
		return nil, colorful.Color{}, noop, fmt.Errorf("palette: %w", err)
	}
	highlight, err := colorful.Hex(cfg.Visualization.HighlightColor)
	if err != nil {
		return nil, colorful.Color{}, noop, fmt.Errorf("highlight colour %q: %w", cfg.Visualization.HighlightColor, err)
	}
	if !cfg.Scripting.Enabled {
		return base, highlight, noop, nil
	}

	engine, err := scripting.NewEngine(cfg.Scripting.Dir, log)
	if err != nil {
		return nil, colorful.Color{}, noop, fmt.Errorf("scripting: %w", err)
	}
	p := scripting.NewPalette(engine, base)
	log.Info("lua palette loaded", zap.String("dir", cfg.Scripting.Dir))
	return p, p.HighlightColor(highlight), engine.Close, nil
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
		if cfg.File != "" {
			zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder // no escapes in files
		}
	}
	if cfg.File != "" {
		zapCfg.OutputPaths = []string{cfg.File}
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
