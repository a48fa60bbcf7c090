package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Simulation    SimulationConfig    `toml:"simulation"`
	Visualization VisualizationConfig `toml:"visualization"`
	Prediction    PredictionConfig    `toml:"prediction"`
	Pool          PoolConfig          `toml:"pool"`
	Logging       LoggingConfig       `toml:"logging"`
	Metrics       MetricsConfig       `toml:"metrics"`
	Render        RenderConfig        `toml:"render"`
	Scripting     ScriptingConfig     `toml:"scripting"`
}

type SimulationConfig struct {
	Scenario    string        `toml:"scenario"`     // YAML scenario file
	TickRate    time.Duration `toml:"tick_rate"`    // wall time per frame
	TimeStep    float64       `toml:"time_step"`    // simulated seconds per frame
	Substeps    int           `toml:"substeps"`     // integration steps per frame
	RenderScale float64       `toml:"render_scale"` // scene units per metre
	Frames      int           `toml:"frames"`       // 0 = run until interrupted
}

type VisualizationConfig struct {
	Mode                  string  `toml:"mode"` // "keplerian" or "verlet"
	Visible               bool    `toml:"visible"`
	TrailLengthMultiplier float64 `toml:"trail_length_multiplier"`
	SmoothTrails          bool    `toml:"smooth_trails"`
	Subdivisions          int     `toml:"subdivisions"`
	TrailEvery            int     `toml:"trail_every"`      // frames between trail uploads
	PredictionEvery       int     `toml:"prediction_every"` // frames between prediction recalcs
	TrimEvery             int     `toml:"trim_every"`       // frames between history trims
	HighlightColor        string  `toml:"highlight_color"`
	OrbitColor            string  `toml:"orbit_color"`
	TrailColor            string  `toml:"trail_color"`
	PredictionColor       string  `toml:"prediction_color"`
}

type PredictionConfig struct {
	Duration   time.Duration `toml:"duration"` // simulated time span
	Steps      int           `toml:"steps"`
	Theta      float64       `toml:"theta"`
	OctreeSize float64       `toml:"octree_size"` // metres
	MaxDepth   int           `toml:"max_depth"`
}

type PoolConfig struct {
	MaxCacheable int `toml:"max_cacheable"` // largest pooled buffer, in points
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
	File   string `toml:"file"`   // empty logs to stderr
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

type RenderConfig struct {
	Terminal bool    `toml:"terminal"` // false runs headless
	Zoom     float64 `toml:"zoom"`     // terminal cells per scene unit
}

type ScriptingConfig struct {
	Enabled bool   `toml:"enabled"` // Lua palette replaces the configured colours
	Dir     string `toml:"dir"`
}

// Load reads the TOML file at path over the defaults. A missing file is not
// an error: the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Visualization.Mode {
	case "keplerian", "verlet":
	default:
		return fmt.Errorf("visualization.mode %q: want keplerian or verlet", c.Visualization.Mode)
	}
	if c.Simulation.TickRate <= 0 {
		return errors.New("simulation.tick_rate must be positive")
	}
	if c.Simulation.RenderScale <= 0 {
		return errors.New("simulation.render_scale must be positive")
	}
	if c.Prediction.Steps < 0 {
		return errors.New("prediction.steps must not be negative")
	}
	if c.Visualization.TrailLengthMultiplier <= 0 {
		return errors.New("visualization.trail_length_multiplier must be positive")
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Simulation: SimulationConfig{
			Scenario:    "data/yaml/solar_system.yaml",
			TickRate:    33 * time.Millisecond,
			TimeStep:    6 * 3600, // 6 hours per frame
			Substeps:    4,
			RenderScale: 1 / 1.495978707e11, // 1 unit = 1 AU
		},
		Visualization: VisualizationConfig{
			Mode:                  "keplerian",
			Visible:               true,
			TrailLengthMultiplier: 1,
			SmoothTrails:          true,
			Subdivisions:          4,
			TrailEvery:            5,
			PredictionEvery:       15,
			TrimEvery:             60,
			HighlightColor:        "#ffd23f",
			OrbitColor:            "#4f7cac",
			TrailColor:            "#9ad1d4",
			PredictionColor:       "#ff9f1c",
		},
		Prediction: PredictionConfig{
			Duration:   365 * 24 * time.Hour,
			Steps:      365,
			Theta:      0.7,
			OctreeSize: 5e13,
			MaxDepth:   48,
		},
		Pool: PoolConfig{
			MaxCacheable: 10_000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9464",
		},
		Render: RenderConfig{
			Terminal: true,
			Zoom:     8,
		},
		Scripting: ScriptingConfig{
			Enabled: true,
			Dir:     "scripts",
		},
	}
}
