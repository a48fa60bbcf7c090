package main

import (
	"path/filepath"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"

	"github.com/orrery/orbitviz/internal/config"
	"github.com/orrery/orbitviz/internal/line"
	"github.com/orrery/orbitviz/internal/scripting"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestNewMaterialsFromConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scripting.Enabled = false
	cfg.Visualization.OrbitColor = "#010203"

	m, hl, closeFn, err := newMaterials(cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()
	if want, _ := colorful.Hex("#010203"); m.Material(line.KindOrbit, "earth").Color != want {
		t.Error("orbit colour not taken from config")
	}
	if want, _ := colorful.Hex(cfg.Visualization.HighlightColor); hl != want {
		t.Errorf("highlight %v, want %v", hl, want)
	}
}

func TestNewMaterialsRejectsBadColours(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scripting.Enabled = false
	cfg.Visualization.TrailColor = "teal"
	if _, _, _, err := newMaterials(cfg, zap.NewNop()); err == nil {
		t.Error("expected a palette error")
	}
}

func TestNewMaterialsUsesLuaPalette(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scripting.Dir = filepath.Join("..", "..", "scripts")

	m, _, closeFn, err := newMaterials(cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()
	if _, ok := m.(*scripting.Palette); !ok {
		t.Errorf("materials are %T, want the lua palette", m)
	}
}

func TestNewLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orbitviz.log")
	log, err := newLogger(config.LoggingConfig{Level: "bogus", Format: "console", File: path})
	if err != nil {
		t.Fatal(err)
	}
	if !log.Core().Enabled(zap.InfoLevel) || log.Core().Enabled(zap.DebugLevel) {
		t.Error("unknown level should fall back to info")
	}
}
