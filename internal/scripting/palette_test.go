package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/orrery/orbitviz/internal/line"
)

const paletteSrc = `
calls = 0

function line_material(kind, body_id)
  calls = calls + 1
  if kind == KIND_ORBIT and body_id == "mars" then
    return { color = "#c1440e", opacity = 0.25, width = 2 }
  elseif kind == KIND_PREDICTION then
    return { dashed = false, opacity = 7 }
  elseif kind == KIND_TRAIL and body_id == "bad" then
    return { color = "not-a-colour" }
  elseif body_id == "boom" then
    error("boom")
  end
  return {}
end

function highlight_color()
  return "#00ff00"
end
`

func newTestEngine(t *testing.T, src string, log *zap.Logger) *Engine {
	t.Helper()
	e := &Engine{vm: newVM(), log: log}
	t.Cleanup(e.Close)
	if err := e.vm.DoString(src); err != nil {
		t.Fatal(err)
	}
	return e
}

func TestPaletteOverridesMaterial(t *testing.T) {
	e := newTestEngine(t, paletteSrc, zap.NewNop())
	p := NewPalette(e, nil)

	m := p.Material(line.KindOrbit, "mars")
	want, _ := colorful.Hex("#c1440e")
	if m.Color != want || m.Opacity != 0.25 || m.Width != 2 || m.Kind != line.KindOrbit {
		t.Errorf("unexpected orbit material %+v", m)
	}

	pred := p.Material(line.KindPrediction, "earth")
	if pred.Dashed || pred.Opacity != 1 {
		t.Errorf("prediction overrides not applied or not clamped: %+v", pred)
	}

	// Fields the script leaves out keep the base palette values.
	base := line.DefaultPalette().Trail
	if trail := p.Material(line.KindTrail, "earth"); trail != base {
		t.Errorf("trail %+v, want base %+v", trail, base)
	}
}

func TestPaletteCachesPerKindAndBody(t *testing.T) {
	e := newTestEngine(t, paletteSrc, zap.NewNop())
	p := NewPalette(e, nil)
	p.Material(line.KindOrbit, "mars")
	p.Material(line.KindOrbit, "mars")
	p.Material(line.KindTrail, "mars")
	if n := e.vm.GetGlobal("calls").String(); n != "2" {
		t.Errorf("lua called %s times, want 2", n)
	}
	p.Reset()
	p.Material(line.KindOrbit, "mars")
	if n := e.vm.GetGlobal("calls").String(); n != "3" {
		t.Errorf("lua called %s times after reset, want 3", n)
	}
}

func TestPaletteFallsBackOnScriptErrors(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	e := newTestEngine(t, paletteSrc, zap.New(core))
	p := NewPalette(e, nil)
	base := line.DefaultPalette()

	if m := p.Material(line.KindOrbit, "boom"); m != base.Orbit {
		t.Errorf("runtime error should fall back, got %+v", m)
	}
	if m := p.Material(line.KindTrail, "bad"); m.Color != base.Trail.Color {
		t.Errorf("bad colour should be ignored, got %+v", m)
	}
	if logs.FilterMessage("lua call error").Len() != 1 {
		t.Error("runtime error not logged")
	}
	if logs.FilterMessage("lua palette colour ignored").Len() != 1 {
		t.Error("bad colour not logged")
	}
}

func TestPaletteWithoutScriptUsesBase(t *testing.T) {
	e := newTestEngine(t, "", zap.NewNop())
	p := NewPalette(e, nil)
	if m := p.Material(line.KindTrail, "earth"); m != line.DefaultPalette().Trail {
		t.Errorf("got %+v", m)
	}
	fallback := colorful.Color{R: 1}
	if c := p.HighlightColor(fallback); c != fallback {
		t.Errorf("highlight %v, want fallback", c)
	}
	if e.HasFunc("line_material") {
		t.Error("HasFunc reported a missing function")
	}
}

func TestHighlightColorFromScript(t *testing.T) {
	e := newTestEngine(t, paletteSrc, zap.NewNop())
	got := NewPalette(e, nil).HighlightColor(colorful.Color{})
	if want, _ := colorful.Hex("#00ff00"); got != want {
		t.Errorf("highlight %v, want %v", got, want)
	}
}

func TestNewEngineLoadsScriptDirs(t *testing.T) {
	dir := t.TempDir()
	for sub, src := range map[string]string{
		"core":    `SHADE = "#123456"`,
		"palette": `function line_material(kind, id) return { color = SHADE } end`,
	} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, sub, "x.lua"), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	m := NewPalette(e, nil).Material(line.KindOrbit, "x")
	if want, _ := colorful.Hex("#123456"); m.Color != want {
		t.Errorf("colour %v, want %v", m.Color, want)
	}
}

func TestNewEngineReportsSyntaxErrors(t *testing.T) {
	dir := t.TempDir()
	_ = os.MkdirAll(filepath.Join(dir, "palette"), 0o755)
	_ = os.WriteFile(filepath.Join(dir, "palette", "broken.lua"), []byte("function ("), 0o644)
	if _, err := NewEngine(dir, zap.NewNop()); err == nil {
		t.Error("expected a load error")
	}
}
