package scripting

import (
	"github.com/lucasb-eyer/go-colorful"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/orrery/orbitviz/internal/line"
)

type paletteKey struct {
	kind   line.Kind
	bodyID string
}

// Palette is a line.MaterialFactory backed by the Lua function
// line_material(kind, body_id), which returns a table with any of
// color, opacity, width and dashed. Missing fields and failed calls fall
// back to the base palette. Results are cached per kind and body.
type Palette struct {
	engine *Engine
	base   line.MaterialFactory
	cache  map[paletteKey]line.Material
}

func NewPalette(e *Engine, base line.MaterialFactory) *Palette {
	if base == nil {
		base = line.DefaultPalette()
	}
	return &Palette{engine: e, base: base, cache: make(map[paletteKey]line.Material)}
}

func (p *Palette) Material(kind line.Kind, bodyID string) line.Material {
	key := paletteKey{kind: kind, bodyID: bodyID}
	if m, ok := p.cache[key]; ok {
		return m
	}
	m := p.base.Material(kind, bodyID)
	if t := p.engine.callTableFunc("line_material", kind.String(), bodyID); t != nil {
		m = p.apply(m, t, bodyID)
	}
	p.cache[key] = m
	return m
}

func (p *Palette) apply(m line.Material, t *lua.LTable, bodyID string) line.Material {
	if hex := lStr(t, "color"); hex != "" {
		if c, err := colorful.Hex(hex); err == nil {
			m.Color = c
		} else {
			p.engine.log.Warn("lua palette colour ignored",
				zap.String("body", bodyID), zap.String("color", hex))
		}
	}
	m.Opacity = clamp01(lNum(t, "opacity", m.Opacity))
	m.Width = lNum(t, "width", m.Width)
	if d := t.RawGetString("dashed"); d != lua.LNil {
		m.Dashed = lua.LVAsBool(d)
	}
	return m
}

// HighlightColor returns the colour from highlight_color(), or fallback.
func (p *Palette) HighlightColor(fallback colorful.Color) colorful.Color {
	hex, ok := p.engine.callStringFunc("highlight_color")
	if !ok {
		return fallback
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		p.engine.log.Warn("lua highlight colour ignored", zap.String("color", hex))
		return fallback
	}
	return c
}

// Reset drops cached materials so the next lines pick up script changes.
func (p *Palette) Reset() {
	clear(p.cache)
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
