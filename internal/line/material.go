package line

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Kind identifies which visualisation a line belongs to.
type Kind int

const (
	KindOrbit Kind = iota
	KindTrail
	KindPrediction
)

func (k Kind) String() string {
	switch k {
	case KindOrbit:
		return "orbit"
	case KindTrail:
		return "trail"
	case KindPrediction:
		return "prediction"
	default:
		return "unknown"
	}
}

// Material describes how a line is drawn. Each line owns its own copy.
type Material struct {
	Kind    Kind
	Color   colorful.Color
	Opacity float64
	Width   float64
	Dashed  bool
}

// MaterialFactory produces a fresh material for a line. It is owned by the
// composition root and passed to every manager that creates lines.
type MaterialFactory interface {
	Material(kind Kind, bodyID string) Material
}

// Palette is a static MaterialFactory with one material per line kind.
type Palette struct {
	Orbit      Material
	Trail      Material
	Prediction Material
}

// PaletteColors holds hex colours, as read from configuration.
type PaletteColors struct {
	Orbit      string
	Trail      string
	Prediction string
}

// NewPalette parses hex colours into a Palette.
func NewPalette(c PaletteColors) (*Palette, error) {
	orbit, err := colorful.Hex(c.Orbit)
	if err != nil {
		return nil, fmt.Errorf("orbit colour %q: %w", c.Orbit, err)
	}
	trail, err := colorful.Hex(c.Trail)
	if err != nil {
		return nil, fmt.Errorf("trail colour %q: %w", c.Trail, err)
	}
	pred, err := colorful.Hex(c.Prediction)
	if err != nil {
		return nil, fmt.Errorf("prediction colour %q: %w", c.Prediction, err)
	}
	return &Palette{
		Orbit:      Material{Kind: KindOrbit, Color: orbit, Opacity: 0.5, Width: 1},
		Trail:      Material{Kind: KindTrail, Color: trail, Opacity: 0.7, Width: 1},
		Prediction: Material{Kind: KindPrediction, Color: pred, Opacity: 0.8, Width: 1, Dashed: true},
	}, nil
}

// DefaultPalette returns the built-in colours.
func DefaultPalette() *Palette {
	p, _ := NewPalette(PaletteColors{Orbit: "#4f7cac", Trail: "#9ad1d4", Prediction: "#ff9f1c"})
	return p
}

func (p *Palette) Material(kind Kind, _ string) Material {
	switch kind {
	case KindTrail:
		return p.Trail
	case KindPrediction:
		return p.Prediction
	default:
		return p.Orbit
	}
}
