package event

// SettingsChanged carries the user settings the visualisation reacts to.
type SettingsChanged struct {
	PhysicsEngine         string // "verlet" or anything else for Keplerian orbits
	TrailLengthMultiplier float64
}

// HighlightRequested selects a body; an empty BodyID clears the selection.
type HighlightRequested struct {
	BodyID string
}

type VisibilityToggled struct{}

type QuitRequested struct{}
