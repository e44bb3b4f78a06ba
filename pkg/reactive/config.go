package reactive

// StrictEffectMode controls how signal writes made synchronously inside an
// effect body are handled. Such writes re-queue dependents within the same
// flush and are a common source of cascading or runaway effects.
type StrictEffectMode int

const (
	// StrictEffectOff disables write detection.
	StrictEffectOff StrictEffectMode = iota

	// StrictEffectWarn logs a warning for each write made by an effect
	// created without AllowWrites.
	StrictEffectWarn

	// StrictEffectPanic fails the effect with a *WriteInEffectError.
	StrictEffectPanic
)

// String returns the mode name as used in configuration files.
func (m StrictEffectMode) String() string {
	switch m {
	case StrictEffectWarn:
		return "warn"
	case StrictEffectPanic:
		return "panic"
	default:
		return "off"
	}
}

// ParseStrictEffectMode converts a configuration value into a mode.
// Unknown values report ok=false.
func ParseStrictEffectMode(s string) (mode StrictEffectMode, ok bool) {
	switch s {
	case "", "off":
		return StrictEffectOff, true
	case "warn":
		return StrictEffectWarn, true
	case "panic":
		return StrictEffectPanic, true
	default:
		return StrictEffectOff, false
	}
}
