package portal

import (
	"fmt"
	"strings"
)

// Strategy selects how a portal-gated light is sampled from points the portal gates
type Strategy int

const (
	// StrategyLight samples the light directly and ignores the portal
	StrategyLight Strategy = iota
	// StrategyPortal samples the portal rectangle uniformly
	StrategyPortal
	// StrategyProjection samples the part of the portal the light projects onto
	StrategyProjection
)

// String returns the scene-description name of the strategy
func (s Strategy) String() string {
	switch s {
	case StrategyLight:
		return "light"
	case StrategyPortal:
		return "portal"
	case StrategyProjection:
		return "projection"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy parses "light", "portal" or "projection"
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light":
		return StrategyLight, nil
	case "portal":
		return StrategyPortal, nil
	case "projection":
		return StrategyProjection, nil
	default:
		return StrategyLight, fmt.Errorf("unknown portal strategy %q", s)
	}
}
