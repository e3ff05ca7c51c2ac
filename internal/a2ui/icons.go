package a2ui

import (
	"maps"
	"slices"
)

// icons is the fixed symbolic icon registry the preview knows how to draw.
var icons = map[string]struct{}{
	"TrendingUp":    {},
	"TrendingDown":  {},
	"ArrowUpward":   {},
	"ArrowDownward": {},
	"Info":          {},
	"CheckCircle":   {},
	"Warning":       {},
	"Error":         {},
	"Star":          {},
	"FitnessCenter": {},
	"WbSunny":       {},
	"Cloud":         {},
	"Thermostat":    {},
	"AttachMoney":   {},
	"ShowChart":     {},
	"AccessTime":    {},
	"LocationOn":    {},
	"Person":        {},
	"Favorite":      {},
	"Speed":         {},
}

func IsKnownIcon(name string) bool {
	_, ok := icons[name]
	return ok
}

// IconNames lists the registry in sorted order, for prompts and docs.
func IconNames() []string {
	return slices.Sorted(maps.Keys(icons))
}
