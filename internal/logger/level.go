package logger

import (
	"os"
	"strings"
)

// DiffToInfo is the number of levels that come before logr's "Info" level
// (0). Any addition to the Level enumeration before LevelInfo needs this
// constant updated too.
const DiffToInfo = 1

// Level is the supported log severity for this module's two components.
type Level int

const (
	// LevelOff suppresses logging entirely.
	LevelOff Level = iota
	// LevelInfo logs high-level topology lifecycle events: opening,
	// closing, a published description change.
	LevelInfo
	// LevelDebug additionally logs per-notification detail: a single
	// member's description changing, a peer being added or removed.
	LevelDebug
)

var levelLiteralMap = map[string]Level{
	"off":   LevelOff,
	"info":  LevelInfo,
	"debug": LevelDebug,
}

// ParseLevel maps an environment variable literal to a Level, defaulting to
// LevelOff for anything unrecognized.
func ParseLevel(s string) Level {
	for literal, level := range levelLiteralMap {
		if strings.EqualFold(literal, s) {
			return level
		}
	}
	return LevelOff
}

// Component names a subsystem within this module that can have its own log
// level. Scoped down from the teacher's much larger command/connection/SDAM
// component set, since this module implements only the cluster monitor.
type Component int

const (
	// ComponentTopology covers cluster and server description changes.
	ComponentTopology Component = iota
	// ComponentServerSelection covers SelectServer timeouts.
	ComponentServerSelection
)

const (
	envVarTopology        = "SDAM_LOG_COMPONENT_TOPOLOGY"
	envVarServerSelection = "SDAM_LOG_COMPONENT_SERVER_SELECTION"
	envVarAll             = "SDAM_LOG_ALL"
)

var allComponentEnvVars = map[string]Component{
	envVarTopology:        ComponentTopology,
	envVarServerSelection: ComponentServerSelection,
}

// getEnvComponentLevels returns a component-to-level mapping sourced from
// the environment, with SDAM_LOG_ALL taking priority over a per-component
// variable.
func getEnvComponentLevels() map[Component]Level {
	levels := make(map[Component]Level)
	global := ParseLevel(os.Getenv(envVarAll))

	for envVar, component := range allComponentEnvVars {
		level := global
		if global == LevelOff {
			level = ParseLevel(os.Getenv(envVar))
		}
		levels[component] = level
	}

	return levels
}
