package ai

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// ForName returns the rule-based strategy for a case-insensitive
// identifier, or nil when the name is unrecognized. Callers treat nil as
// "no agent installed".
func ForName(name string, opts Options) Agent {
	switch strings.ToLower(name) {
	case "ai_simple":
		return NewSimpleAI(opts)
	case "ai_hit_and_run":
		return NewHitAndRunAI(opts)
	case "ai_scripted":
		a, err := NewScriptedAI(opts, "")
		if err != nil {
			// DefaultScript always compiles; a failure here is a bug.
			log.Error().Err(err).Msg("default scripted AI failed to compile")
			return nil
		}
		return a
	default:
		log.Warn().Str("name", name).Msg("unrecognized strategy name, no agent installed")
		return nil
	}
}
