package ai

import "math/rand"

// aiRng is the package-level random source used by the rule-based
// strategies for tie-breaking. When nil, the functions below delegate to
// the global math/rand default. Use SeedStrategyRng for reproducible tests.
// The MixedAI handoff threshold does not use this source; it owns a
// per-instance generator.
var aiRng *rand.Rand

// SeedStrategyRng sets a deterministic random source for reproducible
// rule-based strategy behavior.
func SeedStrategyRng(seed int64) {
	aiRng = rand.New(rand.NewSource(seed))
}

// ResetStrategyRng reverts to the default global random source.
func ResetStrategyRng() {
	aiRng = nil
}

func aiFloat64() float64 {
	if aiRng != nil {
		return aiRng.Float64()
	}
	return rand.Float64()
}
