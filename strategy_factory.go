package main

import "math/rand/v2"

// PucksPerBrick is how many pucks a SpawnPucks effect launches
const PucksPerBrick = 2

// MaxEffectDepth is the deepest depth Generate accepts; it never nests
// composites past it.
const MaxEffectDepth = 2

// StrategyFactory draws random brick effects. Each depth has its own
// outcome table; deeper tables drop Remove and, at the last depth,
// Composite, which bounds nesting to MaxEffectDepth levels.
//
//	depth 0: 0-4 remove, 5 pucks, 6 aux paddle, 7 turbo, 8 heart, 9 composite(gen(1), gen(2))
//	depth 1: 0 pucks, 1 aux paddle, 2 turbo, 3 heart, 4 composite(gen(2), gen(2))
//	depth 2: 0 pucks, 1 aux paddle, 2 turbo, 3 heart
type StrategyFactory struct {
	rng *rand.Rand
}

// NewStrategyFactory creates a factory drawing from rng
func NewStrategyFactory(rng *rand.Rand) *StrategyFactory {
	if rng == nil {
		rng = NewRand()
	}
	return &StrategyFactory{rng: rng}
}

// Generate returns a random effect for the given depth. Depths past
// MaxEffectDepth are treated as MaxEffectDepth, negatives as 0.
func (f *StrategyFactory) Generate(depth int) Effect {
	switch {
	case depth <= 0:
		switch n := f.rng.IntN(10); n {
		case 0, 1, 2, 3, 4:
			return RemoveEffect{}
		case 9:
			return CompositeEffect{First: f.Generate(1), Second: f.Generate(2)}
		default:
			return specialEffect(n - 5)
		}
	case depth == 1:
		n := f.rng.IntN(5)
		if n == 4 {
			return CompositeEffect{First: f.Generate(2), Second: f.Generate(2)}
		}
		return specialEffect(n)
	default:
		return specialEffect(f.rng.IntN(4))
	}
}

// specialEffect maps 0..3 to the four non-trivial leaf effects
func specialEffect(n int) Effect {
	switch n {
	case 0:
		return SpawnPucksEffect{Count: PucksPerBrick}
	case 1:
		return GrantAuxPaddleEffect{}
	case 2:
		return ActivateTurboEffect{}
	default:
		return SpawnHeartEffect{}
	}
}
