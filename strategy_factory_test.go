package main

import (
	"math"
	"math/rand/v2"
	"testing"
)

func TestStrategyFactoryDistribution(t *testing.T) {
	f := NewStrategyFactory(rand.New(rand.NewPCG(7, 11)))
	const n = 100000
	var counts [effectKindCount]int
	for i := 0; i < n; i++ {
		counts[f.Generate(0).Kind()]++
	}

	want := map[EffectKind]float64{
		EffectRemove:         0.5,
		EffectSpawnPucks:     0.1,
		EffectGrantAuxPaddle: 0.1,
		EffectActivateTurbo:  0.1,
		EffectSpawnHeart:     0.1,
		EffectComposite:      0.1,
	}
	for kind, p := range want {
		got := float64(counts[kind]) / n
		if math.Abs(got-p) > 0.01 {
			t.Errorf("%s frequency = %.3f, want %.2f", kind, got, p)
		}
	}
}

func TestStrategyFactoryDepthOneDistribution(t *testing.T) {
	f := NewStrategyFactory(rand.New(rand.NewPCG(3, 5)))
	const n = 50000
	var counts [effectKindCount]int
	for i := 0; i < n; i++ {
		counts[f.Generate(1).Kind()]++
	}
	if counts[EffectRemove] != 0 {
		t.Errorf("depth 1 produced %d removes", counts[EffectRemove])
	}
	for _, kind := range []EffectKind{EffectSpawnPucks, EffectGrantAuxPaddle, EffectActivateTurbo, EffectSpawnHeart, EffectComposite} {
		got := float64(counts[kind]) / n
		if math.Abs(got-0.2) > 0.015 {
			t.Errorf("%s frequency = %.3f, want 0.20", kind, got)
		}
	}
}

func TestStrategyFactoryBoundsNesting(t *testing.T) {
	f := NewStrategyFactory(rand.New(rand.NewPCG(9, 9)))
	for depth := 0; depth <= MaxEffectDepth+1; depth++ {
		limit := max(MaxEffectDepth-depth, 0)
		for i := 0; i < 5000; i++ {
			e := f.Generate(depth)
			if d := EffectDepth(e); d > limit {
				t.Fatalf("Generate(%d) nested %d levels: %s", depth, d, DescribeEffect(e))
			}
			if depth >= MaxEffectDepth {
				if k := e.Kind(); k == EffectComposite || k == EffectRemove {
					t.Fatalf("Generate(%d) = %s, want a special leaf", depth, k)
				}
			}
		}
	}
}

func TestStrategyFactoryNegativeDepth(t *testing.T) {
	f := NewStrategyFactory(rand.New(rand.NewPCG(1, 1)))
	sawRemove := false
	for i := 0; i < 1000; i++ {
		if f.Generate(-3).Kind() == EffectRemove {
			sawRemove = true
			break
		}
	}
	if !sawRemove {
		t.Error("negative depth should use the depth 0 table")
	}
}

func TestSpawnPucksCount(t *testing.T) {
	e, ok := specialEffect(0).(SpawnPucksEffect)
	if !ok || e.Count != PucksPerBrick {
		t.Errorf("specialEffect(0) = %#v, want %d pucks", specialEffect(0), PucksPerBrick)
	}
}
