package main

import "fmt"

// EffectKind identifies an effect variant
type EffectKind int

const (
	EffectRemove         EffectKind = 0
	EffectSpawnPucks     EffectKind = 1
	EffectGrantAuxPaddle EffectKind = 2
	EffectActivateTurbo  EffectKind = 3
	EffectSpawnHeart     EffectKind = 4
	EffectComposite      EffectKind = 5
)

// effectKindCount is the number of variants, for per-kind tallies
const effectKindCount = 6

func (k EffectKind) String() string {
	switch k {
	case EffectRemove:
		return "remove"
	case EffectSpawnPucks:
		return "pucks"
	case EffectGrantAuxPaddle:
		return "aux_paddle"
	case EffectActivateTurbo:
		return "turbo"
	case EffectSpawnHeart:
		return "heart"
	case EffectComposite:
		return "composite"
	}
	return "unknown"
}

// Effect is what happens when a brick is struck. The set of variants is
// closed: only the types in this file implement it.
type Effect interface {
	Kind() EffectKind
	effect()
}

// RemoveEffect deletes the brick and nothing else
type RemoveEffect struct{}

// SpawnPucksEffect deletes the brick and launches Count pucks from its center
type SpawnPucksEffect struct {
	Count int
}

// GrantAuxPaddleEffect deletes the brick and adds the auxiliary paddle if
// none is live
type GrantAuxPaddleEffect struct{}

// ActivateTurboEffect deletes the brick and switches the ball to turbo if
// it is not already
type ActivateTurboEffect struct{}

// SpawnHeartEffect deletes the brick and drops a falling heart
type SpawnHeartEffect struct{}

// CompositeEffect deletes the brick, then applies First and Second in order
type CompositeEffect struct {
	First, Second Effect
}

func (RemoveEffect) Kind() EffectKind         { return EffectRemove }
func (SpawnPucksEffect) Kind() EffectKind     { return EffectSpawnPucks }
func (GrantAuxPaddleEffect) Kind() EffectKind { return EffectGrantAuxPaddle }
func (ActivateTurboEffect) Kind() EffectKind  { return EffectActivateTurbo }
func (SpawnHeartEffect) Kind() EffectKind     { return EffectSpawnHeart }
func (CompositeEffect) Kind() EffectKind      { return EffectComposite }

func (RemoveEffect) effect()         {}
func (SpawnPucksEffect) effect()     {}
func (GrantAuxPaddleEffect) effect() {}
func (ActivateTurboEffect) effect()  {}
func (SpawnHeartEffect) effect()     {}
func (CompositeEffect) effect()      {}

// EffectDepth returns how many composite levels are stacked in e.
// Plain effects have depth 0.
func EffectDepth(e Effect) int {
	c, ok := e.(CompositeEffect)
	if !ok {
		return 0
	}
	return 1 + max(EffectDepth(c.First), EffectDepth(c.Second))
}

// DescribeEffect renders e as a compact string, e.g. "composite(turbo,pucks)"
func DescribeEffect(e Effect) string {
	if e == nil {
		return "none"
	}
	if c, ok := e.(CompositeEffect); ok {
		return fmt.Sprintf("composite(%s,%s)", DescribeEffect(c.First), DescribeEffect(c.Second))
	}
	return e.Kind().String()
}

// applyEffect runs eff for a brick (subject) struck by counterpart.
// Every variant starts with the shared removal step; removing a subject
// that is already gone is a normal no-op, so composite children always run.
func (g *Game) applyEffect(eff Effect, subject, counterpart *Entity) {
	switch e := eff.(type) {
	case RemoveEffect:
		g.removeSubject(subject)

	case SpawnPucksEffect:
		g.removeSubject(subject)
		for i := 0; i < e.Count; i++ {
			g.world.Add(NewPuck(subject.Pos, g.cfg, g.rng))
		}

	case GrantAuxPaddleEffect:
		g.removeSubject(subject)
		if g.auxPaddle == nil {
			g.auxPaddle = NewAuxPaddle(g.cfg)
			g.world.Add(g.auxPaddle)
		}

	case ActivateTurboEffect:
		g.removeSubject(subject)
		if !g.turbo {
			g.activateTurbo()
		}

	case SpawnHeartEffect:
		g.removeSubject(subject)
		g.world.Add(NewFallingHeart(subject.Pos))

	case CompositeEffect:
		g.removeSubject(subject)
		g.applyEffect(e.First, subject, counterpart)
		g.applyEffect(e.Second, subject, counterpart)
	}

	if eff != nil {
		g.round.Effects[eff.Kind()]++
		g.track(EvtEffect, map[string]any{"effect": eff.Kind().String(), "shape": DescribeEffect(eff)})
	}
}

// removeSubject is the removal step shared by all effects
func (g *Game) removeSubject(subject *Entity) bool {
	if !g.world.Remove(subject) {
		return false
	}
	if subject.Kind == KindBrick {
		g.round.BricksBroken++
	}
	return true
}
