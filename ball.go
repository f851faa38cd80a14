package main

import (
	"math"
	"math/rand/v2"
)

// PuckScale is a puck's size relative to the ball
const PuckScale = 0.75

// NewBall creates the primary ball at the window center, moving
// diagonally at base speed with each axis sign picked independently.
func NewBall(cfg GameConfig, rng *rand.Rand) *Entity {
	vx, vy := cfg.BallSpeed, cfg.BallSpeed
	if rng.IntN(2) == 0 {
		vx = -vx
	}
	if rng.IntN(2) == 0 {
		vy = -vy
	}
	return &Entity{
		Kind: KindBall,
		Pos:  Vec2{cfg.Width / 2, cfg.Height / 2},
		Size: Vec2{cfg.BallSize, cfg.BallSize},
		Vel:  Vec2{vx, vy},
	}
}

// NewPuck creates a puck at center launched at a random angle in [0, π],
// i.e. with a non-negative Y component.
func NewPuck(center Vec2, cfg GameConfig, rng *rand.Rand) *Entity {
	angle := rng.Float64() * math.Pi
	speed := cfg.BallSpeed
	size := cfg.BallSize * PuckScale
	return &Entity{
		Kind: KindPuck,
		Pos:  center,
		Size: Vec2{size, size},
		Vel:  Vec2{math.Cos(angle) * speed, math.Sin(angle) * speed},
	}
}
