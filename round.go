package main

import (
	"errors"
	"fmt"
)

// Outcome is what a frame tells the shell to do next
type Outcome int

const (
	OutcomeContinue Outcome = 0
	OutcomeWon      Outcome = 1
	OutcomeLost     Outcome = 2
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWon:
		return "won"
	case OutcomeLost:
		return "lost"
	}
	return "continue"
}

// RoundPhase is the lifecycle of one round
type RoundPhase int

const (
	PhaseIdle    RoundPhase = iota // no round built yet
	PhasePlaying
	PhaseOver // waiting for the pilot to rematch or quit
)

// MaxGridDim bounds rows and cols of a brick grid
const MaxGridDim = 40

// paddleLine is where the main paddle sits, as a fraction of the height
const paddleLine = 0.9

var (
	// ErrInvalidGeometry rejects a layout no round can be built from
	ErrInvalidGeometry = errors.New("invalid geometry")
	// ErrGridTooLarge is the ErrInvalidGeometry for rows or cols above MaxGridDim
	ErrGridTooLarge = fmt.Errorf("%w: grid too large", ErrInvalidGeometry)
	// ErrBricksReachPaddle is the ErrInvalidGeometry for a wall of bricks
	// that extends down to the paddle
	ErrBricksReachPaddle = fmt.Errorf("%w: bricks reach the paddle", ErrInvalidGeometry)
)

// GameConfig holds the layout and tuning of a round
type GameConfig struct {
	Width, Height float64
	Rows, Cols    int
	WallSize      float64
	BrickHeight   float64

	BallSize    float64
	BallSpeed   float64
	TurboFactor float64
	MaxTurbo    int // turbo ends after this many ball collisions

	PaddleWidth   float64
	PaddleHeight  float64
	PaddleSpeed   float64
	AuxPaddleHits int // aux paddle is removed after this many hits
}

// DefaultGameConfig returns the classic 500x650 layout with a 7x8 wall
func DefaultGameConfig() GameConfig {
	return GameConfig{
		Width:       500,
		Height:      650,
		Rows:        7,
		Cols:        8,
		WallSize:    15,
		BrickHeight: 15,

		BallSize:    20,
		BallSpeed:   300,
		TurboFactor: 1.4,
		MaxTurbo:    6,

		PaddleWidth:   100,
		PaddleHeight:  15,
		PaddleSpeed:   300,
		AuxPaddleHits: 4,
	}
}

// Validate rejects geometry the round cannot be built from
func (c GameConfig) Validate() error {
	if c.Rows <= 0 || c.Cols <= 0 {
		return fmt.Errorf("%w: rows=%d cols=%d", ErrInvalidGeometry, c.Rows, c.Cols)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: window %gx%g", ErrInvalidGeometry, c.Width, c.Height)
	}
	if c.Rows > MaxGridDim || c.Cols > MaxGridDim {
		return fmt.Errorf("%w: rows=%d cols=%d, max %d", ErrGridTooLarge, c.Rows, c.Cols, MaxGridDim)
	}
	if c.Width <= 2*c.WallSize {
		return fmt.Errorf("%w: window width %g leaves no room between walls", ErrInvalidGeometry, c.Width)
	}
	if bottom, top := c.WallSize+float64(c.Rows)*c.BrickHeight, c.PaddleY()-c.PaddleHeight/2; bottom >= top {
		return fmt.Errorf("%w: %d rows end at y=%g, paddle top at y=%g", ErrBricksReachPaddle, c.Rows, bottom, top)
	}
	return nil
}

// PaddleY is the vertical center of the main paddle
func (c GameConfig) PaddleY() float64 {
	return c.Height * paddleLine
}

// PlayArea returns the rectangle entities are culled against
func (c GameConfig) PlayArea() Rect {
	return Rect{Center: Vec2{c.Width / 2, c.Height / 2}, Size: Vec2{c.Width, c.Height}}
}

// RoundStats tracks per-round numbers for results and achievements
type RoundStats struct {
	Outcome          Outcome
	Duration         float64 // seconds of play
	BricksBroken     int
	BricksTotal      int
	HeartsLost       int
	TurboActivations int
	Effects          [effectKindCount]int
}

// EffectCounts returns the per-kind tallies keyed by name
func (s RoundStats) EffectCounts() map[string]int {
	m := make(map[string]int, effectKindCount)
	for k, n := range s.Effects {
		if n > 0 {
			m[EffectKind(k).String()] = n
		}
	}
	return m
}

// Flawless reports whether the round was won without losing a heart
func (s RoundStats) Flawless() bool {
	return s.Outcome == OutcomeWon && s.HeartsLost == 0
}
