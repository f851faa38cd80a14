package main

import (
	"errors"
	"testing"
)

func TestGameConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(*GameConfig)
		want error
	}{
		{"default", func(*GameConfig) {}, nil},
		{"largest grid", func(c *GameConfig) { c.Rows, c.Cols = 37, MaxGridDim }, nil},
		{"zero rows", func(c *GameConfig) { c.Rows = 0 }, ErrInvalidGeometry},
		{"negative cols", func(c *GameConfig) { c.Cols = -1 }, ErrInvalidGeometry},
		{"rows over max", func(c *GameConfig) { c.Rows = MaxGridDim + 1 }, ErrGridTooLarge},
		{"cols over max", func(c *GameConfig) { c.Cols = MaxGridDim + 1 }, ErrGridTooLarge},
		{"narrow window", func(c *GameConfig) { c.Width = 2 * c.WallSize }, ErrInvalidGeometry},
		{"short window", func(c *GameConfig) { c.Height = 130 }, ErrBricksReachPaddle},
		{"rows down to paddle", func(c *GameConfig) { c.Rows = 38 }, ErrBricksReachPaddle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultGameConfig()
			tt.edit(&cfg)
			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("%v does not wrap ErrInvalidGeometry", err)
			}
		})
	}
}

func TestBricksClearPaddle(t *testing.T) {
	cfg := DefaultGameConfig()
	cfg.Rows = 37
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	f := NewStrategyFactory(nil)
	paddle := NewPaddle(cfg)
	for _, b := range NewBricks(cfg, f) {
		if b.Bounds().Intersects(paddle.Bounds()) {
			t.Fatalf("brick at %v overlaps the paddle", b.Pos)
		}
	}
}
