package main

const (
	HeartFallSpeed = 100.0
	// HeartSpawnOffset moves a new heart below the brick it came from so
	// it does not start inside the brick row.
	HeartSpawnOffset = 10.0
)

// NewFallingHeart creates a health pickup falling from just below center
func NewFallingHeart(center Vec2) *Entity {
	return &Entity{
		Kind: KindHeart,
		Pos:  Vec2{center.X, center.Y + HeartSpawnOffset},
		Size: Vec2{HeartSize, HeartSize},
		Vel:  Vec2{0, HeartFallSpeed},
	}
}
