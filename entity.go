package main

// EntityKind tags what an entity is; the tag decides collision behavior
type EntityKind byte

const (
	KindWall      EntityKind = 'w'
	KindBrick     EntityKind = 'b'
	KindBall      EntityKind = 'o' // the primary ball, exactly one live
	KindPuck      EntityKind = 'p'
	KindPaddle    EntityKind = 'P'
	KindAuxPaddle EntityKind = 'x'
	KindHeart     EntityKind = 'h' // falling health pickup
	KindHeartUI   EntityKind = 'u' // heart drawn in the health strip
)

func (k EntityKind) String() string {
	switch k {
	case KindWall:
		return "wall"
	case KindBrick:
		return "brick"
	case KindBall:
		return "ball"
	case KindPuck:
		return "puck"
	case KindPaddle:
		return "paddle"
	case KindAuxPaddle:
		return "aux_paddle"
	case KindHeart:
		return "heart"
	case KindHeartUI:
		return "heart_ui"
	}
	return "unknown"
}

// Sprite is the visual variant a shell should draw
type Sprite int

const (
	SpriteNormal Sprite = 0
	SpriteTurbo  Sprite = 1
)

// Entity is one object in the live simulation set
type Entity struct {
	ID     string
	Kind   EntityKind
	Pos    Vec2 // center
	Size   Vec2
	Vel    Vec2
	Sprite Sprite

	// Strategy is the effect a brick runs when struck; nil for other kinds.
	Strategy Effect

	// TurboHits counts primary-ball collisions while turbo is active.
	TurboHits int
	// Hits counts ball and puck contacts on the auxiliary paddle.
	Hits int

	seq uint64
}

// Bounds returns the entity's box
func (e *Entity) Bounds() Rect {
	return Rect{Center: e.Pos, Size: e.Size}
}

// IsBallLike reports whether the entity bounces off what it hits
func (e *Entity) IsBallLike() bool {
	return e.Kind == KindBall || e.Kind == KindPuck
}

// IsUI reports whether the entity lives in the UI strip and never collides
func (e *Entity) IsUI() bool {
	return e.Kind == KindHeartUI
}

// onCollisionEnter applies the entity's own counters for a new contact
func (e *Entity) onCollisionEnter(other *Entity, turbo bool) {
	switch e.Kind {
	case KindBall:
		if turbo {
			e.TurboHits++
		}
	case KindAuxPaddle:
		if other.IsBallLike() {
			e.Hits++
		}
	}
}

// ToState converts to protocol state
func (e *Entity) ToState() EntityState {
	return EntityState{
		ID:     e.ID,
		Kind:   string(rune(e.Kind)),
		X:      round1(e.Pos.X),
		Y:      round1(e.Pos.Y),
		W:      round1(e.Size.X),
		H:      round1(e.Size.Y),
		Sprite: int(e.Sprite),
	}
}
