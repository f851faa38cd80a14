package main

// NewPaddle creates the main paddle centered at (W/2, 0.9H)
func NewPaddle(cfg GameConfig) *Entity {
	return &Entity{
		Kind: KindPaddle,
		Pos:  Vec2{cfg.Width / 2, cfg.PaddleY()},
		Size: Vec2{cfg.PaddleWidth, cfg.PaddleHeight},
	}
}

// NewAuxPaddle creates the auxiliary paddle at the window center
func NewAuxPaddle(cfg GameConfig) *Entity {
	return &Entity{
		Kind: KindAuxPaddle,
		Pos:  Vec2{cfg.Width / 2, cfg.Height / 2},
		Size: Vec2{cfg.PaddleWidth, cfg.PaddleHeight},
	}
}

// steerPaddle sets a paddle's horizontal velocity from the held keys.
// Left and right together cancel out.
func steerPaddle(p *Entity, input KeyInput, speed float64) {
	vx := 0.0
	if input != nil {
		if input.IsKeyDown(KeyLeft) {
			vx -= speed
		}
		if input.IsKeyDown(KeyRight) {
			vx += speed
		}
	}
	p.Vel = Vec2{vx, 0}
}

// clampPaddle keeps the paddle fully inside the window
func clampPaddle(p *Entity, cfg GameConfig) {
	half := p.Size.X / 2
	p.Pos.X = Clamp(p.Pos.X, half, cfg.Width-half)
}
