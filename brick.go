package main

// NewWalls creates the left, right and top walls. The bottom is open.
func NewWalls(cfg GameConfig) []*Entity {
	w, h, t := cfg.Width, cfg.Height, cfg.WallSize
	return []*Entity{
		{Kind: KindWall, Pos: Vec2{t / 2, h / 2}, Size: Vec2{t, h}},
		{Kind: KindWall, Pos: Vec2{w - t/2, h / 2}, Size: Vec2{t, h}},
		{Kind: KindWall, Pos: Vec2{w / 2, t / 2}, Size: Vec2{w, t}},
	}
}

// NewBricks lays out a rows x cols grid under the top wall, each brick
// carrying an effect drawn from factory at depth 0.
func NewBricks(cfg GameConfig, factory *StrategyFactory) []*Entity {
	bw := (cfg.Width - 2*cfg.WallSize) / float64(cfg.Cols)
	bh := cfg.BrickHeight
	bricks := make([]*Entity, 0, cfg.Rows*cfg.Cols)
	for r := 0; r < cfg.Rows; r++ {
		for c := 0; c < cfg.Cols; c++ {
			bricks = append(bricks, &Entity{
				Kind:     KindBrick,
				Pos:      Vec2{cfg.WallSize + bw*float64(c) + bw/2, cfg.WallSize + bh*float64(r) + bh/2},
				Size:     Vec2{bw, bh},
				Strategy: factory.Generate(0),
			})
		}
	}
	return bricks
}
