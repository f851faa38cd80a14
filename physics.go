package main

// Contact is a touch that began this step between a moving entity and
// something it ran into. Normal is a unit axis pointing from Other
// toward Mover.
type Contact struct {
	Mover, Other *Entity
	Normal       Vec2
}

type pairKey struct{ a, b string }

func makePairKey(a, b *Entity) pairKey {
	if a.ID < b.ID {
		return pairKey{a.ID, b.ID}
	}
	return pairKey{b.ID, a.ID}
}

// Physics is the minimal engine behind a round: it integrates velocity,
// keeps paddles in the window, bounces ball-like entities off solid ones
// and reports each touching pair once until the pair separates.
type Physics struct {
	cfg      GameConfig
	grid     *SpatialGrid
	touching map[pairKey]bool
	list     []*Entity
	buf      []EntityRef
}

// NewPhysics creates an engine for the given window
func NewPhysics(cfg GameConfig) *Physics {
	return &Physics{
		cfg:      cfg,
		grid:     NewSpatialGrid(cfg.Width, cfg.Height),
		touching: make(map[pairKey]bool),
	}
}

// canCollide is the collision matrix. Balls and pucks hit the walls,
// bricks and both paddles; a falling heart only meets the main paddle.
func canCollide(mover, other *Entity) bool {
	switch {
	case mover.IsBallLike():
		switch other.Kind {
		case KindWall, KindBrick, KindPaddle, KindAuxPaddle:
			return true
		}
	case mover.Kind == KindHeart:
		return other.Kind == KindPaddle
	}
	return false
}

// Step advances the world by dt and returns the contacts that began
// during this step, in insertion order of the moving entities.
func (p *Physics) Step(world *World, dt float64) []Contact {
	p.list = world.Snapshot()
	for _, e := range p.list {
		e.Pos = e.Pos.Add(e.Vel.Mul(dt))
		if e.Kind == KindPaddle || e.Kind == KindAuxPaddle {
			clampPaddle(e, p.cfg)
		}
	}

	p.grid.Clear()
	for i, e := range p.list {
		if e.IsUI() {
			continue
		}
		p.grid.Insert(e.Bounds(), EntityRef{Kind: e.Kind, Idx: i})
	}

	now := make(map[pairKey]bool, len(p.touching))
	var contacts []Contact
	for _, m := range p.list {
		if !m.IsBallLike() && m.Kind != KindHeart {
			continue
		}
		p.buf = p.grid.QueryBuf(m.Bounds(), p.buf[:0])
		for _, ref := range p.buf {
			o := p.list[ref.Idx]
			if o == m || !canCollide(m, o) {
				continue
			}
			key := makePairKey(m, o)
			if now[key] {
				continue
			}
			dx, dy := m.Bounds().Overlap(o.Bounds())
			if dx <= 0 || dy <= 0 {
				continue
			}
			now[key] = true
			n, depth := contactNormal(m, o, dx, dy)
			if m.IsBallLike() {
				bounce(m, n, depth)
			}
			if !p.touching[key] {
				contacts = append(contacts, Contact{Mover: m, Other: o, Normal: n})
			}
		}
	}
	p.touching = now
	return contacts
}

// Reset forgets every touching pair
func (p *Physics) Reset() {
	p.touching = make(map[pairKey]bool)
}

// contactNormal picks the axis of least penetration
func contactNormal(m, o *Entity, dx, dy float64) (Vec2, float64) {
	if dx < dy {
		return Vec2{axisSign(m.Pos.X-o.Pos.X, m.Vel.X), 0}, dx
	}
	return Vec2{0, axisSign(m.Pos.Y-o.Pos.Y, m.Vel.Y)}, dy
}

// axisSign is the sign of offset; centers aligned on the axis fall back
// to pushing against the direction of travel.
func axisSign(offset, vel float64) float64 {
	switch {
	case offset > 0:
		return 1
	case offset < 0:
		return -1
	case vel > 0:
		return -1
	}
	return 1
}

// bounce pushes e out of the overlap and reflects its velocity if it is
// still heading into the surface
func bounce(e *Entity, n Vec2, depth float64) {
	e.Pos = e.Pos.Add(n.Mul(depth))
	if e.Vel.Dot(n) < 0 {
		e.Vel = e.Vel.Reflect(n)
	}
}
