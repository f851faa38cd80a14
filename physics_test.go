package main

import "testing"

func physicsWorld(entities ...*Entity) *World {
	w := NewWorld()
	for _, e := range entities {
		w.Add(e)
	}
	return w
}

func TestPhysicsBallBouncesOffTopWall(t *testing.T) {
	cfg := DefaultGameConfig()
	wall := &Entity{Kind: KindWall, Pos: Vec2{250, 7.5}, Size: Vec2{500, 15}}
	ball := &Entity{Kind: KindBall, Pos: Vec2{100, 22}, Size: Vec2{20, 20}, Vel: Vec2{0, -300}}
	w := physicsWorld(wall, ball)

	contacts := NewPhysics(cfg).Step(w, 1.0/60)
	if len(contacts) != 1 {
		t.Fatalf("contacts = %d, want 1", len(contacts))
	}
	c := contacts[0]
	if c.Mover != ball || c.Other != wall {
		t.Errorf("contact %s->%s, want ball->wall", c.Mover.Kind, c.Other.Kind)
	}
	if c.Normal != (Vec2{0, 1}) {
		t.Errorf("normal = %v, want (0,1)", c.Normal)
	}
	if ball.Vel != (Vec2{0, 300}) {
		t.Errorf("velocity = %v, want reflected (0,300)", ball.Vel)
	}
	if top := ball.Pos.Y - ball.Size.Y/2; top < 15-1e-9 {
		t.Errorf("ball top at %g, want pushed below the wall", top)
	}
}

func TestPhysicsReportsContactOnce(t *testing.T) {
	cfg := DefaultGameConfig()
	paddle := &Entity{Kind: KindPaddle, Pos: Vec2{250, 585}, Size: Vec2{100, 15}}
	heart := &Entity{Kind: KindHeart, Pos: Vec2{250, 580}, Size: Vec2{20, 20}}
	w := physicsWorld(paddle, heart)
	p := NewPhysics(cfg)

	if n := len(p.Step(w, 1.0/60)); n != 1 {
		t.Fatalf("first step contacts = %d, want 1", n)
	}
	if n := len(p.Step(w, 1.0/60)); n != 0 {
		t.Errorf("still touching: contacts = %d, want 0", n)
	}

	heart.Pos.Y = 400
	if n := len(p.Step(w, 1.0/60)); n != 0 {
		t.Errorf("separated: contacts = %d, want 0", n)
	}
	heart.Pos.Y = 580
	if n := len(p.Step(w, 1.0/60)); n != 1 {
		t.Errorf("touching again: contacts = %d, want 1", n)
	}

	p.Reset()
	if n := len(p.Step(w, 1.0/60)); n != 1 {
		t.Errorf("after Reset: contacts = %d, want 1", n)
	}
}

func TestPhysicsCollisionMatrix(t *testing.T) {
	ball := &Entity{Kind: KindBall}
	puck := &Entity{Kind: KindPuck}
	heart := &Entity{Kind: KindHeart}
	tests := []struct {
		mover, other *Entity
		want         bool
	}{
		{ball, &Entity{Kind: KindWall}, true},
		{ball, &Entity{Kind: KindBrick}, true},
		{ball, &Entity{Kind: KindPaddle}, true},
		{ball, &Entity{Kind: KindAuxPaddle}, true},
		{puck, &Entity{Kind: KindBrick}, true},
		{puck, &Entity{Kind: KindAuxPaddle}, true},
		{ball, puck, false},
		{puck, &Entity{Kind: KindPuck}, false},
		{ball, &Entity{Kind: KindHeart}, false},
		{ball, &Entity{Kind: KindHeartUI}, false},
		{heart, &Entity{Kind: KindPaddle}, true},
		{heart, &Entity{Kind: KindAuxPaddle}, false},
		{heart, &Entity{Kind: KindBrick}, false},
		{&Entity{Kind: KindBrick}, &Entity{Kind: KindWall}, false},
	}
	for _, tt := range tests {
		if got := canCollide(tt.mover, tt.other); got != tt.want {
			t.Errorf("canCollide(%s, %s) = %v, want %v", tt.mover.Kind, tt.other.Kind, got, tt.want)
		}
	}
}

func TestPhysicsClampsPaddle(t *testing.T) {
	cfg := DefaultGameConfig()
	paddle := NewPaddle(cfg)
	paddle.Pos.X = 55
	paddle.Vel = Vec2{-cfg.PaddleSpeed, 0}
	w := physicsWorld(paddle)

	NewPhysics(cfg).Step(w, 0.1)
	if paddle.Pos.X != cfg.PaddleWidth/2 {
		t.Errorf("paddle x = %g, want %g", paddle.Pos.X, cfg.PaddleWidth/2)
	}

	paddle.Pos.X = cfg.Width - 55
	paddle.Vel = Vec2{cfg.PaddleSpeed, 0}
	NewPhysics(cfg).Step(w, 0.1)
	if paddle.Pos.X != cfg.Width-cfg.PaddleWidth/2 {
		t.Errorf("paddle x = %g, want %g", paddle.Pos.X, cfg.Width-cfg.PaddleWidth/2)
	}
}

func TestSteerPaddle(t *testing.T) {
	p := NewPaddle(DefaultGameConfig())
	tests := []struct {
		in   InputState
		want float64
	}{
		{InputState{}, 0},
		{InputState{Left: true}, -300},
		{InputState{Right: true}, 300},
		{InputState{Left: true, Right: true}, 0},
	}
	for _, tt := range tests {
		steerPaddle(p, &tt.in, 300)
		if p.Vel != (Vec2{tt.want, 0}) {
			t.Errorf("steer %+v: velocity %v, want (%g,0)", tt.in, p.Vel, tt.want)
		}
	}
	steerPaddle(p, nil, 300)
	if p.Vel != (Vec2{}) {
		t.Error("nil input should stop the paddle")
	}
}

func TestAxisSign(t *testing.T) {
	if axisSign(3, 0) != 1 || axisSign(-3, 0) != -1 {
		t.Error("sign should follow the offset")
	}
	if axisSign(0, 5) != -1 || axisSign(0, -5) != 1 {
		t.Error("aligned centers should push against travel")
	}
}
