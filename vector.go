package main

import "math"

// Vec2 is a 2D vector in world units. Y grows downward, as on screen.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

// Sub returns v - o
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

// Mul scales v by s
func (v Vec2) Mul(s float64) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// Dot returns the dot product
func (v Vec2) Dot(o Vec2) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Len returns the magnitude
func (v Vec2) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Reflect mirrors v about a unit normal: v - 2(v·n)n
func (v Vec2) Reflect(n Vec2) Vec2 {
	return v.Sub(n.Mul(2 * v.Dot(n)))
}

// Rect is an axis-aligned box described by its center and full size
type Rect struct {
	Center Vec2
	Size   Vec2
}

// Min returns the top-left corner
func (r Rect) Min() Vec2 {
	return Vec2{r.Center.X - r.Size.X/2, r.Center.Y - r.Size.Y/2}
}

// Max returns the bottom-right corner
func (r Rect) Max() Vec2 {
	return Vec2{r.Center.X + r.Size.X/2, r.Center.Y + r.Size.Y/2}
}

// Overlap returns the penetration depth on each axis; both are positive
// only when the boxes intersect.
func (r Rect) Overlap(o Rect) (dx, dy float64) {
	dx = (r.Size.X+o.Size.X)/2 - math.Abs(r.Center.X-o.Center.X)
	dy = (r.Size.Y+o.Size.Y)/2 - math.Abs(r.Center.Y-o.Center.Y)
	return dx, dy
}

// Intersects reports whether two boxes overlap with non-zero area
func (r Rect) Intersects(o Rect) bool {
	dx, dy := r.Overlap(o)
	return dx > 0 && dy > 0
}

// ContainsPoint reports whether p lies inside r, edges included
func (r Rect) ContainsPoint(p Vec2) bool {
	min, max := r.Min(), r.Max()
	return p.X >= min.X && p.X <= max.X && p.Y >= min.Y && p.Y <= max.Y
}
