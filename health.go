package main

const (
	StartingHearts = 3
	MaxHearts      = 4
	HeartSize      = 20.0
)

// HealthTier is the severity color of the health counter
type HealthTier int

const (
	HealthGreen  HealthTier = 0 // 3 or more hearts
	HealthYellow HealthTier = 1 // 2 hearts
	HealthRed    HealthTier = 2 // 1 heart
)

func (t HealthTier) String() string {
	switch t {
	case HealthYellow:
		return "yellow"
	case HealthRed:
		return "red"
	}
	return "green"
}

// HealthTracker owns the bounded health pool. Each point of health is
// mirrored by one heart entity in the UI strip, so the number of live
// KindHeartUI entities always equals Count().
type HealthTracker struct {
	world   *World
	windowH float64
	hearts  [MaxHearts]*Entity
	count   int
	pending bool
	tier    HealthTier
}

// NewHealthTracker creates an empty tracker drawing hearts into world
func NewHealthTracker(world *World, windowH float64) *HealthTracker {
	return &HealthTracker{world: world, windowH: windowH}
}

// Start fills the pool with the starting hearts
func (h *HealthTracker) Start() {
	for i := 0; i < StartingHearts; i++ {
		h.AddHeart()
	}
	h.refreshTier()
}

// AddHeart adds one heart; no-op at MaxHearts
func (h *HealthTracker) AddHeart() {
	if h.count >= MaxHearts {
		return
	}
	slot := h.count
	heart := &Entity{
		Kind: KindHeartUI,
		Pos:  Vec2{HeartSize*float64(slot+1) + HeartSize/2, h.windowH - HeartSize/2},
		Size: Vec2{HeartSize, HeartSize},
	}
	h.world.Add(heart)
	h.hearts[slot] = heart
	h.count++
}

// RemoveHeart removes the most recently added heart; no-op at zero
func (h *HealthTracker) RemoveHeart() {
	if h.count == 0 {
		return
	}
	h.count--
	h.world.Remove(h.hearts[h.count])
	h.hearts[h.count] = nil
}

// OnPickupCollected requests one heart. The request is applied by the
// next Update so it lands in the ordered frame pass.
func (h *HealthTracker) OnPickupCollected() {
	h.pending = true
}

// Update consumes a pending pickup and refreshes the displayed tier.
// A pending request at full health is dropped rather than kept, so it
// cannot grant a heart later after health falls below the cap.
func (h *HealthTracker) Update() {
	if h.pending {
		if h.count < MaxHearts {
			h.AddHeart()
		}
		h.pending = false
	}
	h.refreshTier()
}

func (h *HealthTracker) refreshTier() {
	switch {
	case h.count >= 3:
		h.tier = HealthGreen
	case h.count == 2:
		h.tier = HealthYellow
	case h.count == 1:
		h.tier = HealthRed
	}
}

// Count returns the current health
func (h *HealthTracker) Count() int {
	return h.count
}

// Pending reports whether a pickup is waiting for the next Update
func (h *HealthTracker) Pending() bool {
	return h.pending
}

// Display returns the count and color tier to show. At zero the tier
// stays whatever it was last.
func (h *HealthTracker) Display() (int, HealthTier) {
	return h.count, h.tier
}
