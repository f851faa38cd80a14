package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	TickRate       = 60 // physics ticks per second
	BroadcastRate  = 30 // state broadcasts per second
	TickDuration   = time.Second / TickRate
	BroadcastEvery = TickRate / BroadcastRate
)

const maxMembersPerSession = 20

// Broadcaster interface for sending messages to clients
type Broadcaster interface {
	SendJSON(msg interface{})
}

// binarySender is implemented by clients that accept msgpack frames
type binarySender interface {
	SendBinary(data []byte)
}

// EventSink receives gameplay analytics events
type EventSink interface {
	Track(evtType string, playerID int64, sessionID string, data string)
}

// RoundRecorder persists a finished round for an authenticated pilot and
// returns any achievements it unlocked
type RoundRecorder interface {
	RecordRound(playerID int64, sessionID string, s RoundStats) ([]AchievementDef, error)
}

// Member is someone attached to a session: the pilot or a spectator
type Member struct {
	ID      string
	Name    string
	Account Account // zero for guests
	Pilot   bool
	seq     int
}

// Game is one round-based brick-breaker session. The exported core
// operations (Initialize, OnFrame, OnCollision) expect the caller to
// serialize access; Run and the Handle* methods do so under mu.
type Game struct {
	mu      sync.Mutex
	cfg     GameConfig
	rng     *rand.Rand
	world   *World
	physics *Physics
	health  *HealthTracker
	factory *StrategyFactory

	ball      *Entity
	paddle    *Entity
	auxPaddle *Entity // nil when no auxiliary paddle is live
	turbo     bool

	// hearts collected by the paddle, removed at the start of the next frame
	pendingRemoval []*Entity

	keys  InputState
	input KeyInput

	phase RoundPhase
	round RoundStats
	tick  uint64

	sessionID   string
	members     map[string]*Member
	nextSeq     int
	clients     map[string]Broadcaster // memberID -> client
	controllers map[string]Broadcaster // pilotID -> phone controller
	events      EventSink
	recorder    RoundRecorder
	onBounce    func()

	running bool
	stop    chan struct{}
}

// NewGame creates a game with the given layout. A nil rng is replaced by
// a randomly seeded one. The game stays idle until Initialize builds the
// first round.
func NewGame(cfg GameConfig, rng *rand.Rand) *Game {
	if rng == nil {
		rng = NewRand()
	}
	g := &Game{
		cfg:         cfg,
		rng:         rng,
		world:       NewWorld(),
		physics:     NewPhysics(cfg),
		factory:     NewStrategyFactory(rng),
		members:     make(map[string]*Member),
		clients:     make(map[string]Broadcaster),
		controllers: make(map[string]Broadcaster),
		stop:        make(chan struct{}),
	}
	g.input = &g.keys
	return g
}

// Initialize builds a fresh round with a rows x cols brick grid. It
// resets turbo, the auxiliary paddle, health and the pending-removal
// queue. Non-positive dimensions are rejected with ErrInvalidGeometry
// and leave the current round untouched.
func (g *Game) Initialize(rows, cols int) error {
	cfg := g.cfg
	cfg.Rows, cfg.Cols = rows, cols
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	g.cfg = cfg

	g.world.Clear()
	g.turbo = false
	g.auxPaddle = nil
	g.pendingRemoval = nil
	g.physics.Reset()

	g.health = NewHealthTracker(g.world, cfg.Height)
	g.health.Start()

	for _, w := range NewWalls(cfg) {
		g.world.Add(w)
	}
	for _, b := range NewBricks(cfg, g.factory) {
		g.world.Add(b)
	}
	g.paddle = NewPaddle(cfg)
	g.world.Add(g.paddle)
	g.ball = NewBall(cfg, g.rng)
	g.world.Add(g.ball)

	g.phase = PhasePlaying
	g.round = RoundStats{BricksTotal: rows * cols}
	g.track(EvtRoundStart, map[string]any{"rows": rows, "cols": cols})
	return nil
}

// OnFrame runs the per-frame reconciliation pass. The order of the steps
// matters: later steps read counters earlier ones may have changed.
func (g *Game) OnFrame(dt float64) Outcome {
	g.round.Duration += dt

	// 1. health, then hearts collected since the last frame
	g.health.Update()
	for _, e := range g.pendingRemoval {
		g.world.Remove(e)
	}
	g.pendingRemoval = nil

	outcome := OutcomeContinue

	// 2. ball lost below the window
	if g.ball.Pos.Y > g.cfg.Height {
		g.replaceBall()
		if g.health.Count() == 0 {
			outcome = OutcomeLost
		}
	}

	// 3. win; a loss on the same frame takes precedence
	if outcome == OutcomeContinue && (g.forceWin() || g.world.Count(KindBrick) == 0) {
		outcome = OutcomeWon
	}

	// 4. cull everything but the primary ball
	g.cullOutOfBounds()

	// 5. auxiliary paddle expiry
	if g.auxPaddle != nil && g.auxPaddle.Hits >= g.cfg.AuxPaddleHits {
		g.world.Remove(g.auxPaddle)
		g.auxPaddle = nil
	}

	// 6. turbo expiry
	if g.turbo && g.ball.TurboHits >= g.cfg.MaxTurbo {
		g.deactivateTurbo()
	}

	if outcome != OutcomeContinue {
		g.round.Outcome = outcome
	}
	return outcome
}

// OnCollision handles a new contact between a and b: both entities update
// their own counters, a struck brick runs its effect, and a falling heart
// that touched the paddle is collected. Contacts involving an entity that
// is no longer live are ignored.
func (g *Game) OnCollision(a, b *Entity) {
	if !g.world.Contains(a) || !g.world.Contains(b) {
		return
	}
	a.onCollisionEnter(b, g.turbo)
	b.onCollisionEnter(a, g.turbo)

	switch {
	case a.Kind == KindBrick:
		g.strike(a, b)
	case b.Kind == KindBrick:
		g.strike(b, a)
	case a.Kind == KindHeart && b.Kind == KindPaddle:
		g.collectHeart(a)
	case b.Kind == KindHeart && a.Kind == KindPaddle:
		g.collectHeart(b)
	}
}

func (g *Game) strike(brick, counterpart *Entity) {
	eff := brick.Strategy
	if eff == nil {
		eff = RemoveEffect{}
	}
	g.applyEffect(eff, brick, counterpart)
}

func (g *Game) collectHeart(heart *Entity) {
	if slices.Contains(g.pendingRemoval, heart) {
		return
	}
	g.health.OnPickupCollected()
	g.pendingRemoval = append(g.pendingRemoval, heart)
}

// replaceBall costs a heart and swaps the lost ball for a fresh one. An
// active turbo carries over: speed, sprite and collision counter.
func (g *Game) replaceBall() {
	hits := g.ball.TurboHits
	g.world.Remove(g.ball)

	g.health.RemoveHeart()
	g.round.HeartsLost++
	g.track(EvtHeartLost, map[string]any{"hearts": g.health.Count()})

	g.ball = NewBall(g.cfg, g.rng)
	g.world.Add(g.ball)
	if g.turbo {
		g.boostBall()
		g.ball.TurboHits = hits
	}
}

func (g *Game) forceWin() bool {
	return g.input != nil && g.input.IsKeyDown(KeyForceWin)
}

func (g *Game) cullOutOfBounds() {
	area := g.cfg.PlayArea()
	for _, e := range g.world.Snapshot() {
		if e == g.ball || area.ContainsPoint(e.Pos) {
			continue
		}
		g.world.Remove(e)
		if e == g.auxPaddle {
			g.auxPaddle = nil
		}
	}
}

// activateTurbo speeds up the primary ball; callers check g.turbo first
func (g *Game) activateTurbo() {
	g.turbo = true
	g.boostBall()
	g.ball.TurboHits = 0
	g.round.TurboActivations++
}

func (g *Game) boostBall() {
	g.ball.Vel = g.ball.Vel.Mul(g.cfg.TurboFactor)
	g.ball.Sprite = SpriteTurbo
}

func (g *Game) deactivateTurbo() {
	g.ball.Vel = g.ball.Vel.Mul(1 / g.cfg.TurboFactor)
	g.ball.Sprite = SpriteNormal
	g.ball.TurboHits = 0
	g.turbo = false
}

// advance runs one simulation step: paddles steer, the engine moves
// everything and reports contacts, then the frame is reconciled.
func (g *Game) advance(dt float64) Outcome {
	steerPaddle(g.paddle, g.input, g.cfg.PaddleSpeed)
	if g.auxPaddle != nil {
		steerPaddle(g.auxPaddle, g.input, g.cfg.PaddleSpeed)
	}
	for _, c := range g.physics.Step(g.world, dt) {
		if g.onBounce != nil && c.Mover.IsBallLike() {
			g.onBounce()
		}
		g.OnCollision(c.Mover, c.Other)
	}
	out := g.OnFrame(dt)
	if out != OutcomeContinue {
		g.endRound(out)
	}
	return out
}

// Step advances a playing round by dt. Finished rounds stay frozen until
// Rematch.
func (g *Game) Step(dt float64) Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhasePlaying {
		return OutcomeContinue
	}
	return g.advance(dt)
}

// endRound freezes the round, reports it and hands it to the recorder
func (g *Game) endRound(out Outcome) {
	g.phase = PhaseOver
	stats := g.round
	log.Printf("session %s: round %s after %.1fs (%d/%d bricks, %d hearts lost)",
		g.sessionID, out, stats.Duration, stats.BricksBroken, stats.BricksTotal, stats.HeartsLost)
	g.track(EvtRoundEnd, map[string]any{
		"outcome":  out.String(),
		"duration": round1(stats.Duration),
		"bricks":   stats.BricksBroken,
		"effects":  stats.EffectCounts(),
	})

	prompt := "You Lost! Play again?"
	if out == OutcomeWon {
		prompt = "You Won! Play again?"
	}
	g.broadcastMsg(Envelope{T: MsgRoundOver, Data: RoundOverMsg{
		Outcome:      out.String(),
		Duration:     round1(stats.Duration),
		BricksBroken: stats.BricksBroken,
		BricksTotal:  stats.BricksTotal,
		HeartsLost:   stats.HeartsLost,
		Effects:      stats.EffectCounts(),
		Prompt:       prompt,
	}})

	pilot := g.pilot()
	if g.recorder == nil || pilot == nil || pilot.Account.Guest() {
		return
	}
	client := g.clients[pilot.ID]
	go g.persistRound(pilot.Account.ID, stats, client)
}

// persistRound runs off the game loop so the database never stalls a tick
func (g *Game) persistRound(authID int64, stats RoundStats, client Broadcaster) {
	unlocked, err := g.recorder.RecordRound(authID, g.sessionID, stats)
	if err != nil {
		log.Printf("session %s: record round: %v", g.sessionID, err)
		return
	}
	for _, a := range unlocked {
		trackEvent(g.events, EvtAchievement, authID, g.sessionID, map[string]any{"id": a.ID})
		if client != nil {
			client.SendJSON(Envelope{T: MsgAchievement, Data: AchievementMsg{
				ID: a.ID, Name: a.Name, Description: a.Description,
			}})
		}
	}
}

// track reports an event on behalf of the current pilot
func (g *Game) track(evt string, data map[string]any) {
	var pid int64
	if p := g.pilot(); p != nil {
		pid = p.Account.ID
	}
	trackEvent(g.events, evt, pid, g.sessionID, data)
}

// trackEvent forwards an event with JSON metadata to sink, if any
func trackEvent(sink EventSink, evt string, playerID int64, sessionID string, data map[string]any) {
	if sink == nil {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("analytics: marshal %s: %v", evt, err)
		return
	}
	sink.Track(evt, playerID, sessionID, string(raw))
}

// Run starts the game loop
func (g *Game) Run() {
	g.mu.Lock()
	g.running = true
	g.mu.Unlock()

	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.update()
		case <-g.stop:
			return
		}
	}
}

// Stop terminates the game loop
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		g.running = false
		close(g.stop)
	}
}

// update runs one game tick
func (g *Game) update() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.tick++
	if g.phase == PhasePlaying {
		g.advance(1.0 / float64(TickRate))
	}
	if g.tick%BroadcastEvery == 0 {
		g.broadcastState()
	}
}

// AddPlayer attaches a member flying under acct. The first member
// pilots; later ones spectate. An empty name falls back to the account's
// username. Returns nil when the session is full.
func (g *Game) AddPlayer(name string, acct Account) *Member {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.members) >= maxMembersPerSession {
		return nil
	}
	if name == "" {
		name = acct.Username
	}
	g.nextSeq++
	m := &Member{
		ID:      GenerateID(4),
		Name:    name,
		Account: acct,
		Pilot:   g.pilot() == nil,
		seq:     g.nextSeq,
	}
	g.members[m.ID] = m
	return m
}

// RemovePlayer detaches a member. If the pilot leaves, the longest-waiting
// spectator takes over with no keys held.
func (g *Game) RemovePlayer(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	m, ok := g.members[id]
	if !ok {
		return
	}
	delete(g.members, id)
	delete(g.clients, id)
	if ctrl, ok := g.controllers[id]; ok {
		ctrl.SendJSON(Envelope{T: MsgSessionEnd})
		delete(g.controllers, id)
	}
	if !m.Pilot {
		return
	}
	g.keys = InputState{}
	var next *Member
	for _, o := range g.members {
		if next == nil || o.seq < next.seq {
			next = o
		}
	}
	if next != nil {
		next.Pilot = true
		if c, ok := g.clients[next.ID]; ok {
			c.SendJSON(Envelope{T: MsgPilot, Data: map[string]string{"id": next.ID}})
		}
	}
}

// SetClient associates a broadcaster with a member
func (g *Game) SetClient(memberID string, client Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients[memberID] = client
}

// SetController attaches a phone controller to the pilot
func (g *Game) SetController(pilotID string, client Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.controllers[pilotID] = client
	if c, ok := g.clients[pilotID]; ok {
		c.SendJSON(Envelope{T: MsgCtrlOn})
	}
}

// RemoveController detaches the pilot's phone controller
func (g *Game) RemoveController(pilotID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.controllers[pilotID]; !ok {
		return
	}
	delete(g.controllers, pilotID)
	if c, ok := g.clients[pilotID]; ok {
		c.SendJSON(Envelope{T: MsgCtrlOff})
	}
}

// HasPlayer reports whether id is an attached member
func (g *Game) HasPlayer(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.members[id]
	return ok
}

// IsPilot reports whether id currently pilots the session
func (g *Game) IsPilot(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.members[id]
	return ok && m.Pilot
}

// PlayerCount returns the number of attached members
func (g *Game) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.members)
}

// HandleInput records the pilot's held keys. Input from spectators is
// ignored.
func (g *Game) HandleInput(playerID string, input ClientInput) {
	g.mu.Lock()
	defer g.mu.Unlock()

	m, ok := g.members[playerID]
	if !ok || !m.Pilot {
		return
	}
	g.keys = InputState{Left: input.Left, Right: input.Right, ForceWin: input.Win}
}

// HandleRematch starts a new round with the same geometry once the pilot
// answers "play again". It reports whether a round was started.
func (g *Game) HandleRematch(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	m, ok := g.members[playerID]
	if !ok || !m.Pilot || g.phase != PhaseOver {
		return false
	}
	if err := g.Initialize(g.cfg.Rows, g.cfg.Cols); err != nil {
		// geometry was validated when the session was created
		log.Printf("session %s: rematch: %v", g.sessionID, err)
		return false
	}
	g.keys = InputState{}
	g.broadcastMsg(Envelope{T: MsgRoundStart, Data: map[string]int{"rows": g.cfg.Rows, "cols": g.cfg.Cols}})
	return true
}

// Phase returns the current round phase
func (g *Game) Phase() RoundPhase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// Config returns the layout of the current round
func (g *Game) Config() GameConfig {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cfg
}

func (g *Game) pilot() *Member {
	for _, m := range g.members {
		if m.Pilot {
			return m
		}
	}
	return nil
}

// State returns a snapshot of the current round
func (g *Game) State() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot()
}

// snapshot builds the wire state of the current round
func (g *Game) snapshot() GameState {
	if g.health == nil {
		return GameState{Width: g.cfg.Width, Height: g.cfg.Height, Tick: g.tick}
	}
	list := g.world.Snapshot()
	hearts, tier := g.health.Display()
	state := GameState{
		Entities: make([]EntityState, 0, len(list)),
		Hearts:   hearts,
		Tier:     tier.String(),
		Turbo:    g.turbo,
		Over:     g.phase == PhaseOver,
		Width:    g.cfg.Width,
		Height:   g.cfg.Height,
		Tick:     g.tick,
	}
	for _, e := range list {
		state.Entities = append(state.Entities, e.ToState())
	}
	return state
}

// broadcastState sends the current state to every client as msgpack.
// Phone controllers don't render and are skipped.
func (g *Game) broadcastState() {
	data, err := msgpack.Marshal(g.snapshot())
	if err != nil {
		log.Printf("msgpack marshal error: %v", err)
		return
	}
	for _, client := range g.clients {
		if c, ok := client.(binarySender); ok {
			c.SendBinary(data)
		}
	}
}

// broadcastMsg sends a message to all clients in the session
func (g *Game) broadcastMsg(msg Envelope) {
	for _, client := range g.clients {
		client.SendJSON(msg)
	}
}

// Close notifies everyone that the session ended
func (g *Game) Close() {
	g.mu.Lock()
	for _, c := range g.clients {
		c.SendJSON(Envelope{T: MsgSessionEnd})
	}
	for _, c := range g.controllers {
		c.SendJSON(Envelope{T: MsgSessionEnd})
	}
	g.mu.Unlock()
	g.Stop()
}
