package main

import (
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	// a terminal only reports presses, so a key counts as held for this
	// long after its last press (long enough to bridge key repeat)
	keyHold = 120 * time.Millisecond

	bounceTone     = 880
	bounceDuration = 40 * time.Millisecond
	bounceMinGap   = 60 * time.Millisecond
)

var sampleRate = beep.SampleRate(44100)

// heldKeys answers "is key down" from a stream of key presses
type heldKeys struct {
	mu   sync.Mutex
	last map[Key]time.Time
	now  func() time.Time
}

func newHeldKeys() *heldKeys {
	return &heldKeys{last: make(map[Key]time.Time), now: time.Now}
}

func (h *heldKeys) Press(k Key) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last[k] = h.now()
}

func (h *heldKeys) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.last)
}

// IsKeyDown implements KeyInput
func (h *heldKeys) IsKeyDown(k Key) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.last[k]
	return ok && h.now().Sub(t) < keyHold
}

// Terminal plays one local game in a tcell screen
type Terminal struct {
	screen tcell.Screen
	game   *Game
	pilot  *Member
	keys   *heldKeys
	prompt string // non-empty while the play-again dialog is open

	audio     bool
	lastSound time.Time
}

// RunTerminal plays until the user quits
func RunTerminal(cfg Config) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("new screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()

	// log lines would tear the screen
	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)

	t, err := NewTerminal(screen, cfg.Game())
	if err != nil {
		return err
	}
	if cfg.Sound {
		if err := t.initAudio(); err != nil {
			// Non-fatal, the game runs without sound
			fmt.Fprintf(os.Stderr, "audio initialization failed: %v\n", err)
		} else {
			defer speaker.Close()
		}
	}
	return t.Run()
}

// NewTerminal builds a game for screen with the given layout
func NewTerminal(screen tcell.Screen, gc GameConfig) (*Terminal, error) {
	game := NewGame(gc, nil)
	if err := game.Initialize(gc.Rows, gc.Cols); err != nil {
		return nil, err
	}
	t := &Terminal{
		screen: screen,
		game:   game,
		keys:   newHeldKeys(),
	}
	t.pilot = game.AddPlayer("local", Account{})
	game.input = t.keys
	game.onBounce = t.playBounce
	return t, nil
}

func (t *Terminal) initAudio() error {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return err
	}
	t.audio = true
	return nil
}

// playBounce runs on the game goroutine; bursts of contacts in one
// frame collapse into a single tone
func (t *Terminal) playBounce() {
	if !t.audio {
		return
	}
	now := time.Now()
	if now.Sub(t.lastSound) < bounceMinGap {
		return
	}
	t.lastSound = now
	sine, err := generators.SineTone(sampleRate, bounceTone)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(bounceDuration), sine))
}

// Run is the frame loop: input events and ticks are handled on one
// goroutine so the game sees a consistent view
func (t *Terminal) Run() error {
	done := make(chan struct{})
	defer close(done)
	events := pollEvents(t.screen, done)

	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()
	dt := 1.0 / float64(TickRate)

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if t.handleKey(ev) {
					return nil
				}
			case *tcell.EventResize:
				t.screen.Sync()
			}
		case <-ticker.C:
			if t.prompt == "" {
				switch t.game.Step(dt) {
				case OutcomeWon:
					t.prompt = "You Won! Play again? (y/n)"
				case OutcomeLost:
					t.prompt = "You Lost! Play again? (y/n)"
				}
			}
			t.draw()
		}
	}
}

// pollEvents forwards screen events until the screen is finalized or done
// is closed. The returned channel is closed when forwarding stops.
func pollEvents(screen tcell.Screen, done <-chan struct{}) <-chan tcell.Event {
	events := make(chan tcell.Event)
	go func() {
		defer close(events)
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()
	return events
}

// handleKey reports whether the user asked to quit
func (t *Terminal) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyLeft:
		t.keys.Press(KeyLeft)
		return false
	case tcell.KeyRight:
		t.keys.Press(KeyRight)
		return false
	}
	if ev.Key() != tcell.KeyRune {
		return false
	}

	r := ev.Rune()
	if t.prompt != "" {
		switch r {
		case 'y', 'Y':
			t.keys.Reset()
			if t.game.HandleRematch(t.pilot.ID) {
				t.prompt = ""
			}
		case 'n', 'N':
			return true
		}
		return false
	}
	switch r {
	case 'q', 'Q':
		return true
	case 'w', 'W':
		t.keys.Press(KeyForceWin)
	}
	return false
}

func kindStyle(kind string) (rune, tcell.Style) {
	base := tcell.StyleDefault
	switch EntityKind(kind[0]) {
	case KindWall:
		return '█', base.Foreground(tcell.ColorGray)
	case KindBrick:
		return '▒', base.Foreground(tcell.ColorOrange)
	case KindBall:
		return '●', base.Foreground(tcell.ColorWhite)
	case KindPuck:
		return '•', base.Foreground(tcell.ColorLightBlue)
	case KindPaddle:
		return '▀', base.Foreground(tcell.ColorTeal)
	case KindAuxPaddle:
		return '▀', base.Foreground(tcell.ColorYellow)
	case KindHeart, KindHeartUI:
		return '♥', base.Foreground(tcell.ColorRed)
	}
	return '?', base
}

var tierColor = map[string]tcell.Color{
	HealthGreen.String():  tcell.ColorGreen,
	HealthYellow.String(): tcell.ColorYellow,
	HealthRed.String():    tcell.ColorRed,
}

// draw scales the world onto the screen, keeping the last row for status
func (t *Terminal) draw() {
	state := t.game.State()
	t.screen.Clear()
	cols, rows := t.screen.Size()
	if rows < 2 || cols < 2 {
		t.screen.Show()
		return
	}
	sx := float64(cols) / state.Width
	sy := float64(rows-1) / state.Height

	for _, e := range state.Entities {
		if e.Kind == string(rune(KindHeartUI)) {
			continue // shown in the status line
		}
		ch, style := kindStyle(e.Kind)
		if e.Kind == string(rune(KindBall)) && e.Sprite == int(SpriteTurbo) {
			style = style.Foreground(tcell.ColorRed)
		}
		x0 := int(math.Floor((e.X - e.W/2) * sx))
		x1 := int(math.Ceil((e.X+e.W/2)*sx)) - 1
		y0 := int(math.Floor((e.Y - e.H/2) * sy))
		y1 := int(math.Ceil((e.Y+e.H/2)*sy)) - 1
		for y := max(y0, 0); y <= min(y1, rows-2); y++ {
			for x := max(x0, 0); x <= min(x1, cols-1); x++ {
				t.screen.SetContent(x, y, ch, nil, style)
			}
		}
	}

	status := fmt.Sprintf(" hearts %d", state.Hearts)
	if state.Turbo {
		status += "  TURBO"
	}
	status += "  ←/→ move  w win  q quit"
	if t.prompt != "" {
		status = " " + t.prompt
	}
	style := tcell.StyleDefault.Foreground(tierColor[state.Tier])
	for i, r := range []rune(status) {
		if i >= cols {
			break
		}
		t.screen.SetContent(i, rows-1, r, nil, style)
	}
	t.screen.Show()
}
