package main

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
)

func newTestTerminal(t *testing.T) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(80, 40)
	term, err := NewTerminal(screen, DefaultGameConfig())
	if err != nil {
		t.Fatal(err)
	}
	return term, screen
}

func runeKey(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestTerminalQuitKeys(t *testing.T) {
	term, _ := newTestTerminal(t)
	if !term.handleKey(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Error("Esc should quit")
	}
	if !term.handleKey(runeKey('q')) {
		t.Error("q should quit")
	}
	if term.handleKey(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone)) {
		t.Error("arrow keys should not quit")
	}
	if !term.keys.IsKeyDown(KeyLeft) {
		t.Error("left arrow should hold KeyLeft")
	}
}

func TestTerminalForceWinAndPlayAgain(t *testing.T) {
	term, _ := newTestTerminal(t)
	term.handleKey(runeKey('w'))
	if out := term.game.Step(1.0 / 60); out != OutcomeWon {
		t.Fatalf("outcome = %v, want won", out)
	}
	term.prompt = "You Won! Play again? (y/n)"

	// q does not quit while the dialog is open
	if term.handleKey(runeKey('q')) {
		t.Error("q should be ignored by the dialog")
	}
	if term.handleKey(runeKey('y')) {
		t.Fatal("y should not quit")
	}
	if term.prompt != "" || term.game.Phase() != PhasePlaying {
		t.Error("y should start a new round")
	}
	if term.keys.IsKeyDown(KeyForceWin) {
		t.Error("held keys should reset for the new round")
	}

	term.prompt = "You Lost! Play again? (y/n)"
	if !term.handleKey(runeKey('n')) {
		t.Error("n should quit")
	}
}

func TestTerminalDrawStatusLine(t *testing.T) {
	term, screen := newTestTerminal(t)
	term.draw()

	cells, w, h := screen.GetContents()
	var b strings.Builder
	for x := 0; x < w; x++ {
		c := cells[(h-1)*w+x]
		if len(c.Runes) > 0 {
			b.WriteRune(c.Runes[0])
		}
	}
	if line := b.String(); !strings.HasPrefix(line, " hearts 3") {
		t.Errorf("status line = %q", line)
	}
}

func TestKindStyle(t *testing.T) {
	for _, k := range []EntityKind{KindWall, KindBrick, KindBall, KindPuck, KindPaddle, KindAuxPaddle, KindHeart} {
		if r, _ := kindStyle(string(rune(k))); r == '?' {
			t.Errorf("no glyph for %s", k)
		}
	}
}

func TestPollEventsStopsWhenDone(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	done := make(chan struct{})
	events := pollEvents(screen, done)

	// nobody reads: the forwarder holds this event until done closes
	screen.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)
	time.Sleep(20 * time.Millisecond)
	close(done)
	screen.Fini()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("event forwarder still running after done and Fini")
		}
	}
}

func TestTerminalRunQuits(t *testing.T) {
	term, screen := newTestTerminal(t)
	result := make(chan error, 1)
	go func() { result <- term.Run() }()
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	select {
	case err := <-result:
		if err != nil {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after q")
	}
}
