package main

import (
	"testing"
	"time"
)

func TestInputFrameRoundTrip(t *testing.T) {
	for flags := 0; flags < 8; flags++ {
		in := ClientInput{Left: flags&1 != 0, Right: flags&2 != 0, Win: flags&4 != 0}
		got, ok := DecodeInputFrame(EncodeInputFrame(in))
		if !ok || got != in {
			t.Errorf("round trip %+v = %+v, %v", in, got, ok)
		}
	}
}

func TestDecodeInputFrameRejectsGarbage(t *testing.T) {
	for _, msg := range [][]byte{nil, {0x01}, {0x02, 0x01}, {0x01, 0x01, 0x00}} {
		if _, ok := DecodeInputFrame(msg); ok {
			t.Errorf("DecodeInputFrame(%v) accepted", msg)
		}
	}
}

func TestInputStateKeys(t *testing.T) {
	s := InputState{Left: true, ForceWin: true}
	if !s.IsKeyDown(KeyLeft) || s.IsKeyDown(KeyRight) || !s.IsKeyDown(KeyForceWin) {
		t.Errorf("IsKeyDown mismatch for %+v", s)
	}
	if s.IsKeyDown(Key(99)) {
		t.Error("unknown key reported down")
	}
}

func TestHeldKeysExpire(t *testing.T) {
	now := time.Unix(1000, 0)
	h := newHeldKeys()
	h.now = func() time.Time { return now }

	h.Press(KeyLeft)
	if !h.IsKeyDown(KeyLeft) || h.IsKeyDown(KeyRight) {
		t.Fatal("only the pressed key should be down")
	}
	now = now.Add(keyHold - time.Millisecond)
	if !h.IsKeyDown(KeyLeft) {
		t.Error("key released before the hold window ended")
	}
	now = now.Add(2 * time.Millisecond)
	if h.IsKeyDown(KeyLeft) {
		t.Error("key still down after the hold window")
	}

	h.Press(KeyForceWin)
	h.Reset()
	if h.IsKeyDown(KeyForceWin) {
		t.Error("Reset should release every key")
	}
}
