package main

import (
	"testing"
	"time"
)

func newQueueClient(size int) *Client {
	return &Client{send: make(chan frame, size), done: make(chan struct{})}
}

func TestClientQueuesFrames(t *testing.T) {
	c := newQueueClient(2)
	c.SendBinary([]byte{1, 2})
	c.SendJSON(Envelope{T: MsgPilot})
	c.SendJSON(Envelope{T: MsgCtrlOn}) // full: dropped

	if len(c.send) != 2 {
		t.Fatalf("queued %d frames, want 2", len(c.send))
	}
	if f := <-c.send; !f.binary || len(f.data) != 2 {
		t.Errorf("first frame = %+v, want the binary state", f)
	}
	if f := <-c.send; f.binary || string(f.data) != `{"t":"pilot"}` {
		t.Errorf("second frame = %+v (%s)", f, f.data)
	}
}

func TestClientSendAfterClose(t *testing.T) {
	c := newQueueClient(4)
	c.close()
	c.close()
	c.SendJSON(Envelope{T: MsgSessionEnd})
	c.SendBinary([]byte{1})
	if len(c.send) != 0 {
		t.Errorf("%d frames queued on a closed client", len(c.send))
	}
}

func TestClientMessageBudget(t *testing.T) {
	c := &Client{}
	now := time.Unix(100, 0)
	for i := 0; i < maxMessagesPerSec; i++ {
		if !c.spend(now) {
			t.Fatalf("message %d refused", i)
		}
	}
	if c.spend(now.Add(500 * time.Millisecond)) {
		t.Error("message past the budget accepted")
	}
	if !c.spend(now.Add(1100 * time.Millisecond)) {
		t.Error("budget not refilled after a second")
	}
}
