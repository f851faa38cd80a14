package main

import (
	"fmt"
	"sync"
	"testing"
)

func TestAnalyticsFlushOnStop(t *testing.T) {
	db := openTestDB(t)
	a := NewAnalytics(db)

	a.Track(EvtRoundStart, 0, "s1", `{"rows":7,"cols":8}`)
	a.Track(EvtEffect, 1, "s1", `{"effect":"turbo"}`)
	a.Track(EvtEffect, 1, "s1", `{"effect":"turbo"}`)
	a.Track(EvtEffect, 1, "s1", `{"effect":"pucks"}`)
	a.Track(EvtRoundEnd, 1, "s1", `{"outcome":"won","duration":40}`)
	a.Track(EvtRoundEnd, 1, "s1", `{"outcome":"lost","duration":20}`)
	a.Stop()
	a.Stop()

	// dropped after Stop
	a.Track(EvtEffect, 1, "s1", `{"effect":"heart"}`)

	counts, err := a.EventCounts(1)
	if err != nil {
		t.Fatal(err)
	}
	if counts[EvtEffect] != 3 || counts[EvtRoundEnd] != 2 || counts[EvtRoundStart] != 1 {
		t.Errorf("counts = %v", counts)
	}

	effects, err := a.EffectFrequencies(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(effects) != 2 || effects[0].Effect != "turbo" || effects[0].Count != 2 {
		t.Errorf("effects = %+v", effects)
	}

	outcomes, err := a.RoundOutcomes(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %+v", outcomes)
	}
	for _, o := range outcomes {
		if o.Count != 1 {
			t.Errorf("outcome %+v, want count 1", o)
		}
	}

	if dau, _ := a.DAUCount(); dau != 1 {
		t.Errorf("DAU = %d, want 1", dau)
	}
}

func TestAnalyticsSummarize(t *testing.T) {
	db := openTestDB(t)
	a := NewAnalytics(db)
	a.SetConcurrentPeers(3)
	a.SetActiveSessions(2)
	a.Track(EvtSessionStart, 0, "s1", "")
	a.Stop()

	s, err := a.Summarize(7)
	if err != nil {
		t.Fatal(err)
	}
	if s.Days != 7 || s.Events[EvtSessionStart] != 1 {
		t.Errorf("summary = %+v", s)
	}
	if s.ConcurrentPeer != 3 || s.ActiveSessions != 2 {
		t.Errorf("live metrics = %d, %d", s.ConcurrentPeer, s.ActiveSessions)
	}
}

func TestTrackConcurrentWithStop(t *testing.T) {
	db := openTestDB(t)
	a := NewAnalytics(db)
	for i := 0; i < 10; i++ {
		a.Track(EvtSessionStart, 0, "before", "")
	}

	const producers, perProducer = 16, 200
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < perProducer; j++ {
				a.Track(EvtEffect, 0, "race", `{"effect":"heart"}`)
			}
		}()
	}
	close(start)
	a.Stop()
	wg.Wait()

	counts, err := a.EventCounts(1)
	if err != nil {
		t.Fatal(err)
	}
	if counts[EvtSessionStart] != 10 {
		t.Errorf("events queued before Stop: %d stored, want 10", counts[EvtSessionStart])
	}
	if n := counts[EvtEffect]; n > producers*perProducer {
		t.Errorf("%d effect events stored, at most %d sent", n, producers*perProducer)
	}
}

func TestTrackEventEncodesData(t *testing.T) {
	sink := &recordingSink{}
	trackEvent(sink, EvtEffect, 5, "sid", map[string]any{"effect": "heart"})
	if len(sink.events) != 1 || sink.events[0] != `effect 5 sid {"effect":"heart"}` {
		t.Errorf("events = %v", sink.events)
	}
	trackEvent(nil, EvtEffect, 5, "sid", nil)
}

type recordingSink struct {
	events []string
}

func (s *recordingSink) Track(evt string, pid int64, sid, data string) {
	s.events = append(s.events, fmt.Sprintf("%s %d %s %s", evt, pid, sid, data))
}
