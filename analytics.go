package main

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"
)

// Event types for analytics tracking
const (
	EvtRoundStart   = "round_start"
	EvtRoundEnd     = "round_end"
	EvtEffect       = "effect"
	EvtHeartLost    = "heart_lost"
	EvtAchievement  = "achievement"
	EvtSessionStart = "session_start"
	EvtSessionEnd   = "session_end"
)

const (
	analyticsBuffer    = 1024
	analyticsBatchSize = 50
)

// AnalyticsFlushInterval is how often a partial batch is written
var AnalyticsFlushInterval = 5 * time.Second

// AnalyticsEvent represents a single trackable event
type AnalyticsEvent struct {
	Type      string
	PlayerID  int64
	SessionID string
	Data      string // JSON metadata (optional)
	Timestamp time.Time
}

// Analytics handles event tracking with batched background writes
type Analytics struct {
	db     *DB
	events chan AnalyticsEvent
	stop   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once

	// Live metrics (guarded by mu)
	mu              sync.RWMutex
	concurrentPeers int
	activeSessions  int
}

// NewAnalytics creates and starts the analytics background writer
func NewAnalytics(db *DB) *Analytics {
	a := &Analytics{
		db:     db,
		events: make(chan AnalyticsEvent, analyticsBuffer),
		stop:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// Track enqueues an event for async persistence (non-blocking). It
// implements EventSink. Events tracked after Stop are dropped, and so
// are events racing Stop that miss the writer's final drain.
func (a *Analytics) Track(evtType string, playerID int64, sessionID string, data string) {
	select {
	case <-a.stop:
		return
	default:
	}
	select {
	case a.events <- AnalyticsEvent{
		Type:      evtType,
		PlayerID:  playerID,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}:
	default:
		// Channel full: drop event rather than blocking the game loop
	}
}

// SetConcurrentPeers updates live player count metric
func (a *Analytics) SetConcurrentPeers(n int) {
	a.mu.Lock()
	a.concurrentPeers = n
	a.mu.Unlock()
}

// SetActiveSessions updates live session count metric
func (a *Analytics) SetActiveSessions(n int) {
	a.mu.Lock()
	a.activeSessions = n
	a.mu.Unlock()
}

// GetLiveMetrics returns current live metrics
func (a *Analytics) GetLiveMetrics() (int, int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.concurrentPeers, a.activeSessions
}

// Stop flushes pending events and shuts down the writer. Safe to call
// more than once.
func (a *Analytics) Stop() {
	a.once.Do(func() { close(a.stop) })
	a.wg.Wait()
}

// writer is the background goroutine that batches and writes events to DB
func (a *Analytics) writer() {
	defer a.wg.Done()

	batch := make([]AnalyticsEvent, 0, 64)
	ticker := time.NewTicker(AnalyticsFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			// Flush immediately if batch is large
			if len(batch) >= analyticsBatchSize {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
			// producers may still be sending, so drain without closing
			for {
				select {
				case evt := <-a.events:
					batch = append(batch, evt)
				default:
					a.flush(batch)
					return
				}
			}
		}
	}
}

// flush writes a batch of events to the database
func (a *Analytics) flush(events []AnalyticsEvent) {
	if a.db == nil || len(events) == 0 {
		return
	}
	tx, err := a.db.conn.Begin()
	if err != nil {
		log.Printf("analytics: begin tx error: %v", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO analytics_events (event_type, player_id, session_id, data, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		log.Printf("analytics: prepare error: %v", err)
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		pid := sql.NullInt64{Int64: evt.PlayerID, Valid: evt.PlayerID > 0}
		sid := sql.NullString{String: evt.SessionID, Valid: evt.SessionID != ""}
		data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
		_, err := stmt.Exec(evt.Type, pid, sid, data, evt.Timestamp.Format(time.RFC3339))
		if err != nil {
			log.Printf("analytics: insert error: %v", err)
		}
	}
	if err := tx.Commit(); err != nil {
		log.Printf("analytics: commit error: %v", err)
	}
}

// --- Query methods for the API ---

// DAUCount returns number of distinct players active today
func (a *Analytics) DAUCount() (int, error) {
	if a.db == nil {
		return 0, nil
	}
	var count int
	err := a.db.conn.QueryRow(`
		SELECT COUNT(DISTINCT player_id) FROM analytics_events
		WHERE player_id IS NOT NULL AND created_at >= date('now')
	`).Scan(&count)
	return count, err
}

// WAUCount returns number of distinct players active in the last 7 days
func (a *Analytics) WAUCount() (int, error) {
	if a.db == nil {
		return 0, nil
	}
	var count int
	err := a.db.conn.QueryRow(`
		SELECT COUNT(DISTINCT player_id) FROM analytics_events
		WHERE player_id IS NOT NULL AND created_at >= date('now', '-7 days')
	`).Scan(&count)
	return count, err
}

// MAUCount returns number of distinct players active in the last 30 days
func (a *Analytics) MAUCount() (int, error) {
	if a.db == nil {
		return 0, nil
	}
	var count int
	err := a.db.conn.QueryRow(`
		SELECT COUNT(DISTINCT player_id) FROM analytics_events
		WHERE player_id IS NOT NULL AND created_at >= date('now', '-30 days')
	`).Scan(&count)
	return count, err
}

// RoundOutcomes returns round counts and average duration per outcome
// for the last N days
func (a *Analytics) RoundOutcomes(days int) ([]OutcomeAnalytics, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT COALESCE(json_extract(data, '$.outcome'), 'unknown') AS outcome, COUNT(*) AS cnt,
			AVG(CAST(json_extract(data, '$.duration') AS REAL)) AS avg_dur
		FROM analytics_events
		WHERE event_type = ? AND json_valid(data) AND created_at >= date('now', '-' || ? || ' days')
		GROUP BY outcome
		ORDER BY cnt DESC
	`, EvtRoundEnd, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []OutcomeAnalytics
	for rows.Next() {
		var o OutcomeAnalytics
		var avgDur sql.NullFloat64
		if err := rows.Scan(&o.Outcome, &o.Count, &avgDur); err != nil {
			continue
		}
		o.AvgDuration = avgDur.Float64
		result = append(result, o)
	}
	return result, rows.Err()
}

// EffectFrequencies returns how often each brick effect fired in the
// last N days, most frequent first
func (a *Analytics) EffectFrequencies(days int) ([]EffectAnalytics, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT COALESCE(json_extract(data, '$.effect'), 'unknown') AS effect, COUNT(*) AS cnt
		FROM analytics_events
		WHERE event_type = ? AND json_valid(data) AND created_at >= date('now', '-' || ? || ' days')
		GROUP BY effect ORDER BY cnt DESC, effect
	`, EvtEffect, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []EffectAnalytics
	for rows.Next() {
		var ea EffectAnalytics
		if err := rows.Scan(&ea.Effect, &ea.Count); err != nil {
			continue
		}
		result = append(result, ea)
	}
	return result, rows.Err()
}

// EventCounts returns counts of each event type for the last N days
func (a *Analytics) EventCounts(days int) (map[string]int, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT event_type, COUNT(*) FROM analytics_events
		WHERE created_at >= date('now', '-' || ? || ' days')
		GROUP BY event_type ORDER BY COUNT(*) DESC
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var evtType string
		var count int
		if err := rows.Scan(&evtType, &count); err != nil {
			continue
		}
		result[evtType] = count
	}
	return result, rows.Err()
}

// DailyActiveHistory returns DAU for the last N days
func (a *Analytics) DailyActiveHistory(days int) ([]DayCount, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT date(created_at) as day, COUNT(DISTINCT player_id)
		FROM analytics_events
		WHERE player_id IS NOT NULL AND created_at >= date('now', '-' || ? || ' days')
		GROUP BY day ORDER BY day
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DayCount
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			continue
		}
		result = append(result, dc)
	}
	return result, rows.Err()
}

// OutcomeAnalytics holds aggregated round statistics per outcome
type OutcomeAnalytics struct {
	Outcome     string  `json:"outcome"`
	Count       int     `json:"count"`
	AvgDuration float64 `json:"avg_duration"`
}

// EffectAnalytics holds the fire count of one effect kind
type EffectAnalytics struct {
	Effect string `json:"effect"`
	Count  int    `json:"count"`
}

// DayCount holds a count for a specific day
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// Summary is the /api/events payload
type Summary struct {
	Days           int                `json:"days"`
	Events         map[string]int     `json:"events"`
	Outcomes       []OutcomeAnalytics `json:"outcomes"`
	Effects        []EffectAnalytics  `json:"effects"`
	DAU            int                `json:"dau"`
	WAU            int                `json:"wau"`
	MAU            int                `json:"mau"`
	Daily          []DayCount         `json:"daily"`
	ConcurrentPeer int                `json:"peers"`
	ActiveSessions int                `json:"sessions"`
}

// Summarize gathers every report for the last N days
func (a *Analytics) Summarize(days int) (*Summary, error) {
	s := &Summary{Days: days}
	var err error
	if s.Events, err = a.EventCounts(days); err != nil {
		return nil, fmt.Errorf("event counts: %w", err)
	}
	if s.Outcomes, err = a.RoundOutcomes(days); err != nil {
		return nil, fmt.Errorf("round outcomes: %w", err)
	}
	if s.Effects, err = a.EffectFrequencies(days); err != nil {
		return nil, fmt.Errorf("effect frequencies: %w", err)
	}
	if s.DAU, err = a.DAUCount(); err != nil {
		return nil, fmt.Errorf("dau: %w", err)
	}
	if s.WAU, err = a.WAUCount(); err != nil {
		return nil, fmt.Errorf("wau: %w", err)
	}
	if s.MAU, err = a.MAUCount(); err != nil {
		return nil, fmt.Errorf("mau: %w", err)
	}
	if s.Daily, err = a.DailyActiveHistory(days); err != nil {
		return nil, fmt.Errorf("daily history: %w", err)
	}
	s.ConcurrentPeer, s.ActiveSessions = a.GetLiveMetrics()
	return s, nil
}
