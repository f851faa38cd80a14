package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// MemoryDSN keeps the whole database inside the process
const MemoryDSN = ":memory:"

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// PlayerRow represents a player record in the database
type PlayerRow struct {
	ID        int64
	Username  string
	PassHash  string
	CreatedAt time.Time
}

// StatsRow represents a pilot's lifetime stats
type StatsRow struct {
	PlayerID   int64
	Rounds     int
	Wins       int
	Losses     int
	Bricks     int
	HeartsLost int
	Playtime   float64 // seconds
	BestWin    float64 // fastest win in seconds, 0 = none
}

// RoundRow represents one finished round
type RoundRow struct {
	ID           int64
	PlayerID     int64
	SessionID    string
	Outcome      string
	Duration     float64
	BricksBroken int
	BricksTotal  int
	HeartsLost   int
	Effects      map[string]int
	CreatedAt    time.Time
}

// OpenDB opens (or creates) the SQLite database at dsn. MemoryDSN gives a
// database that lives only as long as the process.
func OpenDB(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}
	if dsn == MemoryDSN {
		// every new connection to :memory: is a separate empty database
		conn.SetMaxOpenConns(1)
	} else if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		pass_hash TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS stats (
		player_id INTEGER PRIMARY KEY REFERENCES players(id),
		rounds INTEGER NOT NULL DEFAULT 0,
		wins INTEGER NOT NULL DEFAULT 0,
		losses INTEGER NOT NULL DEFAULT 0,
		bricks INTEGER NOT NULL DEFAULT 0,
		hearts_lost INTEGER NOT NULL DEFAULT 0,
		playtime REAL NOT NULL DEFAULT 0,
		best_win REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS rounds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		player_id INTEGER NOT NULL REFERENCES players(id),
		session_id TEXT NOT NULL DEFAULT '',
		outcome TEXT NOT NULL,
		duration REAL NOT NULL DEFAULT 0,
		bricks_broken INTEGER NOT NULL DEFAULT 0,
		bricks_total INTEGER NOT NULL DEFAULT 0,
		hearts_lost INTEGER NOT NULL DEFAULT 0,
		effects TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS achievements (
		player_id INTEGER NOT NULL REFERENCES players(id),
		achievement_id TEXT NOT NULL,
		unlocked_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (player_id, achievement_id)
	);

	CREATE TABLE IF NOT EXISTS analytics_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		player_id INTEGER,
		session_id TEXT,
		data TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rounds_player ON rounds(player_id);
	CREATE INDEX IF NOT EXISTS idx_events_type_time ON analytics_events(event_type, created_at);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Printf("DB migration error: %v", err)
	}
	return err
}

// CreatePlayer creates a new player account (returns player ID)
func (db *DB) CreatePlayer(username, passHash string) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec("INSERT INTO players (username, pass_hash) VALUES (?, ?)", username, passHash)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec("INSERT INTO stats (player_id) VALUES (?)", id); err != nil {
		return 0, err
	}
	return id, tx.Commit()
}

// GetPlayerByUsername returns a player by username, or nil if none
func (db *DB) GetPlayerByUsername(username string) (*PlayerRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, pass_hash, created_at FROM players WHERE username = ?",
		username,
	)
	p := &PlayerRow{}
	err := row.Scan(&p.ID, &p.Username, &p.PassHash, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// GetPlayerByID returns a player by ID, or nil if none
func (db *DB) GetPlayerByID(id int64) (*PlayerRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, pass_hash, created_at FROM players WHERE id = ?",
		id,
	)
	p := &PlayerRow{}
	err := row.Scan(&p.ID, &p.Username, &p.PassHash, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// UsernameExists checks if a username is taken
func (db *DB) UsernameExists(username string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM players WHERE username = ?", username).Scan(&count)
	return count > 0, err
}

// GetStats returns a pilot's stats, or nil if none
func (db *DB) GetStats(playerID int64) (*StatsRow, error) {
	row := db.conn.QueryRow(
		"SELECT player_id, rounds, wins, losses, bricks, hearts_lost, playtime, best_win FROM stats WHERE player_id = ?",
		playerID,
	)
	s := &StatsRow{}
	err := row.Scan(&s.PlayerID, &s.Rounds, &s.Wins, &s.Losses, &s.Bricks, &s.HeartsLost, &s.Playtime, &s.BestWin)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// RecordRound stores a finished round, folds it into the pilot's stats
// and unlocks any achievements it earned. It implements RoundRecorder.
func (db *DB) RecordRound(playerID int64, sessionID string, s RoundStats) ([]AchievementDef, error) {
	effects, err := json.Marshal(s.EffectCounts())
	if err != nil {
		return nil, err
	}
	won := s.Outcome == OutcomeWon
	winInc, lossInc := 0, 1
	if won {
		winInc, lossInc = 1, 0
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO rounds
		(player_id, session_id, outcome, duration, bricks_broken, bricks_total, hearts_lost, effects)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		playerID, sessionID, s.Outcome.String(), s.Duration, s.BricksBroken, s.BricksTotal, s.HeartsLost, string(effects),
	)
	if err != nil {
		return nil, fmt.Errorf("insert round: %w", err)
	}

	_, err = tx.Exec(`
		UPDATE stats SET
			rounds = rounds + 1,
			wins = wins + ?,
			losses = losses + ?,
			bricks = bricks + ?,
			hearts_lost = hearts_lost + ?,
			playtime = playtime + ?
		WHERE player_id = ?`,
		winInc, lossInc, s.BricksBroken, s.HeartsLost, s.Duration, playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("update stats: %w", err)
	}
	if won {
		_, err = tx.Exec(`UPDATE stats SET best_win = ?
			WHERE player_id = ? AND (best_win = 0 OR best_win > ?)`,
			s.Duration, playerID, s.Duration,
		)
		if err != nil {
			return nil, fmt.Errorf("update best win: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return CheckAchievements(db, playerID, s), nil
}

// GetRoundHistory returns a pilot's most recent rounds, newest first
func (db *DB) GetRoundHistory(playerID int64, limit int) ([]RoundRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, player_id, session_id, outcome, duration, bricks_broken, bricks_total, hearts_lost, effects, created_at
		FROM rounds WHERE player_id = ?
		ORDER BY id DESC LIMIT ?`,
		playerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RoundRow
	for rows.Next() {
		var r RoundRow
		var effects string
		if err := rows.Scan(&r.ID, &r.PlayerID, &r.SessionID, &r.Outcome, &r.Duration,
			&r.BricksBroken, &r.BricksTotal, &r.HeartsLost, &effects, &r.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(effects), &r.Effects); err != nil {
			return nil, fmt.Errorf("round %d effects: %w", r.ID, err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// LeaderboardEntry represents one row in the leaderboard
type LeaderboardEntry struct {
	Rank     int     `json:"rank"`
	Username string  `json:"username"`
	Rounds   int     `json:"rounds"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	Bricks   int     `json:"bricks"`
	BestWin  float64 `json:"best_win"`
}

// GetLeaderboard returns top pilots sorted by wins, bricks or rounds.
// Unknown orderings fall back to wins.
func (db *DB) GetLeaderboard(orderBy string, limit int) ([]LeaderboardEntry, error) {
	// Whitelist valid order columns
	validCols := map[string]string{
		"wins": "s.wins", "bricks": "s.bricks", "rounds": "s.rounds",
	}
	col, ok := validCols[orderBy]
	if !ok {
		col = "s.wins"
	}

	query := `SELECT p.username, s.rounds, s.wins, s.losses, s.bricks, s.best_win
		FROM stats s JOIN players p ON p.id = s.player_id
		WHERE s.rounds > 0
		ORDER BY ` + col + ` DESC, p.username ASC LIMIT ?`

	rows, err := db.conn.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []LeaderboardEntry{}
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Rounds, &e.Wins, &e.Losses, &e.Bricks, &e.BestWin); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		result = append(result, e)
	}
	return result, rows.Err()
}

// GetAchievements returns the IDs a pilot has unlocked
func (db *DB) GetAchievements(playerID int64) ([]string, error) {
	rows, err := db.conn.Query(
		"SELECT achievement_id FROM achievements WHERE player_id = ? ORDER BY unlocked_at, achievement_id",
		playerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UnlockAchievement records an achievement and reports whether it is new
func (db *DB) UnlockAchievement(playerID int64, achievementID string) (bool, error) {
	res, err := db.conn.Exec(
		"INSERT OR IGNORE INTO achievements (player_id, achievement_id) VALUES (?, ?)",
		playerID, achievementID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// GetSetting returns a server setting, or "" if unset
func (db *DB) GetSetting(key string) string {
	var value string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil && err != sql.ErrNoRows {
		log.Printf("get setting %s: %v", key, err)
	}
	return value
}

// SetSetting stores a server setting
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}
