package main

import "encoding/json"

// Client -> Server message types
const (
	MsgJoin     = "join"
	MsgLeave    = "leave"
	MsgInput    = "input"
	MsgCreate   = "create"  // create session
	MsgList     = "list"    // list sessions
	MsgCheck    = "check"   // check if session exists
	MsgControl  = "control" // phone controller attach
	MsgRematch  = "rematch" // pilot answers "play again"
	MsgQuit     = "quit"    // pilot answers "quit"
	MsgRegister = "register"
	MsgLogin    = "login"
	MsgAuth     = "auth" // resume with a stored token
	MsgProfile  = "profile"
)

// Server -> Client message types
const (
	MsgState       = "state"
	MsgWelcome     = "welcome"
	MsgSessions    = "sessions"
	MsgJoined      = "joined"
	MsgCreated     = "created" // session created, client should navigate
	MsgError       = "error"
	MsgChecked     = "checked"    // session check response
	MsgControlOK   = "control_ok" // controller attach confirmed
	MsgCtrlOn      = "ctrl_on"    // notify pilot: controller attached
	MsgCtrlOff     = "ctrl_off"   // notify pilot: controller detached
	MsgPilot       = "pilot"      // a spectator was promoted to pilot
	MsgRoundOver   = "round_over" // won or lost, pilot should answer rematch/quit
	MsgRoundStart  = "round_start"
	MsgSessionEnd  = "session_end"
	MsgAuthOK      = "auth_ok"
	MsgProfileData = "profile_data"
	MsgAchievement = "achievement"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// ClientInput is the held-key report sent whenever a key changes
type ClientInput struct {
	Left  bool `json:"l"`
	Right bool `json:"r"`
	Win   bool `json:"w"` // force-win key
}

// JoinMsg is sent when a player wants to join a session
type JoinMsg struct {
	Name      string `json:"name"`
	SessionID string `json:"sid"`
}

// CreateMsg is sent when a player wants to create a session. Omitted rows
// or cols mean the server default; zero and negative values are rejected.
type CreateMsg struct {
	Name        string `json:"name"`
	SessionName string `json:"sname"`
	Rows        *int   `json:"rows,omitempty"`
	Cols        *int   `json:"cols,omitempty"`
}

// EntityState is broadcast per live entity
type EntityState struct {
	ID     string  `json:"id" msgpack:"id"`
	Kind   string  `json:"k" msgpack:"k"`
	X      float64 `json:"x" msgpack:"x"`
	Y      float64 `json:"y" msgpack:"y"`
	W      float64 `json:"w" msgpack:"w"`
	H      float64 `json:"h" msgpack:"h"`
	Sprite int     `json:"s,omitempty" msgpack:"s,omitempty"`
}

// GameState is the full state broadcast
type GameState struct {
	Entities []EntityState `json:"e" msgpack:"e"`
	Hearts   int           `json:"hp" msgpack:"hp"`
	Tier     string        `json:"tier" msgpack:"tier"`
	Turbo    bool          `json:"tb" msgpack:"tb"`
	Over     bool          `json:"over" msgpack:"over"`
	Width    float64       `json:"ww" msgpack:"ww"`
	Height   float64       `json:"wh" msgpack:"wh"`
	Tick     uint64        `json:"tick" msgpack:"tick"`
}

// WelcomeMsg is sent to a player when they join
type WelcomeMsg struct {
	ID    string `json:"id"`
	Pilot bool   `json:"pilot"`
	Rows  int    `json:"rows"`
	Cols  int    `json:"cols"`
}

// RoundOverMsg reports a finished round. Only the pilot may answer it.
type RoundOverMsg struct {
	Outcome      string         `json:"outcome"` // "won" or "lost"
	Duration     float64        `json:"dur"`
	BricksBroken int            `json:"bricks"`
	BricksTotal  int            `json:"total"`
	HeartsLost   int            `json:"hl"`
	Effects      map[string]int `json:"fx,omitempty"`
	Prompt       string         `json:"prompt"`
}

// SessionInfo is used in the session list
type SessionInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Players int    `json:"players"`
	Rows    int    `json:"rows"`
	Cols    int    `json:"cols"`
}

// ErrorMsg sends error to client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// ControlMsg is sent by a phone controller to attach to a pilot
type ControlMsg struct {
	SID      string `json:"sid"`
	PlayerID string `json:"pid"`
}

// CheckMsg is sent by client to check if a session exists
type CheckMsg struct {
	SID string `json:"sid"`
}

// CheckedMsg is the response to a session check
type CheckedMsg struct {
	SID     string `json:"sid"`
	Exists  bool   `json:"exists"`
	Name    string `json:"name,omitempty"`
	Players int    `json:"players,omitempty"`
}

// RegisterMsg creates an account
type RegisterMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginMsg authenticates an existing account
type LoginMsg struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthMsg resumes a session from a stored token
type AuthMsg struct {
	Token string `json:"token"`
}

// AuthOKMsg confirms authentication
type AuthOKMsg struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	PlayerID int64  `json:"pid"`
}

// ProfileDataMsg carries a pilot's lifetime stats
type ProfileDataMsg struct {
	Username     string        `json:"username"`
	Rounds       int           `json:"rounds"`
	Wins         int           `json:"wins"`
	Losses       int           `json:"losses"`
	Bricks       int           `json:"bricks"`
	BestWin      float64       `json:"best_win,omitempty"` // seconds, 0 = none yet
	Playtime     float64       `json:"playtime"`
	Achievements []string      `json:"achievements"`
	Recent       []RecentRound `json:"recent"` // newest first
}

// RecentRound is one entry of a pilot's round history
type RecentRound struct {
	Outcome      string         `json:"outcome"`
	Duration     float64        `json:"duration"`
	BricksBroken int            `json:"bricks"`
	BricksTotal  int            `json:"bricks_total"`
	HeartsLost   int            `json:"hearts_lost"`
	Effects      map[string]int `json:"effects"`
	At           int64          `json:"at"` // unix seconds
}

// AchievementMsg announces a newly unlocked achievement
type AchievementMsg struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"desc"`
}
