package main

import (
	"encoding/json"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait           = 10 * time.Second
	pongWait            = 60 * time.Second
	pingPeriod          = (pongWait * 9) / 10
	maxMessageSize      = 4096
	sendBufSize         = 256
	maxMessagesPerSec   = 50
	maxNameLen          = 16
	profileRecentRounds = 5
)

// frame is one queued websocket message
type frame struct {
	binary bool
	data   []byte
}

// Client is one websocket connection. It is either a member of a session
// (pilot or spectator) or a phone controller attached to a pilot.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan frame
	done       chan struct{} // closed by the hub on unregister
	closeOnce  sync.Once
	remoteAddr string

	playerID     string
	sessionID    string
	isController bool
	account      Account // zero until register, login or auth succeeds

	budget     int // messages left in the current second
	budgetEnds time.Time
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan frame, sendBufSize),
		done:       make(chan struct{}),
		remoteAddr: remoteAddr,
	}
}

// ReadPump decodes messages until the connection fails or the client
// exceeds its message budget
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Release(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws %s: %v", c.remoteAddr, err)
			}
			return
		}
		if !c.spend(time.Now()) {
			log.Printf("ws %s: over %d messages/s, disconnecting", c.remoteAddr, maxMessagesPerSec)
			return
		}
		if msgType == websocket.BinaryMessage {
			if input, ok := DecodeInputFrame(message); ok {
				c.applyInput(input)
			}
			continue
		}
		c.handleMessage(message)
	}
}

// spend takes one message from the per-second budget
func (c *Client) spend(now time.Time) bool {
	if now.After(c.budgetEnds) {
		c.budget = maxMessagesPerSec
		c.budgetEnds = now.Add(time.Second)
	}
	c.budget--
	return c.budget >= 0
}

// WritePump drains the send queue and keeps the connection alive with
// pings until the hub closes the client
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case f := <-c.send:
			kind := websocket.TextMessage
			if f.binary {
				kind = websocket.BinaryMessage
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(kind, f.data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// close stops the write pump; later sends are dropped
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// enqueue queues f unless the client is closed or too slow to keep up
func (c *Client) enqueue(f frame) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- f:
	default:
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("marshal error: %v", err)
		return
	}
	c.enqueue(frame{data: data})
}

// SendBinary sends a msgpack state frame
func (c *Client) SendBinary(data []byte) {
	c.enqueue(frame{binary: true, data: data})
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("unmarshal error: %v", err)
		return
	}

	switch env.T {
	case MsgList:
		c.handleList()
	case MsgCreate:
		c.handleCreate(env.D)
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgInput:
		c.handleInput(env.D)
	case MsgLeave:
		c.leaveSession()
	case MsgCheck:
		c.handleCheck(env.D)
	case MsgControl:
		c.handleControl(env.D)
	case MsgRematch:
		c.handleRematch()
	case MsgQuit:
		c.handleQuit()
	case MsgRegister:
		c.handleRegister(env.D)
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgAuth:
		c.handleAuth(env.D)
	case MsgProfile:
		c.handleProfile()
	}
}

func (c *Client) handleList() {
	sessions := c.hub.sessions.ListSessions()
	c.SendJSON(Envelope{T: MsgSessions, Data: sessions})
}

func (c *Client) handleCreate(data json.RawMessage) {
	var msg CreateMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sname := msg.SessionName
	if sname == "" {
		sname = "Brick Yard"
	}
	if len(sname) > 30 {
		sname = sname[:30]
	}
	rows, cols := 0, 0
	if msg.Rows != nil {
		rows = *msg.Rows
		if rows == 0 {
			rows = -1 // explicit zero is invalid, not "default"
		}
	}
	if msg.Cols != nil {
		cols = *msg.Cols
		if cols == 0 {
			cols = -1
		}
	}
	sess, err := c.hub.sessions.CreateSession(sname, rows, cols)
	if err != nil {
		msg := err.Error()
		switch {
		case errors.Is(err, ErrGridTooLarge):
			msg = "grid too large"
		case errors.Is(err, ErrBricksReachPaddle):
			msg = "invalid grid: too many rows for the window"
		case errors.Is(err, ErrInvalidGeometry):
			msg = "invalid grid: rows and cols must be positive"
		}
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
		return
	}

	c.SendJSON(Envelope{T: MsgCreated, Data: map[string]string{"sid": sess.ID}})
}

func (c *Client) handleJoin(data json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	c.leaveSession()
	name := strings.TrimSpace(msg.Name)
	if name == "" && c.account.Guest() {
		name = "Pilot"
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}

	sess := c.hub.sessions.GetSession(msg.SessionID)
	if sess == nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "session not found"}})
		return
	}

	member := sess.Game.AddPlayer(name, c.account)
	if member == nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "session full"}})
		return
	}
	c.hub.sessions.MarkActive(sess.ID)
	c.playerID = member.ID
	c.sessionID = sess.ID

	sess.Game.SetClient(member.ID, c)

	cfg := sess.Game.Config()
	c.SendJSON(Envelope{T: MsgJoined, Data: map[string]string{"sid": sess.ID}})
	c.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{ID: member.ID, Pilot: member.Pilot, Rows: cfg.Rows, Cols: cfg.Cols}})
}

// applyInput forwards held keys to the session this client drives
func (c *Client) applyInput(input ClientInput) {
	if c.sessionID == "" || c.playerID == "" {
		return
	}
	sess := c.hub.sessions.GetSession(c.sessionID)
	if sess == nil {
		return
	}
	sess.Game.HandleInput(c.playerID, input)
}

func (c *Client) handleInput(data json.RawMessage) {
	var input ClientInput
	if err := json.Unmarshal(data, &input); err != nil {
		return
	}
	c.applyInput(input)
}

func (c *Client) handleCheck(data json.RawMessage) {
	var msg CheckMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(msg.SID)
	if sess == nil {
		c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{SID: msg.SID, Exists: false}})
		return
	}
	c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{
		SID:     msg.SID,
		Exists:  true,
		Name:    sess.Name,
		Players: sess.Game.PlayerCount(),
	}})
}

// leaveSession detaches the client from its session, if any
func (c *Client) leaveSession() {
	if c.sessionID == "" {
		return
	}
	if c.isController {
		if sess := c.hub.sessions.GetSession(c.sessionID); sess != nil {
			sess.Game.RemoveController(c.playerID)
		}
	} else {
		c.hub.sessions.RemovePlayer(c.sessionID, c.playerID)
	}
	c.sessionID = ""
	c.playerID = ""
	c.isController = false
}

func (c *Client) handleControl(data json.RawMessage) {
	var msg ControlMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	sess := c.hub.sessions.GetSession(msg.SID)
	if sess == nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "session not found"}})
		return
	}
	if !sess.Game.IsPilot(msg.PlayerID) {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "pilot not found"}})
		return
	}

	c.sessionID = msg.SID
	c.playerID = msg.PlayerID
	c.isController = true

	sess.Game.SetController(msg.PlayerID, c)
	c.SendJSON(Envelope{T: MsgControlOK, Data: map[string]string{"pid": msg.PlayerID}})
}

func (c *Client) handleRematch() {
	if c.sessionID == "" || c.playerID == "" || c.isController {
		return
	}
	sess := c.hub.sessions.GetSession(c.sessionID)
	if sess == nil {
		return
	}
	if sess.Game.HandleRematch(c.playerID) {
		c.hub.sessions.MarkActive(sess.ID)
	}
}

// handleQuit ends the session when the pilot declines another round
func (c *Client) handleQuit() {
	if c.sessionID == "" || c.playerID == "" || c.isController {
		return
	}
	sess := c.hub.sessions.GetSession(c.sessionID)
	if sess == nil || !sess.Game.IsPilot(c.playerID) {
		return
	}
	c.hub.sessions.EndSession(sess.ID, "quit")
}

func (c *Client) handleRegister(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg RegisterMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	acct, token, err := c.hub.auth.Register(msg.Username, msg.Password)
	c.finishAuth(acct, token, err)
}

func (c *Client) handleLogin(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	acct, token, err := c.hub.auth.Login(msg.Username, msg.Password, c.remoteAddr)
	c.finishAuth(acct, token, err)
}

// handleAuth resumes an account from a token issued earlier
func (c *Client) handleAuth(data json.RawMessage) {
	if c.hub.auth == nil {
		return
	}
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	acct, err := c.hub.auth.ValidateToken(msg.Token)
	c.finishAuth(acct, msg.Token, err)
}

// finishAuth signs the connection in as acct and replies with the token.
// A connection already signed in to the same account elsewhere is told
// it was replaced. Rounds in a session joined earlier stay with the
// identity the client joined under.
func (c *Client) finishAuth(acct Account, token string, err error) {
	if err != nil {
		msg := err.Error()
		if errors.Is(err, ErrBadToken) {
			msg = ErrBadToken.Error()
		}
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
		return
	}
	c.hub.signOut(c)
	c.account = acct
	if prev := c.hub.signIn(c); prev != nil {
		prev.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "signed in elsewhere"}})
	}
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:    token,
		Username: acct.Username,
		PlayerID: acct.ID,
	}})
}

func (c *Client) handleProfile() {
	if c.hub.db == nil || c.account.Guest() {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "not authenticated"}})
		return
	}
	stats, err := c.hub.db.GetStats(c.account.ID)
	if err != nil || stats == nil {
		c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "profile not found"}})
		return
	}
	achievements, err := c.hub.db.GetAchievements(c.account.ID)
	if err != nil {
		log.Printf("profile achievements: %v", err)
	}
	if achievements == nil {
		achievements = []string{}
	}
	history, err := c.hub.db.GetRoundHistory(c.account.ID, profileRecentRounds)
	if err != nil {
		log.Printf("profile rounds: %v", err)
	}
	recent := make([]RecentRound, 0, len(history))
	for _, r := range history {
		recent = append(recent, RecentRound{
			Outcome:      r.Outcome,
			Duration:     round1(r.Duration),
			BricksBroken: r.BricksBroken,
			BricksTotal:  r.BricksTotal,
			HeartsLost:   r.HeartsLost,
			Effects:      r.Effects,
			At:           r.CreatedAt.Unix(),
		})
	}
	c.SendJSON(Envelope{T: MsgProfileData, Data: ProfileDataMsg{
		Username:     c.account.Username,
		Rounds:       stats.Rounds,
		Wins:         stats.Wins,
		Losses:       stats.Losses,
		Bricks:       stats.Bricks,
		BestWin:      stats.BestWin,
		Playtime:     stats.Playtime,
		Achievements: achievements,
		Recent:       recent,
	}})
}
