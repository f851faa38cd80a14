package main

import "sync"

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
)

// Hub owns the connected clients. It hands them to sessions, keeps the
// per-address connection budget and knows which account each signed-in
// client flies under.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	sessions   *SessionManager

	// open connections per remote address, guarded by connMu
	connMu sync.Mutex
	conns  map[string]int
	total  int

	// nil when running without a database
	db        *DB
	auth      *Auth
	analytics *Analytics

	// signed-in clients by account ID
	onlineMu sync.Mutex
	online   map[int64]*Client
}

// NewHub creates a new Hub. db and analytics may be nil, in which case
// accounts, round records and event tracking are disabled.
func NewHub(db *DB, analytics *Analytics, defaults GameConfig) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		conns:      make(map[string]int),
		db:         db,
		analytics:  analytics,
		online:     make(map[int64]*Client),
	}
	var events EventSink
	if analytics != nil {
		events = analytics
	}
	var recorder RoundRecorder
	if db != nil {
		recorder = db
		h.auth = NewAuth(db)
	}
	h.sessions = NewSessionManager(defaults, events, recorder)
	return h
}

// Admit reserves a connection slot for addr. It reports false when the
// address or the server is at its limit; every admitted connection must
// be given back with Release.
func (h *Hub) Admit(addr string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.total >= maxTotalConns || h.conns[addr] >= maxConnsPerIP {
		return false
	}
	h.conns[addr]++
	h.total++
	return true
}

// Release frees a slot taken by Admit. When the last connection from addr
// closes, its expired login failures are forgotten.
func (h *Hub) Release(addr string) {
	h.connMu.Lock()
	h.conns[addr]--
	last := h.conns[addr] <= 0
	if last {
		delete(h.conns, addr)
	}
	h.total--
	h.connMu.Unlock()

	if last && h.auth != nil {
		h.auth.ReleaseAddr(addr)
	}
}

// Run processes register/unregister events
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.updateMetrics(n)

		case client := <-h.unregister:
			h.mu.Lock()
			delete(h.clients, client)
			n := len(h.clients)
			h.mu.Unlock()
			client.close()
			h.updateMetrics(n)
			h.signOut(client)
			client.leaveSession()
		}
	}
}

func (h *Hub) updateMetrics(clients int) {
	if h.analytics == nil {
		return
	}
	h.analytics.SetConcurrentPeers(clients)
	h.analytics.SetActiveSessions(h.sessions.Count())
}

// signIn records c as the live connection of its account and returns the
// connection it replaced, if any
func (h *Hub) signIn(c *Client) *Client {
	h.onlineMu.Lock()
	defer h.onlineMu.Unlock()
	prev := h.online[c.account.ID]
	h.online[c.account.ID] = c
	if prev == c {
		return nil
	}
	return prev
}

// signOut forgets c unless a newer connection already took its place
func (h *Hub) signOut(c *Client) {
	if c.account.Guest() {
		return
	}
	h.onlineMu.Lock()
	defer h.onlineMu.Unlock()
	if h.online[c.account.ID] == c {
		delete(h.online, c.account.ID)
	}
}
