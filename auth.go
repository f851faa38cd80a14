package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenTTL          = 7 * 24 * time.Hour
	tokenIssuer       = "bricker"
	minPasswordLen    = 4
	minUsernameLen    = 2
	maxUsernameLen    = 16
	loginFailWindow   = 60 * time.Second
	maxLoginFailures  = 10
	secretSettingName = "jwt_secret"
)

// bcryptCost is a variable so tests can use bcrypt.MinCost
var bcryptCost = 12

var (
	ErrBadCredentials  = errors.New("invalid username or password")
	ErrNameTaken       = errors.New("username already taken")
	ErrTooManyAttempts = errors.New("too many login attempts, try again later")
	ErrBadToken        = errors.New("invalid token")
)

// Account is the identity a connection flies under. The zero value is a
// guest whose rounds are not recorded.
type Account struct {
	ID       int64
	Username string
}

// Guest reports whether a is unauthenticated
func (a Account) Guest() bool { return a.ID == 0 }

// pilotClaims carries the account in a token; the subject is the player ID
type pilotClaims struct {
	Username string `json:"usr"`
	jwt.RegisteredClaims
}

// Auth issues and checks pilot tokens against the players table
type Auth struct {
	db     *DB
	secret []byte
	logins *loginLimiter
}

// NewAuth creates an Auth bound to db. The signing secret is stored in
// the settings table so tokens survive a restart on a file database.
func NewAuth(db *DB) *Auth {
	return &Auth{
		db:     db,
		secret: loadOrCreateSecret(db),
		logins: newLoginLimiter(),
	}
}

func loadOrCreateSecret(db *DB) []byte {
	if h := db.GetSetting(secretSettingName); h != "" {
		if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
			return b
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("auth: generate secret: " + err.Error())
	}
	if err := db.SetSetting(secretSettingName, hex.EncodeToString(secret)); err != nil {
		log.Printf("auth: secret not persisted, tokens end with this process: %v", err)
	}
	return secret
}

// Register creates an account and returns it with a fresh token
func (a *Auth) Register(username, password string) (Account, string, error) {
	username = strings.TrimSpace(username)
	if n := len(username); n < minUsernameLen || n > maxUsernameLen {
		return Account{}, "", fmt.Errorf("username must be %d-%d characters", minUsernameLen, maxUsernameLen)
	}
	if len(password) < minPasswordLen {
		return Account{}, "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	taken, err := a.db.UsernameExists(username)
	if err != nil {
		return Account{}, "", fmt.Errorf("register %q: %w", username, err)
	}
	if taken {
		return Account{}, "", ErrNameTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return Account{}, "", fmt.Errorf("register %q: %w", username, err)
	}
	id, err := a.db.CreatePlayer(username, string(hash))
	if err != nil {
		return Account{}, "", fmt.Errorf("register %q: %w", username, err)
	}
	return a.issue(Account{ID: id, Username: username})
}

// Login checks a password. Only failures count toward the per-address
// limit; a successful login clears it.
func (a *Auth) Login(username, password, addr string) (Account, string, error) {
	if a.logins.blocked(addr) {
		return Account{}, "", ErrTooManyAttempts
	}
	p, err := a.db.GetPlayerByUsername(strings.TrimSpace(username))
	if err != nil {
		return Account{}, "", fmt.Errorf("login: %w", err)
	}
	if p == nil || p.PassHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(p.PassHash), []byte(password)) != nil {
		a.logins.fail(addr)
		return Account{}, "", ErrBadCredentials
	}
	a.logins.clear(addr)
	return a.issue(Account{ID: p.ID, Username: p.Username})
}

// ValidateToken resolves a token to the account it was issued for. The
// account must still exist; its current username is returned.
func (a *Auth) ValidateToken(token string) (Account, error) {
	var claims pilotClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return Account{}, fmt.Errorf("%w: %v", ErrBadToken, err)
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return Account{}, ErrBadToken
	}
	p, err := a.db.GetPlayerByID(id)
	if err != nil {
		return Account{}, fmt.Errorf("validate token: %w", err)
	}
	if p == nil {
		return Account{}, ErrBadToken
	}
	return Account{ID: p.ID, Username: p.Username}, nil
}

// ReleaseAddr is called when the last connection from addr closes
func (a *Auth) ReleaseAddr(addr string) {
	a.logins.prune(addr)
}

func (a *Auth) issue(acct Account) (Account, string, error) {
	now := time.Now()
	claims := pilotClaims{
		Username: acct.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(acct.ID, 10),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return Account{}, "", fmt.Errorf("sign token: %w", err)
	}
	return acct, token, nil
}

// loginLimiter counts failed logins per remote address inside a window
type loginLimiter struct {
	mu       sync.Mutex
	failures map[string]loginFailures
	now      func() time.Time
}

type loginFailures struct {
	n     int
	until time.Time
}

func newLoginLimiter() *loginLimiter {
	return &loginLimiter{failures: make(map[string]loginFailures), now: time.Now}
}

func (l *loginLimiter) blocked(addr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, ok := l.failures[addr]
	if !ok {
		return false
	}
	if l.now().After(f.until) {
		delete(l.failures, addr)
		return false
	}
	return f.n >= maxLoginFailures
}

func (l *loginLimiter) fail(addr string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	f := l.failures[addr]
	if now.After(f.until) {
		f = loginFailures{until: now.Add(loginFailWindow)}
	}
	f.n++
	l.failures[addr] = f
}

func (l *loginLimiter) clear(addr string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, addr)
}

// prune drops addr once its window has passed. A live window is kept so
// reconnecting does not reset it.
func (l *loginLimiter) prune(addr string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if f, ok := l.failures[addr]; ok && l.now().After(f.until) {
		delete(l.failures, addr)
	}
}
