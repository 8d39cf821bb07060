package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/MarkoPoloResearchLab/trustlance/pkg/wallet"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	sessionIssuer     = "trustlance"
	contextSessionKey = "trustlance_session"
)

var errInvalidSession = errors.New("invalid session token")

// ManagerFactory builds the wallet manager of a new browser session.
type ManagerFactory func() (*wallet.Manager, error)

type sessionEntry struct {
	manager  *wallet.Manager
	lastSeen time.Time
}

// sessionRegistry keeps one wallet manager per browser session. Sessions are
// identified by the jti of an HS256 cookie and expire after ttl of inactivity.
// A cookie older than half of ttl is re-signed on use, so an active session
// always holds a token that outlives the idle window.
type sessionRegistry struct {
	signingKey []byte
	cookieName string
	ttl        time.Duration
	secure     bool
	factory    ManagerFactory
	nowFn      func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

func newSessionRegistry(signingKey []byte, cookieName string, ttl time.Duration, secure bool, factory ManagerFactory, now func() time.Time) *sessionRegistry {
	return &sessionRegistry{
		signingKey: signingKey,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
		factory:    factory,
		nowFn:      now,
		sessions:   make(map[string]*sessionEntry),
	}
}

// middleware resolves the caller's session, creating one with a fresh cookie
// when the cookie is missing, invalid or refers to an expired session.
func (registry *sessionRegistry) middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		sessionID := ""
		var issuedAt time.Time
		if raw, err := ctx.Cookie(registry.cookieName); err == nil {
			if claims, parseErr := registry.parseClaims(raw); parseErr == nil {
				sessionID = claims.ID
				if claims.IssuedAt != nil {
					issuedAt = claims.IssuedAt.Time
				}
			}
		}
		manager, created, err := registry.resolve(sessionID)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse("session_error", "session unavailable"))
			return
		}
		cookieID := created
		if cookieID == "" && registry.nowFn().Sub(issuedAt) > registry.ttl/2 {
			cookieID = sessionID
		}
		if cookieID != "" {
			token, signErr := registry.sign(cookieID)
			if signErr != nil {
				ctx.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse("session_error", "session unavailable"))
				return
			}
			ctx.SetSameSite(http.SameSiteLaxMode)
			ctx.SetCookie(registry.cookieName, token, int(registry.ttl.Seconds()), "/", "", registry.secure, true)
		}
		ctx.Set(contextSessionKey, manager)
		ctx.Next()
	}
}

// resolve returns the manager for sessionID. The second result is the id of a
// newly created session, empty when an existing one was reused.
func (registry *sessionRegistry) resolve(sessionID string) (*wallet.Manager, string, error) {
	now := registry.nowFn()
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.pruneLocked(now)
	if entry, ok := registry.sessions[sessionID]; ok && sessionID != "" {
		entry.lastSeen = now
		return entry.manager, "", nil
	}
	manager, err := registry.factory()
	if err != nil {
		return nil, "", err
	}
	created := uuid.NewString()
	registry.sessions[created] = &sessionEntry{manager: manager, lastSeen: now}
	return manager, created, nil
}

func (registry *sessionRegistry) pruneLocked(now time.Time) {
	for id, entry := range registry.sessions {
		if now.Sub(entry.lastSeen) > registry.ttl {
			delete(registry.sessions, id)
		}
	}
}

func (registry *sessionRegistry) count() int {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return len(registry.sessions)
}

func (registry *sessionRegistry) sign(sessionID string) (string, error) {
	now := registry.nowFn()
	claims := jwt.RegisteredClaims{
		ID:        sessionID,
		Issuer:    sessionIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(registry.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(registry.signingKey)
}

func (registry *sessionRegistry) parse(raw string) (string, error) {
	claims, err := registry.parseClaims(raw)
	if err != nil {
		return "", err
	}
	return claims.ID, nil
}

func (registry *sessionRegistry) parseClaims(raw string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return registry.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithTimeFunc(registry.nowFn),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidSession, err)
	}
	if !token.Valid || claims.ID == "" {
		return nil, errInvalidSession
	}
	return claims, nil
}

func sessionManager(ctx *gin.Context) *wallet.Manager {
	value, ok := ctx.Get(contextSessionKey)
	if !ok {
		return nil
	}
	manager, _ := value.(*wallet.Manager)
	return manager
}
