package utils

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"watchlist/config"
	"watchlist/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// --- Password Hashing ---

// HashPassword generates a bcrypt hash for the given password using the cost from config.
func HashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		log.Printf("ERROR: Failed to hash password: %v", err)
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPasswordHash compares a plain text password with a stored bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// --- Session Cookie Handling ---

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "watchlist_session"

// sessionContextKey is the Gin context key the session middleware sets.
const sessionContextKey = "session"

// SessionClaims wraps the opaque session ID in a signed token. All session
// state lives server-side; the token only proves the ID was issued by us.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// MintSessionToken signs a token referencing the given session ID.
func MintSessionToken(sessionID string, cfg *config.Config) (string, error) {
	if cfg.SessionSecret == "" {
		log.Println("CRITICAL: Session secret is empty. Cannot mint session token.")
		return "", errors.New("session secret is not configured")
	}

	claims := &SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(cfg.SessionLifetime)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "watchlist",
			Subject:   sessionID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(cfg.SessionSecret))
	if err != nil {
		log.Printf("ERROR: Failed to sign session token: %v", err)
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateSessionToken parses and validates a session token string.
// Returns the session ID if valid, otherwise returns an error.
func ValidateSessionToken(tokenString string, cfg *config.Config) (string, error) {
	if cfg.SessionSecret == "" {
		log.Println("CRITICAL: Session secret is empty. Cannot validate session token.")
		return "", errors.New("session secret is not configured")
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.SessionSecret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errors.New("session token has expired")
		}
		return "", fmt.Errorf("invalid session token: %w", err)
	}

	if !token.Valid || claims.SessionID == "" {
		return "", errors.New("invalid session token")
	}

	return claims.SessionID, nil
}

// --- Middleware ---

// SessionStore is the part of the database the session middleware needs.
// Declared here to avoid a utils -> db import cycle (the db package already
// imports utils for ID generation).
type SessionStore interface {
	GetSession(id string) (models.Session, bool)
	CreateSession(theme string) models.Session
}

// SessionMiddleware ensures every request carries a server-side session. It
// validates the session cookie and loads the referenced session; if either
// is missing or stale it issues a fresh anonymous session and re-sets the
// cookie. The session is stored in the Gin context for handlers.
func SessionMiddleware(store SessionStore, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sess models.Session
		loaded := false

		if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
			if sid, err := ValidateSessionToken(cookie, cfg); err == nil {
				if s, found := store.GetSession(sid); found {
					sess = s
					loaded = true
				}
			} else {
				log.Printf("WARN: Rejected session cookie: %v", err)
			}
		}

		if !loaded {
			sess = store.CreateSession("")
			token, err := MintSessionToken(sess.ID, cfg)
			if err != nil {
				RenderErrorPage(c, http.StatusInternalServerError, "Failed to establish session.")
				return
			}
			SetSessionCookie(c, token, cfg)
		}

		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

// LoginRequired guards a route behind an authenticated session. Requests
// without an identity are redirected to the login page and the handler is
// never invoked.
func LoginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := CurrentSession(c)
		if !sess.Authenticated() {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentSession returns the session placed in the context by SessionMiddleware.
// Returns a zero session if the middleware did not run (e.g. misconfigured routes).
func CurrentSession(c *gin.Context) models.Session {
	if v, exists := c.Get(sessionContextKey); exists {
		if sess, ok := v.(models.Session); ok {
			return sess
		}
	}
	return models.Session{}
}

// SetContextSession replaces the session in the Gin context, so later
// handlers in the chain observe mutations made by earlier ones.
func SetContextSession(c *gin.Context, sess models.Session) {
	c.Set(sessionContextKey, sess)
}

// SetSessionCookie writes the signed session token cookie.
func SetSessionCookie(c *gin.Context, token string, cfg *config.Config) {
	c.SetCookie(SessionCookieName, token, int(cfg.SessionLifetime.Seconds()), "/", "", false, true)
}
