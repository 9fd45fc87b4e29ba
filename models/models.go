package models

import (
	"sync"
	"time"
)

// User represents a registered account
type User struct {
	ID           string    `json:"id"`            // Unique ID (UUID, dashless)
	Email        string    `json:"email"`         // Unique, used for login
	PasswordHash string    `json:"password_hash"` // Store hash, include in JSON persistence.
	Movies       []string  `json:"movies"`        // Movie IDs in the order they were added
	CreationDate time.Time `json:"creation_date"` // UTC
}

// Movie represents a watchlist entry. Only title, director and year are set
// at creation; everything else is filled in later via edit, rate or watch,
// so the optional fields stay absent from JSON until written.
type Movie struct {
	ID          string     `json:"id"` // Unique ID (UUID, dashless)
	Title       string     `json:"title"`
	Director    string     `json:"director"`
	Year        int        `json:"year"`
	Cast        []string   `json:"cast,omitempty"`
	Series      *string    `json:"series,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Description *string    `json:"description,omitempty"`
	VideoLink   *string    `json:"video_link,omitempty"`
	Rating      *int       `json:"rating,omitempty"`       // Set post-creation only
	LastWatched *time.Time `json:"last_watched,omitempty"` // Set post-creation only
}

// Flash is a one-shot notification carried in the session and shown on the
// next rendered page.
type Flash struct {
	Message  string `json:"message"`
	Category string `json:"category"` // "success" or "danger"
}

// Session is the server-side state referenced by the browser's session
// cookie. Identity fields are empty while anonymous; Theme survives logout.
type Session struct {
	ID     string    `json:"id"`      // Opaque session ID (UUID, dashless)
	UserID string    `json:"user_id"` // Empty when not logged in
	Email  string    `json:"email"`   // Empty when not logged in
	Theme  string    `json:"theme"`   // "light", "dark" or "" (treated as light)
	Flash  *Flash    `json:"flash,omitempty"`
	Expiry time.Time `json:"expiry"`
}

// Authenticated reports whether the session carries an identity.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}

// Database holds all persisted application data and manages concurrent access
type Database struct {
	Users  map[string]User  `json:"users"`  // Keyed by User ID (dashless)
	Movies map[string]Movie `json:"movies"` // Keyed by Movie ID (dashless)

	// Mutex for thread-safe access to the maps
	Mu sync.RWMutex `json:"-"` // Exclude mutex from serialization
}
