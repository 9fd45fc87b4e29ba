package db

import (
	"log"
	"time"

	"watchlist/models"
	"watchlist/utils"
)

// Server-side session store. Sessions are transient: they live in memory
// only and are never written to the database file. The browser cookie
// carries a signed reference to the session ID; everything else (identity,
// theme preference, pending flash message) lives here.

// CreateSession creates a fresh anonymous session carrying the given theme
// preference (empty for the default) and registers it in the store.
func (db *Database) CreateSession(theme string) models.Session {
	db.sessionMutex.Lock()
	defer db.sessionMutex.Unlock()

	// Reap expired sessions here so abandoned anonymous sessions cannot
	// accumulate unbounded.
	now := time.Now()
	for id, s := range db.sessions {
		if now.After(s.Expiry) {
			delete(db.sessions, id)
			log.Printf("DEBUG: Cleaned up expired session %s", id)
		}
	}

	sess := models.Session{
		ID:     utils.GenerateDashlessUUID(),
		Theme:  theme,
		Expiry: time.Now().Add(db.config.SessionLifetime),
	}
	db.sessions[sess.ID] = sess
	log.Printf("DEBUG: Created session %s", sess.ID)
	return sess
}

// GetSession fetches a session by ID. Expired sessions are removed on
// access and reported as not found.
func (db *Database) GetSession(id string) (models.Session, bool) {
	db.sessionMutex.Lock()
	defer db.sessionMutex.Unlock()

	sess, found := db.sessions[id]
	if !found {
		return models.Session{}, false
	}
	if time.Now().After(sess.Expiry) {
		delete(db.sessions, id)
		log.Printf("DEBUG: Cleaned up expired session %s during retrieval", id)
		return models.Session{}, false
	}
	return sess, true
}

// PutSession writes a session back to the store, preserving its expiry.
// Used after handlers mutate identity, theme or flash state.
func (db *Database) PutSession(sess models.Session) {
	db.sessionMutex.Lock()
	defer db.sessionMutex.Unlock()
	db.sessions[sess.ID] = sess
}

// DeleteSession removes a session from the store.
func (db *Database) DeleteSession(id string) {
	db.sessionMutex.Lock()
	defer db.sessionMutex.Unlock()
	delete(db.sessions, id)
	log.Printf("DEBUG: Deleted session %s", id)
}

// PopFlash returns the session's pending flash message, if any, and clears
// it so it is shown exactly once.
func (db *Database) PopFlash(id string) *models.Flash {
	db.sessionMutex.Lock()
	defer db.sessionMutex.Unlock()

	sess, found := db.sessions[id]
	if !found || sess.Flash == nil {
		return nil
	}
	flash := sess.Flash
	sess.Flash = nil
	db.sessions[id] = sess
	return flash
}
