package db

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"watchlist/config"
	"watchlist/models"
	"watchlist/utils"
)

// Database holds all application data and manages concurrent access.
// We embed the models.Database struct to inherit the persisted collections
// (Users, Movies, mu) and add fields specific to the database *logic*
// (config, save debouncing, transient session store).
type Database struct {
	models.Database // Embedded struct from models
	config          *config.Config
	saveTimer       *time.Timer // Timer for debounced saving
	savePending     bool        // Flag to indicate if a save is queued
	saveMutex       sync.Mutex  // Mutex specifically for the save timer logic

	sessions     map[string]models.Session // Transient server-side session store
	sessionMutex sync.Mutex                // Mutex for session store access
}

// NewDatabase creates and initializes a new Database instance.
// It loads the configuration and attempts to load existing data from the file.
func NewDatabase(cfg *config.Config) (*Database, error) {
	db := &Database{
		Database: models.Database{
			Users:  make(map[string]models.User),
			Movies: make(map[string]models.Movie),
		},
		config:   cfg,
		sessions: make(map[string]models.Session),
	}

	log.Printf("INFO: Initializing database with file: %s", cfg.DbFilePath)
	err := db.Load()
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("ERROR: Database Load failed with critical error: %v", err)
			return nil, err
		}
	}

	return db, nil
}

// Load reads the database state from the JSON file specified in the configuration.
// If the file doesn't exist, it initializes an empty database state and logs a message.
// If the file exists but cannot be parsed, it logs a critical error and returns it.
func (db *Database) Load() error {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	fileData, err := os.ReadFile(db.config.DbFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("INFO: Database file '%s' not found. Initializing empty database.", db.config.DbFilePath)
			db.Database.Users = make(map[string]models.User)
			db.Database.Movies = make(map[string]models.Movie)
			return nil
		}
		log.Printf("ERROR: Failed to read database file '%s': %v. Attempting to proceed with empty state.", db.config.DbFilePath, err)
		db.Database.Users = make(map[string]models.User)
		db.Database.Movies = make(map[string]models.Movie)
		return nil
	}

	err = json.Unmarshal(fileData, &db.Database)
	if err != nil {
		log.Printf("CRITICAL: Failed to parse JSON data from database file '%s': %v. Server startup might be affected.", db.config.DbFilePath, err)
		if db.Database.Users == nil {
			db.Database.Users = make(map[string]models.User)
		}
		if db.Database.Movies == nil {
			db.Database.Movies = make(map[string]models.Movie)
		}
		return err
	}

	if db.Database.Users == nil {
		db.Database.Users = make(map[string]models.User)
	}
	if db.Database.Movies == nil {
		db.Database.Movies = make(map[string]models.Movie)
	}

	log.Printf("INFO: Successfully loaded database from %s. Users: %d, Movies: %d",
		db.config.DbFilePath, len(db.Database.Users), len(db.Database.Movies))

	return nil
}

// persist saves the current database state to the JSON file.
// This is the actual file writing logic, called by the debounced mechanism.
func (db *Database) persist() error {
	db.Database.Mu.RLock()
	defer db.Database.Mu.RUnlock()

	jsonData, err := json.MarshalIndent(&db.Database, "", "  ")
	if err != nil {
		log.Printf("ERROR: Failed to marshal database state to JSON: %v", err)
		return err
	}

	// --- Atomic Write ---
	tempFilePath := db.config.DbFilePath + ".tmp"
	backupFilePath := db.config.DbFilePath + ".bak"

	err = os.WriteFile(tempFilePath, jsonData, 0644)
	if err != nil {
		log.Printf("ERROR: Failed to write to temporary database file '%s': %v", tempFilePath, err)
		return err
	}

	if db.config.EnableBackup {
		if _, err := os.Stat(db.config.DbFilePath); err == nil {
			err = os.Rename(db.config.DbFilePath, backupFilePath)
			if err != nil {
				log.Printf("WARN: Failed to rename '%s' to '%s' for backup: %v. Proceeding with save.", db.config.DbFilePath, backupFilePath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("WARN: Error checking status of original DB file '%s' before backup: %v", db.config.DbFilePath, err)
		}
	}

	err = os.Rename(tempFilePath, db.config.DbFilePath)
	if err != nil {
		log.Printf("ERROR: Failed to atomically rename temporary file '%s' to '%s': %v", tempFilePath, db.config.DbFilePath, err)
		_ = os.Remove(tempFilePath)
		return err
	}

	log.Printf("INFO: Successfully saved database state to %s", db.config.DbFilePath)
	return nil
}

// requestSave is called after every write operation to trigger a debounced save.
func (db *Database) requestSave() {
	db.saveMutex.Lock()
	defer db.saveMutex.Unlock()

	// Instant save if interval is zero or negative
	if db.config.SaveInterval <= 0 {
		go func() {
			if err := db.persist(); err != nil {
				log.Printf("ERROR: Immediate persist failed: %v", err)
			}
		}()
		return
	}

	if db.saveTimer != nil {
		db.saveTimer.Stop()
	}

	db.savePending = true

	db.saveTimer = time.AfterFunc(db.config.SaveInterval, func() {
		db.saveMutex.Lock()
		if !db.savePending {
			db.saveMutex.Unlock()
			return
		}
		db.savePending = false
		db.saveMutex.Unlock()

		log.Printf("INFO: Debounced save interval elapsed. Persisting database...")
		if err := db.persist(); err != nil {
			log.Printf("ERROR: Debounced persist failed: %v", err)
		}
	})
}

// --- CRUD Methods: Users ---

// CreateUser adds a new user to the database with an empty watchlist.
// It checks for email uniqueness (case-insensitive).
// Returns the created user or an error if the email already exists.
func (db *Database) CreateUser(user models.User) (models.User, error) {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	for _, existingUser := range db.Database.Users {
		if strings.EqualFold(existingUser.Email, user.Email) {
			return models.User{}, fmt.Errorf("email '%s' already exists", user.Email)
		}
	}

	if user.ID == "" {
		user.ID = utils.GenerateDashlessUUID()
	}
	if user.Movies == nil {
		user.Movies = []string{}
	}
	if user.CreationDate.IsZero() {
		user.CreationDate = time.Now().UTC()
	}

	db.Database.Users[user.ID] = user
	log.Printf("INFO: Created User ID: %s, Email: %s", user.ID, user.Email)

	db.requestSave()

	return user, nil
}

// GetUserByID retrieves a user by its ID.
// Returns the user and true if found, otherwise false.
func (db *Database) GetUserByID(id string) (models.User, bool) {
	db.Database.Mu.RLock()
	defer db.Database.Mu.RUnlock()

	user, found := db.Database.Users[id]
	return user, found
}

// GetUserByEmail retrieves a user by its email address (case-insensitive).
// Returns the user and true if found, otherwise false.
func (db *Database) GetUserByEmail(email string) (models.User, bool) {
	db.Database.Mu.RLock()
	defer db.Database.Mu.RUnlock()

	for _, user := range db.Database.Users {
		if strings.EqualFold(user.Email, email) {
			return user, true
		}
	}
	return models.User{}, false
}

// AppendMovieToUser appends a movie ID to a user's watchlist, preserving
// insertion order. Returns an error if the user does not exist.
func (db *Database) AppendMovieToUser(userID, movieID string) error {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	user, found := db.Database.Users[userID]
	if !found {
		return fmt.Errorf("user with ID '%s' not found", userID)
	}

	user.Movies = append(user.Movies, movieID)
	db.Database.Users[userID] = user
	log.Printf("INFO: Appended Movie ID %s to User ID: %s", movieID, userID)

	db.requestSave()

	return nil
}

// --- CRUD Methods: Movies ---

// CreateMovie adds a new movie to the database. Only the ID is assigned here;
// the caller provides the required fields and any optional ones.
func (db *Database) CreateMovie(movie models.Movie) (models.Movie, error) {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	movie.ID = utils.GenerateDashlessUUID()

	db.Database.Movies[movie.ID] = movie
	log.Printf("INFO: Created Movie ID: %s, Title: %s", movie.ID, movie.Title)

	db.requestSave()

	return movie, nil
}

// GetMovieByID retrieves a movie by its ID.
func (db *Database) GetMovieByID(id string) (models.Movie, bool) {
	db.Database.Mu.RLock()
	defer db.Database.Mu.RUnlock()

	movie, found := db.Database.Movies[id]
	return movie, found
}

// GetMoviesByIDs retrieves the movies for the given ID list, preserving the
// order of the list. IDs that do not resolve are skipped silently.
func (db *Database) GetMoviesByIDs(ids []string) []models.Movie {
	db.Database.Mu.RLock()
	defer db.Database.Mu.RUnlock()

	movies := make([]models.Movie, 0, len(ids))
	for _, id := range ids {
		if movie, found := db.Database.Movies[id]; found {
			movies = append(movies, movie)
		}
	}
	return movies
}

// GetAllMovies retrieves every movie in the store, sorted by title then ID
// for a stable listing. Used by the anonymous single-list variant.
func (db *Database) GetAllMovies() []models.Movie {
	db.Database.Mu.RLock()
	defer db.Database.Mu.RUnlock()

	movies := make([]models.Movie, 0, len(db.Database.Movies))
	for _, movie := range db.Database.Movies {
		movies = append(movies, movie)
	}

	sortMovies(movies)
	return movies
}

// sortMovies orders movies by title (case-insensitive) then ID, so repeated
// listings of the shared store are stable.
func sortMovies(movies []models.Movie) {
	sort.SliceStable(movies, func(i, j int) bool {
		t1 := strings.ToLower(movies[i].Title)
		t2 := strings.ToLower(movies[j].Title)
		if t1 != t2 {
			return t1 < t2
		}
		return movies[i].ID < movies[j].ID
	})
}

// UpdateMovieDetails overwrites the editable fields of an existing movie
// (title, director, year, cast, series, tags, description, video link).
// Rating and last-watched are left untouched.
// Returns the updated movie or an error if not found.
func (db *Database) UpdateMovieDetails(id string, updated models.Movie) (models.Movie, error) {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	existing, found := db.Database.Movies[id]
	if !found {
		return models.Movie{}, fmt.Errorf("movie with ID '%s' not found", id)
	}

	existing.Title = updated.Title
	existing.Director = updated.Director
	existing.Year = updated.Year
	existing.Cast = updated.Cast
	existing.Series = updated.Series
	existing.Tags = updated.Tags
	existing.Description = updated.Description
	existing.VideoLink = updated.VideoLink

	db.Database.Movies[id] = existing
	log.Printf("INFO: Updated Movie ID: %s", id)

	db.requestSave()

	return existing, nil
}

// SetMovieRating sets the rating on a movie. This is a blind update: if the
// ID does not resolve, nothing happens and no document is created.
func (db *Database) SetMovieRating(id string, rating int) {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	movie, found := db.Database.Movies[id]
	if !found {
		log.Printf("WARN: SetMovieRating on unknown Movie ID: %s (no-op)", id)
		return
	}

	movie.Rating = &rating
	db.Database.Movies[id] = movie
	log.Printf("INFO: Set rating %d on Movie ID: %s", rating, id)

	db.requestSave()
}

// SetMovieLastWatched sets the last-watched timestamp on a movie. Blind
// update with the same no-op semantics as SetMovieRating.
func (db *Database) SetMovieLastWatched(id string, watched time.Time) {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	movie, found := db.Database.Movies[id]
	if !found {
		log.Printf("WARN: SetMovieLastWatched on unknown Movie ID: %s (no-op)", id)
		return
	}

	movie.LastWatched = &watched
	db.Database.Movies[id] = movie
	log.Printf("INFO: Set last watched on Movie ID: %s", id)

	db.requestSave()
}

// Close ensures any pending save operation is completed before shutdown.
func (db *Database) Close() error {
	var needsFinalPersist bool

	db.saveMutex.Lock()
	if db.saveTimer != nil {
		db.saveTimer.Stop()
		db.saveTimer = nil
	}
	if db.savePending {
		needsFinalPersist = true
		db.savePending = false
	}
	db.saveMutex.Unlock()

	if needsFinalPersist {
		log.Printf("INFO: Performing final persist operation on close...")
		if err := db.persist(); err != nil {
			log.Printf("ERROR: Final persist operation failed during close: %v", err)
			return err
		}
	}

	return nil
}
