package config

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds all configuration settings for the application.
type Config struct {
	// Server settings
	ListenAddress string
	ListenPort    string

	// Database settings
	DbFilePath   string
	SaveInterval time.Duration
	EnableBackup bool

	// Session settings
	SessionSecret     string // The actual signing key
	SessionSecretFile string // Path to the file containing the key
	SessionLifetime   time.Duration
	BcryptCost        int

	// Behavior
	AnonymousMode bool   // Single shared list, no accounts
	TemplateGlob  string // Glob passed to Gin's HTML loader

	// OMDb metadata lookup (optional; disabled when the key is empty)
	OmdbAPIKey  string
	OmdbBaseURL string
}

const (
	defaultAddress           = "0.0.0.0"
	defaultPort              = "8080"
	defaultDbFile            = "./watchlist.json" // Relative to working dir
	defaultSaveInterval      = 3 * time.Second
	defaultEnableBackup      = true
	defaultSessionSecretFile = ""                 // No default file
	defaultSessionKeyFile    = "./watchlist.key"  // Default file if we generate a key
	defaultSessionLifetime   = 24 * time.Hour
	defaultBcryptCost        = 12
	defaultTemplateGlob      = "templates/*.html"
	defaultOmdbBaseURL       = "https://www.omdbapi.com/"
)

// LoadConfig loads configuration from defaults, environment variables, and command-line flags.
// Command-line flags take precedence over environment variables, which take precedence over defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	// Use WATCHLIST_ prefix for environment variables to avoid conflicts
	flag.StringVar(&cfg.ListenAddress, "address", getEnv("WATCHLIST_LISTEN_ADDRESS", defaultAddress), "Server listen address (Env: WATCHLIST_LISTEN_ADDRESS)")
	flag.StringVar(&cfg.ListenPort, "port", defaultPort, "Server listen port (Env: WATCHLIST_LISTEN_PORT)")
	flag.StringVar(&cfg.DbFilePath, "db-file", getEnv("WATCHLIST_DB_FILE_PATH", defaultDbFile), "Path to the JSON database file (Env: WATCHLIST_DB_FILE_PATH)")
	saveIntervalStr := flag.String("save-interval", getEnv("WATCHLIST_SAVE_INTERVAL", defaultSaveInterval.String()), "Debounce interval for saving DB (e.g., 5s, 100ms) (Env: WATCHLIST_SAVE_INTERVAL)")
	flag.BoolVar(&cfg.EnableBackup, "enable-backup", getEnvBool("WATCHLIST_ENABLE_BACKUP", defaultEnableBackup), "Enable database backup (.bak file) before saving (Env: WATCHLIST_ENABLE_BACKUP)")
	flag.StringVar(&cfg.SessionSecretFile, "session-secret-file", getEnv("WATCHLIST_SESSION_SECRET_FILE", defaultSessionSecretFile), "Path to file containing the session cookie signing key (overrides WATCHLIST_SESSION_SECRET env var) (Env: WATCHLIST_SESSION_SECRET_FILE)")
	flag.BoolVar(&cfg.AnonymousMode, "anonymous", getEnvBool("WATCHLIST_ANONYMOUS_MODE", false), "Run as a single shared list with no accounts (Env: WATCHLIST_ANONYMOUS_MODE)")
	flag.StringVar(&cfg.TemplateGlob, "templates", getEnv("WATCHLIST_TEMPLATE_GLOB", defaultTemplateGlob), "Glob for HTML templates (Env: WATCHLIST_TEMPLATE_GLOB)")
	flag.StringVar(&cfg.OmdbAPIKey, "omdb-api-key", getEnv("WATCHLIST_OMDB_API_KEY", ""), "OMDb API key for add-form prefill; empty disables lookup (Env: WATCHLIST_OMDB_API_KEY)")

	// Non-configurable defaults
	cfg.SessionLifetime = defaultSessionLifetime
	cfg.BcryptCost = defaultBcryptCost
	cfg.OmdbBaseURL = defaultOmdbBaseURL

	flag.Parse()

	// --- Post-Flag Parsing Adjustments ---
	// Explicitly check environment variables to allow them to override defaults
	// if the corresponding flag was not provided.

	envPort := getEnv("WATCHLIST_LISTEN_PORT", "")
	if cfg.ListenPort == defaultPort && envPort != "" {
		cfg.ListenPort = envPort
	}

	envDbFile := getEnv("WATCHLIST_DB_FILE_PATH", "")
	if cfg.DbFilePath == defaultDbFile && envDbFile != "" {
		cfg.DbFilePath = envDbFile
	}

	envSaveInterval := getEnv("WATCHLIST_SAVE_INTERVAL", "")
	if *saveIntervalStr == defaultSaveInterval.String() && envSaveInterval != "" {
		if _, err := time.ParseDuration(envSaveInterval); err == nil {
			*saveIntervalStr = envSaveInterval
		} else {
			log.Printf("WARN: Invalid duration in WATCHLIST_SAVE_INTERVAL: '%s'. Using default/flag value. Error: %v", envSaveInterval, err)
		}
	}

	envSecretFile := getEnv("WATCHLIST_SESSION_SECRET_FILE", "")
	if cfg.SessionSecretFile == defaultSessionSecretFile && envSecretFile != "" {
		cfg.SessionSecretFile = envSecretFile
	}

	var err error
	cfg.SaveInterval, err = time.ParseDuration(*saveIntervalStr)
	if err != nil {
		log.Printf("WARN: Invalid save-interval duration '%s'. Using default %s. Error: %v", *saveIntervalStr, defaultSaveInterval, err)
		cfg.SaveInterval = defaultSaveInterval
	}

	// --- Session Secret Handling ---
	// Priority: File (CLI/Env) > Env Var > Default Key File > Generate
	var secretSource string

	// 1. Check explicit file path (from flag or WATCHLIST_SESSION_SECRET_FILE env)
	if cfg.SessionSecretFile != "" {
		secretBytes, err := os.ReadFile(cfg.SessionSecretFile)
		if err == nil {
			cfg.SessionSecret = strings.TrimSpace(string(secretBytes))
			if cfg.SessionSecret != "" {
				log.Printf("INFO: Loaded session secret from specified file: %s", cfg.SessionSecretFile)
				secretSource = fmt.Sprintf("File (%s)", cfg.SessionSecretFile)
			} else {
				log.Printf("WARN: Specified session secret file '%s' is empty or contains only whitespace. Ignoring.", cfg.SessionSecretFile)
			}
		} else {
			log.Printf("WARN: Failed to read specified session secret file '%s': %v. Checking other sources.", cfg.SessionSecretFile, err)
		}
	}

	// 2. Check environment variable (WATCHLIST_SESSION_SECRET) if not loaded from file
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = strings.TrimSpace(getEnv("WATCHLIST_SESSION_SECRET", ""))
		if cfg.SessionSecret != "" {
			log.Printf("INFO: Loaded session secret from WATCHLIST_SESSION_SECRET environment variable.")
			secretSource = "Environment Variable (WATCHLIST_SESSION_SECRET)"
		}
	}

	// 3. Check default key file if still no secret
	if cfg.SessionSecret == "" {
		secretBytes, err := os.ReadFile(defaultSessionKeyFile)
		if err == nil {
			cfg.SessionSecret = strings.TrimSpace(string(secretBytes))
			if cfg.SessionSecret != "" {
				log.Printf("INFO: Loaded session secret from default key file: %s", defaultSessionKeyFile)
				secretSource = fmt.Sprintf("Default Key File (%s)", defaultSessionKeyFile)
			} else {
				log.Printf("WARN: Default session key file '%s' is empty or contains only whitespace. Will attempt generation.", defaultSessionKeyFile)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("WARN: Failed to read default session key file '%s': %v. Will attempt generation.", defaultSessionKeyFile, err)
		}
	}

	// 4. Generate a secret if still not found and save to the default file
	if cfg.SessionSecret == "" {
		log.Printf("INFO: Session secret not found via file, environment variable, or default key file. Generating a new secret...")
		newSecret, err := generateRandomKey(32) // 256-bit key
		if err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		cfg.SessionSecret = newSecret

		if err := os.WriteFile(defaultSessionKeyFile, []byte(newSecret), 0600); err != nil {
			log.Printf("WARN: Failed to save generated session secret to '%s': %v. The server will use the generated key for this session only.", defaultSessionKeyFile, err)
			secretSource = "Generated (In Memory)"
		} else {
			log.Printf("INFO: Successfully generated and saved new session secret to: %s", defaultSessionKeyFile)
			secretSource = fmt.Sprintf("Generated & Saved (%s)", defaultSessionKeyFile)
		}
	}

	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("failed to obtain a valid session secret after checking all sources and attempting generation")
	}

	// --- Database Path Validation ---
	absDbPath, err := filepath.Abs(cfg.DbFilePath)
	if err != nil {
		return nil, fmt.Errorf("could not determine absolute path for db-file '%s': %w", cfg.DbFilePath, err)
	}
	cfg.DbFilePath = absDbPath

	fileInfo, err := os.Stat(cfg.DbFilePath)
	if err == nil && fileInfo.IsDir() {
		return nil, fmt.Errorf("database path '%s' points to a directory, not a file", cfg.DbFilePath)
	}
	// os.IsNotExist is fine here; the DB is created on first save.

	logConfiguration(cfg, secretSource)

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvBool retrieves a boolean environment variable or returns a default value.
// Recognizes "true", "1", "yes" (case-insensitive) as true.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		switch strings.ToLower(value) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
		log.Printf("WARN: Invalid boolean value for environment variable %s: '%s'. Using default: %t", key, value, fallback)
	}
	return fallback
}

// logConfiguration prints the loaded configuration settings.
func logConfiguration(cfg *Config, secretSource string) {
	log.Println("--- Configuration ---")
	log.Printf("Server Address: %s", cfg.ListenAddress)
	log.Printf("Server Port: %s", cfg.ListenPort)
	log.Printf("Database File: %s", cfg.DbFilePath)
	log.Printf("Database Save Interval: %s", cfg.SaveInterval)
	log.Printf("Database Backup Enabled: %t", cfg.EnableBackup)
	log.Printf("Session Secret Source: %s", secretSource)
	log.Printf("Session Lifetime: %s", cfg.SessionLifetime)
	log.Printf("Bcrypt Cost: %d", cfg.BcryptCost)
	log.Printf("Anonymous Mode: %t", cfg.AnonymousMode)
	log.Printf("OMDb Lookup Enabled: %t", cfg.OmdbAPIKey != "")
	log.Println("---------------------")
}

// generateRandomKey generates a cryptographically secure random key of the specified byte length
// and returns it as a hex-encoded string.
func generateRandomKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
