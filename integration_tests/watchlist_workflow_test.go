package integration_tests

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"watchlist/api"
	"watchlist/config"
	"watchlist/db"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSessionSecret = "a-very-secure-secret-for-testing-only"

// startTestServer runs the full application (routes, templates, store) on an
// httptest server and returns an HTTP client with a cookie jar, so the test
// drives it exactly like a browser would.
func startTestServer(t *testing.T) (*httptest.Server, *http.Client, *db.Database) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		DbFilePath:      filepath.Join(t.TempDir(), "integration_db.json"),
		SaveInterval:    100 * time.Millisecond,
		EnableBackup:    false,
		SessionSecret:   testSessionSecret,
		SessionLifetime: 1 * time.Hour,
		BcryptCost:      4,
		TemplateGlob:    "../templates/*.html",
	}

	database, err := db.NewDatabase(cfg)
	require.NoError(t, err)

	router := gin.New()
	router.Use(gin.Recovery())
	router.LoadHTMLGlob(cfg.TemplateGlob)
	api.RegisterRoutes(router, database, cfg)

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		if err := database.Close(); err != nil {
			t.Logf("Warning: Error closing test database: %v", err)
		}
	})

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		// Follow redirects like a browser; the workflow assertions read the
		// final rendered pages.
	}

	return server, client, database
}

func postForm(t *testing.T, client *http.Client, target string, form url.Values) *http.Response {
	t.Helper()
	resp, err := client.PostForm(target, form)
	require.NoError(t, err)
	return resp
}

func getPage(t *testing.T, client *http.Client, target string) (int, string) {
	t.Helper()
	resp, err := client.Get(target)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

// TestWatchlistWorkflow walks the whole user journey: register, log in, add
// a movie, view it, rate it, mark it watched, edit it, and log out.
func TestWatchlistWorkflow(t *testing.T) {
	server, client, database := startTestServer(t)
	base := server.URL

	// Anonymous users are bounced to the login page.
	status, body := getPage(t, client, base+"/")
	require.Equal(t, http.StatusOK, status, "Redirect chain should land on the login page")
	require.Contains(t, body, "Log in")

	// Register.
	resp := postForm(t, client, base+"/register", url.Values{
		"email":            {"walk@example.com"},
		"password":         {"workflow-pass"},
		"confirm_password": {"workflow-pass"},
	})
	resp.Body.Close()

	// Log in.
	resp = postForm(t, client, base+"/login", url.Values{
		"email":    {"walk@example.com"},
		"password": {"workflow-pass"},
	})
	resp.Body.Close()

	status, body = getPage(t, client, base+"/")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "walk@example.com", "Nav should show the logged-in account")
	require.Contains(t, body, "Nothing here yet")

	// Add a movie; the redirect lands on its detail page.
	resp = postForm(t, client, base+"/add", url.Values{
		"title":    {"Dune"},
		"director": {"Villeneuve"},
		"year":     {"2021"},
	})
	finalURL := resp.Request.URL
	resp.Body.Close()
	require.Contains(t, finalURL.Path, "/movie/", "Add should land on the detail page")
	movieID := strings.TrimPrefix(finalURL.Path, "/movie/")

	status, body = getPage(t, client, base+"/movie/"+movieID)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Dune")
	assert.NotContains(t, body, "Rating:", "Fresh movie has no rating")

	// Rate it.
	status, body = getPage(t, client, base+"/movie/"+movieID+"/rate?rating=5")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Rating: 5")

	// Mark it watched.
	status, body = getPage(t, client, base+"/movie/"+movieID+"/watch")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Last watched:")

	// Edit the full field set; rating must survive.
	resp = postForm(t, client, base+"/edit/"+movieID, url.Values{
		"title":       {"Dune: Part One"},
		"director":    {"Denis Villeneuve"},
		"year":        {"2021"},
		"cast":        {"Timothee Chalamet, Zendaya"},
		"series":      {"Dune"},
		"tags":        {"scifi"},
		"description": {"House Atreides takes Arrakis."},
		"video_link":  {"https://example.com/dune"},
	})
	resp.Body.Close()

	status, body = getPage(t, client, base+"/movie/"+movieID)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Dune: Part One")
	assert.Contains(t, body, "Timothee Chalamet, Zendaya")
	assert.Contains(t, body, "Rating: 5", "Edit must not clear the rating")

	// Flip the theme, then log out: identity clears, theme sticks.
	status, _ = getPage(t, client, base+"/toggle-theme?current_page=/")
	require.Equal(t, http.StatusOK, status)

	status, body = getPage(t, client, base+"/logout")
	require.Equal(t, http.StatusOK, status, "Logout redirect lands on the login page")
	assert.Contains(t, body, `class="theme-dark"`, "Theme survives logout")

	status, _ = getPage(t, client, base+"/add")
	// The guard bounced us to the login form.
	assert.Equal(t, http.StatusOK, status)

	// Store-level check: the document kept the edit and the rating.
	movie, found := database.GetMovieByID(movieID)
	require.True(t, found)
	assert.Equal(t, "Dune: Part One", movie.Title)
	require.NotNil(t, movie.Rating)
	assert.Equal(t, 5, *movie.Rating)
	require.NotNil(t, movie.LastWatched)
}
