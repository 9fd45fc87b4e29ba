package utils

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GenerateDashlessUUID creates a new UUID v4 and returns its string representation
// with all dashes removed.
func GenerateDashlessUUID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")
}

// RenderErrorPage renders the shared error template with a specific status code.
// It logs the error server-side as well.
func RenderErrorPage(c *gin.Context, statusCode int, message string) {
	log.Printf("ERROR: Request %s %s - Status %d - %s", c.Request.Method, c.Request.URL.Path, statusCode, message)
	theme := CurrentSession(c).Theme
	if theme != "dark" {
		theme = "light"
	}
	c.HTML(statusCode, "error.html", gin.H{
		"Title":   "Movies Watchlist - Error",
		"Status":  statusCode,
		"Message": message,
		"Theme":   theme,
	})
	c.Abort()
}

// NotFoundPage renders a 404 error page.
func NotFoundPage(c *gin.Context, message string) {
	RenderErrorPage(c, http.StatusNotFound, message)
}

// SafeRedirectTarget restricts a caller-supplied redirect target to local
// paths. Anything that is not a single-slash-rooted path (including
// protocol-relative "//host" forms) falls back to "/".
func SafeRedirectTarget(raw string) string {
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return raw
	}
	return "/"
}
