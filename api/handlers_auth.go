package api

import (
	"log"
	"net/http"

	"watchlist/config"
	"watchlist/db"
	"watchlist/models"
	"watchlist/utils"

	"github.com/gin-gonic/gin"
)

// basePage assembles the template data shared by every rendered page:
// title, theme, identity and the pending flash message (popped here, so it
// shows exactly once).
func basePage(c *gin.Context, database *db.Database, title string) gin.H {
	sess := utils.CurrentSession(c)

	theme := sess.Theme
	if theme != "dark" {
		theme = "light"
	}

	return gin.H{
		"Title":       title,
		"Theme":       theme,
		"LoggedIn":    sess.Authenticated(),
		"Email":       sess.Email,
		"Flash":       database.PopFlash(sess.ID),
		"CurrentPath": c.Request.URL.RequestURI(),
	}
}

// setFlash stores a one-shot notification on the current session.
func setFlash(c *gin.Context, database *db.Database, message, category string) {
	sess := utils.CurrentSession(c)
	sess.Flash = &models.Flash{Message: message, Category: category}
	database.PutSession(sess)
	utils.SetContextSession(c, sess)
}

// --- Register ---

// RegisterHandler creates a new user account with an empty watchlist.
// GET renders the form; POST validates, hashes the password and inserts the
// user. Duplicate emails are rejected by the store and re-render the form.
func RegisterHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	if utils.CurrentSession(c).Authenticated() {
		c.Redirect(http.StatusFound, "/")
		return
	}

	if c.Request.Method == http.MethodGet {
		data := basePage(c, database, "Movies Watchlist - Register")
		data["Form"] = RegisterForm{}
		data["Errors"] = map[string]string{}
		c.HTML(http.StatusOK, "register.html", data)
		return
	}

	var form RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		data := basePage(c, database, "Movies Watchlist - Register")
		data["Form"] = form
		data["Errors"] = formErrorMessages(err)
		c.HTML(http.StatusBadRequest, "register.html", data)
		return
	}

	passwordHash, err := utils.HashPassword(form.Password, cfg.BcryptCost)
	if err != nil {
		utils.RenderErrorPage(c, http.StatusInternalServerError, "Failed to process registration.")
		return
	}

	user := models.User{
		Email:        form.Email,
		PasswordHash: passwordHash,
		Movies:       []string{},
	}
	if _, err := database.CreateUser(user); err != nil {
		data := basePage(c, database, "Movies Watchlist - Register")
		data["Form"] = form
		data["Errors"] = map[string]string{"email": "An account with this email already exists"}
		c.HTML(http.StatusBadRequest, "register.html", data)
		return
	}

	setFlash(c, database, "User registered successfully", "success")
	c.Redirect(http.StatusFound, "/")
}

// --- Login ---

// LoginHandler authenticates a user. Wrong email and wrong password are
// deliberately indistinguishable: both flash the same message and redirect
// back to the login form.
func LoginHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	if utils.CurrentSession(c).Authenticated() {
		c.Redirect(http.StatusFound, "/")
		return
	}

	if c.Request.Method == http.MethodGet {
		data := basePage(c, database, "Movies Watchlist - Login")
		data["Form"] = LoginForm{}
		data["Errors"] = map[string]string{}
		c.HTML(http.StatusOK, "login.html", data)
		return
	}

	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		data := basePage(c, database, "Movies Watchlist - Login")
		data["Form"] = form
		data["Errors"] = formErrorMessages(err)
		c.HTML(http.StatusBadRequest, "login.html", data)
		return
	}

	user, found := database.GetUserByEmail(form.Email)
	if !found || !utils.CheckPasswordHash(form.Password, user.PasswordHash) {
		setFlash(c, database, "Login credentials not correct", "danger")
		c.Redirect(http.StatusFound, "/login")
		return
	}

	// Rotate the session on login: the pre-auth session ID must not gain an
	// identity. Theme and any pending flash carry over.
	old := utils.CurrentSession(c)
	database.DeleteSession(old.ID)

	sess := database.CreateSession(old.Theme)
	sess.UserID = user.ID
	sess.Email = user.Email
	sess.Flash = old.Flash
	database.PutSession(sess)

	token, err := utils.MintSessionToken(sess.ID, cfg)
	if err != nil {
		utils.RenderErrorPage(c, http.StatusInternalServerError, "Failed to establish session.")
		return
	}
	utils.SetSessionCookie(c, token, cfg)
	utils.SetContextSession(c, sess)

	log.Printf("INFO: User %s logged in", user.ID)
	c.Redirect(http.StatusFound, "/")
}

// --- Logout ---

// LogoutHandler clears all session state except the theme preference, which
// is carried over into a fresh anonymous session.
func LogoutHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	old := utils.CurrentSession(c)
	theme := old.Theme
	database.DeleteSession(old.ID)

	fresh := database.CreateSession(theme)
	token, err := utils.MintSessionToken(fresh.ID, cfg)
	if err != nil {
		utils.RenderErrorPage(c, http.StatusInternalServerError, "Failed to re-establish session.")
		return
	}
	utils.SetSessionCookie(c, token, cfg)
	utils.SetContextSession(c, fresh)

	c.Redirect(http.StatusFound, "/login")
}

// --- Toggle Theme ---

// ToggleThemeHandler flips the session's theme preference between light and
// dark, then redirects to the caller-supplied current page. The target is
// restricted to local paths.
func ToggleThemeHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	sess := utils.CurrentSession(c)
	if sess.Theme == "dark" {
		sess.Theme = "light"
	} else {
		sess.Theme = "dark"
	}
	database.PutSession(sess)
	utils.SetContextSession(c, sess)

	c.Redirect(http.StatusFound, utils.SafeRedirectTarget(c.Query("current_page")))
}
