package api

import (
	"watchlist/config"
	"watchlist/db"
	"watchlist/utils"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the route table onto the router. Every route runs
// behind the session middleware; guarded routes additionally sit behind the
// login check. The anonymous single-list variant drops the account routes
// and all guards.
func RegisterRoutes(router *gin.Engine, database *db.Database, cfg *config.Config) {
	router.Use(utils.SessionMiddleware(database, cfg))

	// Public in both variants
	router.GET("/movie/:id", func(c *gin.Context) {
		MovieDetailHandler(c, database, cfg)
	})
	router.GET("/toggle-theme", func(c *gin.Context) {
		ToggleThemeHandler(c, database, cfg)
	})

	if cfg.AnonymousMode {
		// Single shared list: everything public, no accounts.
		router.GET("/", func(c *gin.Context) {
			IndexHandler(c, database, cfg)
		})
		router.GET("/add", func(c *gin.Context) {
			AddMovieHandler(c, database, cfg)
		})
		router.POST("/add", func(c *gin.Context) {
			AddMovieHandler(c, database, cfg)
		})
		router.GET("/movie/:id/rate", func(c *gin.Context) {
			RateMovieHandler(c, database, cfg)
		})
		router.GET("/movie/:id/watch", func(c *gin.Context) {
			WatchMovieHandler(c, database, cfg)
		})
		return
	}

	// Account routes (multi-user variant only)
	router.GET("/register", func(c *gin.Context) {
		RegisterHandler(c, database, cfg)
	})
	router.POST("/register", func(c *gin.Context) {
		RegisterHandler(c, database, cfg)
	})
	router.GET("/login", func(c *gin.Context) {
		LoginHandler(c, database, cfg)
	})
	router.POST("/login", func(c *gin.Context) {
		LoginHandler(c, database, cfg)
	})
	router.GET("/logout", func(c *gin.Context) {
		LogoutHandler(c, database, cfg)
	})

	// Guarded routes
	loginRequired := utils.LoginRequired()

	router.GET("/", loginRequired, func(c *gin.Context) {
		IndexHandler(c, database, cfg)
	})
	router.GET("/add", loginRequired, func(c *gin.Context) {
		AddMovieHandler(c, database, cfg)
	})
	router.POST("/add", loginRequired, func(c *gin.Context) {
		AddMovieHandler(c, database, cfg)
	})
	router.GET("/edit/:id", loginRequired, func(c *gin.Context) {
		EditMovieHandler(c, database, cfg)
	})
	router.POST("/edit/:id", loginRequired, func(c *gin.Context) {
		EditMovieHandler(c, database, cfg)
	})
	router.GET("/movie/:id/rate", loginRequired, func(c *gin.Context) {
		RateMovieHandler(c, database, cfg)
	})
	router.GET("/movie/:id/watch", loginRequired, func(c *gin.Context) {
		WatchMovieHandler(c, database, cfg)
	})
}
