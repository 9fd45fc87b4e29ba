package api

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"watchlist/config"
	"watchlist/db"
	"watchlist/models"
	"watchlist/utils"

	"github.com/gin-gonic/gin"
)

// --- Index ---

// IndexHandler lists the current user's watchlist in the order movies were
// added. In anonymous mode it lists the whole shared store instead.
func IndexHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	var movies []models.Movie

	if cfg.AnonymousMode {
		movies = database.GetAllMovies()
	} else {
		sess := utils.CurrentSession(c)
		user, found := database.GetUserByID(sess.UserID)
		if !found {
			// The session references a user that no longer exists.
			utils.NotFoundPage(c, "Authenticated user not found.")
			return
		}
		movies = database.GetMoviesByIDs(user.Movies)
	}

	data := basePage(c, database, "Movies Watchlist")
	data["Movies"] = movies
	c.HTML(http.StatusOK, "index.html", data)
}

// --- Add Movie ---

// AddMovieHandler creates a movie with only the required fields populated.
// GET renders the form (optionally prefilled from OMDb via ?lookup=TITLE);
// POST validates, inserts the document and, outside anonymous mode, appends
// the new ID to the current user's watchlist.
func AddMovieHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	if c.Request.Method == http.MethodGet {
		form := MovieForm{}

		if lookup := strings.TrimSpace(c.Query("lookup")); lookup != "" {
			client := NewOmdbClient(cfg)
			if client.Enabled() {
				prefill, err := client.Lookup(c.Request.Context(), lookup)
				if err != nil {
					log.Printf("WARN: OMDb lookup for '%s' failed: %v", lookup, err)
				} else {
					form = prefill
				}
			}
		}

		data := basePage(c, database, "Movies Watchlist - Add Movie")
		data["Form"] = form
		data["Errors"] = map[string]string{}
		c.HTML(http.StatusOK, "new_movie.html", data)
		return
	}

	var form MovieForm
	if err := c.ShouldBind(&form); err != nil {
		data := basePage(c, database, "Movies Watchlist - Add Movie")
		data["Form"] = form
		data["Errors"] = formErrorMessages(err)
		c.HTML(http.StatusBadRequest, "new_movie.html", data)
		return
	}

	movie := models.Movie{
		Title:    form.Title,
		Director: form.Director,
		Year:     form.Year,
	}
	created, err := database.CreateMovie(movie)
	if err != nil {
		utils.RenderErrorPage(c, http.StatusInternalServerError, fmt.Sprintf("Failed to create movie: %v", err))
		return
	}

	if !cfg.AnonymousMode {
		sess := utils.CurrentSession(c)
		if err := database.AppendMovieToUser(sess.UserID, created.ID); err != nil {
			utils.RenderErrorPage(c, http.StatusInternalServerError, fmt.Sprintf("Failed to update watchlist: %v", err))
			return
		}
	}

	c.Redirect(http.StatusFound, "/movie/"+created.ID)
}

// --- Edit Movie ---

// EditMovieHandler overwrites the editable fields of an existing movie.
// Rating and last-watched are untouched. Unknown IDs get a 404 for both the
// form render and the submission.
func EditMovieHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	id := c.Param("id")
	movie, found := database.GetMovieByID(id)
	if !found {
		utils.NotFoundPage(c, "Movie not found.")
		return
	}

	if c.Request.Method == http.MethodGet {
		data := basePage(c, database, "Movies Watchlist - Edit Movie")
		data["Movie"] = movie
		data["Form"] = extendedFormFromMovie(movie)
		data["Errors"] = map[string]string{}
		c.HTML(http.StatusOK, "movie_form.html", data)
		return
	}

	var form ExtendedMovieForm
	if err := c.ShouldBind(&form); err != nil {
		data := basePage(c, database, "Movies Watchlist - Edit Movie")
		data["Movie"] = movie
		data["Form"] = form
		data["Errors"] = formErrorMessages(err)
		c.HTML(http.StatusBadRequest, "movie_form.html", data)
		return
	}

	updated := models.Movie{
		Title:       form.Title,
		Director:    form.Director,
		Year:        form.Year,
		Cast:        splitList(form.Cast),
		Series:      optionalString(form.Series),
		Tags:        splitList(form.Tags),
		Description: optionalString(form.Description),
		VideoLink:   optionalString(form.VideoLink),
	}
	if _, err := database.UpdateMovieDetails(id, updated); err != nil {
		utils.NotFoundPage(c, "Movie not found.")
		return
	}

	c.Redirect(http.StatusFound, "/movie/"+id)
}

// --- Movie Detail ---

// MovieDetailHandler renders a single movie, or a 404 page if the ID does
// not resolve.
func MovieDetailHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	id := c.Param("id")
	movie, found := database.GetMovieByID(id)
	if !found {
		utils.NotFoundPage(c, "Movie not found.")
		return
	}

	data := basePage(c, database, "Movies Watchlist - "+movie.Title)
	data["Movie"] = movie
	data["RatingScale"] = []int{1, 2, 3, 4, 5}
	c.HTML(http.StatusOK, "movie_details.html", data)
}

// --- Rate Movie ---

// RateMovieHandler reads an integer rating from the query string and sets it
// on the movie. The write is blind: an unknown ID is a silent no-op. Any
// value that parses as an integer is accepted.
func RateMovieHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	id := c.Param("id")

	rating, err := strconv.Atoi(c.Query("rating"))
	if err != nil {
		log.Printf("WARN: Ignoring unparseable rating '%s' for Movie ID %s", c.Query("rating"), id)
		c.Redirect(http.StatusFound, "/movie/"+id)
		return
	}

	database.SetMovieRating(id, rating)
	c.Redirect(http.StatusFound, "/movie/"+id)
}

// --- Watch Movie ---

// WatchMovieHandler stamps the movie's last-watched time with the current
// moment. Blind update, same no-op semantics as rating.
func WatchMovieHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	id := c.Param("id")
	database.SetMovieLastWatched(id, time.Now().UTC())
	c.Redirect(http.StatusFound, "/movie/"+id)
}
