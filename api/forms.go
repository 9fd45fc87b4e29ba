package api

import (
	"errors"
	"strings"

	"watchlist/models"

	"github.com/go-playground/validator/v10"
)

// MovieForm carries the fields required to create a movie.
type MovieForm struct {
	Title    string `form:"title" binding:"required"`
	Director string `form:"director" binding:"required"`
	Year     int    `form:"year" binding:"required"`
}

// ExtendedMovieForm carries the full editable field set. Cast and tags are
// submitted as comma-separated text.
type ExtendedMovieForm struct {
	MovieForm
	Cast        string `form:"cast"`
	Series      string `form:"series"`
	Tags        string `form:"tags"`
	Description string `form:"description"`
	VideoLink   string `form:"video_link"`
}

// RegisterForm carries a registration submission.
type RegisterForm struct {
	Email           string `form:"email" binding:"required,email"`
	Password        string `form:"password" binding:"required,min=4"`
	ConfirmPassword string `form:"confirm_password" binding:"required,eqfield=Password"`
}

// LoginForm carries a login submission.
type LoginForm struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required"`
}

// formErrorMessages translates binding failures into per-field, user-facing
// messages keyed by the form field name.
func formErrorMessages(err error) map[string]string {
	messages := make(map[string]string)

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		messages["form"] = "Invalid form submission"
		return messages
	}

	for _, e := range ve {
		switch e.Field() {
		case "Title":
			messages["title"] = "Title is required"
		case "Director":
			messages["director"] = "Director is required"
		case "Year":
			messages["year"] = "Year is required and must be a number"
		case "Email":
			if e.Tag() == "email" {
				messages["email"] = "Please provide a valid email address"
			} else {
				messages["email"] = "Email is required"
			}
		case "Password":
			if e.Tag() == "min" {
				messages["password"] = "Password must be at least 4 characters long"
			} else {
				messages["password"] = "Password is required"
			}
		case "ConfirmPassword":
			if e.Tag() == "eqfield" {
				messages["confirm_password"] = "Passwords must match"
			} else {
				messages["confirm_password"] = "Password confirmation is required"
			}
		default:
			messages["form"] = "Invalid input data"
		}
	}
	return messages
}

// splitList turns comma-separated form text into a clean string slice.
// Empty entries are dropped; an all-empty input yields nil so the field
// stays absent from the stored document.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return nil
	}
	return items
}

// joinList renders a stored string slice back into comma-separated form text.
func joinList(items []string) string {
	return strings.Join(items, ", ")
}

// optionalString maps empty form text to an absent field.
func optionalString(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// derefString maps an absent field back to empty form text.
func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// extendedFormFromMovie pre-populates the edit form from an existing document.
func extendedFormFromMovie(movie models.Movie) ExtendedMovieForm {
	return ExtendedMovieForm{
		MovieForm: MovieForm{
			Title:    movie.Title,
			Director: movie.Director,
			Year:     movie.Year,
		},
		Cast:        joinList(movie.Cast),
		Series:      derefString(movie.Series),
		Tags:        joinList(movie.Tags),
		Description: derefString(movie.Description),
		VideoLink:   derefString(movie.VideoLink),
	}
}
