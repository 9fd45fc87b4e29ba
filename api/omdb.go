package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"watchlist/config"

	"github.com/tidwall/gjson"
)

// OmdbClient looks up movie metadata from the OMDb API to prefill the
// add-movie form. It is only used when an API key is configured; lookup
// failures degrade to an empty form.
type OmdbClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewOmdbClient builds a client from configuration.
func NewOmdbClient(cfg *config.Config) *OmdbClient {
	return &OmdbClient{
		apiKey:  cfg.OmdbAPIKey,
		baseURL: cfg.OmdbBaseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Enabled reports whether an API key is configured.
func (c *OmdbClient) Enabled() bool {
	return c.apiKey != ""
}

// Lookup fetches metadata for a title and shapes it into an add-form
// prefill. Only the fields the add form carries are extracted. Returns an
// error when the key is missing, the request fails, or OMDb reports no match.
func (c *OmdbClient) Lookup(ctx context.Context, title string) (MovieForm, error) {
	if c.apiKey == "" {
		return MovieForm{}, fmt.Errorf("OMDb API key not configured")
	}

	lookupURL := fmt.Sprintf("%s?apikey=%s&t=%s", c.baseURL, url.QueryEscape(c.apiKey), url.QueryEscape(title))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return MovieForm{}, fmt.Errorf("failed to build OMDb request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return MovieForm{}, fmt.Errorf("error making request to OMDb API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return MovieForm{}, fmt.Errorf("OMDb API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return MovieForm{}, fmt.Errorf("error reading OMDb response: %w", err)
	}

	// OMDb reports misses with 200 + {"Response":"False"}.
	if gjson.GetBytes(body, "Response").String() != "True" {
		return MovieForm{}, fmt.Errorf("OMDb has no match for '%s'", title)
	}

	// Year can be "2021" or a range like "2021-2023"; take the leading year.
	yearField := gjson.GetBytes(body, "Year").String()
	if len(yearField) > 4 {
		yearField = yearField[:4]
	}
	year, err := strconv.Atoi(yearField)
	if err != nil {
		year = 0
	}

	form := MovieForm{
		Title:    gjson.GetBytes(body, "Title").String(),
		Director: gjson.GetBytes(body, "Director").String(),
		Year:     year,
	}

	return form, nil
}
