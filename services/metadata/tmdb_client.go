package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/language"

	"streamcompass/models"
)

// Minimal TMDB v3 client (query-string key auth, the endpoints we need)

const (
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"
	tmdbPosterSize   = "w780"
)

// ErrNotFound is returned when the provider has no record for the given id.
var ErrNotFound = errors.New("not found")

type tmdbClient struct {
	apiKey   string
	language string
	baseURL  string
	httpc    *http.Client
	cache    *fileCache

	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

func newTMDBClient(apiKey, lang string, httpc *http.Client, cache *fileCache) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &tmdbClient{
		apiKey:      strings.TrimSpace(apiKey),
		language:    normalizeLanguage(lang),
		baseURL:     tmdbBaseURL,
		httpc:       httpc,
		cache:       cache,
		minInterval: 20 * time.Millisecond,
	}
}

func (c *tmdbClient) isConfigured() bool {
	return c.apiKey != ""
}

// normalizeLanguage canonicalizes a language hint into the "en-US" form TMDB
// expects. A bare language tag gets the US region; anything unparseable
// falls back to en-US.
func normalizeLanguage(lang string) string {
	lang = strings.TrimSpace(strings.ReplaceAll(lang, "_", "-"))
	if lang == "" {
		return "en-US"
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return "en-US"
	}
	base, _ := tag.Base()
	region, conf := tag.Region()
	if conf != language.Exact {
		return base.String() + "-US"
	}
	return base.String() + "-" + region.String()
}

// BuildImageURL turns a provider image path into a fully-qualified URL, or
// nil when the path is empty. Favorites snapshot fully-qualified poster URLs
// at add time, so the details surface exposes this alongside raw paths.
func BuildImageURL(path string) *string {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	u := tmdbImageBaseURL + "/" + tmdbPosterSize + path
	return &u
}

// parseTMDBYear extracts the release year from a "2006-01-02" date, trying
// the fallback date when the primary is absent or malformed.
func parseTMDBYear(date, fallback string) int {
	for _, d := range []string{date, fallback} {
		if len(d) >= 4 {
			if year, err := strconv.Atoi(d[:4]); err == nil {
				return year
			}
		}
	}
	return 0
}

// Raw TMDB response shapes. Fields we do not read are omitted.

type tmdbMovieResult struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Name        string  `json:"name"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	FirstAir    string  `json:"first_air_date"`
	VoteAverage float64 `json:"vote_average"`
}

type tmdbListResponse struct {
	Results []tmdbMovieResult `json:"results"`
}

type tmdbMovieDetails struct {
	tmdbMovieResult
	Runtime int  `json:"runtime"`
	Adult   bool `json:"adult"`
	Genres  []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
}

type tmdbCreditsResponse struct {
	Cast []struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		Character   string `json:"character"`
		ProfilePath string `json:"profile_path"`
		Order       int    `json:"order"`
	} `json:"cast"`
}

type tmdbVideosResponse struct {
	Results []struct {
		ID   string `json:"id"`
		Key  string `json:"key"`
		Name string `json:"name"`
		Site string `json:"site"`
		Type string `json:"type"`
	} `json:"results"`
}

type tmdbReviewsResponse struct {
	Results []struct {
		ID            string `json:"id"`
		Author        string `json:"author"`
		AuthorDetails struct {
			Rating *float64 `json:"rating"`
		} `json:"author_details"`
		Content   string `json:"content"`
		CreatedAt string `json:"created_at"`
		URL       string `json:"url"`
	} `json:"results"`
}

type tmdbPersonResponse struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Biography          string  `json:"biography"`
	KnownForDepartment string  `json:"known_for_department"`
	Popularity         float64 `json:"popularity"`
	Birthday           string  `json:"birthday"`
	PlaceOfBirth       string  `json:"place_of_birth"`
	ProfilePath        string  `json:"profile_path"`
}

type tmdbProviderEntry struct {
	ProviderID   int64  `json:"provider_id"`
	ProviderName string `json:"provider_name"`
	LogoPath     string `json:"logo_path"`
}

type tmdbProvidersResponse struct {
	Results map[string]struct {
		Flatrate []tmdbProviderEntry `json:"flatrate"`
		Rent     []tmdbProviderEntry `json:"rent"`
		Buy      []tmdbProviderEntry `json:"buy"`
	} `json:"results"`
}

// getJSON performs a throttled, cached GET against the provider.
func (c *tmdbClient) getJSON(ctx context.Context, endpoint string, params url.Values, cacheKey string, out any) error {
	if c.cache != nil && cacheKey != "" {
		if hit, _ := c.cache.get(cacheKey, out); hit {
			return nil
		}
	}

	// Pace requests so bursts of screen loads stay polite toward TMDB.
	c.throttleMu.Lock()
	since := time.Since(c.lastRequest)
	if since < c.minInterval {
		time.Sleep(c.minInterval - since)
	}
	c.lastRequest = time.Now()
	c.throttleMu.Unlock()

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	params.Set("language", c.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create tmdb request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("tmdb %s: status %d: %s", endpoint, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode tmdb response %s: %w", endpoint, err)
	}

	if c.cache != nil && cacheKey != "" {
		_ = c.cache.set(cacheKey, out)
	}
	return nil
}

// mapMovieResult builds the normalized view model from a list entry. Missing
// provider fields never fail the mapper.
func mapMovieResult(item tmdbMovieResult, moods []models.Mood) models.Movie {
	title := item.Title
	if title == "" {
		title = item.Name
	}
	if title == "" {
		title = "Untitled"
	}
	if moods == nil {
		moods = []models.Mood{}
	}
	return models.Movie{
		ID:             strconv.FormatInt(item.ID, 10),
		Title:          title,
		Year:           parseTMDBYear(item.ReleaseDate, item.FirstAir),
		Genres:         []string{},
		Rating:         item.VoteAverage,
		Description:    item.Overview,
		RecommendedFor: models.DefaultWatchContexts,
		Moods:          moods,
		PosterPath:     optionalString(item.PosterPath),
	}
}

func optionalString(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func (c *tmdbClient) search(ctx context.Context, query string) ([]models.Movie, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")

	var resp tmdbListResponse
	key := cacheKey("search", c.language, query)
	if err := c.getJSON(ctx, "/search/movie", params, key, &resp); err != nil {
		return nil, err
	}

	movies := make([]models.Movie, 0, len(resp.Results))
	for _, item := range resp.Results {
		movies = append(movies, mapMovieResult(item, nil))
	}
	return movies, nil
}

func (c *tmdbClient) discoverByGenres(ctx context.Context, genreIDs []int, mood models.Mood) ([]models.Movie, error) {
	ids := make([]string, 0, len(genreIDs))
	for _, id := range genreIDs {
		ids = append(ids, strconv.Itoa(id))
	}

	params := url.Values{}
	params.Set("sort_by", "popularity.desc")
	params.Set("with_genres", strings.Join(ids, ","))

	var resp tmdbListResponse
	key := cacheKey("discover", c.language, strings.Join(ids, ","))
	if err := c.getJSON(ctx, "/discover/movie", params, key, &resp); err != nil {
		return nil, err
	}

	movies := make([]models.Movie, 0, len(resp.Results))
	for _, item := range resp.Results {
		movies = append(movies, mapMovieResult(item, []models.Mood{mood}))
	}
	return movies, nil
}

func (c *tmdbClient) trending(ctx context.Context) ([]models.Movie, error) {
	var resp tmdbListResponse
	key := cacheKey("trending", c.language)
	if err := c.getJSON(ctx, "/trending/movie/day", nil, key, &resp); err != nil {
		return nil, err
	}

	movies := make([]models.Movie, 0, len(resp.Results))
	for _, item := range resp.Results {
		movies = append(movies, mapMovieResult(item, nil))
	}
	return movies, nil
}

func (c *tmdbClient) movieByID(ctx context.Context, id string) (*models.Movie, error) {
	var details tmdbMovieDetails
	key := cacheKey("movie", c.language, id)
	if err := c.getJSON(ctx, "/movie/"+url.PathEscape(id), nil, key, &details); err != nil {
		return nil, err
	}

	movie := mapMovieResult(details.tmdbMovieResult, nil)
	movie.RuntimeMinutes = details.Runtime
	if details.Adult {
		movie.MaturityLabel = "18+"
	}
	for _, g := range details.Genres {
		movie.Genres = append(movie.Genres, g.Name)
	}
	return &movie, nil
}

func (c *tmdbClient) personByID(ctx context.Context, id string) (*models.Person, error) {
	var resp tmdbPersonResponse
	key := cacheKey("person", c.language, id)
	if err := c.getJSON(ctx, "/person/"+url.PathEscape(id), nil, key, &resp); err != nil {
		return nil, err
	}

	return &models.Person{
		ID:                 resp.ID,
		Name:               resp.Name,
		Biography:          resp.Biography,
		KnownForDepartment: resp.KnownForDepartment,
		Popularity:         resp.Popularity,
		Birthday:           resp.Birthday,
		PlaceOfBirth:       resp.PlaceOfBirth,
		ProfilePath:        optionalString(resp.ProfilePath),
	}, nil
}

func (c *tmdbClient) credits(ctx context.Context, id string) ([]models.CastMember, error) {
	var resp tmdbCreditsResponse
	key := cacheKey("credits", c.language, id)
	if err := c.getJSON(ctx, "/movie/"+url.PathEscape(id)+"/credits", nil, key, &resp); err != nil {
		return nil, err
	}

	cast := make([]models.CastMember, 0, len(resp.Cast))
	for _, m := range resp.Cast {
		cast = append(cast, models.CastMember{
			ID:          m.ID,
			Name:        m.Name,
			Character:   m.Character,
			ProfilePath: optionalString(m.ProfilePath),
			Order:       m.Order,
		})
	}
	return cast, nil
}

func (c *tmdbClient) videos(ctx context.Context, id string) ([]models.Video, error) {
	var resp tmdbVideosResponse
	key := cacheKey("videos", c.language, id)
	if err := c.getJSON(ctx, "/movie/"+url.PathEscape(id)+"/videos", nil, key, &resp); err != nil {
		return nil, err
	}

	videos := make([]models.Video, 0, len(resp.Results))
	for _, v := range resp.Results {
		videos = append(videos, models.Video{ID: v.ID, Key: v.Key, Name: v.Name, Site: v.Site, Type: v.Type})
	}
	return videos, nil
}

func (c *tmdbClient) similar(ctx context.Context, id string) ([]models.Movie, error) {
	var resp tmdbListResponse
	key := cacheKey("similar", c.language, id)
	if err := c.getJSON(ctx, "/movie/"+url.PathEscape(id)+"/similar", nil, key, &resp); err != nil {
		return nil, err
	}

	movies := make([]models.Movie, 0, len(resp.Results))
	for _, item := range resp.Results {
		movies = append(movies, mapMovieResult(item, nil))
	}
	return movies, nil
}

func (c *tmdbClient) reviews(ctx context.Context, id string) ([]models.Review, error) {
	var resp tmdbReviewsResponse
	key := cacheKey("reviews", c.language, id)
	if err := c.getJSON(ctx, "/movie/"+url.PathEscape(id)+"/reviews", nil, key, &resp); err != nil {
		return nil, err
	}

	reviews := make([]models.Review, 0, len(resp.Results))
	for _, r := range resp.Results {
		reviews = append(reviews, models.Review{
			ID:        r.ID,
			Author:    r.Author,
			Rating:    r.AuthorDetails.Rating,
			Content:   r.Content,
			CreatedAt: r.CreatedAt,
			URL:       r.URL,
		})
	}
	return reviews, nil
}

// watchProviders returns availability for one region, falling back to US
// when the requested region has no listing.
func (c *tmdbClient) watchProviders(ctx context.Context, id, region string) (models.WatchProviders, error) {
	var resp tmdbProvidersResponse
	key := cacheKey("providers", id)
	if err := c.getJSON(ctx, "/movie/"+url.PathEscape(id)+"/watch/providers", nil, key, &resp); err != nil {
		return models.WatchProviders{Stream: []models.ProviderInfo{}, Rent: []models.ProviderInfo{}, Buy: []models.ProviderInfo{}}, err
	}

	region = strings.ToUpper(strings.TrimSpace(region))
	country, ok := resp.Results[region]
	if !ok {
		country, ok = resp.Results["US"]
	}

	providers := models.WatchProviders{
		Stream: []models.ProviderInfo{},
		Rent:   []models.ProviderInfo{},
		Buy:    []models.ProviderInfo{},
	}
	if !ok {
		return providers, nil
	}

	providers.Stream = mapProviderEntries(country.Flatrate)
	providers.Rent = mapProviderEntries(country.Rent)
	providers.Buy = mapProviderEntries(country.Buy)
	return providers, nil
}

func mapProviderEntries(entries []tmdbProviderEntry) []models.ProviderInfo {
	out := make([]models.ProviderInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, models.ProviderInfo{
			ID:       e.ProviderID,
			Name:     e.ProviderName,
			LogoPath: optionalString(e.LogoPath),
		})
	}
	return out
}
