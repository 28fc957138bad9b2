package metadata

import (
	"context"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/mozillazg/go-unidecode"
	"github.com/sourcegraph/conc"
	"github.com/spf13/afero"

	"streamcompass/models"
)

// moodGenres maps each browse mood to the provider genre ids used for
// discovery. Random carries no genres and falls back to trending.
var moodGenres = map[models.Mood][]int{
	models.MoodFunny:    {35},        // Comedy
	models.MoodScary:    {27},        // Horror
	models.MoodRomantic: {10749},     // Romance
	models.MoodIntense:  {28, 53},    // Action, Thriller
	models.MoodChill:    {18, 10751}, // Drama, Family
	models.MoodRandom:   {},
}

// Service is the read-side discovery surface: mood browsing, search, detail
// lookups and the combined details bundle. Without a provider API key it
// serves the built-in seed catalog so the app stays usable.
type Service struct {
	tmdb     *tmdbClient
	region   string
	seedOnly bool
}

// Config holds the provider settings for the metadata service.
type Config struct {
	TMDBAPIKey string
	Language   string
	Region     string
	CacheDir   string
	TTLHours   int

	// Fs overrides the cache filesystem; nil means the OS filesystem.
	Fs afero.Fs
}

// NewService creates the metadata service.
func NewService(cfg Config) *Service {
	region := strings.ToUpper(strings.TrimSpace(cfg.Region))
	if region == "" {
		region = "US"
	}

	seedOnly := strings.TrimSpace(cfg.TMDBAPIKey) == ""
	if seedOnly {
		log.Printf("[metadata] no TMDB API key configured, serving seed catalog")
	}

	cache := newFileCache(cfg.Fs, cfg.CacheDir, cfg.TTLHours)
	return &Service{
		tmdb:     newTMDBClient(cfg.TMDBAPIKey, cfg.Language, &http.Client{}, cache),
		region:   region,
		seedOnly: seedOnly,
	}
}

// Search finds movies by title.
func (s *Service) Search(ctx context.Context, query string) ([]models.Movie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Movie{}, nil
	}
	if s.seedOnly {
		return searchSeed(query), nil
	}
	return s.tmdb.search(ctx, query)
}

// MoviesForMood returns discovery results for one mood, sorted by provider
// popularity. The random mood serves trending titles instead.
func (s *Service) MoviesForMood(ctx context.Context, mood models.Mood) ([]models.Movie, error) {
	if s.seedOnly {
		return seedForMood(mood), nil
	}

	genres := moodGenres[mood]
	if len(genres) == 0 {
		return s.tmdb.trending(ctx)
	}
	return s.tmdb.discoverByGenres(ctx, genres, mood)
}

// Trending returns today's trending movies.
func (s *Service) Trending(ctx context.Context) ([]models.Movie, error) {
	if s.seedOnly {
		return seedMovies(), nil
	}
	return s.tmdb.trending(ctx)
}

// MovieByID returns full details for one title. ErrNotFound when the
// provider has no record for the id.
func (s *Service) MovieByID(ctx context.Context, id string) (*models.Movie, error) {
	if s.seedOnly {
		for _, movie := range seedCatalog {
			if movie.ID == id {
				m := movie
				return &m, nil
			}
		}
		return nil, ErrNotFound
	}
	return s.tmdb.movieByID(ctx, id)
}

// PersonByID returns the profile for one cast or crew member. The seed
// catalog carries no people, so without a provider key this is ErrNotFound.
func (s *Service) PersonByID(ctx context.Context, id string) (*models.Person, error) {
	if s.seedOnly {
		return nil, ErrNotFound
	}
	return s.tmdb.personByID(ctx, id)
}

// Credits returns the cast list for a title.
func (s *Service) Credits(ctx context.Context, id string) ([]models.CastMember, error) {
	if s.seedOnly {
		return []models.CastMember{}, nil
	}
	return s.tmdb.credits(ctx, id)
}

// Videos returns trailers and clips for a title.
func (s *Service) Videos(ctx context.Context, id string) ([]models.Video, error) {
	if s.seedOnly {
		return []models.Video{}, nil
	}
	return s.tmdb.videos(ctx, id)
}

// Similar returns titles related to the given one.
func (s *Service) Similar(ctx context.Context, id string) ([]models.Movie, error) {
	if s.seedOnly {
		return []models.Movie{}, nil
	}
	return s.tmdb.similar(ctx, id)
}

// Reviews returns provider reviews for a title.
func (s *Service) Reviews(ctx context.Context, id string) ([]models.Review, error) {
	if s.seedOnly {
		return []models.Review{}, nil
	}
	return s.tmdb.reviews(ctx, id)
}

// WatchProviders returns regional availability, falling back to the
// service's default region and then US.
func (s *Service) WatchProviders(ctx context.Context, id, region string) (models.WatchProviders, error) {
	empty := models.WatchProviders{Stream: []models.ProviderInfo{}, Rent: []models.ProviderInfo{}, Buy: []models.ProviderInfo{}}
	if s.seedOnly {
		return empty, nil
	}
	if strings.TrimSpace(region) == "" {
		region = s.region
	}
	return s.tmdb.watchProviders(ctx, id, region)
}

// Bundle fetches the full details-page payload in one call. The sub-fetches
// run concurrently; a failed sub-fetch leaves its slot empty instead of
// failing the bundle, except for the core detail lookup itself.
func (s *Service) Bundle(ctx context.Context, id, region string) (models.MovieBundle, error) {
	bundle := models.MovieBundle{
		Cast:      []models.CastMember{},
		Videos:    []models.Video{},
		Similar:   []models.Movie{},
		Reviews:   []models.Review{},
		Providers: models.WatchProviders{Stream: []models.ProviderInfo{}, Rent: []models.ProviderInfo{}, Buy: []models.ProviderInfo{}},
	}

	var (
		mu        sync.Mutex
		detailErr error
		wg        conc.WaitGroup
	)

	wg.Go(func() {
		movie, err := s.MovieByID(ctx, id)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			detailErr = err
			return
		}
		bundle.Movie = movie
	})

	wg.Go(func() {
		cast, err := s.Credits(ctx, id)
		if err != nil {
			log.Printf("[metadata] bundle credits for %s: %v", id, err)
			return
		}
		mu.Lock()
		bundle.Cast = cast
		mu.Unlock()
	})

	wg.Go(func() {
		videos, err := s.Videos(ctx, id)
		if err != nil {
			log.Printf("[metadata] bundle videos for %s: %v", id, err)
			return
		}
		mu.Lock()
		bundle.Videos = videos
		mu.Unlock()
	})

	wg.Go(func() {
		similar, err := s.Similar(ctx, id)
		if err != nil {
			log.Printf("[metadata] bundle similar for %s: %v", id, err)
			return
		}
		mu.Lock()
		bundle.Similar = similar
		mu.Unlock()
	})

	wg.Go(func() {
		reviews, err := s.Reviews(ctx, id)
		if err != nil {
			log.Printf("[metadata] bundle reviews for %s: %v", id, err)
			return
		}
		mu.Lock()
		bundle.Reviews = reviews
		mu.Unlock()
	})

	wg.Go(func() {
		providers, err := s.WatchProviders(ctx, id, region)
		if err != nil {
			log.Printf("[metadata] bundle providers for %s: %v", id, err)
			return
		}
		mu.Lock()
		bundle.Providers = providers
		mu.Unlock()
	})

	wg.Wait()

	if detailErr != nil {
		return models.MovieBundle{}, detailErr
	}
	return bundle, nil
}

// searchSeed matches seed titles with ASCII folding so accented queries
// still hit.
func searchSeed(query string) []models.Movie {
	folded := strings.ToLower(unidecode.Unidecode(query))
	var out []models.Movie
	for _, movie := range seedCatalog {
		if strings.Contains(strings.ToLower(unidecode.Unidecode(movie.Title)), folded) {
			out = append(out, movie)
		}
	}
	if out == nil {
		out = []models.Movie{}
	}
	return out
}
