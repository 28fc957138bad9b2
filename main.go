package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"streamcompass/api"
	"streamcompass/config"
	"streamcompass/handlers"
	"streamcompass/internal/database"
	"streamcompass/services/accounts"
	"streamcompass/services/ai"
	"streamcompass/services/favorites"
	"streamcompass/services/metadata"
	"streamcompass/services/sessions"
	"streamcompass/utils"
)

func main() {
	cfg := config.Load()

	if cfg.LogFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    20, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		}
		log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	}

	log.Printf("[main] starting streamcompass (data dir: %s)", cfg.DataDir)

	db, err := database.NewDB(database.Config{DatabasePath: cfg.DatabasePath})
	if err != nil {
		log.Fatalf("[main] failed to open database: %v", err)
	}
	defer db.Close()

	accountsSvc, err := accounts.NewService(nil, cfg.AccountsDir())
	if err != nil {
		log.Fatalf("[main] failed to start accounts service: %v", err)
	}

	sessionsSvc, err := sessions.NewService(nil, cfg.SessionsDir(), cfg.SessionDuration)
	if err != nil {
		log.Fatalf("[main] failed to start sessions service: %v", err)
	}
	defer sessionsSvc.Close()

	favoritesSvc := favorites.NewService(db.Favorites)

	metadataSvc := metadata.NewService(metadata.Config{
		TMDBAPIKey: cfg.TMDBAPIKey,
		Language:   cfg.Language,
		Region:     cfg.Region,
		CacheDir:   cfg.CacheDir(),
		TTLHours:   cfg.CacheTTLHours,
	})

	aiSvc := ai.NewService(ai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	})

	router := utils.NewRouter()

	authHandler := handlers.NewAuthHandler(accountsSvc, sessionsSvc, favoritesSvc)
	favoritesHandler := handlers.NewFavoritesHandler(favoritesSvc)
	metadataHandler := handlers.NewMetadataHandler(metadataSvc)
	aiHandler := handlers.NewAIHandler(aiSvc)

	// Auth endpoints, no session required
	authRouter := router.PathPrefix("/api/auth").Subrouter()
	authRouter.HandleFunc("/signup", authHandler.SignUp).Methods(http.MethodPost, http.MethodOptions)
	authRouter.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost, http.MethodOptions)
	authRouter.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost, http.MethodOptions)
	authRouter.HandleFunc("/reset", authHandler.ResetPassword).Methods(http.MethodPost, http.MethodOptions)
	authRouter.HandleFunc("/me", authHandler.Me).Methods(http.MethodGet, http.MethodOptions)
	authRouter.HandleFunc("/refresh", authHandler.Refresh).Methods(http.MethodPost, http.MethodOptions)
	authRouter.HandleFunc("/password", authHandler.ChangePassword).Methods(http.MethodPost, http.MethodOptions)
	authRouter.HandleFunc("/account", authHandler.DeleteAccount).Methods(http.MethodDelete, http.MethodOptions)

	// Session-guarded app API
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(api.SessionAuthMiddleware(sessionsSvc))

	apiRouter.HandleFunc("/users/{userID}/favorites", favoritesHandler.List).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/users/{userID}/favorites/{movieID}", favoritesHandler.Add).Methods(http.MethodPut, http.MethodOptions)
	apiRouter.HandleFunc("/users/{userID}/favorites/{movieID}", favoritesHandler.Remove).Methods(http.MethodDelete, http.MethodOptions)

	apiRouter.HandleFunc("/metadata/search", metadataHandler.Search).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/metadata/moods/{mood}", metadataHandler.MoviesForMood).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/metadata/trending", metadataHandler.Trending).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/metadata/movies/{id}", metadataHandler.MovieByID).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/metadata/movies/{id}/credits", metadataHandler.Credits).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/metadata/movies/{id}/videos", metadataHandler.Videos).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/metadata/movies/{id}/similar", metadataHandler.Similar).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/metadata/movies/{id}/reviews", metadataHandler.Reviews).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/metadata/movies/{id}/providers", metadataHandler.WatchProviders).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/metadata/movies/{id}/bundle", metadataHandler.Bundle).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/metadata/people/{id}", metadataHandler.PersonByID).Methods(http.MethodGet, http.MethodOptions)

	// AI proxy, unauthenticated with open CORS
	aiRouter := router.PathPrefix("/ai").Subrouter()
	aiRouter.Use(utils.OpenCORSMiddleware)
	aiRouter.HandleFunc("/recommendations", aiHandler.Recommendations).Methods(http.MethodPost, http.MethodOptions)
	aiRouter.HandleFunc("/summary", aiHandler.Summary).Methods(http.MethodPost, http.MethodOptions)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("[main] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Printf("[main] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[main] shutdown error: %v", err)
	}
}
