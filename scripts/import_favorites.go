// Command import_favorites loads a legacy JSON favorites export into the
// sqlite store. The export format is a map of user id to favorite entries,
// as written by the pre-sqlite flat-file layout.
//
// Usage:
//
//	go run scripts/import_favorites.go -db ./data/favorites.db -input favorites.json [-dry-run]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"sort"
	"time"

	"streamcompass/internal/database"
	"streamcompass/models"
)

type exportEntry struct {
	MovieID   string     `json:"movieId"`
	Title     string     `json:"title"`
	PosterURL *string    `json:"posterUrl"`
	Overview  string     `json:"overview"`
	AddedAt   *time.Time `json:"addedAt"`
}

func main() {
	dbPath := flag.String("db", "./data/favorites.db", "path to the sqlite database")
	input := flag.String("input", "", "path to the JSON export to import")
	dryRun := flag.Bool("dry-run", false, "report what would be imported without writing")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*input)
	if err != nil {
		log.Fatalf("[import] failed to read %s: %v", *input, err)
	}

	var export map[string][]exportEntry
	if err := json.Unmarshal(data, &export); err != nil {
		log.Fatalf("[import] failed to parse export: %v", err)
	}

	db, err := database.NewDB(database.Config{DatabasePath: *dbPath})
	if err != nil {
		log.Fatalf("[import] failed to open database: %v", err)
	}
	defer db.Close()

	userIDs := make([]string, 0, len(export))
	for userID := range export {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)

	ctx := context.Background()
	imported, skipped := 0, 0
	for _, userID := range userIDs {
		for _, entry := range export[userID] {
			if entry.MovieID == "" {
				log.Printf("[import] skipping entry without movieId for user %s", userID)
				skipped++
				continue
			}
			addedAt := time.Now().UTC()
			if entry.AddedAt != nil {
				addedAt = entry.AddedAt.UTC()
			}
			rec := models.FavoriteRecord{
				UserID:    userID,
				MovieID:   entry.MovieID,
				Title:     entry.Title,
				PosterURL: entry.PosterURL,
				Overview:  entry.Overview,
				AddedAt:   addedAt,
			}
			if *dryRun {
				log.Printf("[import] would import %s/%s (%q)", userID, entry.MovieID, entry.Title)
				imported++
				continue
			}
			if err := db.Favorites.Upsert(ctx, rec); err != nil {
				log.Fatalf("[import] failed to import %s/%s: %v", userID, entry.MovieID, err)
			}
			imported++
		}
	}

	verb := "imported"
	if *dryRun {
		verb = "would import"
	}
	log.Printf("[import] %s %d favorites for %d users (%d skipped)", verb, imported, len(userIDs), skipped)
}
