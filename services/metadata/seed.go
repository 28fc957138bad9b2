package metadata

import "streamcompass/models"

// seedCatalog backs the discovery surface when no provider API key is
// configured, so the app stays browsable out of the box.
var seedCatalog = []models.Movie{
	{
		ID:             "1",
		Title:          "Night Shift Detectives",
		Year:           2021,
		RuntimeMinutes: 112,
		Genres:         []string{"Thriller", "Crime"},
		Rating:         7.8,
		MaturityLabel:  "15+",
		Description:    "A rookie detective joins a night shift unit that handles the city's strangest cases.",
		RecommendedFor: []models.WatchContext{models.WatchSolo, models.WatchPartner, models.WatchFriends},
		Moods:          []models.Mood{models.MoodIntense},
	},
	{
		ID:             "2",
		Title:          "Couch Potato Comedy Club",
		Year:           2020,
		RuntimeMinutes: 98,
		Genres:         []string{"Comedy"},
		Rating:         7.2,
		MaturityLabel:  "12+",
		Description:    "Four roommates start a live comedy show from their living room with zero budget.",
		RecommendedFor: []models.WatchContext{models.WatchFriends, models.WatchSolo},
		Moods:          []models.Mood{models.MoodFunny, models.MoodChill},
	},
	{
		ID:             "3",
		Title:          "Starlight Picnic",
		Year:           2019,
		RuntimeMinutes: 104,
		Genres:         []string{"Romance", "Drama"},
		Rating:         7.5,
		MaturityLabel:  "12+",
		Description:    "Two strangers meet during a city-wide blackout and spend one unforgettable night together.",
		RecommendedFor: []models.WatchContext{models.WatchPartner},
		Moods:          []models.Mood{models.MoodRomantic, models.MoodChill},
	},
	{
		ID:             "4",
		Title:          "Galaxy Guardians: Training Day",
		Year:           2022,
		RuntimeMinutes: 95,
		Genres:         []string{"Adventure", "Family"},
		Rating:         7.9,
		MaturityLabel:  "All ages",
		Description:    "Kids are recruited to a space academy where teamwork decides the fate of the galaxy.",
		RecommendedFor: []models.WatchContext{models.WatchFamily, models.WatchKids},
		Moods:          []models.Mood{models.MoodChill, models.MoodFunny},
	},
	{
		ID:             "5",
		Title:          "Quiet Waters",
		Year:           2018,
		RuntimeMinutes: 110,
		Genres:         []string{"Horror", "Mystery"},
		Rating:         7.1,
		MaturityLabel:  "16+",
		Description:    "A family retreats to a lakeside cabin, but the water hides more than reflections.",
		RecommendedFor: []models.WatchContext{models.WatchSolo, models.WatchFriends},
		Moods:          []models.Mood{models.MoodScary, models.MoodIntense},
	},
}

func seedMovies() []models.Movie {
	out := make([]models.Movie, len(seedCatalog))
	copy(out, seedCatalog)
	return out
}

func seedForMood(mood models.Mood) []models.Movie {
	if mood == models.MoodRandom {
		return seedMovies()
	}
	var out []models.Movie
	for _, movie := range seedCatalog {
		for _, m := range movie.Moods {
			if m == mood {
				out = append(out, movie)
				break
			}
		}
	}
	return out
}
