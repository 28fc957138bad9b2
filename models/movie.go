package models

// Mood is a browse context selected on the home screen. Each mood maps to a
// set of metadata-provider genres; "random" falls back to trending titles.
type Mood string

const (
	MoodChill    Mood = "chill"
	MoodFunny    Mood = "funny"
	MoodIntense  Mood = "intense"
	MoodRomantic Mood = "romantic"
	MoodScary    Mood = "scary"
	MoodRandom   Mood = "random"
)

// IsValid reports whether m is one of the known moods.
func (m Mood) IsValid() bool {
	switch m {
	case MoodChill, MoodFunny, MoodIntense, MoodRomantic, MoodScary, MoodRandom:
		return true
	}
	return false
}

// WatchContext describes who the user plans to watch with.
type WatchContext string

const (
	WatchSolo    WatchContext = "solo"
	WatchPartner WatchContext = "partner"
	WatchFriends WatchContext = "friends"
	WatchFamily  WatchContext = "family"
	WatchKids    WatchContext = "kids"
)

// DefaultWatchContexts is used when the provider gives us nothing to go on.
var DefaultWatchContexts = []WatchContext{WatchSolo, WatchFriends, WatchPartner}

// Movie is the read-side view model normalized from either seed data or the
// metadata provider's search/discover/detail responses. It is never persisted;
// the id is only guaranteed stable within one provider.
type Movie struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Year           int            `json:"year"`
	RuntimeMinutes int            `json:"runtimeMinutes"`
	Genres         []string       `json:"genres"`
	Rating         float64        `json:"rating"` // 0-10 provider vote average
	MaturityLabel  string         `json:"maturityLabel,omitempty"`
	Description    string         `json:"description"`
	RecommendedFor []WatchContext `json:"recommendedFor"`
	Moods          []Mood         `json:"moods"`
	PosterPath     *string        `json:"posterPath"`
}

// Review is a provider review normalized for the details screen.
type Review struct {
	ID        string   `json:"id"`
	Author    string   `json:"author"`
	Rating    *float64 `json:"rating"`
	Content   string   `json:"content"`
	CreatedAt string   `json:"createdAt"`
	URL       string   `json:"url,omitempty"`
}

// CastMember is a single credited cast entry.
type CastMember struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Character   string  `json:"character,omitempty"`
	ProfilePath *string `json:"profilePath"`
	Order       int     `json:"order"`
}

// Person is a cast or crew profile from the metadata provider, shown on the
// person detail screen reached from a title's cast list.
type Person struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Biography          string  `json:"biography"`
	KnownForDepartment string  `json:"knownForDepartment,omitempty"`
	Popularity         float64 `json:"popularity"`
	Birthday           string  `json:"birthday,omitempty"`
	PlaceOfBirth       string  `json:"placeOfBirth,omitempty"`
	ProfilePath        *string `json:"profilePath"`
}

// Video is a trailer/teaser/clip reference hosted off-provider.
type Video struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

// ProviderInfo identifies one streaming/rental service offering a title.
type ProviderInfo struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	LogoPath *string `json:"logoPath"`
}

// WatchProviders groups availability for one title in one region.
type WatchProviders struct {
	Stream []ProviderInfo `json:"stream"`
	Rent   []ProviderInfo `json:"rent"`
	Buy    []ProviderInfo `json:"buy"`
}

// MovieBundle is the combined details-page payload served in one round-trip.
// Sub-fetch failures leave their slot empty rather than failing the bundle.
type MovieBundle struct {
	Movie     *Movie         `json:"movie"`
	Cast      []CastMember   `json:"cast"`
	Videos    []Video        `json:"videos"`
	Similar   []Movie        `json:"similar"`
	Reviews   []Review       `json:"reviews"`
	Providers WatchProviders `json:"providers"`
}
