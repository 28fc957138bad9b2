package ai

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
)

// ErrTitleRequired is returned by Summary when the request has no title.
var ErrTitleRequired = errors.New("title is required")

// FlexID is a movie identifier that accepts both JSON strings and numbers,
// since callers and models are not consistent about which they send.
type FlexID string

// UnmarshalJSON implements tolerant decoding for string or numeric ids.
func (f *FlexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

// MovieRef is the movie-like record carried in proxy request bodies. Only
// the fields useful to the model are kept.
type MovieRef struct {
	ID             FlexID   `json:"id"`
	Title          string   `json:"title,omitempty"`
	Overview       string   `json:"overview,omitempty"`
	Genres         []string `json:"genres,omitempty"`
	Rating         float64  `json:"rating,omitempty"`
	MaturityRating string   `json:"maturityRating,omitempty"`
}

// RecommendationsRequest is the body of POST /ai/recommendations.
type RecommendationsRequest struct {
	History        []MovieRef `json:"history"`
	Favorites      []MovieRef `json:"favorites"`
	Candidates     []MovieRef `json:"candidates"`
	MaturityFilter *string    `json:"maturityFilter"`
	GenreFilter    *string    `json:"genreFilter"`
}

// Recommendation pairs a chosen candidate id with the model's reasoning.
type Recommendation struct {
	ID     FlexID `json:"id"`
	Reason string `json:"reason"`
}

// SummaryRequest is the body of POST /ai/summary.
type SummaryRequest struct {
	Title          string   `json:"title"`
	Overview       string   `json:"overview,omitempty"`
	Genres         []string `json:"genres,omitempty"`
	Runtime        int      `json:"runtime,omitempty"`
	MaturityRating string   `json:"maturityRating,omitempty"`
}

const recommendationsSystemPrompt = `Return only a JSON array of recommendations.
Each recommendation MUST be an object with:
{ "id": <candidateId>, "reason": "<short explanation>" }

Choose IDs only from the candidates list.
If maturityFilter or genreFilter is provided, prioritize accordingly.
No additional text outside the JSON array.`

const summarySystemPrompt = `Write a brief, spoiler-safe movie summary (max 3 sentences).
Keep it simple, natural, and clean.
Avoid explicit content details.`

// Service formats prompts for the two proxy operations and shapes the
// model's replies back into the proxy contract.
type Service struct {
	client *chatClient
}

// Config holds upstream settings for the AI service.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string

	// HTTPClient overrides the upstream client; nil means a default with a
	// 30s timeout.
	HTTPClient *http.Client
}

// NewService creates the AI service.
func NewService(cfg Config) *Service {
	return &Service{client: newChatClient(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.HTTPClient)}
}

// Recommendations asks the model to pick from the caller's candidates.
// A malformed model reply is swallowed into an empty result; only outright
// request failures surface as errors. Every returned id is guaranteed to
// appear in the request's candidate list, whatever the model said.
func (s *Service) Recommendations(ctx context.Context, req RecommendationsRequest) ([]Recommendation, error) {
	userContent, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	raw, err := s.client.complete(ctx, recommendationsSystemPrompt, string(userContent), 0.3)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		raw = "[]"
	}

	var recs []Recommendation
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &recs); err != nil {
		log.Printf("[ai] failed to parse recommendations: %v (raw: %.200s)", err, raw)
		return []Recommendation{}, nil
	}

	candidateIDs := make(map[FlexID]struct{}, len(req.Candidates))
	for _, c := range req.Candidates {
		candidateIDs[c.ID] = struct{}{}
	}

	filtered := make([]Recommendation, 0, len(recs))
	for _, rec := range recs {
		if _, ok := candidateIDs[rec.ID]; ok {
			filtered = append(filtered, rec)
		}
	}
	return filtered, nil
}

// Summary asks the model for a short spoiler-safe synopsis. An empty model
// reply yields an empty summary, not an error.
func (s *Service) Summary(ctx context.Context, req SummaryRequest) (string, error) {
	if strings.TrimSpace(req.Title) == "" {
		return "", ErrTitleRequired
	}

	userContent, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	raw, err := s.client.complete(ctx, summarySystemPrompt, string(userContent), 0.4)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}
