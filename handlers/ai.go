package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	aipkg "streamcompass/services/ai"
)

type aiService interface {
	Recommendations(ctx context.Context, req aipkg.RecommendationsRequest) ([]aipkg.Recommendation, error)
	Summary(ctx context.Context, req aipkg.SummaryRequest) (string, error)
}

var _ aiService = (*aipkg.Service)(nil)

// AIHandler serves the two language-model proxy endpoints. These are
// deliberately unauthenticated with fully open CORS.
type AIHandler struct {
	Service aiService
}

func NewAIHandler(service aiService) *AIHandler {
	return &AIHandler{Service: service}
}

// RecommendationsResponse wraps the recommendations array.
type RecommendationsResponse struct {
	Recommendations []aipkg.Recommendation `json:"recommendations"`
}

// Recommendations proxies a recommendation request to the language model.
// A malformed model reply comes back as an empty list with HTTP 200; only
// outright request failures produce a 500.
func (h *AIHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	var req aipkg.RecommendationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid request body"})
		return
	}

	recs, err := h.Service.Recommendations(r.Context(), req)
	if err != nil {
		log.Printf("[ai] recommendations request failed: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Failed to get AI recommendations"})
		return
	}
	if recs == nil {
		recs = []aipkg.Recommendation{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RecommendationsResponse{Recommendations: recs})
}

// SummaryResponse wraps the generated summary.
type SummaryResponse struct {
	Summary string `json:"summary"`
}

// Summary proxies a summary request to the language model. A missing title
// is a 400; an empty model reply is a valid empty summary.
func (h *AIHandler) Summary(w http.ResponseWriter, r *http.Request) {
	var req aipkg.SummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid request body"})
		return
	}

	summary, err := h.Service.Summary(r.Context(), req)
	if err != nil {
		if errors.Is(err, aipkg.ErrTitleRequired) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Missing 'title' in request body"})
			return
		}
		log.Printf("[ai] summary request failed: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Failed to get AI summary"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SummaryResponse{Summary: summary})
}
