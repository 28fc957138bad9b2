package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"streamcompass/handlers"
	"streamcompass/services/ai"
)

type fakeAIService struct {
	recs    []ai.Recommendation
	summary string
	err     error
}

func (f *fakeAIService) Recommendations(ctx context.Context, req ai.RecommendationsRequest) ([]ai.Recommendation, error) {
	return f.recs, f.err
}

func (f *fakeAIService) Summary(ctx context.Context, req ai.SummaryRequest) (string, error) {
	if strings.TrimSpace(req.Title) == "" {
		return "", ai.ErrTitleRequired
	}
	return f.summary, f.err
}

func postAI(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ai/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func TestAIRecommendations_EmptyResultIsStillOK(t *testing.T) {
	h := handlers.NewAIHandler(&fakeAIService{recs: nil})

	rr := postAI(t, h.Recommendations, `{"mood":"chill","movies":[]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp handlers.RecommendationsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Recommendations == nil || len(resp.Recommendations) != 0 {
		t.Errorf("expected empty recommendations array, got %v", resp.Recommendations)
	}
}

func TestAIRecommendations_RequestFailure(t *testing.T) {
	h := handlers.NewAIHandler(&fakeAIService{err: errors.New("upstream down")})

	rr := postAI(t, h.Recommendations, `{"mood":"chill","movies":[]}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}

	var resp map[string]string
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp["error"] != "Failed to get AI recommendations" {
		t.Errorf("unexpected error message %q", resp["error"])
	}
}

func TestAIRecommendations_BadBody(t *testing.T) {
	h := handlers.NewAIHandler(&fakeAIService{})

	rr := postAI(t, h.Recommendations, `{not json`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestAISummary_MissingTitle(t *testing.T) {
	h := handlers.NewAIHandler(&fakeAIService{})

	rr := postAI(t, h.Summary, `{"year":2020}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	var resp map[string]string
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp["error"] != "Missing 'title' in request body" {
		t.Errorf("unexpected error message %q", resp["error"])
	}
}

func TestAISummary_ReturnsSummary(t *testing.T) {
	h := handlers.NewAIHandler(&fakeAIService{summary: "A cozy heist romp."})

	rr := postAI(t, h.Summary, `{"title":"Starlight Picnic"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp handlers.SummaryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Summary != "A cozy heist romp." {
		t.Errorf("unexpected summary %q", resp.Summary)
	}
}

func TestAISummary_UpstreamFailure(t *testing.T) {
	h := handlers.NewAIHandler(&fakeAIService{err: errors.New("upstream down")})

	rr := postAI(t, h.Summary, `{"title":"Starlight Picnic"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}

	var resp map[string]string
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp["error"] != "Failed to get AI summary" {
		t.Errorf("unexpected error message %q", resp["error"])
	}
}
