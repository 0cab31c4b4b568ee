package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hyperjump/kioku/internal/models"
)

func TestClient(t *testing.T) {
	var pinned = map[string]bool{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/search", func(w http.ResponseWriter, r *http.Request) {
		var req models.SearchRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(models.SearchResponse{Query: req.Query, Results: []models.RankedMemory{{ChunkID: "a", Rank: 1}}})
	})
	mux.HandleFunc("/api/v1/memories", func(w http.ResponseWriter, r *http.Request) {
		var in models.MemoryInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(models.MemoryChunk{ID: "new", Content: in.Content})
	})
	mux.HandleFunc("/api/v1/memories/a/pin", func(w http.ResponseWriter, r *http.Request) {
		pinned["a"] = r.Method == http.MethodPost
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/api/v1/status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"database is locked"}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := NewClient(ts.URL + "/")
	ctx := context.Background()

	resp, err := c.Search(ctx, models.SearchRequest{Query: "notes"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Query != "notes" || len(resp.Results) != 1 {
		t.Errorf("search response = %+v", resp)
	}

	m, err := c.AddMemory(ctx, models.MemoryInput{Content: "buy milk"})
	if err != nil {
		t.Fatal(err)
	}
	if m.ID != "new" || m.Content != "buy milk" {
		t.Errorf("memory = %+v", m)
	}

	if err := c.SetPinned(ctx, "a", true); err != nil || !pinned["a"] {
		t.Errorf("pin: err=%v pinned=%v", err, pinned["a"])
	}
	if err := c.SetPinned(ctx, "a", false); err != nil || pinned["a"] {
		t.Errorf("unpin: err=%v pinned=%v", err, pinned["a"])
	}

	if _, err := c.Status(ctx); err == nil {
		t.Error("expected error for 500 response")
	}
}
