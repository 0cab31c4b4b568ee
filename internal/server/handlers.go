package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/storage"
)

// breakerOps are the upstream operations guarded by the resilience executor.
var breakerOps = []string{"count", "embed", "vector_search", "vector_add"}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondErr(w, err)
		return
	}
	s.logger.Debug("search request",
		zap.String("query", req.Query),
		zap.Int("max_results", req.MaxResults),
		zap.String("profile", req.Profile),
		zap.String("strategy", string(req.Strategy)))
	resp := s.retriever.SearchWithStatus(r.Context(), req)
	if resp.Status.Degraded {
		s.logger.Warn("search degraded", zap.String("reason", resp.Status.Reason))
	}
	s.respondJSON(w, http.StatusOK, resp)
}

type parseRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	parsed := s.retriever.Snapshot().Parser.Parse(req.Query)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"parsed":      parsed,
		"search_text": parsed.SearchText(),
	})
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	snap := s.retriever.Snapshot()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"profiles":       snap.Registry.All(),
		"blend_ratio":    snap.BlendRatio,
		"filter_penalty": snap.FilterPenalty,
	})
}

func (s *Server) handleAddMemory(w http.ResponseWriter, r *http.Request) {
	var input models.MemoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("add memory request", zap.String("id", input.ID), zap.String("source", input.Source))
	m, err := s.indexer.AddMemory(r.Context(), input)
	if err != nil {
		s.logger.Error("add memory failed", zap.Error(err))
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, m)
}

func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	m, err := s.indexer.GetMemory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, m)
}

func (s *Server) handlePin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.indexer.Pin(r.Context(), id); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "pinned": true})
}

func (s *Server) handleUnpin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.indexer.Unpin(r.Context(), id); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "pinned": false})
}

func (s *Server) handleUpdateMetadata(w http.ResponseWriter, r *http.Request) {
	var patch map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m, err := s.indexer.UpdateMetadata(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, m)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.storage.CountMemories(r.Context())
	if err != nil {
		s.logger.Error("status: count memories failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	snap := s.retriever.Snapshot()
	engineCfg := snap.Engine.Config()
	resp := map[string]interface{}{
		"memories":          count,
		"vector_index_size": s.index.Size(),
		"ranking": map[string]interface{}{
			"version":                  snap.Version,
			"weights":                  snap.Engine.Weights(),
			"initial_candidates":       engineCfg.InitialCandidates,
			"recency_decay_days":       engineCfg.RecencyDecayDays,
			"min_confidence_threshold": engineCfg.MinConfidenceThreshold,
			"hybrid":                   engineCfg.EnableHybridRanking,
			"blend_ratio":              snap.BlendRatio,
			"filter_penalty":           snap.FilterPenalty,
		},
	}
	if s.executor != nil {
		breakers := make(map[string]string, len(breakerOps))
		for _, op := range breakerOps {
			breakers[op] = s.executor.State(op)
		}
		resp["breakers"] = breakers
	}
	if s.config != nil {
		if bytes, err := storage.DiskUsage(s.config.Storage.DatabasePath, s.config.Storage.VectorIndexPath); err == nil {
			resp["disk_usage_bytes"] = bytes
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondErr maps domain errors to status codes.
func (s *Server) respondErr(w http.ResponseWriter, err error) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		s.respondError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, storage.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "memory not found")
	case errors.Is(err, storage.ErrAlreadyExists):
		s.respondError(w, http.StatusConflict, "memory already exists")
	default:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}
