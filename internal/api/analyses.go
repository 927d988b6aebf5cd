package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/chatscope/chatscope/internal/db"
	"github.com/chatscope/chatscope/internal/energy"
	"github.com/chatscope/chatscope/internal/fetch"
	"github.com/chatscope/chatscope/internal/logger"
	"github.com/chatscope/chatscope/internal/models"
	"github.com/chatscope/chatscope/internal/pipeline"
	"github.com/chatscope/chatscope/internal/storage"
)

// Maximum accepted request body size. share pages are large but bounded;
// anything past this is not a real conversation export.
const maxAnalysisBody = 32 << 20 // 32MB

// userData is the optional self-reported survey block on a submission.
type userData struct {
	ChatType    string `json:"chat_type,omitempty"`
	ChatPurpose string `json:"chat_purpose,omitempty"`
	Consent     bool   `json:"consent"`
}

// createAnalysisRequest is the request body for POST /api/v1/analyses.
// Exactly one of URL and HTML must be set.
type createAnalysisRequest struct {
	URL  string `json:"url,omitempty"`
	HTML string `json:"html,omitempty"`

	Minimize         bool   `json:"minimize"`
	TokenizerConsent bool   `json:"tokenizer_consent"`
	LengthOnly       bool   `json:"length_only"`
	TokenizerModel   string `json:"tokenizer_model,omitempty"`

	UserData *userData `json:"user_data,omitempty"`
}

// createAnalysisResponse is the success body for POST /api/v1/analyses.
type createAnalysisResponse struct {
	Status string           `json:"status"`
	UUID   string           `json:"uuid"`
	Data   *pipeline.Result `json:"data"`
	Energy energy.Estimate  `json:"energy"`
}

// handleCreateAnalysis runs the full extraction pipeline over a shared
// conversation page and returns the packaged result. The summary row and the
// full result object are persisted best-effort; a storage or database outage
// never fails an otherwise successful analysis.
func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	log := logger.Ctx(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxAnalysisBody)

	var req createAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "BadRequest")
		return
	}

	if (req.URL == "") == (req.HTML == "") {
		respondError(w, http.StatusBadRequest, "BadRequest")
		return
	}

	var rawHTML string
	if req.URL != "" {
		html, err := s.fetcher.Fetch(r.Context(), req.URL)
		if err != nil {
			if errors.Is(err, fetch.ErrBadURL) {
				respondError(w, http.StatusBadRequest, "BadURL")
				return
			}
			log.Warn("share page fetch failed", "error", err)
			respondError(w, http.StatusBadGateway, "FetchFailed")
			return
		}
		rawHTML = html
	} else {
		html, err := fetch.Clean(strings.NewReader(req.HTML))
		if err != nil {
			respondError(w, http.StatusBadRequest, "BadRequest")
			return
		}
		rawHTML = html
	}

	result, err := s.analyzer.Run(r.Context(), rawHTML, pipeline.Options{
		Minimize:         req.Minimize,
		TokenizerConsent: req.TokenizerConsent,
		LengthOnly:       req.LengthOnly,
		TokenizerModel:   req.TokenizerModel,
	})
	if err != nil {
		code := pipeline.ErrorCode(err)
		log.Info("analysis failed", "code", code, "error", err)
		respondError(w, http.StatusUnprocessableEntity, code)
		return
	}

	totalTokens := result.GlobalStatistics.SystemTokens + result.GlobalStatistics.UserTokens
	estimate := energy.FromTokens(totalTokens)

	id := uuid.New()
	ctx := logger.WithLogger(r.Context(), log.With("analysis_id", id))
	s.persistAnalysis(ctx, id, &req, result)

	respondJSON(w, http.StatusOK, createAnalysisResponse{
		Status: "ok",
		UUID:   id.String(),
		Data:   result,
		Energy: estimate,
	})
}

// persistAnalysis stores the summary row and uploads the packaged result.
// Failures are logged and swallowed.
func (s *Server) persistAnalysis(ctx context.Context, id uuid.UUID, req *createAnalysisRequest, result *pipeline.Result) {
	if s.db == nil || s.storage == nil {
		return
	}

	log := logger.Ctx(ctx)

	payload, err := json.Marshal(result)
	if err != nil {
		log.Warn("failed to marshal analysis result", "error", err)
		return
	}

	key, err := s.storage.UploadResult(ctx, id, payload)
	if err != nil {
		log.Warn("failed to upload analysis result", "error", err)
		return
	}

	stats, err := json.Marshal(result.GlobalStatistics)
	if err != nil {
		log.Warn("failed to marshal statistics", "error", err)
		return
	}

	row := &models.Analysis{
		ID:      id,
		Title:   result.SessionInfo.Title,
		Country: result.SessionInfo.Country,
		City:    result.SessionInfo.City,

		Questions:      result.GlobalStatistics.Questions,
		Responses:      result.GlobalStatistics.Responses,
		ToolsCalled:    result.GlobalStatistics.ToolsCalled,
		AssistantCount: result.GlobalStatistics.Assistant,
		SystemCount:    result.GlobalStatistics.SystemCount,
		WebSearches:    result.GlobalStatistics.WebSearches,
		Citations:      result.GlobalStatistics.Citations,
		Images:         result.GlobalStatistics.Images,
		UserTokens:     result.GlobalStatistics.UserTokens,
		ResponseTokens: result.GlobalStatistics.SystemTokens,

		Statistics: stats,
		StorageKey: key,
	}
	if req.UserData != nil {
		row.ChatType = req.UserData.ChatType
		row.ChatPurpose = req.UserData.ChatPurpose
		row.Consent = req.UserData.Consent
	}

	if err := s.db.SaveAnalysis(ctx, row); err != nil {
		log.Warn("failed to save analysis row", "error", err)
	}
}

// handleGetAnalysis returns one stored analysis summary.
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		respondError(w, http.StatusNotFound, "NotFound")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "BadRequest")
		return
	}

	analysis, err := s.db.GetAnalysis(r.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrAnalysisNotFound) {
			respondError(w, http.StatusNotFound, "NotFound")
			return
		}
		logger.Ctx(r.Context()).Error("failed to get analysis", "analysis_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "InternalError")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data":   analysis,
	})
}

// handleGetAnalysisResult streams the full packaged result from object storage.
func (s *Server) handleGetAnalysisResult(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		respondError(w, http.StatusNotFound, "NotFound")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "BadRequest")
		return
	}

	data, err := s.storage.DownloadResult(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			respondError(w, http.StatusNotFound, "NotFound")
			return
		}
		logger.Ctx(r.Context()).Error("failed to download analysis result", "analysis_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "InternalError")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleDeleteAnalysis removes a stored analysis: the summary row and, best
// effort, the result object behind it.
func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		respondError(w, http.StatusNotFound, "NotFound")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "BadRequest")
		return
	}

	if err := s.db.DeleteAnalysis(r.Context(), id); err != nil {
		if errors.Is(err, db.ErrAnalysisNotFound) {
			respondError(w, http.StatusNotFound, "NotFound")
			return
		}
		logger.Ctx(r.Context()).Error("failed to delete analysis", "analysis_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "InternalError")
		return
	}

	if s.storage != nil {
		if err := s.storage.DeleteResult(r.Context(), id); err != nil {
			logger.Ctx(r.Context()).Warn("failed to delete analysis result object", "analysis_id", id, "error", err)
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListAnalyses returns the most recent analysis summaries.
func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"data":   []*models.Analysis{},
		})
		return
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 || parsed > 100 {
			respondError(w, http.StatusBadRequest, "BadRequest")
			return
		}
		limit = parsed
	}

	analyses, err := s.db.ListRecentAnalyses(r.Context(), limit)
	if err != nil {
		logger.Ctx(r.Context()).Error("failed to list analyses", "error", err)
		respondError(w, http.StatusInternalServerError, "InternalError")
		return
	}
	if analyses == nil {
		analyses = []*models.Analysis{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"data":   analyses,
	})
}
