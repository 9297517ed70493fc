package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/inner-lab/mnemosyne/pkg/domain/model"
	"github.com/inner-lab/mnemosyne/pkg/domain/types"
	"github.com/inner-lab/mnemosyne/pkg/usecase"
	"github.com/inner-lab/mnemosyne/pkg/utils/errutil"
	"github.com/m-mizutani/goerr/v2"
)

type entryRequest struct {
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Date    time.Time `json:"date"`
}

type entryResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Date        time.Time `json:"date"`
	Emotions    []string  `json:"emotions,omitempty"`
	Sentiment   float64   `json:"sentiment"`
	Topics      []string  `json:"topics,omitempty"`
	KeyInsights []string  `json:"keyInsights,omitempty"`
	Analyzed    bool      `json:"analyzed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toEntryResponse(e *model.Entry) entryResponse {
	return entryResponse{
		ID:          e.ID.String(),
		Title:       e.Title,
		Content:     e.Content,
		Date:        e.Date,
		Emotions:    e.Emotions,
		Sentiment:   e.Sentiment,
		Topics:      e.Topics,
		KeyInsights: e.KeyInsights,
		Analyzed:    e.HasEmbedding(),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func (s *Server) createEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to decode request body"), http.StatusBadRequest)
		return
	}

	entry, err := s.uc.CreateEntry(r.Context(), usecase.CreateEntryInput{
		Title:   req.Title,
		Content: req.Content,
		Date:    req.Date,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, toEntryResponse(entry))
}

func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	id := types.EntryID(chi.URLParam(r, "entryID"))

	entry, err := s.uc.GetEntry(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, toEntryResponse(entry))
}

func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.uc.ListEntries(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toEntryResponse(e))
	}
	respondJSON(w, r, http.StatusOK, resp)
}

func (s *Server) updateEntry(w http.ResponseWriter, r *http.Request) {
	id := types.EntryID(chi.URLParam(r, "entryID"))

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to decode request body"), http.StatusBadRequest)
		return
	}

	entry, err := s.uc.UpdateEntry(r.Context(), usecase.UpdateEntryInput{
		ID:      id,
		Title:   req.Title,
		Content: req.Content,
		Date:    req.Date,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, toEntryResponse(entry))
}

func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	id := types.EntryID(chi.URLParam(r, "entryID"))

	if err := s.uc.DeleteEntry(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type searchResult struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
	Score float64   `json:"score"`
}

func (s *Server) searchEntries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "limit must be an integer"), http.StatusBadRequest)
			return
		}
		limit = n
	}

	results, err := s.uc.SearchEntries(r.Context(), query, limit)
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := make([]searchResult, 0, len(results))
	for _, res := range results {
		resp = append(resp, searchResult{
			ID:    res.EntryID.String(),
			Title: res.Title,
			Date:  res.Date,
			Score: res.Score,
		})
	}
	respondJSON(w, r, http.StatusOK, resp)
}
