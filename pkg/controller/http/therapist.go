package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/inner-lab/mnemosyne/pkg/domain/types"
	"github.com/inner-lab/mnemosyne/pkg/usecase"
	"github.com/inner-lab/mnemosyne/pkg/utils/errutil"
	"github.com/m-mizutani/goerr/v2"
)

type respondRequest struct {
	Question       string `json:"question"`
	EntryID        string `json:"entryId"`
	ConversationID string `json:"conversationId"`
	Limit          int    `json:"k"`
}

type usedEntry struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
	Score float64   `json:"score"`
}

type respondResponse struct {
	ConversationID string      `json:"conversationId"`
	Response       string      `json:"response"`
	UsedEntries    []usedEntry `json:"usedEntries"`
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request) {
	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to decode request body"), http.StatusBadRequest)
		return
	}

	out, err := s.uc.Respond(r.Context(), usecase.RespondInput{
		ConversationID: types.ConversationID(req.ConversationID),
		Question:       req.Question,
		EntryID:        types.EntryID(req.EntryID),
		Limit:          req.Limit,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := respondResponse{
		ConversationID: out.ConversationID.String(),
		Response:       out.Response,
		UsedEntries:    make([]usedEntry, 0, len(out.UsedEntries)),
	}
	for _, u := range out.UsedEntries {
		resp.UsedEntries = append(resp.UsedEntries, usedEntry{
			ID:    u.EntryID.String(),
			Title: u.Title,
			Date:  u.Date,
			Score: u.Score,
		})
	}

	respondJSON(w, r, http.StatusOK, resp)
}
