package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/russellmiller49/ip-assist-lite/internal/application/orchestrator"
	"github.com/russellmiller49/ip-assist-lite/internal/application/session"
	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/monitoring/logging"
	"github.com/russellmiller49/ip-assist-lite/pkg/errors"
	rtypes "github.com/russellmiller49/ip-assist-lite/pkg/types/retrieval"
)

// QueryHandler serves the hybrid-retrieval question-answering endpoint.
type QueryHandler struct {
	orchestrator *orchestrator.Service
	sessions     *session.Service
	logger       logging.Logger
}

// NewQueryHandler wires a QueryHandler. sessions may be nil, in which case
// requests are answered without conversation history.
func NewQueryHandler(o *orchestrator.Service, sessions *session.Service, logger logging.Logger) *QueryHandler {
	return &QueryHandler{orchestrator: o, sessions: sessions, logger: logger}
}

type queryRequest struct {
	Query       string `json:"query"`
	SessionID   string `json:"session_id"`
	TopK        int    `json:"top_k"`
	UseReranker *bool  `json:"use_reranker"`
}

type citationDTO struct {
	ChunkID string `json:"chunk_id"`
	DocID   string `json:"doc_id"`
	Title   string `json:"title"`
	Venue   string `json:"venue"`
	Year    int    `json:"year"`
}

type queryResponse struct {
	AnswerHTML     string        `json:"answer_html"`
	Citations      []citationDTO `json:"citations"`
	IsEmergency    bool          `json:"is_emergency"`
	Confidence     float64       `json:"confidence"`
	Classification string        `json:"classification"`
	SafetyWarnings []string      `json:"safety_warnings,omitempty"`
	KBVersion      string        `json:"kb_version"`
	ReviewRequired bool          `json:"review_required"`
}

// Ask handles POST /api/v1/query: normalizes and answers a clinical
// question, optionally threading conversation history from SessionID.
func (h *QueryHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.InvalidParam("request body must be valid JSON"))
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, errors.InvalidParam("query is required"))
		return
	}

	var history []rtypes.ConversationTurn
	if h.sessions != nil && req.SessionID != "" {
		if hist, err := h.sessions.History(r.Context(), req.SessionID, 10); err == nil {
			history = hist
		}
	}

	topK := req.TopK
	if topK == 0 {
		topK = 5
	}
	useReranker := true
	if req.UseReranker != nil {
		useReranker = *req.UseReranker
	}

	resp, err := h.orchestrator.Ask(r.Context(), req.Query, topK, useReranker, history)
	if err != nil {
		writeAppError(w, err)
		return
	}

	if h.sessions != nil && req.SessionID != "" {
		_ = h.sessions.AppendTurn(r.Context(), rtypes.ConversationTurn{
			SessionID: req.SessionID,
			Role:      "user",
			Text:      req.Query,
		})
		_ = h.sessions.AppendTurn(r.Context(), rtypes.ConversationTurn{
			SessionID: req.SessionID,
			Role:      "assistant",
			Text:      resp.AnswerHTML,
		})
	}

	writeJSON(w, http.StatusOK, toQueryResponse(resp))
}

func toQueryResponse(resp *rtypes.AnswerResponse) queryResponse {
	citations := make([]citationDTO, 0, len(resp.Citations))
	for _, c := range resp.Citations {
		if !c.Visible {
			continue
		}
		citations = append(citations, citationDTO{
			ChunkID: c.ChunkID,
			DocID:   c.DocID,
			Title:   c.Title,
			Venue:   c.Venue,
			Year:    c.Year,
		})
	}
	return queryResponse{
		AnswerHTML:     resp.AnswerHTML,
		Citations:      citations,
		IsEmergency:    resp.IsEmergency,
		Confidence:     resp.Confidence,
		Classification: string(resp.Classification),
		SafetyWarnings: resp.SafetyWarnings,
		KBVersion:      resp.KBVersion,
		ReviewRequired: resp.ReviewRequired,
	}
}
