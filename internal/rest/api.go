package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/oliban/anagram-game-sub002/internal/difficulty"
	"github.com/oliban/anagram-game-sub002/internal/model"
	"github.com/oliban/anagram-game-sub002/internal/pkg/httpx"
	"github.com/oliban/anagram-game-sub002/internal/pkg/middleware"
	"github.com/oliban/anagram-game-sub002/internal/pkg/serr"
	"github.com/oliban/anagram-game-sub002/internal/service"
)

type phrasesService interface {
	CreatePhrase(ctx context.Context, r service.CreatePhraseRequest) (model.Phrase, error)
	NextPhrases(ctx context.Context, r service.NextPhrasesRequest) (service.NextPhrasesResponse, error)
	SkipPhrase(ctx context.Context, playerID, phraseID string) error
	HintStatus(ctx context.Context, playerID, phraseID string) (service.HintStatusResponse, error)
	HintPreview(ctx context.Context, phraseID string) (service.HintPreviewResponse, error)
	UseHint(ctx context.Context, playerID, phraseID string, level int) (service.UseHintResponse, error)
	Complete(ctx context.Context, r service.CompleteRequest) (service.CompleteResponse, error)
	Leaderboard(ctx context.Context, r service.LeaderboardRequest) (service.LeaderboardPage, error)
	Summary(ctx context.Context, playerID string) (service.PlayerSummary, error)
}

type API struct {
	srv phrasesService
	mux http.ServeMux
}

func NewAPI(srv phrasesService) *API {
	api := &API{
		srv: srv,
		mux: *http.NewServeMux(),
	}

	api.mount()
	return api
}

func (api *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	api.mux.ServeHTTP(w, r)
}

func (api *API) mount() {
	api.mux.HandleFunc("POST /phrases", api.handleCreatePhrase)
	api.mux.HandleFunc("GET /phrases/next", api.handleNextPhrases)
	api.mux.HandleFunc("POST /phrases/{phrase_id}/skip", api.handleSkipPhrase)
	api.mux.HandleFunc("GET /phrases/{phrase_id}/hints", api.handleHintStatus)
	api.mux.HandleFunc("GET /phrases/{phrase_id}/hints/preview", api.handleHintPreview)
	api.mux.HandleFunc("POST /phrases/{phrase_id}/hints/{level}", api.handleUseHint)
	api.mux.HandleFunc("POST /phrases/{phrase_id}/complete", api.handleComplete)
	api.mux.HandleFunc("GET /leaderboard/{period}", api.handleLeaderboard)
	api.mux.HandleFunc("GET /players/me/summary", api.handleSummary)
}

type phraseResponse struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	Hint       string    `json:"hint"`
	Lang       string    `json:"lang"`
	Difficulty int       `json:"difficulty"`
	Label      string    `json:"difficulty_label"`
	IsGlobal   bool      `json:"is_global"`
	Type       string    `json:"phrase_type"`
	Priority   int       `json:"priority"`
	CreatedAt  time.Time `json:"created_at"`
}

func toPhraseResponse(p model.Phrase) phraseResponse {
	return phraseResponse{
		ID:         p.ID,
		Content:    p.Content,
		Hint:       p.Hint,
		Lang:       string(p.Lang),
		Difficulty: p.Difficulty,
		Label:      difficulty.Label(p.Difficulty),
		IsGlobal:   p.IsGlobal,
		Type:       string(p.Type),
		Priority:   p.Priority,
		CreatedAt:  p.CreatedAt,
	}
}

type createPhraseRequest struct {
	Content  string   `json:"content"`
	Hint     string   `json:"hint"`
	Lang     string   `json:"lang"`
	Targets  []string `json:"targets"`
	IsGlobal bool     `json:"is_global"`
	Type     string   `json:"phrase_type"`
	Priority int      `json:"priority"`
}

func (api *API) handleCreatePhrase(w http.ResponseWriter, r *http.Request) {
	var req createPhraseRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, serr.NewServiceError(err, http.StatusBadRequest, "invalid request body"))
		return
	}

	created, err := api.srv.CreatePhrase(r.Context(), service.CreatePhraseRequest{
		Content:  req.Content,
		Hint:     req.Hint,
		Lang:     model.Lang(req.Lang),
		Targets:  req.Targets,
		IsGlobal: req.IsGlobal,
		Type:     model.PhraseType(req.Type),
		Priority: req.Priority,
		SenderID: middleware.PlayerIDFromContext(r.Context()),
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusCreated, toPhraseResponse(created)); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
}

type nextPhrasesResponse struct {
	Phrases []phraseResponse `json:"phrases"`
	Source  string           `json:"source"`
}

func (api *API) handleNextPhrases(w http.ResponseWriter, r *http.Request) {
	resp, err := api.srv.NextPhrases(r.Context(), service.NextPhrasesRequest{
		PlayerID:      middleware.PlayerIDFromContext(r.Context()),
		MaxDifficulty: queryInt(r, "max_difficulty"),
		SkillLevel:    queryInt(r, "level"),
		Limit:         queryInt(r, "limit"),
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	out := nextPhrasesResponse{
		Phrases: make([]phraseResponse, 0, len(resp.Phrases)),
		Source:  string(resp.Source),
	}
	for _, p := range resp.Phrases {
		out.Phrases = append(out.Phrases, toPhraseResponse(p))
	}

	if err := httpx.WriteJSON(w, http.StatusOK, out); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
}

func (api *API) handleSkipPhrase(w http.ResponseWriter, r *http.Request) {
	err := api.srv.SkipPhrase(r.Context(), middleware.PlayerIDFromContext(r.Context()), r.PathValue("phrase_id"))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type hintStatusResponse struct {
	UsedLevels   []int `json:"used_levels"`
	NextLevel    int   `json:"next_level,omitempty"`
	Remaining    int   `json:"remaining"`
	CurrentScore int   `json:"current_score"`
	NextScore    int   `json:"next_score,omitempty"`
	CanUseHint   bool  `json:"can_use_hint"`
}

func (api *API) handleHintStatus(w http.ResponseWriter, r *http.Request) {
	st, err := api.srv.HintStatus(r.Context(), middleware.PlayerIDFromContext(r.Context()), r.PathValue("phrase_id"))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	err = httpx.WriteJSON(w, http.StatusOK, hintStatusResponse{
		UsedLevels:   st.UsedLevels,
		NextLevel:    st.NextLevel,
		Remaining:    st.Remaining,
		CurrentScore: st.CurrentScore,
		NextScore:    st.NextScore,
		CanUseHint:   st.CanUseHint,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
}

type hintPreviewResponse struct {
	Difficulty int    `json:"difficulty"`
	Label      string `json:"difficulty_label"`
	Scores     []int  `json:"scores"`
}

func (api *API) handleHintPreview(w http.ResponseWriter, r *http.Request) {
	preview, err := api.srv.HintPreview(r.Context(), r.PathValue("phrase_id"))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	err = httpx.WriteJSON(w, http.StatusOK, hintPreviewResponse{
		Difficulty: preview.Difficulty,
		Label:      difficulty.Label(preview.Difficulty),
		Scores:     preview.Scores,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
}

type useHintResponse struct {
	Level          int    `json:"level"`
	Content        string `json:"content"`
	ScoreIfStopped int    `json:"score_if_stopped"`
	NextScore      int    `json:"next_score,omitempty"`
}

func (api *API) handleUseHint(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(r.PathValue("level"))
	if err != nil {
		httpx.HandleErr(w, r, serr.NewServiceError(err, http.StatusBadRequest, "invalid hint level"))
		return
	}

	resp, err := api.srv.UseHint(r.Context(), middleware.PlayerIDFromContext(r.Context()), r.PathValue("phrase_id"), level)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	err = httpx.WriteJSON(w, http.StatusOK, useHintResponse{
		Level:          resp.Level,
		Content:        resp.Content,
		ScoreIfStopped: resp.ScoreIfStopped,
		NextScore:      resp.NextScore,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
}

type completeRequest struct {
	HintsUsed  int   `json:"hints_used"`
	DurationMs int64 `json:"duration_ms"`
}

type completeResponse struct {
	Score            int  `json:"score"`
	AlreadyCompleted bool `json:"already_completed"`
}

func (api *API) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, serr.NewServiceError(err, http.StatusBadRequest, "invalid request body"))
		return
	}

	resp, err := api.srv.Complete(r.Context(), service.CompleteRequest{
		PlayerID:   middleware.PlayerIDFromContext(r.Context()),
		PhraseID:   r.PathValue("phrase_id"),
		HintsUsed:  req.HintsUsed,
		DurationMs: req.DurationMs,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	err = httpx.WriteJSON(w, http.StatusOK, completeResponse{
		Score:            resp.Score,
		AlreadyCompleted: resp.AlreadyCompleted,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
}

type leaderboardEntryResponse struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name,omitempty"`
	Score      int    `json:"score"`
	Rank       int    `json:"rank"`
}

type leaderboardResponse struct {
	Period  string                     `json:"period"`
	Entries []leaderboardEntryResponse `json:"entries"`
	Total   int                        `json:"total"`
	Limit   int                        `json:"limit"`
	Offset  int                        `json:"offset"`
}

func (api *API) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	page, err := api.srv.Leaderboard(r.Context(), service.LeaderboardRequest{
		Period: model.Period(r.PathValue("period")),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	out := leaderboardResponse{
		Period:  string(page.Period),
		Entries: make([]leaderboardEntryResponse, 0, len(page.Entries)),
		Total:   page.Total,
		Limit:   page.Limit,
		Offset:  page.Offset,
	}
	for _, e := range page.Entries {
		out.Entries = append(out.Entries, leaderboardEntryResponse{
			PlayerID:   e.PlayerID,
			PlayerName: e.PlayerName,
			Score:      e.Score,
			Rank:       e.Rank,
		})
	}

	if err := httpx.WriteJSON(w, http.StatusOK, out); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
}

type periodScoreResponse struct {
	Score int `json:"score"`
	Rank  int `json:"rank,omitempty"`
}

type summaryResponse struct {
	PlayerID    string              `json:"player_id"`
	Daily       periodScoreResponse `json:"daily"`
	Weekly      periodScoreResponse `json:"weekly"`
	Total       periodScoreResponse `json:"total"`
	Completions int                 `json:"completions"`
}

func (api *API) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := api.srv.Summary(r.Context(), middleware.PlayerIDFromContext(r.Context()))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	err = httpx.WriteJSON(w, http.StatusOK, summaryResponse{
		PlayerID:    summary.PlayerID,
		Daily:       periodScoreResponse{Score: summary.Daily.Score, Rank: summary.Daily.Rank},
		Weekly:      periodScoreResponse{Score: summary.Weekly.Score, Rank: summary.Weekly.Rank},
		Total:       periodScoreResponse{Score: summary.Total.Score, Rank: summary.Total.Rank},
		Completions: summary.Completions,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
}

func queryInt(r *http.Request, param string) int {
	val := r.URL.Query().Get(param)
	if val == "" {
		return 0
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return n
}
