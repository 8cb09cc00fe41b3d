package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/google/uuid"
	"github.com/oliban/anagram-game-sub002/internal/difficulty"
	"github.com/oliban/anagram-game-sub002/internal/model"
	"github.com/oliban/anagram-game-sub002/internal/pkg/serr"
	"github.com/oliban/anagram-game-sub002/internal/rewards"
	"github.com/oliban/anagram-game-sub002/internal/skill"
	"github.com/oliban/anagram-game-sub002/internal/store"
)

const (
	minWords      = 2
	maxWords      = 6
	maxWordLen    = 7
	minHintLen    = 4
	hintReuseLen  = 3
	defaultBatch  = 10
	maxBatchLimit = 50
)

// Directory resolves player identity against the identity service.
type Directory interface {
	Exists(ctx context.Context, id string) (bool, error)
	Name(ctx context.Context, id string) (string, error)
}

// Notifier pushes realtime events to players. Fire-and-forget: delivery
// failures never fail the operation that produced the event.
type Notifier interface {
	Notify(ctx context.Context, playerID, event string, payload any) error
}

// Roller draws collectible rewards from the catalog service.
type Roller interface {
	Roll(ctx context.Context, n int) ([]rewards.Reward, error)
	RecordDiscovery(ctx context.Context, playerID string, reward rewards.Reward) error
}

// PhrasesService owns phrase distribution, hint-decay scoring and leaderboard
// aggregation.
type PhrasesService struct {
	store    store.DataStore
	players  Directory
	notifier Notifier
	rewards  Roller
	skills   *skill.Levels

	lbCache  *ristretto.Cache[string, LeaderboardPage]
	cacheTTL time.Duration
	effects  *effectsRunner

	opTimeout   time.Duration
	rewardRolls int
}

type Config struct {
	OpTimeout       time.Duration
	RewardRolls     int
	EffectsBuffer   int
	EffectsRetries  int
	EffectsInterval time.Duration
	CacheMaxKeys    int64
	CacheTTL        time.Duration
}

type Deps struct {
	Store    store.DataStore
	Players  Directory
	Notifier Notifier
	Rewards  Roller
	Skills   *skill.Levels
}

func NewPhrasesService(d Deps, cfg Config) *PhrasesService {
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = 5 * time.Second
	}
	if cfg.RewardRolls <= 0 {
		cfg.RewardRolls = 1
	}
	if cfg.CacheMaxKeys <= 0 {
		cfg.CacheMaxKeys = 1000
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Second
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, LeaderboardPage]{
		NumCounters: cfg.CacheMaxKeys * 10,
		MaxCost:     cfg.CacheMaxKeys,
		BufferItems: 64,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to create leaderboard cache: %v", err))
	}

	return &PhrasesService{
		store:       d.Store,
		players:     d.Players,
		notifier:    d.Notifier,
		rewards:     d.Rewards,
		skills:      d.Skills,
		lbCache:     cache,
		cacheTTL:    cfg.CacheTTL,
		effects:     newEffectsRunner(cfg.EffectsBuffer, cfg.EffectsRetries, cfg.EffectsInterval),
		opTimeout:   cfg.OpTimeout,
		rewardRolls: cfg.RewardRolls,
	}
}

// Run processes queued secondary effects until ctx is cancelled.
func (s *PhrasesService) Run(ctx context.Context) {
	s.effects.Run(ctx)
}

func (s *PhrasesService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

type CreatePhraseRequest struct {
	Content  string
	Hint     string
	Lang     model.Lang
	Targets  []string
	IsGlobal bool
	Type     model.PhraseType
	Priority int
	SenderID string // empty for external/anonymous contributions
}

// CreatePhrase validates the phrase shape, computes its difficulty, persists
// it with one assignment per target and notifies targets a puzzle is waiting.
func (s *PhrasesService) CreatePhrase(ctx context.Context, r CreatePhraseRequest) (model.Phrase, error) {
	if err := validatePhrase(r); err != nil {
		return model.Phrase{}, err
	}

	for _, target := range r.Targets {
		exists, err := s.players.Exists(ctx, target)
		if err != nil {
			return model.Phrase{}, fmt.Errorf("check target player: %w", err)
		}
		if !exists {
			se := serr.NewServiceError(nil, http.StatusNotFound, "target player not found")
			se.Env["player_id"] = target
			return model.Phrase{}, se
		}
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var created model.Phrase
	err := s.store.WithinTx(ctx, func(tx store.DataStore) error {
		var err error
		created, err = tx.InsertPhrase(ctx, store.PhraseInsertRequest{
			ID:         uuid.NewString(),
			Content:    strings.TrimSpace(r.Content),
			Hint:       strings.TrimSpace(r.Hint),
			Lang:       r.Lang,
			Difficulty: difficulty.Score(r.Content, r.Lang),
			IsGlobal:   r.IsGlobal,
			IsApproved: r.IsGlobal && r.Type == model.PhraseGlobal,
			Type:       r.Type,
			Priority:   r.Priority,
			CreatedBy:  r.SenderID,
		})
		if err != nil {
			return fmt.Errorf("insert phrase: %w", err)
		}

		if len(r.Targets) > 0 {
			err = tx.CreateAssignments(ctx, store.AssignmentsCreateRequest{
				PhraseID:  created.ID,
				PlayerIDs: r.Targets,
			})
			if err != nil {
				return fmt.Errorf("create assignments: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return model.Phrase{}, fmt.Errorf("create phrase: %w", err)
	}

	for _, target := range r.Targets {
		s.notifyAsync(target, "phrase.assigned", map[string]any{
			"phrase_id":  created.ID,
			"difficulty": created.Difficulty,
			"sender_id":  r.SenderID,
		})
	}

	return created, nil
}

func validatePhrase(r CreatePhraseRequest) error {
	words := strings.Fields(r.Content)
	if len(words) < minWords || len(words) > maxWords {
		se := serr.NewServiceError(nil, http.StatusBadRequest, "content must have %d-%d words", minWords, maxWords)
		se.Env["field"] = "content"
		return se
	}

	for _, w := range words {
		if len([]rune(w)) > maxWordLen {
			se := serr.NewServiceError(nil, http.StatusBadRequest, "word %q exceeds %d characters", w, maxWordLen)
			se.Env["field"] = "content"
			return se
		}
	}

	hint := strings.TrimSpace(r.Hint)
	if len([]rune(hint)) < minHintLen {
		se := serr.NewServiceError(nil, http.StatusBadRequest, "hint must be at least %d characters", minHintLen)
		se.Env["field"] = "hint"
		return se
	}

	hintLower := strings.ToLower(hint)
	for _, w := range words {
		if len([]rune(w)) >= hintReuseLen && strings.Contains(hintLower, strings.ToLower(w)) {
			se := serr.NewServiceError(nil, http.StatusBadRequest, "hint must not reuse the word %q", w)
			se.Env["field"] = "hint"
			return se
		}
	}

	if r.Lang != model.LangEN && r.Lang != model.LangES {
		se := serr.NewServiceError(nil, http.StatusBadRequest, "unsupported language %q", r.Lang)
		se.Env["field"] = "lang"
		return se
	}

	switch r.Type {
	case model.PhraseCustom, model.PhraseGlobal, model.PhraseCommunity, model.PhraseChallenge:
	default:
		se := serr.NewServiceError(nil, http.StatusBadRequest, "unknown phrase type %q", r.Type)
		se.Env["field"] = "phrase_type"
		return se
	}

	for _, target := range r.Targets {
		if r.SenderID != "" && target == r.SenderID {
			se := serr.NewServiceError(nil, http.StatusBadRequest, "phrase cannot target its sender")
			se.Env["field"] = "targets"
			return se
		}
	}

	if !r.IsGlobal && len(r.Targets) == 0 {
		se := serr.NewServiceError(nil, http.StatusBadRequest, "non-global phrase needs at least one target")
		se.Env["field"] = "targets"
		return se
	}
	if r.IsGlobal && len(r.Targets) > 0 {
		se := serr.NewServiceError(nil, http.StatusBadRequest, "global phrase must not have targets")
		se.Env["field"] = "targets"
		return se
	}

	return nil
}

type NextPhrasesRequest struct {
	PlayerID      string
	MaxDifficulty int // 0 defers to the skill level
	SkillLevel    int // 0 means unknown, no cap applied
	Limit         int
}

type NextPhrasesResponse struct {
	Phrases []model.Phrase
	Source  model.SelectionSource
}

// NextPhrases resolves the next batch of puzzles: targeted assignments first,
// then the approved global pool, then previously skipped phrases. Serving a
// skipped phrase clears its skip record; an empty response with SourceNone is
// a legitimate terminal state.
func (s *PhrasesService) NextPhrases(ctx context.Context, r NextPhrasesRequest) (NextPhrasesResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	maxDifficulty := r.MaxDifficulty
	if maxDifficulty == 0 && r.SkillLevel > 0 {
		maxDifficulty = s.skills.MaxDifficultyForLevel(r.SkillLevel)
	}

	sel := store.SelectionRequest{
		PlayerID:      r.PlayerID,
		MaxDifficulty: maxDifficulty,
		Limit:         batchLimit(r.Limit),
	}

	targeted, err := s.store.FreshAssignedPhrases(ctx, sel)
	if err != nil {
		return NextPhrasesResponse{}, fmt.Errorf("query assigned phrases: %w", err)
	}
	if len(targeted) > 0 {
		return NextPhrasesResponse{Phrases: targeted, Source: model.SourceTargeted}, nil
	}

	global, err := s.store.FreshGlobalPhrases(ctx, sel)
	if err != nil {
		return NextPhrasesResponse{}, fmt.Errorf("query global phrases: %w", err)
	}
	if len(global) > 0 {
		return NextPhrasesResponse{Phrases: global, Source: model.SourceGlobal}, nil
	}

	var skipped []model.Phrase
	err = s.store.WithinTx(ctx, func(tx store.DataStore) error {
		var err error
		skipped, err = tx.SkippedPhrases(ctx, sel)
		if err != nil {
			return fmt.Errorf("query skipped phrases: %w", err)
		}
		if len(skipped) == 0 {
			return nil
		}

		ids := make([]string, len(skipped))
		for i, p := range skipped {
			ids[i] = p.ID
		}

		// Re-serving un-defers the skip; re-skipping re-inserts the record.
		return tx.ClearSkips(ctx, store.SkipsClearRequest{PlayerID: r.PlayerID, PhraseIDs: ids})
	})
	if err != nil {
		return NextPhrasesResponse{}, fmt.Errorf("skip fallback: %w", err)
	}
	if len(skipped) > 0 {
		return NextPhrasesResponse{Phrases: skipped, Source: model.SourceSkipped}, nil
	}

	return NextPhrasesResponse{Source: model.SourceNone}, nil
}

// SkipPhrase defers a phrase for later. Idempotent; NotFound when the phrase
// was never delivered or eligible for this player.
func (s *PhrasesService) SkipPhrase(ctx context.Context, playerID, phraseID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p, err := s.store.GetPhrase(ctx, phraseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return phraseNotFound(phraseID)
		}
		return fmt.Errorf("get phrase: %w", err)
	}

	eligible := p.IsGlobal && p.IsApproved && p.CreatedBy != playerID
	if !eligible {
		assigned, err := s.store.HasAssignment(ctx, store.AssignmentKey{PlayerID: playerID, PhraseID: phraseID})
		if err != nil {
			return fmt.Errorf("check assignment: %w", err)
		}
		eligible = assigned
	}
	if !eligible {
		se := serr.NewServiceError(nil, http.StatusNotFound, "phrase was never delivered to this player")
		se.Env["phrase_id"] = phraseID
		se.Env["player_id"] = playerID
		return se
	}

	if err := s.store.UpsertSkip(ctx, store.SkipKey{PlayerID: playerID, PhraseID: phraseID}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return phraseNotFound(phraseID)
		}
		return fmt.Errorf("upsert skip: %w", err)
	}

	return nil
}

func batchLimit(limit int) int {
	if limit <= 0 {
		return defaultBatch
	}
	if limit > maxBatchLimit {
		return maxBatchLimit
	}
	return limit
}

func phraseNotFound(phraseID string) error {
	se := serr.NewServiceError(store.ErrNotFound, http.StatusNotFound, "phrase not found")
	se.Env["phrase_id"] = phraseID
	return se
}
