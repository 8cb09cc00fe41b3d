package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/oliban/anagram-game-sub002/internal/hints"
	"github.com/oliban/anagram-game-sub002/internal/pkg/serr"
	"github.com/oliban/anagram-game-sub002/internal/store"
)

type HintStatusResponse struct {
	UsedLevels   []int
	NextLevel    int
	Remaining    int
	CurrentScore int
	NextScore    int
	CanUseHint   bool
}

// HintStatus reports a player's hint position on a phrase: levels used so
// far, the next usable level and the score if they stop now.
func (s *PhrasesService) HintStatus(ctx context.Context, playerID, phraseID string) (HintStatusResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p, err := s.store.GetPhrase(ctx, phraseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return HintStatusResponse{}, phraseNotFound(phraseID)
		}
		return HintStatusResponse{}, fmt.Errorf("get phrase: %w", err)
	}

	levels, err := s.store.HintLevels(ctx, store.AssignmentKey{PlayerID: playerID, PhraseID: phraseID})
	if err != nil {
		return HintStatusResponse{}, fmt.Errorf("query hint levels: %w", err)
	}

	st := hints.StatusFor(p.Difficulty, levels)
	return HintStatusResponse{
		UsedLevels:   st.UsedLevels,
		NextLevel:    st.NextLevel,
		Remaining:    st.Remaining,
		CurrentScore: st.CurrentScore,
		NextScore:    st.NextScore,
		CanUseHint:   st.CanUseHint,
	}, nil
}

type HintPreviewResponse struct {
	Difficulty int
	Scores     []int // index = hints used
}

// HintPreview returns the four possible scores before any hint is taken.
func (s *PhrasesService) HintPreview(ctx context.Context, phraseID string) (HintPreviewResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p, err := s.store.GetPhrase(ctx, phraseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return HintPreviewResponse{}, phraseNotFound(phraseID)
		}
		return HintPreviewResponse{}, fmt.Errorf("get phrase: %w", err)
	}

	preview := hints.Preview(p.Difficulty)
	return HintPreviewResponse{Difficulty: p.Difficulty, Scores: preview[:]}, nil
}

type UseHintResponse struct {
	Level          int
	Content        string
	ScoreIfStopped int
	NextScore      int // 0 when no hints remain
}

// UseHint reveals the requested level. Levels decay score and must be taken
// strictly in order; skipping fails with a 409.
func (s *PhrasesService) UseHint(ctx context.Context, playerID, phraseID string, level int) (UseHintResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var resp UseHintResponse
	err := s.store.WithinTx(ctx, func(tx store.DataStore) error {
		p, err := tx.GetPhrase(ctx, phraseID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return phraseNotFound(phraseID)
			}
			return fmt.Errorf("get phrase: %w", err)
		}

		levels, err := tx.HintLevels(ctx, store.AssignmentKey{PlayerID: playerID, PhraseID: phraseID})
		if err != nil {
			return fmt.Errorf("query hint levels: %w", err)
		}

		if err := hints.ValidateUse(hints.HighestLevel(levels), level); err != nil {
			se := serr.NewServiceError(err, http.StatusConflict, "hints must be used in order")
			se.Env["phrase_id"] = phraseID
			se.Env["requested_level"] = fmt.Sprintf("%d", level)
			return se
		}

		err = tx.InsertHintUsage(ctx, store.HintUsageInsertRequest{
			PlayerID: playerID,
			PhraseID: phraseID,
			Level:    level,
		})
		if err != nil {
			if errors.Is(err, store.ErrExists) {
				se := serr.NewServiceError(err, http.StatusConflict, "hint level already used")
				se.Env["phrase_id"] = phraseID
				return se
			}
			return fmt.Errorf("insert hint usage: %w", err)
		}

		resp = UseHintResponse{
			Level:          level,
			Content:        hints.Content(p, level),
			ScoreIfStopped: hints.ScoreAtLevel(p.Difficulty, level),
		}
		if level < hints.MaxLevel {
			resp.NextScore = hints.ScoreAtLevel(p.Difficulty, level+1)
		}

		return nil
	})
	if err != nil {
		return UseHintResponse{}, err
	}

	return resp, nil
}
