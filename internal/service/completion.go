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

type CompleteRequest struct {
	PlayerID   string
	PhraseID   string
	HintsUsed  int
	DurationMs int64
}

type CompleteResponse struct {
	Score            int
	AlreadyCompleted bool
}

// Complete is the atomic boundary where solving becomes a scored fact. The
// consumption check, score computation and completion insert commit together;
// reward rolls and leaderboard refresh run afterwards on the effects queue and
// never fail the player-visible response.
func (s *PhrasesService) Complete(ctx context.Context, r CompleteRequest) (CompleteResponse, error) {
	if r.HintsUsed < 0 || r.HintsUsed > hints.MaxLevel {
		se := serr.NewServiceError(nil, http.StatusBadRequest, "hints used must be between 0 and %d", hints.MaxLevel)
		se.Env["field"] = "hints_used"
		return CompleteResponse{}, se
	}
	if r.DurationMs < 0 {
		se := serr.NewServiceError(nil, http.StatusBadRequest, "duration must not be negative")
		se.Env["field"] = "duration_ms"
		return CompleteResponse{}, se
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var resp CompleteResponse
	err := s.store.WithinTx(ctx, func(tx store.DataStore) error {
		p, err := tx.GetPhrase(ctx, r.PhraseID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return phraseNotFound(r.PhraseID)
			}
			return fmt.Errorf("get phrase: %w", err)
		}

		key := store.AssignmentKey{PlayerID: r.PlayerID, PhraseID: r.PhraseID}

		consumeErr := tx.ConsumeAssignment(ctx, key)
		switch {
		case consumeErr == nil:
			// Targeted consumption: the row lock guarantees exactly one of
			// N concurrent attempts reaches this branch.
		case errors.Is(consumeErr, store.ErrNotFound):
			// No assignment: only an approved global phrase someone else
			// authored is completable.
			if !p.IsGlobal || !p.IsApproved || p.CreatedBy == r.PlayerID {
				return notConsumable(r.PhraseID, "phrase is not assigned to this player")
			}
		case errors.Is(consumeErr, store.ErrNotConsumable):
			// Consumed before: fall through, the completion insert resolves
			// whether this is a duplicate retry or a stale attempt.
		default:
			return fmt.Errorf("consume assignment: %w", consumeErr)
		}

		// Never trust a client-supplied score. The decay level is the higher
		// of what the ledger recorded and what the client claims, so claiming
		// fewer hints than recorded cannot inflate the score.
		levels, err := tx.HintLevels(ctx, key)
		if err != nil {
			return fmt.Errorf("query hint levels: %w", err)
		}
		level := hints.HighestLevel(levels)
		if r.HintsUsed > level {
			level = r.HintsUsed
		}
		score := hints.ScoreAtLevel(p.Difficulty, level)

		inserted, err := tx.InsertCompletion(ctx, store.CompletionInsertRequest{
			PlayerID:         r.PlayerID,
			PhraseID:         r.PhraseID,
			Score:            score,
			CompletionTimeMs: r.DurationMs,
		})
		if err != nil {
			return fmt.Errorf("insert completion: %w", err)
		}

		if !inserted {
			existing, err := tx.GetCompletion(ctx, key)
			if err != nil {
				return fmt.Errorf("get existing completion: %w", err)
			}
			resp = CompleteResponse{Score: existing.Score, AlreadyCompleted: true}
			return nil
		}

		resp = CompleteResponse{Score: score}
		return nil
	})
	if err != nil {
		return CompleteResponse{}, err
	}

	if !resp.AlreadyCompleted {
		s.queueCompletionEffects(r.PlayerID, r.PhraseID, resp.Score)
	}

	return resp, nil
}

func (s *PhrasesService) queueCompletionEffects(playerID, phraseID string, score int) {
	s.effects.Enqueue("refresh-leaderboards", func(ctx context.Context) error {
		return s.RefreshLeaderboards(ctx)
	})

	s.effects.Enqueue("roll-rewards", func(ctx context.Context) error {
		rolled, err := s.rewards.Roll(ctx, s.rewardRolls)
		if err != nil {
			return fmt.Errorf("roll rewards: %w", err)
		}

		for _, reward := range rolled {
			if err := s.rewards.RecordDiscovery(ctx, playerID, reward); err != nil {
				return fmt.Errorf("record discovery: %w", err)
			}
			s.notifyAsync(playerID, "reward.discovered", map[string]any{
				"reward_id": reward.ID,
				"name":      reward.Name,
				"rarity":    reward.Rarity,
			})
		}

		return nil
	})

	s.notifyAsync(playerID, "phrase.completed", map[string]any{
		"phrase_id": phraseID,
		"score":     score,
	})
}

func notConsumable(phraseID, msg string) error {
	se := serr.NewServiceError(store.ErrNotConsumable, http.StatusConflict, "%s", msg)
	se.Env["phrase_id"] = phraseID
	return se
}
