package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/oliban/anagram-game-sub002/internal/model"
	"github.com/oliban/anagram-game-sub002/internal/pkg/serr"
	"github.com/oliban/anagram-game-sub002/internal/store"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

var periods = []model.Period{model.PeriodDaily, model.PeriodWeekly, model.PeriodTotal}

type LeaderboardRequest struct {
	Period model.Period
	Limit  int
	Offset int
}

type LeaderboardEntry struct {
	PlayerID   string
	PlayerName string
	Score      int
	Rank       int
}

type LeaderboardPage struct {
	Period  model.Period
	Entries []LeaderboardEntry
	Total   int
	Limit   int
	Offset  int
}

// Leaderboard returns one page of a period's ranked view plus the total
// participant count. Pages are cached until the next refresh.
func (s *PhrasesService) Leaderboard(ctx context.Context, r LeaderboardRequest) (LeaderboardPage, error) {
	if err := validPeriod(r.Period); err != nil {
		return LeaderboardPage{}, err
	}

	limit := r.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := r.Offset
	if offset < 0 {
		offset = 0
	}

	key := fmt.Sprintf("%s:%d:%d", r.Period, limit, offset)
	if page, found := s.lbCache.Get(key); found {
		return page, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.store.GetLeaderboard(ctx, store.LeaderboardRequest{
		Period: r.Period,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return LeaderboardPage{}, fmt.Errorf("get leaderboard: %w", err)
	}

	page := LeaderboardPage{
		Period: r.Period,
		Total:  resp.Total,
		Limit:  limit,
		Offset: offset,
	}
	for _, e := range resp.Entries {
		name, err := s.players.Name(ctx, e.PlayerID)
		if err != nil {
			// Names are display sugar; a directory outage must not hide ranks.
			slog.Warn("resolve player name", "player_id", e.PlayerID, "error", err)
		}
		page.Entries = append(page.Entries, LeaderboardEntry{
			PlayerID:   e.PlayerID,
			PlayerName: name,
			Score:      e.Score,
			Rank:       e.Rank,
		})
	}

	s.lbCache.SetWithTTL(key, page, 1, s.cacheTTL)
	return page, nil
}

// RefreshLeaderboards rebuilds all three period rankings from completion
// records. Recompute-from-source tolerates backfills and corrections that
// incremental counters would drift on.
func (s *PhrasesService) RefreshLeaderboards(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	for _, period := range periods {
		err := s.store.WithinTx(ctx, func(tx store.DataStore) error {
			return tx.RefreshAggregates(ctx, store.AggregatesRefreshRequest{
				Period: period,
				Since:  periodStart(now, period),
			})
		})
		if err != nil {
			return fmt.Errorf("refresh %s aggregates: %w", period, err)
		}
	}

	s.lbCache.Clear()
	return nil
}

// periodStart returns the inclusive lower bound of a ranking window. The zero
// time means all history.
func periodStart(now time.Time, period model.Period) time.Time {
	switch period {
	case model.PeriodDaily:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	case model.PeriodWeekly:
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		offset := (int(now.Weekday()) + 6) % 7 // Monday-based week
		return midnight.AddDate(0, 0, -offset)
	}
	return time.Time{}
}

type PeriodScore struct {
	Score int
	Rank  int
}

type PlayerSummary struct {
	PlayerID    string
	Daily       PeriodScore
	Weekly      PeriodScore
	Total       PeriodScore
	Completions int
}

// Summary reports a player's score and rank in each period plus their
// lifetime completion count. Players missing from a window score zero with no
// rank.
func (s *PhrasesService) Summary(ctx context.Context, playerID string) (PlayerSummary, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	summary := PlayerSummary{PlayerID: playerID}
	for _, period := range periods {
		agg, err := s.store.PlayerAggregate(ctx, store.PlayerAggregateRequest{
			Period:   period,
			PlayerID: playerID,
		})
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return PlayerSummary{}, fmt.Errorf("get %s aggregate: %w", period, err)
		}

		ps := PeriodScore{Score: agg.Score, Rank: agg.Rank}
		switch period {
		case model.PeriodDaily:
			summary.Daily = ps
		case model.PeriodWeekly:
			summary.Weekly = ps
		case model.PeriodTotal:
			summary.Total = ps
		}
	}

	count, err := s.store.CountCompletions(ctx, playerID)
	if err != nil {
		return PlayerSummary{}, fmt.Errorf("count completions: %w", err)
	}
	summary.Completions = count

	return summary, nil
}

func validPeriod(p model.Period) error {
	switch p {
	case model.PeriodDaily, model.PeriodWeekly, model.PeriodTotal:
		return nil
	}

	se := serr.NewServiceError(nil, http.StatusBadRequest, "unknown leaderboard period %q", p)
	se.Env["field"] = "period"
	return se
}
