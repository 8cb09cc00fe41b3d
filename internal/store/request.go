package store

import (
	"time"

	"github.com/oliban/anagram-game-sub002/internal/model"
)

type PhraseInsertRequest struct {
	ID         string
	Content    string
	Hint       string
	Lang       model.Lang
	Difficulty int
	IsGlobal   bool
	IsApproved bool
	Type       model.PhraseType
	Priority   int
	CreatedBy  string
}

type AssignmentsCreateRequest struct {
	PhraseID  string
	PlayerIDs []string
}

// AssignmentKey identifies a (player, phrase) pair. The same key addresses
// assignments, completions and hint usage.
type AssignmentKey struct {
	PlayerID string
	PhraseID string
}

type SelectionRequest struct {
	PlayerID      string
	MaxDifficulty int // 0 means no cap
	Limit         int
}

type SkipKey struct {
	PlayerID string
	PhraseID string
}

type SkipsClearRequest struct {
	PlayerID  string
	PhraseIDs []string
}

type HintUsageInsertRequest struct {
	PlayerID string
	PhraseID string
	Level    int
}

type CompletionInsertRequest struct {
	PlayerID         string
	PhraseID         string
	Score            int
	CompletionTimeMs int64
}

type AggregatesRefreshRequest struct {
	Period model.Period
	Since  time.Time // zero means all history
}

type LeaderboardRequest struct {
	Period model.Period
	Limit  int
	Offset int
}

type LeaderboardEntry struct {
	PlayerID   string
	Score      int
	Rank       int
	AchievedAt time.Time
}

type LeaderboardResponse struct {
	Entries []LeaderboardEntry
	Total   int
}

type PlayerAggregateRequest struct {
	Period   model.Period
	PlayerID string
}
