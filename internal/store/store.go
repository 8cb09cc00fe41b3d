package store

import (
	"context"
	"errors"

	"github.com/oliban/anagram-game-sub002/internal/model"
)

var (
	// ErrNotFound signals that the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrExists signals a unique-constraint conflict.
	ErrExists = errors.New("already exists")
	// ErrNotConsumable signals that an assignment was already consumed.
	ErrNotConsumable = errors.New("not consumable")
)

type DataStore interface {
	InsertPhrase(ctx context.Context, r PhraseInsertRequest) (model.Phrase, error)
	GetPhrase(ctx context.Context, id string) (model.Phrase, error)
	CreateAssignments(ctx context.Context, r AssignmentsCreateRequest) error
	HasAssignment(ctx context.Context, r AssignmentKey) (bool, error)
	ConsumeAssignment(ctx context.Context, r AssignmentKey) error

	FreshAssignedPhrases(ctx context.Context, r SelectionRequest) ([]model.Phrase, error)
	FreshGlobalPhrases(ctx context.Context, r SelectionRequest) ([]model.Phrase, error)
	SkippedPhrases(ctx context.Context, r SelectionRequest) ([]model.Phrase, error)
	UpsertSkip(ctx context.Context, r SkipKey) error
	ClearSkips(ctx context.Context, r SkipsClearRequest) error

	HintLevels(ctx context.Context, r AssignmentKey) ([]int, error)
	InsertHintUsage(ctx context.Context, r HintUsageInsertRequest) error

	InsertCompletion(ctx context.Context, r CompletionInsertRequest) (bool, error)
	GetCompletion(ctx context.Context, r AssignmentKey) (model.Completion, error)
	CountCompletions(ctx context.Context, playerID string) (int, error)

	RefreshAggregates(ctx context.Context, r AggregatesRefreshRequest) error
	GetLeaderboard(ctx context.Context, r LeaderboardRequest) (LeaderboardResponse, error)
	PlayerAggregate(ctx context.Context, r PlayerAggregateRequest) (model.ScoreAggregate, error)

	WithinTx(ctx context.Context, fn func(tx DataStore) error) error
}
