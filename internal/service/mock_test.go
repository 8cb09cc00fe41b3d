package service

import (
	"context"
	"testing"

	"github.com/oliban/anagram-game-sub002/internal/model"
	"github.com/oliban/anagram-game-sub002/internal/notify"
	"github.com/oliban/anagram-game-sub002/internal/pkg/serr"
	"github.com/oliban/anagram-game-sub002/internal/players"
	"github.com/oliban/anagram-game-sub002/internal/rewards"
	"github.com/oliban/anagram-game-sub002/internal/skill"
	"github.com/oliban/anagram-game-sub002/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore implements store.DataStore through overridable func fields. Unset
// fields return zero values; WithinTx defaults to running fn against the mock
// itself so transactional code paths are exercised.
type mockStore struct {
	insertPhrase         func(ctx context.Context, r store.PhraseInsertRequest) (model.Phrase, error)
	getPhrase            func(ctx context.Context, id string) (model.Phrase, error)
	createAssignments    func(ctx context.Context, r store.AssignmentsCreateRequest) error
	hasAssignment        func(ctx context.Context, r store.AssignmentKey) (bool, error)
	consumeAssignment    func(ctx context.Context, r store.AssignmentKey) error
	freshAssignedPhrases func(ctx context.Context, r store.SelectionRequest) ([]model.Phrase, error)
	freshGlobalPhrases   func(ctx context.Context, r store.SelectionRequest) ([]model.Phrase, error)
	skippedPhrases       func(ctx context.Context, r store.SelectionRequest) ([]model.Phrase, error)
	upsertSkip           func(ctx context.Context, r store.SkipKey) error
	clearSkips           func(ctx context.Context, r store.SkipsClearRequest) error
	hintLevels           func(ctx context.Context, r store.AssignmentKey) ([]int, error)
	insertHintUsage      func(ctx context.Context, r store.HintUsageInsertRequest) error
	insertCompletion     func(ctx context.Context, r store.CompletionInsertRequest) (bool, error)
	getCompletion        func(ctx context.Context, r store.AssignmentKey) (model.Completion, error)
	countCompletions     func(ctx context.Context, playerID string) (int, error)
	refreshAggregates    func(ctx context.Context, r store.AggregatesRefreshRequest) error
	getLeaderboard       func(ctx context.Context, r store.LeaderboardRequest) (store.LeaderboardResponse, error)
	playerAggregate      func(ctx context.Context, r store.PlayerAggregateRequest) (model.ScoreAggregate, error)
	withinTx             func(ctx context.Context, fn func(tx store.DataStore) error) error
}

func (m *mockStore) InsertPhrase(ctx context.Context, r store.PhraseInsertRequest) (model.Phrase, error) {
	if m.insertPhrase == nil {
		return model.Phrase{}, nil
	}
	return m.insertPhrase(ctx, r)
}

func (m *mockStore) GetPhrase(ctx context.Context, id string) (model.Phrase, error) {
	if m.getPhrase == nil {
		return model.Phrase{}, store.ErrNotFound
	}
	return m.getPhrase(ctx, id)
}

func (m *mockStore) CreateAssignments(ctx context.Context, r store.AssignmentsCreateRequest) error {
	if m.createAssignments == nil {
		return nil
	}
	return m.createAssignments(ctx, r)
}

func (m *mockStore) HasAssignment(ctx context.Context, r store.AssignmentKey) (bool, error) {
	if m.hasAssignment == nil {
		return false, nil
	}
	return m.hasAssignment(ctx, r)
}

func (m *mockStore) ConsumeAssignment(ctx context.Context, r store.AssignmentKey) error {
	if m.consumeAssignment == nil {
		return nil
	}
	return m.consumeAssignment(ctx, r)
}

func (m *mockStore) FreshAssignedPhrases(ctx context.Context, r store.SelectionRequest) ([]model.Phrase, error) {
	if m.freshAssignedPhrases == nil {
		return nil, nil
	}
	return m.freshAssignedPhrases(ctx, r)
}

func (m *mockStore) FreshGlobalPhrases(ctx context.Context, r store.SelectionRequest) ([]model.Phrase, error) {
	if m.freshGlobalPhrases == nil {
		return nil, nil
	}
	return m.freshGlobalPhrases(ctx, r)
}

func (m *mockStore) SkippedPhrases(ctx context.Context, r store.SelectionRequest) ([]model.Phrase, error) {
	if m.skippedPhrases == nil {
		return nil, nil
	}
	return m.skippedPhrases(ctx, r)
}

func (m *mockStore) UpsertSkip(ctx context.Context, r store.SkipKey) error {
	if m.upsertSkip == nil {
		return nil
	}
	return m.upsertSkip(ctx, r)
}

func (m *mockStore) ClearSkips(ctx context.Context, r store.SkipsClearRequest) error {
	if m.clearSkips == nil {
		return nil
	}
	return m.clearSkips(ctx, r)
}

func (m *mockStore) HintLevels(ctx context.Context, r store.AssignmentKey) ([]int, error) {
	if m.hintLevels == nil {
		return nil, nil
	}
	return m.hintLevels(ctx, r)
}

func (m *mockStore) InsertHintUsage(ctx context.Context, r store.HintUsageInsertRequest) error {
	if m.insertHintUsage == nil {
		return nil
	}
	return m.insertHintUsage(ctx, r)
}

func (m *mockStore) InsertCompletion(ctx context.Context, r store.CompletionInsertRequest) (bool, error) {
	if m.insertCompletion == nil {
		return true, nil
	}
	return m.insertCompletion(ctx, r)
}

func (m *mockStore) GetCompletion(ctx context.Context, r store.AssignmentKey) (model.Completion, error) {
	if m.getCompletion == nil {
		return model.Completion{}, store.ErrNotFound
	}
	return m.getCompletion(ctx, r)
}

func (m *mockStore) CountCompletions(ctx context.Context, playerID string) (int, error) {
	if m.countCompletions == nil {
		return 0, nil
	}
	return m.countCompletions(ctx, playerID)
}

func (m *mockStore) RefreshAggregates(ctx context.Context, r store.AggregatesRefreshRequest) error {
	if m.refreshAggregates == nil {
		return nil
	}
	return m.refreshAggregates(ctx, r)
}

func (m *mockStore) GetLeaderboard(ctx context.Context, r store.LeaderboardRequest) (store.LeaderboardResponse, error) {
	if m.getLeaderboard == nil {
		return store.LeaderboardResponse{}, nil
	}
	return m.getLeaderboard(ctx, r)
}

func (m *mockStore) PlayerAggregate(ctx context.Context, r store.PlayerAggregateRequest) (model.ScoreAggregate, error) {
	if m.playerAggregate == nil {
		return model.ScoreAggregate{}, store.ErrNotFound
	}
	return m.playerAggregate(ctx, r)
}

func (m *mockStore) WithinTx(ctx context.Context, fn func(tx store.DataStore) error) error {
	if m.withinTx == nil {
		return fn(m)
	}
	return m.withinTx(ctx, fn)
}

func newTestService(ds store.DataStore) *PhrasesService {
	return NewPhrasesService(Deps{
		Store:    ds,
		Players:  players.NewStaticDirectory(map[string]string{"p1": "Alice", "p2": "Bob"}),
		Notifier: notify.Nop{},
		Rewards:  rewards.Nop{},
		Skills:   skill.Default(),
	}, Config{})
}

func assertStatus(t *testing.T, err error, code int) {
	t.Helper()

	var se *serr.ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, code, se.StatusCode)
}
