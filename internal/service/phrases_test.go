package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/oliban/anagram-game-sub002/internal/difficulty"
	"github.com/oliban/anagram-game-sub002/internal/model"
	"github.com/oliban/anagram-game-sub002/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePhrase_Targeted(t *testing.T) {
	var insertReq store.PhraseInsertRequest
	var assignReq store.AssignmentsCreateRequest
	ms := &mockStore{
		insertPhrase: func(ctx context.Context, r store.PhraseInsertRequest) (model.Phrase, error) {
			insertReq = r
			return model.Phrase{ID: r.ID, Content: r.Content, Difficulty: r.Difficulty}, nil
		},
		createAssignments: func(ctx context.Context, r store.AssignmentsCreateRequest) error {
			assignReq = r
			return nil
		},
	}
	srv := newTestService(ms)

	created, err := srv.CreatePhrase(context.Background(), CreatePhraseRequest{
		Content:  "hello cat",
		Hint:     "a greeting to a pet",
		Lang:     model.LangEN,
		Targets:  []string{"p2"},
		Type:     model.PhraseCustom,
		SenderID: "p1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, difficulty.Score("hello cat", model.LangEN), insertReq.Difficulty)
	assert.False(t, insertReq.IsApproved)
	assert.Equal(t, "p1", insertReq.CreatedBy)
	assert.Equal(t, insertReq.ID, assignReq.PhraseID)
	assert.Equal(t, []string{"p2"}, assignReq.PlayerIDs)
}

func TestCreatePhrase_GlobalAutoApproval(t *testing.T) {
	tests := []struct {
		name     string
		typ      model.PhraseType
		approved bool
	}{
		{"curated global", model.PhraseGlobal, true},
		{"community awaits review", model.PhraseCommunity, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var insertReq store.PhraseInsertRequest
			ms := &mockStore{
				insertPhrase: func(ctx context.Context, r store.PhraseInsertRequest) (model.Phrase, error) {
					insertReq = r
					return model.Phrase{ID: r.ID}, nil
				},
			}
			srv := newTestService(ms)

			_, err := srv.CreatePhrase(context.Background(), CreatePhraseRequest{
				Content:  "quiet night",
				Hint:     "calm after dark",
				Lang:     model.LangEN,
				IsGlobal: true,
				Type:     tc.typ,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.approved, insertReq.IsApproved)
		})
	}
}

func TestCreatePhrase_TargetUnknown(t *testing.T) {
	srv := newTestService(&mockStore{})

	_, err := srv.CreatePhrase(context.Background(), CreatePhraseRequest{
		Content: "hello cat",
		Hint:    "a greeting to a pet",
		Lang:    model.LangEN,
		Targets: []string{"nobody"},
		Type:    model.PhraseCustom,
	})
	assertStatus(t, err, http.StatusNotFound)
}

func TestCreatePhrase_SelfTargetRejected(t *testing.T) {
	srv := newTestService(&mockStore{})

	_, err := srv.CreatePhrase(context.Background(), CreatePhraseRequest{
		SenderID: "p1",
		Content:  "hello cat",
		Hint:     "a greeting to a pet",
		Lang:     model.LangEN,
		Targets:  []string{"p2", "p1"},
		Type:     model.PhraseCustom,
	})
	assertStatus(t, err, http.StatusBadRequest)
}

func TestCreatePhrase_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  CreatePhraseRequest
	}{
		{"one word", CreatePhraseRequest{Content: "hello", Hint: "just a greeting", Lang: model.LangEN, Targets: []string{"p2"}, Type: model.PhraseCustom}},
		{"too many words", CreatePhraseRequest{Content: "a b c d e f g", Hint: "letters in a row", Lang: model.LangEN, Targets: []string{"p2"}, Type: model.PhraseCustom}},
		{"word too long", CreatePhraseRequest{Content: "enormous cat", Hint: "big pet here", Lang: model.LangEN, Targets: []string{"p2"}, Type: model.PhraseCustom}},
		{"hint too short", CreatePhraseRequest{Content: "red car", Hint: "it", Lang: model.LangEN, Targets: []string{"p2"}, Type: model.PhraseCustom}},
		{"hint reuses word", CreatePhraseRequest{Content: "red car", Hint: "a fast car on wheels", Lang: model.LangEN, Targets: []string{"p2"}, Type: model.PhraseCustom}},
		{"bad language", CreatePhraseRequest{Content: "red cab", Hint: "urban ride", Lang: "fr", Targets: []string{"p2"}, Type: model.PhraseCustom}},
		{"bad type", CreatePhraseRequest{Content: "red cab", Hint: "urban ride", Lang: model.LangEN, Targets: []string{"p2"}, Type: "weird"}},
		{"no targets and not global", CreatePhraseRequest{Content: "red cab", Hint: "urban ride", Lang: model.LangEN, Type: model.PhraseCustom}},
		{"global with targets", CreatePhraseRequest{Content: "red cab", Hint: "urban ride", Lang: model.LangEN, IsGlobal: true, Targets: []string{"p2"}, Type: model.PhraseGlobal}},
	}

	srv := newTestService(&mockStore{})
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := srv.CreatePhrase(context.Background(), tc.req)
			assertStatus(t, err, http.StatusBadRequest)
		})
	}
}

func TestNextPhrases_TargetedFirst(t *testing.T) {
	ms := &mockStore{
		freshAssignedPhrases: func(ctx context.Context, r store.SelectionRequest) ([]model.Phrase, error) {
			return []model.Phrase{{ID: "ph1"}}, nil
		},
		freshGlobalPhrases: func(ctx context.Context, r store.SelectionRequest) ([]model.Phrase, error) {
			t.Fatal("global pool must not be consulted while assignments remain")
			return nil, nil
		},
	}
	srv := newTestService(ms)

	resp, err := srv.NextPhrases(context.Background(), NextPhrasesRequest{PlayerID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, model.SourceTargeted, resp.Source)
	assert.Len(t, resp.Phrases, 1)
}

func TestNextPhrases_GlobalFallback(t *testing.T) {
	ms := &mockStore{
		freshGlobalPhrases: func(ctx context.Context, r store.SelectionRequest) ([]model.Phrase, error) {
			return []model.Phrase{{ID: "ph2"}, {ID: "ph3"}}, nil
		},
	}
	srv := newTestService(ms)

	resp, err := srv.NextPhrases(context.Background(), NextPhrasesRequest{PlayerID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, model.SourceGlobal, resp.Source)
	assert.Len(t, resp.Phrases, 2)
}

func TestNextPhrases_SkippedFallbackClearsSkips(t *testing.T) {
	var cleared store.SkipsClearRequest
	ms := &mockStore{
		skippedPhrases: func(ctx context.Context, r store.SelectionRequest) ([]model.Phrase, error) {
			return []model.Phrase{{ID: "ph4"}, {ID: "ph5"}}, nil
		},
		clearSkips: func(ctx context.Context, r store.SkipsClearRequest) error {
			cleared = r
			return nil
		},
	}
	srv := newTestService(ms)

	resp, err := srv.NextPhrases(context.Background(), NextPhrasesRequest{PlayerID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, model.SourceSkipped, resp.Source)
	assert.Equal(t, "p1", cleared.PlayerID)
	assert.Equal(t, []string{"ph4", "ph5"}, cleared.PhraseIDs)
}

func TestNextPhrases_Exhausted(t *testing.T) {
	srv := newTestService(&mockStore{})

	resp, err := srv.NextPhrases(context.Background(), NextPhrasesRequest{PlayerID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, model.SourceNone, resp.Source)
	assert.Empty(t, resp.Phrases)
}

func TestNextPhrases_DifficultyCap(t *testing.T) {
	var sel store.SelectionRequest
	ms := &mockStore{
		freshAssignedPhrases: func(ctx context.Context, r store.SelectionRequest) ([]model.Phrase, error) {
			sel = r
			return []model.Phrase{{ID: "ph1"}}, nil
		},
	}
	srv := newTestService(ms)

	_, err := srv.NextPhrases(context.Background(), NextPhrasesRequest{PlayerID: "p1", SkillLevel: 2})
	require.NoError(t, err)
	assert.Equal(t, 40, sel.MaxDifficulty, "skill level 2 caps at 40")

	_, err = srv.NextPhrases(context.Background(), NextPhrasesRequest{PlayerID: "p1", SkillLevel: 2, MaxDifficulty: 15})
	require.NoError(t, err)
	assert.Equal(t, 15, sel.MaxDifficulty, "explicit cap wins over the skill curve")

	_, err = srv.NextPhrases(context.Background(), NextPhrasesRequest{PlayerID: "p1", Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 0, sel.MaxDifficulty)
	assert.Equal(t, maxBatchLimit, sel.Limit)
}

func TestSkipPhrase_Assigned(t *testing.T) {
	var skipped store.SkipKey
	ms := &mockStore{
		getPhrase: func(ctx context.Context, id string) (model.Phrase, error) {
			return model.Phrase{ID: id}, nil
		},
		hasAssignment: func(ctx context.Context, r store.AssignmentKey) (bool, error) {
			return true, nil
		},
		upsertSkip: func(ctx context.Context, r store.SkipKey) error {
			skipped = r
			return nil
		},
	}
	srv := newTestService(ms)

	require.NoError(t, srv.SkipPhrase(context.Background(), "p1", "ph1"))
	assert.Equal(t, store.SkipKey{PlayerID: "p1", PhraseID: "ph1"}, skipped)
}

func TestSkipPhrase_GlobalEligible(t *testing.T) {
	ms := &mockStore{
		getPhrase: func(ctx context.Context, id string) (model.Phrase, error) {
			return model.Phrase{ID: id, IsGlobal: true, IsApproved: true, CreatedBy: "p2"}, nil
		},
		hasAssignment: func(ctx context.Context, r store.AssignmentKey) (bool, error) {
			t.Fatal("assignment lookup is redundant for an approved global phrase")
			return false, nil
		},
	}
	srv := newTestService(ms)

	require.NoError(t, srv.SkipPhrase(context.Background(), "p1", "ph1"))
}

func TestSkipPhrase_NeverDelivered(t *testing.T) {
	ms := &mockStore{
		getPhrase: func(ctx context.Context, id string) (model.Phrase, error) {
			return model.Phrase{ID: id, IsGlobal: true, IsApproved: false}, nil
		},
	}
	srv := newTestService(ms)

	err := srv.SkipPhrase(context.Background(), "p1", "ph1")
	assertStatus(t, err, http.StatusNotFound)
}

func TestSkipPhrase_PhraseMissing(t *testing.T) {
	srv := newTestService(&mockStore{})

	err := srv.SkipPhrase(context.Background(), "p1", "ghost")
	assertStatus(t, err, http.StatusNotFound)
}
