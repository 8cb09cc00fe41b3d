package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oliban/anagram-game-sub002/internal/model"
	"github.com/oliban/anagram-game-sub002/internal/notify"
	"github.com/oliban/anagram-game-sub002/internal/players"
	"github.com/oliban/anagram-game-sub002/internal/rewards"
	"github.com/oliban/anagram-game-sub002/internal/skill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectsRunner_RetriesUntilSuccess(t *testing.T) {
	r := newEffectsRunner(8, 5, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	done := make(chan struct{})
	attempts := 0
	r.Enqueue("flaky", func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("effect never succeeded")
	}
	assert.Equal(t, 3, attempts)
}

func TestEffectsRunner_GivesUpAfterRetries(t *testing.T) {
	r := newEffectsRunner(8, 2, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	attempts := make(chan struct{}, 8)
	r.Enqueue("doomed", func(ctx context.Context) error {
		attempts <- struct{}{}
		return errors.New("permanent")
	})

	deadline := time.After(2 * time.Second)
	for i := 0; i < 2; i++ {
		select {
		case <-attempts:
		case <-deadline:
			t.Fatal("expected attempt did not happen")
		}
	}

	select {
	case <-attempts:
		t.Fatal("effect was attempted beyond its retry budget")
	case <-time.After(50 * time.Millisecond):
	}
}

type recordingRoller struct {
	rolls       chan int
	discoveries chan string
}

func (r *recordingRoller) Roll(ctx context.Context, n int) ([]rewards.Reward, error) {
	r.rolls <- n
	return []rewards.Reward{{ID: "rw1", Name: "Golden Quill", Rarity: "rare"}}, nil
}

func (r *recordingRoller) RecordDiscovery(ctx context.Context, playerID string, reward rewards.Reward) error {
	r.discoveries <- reward.ID
	return nil
}

func TestComplete_QueuesRewardRoll(t *testing.T) {
	roller := &recordingRoller{
		rolls:       make(chan int, 1),
		discoveries: make(chan string, 1),
	}
	srv := NewPhrasesService(Deps{
		Store:    phraseStore(model.Phrase{ID: "ph1", Difficulty: 60}),
		Players:  players.NewStaticDirectory(nil),
		Notifier: notify.Nop{},
		Rewards:  roller,
		Skills:   skill.Default(),
	}, Config{RewardRolls: 2, EffectsInterval: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)

	_, err := srv.Complete(ctx, CompleteRequest{PlayerID: "p1", PhraseID: "ph1"})
	require.NoError(t, err)

	select {
	case n := <-roller.rolls:
		assert.Equal(t, 2, n)
	case <-time.After(2 * time.Second):
		t.Fatal("reward roll was never queued")
	}

	select {
	case id := <-roller.discoveries:
		assert.Equal(t, "rw1", id)
	case <-time.After(2 * time.Second):
		t.Fatal("discovery was never recorded")
	}
}
