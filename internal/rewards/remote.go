package rewards

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Reward is one collectible drawn from the catalog's weighted-random roll.
type Reward struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Rarity string `json:"rarity"`
}

// RemoteRoller calls the collectibles service for reward rolls and discovery
// records.
type RemoteRoller struct {
	baseURL string
	client  *http.Client
}

func NewRemoteRoller(baseURL string) *RemoteRoller {
	return &RemoteRoller{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

type rollRequest struct {
	Count int `json:"count"`
}

type rollResponse struct {
	Rewards []Reward `json:"rewards"`
}

func (r *RemoteRoller) Roll(ctx context.Context, n int) ([]Reward, error) {
	resp, err := r.post(ctx, "/rewards/roll", rollRequest{Count: n})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var rr rollResponse
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&rr); err != nil {
		return nil, fmt.Errorf("decode rewards: %w", err)
	}

	return rr.Rewards, nil
}

type discoveryRequest struct {
	PlayerID string `json:"player_id"`
	RewardID string `json:"reward_id"`
}

func (r *RemoteRoller) RecordDiscovery(ctx context.Context, playerID string, reward Reward) error {
	resp, err := r.post(ctx, "/rewards/discoveries", discoveryRequest{
		PlayerID: playerID,
		RewardID: reward.ID,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

func (r *RemoteRoller) post(ctx context.Context, path string, body any) (*http.Response, error) {
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	if err := enc.Encode(body); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, strings.NewReader(sb.String()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}

	return resp, nil
}
