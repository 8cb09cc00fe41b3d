package rewards

import "context"

// Nop rolls nothing. Used when no collectibles service is configured.
type Nop struct{}

func (Nop) Roll(ctx context.Context, n int) ([]Reward, error) {
	return nil, nil
}

func (Nop) RecordDiscovery(ctx context.Context, playerID string, reward Reward) error {
	return nil
}
