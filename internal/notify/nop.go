package notify

import "context"

// Nop drops all notifications. Used when no redis endpoint is configured.
type Nop struct{}

func (Nop) Notify(ctx context.Context, playerID, event string, payload any) error {
	return nil
}
