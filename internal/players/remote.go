package players

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// RemoteDirectory resolves players against the identity service over HTTP.
type RemoteDirectory struct {
	baseURL string
	client  *http.Client
}

func NewRemoteDirectory(baseURL string) *RemoteDirectory {
	return &RemoteDirectory{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

type playerResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (d *RemoteDirectory) Exists(ctx context.Context, id string) (bool, error) {
	resp, err := d.get(ctx, id)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}

	return false, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
}

func (d *RemoteDirectory) Name(ctx context.Context, id string) (string, error) {
	resp, err := d.get(ctx, id)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var pr playerResponse
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&pr); err != nil {
		return "", fmt.Errorf("decode player: %w", err)
	}

	return pr.Name, nil
}

func (d *RemoteDirectory) get(ctx context.Context, id string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/players/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get player: %w", err)
	}

	return resp, nil
}
