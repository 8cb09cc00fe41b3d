package rewards

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteRoller_Roll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rewards/roll", r.URL.Path)

		var req rollRequest
		dec := json.NewDecoder(r.Body)
		require.NoError(t, dec.Decode(&req))
		require.Equal(t, 2, req.Count)

		enc := json.NewEncoder(w)
		_ = enc.Encode(rollResponse{Rewards: []Reward{
			{ID: "rw1", Name: "Golden Quill", Rarity: "rare"},
			{ID: "rw2", Name: "Paper Crown", Rarity: "common"},
		}})
	}))
	defer srv.Close()

	roller := NewRemoteRoller(srv.URL)

	rolled, err := roller.Roll(t.Context(), 2)
	require.NoError(t, err)
	require.Len(t, rolled, 2)
	assert.Equal(t, "Golden Quill", rolled[0].Name)
	assert.Equal(t, "common", rolled[1].Rarity)
}

func TestRemoteRoller_Roll_BadResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	roller := NewRemoteRoller(srv.URL)

	_, err := roller.Roll(t.Context(), 1)
	require.Error(t, err)
}

func TestRemoteRoller_RecordDiscovery(t *testing.T) {
	var got discoveryRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rewards/discoveries", r.URL.Path)

		dec := json.NewDecoder(r.Body)
		require.NoError(t, dec.Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	roller := NewRemoteRoller(srv.URL)

	err := roller.RecordDiscovery(t.Context(), "p1", Reward{ID: "rw1", Name: "Golden Quill"})
	require.NoError(t, err)
	assert.Equal(t, discoveryRequest{PlayerID: "p1", RewardID: "rw1"}, got)
}

func TestNop(t *testing.T) {
	n := Nop{}

	rolled, err := n.Roll(t.Context(), 3)
	require.NoError(t, err)
	assert.Empty(t, rolled)

	require.NoError(t, n.RecordDiscovery(t.Context(), "p1", Reward{ID: "rw1"}))
}
