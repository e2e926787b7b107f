package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, status int, output string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/chat", r.URL.Path)
		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "auto", req.Agent)
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(chatResponse{Agent: "auto", Output: output})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestClient_Summaries(t *testing.T) {
	srv, _ := chatServer(t, http.StatusOK, `Claro! ["Um", "Dois", "Três", "Quatro"] espero ajudar`)
	c := NewClient(srv.URL+"/", nil)

	got, err := c.Summaries(context.Background(), "Engenheira")
	require.NoError(t, err)
	assert.Equal(t, []string{"Um", "Dois", "Três"}, got)
}

func TestClient_Skills(t *testing.T) {
	srv, _ := chatServer(t, http.StatusOK, `["Go", " ", "SQL"]`)
	got, err := NewClient(srv.URL, nil).Skills(context.Background(), "Backend")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "SQL"}, got)
}

func newFastClient(url string) *Client {
	c := NewClient(url, nil)
	c.Backoff = time.Millisecond
	return c
}

func TestClient_RetriesServerErrors(t *testing.T) {
	srv, calls := chatServer(t, http.StatusBadGateway, `[]`)
	_, err := newFastClient(srv.URL).Skills(context.Background(), "x")
	assert.ErrorContains(t, err, "502")
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	srv, calls := chatServer(t, http.StatusBadRequest, `[]`)
	_, err := newFastClient(srv.URL).Skills(context.Background(), "x")
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_RecoversAfterServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(chatResponse{Agent: "auto", Output: `["Go"]`})
	}))
	t.Cleanup(srv.Close)

	got, err := newFastClient(srv.URL).Skills(context.Background(), "Backend")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_NonJSONOutput(t *testing.T) {
	srv, _ := chatServer(t, http.StatusOK, "sem lista")
	_, err := NewClient(srv.URL, nil).Summaries(context.Background(), "x")
	assert.Error(t, err)
}
