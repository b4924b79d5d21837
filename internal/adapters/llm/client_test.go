package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/seee/internal/adapters/llm"
	"github.com/aretw0/seee/pkg/ports"
)

var _ ports.Completer = (*llm.Client)(nil)

func TestClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body.Model)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)
		assert.Equal(t, "hello", body.Messages[1].Content)

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  hi there  "}}]}`))
	}))
	defer srv.Close()

	c := llm.New(llm.Config{BaseURL: srv.URL + "/v1/", APIKey: "sk-test", Model: "test-model"})
	out, err := c.Complete(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hi there", out)
}

func TestClient_NotConfigured(t *testing.T) {
	_, err := llm.New(llm.Config{}).Complete(context.Background(), "hello")
	assert.ErrorIs(t, err, llm.ErrNotConfigured)
}

func TestClient_ErrorResponses(t *testing.T) {
	for name, handler := range map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
		"api error": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":{"message":"quota"}}`))
		},
		"no choices": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		},
		"bad json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		},
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			_, err := llm.New(llm.Config{BaseURL: srv.URL, APIKey: "k", Model: "m"}).Complete(context.Background(), "x")
			assert.Error(t, err)
		})
	}
}

func TestClient_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := llm.New(llm.Config{
		BaseURL:          srv.URL,
		APIKey:           "k",
		Model:            "m",
		MinRequests:      2,
		FailureThreshold: 0.5,
		OpenTimeout:      time.Minute,
	})
	ctx := context.Background()

	for range 2 {
		_, err := c.Complete(ctx, "x")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, c.State())

	_, err := c.Complete(ctx, "x")
	assert.ErrorIs(t, err, llm.ErrUnavailable)
	assert.Equal(t, int32(2), calls.Load(), "open breaker must not reach the provider")
}
