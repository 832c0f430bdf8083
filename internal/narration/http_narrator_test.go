// internal/narration/http_narrator_test.go
package narration

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

	"sales-insights/internal/common/config"
	"sales-insights/internal/common/logger"
	"sales-insights/internal/models"
)

func testConfig(baseURL string) *config.NarrationConfig {
	return &config.NarrationConfig{
		Enabled:     true,
		BaseURL:     baseURL,
		Models:      []string{"open-mistral-7b", "mistral-tiny"},
		Timeout:     2000,
		MaxRetries:  0,
		MaxTokens:   512,
		Temperature: 0.3,
	}
}

func testResult() *models.QueryResult {
	return &models.QueryResult{
		Intent:   models.IntentProfitMargin,
		Metrics:  map[string]float64{"revenue": 1245678.00, "profit": 529434.50, "margin": 0.425},
		RowCount: 2,
	}
}

func TestHTTPNarrator_Narrate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/ai/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "open-mistral-7b", reqBody["model"])
		assert.Contains(t, reqBody["prompt"], "What was the profit margin in 2015?")
		assert.Contains(t, reqBody["prompt"], "1245678")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"text": "The 2015 profit margin came to 42.5% on $1.2M revenue.",
		})
	}))
	defer server.Close()

	n := NewHTTPNarrator(testConfig(server.URL), logger.NewTestLogger(t))
	text, err := n.Narrate(context.Background(), "What was the profit margin in 2015?", testResult())
	require.NoError(t, err)
	assert.Contains(t, text, "42.5%")
}

func TestHTTPNarrator_Narrate_FallsBackToNextModel(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))

		if atomic.AddInt32(&calls, 1) == 1 {
			assert.Equal(t, "open-mistral-7b", reqBody["model"])
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "mistral-tiny", reqBody["model"])
		json.NewEncoder(w).Encode(map[string]string{"text": "answer from fallback model"})
	}))
	defer server.Close()

	n := NewHTTPNarrator(testConfig(server.URL), logger.NewTestLogger(t))
	text, err := n.Narrate(context.Background(), "profit margin 2015", testResult())
	require.NoError(t, err)
	assert.Equal(t, "answer from fallback model", text)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHTTPNarrator_Narrate_AllModelsFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n := NewHTTPNarrator(testConfig(server.URL), logger.NewTestLogger(t))
	_, err := n.Narrate(context.Background(), "profit margin 2015", testResult())
	assert.ErrorIs(t, err, ErrNarrationFailed)
}

func TestHTTPNarrator_Narrate_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]string{"text": "too late"})
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Timeout = 50

	n := NewHTTPNarrator(cfg, logger.NewTestLogger(t))
	_, err := n.Narrate(context.Background(), "profit margin 2015", testResult())
	assert.ErrorIs(t, err, ErrNarrationTimeout)
}

func TestHTTPNarrator_Narrate_EmptyTextRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"text": "   "})
	}))
	defer server.Close()

	n := NewHTTPNarrator(testConfig(server.URL), logger.NewTestLogger(t))
	_, err := n.Narrate(context.Background(), "profit margin 2015", testResult())
	assert.ErrorIs(t, err, ErrNarrationFailed)
}

func TestHTTPNarrator_Narrate_SendsAuthHeaderWhenConfigured(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]string{"text": "ok"})
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.APIKey = "secret-key"

	n := NewHTTPNarrator(cfg, logger.NewTestLogger(t))
	_, err := n.Narrate(context.Background(), "profit margin 2015", testResult())
	require.NoError(t, err)
}
