// internal/narration/http_narrator.go
package narration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sales-insights/internal/common/config"
	"sales-insights/internal/common/logger"
	"sales-insights/internal/models"
)

var (
	ErrNarrationTimeout = errors.New("NARRATION_TIMEOUT")
	ErrNarrationFailed  = errors.New("NARRATION_FAILED")
)

// HTTPNarrator calls the generation API with a model fallback chain: each
// model gets the configured retry budget with exponential backoff before
// the next model is tried.
type HTTPNarrator struct {
	config *config.NarrationConfig
	client *http.Client
	logger logger.Logger
}

func NewHTTPNarrator(cfg *config.NarrationConfig, log logger.Logger) *HTTPNarrator {
	return &HTTPNarrator{
		config: cfg,
		client: &http.Client{
			// No client timeout, the per-request context bounds each call.
		},
		logger: log.With(map[string]interface{}{
			"component": "narrator",
		}),
	}
}

func (n *HTTPNarrator) Narrate(ctx context.Context, utterance string, result *models.QueryResult) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, n.config.TimeoutDuration())
	defer cancel()

	prompt := n.buildPrompt(utterance, result)

	var lastErr error
	for _, model := range n.config.Models {
		text, err := n.generate(ctx, model, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if errors.Is(err, ErrNarrationTimeout) {
			return "", err
		}
		n.logger.Warn("model failed, trying next", map[string]interface{}{
			"model": model,
			"error": err.Error(),
		})
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no models configured", ErrNarrationFailed)
	}
	return "", lastErr
}

func (n *HTTPNarrator) generate(ctx context.Context, model, prompt string) (string, error) {
	requestBody := map[string]interface{}{
		"model":       model,
		"prompt":      prompt,
		"max_tokens":  n.config.MaxTokens,
		"temperature": n.config.Temperature,
	}
	body, _ := json.Marshal(requestBody)

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= n.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ErrNarrationTimeout
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", n.config.BaseURL+"/api/ai/generate", bytes.NewBuffer(body))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrNarrationFailed, err)
		}
		req.Header.Set("Content-Type", "application/json")
		if n.config.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+n.config.APIKey)
		}

		resp, lastErr = n.client.Do(req)
		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}

		if ctx.Err() != nil {
			return "", ErrNarrationTimeout
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", ErrNarrationTimeout
		}
		return "", fmt.Errorf("%w: %v", ErrNarrationFailed, lastErr)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: no successful response after retries", ErrNarrationFailed)
	}
	defer resp.Body.Close()

	var apiResponse struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", fmt.Errorf("%w: decode error: %v", ErrNarrationFailed, err)
	}
	if strings.TrimSpace(apiResponse.Text) == "" {
		return "", fmt.Errorf("%w: empty response text", ErrNarrationFailed)
	}

	return apiResponse.Text, nil
}

// buildPrompt embeds the computed result so the model narrates the numbers
// instead of inventing its own.
func (n *HTTPNarrator) buildPrompt(utterance string, result *models.QueryResult) string {
	var parts []string

	parts = append(parts, "You are a business analyst. Answer the user's question based ONLY on the computed data below.")
	parts = append(parts, fmt.Sprintf("\nUser Question: %s", utterance))

	resultJSON, _ := json.MarshalIndent(result, "", "  ")
	parts = append(parts, "\nComputed Results:")
	parts = append(parts, string(resultJSON))

	parts = append(parts, "\nInstructions:")
	parts = append(parts, "- Use only the numbers provided, do not estimate or extrapolate")
	parts = append(parts, "- Keep the answer concise and conversational")
	parts = append(parts, "- Mention the time period the numbers cover")

	parts = append(parts, "\nAnswer:")

	return strings.Join(parts, "\n")
}
