package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/selivandex/stockbrief/internal/adapters/config"
	"github.com/selivandex/stockbrief/pkg/logger"
	"github.com/selivandex/stockbrief/pkg/models"
)

// ErrAnalysisFailed wraps terminal synthesis failures: non-retryable
// API errors or retries exhausted.
var ErrAnalysisFailed = errors.New("analysis failed")

const anthropicVersion = "2023-06-01"

// statusError carries the HTTP status for retry classification
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.code, e.body)
}

// Client calls the Anthropic messages API with retry and backoff.
// Rate limits, server errors, and transport failures retry with
// exponential backoff; any other client error fails immediately.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	maxRetries int
	baseDelay  time.Duration
	http       *http.Client
	sleep      func(context.Context, time.Duration) error
}

// sleepContext waits for the backoff delay or for ctx cancellation,
// whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NewClient creates the synthesis client
func NewClient(cfg *config.AIConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		http:       &http.Client{Timeout: cfg.Timeout},
		sleep:      sleepContext,
	}
}

// Analyze sends the context bundle and returns the parsed brief. A
// response that arrives but cannot be parsed or validated degrades:
// the returned result carries Degraded plus the raw text, and no new
// API call is spent on what is purely a local parse problem.
func (c *Client) Analyze(ctx context.Context, bundleText string) (*models.AnalysisResult, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		logger.Info("sending context bundle for synthesis",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.maxRetries),
			zap.Int("chars", len(bundleText)),
		)

		raw, err := c.callMessages(ctx, bundleText)
		if err == nil {
			result, parseErr := parseAnalysis(raw)
			if parseErr == nil {
				logger.Info("analysis complete")
				return result, nil
			}
			logger.Warn("analysis response unparseable, degrading", zap.Error(parseErr))
			return &models.AnalysisResult{Degraded: true, RawResponse: raw}, nil
		}
		lastErr = err

		if !retryable(err) {
			logger.Error("non-retryable API error", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
		}
		if attempt < c.maxRetries {
			wait := c.baseDelay * (1 << (attempt - 1))
			logger.Warn("retryable API error, backing off",
				zap.Error(err),
				zap.Duration("wait", wait),
			)
			if err := c.sleep(ctx, wait); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
			}
		}
	}

	logger.Error("all synthesis attempts failed", zap.Error(lastErr))
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrAnalysisFailed, c.maxRetries, lastErr)
}

func (c *Client) callMessages(ctx context.Context, userContent string) (string, error) {
	reqBody := map[string]interface{}{
		"model":      c.model,
		"max_tokens": c.maxTokens,
		"system":     systemPrompt,
		"messages": []map[string]string{
			{"role": "user", "content": userContent},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &statusError{code: resp.StatusCode, body: string(body)}
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	logger.Debug("synthesis response received",
		zap.Duration("latency", time.Since(start)),
		zap.Int("chars", len(result.Content[0].Text)),
	)
	return result.Content[0].Text, nil
}

// retryable classifies an error from callMessages. 429 and 5xx retry,
// as do transport failures; any other HTTP status is terminal.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	// transport or decode errors get another shot
	return true
}
