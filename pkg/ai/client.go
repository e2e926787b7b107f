package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client calls the ai-service chat endpoint for summary and skill ideas.
type Client struct {
	BaseURL  string
	HTTP     *http.Client
	Attempts int
	// Backoff is the first retry delay; it doubles per attempt.
	Backoff time.Duration
	Logger  *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		HTTP:     &http.Client{Timeout: 20 * time.Second},
		Attempts: 3,
		Backoff:  200 * time.Millisecond,
		Logger:   logger,
	}
}

type chatRequest struct {
	Agent string `json:"agent"`
	Input string `json:"input"`
}

type chatResponse struct {
	Agent  string `json:"agent"`
	Output string `json:"output"`
}

// retryable reports whether a response status is worth another attempt.
func retryable(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

// doPostWithRetry POSTs body to path, retrying transport errors and
// retryable statuses with exponential backoff. After the last attempt the
// final response is returned as is.
func (c *Client) doPostWithRetry(ctx context.Context, path string, body []byte) (*http.Response, error) {
	attempts := c.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(c.Backoff << (i - 1)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.HTTP.Do(req)
		switch {
		case err != nil:
			lastErr = err
		case retryable(resp.StatusCode) && i < attempts-1:
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("ai-service returned status %d", resp.StatusCode)
		default:
			return resp, nil
		}
		c.Logger.Debug("ai-service attempt failed", zap.Int("attempt", i+1), zap.Error(lastErr))
	}
	return nil, lastErr
}

func (c *Client) chat(ctx context.Context, prompt string) (string, error) {
	b, err := json.Marshal(chatRequest{Agent: "auto", Input: prompt})
	if err != nil {
		return "", err
	}
	resp, err := c.doPostWithRetry(ctx, "/v1/chat", b)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	c.Logger.Debug("ai-service response", zap.Int("status", resp.StatusCode), zap.Int("bytes", len(respBytes)))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ai-service returned non-200 status: %d", resp.StatusCode)
	}
	var out chatResponse
	if err := json.Unmarshal(respBytes, &out); err != nil {
		return "", err
	}
	return out.Output, nil
}

// parseList reads a JSON array of strings from output, tolerating text
// around it.
func parseList(output string) ([]string, error) {
	var items []string
	if err := json.Unmarshal([]byte(output), &items); err == nil {
		return clean(items), nil
	}
	start := strings.IndexByte(output, '[')
	end := strings.LastIndexByte(output, ']')
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(output[start:end+1]), &items); err == nil {
			return clean(items), nil
		}
	}
	return nil, fmt.Errorf("ai-service returned no JSON list: %.80q", output)
}

func clean(items []string) []string {
	out := items[:0]
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

const listRule = "Responda SOMENTE com um array JSON de strings, sem texto adicional."

// Summaries asks for three short professional summaries in Portuguese.
func (c *Client) Summaries(ctx context.Context, keyword string) ([]string, error) {
	prompt := fmt.Sprintf("Escreva 3 resumos profissionais curtos (uma ou duas frases) para um currículo de %q. %s", keyword, listRule)
	out, err := c.chat(ctx, prompt)
	if err != nil {
		return nil, err
	}
	items, err := parseList(out)
	if err != nil {
		return nil, err
	}
	if len(items) > 3 {
		items = items[:3]
	}
	return items, nil
}

// Skills asks for five skills relevant to keyword.
func (c *Client) Skills(ctx context.Context, keyword string) ([]string, error) {
	prompt := fmt.Sprintf("Liste 5 habilidades (técnicas e comportamentais) relevantes para %q. %s", keyword, listRule)
	out, err := c.chat(ctx, prompt)
	if err != nil {
		return nil, err
	}
	items, err := parseList(out)
	if err != nil {
		return nil, err
	}
	if len(items) > 5 {
		items = items[:5]
	}
	return items, nil
}
