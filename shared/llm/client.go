package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"flyticker/internal/models"
	"flyticker/shared/config"
)

// ErrAuth marks a 401 from the completion API. Credentials will not
// self-correct, so callers must not retry.
var ErrAuth = errors.New("LLM API authentication failed")

// jsonModeModels lists the model families known to support the structured
// JSON response mode. Matched by substring against the configured model name.
var jsonModeModels = []string{
	"gpt-4-turbo",
	"gpt-4-turbo-preview",
	"gpt-4-0125-preview",
	"gpt-4o",
	"gpt-4o-mini",
	"gpt-3.5-turbo",
}

// Client sends prompt pairs to a chat-completions API and turns the reply
// into a normalized Verdict.
type Client struct {
	apiURL      string
	apiKey      string
	model       string
	temperature float64
	maxRetries  int
	baseDelay   time.Duration
	httpClient  *http.Client

	// sleep is swapped out in tests to observe backoff delays.
	sleep func(time.Duration)
}

func NewClient(cfg *config.LLMConfig) *Client {
	return &Client{
		apiURL:      cfg.APIURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
		baseDelay:   cfg.BaseDelay(),
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
		sleep: time.Sleep,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Evaluate sends the prompt pair and returns the normalized verdict.
// Transient failures (429, 5xx, transport errors) are retried with
// exponential backoff up to the configured maximum; 401 aborts immediately.
func (c *Client) Evaluate(ctx context.Context, systemPrompt, userPrompt string) (models.Verdict, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.temperature,
	}
	if c.supportsJSONMode() {
		payload.ResponseFormat = &struct {
			Type string `json:"type"`
		}{Type: "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return models.Verdict{}, fmt.Errorf("failed to encode completion request: %w", err)
	}

	log.Printf("LLM call: model=%s, prompt length: system=%d, user=%d",
		c.model, len(systemPrompt), len(userPrompt))

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
		if err != nil {
			return models.Verdict{}, fmt.Errorf("failed to build completion request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("completion request failed: %w", err)
			log.Printf("Warning: %v (attempt %d/%d)", lastErr, attempt+1, c.maxRetries)
			if attempt == c.maxRetries-1 {
				break
			}
			c.sleep(c.backoff(attempt))
			continue
		}

		switch resp.StatusCode {
		case http.StatusOK:
			verdict, err := c.parseResponse(resp.Body)
			resp.Body.Close()
			return verdict, err

		case http.StatusTooManyRequests:
			resp.Body.Close()
			lastErr = fmt.Errorf("completion API rate limited (429)")
			if attempt == c.maxRetries-1 {
				break
			}
			wait := c.backoff(attempt) * 2
			log.Printf("Warning: rate limited, waiting %v before retry %d/%d", wait, attempt+2, c.maxRetries)
			c.sleep(wait)
			continue

		case http.StatusUnauthorized:
			snippet := readSnippet(resp.Body, 200)
			resp.Body.Close()
			return models.Verdict{}, fmt.Errorf("%w (401): %s", ErrAuth, snippet)

		default:
			snippet := readSnippet(resp.Body, 500)
			resp.Body.Close()
			lastErr = fmt.Errorf("completion API error %d: %s", resp.StatusCode, snippet)
			log.Printf("Warning: %v (attempt %d/%d)", lastErr, attempt+1, c.maxRetries)
			if attempt == c.maxRetries-1 {
				break
			}
			c.sleep(c.backoff(attempt))
			continue
		}
		break
	}

	return models.Verdict{}, fmt.Errorf("completion API call failed after %d attempts: %w", c.maxRetries, lastErr)
}

// backoff returns baseDelay * 2^attempt.
func (c *Client) backoff(attempt int) time.Duration {
	return c.baseDelay * time.Duration(1<<uint(attempt))
}

func (c *Client) supportsJSONMode() bool {
	for _, m := range jsonModeModels {
		if strings.Contains(c.model, m) {
			return true
		}
	}
	return false
}

// parseResponse extracts the completion text and parses it as a verdict
// document. A malformed body is terminal for this call; the per-day failure
// handling lives with the caller.
func (c *Client) parseResponse(r io.Reader) (models.Verdict, error) {
	var cr chatResponse
	if err := json.NewDecoder(r).Decode(&cr); err != nil {
		return models.Verdict{}, fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return models.Verdict{}, fmt.Errorf("completion response contained no choices")
	}

	content := cr.Choices[0].Message.Content
	raw, err := extractJSON(content)
	if err != nil {
		return models.Verdict{}, err
	}
	return Normalize(raw), nil
}

// extractJSON pulls the outermost JSON object out of the completion text.
// Models occasionally wrap the payload in prose or a code fence.
func extractJSON(content string) (map[string]any, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object found in completion text: %q", truncate(content, 200))
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse verdict JSON: %w", err)
	}
	return raw, nil
}

func readSnippet(r io.Reader, max int) string {
	data, err := io.ReadAll(io.LimitReader(r, int64(max)))
	if err != nil || len(data) == 0 {
		return "no error message"
	}
	return string(data)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
