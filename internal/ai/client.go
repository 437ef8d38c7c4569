// Package ai talks to an OpenAI-compatible chat completion endpoint (Groq by
// default) to refine journal text or restructure it into ARAS sections.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.1-8b-instant"
	DefaultTimeout = 45 * time.Second
)

var (
	// ErrTimeout wraps context.DeadlineExceeded so callers can match either.
	ErrTimeout       = fmt.Errorf("ai: request timed out: %w", context.DeadlineExceeded)
	ErrNotConfigured = errors.New("ai: api key not configured")
)

const refinePrompt = `You are a professional journal editor for an internship daily report.
Your task is to refine the user's journal entry.

STRICT RULES:
- Only improve grammar, spelling, sentence clarity, and structure. Edit only what is written.
- Preserve the user's original content and meaning completely. Do not add or remove any facts.
- Do NOT invent, hallucinate, or fabricate anything: no new events, tasks, stories, details, or experiences.
- Do NOT add any information that is not explicitly in the user's text.
- Do NOT exaggerate, embellish, or expand on what the user wrote.
- If something is unclear, leave it as the user wrote it. Do not guess or fill in.
- Maintain a professional but authentic tone. Keep technical terms as the user wrote them.
- Return ONLY the refined text, no explanations or metadata.`

const arasPrompt = `You are a journal structuring assistant for internship reports.
Restructure the given journal entry into the ARAS format.

ARAS FORMAT:
1. **Action** - What was done today (tasks, activities, work performed)
2. **Reflection** - How the person felt or responded to the day's work
3. **Analysis** - What was learned, technical understanding gained
4. **Summary** - Concise overview of the day

STRICT RULES:
- Derive ALL sections ONLY from the provided content
- Do NOT fabricate or invent any missing information
- If information for a section is insufficient, keep it minimal and honest
- Maintain the user's original meaning
- Use professional language

Return ONLY a JSON object with keys: action, reflection, analysis, summary
Each value should be a string paragraph. No markdown formatting in values.`

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type Client struct {
	http    *http.Client
	apiKey  string
	baseURL string
	model   string
	timeout time.Duration
}

func New(cfg Config) *Client {
	c := &Client{
		http:    &http.Client{},
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	return c
}

func (c *Client) Model() string { return c.model }

// ARAS is a journal entry split into Action, Reflection, Analysis, Summary.
type ARAS struct {
	Action     string `json:"action"`
	Reflection string `json:"reflection"`
	Analysis   string `json:"analysis"`
	Summary    string `json:"summary"`
}

// Refine returns the edited text and the tokens the call consumed.
func (c *Client) Refine(ctx context.Context, content string) (string, int, error) {
	resp, err := c.complete(ctx, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: refinePrompt},
			{Role: "user", Content: content},
		},
		Temperature: 0.2,
		MaxTokens:   2000,
	})
	if err != nil {
		return "", 0, err
	}
	return resp.Choices[0].Message.Content, resp.Usage.TotalTokens, nil
}

func (c *Client) Structure(ctx context.Context, content string) (ARAS, int, error) {
	resp, err := c.complete(ctx, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: arasPrompt},
			{Role: "user", Content: content},
		},
		Temperature:    0.3,
		MaxTokens:      2000,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return ARAS{}, 0, err
	}
	var out ARAS
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
		return ARAS{}, 0, fmt.Errorf("ai: decode aras: %w", err)
	}
	return out, resp.Usage.TotalTokens, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func (c *Client) complete(ctx context.Context, body chatRequest) (chatResponse, error) {
	if c.apiKey == "" {
		return chatResponse{}, ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return chatResponse{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return chatResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return chatResponse{}, ErrTimeout
		}
		return chatResponse{}, fmt.Errorf("ai: request: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return chatResponse{}, ErrTimeout
		}
		return chatResponse{}, fmt.Errorf("ai: read response: %w", err)
	}
	if res.StatusCode/100 != 2 {
		return chatResponse{}, fmt.Errorf("ai: upstream status %d: %s", res.StatusCode, strings.TrimSpace(string(raw)))
	}
	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return chatResponse{}, fmt.Errorf("ai: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return chatResponse{}, errors.New("ai: empty completion")
	}
	return out, nil
}
