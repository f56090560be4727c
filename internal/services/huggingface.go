package services

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

// TextGenerator produces a completion for a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type hfParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	DoSample       bool    `json:"do_sample"`
	TopP           float64 `json:"top_p"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

// HuggingFaceClient calls the hosted inference API of a text-generation model.
type HuggingFaceClient struct {
	modelURL   string
	apiKey     string
	httpClient *http.Client
}

func NewHuggingFaceClient(modelURL, apiKey string) *HuggingFaceClient {
	return &HuggingFaceClient{
		modelURL:   modelURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HuggingFaceClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("huggingface api key not configured")
	}
	body, err := json.Marshal(hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			MaxNewTokens:   150,
			Temperature:    0.7,
			DoSample:       true,
			TopP:           0.9,
			ReturnFullText: false,
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.modelURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("huggingface request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read huggingface response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("huggingface status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	text, err := parseGeneratedText(respBody)
	if err != nil {
		return "", err
	}
	return text, nil
}

// parseGeneratedText accepts both the list form [{"generated_text": ...}] and
// the single object form {"generated_text": ...}.
func parseGeneratedText(body []byte) (string, error) {
	var list []hfGeneration
	if err := json.Unmarshal(body, &list); err == nil {
		if len(list) > 0 {
			if text := strings.TrimSpace(list[0].GeneratedText); text != "" {
				return text, nil
			}
		}
		return "", errors.New("huggingface returned no generated text")
	}

	var single hfGeneration
	if err := json.Unmarshal(body, &single); err != nil {
		return "", fmt.Errorf("decode huggingface response: %w", err)
	}
	if text := strings.TrimSpace(single.GeneratedText); text != "" {
		return text, nil
	}
	return "", errors.New("huggingface returned no generated text")
}
