package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds a single generateContent call.
	DefaultTimeout = 60 * time.Second

	// maxResponseSize caps how much of a response body is read.
	maxResponseSize = 2 * 1024 * 1024

	apiKeyHeader = "x-goog-api-key"
)

// GeminiClient calls the Generative Language generateContent endpoint.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ Generator = (*GeminiClient)(nil)

// NewGeminiClient creates a client. ratePerMinute <= 0 disables the
// client-side rate limit.
func NewGeminiClient(apiKey, baseURL, model string, ratePerMinute int) *GeminiClient {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if ratePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(ratePerMinute)), 1)
	}
	return &GeminiClient{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    limiter,
	}
}

// WithHTTPClient replaces the HTTP client.
func (c *GeminiClient) WithHTTPClient(hc *http.Client) *GeminiClient {
	c.httpClient = hc
	return c
}

// IsConfigured returns true if an API key is set.
func (c *GeminiClient) IsConfigured() bool {
	return c.apiKey != ""
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Type   string `json:"@type"`
			Reason string `json:"reason"`
		} `json:"details"`
	} `json:"error"`
}

// Generate sends prompt as a single user turn and returns the text of the
// first candidate.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", &ProviderError{Kind: KindNetwork, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &ProviderError{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", &ProviderError{Kind: KindNetwork, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyHTTPError(resp.StatusCode, respBody)
	}

	var out generateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", &ProviderError{Kind: KindUnknown, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return extractText(&out)
}

func extractText(out *generateResponse) (string, error) {
	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return "", &ProviderError{Kind: KindContentBlocked, Reason: out.PromptFeedback.BlockReason, Message: "prompt blocked"}
	}
	if len(out.Candidates) == 0 {
		return "", &ProviderError{Kind: KindUnknown, Message: "response contained no candidates"}
	}

	cand := out.Candidates[0]
	var b strings.Builder
	for _, p := range cand.Content.Parts {
		b.WriteString(p.Text)
	}
	text := b.String()

	if strings.TrimSpace(text) == "" {
		if isBlockingFinish(cand.FinishReason) {
			return "", &ProviderError{Kind: KindContentBlocked, Reason: cand.FinishReason, Message: "candidate blocked"}
		}
		return "", &ProviderError{Kind: KindUnknown, Reason: cand.FinishReason, Message: "response contained no text"}
	}
	return text, nil
}

func isBlockingFinish(reason string) bool {
	switch reason {
	case "SAFETY", "BLOCKLIST", "PROHIBITED_CONTENT", "SPII", "RECITATION":
		return true
	}
	return false
}

// classifyHTTPError maps a non-200 response to a ProviderError using the
// HTTP status and the structured status and reason fields of the body.
func classifyHTTPError(statusCode int, body []byte) *ProviderError {
	pe := &ProviderError{StatusCode: statusCode}

	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil {
		pe.Status = apiErr.Error.Status
		pe.Message = apiErr.Error.Message
		for _, d := range apiErr.Error.Details {
			if d.Reason != "" {
				pe.Reason = d.Reason
				break
			}
		}
	}
	if pe.Message == "" {
		pe.Message = http.StatusText(statusCode)
	}

	switch {
	case pe.Reason == "API_KEY_INVALID" || pe.Reason == "API_KEY_EXPIRED" ||
		pe.Status == "UNAUTHENTICATED" || pe.Status == "PERMISSION_DENIED" ||
		statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		pe.Kind = KindCredentialInvalid
	case pe.Status == "RESOURCE_EXHAUSTED" || statusCode == http.StatusTooManyRequests:
		pe.Kind = KindQuotaExceeded
	case statusCode == http.StatusServiceUnavailable || statusCode == http.StatusBadGateway ||
		statusCode == http.StatusGatewayTimeout || pe.Status == "UNAVAILABLE":
		pe.Kind = KindNetwork
	default:
		pe.Kind = KindUnknown
	}
	return pe
}
