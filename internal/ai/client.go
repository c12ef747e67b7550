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

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/cnpie-acelerador/cnpie-backend/config"
	"github.com/cnpie-acelerador/cnpie-backend/internal/logging"
)

// Remote function names.
const (
	FunctionExtractFields  = "extract-document-fields"
	FunctionEvaluateRubric = "evaluate-rubric"
	FunctionGenerateReport = "generate-report"
)

const defaultReportTimeout = 120 * time.Second

// FunctionResponse is the envelope every AI function returns.
type FunctionResponse struct {
	Success       bool            `json:"success"`
	Analysis      json.RawMessage `json:"analysis,omitempty"`
	ExtractedData map[string]any  `json:"extractedData,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// FunctionError carries the remote failure message verbatim.
type FunctionError struct {
	Function   string
	StatusCode int
	Message    string
}

func (e *FunctionError) Error() string {
	return e.Message
}

// Client invokes the named AI completion functions. Calls are never retried.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	limiter       *rate.Limiter
	reportTimeout time.Duration
}

// NewClient builds a client from AI_* settings. A non-empty API key is sent
// as a bearer token on every call.
func NewClient(cfg config.AIConfig) *Client {
	httpClient := &http.Client{}
	if cfg.APIKey != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey, TokenType: "Bearer"})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	timeout := cfg.ReportTimeout
	if timeout <= 0 {
		timeout = defaultReportTimeout
	}

	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:    httpClient,
		limiter:       rate.NewLimiter(limit, burst),
		reportTimeout: timeout,
	}
}

// Invoke POSTs payload to {base}/functions/v1/{function}.
func (c *Client) Invoke(ctx context.Context, function string, payload any) (*FunctionResponse, error) {
	logger := logging.NewLogger(ctx)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/functions/v1/%s", c.baseURL, function)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if rid := logging.RequestID(ctx); rid != "" {
		req.Header.Set("X-Request-Id", rid)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.LogErrorf("ai_invoke", "function=%s: %v", function, err)
		return nil, fmt.Errorf("failed to call %s: %w", function, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	logger.LogInfof("ai_invoke", "function=%s status=%d latency=%s", function, resp.StatusCode, time.Since(start))

	var out FunctionResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && out.Error != "" {
			msg = out.Error
		}
		if msg == "" {
			msg = fmt.Sprintf("%s failed", function)
		}
		return nil, &FunctionError{Function: function, StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to unmarshal %s response: %w", function, decodeErr)
	}
	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = fmt.Sprintf("%s failed", function)
		}
		return nil, &FunctionError{Function: function, StatusCode: resp.StatusCode, Message: msg}
	}
	return &out, nil
}
