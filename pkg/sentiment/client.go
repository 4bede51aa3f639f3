// Package sentiment is a Go client for the sentiment-analysis REST API:
// analytics overview, model catalogue and comparison, single and batch
// prediction, word cloud and health.
package sentiment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultBaseURL is where the backend listens in a default deployment.
const DefaultBaseURL = "http://localhost:5000/api"

// maxBodyBytes bounds response bodies; word clouds are the largest payloads.
const maxBodyBytes = 32 << 20

// Client talks to the sentiment-analysis API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
	newID      func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient creates a new API client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        slog.Default(),
		newID:      func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Overview retrieves the analytics overview.
func (c *Client) Overview(ctx context.Context) (*Overview, error) {
	var resp struct {
		Analytics Overview `json:"analytics"`
	}
	if err := c.do(ctx, http.MethodGet, "/analytics/overview", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Analytics, nil
}

// Models retrieves the model catalogue, sorted by key.
func (c *Client) Models(ctx context.Context) ([]ModelInfo, error) {
	var resp struct {
		Models map[string]ModelInfo `json:"models"`
	}
	if err := c.do(ctx, http.MethodGet, "/models", nil, &resp); err != nil {
		return nil, err
	}
	models := make([]ModelInfo, 0, len(resp.Models))
	for key, m := range resp.Models {
		m.Key = key
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].Key < models[j].Key })
	return models, nil
}

// ModelComparison retrieves per-model scores in backend order.
func (c *Client) ModelComparison(ctx context.Context) ([]ModelScore, error) {
	var resp struct {
		ModelComparison []ModelScore `json:"model_comparison"`
	}
	if err := c.do(ctx, http.MethodGet, "/analytics/model_comparison", nil, &resp); err != nil {
		return nil, err
	}
	return resp.ModelComparison, nil
}

// Predict classifies a single text with the given model.
func (c *Client) Predict(ctx context.Context, text, model string) (*Prediction, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	req := map[string]string{"text": text, "model": model}
	var resp struct {
		Prediction Prediction `json:"prediction"`
	}
	if err := c.do(ctx, http.MethodPost, "/predict", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Prediction, nil
}

// BatchPredict classifies several texts in one request. Result indices refer
// to positions in texts.
func (c *Client) BatchPredict(ctx context.Context, texts []string, model string) (*BatchResult, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyBatch
	}
	req := struct {
		Texts []string `json:"texts"`
		Model string   `json:"model"`
	}{Texts: texts, Model: model}
	var resp BatchResult
	if err := c.do(ctx, http.MethodPost, "/batch_predict", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WordCloud retrieves and decodes the word-cloud image.
func (c *Client) WordCloud(ctx context.Context) (*WordCloud, error) {
	var resp struct {
		WordCloud string `json:"wordcloud"`
	}
	if err := c.do(ctx, http.MethodGet, "/analytics/wordcloud", nil, &resp); err != nil {
		return nil, err
	}
	mediaType, data, err := DecodeDataURL(resp.WordCloud)
	if err != nil {
		return nil, &ProviderError{Endpoint: "/analytics/wordcloud", Err: err}
	}
	return &WordCloud{MediaType: mediaType, Data: data}, nil
}

// Health retrieves the backend health report.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var resp Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// envelope is the status wrapper shared by every response.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// do sends a request and decodes the JSON body into dest. Every failure is
// returned as a *ProviderError.
func (c *Client) do(ctx context.Context, method, endpoint string, body, dest any) error {
	reqID := c.newID()
	fail := func(status int, msg string, err error) error {
		return &ProviderError{Endpoint: endpoint, StatusCode: status, Message: msg, RequestID: reqID, Err: err}
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fail(0, "", fmt.Errorf("encoding request: %w", err))
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, rdr)
	if err != nil {
		return fail(0, "", fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("api request failed", "endpoint", endpoint, "request_id", reqID, "error", err)
		return fail(0, "", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fail(resp.StatusCode, "", fmt.Errorf("reading response: %w", err))
	}
	c.log.Debug("api request",
		"method", method,
		"endpoint", endpoint,
		"request_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(data),
		"duration", time.Since(start))

	var env envelope
	envErr := json.Unmarshal(data, &env)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if envErr != nil {
			return fail(resp.StatusCode, "", fmt.Errorf("unexpected status %s", resp.Status))
		}
		return fail(resp.StatusCode, env.Message, nil)
	}
	if envErr != nil {
		return fail(resp.StatusCode, "", fmt.Errorf("decoding response: %w", envErr))
	}
	if env.Status == "error" {
		return fail(resp.StatusCode, env.Message, nil)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fail(resp.StatusCode, "", fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// DecodeDataURL decodes a base64 "data:" URL into its media type and bytes.
func DecodeDataURL(s string) (mediaType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("data URL has no payload")
	}
	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("data URL is not base64 encoded")
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decoding data URL: %w", err)
	}
	return mediaType, data, nil
}
