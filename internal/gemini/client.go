// Package gemini is a REST client for the Google Generative Language API. It
// implements analysis.Service: content generation against a file URI, and the
// resumable upload, status and delete calls of the Files API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rewired-gh/outlierscope/internal/analysis"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-flash"
	apiVersion     = "v1beta"
	defaultTimeout = 60 * time.Second
)

// Client provides access to the Generative Language API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// Option allows configuring the client
type Option func(*Client)

// WithBaseURL sets a custom API base URL
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithModel sets the generation model
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = strings.TrimPrefix(model, "models/")
		}
	}
}

// NewClient creates a new API client. The API key is required.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api_key is required")
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Model returns the configured generation model.
func (c *Client) Model() string {
	return c.model
}

type fileData struct {
	MIMEType string `json:"mime_type"`
	FileURI  string `json:"file_uri"`
}

type part struct {
	Text     string    `json:"text,omitempty"`
	FileData *fileData `json:"file_data,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
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

// apiFile is the Files API resource.
type apiFile struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType"`
	State    string `json:"state"`
}

func (f apiFile) toFile() analysis.File {
	state := analysis.FileState(f.State)
	if state == "" || state == "STATE_UNSPECIFIED" {
		state = analysis.FileProcessing
	}
	return analysis.File{Name: f.Name, URI: f.URI, MIMEType: f.MIMEType, State: state}
}

// GenerateFromURI runs prompt against the content at uri and returns the text
// of the first candidate.
func (c *Client) GenerateFromURI(ctx context.Context, uri, mimeType, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{FileData: &fileData{MIMEType: mimeType, FileURI: uri}},
				{Text: prompt},
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, apiVersion, c.model)
	respBody, err := c.do(ctx, http.MethodPost, url, bytes.NewReader(body), map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	var resp generateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	for _, cand := range resp.Candidates {
		var sb strings.Builder
		for _, p := range cand.Content.Parts {
			sb.WriteString(p.Text)
		}
		if sb.Len() > 0 {
			return sb.String(), nil
		}
	}
	return "", errors.New("no text content in response")
}

// Upload stores data in the file store using the resumable upload protocol.
func (c *Client) Upload(ctx context.Context, data []byte, mimeType, displayName string) (analysis.File, error) {
	meta, err := json.Marshal(map[string]interface{}{
		"file": map[string]string{"display_name": displayName},
	})
	if err != nil {
		return analysis.File{}, fmt.Errorf("failed to marshal upload metadata: %w", err)
	}

	startURL := fmt.Sprintf("%s/upload/%s/files", c.baseURL, apiVersion)
	req, err := c.newRequest(ctx, http.MethodPost, startURL, bytes.NewReader(meta))
	if err != nil {
		return analysis.File{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Upload-Protocol", "resumable")
	req.Header.Set("X-Goog-Upload-Command", "start")
	req.Header.Set("X-Goog-Upload-Header-Content-Length", strconv.Itoa(len(data)))
	req.Header.Set("X-Goog-Upload-Header-Content-Type", mimeType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return analysis.File{}, fmt.Errorf("failed to start upload: %w", err)
	}
	startBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return analysis.File{}, fmt.Errorf("failed to start upload: %w", parseAPIError(resp.StatusCode, startBody))
	}
	uploadURL := resp.Header.Get("X-Goog-Upload-URL")
	if uploadURL == "" {
		return analysis.File{}, errors.New("failed to start upload: no upload URL in response")
	}

	respBody, err := c.do(ctx, http.MethodPost, uploadURL, bytes.NewReader(data), map[string]string{
		"X-Goog-Upload-Offset":  "0",
		"X-Goog-Upload-Command": "upload, finalize",
	})
	if err != nil {
		return analysis.File{}, fmt.Errorf("failed to upload file: %w", err)
	}

	var uploaded struct {
		File apiFile `json:"file"`
	}
	if err := json.Unmarshal(respBody, &uploaded); err != nil {
		return analysis.File{}, fmt.Errorf("failed to decode upload response: %w", err)
	}
	if uploaded.File.Name == "" {
		return analysis.File{}, errors.New("upload response has no file name")
	}
	if uploaded.File.MIMEType == "" {
		uploaded.File.MIMEType = mimeType
	}
	return uploaded.File.toFile(), nil
}

// GetFile returns the current state of an uploaded file.
func (c *Client) GetFile(ctx context.Context, name string) (analysis.File, error) {
	respBody, err := c.do(ctx, http.MethodGet, c.fileURL(name), nil, nil)
	if err != nil {
		return analysis.File{}, fmt.Errorf("failed to get file: %w", err)
	}
	var f apiFile
	if err := json.Unmarshal(respBody, &f); err != nil {
		return analysis.File{}, fmt.Errorf("failed to decode file: %w", err)
	}
	return f.toFile(), nil
}

// DeleteFile removes an uploaded file.
func (c *Client) DeleteFile(ctx context.Context, name string) error {
	if _, err := c.do(ctx, http.MethodDelete, c.fileURL(name), nil, nil); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (c *Client) fileURL(name string) string {
	if !strings.HasPrefix(name, "files/") {
		name = "files/" + name
	}
	return fmt.Sprintf("%s/%s/%s", c.baseURL, apiVersion, name)
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)
	return req, nil
}

// do performs a single request and returns the body of a 2xx response. There
// is no retry.
func (c *Client) do(ctx context.Context, method, url string, body io.Reader, headers map[string]string) ([]byte, error) {
	req, err := c.newRequest(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseAPIError(resp.StatusCode, respBody)
	}
	return respBody, nil
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// parseAPIError extracts error.message from an error body, falling back to
// the raw body.
func parseAPIError(statusCode int, body []byte) error {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
		return &APIError{StatusCode: statusCode, Message: parsed.Error.Message}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return &APIError{StatusCode: statusCode, Message: msg}
}

var _ analysis.Service = (*Client)(nil)
