package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rewired-gh/outlierscope/internal/analysis"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient("test-key", WithBaseURL(server.URL), WithHTTPClient(server.Client()), WithModel("models/gemini-test"))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestNewClient_RequiresKey(t *testing.T) {
	if _, err := NewClient(""); err == nil {
		t.Error("expected error for empty API key")
	}
	c, err := NewClient("k")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if c.Model() != DefaultModel {
		t.Errorf("Model() = %s, want %s", c.Model(), DefaultModel)
	}
}

func TestGenerateFromURI(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1beta/models/gemini-test:generateContent" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("Missing API key header")
		}

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		parts := req.Contents[0].Parts
		if len(parts) != 2 || parts[0].FileData == nil || parts[0].FileData.FileURI != "https://cdn.example/v.mp4" {
			t.Errorf("Unexpected parts: %+v", parts)
		}
		if parts[0].FileData.MIMEType != "video/mp4" || parts[1].Text != "analyze" {
			t.Errorf("Unexpected parts: %+v", parts)
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"{\"hook_technique\":"},{"text":"\"question\"}"}]}}]}`)
	})

	text, err := c.GenerateFromURI(context.Background(), "https://cdn.example/v.mp4", "video/mp4", "analyze")
	if err != nil {
		t.Fatalf("GenerateFromURI() error = %v", err)
	}
	if text != `{"hook_technique":"question"}` {
		t.Errorf("GenerateFromURI() = %q", text)
	}
}

func TestGenerateFromURI_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"api error message", http.StatusBadRequest, `{"error":{"code":400,"message":"Unsupported file uri"}}`, "Unsupported file uri"},
		{"raw body", http.StatusBadGateway, `upstream down`, "status 502"},
		{"blocked", http.StatusOK, `{"promptFeedback":{"blockReason":"SAFETY"}}`, "prompt blocked: SAFETY"},
		{"no text", http.StatusOK, `{"candidates":[]}`, "no text content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			_, err := c.GenerateFromURI(context.Background(), "u", "video/mp4", "p")
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestGenerateFromURI_APIErrorType(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"message":"quota"}}`)
	})
	_, err := c.GenerateFromURI(context.Background(), "u", "video/mp4", "p")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}
}

func TestUpload_Resumable(t *testing.T) {
	var uploadedBody string
	var serverURL string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/upload/v1beta/files":
			if r.Header.Get("X-Goog-Upload-Protocol") != "resumable" || r.Header.Get("X-Goog-Upload-Command") != "start" {
				t.Errorf("Unexpected start headers: %v", r.Header)
			}
			if r.Header.Get("X-Goog-Upload-Header-Content-Length") != "5" {
				t.Errorf("Content length header = %s", r.Header.Get("X-Goog-Upload-Header-Content-Length"))
			}
			if r.Header.Get("X-Goog-Upload-Header-Content-Type") != "video/mp4" {
				t.Errorf("Content type header = %s", r.Header.Get("X-Goog-Upload-Header-Content-Type"))
			}
			var meta map[string]map[string]string
			json.NewDecoder(r.Body).Decode(&meta)
			if meta["file"]["display_name"] != "tiktok_v1" {
				t.Errorf("display name = %v", meta)
			}
			w.Header().Set("X-Goog-Upload-URL", serverURL+"/upload-session/1")
			w.WriteHeader(http.StatusOK)
		case "/upload-session/1":
			if r.Header.Get("X-Goog-Upload-Command") != "upload, finalize" || r.Header.Get("X-Goog-Upload-Offset") != "0" {
				t.Errorf("Unexpected upload headers: %v", r.Header)
			}
			b, _ := io.ReadAll(r.Body)
			uploadedBody = string(b)
			io.WriteString(w, `{"file":{"name":"files/abc","uri":"https://generativelanguage.googleapis.com/v1beta/files/abc","state":"PROCESSING"}}`)
		default:
			t.Errorf("Unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	serverURL = c.baseURL

	f, err := c.Upload(context.Background(), []byte("bytes"), "video/mp4", "tiktok_v1")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if uploadedBody != "bytes" {
		t.Errorf("uploaded body = %q", uploadedBody)
	}
	want := analysis.File{Name: "files/abc", URI: "https://generativelanguage.googleapis.com/v1beta/files/abc", MIMEType: "video/mp4", State: analysis.FileProcessing}
	if f != want {
		t.Errorf("Upload() = %+v, want %+v", f, want)
	}
}

func TestUpload_NoSessionURL(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if _, err := c.Upload(context.Background(), []byte("x"), "video/mp4", "n"); err == nil {
		t.Error("expected error without upload URL")
	}
}

func TestGetAndDeleteFile(t *testing.T) {
	var deleted bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/files/abc" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		switch r.Method {
		case http.MethodGet:
			io.WriteString(w, `{"name":"files/abc","uri":"u","mimeType":"video/mp4","state":"ACTIVE"}`)
		case http.MethodDelete:
			deleted = true
			io.WriteString(w, `{}`)
		}
	})

	f, err := c.GetFile(context.Background(), "files/abc")
	if err != nil {
		t.Fatalf("GetFile() error = %v", err)
	}
	if f.State != analysis.FileActive {
		t.Errorf("State = %s, want ACTIVE", f.State)
	}
	if err := c.DeleteFile(context.Background(), "abc"); err != nil {
		t.Fatalf("DeleteFile() error = %v", err)
	}
	if !deleted {
		t.Error("expected DELETE request")
	}
}
