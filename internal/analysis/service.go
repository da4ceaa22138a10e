package analysis

import "context"

// FileState is the processing state of an uploaded file.
type FileState string

const (
	FileProcessing FileState = "PROCESSING"
	FileActive     FileState = "ACTIVE"
	FileFailed     FileState = "FAILED"
)

// File is a handle to content stored in the analysis service's file store.
type File struct {
	Name     string    // Resource name used for polling and deletion, e.g. "files/abc123"
	URI      string    // URI passed back to the service when generating
	MIMEType string
	State    FileState
}

// Service is the multimodal analysis service boundary.
type Service interface {
	// GenerateFromURI submits content referenced by uri together with prompt
	// and returns the model's text answer.
	GenerateFromURI(ctx context.Context, uri, mimeType, prompt string) (string, error)
	Upload(ctx context.Context, data []byte, mimeType, displayName string) (File, error)
	GetFile(ctx context.Context, name string) (File, error)
	DeleteFile(ctx context.Context, name string) error
}

// Fetcher downloads remote content. It returns the body and its content type.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}
