package llm

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
)

// Image is an inline image attached to a completion request.
type Image struct {
	MIMEType string
	Data     []byte
}

// NewImage sniffs the MIME type of data, defaulting to JPEG for anything
// that is not PNG or WebP.
func NewImage(data []byte) Image {
	mime := http.DetectContentType(data)
	switch mime {
	case "image/png", "image/webp", "image/jpeg", "image/gif":
	default:
		mime = "image/jpeg"
	}
	return Image{MIMEType: mime, Data: data}
}

// DataURL renders the image as a base64 data URL.
func (i Image) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// CompletionRequest is a single system+user chat completion.
type CompletionRequest struct {
	Model     string
	System    string
	User      string
	Images    []Image
	MaxTokens int
}

// Completer is a hosted chat-completion backend.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Name() string
}

// IsReasoningModel reports whether model belongs to a reasoning family that
// rejects temperature and counts hidden reasoning tokens against the budget.
func IsReasoningModel(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	if strings.Contains(m, "gpt-5") {
		return true
	}
	for _, prefix := range []string{"o1", "o3", "o4"} {
		if strings.HasPrefix(m, prefix) {
			return true
		}
	}
	return false
}
