package models

import (
	"net/url"
	"strings"
	"time"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

type Recognition struct {
	ID        string    `json:"id"`
	VideoURL  string    `json:"videoUrl"`
	Slug      string    `json:"slug"`
	Response  *string   `json:"response,omitempty"`
	Error     *string   `json:"error,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type RecognitionRequest struct {
	URL string `json:"url"`
}

// ExtractSlugFromURL returns the YouTube video id of a watch or youtu.be URL.
func ExtractSlugFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	if strings.TrimPrefix(u.Hostname(), "www.") == "youtu.be" {
		return strings.Trim(u.Path, "/")
	}

	if v := u.Query().Get("v"); v != "" {
		return v
	}

	if rest, ok := strings.CutPrefix(u.Path, "/shorts/"); ok {
		return strings.Trim(rest, "/")
	}

	return ""
}
