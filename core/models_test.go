package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "same content produces same ID",
			content: "test content",
		},
		{
			name:    "empty string",
			content: "",
		},
		{
			name:    "long content",
			content: "This is a much longer piece of content that should still hash consistently",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestIDFromURL(t *testing.T) {
	url := "https://example.com/news/story-1"

	id1 := IDFromURL(url)
	id2 := IDFromURL(url)
	if id1 != id2 {
		t.Errorf("IDFromURL() produced different IDs for same URL: %d vs %d", id1, id2)
	}

	other := IDFromURL("https://example.com/news/story-2")
	if id1 == other {
		t.Errorf("IDFromURL() produced same ID for different URLs")
	}

	// The URL-derived ID is the content hash of the URL itself.
	if id1 != IDFromContent(url) {
		t.Errorf("IDFromURL() does not match IDFromContent() for the same URL")
	}
}
