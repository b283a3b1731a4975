package videokey

import (
	"strings"
	"testing"
)

func TestDeriveID(t *testing.T) {
	tests := []struct {
		name    string
		ownerID string
		millis  int64
		want    string
	}{
		{
			name:    "plain owner",
			ownerID: "alice",
			millis:  1700000000000,
			want:    "alice-1700000000000",
		},
		{
			name:    "owner with unsafe characters",
			ownerID: "alice/../etc",
			millis:  1700000000000,
			want:    "alice..etc-1700000000000",
		},
		{
			name:    "same owner same millisecond is deterministic",
			ownerID: "bob",
			millis:  42,
			want:    "bob-42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveID(tt.ownerID, tt.millis); got != tt.want {
				t.Errorf("DeriveID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeriveKey(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		filename string
		want     string
	}{
		{
			name:     "regular filename",
			id:       "alice-42",
			filename: "clip.mp4",
			want:     "videos/alice-42/clip.mp4",
		},
		{
			name:     "filename sanitized",
			id:       "alice-42",
			filename: "../../secret clip.mp4",
			want:     "videos/alice-42/..secretclip.mp4",
		},
		{
			name:     "empty filename falls back to media",
			id:       "alice-42",
			filename: "",
			want:     "videos/alice-42/media",
		},
		{
			name:     "fully stripped filename falls back to media",
			id:       "alice-42",
			filename: "///",
			want:     "videos/alice-42/media",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveKey(tt.id, tt.filename); got != tt.want {
				t.Errorf("DeriveKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAllKeysShareIDPrefix(t *testing.T) {
	id := DeriveID("carol", 99)
	prefix := Prefix(id)

	mediaKey := DeriveKey(id, "clip.webm")
	previewKey := PreviewKey(id)

	if !strings.HasPrefix(mediaKey, prefix) {
		t.Errorf("media key %q does not share prefix %q", mediaKey, prefix)
	}
	if !strings.HasPrefix(previewKey, prefix) {
		t.Errorf("preview key %q does not share prefix %q", previewKey, prefix)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"simple", "simple"},
		{"with space", "withspace"},
		{"path/../traversal", "path..traversal"},
		{"ünï-cødé", "n-cd"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
