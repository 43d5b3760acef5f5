package store

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func TestBootstrapTokenMatches(t *testing.T) {
	tests := []struct {
		name       string
		rawToken   string
		storedHash string
		want       bool
	}{
		{
			name:       "matching token",
			rawToken:   "a-raw-bootstrap-token",
			storedHash: hashToken("a-raw-bootstrap-token"),
			want:       true,
		},
		{
			name:       "wrong token",
			rawToken:   "an-attacker-guess",
			storedHash: hashToken("a-raw-bootstrap-token"),
			want:       false,
		},
		{
			name:       "empty raw token never matches a real hash",
			rawToken:   "",
			storedHash: hashToken("a-raw-bootstrap-token"),
			want:       false,
		},
		{
			name:       "stored hash of an empty token only matches an empty token",
			rawToken:   "",
			storedHash: hashToken(""),
			want:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bootstrapTokenMatches(tt.rawToken, tt.storedHash); got != tt.want {
				t.Errorf("bootstrapTokenMatches(%q, %q) = %v, want %v", tt.rawToken, tt.storedHash, got, tt.want)
			}
		})
	}
}
