package kek

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func writeTestKEK(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "kek")
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, 32), 0o600); err != nil {
		t.Fatalf("writing test KEK: %v", err)
	}
	return path
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	k, err := Load(writeTestKEK(t))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	dek, err := GenerateDEK()
	if err != nil {
		t.Fatalf("GenerateDEK() error: %v", err)
	}

	wrapped, err := k.Wrap(1001, dek)
	if err != nil {
		t.Fatalf("Wrap() error: %v", err)
	}

	unwrapped, err := k.Unwrap(1001, wrapped)
	if err != nil {
		t.Fatalf("Unwrap() error: %v", err)
	}

	if !bytes.Equal(dek, unwrapped) {
		t.Fatalf("unwrapped DEK does not match original")
	}
}

func TestUnwrapWrongInstanceFails(t *testing.T) {
	k, err := Load(writeTestKEK(t))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	dek, err := GenerateDEK()
	if err != nil {
		t.Fatalf("GenerateDEK() error: %v", err)
	}

	wrapped, err := k.Wrap(1001, dek)
	if err != nil {
		t.Fatalf("Wrap() error: %v", err)
	}

	if _, err := k.Unwrap(2002, wrapped); err == nil {
		t.Fatalf("expected Unwrap() to fail for a different instance ID")
	}
}

func TestLoadRejectsShortFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kek")
	if err := os.WriteFile(path, []byte("too-short"), 0o600); err != nil {
		t.Fatalf("writing test KEK: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("expected Load() to reject a file shorter than 32 bytes")
	}
}
