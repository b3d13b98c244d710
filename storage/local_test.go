package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocal_SaveFile(t *testing.T) {
	dir := t.TempDir()
	local, err := NewLocal(dir, "/static")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	data := []byte("fake-image-bytes")
	url, err := local.SaveFile(context.Background(), data, "image-123.png", "image/png")
	if err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	if url != "/static/image-123.png" {
		t.Errorf("url = %q, want /static/image-123.png", url)
	}

	written, err := os.ReadFile(filepath.Join(dir, "image-123.png"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(written) != string(data) {
		t.Errorf("written = %q, want %q", written, data)
	}
}

func TestLocal_SaveFileCreatesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	local, err := NewLocal(dir, "/static/")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	url, err := local.SaveFile(context.Background(), []byte("x"), "chats/abc/image.png", "image/png")
	if err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	if url != "/static/chats/abc/image.png" {
		t.Errorf("url = %q", url)
	}
	if _, err := os.Stat(filepath.Join(dir, "chats", "abc", "image.png")); err != nil {
		t.Errorf("file not written: %v", err)
	}
}

func TestLocal_SaveFileRejectsUnsafePaths(t *testing.T) {
	local, err := NewLocal(t.TempDir(), "/static")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"empty", ""},
		{"absolute", "/etc/passwd"},
		{"traversal", "../escape.png"},
		{"nested traversal", "a/../../escape.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := local.SaveFile(context.Background(), []byte("x"), tt.path, "image/png"); err == nil {
				t.Errorf("SaveFile(%q) succeeded, want error", tt.path)
			}
		})
	}
}

func TestLocal_SaveFileHonorsCancellation(t *testing.T) {
	local, err := NewLocal(t.TempDir(), "/static")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := local.SaveFile(ctx, []byte("x"), "image.png", "image/png"); err == nil {
		t.Error("SaveFile with cancelled context succeeded, want error")
	}
}
