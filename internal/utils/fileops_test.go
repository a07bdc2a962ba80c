package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "wheelhouse-copy-")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	src := filepath.Join(tmpDir, "a-1.0-py3-none-any.whl")
	if err := os.WriteFile(src, []byte("wheel-bytes"), 0640); err != nil {
		t.Fatalf("Failed to write source: %v", err)
	}

	dst := filepath.Join(tmpDir, "out", "wheels", "a-1.0-py3-none-any.whl")
	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("Failed to read copy: %v", err)
	}
	if string(data) != "wheel-bytes" {
		t.Errorf("copy = %q, want %q", data, "wheel-bytes")
	}

	info, err := os.Stat(dst)
	if err != nil {
		t.Fatalf("Failed to stat copy: %v", err)
	}
	if info.Mode().Perm() != 0640 {
		t.Errorf("copy mode = %v, want 0640", info.Mode().Perm())
	}

	// No temp files are left behind
	entries, _ := os.ReadDir(filepath.Dir(dst))
	if len(entries) != 1 {
		t.Errorf("destination dir has %d entries, want 1", len(entries))
	}
}

func TestCopyFileOntoItself(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "wheelhouse-copy-")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "a-1.0-py3-none-any.whl")
	if err := os.WriteFile(path, []byte("wheel-bytes"), 0644); err != nil {
		t.Fatalf("Failed to write source: %v", err)
	}

	if err := CopyFile(path, path); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(data) != "wheel-bytes" {
		t.Errorf("file = %q after copying onto itself, want %q", data, "wheel-bytes")
	}
}

func TestCopyFileMissingSource(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "wheelhouse-copy-")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	dst := filepath.Join(tmpDir, "dst.whl")
	if err := CopyFile(filepath.Join(tmpDir, "missing.whl"), dst); err == nil {
		t.Errorf("expected error for missing source")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Errorf("destination must not be created when the source is missing")
	}
}

func TestSameFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "wheelhouse-copy-")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	a := filepath.Join(tmpDir, "a.whl")
	b := filepath.Join(tmpDir, "b.whl")
	os.WriteFile(a, []byte("x"), 0644)
	os.WriteFile(b, []byte("x"), 0644)

	if !SameFile(a, filepath.Join(tmpDir, ".", "a.whl")) {
		t.Errorf("SameFile(a, ./a) = false, want true")
	}
	if SameFile(a, b) {
		t.Errorf("SameFile(a, b) = true, want false")
	}
	if SameFile(a, filepath.Join(tmpDir, "missing.whl")) {
		t.Errorf("SameFile with a missing file = true, want false")
	}
}
