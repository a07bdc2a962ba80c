package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDetectPackageType(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "wheelhouse-scan-")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	tests := []struct {
		name    string
		content []byte
		want    PackageType
	}{
		{"numpy-1.24.0-cp311-cp311-linux_aarch64.whl", []byte("PK\x03\x04rest-of-archive"), TypeWheel},
		{"fake-1.0-py3-none-any.whl", []byte("not a zip"), TypeUnknown},
		{"short.whl", []byte("PK"), TypeUnknown},
		{"numpy-1.24.0.zip", []byte("PK\x03\x04"), TypeUnknown},
		{"README.md", []byte("# readme"), TypeUnknown},
	}

	for _, tt := range tests {
		path := filepath.Join(tmpDir, tt.name)
		if err := os.WriteFile(path, tt.content, 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", tt.name, err)
		}

		got, err := DetectPackageType(path)
		if err != nil {
			t.Errorf("DetectPackageType(%s) error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("DetectPackageType(%s) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestFindWheels(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "wheelhouse-scan-")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	// Create a nested layout with wheels and noise
	os.MkdirAll(filepath.Join(tmpDir, "b", "nested"), 0755)
	os.MkdirAll(filepath.Join(tmpDir, ".venv", "cache"), 0755)
	os.WriteFile(filepath.Join(tmpDir, "b", "nested", "z-1.0-py3-none-any.whl"), []byte("PK\x03\x04"), 0644)
	os.WriteFile(filepath.Join(tmpDir, "a-1.0-py3-none-any.whl"), []byte("PK\x03\x04"), 0644)
	os.WriteFile(filepath.Join(tmpDir, ".venv", "cache", "hidden-1.0-py3-none-any.whl"), []byte("PK\x03\x04"), 0644)
	os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("hello"), 0644)
	os.WriteFile(filepath.Join(tmpDir, "empty.whl"), []byte{}, 0644)
	os.WriteFile(filepath.Join(tmpDir, "fake-1.0-py3-none-any.whl"), []byte("not a zip"), 0644)

	wheels, err := FindWheels(context.Background(), tmpDir)
	if err != nil {
		t.Fatalf("FindWheels failed: %v", err)
	}

	want := []string{
		filepath.Join(tmpDir, "a-1.0-py3-none-any.whl"),
		filepath.Join(tmpDir, "b", "nested", "z-1.0-py3-none-any.whl"),
	}
	if len(wheels) != len(want) {
		t.Fatalf("FindWheels found %d wheels, want %d: %v", len(wheels), len(want), wheels)
	}
	for i, p := range wheels {
		if p != want[i] {
			t.Errorf("wheels[%d] = %s, want %s", i, p, want[i])
		}
	}
}

func TestFindWheelsHiddenRoot(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", ".wheelhouse-scan-")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	os.WriteFile(filepath.Join(tmpDir, "a-1.0-py3-none-any.whl"), []byte("PK\x03\x04"), 0644)

	wheels, err := FindWheels(context.Background(), tmpDir)
	if err != nil {
		t.Fatalf("FindWheels failed: %v", err)
	}
	if len(wheels) != 1 {
		t.Errorf("FindWheels found %d wheels in a hidden root, want 1", len(wheels))
	}
}

func TestFindWheelsCanceled(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "wheelhouse-scan-")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	os.WriteFile(filepath.Join(tmpDir, "a-1.0-py3-none-any.whl"), []byte("PK\x03\x04"), 0644)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := FindWheels(ctx, tmpDir); err == nil {
		t.Errorf("expected error for canceled context")
	}
}
