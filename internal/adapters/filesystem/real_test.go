package filesystem

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRealFileSystem_ReadWrite(t *testing.T) {
	fs := NewRealFileSystem()
	path := filepath.Join(t.TempDir(), "file.txt")

	if err := fs.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "content" {
		t.Errorf("ReadFile() = %q, want %q", data, "content")
	}
}

func TestRealFileSystem_WriteFileAtomic(t *testing.T) {
	fs := NewRealFileSystem()
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")

	if err := fs.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := fs.WriteFileAtomic(path, []byte("new"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "new" {
		t.Errorf("content = %q, want %q", data, "new")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestRealFileSystem_WriteFileAtomic_SetsPermissions(t *testing.T) {
	fs := NewRealFileSystem()
	path := filepath.Join(t.TempDir(), "file.txt")

	if err := fs.WriteFileAtomic(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("permissions = %o, want 600", perm)
	}
}

func TestRealFileSystem_ExistsAndIsDir(t *testing.T) {
	fs := NewRealFileSystem()
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")

	if fs.Exists(path) {
		t.Error("Exists() = true before creation")
	}
	if err := fs.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if !fs.Exists(path) {
		t.Error("Exists() = false after creation")
	}
	if fs.IsDir(path) {
		t.Error("IsDir() = true for a file")
	}
	if !fs.IsDir(dir) {
		t.Error("IsDir() = false for a directory")
	}
}

func TestRealFileSystem_MkdirAllAndRemove(t *testing.T) {
	fs := NewRealFileSystem()
	nested := filepath.Join(t.TempDir(), "a", "b", "c")

	if err := fs.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if !fs.IsDir(nested) {
		t.Error("IsDir() = false after MkdirAll")
	}
	if err := fs.Remove(nested); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if fs.Exists(nested) {
		t.Error("Exists() = true after Remove")
	}
}
