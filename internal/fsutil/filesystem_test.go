package fsutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_CreateAndOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cr39_output.csv")
	fsys := OSFileSystem{}

	if fsys.Exists(path) {
		t.Fatal("file should not exist yet")
	}

	w, err := fsys.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("0,2.3,0.47,4.9,0.1,0.2,1\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if !fsys.Exists(path) {
		t.Fatal("file should exist after Create")
	}

	f, err := fsys.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "0,2.3,0.47,4.9,0.1,0.2,1\n" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestOSFileSystem_MkdirAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "figures", "run1")
	fsys := OSFileSystem{}
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	info, err := fsys.Stat(dir)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected directory")
	}
}

func TestMemoryFileSystem_CreateVisibleOnClose(t *testing.T) {
	m := NewMemoryFileSystem()
	w, err := m.Create("out/figure.png")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	w.Write([]byte("png"))

	if data, _ := m.Bytes("out/figure.png"); len(data) != 0 {
		t.Errorf("content visible before Close: %q", data)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	data, ok := m.Bytes("out/figure.png")
	if !ok || string(data) != "png" {
		t.Errorf("Bytes = %q, %v", data, ok)
	}
}

func TestMemoryFileSystem_OpenNonExistent(t *testing.T) {
	m := NewMemoryFileSystem()
	_, err := m.Open("missing.csv")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_PutAndOpen(t *testing.T) {
	m := NewMemoryFileSystem()
	m.Put("./data/../cr39_output.csv", []byte("abc"))

	if !m.Exists("cr39_output.csv") {
		t.Fatal("path should be cleaned on Put")
	}
	f, err := m.Open("cr39_output.csv")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	data, _ := io.ReadAll(f)
	if string(data) != "abc" {
		t.Errorf("got %q", data)
	}
	info, err := f.Stat()
	if err != nil || info.Size() != 3 {
		t.Errorf("Stat = %v, %v", info, err)
	}
}

func TestMemoryFileSystem_ReadOnly(t *testing.T) {
	m := NewMemoryFileSystem()
	m.SetReadOnly(true)

	if _, err := m.Create("figure.pdf"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Create: expected ErrReadOnly, got %v", err)
	}
	if err := m.MkdirAll("figures", 0755); !errors.Is(err, ErrReadOnly) {
		t.Errorf("MkdirAll: expected ErrReadOnly, got %v", err)
	}

	m.Put("input.csv", []byte("x"))
	if !m.Exists("input.csv") {
		t.Error("Put should bypass read-only mode")
	}
}

func TestMemoryFileSystem_MkdirAllAndStat(t *testing.T) {
	m := NewMemoryFileSystem()
	if err := m.MkdirAll("a/b/c", 0755); err != nil {
		t.Fatal(err)
	}
	for _, dir := range []string{"a", "a/b", "a/b/c"} {
		info, err := m.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("Stat(%q) = %v, %v", dir, info, err)
		}
	}
	if _, err := m.Stat("a/missing"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_Names(t *testing.T) {
	m := NewMemoryFileSystem()
	m.Put("out/a.pdf", nil)
	m.Put("out/a.png", nil)
	m.Put("other.csv", nil)

	if got := len(m.Names("out")); got != 2 {
		t.Errorf("Names(out) = %d files, want 2", got)
	}
	if got := len(m.Names("")); got != 3 {
		t.Errorf("Names() = %d files, want 3", got)
	}
}
