package efs2

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/ulikunitz/xz"
)

func TestOpenImageGzip(t *testing.T) {
	want := []byte("a raw EFS2 partition, pretend bytes")

	dir := t.TempDir()
	path := filepath.Join(dir, "dump.img.gz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	gw := gzip.NewWriter(f)
	if _, err := gw.Write(want); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("close gzip writer: %v", err)
	}
	f.Close()

	img, err := OpenImage(path)
	if err != nil {
		t.Fatalf("OpenImage() error = %v", err)
	}
	defer img.Close()

	if img.Size() != int64(len(want)) {
		t.Errorf("img.Size() = %d, want %d", img.Size(), len(want))
	}
	got := make([]byte, len(want))
	if _, err := img.ReadAt(got, 0); err != nil {
		t.Fatalf("ReadAt() error = %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("ReadAt() = %q, want %q", got, want)
	}
}

func TestOpenImageXz(t *testing.T) {
	want := []byte("another pretend raw dump, compressed with xz this time")

	dir := t.TempDir()
	path := filepath.Join(dir, "dump.img.xz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	xw, err := xz.NewWriter(f)
	if err != nil {
		t.Fatalf("new xz writer: %v", err)
	}
	if _, err := xw.Write(want); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := xw.Close(); err != nil {
		t.Fatalf("close xz writer: %v", err)
	}
	f.Close()

	img, err := OpenImage(path)
	if err != nil {
		t.Fatalf("OpenImage() error = %v", err)
	}
	defer img.Close()

	got := make([]byte, len(want))
	if _, err := img.ReadAt(got, 0); err != nil {
		t.Fatalf("ReadAt() error = %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("ReadAt() = %q, want %q", got, want)
	}
}

func TestOpenImagePlain(t *testing.T) {
	want := []byte("uncompressed raw bytes")
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.img")
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	img, err := OpenImage(path)
	if err != nil {
		t.Fatalf("OpenImage() error = %v", err)
	}
	defer img.Close()

	if img.Size() != int64(len(want)) {
		t.Errorf("img.Size() = %d, want %d", img.Size(), len(want))
	}
	got := make([]byte, len(want))
	if _, err := img.ReadAt(got, 0); err != nil {
		t.Fatalf("ReadAt() error = %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("ReadAt() = %q, want %q", got, want)
	}
}
