package efs2

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// Image is a closable, sized io.ReaderAt over an opened NAND/partition dump.
type Image interface {
	io.ReaderAt
	Size() int64
	Close() error
}

// bytesImage wraps a fully in-memory image (the result of decompressing a
// .gz/.xz dump, which can't be read at random offsets while still
// compressed) so it satisfies Image.
type bytesImage struct {
	*bytes.Reader
}

func (b *bytesImage) Close() error { return nil }

// OpenImage opens a raw NAND or EFS2 partition dump for random-access
// reading. A ".gz" or ".xz" suffix is transparently decompressed into
// memory first, since forensic dumps are routinely shared compressed; an
// uncompressed dump is memory-mapped where the platform supports it
// (see openimage_mmap.go / openimage_plain.go), matching the teacher's
// per-OS build-tag split for platform-specific behavior.
func OpenImage(path string) (Image, error) {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return openCompressed(path, func(r io.Reader) (io.Reader, error) {
			return gzip.NewReader(r)
		})
	case strings.HasSuffix(path, ".xz"):
		return openCompressed(path, func(r io.Reader) (io.Reader, error) {
			return xz.NewReader(r)
		})
	default:
		return openPlain(path)
	}
}

func openCompressed(path string, newReader func(io.Reader) (io.Reader, error)) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("efs2: open %s: %w", path, err)
	}
	defer f.Close()

	dr, err := newReader(f)
	if err != nil {
		return nil, fmt.Errorf("efs2: decompress %s: %w", path, err)
	}
	data, err := io.ReadAll(dr)
	if err != nil {
		return nil, fmt.Errorf("efs2: decompress %s: %w", path, err)
	}

	return &bytesImage{Reader: bytes.NewReader(data)}, nil
}
