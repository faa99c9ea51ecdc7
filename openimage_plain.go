//go:build !linux && !darwin

package efs2

import (
	"fmt"
	"os"
)

// fileImage is the non-mmap fallback: a plain *os.File accessed via
// pread-style ReadAt, used on platforms without the mmap build tag above.
type fileImage struct {
	f    *os.File
	size int64
}

func openPlain(path string) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("efs2: open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("efs2: stat %s: %w", path, err)
	}
	return &fileImage{f: f, size: st.Size()}, nil
}

func (fi *fileImage) ReadAt(p []byte, off int64) (int, error) { return fi.f.ReadAt(p, off) }
func (fi *fileImage) Size() int64                             { return fi.size }
func (fi *fileImage) Close() error                            { return fi.f.Close() }
