//go:build linux || darwin

package efs2

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// mmapImage is a memory-mapped image: ReadAt copies straight out of the
// mapping instead of issuing a seek+read per page.
type mmapImage struct {
	f    *os.File
	data []byte
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
	if st.Size() == 0 {
		f.Close()
		return nil, fmt.Errorf("efs2: %s is empty", path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("efs2: mmap %s: %w", path, err)
	}

	return &mmapImage{f: f, data: data}, nil
}

func (m *mmapImage) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(m.data)) {
		return 0, fmt.Errorf("efs2: read at offset %d out of range (size %d)", off, len(m.data))
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, fmt.Errorf("efs2: short read at offset %d: got %d of %d bytes", off, n, len(p))
	}
	return n, nil
}

func (m *mmapImage) Size() int64 { return int64(len(m.data)) }

func (m *mmapImage) Close() error {
	err := unix.Munmap(m.data)
	if cerr := m.f.Close(); err == nil {
		err = cerr
	}
	return err
}
