package efs2

import (
	"bytes"
	"testing"
)

func TestFetchFileDescriptorDirectBlocks(t *testing.T) {
	const pageSize = 2048

	// inode id 0x00 -> clusterID=0, index=0
	var pt [pageTableSize]uint32
	pt[0] = 1  // inode cluster -> physical page 1
	pt[10] = 2 // direct block logical id 10 -> physical page 2

	payload := []byte("hello, this is file content")
	raw := make([]byte, fileStreamHeaderLen+len(payload))
	copy(raw[fileStreamHeaderLen:], payload)

	ino := Inode{
		Mode:   0x8000 | 0o644,
		Size:   uint32(len(payload)),
		Blocks: 1,
	}
	ino.DirectClusterID[0] = 10
	for i := 1; i < directClusterCount; i++ {
		ino.DirectClusterID[i] = sentinelID
	}
	for i := range ino.IndirectClusterID {
		ino.IndirectClusterID[i] = sentinelID
	}

	data := make([]byte, 3*pageSize)
	copy(data[1*pageSize:], encodeInodeRecord(t, ino))
	copy(data[2*pageSize:], raw)

	vol := newTestVolume(pageSize, pt, data)

	fd, err := vol.FetchFileDescriptor(0)
	if err != nil {
		t.Fatalf("FetchFileDescriptor() error = %v", err)
	}
	if fd.Mode != ino.Mode {
		t.Errorf("fd.Mode = 0x%x, want 0x%x", fd.Mode, ino.Mode)
	}
	if !bytes.Equal(fd.Data, payload) {
		t.Errorf("fd.Data = %q, want %q", fd.Data, payload)
	}
}

func TestTruncateFilePayload(t *testing.T) {
	raw := append(make([]byte, fileStreamHeaderLen), []byte("0123456789")...)

	got := truncateFilePayload(raw, 4)
	if string(got) != "0123" {
		t.Errorf("truncateFilePayload() = %q, want %q", got, "0123")
	}

	// size exceeds available data: return what's there, not padded.
	got = truncateFilePayload(raw, 1000)
	if string(got) != "0123456789" {
		t.Errorf("truncateFilePayload() with oversized size = %q, want %q", got, "0123456789")
	}

	// too short to even hold the header.
	got = truncateFilePayload(raw[:10], 5)
	if len(got) != 0 {
		t.Errorf("truncateFilePayload() on short input = %q, want empty", got)
	}
}
