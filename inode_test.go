package efs2

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// encodeInodeRecord builds the raw 0x80-byte fs_inode record for ino,
// matching decodeInode's field order exactly.
func encodeInodeRecord(t *testing.T, ino Inode) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := func(v any) {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatalf("encode inode: %v", err)
		}
	}
	w(ino.Mode)
	w(ino.NLink)
	w(ino.Attr)
	w(ino.Size)
	w(ino.UID)
	w(ino.GID)
	w(ino.Generation)
	w(ino.Blocks)
	w(ino.MTime)
	w(ino.CTime)
	w(ino.ATime)
	w([7]uint32{}) // reserved
	w(ino.DirectClusterID)
	w(ino.IndirectClusterID)

	if buf.Len() != inodeSize {
		t.Fatalf("encoded inode is %d bytes, want %d", buf.Len(), inodeSize)
	}
	return buf.Bytes()
}

// newTestVolume builds a Volume directly over a raw buffer and an explicit
// page table, bypassing superblock discovery for tests that only need
// logical-id translation.
func newTestVolume(pageSize uint32, pageTable [pageTableSize]uint32, data []byte) *Volume {
	return &Volume{
		r: bytes.NewReader(data),
		sb: &Superblock{
			PageSize:  pageSize,
			PageTable: pageTable,
		},
	}
}

func TestFetchInode(t *testing.T) {
	const pageSize = 2048
	const physicalPage = 2

	want := Inode{
		Mode:       0x8000 | 0o644,
		NLink:      1,
		Size:       123,
		UID:        0,
		GID:        0,
		Generation: 1,
		Blocks:     1,
		MTime:      1000,
		CTime:      1000,
		ATime:      1000,
	}
	want.DirectClusterID[0] = 7
	for i := 1; i < directClusterCount; i++ {
		want.DirectClusterID[i] = sentinelID
	}
	for i := range want.IndirectClusterID {
		want.IndirectClusterID[i] = sentinelID
	}

	// inode id 0x13 -> clusterID=1, index=3
	var pt [pageTableSize]uint32
	pt[1] = physicalPage

	data := make([]byte, (physicalPage+1)*pageSize)
	record := encodeInodeRecord(t, want)
	recOff := physicalPage*pageSize + 3*inodeSize
	copy(data[recOff:], record)

	vol := newTestVolume(pageSize, pt, data)

	got, err := vol.FetchInode(0x13)
	if err != nil {
		t.Fatalf("FetchInode() error = %v", err)
	}
	if got.Mode != want.Mode || got.Size != want.Size || got.DirectClusterID[0] != want.DirectClusterID[0] {
		t.Errorf("FetchInode() = %+v, want %+v", got, want)
	}
	if got.Kind() != KindRegular {
		t.Errorf("Kind() = %v, want KindRegular", got.Kind())
	}
}

func TestInodeLocation(t *testing.T) {
	cluster, index := inodeLocation(0x13)
	if cluster != 1 || index != 3 {
		t.Errorf("inodeLocation(0x13) = (%d, %d), want (1, 3)", cluster, index)
	}
}
