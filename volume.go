package efs2

import (
	"fmt"
	"io"
	"log"
)

// firstDirectoryNodeID is the fixed logical id of the root directory's first
// node in the linked list (spec §4.C, confirmed by scenario E2/§8 and by
// original_source/efs2_extractor.py's "next_node = 2").
const firstDirectoryNodeID = 2

// sizer is implemented by bytes.Reader and io.SectionReader; OpenVolume uses
// it to bound its superblock scan instead of scanning forever on error.
type sizer interface {
	Size() int64
}

// Volume is a page-addressable view over an EFS2 partition: it has located
// the freshest superblock and can translate logical page ids through the
// page table (spec §4.C).
type Volume struct {
	r  io.ReaderAt
	sb *Superblock

	scanStride uint32
	verbose    bool
}

// OpenVolume locates the freshest EFS2 superblock in r and returns a Volume
// ready to serve page-table-indexed reads.
func OpenVolume(r io.ReaderAt, opts ...VolumeOption) (*Volume, error) {
	v := &Volume{r: r, scanStride: PageSize}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}

	var size int64 = -1
	if s, ok := r.(sizer); ok {
		size = s.Size()
	}

	var best *Superblock
	for offset := int64(0); size < 0 || offset < size; offset += int64(v.scanStride) {
		sb, ok, err := parseSuperblockAt(r, offset)
		if err != nil {
			// A magic-matched candidate that fails to fully decode (e.g. a
			// truncated page table near the end of the image) is just a
			// failed probe, like a magic mismatch — keep scanning. Only an
			// unbounded reader (size unknown) needs a hard stop on error.
			if size < 0 {
				break
			}
			continue
		}
		if !ok {
			continue
		}
		// Once a superblock parses, its page_size is the authoritative scan
		// stride for subsequent slots (spec §4.C).
		v.scanStride = sb.PageSize
		// Ages are compared as plain uint16 values; age rollover is not
		// handled, so a copy whose age has wrapped compares as older.
		if best == nil || sb.Age > best.Age {
			best = sb
		}
	}

	if best == nil {
		return nil, ErrNoSuperblock
	}
	v.sb = best
	if v.verbose {
		log.Printf("efs2: selected superblock age=%d root_inode=0x%x", best.Age, best.Info.RootInode)
	}
	return v, nil
}

// Superblock returns the superblock selected at open time.
func (v *Volume) Superblock() *Superblock { return v.sb }

// PageSize returns the volume's page size in bytes.
func (v *Volume) PageSize() uint32 { return v.sb.PageSize }

// BlockSize returns the volume's block size in pages.
func (v *Volume) BlockSize() uint32 { return v.sb.BlockSize }

// RootInode returns the root directory's inode id.
func (v *Volume) RootInode() uint32 { return v.sb.Info.RootInode }

// FirstDirectoryNodeID returns the logical id of the first node to walk when
// enumerating the root directory list (always 2, spec §4.C).
func (v *Volume) FirstDirectoryNodeID() uint32 { return firstDirectoryNodeID }

// Translate resolves a logical page id to a physical page index via the page
// table (spec §4.C).
func (v *Volume) Translate(logicalID uint32) (uint32, error) {
	if logicalID >= pageTableSize {
		return 0, fmt.Errorf("%w: logical id 0x%x", ErrPageTableIndex, logicalID)
	}
	return v.sb.PageTable[logicalID], nil
}

// ReadPhysicalPage reads the page_size bytes at the given physical page
// index.
func (v *Volume) ReadPhysicalPage(physical uint32) ([]byte, error) {
	buf := make([]byte, v.sb.PageSize)
	offset := int64(physical) * int64(v.sb.PageSize)
	if _, err := v.r.ReadAt(buf, offset); err != nil {
		return nil, fmt.Errorf("efs2: read physical page %d: %w", physical, err)
	}
	return buf, nil
}

// ReadLogicalPage translates a logical id and reads its physical page.
func (v *Volume) ReadLogicalPage(logicalID uint32) ([]byte, error) {
	physical, err := v.Translate(logicalID)
	if err != nil {
		return nil, err
	}
	return v.ReadPhysicalPage(physical)
}
