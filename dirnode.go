package efs2

import (
	"encoding/binary"
	"fmt"
)

// dirNodeHeaderLen is prev(4) + next(4) + used(2) + pad(2) + gid(4) +
// bogus_count(1) + level(1) (spec §3).
const dirNodeHeaderLen = 4 + 4 + 2 + 2 + 4 + 1 + 1

// longNameThreshold is the flen value at and above which a directory record
// uses the long-filename variant this package does not decode (spec §3).
const longNameThreshold = 103

// FileEntry is a single decoded directory record, resolved against its
// inode if it carries one (spec §3 "Derived entity FileEntry").
type FileEntry struct {
	Name        string
	ParentInode uint32
	InodeRef    *uint32 // non-nil only for 'i'-variant records
	Mode        uint16
	Data        []byte
}

// IsDir reports whether this entry's mode nibble marks it a directory.
func (e *FileEntry) IsDir() bool {
	return KindFromMode(e.Mode) == KindDirectory
}

// IsFile reports whether this entry's mode nibble marks it a regular file.
func (e *FileEntry) IsFile() bool {
	return KindFromMode(e.Mode) == KindRegular
}

// dirNode is a decoded QEFS2 node header (spec §3).
type dirNode struct {
	Prev uint32
	Next uint32
	Used uint16
	GID  uint32
}

// parseDirNode reads the node at the given logical id, decodes its header,
// and walks its packed directory records, resolving 'i'-variant records
// against their inode (spec §4.D.3).
func (v *Volume) parseDirNode(nodeID uint32) (*dirNode, []FileEntry, error) {
	page, err := v.ReadLogicalPage(nodeID)
	if err != nil {
		return nil, nil, fmt.Errorf("efs2: read directory node 0x%x: %w", nodeID, err)
	}
	if len(page) < dirNodeHeaderLen {
		return nil, nil, fmt.Errorf("%w: node 0x%x shorter than header", ErrNodeOverrun, nodeID)
	}

	node := &dirNode{
		Prev: binary.LittleEndian.Uint32(page[0:4]),
		Next: binary.LittleEndian.Uint32(page[4:8]),
		Used: binary.LittleEndian.Uint16(page[8:10]),
		GID:  binary.LittleEndian.Uint32(page[12:16]),
	}

	end := dirNodeHeaderLen + int(node.Used)
	if end > len(page) {
		return nil, nil, fmt.Errorf("%w: node 0x%x used=%d exceeds page", ErrNodeOverrun, nodeID, node.Used)
	}
	data := page[dirNodeHeaderLen:end]

	entries, err := v.parseDirRecords(data)
	if err != nil {
		return nil, nil, fmt.Errorf("efs2: node 0x%x: %w", nodeID, err)
	}
	return node, entries, nil
}

func (v *Volume) parseDirRecords(data []byte) ([]FileEntry, error) {
	var entries []FileEntry
	off := 0

	for off < len(data) {
		if off+2 > len(data) {
			return nil, ErrNodeOverrun
		}
		flen := int(data[off])
		mlen := int(data[off+1])
		off += 2

		if flen >= longNameThreshold {
			return nil, ErrLongNameUnsupported
		}
		if off+flen > len(data) {
			return nil, ErrNodeOverrun
		}
		key := data[off : off+flen]
		off += flen

		if off+mlen > len(data) {
			return nil, ErrNodeOverrun
		}
		meta := data[off : off+mlen]
		off += mlen

		entry, err := decodeDirRecord(v, key, meta)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if off > len(data) {
		return nil, ErrNodeOverrun
	}
	return entries, nil
}

// decodeDirRecord decodes one (key, metadata) record pair into a FileEntry,
// fetching the referenced inode for 'i'-variant records (spec §3/§4.D.3).
func decodeDirRecord(v *Volume, key, meta []byte) (FileEntry, error) {
	if len(key) < 5 || key[0] != 'd' {
		return FileEntry{}, ErrBadDirectoryKey
	}
	parentInode := binary.LittleEndian.Uint32(key[1:5])
	name := decodeFilename(key[5:])

	if len(meta) < 1 {
		return FileEntry{}, ErrUnknownRecordTag
	}

	switch meta[0] {
	case 'i':
		if len(meta) < 5 {
			return FileEntry{}, ErrNodeOverrun
		}
		inodeID := binary.LittleEndian.Uint32(meta[1:5])
		fd, err := v.FetchFileDescriptor(inodeID)
		if err != nil {
			return FileEntry{}, err
		}
		id := inodeID
		return FileEntry{Name: name, ParentInode: parentInode, InodeRef: &id, Mode: fd.Mode, Data: fd.Data}, nil

	case 'n':
		if len(meta) < 3 {
			return FileEntry{}, ErrNodeOverrun
		}
		mode := binary.LittleEndian.Uint16(meta[1:3])
		data := append([]byte(nil), meta[3:]...)
		return FileEntry{Name: name, ParentInode: parentInode, Mode: mode, Data: data}, nil

	case 'N':
		if len(meta) < 9 {
			return FileEntry{}, ErrNodeOverrun
		}
		mode := binary.LittleEndian.Uint16(meta[1:3])
		// gid (meta[3:5]) and ctime (meta[5:9]) are decoded upstream but
		// unused by FileEntry — see SPEC_FULL.md §4.D.
		data := append([]byte(nil), meta[9:]...)
		return FileEntry{Name: name, ParentInode: parentInode, Mode: mode, Data: data}, nil

	default:
		return FileEntry{}, ErrUnknownRecordTag
	}
}

// decodeFilename applies the special-case rules for a directory record's
// filename bytes (spec §3): empty means ".", a single NUL means "..",
// otherwise the bytes are UTF-8.
func decodeFilename(b []byte) string {
	switch {
	case len(b) == 0:
		return "."
	case len(b) == 1 && b[0] == 0x00:
		return ".."
	default:
		return string(b)
	}
}
