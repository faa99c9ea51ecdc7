package efs2

import (
	"encoding/binary"
	"fmt"
)

// fileStreamHeaderLen is the opaque leading header stripped from every
// reassembled file payload (spec §3/§4.D.2). Its internal meaning is not
// decoded here — see DESIGN.md.
const fileStreamHeaderLen = 18

// FileDescriptor is the reassembled content of an 'i'-variant directory
// record: the inode's mode and its full data payload (spec §4.D.2).
type FileDescriptor struct {
	Mode uint16
	Data []byte
}

// FetchFileDescriptor reassembles a regular file's content from its inode's
// direct and indirect cluster lists (spec §4.D.2).
func (v *Volume) FetchFileDescriptor(inodeID uint32) (*FileDescriptor, error) {
	ino, err := v.FetchInode(inodeID)
	if err != nil {
		return nil, fmt.Errorf("efs2: fetch file descriptor for inode 0x%x: %w", inodeID, err)
	}

	raw := make([]byte, 0, int(ino.Blocks)*int(v.PageSize()))
	n := uint32(0)

	for _, id := range ino.DirectClusterID {
		if id == sentinelID {
			break
		}
		if n >= ino.Blocks {
			break
		}
		page, err := v.ReadLogicalPage(id)
		if err != nil {
			return nil, fmt.Errorf("efs2: inode 0x%x direct block: %w", inodeID, err)
		}
		raw = append(raw, page...)
		n++
	}

	for _, id := range ino.IndirectClusterID {
		if id == sentinelID {
			break
		}
		indirectPage, err := v.ReadLogicalPage(id)
		if err != nil {
			return nil, fmt.Errorf("efs2: inode 0x%x indirect block: %w", inodeID, err)
		}
		for off := 0; off+4 <= len(indirectPage); off += 4 {
			entry := binary.LittleEndian.Uint32(indirectPage[off : off+4])
			if entry == sentinelID {
				break
			}
			if n >= ino.Blocks {
				break
			}
			page, err := v.ReadLogicalPage(entry)
			if err != nil {
				return nil, fmt.Errorf("efs2: inode 0x%x indirect entry: %w", inodeID, err)
			}
			raw = append(raw, page...)
			n++
		}
	}

	data := truncateFilePayload(raw, ino.Size)
	return &FileDescriptor{Mode: ino.Mode, Data: data}, nil
}

// truncateFilePayload strips the leading file-stream header and truncates to
// the inode's declared size. If size exceeds what's actually available
// (raw shorter than header+size), the available bytes are returned rather
// than padding or erroring — the documented reference behavior (spec §4.D.2).
func truncateFilePayload(raw []byte, size uint32) []byte {
	if len(raw) <= fileStreamHeaderLen {
		return []byte{}
	}
	body := raw[fileStreamHeaderLen:]
	if uint32(len(body)) > size {
		body = body[:size]
	}
	return body
}
