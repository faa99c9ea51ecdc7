package efs2

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// inodeSize is the fixed size of an fs_inode record (spec §3).
const inodeSize = 0x80

// sentinelID marks "no more entries" in cluster-id and indirect-table lists.
const sentinelID = 0xFFFFFFFF

const (
	directClusterCount   = 13
	indirectClusterCount = 3
)

// Inode is a decoded fs_inode record (spec §3).
type Inode struct {
	Mode       uint16
	NLink      uint16
	Attr       uint32
	Size       uint32
	UID        uint16
	GID        uint16
	Generation uint32
	Blocks     uint32
	MTime      uint32
	CTime      uint32
	ATime      uint32

	DirectClusterID   [directClusterCount]uint32
	IndirectClusterID [indirectClusterCount]uint32
}

// Kind reports whether this inode is a directory or a regular file.
func (ino *Inode) Kind() Kind {
	return KindFromMode(ino.Mode)
}

// inodeLocation splits a 32-bit inode id into the page-table cluster id and
// the in-page record index (spec §4.D.1).
func inodeLocation(id uint32) (clusterID uint32, index uint32) {
	return id >> 4, id & 0xf
}

// FetchInode decodes the inode identified by id, following the page table to
// locate its containing page (spec §4.D.1).
func (v *Volume) FetchInode(id uint32) (*Inode, error) {
	clusterID, index := inodeLocation(id)

	physical, err := v.Translate(clusterID)
	if err != nil {
		return nil, fmt.Errorf("efs2: inode 0x%x: %w", id, err)
	}

	page, err := v.ReadPhysicalPage(physical)
	if err != nil {
		return nil, fmt.Errorf("efs2: inode 0x%x: %w", id, err)
	}

	base := int(index) * inodeSize
	if base+inodeSize > len(page) {
		return nil, fmt.Errorf("efs2: inode 0x%x: record offset 0x%x exceeds page", id, base)
	}

	return decodeInode(page[base : base+inodeSize])
}

func decodeInode(buf []byte) (*Inode, error) {
	r := bytes.NewReader(buf)
	var ino Inode

	if err := binary.Read(r, binary.LittleEndian, &ino.Mode); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &ino.NLink); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &ino.Attr); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &ino.Size); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &ino.UID); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &ino.GID); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &ino.Generation); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &ino.Blocks); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &ino.MTime); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &ino.CTime); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &ino.ATime); err != nil {
		return nil, err
	}

	var reserved [7]uint32
	if err := binary.Read(r, binary.LittleEndian, &reserved); err != nil {
		return nil, err
	}

	if err := binary.Read(r, binary.LittleEndian, &ino.DirectClusterID); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &ino.IndirectClusterID); err != nil {
		return nil, err
	}

	return &ino, nil
}
