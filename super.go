package efs2

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log"
)

var superMagic1 = []byte{0x45, 0x46, 0x53, 0x53} // "EFSS"
var superMagic2 = []byte{0x75, 0x70, 0x65, 0x72} // "uper"
var infoBlockMagic = []byte{0xa0, 0x3e, 0xb9, 0xa7}

// pageTableSize is the fixed entry count of the page table (spec §3).
const pageTableSize = 512

// NandInfo is the superblock's nand_info sub-record.
type NandInfo struct {
	NodesPerPage uint16
	PageDepth    uint16
	SuperNodes   uint16
	Regions      []uint32
	LogrBadmap   uint32
	Tables       uint32
}

// InfoBlock is the EFS info block pointed to by PageTable[3] (spec §3).
type InfoBlock struct {
	Version           uint32
	InodeTop          uint32
	InodeNext         uint32
	InodeFree         uint32
	RootInode         uint32
	PartialDelete     uint8
	PartialDeleteMid  uint8
	PartialDeleteGid  uint16
	PartialDeleteData [4]uint32
}

// Superblock is a decoded EFS2 volume superblock (spec §3/§4.C).
type Superblock struct {
	Version     uint16
	Age         uint16
	BlockSize   uint32
	PageSize    uint32
	BlockCount  uint32
	LogHead     uint32
	AllocNext   [4]uint32
	GCNext      [4]uint32
	UpperData   [32]uint32
	NandInfo    NandInfo
	PageTable   [pageTableSize]uint32
	Info        InfoBlock
}

// BlockLength is a derived value (block_size * page_size), not stored on disk.
func (s *Superblock) BlockLength() uint64 {
	return uint64(s.BlockSize) * uint64(s.PageSize)
}

// parseSuperblockAt attempts to decode a superblock at the given byte offset
// within a partition. ok=false (no error) signals a clean magic mismatch,
// since most scanned offsets are expected to fail (spec §4.C).
func parseSuperblockAt(r io.ReaderAt, offset int64) (*Superblock, bool, error) {
	// Peek the fixed header through the two magics before committing to a
	// full sequential decode.
	head := make([]byte, 16)
	if _, err := r.ReadAt(head, offset); err != nil {
		return nil, false, err
	}
	if !bytes.Equal(head[8:12], superMagic1) || !bytes.Equal(head[12:16], superMagic2) {
		return nil, false, nil
	}

	// Generous upper bound: header + 32-bit region list can't plausibly
	// exceed a handful of pages.
	sr := io.NewSectionReader(r, offset, 64*1024)

	var sb Superblock
	var ageWord uint16
	var magic1, magic2 [4]byte

	if err := binary.Read(sr, binary.LittleEndian, new(uint32)); err != nil { // page_header
		return nil, false, fmt.Errorf("efs2: read superblock header: %w", err)
	}
	if err := binary.Read(sr, binary.LittleEndian, &sb.Version); err != nil {
		return nil, false, err
	}
	if err := binary.Read(sr, binary.LittleEndian, &ageWord); err != nil {
		return nil, false, err
	}
	sb.Age = ageWord
	if err := binary.Read(sr, binary.LittleEndian, &magic1); err != nil {
		return nil, false, err
	}
	if err := binary.Read(sr, binary.LittleEndian, &magic2); err != nil {
		return nil, false, err
	}
	if !bytes.Equal(magic1[:], superMagic1) || !bytes.Equal(magic2[:], superMagic2) {
		return nil, false, nil
	}

	for _, field := range []any{&sb.BlockSize, &sb.PageSize, &sb.BlockCount, &sb.LogHead} {
		if err := binary.Read(sr, binary.LittleEndian, field); err != nil {
			return nil, false, fmt.Errorf("efs2: read superblock fields: %w", err)
		}
	}
	if err := binary.Read(sr, binary.LittleEndian, &sb.AllocNext); err != nil {
		return nil, false, err
	}
	if err := binary.Read(sr, binary.LittleEndian, &sb.GCNext); err != nil {
		return nil, false, err
	}
	if err := binary.Read(sr, binary.LittleEndian, &sb.UpperData); err != nil {
		return nil, false, err
	}

	var numRegions uint16
	if err := binary.Read(sr, binary.LittleEndian, &sb.NandInfo.NodesPerPage); err != nil {
		return nil, false, err
	}
	if err := binary.Read(sr, binary.LittleEndian, &sb.NandInfo.PageDepth); err != nil {
		return nil, false, err
	}
	if err := binary.Read(sr, binary.LittleEndian, &sb.NandInfo.SuperNodes); err != nil {
		return nil, false, err
	}
	if err := binary.Read(sr, binary.LittleEndian, &numRegions); err != nil {
		return nil, false, err
	}
	sb.NandInfo.Regions = make([]uint32, numRegions)
	for i := range sb.NandInfo.Regions {
		if err := binary.Read(sr, binary.LittleEndian, &sb.NandInfo.Regions[i]); err != nil {
			return nil, false, fmt.Errorf("efs2: read nand_info regions: %w", err)
		}
	}
	if err := binary.Read(sr, binary.LittleEndian, &sb.NandInfo.LogrBadmap); err != nil {
		return nil, false, err
	}
	if err := binary.Read(sr, binary.LittleEndian, new(uint32)); err != nil { // pad
		return nil, false, err
	}
	if err := binary.Read(sr, binary.LittleEndian, &sb.NandInfo.Tables); err != nil {
		return nil, false, err
	}

	if sb.PageSize == 0 {
		return nil, false, fmt.Errorf("efs2: superblock at offset 0x%x has zero page_size", offset)
	}

	ptOffset := int64(sb.NandInfo.Tables) * int64(sb.PageSize)
	ptBuf := make([]byte, pageTableSize*4)
	if _, err := r.ReadAt(ptBuf, ptOffset); err != nil {
		return nil, false, fmt.Errorf("efs2: read page table: %w", err)
	}
	for i := 0; i < pageTableSize; i++ {
		sb.PageTable[i] = binary.LittleEndian.Uint32(ptBuf[i*4 : i*4+4])
	}

	info, err := parseInfoBlock(r, int64(sb.PageTable[3])*int64(sb.PageSize))
	if err != nil {
		return nil, false, err
	}
	sb.Info = *info

	log.Printf("efs2: parsed candidate superblock at offset 0x%x, age=%d", offset, sb.Age)
	return &sb, true, nil
}

func parseInfoBlock(r io.ReaderAt, offset int64) (*InfoBlock, error) {
	buf := make([]byte, 4+4*4+4+1+1+2+4*4)
	if _, err := r.ReadAt(buf, offset); err != nil {
		return nil, fmt.Errorf("efs2: read EFS info block: %w", err)
	}
	if !bytes.Equal(buf[0:4], infoBlockMagic) {
		return nil, ErrCorruptInfoBlock
	}

	var ib InfoBlock
	br := bytes.NewReader(buf[4:])
	if err := binary.Read(br, binary.LittleEndian, &ib.Version); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &ib.InodeTop); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &ib.InodeNext); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &ib.InodeFree); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &ib.RootInode); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &ib.PartialDelete); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &ib.PartialDeleteMid); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &ib.PartialDeleteGid); err != nil {
		return nil, err
	}
	if err := binary.Read(br, binary.LittleEndian, &ib.PartialDeleteData); err != nil {
		return nil, err
	}

	return &ib, nil
}
