package efs2

import "errors"

// Package-specific error variables that can be used with errors.Is() for error handling.
var (
	// ErrMalformedNandLayout is returned when a raw NAND dump does not match
	// the expected page/spare-area layout.
	ErrMalformedNandLayout = errors.New("efs2: malformed NAND page layout")

	// ErrNoPartitionTable is returned when no block in a de-framed NAND image
	// parses as a partition table after a full scan.
	ErrNoPartitionTable = errors.New("efs2: no partition table found")

	// ErrNoSuperblock is returned when no page in an EFS2 partition parses as
	// a valid superblock.
	ErrNoSuperblock = errors.New("efs2: no valid EFS2 superblock found")

	// ErrCorruptInfoBlock is returned when the EFS info block's magic does not match.
	ErrCorruptInfoBlock = errors.New("efs2: EFS info block magic mismatch")

	// ErrUnknownRecordTag is returned when a directory record's metadata tag
	// is not one of 'i', 'n', 'N'.
	ErrUnknownRecordTag = errors.New("efs2: unknown directory record tag")

	// ErrLongNameUnsupported is returned when a directory record's flen is
	// >= 103, signaling the long-filename variant this package does not decode.
	ErrLongNameUnsupported = errors.New("efs2: long filenames are not supported")

	// ErrNodeOverrun is returned when consuming a directory node's records
	// would read past its declared used length.
	ErrNodeOverrun = errors.New("efs2: directory node record overrun")

	// ErrBadDirectoryKey is returned when a directory record's key does not
	// begin with the expected 'd' tag.
	ErrBadDirectoryKey = errors.New("efs2: directory record key missing 'd' tag")

	// ErrPageTableIndex is returned when a logical id falls outside the
	// 512-entry page table.
	ErrPageTableIndex = errors.New("efs2: logical id out of page table range")
)
