package efs2

import (
	"fmt"
	"io"
)

// A NAND page (user area + OOB) is laid out as four repeating subpage
// groups of (0x1d0 data, 1 padding byte, 0x34 data, 0xb padding bytes).
// The final group's second data run is 16 bytes shorter, and is followed
// by an extra 16 bytes of trailing padding to make room for it. See
// spec §3/§4.A; this is transcribed field-for-field from
// original_source/efs2_extractor.py's "nand_page" Construct layout.
const (
	subpageHeadLen = 0x1d0
	subpageHeadPad = 1
	subpageTailLen = 0x34
	subpageTailPad = 0xb
	lastTailShrink = 16
	lastTrailingPad = 16

	subpageGroups = 4

	// PageSize is the size of a de-framed NAND page's clean user data.
	PageSize = subpageGroups*(subpageHeadLen+subpageTailLen) - lastTailShrink

	// BlocksPerImage and PagesPerBlock describe the fixed geometry of a
	// raw NAND image per spec §3.
	BlocksPerImage = 1024
	PagesPerBlock  = 64
)

// pageStride is the number of raw bytes (user + OOB) consumed per NAND page.
var pageStride = subpageGroups*(subpageHeadLen+subpageHeadPad+subpageTailLen+subpageTailPad) - lastTailShrink + lastTrailingPad

// dataRuns returns the byte-offset ranges (relative to the start of a raw
// page) of the 8 data runs that concatenate into a clean page, in order.
func dataRuns() [][2]int {
	runs := make([][2]int, 0, subpageGroups*2)
	off := 0
	for g := 0; g < subpageGroups; g++ {
		runs = append(runs, [2]int{off, off + subpageHeadLen})
		off += subpageHeadLen + subpageHeadPad

		tailLen := subpageTailLen
		if g == subpageGroups-1 {
			tailLen -= lastTailShrink
		}
		runs = append(runs, [2]int{off, off + tailLen})
		off += tailLen + subpageTailPad
		if g == subpageGroups-1 {
			off += lastTrailingPad
		}
	}
	return runs
}

// NAND holds the de-framed contents of a raw NAND dump: 1024 blocks of 64
// pages each, every page exactly PageSize clean bytes.
type NAND struct {
	Blocks [BlocksPerImage][PagesPerBlock][PageSize]byte
}

// DeframeNAND strips OOB/spare bytes from every page of a raw NAND image,
// producing a two-dimensional array of clean page payloads (spec §4.A).
//
// Bad-block remapping and ECC correction are not attempted; a NAND image
// with bit flips or a remapped block will misparse silently past this point.
func DeframeNAND(r io.ReaderAt) (*NAND, error) {
	runs := dataRuns()
	raw := make([]byte, pageStride)
	n := &NAND{}

	for b := 0; b < BlocksPerImage; b++ {
		for p := 0; p < PagesPerBlock; p++ {
			offset := int64(b*PagesPerBlock+p) * int64(pageStride)
			if _, err := io.ReadFull(sectionReader(r, offset, int64(pageStride)), raw); err != nil {
				return nil, fmt.Errorf("%w: block %d page %d: %v", ErrMalformedNandLayout, b, p, err)
			}

			clean := n.Blocks[b][p][:0]
			for _, run := range runs {
				clean = append(clean, raw[run[0]:run[1]]...)
			}
			if len(clean) != PageSize {
				return nil, fmt.Errorf("%w: block %d page %d: deframed %d bytes, want %d", ErrMalformedNandLayout, b, p, len(clean), PageSize)
			}
		}
	}

	return n, nil
}

// sectionReader adapts an io.ReaderAt + fixed window to an io.Reader.
func sectionReader(r io.ReaderAt, off, n int64) io.Reader {
	return io.NewSectionReader(r, off, n)
}
