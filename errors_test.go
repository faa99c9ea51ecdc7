package efs2

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrorsSupportErrorsIs(t *testing.T) {
	wrapped := fmt.Errorf("reading block 3: %w", ErrMalformedNandLayout)
	if !errors.Is(wrapped, ErrMalformedNandLayout) {
		t.Error("errors.Is() = false, want true for a wrapped sentinel error")
	}
}

func TestOptionsApply(t *testing.T) {
	v := &Volume{}
	if err := WithPageSize(4096)(v); err != nil {
		t.Fatalf("WithPageSize() error = %v", err)
	}
	if v.scanStride != 4096 {
		t.Errorf("scanStride = %d, want 4096", v.scanStride)
	}

	if err := WithLogging(true)(v); err != nil {
		t.Fatalf("WithLogging() error = %v", err)
	}
	if !v.verbose {
		t.Error("verbose = false, want true after WithLogging(true)")
	}
}
