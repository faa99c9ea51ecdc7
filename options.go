package efs2

// VolumeOption configures an OpenVolume call.
type VolumeOption func(v *Volume) error

// WithPageSize overrides the page size used while scanning for a superblock,
// before one has actually been parsed. The default scan stride is 2048, the
// safe lower bound described in spec §4.C.
func WithPageSize(size uint32) VolumeOption {
	return func(v *Volume) error {
		v.scanStride = size
		return nil
	}
}

// WithLogging enables the log.Printf line that reports which superblock
// OpenVolume selected. The per-candidate trace written while scanning goes
// to the standard logger whether or not this option is set.
func WithLogging(enabled bool) VolumeOption {
	return func(v *Volume) error {
		v.verbose = enabled
		return nil
	}
}
