// Command efs2x carves partitions out of a raw NAND dump and/or walks an
// EFS2 partition into a flat file listing, mirroring the original forensic
// extractor's -p/-e/-a flags.
package main

import (
	"archive/zip"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	efs2 "github.com/0x8008135/efs2-extractor"
)

func main() {
	var (
		inPath  = flag.String("i", "", "input file (NAND image or EFS2 partition)")
		outDir  = flag.String("o", "", "output directory")
		doParts = flag.Bool("p", false, "extract partitions from a NAND image")
		doFiles = flag.Bool("e", false, "extract files from an EFS2 partition")
		doAll   = flag.Bool("a", false, "carve partitions and walk every EFS2-prefixed partition")
		verbose = flag.Bool("v", false, "verbose: trace superblock candidates and selection")
		zipOut  = flag.Bool("z", false, "write a zip archive instead of a directory tree")
	)
	flag.Parse()

	if !*verbose {
		log.SetOutput(io.Discard)
	}

	if err := run(*inPath, *outDir, *doParts, *doFiles, *doAll, *verbose, *zipOut); err != nil {
		fmt.Fprintf(os.Stderr, "[E] %s\n", err)
		os.Exit(1)
	}
}

func run(inPath, outDir string, doParts, doFiles, doAll, verbose, zipOut bool) error {
	if inPath == "" {
		return fmt.Errorf("missing -i PATH")
	}
	if outDir == "" {
		return fmt.Errorf("missing -o DIR")
	}
	if !doParts && !doFiles && !doAll {
		return fmt.Errorf("one of -p, -e, -a is required")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	img, err := efs2.OpenImage(inPath)
	if err != nil {
		return err
	}
	defer img.Close()

	sink, finish, err := newSink(outDir, zipOut)
	if err != nil {
		return err
	}
	defer finish()

	switch {
	case doAll:
		return extractAll(img, sink, verbose)
	case doParts:
		return extractPartitions(img, sink)
	case doFiles:
		opts := volumeOpts(verbose)
		vol, err := efs2.OpenVolume(img, opts...)
		if err != nil {
			return err
		}
		return extractVolume(vol, "", sink)
	}
	return nil
}

func volumeOpts(verbose bool) []efs2.VolumeOption {
	if verbose {
		return []efs2.VolumeOption{efs2.WithLogging(true)}
	}
	return nil
}

// extractPartitions de-frames the NAND image and writes every carved
// partition's raw bytes under outDir/<partition-name>.
func extractPartitions(r io.ReaderAt, sink outputSink) error {
	nand, err := efs2.DeframeNAND(r)
	if err != nil {
		return err
	}
	parts, err := efs2.CarvePartitions(nand)
	if err != nil {
		return err
	}
	for _, p := range parts {
		if err := sink.write(p.Name, p.Data); err != nil {
			return err
		}
		fmt.Printf("[I] partition %s (%d bytes)\n", p.Name, len(p.Data))
	}
	return nil
}

// extractAll carves partitions and walks every EFS2-prefixed one
// concurrently, one goroutine per partition capped by runtime.NumCPU(), per
// the orchestrator-level parallelism carve-out (spec §5).
func extractAll(r io.ReaderAt, sink outputSink, verbose bool) error {
	nand, err := efs2.DeframeNAND(r)
	if err != nil {
		return err
	}
	parts, err := efs2.CarvePartitions(nand)
	if err != nil {
		return err
	}

	sem := make(chan struct{}, runtime.NumCPU())
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for _, p := range parts {
		if !p.IsEFS2() {
			continue
		}
		p := p
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			vol, err := efs2.OpenVolume(p.Reader(), volumeOpts(verbose)...)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("partition %s: %w", p.Name, err)
				}
				mu.Unlock()
				return
			}
			if err := extractVolume(vol, p.Name, sink); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("partition %s: %w", p.Name, err)
				}
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return firstErr
}

func extractVolume(vol *efs2.Volume, prefix string, sink outputSink) error {
	entries, err := vol.Walk()
	if err != nil {
		return err
	}
	files, err := efs2.ResolvePaths(entries, vol.RootInode())
	if err != nil {
		return err
	}
	for _, f := range files {
		name := f.Path
		if prefix != "" {
			name = filepath.Join(prefix, f.Path)
		}
		if err := sink.write(name, f.Data); err != nil {
			return err
		}
	}
	fmt.Printf("[I] %s: %d files\n", defaultString(prefix, "efs2"), len(files))
	return nil
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// outputSink abstracts writing a named byte blob, so extraction code is the
// same whether the destination is a directory tree or a zip archive (-z).
type outputSink interface {
	write(name string, data []byte) error
}

func newSink(outDir string, zipOut bool) (outputSink, func(), error) {
	if !zipOut {
		return dirSink{root: outDir}, func() {}, nil
	}

	zipPath := filepath.Join(outDir, "efs2x.zip")
	f, err := os.Create(zipPath)
	if err != nil {
		return nil, nil, fmt.Errorf("create zip archive: %w", err)
	}
	zw := zip.NewWriter(f)
	finish := func() {
		zw.Close()
		f.Close()
	}
	return &zipSink{zw: zw}, finish, nil
}

type dirSink struct {
	root string
}

func (d dirSink) write(name string, data []byte) error {
	full := filepath.Join(d.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", name, err)
	}
	return os.WriteFile(full, data, 0o644)
}

type zipSink struct {
	mu sync.Mutex
	zw *zip.Writer
}

func (z *zipSink) write(name string, data []byte) error {
	z.mu.Lock()
	defer z.mu.Unlock()

	w, err := z.zw.Create(filepath.ToSlash(name))
	if err != nil {
		return fmt.Errorf("zip entry %s: %w", name, err)
	}
	_, err = w.Write(data)
	return err
}
