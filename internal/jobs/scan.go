package jobs

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	waverrors "github.com/tphakala/waves-previewer/internal/errors"
)

var scanExtensions = map[string]bool{
	".wav": true, ".wave": true, ".mp3": true, ".m4a": true,
	".aac": true, ".ogg": true, ".oga": true, ".flac": true,
}

// ScanProgress is one incremental report from ScanFolder (SPEC_FULL.md §C.2:
// "folder scanning reports incremental counts (scanned, total_estimate)
// rather than an opaque all-or-nothing result").
type ScanProgress struct {
	Scanned       int
	TotalEstimate int
	NewPaths      []string
	Done          bool
	Err           error
}

// ScanFolder walks root for recognized audio files, streaming incremental
// ScanProgress reports on the returned channel. The scan stops early if ctx
// is cancelled. A rough total_estimate comes from a cheap first pass; the
// real count as files are found always wins in Scanned.
func ScanFolder(ctx context.Context, root string, batchSize int) <-chan ScanProgress {
	if batchSize <= 0 {
		batchSize = 64
	}
	out := make(chan ScanProgress, 1)

	go func() {
		defer close(out)

		totalEstimate := estimateCount(root)

		scanned := 0
		batch := make([]string, 0, batchSize)
		flush := func(done bool, err error) bool {
			select {
			case out <- ScanProgress{Scanned: scanned, TotalEstimate: totalEstimate, NewPaths: batch, Done: done, Err: err}:
				batch = make([]string, 0, batchSize)
				return true
			case <-ctx.Done():
				return false
			}
		}

		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // skip unreadable entries, don't abort the whole scan
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if d.IsDir() {
				return nil
			}
			if !scanExtensions[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			scanned++
			batch = append(batch, path)
			if len(batch) >= batchSize {
				if !flush(false, nil) {
					return ctx.Err()
				}
			}
			return nil
		})

		if walkErr != nil && walkErr != ctx.Err() {
			flush(true, waverrors.Newf("scan failed: %v", walkErr).
				Component("jobs").Category(waverrors.CategoryFileIO).Context("root", root).Build())
			return
		}
		flush(true, nil)
	}()

	return out
}

// estimateCount does a shallow directory-entry count to seed total_estimate
// before the recursive walk has finished; it deliberately does not recurse
// into subdirectories; walker corrects the number below with real matches.
func estimateCount(root string) int {
	entries, err := filepath.Glob(filepath.Join(root, "*"))
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if scanExtensions[strings.ToLower(filepath.Ext(e))] {
			n++
		}
	}
	return n
}
