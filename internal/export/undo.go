package export

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	waverrors "github.com/tphakala/waves-previewer/internal/errors"
)

// overwriteUndoCap is spec.md §4.8's cap: "push a batch of (src, bak) pairs
// onto overwrite_undo_stack (capped at 20)".
const overwriteUndoCap = 20

// OverwriteRecord pairs a backed-up original with the path it backs up
// (spec.md §4.8 "Post-processing").
type OverwriteRecord struct {
	SourcePath string
	BackupPath string
}

// OverwriteUndoStack is a capped history of overwrite backups, restorable
// one batch at a time via UndoLast.
type OverwriteUndoStack struct {
	batches [][]OverwriteRecord
}

// NewOverwriteUndoStack returns an empty stack.
func NewOverwriteUndoStack() *OverwriteUndoStack {
	return &OverwriteUndoStack{}
}

// Push appends one overwrite record to the current batch being built by a
// Run call. Batches are committed with CommitBatch once a full export run
// completes.
func (s *OverwriteUndoStack) Push(record OverwriteRecord) {
	if len(s.batches) == 0 {
		s.batches = append(s.batches, nil)
	}
	last := len(s.batches) - 1
	s.batches[last] = append(s.batches[last], record)
}

// CommitBatch closes off the batch Push has been appending to, so the next
// Push starts a new one, and evicts the oldest batch if over cap.
func (s *OverwriteUndoStack) CommitBatch() {
	if len(s.batches) == 0 || len(s.batches[len(s.batches)-1]) == 0 {
		return
	}
	s.batches = append(s.batches, nil)
	for len(s.batches) > overwriteUndoCap {
		s.batches = s.batches[1:]
	}
}

// Len reports the number of committed batches available to undo.
func (s *OverwriteUndoStack) Len() int {
	n := len(s.batches)
	if n > 0 && len(s.batches[n-1]) == 0 {
		n--
	}
	return n
}

// UndoLast restores every (src, bak) pair in the most recently committed
// batch by copying bak back over src via a temp-file-then-rename in the
// same directory (spec.md §4.8 "restore originals by copying the .bak back
// over src via a temp file in the same directory").
func (s *OverwriteUndoStack) UndoLast() error {
	n := len(s.batches)
	if n > 0 && len(s.batches[n-1]) == 0 {
		n--
	}
	if n == 0 {
		return waverrors.Newf("no overwrite to undo").
			Component("export").Category(waverrors.CategoryState).Build()
	}
	batch := s.batches[n-1]
	s.batches = s.batches[:n-1]

	for _, record := range batch {
		if err := restoreFromBackup(record); err != nil {
			return err
		}
	}
	return nil
}

func restoreFromBackup(record OverwriteRecord) error {
	bak, err := os.Open(record.BackupPath)
	if err != nil {
		return waverrors.Newf("opening backup: %w", err).
			Component("export").Category(waverrors.CategoryFileIO).Context("path", record.BackupPath).Build()
	}
	defer bak.Close()

	tmpPath := filepath.Join(filepath.Dir(record.SourcePath), "."+uuid.NewString()+".tmp")
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return waverrors.Newf("creating restore temp file: %w", err).
			Component("export").Category(waverrors.CategoryFileIO).Context("path", tmpPath).Build()
	}

	if _, err := io.Copy(tmp, bak); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return waverrors.Newf("writing restore temp file: %w", err).
			Component("export").Category(waverrors.CategoryWrite).Context("path", tmpPath).Build()
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return waverrors.Newf("closing restore temp file: %w", err).
			Component("export").Category(waverrors.CategoryWrite).Context("path", tmpPath).Build()
	}

	if err := os.Rename(tmpPath, record.SourcePath); err != nil {
		os.Remove(tmpPath)
		return waverrors.Newf("renaming restore temp file into place: %w", err).
			Component("export").Category(waverrors.CategoryWrite).Context("path", record.SourcePath).Build()
	}
	return nil
}
