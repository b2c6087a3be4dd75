package export

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/tphakala/waves-previewer/internal/dsp"
	"github.com/tphakala/waves-previewer/internal/markers"

	waverrors "github.com/tphakala/waves-previewer/internal/errors"
)

// minFreeBytesForExport is the headroom required on the destination
// filesystem before a write is attempted (SPEC_FULL.md §B "temp dir
// headroom before a write").
const minFreeBytesForExport = 64 * 1024 * 1024

// Result is what the execution worker returns for a batch
// (spec.md §4.8 "Returns {ok, failed, success_paths, failed_paths}").
type Result struct {
	OK           int
	Failed       int
	SuccessPaths []string
	FailedPaths  []string
	RenamedFrom  map[string]string // dst -> original source path, for format-conversion rename propagation
}

// Run executes tasks sequentially on the calling goroutine (spec.md §4.8
// "Runs on a dedicated thread"; callers wanting concurrency spawn one
// goroutine per batch and call Run from within it).
func Run(tasks []Task, cfg Config, undoStack *OverwriteUndoStack) Result {
	result := Result{RenamedFrom: make(map[string]string)}

	for _, task := range tasks {
		if task.Skip {
			result.Failed++
			result.FailedPaths = append(result.FailedPaths, task.SourcePath)
			continue
		}

		if err := checkHeadroom(filepath.Dir(task.Dst)); err != nil {
			result.Failed++
			result.FailedPaths = append(result.FailedPaths, task.SourcePath)
			continue
		}

		dst, skip := ResolveConflict(task.Dst, conflictPolicyFor(cfg, task))
		if skip {
			result.Failed++
			result.FailedPaths = append(result.FailedPaths, task.SourcePath)
			continue
		}
		task.Dst = dst

		if err := writeOne(task, cfg, undoStack); err != nil {
			result.Failed++
			result.FailedPaths = append(result.FailedPaths, task.SourcePath)
			continue
		}

		result.OK++
		result.SuccessPaths = append(result.SuccessPaths, task.Dst)
		if task.Ext != extNoDot(task.SourcePath) {
			result.RenamedFrom[task.Dst] = task.SourcePath
		}
	}

	if undoStack != nil {
		undoStack.CommitBatch()
	}
	return result
}

// conflictPolicyFor treats an Overwrite save-mode write to the item's own
// source path as never conflicting with itself.
func conflictPolicyFor(cfg Config, task Task) ConflictPolicy {
	if cfg.SaveMode == SaveOverwrite && task.Dst == task.SourcePath {
		return ConflictOverwrite
	}
	return cfg.Conflict
}

func writeOne(task Task, cfg Config, undoStack *OverwriteUndoStack) error {
	overwritingSource := task.Dst == task.SourcePath

	var bakPath string
	if overwritingSource && cfg.BackupBak && cfg.SaveMode == SaveOverwrite {
		var err error
		bakPath, err = backupSource(task.SourcePath)
		if err != nil {
			return err
		}
	}

	if task.NeedsAudioWrite {
		channels := task.Channels
		if len(channels) == 0 {
			decoded, sr, err := dsp.DecodeMulti(context.Background(), task.SourcePath)
			if err != nil {
				return err
			}
			channels = decoded
			task.SampleRate = sr
		}
		if err := dsp.WriteFile(task.Dst, task.Ext, channels, task.SampleRate, task.BitDepth); err != nil {
			return err
		}
	}

	if task.Ext == "wav" {
		if err := markers.Write(task.Dst, task.LoopRegion, task.HasLoopRegion); err != nil {
			return err
		}
	}

	if bakPath != "" && undoStack != nil {
		undoStack.Push(OverwriteRecord{SourcePath: task.SourcePath, BackupPath: bakPath})
	}

	return nil
}

func checkHeadroom(dir string) error {
	usage, err := disk.Usage(dir)
	if err != nil {
		return nil // can't stat (e.g. dest dir doesn't exist yet) — let the write itself fail with a clearer error
	}
	if usage.Free < minFreeBytesForExport {
		return waverrors.Newf("insufficient disk space in %s", dir).
			Component("export").Category(waverrors.CategoryResource).Context("dir", dir).Build()
	}
	return nil
}

func backupSource(path string) (string, error) {
	bak := path + ".bak"
	src, err := os.Open(path)
	if err != nil {
		return "", waverrors.Newf("opening source for backup: %w", err).
			Component("export").Category(waverrors.CategoryFileIO).Context("path", path).Build()
	}
	defer src.Close()

	dst, err := os.Create(bak)
	if err != nil {
		return "", waverrors.Newf("creating backup: %w", err).
			Component("export").Category(waverrors.CategoryFileIO).Context("path", bak).Build()
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", waverrors.Newf("writing backup: %w", err).
			Component("export").Category(waverrors.CategoryWrite).Context("path", bak).Build()
	}
	return bak, nil
}

func extNoDot(path string) string {
	ext := filepath.Ext(path)
	if len(ext) > 0 {
		return ext[1:]
	}
	return ""
}
