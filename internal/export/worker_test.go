package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tphakala/waves-previewer/internal/dsp/wavio"
)

func TestRunWritesNewFileAndReportsSuccess(t *testing.T) {
	dir := t.TempDir()
	task := Task{
		ItemID:          1,
		SourcePath:      filepath.Join(dir, "clip.wav"),
		Dst:             filepath.Join(dir, "clip_out.wav"),
		Channels:        [][]float32{{0, 0.1, -0.1, 0.2}},
		SampleRate:      48000,
		BitDepth:        wavio.PCM16,
		Ext:             "wav",
		NeedsAudioWrite: true,
	}

	result := Run([]Task{task}, Config{SaveMode: SaveNewFile}, nil)
	if result.OK != 1 || result.Failed != 0 {
		t.Fatalf("expected 1 ok/0 failed, got ok=%d failed=%d", result.OK, result.Failed)
	}
	if _, err := os.Stat(task.Dst); err != nil {
		t.Fatalf("expected output file to exist: %v", err)
	}
}

func TestRunSkippedTaskCountsAsFailure(t *testing.T) {
	result := Run([]Task{{Skip: true, SourcePath: "unreachable.wav"}}, Config{}, nil)
	if result.Failed != 1 || result.OK != 0 {
		t.Fatalf("expected 1 failure, got ok=%d failed=%d", result.OK, result.Failed)
	}
}

func TestRunOverwriteWithBackupCreatesBakAndUndoRestores(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "clip.wav")
	if err := wavio.WriteWav(src, [][]float32{{0, 0.5, -0.5}}, 48000, wavio.PCM16); err != nil {
		t.Fatal(err)
	}
	original, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}

	undoStack := NewOverwriteUndoStack()
	task := Task{
		ItemID:          1,
		SourcePath:      src,
		Dst:             src,
		Channels:        [][]float32{{0, 0.9, -0.9, 0.1}},
		SampleRate:      48000,
		BitDepth:        wavio.PCM16,
		Ext:             "wav",
		NeedsAudioWrite: true,
	}

	result := Run([]Task{task}, Config{SaveMode: SaveOverwrite, BackupBak: true}, undoStack)
	if result.OK != 1 {
		t.Fatalf("expected successful overwrite, got failed=%d", result.Failed)
	}
	if _, err := os.Stat(src + ".bak"); err != nil {
		t.Fatalf("expected a .bak sibling: %v", err)
	}

	if undoStack.Len() != 1 {
		t.Fatalf("expected 1 undoable batch, got %d", undoStack.Len())
	}
	if err := undoStack.UndoLast(); err != nil {
		t.Fatalf("UndoLast failed: %v", err)
	}

	restored, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	if string(restored) != string(original) {
		t.Fatal("expected UndoLast to restore the pre-overwrite bytes")
	}
}
