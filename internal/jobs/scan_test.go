package jobs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestScanFolderFindsRecognizedExtensionsOnly(t *testing.T) {
	dir := t.TempDir()
	names := []string{"a.wav", "b.mp3", "c.txt", "d.OGG", "e.flac"}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	var found []string
	var done bool
	for progress := range ScanFolder(context.Background(), dir, 2) {
		found = append(found, progress.NewPaths...)
		if progress.Done {
			done = true
			if progress.Err != nil {
				t.Fatalf("unexpected scan error: %v", progress.Err)
			}
		}
	}
	if !done {
		t.Fatal("expected a final Done report")
	}
	if len(found) != 4 {
		t.Fatalf("expected 4 recognized files, got %d: %v", len(found), found)
	}
}

func TestScanFolderRespectsCancellation(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 10; i++ {
		name := filepath.Join(dir, string(rune('a'+i))+".wav")
		if err := os.WriteFile(name, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for range ScanFolder(ctx, dir, 1) {
		// draining must terminate even though the context is already done
	}
}
