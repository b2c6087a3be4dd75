package export

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveConflictSkipsWhenDstMissing(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "a.wav")
	resolved, skip := ResolveConflict(dst, ConflictSkip)
	if skip {
		t.Fatal("expected no skip when dst doesn't exist")
	}
	if resolved != dst {
		t.Fatalf("expected unchanged dst, got %q", resolved)
	}
}

func TestResolveConflictSkipPolicy(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "a.wav")
	mustTouch(t, dst)

	_, skip := ResolveConflict(dst, ConflictSkip)
	if !skip {
		t.Fatal("expected skip=true when dst exists under ConflictSkip")
	}
}

func TestResolveConflictOverwritePolicy(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "a.wav")
	mustTouch(t, dst)

	resolved, skip := ResolveConflict(dst, ConflictOverwrite)
	if skip || resolved != dst {
		t.Fatalf("expected overwrite to reuse dst, got %q skip=%v", resolved, skip)
	}
}

func TestResolveConflictRenamePolicyAppendsSuffix(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "a.wav")
	mustTouch(t, dst)

	resolved, skip := ResolveConflict(dst, ConflictRename)
	if skip {
		t.Fatal("expected rename to find a free name, not skip")
	}
	want := filepath.Join(dir, "a_00.wav")
	if resolved != want {
		t.Fatalf("expected %q, got %q", want, resolved)
	}
}

func mustTouch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}
