package jobs

import "testing"

func TestDecodeFailureRegistryMarkAndClear(t *testing.T) {
	r := NewDecodeFailureRegistry()
	const path = "clip.wav"

	if r.Failed(path) {
		t.Fatal("expected a fresh registry to report no failures")
	}

	r.Mark(path)
	if !r.Failed(path) {
		t.Fatal("expected Failed to report true after Mark")
	}

	r.Clear(path)
	if r.Failed(path) {
		t.Fatal("expected Failed to report false after Clear")
	}
}
