package jobs

import "testing"

func TestTranscriptWrapsAtCapacity(t *testing.T) {
	tr := NewTranscript(3)
	for i := 0; i < 5; i++ {
		tr.Push(TranscriptEvent{Component: "jobs", Message: string(rune('a' + i))})
	}
	got := tr.Snapshot()
	if len(got) != 3 {
		t.Fatalf("expected 3 retained events, got %d", len(got))
	}
	want := []string{"c", "d", "e"}
	for i, e := range got {
		if e.Message != want[i] {
			t.Fatalf("event %d: expected %q, got %q", i, want[i], e.Message)
		}
	}
}

func TestTranscriptUnderCapacityReturnsAllInOrder(t *testing.T) {
	tr := NewTranscript(10)
	tr.Push(TranscriptEvent{Message: "first"})
	tr.Push(TranscriptEvent{Message: "second"})
	got := tr.Snapshot()
	if len(got) != 2 || got[0].Message != "first" || got[1].Message != "second" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
}
