package listmodel

import "testing"

func TestAddDuplicatePathRejected(t *testing.T) {
	l := New()
	if _, err := l.Add("/a.wav", "a.wav"); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := l.Add("/a.wav", "a.wav"); err == nil {
		t.Fatal("expected duplicate path error")
	}
}

func TestRenamePathKeepsIndicesInSync(t *testing.T) {
	l := New()
	item, err := l.Add("/a.wav", "a.wav")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := l.RenamePath(item.ID, "/a.mp3"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if _, ok := l.ByPath("/a.wav"); ok {
		t.Fatal("old path should no longer resolve")
	}
	got, ok := l.ByPath("/a.mp3")
	if !ok || got.ID != item.ID {
		t.Fatal("new path should resolve to the same item")
	}
}

func TestRemoveKeepsIndicesInSync(t *testing.T) {
	l := New()
	item, _ := l.Add("/a.wav", "a.wav")
	if !l.Remove(item.ID) {
		t.Fatal("expected remove to succeed")
	}
	if _, ok := l.ByID(item.ID); ok {
		t.Fatal("item should be gone from byID")
	}
	if _, ok := l.ByPath("/a.wav"); ok {
		t.Fatal("item should be gone from byPath")
	}
	if l.Len() != 0 {
		t.Fatalf("expected empty list, got %d", l.Len())
	}
}

func TestViewFilterAndSort(t *testing.T) {
	l := New()
	a, _ := l.Add("/b.wav", "b.wav")
	bItem, _ := l.Add("/a.wav", "a.wav")
	l.SetMeta(a.ID, &Meta{DurationS: 5})
	l.SetMeta(bItem.ID, &Meta{DurationS: 1})

	view := l.View(FilterOptions{}, SortByDisplayName, true)
	if len(view) != 2 || view[0].DisplayName != "a.wav" {
		t.Fatalf("expected a.wav first, got %+v", view)
	}

	byDur := l.View(FilterOptions{}, SortByDuration, true)
	if byDur[0].DisplayName != "a.wav" {
		t.Fatalf("expected shortest duration first, got %+v", byDur)
	}
}

func TestFilterByNameContains(t *testing.T) {
	l := New()
	l.Add("/kick.wav", "kick.wav")
	l.Add("/snare.wav", "snare.wav")

	view := l.View(FilterOptions{NameContains: "kick"}, SortByDisplayName, true)
	if len(view) != 1 || view[0].DisplayName != "kick.wav" {
		t.Fatalf("expected only kick.wav, got %+v", view)
	}
}

func TestPendingGainAndClearOverrides(t *testing.T) {
	l := New()
	item, _ := l.Add("/a.wav", "a.wav")
	l.SetPendingGain(item.ID, 3.0)
	if !item.Overrides.HasPendingGain || item.Overrides.PendingGainDB != 3.0 {
		t.Fatal("expected pending gain to be recorded")
	}
	l.ClearOverrides(item.ID)
	if item.Overrides.HasPendingGain {
		t.Fatal("expected overrides cleared")
	}
}
