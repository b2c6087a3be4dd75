package jobs

import "testing"

func TestStageThroughRingBufferRoundTripsExactly(t *testing.T) {
	audio := []float32{0, 0.25, -0.5, 1, -1, 0.333}
	out := stageThroughRingBuffer(audio)
	if len(out) != len(audio) {
		t.Fatalf("expected length %d, got %d", len(audio), len(out))
	}
	for i := range audio {
		if out[i] != audio[i] {
			t.Fatalf("sample %d: expected %v, got %v", i, audio[i], out[i])
		}
	}
}

func TestListPreviewCacheEvictsLRUBeyondMaxItems(t *testing.T) {
	coord := NewListPreviewCoordinator(1, 4, nil)
	settings := ListPreviewSettings{OutSampleRate: 48000}

	coord.store("a.wav", ListPreviewEntry{Audio: []float32{1}, Settings: settings})
	coord.store("b.wav", ListPreviewEntry{Audio: []float32{2}, Settings: settings})

	if _, ok := coord.lookup("a.wav", settings); ok {
		t.Fatal("expected a.wav to have been evicted")
	}
	if _, ok := coord.lookup("b.wav", settings); !ok {
		t.Fatal("expected b.wav to still be cached")
	}
}

func TestListPreviewCacheMissOnSettingsMismatch(t *testing.T) {
	coord := NewListPreviewCoordinator(4, 4, nil)
	coord.store("a.wav", ListPreviewEntry{Audio: []float32{1}, Settings: ListPreviewSettings{OutSampleRate: 48000}})

	if _, ok := coord.lookup("a.wav", ListPreviewSettings{OutSampleRate: 44100}); ok {
		t.Fatal("expected a settings mismatch to be a cache miss")
	}
}
