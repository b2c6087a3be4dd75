package markers

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/tphakala/waves-previewer/internal/dsp/wavio"
)

func tempWav(t *testing.T) string {
	t.Helper()
	samples := make([]float32, 1000)
	for i := range samples {
		samples[i] = float32(math.Sin(2 * math.Pi * 440 * float64(i) / 48000))
	}
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := wavio.WriteWav(path, [][]float32{samples}, 48000, wavio.PCM16); err != nil {
		t.Fatalf("writing fixture wav: %v", err)
	}
	return path
}

func TestReadReportsNoLoopForFreshWav(t *testing.T) {
	path := tempWav(t)
	_, ok, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if ok {
		t.Fatal("expected a freshly written wav to have no loop region")
	}
}

func TestWriteThenReadRoundTripsLoopRegion(t *testing.T) {
	path := tempWav(t)
	region := LoopRegion{Start: 100, End: 900}

	if err := Write(path, region, true); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, ok, err := Read(path)
	if err != nil {
		t.Fatalf("Read after Write: %v", err)
	}
	if !ok {
		t.Fatal("expected a loop region after Write")
	}
	if got != region {
		t.Fatalf("expected %+v, got %+v", region, got)
	}
}

func TestWriteWithoutLoopClearsExistingRegion(t *testing.T) {
	path := tempWav(t)
	if err := Write(path, LoopRegion{Start: 10, End: 20}, true); err != nil {
		t.Fatalf("Write (set): %v", err)
	}
	if err := Write(path, LoopRegion{}, false); err != nil {
		t.Fatalf("Write (clear): %v", err)
	}

	_, ok, err := Read(path)
	if err != nil {
		t.Fatalf("Read after clearing: %v", err)
	}
	if ok {
		t.Fatal("expected no loop region after writing hasLoop=false")
	}
}

func TestMapLoopRegionClampsToBufferLen(t *testing.T) {
	region, ok := MapLoopRegion(LoopRegion{Start: 0, End: 100}, 48000, 48000, 50)
	if !ok || region != (LoopRegion{Start: 0, End: 50}) {
		t.Fatalf("expected region clamped to {0, 50}, got %+v (ok=%v)", region, ok)
	}
}

func TestMapSampleRateScalesProportionally(t *testing.T) {
	got := MapSampleRate(48000, 48000, 96000)
	if got != 96000 {
		t.Fatalf("expected 96000, got %d", got)
	}
}
