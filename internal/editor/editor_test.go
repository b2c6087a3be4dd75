package editor

import (
	"math"
	"testing"

	"github.com/tphakala/waves-previewer/internal/undo"
)

func sineTab(t *testing.T, n int, freqs ...float64) *Tab {
	t.Helper()
	const sr = 48000
	channels := make([][]float32, len(freqs))
	for c, f := range freqs {
		buf := make([]float32, n)
		for i := range buf {
			buf[i] = float32(math.Sin(2 * math.Pi * f * float64(i) / sr))
		}
		channels[c] = buf
	}
	tab, err := NewTab("fixture.wav", channels, sr, 64*1024*1024, undo.NewTracker())
	if err != nil {
		t.Fatalf("NewTab: %v", err)
	}
	return tab
}

func TestTrimReducesLength(t *testing.T) {
	n := 48000 * 3
	tab := sineTab(t, n, 220, 440)
	s, e := int(0.1*float64(n)), int(0.9*float64(n))

	if err := tab.Trim(nil, s, e); err != nil {
		t.Fatalf("Trim: %v", err)
	}
	if tab.SamplesLen != e-s {
		t.Fatalf("expected len %d, got %d", e-s, tab.SamplesLen)
	}
	if !tab.Dirty {
		t.Fatal("expected dirty after trim")
	}
	if tab.Selection != nil || tab.LoopRegion != nil {
		t.Fatal("expected ranges cleared after trim")
	}
}

func TestTrimThenTrimIdempotent(t *testing.T) {
	n := 10000
	a := sineTab(t, n, 220)
	b := sineTab(t, n, 220)

	s, e := 1000, 9000
	if err := a.Trim(nil, s, e); err != nil {
		t.Fatal(err)
	}
	if err := b.Trim(nil, s, e); err != nil {
		t.Fatal(err)
	}
	if err := b.Trim(nil, 0, e-s); err != nil {
		t.Fatal(err)
	}
	if a.SamplesLen != b.SamplesLen {
		t.Fatalf("length mismatch: %d vs %d", a.SamplesLen, b.SamplesLen)
	}
	for i := 0; i < a.SamplesLen; i++ {
		if a.ChSamples[0][i] != b.ChSamples[0][i] {
			t.Fatalf("sample mismatch at %d", i)
		}
	}
}

func TestReverseTwiceIsIdentity(t *testing.T) {
	n := 5000
	tab := sineTab(t, n, 220)
	orig := append([]float32(nil), tab.ChSamples[0]...)

	if err := tab.Reverse(nil, 100, 4000); err != nil {
		t.Fatal(err)
	}
	if err := tab.Reverse(nil, 100, 4000); err != nil {
		t.Fatal(err)
	}
	for i := range orig {
		if tab.ChSamples[0][i] != orig[i] {
			t.Fatalf("mismatch at %d: got %v want %v", i, tab.ChSamples[0][i], orig[i])
		}
	}
}

func TestGainZeroDBIsIdentity(t *testing.T) {
	n := 2000
	tab := sineTab(t, n, 220)
	orig := append([]float32(nil), tab.ChSamples[0]...)

	if err := tab.Gain(nil, 0, n, 0); err != nil {
		t.Fatal(err)
	}
	for i := range orig {
		if math.Abs(float64(tab.ChSamples[0][i]-orig[i])) > 1e-6 {
			t.Fatalf("mismatch at %d: got %v want %v", i, tab.ChSamples[0][i], orig[i])
		}
	}
}

func TestNormalizeIsFixedPoint(t *testing.T) {
	n := 2000
	tab := sineTab(t, n, 220)

	if err := tab.Normalize(nil, 0, n, -3); err != nil {
		t.Fatal(err)
	}
	first := append([]float32(nil), tab.ChSamples[0]...)

	if err := tab.Normalize(nil, 0, n, -3); err != nil {
		t.Fatal(err)
	}
	for i := range first {
		if math.Abs(float64(tab.ChSamples[0][i]-first[i])) > 1e-5 {
			t.Fatalf("normalize not idempotent at %d: %v vs %v", i, tab.ChSamples[0][i], first[i])
		}
	}
}

func TestNormalizeSilentRangeIsNoOp(t *testing.T) {
	n := 100
	channels := [][]float32{make([]float32, n)}
	tab, err := NewTab("silence.wav", channels, 48000, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := tab.Normalize(nil, 0, n, -3); err != nil {
		t.Fatal(err)
	}
	if tab.Dirty {
		t.Fatal("expected no-op on all-zero range to leave dirty false")
	}
}

func TestZeroLengthOpsAreNoOps(t *testing.T) {
	tab, err := NewTab("empty.wav", nil, 48000, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := tab.Trim(nil, 0, 0); err != nil {
		t.Fatalf("expected nil error on zero-length trim, got %v", err)
	}
	if tab.Dirty {
		t.Fatal("expected dirty to remain false on a zero-length tab")
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	n := 1000
	tab := sineTab(t, n, 220)
	orig := append([]float32(nil), tab.ChSamples[0]...)

	if err := tab.Gain(nil, 0, n, 6); err != nil {
		t.Fatal(err)
	}
	if !tab.Undo() {
		t.Fatal("expected undo to succeed")
	}
	for i := range orig {
		if tab.ChSamples[0][i] != orig[i] {
			t.Fatalf("undo mismatch at %d", i)
		}
	}
	if !tab.Redo() {
		t.Fatal("expected redo to succeed")
	}
}

func TestLoopCrossfadeApplyMatchesAtBoundaries(t *testing.T) {
	n := 48000
	tab := sineTab(t, n, 220)
	tab.LoopRegion = &Range{Start: int(0.2 * float64(n)), End: int(0.6 * float64(n))}
	tab.LoopXfadeSamples = 1920
	tab.LoopXfadeShape = 1 // equal power

	before := append([]float32(nil), tab.ChSamples[0]...)

	if err := tab.LoopCrossfadeApply(nil); err != nil {
		t.Fatal(err)
	}
	if tab.LoopXfadeSamples != 0 {
		t.Fatal("expected loop_xfade_samples cleared")
	}

	s, e := tab.LoopRegion.Start, tab.LoopRegion.End
	half := 1920
	for i := 0; i < 2*half; i++ {
		if tab.ChSamples[0][s-half+i] != tab.ChSamples[0][e-half+i] {
			t.Fatalf("crossfade boundary mismatch at offset %d", i)
		}
	}
	// Outside the windows the audio must be untouched.
	if tab.ChSamples[0][0] != before[0] {
		t.Fatal("expected audio outside crossfade windows to be unchanged")
	}
}

func TestLoopCrossfadeZeroSamplesIsNoOp(t *testing.T) {
	n := 1000
	tab := sineTab(t, n, 220)
	tab.LoopRegion = &Range{Start: 100, End: 900}
	tab.LoopXfadeSamples = 0
	before := append([]float32(nil), tab.ChSamples[0]...)

	if err := tab.LoopCrossfadeApply(nil); err != nil {
		t.Fatal(err)
	}
	for i := range before {
		if tab.ChSamples[0][i] != before[i] {
			t.Fatal("expected audio unchanged when loop_xfade_samples == 0")
		}
	}
}

func TestLoopUnwrapDuplicatesRegion(t *testing.T) {
	n := 1000
	tab := sineTab(t, n, 220)
	tab.LoopRegion = &Range{Start: 100, End: 200}
	tab.LoopMode = LoopMarker

	if err := tab.LoopUnwrap(nil, 3); err != nil {
		t.Fatal(err)
	}
	if tab.SamplesLen != n+2*100 {
		t.Fatalf("expected len %d, got %d", n+2*100, tab.SamplesLen)
	}
	if tab.LoopRegion != nil || tab.LoopMode != LoopOff {
		t.Fatal("expected loop region cleared and loop mode off")
	}
}

func TestFadeInMidpointSCurve(t *testing.T) {
	n := 1000
	channels := [][]float32{make([]float32, n)}
	for i := range channels[0] {
		channels[0][i] = 1
	}
	tab, err := NewTab("flat.wav", channels, 48000, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := tab.FadeIn(nil, 0, 1000, FadeSCurve); err != nil {
		t.Fatal(err)
	}
	got := tab.ChSamples[0][500]
	want := float32(0.5 * 0.5 * (3 - 2*0.5))
	if math.Abs(float64(got-want)) > 1e-3 {
		t.Fatalf("expected ~%v at midpoint, got %v", want, got)
	}
}
