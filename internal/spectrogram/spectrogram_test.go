package spectrogram

import (
	"math"
	"testing"
)

func sine(n int, freq float64, sr int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / float64(sr)))
	}
	return out
}

func TestFrameStepRespectsOverlap(t *testing.T) {
	cfg := Config{FFTSize: 1024, Overlap: 0.5}
	step := FrameStep(48000, cfg)
	if step != 512 {
		t.Fatalf("expected step 512, got %d", step)
	}
}

func TestFrameStepCapsToMaxFrames(t *testing.T) {
	cfg := Config{FFTSize: 1024, Overlap: 0.75, MaxFrames: 10}
	n := 48000
	step := FrameStep(n, cfg)
	frameCount := (n-cfg.FFTSize)/step + 1
	if frameCount > cfg.MaxFrames {
		t.Fatalf("expected frame count <= %d, got %d", cfg.MaxFrames, frameCount)
	}
}

func TestComputeTileDominantBinMatchesFrequency(t *testing.T) {
	const sr = 48000
	cfg := Config{FFTSize: 1024, Overlap: 0.5, Scale: ScaleLinear}
	mono := sine(sr, 1000, sr)

	tile := ComputeTile(mono, sr, cfg, 5, 6)
	if len(tile.Bins) != 1 {
		t.Fatalf("expected one frame, got %d", len(tile.Bins))
	}
	row := tile.Bins[0]
	maxBin := 0
	for i, v := range row {
		if v > row[maxBin] {
			maxBin = i
		}
	}
	expectedBin := int(1000 * float64(cfg.FFTSize) / sr)
	if abs(maxBin-expectedBin) > 1 {
		t.Fatalf("expected dominant bin near %d, got %d", expectedBin, maxBin)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestCacheEvictsLRUUnderBudget(t *testing.T) {
	cache := NewCache(1) // tiny budget forces eviction on every insert beyond the first
	tileA := &Tile{Bins: [][]float64{{1, 2, 3}}}
	tileB := &Tile{Bins: [][]float64{{4, 5, 6}}}

	cfg := Config{FFTSize: 1024}
	cache.Put("a.wav", cfg, 0, 1, tileA)
	cache.Put("b.wav", cfg, 0, 1, tileB)

	if _, ok := cache.Get("a.wav", cfg, 0, 1); ok {
		t.Fatal("expected a.wav's tile to have been evicted")
	}
	if _, ok := cache.Get("b.wav", cfg, 0, 1); !ok {
		t.Fatal("expected b.wav's tile to still be cached")
	}
}

func TestCacheInvalidatePath(t *testing.T) {
	cache := NewCache(0)
	cfg := Config{FFTSize: 1024}
	cache.Put("a.wav", cfg, 0, 1, &Tile{})
	cache.Put("a.wav", cfg, 1, 2, &Tile{})
	cache.Put("b.wav", cfg, 0, 1, &Tile{})

	cache.InvalidatePath("a.wav")
	if cache.Len() != 1 {
		t.Fatalf("expected only b.wav's tile to remain, got %d entries", cache.Len())
	}
}
