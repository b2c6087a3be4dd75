package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sineMono(n int, freq float64, sampleRate int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate)))
	}
	return out
}

func TestResampleLinearIdentityAtEqualRates(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3}
	out := ResampleLinear(in, 48000, 48000)
	assert.Same(t, &in[0], &out[0])
}

func TestResampleLinearOutputLength(t *testing.T) {
	in := make([]float32, 44100)
	out := ResampleLinear(in, 44100, 48000)
	assert.InDelta(t, 48000, len(out), 2)
}

func TestBuildMinMaxSkipsEmptyBins(t *testing.T) {
	samples := []float32{1, 2, 3}
	bins := BuildMinMax(samples, 10)
	assert.LessOrEqual(t, len(bins), 3)
	for _, b := range bins {
		assert.LessOrEqual(t, b.Min, b.Max)
	}
}

func TestBuildMinMaxCapturesExtremes(t *testing.T) {
	samples := []float32{-1, 0.5, 1, -0.2}
	bins := BuildMinMax(samples, 1)
	assert.Len(t, bins, 1)
	assert.Equal(t, float32(-1), bins[0].Min)
	assert.Equal(t, float32(1), bins[0].Max)
}

func TestLUFSOfSilenceIsNegativeInfinity(t *testing.T) {
	silence := make([]float32, 48000)
	lufs := LUFSIntegrated([][]float32{silence}, 48000)
	assert.True(t, math.IsInf(lufs, -1))
}

func TestLUFSOfFullScaleSineNear997HzIsApproximatelyMinus3dB(t *testing.T) {
	sine := sineMono(48000, 997, 48000)
	lufs := LUFSIntegrated([][]float32{sine}, 48000)
	assert.InDelta(t, -3.0, lufs, 1.0)
}

func TestLUFSShortClipFallsBackToWholeSignalMean(t *testing.T) {
	sine := sineMono(1000, 440, 48000) // well under one 400ms window
	lufs := LUFSIntegrated([][]float32{sine}, 48000)
	assert.False(t, math.IsInf(lufs, -1))
}

func TestTimeStretchPreservesApproxDurationRatio(t *testing.T) {
	mono := sineMono(48000, 220, 48000)
	out := TimeStretch(mono, 2.0)
	assert.InDelta(t, len(mono)/2, len(out), float64(len(mono))*0.05)
}

func TestPitchShiftPreservesDuration(t *testing.T) {
	mono := sineMono(48000*3, 220, 48000)
	out := PitchShift(mono, 48000, 4)
	assert.Equal(t, len(mono), len(out))
}

func TestDetectFormatIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, FormatWAV, DetectFormat("clip.WAV"))
	assert.Equal(t, FormatMP3, DetectFormat("clip.Mp3"))
	assert.Equal(t, FormatM4A, DetectFormat("clip.M4A"))
	assert.Equal(t, FormatOGG, DetectFormat("clip.ogg"))
	assert.Equal(t, FormatUnknown, DetectFormat("clip.flac"))
}

func TestNormalizeToMonoOrStereoPassesThroughMonoAndStereo(t *testing.T) {
	mono := [][]float32{{1, 2, 3}}
	assert.Equal(t, mono, normalizeToMonoOrStereo(mono))

	stereo := [][]float32{{1}, {2}}
	assert.Equal(t, stereo, normalizeToMonoOrStereo(stereo))
}

func TestNormalizeDownmixesMultichannelToStereo(t *testing.T) {
	multi := [][]float32{{1, 0}, {1, 0}, {1, 0}}
	out := normalizeToMonoOrStereo(multi)
	assert.Len(t, out, 2)
}
