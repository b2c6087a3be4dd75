package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sineBuffer(n int, freq, sampleRate float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / sampleRate))
	}
	return out
}

func TestSilenceWhenNoBufferOrNotPlaying(t *testing.T) {
	e := NewTestEngine(48000, 2)
	out := make([]float32, 20)
	e.RenderForTest(out, 10)
	for _, v := range out {
		assert.Zero(t, v)
	}
	assert.Zero(t, e.State().MeterRMS())
}

func TestPlaybackAdvancesPositionAtRate(t *testing.T) {
	e := NewTestEngine(48000, 1)
	e.SetSamples(sineBuffer(1000, 440, 48000))
	e.Play()

	out := make([]float32, 100)
	e.RenderForTest(out, 100)

	assert.InDelta(t, 100, e.State().PlayPos(), 1)
}

func TestRateChangesAdvanceSpeed(t *testing.T) {
	e := NewTestEngine(48000, 1)
	e.SetSamples(sineBuffer(1000, 440, 48000))
	e.SetRate(2.0)
	e.Play()

	out := make([]float32, 50)
	e.RenderForTest(out, 50)

	assert.InDelta(t, 100, e.State().PlayPos(), 1)
}

func TestRateIsClampedToValidRange(t *testing.T) {
	e := NewTestEngine(48000, 1)
	e.SetRate(100)
	assert.InDelta(t, MaxRate, e.state.getRate(), 0.0001)
	e.SetRate(-5)
	assert.InDelta(t, MinRate, e.state.getRate(), 0.0001)
}

func TestPlaybackStopsAtEndOfBufferWhenLoopDisabled(t *testing.T) {
	e := NewTestEngine(48000, 1)
	e.SetSamples(make([]float32, 10))
	e.Play()

	out := make([]float32, 20)
	e.RenderForTest(out, 20)

	assert.False(t, e.State().Playing())
}

func TestLoopWrapsAtLoopEndWhenEnabled(t *testing.T) {
	e := NewTestEngine(48000, 1)
	buf := sineBuffer(100, 440, 48000)
	e.SetSamples(buf)
	e.SetLoopRegion(0, 50)
	e.SetLoopEnabled(true)
	e.Play()

	out := make([]float32, 80)
	e.RenderForTest(out, 80)

	assert.True(t, e.State().Playing(), "loop should never stop the engine")
	assert.Less(t, e.State().PlayPos(), int64(50))
}

func TestVolumeAndFileGainAreMultiplicative(t *testing.T) {
	e := NewTestEngine(48000, 1)
	e.SetSamples([]float32{1, 1, 1, 1})
	e.SetVolume(0.5)
	e.SetFileGain(0.5)
	e.Play()

	out := make([]float32, 1)
	e.RenderForTest(out, 1)

	assert.InDelta(t, 0.25, out[0], 0.01)
}

func TestReplaceSamplesKeepPosPreservesPosition(t *testing.T) {
	e := NewTestEngine(48000, 1)
	e.SetSamples(sineBuffer(1000, 440, 48000))
	e.Play()
	e.SeekToSample(500)

	e.ReplaceSamplesKeepPos(sineBuffer(1000, 880, 48000))

	assert.Equal(t, int64(500), e.State().PlayPos())
}

func TestReplaceSamplesKeepPosClampsToShorterBuffer(t *testing.T) {
	e := NewTestEngine(48000, 1)
	e.SetSamples(sineBuffer(1000, 440, 48000))
	e.SeekToSample(900)

	e.ReplaceSamplesKeepPos(sineBuffer(100, 440, 48000))

	assert.LessOrEqual(t, e.State().PlayPos(), int64(99))
}

func TestSeekToSampleClampsToBufferBounds(t *testing.T) {
	e := NewTestEngine(48000, 1)
	e.SetSamples(sineBuffer(10, 440, 48000))

	e.SeekToSample(-5)
	assert.Equal(t, int64(0), e.State().PlayPos())

	e.SeekToSample(1000)
	assert.Equal(t, int64(9), e.State().PlayPos())
}

func TestTogglePlayFlipsState(t *testing.T) {
	e := NewTestEngine(48000, 1)
	require.False(t, e.State().Playing())

	nowPlaying := e.TogglePlay()
	assert.True(t, nowPlaying)
	assert.True(t, e.State().Playing())

	nowPlaying = e.TogglePlay()
	assert.False(t, nowPlaying)
}

func TestEqualPowerCrossfadeWeightsSumToConstantPower(t *testing.T) {
	for _, t64 := range []float64{0, 0.25, 0.5, 0.75} {
		wOut, wIn := xfadeWeights(t64, LoopEqualPower)
		power := wOut*wOut + wIn*wIn
		assert.InDelta(t, 1.0, power, 0.01)
	}
}

func TestLinearCrossfadeWeightsSumToOne(t *testing.T) {
	for _, t64 := range []float64{0, 0.25, 0.5, 0.75} {
		wOut, wIn := xfadeWeights(t64, LoopLinear)
		assert.InDelta(t, 1.0, wOut+wIn, 0.0001)
	}
}

func TestMonoSampleIsBroadcastToAllOutputChannels(t *testing.T) {
	e := NewTestEngine(48000, 2)
	e.SetSamples([]float32{0.5, 0.5, 0.5})
	e.Play()

	out := make([]float32, 2)
	e.RenderForTest(out, 1)

	assert.Equal(t, out[0], out[1])
}
