package dsp

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Phase-vocoder frame parameters. hopSynthesis is fixed; hopAnalysis is
// derived per call from the requested stretch rate, per the classic
// phase-vocoder time-scale-modification scheme.
const (
	stretchFrameSize   = 2048
	stretchHopSynth    = 512
	stretchInputLatency  = stretchFrameSize
	stretchOutputLatency = stretchFrameSize
)

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

func wrapPhase(p float64) float64 {
	for p > math.Pi {
		p -= 2 * math.Pi
	}
	for p < -math.Pi {
		p += 2 * math.Pi
	}
	return p
}

// timeStretchCore runs a phase-vocoder time-scale modification of mono at
// the given rate (output duration ≈ input/rate), preserving pitch. This is
// the "exact" path named in spec.md §4.2; it always succeeds for inputs at
// least one frame long.
func timeStretchCore(mono []float32, rate float64) []float32 {
	n := len(mono)
	if n == 0 || rate <= 0 {
		return append([]float32(nil), mono...)
	}

	window := hannWindow(stretchFrameSize)
	hopAnalysis := int(math.Round(float64(stretchHopSynth) * rate))
	if hopAnalysis < 1 {
		hopAnalysis = 1
	}

	outLen := int(math.Ceil(float64(n) / rate))
	out := make([]float64, outLen+stretchFrameSize)
	weight := make([]float64, outLen+stretchFrameSize)

	prevPhase := make([]float64, stretchFrameSize)
	outPhase := make([]float64, stretchFrameSize)

	omega := make([]float64, stretchFrameSize)
	for bin := range omega {
		omega[bin] = 2 * math.Pi * float64(bin) / float64(stretchFrameSize)
	}

	frame := make([]complex128, stretchFrameSize)

	posIn := 0
	posOut := 0
	for posIn < n {
		for i := 0; i < stretchFrameSize; i++ {
			idx := posIn + i
			var s float64
			if idx < n {
				s = float64(mono[idx])
			}
			frame[i] = complex(s*window[i], 0)
		}

		spec := fft.FFT(frame)

		synthSpec := make([]complex128, stretchFrameSize)
		for bin := 0; bin < stretchFrameSize; bin++ {
			mag := cmplx.Abs(spec[bin])
			phase := cmplx.Phase(spec[bin])

			delta := phase - prevPhase[bin] - omega[bin]*float64(hopAnalysis)
			delta = wrapPhase(delta)
			trueFreq := omega[bin] + delta/float64(hopAnalysis)

			outPhase[bin] += trueFreq * float64(stretchHopSynth)
			prevPhase[bin] = phase

			synthSpec[bin] = cmplx.Rect(mag, outPhase[bin])
		}

		synth := fft.IFFT(synthSpec)
		for i := 0; i < stretchFrameSize; i++ {
			if posOut+i >= len(out) {
				break
			}
			out[posOut+i] += real(synth[i]) * window[i]
			weight[posOut+i] += window[i] * window[i]
		}

		posIn += hopAnalysis
		posOut += stretchHopSynth
	}

	result := make([]float32, outLen)
	for i := 0; i < outLen && i < len(out); i++ {
		if weight[i] > 1e-8 {
			result[i] = float32(out[i] / weight[i])
		}
	}
	return result
}

// TimeStretch changes playback speed by rate while preserving pitch.
// out_len = ceil(len/rate) per spec.md §4.2.
func TimeStretch(mono []float32, rate float64) []float32 {
	return timeStretchCore(mono, rate)
}

// PitchShift shifts pitch by semitoneShift while preserving duration: an
// internal time-stretch by the inverse of the pitch ratio (changing duration
// by the ratio, preserving pitch) is immediately resampled back to the
// original duration (scaling pitch by the ratio, restoring duration) — the
// standard phase-vocoder pitch shift technique.
func PitchShift(mono []float32, sampleRate int, semitoneShift float64) []float32 {
	ratio := math.Pow(2, semitoneShift/12)
	stretched := timeStretchCore(mono, 1/ratio)
	resampled := ResampleLinear(stretched, int(math.Round(float64(sampleRate)*ratio)), sampleRate)

	// Trim or pad to the original length so duration is preserved exactly.
	out := make([]float32, len(mono))
	copy(out, resampled)
	return out
}
