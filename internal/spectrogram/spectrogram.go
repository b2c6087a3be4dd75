// Package spectrogram computes on-demand FFT tiles for the active editor
// tab's spectrogram/mel view (spec.md §4.7) and caches them under a
// byte budget, keyed by source path and tile configuration.
package spectrogram

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// Window selects the analysis window applied before each frame's FFT.
type Window int

const (
	WindowHann Window = iota
	WindowBlackmanHarris
)

// Scale selects linear or log magnitude scaling for tile output.
type Scale int

const (
	ScaleLinear Scale = iota
	ScaleLog
)

// Config is the set of parameters a tile is computed under
// (spec.md §4.7 "Parameters").
type Config struct {
	FFTSize   int
	Window    Window
	Overlap   float64
	MaxFrames int
	Scale     Scale
	MelScale  bool
	DBFloor   float64
	MaxFreqHz float64
}

// Tile is one contiguous [StartFrame, EndFrame) window of a spectrogram:
// Bins[frame][bin] holds magnitude in dB (or linear if Scale is
// ScaleLinear), down to DBFloor.
type Tile struct {
	StartFrame int
	EndFrame   int
	FrameStep  int
	Bins       [][]float64
}

func windowFunc(kind Window, n int) []float64 {
	w := make([]float64, n)
	switch kind {
	case WindowBlackmanHarris:
		const a0, a1, a2, a3 = 0.35875, 0.48829, 0.14128, 0.01168
		for i := range w {
			x := 2 * math.Pi * float64(i) / float64(n-1)
			w[i] = a0 - a1*math.Cos(x) + a2*math.Cos(2*x) - a3*math.Cos(3*x)
		}
	default: // WindowHann
		for i := range w {
			w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
		}
	}
	return w
}

// FrameStep computes the analysis hop for a signal of length n under cfg,
// following spec.md §4.7: "Frame step = round(fft*(1-overlap)); if the
// resulting frame count exceeds max_frames, increase frame_step :=
// len/max_frames".
func FrameStep(n int, cfg Config) int {
	step := int(math.Round(float64(cfg.FFTSize) * (1 - cfg.Overlap)))
	if step < 1 {
		step = 1
	}
	if cfg.MaxFrames > 0 {
		frameCount := 0
		if n > cfg.FFTSize {
			frameCount = (n-cfg.FFTSize)/step + 1
		} else if n > 0 {
			frameCount = 1
		}
		if frameCount > cfg.MaxFrames {
			step = n / cfg.MaxFrames
			if step < 1 {
				step = 1
			}
		}
	}
	return step
}

// ComputeTile windows, FFTs, and magnitude-converts frames
// [startFrame, endFrame) of mono at sampleRate (spec.md §4.7 "Each tile
// computes a contiguous [start_frame, end_frame) range").
func ComputeTile(mono []float32, sampleRate int, cfg Config, startFrame, endFrame int) *Tile {
	step := FrameStep(len(mono), cfg)
	win := windowFunc(cfg.Window, cfg.FFTSize)

	bins := make([][]float64, 0, endFrame-startFrame)
	for f := startFrame; f < endFrame; f++ {
		center := f * step
		frame := make([]complex128, cfg.FFTSize)
		half := cfg.FFTSize / 2
		for i := 0; i < cfg.FFTSize; i++ {
			idx := center - half + i
			var s float64
			if idx >= 0 && idx < len(mono) {
				s = float64(mono[idx])
			}
			frame[i] = complex(s*win[i], 0)
		}
		spectrum := fft.FFT(frame)

		nBins := cfg.FFTSize/2 + 1
		row := make([]float64, nBins)
		for b := 0; b < nBins; b++ {
			mag := cmplxAbs(spectrum[b])
			row[b] = magnitudeToOutput(mag, cfg)
		}
		bins = append(bins, row)
	}

	return &Tile{StartFrame: startFrame, EndFrame: endFrame, FrameStep: step, Bins: bins}
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

func magnitudeToOutput(mag float64, cfg Config) float64 {
	if cfg.Scale == ScaleLinear {
		return mag
	}
	if mag <= 0 {
		return cfg.DBFloor
	}
	db := 20 * math.Log10(mag)
	if db < cfg.DBFloor {
		return cfg.DBFloor
	}
	return db
}
