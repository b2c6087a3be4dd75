// Package mp3enc encodes PCM to MP3 using LAME via github.com/viert/lame.
package mp3enc

import (
	"math"
	"os"

	"github.com/viert/lame"

	waverrors "github.com/tphakala/waves-previewer/internal/errors"
)

const (
	bitrateKbps  = 192
	fallbackRate = 44100
)

// supportedRates lists sample rates LAME's MPEG1 Layer III encoder accepts.
var supportedRates = map[int]bool{
	32000: true, 44100: true, 48000: true,
}

// ResolveSampleRate returns rate if LAME supports it for MP3 output,
// otherwise the 44.1 kHz fallback (spec.md §4.2/§6).
func ResolveSampleRate(rate int) int {
	if supportedRates[rate] {
		return rate
	}
	return fallbackRate
}

// Encode writes channel data to path as CBR 192 kbps MP3 at the highest
// quality setting. channels must be 1 (mono) or 2 (stereo); callers
// normalize mixdowns to one of these before calling.
func Encode(path string, channels [][]float32, sampleRate int) error {
	numChans := len(channels)
	if numChans != 1 && numChans != 2 {
		return waverrors.Newf("mp3 encode requires mono or stereo, got %d channels", numChans).
			Component("dsp.mp3enc").Category(waverrors.CategoryValidation).Build()
	}

	f, err := os.Create(path)
	if err != nil {
		return waverrors.Newf("creating mp3 output: %w", err).
			Component("dsp.mp3enc").Category(waverrors.CategoryFileIO).Context("path", path).Build()
	}
	defer f.Close()

	w := lame.NewWriter(f)
	if w == nil {
		return waverrors.Newf("failed to instantiate lame encoder").
			Component("dsp.mp3enc").Category(waverrors.CategoryResource).Build()
	}

	w.Encoder.SetInSamplerate(ResolveSampleRate(sampleRate))
	w.Encoder.SetNumChannels(numChans)
	if numChans == 1 {
		w.Encoder.SetMode(lame.MONO)
	} else {
		w.Encoder.SetMode(lame.STEREO)
	}
	w.Encoder.SetVBR(lame.VBR_OFF)
	w.Encoder.SetBitrate(bitrateKbps)
	w.Encoder.SetQuality(0) // 0 = highest quality in LAME's convention

	if w.Encoder.InitParams() < 0 {
		w.Close()
		return waverrors.Newf("lame InitParams failed").
			Component("dsp.mp3enc").Category(waverrors.CategoryConfiguration).Build()
	}

	frames := 0
	for _, c := range channels {
		if len(c) > frames {
			frames = len(c)
		}
	}

	pcm := make([]byte, frames*numChans*2)
	for i := 0; i < frames; i++ {
		for c := 0; c < numChans; c++ {
			var v float32
			if i < len(channels[c]) {
				v = channels[c][i]
			}
			s := clampInt16(v)
			off := (i*numChans + c) * 2
			pcm[off] = byte(uint16(s))
			pcm[off+1] = byte(uint16(s) >> 8)
		}
	}

	if _, err := w.Write(pcm); err != nil {
		w.Close()
		return waverrors.Newf("writing mp3 frames: %w", err).
			Component("dsp.mp3enc").Category(waverrors.CategoryWrite).Context("path", path).Build()
	}

	// flush_no_gap: finalize the stream without trailing silence/tags so
	// consecutive segments can be concatenated cleanly.
	if err := w.Close(); err != nil {
		return waverrors.Newf("flushing mp3 encoder: %w", err).
			Component("dsp.mp3enc").Category(waverrors.CategoryWrite).Context("path", path).Build()
	}

	return nil
}

func clampInt16(v float32) int16 {
	scaled := float64(v) * 32767.0
	if scaled > 32767 {
		scaled = 32767
	} else if scaled < -32768 {
		scaled = -32768
	}
	return int16(math.Round(scaled))
}
