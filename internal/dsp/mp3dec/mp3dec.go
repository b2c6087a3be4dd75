// Package mp3dec decodes MP3 files to float32 PCM using go-mp3, a pure-Go
// MPEG-1/2 Layer III decoder.
package mp3dec

import (
	"io"
	"math"
	"os"

	"github.com/hajimehoshi/go-mp3"

	waverrors "github.com/tphakala/waves-previewer/internal/errors"
)

// Decode returns interleaved stereo float32 PCM (go-mp3 always decodes to
// 2 channels) and the source sample rate.
func Decode(path string) (interleaved []float32, sampleRate int, err error) {
	return decodeUpTo(path, 0, 64)
}

// decodeUpTo decodes interleaved stereo PCM, stopping once maxFrames frames
// (0 = unbounded) have been produced, tolerating up to transientBudget
// non-EOF read errors before giving up.
func decodeUpTo(path string, maxFrames, transientBudget int) (interleaved []float32, sampleRate int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, waverrors.Newf("opening mp3: %w", err).
			Component("dsp.mp3dec").Category(waverrors.CategoryFileIO).Context("path", path).Build()
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, 0, waverrors.Newf("initializing mp3 decoder: %w", err).
			Component("dsp.mp3dec").Category(waverrors.CategoryDecode).Context("path", path).Build()
	}

	buf := make([]byte, 4*4096)
	out := make([]float32, 0, 1<<16)
	transientErrors := 0

	for {
		n, rerr := dec.Read(buf)
		if n > 0 {
			for i := 0; i+3 < n; i += 4 {
				l := int16(uint16(buf[i]) | uint16(buf[i+1])<<8)
				r := int16(uint16(buf[i+2]) | uint16(buf[i+3])<<8)
				out = append(out, float32(l)/32768.0, float32(r)/32768.0)
				if maxFrames > 0 && len(out)/2 >= maxFrames {
					return out, dec.SampleRate(), nil
				}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			transientErrors++
			if transientErrors > transientBudget {
				break
			}
			continue
		}
	}

	return out, dec.SampleRate(), nil
}

// DecodeMono decodes and downmixes to mono by averaging L/R.
func DecodeMono(path string) ([]float32, int, error) {
	interleaved, sr, err := Decode(path)
	if err != nil {
		return nil, 0, err
	}
	n := len(interleaved) / 2
	mono := make([]float32, n)
	for i := 0; i < n; i++ {
		mono[i] = (interleaved[i*2] + interleaved[i*2+1]) / 2
	}
	return mono, sr, nil
}

// DecodeMulti splits the interleaved stereo stream into per-channel slices.
func DecodeMulti(path string) ([][]float32, int, error) {
	interleaved, sr, err := Decode(path)
	if err != nil {
		return nil, 0, err
	}
	n := len(interleaved) / 2
	left := make([]float32, n)
	right := make([]float32, n)
	for i := 0; i < n; i++ {
		left[i] = interleaved[i*2]
		right[i] = interleaved[i*2+1]
	}
	return [][]float32{left, right}, sr, nil
}

// probeSampleRate opens just enough of the stream to learn its sample rate.
func probeSampleRate(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, waverrors.Newf("opening mp3: %w", err).
			Component("dsp.mp3dec").Category(waverrors.CategoryFileIO).Context("path", path).Build()
	}
	defer f.Close()
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return 0, waverrors.Newf("initializing mp3 decoder: %w", err).
			Component("dsp.mp3dec").Category(waverrors.CategoryDecode).Context("path", path).Build()
	}
	return dec.SampleRate(), nil
}

// DecodeMonoPrefix stops once maxSecs of output samples (at the source
// sample rate) have been produced, reporting whether it truncated early.
func DecodeMonoPrefix(path string, maxSecs float64) (samples []float32, sampleRate int, truncated bool, err error) {
	sr, err := probeSampleRate(path)
	if err != nil {
		return nil, 0, false, err
	}
	maxFrames := int(math.Round(maxSecs * float64(sr)))

	interleaved, sr, err := decodeUpTo(path, maxFrames, 8)
	if err != nil {
		return nil, 0, false, err
	}

	n := len(interleaved) / 2
	mono := make([]float32, n)
	for i := 0; i < n; i++ {
		mono[i] = (interleaved[i*2] + interleaved[i*2+1]) / 2
	}
	truncated = maxFrames > 0 && n >= maxFrames
	return mono, sr, truncated, nil
}
