// Package oggdec decodes Ogg Vorbis files to float32 PCM using
// github.com/jfreymuth/oggvorbis, a pure-Go decoder.
package oggdec

import (
	"io"
	"math"
	"os"

	"github.com/jfreymuth/oggvorbis"

	waverrors "github.com/tphakala/waves-previewer/internal/errors"
)

// DecodeMulti decodes an OGG/Vorbis file into per-channel float32 slices
// and returns the source sample rate.
func DecodeMulti(path string) ([][]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, waverrors.Newf("opening ogg: %w", err).
			Component("dsp.oggdec").Category(waverrors.CategoryFileIO).Context("path", path).Build()
	}
	defer f.Close()

	r, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, 0, waverrors.Newf("initializing ogg decoder: %w", err).
			Component("dsp.oggdec").Category(waverrors.CategoryDecode).Context("path", path).Build()
	}

	numChans := r.Channels()
	if numChans <= 0 {
		return nil, 0, waverrors.Newf("ogg reports no channels").
			Component("dsp.oggdec").Category(waverrors.CategoryUnknownRate).Context("path", path).Build()
	}

	channels := make([][]float32, numChans)
	buf := make([]float32, 4096*numChans)
	transientErrors := 0
	const transientBudget = 64

	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			frames := n / numChans
			for c := 0; c < numChans; c++ {
				for i := 0; i < frames; i++ {
					channels[c] = append(channels[c], buf[i*numChans+c])
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

	return channels, r.SampleRate(), nil
}

// DecodeMono decodes and downmixes to mono by averaging channels.
func DecodeMono(path string) ([]float32, int, error) {
	channels, sr, err := DecodeMulti(path)
	if err != nil {
		return nil, 0, err
	}
	if len(channels) == 1 {
		return channels[0], sr, nil
	}
	n := 0
	for _, c := range channels {
		if len(c) > n {
			n = len(c)
		}
	}
	mono := make([]float32, n)
	for _, c := range channels {
		for i, v := range c {
			mono[i] += v
		}
	}
	inv := float32(1.0) / float32(len(channels))
	for i := range mono {
		mono[i] *= inv
	}
	return mono, sr, nil
}

// DecodeMonoPrefix stops once maxSecs of mono output has been produced.
func DecodeMonoPrefix(path string, maxSecs float64) (samples []float32, sampleRate int, truncated bool, err error) {
	mono, sr, err := DecodeMono(path)
	if err != nil {
		return nil, 0, false, err
	}
	maxSamples := int(math.Round(maxSecs * float64(sr)))
	if maxSamples > 0 && len(mono) > maxSamples {
		return mono[:maxSamples], sr, true, nil
	}
	return mono, sr, false, nil
}
