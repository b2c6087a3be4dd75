// Package dsp is the offline decode/resample/pitch/loudness/thumbnail/write
// pipeline (spec.md §4.2): everything the realtime engine (internal/engine)
// does not do on its own thread.
package dsp

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/tphakala/waves-previewer/internal/dsp/ffmpegx"
	"github.com/tphakala/waves-previewer/internal/dsp/mp3dec"
	"github.com/tphakala/waves-previewer/internal/dsp/mp4io"
	"github.com/tphakala/waves-previewer/internal/dsp/oggdec"
	"github.com/tphakala/waves-previewer/internal/dsp/wavio"
	waverrors "github.com/tphakala/waves-previewer/internal/errors"
)

// Format identifies a supported input container/codec.
type Format int

const (
	FormatWAV Format = iota
	FormatMP3
	FormatM4A
	FormatOGG
	FormatUnknown
)

// DetectFormat classifies a path by extension, case-insensitively
// (spec.md §6: "Extension check is case-insensitive").
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return FormatWAV
	case ".mp3":
		return FormatMP3
	case ".m4a":
		return FormatM4A
	case ".ogg":
		return FormatOGG
	default:
		return FormatUnknown
	}
}

// TransientBudgetListPreview and TransientBudgetMetadata are the inner
// transient-decode-error budgets named in spec.md §4.2.
const (
	TransientBudgetListPreview = 8
	TransientBudgetMetadata    = 64
)

// DecodeMono decodes path to a single mono channel and its native sample
// rate, dispatching by container format.
func DecodeMono(ctx context.Context, path string) (samples []float32, sampleRate int, err error) {
	switch DetectFormat(path) {
	case FormatWAV:
		return wavio.DecodeMono(path)
	case FormatMP3:
		return mp3dec.DecodeMono(path)
	case FormatOGG:
		return oggdec.DecodeMono(path)
	case FormatM4A:
		res, ferr := ffmpegx.DecodeFile(ctx, path, 0, 1)
		if ferr != nil {
			return nil, 0, ferr
		}
		return res.Interleaved, res.SampleRate, nil
	default:
		return nil, 0, waverrors.Newf("unsupported input format").
			Component("dsp").Category(waverrors.CategoryFormat).Context("path", path).Build()
	}
}

// DecodeMulti decodes path to per-channel float32 slices and its native
// sample rate.
func DecodeMulti(ctx context.Context, path string) (channels [][]float32, sampleRate int, err error) {
	switch DetectFormat(path) {
	case FormatWAV:
		return wavio.DecodeMulti(path)
	case FormatMP3:
		return mp3dec.DecodeMulti(path)
	case FormatOGG:
		return oggdec.DecodeMulti(path)
	case FormatM4A:
		res, ferr := ffmpegx.DecodeFile(ctx, path, 0, 0)
		if ferr != nil {
			return nil, 0, ferr
		}
		return deinterleave(res.Interleaved, res.Channels), res.SampleRate, nil
	default:
		return nil, 0, waverrors.Newf("unsupported input format").
			Component("dsp").Category(waverrors.CategoryFormat).Context("path", path).Build()
	}
}

// DecodeMonoPrefix decodes at most maxSecs of mono audio from path,
// reporting whether the decode was stopped early.
func DecodeMonoPrefix(ctx context.Context, path string, maxSecs float64) (samples []float32, sampleRate int, truncated bool, err error) {
	switch DetectFormat(path) {
	case FormatMP3:
		return mp3dec.DecodeMonoPrefix(path, maxSecs)
	case FormatOGG:
		return oggdec.DecodeMonoPrefix(path, maxSecs)
	default:
		mono, sr, derr := DecodeMono(ctx, path)
		if derr != nil {
			return nil, 0, false, derr
		}
		maxSamples := int(maxSecs * float64(sr))
		if maxSamples > 0 && len(mono) > maxSamples {
			return mono[:maxSamples], sr, true, nil
		}
		return mono, sr, false, nil
	}
}

// Probe holds the subset of a file's format info this module surfaces in
// metadata records (spec.md §4.7): channels, sample rate, bit depth (0 if
// not meaningful for the codec), bit rate (0 if not applicable), duration.
type Probe struct {
	Channels   int
	SampleRate int
	BitDepth   int
	BitRateBps int
	DurationS  float64
}

// ProbeFile reads format metadata without decoding full sample data where
// the codec allows it.
func ProbeFile(ctx context.Context, path string) (*Probe, error) {
	switch DetectFormat(path) {
	case FormatWAV:
		p, err := wavio.ProbeFile(path)
		if err != nil {
			return nil, err
		}
		return &Probe{Channels: p.Channels, SampleRate: p.SampleRate, BitDepth: p.BitDepth}, nil
	case FormatM4A:
		p, err := mp4io.ProbeFile(path)
		if err != nil {
			return nil, err
		}
		return &Probe{Channels: p.Channels, SampleRate: p.SampleRate, DurationS: p.DurationS}, nil
	default:
		p, err := ffmpegx.ProbeFormat(ctx, path)
		if err != nil {
			return nil, err
		}
		return &Probe{Channels: p.Channels, SampleRate: p.SampleRate, BitRateBps: p.BitRate, DurationS: p.DurationS}, nil
	}
}

func deinterleave(samples []float32, channels int) [][]float32 {
	if channels <= 0 {
		channels = 1
	}
	n := len(samples) / channels
	out := make([][]float32, channels)
	for c := 0; c < channels; c++ {
		out[c] = make([]float32, n)
	}
	for i := 0; i < n; i++ {
		for c := 0; c < channels; c++ {
			out[c][i] = samples[i*channels+c]
		}
	}
	return out
}
