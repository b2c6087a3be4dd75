package dsp

import (
	"path/filepath"
	"strings"

	"github.com/tphakala/waves-previewer/internal/dsp/mp3enc"
	"github.com/tphakala/waves-previewer/internal/dsp/mp4io"
	"github.com/tphakala/waves-previewer/internal/dsp/wavio"
	waverrors "github.com/tphakala/waves-previewer/internal/errors"
)

// SupportedOutputExtensions lists the extensions the export pipeline may
// resolve to (spec.md §6).
var SupportedOutputExtensions = map[string]bool{
	"wav": true, "mp3": true, "m4a": true,
}

// WriteFile dispatches to the writer for ext (without the leading dot,
// case-insensitive), quantizing/resampling as each format requires.
// wavDepth is only consulted when ext is "wav".
func WriteFile(path, ext string, channels [][]float32, sampleRate int, wavDepth wavio.BitDepth) error {
	switch strings.ToLower(ext) {
	case "wav":
		return wavio.WriteWav(path, channels, sampleRate, wavDepth)
	case "mp3":
		mono2 := normalizeToMonoOrStereo(channels)
		rate := mp3enc.ResolveSampleRate(sampleRate)
		if rate != sampleRate {
			mono2 = ResampleQuality(mono2, sampleRate, rate, Best)
		}
		return mp3enc.Encode(path, mono2, rate)
	case "m4a":
		mono2 := normalizeToMonoOrStereo(channels)
		rate := mp4io.ResolveSampleRate(sampleRate)
		if rate != sampleRate {
			mono2 = ResampleQuality(mono2, sampleRate, rate, Best)
		}
		return mp4io.EncodeAAC(path, mono2, rate)
	default:
		return waverrors.Newf("unsupported output format %q", ext).
			Component("dsp").Category(waverrors.CategoryFormat).Build()
	}
}

// normalizeToMonoOrStereo passes mono and stereo through unchanged and
// downmixes higher channel counts to stereo (even-indexed channels summed
// into left, odd-indexed into right) for the mono/stereo pair MP3 and AAC-LC
// encoding here support.
func normalizeToMonoOrStereo(channels [][]float32) [][]float32 {
	switch len(channels) {
	case 0:
		return [][]float32{{}}
	case 1, 2:
		return channels
	default:
		n := len(channels[0])
		left := make([]float32, n)
		right := make([]float32, n)
		for ci, c := range channels {
			dst := left
			if ci%2 == 1 {
				dst = right
			}
			for i := 0; i < n && i < len(c); i++ {
				dst[i] += c[i]
			}
		}
		return [][]float32{left, right}
	}
}

// ExtensionFor resolves the lowercase extension (without dot) for a path.
func ExtensionFor(path string) string {
	ext := filepath.Ext(path)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
