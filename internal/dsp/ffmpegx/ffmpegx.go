// Package ffmpegx decodes audio files through an external ffmpeg process,
// used as the decoder for containers with no pure-Go decoder in this
// module's dependency stack (M4A/AAC), and probes through ffprobe the
// formats the in-process header readers do not cover. Inputs an in-process
// decoder rejects are not retried through ffmpeg.
package ffmpegx

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os/exec"
	"time"

	"github.com/tphakala/waves-previewer/internal/conf"
	waverrors "github.com/tphakala/waves-previewer/internal/errors"
	"github.com/tphakala/waves-previewer/internal/logging"
)

var logger = logging.ForService("dsp.ffmpegx")

// DecodeResult is raw interleaved PCM decoded at the requested rate/channels.
type DecodeResult struct {
	Interleaved []float32
	SampleRate  int
	Channels    int
}

// DecodeFile runs ffmpeg to decode path to interleaved 32-bit float PCM at
// outSampleRate/outChannels. Passing outChannels 0 keeps the source channel
// count. Passing outSampleRate 0 keeps the source sample rate.
func DecodeFile(ctx context.Context, path string, outSampleRate, outChannels int) (*DecodeResult, error) {
	settings := conf.Setting().Decode
	ffmpegPath := settings.FfmpegPath
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	timeout := settings.FfmpegTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{"-hide_banner", "-loglevel", "error", "-i", path, "-f", "f32le"}
	if outSampleRate > 0 {
		args = append(args, "-ar", fmt.Sprintf("%d", outSampleRate))
	}
	if outChannels > 0 {
		args = append(args, "-ac", fmt.Sprintf("%d", outChannels))
	}
	args = append(args, "-")

	cmd := exec.CommandContext(cctx, ffmpegPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if logger != nil {
		logger.Debug("decoding via ffmpeg", "path", path, "args", len(args))
	}

	if err := cmd.Run(); err != nil {
		return nil, waverrors.Newf("ffmpeg decode failed: %w", err).
			Component("dsp.ffmpegx").Category(waverrors.CategoryDecode).
			Context("path", path).Context("stderr", stderr.String()).Build()
	}

	raw := stdout.Bytes()
	n := len(raw) / 4
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
		samples[i] = math.Float32frombits(bits)
	}

	sr := outSampleRate
	ch := outChannels
	if sr == 0 || ch == 0 {
		probed, err := ProbeFormat(ctx, path)
		if err == nil {
			if sr == 0 {
				sr = probed.SampleRate
			}
			if ch == 0 {
				ch = probed.Channels
			}
		}
	}

	return &DecodeResult{Interleaved: samples, SampleRate: sr, Channels: ch}, nil
}

// ProbedFormat is the subset of ffprobe's stream info this module consumes.
type ProbedFormat struct {
	SampleRate int
	Channels   int
	BitRate    int
	DurationS  float64
}

// ProbeFormat shells out to ffprobe for sample rate, channel count, bit
// rate, and duration, used by metadata probing when a file's native tags
// don't expose them.
func ProbeFormat(ctx context.Context, path string) (*ProbedFormat, error) {
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(cctx, "ffprobe",
		"-hide_banner", "-loglevel", "error",
		"-show_entries", "stream=sample_rate,channels,bit_rate:format=duration",
		"-of", "default=noprint_wrappers=1", path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, waverrors.Newf("ffprobe failed: %w", err).
			Component("dsp.ffmpegx").Category(waverrors.CategoryDecode).
			Context("path", path).Context("stderr", stderr.String()).Build()
	}

	return parseFFprobeOutput(stdout.String()), nil
}

func parseFFprobeOutput(s string) *ProbedFormat {
	out := &ProbedFormat{}
	var key, val string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '\n' {
			line := s[start:i]
			start = i + 1
			eq := -1
			for j := 0; j < len(line); j++ {
				if line[j] == '=' {
					eq = j
					break
				}
			}
			if eq < 0 {
				continue
			}
			key, val = line[:eq], line[eq+1:]
			switch key {
			case "sample_rate":
				fmt.Sscanf(val, "%d", &out.SampleRate)
			case "channels":
				if out.Channels == 0 {
					fmt.Sscanf(val, "%d", &out.Channels)
				}
			case "bit_rate":
				fmt.Sscanf(val, "%d", &out.BitRate)
			case "duration":
				fmt.Sscanf(val, "%f", &out.DurationS)
			}
		}
	}
	return out
}
