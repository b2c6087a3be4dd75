package mp4io

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
)

// aacSampleRates are the valid MPEG-4 AAC sampling-frequency-index rates.
var aacSampleRates = map[int]bool{
	96000: true, 88200: true, 64000: true, 48000: true, 44100: true,
	32000: true, 24000: true, 22050: true, 16000: true, 12000: true,
	11025: true, 8000: true, 7350: true,
}

const fallbackAACRate = 48000

// ResolveSampleRate returns rate if it is a valid AAC sampling-frequency
// index, otherwise the 48 kHz fallback (spec.md §4.2/§6).
func ResolveSampleRate(rate int) int {
	if aacSampleRates[rate] {
		return rate
	}
	return fallbackAACRate
}

func bitrateFor(channels int) int {
	if channels == 1 {
		return 96000
	}
	return 192000
}

// EncodeAAC muxes channel data into an M4A/MP4-AAC-LC file at CBR
// (mono 96 kbps / stereo 192 kbps), via an ffmpeg subprocess: the actual
// AAC-LC psychoacoustic encode and MP4 muxing are delegated to ffmpeg
// since no pure-Go AAC-LC encoder exists among this module's dependencies.
func EncodeAAC(path string, channels [][]float32, sampleRate int) error {
	numChans := len(channels)
	if numChans != 1 && numChans != 2 {
		return waverrors.Newf("aac encode requires mono or stereo, got %d channels", numChans).
			Component("dsp.mp4io").Category(waverrors.CategoryValidation).Build()
	}

	outRate := ResolveSampleRate(sampleRate)

	frames := 0
	for _, c := range channels {
		if len(c) > frames {
			frames = len(c)
		}
	}
	pcm := make([]byte, frames*numChans*4)
	for i := 0; i < frames; i++ {
		for c := 0; c < numChans; c++ {
			var v float32
			if i < len(channels[c]) {
				v = channels[c][i]
			}
			binary.LittleEndian.PutUint32(pcm[(i*numChans+c)*4:], math.Float32bits(v))
		}
	}

	settings := conf.Setting().Decode
	ffmpegPath := settings.FfmpegPath
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	timeout := settings.FfmpegTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "f32le", "-ar", fmt.Sprintf("%d", sampleRate), "-ac", fmt.Sprintf("%d", numChans), "-i", "-",
		"-ar", fmt.Sprintf("%d", outRate),
		"-c:a", "aac", "-b:a", fmt.Sprintf("%d", bitrateFor(numChans)),
		"-movflags", "+faststart",
		"-f", "mp4", path,
	}
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	cmd.Stdin = bytes.NewReader(pcm)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return waverrors.Newf("ffmpeg aac encode failed: %w", err).
			Component("dsp.mp4io").Category(waverrors.CategoryWrite).
			Context("path", path).Context("stderr", stderr.String()).Build()
	}
	return nil
}
