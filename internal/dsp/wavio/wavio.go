// Package wavio reads and writes WAV (RIFF/WAVE) PCM and IEEE-float audio,
// built on go-audio/wav for decode and PCM encode, with a small hand-rolled
// writer for the 32-bit float variant that go-audio/wav's encoder does not
// expose.
package wavio

import (
	"encoding/binary"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	waverrors "github.com/tphakala/waves-previewer/internal/errors"
)

// BitDepth identifies a target sample format for WAV output.
type BitDepth int

const (
	PCM16 BitDepth = iota
	PCM24
	Float32
)

// Probe holds the format info read from a WAV file's header.
type Probe struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

func openDecoder(path string) (*os.File, *wav.Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, waverrors.Newf("opening wav: %w", err).
			Component("dsp.wavio").Category(waverrors.CategoryFileIO).Context("path", path).Build()
	}
	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		f.Close()
		return nil, nil, waverrors.Newf("not a valid wav file").
			Component("dsp.wavio").Category(waverrors.CategoryFormat).Context("path", path).Build()
	}
	return f, dec, nil
}

// ProbeFile reads a WAV header without decoding sample data.
func ProbeFile(path string) (*Probe, error) {
	f, dec, err := openDecoder(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return &Probe{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}, nil
}

// DecodeMulti decodes every channel of a WAV file into separate float32
// slices in [-1, 1], plus the file's native sample rate.
func DecodeMulti(path string) (channels [][]float32, sampleRate int, err error) {
	f, dec, err := openDecoder(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	numChans := int(dec.NumChans)
	if numChans <= 0 {
		return nil, 0, waverrors.Newf("wav has no channels").
			Component("dsp.wavio").Category(waverrors.CategoryUnknownRate).Context("path", path).Build()
	}

	divisor, err := divisorForBitDepth(int(dec.BitDepth))
	if err != nil {
		return nil, 0, err
	}

	const step = 4096
	buf := &goaudio.IntBuffer{
		Data:   make([]int, step*numChans),
		Format: &goaudio.Format{SampleRate: int(dec.SampleRate), NumChannels: numChans},
	}

	channels = make([][]float32, numChans)
	for {
		n, rerr := dec.PCMBuffer(buf)
		if rerr != nil && rerr != io.EOF {
			return nil, 0, waverrors.Newf("decoding wav pcm: %w", rerr).
				Component("dsp.wavio").Category(waverrors.CategoryDecode).Context("path", path).Build()
		}
		if n == 0 {
			break
		}
		frames := n / numChans
		for c := 0; c < numChans; c++ {
			for i := 0; i < frames; i++ {
				channels[c] = append(channels[c], float32(buf.Data[i*numChans+c])/divisor)
			}
		}
		if rerr == io.EOF {
			break
		}
	}

	return channels, int(dec.SampleRate), nil
}

// DecodeMono decodes a WAV file and mixes all channels down to mono by
// averaging.
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
	inv := 1.0 / float32(len(channels))
	for i := range mono {
		mono[i] *= inv
	}
	return mono, sr, nil
}

func divisorForBitDepth(bits int) (float32, error) {
	switch bits {
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, waverrors.Newf("unsupported wav bit depth %d", bits).
			Component("dsp.wavio").Category(waverrors.CategoryFormat).Build()
	}
}

// maxAbsForBits returns 2^(bits-1) - 1, the PCM saturation ceiling.
func maxAbsForBits(bits int) float64 {
	return float64(int64(1)<<(bits-1)) - 1
}

// WriteWav writes interleaved channel data to path at the requested bit
// depth, quantizing floats with saturation at ±max_abs for PCM variants.
func WriteWav(path string, channels [][]float32, sampleRate int, depth BitDepth) error {
	if depth == Float32 {
		return writeFloatWav(path, channels, sampleRate)
	}

	bits := 16
	if depth == PCM24 {
		bits = 24
	}

	f, err := os.Create(path)
	if err != nil {
		return waverrors.Newf("creating wav: %w", err).
			Component("dsp.wavio").Category(waverrors.CategoryFileIO).Context("path", path).Build()
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bits, len(channels), 1)
	maxAbs := maxAbsForBits(bits)

	frames := 0
	for _, c := range channels {
		if len(c) > frames {
			frames = len(c)
		}
	}

	data := make([]int, frames*len(channels))
	for c, samples := range channels {
		for i, v := range samples {
			scaled := float64(v) * maxAbs
			if scaled > maxAbs {
				scaled = maxAbs
			} else if scaled < -maxAbs {
				scaled = -maxAbs
			}
			data[i*len(channels)+c] = int(math.Round(scaled))
		}
	}

	buf := &goaudio.IntBuffer{
		Data:   data,
		Format: &goaudio.Format{SampleRate: sampleRate, NumChannels: len(channels)},
	}
	if err := enc.Write(buf); err != nil {
		return waverrors.Newf("writing wav pcm: %w", err).
			Component("dsp.wavio").Category(waverrors.CategoryWrite).Context("path", path).Build()
	}
	if err := enc.Close(); err != nil {
		return waverrors.Newf("closing wav encoder: %w", err).
			Component("dsp.wavio").Category(waverrors.CategoryWrite).Context("path", path).Build()
	}
	return nil
}

// writeFloatWav hand-writes a 32-bit IEEE-float RIFF/WAVE file. go-audio/wav's
// Encoder only writes integer PCM, so the float32 output variant (spec.md
// §4.2/§6) is assembled directly against the RIFF layout instead.
func writeFloatWav(path string, channels [][]float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return waverrors.Newf("creating wav: %w", err).
			Component("dsp.wavio").Category(waverrors.CategoryFileIO).Context("path", path).Build()
	}
	defer f.Close()

	numChans := len(channels)
	frames := 0
	for _, c := range channels {
		if len(c) > frames {
			frames = len(c)
		}
	}
	dataBytes := frames * numChans * 4
	byteRate := sampleRate * numChans * 4
	blockAlign := numChans * 4

	hdr := make([]byte, 0, 44)
	hdr = append(hdr, []byte("RIFF")...)
	hdr = appendU32(hdr, uint32(36+dataBytes))
	hdr = append(hdr, []byte("WAVE")...)
	hdr = append(hdr, []byte("fmt ")...)
	hdr = appendU32(hdr, 16)
	hdr = appendU16(hdr, 3) // IEEE float
	hdr = appendU16(hdr, uint16(numChans))
	hdr = appendU32(hdr, uint32(sampleRate))
	hdr = appendU32(hdr, uint32(byteRate))
	hdr = appendU16(hdr, uint16(blockAlign))
	hdr = appendU16(hdr, 32)
	hdr = append(hdr, []byte("data")...)
	hdr = appendU32(hdr, uint32(dataBytes))

	if _, err := f.Write(hdr); err != nil {
		return waverrors.Newf("writing wav header: %w", err).
			Component("dsp.wavio").Category(waverrors.CategoryWrite).Build()
	}

	sampleBuf := make([]byte, 4*numChans)
	for i := 0; i < frames; i++ {
		for c := 0; c < numChans; c++ {
			var v float32
			if i < len(channels[c]) {
				v = channels[c][i]
			}
			binary.LittleEndian.PutUint32(sampleBuf[c*4:c*4+4], math.Float32bits(v))
		}
		if _, err := f.Write(sampleBuf); err != nil {
			return waverrors.Newf("writing wav samples: %w", err).
				Component("dsp.wavio").Category(waverrors.CategoryWrite).Build()
		}
	}
	return nil
}

func appendU32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendU16(b []byte, v uint16) []byte {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	return append(b, tmp[:]...)
}
