// Package engine implements the realtime, lock-free audio playback engine
// described in spec.md §4.1: a producer/consumer pair where the UI thread
// publishes parameters and sample buffers through atomics and an audio host
// thread renders frames without allocating or blocking.
package engine

import (
	"math"
	"sync/atomic"
)

// LoopShape selects the crossfade window shape used at loop boundaries.
type LoopShape int32

const (
	LoopLinear LoopShape = iota
	LoopEqualPower
)

const (
	MinRate = 0.25
	MaxRate = 4.0
)

// SharedPlaybackState holds every field the realtime callback reads or
// writes. Every field is an atomic; the only mutable shared collection is
// the sample buffer, held behind an atomically-swappable pointer. The UI
// thread and the audio host thread never take a lock against each other.
type SharedPlaybackState struct {
	buffer atomic.Pointer[[]float32]

	volBits      atomic.Uint32
	fileGainBits atomic.Uint32
	playing      atomic.Bool
	playPos      atomic.Int64
	playPosFBits atomic.Uint64
	rateBits     atomic.Uint32

	loopEnabled      atomic.Bool
	loopStart        atomic.Int64
	loopEnd          atomic.Int64
	loopXfadeSamples atomic.Int64
	loopXfadeShape   atomic.Int32

	meterRMSBits atomic.Uint64

	outSampleRate int
}

// NewSharedPlaybackState returns a state initialized to silence: no buffer,
// unity gain, default 1.0 rate, loop disabled.
func NewSharedPlaybackState(outSampleRate int) *SharedPlaybackState {
	s := &SharedPlaybackState{outSampleRate: outSampleRate}
	s.setVol(1.0)
	s.setFileGain(1.0)
	s.setRate(1.0)
	return s
}

func f32bits(v float32) uint32 { return math.Float32bits(v) }
func bitsf32(b uint32) float32 { return math.Float32frombits(b) }
func f64bits(v float64) uint64 { return math.Float64bits(v) }
func bitsf64(b uint64) float64 { return math.Float64frombits(b) }

func (s *SharedPlaybackState) setVol(v float32)      { s.volBits.Store(f32bits(v)) }
func (s *SharedPlaybackState) getVol() float32        { return bitsf32(s.volBits.Load()) }
func (s *SharedPlaybackState) setFileGain(v float32)  { s.fileGainBits.Store(f32bits(v)) }
func (s *SharedPlaybackState) getFileGain() float32    { return bitsf32(s.fileGainBits.Load()) }

func clampRate(r float32) float32 {
	if r < MinRate {
		return MinRate
	}
	if r > MaxRate {
		return MaxRate
	}
	return r
}

func (s *SharedPlaybackState) setRate(r float32) { s.rateBits.Store(f32bits(clampRate(r))) }
func (s *SharedPlaybackState) getRate() float32   { return bitsf32(s.rateBits.Load()) }

func (s *SharedPlaybackState) setPlayPosF(v float64) { s.playPosFBits.Store(f64bits(v)) }
func (s *SharedPlaybackState) getPlayPosF() float64   { return bitsf64(s.playPosFBits.Load()) }

func (s *SharedPlaybackState) setMeterRMS(v float64) { s.meterRMSBits.Store(f64bits(v)) }

// MeterRMS returns the most recently computed RMS level of the mixed output.
func (s *SharedPlaybackState) MeterRMS() float64 { return bitsf64(s.meterRMSBits.Load()) }

// Playing reports whether the engine is currently producing audio.
func (s *SharedPlaybackState) Playing() bool { return s.playing.Load() }

// PlayPos returns the integer sample position of the read head.
func (s *SharedPlaybackState) PlayPos() int64 { return s.playPos.Load() }

// OutSampleRate returns the immutable device output sample rate.
func (s *SharedPlaybackState) OutSampleRate() int { return s.outSampleRate }

func (s *SharedPlaybackState) bufferLen() int {
	p := s.buffer.Load()
	if p == nil {
		return 0
	}
	return len(*p)
}
