package engine

import (
	"github.com/gen2brain/malgo"

	waverrors "github.com/tphakala/waves-previewer/internal/errors"
	"github.com/tphakala/waves-previewer/internal/logging"
)

// Engine is the realtime playback engine: a SharedPlaybackState driven by a
// malgo playback device. All setters below run on the UI/control thread and
// publish through atomics; fillFrames runs on the audio host's own thread.
type Engine struct {
	state   *SharedPlaybackState
	channels int

	ctx    *malgo.AllocatedContext
	device *malgo.Device
}

// New opens a real playback device at sampleRate/channels and starts the
// realtime callback. Returns an Engine whose Close stops the device and
// releases the malgo context.
func New(sampleRate, channels int, outputDeviceName string) (*Engine, error) {
	e := &Engine{
		state:    NewSharedPlaybackState(sampleRate),
		channels: channels,
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		if l := logging.ForService("audio.engine"); l != nil {
			l.Debug(msg)
		}
	})
	if err != nil {
		return nil, waverrors.Newf("initializing audio context: %w", err).
			Component("audio.engine").Category(waverrors.CategoryResource).Build()
	}
	e.ctx = ctx

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = uint32(channels)
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	onSamples := func(out, _ []byte, frameCount uint32) {
		floatOut := bytesToFloat32Slice(out)
		e.state.fillFrames(floatOut, int(frameCount), channels)
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onSamples,
	})
	if err != nil {
		_ = ctx.Uninit()
		return nil, waverrors.Newf("initializing playback device: %w", err).
			Component("audio.engine").Category(waverrors.CategoryResource).Build()
	}
	e.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		return nil, waverrors.Newf("starting playback device: %w", err).
			Component("audio.engine").Category(waverrors.CategoryResource).Build()
	}

	return e, nil
}

// NewTestEngine returns an Engine with no live device: fillFrames can be
// invoked directly from tests via RenderForTest.
func NewTestEngine(sampleRate, channels int) *Engine {
	return &Engine{
		state:    NewSharedPlaybackState(sampleRate),
		channels: channels,
	}
}

// RenderForTest drives the realtime callback directly, for use by tests and
// by non-device harnesses (e.g. offline metering). Not used when a live
// malgo device is attached.
func (e *Engine) RenderForTest(out []float32, frameCount int) {
	e.state.fillFrames(out, frameCount, e.channels)
}

// Close stops and releases the playback device, if one was opened.
func (e *Engine) Close() error {
	if e.device != nil {
		e.device.Uninit()
	}
	if e.ctx != nil {
		return e.ctx.Uninit()
	}
	return nil
}

// SetSamples publishes a new mono sample buffer and resets the read head to
// the start. The caller is responsible for stopping playback first if a
// clean cut is desired (see editor's snapshot/mutate/publish sequence).
func (e *Engine) SetSamples(samples []float32) {
	clone := append([]float32(nil), samples...)
	e.state.buffer.Store(&clone)
	e.state.setPlayPosF(0)
	e.state.playPos.Store(0)
}

// ReplaceSamplesKeepPos swaps in a new buffer while preserving the current
// playback position, clamped to the new buffer's length. Used when a light
// edit (gain, fade) changes sample values but not the intended cursor.
func (e *Engine) ReplaceSamplesKeepPos(samples []float32) {
	oldLen := e.state.bufferLen()
	oldPos := e.state.getPlayPosF()

	clone := append([]float32(nil), samples...)
	e.state.buffer.Store(&clone)

	newLen := len(clone)
	pos := oldPos
	if newLen == 0 {
		pos = 0
	} else if pos >= float64(newLen) {
		pos = float64(newLen - 1)
	}
	e.state.setPlayPosF(pos)
	e.state.playPos.Store(int64(pos))

	loopEnd := int(e.state.loopEnd.Load())
	if loopEnd == oldLen && oldLen != newLen {
		e.state.loopEnd.Store(int64(newLen))
	}
}

// SetSamplesChannels mixes a multichannel buffer down to mono (equal-weight
// average across channels) and publishes it via SetSamples. The editor
// (internal/editor) uses this to publish ch_samples after every mutating
// operation, since the realtime engine streams a single mono stream
// (spec.md §1 "streams mono samples to the host audio device").
func (e *Engine) SetSamplesChannels(channels [][]float32) {
	e.SetSamples(mixdown(channels))
}

// ReplaceSamplesChannelsKeepPos is the position-preserving counterpart of
// SetSamplesChannels, used for light edits that change sample values but
// not the intended cursor (spec.md §4.4 step 3, §4.1 "Ordering").
func (e *Engine) ReplaceSamplesChannelsKeepPos(channels [][]float32) {
	e.ReplaceSamplesKeepPos(mixdown(channels))
}

// mixdown averages channels sample-by-sample into a single mono slice.
func mixdown(channels [][]float32) []float32 {
	if len(channels) == 0 {
		return nil
	}
	if len(channels) == 1 {
		return channels[0]
	}
	n := 0
	for _, c := range channels {
		if len(c) > n {
			n = len(c)
		}
	}
	out := make([]float32, n)
	for _, c := range channels {
		for i, v := range c {
			out[i] += v
		}
	}
	inv := float32(1) / float32(len(channels))
	for i := range out {
		out[i] *= inv
	}
	return out
}

// Play starts (or resumes) playback from the current position.
func (e *Engine) Play() { e.state.playing.Store(true) }

// Stop halts playback without moving the read head.
func (e *Engine) Stop() { e.state.playing.Store(false) }

// TogglePlay flips the playing flag and reports the new state.
func (e *Engine) TogglePlay() bool {
	for {
		cur := e.state.playing.Load()
		if e.state.playing.CompareAndSwap(cur, !cur) {
			return !cur
		}
	}
}

// SeekToSample moves the read head to an absolute sample index, clamped to
// the current buffer's bounds.
func (e *Engine) SeekToSample(pos int64) {
	n := int64(e.state.bufferLen())
	if pos < 0 {
		pos = 0
	}
	if n > 0 && pos >= n {
		pos = n - 1
	}
	e.state.setPlayPosF(float64(pos))
	e.state.playPos.Store(pos)
}

// SetRate updates playback speed, clamped to [MinRate, MaxRate].
func (e *Engine) SetRate(rate float32) { e.state.setRate(rate) }

// SetVolume updates the user-facing volume multiplier.
func (e *Engine) SetVolume(vol float32) { e.state.setVol(vol) }

// SetFileGain updates the per-file gain multiplier (e.g. from a normalize
// operation), independent of the user volume control.
func (e *Engine) SetFileGain(gain float32) { e.state.setFileGain(gain) }

// SetLoopEnabled toggles whether the read head wraps at loop_end back to
// loop_start instead of stopping at the buffer's end.
func (e *Engine) SetLoopEnabled(enabled bool) { e.state.loopEnabled.Store(enabled) }

// SetLoopRegion sets the loop boundaries, in samples, at the engine's
// internal sample rate.
func (e *Engine) SetLoopRegion(start, end int64) {
	e.state.loopStart.Store(start)
	e.state.loopEnd.Store(end)
}

// SetLoopCrossfade sets the requested crossfade length (in samples, before
// clamping to half the loop length and to either tail) and its shape.
func (e *Engine) SetLoopCrossfade(samples int64, shape LoopShape) {
	e.state.loopXfadeSamples.Store(samples)
	e.state.loopXfadeShape.Store(int32(shape))
}

// State exposes the underlying shared state for read-only metering queries.
func (e *Engine) State() *SharedPlaybackState { return e.state }

func bytesToFloat32Slice(b []byte) []float32 {
	n := len(b) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := uint32(b[i*4]) | uint32(b[i*4+1])<<8 | uint32(b[i*4+2])<<16 | uint32(b[i*4+3])<<24
		out[i] = bitsf32(bits)
	}
	return out
}
