package editor

import (
	"math"

	"github.com/tphakala/waves-previewer/internal/dsp"
	"github.com/tphakala/waves-previewer/internal/engine"
)

// HeavyApplyResult is what a heavy-apply worker sends back
// (spec.md §4.4 "Async heavy apply": "{tab_idx, channels, mixdown,
// lufs_override?}"). Generation lets CommitHeavyApply drop a result whose
// job was since cancelled or superseded.
type HeavyApplyResult struct {
	Channels     [][]float32
	LUFSOverride *float64
	Generation   uint64
}

// decodeDependentTool reports whether kind requires clean decode of the
// current buffer (spec.md §4.9: "operations that depend on clean decode
// (PitchShift/TimeStretch heavy apply) short-circuit" on paths with a
// recorded decode failure).
func decodeDependentTool(kind ToolKind) bool {
	return kind == ToolPitchShift || kind == ToolTimeStretch
}

// StartHeavyApply captures undo, stops playback, clones ch_samples, and
// spawns the offline DSP worker goroutine for kind (PitchShift,
// TimeStretch, or LoudnessNormalize). The returned channel receives
// exactly one HeavyApplyResult; a caller that no longer wants it may
// simply stop reading — spec.md §5 "Cancellation": "workers finish
// silently and their sends are ignored" (the channel is buffered so the
// goroutine never blocks on an abandoned receiver).
//
// decodeFailed, if non-nil, is consulted for PitchShift/TimeStretch: when it
// reports true for the tab's path, the job is refused and StartHeavyApply
// returns nil rather than spawning a worker (spec.md §4.9).
func (t *Tab) StartHeavyApply(eng *engine.Engine, kind ToolKind, param float64, decodeFailed func(path string) bool) <-chan HeavyApplyResult {
	if decodeFailed != nil && decodeDependentTool(kind) && decodeFailed(t.Path) {
		return nil
	}

	t.pushUndo()
	if eng != nil {
		eng.Stop()
	}

	clone := cloneChannels(t.ChSamples)
	sampleRate := t.SampleRate
	t.heavyGen++
	gen := t.heavyGen

	out := make(chan HeavyApplyResult, 1)
	go func() {
		out <- computeHeavy(kind, clone, sampleRate, param, gen)
	}()
	return out
}

// CancelHeavyApply invalidates the current generation so a subsequently
// delivered result from an in-flight worker is dropped by
// CommitHeavyApply.
func (t *Tab) CancelHeavyApply() { t.heavyGen++ }

// CommitHeavyApply applies result if it is still current, following
// spec.md §4.4's "On receipt" list. Returns false (no-op) if the result's
// generation has been superseded by a newer StartHeavyApply or
// CancelHeavyApply call.
func (t *Tab) CommitHeavyApply(eng *engine.Engine, invalidateSpectrogram func(path string), result HeavyApplyResult) bool {
	if result.Generation != t.heavyGen {
		return false
	}

	oldLen := t.SamplesLen
	t.ChSamples = result.Channels
	t.SamplesLen = t.channelLen()

	if oldLen > 0 && t.SamplesLen != oldLen {
		ratio := float64(t.SamplesLen) / float64(oldLen)
		t.ViewOffset = int(float64(t.ViewOffset) * ratio)
		t.SamplesPerPx *= ratio
		t.LoopXfadeSamples = int(float64(t.LoopXfadeSamples) * ratio)
	}

	t.PreviewAudioTool = ToolNone
	t.PreviewOverlay = nil
	t.Dirty = true
	t.clampRanges()
	t.publish(eng)

	if invalidateSpectrogram != nil {
		invalidateSpectrogram(t.Path)
	}
	return true
}

func computeHeavy(kind ToolKind, channels [][]float32, sampleRate int, param float64, gen uint64) HeavyApplyResult {
	switch kind {
	case ToolPitchShift:
		out := make([][]float32, len(channels))
		for i, c := range channels {
			out[i] = dsp.PitchShift(c, sampleRate, param)
		}
		return HeavyApplyResult{Channels: out, Generation: gen}
	case ToolTimeStretch:
		out := make([][]float32, len(channels))
		for i, c := range channels {
			out[i] = dsp.TimeStretch(c, param)
		}
		return HeavyApplyResult{Channels: out, Generation: gen}
	case ToolLoudnessNormalize:
		current := dsp.LUFSIntegrated(channels, sampleRate)
		out := cloneChannels(channels)
		if !math.IsInf(current, -1) {
			gainDB := param - current
			scalar := float32(math.Pow(10, gainDB/20))
			for _, c := range out {
				for i, v := range c {
					c[i] = clampUnit(v * scalar)
				}
			}
		}
		lufs := param
		return HeavyApplyResult{Channels: out, LUFSOverride: &lufs, Generation: gen}
	default:
		return HeavyApplyResult{Channels: cloneChannels(channels), Generation: gen}
	}
}

func cloneChannels(channels [][]float32) [][]float32 {
	out := make([][]float32, len(channels))
	for i, c := range channels {
		out[i] = append([]float32(nil), c...)
	}
	return out
}

