// Package preview implements the non-destructive "what would the active
// tool do" overlay described in spec.md §4.5: deriving audio and waveform
// state from a tab's committed ch_samples without mutating it, refreshing
// it on tool/parameter/visibility change, and dismissing it the moment a
// real edit, view-mode change, or tab switch occurs.
package preview

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/tphakala/waves-previewer/internal/dsp"
	"github.com/tphakala/waves-previewer/internal/editor"
	"github.com/tphakala/waves-previewer/internal/engine"
)

// LightLengthSamples is the length threshold below which a preview is
// derived synchronously on the calling goroutine; at or above it (or for
// an always-heavy tool, or a dirty tab) the refresh is pushed to worker
// goroutines (spec.md §4.5 "Light tools" / "Heavy tools").
const LightLengthSamples = 5_000_000 // ~100s of mono audio at 48kHz/ch

// Params carries the parameters of whichever tool is active; only the
// fields relevant to ToolKind need to be set.
type Params struct {
	Range     *editor.Range
	Shape     editor.FadeShape
	GainDB    float64
	TargetDB  float64
	Semitones float64
	Rate      float64
	Repeats   int
}

// Generation is a monotonically increasing counter shared by a tab's two
// heavy-preview workers (mixdown + per-channel overlay), so stale results
// from a superseded refresh are recognized and dropped (spec.md §4.5
// "tagged with a generation counter. Drop results whose generation is
// stale").
type Generation struct {
	counter atomic.Uint64
}

// Next bumps and returns the new current generation.
func (g *Generation) Next() uint64 { return g.counter.Add(1) }

// Current returns the generation without bumping it.
func (g *Generation) Current() uint64 { return g.counter.Load() }

// Coordinator owns the in-flight state for one tab's preview refreshes:
// the shared generation counter and whether a refresh is currently
// running, so refresh_tool_preview_for_tab can be a no-op while one is
// already in flight (spec.md §4.5 "unless a preview or heavy overlay
// worker is already in flight").
type Coordinator struct {
	mu        sync.Mutex
	gen       Generation
	inFlight  bool
}

// NewCoordinator returns a Coordinator for one tab.
func NewCoordinator() *Coordinator { return &Coordinator{} }

// HeavyResult is what a heavy-preview worker delivers back to the UI
// thread: the derived per-channel overlay, its mixdown, and the
// generation it was computed for.
type HeavyResult struct {
	Channels   [][]float32
	Mixdown    []float32
	Generation uint64
}

// Dismiss clears the tab's preview state and restores the engine to the
// tab's committed channels (spec.md §4.5 "Dismissal"). Call this on any
// real ch_samples mutation, a view-mode change away from Waveform, or a
// tab switch.
func Dismiss(tab *editor.Tab, eng *engine.Engine, coord *Coordinator) {
	if coord != nil {
		coord.mu.Lock()
		coord.gen.Next() // invalidate any in-flight heavy-preview results
		coord.inFlight = false
		coord.mu.Unlock()
	}
	tab.PreviewAudioTool = editor.ToolNone
	tab.PreviewOverlay = nil
	if eng != nil {
		eng.SetSamplesChannels(tab.ChSamples)
	}
}

// shouldRunHeavy classifies a refresh as heavy per spec.md §4.5.
func shouldRunHeavy(tab *editor.Tab, tool editor.ToolKind) bool {
	return tool.Heavy() || tab.SamplesLen > LightLengthSamples || tab.Dirty
}

// RefreshToolPreviewForTab runs the light (synchronous) path when the tool
// and tab qualify, or starts the two heavy-preview workers otherwise,
// returning a channel for the heavy path (nil for the light path, since it
// has already completed by the time this call returns).
func RefreshToolPreviewForTab(tab *editor.Tab, eng *engine.Engine, coord *Coordinator, tool editor.ToolKind, params Params) <-chan HeavyResult {
	coord.mu.Lock()
	if coord.inFlight {
		coord.mu.Unlock()
		return nil
	}
	coord.mu.Unlock()

	if !shouldRunHeavy(tab, tool) {
		channels, err := transform(tab.ChSamples, tab.SampleRate, tool, params)
		if err != nil {
			return nil
		}
		mix := mixdown(channels)
		tab.PreviewOverlay = &editor.PreviewOverlay{
			Channels:    channels,
			Mixdown:     mix,
			SourceTool:  tool,
			TimelineLen: channelLen(channels),
		}
		tab.PreviewAudioTool = tool
		if eng != nil {
			eng.Stop()
			eng.SetSamples(mix)
		}
		return nil
	}

	coord.mu.Lock()
	coord.inFlight = true
	gen := coord.gen.Next()
	coord.mu.Unlock()

	clone := cloneChannels(tab.ChSamples)
	sampleRate := tab.SampleRate
	out := make(chan HeavyResult, 1)

	go func() {
		channels, err := transform(clone, sampleRate, tool, params)
		if err != nil {
			channels = clone
		}
		out <- HeavyResult{Channels: channels, Mixdown: mixdown(channels), Generation: gen}
	}()

	return out
}

// CommitHeavyPreview installs a heavy-preview result if its generation is
// still current, dropping it silently otherwise (spec.md §4.5 "Drop
// results whose generation is stale").
func CommitHeavyPreview(tab *editor.Tab, eng *engine.Engine, coord *Coordinator, tool editor.ToolKind, result HeavyResult) bool {
	coord.mu.Lock()
	current := coord.gen.Current()
	coord.inFlight = false
	coord.mu.Unlock()

	if result.Generation != current {
		return false
	}

	tab.PreviewOverlay = &editor.PreviewOverlay{
		Channels:    result.Channels,
		Mixdown:     result.Mixdown,
		SourceTool:  tool,
		TimelineLen: channelLen(result.Channels),
	}
	tab.PreviewAudioTool = tool
	if eng != nil {
		eng.Stop()
		eng.SetSamples(result.Mixdown)
	}
	return true
}

func transform(channels [][]float32, sampleRate int, tool editor.ToolKind, p Params) ([][]float32, error) {
	out := cloneChannels(channels)
	switch tool {
	case editor.ToolFadeIn, editor.ToolFadeOut:
		if p.Range == nil {
			return out, nil
		}
		applyFadeTransform(out, p.Range.Start, p.Range.End, p.Shape, tool == editor.ToolFadeIn)
	case editor.ToolGain:
		rng := fullRangeIfNil(p.Range, channelLen(out))
		scalar := float32(math.Pow(10, p.GainDB/20))
		scaleRange(out, rng.Start, rng.End, scalar)
	case editor.ToolNormalize:
		rng := fullRangeIfNil(p.Range, channelLen(out))
		normalizeRange(out, rng.Start, rng.End, p.TargetDB)
	case editor.ToolMute:
		if p.Range != nil {
			muteRange(out, p.Range.Start, p.Range.End)
		}
	case editor.ToolReverse:
		rng := fullRangeIfNil(p.Range, channelLen(out))
		reverseRange(out, rng.Start, rng.End)
	case editor.ToolTrim:
		if p.Range != nil {
			out = trimRange(out, p.Range.Start, p.Range.End)
		}
	case editor.ToolPitchShift:
		for i, c := range out {
			out[i] = dsp.PitchShift(c, sampleRate, p.Semitones)
		}
	case editor.ToolTimeStretch:
		for i, c := range out {
			out[i] = dsp.TimeStretch(c, p.Rate)
		}
	case editor.ToolLoudnessNormalize:
		current := dsp.LUFSIntegrated(out, sampleRate)
		if !math.IsInf(current, -1) {
			scalar := float32(math.Pow(10, (p.TargetDB-current)/20))
			scaleRange(out, 0, channelLen(out), scalar)
		}
	}
	return out, nil
}

func fullRangeIfNil(r *editor.Range, n int) editor.Range {
	if r == nil {
		return editor.Range{Start: 0, End: n}
	}
	return *r
}

func applyFadeTransform(channels [][]float32, s, e int, shape editor.FadeShape, fadeIn bool) {
	n := e - s
	if n <= 0 {
		return
	}
	for _, c := range channels {
		for i := 0; i < n && s+i < len(c); i++ {
			x := float64(i) / float64(n)
			var w float64
			if fadeIn {
				w = fadeInWeight(x, shape)
			} else {
				w = fadeOutWeight(x, shape)
			}
			c[s+i] *= float32(w)
		}
	}
}

func fadeInWeight(x float64, shape editor.FadeShape) float64 {
	switch shape {
	case editor.FadeEqualPower:
		return math.Sin(math.Pi / 2 * x)
	case editor.FadeCosine:
		return (1 - math.Cos(math.Pi*x)) / 2
	case editor.FadeSCurve:
		return x * x * (3 - 2*x)
	case editor.FadeQuadratic:
		return x * x
	case editor.FadeCubic:
		return x * x * x
	default:
		return x
	}
}

func fadeOutWeight(x float64, shape editor.FadeShape) float64 {
	switch shape {
	case editor.FadeEqualPower:
		return math.Cos(math.Pi / 2 * x)
	case editor.FadeCosine:
		return (1 + math.Cos(math.Pi*x)) / 2
	case editor.FadeSCurve:
		return 1 - fadeInWeight(x, editor.FadeSCurve)
	case editor.FadeQuadratic:
		v := 1 - x
		return v * v
	case editor.FadeCubic:
		v := 1 - x
		return v * v * v
	default:
		return 1 - x
	}
}

func scaleRange(channels [][]float32, s, e int, scalar float32) {
	for _, c := range channels {
		end := e
		if end > len(c) {
			end = len(c)
		}
		for i := s; i < end; i++ {
			v := c[i] * scalar
			if v > 1 {
				v = 1
			} else if v < -1 {
				v = -1
			}
			c[i] = v
		}
	}
}

func normalizeRange(channels [][]float32, s, e int, targetDB float64) {
	var peak float32
	for _, c := range channels {
		end := e
		if end > len(c) {
			end = len(c)
		}
		for i := s; i < end; i++ {
			a := c[i]
			if a < 0 {
				a = -a
			}
			if a > peak {
				peak = a
			}
		}
	}
	if peak == 0 {
		return
	}
	scalar := float32(math.Pow(10, targetDB/20)) / peak
	scaleRange(channels, s, e, scalar)
}

func muteRange(channels [][]float32, s, e int) {
	for _, c := range channels {
		end := e
		if end > len(c) {
			end = len(c)
		}
		for i := s; i < end; i++ {
			c[i] = 0
		}
	}
}

func reverseRange(channels [][]float32, s, e int) {
	for _, c := range channels {
		end := e
		if end > len(c) {
			end = len(c)
		}
		for i, j := s, end-1; i < j; i, j = i+1, j-1 {
			c[i], c[j] = c[j], c[i]
		}
	}
}

func trimRange(channels [][]float32, s, e int) [][]float32 {
	out := make([][]float32, len(channels))
	for i, c := range channels {
		end := e
		if end > len(c) {
			end = len(c)
		}
		if s > end {
			s = end
		}
		out[i] = append([]float32(nil), c[s:end]...)
	}
	return out
}

func cloneChannels(channels [][]float32) [][]float32 {
	out := make([][]float32, len(channels))
	for i, c := range channels {
		out[i] = append([]float32(nil), c...)
	}
	return out
}

func channelLen(channels [][]float32) int {
	if len(channels) == 0 {
		return 0
	}
	return len(channels[0])
}

func mixdown(channels [][]float32) []float32 {
	n := channelLen(channels)
	out := make([]float32, n)
	if len(channels) == 0 {
		return out
	}
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
