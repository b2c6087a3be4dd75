// Package editor implements the per-tab multichannel edit buffer and its
// undo/redo, trim/fade/gain/normalize/reverse/loop operations (spec.md §3
// "EditorTab", §4.4). Every mutating method follows the snapshot / mutate
// / publish discipline spec.md requires and is intended to run on the
// single UI/control-thread owner of a *Tab (spec.md §5 "Resource policy").
package editor

import (
	"github.com/tphakala/waves-previewer/internal/engine"
	waverrors "github.com/tphakala/waves-previewer/internal/errors"
	"github.com/tphakala/waves-previewer/internal/undo"
)

// ViewMode selects what the waveform pane renders.
type ViewMode int

const (
	ViewWaveform ViewMode = iota
	ViewSpectrogram
	ViewMel
)

// LoopMode selects how the audio engine should loop this tab's audio.
type LoopMode int

const (
	LoopOff LoopMode = iota
	LoopOnWhole
	LoopMarker
)

// FadeShape selects the weighting curve used by FadeIn/FadeOut
// (spec.md §4.4 "Shape weights").
type FadeShape int

const (
	FadeLinear FadeShape = iota
	FadeEqualPower
	FadeCosine
	FadeSCurve
	FadeQuadratic
	FadeCubic
)

// ToolKind identifies the active editor tool for preview-overlay purposes
// (spec.md §3 "preview_audio_tool", §4.5).
type ToolKind int

const (
	ToolNone ToolKind = iota
	ToolTrim
	ToolFadeIn
	ToolFadeOut
	ToolGain
	ToolNormalize
	ToolMute
	ToolReverse
	ToolPitchShift
	ToolTimeStretch
	ToolLoudnessNormalize
	ToolLoopUnwrap
)

// Heavy reports whether a tool kind always uses the async heavy-apply path
// (spec.md §4.5 "Heavy tools (PitchShift/TimeStretch, long length, or
// dirty)").
func (k ToolKind) Heavy() bool {
	return k == ToolPitchShift || k == ToolTimeStretch || k == ToolLoudnessNormalize
}

// Range is an inclusive-start/exclusive-end sample range. A nil *Range
// means "absent", matching spec.md's Option<(start,end)> ranges.
type Range struct {
	Start, End int
}

// Valid reports whether the range satisfies spec.md's containment
// invariant against a buffer of length n: 0 ≤ start < end ≤ n.
func (r *Range) Valid(n int) bool {
	return r != nil && r.Start >= 0 && r.Start < r.End && r.End <= n
}

func cloneRange(r *Range) *Range {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// clampRange shrinks r to fit within [0, n], dropping it entirely (nil) if
// it becomes empty or inverted.
func clampRange(r *Range, n int) *Range {
	if r == nil {
		return nil
	}
	s, e := r.Start, r.End
	if s < 0 {
		s = 0
	}
	if e > n {
		e = n
	}
	if s >= e {
		return nil
	}
	return &Range{Start: s, End: e}
}

// Marker is a named position in the sample timeline, kept sorted by
// Sample in Tab.Markers.
type Marker struct {
	Sample int
	Label  string
}

// snapshot captures everything an undo/redo step restores (spec.md §4.4
// step 1: "channels, selection ranges, markers, flags, relevant tool
// state").
type snapshot struct {
	chSamples        [][]float32
	samplesLen       int
	viewOffset       int
	samplesPerPx     float64
	viewMode         ViewMode
	selection        *Range
	trimRange        *Range
	loopRegion       *Range
	fadeInRange      *Range
	fadeOutRange     *Range
	loopMode         LoopMode
	loopXfadeSamples int
	loopXfadeShape   engine.LoopShape
	markers          []Marker
	dirty            bool
	markersDirty     bool
	loopMarkersDirty bool
}

func (s *snapshot) byteSize() int64 {
	var n int64
	for _, c := range s.chSamples {
		n += int64(len(c)) * 4
	}
	n += int64(len(s.markers)) * 24
	return n + 128 // fixed overhead for scalar fields
}

// Tab is an opened file's editable state (spec.md §3 "EditorTab").
type Tab struct {
	Path       string
	SampleRate int
	ChSamples  [][]float32
	SamplesLen int

	ViewOffset   int
	SamplesPerPx float64
	ViewMode     ViewMode

	Selection    *Range
	TrimRange    *Range
	LoopRegion   *Range
	FadeInRange  *Range
	FadeOutRange *Range

	LoopMode         LoopMode
	LoopXfadeSamples int
	LoopXfadeShape   engine.LoopShape

	Markers          []Marker
	SavedMarkers     []Marker
	CommittedMarkers []Marker
	AppliedMarkers   []Marker

	Dirty            bool
	MarkersDirty     bool
	LoopMarkersDirty bool

	PreviewAudioTool ToolKind
	PreviewOverlay   *PreviewOverlay

	undoStack *undo.Stack[*snapshot]
	redoStack *undo.Stack[*snapshot]
	tracker   *undo.Tracker

	clip []clipChannel

	heavyGen uint64
}

// PreviewOverlay is the derived "what the active tool would do" state for
// this tab (spec.md §3 "preview_overlay", §4.5). It is owned by the
// internal/preview package but its shape lives here to avoid a dependency
// cycle (preview imports editor, not the reverse).
type PreviewOverlay struct {
	Channels    [][]float32
	Mixdown     []float32
	SourceTool  ToolKind
	TimelineLen int
	Generation  uint64
}

// NewTab opens a tab over channels at sampleRate, bounded by undoBudget
// bytes and sharing tracker with the list model's own undo scope.
func NewTab(path string, channels [][]float32, sampleRate int, undoBudget int64, tracker *undo.Tracker) (*Tab, error) {
	n := 0
	if len(channels) > 0 {
		n = len(channels[0])
		for _, c := range channels {
			if len(c) != n {
				return nil, waverrors.Newf("channel length mismatch").
					Component("editor").Category(waverrors.CategoryValidation).Build()
			}
		}
	}
	return &Tab{
		Path:         path,
		SampleRate:   sampleRate,
		ChSamples:    channels,
		SamplesLen:   n,
		SamplesPerPx: 1,
		undoStack:    undo.NewStack[*snapshot](undoBudget),
		redoStack:    undo.NewStack[*snapshot](undoBudget),
		tracker:      tracker,
	}, nil
}

func (t *Tab) snapshot() *snapshot {
	chClone := make([][]float32, len(t.ChSamples))
	for i, c := range t.ChSamples {
		chClone[i] = append([]float32(nil), c...)
	}
	return &snapshot{
		chSamples:        chClone,
		samplesLen:       t.SamplesLen,
		viewOffset:       t.ViewOffset,
		samplesPerPx:     t.SamplesPerPx,
		viewMode:         t.ViewMode,
		selection:        cloneRange(t.Selection),
		trimRange:        cloneRange(t.TrimRange),
		loopRegion:       cloneRange(t.LoopRegion),
		fadeInRange:      cloneRange(t.FadeInRange),
		fadeOutRange:     cloneRange(t.FadeOutRange),
		loopMode:         t.LoopMode,
		loopXfadeSamples: t.LoopXfadeSamples,
		loopXfadeShape:   t.LoopXfadeShape,
		markers:          append([]Marker(nil), t.Markers...),
		dirty:            t.Dirty,
		markersDirty:     t.MarkersDirty,
		loopMarkersDirty: t.LoopMarkersDirty,
	}
}

func (t *Tab) restore(s *snapshot) {
	t.ChSamples = s.chSamples
	t.SamplesLen = s.samplesLen
	t.ViewOffset = s.viewOffset
	t.SamplesPerPx = s.samplesPerPx
	t.ViewMode = s.viewMode
	t.Selection = s.selection
	t.TrimRange = s.trimRange
	t.LoopRegion = s.loopRegion
	t.FadeInRange = s.fadeInRange
	t.FadeOutRange = s.fadeOutRange
	t.LoopMode = s.loopMode
	t.LoopXfadeSamples = s.loopXfadeSamples
	t.LoopXfadeShape = s.loopXfadeShape
	t.Markers = s.markers
	t.Dirty = s.dirty
	t.MarkersDirty = s.markersDirty
	t.LoopMarkersDirty = s.loopMarkersDirty
}

// pushUndo captures the current state onto the undo stack and clears the
// redo stack, per spec.md §4.4 step 1. Callers performing an undo/redo
// itself must not call this (it would defeat the redo stack).
func (t *Tab) pushUndo() {
	s := t.snapshot()
	t.undoStack.Push(s, s.byteSize())
	t.redoStack.Clear()
	if t.tracker != nil {
		t.tracker.Record(undo.ScopeEditor)
	}
}

// Undo restores the most recent undo snapshot, pushing the current state
// onto the redo stack first.
func (t *Tab) Undo() bool {
	prev, ok := t.undoStack.Pop()
	if !ok {
		return false
	}
	cur := t.snapshot()
	t.redoStack.Push(cur, cur.byteSize())
	t.restore(prev)
	return true
}

// Redo restores the most recently undone snapshot, pushing the current
// state back onto the undo stack.
func (t *Tab) Redo() bool {
	next, ok := t.redoStack.Pop()
	if !ok {
		return false
	}
	cur := t.snapshot()
	t.undoStack.Push(cur, cur.byteSize())
	t.restore(next)
	return true
}

// UndoBytes reports the current undo-stack byte total, for UI display.
func (t *Tab) UndoBytes() int64 { return t.undoStack.Bytes() }

// clampRanges enforces spec.md §8's range-containment and loop-window
// invariants after any length-changing mutation. It leaves preview/tool
// state untouched.
func (t *Tab) clampRanges() {
	n := t.SamplesLen
	t.Selection = clampRange(t.Selection, n)
	t.TrimRange = clampRange(t.TrimRange, n)
	t.LoopRegion = clampRange(t.LoopRegion, n)
	t.FadeInRange = clampRange(t.FadeInRange, n)
	t.FadeOutRange = clampRange(t.FadeOutRange, n)

	if n == 0 {
		t.ViewOffset = 0
	} else if t.ViewOffset > n-1 {
		t.ViewOffset = n - 1
	}
	if t.SamplesPerPx <= 0 {
		t.SamplesPerPx = 1
	}
	if t.LoopXfadeSamples > n/2 {
		t.LoopXfadeSamples = n / 2
	}
}

// publish clones ch_samples to the audio engine, stops playback, and
// reapplies the loop-mode policy (spec.md §4.4 step 3).
func (t *Tab) publish(eng *engine.Engine) {
	if eng == nil {
		return
	}
	eng.Stop()
	eng.SetSamplesChannels(t.ChSamples)
	t.ApplyLoopModeForTab(eng)
}

// ApplyLoopModeForTab pushes the tab's current loop mode/region/crossfade
// to the audio engine (spec.md §4.4 "Loop-mode policy").
func (t *Tab) ApplyLoopModeForTab(eng *engine.Engine) {
	if eng == nil {
		return
	}
	switch t.LoopMode {
	case LoopOff:
		eng.SetLoopEnabled(false)
	case LoopOnWhole:
		eng.SetLoopRegion(0, int64(t.SamplesLen))
		eng.SetLoopCrossfade(0, engine.LoopLinear)
		eng.SetLoopEnabled(true)
	case LoopMarker:
		if t.LoopRegion.Valid(t.SamplesLen) {
			eng.SetLoopRegion(int64(t.LoopRegion.Start), int64(t.LoopRegion.End))
			eng.SetLoopCrossfade(int64(t.LoopXfadeSamples), t.LoopXfadeShape)
			eng.SetLoopEnabled(true)
		} else {
			eng.SetLoopEnabled(false)
		}
	}
}

// channelLen returns the length of channel 0, or 0 if there are none.
func (t *Tab) channelLen() int {
	if len(t.ChSamples) == 0 {
		return 0
	}
	return len(t.ChSamples[0])
}
