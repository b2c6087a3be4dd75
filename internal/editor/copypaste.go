package editor

import (
	"github.com/tphakala/waves-previewer/internal/engine"
	waverrors "github.com/tphakala/waves-previewer/internal/errors"
)

// PasteMode selects how a pasted clip interacts with existing audio at the
// target position (SPEC_FULL.md §C.1, grounded on original_source's
// clipboard_ops.rs).
type PasteMode int

const (
	PasteInsert PasteMode = iota
	PasteOverwrite
)

// clipChannel is one channel of the in-process clip register populated by
// CopyRange.
type clipChannel []float32

// CopyRange copies [s, e) of every channel into this tab's clip register.
func (t *Tab) CopyRange(s, e int) error {
	if err := validateRange(t.SamplesLen, s, e); err != nil {
		return err
	}
	clip := make([]clipChannel, len(t.ChSamples))
	for i, c := range t.ChSamples {
		clip[i] = append(clipChannel(nil), c[s:e]...)
	}
	t.clip = clip
	return nil
}

// HasClip reports whether a range has been copied.
func (t *Tab) HasClip() bool { return len(t.clip) > 0 }

// CloneClip returns a copy of this tab's clip register, for pasting into a
// different tab via SetClip.
func (t *Tab) CloneClip() [][]float32 {
	out := make([][]float32, len(t.clip))
	for i, c := range t.clip {
		out[i] = append([]float32(nil), []float32(c)...)
	}
	return out
}

// SetClip installs an externally-sourced clip (e.g. from another tab's
// CloneClip) into this tab's clip register.
func (t *Tab) SetClip(clip [][]float32) {
	converted := make([]clipChannel, len(clip))
	for i, c := range clip {
		converted[i] = append(clipChannel(nil), c...)
	}
	t.clip = converted
}

// PasteAt inserts (PasteInsert) or overwrites (PasteOverwrite) the clip
// register at pos. Channel-count mismatches are resolved by pasting into
// the first min(len(clip), len(ch_samples)) channels only.
func (t *Tab) PasteAt(eng *engine.Engine, pos int, mode PasteMode) error {
	if len(t.clip) == 0 {
		return waverrors.Newf("no clip to paste").
			Component("editor").Category(waverrors.CategoryValidation).Build()
	}
	if pos < 0 || pos > t.SamplesLen {
		return waverrors.Newf("paste position out of range").
			Component("editor").Category(waverrors.CategoryValidation).Build()
	}

	t.pushUndo()

	n := len(t.clip)
	if len(t.ChSamples) < n {
		n = len(t.ChSamples)
	}
	clipLen := 0
	if n > 0 {
		clipLen = len(t.clip[0])
	}

	for i := 0; i < n; i++ {
		c := t.ChSamples[i]
		clip := []float32(t.clip[i])
		switch mode {
		case PasteOverwrite:
			end := pos + len(clip)
			if end > len(c) {
				end = len(c)
			}
			copy(c[pos:end], clip)
		default: // PasteInsert
			out := make([]float32, 0, len(c)+clipLen)
			out = append(out, c[:pos]...)
			out = append(out, clip...)
			out = append(out, c[pos:]...)
			t.ChSamples[i] = out
		}
	}

	if mode == PasteInsert {
		t.SamplesLen = t.channelLen()
		shift := clipLen
		shiftFrom := func(r *Range) *Range {
			if r == nil {
				return nil
			}
			s, e := r.Start, r.End
			if s >= pos {
				s += shift
			}
			if e >= pos {
				e += shift
			}
			return &Range{Start: s, End: e}
		}
		t.Selection = shiftFrom(t.Selection)
		t.TrimRange = shiftFrom(t.TrimRange)
		t.LoopRegion = shiftFrom(t.LoopRegion)
		t.FadeInRange = shiftFrom(t.FadeInRange)
		t.FadeOutRange = shiftFrom(t.FadeOutRange)
		for i, m := range t.Markers {
			if m.Sample >= pos {
				t.Markers[i].Sample += shift
			}
		}
	}

	t.clampRanges()
	t.Dirty = true
	t.publish(eng)
	return nil
}
