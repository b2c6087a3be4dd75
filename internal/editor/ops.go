package editor

import (
	"math"
	"strconv"

	"github.com/tphakala/waves-previewer/internal/engine"
	waverrors "github.com/tphakala/waves-previewer/internal/errors"
)

func validateRange(n, s, e int) error {
	if s < 0 || e > n || s >= e {
		return waverrors.Newf("invalid range [%d,%d) over %d samples", s, e, n).
			Component("editor").Category(waverrors.CategoryValidation).Build()
	}
	return nil
}

// fadeInWeight and fadeOutWeight implement spec.md §4.4 "Shape weights"
// for x in [0,1].
func fadeInWeight(x float64, shape FadeShape) float64 {
	switch shape {
	case FadeEqualPower:
		return math.Sin(math.Pi / 2 * x)
	case FadeCosine:
		return (1 - math.Cos(math.Pi*x)) / 2
	case FadeSCurve:
		return x * x * (3 - 2*x)
	case FadeQuadratic:
		return x * x
	case FadeCubic:
		return x * x * x
	default: // FadeLinear
		return x
	}
}

func fadeOutWeight(x float64, shape FadeShape) float64 {
	switch shape {
	case FadeEqualPower:
		return math.Cos(math.Pi / 2 * x)
	case FadeCosine:
		return (1 + math.Cos(math.Pi*x)) / 2
	case FadeSCurve:
		return 1 - fadeInWeight(x, FadeSCurve)
	case FadeQuadratic:
		return (1 - x) * (1 - x)
	case FadeCubic:
		return (1 - x) * (1 - x) * (1 - x)
	default: // FadeLinear
		return 1 - x
	}
}

// Trim retains [s, e) and drops the rest (spec.md §4.4 "Trim").
func (t *Tab) Trim(eng *engine.Engine, s, e int) error {
	if t.SamplesLen == 0 {
		return nil
	}
	if err := validateRange(t.SamplesLen, s, e); err != nil {
		return err
	}
	t.pushUndo()

	for i, c := range t.ChSamples {
		t.ChSamples[i] = append([]float32(nil), c[s:e]...)
	}
	t.SamplesLen = e - s
	t.ViewOffset = 0
	t.Selection = nil
	t.LoopRegion = nil

	t.clampRanges()
	t.Dirty = true
	t.publish(eng)
	return nil
}

// FadeIn multiplies ch[s+i] by fadeInWeight(i/(e-s), shape)
// (spec.md §4.4 "Fade-in").
func (t *Tab) FadeIn(eng *engine.Engine, s, e int, shape FadeShape) error {
	return t.applyFade(eng, s, e, shape, fadeInWeight)
}

// FadeOut multiplies ch[s+i] by fadeOutWeight(i/(e-s), shape)
// (spec.md §4.4 "Fade-out").
func (t *Tab) FadeOut(eng *engine.Engine, s, e int, shape FadeShape) error {
	return t.applyFade(eng, s, e, shape, fadeOutWeight)
}

func (t *Tab) applyFade(eng *engine.Engine, s, e int, shape FadeShape, weight func(float64, FadeShape) float64) error {
	if t.SamplesLen == 0 {
		return nil
	}
	if err := validateRange(t.SamplesLen, s, e); err != nil {
		return err
	}
	t.pushUndo()

	n := e - s
	for _, c := range t.ChSamples {
		for i := 0; i < n; i++ {
			w := weight(float64(i)/float64(n), shape)
			c[s+i] *= float32(w)
		}
	}

	t.Dirty = true
	t.publish(eng)
	return nil
}

// Gain multiplies the range by 10^(dB/20), clamped to ±1
// (spec.md §4.4 "Gain").
func (t *Tab) Gain(eng *engine.Engine, s, e int, db float64) error {
	if t.SamplesLen == 0 {
		return nil
	}
	if err := validateRange(t.SamplesLen, s, e); err != nil {
		return err
	}
	t.pushUndo()

	scalar := float32(math.Pow(10, db/20))
	for _, c := range t.ChSamples {
		for i := s; i < e; i++ {
			c[i] = clampUnit(c[i] * scalar)
		}
	}

	t.Dirty = true
	t.publish(eng)
	return nil
}

// Normalize finds the peak absolute value across all channels in the
// range and, if non-zero, scales the range so that peak lands at
// target_dB (spec.md §4.4 "Normalize").
func (t *Tab) Normalize(eng *engine.Engine, s, e int, targetDB float64) error {
	if t.SamplesLen == 0 {
		return nil
	}
	if err := validateRange(t.SamplesLen, s, e); err != nil {
		return err
	}

	var peak float32
	for _, c := range t.ChSamples {
		for i := s; i < e; i++ {
			if a := abs32(c[i]); a > peak {
				peak = a
			}
		}
	}
	if peak == 0 {
		return nil
	}

	t.pushUndo()

	target := float32(math.Pow(10, targetDB/20))
	scalar := target / peak
	for _, c := range t.ChSamples {
		for i := s; i < e; i++ {
			c[i] = clampUnit(c[i] * scalar)
		}
	}

	t.Dirty = true
	t.publish(eng)
	return nil
}

// Mute zeroes the range (spec.md §4.4 "Mute").
func (t *Tab) Mute(eng *engine.Engine, s, e int) error {
	if t.SamplesLen == 0 {
		return nil
	}
	if err := validateRange(t.SamplesLen, s, e); err != nil {
		return err
	}
	t.pushUndo()

	for _, c := range t.ChSamples {
		for i := s; i < e; i++ {
			c[i] = 0
		}
	}

	t.Dirty = true
	t.publish(eng)
	return nil
}

// Reverse reverses each channel in place over the range
// (spec.md §4.4 "Reverse").
func (t *Tab) Reverse(eng *engine.Engine, s, e int) error {
	if t.SamplesLen == 0 {
		return nil
	}
	if err := validateRange(t.SamplesLen, s, e); err != nil {
		return err
	}
	t.pushUndo()

	for _, c := range t.ChSamples {
		for i, j := s, e-1; i < j; i, j = i+1, j-1 {
			c[i], c[j] = c[j], c[i]
		}
	}

	t.Dirty = true
	t.publish(eng)
	return nil
}

// DeleteAndJoin splices [s, e) out of every channel, shortening
// samples_len and clearing the loop region (spec.md §4.4 "Delete and
// join").
func (t *Tab) DeleteAndJoin(eng *engine.Engine, s, e int) error {
	if t.SamplesLen == 0 {
		return nil
	}
	if err := validateRange(t.SamplesLen, s, e); err != nil {
		return err
	}
	t.pushUndo()

	for i, c := range t.ChSamples {
		out := make([]float32, 0, len(c)-(e-s))
		out = append(out, c[:s]...)
		out = append(out, c[e:]...)
		t.ChSamples[i] = out
	}
	t.SamplesLen = t.channelLen()
	t.LoopRegion = nil

	t.clampRanges()
	t.Dirty = true
	t.publish(eng)
	t.ApplyLoopModeForTab(eng)
	return nil
}

// LoopCrossfadeApply mixes a centered crossfade window at each loop
// boundary into the buffer itself, then clears loop_xfade_samples
// (spec.md §4.4 "Loop crossfade apply").
func (t *Tab) LoopCrossfadeApply(eng *engine.Engine) error {
	if t.SamplesLen == 0 || !t.LoopRegion.Valid(t.SamplesLen) {
		return waverrors.Newf("loop crossfade apply requires an active loop region").
			Component("editor").Category(waverrors.CategoryValidation).Build()
	}
	if t.LoopXfadeSamples <= 0 {
		return nil
	}

	s, e := t.LoopRegion.Start, t.LoopRegion.End
	half := t.LoopXfadeSamples
	if loopHalf := (e - s) / 2; loopHalf < half {
		half = loopHalf
	}
	if s < half {
		half = s
	}
	if tail := t.SamplesLen - e; tail < half {
		half = tail
	}
	if half <= 0 {
		t.LoopXfadeSamples = 0
		return nil
	}

	t.pushUndo()

	for _, c := range t.ChSamples {
		for i := 0; i < 2*half; i++ {
			startIdx := s - half + i
			endIdx := e - half + i
			if startIdx < 0 || endIdx < 0 || startIdx >= len(c) || endIdx >= len(c) {
				continue
			}
			frac := float64(i) / float64(2*half)
			wOut, wIn := xfadeWeights(frac, t.LoopXfadeShape)
			mixed := float32(float64(c[endIdx])*wOut + float64(c[startIdx])*wIn)
			c[startIdx] = mixed
			c[endIdx] = mixed
		}
	}

	t.LoopXfadeSamples = 0
	t.Dirty = true
	t.publish(eng)
	return nil
}

// xfadeWeights mirrors engine's crossfade weighting (spec.md §4.1 step 4)
// so the offline apply and the realtime preview agree on the curve.
func xfadeWeights(t float64, shape engine.LoopShape) (wOut, wIn float64) {
	if shape == engine.LoopEqualPower {
		return math.Cos(math.Pi / 2 * t), math.Sin(math.Pi / 2 * t)
	}
	return 1 - t, t
}

// LoopUnwrap duplicates the loop region repeats times in place, shifting
// post-region markers/ranges and recomputing loop_1..loop_N + loop_end
// markers (spec.md §4.4 "Loop unwrap").
func (t *Tab) LoopUnwrap(eng *engine.Engine, repeats int) error {
	if t.SamplesLen == 0 {
		return nil
	}
	if repeats < 2 {
		return waverrors.Newf("loop unwrap requires repeats >= 2").
			Component("editor").Category(waverrors.CategoryValidation).Build()
	}
	if !t.LoopRegion.Valid(t.SamplesLen) {
		return waverrors.Newf("loop unwrap requires an active loop region").
			Component("editor").Category(waverrors.CategoryValidation).Build()
	}

	t.pushUndo()

	s, e := t.LoopRegion.Start, t.LoopRegion.End
	loopLen := e - s
	shift := (repeats - 1) * loopLen

	for i, c := range t.ChSamples {
		loop := append([]float32(nil), c[s:e]...)
		out := make([]float32, 0, len(c)+shift)
		out = append(out, c[:e]...)
		for r := 1; r < repeats; r++ {
			out = append(out, loop...)
		}
		out = append(out, c[e:]...)
		t.ChSamples[i] = out
	}
	t.SamplesLen = t.channelLen()

	shiftRange := func(r *Range) *Range {
		if r == nil || r.Start < e {
			return r
		}
		return &Range{Start: r.Start + shift, End: r.End + shift}
	}
	t.Selection = shiftRange(t.Selection)
	t.TrimRange = shiftRange(t.TrimRange)
	t.FadeInRange = shiftRange(t.FadeInRange)
	t.FadeOutRange = shiftRange(t.FadeOutRange)

	var newMarkers []Marker
	for _, m := range t.Markers {
		if m.Sample >= e {
			m.Sample += shift
		}
		newMarkers = append(newMarkers, m)
	}
	for r := 1; r < repeats; r++ {
		newMarkers = append(newMarkers, Marker{Sample: e + (r-1)*loopLen, Label: loopMarkerLabel(r)})
	}
	newMarkers = append(newMarkers, Marker{Sample: e + shift, Label: "loop_end"})
	t.Markers = sortMarkers(newMarkers)
	t.MarkersDirty = true

	t.LoopRegion = nil
	t.LoopMode = LoopOff

	t.clampRanges()
	t.Dirty = true
	t.publish(eng)
	return nil
}

func loopMarkerLabel(n int) string {
	return "loop_" + strconv.Itoa(n)
}

func sortMarkers(markers []Marker) []Marker {
	for i := 1; i < len(markers); i++ {
		for j := i; j > 0 && markers[j].Sample < markers[j-1].Sample; j-- {
			markers[j], markers[j-1] = markers[j-1], markers[j]
		}
	}
	return markers
}

func clampUnit(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
