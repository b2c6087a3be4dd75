package editor

import "testing"

func TestStartHeavyApplyShortCircuitsOnDecodeFailure(t *testing.T) {
	tab := sineTab(t, 48000, 220)

	failed := func(path string) bool { return path == tab.Path }
	if ch := tab.StartHeavyApply(nil, ToolPitchShift, 2.0, failed); ch != nil {
		t.Fatal("expected StartHeavyApply to refuse a decode-failed path")
	}
	if ch := tab.StartHeavyApply(nil, ToolTimeStretch, 1.5, failed); ch != nil {
		t.Fatal("expected StartHeavyApply to refuse a decode-failed path")
	}
}

func TestStartHeavyApplyIgnoresDecodeFailureForLoudnessNormalize(t *testing.T) {
	tab := sineTab(t, 48000, 220)

	failed := func(path string) bool { return true }
	ch := tab.StartHeavyApply(nil, ToolLoudnessNormalize, -14.0, failed)
	if ch == nil {
		t.Fatal("expected LoudnessNormalize to start regardless of decode-failure state")
	}
	result := <-ch
	if result.LUFSOverride == nil {
		t.Fatal("expected a LUFS override from LoudnessNormalize")
	}
}

func TestStartHeavyApplyRunsWithoutDecodeFailedCallback(t *testing.T) {
	tab := sineTab(t, 48000, 220)

	ch := tab.StartHeavyApply(nil, ToolPitchShift, 2.0, nil)
	if ch == nil {
		t.Fatal("expected StartHeavyApply to run when no decodeFailed callback is given")
	}
	<-ch
}
