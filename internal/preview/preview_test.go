package preview

import (
	"testing"

	"github.com/tphakala/waves-previewer/internal/editor"
	"github.com/tphakala/waves-previewer/internal/undo"
)

func tinyTab(t *testing.T) *editor.Tab {
	t.Helper()
	channels := [][]float32{{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}}
	tab, err := editor.NewTab("fixture.wav", channels, 48000, 0, undo.NewTracker())
	if err != nil {
		t.Fatal(err)
	}
	return tab
}

func TestLightPreviewDoesNotMutateCommittedChannels(t *testing.T) {
	tab := tinyTab(t)
	before := append([]float32(nil), tab.ChSamples[0]...)

	ch := RefreshToolPreviewForTab(tab, nil, NewCoordinator(), editor.ToolGain, Params{
		Range: &editor.Range{Start: 0, End: 10}, GainDB: -6,
	})
	if ch != nil {
		t.Fatal("expected synchronous light-tool path, got a channel")
	}
	for i := range before {
		if tab.ChSamples[0][i] != before[i] {
			t.Fatal("preview must not mutate ch_samples")
		}
	}
	if tab.PreviewOverlay == nil {
		t.Fatal("expected a preview overlay to be set")
	}
	if tab.PreviewOverlay.Channels[0][0] == before[0] {
		t.Fatal("expected the overlay itself to reflect the gain")
	}
}

func TestDismissClearsPreviewState(t *testing.T) {
	tab := tinyTab(t)
	coord := NewCoordinator()
	RefreshToolPreviewForTab(tab, nil, coord, editor.ToolMute, Params{Range: &editor.Range{Start: 0, End: 5}})
	if tab.PreviewAudioTool == editor.ToolNone {
		t.Fatal("expected preview tool to be set before dismiss")
	}
	Dismiss(tab, nil, coord)
	if tab.PreviewAudioTool != editor.ToolNone || tab.PreviewOverlay != nil {
		t.Fatal("expected preview state cleared after Dismiss")
	}
}

func TestHeavyPreviewStaleGenerationDropped(t *testing.T) {
	tab := tinyTab(t)
	tab.Dirty = true // forces the heavy path regardless of length
	coord := NewCoordinator()

	ch := RefreshToolPreviewForTab(tab, nil, coord, editor.ToolGain, Params{GainDB: -6})
	if ch == nil {
		t.Fatal("expected heavy path for a dirty tab")
	}
	result := <-ch

	// Simulate a second refresh superseding the first before the result lands.
	coord.gen.Next()
	if CommitHeavyPreview(tab, nil, coord, editor.ToolGain, result) {
		t.Fatal("expected stale generation to be dropped")
	}
}
