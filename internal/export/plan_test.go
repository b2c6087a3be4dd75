package export

import (
	"testing"

	"github.com/tphakala/waves-previewer/internal/listmodel"
)

var supportedExts = map[string]bool{"wav": true, "mp3": true, "m4a": true}

func TestPlanVirtualItemAlwaysWritesAudio(t *testing.T) {
	list := listmodel.New()
	item := list.AddVirtual("take1", [][]float32{{1, 2, 3}}, &listmodel.VirtualState{SourcePath: "src.wav"})

	task := Plan(PlanItem{Item: item, SampleRate: 48000, SourceBits: 16}, Config{SaveMode: SaveNewFile, DestFolder: "/out"}, PerItemOverride{}, supportedExts)
	if task.Shape != ShapeVirtual {
		t.Fatalf("expected ShapeVirtual, got %v", task.Shape)
	}
	if !task.NeedsAudioWrite {
		t.Fatal("expected virtual items to always require an audio write")
	}
}

func TestPlanCleanOverwriteWithoutGainSkipsAudioWrite(t *testing.T) {
	list := listmodel.New()
	item, err := list.Add("clip.wav", "clip")
	if err != nil {
		t.Fatal(err)
	}

	task := Plan(PlanItem{Item: item, SampleRate: 48000, SourceBits: 16, Dirty: false}, Config{SaveMode: SaveOverwrite}, PerItemOverride{}, supportedExts)
	if task.NeedsAudioWrite {
		t.Fatal("expected a clean, gain-free overwrite to skip the audio write")
	}
	if task.Shape != ShapeEditTask {
		t.Fatalf("expected ShapeEditTask, got %v", task.Shape)
	}
}

func TestPlanSimpleGainShapeWhenOnlyGainPending(t *testing.T) {
	list := listmodel.New()
	item, err := list.Add("clip.wav", "clip")
	if err != nil {
		t.Fatal(err)
	}
	list.SetPendingGain(item.ID, 3)

	refreshed, _ := list.ByID(item.ID)
	task := Plan(PlanItem{Item: refreshed, SampleRate: 48000, SourceBits: 16}, Config{SaveMode: SaveOverwrite}, PerItemOverride{}, supportedExts)
	if task.Shape != ShapeSimpleGain {
		t.Fatalf("expected ShapeSimpleGain, got %v", task.Shape)
	}
	if !task.NeedsAudioWrite {
		t.Fatal("expected a pending-gain-only task to require an audio write")
	}
}

func TestPlanDirtyTabForcesEditTaskAudioWrite(t *testing.T) {
	list := listmodel.New()
	item, err := list.Add("clip.wav", "clip")
	if err != nil {
		t.Fatal(err)
	}

	task := Plan(PlanItem{Item: item, SampleRate: 48000, SourceBits: 16, Dirty: true}, Config{SaveMode: SaveOverwrite}, PerItemOverride{}, supportedExts)
	if !task.NeedsAudioWrite {
		t.Fatal("expected a dirty edit buffer to force an audio write")
	}
}

func TestPlanUnsupportedFormatOverrideSkipsItem(t *testing.T) {
	list := listmodel.New()
	item, err := list.Add("clip.wav", "clip")
	if err != nil {
		t.Fatal(err)
	}

	task := Plan(PlanItem{Item: item, SampleRate: 48000, SourceBits: 16}, Config{SaveMode: SaveOverwrite}, PerItemOverride{FormatOverride: "xyz"}, supportedExts)
	if !task.Skip {
		t.Fatal("expected an unsupported format override to mark the task skipped")
	}
}

func TestPlanFormatChangeForcesAudioWrite(t *testing.T) {
	list := listmodel.New()
	item, err := list.Add("clip.wav", "clip")
	if err != nil {
		t.Fatal(err)
	}

	task := Plan(PlanItem{Item: item, SampleRate: 48000, SourceBits: 16}, Config{SaveMode: SaveOverwrite}, PerItemOverride{FormatOverride: "mp3"}, supportedExts)
	if !task.NeedsAudioWrite {
		t.Fatal("expected a format-override conversion to require an audio write")
	}
	if task.Ext != "mp3" {
		t.Fatalf("expected resolved ext mp3, got %q", task.Ext)
	}
}
