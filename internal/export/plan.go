package export

import (
	"math"
	"path/filepath"
	"strings"

	"github.com/tphakala/waves-previewer/internal/dsp/wavio"
	"github.com/tphakala/waves-previewer/internal/listmodel"
	"github.com/tphakala/waves-previewer/internal/markers"
)

// TaskShape classifies what an export task must actually write
// (spec.md §4.8 "Planner").
type TaskShape int

const (
	ShapeVirtual TaskShape = iota
	ShapeEditTask
	ShapeSimpleGain
)

// Task is one item's resolved export work.
type Task struct {
	Shape TaskShape

	ItemID      int64
	SourcePath  string
	DisplayName string
	Dst         string

	Channels   [][]float32
	SampleRate int
	BitDepth   wavio.BitDepth
	Ext        string

	NeedsAudioWrite bool
	GainDB          float64

	LoopRegion    markers.LoopRegion
	HasLoopRegion bool

	Skip bool
}

// gainEpsilon is spec.md §4.8's threshold below which a gain override is
// treated as no-op ("|gain| > 1e-4").
const gainEpsilon = 1e-4

// PlanItem inputs needed to plan a single item's export. channels/sampleRate/
// bits describe the source audio currently available (live edit buffer if
// the tab is open, otherwise nil to signal "read from disk at write time").
type PlanItem struct {
	Item       *listmodel.MediaItem
	Channels   [][]float32 // non-nil only if an editor tab is open for this item
	SampleRate int
	SourceBits int
	Dirty      bool
	LoopRegion markers.LoopRegion
	HasLoop    bool
}

// Plan builds a Task for one item per spec.md §4.8's planner rules.
func Plan(pi PlanItem, cfg Config, override PerItemOverride, supportedExts map[string]bool) Task {
	item := pi.Item
	sourceExt := strings.ToLower(strings.TrimPrefix(filepath.Ext(item.Path), "."))

	ext, ok := ResolveExtension(override.FormatOverride, cfg.FormatOverride, sourceExt, supportedExts)
	if !ok {
		return Task{ItemID: item.ID, SourcePath: item.Path, DisplayName: item.DisplayName, Skip: true}
	}

	gainDB := item.Overrides.PendingGainDB
	hasGain := item.Overrides.HasPendingGain
	if override.HasGain {
		gainDB = override.GainDB
		hasGain = true
	}

	stem := ResolveName(cfg.NameTemplate, item.DisplayName, gainDB, hasGain)

	var dst string
	switch cfg.SaveMode {
	case SaveOverwrite:
		dst = item.Path
	default:
		dst = DestPath(cfg.DestFolder, stem, ext)
	}

	sampleRate := pi.SampleRate
	if override.SampleRateOverride > 0 {
		sampleRate = override.SampleRateOverride
	}
	bitDepth := ResolveBitDepth(override.BitDepthOverride, pi.SourceBits)

	task := Task{
		ItemID:        item.ID,
		SourcePath:    item.Path,
		DisplayName:   item.DisplayName,
		Dst:           dst,
		Channels:      pi.Channels,
		SampleRate:    sampleRate,
		BitDepth:      bitDepth,
		Ext:           ext,
		GainDB:        gainDB,
		LoopRegion:    pi.LoopRegion,
		HasLoopRegion: pi.HasLoop,
	}

	hasEditContext := pi.Channels != nil || pi.Dirty || pi.HasLoop

	switch {
	case item.Source == listmodel.SourceVirtual:
		task.Shape = ShapeVirtual
		task.Channels = item.VirtualAudio
		task.NeedsAudioWrite = true

	case hasEditContext:
		task.Shape = ShapeEditTask
		task.NeedsAudioWrite = needsAudioWrite(cfg, pi, override, ext, sourceExt)

	case hasGain && math.Abs(gainDB) > gainEpsilon:
		task.Shape = ShapeSimpleGain
		task.NeedsAudioWrite = true

	default:
		task.Shape = ShapeEditTask
		task.NeedsAudioWrite = needsAudioWrite(cfg, pi, override, ext, sourceExt)
	}

	return task
}

// needsAudioWrite implements spec.md §4.8's Edit-task condition: "requires
// an audio write if any of {save_mode = NewFile, audio dirty, |gain| >
// 1e-4, SR override, bit-depth override, format override} holds".
func needsAudioWrite(cfg Config, pi PlanItem, override PerItemOverride, ext, sourceExt string) bool {
	if cfg.SaveMode == SaveNewFile {
		return true
	}
	if pi.Dirty {
		return true
	}
	if override.HasGain && math.Abs(override.GainDB) > gainEpsilon {
		return true
	}
	if pi.Item.Overrides.HasPendingGain && math.Abs(pi.Item.Overrides.PendingGainDB) > gainEpsilon {
		return true
	}
	if override.SampleRateOverride > 0 {
		return true
	}
	if override.BitDepthOverride != "" {
		return true
	}
	if ext != sourceExt {
		return true
	}
	return false
}
