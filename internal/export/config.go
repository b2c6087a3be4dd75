// Package export implements the export pipeline (spec.md §4.8): per-item
// task planning, filename resolution and conflict handling, the execution
// worker that writes audio then markers, and post-processing that reconciles
// the list model, undo stacks, and caches with what was actually written.
package export

import "github.com/tphakala/waves-previewer/internal/dsp/wavio"

// SaveMode selects whether an export overwrites the source file or writes
// a new one (spec.md §4.8 "ExportConfig").
type SaveMode int

const (
	SaveOverwrite SaveMode = iota
	SaveNewFile
)

// ConflictPolicy selects how a name collision on an existing destination
// file is resolved.
type ConflictPolicy int

const (
	ConflictOverwrite ConflictPolicy = iota
	ConflictSkip
	ConflictRename
)

// Config is the active ExportConfig an export run obeys (spec.md §4.8).
type Config struct {
	SaveMode       SaveMode
	DestFolder     string
	NameTemplate   string // supports {name} and {gain_db} tokens
	Conflict       ConflictPolicy
	BackupBak      bool
	FormatOverride string // global extension override, empty = none
}

// PerItemOverride is the per-item export customization layered on top of
// Config (spec.md §4.8, §3 listmodel.Overrides).
type PerItemOverride struct {
	FormatOverride     string
	SampleRateOverride int
	BitDepthOverride   string
	GainDB             float64
	HasGain            bool
}

// ResolveBitDepth maps a bit-depth override string (or, absent one, the
// source's own bit depth) to a wavio.BitDepth, defaulting to PCM16 for
// anything unrecognized (spec.md §4.8: "bit-depth choice (Pcm16/Pcm24/
// Float32 inferred from bits if not overridden)").
func ResolveBitDepth(override string, sourceBits int) wavio.BitDepth {
	switch override {
	case "pcm16":
		return wavio.PCM16
	case "pcm24":
		return wavio.PCM24
	case "float32":
		return wavio.Float32
	}
	switch {
	case sourceBits >= 32:
		return wavio.Float32
	case sourceBits >= 24:
		return wavio.PCM24
	default:
		return wavio.PCM16
	}
}
