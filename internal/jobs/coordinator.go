// Package jobs is the asynchronous job coordinator (spec.md §4.6-4.9,
// §5): folder scanning, per-file metadata probing, list-preview
// prefetch + LRU cache, and plugin-host session bookkeeping — each job
// carrying an id the UI thread matches results against, discarding
// anything stale. Spectrogram tiles (internal/spectrogram) and offline
// pitch/stretch work (internal/editor, internal/preview) are not
// scheduled through this package.
package jobs

import (
	"runtime"
	"sync/atomic"

	"github.com/klauspost/cpuid/v2"
)

// JobID identifies one asynchronous unit of work. The UI thread keeps the
// most recent id for a given slot (list-preview selection, heavy apply,
// export run, ...) and drops any result whose id doesn't match
// (spec.md §5 "Suspension points").
type JobID uint64

// Coordinator owns every job-related subsystem's shared identity counter.
// Each subsystem (list-preview, metadata, plugin sessions, transcript,
// decode-failure registry) is a separate type in this package; Coordinator is what wires
// their lifetimes together for callers that want one handle.
type Coordinator struct {
	nextJobID atomic.Uint64

	ListPreview    *ListPreviewCoordinator
	Metadata       *MetadataPool
	Plugins        *PluginSessions
	Transcript     *Transcript
	DecodeFailures *DecodeFailureRegistry
}

// NewCoordinator wires up a coordinator with the given list-preview cache
// bounds and metadata worker-pool size.
func NewCoordinator(listPreviewCacheMax, listPreviewPrefetchMax, metadataWorkers, transcriptCap int) *Coordinator {
	c := &Coordinator{
		Plugins:        NewPluginSessions(),
		Transcript:     NewTranscript(transcriptCap),
		DecodeFailures: NewDecodeFailureRegistry(),
	}
	c.ListPreview = NewListPreviewCoordinator(listPreviewCacheMax, listPreviewPrefetchMax, c)
	c.Metadata = NewMetadataPool(metadataWorkers, c)
	return c
}

// NextJobID returns a fresh, globally unique job id for this coordinator.
func (c *Coordinator) NextJobID() JobID {
	return JobID(c.nextJobID.Add(1))
}

// OptimalWorkerCount sizes a worker pool from the host's CPU topology:
// runtime.NumCPU, capped at the physical core count when cpuid reports
// fewer physical cores than logical CPUs (SPEC_FULL.md §B "CPU sizing").
func OptimalWorkerCount() int {
	available := runtime.NumCPU()
	if available <= 0 {
		return 1
	}
	if cpuid.CPU.PhysicalCores > 0 && cpuid.CPU.PhysicalCores < available {
		return cpuid.CPU.PhysicalCores
	}
	return available
}
