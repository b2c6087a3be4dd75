package jobs

import (
	"container/list"
	"context"
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"

	"github.com/smallnest/ringbuffer"

	"github.com/tphakala/waves-previewer/internal/dsp"
)

// listPreviewTransientErrorBudget is how many consecutive decode failures
// for the same path list-preview tolerates before treating it as a hard
// failure (spec.md §9: "8 for list-preview").
const listPreviewTransientErrorBudget = 8

// ListPreviewSettings is the cache key's non-path component (spec.md §4.6
// "List-preview settings key: {out_sr, target_sr?, bit_depth?, quality};
// cache hits require exact equality").
type ListPreviewSettings struct {
	OutSampleRate    int
	HasTargetRate    bool
	TargetSampleRate int
	BitDepth         string
	Quality          dsp.Quality
}

// ListPreviewEntry is a cached (or freshly produced) list-preview result.
type ListPreviewEntry struct {
	Audio     []float32
	Truncated bool
	Settings  ListPreviewSettings
}

// ListPreviewResult is delivered on a per-selection channel; the caller
// must compare JobID against whatever it currently considers "selected"
// before using it (spec.md §5 "accept a result only if its job_id matches
// the current one").
type ListPreviewResult struct {
	JobID    JobID
	Path     string
	Entry    ListPreviewEntry
	CacheHit bool
	Err      error
}

type cacheEntry struct {
	path  string
	entry ListPreviewEntry
}

// ListPreviewCoordinator owns the list-preview LRU cache (bounded by entry
// count, spec.md §4.6) and a bounded prefetch pipeline driven by idle UI
// ticks.
type ListPreviewCoordinator struct {
	coord *Coordinator

	mu       sync.Mutex
	order    *list.List
	elements map[string]*list.Element
	maxItems int

	selectedJobID JobID

	// epoch and cancelCurrent implement spec.md §4.6/§9's "list_preview_job_epoch":
	// every Select bumps epoch and cancels the previous selection's context, so a
	// superseded decode observes cancellation (or a stale epoch) at its next yield
	// point and abandons the result instead of running to completion.
	epoch         atomic.Uint64
	cancelMu      sync.Mutex
	cancelCurrent context.CancelFunc

	prefetchMu  sync.Mutex
	inflight    map[string]struct{}
	prefetchMax int

	failMu sync.Mutex
	fails  map[string]int
}

// NewListPreviewCoordinator returns a coordinator whose cache holds at most
// cacheMax entries and whose prefetch pipeline runs at most prefetchMax
// decodes concurrently.
func NewListPreviewCoordinator(cacheMax, prefetchMax int, coord *Coordinator) *ListPreviewCoordinator {
	if cacheMax <= 0 {
		cacheMax = 64
	}
	if prefetchMax <= 0 {
		prefetchMax = 4
	}
	return &ListPreviewCoordinator{
		coord:       coord,
		order:       list.New(),
		elements:    make(map[string]*list.Element),
		maxItems:    cacheMax,
		inflight:    make(map[string]struct{}),
		prefetchMax: prefetchMax,
		fails:       make(map[string]int),
	}
}

// ExhaustedRetries reports whether path has failed list-preview decode at
// least listPreviewTransientErrorBudget times in a row.
func (c *ListPreviewCoordinator) ExhaustedRetries(path string) bool {
	c.failMu.Lock()
	defer c.failMu.Unlock()
	return c.fails[path] >= listPreviewTransientErrorBudget
}

// Select requests a list-preview for path under settings, returning the job
// id assigned to this selection and a result channel. A cache hit is
// delivered synchronously (buffered channel, already populated); a miss
// spawns a decode worker. maxSecs bounds the decoded prefix length.
func (c *ListPreviewCoordinator) Select(ctx context.Context, path string, settings ListPreviewSettings, maxSecs float64) (JobID, <-chan ListPreviewResult) {
	jobID := c.coord.NextJobID()
	myEpoch := c.epoch.Add(1)

	c.cancelMu.Lock()
	if c.cancelCurrent != nil {
		c.cancelCurrent()
	}
	jobCtx, cancel := context.WithCancel(ctx)
	c.cancelCurrent = cancel
	c.cancelMu.Unlock()

	c.mu.Lock()
	c.selectedJobID = jobID
	c.mu.Unlock()

	out := make(chan ListPreviewResult, 1)

	if entry, ok := c.lookup(path, settings); ok {
		cancel()
		out <- ListPreviewResult{JobID: jobID, Path: path, Entry: entry, CacheHit: true}
		return jobID, out
	}

	go c.decodeAndStage(jobCtx, jobID, myEpoch, path, settings, maxSecs, out)
	return jobID, out
}

// CurrentJobID reports the job id of the most recent Select call, for
// comparing against a result's JobID to detect staleness.
func (c *ListPreviewCoordinator) CurrentJobID() JobID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedJobID
}

// Prefetch opportunistically warms the cache for paths not already cached
// or in flight, up to prefetchMax concurrent decodes (spec.md §4.6 "Idle
// frames drive prefetch of the next/previous rows").
func (c *ListPreviewCoordinator) Prefetch(ctx context.Context, paths []string, settings ListPreviewSettings, maxSecs float64) {
	for _, path := range paths {
		if _, ok := c.lookup(path, settings); ok {
			continue
		}
		c.prefetchMu.Lock()
		if len(c.inflight) >= c.prefetchMax {
			c.prefetchMu.Unlock()
			return
		}
		if _, busy := c.inflight[path]; busy {
			c.prefetchMu.Unlock()
			continue
		}
		c.inflight[path] = struct{}{}
		c.prefetchMu.Unlock()

		go func(p string) {
			defer func() {
				c.prefetchMu.Lock()
				delete(c.inflight, p)
				c.prefetchMu.Unlock()
			}()
			discard := make(chan ListPreviewResult, 1)
			c.decodeAndStage(ctx, 0, 0, p, settings, maxSecs, discard)
		}(path)
	}
}

// decodeAndStage decodes path's mono prefix, stages the raw PCM bytes
// through a ring buffer before handing the result to the cache and the
// caller (SPEC_FULL.md §B "Lock-free prefetch staging": the ring buffer is
// the hand-off point between the decode worker and whatever consumes the
// staged bytes next, keeping the worker from blocking on a slow reader).
//
// epoch is the list_preview_job_epoch this decode was spawned under (0 for
// prefetch, which isn't subject to selection cancellation). At each yield
// point after the blocking decode, a stale epoch means a later Select call
// has superseded this one; the worker abandons the result rather than
// racing it into the cache (spec.md §4.6, §9).
func (c *ListPreviewCoordinator) decodeAndStage(ctx context.Context, jobID JobID, epoch uint64, path string, settings ListPreviewSettings, maxSecs float64, out chan<- ListPreviewResult) {
	samples, sr, truncated, err := dsp.DecodeMonoPrefix(ctx, path, maxSecs)
	if err != nil {
		c.failMu.Lock()
		c.fails[path]++
		c.failMu.Unlock()
		if c.coord != nil {
			c.coord.DecodeFailures.Mark(path)
		}
		out <- ListPreviewResult{JobID: jobID, Path: path, Err: err}
		return
	}

	c.failMu.Lock()
	delete(c.fails, path)
	c.failMu.Unlock()
	if c.coord != nil {
		c.coord.DecodeFailures.Clear(path)
	}

	if epoch != 0 && c.epoch.Load() != epoch {
		return
	}

	resampled := samples
	if settings.HasTargetRate && settings.TargetSampleRate > 0 && settings.TargetSampleRate != sr {
		resampled = dsp.ResampleLinear(samples, sr, settings.TargetSampleRate)
	}

	staged := stageThroughRingBuffer(resampled)

	if epoch != 0 && c.epoch.Load() != epoch {
		return
	}

	entry := ListPreviewEntry{Audio: staged, Truncated: truncated, Settings: settings}
	c.store(path, entry)
	out <- ListPreviewResult{JobID: jobID, Path: path, Entry: entry}
}

// stageChunkFrames is the producer's write granularity in stageThroughRingBuffer.
const stageChunkFrames = 4096

// stageThroughRingBuffer hands decoded audio from a producer goroutine to
// this goroutine's consumer through a bounded ring buffer sized to a handful
// of chunks rather than the whole decode (SPEC_FULL.md §B "Lock-free
// prefetch staging"). Write blocks once the buffer fills, so the producer
// can't run arbitrarily far ahead of a slow consumer.
func stageThroughRingBuffer(audio []float32) []float32 {
	buf := make([]byte, len(audio)*4)
	for i, s := range audio {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}

	const chunkBytes = stageChunkFrames * 4
	capacity := chunkBytes * 4
	if capacity > len(buf) {
		capacity = len(buf)
	}
	if capacity == 0 {
		return audio
	}

	rb := ringbuffer.New(capacity)
	rb.SetBlocking(true)

	go func() {
		defer rb.CloseWriter()
		for off := 0; off < len(buf); off += chunkBytes {
			end := off + chunkBytes
			if end > len(buf) {
				end = len(buf)
			}
			if _, err := rb.Write(buf[off:end]); err != nil {
				return
			}
		}
	}()

	drained := make([]byte, len(buf))
	read := 0
	for read < len(drained) {
		n, err := rb.Read(drained[read:])
		read += n
		if err != nil {
			break
		}
	}
	if read != len(drained) {
		return audio
	}

	out := make([]float32, len(audio))
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(drained[i*4:]))
	}
	return out
}

func (c *ListPreviewCoordinator) lookup(path string, settings ListPreviewSettings) (ListPreviewEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.elements[path]
	if !ok {
		return ListPreviewEntry{}, false
	}
	entry := elem.Value.(*cacheEntry).entry
	if entry.Settings != settings {
		return ListPreviewEntry{}, false
	}
	c.order.MoveToFront(elem)
	return entry, true
}

func (c *ListPreviewCoordinator) store(path string, entry ListPreviewEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.elements[path]; ok {
		c.order.Remove(existing)
	}
	elem := c.order.PushFront(&cacheEntry{path: path, entry: entry})
	c.elements[path] = elem

	for c.order.Len() > c.maxItems {
		back := c.order.Back()
		old := back.Value.(*cacheEntry)
		c.order.Remove(back)
		delete(c.elements, old.path)
	}
}

// InvalidatePath drops path's cached list-preview, used after an edit
// commits or an export overwrites the file.
func (c *ListPreviewCoordinator) InvalidatePath(path string) {
	c.mu.Lock()
	if elem, ok := c.elements[path]; ok {
		c.order.Remove(elem)
		delete(c.elements, path)
	}
	c.mu.Unlock()

	c.failMu.Lock()
	delete(c.fails, path)
	c.failMu.Unlock()
	if c.coord != nil {
		c.coord.DecodeFailures.Clear(path)
	}
}
