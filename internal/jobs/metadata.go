package jobs

import (
	"container/list"
	"context"
	"sync"

	gocache "github.com/patrickmn/go-cache"

	"github.com/tphakala/waves-previewer/internal/dsp"
	"github.com/tphakala/waves-previewer/internal/listmodel"
)

// transientErrorBudget is how many consecutive probe failures for the same
// path are tolerated (as transient: locked file, still being written by
// another process) before the error is reported as final. spec.md §9
// settles on 64 for metadata probing, a higher tolerance than list-preview's
// decode budget since metadata probing runs in the background and isn't
// blocking an operator-visible selection.
const transientErrorBudget = 64

// MetadataResult is delivered to the list model once a probe completes.
type MetadataResult struct {
	ItemID int64
	Path   string
	Meta   *listmodel.Meta
	Err    error
}

// MetadataPool bounds concurrent ProbeFile calls and memoizes results so a
// re-requested path (e.g. after a sort/filter churn re-renders the same
// rows) doesn't re-probe the file from disk.
//
// The memo uses patrickmn/go-cache as a lookaside store (no TTL: entries
// live until evicted), but eviction itself is driven by ourLRU, an ordinary
// container/list kept alongside it — go-cache has no LRU-by-count eviction
// of its own, and spec.md calls for a bounded cache, not a TTL-based one.
type MetadataPool struct {
	coord *Coordinator

	sem chan struct{}

	mu       sync.Mutex
	memo     *gocache.Cache
	lru      *list.List
	lruElems map[string]*list.Element
	lruMax   int

	inflightMu sync.Mutex
	inflight   map[string]struct{}

	failMu sync.Mutex
	fails  map[string]int
}

// NewMetadataPool returns a pool with workers concurrent probes in flight at
// once and a memoization cache capped at lruMax entries.
func NewMetadataPool(workers int, coord *Coordinator) *MetadataPool {
	if workers <= 0 {
		workers = OptimalWorkerCount()
	}
	const lruMax = 2048
	return &MetadataPool{
		coord:    coord,
		sem:      make(chan struct{}, workers),
		memo:     gocache.New(gocache.NoExpiration, gocache.NoExpiration),
		lru:      list.New(),
		lruElems: make(map[string]*list.Element),
		lruMax:   lruMax,
		inflight: make(map[string]struct{}),
		fails:    make(map[string]int),
	}
}

// Request submits a probe for item if one isn't already in flight or
// memoized, returning a channel that will receive exactly one
// MetadataResult, or nil if item's path already had an in-flight probe (the
// earlier request's result will still reach the list model through the
// caller's original channel).
func (p *MetadataPool) Request(ctx context.Context, itemID int64, path string) <-chan MetadataResult {
	if cached, ok := p.lookup(path); ok {
		out := make(chan MetadataResult, 1)
		out <- MetadataResult{ItemID: itemID, Path: path, Meta: cached}
		return out
	}

	p.inflightMu.Lock()
	if _, busy := p.inflight[path]; busy {
		p.inflightMu.Unlock()
		return nil
	}
	p.inflight[path] = struct{}{}
	p.inflightMu.Unlock()

	out := make(chan MetadataResult, 1)
	go func() {
		defer func() {
			p.inflightMu.Lock()
			delete(p.inflight, path)
			p.inflightMu.Unlock()
		}()

		p.sem <- struct{}{}
		defer func() { <-p.sem }()

		meta, err := p.probe(ctx, path)
		if err != nil {
			p.countFailure(path)
			if p.coord != nil {
				p.coord.DecodeFailures.Mark(path)
			}
			out <- MetadataResult{ItemID: itemID, Path: path, Err: err}
			return
		}
		p.resetFailures(path)
		if p.coord != nil {
			p.coord.DecodeFailures.Clear(path)
		}
		p.store(path, meta)
		out <- MetadataResult{ItemID: itemID, Path: path, Meta: meta}
	}()
	return out
}

func (p *MetadataPool) probe(ctx context.Context, path string) (*listmodel.Meta, error) {
	probe, err := dsp.ProbeFile(ctx, path)
	if err != nil {
		return nil, err
	}
	meta := &listmodel.Meta{
		Channels:   probe.Channels,
		SampleRate: probe.SampleRate,
		Bits:       probe.BitDepth,
		BitRateBps: probe.BitRateBps,
		DurationS:  probe.DurationS,
	}
	return meta, nil
}

// countFailure records a probe failure for path.
func (p *MetadataPool) countFailure(path string) {
	p.failMu.Lock()
	p.fails[path]++
	p.failMu.Unlock()
}

// ExhaustedRetries reports whether path has failed at least
// transientErrorBudget times in a row, meaning the caller should surface
// the error as final rather than silently re-requesting it.
func (p *MetadataPool) ExhaustedRetries(path string) bool {
	p.failMu.Lock()
	defer p.failMu.Unlock()
	return p.fails[path] >= transientErrorBudget
}

func (p *MetadataPool) resetFailures(path string) {
	p.failMu.Lock()
	delete(p.fails, path)
	p.failMu.Unlock()
}

func (p *MetadataPool) lookup(path string) (*listmodel.Meta, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.memo.Get(path)
	if !ok {
		return nil, false
	}
	if elem, ok := p.lruElems[path]; ok {
		p.lru.MoveToFront(elem)
	}
	return v.(*listmodel.Meta), true
}

func (p *MetadataPool) store(path string, meta *listmodel.Meta) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.memo.Set(path, meta, gocache.NoExpiration)
	if elem, ok := p.lruElems[path]; ok {
		p.lru.MoveToFront(elem)
	} else {
		p.lruElems[path] = p.lru.PushFront(path)
	}

	for p.lru.Len() > p.lruMax {
		back := p.lru.Back()
		oldPath := back.Value.(string)
		p.lru.Remove(back)
		delete(p.lruElems, oldPath)
		p.memo.Delete(oldPath)
	}
}

// Forget drops any memoized metadata for path, used after a file is
// overwritten by an export so a later probe re-reads it from disk.
func (p *MetadataPool) Forget(path string) {
	p.mu.Lock()
	if elem, ok := p.lruElems[path]; ok {
		p.lru.Remove(elem)
		delete(p.lruElems, path)
	}
	p.memo.Delete(path)
	p.mu.Unlock()

	p.resetFailures(path)
	if p.coord != nil {
		p.coord.DecodeFailures.Clear(path)
	}
}
