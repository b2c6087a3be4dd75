// Package listmodel holds the indexed list of media items shown to the
// operator (spec.md §3 MediaItem, §4.6-4.7): identity, derived metadata,
// per-item overrides, and the filter/sort views the UI renders from.
// List is single-writer: its mutating methods are for the UI/control
// thread, matching spec.md §5's ownership rule; it
// still takes its own lock so a worker goroutine that only reads (e.g. to
// snapshot paths for a scan batch) cannot race a concurrent UI write.
package listmodel

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	waverrors "github.com/tphakala/waves-previewer/internal/errors"
)

// SourceKind distinguishes a file-backed item from one materialized only
// in memory (spec.md §3 "Source").
type SourceKind int

const (
	SourceFile SourceKind = iota
	SourceVirtual
)

// Meta is the derived, decode-dependent state of an item (spec.md §3
// "Derived state").
type Meta struct {
	Channels       int
	SampleRate     int
	Bits           int
	BitRateBps     int
	DurationS      float64
	PeakDB         float64
	LUFSIntegrated float64
	BPM            float64
	Thumbnail      []MinMaxPair
	DecodeError    string
}

// MinMaxPair mirrors dsp.MinMaxPair without importing internal/dsp, keeping
// listmodel free of a dependency on the decode/DSP stack it is merely
// indexing results from.
type MinMaxPair struct {
	Min, Max float32
}

// VirtualState records the derivation chain of a virtual item: the source
// path and the ordered operation names applied to reach the in-memory
// buffer (spec.md §3 "virtual = audio materialized in memory with a
// derivation chain to a source file").
type VirtualState struct {
	SourcePath string
	Chain      []string
}

// Overrides holds the per-item pending export/audition overrides
// (spec.md §3 "Per-item overrides").
type Overrides struct {
	PendingGainDB      float64
	HasPendingGain     bool
	LUFSOverride       float64
	HasLUFSOverride    bool
	SampleRateOverride int
	BitDepthOverride   string
	FormatOverride     string
}

// Clear resets every override field to its zero/absent state, used after a
// successful export (spec.md §4.8 "Post-processing").
func (o *Overrides) Clear() {
	*o = Overrides{}
}

// MediaItem is one entry in the list (spec.md §3).
type MediaItem struct {
	ID          int64
	Path        string
	DisplayName string
	Source      SourceKind

	Meta         *Meta
	VirtualAudio [][]float32
	VirtualState *VirtualState

	Overrides Overrides
}

// List is the indexed, filterable, sortable collection of MediaItems.
type List struct {
	mu      sync.RWMutex
	nextID  atomic.Int64
	items   []*MediaItem
	byID    map[int64]*MediaItem
	byPath  map[string]*MediaItem
}

// New returns an empty list.
func New() *List {
	return &List{
		byID:   make(map[int64]*MediaItem),
		byPath: make(map[string]*MediaItem),
	}
}

// Add appends a new file-backed item for path, assigning it a fresh id.
// Returns an error if path is already present (spec.md §3 invariant:
// "path is unique across items").
func (l *List) Add(path, displayName string) (*MediaItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.byPath[path]; exists {
		return nil, waverrors.Newf("duplicate path in list").
			Component("listmodel").Category(waverrors.CategoryValidation).
			Context("path", path).Build()
	}

	item := &MediaItem{
		ID:          l.nextID.Add(1),
		Path:        path,
		DisplayName: displayName,
		Source:      SourceFile,
	}
	l.items = append(l.items, item)
	l.byID[item.ID] = item
	l.byPath[item.Path] = item
	return item, nil
}

// AddVirtual appends an in-memory item derived from a source file.
func (l *List) AddVirtual(displayName string, audio [][]float32, state *VirtualState) *MediaItem {
	l.mu.Lock()
	defer l.mu.Unlock()

	item := &MediaItem{
		ID:           l.nextID.Add(1),
		Path:         virtualPath(displayName, l.nextID.Load()),
		DisplayName:  displayName,
		Source:       SourceVirtual,
		VirtualAudio: audio,
		VirtualState: state,
	}
	l.items = append(l.items, item)
	l.byID[item.ID] = item
	l.byPath[item.Path] = item
	return item
}

func virtualPath(displayName string, id int64) string {
	return "virtual://" + displayName + "#" + itoa(id)
}

func itoa(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Remove deletes the item with id, keeping byID/byPath in sync with items
// (spec.md §3 invariant).
func (l *List) Remove(id int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.byID[id]
	if !ok {
		return false
	}
	for i, it := range l.items {
		if it.ID == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			break
		}
	}
	delete(l.byID, id)
	delete(l.byPath, item.Path)
	return true
}

// RenamePath updates path→item mapping after an export format-override
// renames an item's file on disk (spec.md §4.8 "Format-override
// post-rename", §9 "Format-override post-rename").
func (l *List) RenamePath(id int64, newPath string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	item, ok := l.byID[id]
	if !ok {
		return waverrors.Newf("unknown item id").
			Component("listmodel").Category(waverrors.CategoryNotFound).Build()
	}
	if _, exists := l.byPath[newPath]; exists {
		return waverrors.Newf("duplicate path in list").
			Component("listmodel").Category(waverrors.CategoryValidation).
			Context("path", newPath).Build()
	}
	delete(l.byPath, item.Path)
	item.Path = newPath
	l.byPath[newPath] = item
	return nil
}

// ByID returns the item with id, if present.
func (l *List) ByID(id int64) (*MediaItem, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	item, ok := l.byID[id]
	return item, ok
}

// ByPath returns the item at path, if present.
func (l *List) ByPath(path string) (*MediaItem, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	item, ok := l.byPath[path]
	return item, ok
}

// SetMeta installs a completed metadata record (spec.md §4.7: "Writes to
// the meta map are single-writer (UI thread) after a worker delivers a
// completed record").
func (l *List) SetMeta(id int64, meta *Meta) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if item, ok := l.byID[id]; ok {
		item.Meta = meta
	}
}

// Len reports the number of items currently in the list.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Snapshot returns a shallow copy of the current item slice, safe for a
// caller to range over without holding the list's lock.
func (l *List) Snapshot() []*MediaItem {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*MediaItem, len(l.items))
	copy(out, l.items)
	return out
}

// SortKey selects the field sorted views order by.
type SortKey int

const (
	SortByDisplayName SortKey = iota
	SortByDuration
	SortByPeakDB
	SortByLUFS
)

// FilterOptions narrows a View by substring match and source kind.
type FilterOptions struct {
	NameContains string
	OnlyVirtual  bool
	OnlyFile     bool
}

func (f FilterOptions) matches(item *MediaItem) bool {
	if f.OnlyVirtual && item.Source != SourceVirtual {
		return false
	}
	if f.OnlyFile && item.Source != SourceFile {
		return false
	}
	if f.NameContains != "" && !strings.Contains(strings.ToLower(item.DisplayName), strings.ToLower(f.NameContains)) {
		return false
	}
	return true
}

// View returns the filtered, sorted projection of the list the UI renders.
func (l *List) View(filter FilterOptions, key SortKey, ascending bool) []*MediaItem {
	items := l.Snapshot()

	filtered := items[:0:0]
	for _, item := range items {
		if filter.matches(item) {
			filtered = append(filtered, item)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		less := lessBy(filtered[i], filtered[j], key)
		if ascending {
			return less
		}
		return !less
	})
	return filtered
}

func lessBy(a, b *MediaItem, key SortKey) bool {
	switch key {
	case SortByDuration:
		return metaFloat(a, func(m *Meta) float64 { return m.DurationS }) <
			metaFloat(b, func(m *Meta) float64 { return m.DurationS })
	case SortByPeakDB:
		return metaFloat(a, func(m *Meta) float64 { return m.PeakDB }) <
			metaFloat(b, func(m *Meta) float64 { return m.PeakDB })
	case SortByLUFS:
		return metaFloat(a, func(m *Meta) float64 { return m.LUFSIntegrated }) <
			metaFloat(b, func(m *Meta) float64 { return m.LUFSIntegrated })
	default:
		return strings.ToLower(a.DisplayName) < strings.ToLower(b.DisplayName)
	}
}

func metaFloat(item *MediaItem, get func(*Meta) float64) float64 {
	if item.Meta == nil {
		return 0
	}
	return get(item.Meta)
}

// SetPendingGain records a pending export gain override in dB.
func (l *List) SetPendingGain(id int64, db float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if item, ok := l.byID[id]; ok {
		item.Overrides.PendingGainDB = db
		item.Overrides.HasPendingGain = true
	}
}

// ClearOverrides resets the per-item export overrides after a successful
// save (spec.md §4.8 "Post-processing").
func (l *List) ClearOverrides(id int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if item, ok := l.byID[id]; ok {
		item.Overrides.Clear()
	}
}

// SetDisplayName updates an item's display name after a successful export
// (spec.md §4.8 "Post-processing: ... refresh display names").
func (l *List) SetDisplayName(id int64, name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if item, ok := l.byID[id]; ok {
		item.DisplayName = name
	}
}
