package spectrogram

import (
	"container/list"
	"encoding/binary"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// cacheKey identifies a tile by its source path, tile config, and frame
// range (spec.md §4.7 "Tiles are cached by path + config").
type cacheKey [blake2b.Size256]byte

func keyFor(path string, cfg Config, startFrame, endFrame int) cacheKey {
	h, _ := blake2b.New256(nil)
	_, _ = h.Write([]byte(path))
	var buf [8]byte
	write := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(v)))
		_, _ = h.Write(buf[:])
	}
	write(cfg.FFTSize)
	write(int(cfg.Window))
	write(int(cfg.Overlap * 1e6))
	write(cfg.MaxFrames)
	write(int(cfg.Scale))
	if cfg.MelScale {
		write(1)
	} else {
		write(0)
	}
	write(int(cfg.DBFloor * 1e3))
	write(int(cfg.MaxFreqHz))
	write(startFrame)
	write(endFrame)
	var out cacheKey
	copy(out[:], h.Sum(nil))
	return out
}

type cacheEntry struct {
	key   cacheKey
	path  string
	tile  *Tile
	bytes int64
}

// Cache is an LRU of computed tiles bounded by a byte budget
// (spec.md §4.7 "a byte budget evicts LRU tiles").
type Cache struct {
	mu       sync.Mutex
	budget   int64
	used     int64
	order    *list.List
	elements map[cacheKey]*list.Element
}

// NewCache returns an empty cache bounded by budgetBytes.
func NewCache(budgetBytes int64) *Cache {
	return &Cache{
		budget:   budgetBytes,
		order:    list.New(),
		elements: make(map[cacheKey]*list.Element),
	}
}

func tileBytes(t *Tile) int64 {
	var n int64
	for _, row := range t.Bins {
		n += int64(len(row)) * 8
	}
	return n + 64
}

// Get returns a cached tile for path/cfg/range, promoting it to
// most-recently-used on a hit.
func (c *Cache) Get(path string, cfg Config, startFrame, endFrame int) (*Tile, bool) {
	key := keyFor(path, cfg, startFrame, endFrame)

	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.elements[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).tile, true
}

// Put inserts a freshly computed tile, evicting LRU entries until back
// within budget.
func (c *Cache) Put(path string, cfg Config, startFrame, endFrame int, tile *Tile) {
	key := keyFor(path, cfg, startFrame, endFrame)
	entry := &cacheEntry{key: key, path: path, tile: tile, bytes: tileBytes(tile)}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.elements[key]; ok {
		c.used -= existing.Value.(*cacheEntry).bytes
		c.order.Remove(existing)
	}

	elem := c.order.PushFront(entry)
	c.elements[key] = elem
	c.used += entry.bytes

	for c.budget > 0 && c.used > c.budget && c.order.Len() > 1 {
		back := c.order.Back()
		old := back.Value.(*cacheEntry)
		c.order.Remove(back)
		delete(c.elements, old.key)
		c.used -= old.bytes
	}
}

// InvalidatePath drops every cached tile belonging to path (spec.md §4.4
// "invalidate the spectrogram cache for the tab's path").
func (c *Cache) InvalidatePath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, elem := range c.elements {
		entry := elem.Value.(*cacheEntry)
		if entry.path == path {
			c.order.Remove(elem)
			delete(c.elements, key)
			c.used -= entry.bytes
		}
	}
}

// Len reports the number of cached tiles.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// UsedBytes reports the current byte total charged against budget.
func (c *Cache) UsedBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used
}
