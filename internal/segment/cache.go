package segment

import (
	"image"
	"sync"

	"github.com/ironsheep/image-editor-mcp/internal/imaging"
)

// MaskCache is a single-slot cache of the last computed mask.
//
// The slot is keyed by the source bitmap and its dimensions: a lookup for a
// different bitmap, or for one whose size changed, misses. Putting a new
// mask replaces the previous one.
//
// MaskCache is safe for concurrent use by multiple goroutines.
type MaskCache struct {
	mu     sync.Mutex
	source *imaging.Bitmap
	size   image.Point
	mask   *image.Alpha
	hits   int
	misses int
}

// NewMaskCache creates an empty cache.
func NewMaskCache() *MaskCache {
	return &MaskCache{}
}

// Get returns the cached mask for src.
func (c *MaskCache) Get(src *imaging.Bitmap) (*image.Alpha, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mask == nil || src == nil || c.source != src || c.size != src.Size() {
		c.misses++
		return nil, false
	}
	c.hits++
	return c.mask, true
}

// Put stores mask as the result for src, replacing any previous entry.
func (c *MaskCache) Put(src *imaging.Bitmap, mask *image.Alpha) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.source = src
	c.size = src.Size()
	c.mask = mask
}

// Invalidate empties the slot.
func (c *MaskCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.source = nil
	c.size = image.Point{}
	c.mask = nil
}

// Stats returns the number of hits and misses since creation.
func (c *MaskCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
