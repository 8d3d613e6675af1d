package templates

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"sync"
)

// ImageCache decodes template images once and shares the decoded RGBA
// read-only. Two manifest entries pointing at the same file share one decode.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]*image.RGBA
}

// NewImageCache creates an empty cache
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]*image.RGBA),
	}
}

// Load returns the decoded image for a path, decoding on first use
func (c *ImageCache) Load(path string) (*image.RGBA, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template image %s: %w", path, err)
	}
	defer file.Close()

	decoded, err := png.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode template image %s: %w", path, err)
	}

	rgba, ok := decoded.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(decoded.Bounds())
		draw.Draw(rgba, rgba.Bounds(), decoded, decoded.Bounds().Min, draw.Src)
	}

	c.mu.Lock()
	c.images[path] = rgba
	c.mu.Unlock()

	return rgba, nil
}

// Len returns the number of cached images
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}
