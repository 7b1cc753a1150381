package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"sync"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder

	"github.com/ironsheep/imagekit-mcp/internal/sniff"
)

// ImageCache provides thread-safe caching of loaded images to avoid redundant disk reads.
//
// The cache stores decoded image.Image objects keyed by their file path. Once an image
// is loaded, subsequent Load() calls for the same path return the cached copy without
// disk I/O.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// Cached images remain in memory until explicitly removed via Evict() or Clear().
// Contact sheets touch every input image, so long-running processes laying out
// many different sets should clear the cache between batches.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or loads it from disk if not cached.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP. The image is cached
// using the exact path string provided.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the decoder's format name: "png", "jpeg", "gif", "bmp", "tiff" or "webp".
	Format string `json:"format"`

	// ContentType is the MIME type. It comes from the header sniffer when the
	// sniffer recognizes the file, otherwise it is derived from Format.
	ContentType string `json:"content_type"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the image has an alpha (transparency) channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`

	// AverageColor is the mean colour of the image as #rrggbb.
	AverageColor string `json:"average_color"`
}

// LoadImageInfo loads an image and returns metadata about it.
//
// Format and content type are taken from the file contents, never from the
// file extension.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	header, err := sniff.SniffFile(path, sniff.DefaultLimit)
	if err != nil {
		return nil, err
	}
	format, err := decodeFormat(path)
	if err != nil {
		return nil, err
	}
	contentType := header.ContentType
	if contentType == "" {
		contentType = "image/" + format
	}

	hasAlpha := false
	colorDepth := "8-bit"
	switch img.(type) {
	case *image.RGBA, *image.NRGBA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray16:
		colorDepth = "16-bit"
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		ContentType:   contentType,
		ColorDepth:    colorDepth,
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
		AverageColor:  AverageColor(img),
	}, nil
}

func decodeFormat(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	_, format, err := image.DecodeConfig(f)
	if err != nil {
		return "", fmt.Errorf("failed to read image config: %w", err)
	}
	return format, nil
}

// Dimension lookup methods reported in DimensionsResult.Method.
const (
	MethodSniff  = "sniff"
	MethodDecode = "decode"
)

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ContentType string `json:"content_type"`

	// Method reports how the dimensions were found: "sniff" when the header
	// sniffer answered, "decode" when the decoder's config reader was needed.
	Method string `json:"method"`
}

// GetDimensions returns the dimensions of an image without decoding pixels.
//
// The first limit bytes are sniffed. When the sniffer cannot determine the
// size (progressive or EXIF-first JPEG, BMP, WebP...) the same bytes, plus the
// rest of the file if needed, are handed to image.DecodeConfig.
func GetDimensions(path string, limit int) (*DimensionsResult, error) {
	if limit <= 0 {
		limit = sniff.DefaultLimit
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	head, err := io.ReadAll(io.LimitReader(f, int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}

	header := sniff.Sniff(head)
	if header.HasDimensions() {
		return &DimensionsResult{
			Width:       header.Width,
			Height:      header.Height,
			ContentType: header.ContentType,
			Method:      MethodSniff,
		}, nil
	}

	cfg, format, err := image.DecodeConfig(io.MultiReader(bytes.NewReader(head), f))
	if err != nil {
		return nil, fmt.Errorf("failed to read dimensions of %s: %w", path, err)
	}

	contentType := header.ContentType
	if contentType == "" {
		contentType = "image/" + format
	}
	return &DimensionsResult{
		Width:       cfg.Width,
		Height:      cfg.Height,
		ContentType: contentType,
		Method:      MethodDecode,
	}, nil
}
