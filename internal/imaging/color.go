package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// ParseColor parses a "#rrggbb" or "#rgb" hex string. An empty string
// yields def.
func ParseColor(hex string, def colorful.Color) (colorful.Color, error) {
	if hex == "" {
		return def, nil
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	return c, nil
}

// AverageColor returns the mean colour of img as #rrggbb, for use as a
// placeholder while the image loads.
//
// The image is box-filtered down to a single pixel. Fully transparent and
// empty images report black.
func AverageColor(img image.Image) string {
	if img.Bounds().Empty() {
		return "#000000"
	}
	px := imaging.Resize(img, 1, 1, imaging.Box)
	c, ok := colorful.MakeColor(px.At(0, 0))
	if !ok {
		return "#000000"
	}
	return c.Clamped().Hex()
}
