package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/imagekit-mcp/internal/layout"
)

// SheetOptions controls contact sheet rendering.
type SheetOptions struct {
	// Background is the canvas colour as a hex string ("#rrggbb").
	// Empty selects white.
	Background string

	// Grayscale converts the finished sheet to grayscale.
	Grayscale bool
}

// SheetResult contains a rendered contact sheet.
type SheetResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Tiles       int    `json:"tiles"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// RenderSheet draws the images at paths into the tiles of lay.
//
// Each tile's Index selects the image from paths. Images are scaled and
// center-cropped to fill their tile exactly.
func RenderSheet(cache *ImageCache, paths []string, lay *layout.Result, opts SheetOptions) (*SheetResult, error) {
	if lay == nil || lay.Width <= 0 || lay.Height <= 0 {
		return nil, fmt.Errorf("invalid layout")
	}

	bg, err := ParseColor(opts.Background, colorful.Color{R: 1, G: 1, B: 1})
	if err != nil {
		return nil, fmt.Errorf("invalid background: %w", err)
	}

	canvas := imaging.New(lay.Width, lay.Height, bg)
	tiles := lay.Tiles()
	for _, t := range tiles {
		if t.Index < 0 || t.Index >= len(paths) {
			return nil, fmt.Errorf("tile index %d out of range for %d images", t.Index, len(paths))
		}
		img, err := cache.Load(paths[t.Index])
		if err != nil {
			return nil, err
		}
		fitted := imaging.Fill(img, t.Width, t.Height, imaging.Center, imaging.Lanczos)
		r := image.Rect(t.X, t.Y, t.X+t.Width, t.Y+t.Height)
		draw.Draw(canvas, r, fitted, image.Point{}, draw.Src)
	}

	var out image.Image = canvas
	if opts.Grayscale {
		out = effect.Grayscale(canvas)
	}

	encoded, err := encodePNG(out)
	if err != nil {
		return nil, err
	}

	return &SheetResult{
		Width:       lay.Width,
		Height:      lay.Height,
		Tiles:       len(tiles),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

func encodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
