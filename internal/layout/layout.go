// Package layout arranges images into justified rows of equal width.
//
// Rows are balanced with the linear partitioner: each image contributes a
// weight proportional to its aspect ratio, so every row ends up with a
// similar share of the total width before being scaled to fill the canvas.
package layout

import (
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/imagekit-mcp/internal/partition"
)

// Defaults applied to zero-valued Options fields.
const (
	DefaultWidth     = 1200
	DefaultRowHeight = 200
)

// maxStretch bounds how far a justified row may grow past RowHeight.
const maxStretch = 2

var (
	// ErrNoItems is returned when Justify is called without any items.
	ErrNoItems = errors.New("layout: no items")

	// ErrNoRoom is returned when the spacing between tiles uses up the
	// canvas width.
	ErrNoRoom = errors.New("layout: spacing leaves no room for tiles")
)

// Item is the pixel size of one image to place.
type Item struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Options controls the layout.
type Options struct {
	// Width is the canvas width every full row is scaled to.
	Width int `json:"width"`

	// RowHeight is the ideal row height used to decide how many rows to use.
	RowHeight int `json:"row_height"`

	// Spacing is the gap in pixels between tiles and between rows.
	Spacing int `json:"spacing"`
}

// Tile is the placement of one item. Index refers to the input slice.
type Tile struct {
	Index  int `json:"index"`
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Row is a horizontal strip of tiles sharing a height.
type Row struct {
	Y      int    `json:"y"`
	Height int    `json:"height"`
	Tiles  []Tile `json:"tiles"`
}

// Result is a complete layout.
type Result struct {
	Width  int   `json:"width"`
	Height int   `json:"height"`
	Rows   []Row `json:"rows"`
}

// Tiles returns every tile in row order.
func (r *Result) Tiles() []Tile {
	var tiles []Tile
	for _, row := range r.Rows {
		tiles = append(tiles, row.Tiles...)
	}
	return tiles
}

func (o Options) withDefaults() (Options, error) {
	if o.Width < 0 || o.RowHeight < 0 || o.Spacing < 0 {
		return o, fmt.Errorf("layout: negative option (width=%d, row_height=%d, spacing=%d)",
			o.Width, o.RowHeight, o.Spacing)
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.RowHeight == 0 {
		o.RowHeight = DefaultRowHeight
	}
	return o, nil
}

// Justify places items into rows that exactly fill opts.Width.
//
// The number of rows is the total width the items would take at
// opts.RowHeight divided by opts.Width, rounded. Rows are balanced by
// aspect ratio; when a row would end up more than twice opts.RowHeight
// tall, one row fewer is tried. When the count rounds to zero the items are
// laid out in a single row at opts.RowHeight without scaling.
//
// ErrNoRoom is returned when opts.Spacing leaves less than a pixel per tile.
func Justify(items []Item, opts Options) (*Result, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	aspects := make([]float64, len(items))
	var ideal float64
	for i, it := range items {
		if it.Width <= 0 || it.Height <= 0 {
			return nil, fmt.Errorf("layout: item %d has invalid size %dx%d", i, it.Width, it.Height)
		}
		aspects[i] = float64(it.Width) / float64(it.Height)
		ideal += aspects[i] * float64(opts.RowHeight)
	}

	rows := int(math.Round(ideal / float64(opts.Width)))
	if rows < 1 {
		return singleRow(aspects, opts), nil
	}

	// The earliest-split tie-break can leave a short row that would be
	// scaled far past RowHeight. Drop a row until every row fits. A single
	// row never breaks the height limit, since rows >= 1 means the ideal
	// width is at least half the canvas.
	rows = min(rows, len(aspects))
	sol := partition.Solve(aspects, rows)
	var ranges []partition.Range
	var lastErr error
	for k := rows; k >= 1; k-- {
		ranges = sol.Ranges(k)
		if lastErr = checkRows(aspects, ranges, opts); lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}

	res := &Result{Width: opts.Width}
	y := 0
	for _, r := range ranges {
		if r.Len() == 0 {
			continue
		}
		if len(res.Rows) > 0 {
			y += opts.Spacing
		}
		row := justifyRow(aspects, r, y, opts)
		res.Rows = append(res.Rows, row)
		y += row.Height
	}
	res.Height = y
	return res, nil
}

// checkRows reports whether every non-empty range can be justified: the
// spacing must leave at least a pixel per tile, and the scaled row must not
// be taller than maxStretch times RowHeight.
func checkRows(aspects []float64, ranges []partition.Range, opts Options) error {
	limit := float64(maxStretch * opts.RowHeight)
	for _, r := range ranges {
		if r.Len() == 0 {
			continue
		}
		avail := rowWidth(r, opts)
		if avail < r.Len() {
			return fmt.Errorf("%w: spacing %d leaves %dpx for %d tiles in width %d",
				ErrNoRoom, opts.Spacing, avail, r.Len(), opts.Width)
		}
		if height := float64(avail) / sumAspects(aspects, r); height > limit {
			return fmt.Errorf("layout: row %d-%d would be %.0fpx tall, limit %.0fpx",
				r.Start, r.End-1, height, limit)
		}
	}
	return nil
}

func rowWidth(r partition.Range, opts Options) int {
	return opts.Width - opts.Spacing*(r.Len()-1)
}

func sumAspects(aspects []float64, r partition.Range) float64 {
	var sum float64
	for _, a := range aspects[r.Start:r.End] {
		sum += a
	}
	return sum
}

// justifyRow scales the items in r so that their widths plus spacing add
// up to opts.Width. Tile edges are rounded from the running aspect total so
// rounding error does not accumulate along the row.
func justifyRow(aspects []float64, r partition.Range, y int, opts Options) Row {
	avail := rowWidth(r, opts)
	height := float64(avail) / sumAspects(aspects, r)

	row := Row{Y: y, Height: max(1, int(math.Round(height)))}
	var cum float64
	prev := 0
	for i := r.Start; i < r.End; i++ {
		cum += aspects[i]
		next := int(math.Round(cum * height))
		if i == r.End-1 {
			next = avail
		}
		row.Tiles = append(row.Tiles, Tile{
			Index:  i,
			X:      prev + (i-r.Start)*opts.Spacing,
			Y:      y,
			Width:  max(1, next-prev),
			Height: row.Height,
		})
		prev = next
	}
	return row
}

func singleRow(aspects []float64, opts Options) *Result {
	row := Row{Height: opts.RowHeight}
	x := 0
	for i, a := range aspects {
		if i > 0 {
			x += opts.Spacing
		}
		w := max(1, int(math.Round(a*float64(opts.RowHeight))))
		row.Tiles = append(row.Tiles, Tile{Index: i, X: x, Width: w, Height: opts.RowHeight})
		x += w
	}
	return &Result{Width: opts.Width, Height: opts.RowHeight, Rows: []Row{row}}
}
