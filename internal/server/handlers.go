package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/imagekit-mcp/internal/imaging"
	"github.com/ironsheep/imagekit-mcp/internal/layout"
	"github.com/ironsheep/imagekit-mcp/internal/partition"
	"github.com/ironsheep/imagekit-mcp/internal/sniff"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_sniff", "image_partition").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.Debug().Err(err).Str("tool", params.Name).Dur("elapsed", time.Since(start)).Msg("Tool failed")
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}
	s.log.Debug().Str("tool", params.Name).Dur("elapsed", time.Since(start)).Msg("Tool call")

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Header Inspection
	case "image_sniff":
		return s.handleImageSniff(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_load":
		return s.handleImageLoad(args)

	// Partitioning
	case "image_partition":
		return s.handleImagePartition(args)
	case "image_batch":
		return s.handleImageBatch(args)

	// Layout
	case "image_layout":
		return s.handleImageLayout(args)
	case "image_contact_sheet":
		return s.handleImageContactSheet(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{
		Code:    code,
		Message: message,
	}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   e,
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// forEachPath calls fn for every path concurrently, bounded by GOMAXPROCS,
// and returns the first error.
func forEachPath(paths []string, fn func(i int, path string) error) error {
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, p := range paths {
		g.Go(func() error {
			return fn(i, p)
		})
	}
	return g.Wait()
}

// === Header Inspection Handlers ===

type imageSniffArgs struct {
	Path     string `json:"path"`
	Data     string `json:"data"`
	MaxBytes int    `json:"max_bytes"`
}

func (s *Server) handleImageSniff(args json.RawMessage) (interface{}, error) {
	var a imageSniffArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.MaxBytes == 0 {
		a.MaxBytes = s.cfg.Sniff.MaxBytes
	}

	switch {
	case a.Data != "":
		data, err := base64.StdEncoding.DecodeString(a.Data)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 data: %w", err)
		}
		if a.MaxBytes > 0 && len(data) > a.MaxBytes {
			data = data[:a.MaxBytes]
		}
		return sniff.Sniff(data), nil
	case a.Path != "":
		return sniff.SniffFile(a.Path, a.MaxBytes)
	default:
		return nil, errors.New("either path or data is required")
	}
}

type imagePathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imagePathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(a.Path, s.cfg.Sniff.MaxBytes)
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imagePathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Partitioning Handlers ===

type imagePartitionArgs struct {
	Weights []float64 `json:"weights"`
	K       int       `json:"k"`
}

// PartitionResult is the result of image_partition.
type PartitionResult struct {
	Groups [][]float64 `json:"groups"`
	MaxSum float64     `json:"max_sum"`
}

func (s *Server) handleImagePartition(args json.RawMessage) (interface{}, error) {
	var a imagePartitionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Weights == nil {
		return nil, errors.New("weights is required")
	}
	if err := s.cfg.CheckItems(len(a.Weights)); err != nil {
		return nil, err
	}
	for i, w := range a.Weights {
		if w < 0 {
			return nil, fmt.Errorf("weight %d is negative (%g)", i, w)
		}
	}

	groups := partition.Partition(a.Weights, a.K)
	if groups == nil {
		groups = [][]float64{}
	}
	return &PartitionResult{
		Groups: groups,
		MaxSum: partition.MaxSum(groups),
	}, nil
}

type imageBatchArgs struct {
	Paths   []string `json:"paths"`
	Buckets int      `json:"buckets"`
}

// Batch is one contiguous run of files.
type Batch struct {
	Paths      []string `json:"paths"`
	TotalBytes int64    `json:"total_bytes"`
}

// BatchResult is the result of image_batch.
type BatchResult struct {
	Batches      []Batch `json:"batches"`
	LargestBytes int64   `json:"largest_bytes"`
}

func (s *Server) handleImageBatch(args json.RawMessage) (interface{}, error) {
	var a imageBatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, errors.New("paths is required")
	}
	if err := s.cfg.CheckItems(len(a.Paths)); err != nil {
		return nil, err
	}

	sizes := make([]int64, len(a.Paths))
	err := forEachPath(a.Paths, func(i int, p string) error {
		st, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("failed to stat file: %w", err)
		}
		sizes[i] = st.Size()
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &BatchResult{Batches: []Batch{}}
	for _, r := range partition.Ranges(sizes, a.Buckets) {
		b := Batch{
			Paths:      append([]string{}, a.Paths[r.Start:r.End]...),
			TotalBytes: partition.Sum(sizes[r.Start:r.End]),
		}
		res.Batches = append(res.Batches, b)
		res.LargestBytes = max(res.LargestBytes, b.TotalBytes)
	}
	return res, nil
}

// === Layout Handlers ===

type imageLayoutArgs struct {
	Paths        []string `json:"paths"`
	Width        int      `json:"width"`
	RowHeight    int      `json:"row_height"`
	Spacing      *int     `json:"spacing"`
	Placeholders bool     `json:"placeholders"`
}

// LayoutTile is a layout tile annotated with its source image.
type LayoutTile struct {
	layout.Tile
	Path        string `json:"path"`
	Placeholder string `json:"placeholder,omitempty"`
}

// LayoutRow is one row of LayoutResult.
type LayoutRow struct {
	Y      int          `json:"y"`
	Height int          `json:"height"`
	Tiles  []LayoutTile `json:"tiles"`
}

// LayoutResult is the result of image_layout.
type LayoutResult struct {
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Rows   []LayoutRow `json:"rows"`
}

// justify sizes every image from its header and lays them out.
func (s *Server) justify(a imageLayoutArgs) (*layout.Result, error) {
	if len(a.Paths) == 0 {
		return nil, errors.New("paths is required")
	}
	if err := s.cfg.CheckItems(len(a.Paths)); err != nil {
		return nil, err
	}

	items := make([]layout.Item, len(a.Paths))
	err := forEachPath(a.Paths, func(i int, p string) error {
		dims, err := imaging.GetDimensions(p, s.cfg.Sniff.MaxBytes)
		if err != nil {
			return err
		}
		items[i] = layout.Item{Width: dims.Width, Height: dims.Height}
		return nil
	})
	if err != nil {
		return nil, err
	}

	opts := s.cfg.LayoutOptions()
	if a.Width != 0 {
		opts.Width = a.Width
	}
	if a.RowHeight != 0 {
		opts.RowHeight = a.RowHeight
	}
	if a.Spacing != nil {
		opts.Spacing = *a.Spacing
	}
	return layout.Justify(items, opts)
}

func (s *Server) handleImageLayout(args json.RawMessage) (interface{}, error) {
	var a imageLayoutArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	lay, err := s.justify(a)
	if err != nil {
		return nil, err
	}

	res := &LayoutResult{Width: lay.Width, Height: lay.Height}
	for _, row := range lay.Rows {
		out := LayoutRow{Y: row.Y, Height: row.Height}
		for _, t := range row.Tiles {
			tile := LayoutTile{Tile: t, Path: a.Paths[t.Index]}
			if a.Placeholders {
				img, err := s.cache.Load(tile.Path)
				if err != nil {
					return nil, err
				}
				tile.Placeholder = imaging.AverageColor(img)
			}
			out.Tiles = append(out.Tiles, tile)
		}
		res.Rows = append(res.Rows, out)
	}
	return res, nil
}

type imageContactSheetArgs struct {
	imageLayoutArgs
	Background string `json:"background"`
	Grayscale  bool   `json:"grayscale"`
}

func (s *Server) handleImageContactSheet(args json.RawMessage) (interface{}, error) {
	var a imageContactSheetArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Background == "" {
		a.Background = s.cfg.Sheet.Background
	}

	lay, err := s.justify(a.imageLayoutArgs)
	if err != nil {
		return nil, err
	}
	return imaging.RenderSheet(s.cache, a.Paths, lay, imaging.SheetOptions{
		Background: a.Background,
		Grayscale:  a.Grayscale,
	})
}
