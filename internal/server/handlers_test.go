package server

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/ironsheep/imagekit-mcp/internal/config"
	"github.com/ironsheep/imagekit-mcp/internal/imaging"
	"github.com/ironsheep/imagekit-mcp/internal/sniff"
)

// createTestImageFile creates a solid-colour PNG and returns its path.
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	tmpFile, err := os.CreateTemp(t.TempDir(), "handler-test-*.png")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer tmpFile.Close()

	if err := png.Encode(tmpFile, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}

	return tmpFile.Name()
}

// callTool runs a tools/call request and decodes the JSON text content into out.
func callTool(t *testing.T, s *Server, name string, args interface{}, out interface{}) {
	t.Helper()

	resp := callToolRaw(t, s, name, args)
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	content, ok := result["content"].([]map[string]interface{})
	if !ok || len(content) != 1 {
		t.Fatalf("unexpected content: %#v", result["content"])
	}
	text, _ := content[0]["text"].(string)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		t.Fatalf("failed to decode tool result %q: %v", text, err)
	}
}

func callToolRaw(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()

	paramsJSON, err := json.Marshal(map[string]interface{}{
		"name":      name,
		"arguments": args,
	})
	if err != nil {
		t.Fatalf("failed to marshal params: %v", err)
	}

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	return resp
}

func expectToolError(t *testing.T, s *Server, name string, args interface{}) {
	t.Helper()
	resp := callToolRaw(t, s, name, args)
	if resp.Error == nil {
		t.Fatalf("%s: expected error response", name)
	}
	if resp.Error.Code != -32000 {
		t.Errorf("%s: error code %d, want -32000", name, resp.Error.Code)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleToolsCall(&MCPRequest{JSONRPC: "2.0", ID: 1, Params: json.RawMessage(`[1,2`)})

	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Fatalf("got %+v, want -32602", resp.Error)
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer(t)
	expectToolError(t, s, "image_crop", map[string]interface{}{})
}

func TestImageSniff_Path(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, 64, 32, color.White)

	var got sniff.Header
	callTool(t, s, "image_sniff", map[string]interface{}{"path": path}, &got)

	want := sniff.Header{Width: 64, Height: 32, ContentType: "image/png"}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestImageSniff_Data(t *testing.T) {
	s := newTestServer(t)
	buf := []byte("GIF89a")
	buf = binary.LittleEndian.AppendUint16(buf, 100)
	buf = binary.LittleEndian.AppendUint16(buf, 50)

	var got sniff.Header
	callTool(t, s, "image_sniff", map[string]interface{}{
		"data": base64.StdEncoding.EncodeToString(buf),
	}, &got)

	want := sniff.Header{Width: 100, Height: 50, ContentType: "image/gif"}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestImageSniff_Unrecognized(t *testing.T) {
	s := newTestServer(t)

	var got sniff.Header
	callTool(t, s, "image_sniff", map[string]interface{}{
		"data": base64.StdEncoding.EncodeToString([]byte("hello")),
	}, &got)

	if got != sniff.Unknown() {
		t.Errorf("got %+v, want unknown", got)
	}
}

func TestImageSniff_MaxBytesTruncatesData(t *testing.T) {
	s := newTestServer(t)
	buf := []byte("GIF89a\x64\x00\x32\x00")

	var got sniff.Header
	callTool(t, s, "image_sniff", map[string]interface{}{
		"data":      base64.StdEncoding.EncodeToString(buf),
		"max_bytes": 6,
	}, &got)

	if got.Recognized() {
		t.Errorf("6 bytes should not be recognized, got %+v", got)
	}
}

func TestImageSniff_Errors(t *testing.T) {
	s := newTestServer(t)
	expectToolError(t, s, "image_sniff", map[string]interface{}{})
	expectToolError(t, s, "image_sniff", map[string]interface{}{"data": "!!not base64!!"})
	expectToolError(t, s, "image_sniff", map[string]interface{}{"path": "/nonexistent/image.png"})
}

func TestImageDimensions(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, 200, 150, color.RGBA{0, 255, 0, 255})

	var got imaging.DimensionsResult
	callTool(t, s, "image_dimensions", map[string]interface{}{"path": path}, &got)

	want := imaging.DimensionsResult{Width: 200, Height: 150, ContentType: "image/png", Method: imaging.MethodSniff}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestImageLoad(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, 100, 80, color.RGBA{255, 0, 0, 255})

	var got imaging.ImageInfo
	callTool(t, s, "image_load", map[string]interface{}{"path": path}, &got)

	if got.Width != 100 || got.Height != 80 {
		t.Errorf("dimensions: got %dx%d, want 100x80", got.Width, got.Height)
	}
	if got.Format != "png" || got.ContentType != "image/png" {
		t.Errorf("format: got %s / %s", got.Format, got.ContentType)
	}
}

func TestImageLoad_NonExistentFile(t *testing.T) {
	s := newTestServer(t)
	expectToolError(t, s, "image_load", map[string]interface{}{"path": "/nonexistent/image.png"})
}

func TestImagePartition(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name    string
		weights []float64
		k       int
		want    PartitionResult
	}{
		{
			"balanced",
			[]float64{1, 2, 3, 4, 5, 6, 7, 8, 9},
			3,
			PartitionResult{Groups: [][]float64{{1, 2, 3, 4, 5}, {6, 7}, {8, 9}}, MaxSum: 17},
		},
		{
			"more groups than weights",
			[]float64{3, 1},
			5,
			PartitionResult{Groups: [][]float64{{3}, {1}}, MaxSum: 3},
		},
		{
			"zero groups",
			[]float64{3, 1},
			0,
			PartitionResult{Groups: [][]float64{}, MaxSum: 0},
		},
		{
			"empty group",
			[]float64{10, 1, 1, 1},
			3,
			PartitionResult{Groups: [][]float64{{10}, {}, {1, 1, 1}}, MaxSum: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got PartitionResult
			callTool(t, s, "image_partition", map[string]interface{}{"weights": tt.weights, "k": tt.k}, &got)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestImagePartition_Errors(t *testing.T) {
	s := newTestServer(t)
	expectToolError(t, s, "image_partition", map[string]interface{}{"k": 2})
	expectToolError(t, s, "image_partition", map[string]interface{}{"weights": []float64{1, -2}, "k": 2})
	expectToolError(t, s, "image_partition", map[string]interface{}{"weights": "nope", "k": 2})
}

func TestPartitionTools_ItemLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Partition.MaxItems = 4
	s := New(cfg, zerolog.Nop())

	weights := make([]float64, 5)
	for i := range weights {
		weights[i] = float64(i + 1)
	}
	// The limit is checked before any file is touched, so the paths need
	// not exist.
	paths := []string{"/a.png", "/b.png", "/c.png", "/d.png", "/e.png"}

	expectToolError(t, s, "image_partition", map[string]interface{}{"weights": weights, "k": 2})
	expectToolError(t, s, "image_batch", map[string]interface{}{"paths": paths, "buckets": 2})
	expectToolError(t, s, "image_layout", map[string]interface{}{"paths": paths})
	expectToolError(t, s, "image_contact_sheet", map[string]interface{}{"paths": paths})

	resp := callToolRaw(t, s, "image_partition", map[string]interface{}{"weights": weights, "k": 2})
	if data, _ := resp.Error.Data.(string); !strings.Contains(data, "max_items") {
		t.Errorf("error data %q should name the limit", data)
	}

	var got PartitionResult
	callTool(t, s, "image_partition", map[string]interface{}{"weights": weights[:4], "k": 2}, &got)
	if got.MaxSum != 6 {
		t.Errorf("MaxSum at the limit: got %g, want 6", got.MaxSum)
	}
}

func TestImageBatch(t *testing.T) {
	s := newTestServer(t)
	dir := t.TempDir()

	sizes := []int{100, 300, 200, 200}
	paths := make([]string, len(sizes))
	for i, size := range sizes {
		paths[i] = filepath.Join(dir, strings.Repeat("f", i+1))
		if err := os.WriteFile(paths[i], make([]byte, size), 0o644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}

	var got BatchResult
	callTool(t, s, "image_batch", map[string]interface{}{"paths": paths, "buckets": 2}, &got)

	want := BatchResult{
		Batches: []Batch{
			{Paths: paths[:2], TotalBytes: 400},
			{Paths: paths[2:], TotalBytes: 400},
		},
		LargestBytes: 400,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestImageBatch_Errors(t *testing.T) {
	s := newTestServer(t)
	expectToolError(t, s, "image_batch", map[string]interface{}{"buckets": 2})
	expectToolError(t, s, "image_batch", map[string]interface{}{"paths": []string{"/nonexistent/file"}, "buckets": 1})
}

func TestImageLayout(t *testing.T) {
	s := newTestServer(t)
	paths := []string{
		createTestImageFile(t, 40, 40, color.RGBA{255, 0, 0, 255}),
		createTestImageFile(t, 40, 40, color.RGBA{0, 0, 255, 255}),
	}

	var got LayoutResult
	callTool(t, s, "image_layout", map[string]interface{}{
		"paths":        paths,
		"width":        200,
		"row_height":   100,
		"spacing":      0,
		"placeholders": true,
	}, &got)

	if got.Width != 200 || got.Height != 100 {
		t.Errorf("size: got %dx%d, want 200x100", got.Width, got.Height)
	}
	if len(got.Rows) != 1 || len(got.Rows[0].Tiles) != 2 {
		t.Fatalf("unexpected rows: %+v", got.Rows)
	}

	tiles := got.Rows[0].Tiles
	if tiles[0].Path != paths[0] || tiles[1].Path != paths[1] {
		t.Errorf("paths: got %s, %s", tiles[0].Path, tiles[1].Path)
	}
	if tiles[0].Placeholder != "#ff0000" || tiles[1].Placeholder != "#0000ff" {
		t.Errorf("placeholders: got %s, %s", tiles[0].Placeholder, tiles[1].Placeholder)
	}
	if tiles[1].X != 100 || tiles[1].Width != 100 {
		t.Errorf("second tile: got x=%d w=%d, want x=100 w=100", tiles[1].X, tiles[1].Width)
	}
}

func TestImageLayout_Errors(t *testing.T) {
	s := newTestServer(t)
	expectToolError(t, s, "image_layout", map[string]interface{}{})
	expectToolError(t, s, "image_layout", map[string]interface{}{"paths": []string{"/nonexistent/image.png"}})
	expectToolError(t, s, "image_layout", map[string]interface{}{
		"paths": []string{createTestImageFile(t, 10, 10, color.White)},
		"width": -5,
	})
}

func TestImageContactSheet(t *testing.T) {
	s := newTestServer(t)
	paths := []string{
		createTestImageFile(t, 40, 40, color.RGBA{255, 0, 0, 255}),
		createTestImageFile(t, 80, 40, color.RGBA{0, 255, 0, 255}),
	}

	var got imaging.SheetResult
	callTool(t, s, "image_contact_sheet", map[string]interface{}{
		"paths":      paths,
		"width":      300,
		"row_height": 100,
		"background": "#000000",
	}, &got)

	if got.Width != 300 || got.Tiles != 2 || got.MimeType != "image/png" {
		t.Errorf("got %dx%d with %d tiles (%s)", got.Width, got.Height, got.Tiles, got.MimeType)
	}

	data, err := base64.StdEncoding.DecodeString(got.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	header := sniff.Sniff(data)
	if header.Width != got.Width || header.Height != got.Height {
		t.Errorf("encoded sheet is %dx%d, result says %dx%d", header.Width, header.Height, got.Width, got.Height)
	}
}

func TestImageContactSheet_BadBackground(t *testing.T) {
	s := newTestServer(t)
	expectToolError(t, s, "image_contact_sheet", map[string]interface{}{
		"paths":      []string{createTestImageFile(t, 10, 10, color.White)},
		"background": "not-a-colour",
	})
}

func TestForEachPath(t *testing.T) {
	paths := []string{"a", "b", "c", "d", "e"}
	seen := make([]string, len(paths))

	if err := forEachPath(paths, func(i int, p string) error {
		seen[i] = p
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(paths, seen); diff != "" {
		t.Errorf("visited paths mismatch (-want +got):\n%s", diff)
	}

	err := forEachPath(paths, func(i int, p string) error {
		if p == "c" {
			return os.ErrNotExist
		}
		return nil
	})
	if err != os.ErrNotExist {
		t.Errorf("got %v, want %v", err, os.ErrNotExist)
	}
}
