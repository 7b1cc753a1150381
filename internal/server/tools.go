package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

var pathsProperty = map[string]interface{}{
	"type":        "array",
	"items":       map[string]interface{}{"type": "string"},
	"description": "Absolute paths to the image files, in display order",
}

// layoutProperties are shared by the tools that arrange images in rows.
func layoutProperties() map[string]interface{} {
	return map[string]interface{}{
		"paths": pathsProperty,
		"width": map[string]interface{}{
			"type":        "integer",
			"description": "Canvas width in pixels every row is scaled to (default from config, 1200)",
		},
		"row_height": map[string]interface{}{
			"type":        "integer",
			"description": "Ideal row height in pixels, used to choose the row count (default from config, 200)",
		},
		"spacing": map[string]interface{}{
			"type":        "integer",
			"description": "Gap between tiles and rows in pixels (default from config, 0)",
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	contactSheet := layoutProperties()
	contactSheet["background"] = map[string]interface{}{
		"type":        "string",
		"description": "Canvas colour as hex #rrggbb (default from config, #ffffff)",
	}
	contactSheet["grayscale"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Render the sheet in grayscale",
		"default":     false,
	}

	layoutProps := layoutProperties()
	layoutProps["placeholders"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Decode each image and report its average colour for use as a loading placeholder",
		"default":     false,
	}

	return []Tool{
		// Header Inspection
		{
			Name:        "image_sniff",
			Description: "Identify a GIF, PNG or JPEG from its leading bytes and report width, height and content type without decoding the image. Unknown values are -1 / empty.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"data": map[string]interface{}{
						"type":        "string",
						"description": "Base64-encoded leading bytes of an image, used instead of path",
					},
					"max_bytes": map[string]interface{}{
						"type":        "integer",
						"description": "How many leading bytes of the file to inspect (default from config, 65536)",
					},
				},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file. Reads only the header when possible and falls back to the format decoder's header reader.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_load",
			Description: "Decode an image file and return its dimensions, format, colour depth, alpha, file size and average colour.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Partitioning
		{
			Name:        "image_partition",
			Description: "Split an ordered list of non-negative weights into k contiguous groups so that the largest group sum is as small as possible. Accepts at most partition.max_items weights (default 500).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"weights": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "number", "minimum": 0},
						"description": "Weights in order",
					},
					"k": map[string]interface{}{
						"type":        "integer",
						"description": "Number of groups",
					},
				},
				"required": []string{"weights", "k"},
			},
		},
		{
			Name:        "image_batch",
			Description: "Split an ordered list of image files into contiguous batches with balanced total file size, for distributing processing work. Accepts at most partition.max_items files (default 500).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": pathsProperty,
					"buckets": map[string]interface{}{
						"type":        "integer",
						"description": "Number of batches",
					},
				},
				"required": []string{"paths", "buckets"},
			},
		},

		// Layout
		{
			Name:        "image_layout",
			Description: "Arrange images into justified rows of equal width, balancing rows by aspect ratio. Returns the position and size of every tile.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": layoutProps,
				"required":   []string{"paths"},
			},
		},
		{
			Name:        "image_contact_sheet",
			Description: "Render images into a single justified contact sheet and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": contactSheet,
				"required":   []string{"paths"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
