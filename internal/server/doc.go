// Package server implements the MCP (Model Context Protocol) server for the image tools.
//
// The server speaks JSON-RPC 2.0 over stdio:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Header Inspection:
//   - image_sniff: Identify GIF, PNG or JPEG and read its size from the leading bytes
//   - image_dimensions: Width and height, sniffing first and decoding the header otherwise
//   - image_load: Decode an image and report its metadata
//
// Partitioning:
//   - image_partition: Split ordered weights into k groups minimising the largest sum
//   - image_batch: Split ordered files into batches of balanced total size
//
// Layout:
//   - image_layout: Justified rows of equal width
//   - image_contact_sheet: Render the justified rows into one PNG
//
// # Errors
//
// Tool failures are returned as JSON-RPC errors with code -32000 and the Go
// error string in data. Malformed tools/call params use -32602 and unknown
// methods -32601.
//
// # Usage
//
//	srv := server.New(cfg, log)
//	if err := srv.Run(); err != nil {
//	    log.Fatal().Err(err).Msg("Server error")
//	}
package server
