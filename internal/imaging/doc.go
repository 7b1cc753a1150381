// Package imaging loads images and renders contact sheets for the MCP server.
//
// It sits on top of the header sniffer and the row layout: dimension lookups
// try the sniffer first and only fall back to the decoder's config reader,
// while contact sheets decode every image, fit it into its layout tile and
// encode the result as base64 PNG.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Layout tiles are half-open:
// a tile covers X..X+Width and Y..Y+Height.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. The remaining functions are
// stateless and can be called concurrently.
//
// # Error Handling
//
// Functions return errors for:
//   - File I/O errors during image loading
//   - Files no registered decoder understands
//   - Layouts referring to images that were not supplied
//   - Invalid colours and encoding errors during output
package imaging
