// Package sniff identifies GIF, PNG and JPEG payloads from their leading
// bytes and extracts pixel dimensions without decoding the image.
//
// Only header and marker inspection is performed. A few hundred bytes are
// normally enough for GIF and PNG; JPEG dimensions live in the SOF0 segment,
// which may follow large APP segments, so callers reading from a stream
// should hand over a generous prefix (see DefaultLimit).
//
// # Detection Order
//
// Rules are tried in a fixed priority and the first match wins:
//
//  1. GIF87a / GIF89a logical screen descriptor (little-endian 16-bit sizes)
//  2. PNG signature followed by an IHDR chunk (big-endian 32-bit sizes)
//  3. PNG signature without the IHDR check (legacy layout, sizes at 8..15)
//  4. JPEG SOI + APP0/JFIF, scanning segments for a baseline SOF0 marker
//
// A JPEG without a reachable SOF0 marker is still reported as image/jpeg,
// with both dimensions set to -1.
//
// # Thread Safety
//
// All functions are pure and may be called concurrently.
package sniff
