package sniff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Content types reported by Sniff.
const (
	ContentTypeGIF  = "image/gif"
	ContentTypePNG  = "image/png"
	ContentTypeJPEG = "image/jpeg"
)

// DefaultLimit is the number of leading bytes SniffReader inspects when the
// caller does not supply a limit.
const DefaultLimit = 64 * 1024

// ErrNilReader is returned by SniffReader when it is handed a nil reader.
var ErrNilReader = errors.New("sniff: nil reader")

var (
	gif87Magic = []byte("GIF87a")
	gif89Magic = []byte("GIF89a")
	pngMagic   = []byte("\x89PNG\r\n\x1a\n")
	jpegMagic  = []byte{0xFF, 0xD8, 0xFF, 0xE0}
	ihdrTag    = []byte("IHDR")
	jfifTag    = []byte("JFIF")
)

// Header describes what could be learned about an image from its first bytes.
//
// Width and Height are -1 when undetermined. ContentType is empty when the
// format was not recognized.
type Header struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ContentType string `json:"content_type"`
}

// Unknown returns the header reported for unrecognized input.
func Unknown() Header {
	return Header{Width: -1, Height: -1}
}

// Recognized reports whether the format was identified.
func (h Header) Recognized() bool {
	return h.ContentType != ""
}

// HasDimensions reports whether both width and height were determined.
func (h Header) HasDimensions() bool {
	return h.Width >= 0 && h.Height >= 0
}

func (h Header) String() string {
	if !h.Recognized() {
		return "unknown"
	}
	return fmt.Sprintf("%s %dx%d", h.ContentType, h.Width, h.Height)
}

// matcher inspects buf and reports whether it claims the buffer.
type matcher func(buf []byte) (Header, bool)

// matchers is evaluated in order; the first claim wins.
var matchers = []matcher{
	matchGIF,
	matchPNG,
	matchLegacyPNG,
	matchJPEG,
}

// Sniff inspects the leading bytes of an image and returns its dimensions
// and content type. Malformed or truncated input is never an error: the
// fields that could not be determined keep their unknown values.
func Sniff(buf []byte) Header {
	for _, m := range matchers {
		if h, ok := m(buf); ok {
			return h
		}
	}
	return Unknown()
}

// SniffReader reads up to limit bytes from r and sniffs them. A limit of zero
// or less selects DefaultLimit. Reaching EOF early is not an error.
func SniffReader(r io.Reader, limit int) (Header, error) {
	if r == nil {
		return Unknown(), ErrNilReader
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	buf, err := io.ReadAll(io.LimitReader(r, int64(limit)))
	if err != nil {
		return Unknown(), fmt.Errorf("failed to read image header: %w", err)
	}
	return Sniff(buf), nil
}

// SniffFile sniffs the first limit bytes of the file at path.
func SniffFile(path string, limit int) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Unknown(), fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	return SniffReader(f, limit)
}

// matchGIF reads the logical screen descriptor that follows the signature.
func matchGIF(buf []byte) (Header, bool) {
	if len(buf) < 10 {
		return Header{}, false
	}
	if !bytes.Equal(buf[:6], gif87Magic) && !bytes.Equal(buf[:6], gif89Magic) {
		return Header{}, false
	}
	return Header{
		Width:       int(binary.LittleEndian.Uint16(buf[6:8])),
		Height:      int(binary.LittleEndian.Uint16(buf[8:10])),
		ContentType: ContentTypeGIF,
	}, true
}

// matchPNG requires the first chunk to be IHDR: 8-byte signature, 4-byte
// chunk length, chunk type, then width and height.
func matchPNG(buf []byte) (Header, bool) {
	if len(buf) < 24 || !bytes.HasPrefix(buf, pngMagic) || !bytes.Equal(buf[12:16], ihdrTag) {
		return Header{}, false
	}
	return Header{
		Width:       int(binary.BigEndian.Uint32(buf[16:20])),
		Height:      int(binary.BigEndian.Uint32(buf[20:24])),
		ContentType: ContentTypePNG,
	}, true
}

// matchLegacyPNG handles a signature that is not followed by an IHDR chunk
// (or a buffer too short to hold one) by reading sizes straight after the
// signature. Kept for compatibility with older producers; for well-formed
// files matchPNG always claims the buffer first.
func matchLegacyPNG(buf []byte) (Header, bool) {
	if len(buf) < 16 || !bytes.HasPrefix(buf, pngMagic) {
		return Header{}, false
	}
	return Header{
		Width:       int(binary.BigEndian.Uint32(buf[8:12])),
		Height:      int(binary.BigEndian.Uint32(buf[12:16])),
		ContentType: ContentTypePNG,
	}, true
}

// matchJPEG claims any buffer starting with SOI + APP0. Dimensions are only
// filled in when the APP0 segment is JFIF and a SOF0 segment can be reached
// inside buf.
func matchJPEG(buf []byte) (Header, bool) {
	if len(buf) < 4 || !bytes.Equal(buf[:4], jpegMagic) {
		return Header{}, false
	}

	h := Header{Width: -1, Height: -1, ContentType: ContentTypeJPEG}

	// APP0 length (2 bytes) then the "JFIF" identifier.
	if len(buf) < 10 || !bytes.Equal(buf[6:10], jfifTag) {
		return h, true
	}
	pos := 4 + int(binary.BigEndian.Uint16(buf[4:6]))

	// Each segment: 0xFF, marker, 2-byte length. The length counts itself
	// but not the marker, hence the +2 when skipping.
	for pos+4 <= len(buf) {
		segLen := int(binary.BigEndian.Uint16(buf[pos+2 : pos+4]))
		if segLen >= 7 && buf[pos] == 0xFF && buf[pos+1] == 0xC0 {
			// Precision byte, then height before width.
			if pos+9 > len(buf) {
				break
			}
			h.Height = int(binary.BigEndian.Uint16(buf[pos+5 : pos+7]))
			h.Width = int(binary.BigEndian.Uint16(buf[pos+7 : pos+9]))
			break
		}
		pos += segLen + 2
	}
	return h, true
}
