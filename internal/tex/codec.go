package tex

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// Codec reads and writes one file format.
//
// Codecs are stateless. A codec that does not implement a transform returns
// ErrCannotHandle from Transform so the next codec (and finally the plain
// transformer) gets a turn.
type Codec interface {
	Name() string
	// IsHeader sniffs the first 4 bytes of a file.
	IsHeader(b []byte) bool
	// IsExtension matches a file extension including the leading dot,
	// ignoring case.
	IsExtension(ext string) bool
	// HeaderSize returns the minimum header size when file is nil, and the
	// exact size (variable-length fields included) otherwise. file is at
	// least the minimum size.
	HeaderSize(file []byte) int
	// Decode fills t from a whole file. On entry t's buffer is file and its
	// data offset is HeaderSize(file). Non-fatal problems go to warn.
	Decode(file []byte, t *Tex, warn func(error)) error
	// Encode appends the file for t to buf. t is a private copy the codec
	// may transform freely.
	Encode(t *Tex, buf *bytes.Buffer, opts EncodeOptions) error
	// Transform applies some or all of mask to t.
	Transform(t *Tex, mask Flags) error
}

// codecs is in priority order; the first match wins.
var codecs = []Codec{
	ddsCodec{},
	pngCodec{},
	jpegCodec{},
	tgaCodec{},
	bmpCodec{},
}

// Codecs lists the registered codecs in priority order.
func Codecs() []Codec {
	return append([]Codec(nil), codecs...)
}

// IsKnownExtension reports whether some codec can encode files with ext.
func IsKnownExtension(ext string) bool {
	_, err := codecForExtension(ext)
	return err == nil
}

func codecForExtension(ext string) (Codec, error) {
	for _, c := range codecs {
		if c.IsExtension(ext) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("extension %q: %w", ext, ErrUnknownFormat)
}

func codecForHeader(file []byte) (Codec, error) {
	if len(file) < 4 {
		return nil, fmt.Errorf("sniff %d bytes: %w", len(file), ErrIncompleteHeader)
	}
	for _, c := range codecs {
		if c.IsHeader(file[:4]) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("sniff % x: %w", file[:4], ErrUnknownFormat)
}

// codecTransform offers mask to each codec in turn. ErrCannotHandle means
// every codec declined.
func codecTransform(t *Tex, mask Flags) error {
	for _, c := range codecs {
		err := c.Transform(t, mask)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrCannotHandle) {
			return fmt.Errorf("%s transform: %w", c.Name(), err)
		}
	}
	return ErrCannotHandle
}

func hasExtension(ext string, names ...string) bool {
	for _, n := range names {
		if strings.EqualFold(ext, n) {
			return true
		}
	}
	return false
}

// noTransform is embedded by codecs with no native transforms.
type noTransform struct{}

func (noTransform) Transform(*Tex, Flags) error { return ErrCannotHandle }
