package tex

import (
	"bytes"
	"fmt"
)

// DefaultJPEGQuality is used when EncodeOptions.JPEGQuality is zero.
const DefaultJPEGQuality = 90

// EncodeOptions controls Encode.
type EncodeOptions struct {
	// JPEGQuality is 1-100. Zero means DefaultJPEGQuality.
	JPEGQuality int
}

// Encode writes t in the format registered for ext (".png", ".dds", ...).
// t itself is not modified.
func (t *Tex) Encode(ext string, opts EncodeOptions) ([]byte, error) {
	c, err := codecForExtension(ext)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	if t.buf == nil {
		return nil, fmt.Errorf("encode %s: %w", c.Name(), ErrNoData)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.Name(), err)
	}

	work := t.Clone()
	var buf bytes.Buffer
	// compressed output never comes near this; plain output is bounded by it
	buf.Grow(work.ImgSize()*4 + 256<<10)
	if err := c.Encode(work, &buf, opts); err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.Name(), err)
	}
	return buf.Bytes(), nil
}

// toPlain converts t to an uncompressed single-level image. Channel order
// becomes BGR when bgr is set and RGB otherwise; grey stays grey. An unknown
// row order is taken to be top-down. If orient is non-zero rows are flipped
// to match it.
func toPlain(t *Tex, bgr bool, orient Flags) error {
	if t.flags.Orientation() == 0 {
		t.flags |= TopDown
	}
	target := t.flags &^ (DXT | Mipmaps | BGR)
	if t.flags.carriesAlpha() {
		target |= Alpha
	}
	if bgr && !target.IsGrey() {
		target |= BGR
	}
	if orient != 0 {
		target = target&^Orientation | orient
	}
	return t.TransformTo(target)
}
