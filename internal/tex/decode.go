package tex

import (
	"fmt"
)

// DecodeOptions controls Decode.
type DecodeOptions struct {
	// Orientation is the row order decoded textures are normalized to,
	// TopDown or BottomUp. Zero means TopDown.
	Orientation Flags
	// Warn, if set, receives non-fatal problems (wrapping ErrInvalidData)
	// found in files that still decode.
	Warn func(error)
}

func (o DecodeOptions) orientation() (Flags, error) {
	switch o.Orientation {
	case 0:
		return TopDown, nil
	case TopDown, BottomUp:
		return o.Orientation, nil
	}
	return 0, fmt.Errorf("%w: orientation %s", ErrInvalidFlags, o.Orientation)
}

// Decode sniffs the format of file and decodes it. The returned Tex may
// share memory with file.
//
// Rows are flipped as needed to match opts.Orientation. Formats that do not
// record a row order (DDS) get the flag set without any flip.
func Decode(file []byte, opts DecodeOptions) (*Tex, error) {
	orient, err := opts.orientation()
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	c, err := codecForHeader(file)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if minSize := c.HeaderSize(nil); len(file) < minSize {
		return nil, fmt.Errorf("decode %s: %w: %d < %d", c.Name(), ErrIncompleteHeader, len(file), minSize)
	}
	hdrSize := c.HeaderSize(file)
	if len(file) < hdrSize {
		return nil, fmt.Errorf("decode %s: %w: %d < %d", c.Name(), ErrIncompleteHeader, len(file), hdrSize)
	}

	warn := func(err error) {
		Logger().Warn("non-conforming texture", "codec", c.Name(), "err", err)
		if opts.Warn != nil {
			opts.Warn(err)
		}
	}

	t := &Tex{buf: file, ofs: hdrSize}
	if err := c.Decode(file, t, warn); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.Name(), err)
	}
	Logger().Debug("decoded", "codec", c.Name(), "tex", t.String())

	if t.w <= 0 || t.h <= 0 || t.w > MaxDimension || t.h > MaxDimension {
		return nil, fmt.Errorf("decode %s: %w: %dx%d", c.Name(), ErrInvalidSize, t.w, t.h)
	}
	if t.bpp == 0 || t.bpp > 32 {
		return nil, fmt.Errorf("decode %s: %w: %d", c.Name(), ErrInvalidBpp, t.bpp)
	}
	if need := t.ofs + t.ImgSize(); len(t.buf) < need {
		return nil, fmt.Errorf("decode %s: %w: %d bytes, need %d", c.Name(), ErrIncompleteHeader, len(t.buf), need)
	}

	if cur := t.flags.Orientation(); cur != 0 && cur != orient {
		if err := plainTransform(t, Orientation); err != nil {
			return nil, fmt.Errorf("decode %s: flip rows: %w", c.Name(), err)
		}
	}
	t.flags = t.flags&^Orientation | orient

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.Name(), err)
	}
	return t, nil
}
