package tex

import (
	"fmt"
	"strings"

	"github.com/erinpentecost/texcodec/internal/s3tc"
)

// Flags describes the pixel format of a Tex. The bit values are stable and
// match the packed representation texture tools have always used.
type Flags uint32

const (
	// DXT is the 3-bit field holding the s3tc.Kind; zero means uncompressed.
	DXT Flags = 0x7
	// DXT1A is the DXT field value for DXT1 with 1-bit alpha.
	DXT1A Flags = 0x7

	BGR      Flags = 0x08
	Alpha    Flags = 0x10
	Grey     Flags = 0x20
	BottomUp Flags = 0x40
	TopDown  Flags = 0x80
	Mipmaps  Flags = 0x100

	Orientation = BottomUp | TopDown

	allFlags = DXT | BGR | Alpha | Grey | Orientation | Mipmaps
)

// WithCompression returns f with its DXT field replaced by k.
func (f Flags) WithCompression(k s3tc.Kind) Flags {
	return f&^DXT | Flags(k)&DXT
}

// Compression returns the DXT field as an s3tc.Kind (s3tc.None if plain).
func (f Flags) Compression() s3tc.Kind { return s3tc.Kind(f & DXT) }

func (f Flags) IsCompressed() bool { return f&DXT != 0 }
func (f Flags) HasAlpha() bool     { return f&Alpha != 0 }
func (f Flags) IsBGR() bool        { return f&BGR != 0 }
func (f Flags) IsGrey() bool       { return f&Grey != 0 }
func (f Flags) HasMipmaps() bool   { return f&Mipmaps != 0 }

// carriesAlpha reports whether the pixels have alpha once decompressed.
func (f Flags) carriesAlpha() bool {
	k := f.Compression()
	return f.HasAlpha() || k.Valid() && k.HasAlpha()
}

// Orientation returns the orientation bits; zero means unknown.
func (f Flags) Orientation() Flags { return f & Orientation }

// validate checks bit legality only. It does not look at bpp or data.
func (f Flags) validate() error {
	if f&^allFlags != 0 {
		return fmt.Errorf("%w: undefined bits %#x", ErrInvalidFlags, uint32(f&^allFlags))
	}
	switch f.Compression() {
	case s3tc.None, s3tc.DXT1, s3tc.DXT1A, s3tc.DXT3, s3tc.DXT5:
	default:
		return fmt.Errorf("%w: dxt field %d", ErrInvalidFlags, uint32(f&DXT))
	}
	// DXT1a, DXT3 and DXT5 always carry alpha, DXT1 never does
	if k := f.Compression(); k != s3tc.None && k.HasAlpha() != f.HasAlpha() {
		return fmt.Errorf("%w: %s with alpha %t", ErrInvalidFlags, k, f.HasAlpha())
	}
	if f&Orientation == Orientation {
		return fmt.Errorf("%w: both orientations set", ErrInvalidFlags)
	}
	return nil
}

func (f Flags) String() string {
	var parts []string
	if k := f.Compression(); k != s3tc.None {
		parts = append(parts, k.String())
	}
	names := []struct {
		bit  Flags
		name string
	}{
		{BGR, "bgr"},
		{Alpha, "alpha"},
		{Grey, "grey"},
		{BottomUp, "bottom-up"},
		{TopDown, "top-down"},
		{Mipmaps, "mipmaps"},
	}
	for _, n := range names {
		if f&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	if rest := f &^ allFlags; rest != 0 {
		parts = append(parts, fmt.Sprintf("%#x", uint32(rest)))
	}
	if len(parts) == 0 {
		return "plain"
	}
	return strings.Join(parts, "|")
}

// ParseOrientation maps "top-down" / "bottom-up" to the matching flag.
func ParseOrientation(s string) (Flags, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "top-down", "topdown":
		return TopDown, nil
	case "bottom-up", "bottomup":
		return BottomUp, nil
	}
	return 0, fmt.Errorf("parse orientation %q: %w", s, ErrInvalidFlags)
}
