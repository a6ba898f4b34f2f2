// Package tex holds in-memory textures and converts them between pixel
// formats and file formats.
//
// A Tex is a width, height, bits per pixel and Flags over a byte buffer that
// the Tex owns. Pixel data starts at an offset into that buffer so a decoded
// file can keep its header without copying. Transform changes the pixel
// format in place; Decode and Encode move between Tex values and the file
// formats in the codec registry (DDS, PNG, JPEG, TGA, BMP).
package tex

import (
	"errors"
	"fmt"
	"slices"

	"github.com/erinpentecost/texcodec/internal/mipmap"
)

// MaxDimension is the largest width or height a Tex can have.
const MaxDimension = 0xFFFF

// Tex is a texture descriptor and its pixels. The zero value is an empty
// texture with no data.
type Tex struct {
	w, h  int
	bpp   int
	flags Flags

	buf []byte
	ofs int
}

// Wrap adopts buf without copying. Pixel data starts at buf[ofs:].
func Wrap(w, h, bpp int, flags Flags, buf []byte, ofs int) (*Tex, error) {
	if ofs < 0 || ofs > len(buf) {
		return nil, fmt.Errorf("wrap %dx%d: %w: offset %d outside %d byte buffer", w, h, ErrInvalidSize, ofs, len(buf))
	}
	t := &Tex{w: w, h: h, bpp: bpp, flags: flags, buf: buf, ofs: ofs}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("wrap %dx%d: %w", w, h, err)
	}
	return t, nil
}

func (t *Tex) Width() int     { return t.w }
func (t *Tex) Height() int    { return t.h }
func (t *Tex) Bpp() int       { return t.bpp }
func (t *Tex) Flags() Flags   { return t.flags }
func (t *Tex) Offset() int    { return t.ofs }
func (t *Tex) DataSize() int  { return len(t.buf) }
func (t *Tex) HasData() bool  { return t.buf != nil }
func (t *Tex) String() string { return fmt.Sprintf("%dx%d %dbpp %s", t.w, t.h, t.bpp, t.flags) }

// Validate checks flags, bpp, and that the buffer (if any) holds ImgSize
// bytes past the data offset.
func (t *Tex) Validate() error {
	if err := t.flags.validate(); err != nil {
		return err
	}
	if t.bpp%4 != 0 || t.bpp > 32 || t.bpp < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBpp, t.bpp)
	}
	if k := t.flags.Compression(); t.flags.IsCompressed() && t.bpp != k.Bpp() {
		return fmt.Errorf("%w: %d for %s", ErrInvalidBpp, t.bpp, k)
	}
	if t.w < 0 || t.h < 0 || t.w > MaxDimension || t.h > MaxDimension {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, t.w, t.h)
	}
	if t.buf != nil {
		if need := t.ofs + t.ImgSize(); len(t.buf) < need {
			return fmt.Errorf("%w: buffer holds %d bytes, need %d", ErrInvalidSize, len(t.buf), need)
		}
	}
	return nil
}

func (t *Tex) blockAlign() int {
	if t.flags.IsCompressed() {
		return 4
	}
	return 1
}

func (t *Tex) skip() int {
	if t.flags.HasMipmaps() {
		return 0
	}
	return mipmap.BaseLevelOnly
}

// ImgSize is the byte size of the pixel data, every mipmap level included.
func (t *Tex) ImgSize() int {
	return mipmap.TotalSize(t.w, t.h, t.bpp, t.skip(), t.blockAlign())
}

// Levels walks the mipmap chain of t (just the base level without Mipmaps).
func (t *Tex) Levels() []mipmap.Level {
	return slices.Collect(mipmap.Levels(t.w, t.h, t.bpp, t.skip(), t.blockAlign()))
}

// Data returns the pixel bytes, or nil if t has no buffer.
func (t *Tex) Data() []byte {
	if t.buf == nil {
		return nil
	}
	return t.buf[t.ofs:]
}

// Take detaches and returns the pixel bytes. t keeps its format but no
// longer has data.
func (t *Tex) Take() []byte {
	data := t.Data()
	t.buf, t.ofs = nil, 0
	return data
}

// Clone deep-copies the pixel data (without any retained header).
func (t *Tex) Clone() *Tex {
	c := *t
	if t.buf != nil {
		c.buf = slices.Clone(t.buf[t.ofs : t.ofs+t.ImgSize()])
		c.ofs = 0
	}
	return &c
}

// replace swaps in a new buffer holding data at offset 0.
func (t *Tex) replace(buf []byte, bpp int, flags Flags) {
	t.buf, t.ofs = buf, 0
	t.bpp, t.flags = bpp, flags
}

// Transform flips the flags named in mask and converts the pixels to match.
// Codecs get the first chance at each pass; whatever they decline goes to
// the plain transformer. On success Flags() == old ^ mask. On failure t is
// left unchanged.
func (t *Tex) Transform(mask Flags) error {
	if mask == 0 {
		return nil
	}
	if t.buf == nil {
		return fmt.Errorf("transform %s: %w", t, ErrNoData)
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("transform %s: %w", t, err)
	}
	target := t.flags ^ mask
	if err := target.validate(); err != nil {
		return fmt.Errorf("transform %s to %s: %w", t, target, err)
	}

	saved := *t
	if err := t.transform(target); err != nil {
		*t = saved
		return fmt.Errorf("transform %s to %s: %w", &saved, target, err)
	}
	return nil
}

// TransformTo converts t to exactly the given flags.
func (t *Tex) TransformTo(flags Flags) error {
	return t.Transform(t.flags ^ flags)
}

func (t *Tex) transform(target Flags) error {
	for pass := 0; ; pass++ {
		remaining := t.flags ^ target
		if remaining == 0 {
			return nil
		}
		before := t.flags
		err := codecTransform(t, remaining)
		if errors.Is(err, ErrCannotHandle) {
			break
		}
		if err != nil {
			return err
		}
		Logger().Debug("codec transform pass", "pass", pass, "from", before, "to", t.flags)
		if t.flags == before {
			break
		}
	}
	remaining := t.flags ^ target
	if remaining == 0 {
		return nil
	}
	return plainTransform(t, remaining)
}

// AverageColour returns the colour of the smallest mipmap level packed as
// b | g<<8 | r<<16 | a<<24. Textures without Mipmaps report 0.
func (t *Tex) AverageColour() uint32 {
	if !t.flags.HasMipmaps() || t.buf == nil {
		return 0
	}
	pad := t.blockAlign()
	size := pad * pad * t.bpp / 8
	last := t.ofs + mipmap.LastOffset(t.w, t.h, t.bpp, pad)
	if last+size > len(t.buf) {
		return 0
	}

	flags := t.flags &^ Mipmaps
	px, err := Wrap(1, 1, t.bpp, flags, slices.Clone(t.buf[last:last+size]), 0)
	if err == nil {
		err = px.TransformTo((flags | BGR | Alpha) &^ DXT)
	}
	if err != nil {
		Logger().Warn("average colour unavailable", "tex", t.String(), "err", err)
		return 0
	}
	d := px.Data()
	return uint32(d[0]) | uint32(d[1])<<8 | uint32(d[2])<<16 | uint32(d[3])<<24
}
