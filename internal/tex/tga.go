package tex

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	tgaHeaderSize = 18

	tgaTrueColour = 2
	tgaGrey       = 3

	tgaRightToLeft = 0x10
	tgaTopDown     = 0x20
	tgaAlphaBits   = 0x0F
)

// tgaCodec handles uncompressed true-colour and greyscale Targa files.
type tgaCodec struct{ noTransform }

func (tgaCodec) Name() string { return "tga" }

// IsHeader sees only the ID length, colour map type, image type and the
// first colour map byte, so it cannot be stricter than this.
func (tgaCodec) IsHeader(b []byte) bool {
	return b[1] == 0 && (b[2] == tgaTrueColour || b[2] == tgaGrey)
}

func (tgaCodec) IsExtension(ext string) bool { return hasExtension(ext, ".tga") }

func (tgaCodec) HeaderSize(file []byte) int {
	if file == nil {
		return tgaHeaderSize
	}
	return tgaHeaderSize + int(file[0])
}

func (tgaCodec) Decode(file []byte, t *Tex, _ func(error)) error {
	imgType := file[2]
	w := int(binary.LittleEndian.Uint16(file[12:]))
	h := int(binary.LittleEndian.Uint16(file[14:]))
	bpp := int(file[16])
	desc := file[17]

	if desc&tgaRightToLeft != 0 {
		return fmt.Errorf("%w: right-to-left pixel order", ErrInvalidLayout)
	}
	switch {
	case imgType == tgaGrey && bpp == 8:
	case imgType == tgaTrueColour && (bpp == 24 || bpp == 32):
	default:
		return fmt.Errorf("%w: image type %d at %d bpp", ErrInvalidColorType, imgType, bpp)
	}

	flags := BottomUp
	if desc&tgaTopDown != 0 {
		flags = TopDown
	}
	// some writers leave the alpha bit count at 0 for 32 bpp
	if desc&tgaAlphaBits != 0 || bpp == 32 {
		flags |= Alpha
	}
	if bpp == 8 {
		flags |= Grey
	}
	if imgType == tgaTrueColour {
		flags |= BGR
	}

	t.w, t.h, t.bpp, t.flags = w, h, bpp, flags
	return nil
}

func (tgaCodec) Encode(t *Tex, buf *bytes.Buffer, _ EncodeOptions) error {
	if err := toPlain(t, true, 0); err != nil {
		return err
	}

	var hdr [tgaHeaderSize]byte
	hdr[2] = tgaTrueColour
	if t.flags.IsGrey() {
		hdr[2] = tgaGrey
	}
	binary.LittleEndian.PutUint16(hdr[12:], uint16(t.w))
	binary.LittleEndian.PutUint16(hdr[14:], uint16(t.h))
	hdr[16] = byte(t.bpp)
	if t.flags.HasAlpha() {
		hdr[17] |= 8
	}
	if t.flags.Orientation() == TopDown {
		hdr[17] |= tgaTopDown
	}
	buf.Write(hdr[:])
	buf.Write(t.Data()[:t.ImgSize()])
	return nil
}
