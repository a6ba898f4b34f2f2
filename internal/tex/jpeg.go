package tex

import (
	"bytes"
	"fmt"
	"image/jpeg"
)

// jpegCodec decodes baseline and progressive JPEG to RGB or grey. CMYK and
// YCCK files are converted to RGB.
type jpegCodec struct{ noTransform }

func (jpegCodec) Name() string { return "jpeg" }

func (jpegCodec) IsHeader(b []byte) bool {
	return b[0] == 0xFF && b[1] == 0xD8
}

func (jpegCodec) IsExtension(ext string) bool { return hasExtension(ext, ".jpg", ".jpeg") }

// HeaderSize is zero: the whole file goes to the decoder.
func (jpegCodec) HeaderSize([]byte) int { return 0 }

func (jpegCodec) Decode(file []byte, t *Tex, _ func(error)) error {
	img, err := jpeg.Decode(bytes.NewReader(file))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	d, err := FromImage(img)
	if err != nil {
		return err
	}
	*t = *d
	return nil
}

func (jpegCodec) Encode(t *Tex, buf *bytes.Buffer, opts EncodeOptions) error {
	if t.flags.carriesAlpha() {
		return fmt.Errorf("%w: jpeg has no alpha channel", ErrInvalidColorType)
	}
	if err := toPlain(t, false, TopDown); err != nil {
		return err
	}
	q := opts.JPEGQuality
	if q == 0 {
		q = DefaultJPEGQuality
	}
	q = min(max(q, 1), 100)
	return jpeg.Encode(buf, plainImage(t), &jpeg.Options{Quality: q})
}
