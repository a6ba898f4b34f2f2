package s3tc

import (
	"encoding/binary"
	"image/color"
	"testing"

	"github.com/erinpentecost/texcodec/internal/mipmap"
	"github.com/mauserzjeh/dxt"
	"github.com/stretchr/testify/require"
)

// colorBlock builds an 8-byte colour block.
func colorBlock(c0, c1 uint16, selectors uint32) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint16(b[0:], c0)
	binary.LittleEndian.PutUint16(b[2:], c1)
	binary.LittleEndian.PutUint32(b[4:], selectors)
	return b
}

func TestUnpackExtremes(t *testing.T) {
	require.Equal(t, uint8(0), Unpack5(0))
	require.Equal(t, uint8(255), Unpack5(0x1F))
	require.Equal(t, uint8(0), Unpack6(0))
	require.Equal(t, uint8(255), Unpack6(0x3F))

	// MSB replication, not a plain shift
	require.Equal(t, uint8(0x84), Unpack5(0x10))
	require.Equal(t, uint8(0x82), Unpack6(0x20))
}

func TestKindProperties(t *testing.T) {
	tests := []struct {
		kind      Kind
		valid     bool
		blockSize int
		bpp       int
		outBpp    int
	}{
		{DXT1, true, 8, 4, 24},
		{DXT1A, true, 8, 4, 32},
		{DXT3, true, 16, 8, 32},
		{DXT5, true, 16, 8, 32},
		{None, false, 8, 4, 32},
		{Kind(2), false, 8, 4, 32},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			require.Equal(t, tt.valid, tt.kind.Valid())
			require.Equal(t, tt.blockSize, tt.kind.BlockSize())
			require.Equal(t, tt.bpp, tt.kind.Bpp())
			require.Equal(t, tt.outBpp, tt.kind.DecompressedBpp())
		})
	}
}

func TestDecompressBlockSpecialCombination(t *testing.T) {
	// c0 <= c1 with every selector set to 3
	blk := colorBlock(0x0000, 0xFFFF, 0xFFFFFFFF)

	opaque, err := DecompressBlock(DXT1, blk)
	require.NoError(t, err)
	for _, p := range opaque {
		require.Equal(t, color.RGBA{0, 0, 0, 255}, p)
	}

	punch, err := DecompressBlock(DXT1A, blk)
	require.NoError(t, err)
	for _, p := range punch {
		require.Equal(t, color.RGBA{0, 0, 0, 0}, p)
	}
}

func TestDXT1VersusDXT1AOnlyDiffersInIndexThreeAlpha(t *testing.T) {
	tests := []struct {
		name   string
		c0, c1 uint16
	}{
		{"special combination", 0x1234, 0x8765},
		{"equal endpoints", 0x4444, 0x4444},
		{"four colour mode", 0xF800, 0x001F},
	}
	// selectors cycle 0,1,2,3 across each row
	const selectors = 0xE4E4E4E4
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blk := colorBlock(tt.c0, tt.c1, selectors)
			a, err := DecompressBlock(DXT1, blk)
			require.NoError(t, err)
			b, err := DecompressBlock(DXT1A, blk)
			require.NoError(t, err)

			special := tt.c0 <= tt.c1
			for i := range a {
				require.Equal(t, a[i].R, b[i].R)
				require.Equal(t, a[i].G, b[i].G)
				require.Equal(t, a[i].B, b[i].B)
				require.Equal(t, uint8(255), a[i].A)
				if special && i%4 == 3 {
					require.Equal(t, uint8(0), b[i].A)
				} else {
					require.Equal(t, uint8(255), b[i].A)
				}
			}
		})
	}
}

func TestDecompressBlockFourColourPalette(t *testing.T) {
	// red and blue endpoints, c0 > c1
	blk := colorBlock(0xF800, 0x001F, 0xE4E4E4E4)
	px, err := DecompressBlock(DXT1, blk)
	require.NoError(t, err)
	require.Equal(t, color.RGBA{255, 0, 0, 255}, px[0])
	require.Equal(t, color.RGBA{0, 0, 255, 255}, px[1])
	require.Equal(t, color.RGBA{170, 0, 85, 255}, px[2])
	require.Equal(t, color.RGBA{85, 0, 170, 255}, px[3])
}

func TestDecompressBlockDXT3Alpha(t *testing.T) {
	blk := make([]byte, 16)
	var alpha uint64
	for i := range 16 {
		alpha |= uint64(i) << (4 * i)
	}
	binary.LittleEndian.PutUint64(blk, alpha)
	copy(blk[8:], colorBlock(0xFFFF, 0x0000, 0))

	px, err := DecompressBlock(DXT3, blk)
	require.NoError(t, err)
	for i, p := range px {
		require.Equal(t, uint8(i|i<<4), p.A)
		require.Equal(t, uint8(255), p.R)
	}
}

func TestAlphaRamp(t *testing.T) {
	require.Equal(t, [8]uint8{255, 0, 219, 182, 146, 109, 73, 36}, alphaRamp(255, 0))
	require.Equal(t, [8]uint8{0, 255, 51, 102, 153, 204, 0, 255}, alphaRamp(0, 255))
	require.Equal(t, [8]uint8{7, 7, 7, 7, 7, 7, 0, 255}, alphaRamp(7, 7))
}

func TestDecompressBlockDXT5Alpha(t *testing.T) {
	blk := make([]byte, 16)
	blk[0], blk[1] = 255, 0
	var sel uint64
	for i := range 16 {
		sel |= uint64(i%8) << (3 * i)
	}
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], sel)
	copy(blk[2:8], tmp[:6])
	copy(blk[8:], colorBlock(0xFFFF, 0x0000, 0))

	px, err := DecompressBlock(DXT5, blk)
	require.NoError(t, err)
	ramp := alphaRamp(255, 0)
	for i, p := range px {
		require.Equal(t, ramp[i%8], p.A, "pixel %d", i)
	}
}

func TestDecompressBlockErrors(t *testing.T) {
	_, err := DecompressBlock(Kind(4), make([]byte, 16))
	require.ErrorIs(t, err, ErrInvalidKind)

	_, err = DecompressBlock(DXT5, make([]byte, 8))
	require.ErrorIs(t, err, ErrShortData)
}

func TestDecompressImageNonMultipleOfFour(t *testing.T) {
	// 6x2 image: two blocks wide, one block high
	data := append(colorBlock(0xFFFF, 0xFFFF, 0), colorBlock(0x0000, 0x0000, 0)...)
	out, bpp, err := Decompress(DXT1, 6, 2, false, data)
	require.NoError(t, err)
	require.Equal(t, 24, bpp)
	require.Len(t, out, 6*2*3)
	for y := range 2 {
		for x := range 6 {
			o := (y*6 + x) * 3
			want := uint8(255)
			if x >= 4 {
				want = 0
			}
			require.Equal(t, []byte{want, want, want}, out[o:o+3], "pixel %d,%d", x, y)
		}
	}
}

func TestDecompressMipmapChain(t *testing.T) {
	// 8x8 DXT5: 4 blocks, then 1 block for each of 4x4, 2x2 and 1x1
	blocks := 4 + 1 + 1 + 1
	data := make([]byte, 0, blocks*16)
	for range blocks {
		alpha := []byte{128, 128, 0, 0, 0, 0, 0, 0}
		data = append(data, alpha...)
		data = append(data, colorBlock(0x07E0, 0x07E0, 0)...)
	}
	require.Equal(t, len(data), CompressedSize(DXT5, 8, 8, true))

	out, bpp, err := Decompress(DXT5, 8, 8, true, data)
	require.NoError(t, err)
	require.Equal(t, 32, bpp)
	require.Len(t, out, (64+16+4+1)*4)
	require.Equal(t, len(out), DecompressedSize(DXT5, 8, 8, true))
	for i := 0; i < len(out); i += 4 {
		require.Equal(t, []byte{0, 255, 0, 128}, out[i:i+4])
	}
}

func TestDecompressNonSquareMipmapLevels(t *testing.T) {
	// 8x4 DXT1: two blocks, then one block each for 4x2, 2x1 and 1x1
	colours := []struct {
		c565 uint16
		rgb  []byte
	}{
		{0xFFFF, []byte{255, 255, 255}},
		{0xF800, []byte{255, 0, 0}},
		{0x07E0, []byte{0, 255, 0}},
		{0x001F, []byte{0, 0, 255}},
	}
	data := append(colorBlock(0xFFFF, 0xFFFF, 0), colorBlock(0xFFFF, 0xFFFF, 0)...)
	for _, c := range colours[1:] {
		data = append(data, colorBlock(c.c565, c.c565, 0)...)
	}

	out, bpp, err := Decompress(DXT1, 8, 4, true, data)
	require.NoError(t, err)
	require.Len(t, out, (32+8+2+1)*3)

	levels := 0
	for lvl, px := range mipmap.Chain(out, 8, 4, bpp, 0, 1) {
		for i := 0; i < len(px); i += 3 {
			require.Equal(t, colours[lvl.Index].rgb, px[i:i+3], "level %d byte %d", lvl.Index, i)
		}
		levels++
	}
	require.Equal(t, 4, levels)
}

func TestDecompressRejectsShortData(t *testing.T) {
	_, _, err := Decompress(DXT1, 8, 8, false, make([]byte, 31))
	require.ErrorIs(t, err, ErrShortData)

	_, _, err = Decompress(Kind(6), 4, 4, false, make([]byte, 16))
	require.ErrorIs(t, err, ErrInvalidKind)
}

func TestDecompressMatchesReferenceDecoder(t *testing.T) {
	// Uniform blocks leave no room for rounding differences between decoders.
	white := colorBlock(0xFFFF, 0x0000, 0)
	black := colorBlock(0x0000, 0xFFFF, 0)
	data := append(append([]byte{}, white...), black...)
	data = append(data, black...)
	data = append(data, white...)

	ours, _, err := Decompress(DXT1, 8, 8, false, data)
	require.NoError(t, err)
	ref, err := dxt.DecodeDXT1(data, 8, 8)
	require.NoError(t, err)
	require.Len(t, ref, 8*8*4)

	for i := range 64 {
		require.Equal(t, ref[i*4:i*4+3], ours[i*3:i*3+3], "pixel %d", i)
	}

	alpha := []byte{200, 200, 0, 0, 0, 0, 0, 0}
	dxt5 := append(append([]byte{}, alpha...), white...)
	ours5, _, err := Decompress(DXT5, 4, 4, false, dxt5)
	require.NoError(t, err)
	ref5, err := dxt.DecodeDXT5(dxt5, 4, 4)
	require.NoError(t, err)
	require.Equal(t, ref5, ours5)
}
