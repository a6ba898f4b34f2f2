package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/erinpentecost/texcodec/internal/mipmap"
	"github.com/erinpentecost/texcodec/internal/resample"
	"github.com/erinpentecost/texcodec/internal/s3tc"
	"github.com/erinpentecost/texcodec/internal/tex"
	"golang.org/x/sync/errgroup"
)

func readTex(path string, opts tex.DecodeOptions) (*tex.Tex, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	t, err := tex.Decode(raw, opts)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", path, err)
	}
	return t, nil
}

func printInfo(w io.Writer, path string, opts tex.DecodeOptions) error {
	t, err := readTex(path, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\n", path)
	fmt.Fprintf(w, "  size:    %dx%d\n", t.Width(), t.Height())
	fmt.Fprintf(w, "  bpp:     %d\n", t.Bpp())
	fmt.Fprintf(w, "  format:  %s\n", t.Flags())
	fmt.Fprintf(w, "  levels:  %d\n", len(t.Levels()))
	fmt.Fprintf(w, "  bytes:   %d\n", t.ImgSize())
	if t.Flags().HasMipmaps() {
		fmt.Fprintf(w, "  average: 0x%08x\n", t.AverageColour())
	}
	return nil
}

// averageColour reads path and returns its packed average colour, building
// mipmaps first when the file has none.
func averageColour(path string, opts tex.DecodeOptions) (uint32, error) {
	t, err := readTex(path, opts)
	if err != nil {
		return 0, err
	}
	if !t.Flags().HasMipmaps() {
		target := t.Flags()&^tex.DXT | tex.Mipmaps
		if t.Flags().IsCompressed() && t.Flags().Compression() != s3tc.DXT1 {
			target |= tex.Alpha
		}
		if err := t.TransformTo(target); err != nil {
			return 0, fmt.Errorf("average %q: %w", path, err)
		}
	}
	return t.AverageColour(), nil
}

type convertOptions struct {
	Ext         string
	OutDir      string
	Mipmaps     bool
	PowerOfTwo  bool
	Compression s3tc.Kind
	Decompress  bool
	Decode      tex.DecodeOptions
	Encode      tex.EncodeOptions
}

// outputPath swaps the extension of in and moves it to OutDir if set.
func (o convertOptions) outputPath(in string) string {
	name := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in)) + o.Ext
	dir := o.OutDir
	if dir == "" {
		dir = filepath.Dir(in)
	}
	return filepath.Join(dir, name)
}

func convertFiles(ctx context.Context, opts convertOptions, paths []string, workers int) error {
	if !tex.IsKnownExtension(opts.Ext) {
		return fmt.Errorf("convert: %w: %q", tex.ErrUnknownFormat, opts.Ext)
	}
	if opts.Compression != s3tc.None && !strings.EqualFold(opts.Ext, ".dds") {
		return fmt.Errorf("convert: dxt output needs .dds, not %q", opts.Ext)
	}
	if opts.OutDir != "" {
		if err := os.MkdirAll(opts.OutDir, 0777); err != nil {
			return fmt.Errorf("create %q: %w", opts.OutDir, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for _, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return convertFile(opts, path)
		})
	}
	return g.Wait()
}

func convertFile(opts convertOptions, in string) error {
	t, err := readTex(in, opts.Decode)
	if err != nil {
		return err
	}
	out := opts.outputPath(in)
	tex.Logger().Info("converting", "in", in, "out", out, "tex", t.String())

	if t.Flags().IsCompressed() && (opts.Decompress || opts.PowerOfTwo || opts.Mipmaps || opts.Compression != s3tc.None) {
		if err := t.TransformTo(t.Flags() &^ tex.DXT); err != nil {
			return fmt.Errorf("decompress %q: %w", in, err)
		}
	}
	if opts.PowerOfTwo && !(mipmap.IsPowerOfTwo(t.Width()) && mipmap.IsPowerOfTwo(t.Height())) {
		p := &resample.PowerOfTwoProcessor{DownScaleFactor: 1}
		if t, err = p.Process(t); err != nil {
			return fmt.Errorf("rescale %q: %w", in, err)
		}
	}

	target := t.Flags()
	if opts.Mipmaps {
		target |= tex.Mipmaps
	}
	if k := opts.Compression; k != s3tc.None {
		switch k {
		case s3tc.DXT1:
			if target.HasAlpha() {
				return fmt.Errorf("compress %q: DXT1 has no alpha, use DXT3 or DXT5", in)
			}
		case s3tc.DXT3, s3tc.DXT5:
			target |= tex.Alpha
		default:
			return fmt.Errorf("compress %q: %w: %d", in, s3tc.ErrInvalidKind, int(k))
		}
		// compression wants RGB order; channels, alpha and mipmaps are
		// fixed up in the same transform
		target = (target &^ tex.BGR).WithCompression(k)
	}
	if err := t.TransformTo(target); err != nil {
		return fmt.Errorf("transform %q: %w", in, err)
	}

	raw, err := t.Encode(opts.Ext, opts.Encode)
	if err != nil {
		return fmt.Errorf("encode %q: %w", out, err)
	}
	if err := os.WriteFile(out, raw, 0666); err != nil {
		return fmt.Errorf("write %q: %w", out, err)
	}
	return nil
}
