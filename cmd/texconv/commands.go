package main

import (
	"context"
	"fmt"
	"os"

	"github.com/erinpentecost/texcodec/internal/s3tc"
	"github.com/spf13/pflag"
	"go.coder.com/cli"
)

type infoCmd struct{ root *rootCmd }

func (c *infoCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "info",
		Usage: "FILE...",
		Desc:  "Print size, pixel format and mip levels of each file.",
	}
}

func (c *infoCmd) Run(fl *pflag.FlagSet) {
	cfg := c.root.settings()
	if fl.NArg() == 0 {
		fl.Usage()
		os.Exit(2)
	}
	for _, path := range fl.Args() {
		if err := printInfo(os.Stdout, path, cfg.DecodeOptions()); err != nil {
			fatal(err)
		}
	}
}

type convertCmd struct {
	root *rootCmd

	ext        string
	outDir     string
	mipmaps    bool
	pot        bool
	dxt        int
	decompress bool
}

func (c *convertCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "convert",
		Usage: "[flags] FILE...",
		Desc:  "Decode each file, optionally rescale, build mipmaps or compress, and write it in another format.",
	}
}

func (c *convertCmd) RegisterFlags(fl *pflag.FlagSet) {
	fl.StringVarP(&c.ext, "ext", "e", "", "output extension (default from config)")
	fl.StringVarP(&c.outDir, "out", "o", "", "output directory (default next to the input)")
	fl.BoolVar(&c.mipmaps, "mipmaps", false, "generate a mipmap chain")
	fl.BoolVar(&c.pot, "pot", false, "rescale to power-of-two edges first")
	fl.IntVar(&c.dxt, "dxt", 0, "compress to DXT1, DXT3 or DXT5 (dds output only)")
	fl.BoolVar(&c.decompress, "decompress", false, "decompress DXT data before writing")
}

func (c *convertCmd) Run(fl *pflag.FlagSet) {
	cfg := c.root.settings()
	if fl.NArg() == 0 {
		fl.Usage()
		os.Exit(2)
	}
	opts := convertOptions{
		Ext:         c.ext,
		OutDir:      c.outDir,
		Mipmaps:     c.mipmaps,
		PowerOfTwo:  c.pot,
		Compression: s3tc.Kind(c.dxt),
		Decompress:  c.decompress,
		Decode:      cfg.DecodeOptions(),
		Encode:      cfg.EncodeOptions(),
	}
	if opts.Ext == "" {
		opts.Ext = cfg.OutputExtension
	}
	if err := convertFiles(context.Background(), opts, fl.Args(), cfg.Workers); err != nil {
		fatal(err)
	}
}

type averageCmd struct{ root *rootCmd }

func (c *averageCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "average",
		Usage: "FILE...",
		Desc:  "Print the average colour of each file as packed 0xAARRGGBB.",
	}
}

func (c *averageCmd) Run(fl *pflag.FlagSet) {
	cfg := c.root.settings()
	if fl.NArg() == 0 {
		fl.Usage()
		os.Exit(2)
	}
	for _, path := range fl.Args() {
		colour, err := averageColour(path, cfg.DecodeOptions())
		if err != nil {
			fatal(err)
		}
		fmt.Printf("%s\t0x%08x\n", path, colour)
	}
}
