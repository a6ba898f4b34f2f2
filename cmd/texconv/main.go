package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/erinpentecost/texcodec/internal/config"
	"github.com/erinpentecost/texcodec/internal/tex"
	"github.com/spf13/pflag"
	"go.coder.com/cli"
)

type rootCmd struct {
	configPath  string
	workers     int
	orientation string
	logLevel    string
}

func (r *rootCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "texconv",
		Usage: "[global flags] <info|convert|average> FILE...",
		Desc:  "Inspect and convert BMP, TGA, JPEG, PNG and DDS textures.",
	}
}

func (r *rootCmd) RegisterFlags(fl *pflag.FlagSet) {
	fl.StringVarP(&r.configPath, "config", "c", "texconv.yaml", "YAML settings file")
	fl.IntVarP(&r.workers, "workers", "j", 0, "files processed at once (0 uses the config)")
	fl.StringVar(&r.orientation, "orientation", "", "row order of decoded images: top-down or bottom-up")
	fl.StringVar(&r.logLevel, "log-level", "", "debug, info, warn or error")
}

func (r *rootCmd) Run(fl *pflag.FlagSet) {
	fl.Usage()
	os.Exit(2)
}

func (r *rootCmd) Subcommands() []cli.Command {
	return []cli.Command{
		&infoCmd{root: r},
		&convertCmd{root: r},
		&averageCmd{root: r},
	}
}

// settings loads the config file, applies flag overrides and installs the
// logger.
func (r *rootCmd) settings() config.Config {
	c, err := config.Load(r.configPath)
	if err != nil {
		fatal(err)
	}
	if r.workers != 0 {
		c.Workers = r.workers
	}
	if r.orientation != "" {
		c.Orientation = r.orientation
	}
	if r.logLevel != "" {
		c.LogLevel = r.logLevel
	}
	if err := c.Validate(); err != nil {
		fatal(err)
	}
	level, _ := c.Level()
	tex.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return c
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "FAILED: %v\n", err)
	os.Exit(33)
}

func main() {
	cli.RunRoot(&rootCmd{})
}
