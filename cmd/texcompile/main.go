// Command texcompile compiles LaTeX documents into PDF, either as an HTTP
// service (serve) or once from the command line (compile).
//
// Every flag can also be set through its environment variable, a .env file
// in the working directory, or a YAML file passed with --config.
package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/gsarma/texcompile/internal/config"
)

type CLI struct {
	Config  kong.ConfigFlag `short:"c" help:"YAML configuration file." placeholder:"FILE"`
	Verbose bool            `short:"v" help:"Enable debug logging." env:"TEXCOMPILE_VERBOSE"`

	Serve   ServeCmd   `cmd:"" default:"withargs" help:"Run the HTTP compile service."`
	Compile CompileCmd `cmd:"" help:"Compile a single .tex file without starting a server."`
	Engines EnginesCmd `cmd:"" help:"Probe the configured TeX engines and report which are available."`
}

// AfterApply sets up logging once flags are parsed.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env", "error", err)
	}

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("texcompile"),
		kong.Description("LaTeX to PDF compile service."),
		kong.UsageOnError(),
		kong.Configuration(config.YAML),
	)
	ctx.FatalIfErrorf(ctx.Run(&cli))
}
