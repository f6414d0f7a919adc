package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/ironsheep/image-redact/internal/config"
	"github.com/ironsheep/image-redact/internal/imaging"
	"github.com/ironsheep/image-redact/internal/logger"
	"github.com/ironsheep/image-redact/internal/ocr"
	"github.com/ironsheep/image-redact/internal/pipeline"
	"github.com/ironsheep/image-redact/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const (
	msgEngineNotFound = "Tesseract is not installed or its path is not specified. Please install it or use the -b/--bin option."
	msgNothingFound   = "No sensitive information found to blur."
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			printVersion(ctx, stdout)
			return exitOK
		case "serve":
			return serve(ctx, args[1:], stdin, stdout, stderr)
		}
	}
	return redact(ctx, args, stdout, stderr)
}

func printVersion(ctx context.Context, w io.Writer) {
	fmt.Fprintf(w, "image-redact %s\n", Version)
	fmt.Fprintf(w, "  Build time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)

	bin, err := ocr.Locate("")
	if err != nil {
		fmt.Fprintln(w, "  Tesseract: not found")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if v, err := ocr.Version(ctx, bin); err == nil {
		fmt.Fprintf(w, "  Tesseract: %s (%s)\n", v, bin)
	}
}

func newFlagSet(name string, stderr io.Writer, usage string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	config.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(stderr, usage)
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Options:")
		fmt.Fprint(stderr, fs.FlagUsages())
	}
	return fs
}

// setup loads configuration and builds the logger.
func setup(fs *pflag.FlagSet, stderr io.Writer) (*config.Loader, *config.Config, *logger.Logger, error) {
	configPath, _ := fs.GetString("config")

	loader, err := config.NewLoader(fs)
	if err != nil {
		return nil, nil, nil, err
	}
	cfg, err := loader.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	log, err := logger.NewWithWriter(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format}, stderr)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	if used := loader.ConfigFileUsed(); used != "" {
		log.Debug("configuration loaded", zap.String("file", used))
	}
	return loader, cfg, log, nil
}

func redact(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("image-redact", stderr,
		"image-redact - hide sensitive information in images\n\n"+
			"Usage:\n"+
			"  image-redact [options] FILE\n"+
			"  image-redact serve [options]\n"+
			"  image-redact version")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: exactly one FILE is required")
		fs.Usage()
		return exitUsage
	}
	input := fs.Arg(0)

	_, cfg, log, err := setup(fs, stderr)
	if err != nil {
		return fail(stderr, input, err)
	}
	defer log.Sync()

	// The engine is resolved before the input is touched.
	p, err := pipeline.FromConfig(cfg, log)
	if err != nil {
		return fail(stderr, input, err)
	}

	res, err := p.Run(ctx, input)
	if err != nil {
		log.Debug("run failed", zap.String("input", input), zap.Error(err))
		return fail(stderr, input, err)
	}

	if res.Status == pipeline.StatusNothingFound {
		fmt.Fprintln(stdout, msgNothingFound)
	} else {
		fmt.Fprintf(stdout, "Blurred image saved to: %s\n", res.OutputPath)
	}
	return exitOK
}

func serve(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := newFlagSet("image-redact serve", stderr,
		"image-redact serve - MCP server for image redaction\n\n"+
			"Usage: image-redact serve [options]\n\n"+
			"The server communicates via MCP protocol over stdin/stdout.\n"+
			"Configure it in your MCP client.")
	fs.Bool("watch-config", false, "Reload the config file when it changes")
	fs.Float64("rate-limit", 0, "Maximum OCR tool calls per second (0 = unlimited)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	loader, cfg, log, err := setup(fs, stderr)
	if err != nil {
		return fail(stderr, "", err)
	}
	defer log.Sync()

	p, err := pipeline.FromConfig(cfg, log)
	if err != nil {
		return fail(stderr, "", err)
	}

	srv := server.New(p, server.Options{
		Version:      Version,
		PreviewWidth: cfg.Server.PreviewWidth,
		RateLimit:    cfg.Server.RateLimit,
	}, log)

	if cfg.Server.WatchConfig {
		err := loader.Watch(func(next *config.Config) {
			np, err := pipeline.FromConfig(next, log)
			if err != nil {
				log.Warn("keeping previous configuration", zap.Error(err))
				return
			}
			srv.SetPipeline(np)
			srv.SetPreviewWidth(next.Server.PreviewWidth)
			srv.SetRateLimit(next.Server.RateLimit)
			log.Info("configuration reloaded", zap.String("file", loader.ConfigFileUsed()))
		}, func(err error) {
			log.Warn("ignoring invalid configuration", zap.Error(err))
		})
		if err != nil {
			log.Warn("config watch disabled", zap.Error(err))
		}
	}

	log.Info("server starting",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	if err := srv.Run(ctx, stdin, stdout); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server error", zap.Error(err))
		return exitError
	}
	return exitOK
}

// fail prints the message for err and returns the exit code.
func fail(stderr io.Writer, input string, err error) int {
	switch {
	case errors.Is(err, ocr.ErrEngineNotFound):
		fmt.Fprintln(stderr, msgEngineNotFound)
	case errors.Is(err, imaging.ErrInputNotFound):
		fmt.Fprintf(stderr, "Error: The file '%s' does not exist.\n", input)
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return exitError
}
