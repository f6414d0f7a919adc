package pipeline

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ironsheep/image-redact/internal/detection"
	"github.com/ironsheep/image-redact/internal/imaging"
	"github.com/ironsheep/image-redact/internal/logger"
	"github.com/ironsheep/image-redact/internal/ocr"
	"github.com/ironsheep/image-redact/internal/patterns"
	"github.com/ironsheep/image-redact/internal/redaction"
)

// Status is the terminal state of a run.
type Status int

const (
	// StatusNothingFound means no region matched; no file was written.
	StatusNothingFound Status = iota

	// StatusRedacted means the blurred image was written.
	StatusRedacted
)

func (s Status) String() string {
	switch s {
	case StatusNothingFound:
		return "nothing_found"
	case StatusRedacted:
		return "redacted"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result describes one run.
type Result struct {
	Status     Status
	Input      string
	OutputPath string
	ReportPath string
	Plan       detection.Plan

	// Tokens is the number of words the engine recognized.
	Tokens int
}

// Options controls output and OCR limits.
type Options struct {
	// OutputDir, when set, receives the output under the input's file name.
	OutputDir string

	JPEGQuality int

	// ReportPath, when set, receives a YAML report of the plan.
	ReportPath string

	// Timeout bounds each OCR call. Zero means no limit.
	Timeout time.Duration
}

// Pipeline wires recognition, detection and redaction for one image at a
// time. A Pipeline holds no per-run state and is safe for concurrent use
// when its Oracle is.
type Pipeline struct {
	Oracle   ocr.Oracle
	Catalog  patterns.Catalog
	Detector *detection.Detector
	Redactor *redaction.Redactor
	Options  Options

	// Load decodes input images. It defaults to imaging.Load.
	Load func(path string) (image.Image, error)

	logger *logger.Logger
}

// New creates a Pipeline. A nil logger discards output.
func New(oracle ocr.Oracle, catalog patterns.Catalog, workers int, opts Options, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.NewNop()
	}
	return &Pipeline{
		Oracle:   oracle,
		Catalog:  catalog,
		Detector: detection.NewDetector(workers, log),
		Redactor: redaction.NewRedactor(log),
		Options:  opts,
		Load:     imaging.Load,
		logger:   log.WithComponent("pipeline"),
	}
}

// WithCatalog returns a shallow copy of p using catalog.
func (p *Pipeline) WithCatalog(catalog patterns.Catalog) *Pipeline {
	cp := *p
	cp.Catalog = catalog
	return &cp
}

// WithOptions returns a shallow copy of p using opts.
func (p *Pipeline) WithOptions(opts Options) *Pipeline {
	cp := *p
	cp.Options = opts
	return &cp
}

// Run redacts the image at input.
//
// An empty plan is a successful run with StatusNothingFound and no output
// file. Otherwise the blurred copy is written to
// imaging.OutputPath(input, Options.OutputDir). An output format that
// cannot be written is rejected before OCR runs.
func (p *Pipeline) Run(ctx context.Context, input string) (*Result, error) {
	log := p.logger.WithInput(input)

	img, err := p.load(input)
	if err != nil {
		return nil, err
	}

	output := imaging.OutputPath(input, p.Options.OutputDir)
	if _, err := imaging.CanEncode(output); err != nil {
		return nil, err
	}

	plan, tokens, err := p.Detect(ctx, img)
	if err != nil {
		return nil, err
	}

	result := &Result{Input: input, Plan: plan, Tokens: tokens}

	if plan.Empty() {
		log.Info("no sensitive information found", zap.Int("tokens", tokens))
		result.Status = StatusNothingFound
		return result, p.writeReport(result)
	}

	blurred := p.Redactor.Apply(img, plan.Rects())

	if p.Options.OutputDir != "" {
		if err := os.MkdirAll(p.Options.OutputDir, 0755); err != nil {
			return nil, fmt.Errorf("%w: %v", imaging.ErrEncode, err)
		}
	}
	if err := imaging.Save(blurred, output, imaging.SaveOptions{JPEGQuality: p.Options.JPEGQuality}); err != nil {
		return nil, err
	}

	result.Status = StatusRedacted
	result.OutputPath = output
	log.Info("image redacted",
		zap.String("output", output),
		zap.Int("regions", plan.Len()),
		zap.Int("tokens", tokens),
	)

	return result, p.writeReport(result)
}

// Inspect recognizes and classifies the image at input without writing
// anything.
func (p *Pipeline) Inspect(ctx context.Context, input string) (*Result, error) {
	img, err := p.load(input)
	if err != nil {
		return nil, err
	}

	plan, tokens, err := p.Detect(ctx, img)
	if err != nil {
		return nil, err
	}

	result := &Result{Input: input, Plan: plan, Tokens: tokens, Status: StatusNothingFound}
	if !plan.Empty() {
		result.Status = StatusRedacted
	}
	return result, nil
}

// Recognize runs the OCR engine on img under the configured timeout.
func (p *Pipeline) Recognize(ctx context.Context, img image.Image) ([]ocr.Token, error) {
	if p.Options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Options.Timeout)
		defer cancel()
	}

	start := time.Now()
	tokens, err := p.Oracle.Recognize(ctx, img)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("ocr complete",
		zap.Int("tokens", len(tokens)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return tokens, nil
}

// Detect recognizes img and returns the redaction plan and the number of
// recognized words.
func (p *Pipeline) Detect(ctx context.Context, img image.Image) (detection.Plan, int, error) {
	tokens, err := p.Recognize(ctx, img)
	if err != nil {
		return detection.Plan{}, 0, err
	}

	plan, err := p.Detector.Detect(ctx, tokens, p.Catalog)
	if err != nil {
		return detection.Plan{}, 0, err
	}
	return plan, len(tokens), nil
}

func (p *Pipeline) load(input string) (image.Image, error) {
	if p.Load != nil {
		return p.Load(input)
	}
	return imaging.Load(input)
}

func (p *Pipeline) writeReport(result *Result) error {
	if p.Options.ReportPath == "" {
		return nil
	}

	path := p.Options.ReportPath
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := WriteReport(path, NewReport(result, p.Catalog)); err != nil {
		return err
	}

	result.ReportPath = path
	return nil
}
