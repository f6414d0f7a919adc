package detection

import (
	"context"
	"image"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/image-redact/internal/logger"
	"github.com/ironsheep/image-redact/internal/ocr"
	"github.com/ironsheep/image-redact/internal/patterns"
)

// Region is one area of the image to blur.
type Region struct {
	Box  ocr.Box `json:"box" yaml:"box"`
	Rule string  `json:"rule" yaml:"rule"`
}

// Rect returns the region as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return r.Box.Rect()
}

// Plan is the ordered list of regions to redact.
type Plan struct {
	Regions []Region `json:"regions" yaml:"regions"`
}

// Rects returns the region rectangles in plan order.
func (p Plan) Rects() []image.Rectangle {
	rects := make([]image.Rectangle, len(p.Regions))
	for i, r := range p.Regions {
		rects[i] = r.Rect()
	}
	return rects
}

// Len returns the number of regions.
func (p Plan) Len() int { return len(p.Regions) }

// Empty reports whether there is nothing to redact.
func (p Plan) Empty() bool { return len(p.Regions) == 0 }

// CountByRule returns how many regions each rule produced.
func (p Plan) CountByRule() map[string]int {
	counts := make(map[string]int)
	for _, r := range p.Regions {
		counts[r.Rule]++
	}
	return counts
}

// Detect classifies tokens against catalog and returns the plan.
func Detect(tokens []ocr.Token, catalog patterns.Catalog) Plan {
	plan := Plan{Regions: make([]Region, 0)}
	for _, tok := range tokens {
		if r, ok := classify(tok, catalog); ok {
			plan.Regions = append(plan.Regions, r)
		}
	}
	return plan
}

func classify(tok ocr.Token, catalog patterns.Catalog) (Region, bool) {
	if tok.Err != nil {
		return Region{}, false
	}
	text := strings.TrimSpace(tok.Text)
	if text == "" {
		return Region{}, false
	}
	rule, ok := catalog.Match(text)
	if !ok {
		return Region{}, false
	}
	return Region{Box: tok.Box, Rule: rule.Name()}, true
}

// minChunk is the smallest number of tokens handed to one worker.
const minChunk = 256

// Detector classifies tokens using a bounded pool of goroutines.
type Detector struct {
	// Workers caps concurrent goroutines. Values below 2 run sequentially.
	Workers int

	Logger *logger.Logger
}

// NewDetector returns a Detector with the given worker limit.
func NewDetector(workers int, log *logger.Logger) *Detector {
	if log == nil {
		log = logger.NewNop()
	}
	return &Detector{Workers: workers, Logger: log.WithComponent("detection")}
}

// Detect returns the same plan as the package-level Detect. Work is split
// into contiguous chunks whose results are concatenated in order.
func (d *Detector) Detect(ctx context.Context, tokens []ocr.Token, catalog patterns.Catalog) (Plan, error) {
	log := d.log()

	skipped := 0
	for _, tok := range tokens {
		if tok.Err != nil {
			skipped++
			log.Debug("skipping token with malformed box", zap.Error(tok.Err))
		}
	}

	chunks := split(len(tokens), d.Workers)
	if len(chunks) <= 1 {
		if err := ctx.Err(); err != nil {
			return Plan{}, err
		}
		plan := Detect(tokens, catalog)
		d.logPlan(plan, len(tokens), skipped)
		return plan, nil
	}

	parts := make([][]Region, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.Workers)
	for i, c := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			parts[i] = Detect(tokens[c.lo:c.hi], catalog).Regions
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Plan{}, err
	}

	plan := Plan{Regions: make([]Region, 0)}
	for _, p := range parts {
		plan.Regions = append(plan.Regions, p...)
	}
	d.logPlan(plan, len(tokens), skipped)
	return plan, nil
}

func (d *Detector) logPlan(plan Plan, tokens, skipped int) {
	// Token text is never logged.
	d.log().Debug("detection complete",
		zap.Int("tokens", tokens),
		zap.Int("skipped", skipped),
		zap.Int("regions", plan.Len()),
		zap.Any("rules", plan.CountByRule()),
	)
}

func (d *Detector) log() *logger.Logger {
	if d.Logger == nil {
		return logger.NewNop()
	}
	return d.Logger
}

type chunk struct{ lo, hi int }

func split(n, workers int) []chunk {
	if n == 0 {
		return nil
	}
	if workers < 2 || n < 2*minChunk {
		return []chunk{{0, n}}
	}
	size := (n + workers - 1) / workers
	if size < minChunk {
		size = minChunk
	}
	chunks := make([]chunk, 0, (n+size-1)/size)
	for lo := 0; lo < n; lo += size {
		hi := lo + size
		if hi > n {
			hi = n
		}
		chunks = append(chunks, chunk{lo, hi})
	}
	return chunks
}
