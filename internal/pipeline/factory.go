package pipeline

import (
	"github.com/ironsheep/image-redact/internal/config"
	"github.com/ironsheep/image-redact/internal/logger"
	"github.com/ironsheep/image-redact/internal/ocr"
	"github.com/ironsheep/image-redact/internal/patterns"
)

// NewOracle builds the OCR engine described by cfg.
//
// For the cli engine the binary is located first, so a missing Tesseract
// is reported as ocr.ErrEngineNotFound before any image is touched.
func NewOracle(cfg config.OCRConfig) (ocr.Oracle, error) {
	var oracle ocr.Oracle

	switch cfg.Engine {
	case config.EngineGosseract:
		g, err := ocr.NewGosseract(cfg.Language)
		if err != nil {
			return nil, err
		}
		g.PageSegMode = cfg.PSM
		g.TessdataDir = cfg.TessdataDir
		oracle = g
	default:
		bin, err := ocr.Locate(cfg.Binary)
		if err != nil {
			return nil, err
		}
		t := ocr.NewTesseract(bin, cfg.Language)
		t.PageSegMode = cfg.PSM
		t.TessdataDir = cfg.TessdataDir
		oracle = t
	}

	if cfg.Upscale > 1 || cfg.Grayscale {
		oracle = ocr.Upscaled{Oracle: oracle, Factor: cfg.Upscale, Grayscale: cfg.Grayscale}
	}
	return oracle, nil
}

// FromConfig builds a Pipeline from cfg.
func FromConfig(cfg *config.Config, log *logger.Logger) (*Pipeline, error) {
	oracle, err := NewOracle(cfg.OCR)
	if err != nil {
		return nil, err
	}

	opts := Options{
		OutputDir:   cfg.Output.Dir,
		JPEGQuality: cfg.Output.JPEGQuality,
		ReportPath:  cfg.Output.Report,
		Timeout:     cfg.OCR.Timeout,
	}
	return New(oracle, patterns.Build(cfg.Patterns.Options()), cfg.Detection.Workers, opts, log), nil
}
