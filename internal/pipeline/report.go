package pipeline

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/image-redact/internal/detection"
	"github.com/ironsheep/image-redact/internal/patterns"
)

// Report is the YAML summary of a run. It lists rule names and boxes only;
// the recognized text never appears in it.
type Report struct {
	Input       string             `yaml:"input"`
	Output      string             `yaml:"output,omitempty"`
	Status      string             `yaml:"status"`
	GeneratedAt time.Time          `yaml:"generated_at"`
	Rules       []string           `yaml:"rules"`
	Words       int                `yaml:"words"`
	Counts      map[string]int     `yaml:"counts,omitempty"`
	Regions     []detection.Region `yaml:"regions"`
}

// NewReport builds the report for result.
func NewReport(result *Result, catalog patterns.Catalog) *Report {
	regions := result.Plan.Regions
	if regions == nil {
		regions = []detection.Region{}
	}
	return &Report{
		Input:       result.Input,
		Output:      result.OutputPath,
		Status:      result.Status.String(),
		GeneratedAt: time.Now().UTC(),
		Rules:       catalog.Names(),
		Words:       result.Tokens,
		Counts:      result.Plan.CountByRule(),
		Regions:     regions,
	}
}

// Encode writes r as YAML.
func (r *Report) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}

// WriteReport writes r to path.
func WriteReport(path string, r *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	if err := r.Encode(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// ReadReport parses a report written by WriteReport.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &r, nil
}
