package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ironsheep/image-redact/internal/detection"
	"github.com/ironsheep/image-redact/internal/imaging"
	"github.com/ironsheep/image-redact/internal/ocr"
	"github.com/ironsheep/image-redact/internal/patterns"
	"github.com/ironsheep/image-redact/internal/pipeline"
)

// Messages reported by image_redact, matching the command-line output.
const (
	msgNothingFound = "No sensitive information found to blur."
	msgSavedPrefix  = "Blurred image saved to: "
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_redact").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed",
			zap.String("tool", params.Name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}
	s.logger.Debug("tool complete",
		zap.String("tool", params.Name),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	case "image_redact", "image_find_sensitive", "image_ocr_words":
		if err := s.waitForEngine(ctx); err != nil {
			return nil, err
		}
	}

	switch name {
	case "image_redact":
		return s.handleImageRedact(ctx, args)
	case "image_find_sensitive":
		return s.handleImageFindSensitive(ctx, args)
	case "image_ocr_words":
		return s.handleImageOCRWords(ctx, args)
	case "image_info":
		return s.handleImageInfo(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Shared argument types ===

// stringList accepts either a JSON array of strings or a single
// comma-separated string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var csv string
	if err := json.Unmarshal(data, &csv); err == nil {
		*l = patterns.ParseStrings(csv)
		return nil
	}

	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("strings must be a string or an array of strings")
	}
	*l = items
	return nil
}

type patternArgs struct {
	Mail    bool       `json:"mail"`
	Phone   bool       `json:"phone"`
	IPv4    bool       `json:"ipv4"`
	IPv6    bool       `json:"ipv6"`
	All     bool       `json:"all"`
	Strings stringList `json:"strings"`
}

// catalog builds the catalog requested by the call, or returns fallback
// when the call selects nothing.
func (a patternArgs) catalog(fallback patterns.Catalog) patterns.Catalog {
	opts := patterns.Options{
		Mail:    a.Mail,
		Phone:   a.Phone,
		IPv4:    a.IPv4,
		IPv6:    a.IPv6,
		All:     a.All,
		Strings: a.Strings,
	}
	cat := patterns.Build(opts)
	if cat.Empty() {
		return fallback
	}
	return cat
}

type regionArgs struct {
	Region *struct {
		X1 int `json:"x1"`
		Y1 int `json:"y1"`
		X2 int `json:"x2"`
		Y2 int `json:"y2"`
	} `json:"region"`

	// Area names a part of the image, see imaging.NamedRegion.
	Area string `json:"area"`
}

// crop restricts img to the requested region. Coordinates of the result
// are those of img.
func (a regionArgs) crop(img image.Image) (image.Image, error) {
	switch {
	case a.Region != nil && a.Area != "":
		return nil, errors.New("region and area are mutually exclusive")
	case a.Region != nil:
		return imaging.SubImage(img, a.Region.X1, a.Region.Y1, a.Region.X2, a.Region.Y2)
	case a.Area != "":
		r, err := imaging.NamedRegion(img.Bounds(), a.Area)
		if err != nil {
			return nil, err
		}
		return imaging.SubImage(img, r.Min.X, r.Min.Y, r.Max.X, r.Max.Y)
	default:
		return img, nil
	}
}

func requirePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("path is required")
	}
	return nil
}

// RegionResult is a matched word's box. The word itself is never returned.
type RegionResult struct {
	Rule string  `json:"rule"`
	Box  ocr.Box `json:"box"`
}

func regionResults(plan detection.Plan) []RegionResult {
	out := make([]RegionResult, 0, plan.Len())
	for _, r := range plan.Regions {
		out = append(out, RegionResult{Rule: r.Rule, Box: r.Box})
	}
	return out
}

// === Redaction Handlers ===

type imageRedactArgs struct {
	Path       string `json:"path"`
	OutputDir  string `json:"output_dir"`
	ReportPath string `json:"report_path"`
	Preview    bool   `json:"preview"`
	patternArgs
}

// RedactResult is the result of image_redact.
type RedactResult struct {
	Status     string                 `json:"status"`
	Message    string                 `json:"message"`
	OutputPath string                 `json:"output_path,omitempty"`
	ReportPath string                 `json:"report_path,omitempty"`
	Words      int                    `json:"words"`
	Rules      []string               `json:"rules"`
	Regions    []RegionResult         `json:"regions"`
	Counts     map[string]int         `json:"counts,omitempty"`
	Preview    *imaging.PreviewResult `json:"preview,omitempty"`
}

func (s *Server) handleImageRedact(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageRedactArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}

	p, previewWidth := s.current()
	catalog := a.catalog(p.Catalog)
	if catalog.Empty() {
		return nil, errors.New("no patterns selected")
	}

	opts := p.Options
	if a.OutputDir != "" {
		opts.OutputDir = a.OutputDir
	}
	if a.ReportPath != "" {
		opts.ReportPath = a.ReportPath
	}

	res, err := p.WithCatalog(catalog).WithOptions(opts).Run(ctx, a.Path)
	if err != nil {
		return nil, err
	}

	out := &RedactResult{
		Status:     res.Status.String(),
		Message:    msgNothingFound,
		OutputPath: res.OutputPath,
		ReportPath: res.ReportPath,
		Words:      res.Tokens,
		Rules:      catalog.Names(),
		Regions:    regionResults(res.Plan),
		Counts:     res.Plan.CountByRule(),
	}
	if res.Status != pipeline.StatusRedacted {
		return out, nil
	}

	out.Message = msgSavedPrefix + res.OutputPath
	s.cache.Evict(res.OutputPath)

	if a.Preview {
		blurred, err := imaging.Load(res.OutputPath)
		if err != nil {
			return nil, err
		}
		if out.Preview, err = imaging.Preview(blurred, previewWidth); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type imageFindSensitiveArgs struct {
	Path string `json:"path"`
	patternArgs
	regionArgs
}

// FindResult is the result of image_find_sensitive.
type FindResult struct {
	Path    string         `json:"path"`
	Words   int            `json:"words"`
	Rules   []string       `json:"rules"`
	Regions []RegionResult `json:"regions"`
	Counts  map[string]int `json:"counts,omitempty"`
}

func (s *Server) handleImageFindSensitive(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageFindSensitiveArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}

	p, _ := s.current()
	catalog := a.catalog(p.Catalog)

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	img, err = a.crop(img)
	if err != nil {
		return nil, err
	}

	plan, words, err := p.WithCatalog(catalog).Detect(ctx, img)
	if err != nil {
		return nil, err
	}

	return &FindResult{
		Path:    a.Path,
		Words:   words,
		Rules:   catalog.Names(),
		Regions: regionResults(plan),
		Counts:  plan.CountByRule(),
	}, nil
}

// === OCR Handlers ===

type imageOCRWordsArgs struct {
	Path          string  `json:"path"`
	MinConfidence float64 `json:"min_confidence"`
	regionArgs
}

// OCRWordsResult is the result of image_ocr_words.
type OCRWordsResult struct {
	Words []ocr.Token `json:"words"`

	// Malformed counts words whose box could not be read.
	Malformed int `json:"malformed"`
}

func (s *Server) handleImageOCRWords(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageOCRWordsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	if a.MinConfidence < 0 || a.MinConfidence > 1 {
		return nil, fmt.Errorf("min_confidence must be between 0 and 1, got %g", a.MinConfidence)
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	img, err = a.crop(img)
	if err != nil {
		return nil, err
	}

	p, _ := s.current()
	tokens, err := p.Recognize(ctx, img)
	if err != nil {
		return nil, err
	}

	result := &OCRWordsResult{Words: make([]ocr.Token, 0, len(tokens))}
	for _, tok := range tokens {
		switch {
		case tok.Err != nil:
			result.Malformed++
		case strings.TrimSpace(tok.Text) == "":
		case tok.Confidence < a.MinConfidence:
		default:
			result.Words = append(result.Words, tok)
		}
	}
	return result, nil
}

// === Basic Image Information Handlers ===

type imageInfoArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a imageInfoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}
