package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ironsheep/image-redact/internal/imaging"
	"github.com/ironsheep/image-redact/internal/logger"
	"github.com/ironsheep/image-redact/internal/pipeline"
)

// ServerName is reported to clients during initialize.
const ServerName = "image-redact"

// ProtocolVersion is the MCP protocol revision implemented.
const ProtocolVersion = "2024-11-05"

// Server handles MCP protocol communication
type Server struct {
	cache   *imaging.ImageCache
	logger  *logger.Logger
	version string
	limiter *rate.Limiter

	mu           sync.RWMutex
	pipeline     *pipeline.Pipeline
	previewWidth int
}

// Options configures a Server.
type Options struct {
	// Version is reported in serverInfo.
	Version string

	// PreviewWidth caps the width of previews returned by image_redact.
	PreviewWidth int

	// RateLimit caps OCR-backed tool calls per second. Zero means no limit.
	RateLimit float64
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON-RPC error codes
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeToolFailed     = -32000
)

// New creates a new MCP server around p. Images are decoded through a
// cache shared by every tool call.
func New(p *pipeline.Pipeline, opts Options, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Server{
		cache:        imaging.NewImageCache(),
		logger:       log.WithComponent("server"),
		version:      opts.Version,
		previewWidth: opts.PreviewWidth,
		limiter:      rate.NewLimiter(limitFor(opts.RateLimit), 1),
	}
	s.SetPipeline(p)
	return s
}

func limitFor(perSecond float64) rate.Limit {
	if perSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(perSecond)
}

// SetRateLimit changes the OCR call rate. Zero removes the limit.
func (s *Server) SetRateLimit(perSecond float64) {
	s.limiter.SetLimit(limitFor(perSecond))
}

// waitForEngine blocks until the rate limit admits another OCR call.
func (s *Server) waitForEngine(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limited: %w", err)
	}
	return nil
}

// SetPipeline replaces the pipeline used for subsequent tool calls. Calls
// already running keep the pipeline they started with.
func (s *Server) SetPipeline(p *pipeline.Pipeline) {
	cp := *p
	cp.Load = s.cache.Load

	s.mu.Lock()
	s.pipeline = &cp
	s.mu.Unlock()
}

// SetPreviewWidth changes the preview width cap.
func (s *Server) SetPreviewWidth(w int) {
	s.mu.Lock()
	s.previewWidth = w
	s.mu.Unlock()
}

func (s *Server) current() (*pipeline.Pipeline, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pipeline, s.previewWidth
}

// Run serves requests read line by line from r and writes one response per
// line to w until r is exhausted or ctx is done.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var resp *MCPResponse
		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("failed to parse request", zap.Error(err))
			resp = s.errorResponse(nil, codeParseError, "Parse error", err.Error())
		} else {
			resp = s.handleRequest(ctx, &req)
		}

		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error("failed to encode response", zap.Error(err))
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized", "notifications/cancelled":
		// Notifications get no response
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    codeMethodNotFound,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	version := s.version
	if version == "" {
		version = "dev"
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": ProtocolVersion,
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    ServerName,
				"version": version,
			},
		},
	}
}

// handleToolsList returns the tool catalog
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
