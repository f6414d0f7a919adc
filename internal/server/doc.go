// Package server implements an MCP (Model Context Protocol) server that
// exposes image redaction as tools.
//
// # Protocol
//
// The server speaks JSON-RPC 2.0 over a pair of streams, normally stdio:
//   - Input: one request per line
//   - Output: one response per line
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - image_redact: blur sensitive words and write the copy
//   - image_find_sensitive: report the boxes that would be blurred
//   - image_ocr_words: raw word boxes from the OCR engine
//   - image_info: dimensions and format
//
// Detection tools accept mail, phone, ipv4, ipv6, all and strings
// arguments. When a call selects no pattern, the patterns the server was
// configured with apply.
//
// # Image Caching
//
// Decoded images are cached by path and reused across tool calls. An
// entry is reloaded when the file's size or modification time changes.
//
// # Rate Limiting
//
// Tools that run the OCR engine wait on a shared token bucket when a rate
// limit is configured. A call whose context ends while waiting fails.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with
// code -32000 and the Go error string as data.
package server
