package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

// patternProperties describes the pattern selection shared by the
// detection tools. When none is set the server's configured patterns apply.
func patternProperties(props map[string]interface{}) map[string]interface{} {
	flag := func(desc string) map[string]interface{} {
		return map[string]interface{}{
			"type":        "boolean",
			"description": desc,
			"default":     false,
		}
	}
	props["mail"] = flag("Blur email addresses")
	props["phone"] = flag("Blur French phone numbers (+33 or 0 prefix)")
	props["ipv4"] = flag("Blur IPv4 addresses, with optional port")
	props["ipv6"] = flag("Blur IPv6 addresses, with optional brackets and port")
	props["all"] = flag("Enable every builtin pattern")
	props["strings"] = map[string]interface{}{
		"description": "Exact words to blur, as an array or a comma-separated string. Matching is case-sensitive.",
		"oneOf": []interface{}{
			map[string]interface{}{"type": "string"},
			map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
		},
	}
	return props
}

// regionProperties describes the optional area restriction shared by the
// read-only tools.
func regionProperties(props map[string]interface{}) map[string]interface{} {
	props["region"] = map[string]interface{}{
		"type":        "object",
		"description": "Only examine this rectangle. Boxes stay in full-image coordinates.",
		"properties": map[string]interface{}{
			"x1": map[string]interface{}{"type": "integer", "description": "Left edge X coordinate (0-based)"},
			"y1": map[string]interface{}{"type": "integer", "description": "Top edge Y coordinate (0-based)"},
			"x2": map[string]interface{}{"type": "integer", "description": "Right edge X coordinate (exclusive)"},
			"y2": map[string]interface{}{"type": "integer", "description": "Bottom edge Y coordinate (exclusive)"},
		},
		"required": []string{"x1", "y1", "x2", "y2"},
	}
	props["area"] = map[string]interface{}{
		"type":        "string",
		"description": "Only examine a named part of the image. Mutually exclusive with region.",
		"enum": []string{
			"top-left", "top-right", "bottom-left", "bottom-right",
			"top-half", "bottom-half", "left-half", "right-half", "center",
		},
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Redaction
		{
			Name:        "image_redact",
			Description: "Find sensitive words (emails, phone numbers, IP addresses, custom strings) in an image with OCR and write a copy with those words blurred. Returns where the copy was written and which boxes were blurred. Nothing is written when no word matches.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": patternProperties(map[string]interface{}{
					"path": pathProperty(),
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory for the blurred copy. Default: next to the input as NAME.blurred.EXT",
					},
					"report_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path of a YAML report listing the blurred boxes",
					},
					"preview": map[string]interface{}{
						"type":        "boolean",
						"description": "Include a base64 PNG preview of the blurred copy",
						"default":     false,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_find_sensitive",
			Description: "Locate sensitive words without modifying anything. Returns the bounding box and matching rule of each word; the words themselves are not returned.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": regionProperties(patternProperties(map[string]interface{}{
					"path": pathProperty(),
				})),
				"required": []string{"path"},
			},
		},

		// OCR
		{
			Name:        "image_ocr_words",
			Description: "Run OCR and return every recognized word with its confidence and bounding box.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": regionProperties(map[string]interface{}{
					"path": pathProperty(),
					"min_confidence": map[string]interface{}{
						"type":        "number",
						"description": "Drop words below this confidence (0.0 to 1.0). Default 0",
						"default":     0.0,
					},
				}),
				"required": []string{"path"},
			},
		},

		// Basic Image Information
		{
			Name:        "image_info",
			Description: "Get the dimensions, format and file size of an image, and whether a redacted copy can be written in its format.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
	}
}
