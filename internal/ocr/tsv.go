package ocr

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// wordLevel is Tesseract's RIL_WORD level in TSV output.
const wordLevel = "5"

var coordColumns = []string{"left", "top", "width", "height"}

// ParseTSV reads Tesseract TSV output and returns one token per word row.
//
// Rows whose coordinates are missing or not integers still produce a token,
// with Err wrapping ErrMalformedBox, so a single bad row never aborts the
// whole page. Only a missing or unusable header is an error.
func ParseTSV(r io.Reader) ([]Token, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read tsv: %w", err)
		}
		return nil, fmt.Errorf("empty tsv output")
	}

	columns := make(map[string]int)
	for i, name := range strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t") {
		columns[strings.TrimSpace(name)] = i
	}
	textCol, ok := columns["text"]
	if !ok {
		return nil, fmt.Errorf("tsv header has no text column")
	}
	levelCol, hasLevel := columns["level"]
	confCol, hasConf := columns["conf"]

	tokens := make([]Token, 0)
	line := 1
	for scanner.Scan() {
		line++
		raw := strings.TrimRight(scanner.Text(), "\r")
		if raw == "" {
			continue
		}
		fields := strings.Split(raw, "\t")

		if hasLevel && field(fields, levelCol) != wordLevel {
			continue
		}

		tok := Token{Text: field(fields, textCol)}
		if hasConf {
			if conf, err := strconv.ParseFloat(field(fields, confCol), 64); err == nil && conf >= 0 {
				tok.Confidence = conf / 100.0
			}
		}
		tok.Box, tok.Err = parseBox(fields, columns)
		if tok.Err != nil {
			tok.Err = fmt.Errorf("tsv line %d: %w", line, tok.Err)
		}
		tokens = append(tokens, tok)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tsv: %w", err)
	}

	return tokens, nil
}

func parseBox(fields []string, columns map[string]int) (Box, error) {
	var v [4]int
	for i, name := range coordColumns {
		idx, ok := columns[name]
		if !ok || idx >= len(fields) {
			return Box{}, fmt.Errorf("%w: missing %s", ErrMalformedBox, name)
		}
		n, err := strconv.Atoi(strings.TrimSpace(fields[idx]))
		if err != nil {
			return Box{}, fmt.Errorf("%w: %s=%q", ErrMalformedBox, name, fields[idx])
		}
		v[i] = n
	}
	if v[2] < 0 || v[3] < 0 {
		return Box{}, fmt.Errorf("%w: negative size %dx%d", ErrMalformedBox, v[2], v[3])
	}
	return Box{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}

func field(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return fields[idx]
}
