package detection

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"reflect"
	"strings"
	"testing"

	"github.com/ironsheep/image-redact/internal/logger"
	"github.com/ironsheep/image-redact/internal/ocr"
	"github.com/ironsheep/image-redact/internal/patterns"
)

func token(text string, x, y, w, h int) ocr.Token {
	return ocr.Token{Text: text, Confidence: 0.9, Box: ocr.Box{X: x, Y: y, Width: w, Height: h}}
}

func TestDetect_MailOnly(t *testing.T) {
	tokens := []ocr.Token{
		token("hello", 10, 10, 50, 20),
		token("test@example.com", 70, 10, 150, 20),
	}

	plan := Detect(tokens, patterns.Build(patterns.Options{Mail: true}))

	want := []Region{{Box: ocr.Box{X: 70, Y: 10, Width: 150, Height: 20}, Rule: "mail"}}
	if !reflect.DeepEqual(plan.Regions, want) {
		t.Errorf("got %+v, want %+v", plan.Regions, want)
	}
}

func TestDetect_IPv4DisabledPhoneEnabled(t *testing.T) {
	tokens := []ocr.Token{token("192.168.1.10:8080", 0, 0, 100, 20)}

	plan := Detect(tokens, patterns.Build(patterns.Options{Phone: true}))
	if !plan.Empty() {
		t.Errorf("expected empty plan, got %+v", plan.Regions)
	}
}

func TestDetect_LiteralExact(t *testing.T) {
	tokens := []ocr.Token{
		token("SECRET123", 5, 5, 80, 20),
		token("SECRET1234", 100, 5, 90, 20),
		token("secret123", 200, 5, 80, 20),
		token("  SECRET123 ", 300, 5, 80, 20),
	}

	plan := Detect(tokens, patterns.Build(patterns.Options{Strings: []string{"SECRET123"}}))

	want := []image.Rectangle{image.Rect(5, 5, 85, 25), image.Rect(300, 5, 380, 25)}
	if got := plan.Rects(); !reflect.DeepEqual(got, want) {
		t.Errorf("rects: got %v, want %v", got, want)
	}
	for _, r := range plan.Regions {
		if r.Rule != patterns.LiteralName {
			t.Errorf("rule: got %q, want %q", r.Rule, patterns.LiteralName)
		}
	}
}

func TestDetect_SkipsMalformedAndBlank(t *testing.T) {
	bad := token("test@example.com", 0, 0, 0, 0)
	bad.Err = ocr.ErrMalformedBox
	tokens := []ocr.Token{
		bad,
		token("", 0, 0, 10, 10),
		token("   ", 0, 0, 10, 10),
		token("other@example.com", 1, 2, 3, 4),
	}

	plan := Detect(tokens, patterns.Build(patterns.Options{All: true}))
	if plan.Len() != 1 || plan.Regions[0].Box != (ocr.Box{X: 1, Y: 2, Width: 3, Height: 4}) {
		t.Errorf("only the well-formed token should be kept: %+v", plan.Regions)
	}
}

func TestDetect_EmptyCatalog(t *testing.T) {
	plan := Detect([]ocr.Token{token("test@example.com", 0, 0, 10, 10)}, patterns.Build(patterns.Options{}))
	if !plan.Empty() {
		t.Error("an empty catalog must produce an empty plan")
	}
}

func TestDetect_KeepsTokenOrder(t *testing.T) {
	tokens := []ocr.Token{
		token("0612345678", 0, 100, 10, 10),
		token("a@b.co", 0, 0, 10, 10),
		token("10.0.0.1", 0, 50, 10, 10),
	}

	plan := Detect(tokens, patterns.Build(patterns.Options{All: true}))

	got := make([]string, 0, plan.Len())
	for _, r := range plan.Regions {
		got = append(got, r.Rule)
	}
	if want := []string{"phone", "mail", "ipv4"}; !reflect.DeepEqual(got, want) {
		t.Errorf("rules: got %v, want %v", got, want)
	}
}

func TestDetect_Idempotent(t *testing.T) {
	tokens := []ocr.Token{
		token("test@example.com", 0, 0, 10, 10),
		token("fe80::1", 20, 0, 10, 10),
		token("noise", 40, 0, 10, 10),
	}
	catalog := patterns.Build(patterns.Options{All: true})

	first := Detect(tokens, catalog)
	for i := 0; i < 5; i++ {
		if got := Detect(tokens, catalog); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func TestPlan_CountByRule(t *testing.T) {
	plan := Plan{Regions: []Region{{Rule: "mail"}, {Rule: "mail"}, {Rule: "literal"}}}
	got := plan.CountByRule()
	if got["mail"] != 2 || got["literal"] != 1 || len(got) != 2 {
		t.Errorf("unexpected counts: %v", got)
	}
}

func manyTokens(n int) []ocr.Token {
	samples := []string{"test@example.com", "hello", "192.168.0.1", "0612345678", "world", "::1", "SECRET"}
	tokens := make([]ocr.Token, n)
	for i := range tokens {
		tokens[i] = token(samples[i%len(samples)], i, i, 10, 10)
		if i%97 == 0 {
			tokens[i].Err = fmt.Errorf("line %d: %w", i, ocr.ErrMalformedBox)
		}
	}
	return tokens
}

func TestDetector_MatchesSequential(t *testing.T) {
	tokens := manyTokens(5000)
	catalog := patterns.Build(patterns.Options{All: true, Strings: []string{"SECRET"}})
	want := Detect(tokens, catalog)

	for _, workers := range []int{0, 1, 2, 4, 16} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			got, err := NewDetector(workers, nil).Detect(context.Background(), tokens, catalog)
			if err != nil {
				t.Fatalf("Detect failed: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("parallel plan differs from sequential (%d vs %d regions)", got.Len(), want.Len())
			}
		})
	}
}

func TestDetector_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDetector(4, nil).Detect(ctx, manyTokens(5000), patterns.Build(patterns.Options{All: true}))
	if err == nil {
		t.Error("expected an error from a cancelled context")
	}
}

func TestDetector_NeverLogsText(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.NewWithWriter(logger.Config{Level: "debug", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	tokens := []ocr.Token{token("secret@example.com", 0, 0, 10, 10)}
	plan, err := NewDetector(1, log).Detect(context.Background(), tokens, patterns.Build(patterns.Options{Mail: true}))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if plan.Len() != 1 {
		t.Fatalf("expected one region, got %d", plan.Len())
	}
	if strings.Contains(buf.String(), "secret@example.com") {
		t.Error("token text leaked into logs")
	}
	if !strings.Contains(buf.String(), "detection complete") {
		t.Errorf("expected a debug summary, got %q", buf.String())
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		n, workers int
		want       int
	}{
		{0, 4, 0},
		{10, 4, 1},
		{1000, 1, 1},
		{1000, 4, 4},
		{10000, 4, 4},
	}

	for _, tt := range tests {
		chunks := split(tt.n, tt.workers)
		if len(chunks) != tt.want {
			t.Errorf("split(%d, %d): got %d chunks, want %d", tt.n, tt.workers, len(chunks), tt.want)
			continue
		}
		covered := 0
		for i, c := range chunks {
			if i > 0 && c.lo != chunks[i-1].hi {
				t.Errorf("split(%d, %d): chunks are not contiguous", tt.n, tt.workers)
			}
			covered += c.hi - c.lo
		}
		if covered != tt.n {
			t.Errorf("split(%d, %d): covered %d tokens", tt.n, tt.workers, covered)
		}
	}
}
