package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawText draws text on an image using basicfont
func drawText(img *image.RGBA, x, y int, text string, col color.Color) {
	point := fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  point,
	}
	d.DrawString(text)
}

// createImageWithText renders text with basicfont and scales it up so
// Tesseract has a chance of reading it.
func createImageWithText(text string, scale int) *image.RGBA {
	// basicfont.Face7x13 is 7 pixels wide, 13 pixels tall per character
	width := len(text)*7 + 40
	height := 40

	small := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)
	drawText(small, 20, 25, text, color.Black)

	img := image.NewRGBA(image.Rect(0, 0, width*scale, height*scale))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := small.At(x, y)
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.Set(x*scale+dx, y*scale+dy, c)
				}
			}
		}
	}
	return img
}

// writeFakeTesseract writes an executable shell script standing in for the
// tesseract binary.
func writeFakeTesseract(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tesseract script needs a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "tesseract")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write fake tesseract: %v", err)
	}
	return path
}

const fakeTSV = `level	page_num	block_num	par_num	line_num	word_num	left	top	width	height	conf	text
1	1	0	0	0	0	0	0	200	100	-1
5	1	1	1	1	1	10	20	120	15	96.5	test@example.com
5	1	1	1	1	2	140	20	40	15	91	hello`

func TestTesseract_Recognize_FakeBinary(t *testing.T) {
	bin := writeFakeTesseract(t, "cat <<'TSV'\n"+fakeTSV+"\nTSV")

	tokens, err := NewTesseract(bin, "eng").Recognize(context.Background(), image.NewRGBA(image.Rect(0, 0, 200, 100)))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("expected 2 word tokens, got %d", len(tokens))
	}

	want := Box{X: 10, Y: 20, Width: 120, Height: 15}
	if tokens[0].Text != "test@example.com" || tokens[0].Box != want {
		t.Errorf("token 0: got %q %+v, want test@example.com %+v", tokens[0].Text, tokens[0].Box, want)
	}
	if tokens[0].Confidence != 0.965 {
		t.Errorf("confidence: got %f, want 0.965", tokens[0].Confidence)
	}
}

func TestTesseract_Recognize_OffsetsNonZeroOrigin(t *testing.T) {
	bin := writeFakeTesseract(t, "cat <<'TSV'\n"+fakeTSV+"\nTSV")

	img := image.NewRGBA(image.Rect(0, 0, 400, 300)).SubImage(image.Rect(100, 50, 300, 150))
	tokens, err := NewTesseract(bin, "eng").Recognize(context.Background(), img)
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if tokens[0].Box.X != 110 || tokens[0].Box.Y != 70 {
		t.Errorf("box should be shifted by the image origin: got %+v", tokens[0].Box)
	}
}

func TestTesseract_Recognize_PassesArguments(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	bin := writeFakeTesseract(t, `echo "$@" > `+argsFile+"\ncat <<'TSV'\n"+fakeTSV+"\nTSV")

	engine := &Tesseract{Binary: bin, Language: "fra+eng", PageSegMode: 11, TessdataDir: "/opt/tessdata"}
	if _, err := engine.Recognize(context.Background(), image.NewRGBA(image.Rect(0, 0, 10, 10))); err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}

	data, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("failed to read recorded args: %v", err)
	}
	args := strings.Fields(string(data))
	if len(args) < 2 || !strings.HasSuffix(args[0], ".png") || args[1] != "stdout" {
		t.Fatalf("unexpected leading args: %v", args)
	}
	got := strings.Join(args[2:], " ")
	want := "-l fra+eng --psm 11 --tessdata-dir /opt/tessdata tsv"
	if got != want {
		t.Errorf("args: got %q, want %q", got, want)
	}

	// Temp input must be cleaned up after the run.
	if _, err := os.Stat(args[0]); !os.IsNotExist(err) {
		t.Errorf("temporary input %s was not removed", args[0])
	}
}

func TestTesseract_Recognize_EngineFailure(t *testing.T) {
	bin := writeFakeTesseract(t, "echo 'Failed loading language xyz' >&2\nexit 1")

	_, err := NewTesseract(bin, "xyz").Recognize(context.Background(), image.NewRGBA(image.Rect(0, 0, 10, 10)))
	if err == nil {
		t.Fatal("Recognize should fail when the engine exits non-zero")
	}
	if !strings.Contains(err.Error(), "Failed loading language") {
		t.Errorf("error should carry engine stderr, got: %v", err)
	}
}

func TestTesseract_Recognize_Cancelled(t *testing.T) {
	bin := writeFakeTesseract(t, "exec sleep 5")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewTesseract(bin, "eng").Recognize(ctx, image.NewRGBA(image.Rect(0, 0, 10, 10)))
	if err == nil {
		t.Fatal("Recognize should fail when the context expires")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error should wrap context.DeadlineExceeded, got: %v", err)
	}
	if time.Since(start) > 4*time.Second {
		t.Error("Recognize did not stop the engine on cancellation")
	}
}

func TestTesseract_Recognize_NoBinary(t *testing.T) {
	_, err := (&Tesseract{}).Recognize(context.Background(), image.NewRGBA(image.Rect(0, 0, 1, 1)))
	if !errors.Is(err, ErrEngineNotFound) {
		t.Errorf("expected ErrEngineNotFound, got %v", err)
	}
}

func TestVersion_FakeBinary(t *testing.T) {
	bin := writeFakeTesseract(t, "echo 'tesseract 5.3.0'\necho ' leptonica-1.82.0'")

	v, err := Version(context.Background(), bin)
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if v != "tesseract 5.3.0" {
		t.Errorf("Version: got %q, want %q", v, "tesseract 5.3.0")
	}
}

// TestTesseract_Recognize_RealEngine runs against an installed Tesseract.
func TestTesseract_Recognize_RealEngine(t *testing.T) {
	bin, err := Locate("")
	if err != nil {
		t.Skip("Tesseract not available")
	}

	img := createImageWithText("test@example.com", 3)
	tokens, err := NewTesseract(bin, "eng").Recognize(context.Background(), img)
	if err != nil {
		if strings.Contains(err.Error(), "language") {
			t.Skip("Tesseract language data not available")
		}
		t.Fatalf("Recognize failed: %v", err)
	}

	bounds := img.Bounds()
	for _, tok := range tokens {
		if tok.Err != nil {
			continue
		}
		if !tok.Box.Rect().In(bounds.Inset(-1)) {
			t.Errorf("token %q box %+v outside image %v", tok.Text, tok.Box, bounds)
		}
	}
	t.Logf("recognized %d tokens", len(tokens))
}

func TestBox_Rect(t *testing.T) {
	b := Box{X: 10, Y: 20, Width: 30, Height: 5}
	r := b.Rect()
	if r != image.Rect(10, 20, 40, 25) {
		t.Errorf("Rect: got %v", r)
	}
	if BoxFromRect(r) != b {
		t.Errorf("BoxFromRect(Rect()) should round-trip: got %+v", BoxFromRect(r))
	}
}

func TestOracleFunc(t *testing.T) {
	var called bool
	var o Oracle = OracleFunc(func(ctx context.Context, img image.Image) ([]Token, error) {
		called = true
		return []Token{{Text: "x"}}, nil
	})

	tokens, err := o.Recognize(context.Background(), nil)
	if err != nil || !called || len(tokens) != 1 {
		t.Errorf("OracleFunc did not delegate: called=%v tokens=%v err=%v", called, tokens, err)
	}
}
