// Package ocr recognizes text in scanned statements by rendering PDF pages
// to raster images and running tesseract over them. It drives the external
// pdftoppm and tesseract binaries through an injectable Runner, so nothing
// here needs cgo and tests run without the tools installed.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrFailed marks an OCR engine error or a scan in which no text at all was
// recognized. Fatal for the run: OCR is the last resort for image-only
// documents, there is nothing to fall back to.
var ErrFailed = errors.New("ocr failed")

// Config for the OCR sub-path. Zero values pick the defaults below.
type Config struct {
	Pdftoppm  string // render binary, default "pdftoppm"
	Tesseract string // recognizer binary, default "tesseract"
	HeicTool  string // HEIC to PNG converter, default "heif-convert"
	Language  string // tesseract language pack, default "eng"

	// DPI upscales the rendered page rasters. 300 keeps 10pt statement
	// print legible to the recognizer without ballooning render time.
	DPI int

	// MaxScanPages caps how many pages of a scanned multi-page document
	// are recognized. OCR can run tens of seconds per page; five pages
	// covers the overwhelming majority of consumer statements.
	MaxScanPages int

	// CallTimeout bounds each individual external call so a pathological
	// image cannot block the pipeline indefinitely.
	CallTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Pdftoppm == "" {
		c.Pdftoppm = "pdftoppm"
	}
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.HeicTool == "" {
		c.HeicTool = "heif-convert"
	}
	if c.Language == "" {
		c.Language = "eng"
	}
	if c.DPI <= 0 {
		c.DPI = 300
	}
	if c.MaxScanPages <= 0 {
		c.MaxScanPages = 5
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 30 * time.Second
	}
	return c
}

// Result of an OCR pass. The recognized text carries no positional
// metadata; downstream parsing falls back to pattern matching.
type Result struct {
	Text          string
	RenderedPages int
}

// PageFunc receives per-page progress during recognition.
type PageFunc func(page, total int)

// Extractor runs the render-and-recognize sub-path.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

// NewExtractor creates an Extractor. A nil logger falls back to the default.
func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg.withDefaults(), runner: execRunner{}, logger: logger}
}

// WithRunner swaps the external-process runner; used by tests.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// ExtractPDF renders each page of a scanned PDF and recognizes it,
// concatenating page texts with form-feed separators. Recognition stops at
// MaxScanPages; cancellation is checked before every page.
func (e *Extractor) ExtractPDF(ctx context.Context, data []byte, onPage PageFunc) (*Result, error) {
	tmpDir, err := os.MkdirTemp("", "stmt-ocr-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	src := filepath.Join(tmpDir, "doc.pdf")
	if err := os.WriteFile(src, data, 0o600); err != nil {
		return nil, err
	}

	prefix := filepath.Join(tmpDir, "page")
	_, errb, err := e.run(ctx, e.cfg.Pdftoppm,
		"-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", src, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: render: %v: %s", ErrFailed, err, strings.TrimSpace(string(errb)))
	}

	pages, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(pages)
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: renderer produced no page images", ErrFailed)
	}
	if len(pages) > e.cfg.MaxScanPages {
		e.logger.Info("capping ocr pages", "rendered", len(pages), "cap", e.cfg.MaxScanPages)
		pages = pages[:e.cfg.MaxScanPages]
	}

	var b strings.Builder
	recognized := 0
	for i, img := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := e.recognize(ctx, img)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// An engine error on any page fails the run; a partial
			// transcript would silently drop transactions.
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		if strings.TrimSpace(text) != "" {
			if b.Len() > 0 {
				b.WriteString("\n\f\n")
			}
			b.WriteString(text)
			recognized++
		}
		if onPage != nil {
			onPage(i+1, len(pages))
		}
	}

	if recognized == 0 {
		return nil, fmt.Errorf("%w: no text recognized on any page", ErrFailed)
	}
	return &Result{Text: b.String(), RenderedPages: len(pages)}, nil
}

// ExtractImage recognizes a single raster image (JPEG, PNG, HEIC).
func (e *Extractor) ExtractImage(ctx context.Context, data []byte, ext string) (*Result, error) {
	tmpDir, err := os.MkdirTemp("", "stmt-ocr-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	src := filepath.Join(tmpDir, "image."+ext)
	if err := os.WriteFile(src, data, 0o600); err != nil {
		return nil, err
	}

	if ext == "heic" || ext == "heif" {
		converted := filepath.Join(tmpDir, "image.png")
		if _, errb, err := e.run(ctx, e.cfg.HeicTool, src, converted); err != nil {
			return nil, fmt.Errorf("%w: heic convert: %v: %s", ErrFailed, err, strings.TrimSpace(string(errb)))
		}
		src = converted
	}

	text, err := e.recognize(ctx, src)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: no text recognized", ErrFailed)
	}
	return &Result{Text: text, RenderedPages: 1}, nil
}

// recognize runs tesseract on one image file, writing to stdout.
func (e *Extractor) recognize(ctx context.Context, path string) (string, error) {
	out, errb, err := e.run(ctx, e.cfg.Tesseract, path, "stdout", "-l", e.cfg.Language)
	if err != nil {
		return "", fmt.Errorf("%w: tesseract: %v: %s", ErrFailed, err, strings.TrimSpace(string(errb)))
	}
	return string(out), nil
}

// run wraps the Runner with the per-call timeout.
func (e *Extractor) run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
	defer cancel()
	return e.runner.Run(callCtx, name, args...)
}
