// Package service orchestrates the statement extraction pipeline: one
// document in, an ordered transaction list plus mapping suggestion and
// quality report out, or a single typed error.
package service

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finatlas/statement-pipeline/internal/domain/extraction/assembler"
	"github.com/finatlas/statement-pipeline/internal/domain/extraction/columns"
	"github.com/finatlas/statement-pipeline/internal/domain/extraction/normalizer"
	"github.com/finatlas/statement-pipeline/internal/domain/extraction/ocr"
	"github.com/finatlas/statement-pipeline/internal/domain/extraction/pdftext"
	"github.com/finatlas/statement-pipeline/internal/domain/extraction/quality"
	"github.com/finatlas/statement-pipeline/internal/domain/extraction/table"
)

// MaxFileBytes is the input size limit, enforced before any parsing.
const MaxFileBytes = 10 << 20

// Document kinds, used for scoring rules and metrics labels.
const (
	kindDebt    = "debt"
	kindSavings = "savings"
)

// Progress is delivered to the caller's callback during a run. The final
// notification of a successful run carries Percent 100.
type Progress struct {
	Stage   Stage
	Message string
	Percent int
}

// ProgressFunc receives progress notifications. May be nil.
type ProgressFunc func(Progress)

// Input is a single uploaded document. DateFormat, when set, overrides date
// format detection; it is the manual-correction path for runs that failed
// with ErrDateFormatUndetected.
type Input struct {
	Filename   string
	MIME       string
	Data       []byte
	DateFormat normalizer.Format
}

// Result is the successful outcome of a run. Transactions are ordered as
// they appear in the document. Bank, StartingBalance and InterestRate are
// best effort and may be empty or nil.
type Result struct {
	RunID           uuid.UUID
	Transactions    []assembler.Transaction
	Mapping         *columns.Suggestion
	Bank            string
	AccountType     columns.AccountType
	StartingBalance *decimal.Decimal
	InterestRate    *decimal.Decimal
	Report          quality.Report
}

// Service runs the pipeline. Safe for concurrent use; no state is shared
// between runs.
type Service struct {
	logger   *slog.Logger
	pdf      *pdftext.Extractor
	ocr      *ocr.Extractor
	recon    *table.Reconstructor
	asm      *assembler.Assembler
	metrics  *Metrics
	maxBytes int
}

// New builds a Service. metrics may be nil to disable instrumentation.
func New(logger *slog.Logger, ocrCfg ocr.Config, metrics *Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		logger:   logger,
		pdf:      pdftext.NewExtractor(logger),
		ocr:      ocr.NewExtractor(ocrCfg, logger),
		recon:    table.NewReconstructor(logger),
		asm:      assembler.New(logger),
		metrics:  metrics,
		maxBytes: MaxFileBytes,
	}
}

// WithMaxFileBytes overrides the input size limit.
func (s *Service) WithMaxFileBytes(n int) *Service {
	if n > 0 {
		s.maxBytes = n
	}
	return s
}

// WithOCRRunner swaps the external-process runner used for OCR. Used in
// tests.
func (s *Service) WithOCRRunner(r ocr.Runner) *Service {
	s.ocr.WithRunner(r)
	return s
}

// run bundles per-invocation state so stages can log and report progress
// without threading the callback everywhere.
type run struct {
	svc    *Service
	id     uuid.UUID
	kind   string
	input  Input
	notify ProgressFunc
	logger *slog.Logger
}

func (r *run) progress(stage Stage, message string, percent int) {
	r.logger.Debug("stage", "stage", stage, "percent", percent)
	if r.notify != nil {
		r.notify(Progress{Stage: stage, Message: message, Percent: percent})
	}
}

// partial is the per-path output before scoring.
type partial struct {
	transactions []assembler.Transaction
	mapping      *columns.Suggestion
	report       quality.Report
	text         string // full document text for metadata scans
}

func extensionOf(in Input) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(in.Filename), "."))
	if ext != "" {
		return ext
	}
	switch in.MIME {
	case "text/csv":
		return "csv"
	case "application/pdf":
		return "pdf"
	case "text/plain":
		return "txt"
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/heic":
		return "heic"
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return "xlsx"
	case "application/vnd.ms-excel":
		return "xls"
	}
	return ""
}
