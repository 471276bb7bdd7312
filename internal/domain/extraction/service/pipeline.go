package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/finatlas/statement-pipeline/internal/domain/extraction/assembler"
	"github.com/finatlas/statement-pipeline/internal/domain/extraction/columns"
	"github.com/finatlas/statement-pipeline/internal/domain/extraction/normalizer"
	"github.com/finatlas/statement-pipeline/internal/domain/extraction/parser"
	"github.com/finatlas/statement-pipeline/internal/domain/extraction/pdftext"
	"github.com/finatlas/statement-pipeline/internal/domain/extraction/quality"
	"github.com/finatlas/statement-pipeline/internal/domain/extraction/sniffer"
	"github.com/finatlas/statement-pipeline/internal/domain/extraction/table"
)

// AnalyzeDebtDocument runs the debt-statement path: spreadsheet formats,
// PDF, and raster images. The debt checklist scores the result.
func (s *Service) AnalyzeDebtDocument(ctx context.Context, in Input, notify ProgressFunc) (*Result, error) {
	return s.analyze(ctx, in, kindDebt, notify)
}

// AnalyzeSavingsDocument runs the savings-statement path: PDF and plain
// text, scored with the savings coverage checklist.
func (s *Service) AnalyzeSavingsDocument(ctx context.Context, in Input, notify ProgressFunc) (*Result, error) {
	return s.analyze(ctx, in, kindSavings, notify)
}

func (s *Service) analyze(ctx context.Context, in Input, kind string, notify ProgressFunc) (*Result, error) {
	start := time.Now()
	r := &run{svc: s, id: uuid.New(), kind: kind, input: in, notify: notify}
	r.logger = s.logger.With("run_id", r.id, "filename", in.Filename, "kind", kind)

	res, err := r.execute(ctx)
	outcome := "succeeded"
	if err != nil {
		outcome = "failed"
		r.logger.Warn("run failed", "error", err)
	} else {
		r.logger.Info("run succeeded",
			"transactions", len(res.Transactions), "score", res.Report.Score)
	}
	s.metrics.observe(kind, outcome, time.Since(start).Seconds())
	return res, err
}

func (r *run) execute(ctx context.Context) (*Result, error) {
	in := r.input
	r.progress(StageIdle, "validating input", 0)
	if len(in.Data) > r.svc.maxBytes {
		return nil, failure(ErrFileTooLarge, StageIdle,
			fmt.Errorf("%d bytes over %d byte limit", len(in.Data), r.svc.maxBytes))
	}
	if len(in.Data) == 0 {
		return nil, failure(ErrDocumentUnreadable, StageIdle, errors.New("empty input"))
	}

	var (
		p   *partial
		err error
	)
	ext := extensionOf(in)
	switch {
	case r.kind == kindDebt && isTabularExt(ext):
		p, err = r.tabular(ctx, ext)
	case ext == "pdf":
		p, err = r.document(ctx)
	case r.kind == kindDebt && isImageExt(ext):
		p, err = r.image(ctx, ext)
	case r.kind == kindSavings && ext == "txt":
		p, err = r.plainText()
	default:
		return nil, failure(ErrUnsupportedFileType, StageIdle, fmt.Errorf("extension %q", ext))
	}
	if err != nil {
		return nil, err
	}

	r.progress(StageAssembling, "assembling transactions", 80)
	if len(p.transactions) == 0 {
		return nil, failure(ErrNoTransactionsFound, StageAssembling,
			errors.New("the document may lack a recognizable statement structure"))
	}

	res := &Result{RunID: r.id, Transactions: p.transactions, Mapping: p.mapping}
	if bank, ok := columns.DetectBank(in.Filename, textSample(p.text)); ok {
		res.Bank = bank
	}
	res.AccountType = columns.DetectAccountType(descriptions(p.transactions))
	if r.kind == kindDebt {
		res.StartingBalance = assembler.StartingBalance(p.text)
		res.InterestRate = assembler.InterestRate(p.text)
	}

	r.progress(StageScoring, "scoring extraction quality", 90)
	if r.kind == kindDebt {
		res.Report = quality.ScoreDebt(p.report, len(p.transactions),
			res.StartingBalance != nil, res.InterestRate != nil)
	} else {
		res.Report = quality.ScoreSavings(p.report)
	}
	if !res.Report.Acceptable() {
		return nil, &Error{Kind: ErrLowQualityExtraction, Stage: StageScoring, Score: res.Report.Score}
	}

	r.progress(StageSucceeded, "extraction complete", 100)
	return res, nil
}

// tabular handles CSV and spreadsheet inputs: sniff, parse, suggest column
// roles, then assemble through the same grid pipeline the PDF path uses.
func (r *run) tabular(ctx context.Context, ext string) (*partial, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.progress(StageExtracting, "parsing "+ext+" table", 20)

	var (
		tbl *parser.Table
		err error
	)
	switch ext {
	case "xlsx":
		tbl, err = parser.ParseXLSX(r.input.Data)
	case "xls":
		tbl, err = parser.ParseXLS(r.input.Data)
	default:
		cfg, cfgErr := sniffer.DetectConfig(r.input.Data)
		if cfgErr != nil {
			return nil, failure(ErrDocumentUnreadable, StageExtracting, cfgErr)
		}
		tbl, err = parser.ParseCSV(r.input.Data, cfg)
	}
	if err != nil {
		return nil, failure(ErrDocumentUnreadable, StageExtracting, err)
	}

	r.progress(StageReconstructing, "detecting column roles", 50)
	sug := columns.Suggest(tbl.Headers, tbl.Rows)

	format := r.input.DateFormat
	if format == "" {
		if fm, ok := sug.Fields[columns.RoleDate]; ok {
			detected, found := normalizer.DetectDateFormat(tbl.Column(fm.Column))
			if !found {
				return nil, failure(ErrDateFormatUndetected, StageReconstructing,
					errors.New("no candidate layout matched the date column"))
			}
			format = detected
		}
	}
	dateOnly, transform := normalizer.StripTime(format)

	// Delimited files are already text and their preamble lines may carry
	// statement metadata; spreadsheet bytes are compressed archives, so
	// scan the parsed cells instead.
	text := string(r.input.Data)
	if ext == "xlsx" || ext == "xls" {
		text = tbl.Text()
	}

	grid := gridFromTable(tbl, sug, transform)
	txs := r.svc.asm.FromGrid(grid, dateOnly)
	return &partial{
		transactions: txs,
		mapping:      sug,
		report:       quality.Observe(grid, dateOnly, r.svc.asm),
		text:         text,
	}, nil
}

// document handles PDFs: native positioned text when present, the OCR
// sub-path when the document looks scanned, and the pattern fallback when
// positions exist but no table header does.
func (r *run) document(ctx context.Context) (*partial, error) {
	r.progress(StageExtracting, "extracting document text", 10)
	pages, err := r.svc.pdf.Extract(ctx, r.input.Data, func(page, total int) {
		r.progress(StageExtracting, fmt.Sprintf("reading page %d of %d", page, total),
			bandPercent(page, total, nativeBandLow, nativeBandHigh))
	})
	if err != nil {
		if errors.Is(err, pdftext.ErrUnreadable) {
			return nil, failure(ErrDocumentUnreadable, StageExtracting, err)
		}
		return nil, err
	}

	if pages.IsLikelyScanned() {
		return r.scanned(ctx)
	}

	r.progress(StageReconstructing, "reconstructing table structure", 60)
	text := pages.Text()
	grid, err := r.svc.recon.Reconstruct(pages.Items)
	if errors.Is(err, table.ErrNoTable) {
		r.logger.Info("no table structure found, using pattern fallback")
		txs := r.svc.asm.FromText(text, r.input.DateFormat)
		return &partial{transactions: txs, report: quality.ObserveTransactions(txs), text: text}, nil
	}
	if err != nil {
		return nil, err
	}

	format := r.input.DateFormat
	if format == "" {
		// Best effort: year-less day-month cells fail detection here but
		// still parse per row inside the assembler.
		format, _ = normalizer.DetectDateFormat(gridDates(grid))
	}
	txs := r.svc.asm.FromGrid(grid, format)
	return &partial{
		transactions: txs,
		report:       quality.Observe(grid, format, r.svc.asm),
		text:         text,
	}, nil
}

func (r *run) scanned(ctx context.Context) (*partial, error) {
	r.progress(StageExtracting, "scanned document detected, recognizing text", ocrBandLow)
	res, err := r.svc.ocr.ExtractPDF(ctx, r.input.Data, func(page, total int) {
		r.progress(StageExtracting, fmt.Sprintf("recognizing page %d of %d", page, total),
			bandPercent(page, total, ocrBandLow, ocrBandHigh))
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, failure(ErrOCRFailure, StageExtracting, err)
	}
	txs := r.svc.asm.FromText(res.Text, r.input.DateFormat)
	return &partial{transactions: txs, report: quality.ObserveTransactions(txs), text: res.Text}, nil
}

func (r *run) image(ctx context.Context, ext string) (*partial, error) {
	r.progress(StageExtracting, "recognizing image", 30)
	res, err := r.svc.ocr.ExtractImage(ctx, r.input.Data, ext)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, failure(ErrOCRFailure, StageExtracting, err)
	}
	txs := r.svc.asm.FromText(res.Text, r.input.DateFormat)
	return &partial{transactions: txs, report: quality.ObserveTransactions(txs), text: res.Text}, nil
}

func (r *run) plainText() (*partial, error) {
	r.progress(StageExtracting, "scanning text statement", 30)
	text := string(r.input.Data)
	txs := r.svc.asm.FromText(text, r.input.DateFormat)
	return &partial{transactions: txs, report: quality.ObserveTransactions(txs), text: text}, nil
}

func isTabularExt(ext string) bool {
	return ext == "csv" || ext == "tsv" || ext == "xlsx" || ext == "xls"
}

func isImageExt(ext string) bool {
	switch ext {
	case "jpg", "jpeg", "png", "heic", "heif":
		return true
	}
	return false
}

// gridFromTable projects a parsed table through a role suggestion into the
// grid form the assembler consumes. dateTransform reformats date cells when
// the detected layout carried a time component.
func gridFromTable(tbl *parser.Table, sug *columns.Suggestion, dateTransform func(string) string) *table.Grid {
	grid := &table.Grid{}
	for _, row := range tbl.Rows {
		fields := map[columns.Role]string{}
		for role, fm := range sug.Fields {
			if fm.Column >= len(row) {
				continue
			}
			value := row[fm.Column]
			if role == columns.RoleDate {
				value = dateTransform(value)
			}
			if value != "" {
				fields[role] = value
			}
		}
		if len(fields) > 0 {
			grid.Records = append(grid.Records, table.Record{Fields: fields})
		}
	}
	return grid
}

func gridDates(grid *table.Grid) []string {
	dates := make([]string, 0, len(grid.Records))
	for _, rec := range grid.Records {
		if v, ok := rec.Fields[columns.RoleDate]; ok {
			dates = append(dates, v)
		}
	}
	return dates
}

func descriptions(txs []assembler.Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, tx := range txs {
		out = append(out, tx.Description)
	}
	return out
}

// Progress bands for per-page callbacks. The OCR band sits above the
// native one so percent never regresses when a scanned document is first
// read natively and then re-processed through OCR.
const (
	nativeBandLow  = 10
	nativeBandHigh = 40
	ocrBandLow     = 45
	ocrBandHigh    = 75
)

// bandPercent spreads per-page progress across [lo,hi].
func bandPercent(page, total, lo, hi int) int {
	if total <= 0 {
		return lo
	}
	return lo + (hi-lo)*page/total
}

// textSample bounds the text handed to the bank detector.
func textSample(text string) string {
	const max = 2000
	if len(text) > max {
		return text[:max]
	}
	return text
}
