package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/finatlas/statement-pipeline/internal/domain/extraction/ocr"
	"github.com/finatlas/statement-pipeline/internal/domain/extraction/service"
	"github.com/finatlas/statement-pipeline/pkg/money"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Run the extraction pipeline over one statement document",
	Long: `Analyze reads a statement document, extracts its transactions, and
prints them with the detected bank, column mapping confidence, and quality
report. Debt statements (credit cards, loans) and savings statements use
different scoring checklists; pick with --kind.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		dateFormat, _ := cmd.Flags().GetString("date-format")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		logger := newLogger()
		svc := service.New(logger, ocr.Config{
			Pdftoppm:     cfg.OCR.PdftoppmPath,
			Tesseract:    cfg.OCR.TesseractPath,
			HeicTool:     cfg.OCR.HeicToolPath,
			Language:     cfg.OCR.Language,
			DPI:          cfg.OCR.DPI,
			MaxScanPages: cfg.OCR.MaxScanPages,
			CallTimeout:  cfg.OCR.CallTimeout,
		}, nil).WithMaxFileBytes(int(cfg.Limits.MaxFileBytes))

		ctx, cancel := signalContext(timeout)
		defer cancel()

		in := service.Input{
			Filename:   filepath.Base(args[0]),
			Data:       data,
			DateFormat: dateFormat,
		}
		progress := func(p service.Progress) {
			fmt.Fprintf(os.Stderr, "[%3d%%] %s\n", p.Percent, p.Message)
		}

		var res *service.Result
		if kind == "savings" {
			res, err = svc.AnalyzeSavingsDocument(ctx, in, progress)
		} else {
			res, err = svc.AnalyzeDebtDocument(ctx, in, progress)
		}
		if err != nil {
			return err
		}

		printResult(res)
		return nil
	},
}

func printResult(res *service.Result) {
	if res.Bank != "" {
		fmt.Printf("Bank:          %s\n", res.Bank)
	}
	fmt.Printf("Account type:  %s\n", res.AccountType)
	if res.StartingBalance != nil {
		fmt.Printf("Start balance: %s\n", money.NewFromDecimal(*res.StartingBalance, money.GBP).Display())
	}
	if res.InterestRate != nil {
		fmt.Printf("Interest rate: %s%%\n", res.InterestRate.String())
	}
	fmt.Printf("Quality score: %d/100 (%d rows, %d valid dates)\n\n",
		res.Report.Score, res.Report.RowsFound, res.Report.ValidDates)

	total := money.Zero(money.GBP)
	for _, tx := range res.Transactions {
		amount := money.NewFromDecimal(tx.Amount, money.GBP)
		balance := ""
		if tx.Balance != nil {
			balance = money.NewFromDecimal(*tx.Balance, money.GBP).Display()
		}
		fmt.Printf("%s  %-40s %12s %12s\n",
			tx.Date.Format("2006-01-02"), tx.Description, amount.Display(), balance)
		if sum, err := total.Add(amount); err == nil {
			total = sum
		}
	}
	fmt.Printf("\n%d transactions, net %s\n", len(res.Transactions), total.Display())

	if res.Mapping != nil {
		fmt.Println("\nColumn mapping:")
		for _, role := range mappingOrder {
			if fm, ok := res.Mapping.Fields[role]; ok {
				fmt.Printf("  %-12s -> %-20s (confidence %.2f)\n", role, fm.Header, fm.Confidence)
			}
		}
		for _, missing := range res.Mapping.Missing {
			fmt.Printf("  %-12s missing\n", missing)
		}
	}
}

func init() {
	analyzeCmd.Flags().String("kind", "debt", "statement kind: debt or savings")
	analyzeCmd.Flags().String("date-format", "", "override date format detection (Go layout, e.g. 02/01/2006)")
	analyzeCmd.Flags().Duration("timeout", 5*time.Minute, "overall run timeout")

	rootCmd.AddCommand(analyzeCmd)
}
