package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/finatlas/statement-pipeline/internal/domain/extraction/columns"
	"github.com/finatlas/statement-pipeline/internal/domain/extraction/normalizer"
	"github.com/finatlas/statement-pipeline/internal/domain/extraction/parser"
	"github.com/finatlas/statement-pipeline/internal/domain/extraction/sniffer"
)

// mappingOrder fixes the display order of detected column roles.
var mappingOrder = []columns.Role{
	columns.RoleDate,
	columns.RoleProcessDate,
	columns.RoleDescription,
	columns.RoleAmount,
	columns.RoleDebit,
	columns.RoleCredit,
	columns.RoleBalance,
	columns.RoleReference,
}

var detectCmd = &cobra.Command{
	Use:   "detect <file.csv>",
	Short: "Detect the column layout of a delimited export",
	Long: `Detect sniffs a CSV export's delimiter and header row, scores each
header against the known column roles, and prints the suggested mapping
with per-field confidence. Nothing is extracted; use it to preview how
analyze will read the file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		fileCfg, err := sniffer.DetectConfig(data)
		if err != nil {
			return err
		}
		tbl, err := parser.ParseCSV(data, fileCfg)
		if err != nil {
			return err
		}
		sug := columns.Suggest(tbl.Headers, tbl.Rows)

		fmt.Printf("Delimiter:   %q\n", fileCfg.Delimiter)
		fmt.Printf("Header row:  %d\n", fileCfg.SkipLines)
		fmt.Printf("Fingerprint: %s\n", fileCfg.Fingerprint)

		if fm, ok := sug.Fields[columns.RoleDate]; ok {
			if layout, found := normalizer.DetectDateFormat(tbl.Column(fm.Column)); found {
				fmt.Printf("Date format: %s\n", layout)
			}
		}

		fmt.Println("\nSuggested mapping:")
		for _, role := range mappingOrder {
			if fm, ok := sug.Fields[role]; ok {
				fmt.Printf("  %-12s -> %-20s (confidence %.2f)\n", role, fm.Header, fm.Confidence)
			}
		}
		for _, missing := range sug.Missing {
			fmt.Printf("  %-12s missing\n", missing)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the stmt version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

// signalContext builds the run context: an overall timeout plus SIGINT
// cancellation so a long OCR pass can be aborted cleanly.
func signalContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	return ctx, func() {
		stop()
		cancel()
	}
}

func init() {
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(versionCmd)
}
