package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/anvik-systems/payqr/internal/scanner"
)

var scanCmd = &cobra.Command{
	Use:   "scan <image>...",
	Short: "Scan image files for QR codes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := buildScanner()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		format, _ := cmd.Flags().GetString("format")
		out := cmd.OutOrStdout()

		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			result, err := s.ScanBytes(data)
			if err != nil {
				return fmt.Errorf("scanning %s: %w", path, err)
			}
			if err := renderResult(out, path, result, format); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().StringP("format", "f", "", "output format: text or json (default from config)")
	rootCmd.AddCommand(scanCmd)
}

func renderResult(w io.Writer, path string, result *scanner.Result, format string) error {
	if format == "" {
		format = globalConfig.Output.Format
	}
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"file": path, "result": result})
	}

	fmt.Fprintf(w, "%s: %d QR code(s) in %dms\n", path, len(result.QRCodes), result.ProcessingTimeMS)
	for i, code := range result.QRCodes {
		fmt.Fprintf(w, "  [%d] %s (%s, confidence %.2f)\n",
			i, code.Content, code.ContentType, code.Confidence)
		if code.Payment != nil {
			p := code.Payment
			fmt.Fprintf(w, "      payment: format=%s", p.Format)
			if p.PayeeName != "" {
				fmt.Fprintf(w, " payee=%q", p.PayeeName)
			}
			if p.Amount != nil {
				fmt.Fprintf(w, " amount=%.2f %s", *p.Amount, p.Currency)
			}
			fmt.Fprintln(w)
		}
	}
	if result.BestPayment != nil {
		fmt.Fprintf(w, "  best payment: [%d]\n", *result.BestPayment)
	}
	return nil
}
