package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anvik-systems/payqr/internal/pdfscan"
)

var pdfCmd = &cobra.Command{
	Use:   "pdf <file.pdf>",
	Short: "Scan images embedded in a PDF for QR codes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := buildScanner()
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		pages, _ := cmd.Flags().GetString("pages")
		results, err := pdfscan.ScanPDF(s, args[0], pages)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		if format == "" {
			format = globalConfig.Output.Format
		}
		out := cmd.OutOrStdout()
		if format == "json" {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}

		for _, page := range results {
			for _, result := range page.Results {
				if err := renderResult(out, fmt.Sprintf("%s (page %d)", args[0], page.Page), result, format); err != nil {
					return err
				}
			}
		}
		return nil
	},
}

func init() {
	pdfCmd.Flags().String("pages", "", `page selection, e.g. "1-3" or "2,5" (default all)`)
	pdfCmd.Flags().StringP("format", "f", "", "output format: text or json (default from config)")
	rootCmd.AddCommand(pdfCmd)
}
