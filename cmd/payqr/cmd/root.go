// Package cmd implements the payqr command-line interface.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anvik-systems/payqr/internal/config"
	"github.com/anvik-systems/payqr/internal/scanner"
	"github.com/anvik-systems/payqr/internal/version"
)

var (
	cfgFile      string
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "payqr",
	Short: "Detect, decode and parse payment QR codes in images",
	Long: `payqr locates QR codes in photographic images, decodes them through a
multi-strategy cascade and parses payment payloads (EMV QR, SBP links,
ST.00012).

Examples:
  payqr scan photo.jpg
  payqr scan receipt.png --format json
  payqr pdf invoice.pdf
  payqr serve --port 8080`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME/.config/payqr, /etc/payqr)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false,
		"verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("model", "", "path to an ONNX detection model")
	rootCmd.PersistentFlags().Bool("version", false, "print version information and exit")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("pipeline.ml.model_path", rootCmd.PersistentFlags().Lookup("model"))

	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		cfg, err := config.NewLoader().LoadFile(cfgFile)
		if err != nil {
			return err
		}
		globalConfig = cfg
		setupLogging(cfg)
		return nil
	}
}

func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// buildScanner assembles the pipeline from the resolved configuration.
func buildScanner() (*scanner.Scanner, error) {
	cfg := globalConfig
	b := scanner.NewBuilder().
		WithPreprocessing(cfg.Pipeline.Preprocess).
		WithDetector(cfg.Pipeline.Detector).
		WithMaxWorkers(cfg.Pipeline.MaxWorkers).
		WithRectification(cfg.Pipeline.Rectify)
	if cfg.Pipeline.ML.ModelPath != "" {
		b = b.WithMLConfig(cfg.Pipeline.ML).WithModelPath(cfg.Pipeline.ML.ModelPath)
	}
	return b.Build()
}
