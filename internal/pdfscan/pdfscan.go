// Package pdfscan runs the QR scanner over images embedded in PDF
// documents, such as scanned invoices carrying payment codes.
package pdfscan

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/anvik-systems/payqr/internal/scanner"
)

// PageResult pairs scan results with their source page, 1-based.
type PageResult struct {
	Page    int               `json:"page"`
	Results []*scanner.Result `json:"results"`
}

// ScanPDF extracts every embedded image from the PDF and scans each one.
// pageRange accepts pdfcpu-style selections like "1-3" or "2,5"; empty means
// all pages. Pages without images are omitted from the output.
func ScanPDF(s *scanner.Scanner, path, pageRange string) ([]PageResult, error) {
	pages, err := parsePageRange(pageRange)
	if err != nil {
		return nil, fmt.Errorf("pdfscan: invalid page range %q: %w", pageRange, err)
	}

	tempDir, err := os.MkdirTemp("", "payqr-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("pdfscan: create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	var selected []string
	for _, p := range pages {
		selected = append(selected, strconv.Itoa(p))
	}
	if err := api.ExtractImagesFile(path, tempDir, selected, nil); err != nil {
		return nil, fmt.Errorf("pdfscan: extract images: %w", err)
	}

	byPage, err := scanExtractedImages(s, tempDir)
	if err != nil {
		return nil, err
	}

	results := make([]PageResult, 0, len(byPage))
	for page, pageResults := range byPage {
		results = append(results, PageResult{Page: page, Results: pageResults})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Page < results[j].Page })
	return results, nil
}

// scanExtractedImages walks the extraction directory, scanning files named
// in pdfcpu's page_<num>_... convention.
func scanExtractedImages(s *scanner.Scanner, dir string) (map[int][]*scanner.Result, error) {
	byPage := make(map[int][]*scanner.Result)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		page, err := pageFromFilename(info.Name())
		if err != nil {
			return nil // not an extracted page image
		}

		img, err := loadImage(path)
		if err != nil {
			slog.Debug("skipping unreadable extracted image", "file", info.Name(), "error", err)
			return nil
		}

		byPage[page] = append(byPage[page], s.ScanImage(img))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("pdfscan: collect extracted images: %w", err)
	}
	return byPage, nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	return img, err
}

// pageFromFilename parses pdfcpu extraction names like page_3_image_1.png.
func pageFromFilename(name string) (int, error) {
	if !strings.HasPrefix(name, "page_") {
		return 0, errors.New("not a page image")
	}
	parts := strings.Split(name, "_")
	if len(parts) < 2 {
		return 0, errors.New("unexpected filename format")
	}
	return strconv.Atoi(parts[1])
}

// parsePageRange parses "1-5" and "1,3,5" style selections.
func parsePageRange(pageRange string) ([]int, error) {
	if pageRange == "" {
		return nil, nil
	}

	var pages []int
	for _, part := range strings.Split(pageRange, ",") {
		part = strings.TrimSpace(part)
		if start, end, ok := strings.Cut(part, "-"); ok {
			from, err := strconv.Atoi(strings.TrimSpace(start))
			if err != nil {
				return nil, fmt.Errorf("invalid start page %q", start)
			}
			to, err := strconv.Atoi(strings.TrimSpace(end))
			if err != nil {
				return nil, fmt.Errorf("invalid end page %q", end)
			}
			if from > to {
				return nil, fmt.Errorf("start page %d after end page %d", from, to)
			}
			for p := from; p <= to; p++ {
				pages = append(pages, p)
			}
			continue
		}
		p, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid page number %q", part)
		}
		pages = append(pages, p)
	}
	return pages, nil
}
