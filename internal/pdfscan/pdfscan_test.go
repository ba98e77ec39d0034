package pdfscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageRange(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []int
		wantErr bool
	}{
		{"empty means all", "", nil, false},
		{"single page", "3", []int{3}, false},
		{"list", "1,3,5", []int{1, 3, 5}, false},
		{"range", "2-5", []int{2, 3, 4, 5}, false},
		{"mixed", "1,3-4", []int{1, 3, 4}, false},
		{"reversed range", "5-2", nil, true},
		{"garbage", "abc", nil, true},
		{"bad range bound", "1-x", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePageRange(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPageFromFilename(t *testing.T) {
	page, err := pageFromFilename("page_3_image_1.png")
	require.NoError(t, err)
	assert.Equal(t, 3, page)

	_, err = pageFromFilename("thumbnail.png")
	assert.Error(t, err)

	_, err = pageFromFilename("page_")
	assert.Error(t, err)
}

func TestScanPDFMissingFile(t *testing.T) {
	_, err := ScanPDF(nil, "does-not-exist.pdf", "")
	assert.Error(t, err)
}
