package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anvik-systems/payqr/internal/imgproc"
	"github.com/anvik-systems/payqr/internal/testutil"
)

func TestProposeFindsRenderedQR(t *testing.T) {
	qr := testutil.RenderQR(t, "finder pattern target", 240)
	img := testutil.OnCanvas(qr, 400, 400, 255)

	d := New(DefaultConfig())
	regions, err := d.Propose(img)
	require.NoError(t, err)
	require.NotEmpty(t, regions)

	r := regions[0]
	assert.InDelta(t, patternConfidence, r.Confidence, 1e-6)
	assert.NotNil(t, r.Image)
	assert.GreaterOrEqual(t, r.Box.Dx(), DefaultConfig().MinSize)
	// The region must cover the code's location near the canvas center.
	center := img.Bounds().Dx() / 2
	assert.True(t, r.Box.Min.X < center && center < r.Box.Max.X)
	assert.True(t, r.Box.Min.Y < center && center < r.Box.Max.Y)
}

func TestProposeEmptyOnBlank(t *testing.T) {
	d := New(DefaultConfig())
	regions, err := d.Propose(imgproc.Uniform(200, 200, 255))
	require.NoError(t, err)
	assert.Empty(t, regions)
}

func TestCheckRatio(t *testing.T) {
	d := New(DefaultConfig())

	tests := []struct {
		name   string
		counts [5]int
		want   bool
	}{
		{"exact 1:1:3:1:1", [5]int{4, 4, 12, 4, 4}, true},
		{"within tolerance", [5]int{5, 4, 11, 4, 4}, true},
		{"too short", [5]int{1, 1, 2, 1, 1}, false},
		{"wrong center run", [5]int{4, 4, 4, 4, 4}, false},
		{"missing run", [5]int{4, 0, 12, 4, 4}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.checkRatio(tt.counts))
		})
	}
}

func TestMergePatterns(t *testing.T) {
	d := New(DefaultConfig())

	patterns := []finderPattern{
		{centerX: 100, centerY: 100, moduleSize: 4},
		{centerX: 102, centerY: 101, moduleSize: 4}, // within 2 modules of the first
		{centerX: 200, centerY: 200, moduleSize: 4},
	}

	merged := d.mergePatterns(patterns)
	require.Len(t, merged, 2)
	assert.InDelta(t, 101, merged[0].centerX, 1e-9)
	assert.InDelta(t, 100.5, merged[0].centerY, 1e-9)
	assert.InDelta(t, 200, merged[1].centerX, 1e-9)
}

func TestIsValidTriple(t *testing.T) {
	d := New(DefaultConfig())

	// Right isoceles layout: top-left, top-right, bottom-left.
	valid := [3]finderPattern{
		{centerX: 0, centerY: 0, moduleSize: 4},
		{centerX: 100, centerY: 0, moduleSize: 4},
		{centerX: 0, centerY: 100, moduleSize: 4},
	}
	assert.True(t, d.isValidTriple(valid))

	t.Run("module size disagreement", func(t *testing.T) {
		bad := valid
		bad[2].moduleSize = 12
		assert.False(t, d.isValidTriple(bad))
	})

	t.Run("collinear centers", func(t *testing.T) {
		bad := [3]finderPattern{
			{centerX: 0, centerY: 0, moduleSize: 4},
			{centerX: 50, centerY: 0, moduleSize: 4},
			{centerX: 100, centerY: 0, moduleSize: 4},
		}
		assert.False(t, d.isValidTriple(bad))
	})

	t.Run("unequal sides", func(t *testing.T) {
		bad := [3]finderPattern{
			{centerX: 0, centerY: 0, moduleSize: 4},
			{centerX: 100, centerY: 0, moduleSize: 4},
			{centerX: 0, centerY: 300, moduleSize: 4},
		}
		assert.False(t, d.isValidTriple(bad))
	})
}

func TestNewBackfillsDefaults(t *testing.T) {
	d := New(Config{})
	assert.Equal(t, DefaultConfig(), d.cfg)
}
