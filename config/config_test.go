package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ByLCY/orderpdf/docerr"
	"github.com/ByLCY/orderpdf/fonts"
	"github.com/ByLCY/orderpdf/layout"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orderdoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsMatchReferenceGeometry(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	opts, err := cfg.TableOptions()
	require.NoError(t, err)

	want := layout.DefaultTableOptions()
	assert.InDelta(t, want.PageWidth, opts.PageWidth, 1e-9)
	assert.InDelta(t, want.PageHeight, opts.PageHeight, 1e-9)
	assert.Equal(t, want.Margin, opts.Margin)
	assert.InDelta(t, want.ThumbColumn, opts.ThumbColumn, 1e-9)
	assert.InDelta(t, want.QtyColumn, opts.QtyColumn, 1e-9)
	assert.InDelta(t, want.RemarkColumn, opts.RemarkColumn, 1e-9)
	assert.InDelta(t, want.MinRowHeight, opts.MinRowHeight, 1e-9)
	assert.InDelta(t, want.LineHeight, opts.LineHeight, 1e-9)
	assert.Equal(t, want.Fonts, opts.Fonts)
	assert.Equal(t, "Purchase Order", opts.Labels.Title)

	thumb, err := cfg.ThumbnailOptions()
	require.NoError(t, err)
	assert.Equal(t, 800, thumb.Width)
	assert.Equal(t, 600, thumb.Height)
	assert.Equal(t, imaging.JPEG, thumb.Format)
	assert.Equal(t, uint8(245), thumb.Background.R)

	assert.Equal(t, "orders", cfg.Storage.BaseDir)
	assert.Equal(t, "info", cfg.LoggerConfig().Level)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  format: json
page:
  spec: "A4 landscape margin 10mm"
  language: fr
  line_height: "1.5x"
  font_sizes:
    product: 12
thumbnail:
  format: png
  background: "#ffffff"
storage:
  base_dir: /tmp/orders
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	opts, err := cfg.TableOptions()
	require.NoError(t, err)
	assert.InDelta(t, 297.0, opts.PageWidth, 1e-9)
	assert.InDelta(t, 210.0, opts.PageHeight, 1e-9)
	assert.Equal(t, layout.Margin{Top: 10, Right: 10, Bottom: 10, Left: 10}, opts.Margin)
	assert.Equal(t, "Bon de commande", opts.Labels.Title)
	assert.InDelta(t, 12*layout.PtToMm*1.5, opts.LineHeight, 1e-9)

	thumb, err := cfg.ThumbnailOptions()
	require.NoError(t, err)
	assert.Equal(t, imaging.PNG, thumb.Format)
	assert.Equal(t, uint8(255), thumb.Background.G)

	assert.Equal(t, "debug", cfg.LoggerConfig().Level)
	assert.Equal(t, "json", cfg.LoggerConfig().Format)
	assert.Equal(t, "/tmp/orders", cfg.Storage.BaseDir)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "page:\n  language: en\n")
	t.Setenv("ORDERDOC_PAGE_LANGUAGE", "fr")
	t.Setenv("ORDERDOC_FONTS_CJK_OVERRIDE", "/opt/fonts/NotoSansCJK.ttc")
	t.Setenv("ORDERDOC_THUMBNAIL_QUALITY", "70")

	cfg, err := Load(path)
	require.NoError(t, err)

	opts, err := cfg.TableOptions()
	require.NoError(t, err)
	assert.Equal(t, "Bon de commande", opts.Labels.Title)
	assert.Equal(t, 70, cfg.Thumbnail.Quality)

	fo := cfg.FontOptions(zap.NewNop())
	assert.Equal(t, "/opt/fonts/NotoSansCJK.ttc", fo.Overrides[fonts.CJK])
	_, hasLatin := fo.Overrides[fonts.LatinRegular]
	assert.False(t, hasLatin)
}

func TestFontOptionsSystemScan(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Fonts.SystemDirs = []string{"/srv/fonts"}
	cfg.Fonts.ScanSystem = false
	fo := cfg.FontOptions(nil)
	assert.Equal(t, []string{"/srv/fonts"}, fo.SystemDirs)

	cfg.Fonts.ScanSystem = true
	fo = cfg.FontOptions(nil)
	assert.Equal(t, "/srv/fonts", fo.SystemDirs[0])
	assert.Len(t, fo.SystemDirs, 1+len(fonts.DefaultSystemDirs()))
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"page spec":  "page:\n  spec: \"A9 portrait\"\n",
		"columns":    "page:\n  columns: \"32mm 30mm\"\n",
		"language":   "page:\n  language: de\n",
		"too wide":   "page:\n  columns: \"100mm 60mm 30mm\"\n",
		"quality":    "thumbnail:\n  quality: 0\n",
		"format":     "thumbnail:\n  format: gif\n",
		"background": "thumbnail:\n  background: white\n",
		"title":      "page:\n  title: \"PO ${order_no}\"\n",
	}
	for name, body := range cases {
		_, err := Load(writeConfig(t, body))
		assert.True(t, errors.Is(err, docerr.ErrInvalidParameter), "%s: got %v", name, err)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
