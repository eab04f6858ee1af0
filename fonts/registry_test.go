package fonts

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/ByLCY/orderpdf/docerr"
)

func writeFont(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestResolveFallsBackWhenNothingFound(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry(Options{
		Candidates: Candidates{
			LatinRegular: []string{filepath.Join(dir, "missing.ttf")},
			LatinBold:    []string{filepath.Join(dir, "missing-bold.ttf")},
			CJK:          []string{filepath.Join(dir, "missing-cjk.otf")},
		},
	})

	mapping := reg.Resolve()
	require.Len(t, mapping, 3)
	assert.Equal(t, embeddedRegularID, mapping[LatinRegular])
	assert.Equal(t, embeddedBoldID, mapping[LatinBold])
	assert.NotEmpty(t, mapping[CJK])
	assert.Equal(t, mapping[LatinRegular], mapping[CJK])
	assert.True(t, reg.Degraded())

	err := reg.DegradedError()
	require.Error(t, err)
	assert.True(t, errors.Is(err, docerr.ErrFontDegraded))
}

func TestOverrideIsProbedFirst(t *testing.T) {
	dir := t.TempDir()
	listed := writeFont(t, dir, "listed.ttf", goregular.TTF)
	override := writeFont(t, dir, "override.ttf", gobold.TTF)

	reg := NewRegistry(Options{
		Candidates: Candidates{LatinRegular: []string{listed}},
		Overrides:  map[Role]string{LatinRegular: override},
	})

	b := reg.Binding(LatinRegular)
	assert.Equal(t, override, b.Source)
	assert.Contains(t, b.ID, "latin-regular:")
}

func TestCorruptCandidateIsSkipped(t *testing.T) {
	dir := t.TempDir()
	broken := writeFont(t, dir, "broken.ttf", []byte("not a font"))
	good := writeFont(t, dir, "good.ttf", goregular.TTF)

	reg := NewRegistry(Options{
		Candidates: Candidates{LatinRegular: []string{broken, good}},
	})

	assert.Equal(t, good, reg.Binding(LatinRegular).Source)
}

func TestLatinFontIsRejectedForCJKRole(t *testing.T) {
	dir := t.TempDir()
	latin := writeFont(t, dir, "latin.ttf", goregular.TTF)

	reg := NewRegistry(Options{
		Candidates: Candidates{CJK: []string{latin}},
		SystemDirs: []string{dir},
	})

	assert.True(t, reg.Degraded())
	assert.NotEmpty(t, reg.Resolve()[CJK])
}

func TestResolveIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeFont(t, dir, "regular.ttf", goregular.TTF)
	reg := NewRegistry(Options{Candidates: Candidates{LatinRegular: []string{path}}})

	first := reg.Resolve()
	require.NoError(t, os.Remove(path))
	second := reg.Resolve()
	assert.Equal(t, first, second)
	assert.Equal(t, path, reg.Binding(LatinRegular).Source)
}

func TestConcurrentResolveSharesMapping(t *testing.T) {
	reg := NewRegistry(Options{})
	results := make([]map[Role]string, 8)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = reg.Resolve()
			_ = reg.RuneWidth('A', LatinRegular, 10)
		}(i)
	}
	wg.Wait()
	for _, m := range results[1:] {
		assert.Equal(t, results[0], m)
	}
}

func TestRuneWidthScalesWithSize(t *testing.T) {
	reg := NewRegistry(Options{})
	small := reg.RuneWidth('W', LatinRegular, 10)
	large := reg.RuneWidth('W', LatinRegular, 20)
	require.Greater(t, small, 0.0)
	assert.InEpsilon(t, small*2, large, 1e-3)
	assert.Greater(t, reg.RuneWidth('W', LatinBold, 10), 0.0)
	assert.Greater(t, reg.Ascent(LatinRegular, 10), 0.0)
}

func TestRoleString(t *testing.T) {
	assert.Equal(t, "cjk", CJK.String())
	assert.Equal(t, "latin-bold", LatinBold.String())
}
