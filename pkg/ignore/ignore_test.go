package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMatchesGlobs(t *testing.T) {
	l := New(nil)
	l.Compile("flag",
		"# comment",
		"",
		"*.log",
		"build/",
		"/rooted.txt",
		"docs/**/draft.md",
		"**/testdata",
		"!keep.log",
	)
	require.Equal(t, 6, l.Len())

	cases := map[string]bool{
		"app.log":                 true,
		"nested/dir/app.log":      true,
		"keep.log":                false,
		"build/":                  true,
		"build/out.bin":           true,
		"src/build/out.bin":       true,
		"build":                   false,
		"rooted.txt":              true,
		"sub/rooted.txt":          false,
		"docs/draft.md":           true,
		"docs/a/b/draft.md":       true,
		"other/docs/draft.md":     false,
		"pkg/testdata/fixture.go": true,
		"main.go":                 false,
		"a.logger":                false,
	}
	for path, want := range cases {
		assert.Equal(t, want, l.MatchesPath(path), path)
	}
}

func TestMatchReportsWinningPattern(t *testing.T) {
	l := New(nil)
	l.Compile("flag", "*.md", "!README.md")

	ok, p := l.Match("README.md")
	assert.False(t, ok)
	require.NotNil(t, p)
	assert.Equal(t, "!README.md", p.Line)
	assert.Equal(t, "flag", p.Source)
}

func TestLoadSkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("vendor/\n*.tmp\n"), 0o644))

	l, err := Load(nil, filepath.Join(dir, "missing"), path)
	require.NoError(t, err)
	assert.Equal(t, 2, l.Len())
	assert.True(t, l.MatchesPath("vendor/x.go"))
	assert.True(t, l.MatchesPath(`a\b.tmp`))
}

func TestNilListMatchesNothing(t *testing.T) {
	var l *List
	assert.False(t, l.MatchesPath("anything"))
	assert.Equal(t, 0, l.Len())
}
