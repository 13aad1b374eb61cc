package queue

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"docustream/pkg/ignore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func names(files []File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Name)
	}
	return out
}

func TestHashIsStable(t *testing.T) {
	assert.Equal(t, Hash([]byte("hello")), Hash([]byte("hello")))
	assert.NotEqual(t, Hash([]byte("hello")), Hash([]byte("hello ")))
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Hash(nil))
}

func TestAddRejectsDuplicatesAndLogsOriginal(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	q := New(zap.New(core))

	require.NoError(t, q.Add(NewFile("a.txt", []byte("one"), "paste")))

	err := q.Add(NewFile("a.txt", []byte("two"), "paste"))
	assert.ErrorIs(t, err, ErrDuplicateName)

	err = q.Add(NewFile("b.txt", []byte("one"), "paste"))
	var dup *DuplicateContentError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "a.txt", dup.Original)

	assert.Equal(t, 1, q.Len())
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "a.txt", logs.All()[1].ContextMap()["original"])
}

func TestRemoveFreesHash(t *testing.T) {
	q := New(nil)
	require.NoError(t, q.Add(NewFile("a.txt", []byte("x"), "")))
	require.NoError(t, q.Remove("a.txt"))
	assert.ErrorIs(t, q.Remove("a.txt"), ErrNotFound)
	assert.NoError(t, q.Add(NewFile("b.txt", []byte("x"), "")))
}

func TestMoveAndReorder(t *testing.T) {
	q := New(nil)
	for _, n := range []string{"a", "b", "c", "d"} {
		require.NoError(t, q.Add(NewFile(n, []byte(n), "")))
	}

	require.NoError(t, q.Move(0, 2))
	assert.Equal(t, []string{"b", "c", "a", "d"}, names(q.Files()))

	require.NoError(t, q.Move(3, 0))
	assert.Equal(t, []string{"d", "b", "c", "a"}, names(q.Files()))
	assert.Error(t, q.Move(0, 9))

	require.NoError(t, q.Reorder([]string{"a", "b", "c", "d"}))
	assert.Equal(t, []string{"a", "b", "c", "d"}, names(q.Files()))
	assert.Error(t, q.Reorder([]string{"a", "a", "b", "c"}))
	assert.Error(t, q.Reorder([]string{"a"}))
}

func TestSearchClearAndSize(t *testing.T) {
	q := New(nil)
	added, errs := q.AddAll([]File{
		NewFile("Main.go", []byte("package main"), ""),
		NewFile("README.md", []byte("# hi"), ""),
		NewFile("main_test.go", []byte("package main"), ""),
	})
	assert.Equal(t, 2, added)
	assert.Len(t, errs, 1)

	assert.Equal(t, []string{"Main.go"}, names(q.Search("main")))
	assert.Equal(t, int64(16), q.TotalSize())

	q.Clear()
	assert.Equal(t, 0, q.Len())
	assert.NoError(t, q.Add(NewFile("Main.go", []byte("package main"), "")))
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatSize(512))
	assert.Equal(t, "1.5 KB", FormatSize(1536))
	assert.Equal(t, "2.0 MB", FormatSize(2*1024*1024))
	assert.Equal(t, "1.0 GB", FormatSize(1<<30))
}

func TestLooksBinary(t *testing.T) {
	assert.False(t, LooksBinary(NewFile("a.txt", []byte("hello\nworld\t"), "")))
	assert.False(t, LooksBinary(NewFile("u.txt", []byte("héllo wörld"), "")))
	assert.False(t, LooksBinary(NewFile("empty", nil, "")))
	assert.True(t, LooksBinary(NewFile("a.dat", []byte{'a', 0, 'b'}, "")))
	assert.True(t, LooksBinary(NewFile("doc.pdf", []byte("%PDF-1.4"), "")))
	assert.True(t, LooksBinary(NewFile("ctl", []byte{1, 2, 3, 4, 'a'}, "")))
	assert.True(t, HasBinaryExtension("x.DOCX"))
	assert.False(t, HasBinaryExtension("Makefile"))
}

func TestLoadPaths(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, content string) {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	write("src/a.py", "print('a')")
	write("src/b.py", "print('b')")
	write("node_modules/x.js", "x")
	write("big.txt", "0123456789ABCDEF")
	single := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(single, []byte("# notes"), 0o644))

	ig := ignore.New(nil)
	ig.Compile("test", "node_modules/")

	q := New(nil)
	err := LoadPaths(q, []string{dir, single, filepath.Join(dir, "missing")}, LoadOptions{Ignore: ig, MaxFileBytes: 12}, nil)
	assert.Error(t, err, "missing path is reported")
	assert.Equal(t, []string{"src/a.py", "src/b.py", "notes.md"}, names(q.Files()))
}
