package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestMain(m *testing.M) {
	keyring.MockInit()
	os.Exit(m.Run())
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(RootCmd)
	var stdout, stderr bytes.Buffer
	RootCmd.SetOut(&stdout)
	RootCmd.SetErr(&stderr)
	RootCmd.SetArgs(args)
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetArgs(nil)
	})
	err := RootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// resetFlags restores flag values left behind by an earlier Execute.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func TestMergeLocalFilesToStdout(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.py"), []byte("print(1)"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.sh"), []byte("echo hi # say hi"), 0o644))

	out, errOut, err := execute(t, "merge", "--strip-comments", "-o", "-", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "# File: a.py")
	assert.Contains(t, out, "```python\nprint(1)\n```")
	assert.Contains(t, out, "```bash\necho hi\n```")
	assert.Less(t, bytes.Index([]byte(out), []byte("a.py")), bytes.Index([]byte(out), []byte("b.sh")))
	assert.Contains(t, errOut, "tokens")
}

func TestMergeRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))

	_, _, err := execute(t, "merge", "--format", "rtf", "-o", "-", dir)
	require.Error(t, err)
}

func TestVersionShort(t *testing.T) {
	out, _, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestParseTimeout(t *testing.T) {
	d, err := parseTimeout("5s")
	require.NoError(t, err)
	assert.Equal(t, "5s", d.String())

	_, err = parseTimeout("-1s")
	assert.Error(t, err)
	_, err = parseTimeout("soon")
	assert.Error(t, err)
}
