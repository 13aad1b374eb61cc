package cmd

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docustream/pkg/credentials"
	"docustream/pkg/github"
	"docustream/pkg/session"
	"docustream/pkg/tokens"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGitHub points the sessions built by commands at a local server
// serving the API below /api/ and raw content below /raw/.
func fakeGitHub(t *testing.T) *http.ServeMux {
	t.Helper()
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_TOKEN", "")
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	orig := sessionOptions
	sessionOptions = []session.Option{session.WithGitHubOptions(
		github.WithBaseURLs(srv.URL+"/api/", srv.URL+"/raw"),
		github.WithoutCache(),
	)}
	t.Cleanup(func() { sessionOptions = orig })
	return mux
}

func serveRepo(mux *http.ServeMux) {
	mux.HandleFunc("/api/repos/octo/hello", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"hello","default_branch":"trunk"}`)
	})
	mux.HandleFunc("/api/repos/octo/hello/git/trees/trunk", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tree":[
			{"path":"src","type":"tree"},
			{"path":"src/main.py","type":"blob","size":2048},
			{"path":"src/util.js","type":"blob","size":5}]}`)
	})
	mux.HandleFunc("/raw/octo/hello/trunk/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "body of "+strings.TrimPrefix(r.URL.Path, "/raw/octo/hello/trunk/"))
	})
}

func TestRepoTreeFiltersAndShowsSizes(t *testing.T) {
	serveRepo(fakeGitHub(t))

	out, _, err := execute(t, "repo", "tree", "https://github.com/octo/hello", "--exclude-ext", "js", "--sizes")
	require.NoError(t, err)

	assert.Contains(t, out, "octo/hello@trunk")
	assert.Contains(t, out, "main.py (2.0 KB)")
	assert.NotContains(t, out, "util.js")
	assert.Contains(t, out, "1 files, 1 directories (of 3 entries)")
}

func TestRepoFetchMergesNamedPaths(t *testing.T) {
	serveRepo(fakeGitHub(t))

	out, errOut, err := execute(t, "repo", "fetch", "https://github.com/octo/hello/tree/trunk", "src/main.py", "-o", "-")
	require.NoError(t, err)

	assert.Contains(t, out, "body of src/main.py")
	assert.NotContains(t, out, "util.js")
	assert.Contains(t, errOut, "tokens")
}

func TestRepoFetchAllWritesDirectory(t *testing.T) {
	serveRepo(fakeGitHub(t))
	dir := t.TempDir()

	_, errOut, err := execute(t, "repo", "fetch", "https://github.com/octo/hello", "--all", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, errOut, "Wrote 2 files")

	b, err := os.ReadFile(filepath.Join(dir, "src", "util.js"))
	require.NoError(t, err)
	assert.Equal(t, "body of src/util.js", string(b))
}

func TestRepoFetchNeedsPaths(t *testing.T) {
	fakeGitHub(t)
	_, _, err := execute(t, "repo", "fetch", "https://github.com/octo/hello")
	assert.ErrorContains(t, err, "--all")
}

func TestGistMergesFiles(t *testing.T) {
	mux := fakeGitHub(t)
	mux.HandleFunc("/api/gists/beef", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"beef","files":{"run.sh":{"filename":"run.sh","content":"echo hi # greet"}}}`)
	})

	out, _, err := execute(t, "gist", "https://gist.github.com/octo/beef", "--preset", "clean", "-o", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "```bash\necho hi\n```")
}

func TestTokensReportsUsage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello there, general kenobi"), 0o644))

	out, _, err := execute(t, "tokens", path)
	require.NoError(t, err)
	assert.Contains(t, out, "tokens")
	assert.Contains(t, out, "for "+tokens.DefaultModel)

	out, _, err = execute(t, "tokens", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, tokens.DefaultModel)
}

func TestAuthStatus(t *testing.T) {
	fakeGitHub(t)

	out, _, err := execute(t, "auth", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Keyring: no token")
	assert.Contains(t, out, "Requests: anonymous")

	require.NoError(t, credentials.StoreToken("ghp_stored"))
	t.Cleanup(func() { _ = credentials.DeleteToken() })

	out, _, err = execute(t, "auth", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Keyring: token stored")
	assert.Contains(t, out, "Requests: authenticated")
}
