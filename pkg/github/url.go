// Package github reads repository trees, raw files and gists from GitHub.
package github

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultBranch is the Branch value of a Ref whose URL named no branch.
const DefaultBranch = ""

// FallbackBranch is used when the default branch cannot be looked up.
const FallbackBranch = "main"

// Ref identifies a location in a repository.
type Ref struct {
	Owner  string
	Repo   string
	Branch string
	Path   string
}

// String formats the ref as owner/repo@branch.
func (r Ref) String() string {
	b := r.Branch
	if b == DefaultBranch {
		b = "(default)"
	}
	return fmt.Sprintf("%s/%s@%s", r.Owner, r.Repo, b)
}

var (
	repoPatterns = []*regexp.Regexp{
		regexp.MustCompile(`github\.com/([^/]+)/([^/]+)/tree/([^/]+)(?:/(.+))?`),
		regexp.MustCompile(`github\.com/([^/]+)/([^/]+)/blob/([^/]+)(?:/(.+))?`),
		regexp.MustCompile(`github\.com/([^/]+)/([^/]+)/?$`),
	}
	gistPatterns = []*regexp.Regexp{
		regexp.MustCompile(`gist\.github\.com/[^/]+/([a-f0-9]+)`),
		regexp.MustCompile(`gist\.github\.com/([a-f0-9]+)`),
	}
)

// ParseRepoURL accepts repository root, tree and blob URLs. A URL without a
// branch yields Branch == DefaultBranch.
func ParseRepoURL(raw string) (Ref, error) {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	for _, re := range repoPatterns {
		m := re.FindStringSubmatch(u)
		if m == nil {
			continue
		}
		ref := Ref{Owner: m[1], Repo: strings.TrimSuffix(m[2], ".git")}
		if len(m) > 3 {
			ref.Branch = m[3]
		}
		if len(m) > 4 {
			ref.Path = m[4]
		}
		if ref.Owner == "" || ref.Repo == "" {
			break
		}
		return ref, nil
	}
	return Ref{}, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
}

// ParseGistURL extracts the gist id from gist.github.com/[user/]id.
func ParseGistURL(raw string) (string, error) {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	for _, re := range gistPatterns {
		if m := re.FindStringSubmatch(u); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("%w: %q is not a gist url", ErrInvalidURL, raw)
}
