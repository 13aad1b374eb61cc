package github

import (
	"context"
	"fmt"

	"docustream/pkg/tree"

	"go.uber.org/zap"
)

// TruncatedWarning is set on a Tree when GitHub cut the listing short.
const TruncatedWarning = "tree was truncated due to size; some files may be missing"

// Tree is a recursive listing of one branch.
type Tree struct {
	Owner     string
	Repo      string
	Branch    string
	Entries   []tree.Entry
	Truncated bool
	Warning   string
}

// FetchDefaultBranch returns the repository's default branch, or
// FallbackBranch when it cannot be determined. Results are cached.
func (c *Client) FetchDefaultBranch(ctx context.Context, owner, repo string) string {
	key := repoKey{owner, repo}
	if b, ok := c.branches.Get(key); ok {
		return b
	}

	if err := c.allow("default branch"); err != nil {
		return FallbackBranch
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	r, _, err := c.api.Repositories.Get(ctx, owner, repo)
	if err != nil {
		c.logger.Debug("Default branch lookup failed; using fallback",
			zap.String("repo", owner+"/"+repo),
			zap.String("fallback", FallbackBranch),
			zap.Error(err))
		return FallbackBranch
	}
	c.limiter.RecordCall()

	branch := r.GetDefaultBranch()
	if branch == "" {
		branch = FallbackBranch
	}
	c.branches.Add(key, branch)
	return branch
}

// FetchTree lists every blob and tree of owner/repo at branch. An empty
// branch resolves the default branch first.
func (c *Client) FetchTree(ctx context.Context, owner, repo, branch string) (*Tree, error) {
	if branch == DefaultBranch {
		branch = c.FetchDefaultBranch(ctx, owner, repo)
	}
	what := fmt.Sprintf("%s/%s@%s", owner, repo, branch)

	key := treeKey{owner, repo, branch}
	if t, ok := c.trees.Get(key); ok {
		c.logger.Debug("Tree cache hit", zap.String("ref", what))
		return t, nil
	}

	if err := c.allow(what); err != nil {
		return nil, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	raw, _, err := c.api.Git.GetTree(ctx, owner, repo, branch, true)
	if err != nil {
		return nil, classify(err, what)
	}
	c.limiter.RecordCall()

	t := &Tree{Owner: owner, Repo: repo, Branch: branch}
	for _, e := range raw.Entries {
		var kind tree.Kind
		switch e.GetType() {
		case "blob":
			kind = tree.KindFile
		case "tree":
			kind = tree.KindDir
		default:
			continue
		}
		t.Entries = append(t.Entries, tree.Entry{
			Path: e.GetPath(),
			Kind: kind,
			Size: int64(e.GetSize()),
			SHA:  e.GetSHA(),
		})
	}
	if raw.GetTruncated() {
		t.Truncated = true
		t.Warning = TruncatedWarning
		c.logger.Warn("Repository tree truncated", zap.String("ref", what), zap.Int("entries", len(t.Entries)))
	}

	c.logger.Info("Fetched repository tree", zap.String("ref", what), zap.Int("entries", len(t.Entries)))
	c.trees.Add(key, t)
	return t, nil
}
