package github

import (
	"context"
	"fmt"
	"sort"

	"docustream/pkg/queue"

	gh "github.com/google/go-github/v66/github"
	"go.uber.org/zap"
)

// FetchGist downloads every file of a gist, sorted by filename. Results
// are cached by id.
func (c *Client) FetchGist(ctx context.Context, id string) ([]queue.File, error) {
	if files, ok := c.gists.Get(id); ok {
		return append([]queue.File(nil), files...), nil
	}

	what := "gist " + id
	if err := c.allow(what); err != nil {
		return nil, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	g, _, err := c.api.Gists.Get(ctx, id)
	if err != nil {
		return nil, classify(err, what)
	}
	c.limiter.RecordCall()

	names := make([]string, 0, len(g.Files))
	for name := range g.Files {
		names = append(names, string(name))
	}
	sort.Strings(names)

	files := make([]queue.File, 0, len(names))
	for _, name := range names {
		gf := g.Files[gh.GistFilename(name)]
		files = append(files, queue.NewFile(name, []byte(gf.GetContent()), "gist:"+id))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyGist, id)
	}

	c.logger.Info("Fetched gist", zap.String("id", id), zap.Int("files", len(files)))
	c.gists.Add(id, files)
	return append([]queue.File(nil), files...), nil
}
