package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"docustream/pkg/queue"
	"docustream/pkg/version"

	"go.uber.org/zap"
)

// BatchOptions controls FetchMany.
type BatchOptions struct {
	// Prefix renames each file to "{Prefix}_{basename}".
	Prefix string
	// OnProgress is called after every attempt with the number of paths
	// attempted so far and the total.
	OnProgress func(done, total int)
}

// FetchRawFile downloads one file from the raw content host.
func (c *Client) FetchRawFile(ctx context.Context, ref Ref, filePath string) ([]byte, error) {
	branch := ref.Branch
	if branch == DefaultBranch {
		branch = c.FetchDefaultBranch(ctx, ref.Owner, ref.Repo)
	}

	segments := strings.Split(strings.Trim(filePath, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	target := strings.Join([]string{
		c.rawURL, url.PathEscape(ref.Owner), url.PathEscape(ref.Repo), url.PathEscape(branch),
		strings.Join(segments, "/"),
	}, "/")

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", filePath, err)
	}
	req.Header.Set("User-Agent", version.Get().UserAgent())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(err, filePath)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return nil, fmt.Errorf("%w: %s", ErrRateLimited, filePath)
		}
		return nil, statusError(resp.StatusCode, filePath, nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err, filePath)
	}
	return body, nil
}

// FetchMany downloads paths one at a time, in order. A failure is recorded
// and the batch continues. The returned files keep input order.
func (c *Client) FetchMany(ctx context.Context, ref Ref, paths []string, opts BatchOptions) ([]queue.File, []FetchError) {
	if ref.Branch == DefaultBranch {
		ref.Branch = c.FetchDefaultBranch(ctx, ref.Owner, ref.Repo)
	}
	source := fmt.Sprintf("github:%s/%s@%s", ref.Owner, ref.Repo, ref.Branch)

	var (
		files []queue.File
		errs  []FetchError
	)
	total := len(paths)
	for i, p := range paths {
		content, err := c.fetchCounted(ctx, ref, p)
		if opts.OnProgress != nil {
			opts.OnProgress(i+1, total)
		}
		if err != nil {
			c.logger.Warn("Failed to fetch file", zap.String("path", p), zap.Error(err))
			errs = append(errs, FetchError{Path: p, Err: err})
			continue
		}

		name := p
		if opts.Prefix != "" {
			name = opts.Prefix + "_" + path.Base(p)
		}
		files = append(files, queue.NewFile(name, content, source))
	}

	c.logger.Info("Batch fetch finished",
		zap.String("ref", source),
		zap.Int("fetched", len(files)),
		zap.Int("failed", len(errs)))
	return files, errs
}

func (c *Client) fetchCounted(ctx context.Context, ref Ref, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.allow(p); err != nil {
		return nil, err
	}
	content, err := c.FetchRawFile(ctx, ref, p)
	if err != nil {
		return nil, err
	}
	c.limiter.RecordCall()
	return content, nil
}

// FetchFileURL downloads the file a github.com blob URL points at. The
// returned file is named after its basename.
func (c *Client) FetchFileURL(ctx context.Context, rawURL string) (queue.File, error) {
	ref, err := ParseRepoURL(rawURL)
	if err != nil {
		return queue.File{}, err
	}
	if ref.Path == "" {
		return queue.File{}, fmt.Errorf("%w: %q does not name a file", ErrInvalidURL, rawURL)
	}
	content, err := c.fetchCounted(ctx, ref, ref.Path)
	if err != nil {
		return queue.File{}, err
	}
	return queue.NewFile(path.Base(ref.Path), content, "github:"+ref.String()), nil
}
