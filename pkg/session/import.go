package session

import (
	"context"
	"fmt"
	"strings"

	"docustream/pkg/filename"
	"docustream/pkg/github"
	"docustream/pkg/merge"
	"docustream/pkg/queue"
	"docustream/pkg/tree"

	"go.uber.org/zap"
)

// LoadTree fetches the tree a repository URL points at and remembers it
// for later imports. When the URL names a sub-path, only entries below it
// are returned. The returned entries have filters applied.
func (s *Session) LoadTree(ctx context.Context, repoURL string, filters tree.Filters) ([]tree.Entry, error) {
	ref, err := github.ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}
	t, err := s.GitHub.FetchTree(ctx, ref.Owner, ref.Repo, ref.Branch)
	if err != nil {
		return nil, err
	}
	ref.Branch = t.Branch
	s.ref, s.tree = ref, t

	if t.Warning != "" {
		s.logger.Warn("Tree warning", zap.String("ref", ref.String()), zap.String("warning", t.Warning))
	}
	return tree.ApplyFilters(underPath(t.Entries, ref.Path), filters), nil
}

// Tree returns the last loaded tree and its ref, or nil.
func (s *Session) Tree() (*github.Tree, github.Ref) {
	return s.tree, s.ref
}

func underPath(entries []tree.Entry, p string) []tree.Entry {
	p = strings.Trim(p, "/")
	if p == "" {
		return entries
	}
	var out []tree.Entry
	for _, e := range entries {
		if e.Path == p || strings.HasPrefix(e.Path, p+"/") {
			out = append(out, e)
		}
	}
	return out
}

// ImportRepoFiles fetches paths from the loaded repository into the queue.
// It returns how many files were queued and every per-file failure, both
// fetch and queue rejections.
func (s *Session) ImportRepoFiles(ctx context.Context, paths []string, opts github.BatchOptions) (int, []error) {
	if s.tree == nil {
		return 0, []error{ErrNoTree}
	}
	files, fetchErrs := s.GitHub.FetchMany(ctx, s.ref, paths, opts)

	var errs []error
	for i := range fetchErrs {
		errs = append(errs, &fetchErrs[i])
	}
	added, addErrs := s.Queue.AddAll(files)
	return added, append(errs, addErrs...)
}

// ImportFileURL fetches one github.com blob URL into the queue.
func (s *Session) ImportFileURL(ctx context.Context, fileURL string) (queue.File, error) {
	f, err := s.GitHub.FetchFileURL(ctx, fileURL)
	if err != nil {
		return queue.File{}, err
	}
	if err := s.Queue.Add(f); err != nil {
		return queue.File{}, err
	}
	return f, nil
}

// ImportGist queues every file of a gist.
func (s *Session) ImportGist(ctx context.Context, gistURL string) (int, []error) {
	id, err := github.ParseGistURL(gistURL)
	if err != nil {
		return 0, []error{err}
	}
	files, err := s.GitHub.FetchGist(ctx, id)
	if err != nil {
		return 0, []error{err}
	}
	return s.Queue.AddAll(files)
}

// ImportPaste queues pasted text. An invalid name is replaced with its
// sanitized form and the substitution is logged.
func (s *Session) ImportPaste(name, content string) (queue.File, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultPasteName
	}
	if err := filename.Validate(name); err != nil {
		clean := filename.Sanitize(name)
		s.logger.Warn("Invalid paste filename; sanitized",
			zap.String("name", name),
			zap.String("sanitized", clean),
			zap.Error(err))
		name = clean
	}
	if content == "" {
		return queue.File{}, fmt.Errorf("paste %s: empty content", name)
	}

	f := queue.NewFile(name, []byte(content), "paste")
	if err := s.Queue.Add(f); err != nil {
		return queue.File{}, err
	}
	return f, nil
}

// ImportPaths queues local files and directories. A zero size limit in
// opts uses the configured one.
func (s *Session) ImportPaths(paths []string, opts queue.LoadOptions) error {
	if opts.MaxFileBytes == 0 {
		opts.MaxFileBytes = s.Config.MaxFileSizeBytes()
	}
	if s.Settings.Output == merge.KindText {
		opts.WarnBinary = true
	}
	return queue.LoadPaths(s.Queue, paths, opts, s.logger.Named("queue"))
}
