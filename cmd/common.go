package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"docustream/pkg/ignore"
	"docustream/pkg/merge"
	"docustream/pkg/session"
	"docustream/pkg/tree"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func parseTimeout(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid --timeout %q: %w", raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid --timeout %q: must be positive", raw)
	}
	return d, nil
}

// sessionOptions are appended to every session the commands build.
var sessionOptions []session.Option

func newSession() (*session.Session, error) {
	s, err := session.New(cfg, logger, sessionOptions...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Session started", zap.String("session", s.ID))
	return s, nil
}

// loadIgnore combines the project ignore file, the configured global one
// and any --ignore patterns.
func loadIgnore(patterns []string) (*ignore.List, error) {
	list, err := ignore.Load(logger.Named("ignore"), ignore.FileName, cfg.GlobalIgnoreFile)
	if err != nil {
		return nil, err
	}
	if len(patterns) > 0 {
		list.Compile("flag", patterns...)
	}
	return list, nil
}

// filterFlags are the tree selection flags shared by repo subcommands.
type filterFlags struct {
	preset       string
	include      string
	exclude      string
	excludeDirs  []string
	excludeMatch []string
	ignore       []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.preset, "filter", "", fmt.Sprintf("Filter preset (%s)", strings.Join(tree.PresetNames(), ", ")))
	fl.StringVar(&f.include, "include-ext", "", "Only keep files with these comma-separated extensions")
	fl.StringVar(&f.exclude, "exclude-ext", "", "Drop files with these comma-separated extensions")
	fl.StringSliceVar(&f.excludeDirs, "exclude-dir", nil, "Drop entries under directories with this name")
	fl.StringSliceVar(&f.excludeMatch, "exclude-match", nil, "Drop entries whose path contains this text")
	fl.StringSliceVar(&f.ignore, "ignore", nil, "Gitignore-style pattern to drop")
}

func (f *filterFlags) build() (tree.Filters, error) {
	base := tree.Filters{}
	if f.preset != "" {
		p, err := tree.PresetFilters(f.preset)
		if err != nil {
			return tree.Filters{}, err
		}
		base = p
	}
	list, err := loadIgnore(f.ignore)
	if err != nil {
		return tree.Filters{}, err
	}
	extra := tree.Filters{
		IncludeExtensions: tree.ParseExtensions(f.include),
		ExcludeExtensions: tree.ParseExtensions(f.exclude),
		ExcludeDirs:       f.excludeDirs,
		ExcludePatterns:   f.excludeMatch,
	}
	if list.Len() > 0 {
		extra.Ignore = list
	}
	return base.Merge(extra), nil
}

// writeResult writes a merge result to path, or to stdout for "-".
func writeResult(cmd *cobra.Command, res *merge.Result, path string) error {
	if path == "-" {
		_, err := cmd.OutOrStdout().Write(res.Payload)
		return err
	}
	if err := os.WriteFile(path, res.Payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%d bytes, %s)\n", path, len(res.Payload), res.MIME)
	return nil
}

// reportErrors logs per-item failures and returns how many there were.
func reportErrors(what string, errs []error) int {
	for _, err := range errs {
		logger.Warn(what+" failed", zap.Error(err))
	}
	return len(errs)
}

// progress returns a batch progress callback drawing on w when w is a
// terminal, and nil otherwise.
func progress(w io.Writer) func(done, total int) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	return func(done, total int) {
		fmt.Fprintf(w, "\rFetching %d/%d", done, total)
		if done == total {
			fmt.Fprintln(w)
		}
	}
}
