package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"docustream/pkg/github"
	"docustream/pkg/queue"
	"docustream/pkg/tree"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Browse and fetch GitHub repository trees",
}

var repoTreeOpts struct {
	filters filterFlags
	sizes   bool
}

var repoTreeCmd = &cobra.Command{
	Use:   "tree URL",
	Short: "Print the filtered file tree of a repository",
	Long: `Fetch the recursive tree of a GitHub repository, directory or branch URL,
apply the selection filters and print it as a tree.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filters, err := repoTreeOpts.filters.build()
		if err != nil {
			return err
		}
		s, err := newSession()
		if err != nil {
			return err
		}
		entries, err := s.LoadTree(cmd.Context(), args[0], filters)
		if err != nil {
			return err
		}
		t, ref := s.Tree()

		roots := tree.BuildHierarchy(entries, logger.Named("tree"))
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n", ref)
		if repoTreeOpts.sizes {
			fmt.Fprint(out, tree.RenderWithSizes(roots, queue.FormatSize))
		} else {
			fmt.Fprint(out, tree.Render(roots))
		}
		files, dirs := tree.Count(roots)
		fmt.Fprintf(out, "\n%d files, %d directories (of %d entries)\n", files, dirs, len(t.Entries))
		if t.Truncated {
			fmt.Fprintln(cmd.ErrOrStderr(), t.Warning)
		}
		return nil
	},
}

var repoFetchOpts struct {
	filters  filterFlags
	settings settingsFlags
	all      bool
	prefix   string
	dir      string
}

var repoFetchCmd = &cobra.Command{
	Use:   "fetch URL [paths...]",
	Short: "Fetch repository files and merge them",
	Long: `Fetch the given repository paths, or with --all every file that passes the
filters, and merge them into one document. With --dir the files are written
below that directory instead. Files that fail to fetch are reported and
skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := args[1:]
		if len(paths) == 0 && !repoFetchOpts.all {
			return fmt.Errorf("name the paths to fetch or pass --all")
		}
		filters, err := repoFetchOpts.filters.build()
		if err != nil {
			return err
		}
		s, err := newSession()
		if err != nil {
			return err
		}
		if err := repoFetchOpts.settings.apply(cmd, s); err != nil {
			return err
		}

		ctx := cmd.Context()
		entries, err := s.LoadTree(ctx, args[0], filters)
		if err != nil {
			return err
		}
		if repoFetchOpts.all {
			paths = append(paths, tree.Paths(tree.Files(entries))...)
		}

		n, errs := s.ImportRepoFiles(ctx, paths, github.BatchOptions{
			Prefix:     repoFetchOpts.prefix,
			OnProgress: progress(cmd.ErrOrStderr()),
		})
		logger.Info("Fetched repository files",
			zap.Int("requested", len(paths)),
			zap.Int("queued", n),
			zap.Int("failed", reportErrors("Fetch", errs)))

		if repoFetchOpts.dir != "" {
			return writeFiles(cmd, s.Queue.Files(), repoFetchOpts.dir)
		}
		return mergeQueue(cmd, s, repoFetchOpts.settings.output)
	},
}

func init() {
	repoTreeOpts.filters.register(repoTreeCmd)
	repoTreeCmd.Flags().BoolVar(&repoTreeOpts.sizes, "sizes", false, "Show file sizes")

	repoFetchOpts.filters.register(repoFetchCmd)
	repoFetchOpts.settings.register(repoFetchCmd)
	repoFetchCmd.Flags().BoolVar(&repoFetchOpts.all, "all", false, "Fetch every file that passes the filters")
	repoFetchCmd.Flags().StringVar(&repoFetchOpts.dir, "dir", "", "Write fetched files below this directory instead of merging")
	repoFetchCmd.Flags().StringVar(&repoFetchOpts.prefix, "prefix", "", "Name fetched files {prefix}_{basename}")

	repoCmd.AddCommand(repoTreeCmd, repoFetchCmd)
	RootCmd.AddCommand(repoCmd)
}

// writeFiles stores files below dir, keeping their slash-separated names
// as relative paths.
func writeFiles(cmd *cobra.Command, files []queue.File, dir string) error {
	for _, f := range files {
		rel := filepath.FromSlash(f.Name)
		if !filepath.IsLocal(rel) {
			return fmt.Errorf("refusing to write %q outside %s", f.Name, dir)
		}
		dst := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(dst), err)
		}
		if err := os.WriteFile(dst, f.Content, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", dst, err)
		}
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d files to %s\n", len(files), dir)
	return nil
}
