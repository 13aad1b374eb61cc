package cmd

import (
	"fmt"
	"io"
	"strings"

	"docustream/pkg/merge"
	"docustream/pkg/queue"
	"docustream/pkg/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var mergeOpts struct {
	settings  settingsFlags
	ignore    []string
	gists     []string
	urls      []string
	paste     string
	pasteName string
	order     []string
}

var mergeCmd = &cobra.Command{
	Use:   "merge [paths...]",
	Short: "Merge local files, gists and GitHub files into one document",
	Long: `Queue the given files and directories, plus any --gist, --url and --paste
sources, in that order, and merge them into a single text, PDF or DOCX file.

Text output wraps every file in a fenced block under a header line. PDF output
concatenates PDF inputs directly and converts other files first. DOCX output
needs .docx inputs only.`,
	RunE: runMerge,
}

func init() {
	mergeOpts.settings.register(mergeCmd)
	fl := mergeCmd.Flags()
	fl.StringSliceVar(&mergeOpts.ignore, "ignore", nil, "Gitignore-style pattern for directory walks")
	fl.StringSliceVar(&mergeOpts.gists, "gist", nil, "Gist URL or ID to queue")
	fl.StringSliceVar(&mergeOpts.urls, "url", nil, "GitHub file URL to queue")
	fl.StringVar(&mergeOpts.paste, "paste", "", "Queue pasted text; \"-\" reads stdin")
	fl.StringVar(&mergeOpts.pasteName, "paste-name", session.DefaultPasteName, "Filename for --paste content")
	fl.StringSliceVar(&mergeOpts.order, "order", nil, "Final queue order as a complete list of file names")
	RootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	if err := mergeOpts.settings.apply(cmd, s); err != nil {
		return err
	}

	ctx := cmd.Context()
	if len(args) > 0 {
		list, err := loadIgnore(mergeOpts.ignore)
		if err != nil {
			return err
		}
		opts := queue.LoadOptions{}
		if list.Len() > 0 {
			opts.Ignore = list
		}
		if err := s.ImportPaths(args, opts); err != nil {
			logger.Warn("Some local files were not queued", zap.Error(err))
		}
	}
	for _, g := range mergeOpts.gists {
		n, errs := s.ImportGist(ctx, g)
		reportErrors("Gist import", errs)
		logger.Info("Queued gist files", zap.String("gist", g), zap.Int("count", n))
	}
	for _, u := range mergeOpts.urls {
		if _, err := s.ImportFileURL(ctx, u); err != nil {
			logger.Warn("File import failed", zap.String("url", u), zap.Error(err))
		}
	}
	if mergeOpts.paste != "" {
		content := mergeOpts.paste
		if content == "-" {
			b, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			content = string(b)
		}
		if _, err := s.ImportPaste(mergeOpts.pasteName, content); err != nil {
			return err
		}
	}
	if len(mergeOpts.order) > 0 {
		if err := s.Queue.Reorder(mergeOpts.order); err != nil {
			return err
		}
	}

	return mergeQueue(cmd, s, mergeOpts.settings.output)
}

// mergeQueue merges the session queue and writes the result.
func mergeQueue(cmd *cobra.Command, s *session.Session, out string) error {
	if s.Queue.Len() == 0 {
		return fmt.Errorf("nothing to merge: %w", merge.ErrEmptyInput)
	}
	logger.Info("Merging queue",
		zap.Int("files", s.Queue.Len()),
		zap.String("size", queue.FormatSize(s.Queue.TotalSize())),
		zap.String("format", string(s.Settings.Output)))

	res, err := s.Merge(cmd.Context())
	if err != nil {
		return err
	}
	if out == "" {
		out = merge.SuggestedFilename("merged", res.Kind)
	}
	if err := writeResult(cmd, res, out); err != nil {
		return err
	}
	if res.Kind == merge.KindText {
		fmt.Fprintln(cmd.ErrOrStderr(), s.TokenUsage().String())
	}
	return nil
}

// settingsFlags are the output flags of every command that merges.
type settingsFlags struct {
	format        string
	preset        string
	sanitize      bool
	stripComments bool
	model         string
	output        string
}

func (f *settingsFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.format, "format", "f", "", "Output format: text, pdf or docx")
	fl.StringVar(&f.preset, "preset", "", fmt.Sprintf("Settings preset (%s)", strings.Join(session.PresetNames(), ", ")))
	fl.BoolVar(&f.sanitize, "sanitize", false, "Redact secret-shaped tokens in text output")
	fl.BoolVar(&f.stripComments, "strip-comments", false, "Remove trailing comments in text output")
	fl.StringVar(&f.model, "model", "", "Model used for the token estimate")
	fl.StringVarP(&f.output, "output", "o", "", "Output file, \"-\" for stdout (default merged.<ext>)")
}

// apply layers the preset, then explicit flags, over the session defaults.
func (f *settingsFlags) apply(cmd *cobra.Command, s *session.Session) error {
	if f.preset != "" {
		if err := s.ApplyPreset(f.preset); err != nil {
			return err
		}
	}
	fl := cmd.Flags()
	if fl.Changed("format") {
		kind, err := merge.ParseOutputKind(f.format)
		if err != nil {
			return err
		}
		s.Settings.Output = kind
	}
	if fl.Changed("sanitize") {
		s.Settings.Sanitize = f.sanitize
	}
	if fl.Changed("strip-comments") {
		s.Settings.StripComments = f.stripComments
	}
	if f.model != "" {
		s.Settings.Model = f.model
	}
	if s.Settings.Output != merge.KindText && (s.Settings.Sanitize || s.Settings.StripComments) {
		fmt.Fprintln(cmd.ErrOrStderr(), "note: --sanitize and --strip-comments only affect text output")
	}
	return nil
}
