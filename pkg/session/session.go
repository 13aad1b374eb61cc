// Package session bundles the queue, the GitHub client and the merge
// settings of one interactive session. A Session is not safe for
// concurrent use.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"docustream/pkg/config"
	"docustream/pkg/github"
	"docustream/pkg/logging"
	"docustream/pkg/merge"
	"docustream/pkg/queue"
	"docustream/pkg/ratelimit"
	"docustream/pkg/tokens"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultPasteName names pasted content when no name is given.
const DefaultPasteName = "pasted_content.txt"

// ErrNoTree is returned by repository imports before a tree was loaded.
var ErrNoTree = errors.New("no repository tree loaded")

// Settings are the merge options of a session.
type Settings struct {
	Output        merge.OutputKind
	Sanitize      bool
	StripComments bool
	Model         string
}

// DefaultSettings is plain text output for the default model.
var DefaultSettings = Settings{Output: merge.KindText, Model: tokens.DefaultModel}

// Presets are named setting bundles. Applying one keeps the model.
var Presets = map[string]Settings{
	"standard": {Output: merge.KindText},
	"secure":   {Output: merge.KindText, Sanitize: true},
	"clean":    {Output: merge.KindText, StripComments: true},
	"pdf":      {Output: merge.KindPDF},
}

// PresetNames lists preset keys in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for k := range Presets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Session is the explicit state of one user session.
type Session struct {
	ID       string
	Queue    *queue.Queue
	GitHub   *github.Client
	Limiter  *ratelimit.Limiter
	Router   *merge.Router
	Tokens   *tokens.Estimator
	Settings Settings
	Config   *config.Config

	ref    github.Ref
	tree   *github.Tree
	logger *zap.Logger
}

type options struct {
	github []github.Option
	router []merge.RouterOption
	tokens *tokens.Estimator
}

// Option configures New.
type Option func(*options)

// WithGitHubOptions appends options to the GitHub client.
func WithGitHubOptions(opts ...github.Option) Option {
	return func(o *options) { o.github = append(o.github, opts...) }
}

// WithRouterOptions appends options to the merge router.
func WithRouterOptions(opts ...merge.RouterOption) Option {
	return func(o *options) { o.router = append(o.router, opts...) }
}

// WithEstimator replaces the token estimator.
func WithEstimator(e *tokens.Estimator) Option {
	return func(o *options) { o.tokens = e }
}

// New builds a Session from cfg. A nil cfg uses the defaults of
// config.FromEnv with an empty environment.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Session, error) {
	if cfg == nil {
		cfg = config.FromEnv(func(string) string { return "" })
	}
	logger = logging.OrNop(logger)
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	id := uuid.NewString()
	logger = logger.With(zap.String("session", id))
	limiter := ratelimit.New(cfg.RateLimitCalls, cfg.RateLimitWindow)

	ghOpts := append([]github.Option{
		github.WithToken(cfg.GitHubToken),
		github.WithTimeout(cfg.HTTPTimeout),
		github.WithLimiter(limiter),
		github.WithLogger(logger.Named("github")),
	}, o.github...)
	client, err := github.New(ghOpts...)
	if err != nil {
		return nil, fmt.Errorf("create github client: %w", err)
	}

	routerOpts := append([]merge.RouterOption{
		merge.WithConverter(merge.SOffice{
			Binary:  cfg.SOfficeBinary,
			Timeout: cfg.ConvertTimeout,
			Logger:  logger.Named("convert"),
		}),
		merge.WithLogger(logger.Named("merge")),
	}, o.router...)

	est := o.tokens
	if est == nil {
		est = tokens.NewEstimator(tokens.WithLogger(logger.Named("tokens")))
	}

	return &Session{
		ID:       id,
		Queue:    queue.New(logger.Named("queue")),
		GitHub:   client,
		Limiter:  limiter,
		Router:   merge.NewRouter(routerOpts...),
		Tokens:   est,
		Settings: DefaultSettings,
		Config:   cfg,
		logger:   logger,
	}, nil
}

// ApplyPreset switches the output settings to a named preset.
func (s *Session) ApplyPreset(name string) error {
	p, ok := Presets[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("unknown settings preset %q (available: %s)", name, strings.Join(PresetNames(), ", "))
	}
	p.Model = s.Settings.Model
	s.Settings = p
	return nil
}

// Request builds the merge request for the current queue and settings.
func (s *Session) Request() merge.Request {
	return merge.Request{
		Files:         s.Queue.Files(),
		Output:        s.Settings.Output,
		Sanitize:      s.Settings.Sanitize,
		StripComments: s.Settings.StripComments,
	}
}

// Merge merges the queue with the current settings.
func (s *Session) Merge(ctx context.Context) (*merge.Result, error) {
	return s.Router.Merge(ctx, s.Request())
}

// Preview returns the text merge of the queue with the current text
// options, regardless of the output format.
func (s *Session) Preview() string {
	return merge.MergeText(s.Queue.Files(), merge.TextOptions{
		Sanitize:      s.Settings.Sanitize,
		StripComments: s.Settings.StripComments,
	})
}

// TokenUsage estimates the preview against the selected model.
func (s *Session) TokenUsage() tokens.Usage {
	return s.Tokens.Info(s.Preview(), s.Settings.Model)
}
