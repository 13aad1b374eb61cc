// Package tokens estimates how much of a model's context window a text
// would use.
package tokens

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
	"go.uber.org/zap"
)

func init() {
	// Embedded BPE tables; no download at first use.
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// Profile describes one model's context window.
type Profile struct {
	Name         string
	ContextLimit int
	Encoding     string
}

// DefaultModel is used for unknown model names.
const DefaultModel = "GPT-4o"

var profiles = map[string]Profile{
	"GPT-4o":            {Name: "GPT-4o", ContextLimit: 128000, Encoding: "cl100k_base"},
	"GPT-4 Turbo":       {Name: "GPT-4 Turbo", ContextLimit: 128000, Encoding: "cl100k_base"},
	"Claude 3.5 Sonnet": {Name: "Claude 3.5 Sonnet", ContextLimit: 200000, Encoding: "cl100k_base"},
	"Gemini 1.5 Pro":    {Name: "Gemini 1.5 Pro", ContextLimit: 1000000, Encoding: "cl100k_base"},
	"Llama 3.3 70B":     {Name: "Llama 3.3 70B", ContextLimit: 128000, Encoding: "cl100k_base"},
}

// Lookup returns the profile for model, falling back to DefaultModel.
func Lookup(model string) Profile {
	if p, ok := profiles[model]; ok {
		return p
	}
	return profiles[DefaultModel]
}

// Models lists the known model names, sorted.
func Models() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Risk grades how close a text is to the context limit.
type Risk string

const (
	RiskSafe       Risk = "safe"       // below 40%
	RiskHigh       Risk = "high"       // below 80%
	RiskTruncation Risk = "truncation" // 80% and above
)

// RiskFor grades a usage percentage.
func RiskFor(percentage float64) Risk {
	switch {
	case percentage < 40:
		return RiskSafe
	case percentage < 80:
		return RiskHigh
	}
	return RiskTruncation
}

// Usage is the result of Info.
type Usage struct {
	Model      string
	Tokens     int
	Limit      int
	Percentage float64 // Capped at 100.
	Risk       Risk
}

func (u Usage) String() string {
	return fmt.Sprintf("%d / %d tokens (%.1f%%) for %s: %s", u.Tokens, u.Limit, u.Percentage, u.Model, u.Risk)
}

// Encoder turns text into token ids. *tiktoken.Tiktoken implements it.
type Encoder interface {
	Encode(text string, allowedSpecial, disallowedSpecial []string) []int
}

// Loader returns the encoder for an encoding name.
type Loader func(encoding string) (Encoder, error)

func tiktokenLoader(encoding string) (Encoder, error) {
	return tiktoken.GetEncoding(encoding)
}

// Estimator counts tokens, caching one encoder per encoding.
type Estimator struct {
	mu       sync.Mutex
	load     Loader
	encoders map[string]Encoder
	logger   *zap.Logger
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithLoader replaces the tiktoken loader.
func WithLoader(l Loader) Option {
	return func(e *Estimator) { e.load = l }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Estimator) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEstimator returns an Estimator backed by tiktoken.
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{
		load:     tiktokenLoader,
		encoders: make(map[string]Encoder),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Estimator) encoder(encoding string) (Encoder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if enc, ok := e.encoders[encoding]; ok {
		return enc, nil
	}
	enc, err := e.load(encoding)
	if err != nil {
		return nil, err
	}
	e.encoders[encoding] = enc
	return enc, nil
}

// Estimate counts the tokens of text under p's encoding. Any tokenizer
// failure yields 0.
func (e *Estimator) Estimate(text string, p Profile) (n int) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("Tokenizer panicked", zap.String("encoding", p.Encoding), zap.Any("panic", r))
			n = 0
		}
	}()

	enc, err := e.encoder(p.Encoding)
	if err != nil {
		e.logger.Warn("Tokenizer unavailable", zap.String("encoding", p.Encoding), zap.Error(err))
		return 0
	}
	return len(enc.Encode(text, nil, nil))
}

// Info estimates text against the named model.
func (e *Estimator) Info(text, model string) Usage {
	p := Lookup(model)
	n := e.Estimate(text, p)

	var pct float64
	if p.ContextLimit > 0 {
		pct = float64(n) / float64(p.ContextLimit) * 100
	}
	if pct > 100 {
		pct = 100
	}
	return Usage{
		Model:      p.Name,
		Tokens:     n,
		Limit:      p.ContextLimit,
		Percentage: pct,
		Risk:       RiskFor(pct),
	}
}

var (
	defaultOnce      sync.Once
	defaultEstimator *Estimator
)

// Default returns the shared tiktoken-backed Estimator.
func Default() *Estimator {
	defaultOnce.Do(func() { defaultEstimator = NewEstimator() })
	return defaultEstimator
}
