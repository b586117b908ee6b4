package moderation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Candidate is the content under review.
type Candidate struct {
	Title       string
	Description string
	Image       ImageRef
}

// Engine combines a text classifier and an image classifier into one verdict.
type Engine struct {
	text      TextClassifier
	image     ImageClassifier
	threshold Likelihood
	logger    *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithThreshold overrides DefaultThreshold.
func WithThreshold(l Likelihood) Option {
	return func(e *Engine) { e.threshold = l }
}

// WithLogger sets the logger used for verdict tracing.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine returns an engine. image may be nil when image moderation is not
// configured; candidates carrying an image then fail with ErrUnavailable.
func NewEngine(text TextClassifier, image ImageClassifier, opts ...Option) *Engine {
	e := &Engine{
		text:      text,
		image:     image,
		threshold: DefaultThreshold,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Moderate checks text first and only consults the image classifier when the
// text is appropriate. Any classifier failure, including an unparseable text
// answer, returns an error wrapping ErrUnavailable and no decision.
func (e *Engine) Moderate(ctx context.Context, c Candidate) (Verdict, error) {
	raw, err := e.text.Classify(ctx, BuildPrompt(c.Title, c.Description))
	if err != nil {
		return Verdict{}, unavailable(StageText, err)
	}

	tv := ParseTextVerdict(raw)
	e.logger.Debug("text verdict", zap.String("verdict", string(tv)))

	switch tv {
	case TextUnparseable:
		return Verdict{Text: tv}, unavailable(StageText, fmt.Errorf("unparseable answer %q", clip(raw, 64)))
	case TextInappropriate:
		return Verdict{Text: tv, Decision: DecisionReject, Reason: ReasonText}, nil
	}

	if !c.Image.Present() {
		return Verdict{Text: tv, Decision: DecisionAccept}, nil
	}
	if e.image == nil {
		return Verdict{Text: tv}, unavailable(StageImage, errors.New("not configured"))
	}

	scores, err := e.image.SafeSearch(ctx, c.Image)
	if err != nil {
		return Verdict{Text: tv}, unavailable(StageImage, err)
	}

	iv := ImageSafe
	if scores.Unsafe(e.threshold) {
		iv = ImageUnsafe
	}
	e.logger.Debug("image verdict",
		zap.String("verdict", string(iv)),
		zap.Stringer("adult", scores.Adult),
		zap.Stringer("spoof", scores.Spoof),
		zap.Stringer("medical", scores.Medical),
		zap.Stringer("violence", scores.Violence),
		zap.Stringer("racy", scores.Racy),
	)

	if iv == ImageUnsafe {
		return Verdict{Text: tv, Image: &iv, Decision: DecisionReject, Reason: ReasonImage}, nil
	}
	return Verdict{Text: tv, Image: &iv, Decision: DecisionAccept}, nil
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
