// Package moderation decides whether a candidate complaint may be stored.
// It runs the text through a text-verdict classifier and, when the text
// passes and an image is attached, the image through a safe-search
// classifier. It never touches storage.
package moderation

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks every classifier failure: transport and auth errors,
// malformed or unparseable responses. It is never a content rejection.
var ErrUnavailable = errors.New("moderation unavailable")

// Stage names the classifier that failed.
type Stage string

const (
	StageText  Stage = "text"
	StageImage Stage = "image"
)

func unavailable(stage Stage, err error) error {
	return fmt.Errorf("%w: %s classifier: %w", ErrUnavailable, stage, err)
}

// TextVerdict is the parsed output of the text classifier.
type TextVerdict string

const (
	TextAppropriate   TextVerdict = "appropriate"
	TextInappropriate TextVerdict = "inappropriate"
	TextUnparseable   TextVerdict = "unparseable"
)

// ImageVerdict is the policy outcome for an attached image.
type ImageVerdict string

const (
	ImageSafe   ImageVerdict = "safe"
	ImageUnsafe ImageVerdict = "unsafe"
)

// Decision is the final outcome of moderation.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

// Reason tells the caller which check rejected the submission.
type Reason string

const (
	ReasonNone  Reason = ""
	ReasonText  Reason = "text"
	ReasonImage Reason = "image"
)

// Verdict is built fresh for every submission attempt and discarded once the
// gateway has acted on it.
type Verdict struct {
	Text     TextVerdict
	Image    *ImageVerdict
	Decision Decision
	Reason   Reason
}

// Accepted reports whether the submission may be stored.
func (v Verdict) Accepted() bool {
	return v.Decision == DecisionAccept
}
