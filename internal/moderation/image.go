package moderation

import (
	"context"
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
)

// Likelihood is an ordinal level on the safe-search scale.
type Likelihood int

const (
	LikelihoodUnknown Likelihood = iota
	VeryUnlikely
	Unlikely
	Possible
	Likely
	VeryLikely
)

var likelihoodNames = map[Likelihood]string{
	LikelihoodUnknown: "UNKNOWN",
	VeryUnlikely:      "VERY_UNLIKELY",
	Unlikely:          "UNLIKELY",
	Possible:          "POSSIBLE",
	Likely:            "LIKELY",
	VeryLikely:        "VERY_LIKELY",
}

func (l Likelihood) String() string {
	if name, ok := likelihoodNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// DefaultThreshold is the second-highest level of the scale. An image whose
// score in any category reaches it is unsafe.
const DefaultThreshold = Likely

// ErrUnknownLikelihood is returned by ParseLikelihood for names outside the scale.
var ErrUnknownLikelihood = errors.New("unknown likelihood")

// ParseLikelihood maps a provider enum name (VERY_UNLIKELY ... VERY_LIKELY)
// onto the scale. Matching ignores case and accepts '-' for '_'.
func ParseLikelihood(name string) (Likelihood, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "-", "_"))
	if norm == "" {
		return LikelihoodUnknown, nil
	}
	for l, n := range likelihoodNames {
		if n == norm {
			return l, nil
		}
	}
	return LikelihoodUnknown, ErrUnknownLikelihood
}

// SafeSearch holds the five independent category scores for one image.
type SafeSearch struct {
	Adult    Likelihood
	Spoof    Likelihood
	Medical  Likelihood
	Violence Likelihood
	Racy     Likelihood
}

// Unsafe reports whether any category is at or above threshold.
func (s SafeSearch) Unsafe(threshold Likelihood) bool {
	for _, l := range []Likelihood{s.Adult, s.Spoof, s.Medical, s.Violence, s.Racy} {
		if l >= threshold {
			return true
		}
	}
	return false
}

// ImageClassifier scores an image on the safe-search categories.
type ImageClassifier interface {
	SafeSearch(ctx context.Context, ref ImageRef) (SafeSearch, error)
}

// ImageKind tells how an image reference carries the image.
type ImageKind int

const (
	ImageNone ImageKind = iota
	ImageInline
	ImageExternal
)

// ImageRef is a parsed image reference: either an inline data URI or an
// externally hosted URL.
type ImageRef struct {
	Kind ImageKind
	// Raw is the reference as submitted; it is what gets persisted.
	Raw string
	// URL is set for external images.
	URL string
	// MIMEType and Data (base64, as submitted) are set for inline images.
	MIMEType string
	Data     string
}

// Present reports whether an image is attached.
func (r ImageRef) Present() bool {
	return r.Kind != ImageNone
}

// ErrInvalidImageRef is returned for references that are neither a base64
// image data URI nor an http(s) URL.
var ErrInvalidImageRef = errors.New("invalid image reference")

// ParseImageRef parses an optional image reference. No size limit is applied
// to external URLs since the referenced bytes are never fetched here.
func ParseImageRef(raw string) (ImageRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ImageRef{}, nil
	}

	if strings.HasPrefix(raw, "data:") {
		meta, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
		if !ok || !strings.HasSuffix(meta, ";base64") {
			return ImageRef{}, ErrInvalidImageRef
		}
		mime := strings.TrimSuffix(meta, ";base64")
		if !strings.HasPrefix(mime, "image/") || payload == "" {
			return ImageRef{}, ErrInvalidImageRef
		}
		if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
			return ImageRef{}, ErrInvalidImageRef
		}
		return ImageRef{Kind: ImageInline, Raw: raw, MIMEType: mime, Data: payload}, nil
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ImageRef{}, ErrInvalidImageRef
	}
	return ImageRef{Kind: ImageExternal, Raw: raw, URL: u.String()}, nil
}
