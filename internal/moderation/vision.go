package moderation

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
)

// VisionClassifier is an ImageClassifier backed by Cloud Vision SafeSearch.
type VisionClassifier struct {
	svc *vision.Service
}

func NewVisionClassifier(ctx context.Context, opts ...option.ClientOption) (*VisionClassifier, error) {
	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vision service: %w", err)
	}
	return &VisionClassifier{svc: svc}, nil
}

// SafeSearch annotates a single image. Inline images are sent as content,
// external ones by URI.
func (v *VisionClassifier) SafeSearch(ctx context.Context, ref ImageRef) (SafeSearch, error) {
	img := &vision.Image{}
	switch ref.Kind {
	case ImageInline:
		img.Content = ref.Data
	case ImageExternal:
		img.Source = &vision.ImageSource{ImageUri: ref.URL}
	default:
		return SafeSearch{}, errors.New("no image attached")
	}

	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image:    img,
			Features: []*vision.Feature{{Type: "SAFE_SEARCH_DETECTION"}},
		}},
	}
	resp, err := v.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return SafeSearch{}, fmt.Errorf("annotate image: %w", err)
	}
	if len(resp.Responses) == 0 {
		return SafeSearch{}, errors.New("empty annotate response")
	}

	r := resp.Responses[0]
	if r.Error != nil {
		return SafeSearch{}, fmt.Errorf("annotate image: %s (code %d)", r.Error.Message, r.Error.Code)
	}
	if r.SafeSearchAnnotation == nil {
		return SafeSearch{}, errors.New("missing safe search annotation")
	}
	return safeSearchFrom(r.SafeSearchAnnotation)
}

func safeSearchFrom(a *vision.SafeSearchAnnotation) (SafeSearch, error) {
	var s SafeSearch
	fields := []struct {
		dst  *Likelihood
		name string
	}{
		{&s.Adult, a.Adult},
		{&s.Spoof, a.Spoof},
		{&s.Medical, a.Medical},
		{&s.Violence, a.Violence},
		{&s.Racy, a.Racy},
	}
	for _, f := range fields {
		l, err := ParseLikelihood(f.name)
		if err != nil {
			return SafeSearch{}, fmt.Errorf("%w: %q", err, f.name)
		}
		*f.dst = l
	}
	return s, nil
}
