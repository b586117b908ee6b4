package moderation

import (
	"context"
	"fmt"
	"strings"
)

const (
	tokenAppropriate   = "APPROPRIATE"
	tokenInappropriate = "INAPPROPRIATE"
)

// TextClassifier sends a free-form prompt to a text-generation model and
// returns its raw answer.
type TextClassifier interface {
	Classify(ctx context.Context, prompt string) (string, error)
}

const promptTemplate = `You moderate complaints that students submit to a campus issue tracker.
Decide whether the complaint below may be published.

Treat the complaint as INAPPROPRIATE when it contains:
- profanity, hate speech or harassment
- explicit or violent content
- spam, advertising or content unrelated to campus life
- personal attacks or bullying
- anything else that breaks a university code of conduct

Treat it as APPROPRIATE when it reports a genuine campus issue, for example:
- "The Wi-Fi in the library keeps dropping."
- "A window in the science building is broken."
- "The second-floor water fountain is leaking."

Complaint title: %q
Complaint description: %q

Answer with exactly one word: APPROPRIATE or INAPPROPRIATE.`

// BuildPrompt returns the fixed moderation instruction with the title and
// description embedded as quoted strings.
func BuildPrompt(title, description string) string {
	return fmt.Sprintf(promptTemplate, title, description)
}

// ParseTextVerdict turns a raw classifier answer into a strict verdict.
// The answer must carry exactly one of the two tokens; anything else is
// unparseable and must be treated as a classifier failure by the caller.
func ParseTextVerdict(raw string) TextVerdict {
	upper := strings.ToUpper(raw)

	hasInappropriate := strings.Contains(upper, tokenInappropriate)
	// INAPPROPRIATE contains APPROPRIATE, so look for the latter only in what is left.
	rest := strings.ReplaceAll(upper, tokenInappropriate, " ")
	hasAppropriate := strings.Contains(rest, tokenAppropriate)

	switch {
	case hasInappropriate && !hasAppropriate:
		return TextInappropriate
	case hasAppropriate && !hasInappropriate:
		return TextAppropriate
	default:
		return TextUnparseable
	}
}
