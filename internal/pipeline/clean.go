package pipeline

import (
	"regexp"
	"strings"
)

var (
	fenceOpen  = regexp.MustCompile("^```(?:json|JSON)?\\s*")
	fenceClose = regexp.MustCompile("\\s*```$")
)

// UnwrapFence trims whitespace and removes one leading code-fence marker and
// one trailing closing marker when present. Text without a fence passes
// through trimmed. Applying it twice gives the same result as once.
func UnwrapFence(raw string) string {
	s := strings.TrimSpace(raw)
	s = fenceOpen.ReplaceAllString(s, "")
	s = fenceClose.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
