package generation

import "strings"

// DraftDelimiter separates post text from its image prompt in a compose reply.
const DraftDelimiter = "|||"

// DefaultImagePrompt is used when a compose reply carries no image prompt.
const DefaultImagePrompt = "Abstract modern technology, 4k, digital art"

// SplitDraft separates a compose reply into post content and image prompt.
func SplitDraft(raw string) (content, imagePrompt string) {
	before, after, found := strings.Cut(raw, DraftDelimiter)
	if !found {
		return strings.TrimSpace(raw), DefaultImagePrompt
	}

	content = strings.TrimSpace(before)
	// Anything after a second delimiter is noise
	prompt, _, _ := strings.Cut(after, DraftDelimiter)
	imagePrompt = strings.TrimSpace(prompt)
	if imagePrompt == "" {
		imagePrompt = DefaultImagePrompt
	}
	return content, imagePrompt
}
