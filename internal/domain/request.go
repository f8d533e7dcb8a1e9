package domain

import (
	"fmt"
	"strings"
)

// MonitoringURL is the reference value that asks the analyzer to search for
// fresh brand mentions instead of using the submitted text.
const MonitoringURL = "monitoring"

// Mode selects the voice the analysis and drafts are written in.
type Mode string

// Supported modes.
const (
	ModePR      Mode = "pr"
	ModeBlogger Mode = "blogger"
)

// BrandProfile describes the brand a request is produced for.
type BrandProfile struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	ToneOfVoice    string   `json:"tone_of_voice"`
	TargetAudience string   `json:"target_audience"`
	Keywords       []string `json:"keywords,omitempty"`
	Examples       []string `json:"examples,omitempty"`
}

// DefaultBrandProfile is used when a request names no brand.
func DefaultBrandProfile() BrandProfile {
	return BrandProfile{
		Name:           "Newsmaker",
		Description:    "AI-сервис для PR-специалистов",
		ToneOfVoice:    "Профессиональный, но дружелюбный",
		TargetAudience: "PR-менеджеры, маркетологи",
	}
}

// Request is a single content-production submission.
type Request struct {
	Text          string        `json:"text"`
	URL           string        `json:"url,omitempty"`
	ModelProvider string        `json:"model_provider,omitempty"`
	Brand         *BrandProfile `json:"brand,omitempty"`
	Mode          Mode          `json:"mode,omitempty"`
	TargetBrand   string        `json:"target_brand,omitempty"`
	Channels      []Platform    `json:"channels,omitempty"`
}

// IsMonitoring reports whether the request asks for a brand-mention search.
func (r Request) IsMonitoring() bool {
	return strings.EqualFold(strings.TrimSpace(r.URL), MonitoringURL)
}

// EffectiveMode returns the request mode, defaulting to pr.
func (r Request) EffectiveMode() Mode {
	if r.Mode == "" {
		return ModePR
	}
	return r.Mode
}

// EffectiveBrand returns the request brand or the default profile.
func (r Request) EffectiveBrand() BrandProfile {
	if r.Brand == nil {
		return DefaultBrandProfile()
	}
	return *r.Brand
}

// EffectiveChannels returns the configured channels, or every platform when none are set.
func (r Request) EffectiveChannels() []Platform {
	if len(r.Channels) == 0 {
		return AllPlatforms()
	}
	out := make([]Platform, len(r.Channels))
	copy(out, r.Channels)
	return out
}

// Validate checks the request fields that can be checked without external calls.
// Missing content is not a validation failure: the analyzer may still fetch it.
func (r Request) Validate() error {
	switch r.Mode {
	case "", ModePR, ModeBlogger:
	default:
		return fmt.Errorf("%w: %w: %q", ErrValidation, ErrInvalidMode, r.Mode)
	}

	for _, ch := range r.Channels {
		if !ch.Valid() {
			return fmt.Errorf("%w: %w: %q", ErrValidation, ErrUnknownPlatform, ch)
		}
	}

	if r.IsMonitoring() && r.Brand == nil {
		return fmt.Errorf("%w: %w", ErrValidation, ErrMissingBrand)
	}

	return nil
}

// Mention is a news item found by the brand-mention monitor.
type Mention struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}
