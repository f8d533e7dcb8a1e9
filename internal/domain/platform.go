package domain

import (
	"fmt"
	"strings"
)

// Platform is an output channel a draft is composed for.
type Platform string

// Supported platforms.
const (
	PlatformTelegram     Platform = "telegram"
	PlatformVK           Platform = "vk"
	PlatformTenChat      Platform = "tenchat"
	PlatformVC           Platform = "vc"
	PlatformDzen         Platform = "dzen"
	PlatformEmail        Platform = "email"
	PlatformPressRelease Platform = "press_release"
)

var allPlatforms = []Platform{
	PlatformTelegram,
	PlatformVK,
	PlatformTenChat,
	PlatformVC,
	PlatformDzen,
	PlatformEmail,
	PlatformPressRelease,
}

// AllPlatforms returns every supported platform in compose order.
// The returned slice is a copy.
func AllPlatforms() []Platform {
	out := make([]Platform, len(allPlatforms))
	copy(out, allPlatforms)
	return out
}

// ParsePlatform converts a channel name into a Platform.
func ParsePlatform(name string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(name)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, name)
	}
	return p, nil
}

// Valid reports whether p is a supported platform.
func (p Platform) Valid() bool {
	for _, known := range allPlatforms {
		if p == known {
			return true
		}
	}
	return false
}

// SupportsImage reports whether drafts for this platform carry an illustration.
// Email memos and press releases are text only.
func (p Platform) SupportsImage() bool {
	switch p {
	case PlatformEmail, PlatformPressRelease:
		return false
	default:
		return p.Valid()
	}
}
