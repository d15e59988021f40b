package youtube

import (
	"net/url"
	"regexp"
	"strings"
)

// IdentifierKind classifies a parsed channel reference.
type IdentifierKind int

const (
	// KindInvalid marks input that cannot be used for any lookup.
	KindInvalid IdentifierKind = iota
	// KindChannelID is a canonical channel id (UC + 22 chars).
	KindChannelID
	// KindHandle is a handle, stored without the leading @.
	KindHandle
	// KindCustomURL is a custom channel name or free-text lookup term.
	KindCustomURL
)

// String returns the string representation of an identifier kind.
func (k IdentifierKind) String() string {
	switch k {
	case KindChannelID:
		return "channel-id"
	case KindHandle:
		return "handle"
	case KindCustomURL:
		return "custom-url"
	default:
		return "invalid"
	}
}

// ChannelIdentifier is a normalized channel reference, produced once per
// user input and immutable. Value is empty when Kind is KindInvalid.
type ChannelIdentifier struct {
	Kind  IdentifierKind
	Value string
	// Raw preserves the original input for error reporting.
	Raw string
}

// DisplayText renders the identifier back in its conventional form.
func (ci ChannelIdentifier) DisplayText() string {
	switch ci.Kind {
	case KindHandle:
		return "@" + ci.Value
	default:
		return ci.Value
	}
}

var (
	// channelIDPattern matches a full canonical channel id: UC + 22 chars.
	channelIDPattern = regexp.MustCompile(`^UC[A-Za-z0-9_-]{22}$`)
	// handlePattern matches a bare handle with the leading @.
	handlePattern = regexp.MustCompile(`^@[A-Za-z0-9_-]+$`)
)

// Parse normalizes a free-form channel reference into a typed identifier.
// It is pure and total: no input panics or reaches the network. Recognition
// order: canonical id, bare handle, platform URL, then free text as a
// custom-name lookup term. Empty or whitespace-only input is invalid, as is
// a URL on a non-YouTube host.
func Parse(input string) ChannelIdentifier {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ChannelIdentifier{Kind: KindInvalid, Raw: input}
	}

	if channelIDPattern.MatchString(trimmed) {
		return ChannelIdentifier{Kind: KindChannelID, Value: trimmed, Raw: input}
	}

	if handlePattern.MatchString(trimmed) {
		return ChannelIdentifier{Kind: KindHandle, Value: trimmed[1:], Raw: input}
	}

	if u, ok := parseAsURL(trimmed); ok {
		return parseURLPath(u, input)
	}

	// Anything else is treated as a lookup term for custom-name resolution.
	return ChannelIdentifier{Kind: KindCustomURL, Value: trimmed, Raw: input}
}

// parseAsURL decides whether the input is a URL. Scheme-less forms that
// plainly address youtube.com are accepted with an implied https scheme.
func parseAsURL(s string) (*url.URL, bool) {
	candidate := s
	if !strings.Contains(s, "://") {
		lower := strings.ToLower(s)
		if strings.HasPrefix(lower, "www.youtube.com/") ||
			strings.HasPrefix(lower, "youtube.com/") ||
			strings.HasPrefix(lower, "m.youtube.com/") {
			candidate = "https://" + s
		} else {
			return nil, false
		}
	}

	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" {
		return nil, false
	}
	return u, true
}

// parseURLPath extracts an identifier from the path of a platform URL.
func parseURLPath(u *url.URL, raw string) ChannelIdentifier {
	host := strings.ToLower(u.Hostname())
	if !strings.Contains(host, "youtube.com") {
		return ChannelIdentifier{Kind: KindInvalid, Raw: raw}
	}

	segments := splitPath(u.Path)
	if len(segments) == 0 {
		return ChannelIdentifier{Kind: KindInvalid, Raw: raw}
	}

	switch {
	case segments[0] == "channel" && len(segments) >= 2:
		if channelIDPattern.MatchString(segments[1]) {
			return ChannelIdentifier{Kind: KindChannelID, Value: segments[1], Raw: raw}
		}
		return ChannelIdentifier{Kind: KindInvalid, Raw: raw}

	case strings.HasPrefix(segments[0], "@") && len(segments[0]) > 1:
		return ChannelIdentifier{Kind: KindHandle, Value: segments[0][1:], Raw: raw}

	case segments[0] == "c" && len(segments) >= 2:
		return ChannelIdentifier{Kind: KindCustomURL, Value: segments[1], Raw: raw}

	case len(segments) == 1:
		// Bare /name legacy custom URL
		return ChannelIdentifier{Kind: KindCustomURL, Value: segments[0], Raw: raw}

	default:
		return ChannelIdentifier{Kind: KindInvalid, Raw: raw}
	}
}

func splitPath(path string) []string {
	var segments []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}
