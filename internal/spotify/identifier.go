package spotify

import (
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
)

// DefaultOrigin is the public web origin serving embed pages.
const DefaultOrigin = "https://open.spotify.com"

const uriPrefix = "spotify:playlist:"

// ErrInvalidInput is returned when no playlist identifier can be derived
// from user input.
var ErrInvalidInput = errors.New("invalid playlist identifier")

// ResolveIdentifier derives the playlist identifier from user input.
//
// Accepted forms:
//   - spotify:playlist:<id>
//   - https://open.spotify.com/playlist/<id>?si=... (query dropped)
//   - https://open.spotify.com/embed/playlist/<id>
//   - a bare identifier, returned verbatim including any query fragment
func ResolveIdentifier(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", errors.Wrap(ErrInvalidInput, "empty input")
	}

	if strings.HasPrefix(s, uriPrefix) {
		id := strings.TrimPrefix(s, uriPrefix)
		if id == "" {
			return "", errors.Wrapf(ErrInvalidInput, "%q", input)
		}
		return id, nil
	}

	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		u, err := url.Parse(s)
		if err != nil {
			return "", errors.Wrapf(ErrInvalidInput, "%q: %v", input, err)
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i, part := range parts {
			if part == "playlist" && i+1 < len(parts) && parts[i+1] != "" {
				return parts[i+1], nil
			}
		}
		return "", errors.Wrapf(ErrInvalidInput, "%q is not a playlist URL", input)
	}

	return s, nil
}

// EmbedURL builds <origin>/embed/playlist/<identifier>. The identifier is
// used verbatim.
func EmbedURL(origin, identifier string) string {
	return strings.TrimRight(origin, "/") + "/embed/playlist/" + identifier
}
