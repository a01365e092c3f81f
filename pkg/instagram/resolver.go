package instagram

import (
	"regexp"

	"engagelens/pkg/errors"
)

// postPathPattern matches the provider's post path convention: a /p/ segment
// followed by the shortcode, terminated by a slash, query, fragment, or the
// end of the URL.
var postPathPattern = regexp.MustCompile(`/p/([A-Za-z0-9_-]+)(?:[/?#]|$)`)

// ExtractShortcode pulls the post shortcode out of a raw post URL.
func ExtractShortcode(rawURL string) (string, error) {
	m := postPathPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", errors.InvalidReference("not a recognizable post URL: %q", rawURL)
	}
	return m[1], nil
}
