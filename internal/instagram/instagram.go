package instagram

import (
	"context"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/orgball2608/insta-post-analyzer/pkg/errors"
)

//go:generate go run go.uber.org/mock/mockgen -source=instagram.go -destination=mocks/mock.go
type Client interface {
	// FetchPost returns the raw content graph document for a shortcode.
	// It makes exactly one request and never retries.
	FetchPost(ctx context.Context, shortcode string) (json.RawMessage, error)
}

var shortcodeRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// path segments that precede a shortcode in post URLs
var postPathKinds = map[string]bool{
	"p":     true,
	"reel":  true,
	"reels": true,
	"tv":    true,
}

// ParseShortcode accepts either a bare shortcode or a post URL such as
// https://www.instagram.com/p/DIGYx2ZMwFv/?img_index=1
func ParseShortcode(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.WithField(errors.CodeInvalidInput, "url", "post URL is empty", nil)
	}

	if !strings.Contains(input, "/") {
		if shortcodeRe.MatchString(input) {
			return input, nil
		}
		return "", errors.WithField(errors.CodeInvalidInput, "url", "malformed shortcode", nil)
	}

	if !strings.Contains(input, "://") {
		input = "https://" + input
	}
	u, err := url.Parse(input)
	if err != nil {
		return "", errors.WithField(errors.CodeInvalidInput, "url", "could not parse post URL", err)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host != "instagram.com" && host != "m.instagram.com" {
		return "", errors.WithField(errors.CodeInvalidInput, "url", "not an instagram URL", nil)
	}

	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	// /<kind>/<code>/ or /<username>/<kind>/<code>/
	for i := 0; i+1 < len(segments); i++ {
		if postPathKinds[segments[i]] && shortcodeRe.MatchString(segments[i+1]) {
			return segments[i+1], nil
		}
	}

	return "", errors.WithField(errors.CodeInvalidInput, "url", "URL does not point to a post", nil)
}
