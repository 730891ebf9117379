// Package sanitize strips markup from user-provided text before storage.
package sanitize

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// entityDecoder maps the HTML entities worth decoding before a second strip
// pass, so encoded tags cannot survive.
var entityDecoder = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
	"&quot;", `"`,
	"&#39;", "'",
)

// Text removes HTML tags from a string and trims surrounding whitespace. Use
// for free-text fields such as call notes. Frontend escaping still applies;
// this only keeps markup out of the database.
func Text(s string) string {
	out := tagPattern.ReplaceAllString(s, "")
	out = entityDecoder.Replace(out)
	out = tagPattern.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

// TextPtr sanitizes an optional string in place of Text.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	out := Text(*s)
	return &out
}
