package ai

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	boldPattern    = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicPattern  = regexp.MustCompile(`\*(.*?)\*`)
	headingPattern = regexp.MustCompile(`(?m)^#{1,6}\s+`)

	// 只认常见的 HTML 元素；List<String>、<Rust> 之类保留原样
	htmlTagPattern = regexp.MustCompile(`(?i)&lt;(/?(?:a|b|i|u|p|br|hr|em|strong|span|div|code|pre|small|sub|sup|ul|ol|li|h[1-6]|table|thead|tbody|tr|td|th|blockquote)\b[^<>]*)>`)

	tagPolicy = bluemonday.StrictPolicy()
)

// StripMarkup turns model output into plain text: known HTML tags are dropped, then
// bold/italic asterisks and heading hashes are removed.
func StripMarkup(text string) string {
	text = stripTags(text)
	text = boldPattern.ReplaceAllString(text, "$1")
	text = italicPattern.ReplaceAllString(text, "$1")
	text = headingPattern.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "*", "")
	return strings.TrimSpace(text)
}

// stripTags escapes every '<', restores the ones that open a known HTML element and lets
// bluemonday drop those. Text without such elements is returned untouched.
func stripTags(text string) string {
	escaped := strings.ReplaceAll(text, "<", "&lt;")
	restored := htmlTagPattern.ReplaceAllString(escaped, "<$1>")
	if restored == escaped {
		return text
	}
	return html.UnescapeString(tagPolicy.Sanitize(restored))
}
