package common

import (
	"regexp"
	"strings"
)

var (
	scriptTagRX    = regexp.MustCompile(`(?is)<\s*script[^>]*>.*?<\s*/\s*script\s*>`)
	eventHandlerRX = regexp.MustCompile(`(?i)\s+on[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	jsLinkRX       = regexp.MustCompile(`(?i)\]\(\s*javascript:[^)]*\)`)
)

// SanitizeMarkdown strips script blocks, inline event handlers and
// javascript: links from user supplied markdown and trims the result.
func SanitizeMarkdown(markdown string) string {
	s := scriptTagRX.ReplaceAllString(markdown, "")
	s = eventHandlerRX.ReplaceAllString(s, "")
	s = jsLinkRX.ReplaceAllString(s, "]()")
	return strings.TrimSpace(s)
}
