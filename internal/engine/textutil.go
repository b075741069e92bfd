package engine

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// NormLang normalises a language field: empty string → configured default ("en").
func NormLang(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return cfg.DefaultLanguage
	}
	return lang
}

// UserAgentBot identifies resolver requests to transcript providers.
const UserAgentBot = "GoTranscript/1.0"

// inlineTagRe matches the caption markup providers embed in cue text:
// <i>, <b>, <u>, <br/>, <font ...>, <span ...>, <c.class>, <v Speaker>.
// A bare '<' in ordinary text ("a<b") never matches.
var inlineTagRe = regexp.MustCompile(`(?i)</?(?:[ibu]|br\s*/?|(?:font|span|ruby|rt|lang|c|v)(?:[.\s][^<>]*)?)>`)

// CleanCaptionText strips inline caption markup, decodes HTML entities and
// trims surrounding whitespace. Inner line breaks are kept; <br> becomes "\n".
func CleanCaptionText(s string) string {
	if strings.ContainsRune(s, '<') {
		s = inlineTagRe.ReplaceAllStringFunc(s, func(tag string) string {
			if isBreakTag(tag) {
				return "\n"
			}
			return ""
		})
	}
	if strings.ContainsRune(s, '&') {
		s = html.UnescapeString(s)
	}
	return strings.TrimSpace(s)
}

func isBreakTag(tag string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimLeft(tag, "</")), "br")
}
