// Package i18n resolves request languages against the embedded catalogs and
// returns x/text printers for them.
package i18n

import (
	"net/http"
	"strings"

	"github.com/louisbranch/swnsheet/internal/platform/i18n/catalog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// LangParam is the query parameter used to select a language.
const LangParam = "lang"

var matcher = language.NewMatcher(SupportedTags())

// SupportedTags returns the catalog locales, default first.
func SupportedTags() []language.Tag {
	return catalog.Default().Tags()
}

// DefaultTag returns the base catalog locale.
func DefaultTag() language.Tag {
	return language.MustParse(catalog.BaseLocale)
}

// ParseTag parses value and reports whether it maps to a supported locale.
func ParseTag(value string) (language.Tag, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return DefaultTag(), false
	}
	tag, err := language.Parse(value)
	if err != nil {
		return DefaultTag(), false
	}
	matched, _, confidence := matcher.Match(tag)
	if confidence == language.No {
		return DefaultTag(), false
	}
	return supportedBase(matched), true
}

// MatchTags picks the best supported tag for an ordered preference list.
func MatchTags(tags []language.Tag) language.Tag {
	if len(tags) == 0 {
		return DefaultTag()
	}
	matched, _, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultTag()
	}
	return supportedBase(matched)
}

// ResolveTag determines the language for a request from the lang query
// parameter, then Accept-Language.
func ResolveTag(r *http.Request) language.Tag {
	if r == nil {
		return DefaultTag()
	}
	if tag, ok := ParseTag(r.URL.Query().Get(LangParam)); ok {
		return tag
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil {
			return MatchTags(tags)
		}
	}
	return DefaultTag()
}

// Printer returns a message printer for tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// Text localizes key, returning fallback when the catalog has no entry.
func Text(p *message.Printer, key, fallback string) string {
	if p == nil {
		return fallback
	}
	value := p.Sprintf(key)
	if value == "" || value == key {
		return fallback
	}
	return value
}

// matcher results may carry -u-rg extensions; strip them back to a
// supported tag so printers hit the registered catalog entries.
func supportedBase(tag language.Tag) language.Tag {
	for _, supported := range SupportedTags() {
		if tag == supported {
			return supported
		}
	}
	base, _ := tag.Base()
	region, _ := tag.Region()
	for _, supported := range SupportedTags() {
		sb, _ := supported.Base()
		sr, _ := supported.Region()
		if sb == base && sr == region {
			return supported
		}
	}
	for _, supported := range SupportedTags() {
		sb, _ := supported.Base()
		if sb == base {
			return supported
		}
	}
	return DefaultTag()
}
