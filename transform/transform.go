// Package transform provides the pure value transformations a field mapping
// can apply after extraction: whitespace and case normalization, HTML
// stripping, URL resolution, regex replacement, name reordering, and date
// normalization.
package transform

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/fwojciec/civet"
	"golang.org/x/net/html"
)

// ISODate is the normalized output layout of the date_parse kind.
const ISODate = "2006-01-02"

// Apply runs one transformation over value. Transformations never fail: on
// any malformed input (unparseable date, invalid regex, bad URL) the value
// is returned unchanged so extraction can proceed and validation can judge
// the outcome.
func Apply(value string, spec civet.TransformSpec, baseURL string) string {
	switch spec.Kind {
	case civet.TransformTrim:
		return strings.TrimSpace(value)
	case civet.TransformLowercase:
		return strings.ToLower(value)
	case civet.TransformUppercase:
		return strings.ToUpper(value)
	case civet.TransformStripHTML:
		return StripHTML(value)
	case civet.TransformURLResolve:
		return ResolveURL(value, baseURL)
	case civet.TransformRegexReplace:
		return RegexReplace(value, spec.Pattern, spec.Replacement, spec.Flags)
	case civet.TransformNameFormat:
		return FormatName(value)
	case civet.TransformDateParse:
		return ParseDate(value)
	}
	return value
}

// StripHTML removes all markup from value, leaving only text content in
// document order. Nested tags collapse to their text; script and style
// bodies are dropped since they are not rendered text.
func StripHTML(value string) string {
	if !strings.ContainsRune(value, '<') {
		return value
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(value))
	skipDepth := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or malformed tail; either way we keep what we have.
			return b.String()
		case html.StartTagToken:
			name, _ := z.TagName()
			if isNonTextTag(string(name)) {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if isNonTextTag(string(name)) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isNonTextTag(name string) bool {
	return name == "script" || name == "style"
}

// ResolveURL resolves value against baseURL. Absolute inputs are returned
// unchanged regardless of base; without a base, relative inputs are
// returned unchanged.
func ResolveURL(value, baseURL string) string {
	ref, err := url.Parse(strings.TrimSpace(value))
	if err != nil {
		return value
	}
	if ref.IsAbs() {
		return value
	}
	if baseURL == "" {
		return value
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return value
	}
	return base.ResolveReference(ref).String()
}

// RegexReplace applies pattern/replacement to value. Go replacement is
// global already, so the "g" flag is accepted as a no-op; "i", "m" and "s"
// map to inline flags. An empty or invalid pattern returns value unchanged.
func RegexReplace(value, pattern, replacement, flags string) string {
	if pattern == "" {
		return value
	}
	if inline := inlineFlags(flags); inline != "" {
		pattern = "(?" + inline + ")" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return value
	}
	return re.ReplaceAllString(value, replacement)
}

func inlineFlags(flags string) string {
	var b strings.Builder
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			b.WriteRune(f)
		}
	}
	return b.String()
}

// FormatName converts "Last, First" to "First Last" and collapses internal
// whitespace runs to single spaces. Values without exactly one comma are
// whitespace-normalized only.
func FormatName(value string) string {
	parts := strings.Split(value, ",")
	if len(parts) == 2 {
		first := collapseWhitespace(parts[1])
		last := collapseWhitespace(parts[0])
		switch {
		case first == "":
			return last
		case last == "":
			return first
		}
		return first + " " + last
	}
	return collapseWhitespace(value)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// ParseDate normalizes a date string to ISO YYYY-MM-DD. It accepts the
// long-form ("November 3, 2026"), abbreviated-month ("Feb 17, 2026"),
// US numeric MM/DD/YY and MM/DD/YYYY, and ISO YYYY-MM-DD shapes, and
// returns the input unchanged when it cannot be parsed.
func ParseDate(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return value
	}
	// ParseAny prefers month-first for ambiguous numerics, which matches the
	// US-style civic sources this pipeline targets.
	t, err := dateparse.ParseAny(trimmed)
	if err != nil {
		return value
	}
	return t.Format(ISODate)
}
