package goquery

import (
	"fmt"
	"strings"

	gq "github.com/PuerkitoBio/goquery"
	"github.com/cespare/xxhash/v2"
)

// maxFingerprintNodes caps the number of elements folded into a structure
// hash so pathological pages stay cheap to fingerprint.
const maxFingerprintNodes = 4096

// Elements that carry no visible structure. Analytics snippets and injected
// script tags vary between fetches of the same page, so they are excluded
// from the skeleton.
var nonStructural = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"meta":     true,
	"link":     true,
}

// Fingerprint reduces a page to a hash of its element skeleton: tag names,
// ids and class lists in document order, with all text content ignored.
// Fetches of a page whose data changed but whose layout did not produce the
// same fingerprint.
func Fingerprint(html string) string {
	doc, err := gq.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Sprintf("%016x", xxhash.Sum64String(html))
	}

	var sb strings.Builder
	count := 0
	doc.Find("*").EachWithBreak(func(_ int, sel *gq.Selection) bool {
		if count >= maxFingerprintNodes {
			return false
		}
		tag := gq.NodeName(sel)
		if nonStructural[tag] {
			return true
		}
		count++
		sb.WriteString(tag)
		if id, ok := sel.Attr("id"); ok && id != "" {
			sb.WriteByte('#')
			sb.WriteString(id)
		}
		if class, ok := sel.Attr("class"); ok {
			for _, c := range strings.Fields(class) {
				sb.WriteByte('.')
				sb.WriteString(c)
			}
		}
		sb.WriteByte(';')
		return true
	})
	return fmt.Sprintf("%016x", xxhash.Sum64String(sb.String()))
}
