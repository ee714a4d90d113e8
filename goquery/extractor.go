// Package goquery implements manifest-driven extraction on top of the
// github.com/PuerkitoBio/goquery DOM library.
//
// The extractor treats structural problems as data rather than failures:
// a missing container or an empty item list comes back as an unsuccessful
// RawExtractionResult, not a Go error. Errors are reserved for invalid
// inputs such as a nil manifest or unparseable rules.
package goquery

import (
	"fmt"
	"regexp"
	"strings"

	gq "github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/civet"
	"github.com/fwojciec/civet/transform"
)

// Extractor applies a manifest's extraction rules to raw HTML.
type Extractor struct{}

var _ civet.Extractor = (*Extractor)(nil)

// NewExtractor returns a stateless manifest extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract locates the manifest's container and item elements and builds one
// record per item. Items missing a required field are excluded from the
// result with a warning, and the extraction still counts as successful. The
// base URL is used to resolve relative links; when empty, the manifest's
// source URL is used instead.
func (e *Extractor) Extract(html string, manifest *civet.StructuralManifest, baseURL string) (*civet.RawExtractionResult, error) {
	if manifest == nil {
		return nil, civet.Errorf(civet.EINVALID, "Manifest required.")
	}
	if err := manifest.ExtractionRules.Validate(); err != nil {
		return nil, err
	}
	if baseURL == "" {
		baseURL = manifest.SourceURL
	}

	doc, err := gq.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, civet.Errorf(civet.EINVALID, "Unparseable HTML: %s", err)
	}

	result := &civet.RawExtractionResult{
		Items:    []map[string]string{},
		Warnings: []string{},
		Errors:   []string{},
	}

	container := doc.Find(manifest.ExtractionRules.ContainerSelector).First()
	if container.Length() == 0 {
		result.Errors = append(result.Errors, "Container not found")
		return result, nil
	}

	items := container.Find(manifest.ExtractionRules.ItemSelector)
	if items.Length() == 0 {
		result.Errors = append(result.Errors, "No items found")
		return result, nil
	}

	// Regexes are shared across items, so compile them once. A mapping with
	// a broken pattern degrades to empty values rather than failing the run.
	regexes, regexWarnings := compileMappingRegexes(manifest.ExtractionRules.FieldMappings)
	result.Warnings = append(result.Warnings, regexWarnings...)

	items.Each(func(i int, item *gq.Selection) {
		for _, step := range manifest.ExtractionRules.Preprocessing {
			if step.Action == civet.PreprocessRemoveElements && step.Selector != "" {
				item.Find(step.Selector).Remove()
			}
		}

		record := make(map[string]string, len(manifest.ExtractionRules.FieldMappings))
		for _, mapping := range manifest.ExtractionRules.FieldMappings {
			value := extractField(item, mapping, regexes[mapping.FieldName])
			if mapping.Transform != nil {
				value = transform.Apply(value, *mapping.Transform, baseURL)
			}
			if value == "" && !mapping.Required && mapping.DefaultValue != "" {
				value = mapping.DefaultValue
			}
			if value == "" {
				continue
			}
			record[mapping.FieldName] = value
		}

		if field := missingRequired(record, manifest.ExtractionRules.FieldMappings); field != "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("item %d skipped: missing required field %q", i, field))
			return
		}

		result.Items = append(result.Items, record)
	})

	result.Success = true
	return result, nil
}

// extractField pulls the raw value for a single mapping out of an item
// element. An empty selector targets the item element itself.
func extractField(item *gq.Selection, mapping civet.FieldMapping, re *regexp.Regexp) string {
	sel := item
	if mapping.Selector != "" {
		sel = item.Find(mapping.Selector).First()
		if sel.Length() == 0 {
			return ""
		}
	}

	switch mapping.Method {
	case civet.MethodText:
		return strings.TrimSpace(sel.Text())
	case civet.MethodAttribute:
		v, _ := sel.Attr(mapping.Attribute)
		return strings.TrimSpace(v)
	case civet.MethodRegex:
		if re == nil {
			return ""
		}
		m := re.FindStringSubmatch(strings.TrimSpace(sel.Text()))
		if m == nil || mapping.RegexGroup >= len(m) {
			return ""
		}
		return strings.TrimSpace(m[mapping.RegexGroup])
	}
	return ""
}

// missingRequired returns the name of the first required field absent from
// the record, or "" when all required fields are present.
func missingRequired(record map[string]string, mappings []civet.FieldMapping) string {
	for _, mapping := range mappings {
		if mapping.Required && record[mapping.FieldName] == "" {
			return mapping.FieldName
		}
	}
	return ""
}

func compileMappingRegexes(mappings []civet.FieldMapping) (map[string]*regexp.Regexp, []string) {
	var warnings []string
	regexes := make(map[string]*regexp.Regexp)
	for _, mapping := range mappings {
		if mapping.Method != civet.MethodRegex {
			continue
		}
		re, err := regexp.Compile(mapping.RegexPattern)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("field %q: invalid regex pattern %q", mapping.FieldName, mapping.RegexPattern))
			continue
		}
		regexes[mapping.FieldName] = re
	}
	return regexes, warnings
}
