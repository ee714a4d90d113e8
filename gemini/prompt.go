package gemini

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/civet"
	"google.golang.org/genai"
)

// PromptVersion identifies the analysis prompt generation. Manifests record
// it alongside PromptHash so a prompt change invalidates cached rulesets.
const PromptVersion = "v1"

// systemInstruction is the static analysis brief. Changing it changes
// PromptHash.
const systemInstruction = `You are an expert in HTML structure analysis. Given an HTML page listing civic data records, propose CSS selectors and field extraction rules that a deterministic scraper can replay without you.

Rules:
- containerSelector must match exactly one element wrapping all repeating records.
- itemSelector is evaluated relative to the container and must match one element per record.
- Each field mapping selects a descendant of an item and reads its text content, an attribute value, or a regex capture group.
- Prefer stable selectors: semantic tags, ids and persistent class names over positional selectors.
- Mark a field required only if every record on the page carries it.
- Use preprocessing remove_elements steps for ads or decoration nested inside items.
- Use the url_resolve transform for link fields and date_parse for date fields.
- Report your confidence in the ruleset between 0 and 1.`

// promptTemplate carries the data-type-specific portion of the analysis
// prompt: what the records represent and which field names to look for.
type promptTemplate struct {
	goal   string
	fields []string
}

var promptTemplates = map[civet.DataType]promptTemplate{
	civet.DataTypePropositions: {
		goal:   "ballot measures or propositions, one record per measure",
		fields: []string{"title", "number", "status", "summary", "url", "election_date"},
	},
	civet.DataTypeMeetings: {
		goal:   "public meetings or hearings, one record per meeting",
		fields: []string{"title", "date", "time", "location", "body", "agenda_url"},
	},
	civet.DataTypeRepresentatives: {
		goal:   "elected representatives or legislators, one record per person",
		fields: []string{"name", "district", "party", "role", "profile_url", "email"},
	},
	civet.DataTypeCampaignFinance: {
		goal:   "campaign finance filings or contributions, one record per filing",
		fields: []string{"committee", "candidate", "amount", "date", "filing_url"},
	},
	civet.DataTypeLobbying: {
		goal:   "lobbying registrations or activity reports, one record per registration",
		fields: []string{"lobbyist", "client", "subject", "period", "filing_url"},
	},
}

// defaultTemplate covers data types without a registered template.
var defaultTemplate = promptTemplate{
	goal:   "repeating civic data records",
	fields: []string{"title", "date", "url"},
}

// templateDataTypes fixes the iteration order for PromptHash.
var templateDataTypes = []civet.DataType{
	civet.DataTypePropositions,
	civet.DataTypeMeetings,
	civet.DataTypeRepresentatives,
	civet.DataTypeCampaignFinance,
	civet.DataTypeLobbying,
}

// templateFor returns the prompt template for the data type, falling back to
// the generic template.
func templateFor(dataType civet.DataType) promptTemplate {
	if tpl, ok := promptTemplates[dataType]; ok {
		return tpl
	}
	return defaultTemplate
}

// BuildPrompt builds the user prompt for one analysis request. The digest is
// an optional readable rendering of the page content; pass "" to send HTML
// only.
func BuildPrompt(req civet.AnalysisRequest, digest string) string {
	tpl := templateFor(req.DataType)

	goal := req.ContentGoal
	if goal == "" {
		goal = tpl.goal
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze the structure of this %s page from region %s.\n", req.DataType, req.RegionID)
	fmt.Fprintf(&sb, "The records to extract are: %s.\n", goal)
	fmt.Fprintf(&sb, "Likely field names: %s.\n", strings.Join(tpl.fields, ", "))
	for _, hint := range req.Hints {
		fmt.Fprintf(&sb, "Hint: %s\n", hint)
	}
	fmt.Fprintf(&sb, "Source URL: %s\n", req.SourceURL)
	if digest != "" {
		sb.WriteString("\n<content_digest>\n")
		sb.WriteString(digest)
		sb.WriteString("\n</content_digest>\n")
	}
	sb.WriteString("\n<html>\n")
	sb.WriteString(req.HTML)
	sb.WriteString("\n</html>\n")
	return sb.String()
}

// BuildConfig returns the GenerateContentConfig for analysis calls: low
// temperature and a response constrained to the ruleset JSON schema.
func BuildConfig() *genai.GenerateContentConfig {
	temp := float32(0.1)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		},
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	}
}

// responseSchema mirrors civet.ExtractionRules plus a confidence estimate.
func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"containerSelector": {
				Type:        genai.TypeString,
				Description: "CSS selector for the single element wrapping all records",
			},
			"itemSelector": {
				Type:        genai.TypeString,
				Description: "CSS selector matching one element per record, relative to the container",
			},
			"fieldMappings": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"fieldName":        {Type: genai.TypeString},
						"selector":         {Type: genai.TypeString},
						"extractionMethod": {Type: genai.TypeString, Enum: []string{"text", "attribute", "regex"}},
						"attribute":        {Type: genai.TypeString},
						"regexPattern":     {Type: genai.TypeString},
						"regexGroup":       {Type: genai.TypeInteger},
						"required":         {Type: genai.TypeBoolean},
						"defaultValue":     {Type: genai.TypeString},
						"transform": {
							Type: genai.TypeObject,
							Properties: map[string]*genai.Schema{
								"kind": {Type: genai.TypeString, Enum: []string{
									"trim", "lowercase", "uppercase", "strip_html",
									"url_resolve", "regex_replace", "name_format", "date_parse",
								}},
								"pattern":     {Type: genai.TypeString},
								"replacement": {Type: genai.TypeString},
								"flags":       {Type: genai.TypeString},
							},
							Required: []string{"kind"},
						},
					},
					Required: []string{"fieldName", "selector", "extractionMethod"},
				},
			},
			"preprocessing": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"action":   {Type: genai.TypeString, Enum: []string{"remove_elements"}},
						"selector": {Type: genai.TypeString},
					},
					Required: []string{"action", "selector"},
				},
			},
			"confidence": {
				Type:        genai.TypeNumber,
				Description: "certainty in the ruleset between 0 and 1",
			},
		},
		Required: []string{"containerSelector", "itemSelector", "fieldMappings", "confidence"},
	}
}

// PromptHash fingerprints the static prompt skeleton: the system instruction
// plus every template. Request content never feeds the hash, so two manifests
// produced by the same prompt generation carry the same hash.
func PromptHash() string {
	var sb strings.Builder
	sb.WriteString(PromptVersion)
	sb.WriteString("\n")
	sb.WriteString(systemInstruction)
	for _, dt := range templateDataTypes {
		tpl := templateFor(dt)
		sb.WriteString("\n")
		sb.WriteString(string(dt))
		sb.WriteString(":")
		sb.WriteString(tpl.goal)
		sb.WriteString(":")
		sb.WriteString(strings.Join(tpl.fields, ","))
	}
	return fmt.Sprintf("%016x", xxhash.Sum64String(sb.String()))
}
